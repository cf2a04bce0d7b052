package services

import (
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"baton/live"
	"baton/types"
)

// Sentinel errors the handlers translate into HTTP statuses.
var (
	ErrNotScanned = errors.New("session not scanned yet")
	ErrNotFound   = errors.New("not found")
	ErrNoClip     = errors.New("clip slot is empty")
)

// Session interface defines the bridge's view of the Live session. It wraps
// the proxy graph with index validation, DTO mapping and the locking the
// proxies themselves do not provide.
type Session interface {
	Ping() error
	Summary() types.SetSummary
	Scan(opts live.ScanOptions) error
	Scanned() bool

	Tracks() []types.TrackInfo
	Track(index int) (types.TrackInfo, error)
	StopTrack(index int) error
	SetTrackVolume(index int, volume float64) error

	Clip(track, slot int) (types.ClipInfo, error)
	ClipDetails(track, slot int) (types.ClipDetailsInfo, error)
	ClipNotes(track, slot int) ([]types.NoteInfo, error)
	PlayClip(track, slot int) (types.ClipInfo, error)
	StopClip(track, slot int) (types.ClipInfo, error)
	RenameClip(track, slot int, name string) error
	AddClipNote(track, slot int, req types.AddNoteRequest) error
	RemoveClipNotes(track, slot int) error

	DetailClipDetails() (types.ClipDetailsInfo, error)
	DetailClipNotes() ([]types.NoteInfo, error)
	AddDetailClipNote(req types.AddNoteRequest) error
	RemoveDetailClipNotes() error

	Tempo() (float64, error)
	SetTempo(bpm float64) error
	PlaySet() error
	StopSet() error

	SnapshotYAML() ([]byte, error)
	SaveSnapshot(path string) error
}

// session wraps a live.Set. The RWMutex covers the proxy graph only: scans
// and clip play/stop (which move the local mirrors) take the write lock,
// reads that traverse the graph take the read lock. Methods that just hit
// the wire (tempo, song transport, detail view, ping) stay lock-free; the
// transport serializes itself, and they must not stall behind a running
// scan's write lock.
type session struct {
	set *live.Set
	mu  sync.RWMutex
	log *logrus.Entry
}

// NewSession creates a session service over a set
func NewSession(set *live.Set) Session {
	return &session{
		set: set,
		log: logrus.WithField("component", "session"),
	}
}

// Ping checks that Live is reachable and answering.
func (s *session) Ping() error {
	return s.set.Ping()
}

// Summary reports the session at a glance. Tempo is best effort so a summary
// still renders when Live is gone.
func (s *session) Summary() types.SetSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	summary := types.SetSummary{
		Connected: s.set.Ping() == nil,
		Scanned:   len(s.set.Tracks()) > 0,
		Tracks:    len(s.set.Tracks()),
		Scenes:    s.set.NumScannedScenes(),
	}
	if tempo, err := s.set.Tempo(); err == nil {
		summary.Tempo = tempo
	}
	return summary
}

// Scan rebuilds the proxy graph.
func (s *session) Scan(opts live.ScanOptions) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.set.Scan(opts)
}

// Scanned reports whether a scan has populated the graph.
func (s *session) Scanned() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.set.Tracks()) > 0
}

// Tracks maps the scanned graph to DTOs.
func (s *session) Tracks() []types.TrackInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tracks := make([]types.TrackInfo, 0, len(s.set.Tracks()))
	for _, tr := range s.set.Tracks() {
		tracks = append(tracks, trackInfo(tr))
	}
	return tracks
}

// Track returns one track DTO.
func (s *session) Track(index int) (types.TrackInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tr, err := s.trackAt(index)
	if err != nil {
		return types.TrackInfo{}, err
	}
	return trackInfo(tr), nil
}

// StopTrack stops all clips on a track.
func (s *session) StopTrack(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tr, err := s.trackAt(index)
	if err != nil {
		return err
	}
	return tr.Stop()
}

// SetTrackVolume writes a track's mixer volume.
func (s *session) SetTrackVolume(index int, volume float64) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tr, err := s.trackAt(index)
	if err != nil {
		return err
	}
	return tr.SetVolume(volume)
}

// Clip returns one clip DTO.
func (s *session) Clip(track, slot int) (types.ClipInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, err := s.clipAt(track, slot)
	if err != nil {
		return types.ClipInfo{}, err
	}
	return clipInfo(c), nil
}

// ClipDetails queries Live for the clip's full record.
func (s *session) ClipDetails(track, slot int) (types.ClipDetailsInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, err := s.clipAt(track, slot)
	if err != nil {
		return types.ClipDetailsInfo{}, err
	}
	details, err := c.Details()
	if err != nil {
		return types.ClipDetailsInfo{}, err
	}
	return detailsInfo(details), nil
}

// ClipNotes queries Live for the clip's notes.
func (s *session) ClipNotes(track, slot int) ([]types.NoteInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, err := s.clipAt(track, slot)
	if err != nil {
		return nil, err
	}
	notes, err := c.Notes()
	if err != nil {
		return nil, err
	}
	return noteInfos(notes), nil
}

// PlayClip fires a clip slot and returns the refreshed DTO.
func (s *session) PlayClip(track, slot int) (types.ClipInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.clipAt(track, slot)
	if err != nil {
		return types.ClipInfo{}, err
	}
	if err := c.Play(); err != nil {
		return types.ClipInfo{}, err
	}
	return clipInfo(c), nil
}

// StopClip stops a clip and returns the refreshed DTO.
func (s *session) StopClip(track, slot int) (types.ClipInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.clipAt(track, slot)
	if err != nil {
		return types.ClipInfo{}, err
	}
	if err := c.Stop(); err != nil {
		return types.ClipInfo{}, err
	}
	return clipInfo(c), nil
}

// RenameClip renames a clip in Live.
func (s *session) RenameClip(track, slot int, name string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, err := s.clipAt(track, slot)
	if err != nil {
		return err
	}
	return c.SetName(name)
}

// AddClipNote inserts a note into a clip.
func (s *session) AddClipNote(track, slot int, req types.AddNoteRequest) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, err := s.clipAt(track, slot)
	if err != nil {
		return err
	}
	return c.AddNote(req.Pitch, req.StartTime, req.Duration, req.Velocity, req.Mute)
}

// RemoveClipNotes clears a clip's notes.
func (s *session) RemoveClipNotes(track, slot int) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, err := s.clipAt(track, slot)
	if err != nil {
		return err
	}
	return c.RemoveNotes()
}

// DetailClipDetails queries the clip selected in Live's detail view.
func (s *session) DetailClipDetails() (types.ClipDetailsInfo, error) {
	details, err := s.set.DetailClip().Details()
	if err != nil {
		return types.ClipDetailsInfo{}, err
	}
	return detailsInfo(details), nil
}

// DetailClipNotes queries the selected clip's notes.
func (s *session) DetailClipNotes() ([]types.NoteInfo, error) {
	notes, err := s.set.DetailClip().Notes()
	if err != nil {
		return nil, err
	}
	return noteInfos(notes), nil
}

// AddDetailClipNote inserts a note into the selected clip.
func (s *session) AddDetailClipNote(req types.AddNoteRequest) error {
	return s.set.DetailClip().AddNote(req.Pitch, req.StartTime, req.Duration, req.Velocity, req.Mute)
}

// RemoveDetailClipNotes clears the selected clip's notes.
func (s *session) RemoveDetailClipNotes() error {
	return s.set.DetailClip().RemoveNotes()
}

// Tempo reads the song tempo.
func (s *session) Tempo() (float64, error) {
	return s.set.Tempo()
}

// SetTempo writes the song tempo.
func (s *session) SetTempo(bpm float64) error {
	return s.set.SetTempo(bpm)
}

// PlaySet starts song playback.
func (s *session) PlaySet() error {
	return s.set.Play()
}

// StopSet stops song playback.
func (s *session) StopSet() error {
	return s.set.Stop()
}

// SnapshotYAML renders the scanned graph as a YAML document.
func (s *session) SnapshotYAML() ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.set.Tracks()) == 0 {
		return nil, ErrNotScanned
	}
	data, err := yaml.Marshal(s.set.Snapshot())
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return data, nil
}

// SaveSnapshot writes the scanned graph to a YAML file.
func (s *session) SaveSnapshot(path string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.set.Tracks()) == 0 {
		return ErrNotScanned
	}
	return s.set.Save(path)
}

// trackAt resolves a track index under the caller's lock.
func (s *session) trackAt(index int) (*live.Track, error) {
	if len(s.set.Tracks()) == 0 {
		return nil, ErrNotScanned
	}
	tr := s.set.Track(index)
	if tr == nil {
		return nil, fmt.Errorf("track %d: %w", index, ErrNotFound)
	}
	return tr, nil
}

// clipAt resolves a clip slot under the caller's lock.
func (s *session) clipAt(track, slot int) (*live.Clip, error) {
	tr, err := s.trackAt(track)
	if err != nil {
		return nil, err
	}
	if slot < 0 || slot >= len(tr.Clips()) {
		return nil, fmt.Errorf("slot %d on track %d: %w", slot, track, ErrNotFound)
	}
	c := tr.Clip(slot)
	if c == nil {
		return nil, fmt.Errorf("slot %d on track %d: %w", slot, track, ErrNoClip)
	}
	return c, nil
}

func trackInfo(tr *live.Track) types.TrackInfo {
	info := types.TrackInfo{
		Index:   tr.Index(),
		Name:    tr.Name(),
		Group:   tr.IsGroup(),
		Playing: tr.Playing(),
		Clips:   make([]*types.ClipInfo, len(tr.Clips())),
	}
	for _, member := range tr.Tracks() {
		info.Members = append(info.Members, member.Index())
	}
	for i, c := range tr.Clips() {
		if c == nil {
			continue
		}
		ci := clipInfo(c)
		info.Clips[i] = &ci
	}
	return info
}

func clipInfo(c *live.Clip) types.ClipInfo {
	return types.ClipInfo{
		TrackIndex: c.Track().Index(),
		Index:      c.Index(),
		Name:       c.Name(),
		Length:     c.Length(),
		State:      c.State().String(),
		Display:    c.String(),
	}
}

func detailsInfo(d live.ClipDetails) types.ClipDetailsInfo {
	return types.ClipDetailsInfo{
		Name:                 d.Name,
		Length:               d.Length,
		SignatureNumerator:   d.SignatureNumerator,
		SignatureDenominator: d.SignatureDenominator,
		StartMarker:          d.StartMarker,
		EndMarker:            d.EndMarker,
		LoopStart:            d.LoopStart,
		LoopEnd:              d.LoopEnd,
	}
}

func noteInfos(notes []live.Note) []types.NoteInfo {
	infos := make([]types.NoteInfo, len(notes))
	for i, n := range notes {
		infos[i] = types.NoteInfo{
			Pitch:     n.Pitch,
			StartTime: n.StartTime,
			Duration:  n.Duration,
			Velocity:  n.Velocity,
			Mute:      n.Mute,
		}
	}
	return infos
}

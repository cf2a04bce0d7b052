package live

import (
	"github.com/sirupsen/logrus"
)

// Set is the root proxy for the Live session. It owns the track graph built
// by Scan and the song-level commands. Like the rest of the package it keeps
// no locks; callers that share a Set across goroutines serialize access
// themselves.
type Set struct {
	t      Transport
	tracks []*Track
	scenes int
	detail *DetailClip
	log    *logrus.Entry
}

// ScanOptions controls how much Scan fetches. Names and lengths cost one
// extra round trip per clip each, which adds up on big sets.
type ScanOptions struct {
	ClipNames   bool
	ClipLengths bool
	// Progress, when set, is called after every scanned clip slot with the
	// number of slots done and the total.
	Progress func(done, total int)
}

// NewSet returns a session proxy on top of t. The track graph is empty until
// Scan runs.
func NewSet(t Transport) *Set {
	return &Set{
		t:      t,
		detail: NewDetailClip(t),
		log:    logrus.WithField("component", "set"),
	}
}

// Transport returns the handle the set was built on.
func (s *Set) Transport() Transport { return s.t }

// DetailClip returns the proxy for Live's currently selected clip.
func (s *Set) DetailClip() *DetailClip { return s.detail }

// Tracks returns the scanned track graph, group members included at top
// level in session order.
func (s *Set) Tracks() []*Track { return s.tracks }

// Track returns the scanned track at index, or nil when out of range.
func (s *Set) Track(index int) *Track {
	if index < 0 || index >= len(s.tracks) {
		return nil
	}
	return s.tracks[index]
}

// NumScannedScenes returns the scene count observed by the last Scan.
func (s *Set) NumScannedScenes() int { return s.scenes }

// Clip returns the scanned clip at (track, slot), or nil when the slot is
// empty or either index is out of range.
func (s *Set) Clip(track, slot int) *Clip {
	tr := s.Track(track)
	if tr == nil {
		return nil
	}
	return tr.Clip(slot)
}

// Ping round-trips a test command to check that Live is reachable and
// AbletonOSC is answering.
func (s *Set) Ping() error {
	_, err := s.t.Query("/live/test")
	return err
}

var songTempo = songProp("tempo", asFloat)

// Tempo reads the song tempo in BPM.
func (s *Set) Tempo() (float64, error) {
	return songTempo.get(s.t)
}

// SetTempo writes the song tempo in BPM.
func (s *Set) SetTempo(bpm float64) error {
	return songTempo.set(s.t, bpm)
}

// Play starts song playback from the current position.
func (s *Set) Play() error {
	return s.t.Cmd("/live/song/start_playing")
}

// Stop halts song playback.
func (s *Set) Stop() error {
	return s.t.Cmd("/live/song/stop_playing")
}

// NumTracks asks Live how many tracks the session has.
func (s *Set) NumTracks() (int, error) {
	resp, err := s.t.Query("/live/song/get/num_tracks")
	if err != nil {
		return 0, err
	}
	if len(resp) < 1 {
		return 0, shapeErr("/live/song/get/num_tracks", "empty response")
	}
	return asInt(resp[0])
}

// NumScenes asks Live how many scenes (clip slot rows) the session has.
func (s *Set) NumScenes() (int, error) {
	resp, err := s.t.Query("/live/song/get/num_scenes")
	if err != nil {
		return 0, err
	}
	if len(resp) < 1 {
		return 0, shapeErr("/live/song/get/num_scenes", "empty response")
	}
	return asInt(resp[0])
}

// StartBeatListener asks Live to stream beat events. They arrive as
// unsolicited messages on the query's reply port; register a callback with
// Query.OnBeat before starting the stream.
func (s *Set) StartBeatListener() error {
	return s.t.Cmd("/live/song/start_listen/beat")
}

// StopBeatListener ends the beat stream.
func (s *Set) StopBeatListener() error {
	return s.t.Cmd("/live/song/stop_listen/beat")
}

// Scan walks the session and rebuilds the local track/group/clip graph. Group
// heads are detected by their foldable flag; the member tracks that follow
// attach to the most recent head. Existing proxies are discarded, so mirrors
// reset to what Live reports.
func (s *Set) Scan(opts ScanOptions) error {
	numTracks, err := s.NumTracks()
	if err != nil {
		return err
	}
	numScenes, err := s.NumScenes()
	if err != nil {
		return err
	}

	total := numTracks * numScenes
	done := 0
	tracks := make([]*Track, 0, numTracks)
	var group *Track

	for i := 0; i < numTracks; i++ {
		name, err := trackName.get(s.t, i)
		if err != nil {
			return err
		}
		foldable, err := trackIsFoldable.get(s.t, i)
		if err != nil {
			return err
		}
		grouped, err := trackIsGrouped.get(s.t, i)
		if err != nil {
			return err
		}

		var tr *Track
		switch {
		case foldable:
			tr = NewGroup(s.t, i, name)
			group = tr
		case grouped && group != nil:
			tr = NewTrack(s.t, i, name)
			group.AddMember(tr)
		default:
			tr = NewTrack(s.t, i, name)
			group = nil
		}

		clips := make([]*Clip, numScenes)
		for j := 0; j < numScenes; j++ {
			hasClip, err := s.slotHasClip(i, j)
			if err != nil {
				return err
			}
			if hasClip {
				clipName := ""
				clipLength := 0.0
				if opts.ClipNames {
					if clipName, err = clipSlotName.get(s.t, i, j); err != nil {
						return err
					}
				}
				if opts.ClipLengths {
					if clipLength, err = clipSlotLength.get(s.t, i, j); err != nil {
						return err
					}
				}
				clips[j] = NewClip(tr, j, clipName, clipLength)
			}
			done++
			if opts.Progress != nil {
				opts.Progress(done, total)
			}
		}
		tr.SetClips(clips)
		tracks = append(tracks, tr)
	}

	s.tracks = tracks
	s.scenes = numScenes
	s.log.Infof("scanned %d tracks, %d scenes", numTracks, numScenes)
	return nil
}

// Scan support descriptors. Clip name and length reuse the clip property
// table; the track flags get their own entries here because nothing else
// reads them.
var (
	trackName       = trackProp("name", asString)
	trackIsFoldable = trackProp("is_foldable", asBool)
	trackIsGrouped  = trackProp("is_grouped", asBool)
	clipSlotName    = clipProp("name", asString)
	clipSlotLength  = clipProp("length", asFloat)
)

func (s *Set) slotHasClip(track, slot int) (bool, error) {
	resp, err := s.t.Query("/live/clip_slot/get/has_clip", track, slot)
	if err != nil {
		return false, err
	}
	if len(resp) < 3 {
		return false, shapeErr("/live/clip_slot/get/has_clip", "expected 3 slots, got %d", len(resp))
	}
	return asBool(resp[2])
}

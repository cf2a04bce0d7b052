package live

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// Track is a proxy for one track of the session. Its clip slice is sparse:
// empty slots hold nil. A track flagged as a group heads a fold of member
// tracks; firing a clip slot on a group fires the same slot across the
// members, which is why the members are reachable from here.
type Track struct {
	index   int
	name    string
	playing bool
	group   bool
	tracks  []*Track
	clips   []*Clip

	t   Transport
	log *logrus.Entry
}

// NewTrack returns a proxy for the track at index.
func NewTrack(t Transport, index int, name string) *Track {
	return &Track{
		index: index,
		name:  name,
		t:     t,
		log:   logrus.WithField("component", "track"),
	}
}

// NewGroup returns a proxy for a group track at index. Members are attached
// with AddMember.
func NewGroup(t Transport, index int, name string) *Track {
	tr := NewTrack(t, index, name)
	tr.group = true
	return tr
}

// Index returns the track's position in the session.
func (tr *Track) Index() int { return tr.index }

// Name returns the locally mirrored track name.
func (tr *Track) Name() string { return tr.name }

// IsGroup reports whether this track heads a group.
func (tr *Track) IsGroup() bool { return tr.group }

// Tracks returns the group's member tracks, nil for a plain track.
func (tr *Track) Tracks() []*Track { return tr.tracks }

// AddMember attaches a member track to a group head.
func (tr *Track) AddMember(member *Track) {
	tr.tracks = append(tr.tracks, member)
}

// Playing returns the track's locally mirrored playing flag.
func (tr *Track) Playing() bool { return tr.playing }

// SetPlaying overrides the playing mirror. Clip.Play and Clip.Stop maintain
// it on their own; this is for callers that track state externally.
func (tr *Track) SetPlaying(v bool) { tr.playing = v }

// Clips returns the track's clip slots, nil entries included.
func (tr *Track) Clips() []*Clip { return tr.clips }

// Clip returns the clip at slot index, or nil when the slot is empty or out
// of range.
func (tr *Track) Clip(index int) *Clip {
	if index < 0 || index >= len(tr.clips) {
		return nil
	}
	return tr.clips[index]
}

// SetClips replaces the track's clip slots.
func (tr *Track) SetClips(clips []*Clip) { tr.clips = clips }

func (tr *Track) String() string {
	if tr.group {
		return fmt.Sprintf("Group (%d): %s", tr.index, tr.name)
	}
	return fmt.Sprintf("Track (%d): %s", tr.index, tr.name)
}

// Stop stops every playing clip on the track and lowers the playing mirror.
func (tr *Track) Stop() error {
	tr.log.Infof("stopping %s", tr)
	if err := tr.t.Cmd("/live/track/stop_all_clips", tr.index); err != nil {
		return err
	}
	tr.playing = false
	return nil
}

// Remote-backed track attributes. Track commands route on one echoed index.
var (
	trackVolume  = trackProp("volume", asFloat)
	trackPanning = trackProp("panning", asFloat)
	trackMute    = trackProp("mute", asBool)
	trackSolo    = trackProp("solo", asBool)
	trackArm     = trackProp("arm", asBool)
)

// Volume reads the track volume, 0..1 with 0.85 = 0 dB.
func (tr *Track) Volume() (float64, error) {
	return trackVolume.get(tr.t, tr.index)
}

// SetVolume writes the track volume.
func (tr *Track) SetVolume(v float64) error {
	return trackVolume.set(tr.t, tr.index, v)
}

// Panning reads the track pan position, -1..1.
func (tr *Track) Panning() (float64, error) {
	return trackPanning.get(tr.t, tr.index)
}

// SetPanning writes the track pan position.
func (tr *Track) SetPanning(v float64) error {
	return trackPanning.set(tr.t, tr.index, v)
}

// Mute reads the track's mute switch.
func (tr *Track) Mute() (bool, error) {
	return trackMute.get(tr.t, tr.index)
}

// SetMute writes the track's mute switch.
func (tr *Track) SetMute(v bool) error {
	return trackMute.set(tr.t, tr.index, v)
}

// Solo reads the track's solo switch.
func (tr *Track) Solo() (bool, error) {
	return trackSolo.get(tr.t, tr.index)
}

// SetSolo writes the track's solo switch.
func (tr *Track) SetSolo(v bool) error {
	return trackSolo.set(tr.t, tr.index, v)
}

// Arm reads the track's record arm switch.
func (tr *Track) Arm() (bool, error) {
	return trackArm.get(tr.t, tr.index)
}

// SetArm writes the track's record arm switch.
func (tr *Track) SetArm(v bool) error {
	return trackArm.set(tr.t, tr.index, v)
}

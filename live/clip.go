package live

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// ClipState is the locally mirrored play state of a clip slot. Only
// ClipStopped and ClipPlaying are ever asserted by this package (by Stop and
// Play); ClipEmpty and ClipStarting exist for callers that render grids and
// for the string form's symbols.
type ClipState int

const (
	ClipEmpty ClipState = iota
	ClipStopped
	ClipPlaying
	ClipStarting
)

// Symbol returns the one-character grid symbol for the state.
func (s ClipState) Symbol() string {
	switch s {
	case ClipEmpty:
		return " "
	case ClipPlaying:
		return ">"
	case ClipStarting:
		return "*"
	default:
		return "-"
	}
}

func (s ClipState) String() string {
	switch s {
	case ClipEmpty:
		return "empty"
	case ClipPlaying:
		return "playing"
	case ClipStarting:
		return "starting"
	default:
		return "stopped"
	}
}

// Note is one MIDI note event in a clip. Notes travel on the wire as flat
// runs of five scalars in this exact field order.
type Note struct {
	Pitch     int     // MIDI pitch, 0..127, 60 = C3
	StartTime float64 // beats from clip start
	Duration  float64 // beats
	Velocity  int     // 0..127
	Mute      bool
}

// ClipDetails is the fixed eight-field record Live returns for a clip. The
// wire carries the values positionally in this order, no names.
type ClipDetails struct {
	Name                 string
	Length               int
	SignatureNumerator   int
	SignatureDenominator int
	StartMarker          float64
	EndMarker            float64
	LoopStart            float64
	LoopEnd              float64
}

// Clip is a proxy for one clip slot of a track. The name, length and state
// fields are best-effort local mirrors seeded at construction; they are only
// ever changed by Play and Stop, never by the remote-backed getters, so they
// can drift from Live until re-scanned.
type Clip struct {
	track  *Track
	index  int
	name   string
	length float64
	state  ClipState

	t   Transport
	log *logrus.Entry
}

// NewClip returns a proxy for the clip at the given slot index of track. The
// transport handle is taken from the track. Length defaults to 4 beats when
// zero, matching a fresh Live clip.
func NewClip(track *Track, index int, name string, length float64) *Clip {
	if length == 0 {
		length = 4
	}
	return &Clip{
		track:  track,
		index:  index,
		name:   name,
		length: length,
		state:  ClipStopped,
		t:      track.t,
		log:    logrus.WithField("component", "clip"),
	}
}

// Track returns the track this clip sits on.
func (c *Clip) Track() *Track { return c.track }

// Index returns the clip's slot index within its track.
func (c *Clip) Index() int { return c.index }

// Name returns the locally mirrored clip name.
func (c *Clip) Name() string { return c.name }

// Length returns the locally mirrored clip length in beats.
func (c *Clip) Length() float64 { return c.length }

// State returns the locally mirrored play state.
func (c *Clip) State() ClipState { return c.state }

func (c *Clip) String() string {
	if c.name != "" {
		return fmt.Sprintf("Clip (%d,%d): %s [%s]", c.track.index, c.index, c.name, c.state.Symbol())
	}
	return fmt.Sprintf("Clip (%d,%d) [%s]", c.track.index, c.index, c.state.Symbol())
}

// addr returns the routing arguments every clip command starts with.
func (c *Clip) addr() []interface{} {
	return []interface{}{c.track.index, c.index}
}

func (c *Clip) addrWith(args ...interface{}) []interface{} {
	return append(c.addr(), args...)
}

// Play fires the clip slot. Live starts playback on its own schedule; locally
// the clip is marked playing and its track's playing flag is raised. Firing a
// slot on a group track makes Live fire the same slot in every member track,
// so the member mirrors are updated too: playing where the member has a clip
// in this slot, stopped where it does not.
func (c *Clip) Play() error {
	c.log.Infof("playing %s", c)
	if err := c.t.Cmd("/live/clip_slot/fire", c.addr()...); err != nil {
		return err
	}
	c.state = ClipPlaying
	c.track.playing = true
	if c.track.IsGroup() {
		for _, member := range c.track.tracks {
			member.playing = c.index < len(member.clips) && member.clips[c.index] != nil
		}
	}
	return nil
}

// Stop stops the clip. Only this clip's own track is marked stopped; group
// members keep their flags, which is how Live behaves (stopping one clip does
// not stop the rest of the group).
func (c *Clip) Stop() error {
	c.log.Infof("stopping %s", c)
	if err := c.t.Cmd("/live/clip/stop", c.addr()...); err != nil {
		return err
	}
	c.state = ClipStopped
	c.track.playing = false
	return nil
}

// Details fetches the clip's eight-field record. The response echoes the two
// routing indices before the record.
func (c *Clip) Details() (ClipDetails, error) {
	resp, err := c.t.Query("/live/clip/get/details", c.addr()...)
	if err != nil {
		return ClipDetails{}, err
	}
	if len(resp) < 2 {
		return ClipDetails{}, shapeErr("/live/clip/get/details", "missing echoed indices, got %d slots", len(resp))
	}
	return decodeDetails("/live/clip/get/details", resp[2:])
}

// Notes fetches the clip's notes as five-field tuples. The response echoes
// the two routing indices before the flat note data.
func (c *Clip) Notes() ([]Note, error) {
	resp, err := c.t.Query("/live/clip/get/notes", c.addr()...)
	if err != nil {
		return nil, err
	}
	if len(resp) < 2 {
		return nil, shapeErr("/live/clip/get/notes", "missing echoed indices, got %d slots", len(resp))
	}
	return decodeNotes(resp[2:])
}

// RemoveNotes deletes every note in the clip.
func (c *Clip) RemoveNotes() error {
	return c.t.Cmd("/live/clip/remove/notes", c.addr()...)
}

// AddNote inserts one note. Values are passed through as given; Live is the
// one that decides what is valid.
func (c *Clip) AddNote(pitch int, startTime, duration float64, velocity int, mute bool) error {
	return c.t.Cmd("/live/clip/add/notes", c.addrWith(pitch, startTime, duration, velocity, mute)...)
}

// SetName renames the clip in Live. The local name mirror is left alone; it
// refreshes on the next scan.
func (c *Clip) SetName(name string) error {
	return c.t.Cmd("/live/clip/set/name", c.addrWith(name)...)
}

// Remote-backed clip attributes, one descriptor per attribute. Every getter
// is a fresh round trip; nothing here touches the local mirrors.
var (
	clipSignatureNumerator   = clipProp("signature_numerator", asInt)
	clipSignatureDenominator = clipProp("signature_denominator", asInt)
	clipStartMarker          = clipProp("start_marker", asFloat)
	clipEndMarker            = clipProp("end_marker", asFloat)
	clipLoopStart            = clipProp("loop_start", asFloat)
	clipLoopEnd              = clipProp("loop_end", asFloat)
	clipPitchCoarse          = clipProp("pitch_coarse", asInt)
	clipIsPlaying            = clipProp("is_playing", asBool)
	clipIsMIDIClip           = clipProp("is_midi_clip", asBool)
	clipIsAudioClip          = clipProp("is_audio_clip", asBool)
	clipFilePath             = clipProp("file_path", asString)
)

// SignatureNumerator reads the clip's time signature numerator from Live.
func (c *Clip) SignatureNumerator() (int, error) {
	return clipSignatureNumerator.get(c.t, c.addr()...)
}

// SetSignatureNumerator writes the clip's time signature numerator.
func (c *Clip) SetSignatureNumerator(v int) error {
	return clipSignatureNumerator.set(c.t, c.addrWith(v)...)
}

// SignatureDenominator reads the clip's time signature denominator from Live.
func (c *Clip) SignatureDenominator() (int, error) {
	return clipSignatureDenominator.get(c.t, c.addr()...)
}

// SetSignatureDenominator writes the clip's time signature denominator.
func (c *Clip) SetSignatureDenominator(v int) error {
	return clipSignatureDenominator.set(c.t, c.addrWith(v)...)
}

// StartMarker reads the clip's start marker position in beats.
func (c *Clip) StartMarker() (float64, error) {
	return clipStartMarker.get(c.t, c.addr()...)
}

// SetStartMarker moves the clip's start marker.
func (c *Clip) SetStartMarker(v float64) error {
	return clipStartMarker.set(c.t, c.addrWith(v)...)
}

// EndMarker reads the clip's end marker position in beats.
func (c *Clip) EndMarker() (float64, error) {
	return clipEndMarker.get(c.t, c.addr()...)
}

// SetEndMarker moves the clip's end marker.
func (c *Clip) SetEndMarker(v float64) error {
	return clipEndMarker.set(c.t, c.addrWith(v)...)
}

// LoopStart reads the loop start position in beats.
func (c *Clip) LoopStart() (float64, error) {
	return clipLoopStart.get(c.t, c.addr()...)
}

// SetLoopStart moves the loop start.
func (c *Clip) SetLoopStart(v float64) error {
	return clipLoopStart.set(c.t, c.addrWith(v)...)
}

// LoopEnd reads the loop end position in beats.
func (c *Clip) LoopEnd() (float64, error) {
	return clipLoopEnd.get(c.t, c.addr()...)
}

// SetLoopEnd moves the loop end.
func (c *Clip) SetLoopEnd(v float64) error {
	return clipLoopEnd.set(c.t, c.addrWith(v)...)
}

// PitchCoarse reads the clip's coarse pitch shift in semitones.
func (c *Clip) PitchCoarse() (int, error) {
	return clipPitchCoarse.get(c.t, c.addr()...)
}

// SetPitchCoarse writes the clip's coarse pitch shift in semitones.
func (c *Clip) SetPitchCoarse(v int) error {
	return clipPitchCoarse.set(c.t, c.addrWith(v)...)
}

// IsPlaying asks Live whether the clip is currently playing. This is the
// authoritative answer, unlike the State mirror.
func (c *Clip) IsPlaying() (bool, error) {
	return clipIsPlaying.get(c.t, c.addr()...)
}

// IsMIDIClip asks Live whether the clip holds MIDI notes.
func (c *Clip) IsMIDIClip() (bool, error) {
	return clipIsMIDIClip.get(c.t, c.addr()...)
}

// IsAudioClip asks Live whether the clip holds audio.
func (c *Clip) IsAudioClip() (bool, error) {
	return clipIsAudioClip.get(c.t, c.addr()...)
}

// FilePath asks Live for the sample file backing an audio clip. Empty for
// MIDI clips.
func (c *Clip) FilePath() (string, error) {
	return clipFilePath.get(c.t, c.addr()...)
}

// decodeDetails turns the flat trailing values of a details response into a
// ClipDetails. The record is positional and exactly eight fields; any other
// arity is a shape error.
func decodeDetails(path string, vals []interface{}) (ClipDetails, error) {
	if len(vals) != 8 {
		return ClipDetails{}, shapeErr(path, "expected 8 detail values, got %d", len(vals))
	}
	var (
		d   ClipDetails
		err error
	)
	if d.Name, err = asString(vals[0]); err != nil {
		return ClipDetails{}, err
	}
	if d.Length, err = asInt(vals[1]); err != nil {
		return ClipDetails{}, err
	}
	if d.SignatureNumerator, err = asInt(vals[2]); err != nil {
		return ClipDetails{}, err
	}
	if d.SignatureDenominator, err = asInt(vals[3]); err != nil {
		return ClipDetails{}, err
	}
	if d.StartMarker, err = asFloat(vals[4]); err != nil {
		return ClipDetails{}, err
	}
	if d.EndMarker, err = asFloat(vals[5]); err != nil {
		return ClipDetails{}, err
	}
	if d.LoopStart, err = asFloat(vals[6]); err != nil {
		return ClipDetails{}, err
	}
	if d.LoopEnd, err = asFloat(vals[7]); err != nil {
		return ClipDetails{}, err
	}
	return d, nil
}

// decodeNotes regroups flat note data into five-field tuples. A trailing
// partial group is dropped, mirroring how the wire format is sliced.
func decodeNotes(vals []interface{}) ([]Note, error) {
	notes := make([]Note, 0, len(vals)/5)
	for i := 0; i+5 <= len(vals); i += 5 {
		var (
			n   Note
			err error
		)
		if n.Pitch, err = asInt(vals[i]); err != nil {
			return nil, err
		}
		if n.StartTime, err = asFloat(vals[i+1]); err != nil {
			return nil, err
		}
		if n.Duration, err = asFloat(vals[i+2]); err != nil {
			return nil, err
		}
		if n.Velocity, err = asInt(vals[i+3]); err != nil {
			return nil, err
		}
		if n.Mute, err = asBool(vals[i+4]); err != nil {
			return nil, err
		}
		notes = append(notes, n)
	}
	return notes, nil
}

package live

import "github.com/sirupsen/logrus"

// DetailClip addresses whatever clip is currently selected in Live's detail
// view. It carries no coordinates of its own; Live resolves the target, so
// the same value works across selection changes. Unlike the indexed clip
// commands, detail view responses carry no echoed routing indices: decoding
// starts at the first slot.
type DetailClip struct {
	t   Transport
	log *logrus.Entry
}

// NewDetailClip returns a proxy for the currently selected clip.
func NewDetailClip(t Transport) *DetailClip {
	return &DetailClip{
		t:   t,
		log: logrus.WithField("component", "detailclip"),
	}
}

// Details fetches the selected clip's eight-field record.
func (d *DetailClip) Details() (ClipDetails, error) {
	resp, err := d.t.Query("/live/view/detail_clip/get/details")
	if err != nil {
		return ClipDetails{}, err
	}
	return decodeDetails("/live/view/detail_clip/get/details", resp)
}

// Notes fetches the selected clip's notes.
func (d *DetailClip) Notes() ([]Note, error) {
	resp, err := d.t.Query("/live/view/detail_clip/get/notes")
	if err != nil {
		return nil, err
	}
	return decodeNotes(resp)
}

// RemoveNotes deletes every note in the selected clip.
func (d *DetailClip) RemoveNotes() error {
	return d.t.Cmd("/live/view/detail_clip/remove/notes")
}

// AddNote inserts one note into the selected clip. As with Clip.AddNote,
// values are passed through unchecked.
func (d *DetailClip) AddNote(pitch int, startTime, duration float64, velocity int, mute bool) error {
	return d.t.Cmd("/live/view/detail_clip/add/notes", pitch, startTime, duration, velocity, mute)
}

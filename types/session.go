package types

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// SetSummary represents the session at a glance
type SetSummary struct {
	Connected bool    `json:"connected"`
	Scanned   bool    `json:"scanned"`
	Tempo     float64 `json:"tempo,omitempty"`
	Tracks    int     `json:"tracks"`
	Scenes    int     `json:"scenes"`
}

// TrackInfo represents one track of the scanned session grid
type TrackInfo struct {
	Index   int         `json:"index"`
	Name    string      `json:"name"`
	Group   bool        `json:"group"`
	Playing bool        `json:"playing"`
	Members []int       `json:"members,omitempty"` // member track indices for groups
	Clips   []*ClipInfo `json:"clips"`             // null entries are empty slots
}

// ClipInfo represents one occupied clip slot
type ClipInfo struct {
	TrackIndex int     `json:"trackIndex"`
	Index      int     `json:"index"`
	Name       string  `json:"name"`
	Length     float64 `json:"length"`
	State      string  `json:"state"`
	Display    string  `json:"display"` // grid string form, e.g. `Clip (2,1): Bass [>]`
}

// ClipDetailsInfo represents the eight-field record Live reports for a clip
type ClipDetailsInfo struct {
	Name                 string  `json:"name"`
	Length               int     `json:"length"`
	SignatureNumerator   int     `json:"signatureNumerator"`
	SignatureDenominator int     `json:"signatureDenominator"`
	StartMarker          float64 `json:"startMarker"`
	EndMarker            float64 `json:"endMarker"`
	LoopStart            float64 `json:"loopStart"`
	LoopEnd              float64 `json:"loopEnd"`
}

// NoteInfo represents one MIDI note of a clip
type NoteInfo struct {
	Pitch     int     `json:"pitch"`
	StartTime float64 `json:"startTime"`
	Duration  float64 `json:"duration"`
	Velocity  int     `json:"velocity"`
	Mute      bool    `json:"mute"`
}

// AddNoteRequest is the payload for inserting a note into a clip. The proxy
// layer forwards values as-is, so range checking happens here at the API
// boundary.
type AddNoteRequest struct {
	Pitch     int     `json:"pitch"`
	StartTime float64 `json:"startTime"`
	Duration  float64 `json:"duration"`
	Velocity  int     `json:"velocity"`
	Mute      bool    `json:"mute"`
}

// Validate checks MIDI ranges before the note goes out to Live.
func (r AddNoteRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Pitch, validation.Min(0), validation.Max(127)),
		validation.Field(&r.StartTime, validation.Min(0.0)),
		validation.Field(&r.Duration, validation.Required, validation.Min(0.0).Exclusive()),
		validation.Field(&r.Velocity, validation.Min(0), validation.Max(127)),
	)
}

// RenameRequest is the payload for renaming a clip
type RenameRequest struct {
	Name string `json:"name"`
}

// Validate requires a non-empty name.
func (r RenameRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, 256)),
	)
}

// TempoRequest is the payload for setting the song tempo
type TempoRequest struct {
	BPM float64 `json:"bpm"`
}

// Validate keeps the tempo inside Live's supported range.
func (r TempoRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.BPM, validation.Required, validation.Min(20.0), validation.Max(999.0)),
	)
}

// VolumeRequest is the payload for setting a track volume
type VolumeRequest struct {
	Volume float64 `json:"volume"`
}

// Validate keeps the volume inside the mixer's 0..1 range.
func (r VolumeRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Volume, validation.Min(0.0), validation.Max(1.0)),
	)
}

package types

import "time"

// ScanStatus represents the current status of a session scan job
type ScanStatus string

const (
	ScanStatusQueued    ScanStatus = "queued"
	ScanStatusRunning   ScanStatus = "running"
	ScanStatusCompleted ScanStatus = "completed"
	ScanStatusFailed    ScanStatus = "failed"
)

// ScanRequest is the payload for starting a scan. Both flags default to a
// bare scan, which only walks track names and clip slot occupancy.
type ScanRequest struct {
	ClipNames   bool `json:"clipNames"`
	ClipLengths bool `json:"clipLengths"`
}

// ScanJob represents one background walk of the Live session grid
type ScanJob struct {
	ID          string     `json:"id"`
	Status      ScanStatus `json:"status"`
	Progress    int        `json:"progress"` // clip slots scanned so far
	Total       int        `json:"total"`    // total clip slots, 0 until known
	Tracks      int        `json:"tracks"`   // tracks discovered, set on completion
	Error       string     `json:"error,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	StartedAt   *time.Time `json:"startedAt,omitempty"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

package types

import "time"

// Event topics clients can subscribe to. TopicAll receives everything.
const (
	TopicBeat      = "beat"
	TopicTransport = "transport"
	TopicScan      = "scan"
	TopicAll       = "all"
)

// EventMessage represents a WebSocket event pushed to subscribers
type EventMessage struct {
	Topic     string    `json:"topic"`              // "beat", "transport", "scan"
	Type      string    `json:"type"`               // event kind within the topic
	Beat      int       `json:"beat,omitempty"`     // beat number for beat events
	JobID     string    `json:"jobId,omitempty"`    // scan job id for scan events
	Progress  float64   `json:"progress,omitempty"` // 0-100 percentage
	Message   string    `json:"message,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

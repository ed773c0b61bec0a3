package ports

import "time"

// Event types broadcast to observers.
const (
	EventCursor  = "cursor"
	EventPhase   = "phase"
	EventOutcome = "outcome"
	EventSession = "session"
	EventUsers   = "users"
	EventParams  = "params"
)

// TaskEvent is a notification about the running task.
type TaskEvent struct {
	SessionID string                 `json:"session_id"`
	Type      string                 `json:"type"`
	Data      map[string]interface{} `json:"data,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

// EventPublisher fans task events out to observers. Publish must not block
// the sample path.
type EventPublisher interface {
	Publish(event TaskEvent)
}

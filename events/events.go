// Package events provides the in-process pub/sub bus that feeds live status
// updates to connected dashboard clients.
package events

import "time"

// Event is the interface implemented by everything published on the bus.
type Event interface {
	EventType() string
	Timestamp() time.Time
}

// BaseEvent carries the fields common to all events.
type BaseEvent struct {
	Type string    `json:"type"`
	Time time.Time `json:"timestamp"`
}

func (e BaseEvent) EventType() string    { return e.Type }
func (e BaseEvent) Timestamp() time.Time { return e.Time }

// Event type names as they appear on the SSE stream.
const (
	TypeStatus       = "status"
	TypeLog          = "log"
	TypeRunCompleted = "run_completed"
	TypeRunFailed    = "run_failed"
)

// StatusEvent announces a run status transition.
type StatusEvent struct {
	BaseEvent
	RunID   string `json:"run_id,omitempty"`
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// NewStatusEvent creates a status transition event.
func NewStatusEvent(runID, status, message string) StatusEvent {
	return StatusEvent{
		BaseEvent: BaseEvent{Type: TypeStatus, Time: time.Now()},
		RunID:     runID,
		Status:    status,
		Message:   message,
	}
}

// LogEvent mirrors a log line onto the dashboard's execution log panel.
type LogEvent struct {
	BaseEvent
	Level   string `json:"level"`
	Message string `json:"message"`
}

// NewLogEvent creates a log event.
func NewLogEvent(level, message string) LogEvent {
	return LogEvent{
		BaseEvent: BaseEvent{Type: TypeLog, Time: time.Now()},
		Level:     level,
		Message:   message,
	}
}

// RunFinishedEvent announces a run reaching a final state. Result carries
// the normalized report for completed runs; Error the detail for failed ones.
type RunFinishedEvent struct {
	BaseEvent
	RunID  string      `json:"run_id"`
	Result interface{} `json:"result,omitempty"`
	Error  string      `json:"error,omitempty"`
}

// NewRunCompletedEvent creates a completion event carrying the report.
func NewRunCompletedEvent(runID string, result interface{}) RunFinishedEvent {
	return RunFinishedEvent{
		BaseEvent: BaseEvent{Type: TypeRunCompleted, Time: time.Now()},
		RunID:     runID,
		Result:    result,
	}
}

// NewRunFailedEvent creates a failure event carrying the error detail.
func NewRunFailedEvent(runID, detail string) RunFinishedEvent {
	return RunFinishedEvent{
		BaseEvent: BaseEvent{Type: TypeRunFailed, Time: time.Now()},
		RunID:     runID,
		Error:     detail,
	}
}

package testrun

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/hairizuan-noorazman/webtester/config"
	"github.com/hairizuan-noorazman/webtester/results"
)

var (
	// ErrRunInProgress is returned when a run is requested while another is active.
	ErrRunInProgress = errors.New("a test run is already in progress")

	// ErrNoActiveRun is returned when completing or failing without an active run.
	ErrNoActiveRun = errors.New("no test run is active")

	// ErrRunNotFound is returned when a run ID does not match any known run.
	ErrRunNotFound = errors.New("test run not found")

	// ErrRunFinished is returned when transitioning a run that already reached a final state.
	ErrRunFinished = errors.New("test run already finished")
)

// Status is the lifecycle state of a test run.
type Status string

const (
	StatusIdle      Status = "idle"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// IsValid checks if the status is a known state.
func (s Status) IsValid() bool {
	switch s {
	case StatusIdle, StatusRunning, StatusCompleted, StatusFailed:
		return true
	default:
		return false
	}
}

// IsFinal checks if the status is terminal.
func (s Status) IsFinal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Run is one end-to-end agent invocation. The config snapshot is taken when
// the run begins; later configuration edits do not affect it. RawOutput and
// Result are set exactly once, when the run finishes.
type Run struct {
	ID         uuid.UUID         `json:"run_id"`
	Status     Status            `json:"status"`
	StartedAt  time.Time         `json:"started_at"`
	FinishedAt *time.Time        `json:"finished_at,omitempty"`
	Config     config.TestConfig `json:"-"`
	RawOutput  string            `json:"-"`
	Result     *results.Report   `json:"result,omitempty"`
	Error      string            `json:"error,omitempty"`
}

// clone returns a copy of the run safe to hand out of the manager.
func (r *Run) clone() Run {
	out := *r
	out.Config = r.Config
	return out
}

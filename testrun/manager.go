package testrun

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hairizuan-noorazman/webtester/config"
	"github.com/hairizuan-noorazman/webtester/events"
	"github.com/hairizuan-noorazman/webtester/logger"
	"github.com/hairizuan-noorazman/webtester/results"
)

// Manager owns the single active run. All transitions go through the same
// mutex, so two concurrent Begin calls can never both observe an idle state
// and both proceed.
type Manager struct {
	mu     sync.Mutex
	active *Run
	bus    *events.Bus
	logger logger.Logger
}

// NewManager creates a manager in the idle state.
func NewManager(bus *events.Bus, log logger.Logger) *Manager {
	return &Manager{
		bus:    bus,
		logger: log,
	}
}

// Begin transitions the manager to a new running run, snapshotting the given
// configuration. It fails with ErrRunInProgress if a run is already active.
func (m *Manager) Begin(ctx context.Context, cfg config.TestConfig) (Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.active != nil && m.active.Status == StatusRunning {
		return Run{}, ErrRunInProgress
	}

	run := &Run{
		ID:        uuid.New(),
		Status:    StatusRunning,
		StartedAt: time.Now(),
		Config:    cfg,
	}
	m.active = run

	m.logger.Info(ctx, "test run started", map[string]interface{}{
		"run_id":     run.ID.String(),
		"target_url": cfg.TargetURL,
		"provider":   string(cfg.Provider),
		"model":      cfg.Model,
	})
	m.bus.Publish(events.NewStatusEvent(run.ID.String(), string(StatusRunning), "test run started"))

	return run.clone(), nil
}

// Complete transitions the active run to completed with the raw agent output
// and its normalized report.
func (m *Manager) Complete(ctx context.Context, id uuid.UUID, raw string, report *results.Report) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	run, err := m.activeRun(id)
	if err != nil {
		return err
	}

	now := time.Now()
	run.Status = StatusCompleted
	run.FinishedAt = &now
	run.RawOutput = raw
	run.Result = report

	m.logger.Info(ctx, "test run completed", map[string]interface{}{
		"run_id":      id.String(),
		"test_cases":  len(report.TestCases),
		"bug_reports": len(report.BugReports),
	})
	m.bus.Publish(events.NewStatusEvent(id.String(), string(StatusCompleted), "test run completed"))
	m.bus.Publish(events.NewRunCompletedEvent(id.String(), report))

	return nil
}

// Fail transitions the active run to failed, preserving the error detail.
func (m *Manager) Fail(ctx context.Context, id uuid.UUID, detail string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	run, err := m.activeRun(id)
	if err != nil {
		return err
	}

	now := time.Now()
	run.Status = StatusFailed
	run.FinishedAt = &now
	run.Error = detail

	m.logger.Error(ctx, "test run failed", map[string]interface{}{
		"run_id": id.String(),
		"error":  detail,
	})
	m.bus.Publish(events.NewStatusEvent(id.String(), string(StatusFailed), detail))
	m.bus.Publish(events.NewRunFailedEvent(id.String(), detail))

	return nil
}

// Current returns a copy of the most recent run, or false when the manager
// has been idle since startup (or was cleared).
func (m *Manager) Current() (Run, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.active == nil {
		return Run{}, false
	}
	return m.active.clone(), true
}

// Get returns a copy of the run with the given ID. Only the current run is
// held in memory; older runs live in the history store.
func (m *Manager) Get(id uuid.UUID) (Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.active == nil || m.active.ID != id {
		return Run{}, ErrRunNotFound
	}
	return m.active.clone(), nil
}

// Status reports the current lifecycle state, idle when no run exists.
func (m *Manager) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.active == nil {
		return StatusIdle
	}
	return m.active.Status
}

// Clear discards the current run and its results, returning to idle. It
// refuses to clear a run that is still executing.
func (m *Manager) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.active != nil && m.active.Status == StatusRunning {
		return ErrRunInProgress
	}
	m.active = nil

	m.bus.Publish(events.NewStatusEvent("", string(StatusIdle), "results cleared"))
	return nil
}

// activeRun fetches the active run if it matches the ID and is not final.
// Callers must hold m.mu.
func (m *Manager) activeRun(id uuid.UUID) (*Run, error) {
	if m.active == nil {
		return nil, ErrNoActiveRun
	}
	if m.active.ID != id {
		return nil, ErrRunNotFound
	}
	if m.active.Status.IsFinal() {
		return nil, ErrRunFinished
	}
	return m.active, nil
}

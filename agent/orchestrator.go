package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/hairizuan-noorazman/webtester/advisor"
	"github.com/hairizuan-noorazman/webtester/config"
	"github.com/hairizuan-noorazman/webtester/events"
	"github.com/hairizuan-noorazman/webtester/logger"
	"github.com/hairizuan-noorazman/webtester/results"
	"github.com/hairizuan-noorazman/webtester/storage"
	"github.com/hairizuan-noorazman/webtester/telemetry"
	"github.com/hairizuan-noorazman/webtester/testrun"
)

// Orchestrator drives the full lifecycle of a test run: snapshot the
// configuration, claim the single run slot, dispatch the mission to the
// browser agent in the background, normalize whatever comes back, and record
// the outcome. One agent invocation per run, no retries.
type Orchestrator struct {
	configStore config.Store
	manager     *testrun.Manager
	history     testrun.HistoryStore
	client      Client
	advisor     advisor.Advisor
	archives    storage.ArchiveStorage
	telemetry   *telemetry.Telemetry
	bus         *events.Bus
	logger      logger.Logger
}

// NewOrchestrator wires up an orchestrator. adv may be nil when Bedrock is
// not configured; history and archives may be nil in tests. tel must not be
// nil: an unstarted Telemetry yields a noop tracer.
func NewOrchestrator(
	configStore config.Store,
	manager *testrun.Manager,
	history testrun.HistoryStore,
	client Client,
	adv advisor.Advisor,
	archives storage.ArchiveStorage,
	tel *telemetry.Telemetry,
	bus *events.Bus,
	log logger.Logger,
) *Orchestrator {
	return &Orchestrator{
		configStore: configStore,
		manager:     manager,
		history:     history,
		client:      client,
		advisor:     adv,
		archives:    archives,
		telemetry:   tel,
		bus:         bus,
		logger:      log,
	}
}

// StartRun validates preconditions, claims the run slot, and launches the
// agent call in the background. It returns as soon as the run is registered;
// progress is observable via the manager, the history store, and the bus.
func (o *Orchestrator) StartRun(ctx context.Context) (uuid.UUID, error) {
	cfg := o.configStore.Get()
	if err := cfg.ValidateForRun(); err != nil {
		return uuid.Nil, err
	}

	run, err := o.manager.Begin(ctx, cfg)
	if err != nil {
		return uuid.Nil, err
	}

	if o.history != nil {
		rec, err := testrun.NewRecord(run)
		if err == nil {
			err = o.history.Create(ctx, rec)
		}
		if err != nil {
			// History is bookkeeping; the run proceeds without it.
			o.logger.Warn(ctx, "failed to record run start", map[string]interface{}{
				"run_id": run.ID.String(),
				"error":  err.Error(),
			})
		}
	}

	if err := o.telemetry.EnsureStarted(ctx, cfg.LaminarAPIKey); err != nil {
		o.logger.Warn(ctx, "observability registration failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	// The agent call outlives the HTTP request that triggered it.
	go o.execute(context.Background(), run)

	return run.ID, nil
}

func (o *Orchestrator) execute(ctx context.Context, run testrun.Run) {
	ctx, span := o.telemetry.Tracer().Start(ctx, "test_run")
	span.SetAttributes(
		attribute.String("run.id", run.ID.String()),
		attribute.String("run.target_url", run.Config.TargetURL),
		attribute.String("run.provider", string(run.Config.Provider)),
		attribute.String("run.model", run.Config.Model),
	)
	defer span.End()

	spec, err := NewLLMSpec(run.Config)
	if err != nil {
		o.finishFailed(ctx, span, run.ID, err.Error())
		return
	}

	mission := BuildMission(run.Config)
	o.bus.Publish(events.NewLogEvent("info", "mission dispatched to browser agent"))

	raw, err := o.client.RunTask(ctx, TaskRequest{
		Task: mission,
		LLM:  spec,
		Browser: BrowserOptions{
			Headless:     run.Config.Headless,
			WindowWidth:  run.Config.WindowWidth,
			WindowHeight: run.Config.WindowHeight,
		},
	})
	if err != nil {
		o.finishFailed(ctx, span, run.ID, err.Error())
		return
	}

	report := results.Normalize(raw, run.Config.Categories)

	if o.advisor != nil {
		recs, err := o.advisor.Recommend(ctx, report)
		if err != nil {
			o.logger.Warn(ctx, "recommendation generation failed", map[string]interface{}{
				"run_id": run.ID.String(),
				"error":  err.Error(),
			})
		} else {
			report.Recommendations = append(report.Recommendations, recs...)
		}
	}

	o.archiveReport(ctx, run.ID, report)

	if err := o.manager.Complete(ctx, run.ID, raw, report); err != nil {
		o.logger.Error(ctx, "failed to complete run", map[string]interface{}{
			"run_id": run.ID.String(),
			"error":  err.Error(),
		})
		return
	}

	o.recordOutcome(ctx, run.ID, testrun.StatusCompleted, report, "")
	span.SetStatus(codes.Ok, "")
}

// finishFailed transitions the run to failed and records the error detail.
func (o *Orchestrator) finishFailed(ctx context.Context, span trace.Span, id uuid.UUID, detail string) {
	if err := o.manager.Fail(ctx, id, detail); err != nil {
		o.logger.Error(ctx, "failed to mark run as failed", map[string]interface{}{
			"run_id": id.String(),
			"error":  err.Error(),
		})
	}
	o.recordOutcome(ctx, id, testrun.StatusFailed, nil, detail)
	span.SetStatus(codes.Error, detail)
}

// recordOutcome updates the history row for a finished run.
func (o *Orchestrator) recordOutcome(ctx context.Context, id uuid.UUID, status testrun.Status, report *results.Report, detail string) {
	if o.history == nil {
		return
	}

	run, err := o.manager.Get(id)
	if err != nil {
		return
	}

	setters := []testrun.RecordSetter{
		testrun.SetRecordStatus(status),
		testrun.SetRecordResult(report),
		testrun.SetRecordError(detail),
	}
	if run.FinishedAt != nil {
		setters = append(setters, testrun.SetRecordFinishedAt(*run.FinishedAt))
	}
	if err := o.history.Update(ctx, id, setters...); err != nil {
		o.logger.Warn(ctx, "failed to record run outcome", map[string]interface{}{
			"run_id": id.String(),
			"error":  err.Error(),
		})
	}
}

// archiveReport uploads the normalized report JSON for later download.
func (o *Orchestrator) archiveReport(ctx context.Context, id uuid.UUID, report *results.Report) {
	if o.archives == nil {
		return
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		o.logger.Error(ctx, "failed to marshal report for archiving", map[string]interface{}{
			"run_id": id.String(),
			"error":  err.Error(),
		})
		return
	}

	key := ArchiveKey(id)
	if err := o.archives.Save(ctx, key, bytes.NewReader(data)); err != nil {
		o.logger.Error(ctx, "failed to archive report", map[string]interface{}{
			"run_id": id.String(),
			"key":    key,
			"error":  err.Error(),
		})
	}
}

// ArchiveKey is the storage key for a run's archived report.
func ArchiveKey(id uuid.UUID) string {
	return fmt.Sprintf("runs/%s.json", id.String())
}

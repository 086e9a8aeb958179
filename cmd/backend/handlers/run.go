package handlers

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/hairizuan-noorazman/webtester/agent"
	"github.com/hairizuan-noorazman/webtester/logger"
	"github.com/hairizuan-noorazman/webtester/results"
	"github.com/hairizuan-noorazman/webtester/storage"
	"github.com/hairizuan-noorazman/webtester/testrun"
)

// RunHandler starts test runs and serves their status and results.
type RunHandler struct {
	orchestrator *agent.Orchestrator
	manager      *testrun.Manager
	history      testrun.HistoryStore
	archives     storage.ArchiveStorage
	logger       logger.Logger
}

// NewRunHandler creates a run handler.
func NewRunHandler(orchestrator *agent.Orchestrator, manager *testrun.Manager, history testrun.HistoryStore, archives storage.ArchiveStorage, log logger.Logger) *RunHandler {
	return &RunHandler{
		orchestrator: orchestrator,
		manager:      manager,
		history:      history,
		archives:     archives,
		logger:       log,
	}
}

// StartRunResponse is returned when a run was accepted.
type StartRunResponse struct {
	RunID  string `json:"run_id"`
	Status string `json:"status"`
}

// RunStatusResponse is the status view of a run.
type RunStatusResponse struct {
	RunID      string          `json:"run_id,omitempty"`
	Status     string          `json:"status"`
	StartedAt  *time.Time      `json:"started_at,omitempty"`
	FinishedAt *time.Time      `json:"finished_at,omitempty"`
	Result     *results.Report `json:"result,omitempty"`
	Error      string          `json:"error,omitempty"`
}

// Start triggers a new test run. Exactly one run may be active at a time;
// a second request while one is running gets a 409.
func (h *RunHandler) Start(w http.ResponseWriter, r *http.Request) {
	id, err := h.orchestrator.StartRun(r.Context())
	if err != nil {
		status := statusForError(err)
		if status == http.StatusInternalServerError {
			h.logger.Error(r.Context(), "failed to start run", map[string]interface{}{
				"error": err.Error(),
			})
		}
		respondError(w, status, err.Error())
		return
	}

	respondJSON(w, http.StatusAccepted, StartRunResponse{
		RunID:  id.String(),
		Status: string(testrun.StatusRunning),
	})
}

// Get returns the status of a run, with the normalized result once the run
// has completed. The current run is served from memory; older runs from the
// history store.
func (h *RunHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDOrRespond(w, r, "id", "run")
	if !ok {
		return
	}

	if run, err := h.manager.Get(id); err == nil {
		respondJSON(w, http.StatusOK, runStatusResponse(run))
		return
	}

	if h.history == nil {
		respondError(w, http.StatusNotFound, "run not found")
		return
	}

	record, err := h.history.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, testrun.ErrRunNotFound) {
			respondError(w, http.StatusNotFound, "run not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to fetch run")
		return
	}

	report, err := record.Report()
	if err != nil {
		h.logger.Error(r.Context(), "stored run result is corrupt", map[string]interface{}{
			"run_id": id.String(),
			"error":  err.Error(),
		})
	}
	respondJSON(w, http.StatusOK, RunStatusResponse{
		RunID:      record.ID.String(),
		Status:     string(record.Status),
		StartedAt:  &record.StartedAt,
		FinishedAt: record.FinishedAt,
		Result:     report,
		Error:      record.Error,
	})
}

func runStatusResponse(run testrun.Run) RunStatusResponse {
	started := run.StartedAt
	return RunStatusResponse{
		RunID:      run.ID.String(),
		Status:     string(run.Status),
		StartedAt:  &started,
		FinishedAt: run.FinishedAt,
		Result:     run.Result,
		Error:      run.Error,
	}
}

// Status returns the current run state without requiring a run ID, for the
// dashboard's polling fallback when SSE is unavailable.
func (h *RunHandler) Status(w http.ResponseWriter, r *http.Request) {
	run, ok := h.manager.Current()
	if !ok {
		respondJSON(w, http.StatusOK, RunStatusResponse{Status: string(testrun.StatusIdle)})
		return
	}
	respondJSON(w, http.StatusOK, runStatusResponse(run))
}

// List returns the run history, newest first.
func (h *RunHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePagination(r)

	records, err := h.history.List(r.Context(), limit, offset)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list runs")
		return
	}
	total, err := h.history.Count(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to count runs")
		return
	}

	respondJSON(w, http.StatusOK, PaginatedResponse{
		Items:  records,
		Total:  total,
		Limit:  limit,
		Offset: offset,
	})
}

// Download streams the archived report JSON for a finished run.
func (h *RunHandler) Download(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDOrRespond(w, r, "id", "run")
	if !ok {
		return
	}

	reader, err := h.archives.Open(r.Context(), agent.ArchiveKey(id))
	if err != nil {
		if errors.Is(err, storage.ErrArchiveNotFound) {
			respondError(w, http.StatusNotFound, "no archived report for this run")
			return
		}
		h.logger.Error(r.Context(), "failed to open archive", map[string]interface{}{
			"run_id": id.String(),
			"error":  err.Error(),
		})
		respondError(w, http.StatusInternalServerError, "failed to open archive")
		return
	}
	defer reader.Close()

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="test_results_`+id.String()+`.json"`)
	w.WriteHeader(http.StatusOK)
	io.Copy(w, reader)
}

// Clear discards the current run and its results.
func (h *RunHandler) Clear(w http.ResponseWriter, r *http.Request) {
	if err := h.manager.Clear(r.Context()); err != nil {
		respondError(w, statusForError(err), err.Error())
		return
	}
	respondSuccess(w, "results cleared")
}

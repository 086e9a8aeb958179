package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hairizuan-noorazman/webtester/agent"
	"github.com/hairizuan-noorazman/webtester/config"
	"github.com/hairizuan-noorazman/webtester/testrun"
)

func setupRunRouter(t *testing.T, client agent.Client) (*mux.Router, *testFixture) {
	t.Helper()
	f := setupFixture(t, client)
	handler := NewRunHandler(f.orchestrator, f.manager, f.history, f.archives, f.logger)

	router := mux.NewRouter()
	router.HandleFunc("/api/v1/runs", handler.Start).Methods("POST")
	router.HandleFunc("/api/v1/runs", handler.List).Methods("GET")
	router.HandleFunc("/api/v1/runs/current", handler.Status).Methods("GET")
	router.HandleFunc("/api/v1/runs/{id}", handler.Get).Methods("GET")
	router.HandleFunc("/api/v1/runs/{id}/download", handler.Download).Methods("GET")
	router.HandleFunc("/api/v1/results", handler.Clear).Methods("DELETE")
	return router, f
}

func TestRunHandler_Start(t *testing.T) {
	t.Run("accepted run returns 202 with its id", func(t *testing.T) {
		router, f := setupRunRouter(t, &stubAgentClient{output: `{"summary":"ok"}`})

		req := httptest.NewRequest(http.MethodPost, "/api/v1/runs", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusAccepted, rec.Code)

		var resp StartRunResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, string(testrun.StatusRunning), resp.Status)
		_, err := uuid.Parse(resp.RunID)
		assert.NoError(t, err)

		f.waitFinished(t)
	})

	t.Run("second request while running gets 409", func(t *testing.T) {
		release := make(chan struct{})
		router, f := setupRunRouter(t, &blockedAgentClient{release: release})

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/runs", nil))
		require.Equal(t, http.StatusAccepted, rec.Code)

		rec = httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/runs", nil))
		assert.Equal(t, http.StatusConflict, rec.Code)

		close(release)
		f.waitFinished(t)
	})

	t.Run("missing api key gets 422", func(t *testing.T) {
		router, f := setupRunRouter(t, &stubAgentClient{output: "unused"})

		// The fixture stores a google key; openai has none configured.
		_, err := f.store.Apply(context.Background(), config.SetProvider(config.ProviderOpenAI))
		require.NoError(t, err)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/runs", nil))
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})
}

func TestRunHandler_Get(t *testing.T) {
	router, f := setupRunRouter(t, &stubAgentClient{output: `{"summary":"all clear","coverage":{"Functional":50}}`})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/runs", nil))
	require.Equal(t, http.StatusAccepted, rec.Code)

	var started StartRunResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &started))
	f.waitFinished(t)

	t.Run("current run served from memory", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/runs/"+started.RunID, nil))

		require.Equal(t, http.StatusOK, rec.Code)
		var resp RunStatusResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, started.RunID, resp.RunID)
		assert.Equal(t, string(testrun.StatusCompleted), resp.Status)
		require.NotNil(t, resp.Result)
		assert.Equal(t, "all clear", resp.Result.Summary)
	})

	t.Run("cleared run served from history", func(t *testing.T) {
		// The history row is updated shortly after the completion event.
		runID := uuid.MustParse(started.RunID)
		require.Eventually(t, func() bool {
			rec, err := f.history.GetByID(context.Background(), runID)
			return err == nil && rec.Status == testrun.StatusCompleted
		}, 2*time.Second, 10*time.Millisecond)
		require.NoError(t, f.manager.Clear(context.Background()))

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/runs/"+started.RunID, nil))

		require.Equal(t, http.StatusOK, rec.Code)
		var resp RunStatusResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, started.RunID, resp.RunID)
		assert.Equal(t, string(testrun.StatusCompleted), resp.Status)
	})

	t.Run("unknown run id gets 404", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/runs/"+uuid.NewString(), nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("malformed run id gets 400", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/runs/not-a-uuid", nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestRunHandler_Status(t *testing.T) {
	router, f := setupRunRouter(t, &stubAgentClient{output: `{"summary":"ok"}`})

	t.Run("idle before any run", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/runs/current", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		var resp RunStatusResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, string(testrun.StatusIdle), resp.Status)
	})

	t.Run("reflects the finished run", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/runs", nil))
		require.Equal(t, http.StatusAccepted, rec.Code)
		f.waitFinished(t)

		rec = httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/runs/current", nil))

		var resp RunStatusResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, string(testrun.StatusCompleted), resp.Status)
	})
}

func TestRunHandler_List(t *testing.T) {
	router, f := setupRunRouter(t, &stubAgentClient{output: `{"summary":"ok"}`})

	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/runs", nil))
		require.Equal(t, http.StatusAccepted, rec.Code)
		f.waitFinished(t)
		require.NoError(t, f.manager.Clear(context.Background()))
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/runs?limit=2", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp PaginatedResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, int64(3), resp.Total)
	assert.Equal(t, 2, resp.Limit)
	items, ok := resp.Items.([]interface{})
	require.True(t, ok)
	assert.Len(t, items, 2)
}

func TestRunHandler_Download(t *testing.T) {
	router, f := setupRunRouter(t, &stubAgentClient{output: `{"summary":"downloadable"}`})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/runs", nil))
	require.Equal(t, http.StatusAccepted, rec.Code)

	var started StartRunResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &started))
	f.waitFinished(t)

	t.Run("streams the archived report", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/v1/runs/%s/download", started.RunID), nil))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
		assert.Contains(t, rec.Header().Get("Content-Disposition"), started.RunID)
		assert.Contains(t, rec.Body.String(), "downloadable")
	})

	t.Run("missing archive gets 404", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/v1/runs/%s/download", uuid.NewString()), nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestRunHandler_Clear(t *testing.T) {
	t.Run("clear finished run", func(t *testing.T) {
		router, f := setupRunRouter(t, &stubAgentClient{output: `{"summary":"ok"}`})

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/runs", nil))
		require.Equal(t, http.StatusAccepted, rec.Code)
		f.waitFinished(t)

		rec = httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/v1/results", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, testrun.StatusIdle, f.manager.Status())
	})

	t.Run("clear during a run gets 409", func(t *testing.T) {
		release := make(chan struct{})
		router, f := setupRunRouter(t, &blockedAgentClient{release: release})

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/runs", nil))
		require.Equal(t, http.StatusAccepted, rec.Code)

		rec = httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/v1/results", nil))
		assert.Equal(t, http.StatusConflict, rec.Code)

		close(release)
		f.waitFinished(t)
	})
}

// blockedAgentClient holds the agent call open until released.
type blockedAgentClient struct {
	release chan struct{}
}

func (c *blockedAgentClient) RunTask(ctx context.Context, req agent.TaskRequest) (string, error) {
	<-c.release
	return `{"summary":"done"}`, nil
}

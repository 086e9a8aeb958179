package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hairizuan-noorazman/webtester/config"
	"github.com/hairizuan-noorazman/webtester/logger"
	"github.com/hairizuan-noorazman/webtester/testrun"
)

func TestLoggingMiddleware(t *testing.T) {
	log := logger.NewTestLogger()
	middleware := LoggingMiddleware(log)

	handler := middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/config", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusTeapot, rec.Code)

	entries := log.Entries()
	assert.Len(t, entries, 1)
	assert.Equal(t, "request handled", entries[0].Message)
	assert.Equal(t, http.StatusTeapot, entries[0].Fields["status"])
	assert.Equal(t, "/api/v1/config", entries[0].Fields["path"])
}

func TestStatusForError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"run in progress", testrun.ErrRunInProgress, http.StatusConflict},
		{"run not found", testrun.ErrRunNotFound, http.StatusNotFound},
		{"no active run", testrun.ErrNoActiveRun, http.StatusNotFound},
		{"missing api key", config.ErrMissingAPIKey, http.StatusUnprocessableEntity},
		{"invalid target url", config.ErrInvalidTargetURL, http.StatusBadRequest},
		{"invalid provider", config.ErrInvalidProvider, http.StatusBadRequest},
		{"unknown error", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, statusForError(tt.err))
		})
	}
}

func TestParsePagination(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		wantLimit  int
		wantOffset int
	}{
		{"defaults", "", 20, 0},
		{"explicit values", "limit=50&offset=10", 50, 10},
		{"limit above cap falls back", "limit=500", 20, 0},
		{"negative values fall back", "limit=-1&offset=-5", 20, 0},
		{"non-numeric values fall back", "limit=abc&offset=xyz", 20, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/runs?"+tt.query, nil)
			limit, offset := parsePagination(req)
			assert.Equal(t, tt.wantLimit, limit)
			assert.Equal(t, tt.wantOffset, offset)
		})
	}
}

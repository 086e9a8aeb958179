package agent

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hairizuan-noorazman/webtester/logger"
)

func TestHTTPClient_RunTask(t *testing.T) {
	ctx := context.Background()

	t.Run("submits task and unwraps output", func(t *testing.T) {
		var received TaskRequest
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/api/v1/tasks", r.URL.Path)
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			require.NoError(t, json.NewDecoder(r.Body).Decode(&received))

			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]string{"output": `{"summary":"ok"}`})
		}))
		defer server.Close()

		client := NewHTTPClient(server.URL, 0, logger.NewTestLogger())
		out, err := client.RunTask(ctx, TaskRequest{
			Task: "test the site",
			LLM:  LLMSpec{Provider: "google", Model: "gemini-1.5-flash", APIKey: "key"},
			Browser: BrowserOptions{
				Headless:     true,
				WindowWidth:  1920,
				WindowHeight: 1080,
			},
		})
		require.NoError(t, err)
		assert.Equal(t, `{"summary":"ok"}`, out)
		assert.Equal(t, "test the site", received.Task)
		assert.Equal(t, "google", received.LLM.Provider)
		assert.True(t, received.Browser.Headless)
	})

	t.Run("unwrapped body is returned as-is", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("plain agent output"))
		}))
		defer server.Close()

		client := NewHTTPClient(server.URL, 0, logger.NewTestLogger())
		out, err := client.RunTask(ctx, TaskRequest{Task: "t"})
		require.NoError(t, err)
		assert.Equal(t, "plain agent output", out)
	})

	t.Run("non-200 status fails", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "runtime busy", http.StatusServiceUnavailable)
		}))
		defer server.Close()

		client := NewHTTPClient(server.URL, 0, logger.NewTestLogger())
		_, err := client.RunTask(ctx, TaskRequest{Task: "t"})
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrAgent)
		assert.Contains(t, err.Error(), "503")
	})

	t.Run("unreachable runtime fails", func(t *testing.T) {
		client := NewHTTPClient("http://127.0.0.1:1", 0, logger.NewTestLogger())
		_, err := client.RunTask(ctx, TaskRequest{Task: "t"})
		assert.ErrorIs(t, err, ErrAgent)
	})

	t.Run("trailing slash in base url", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/v1/tasks", r.URL.Path)
			w.Write([]byte("ok"))
		}))
		defer server.Close()

		client := NewHTTPClient(server.URL+"/", 0, logger.NewTestLogger())
		_, err := client.RunTask(ctx, TaskRequest{Task: "t"})
		assert.NoError(t, err)
	})
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcde...", truncate("abcdefgh", 5))
}

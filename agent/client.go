package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hairizuan-noorazman/webtester/logger"
)

// ErrAgent wraps every failure coming back from the browser agent runtime.
var ErrAgent = errors.New("browser agent invocation failed")

// BrowserOptions configure the browser session the agent drives.
type BrowserOptions struct {
	Headless     bool `json:"headless"`
	WindowWidth  int  `json:"window_width"`
	WindowHeight int  `json:"window_height"`
}

// TaskRequest is the payload submitted to the agent runtime for one run.
type TaskRequest struct {
	Task    string         `json:"task"`
	LLM     LLMSpec        `json:"llm"`
	Browser BrowserOptions `json:"browser"`
}

// Client submits a task to the external browser agent and returns its
// free-form output. The agent is a black box: the output may be JSON,
// markdown, or anything in between.
type Client interface {
	RunTask(ctx context.Context, req TaskRequest) (string, error)
}

// HTTPClient talks to the agent runtime over HTTP. The call blocks for the
// whole agent session; no timeout is enforced here beyond what the runtime
// itself applies, unless one is configured explicitly.
type HTTPClient struct {
	baseURL string
	client  *http.Client
	logger  logger.Logger
}

// NewHTTPClient creates a client for the agent runtime at baseURL. A zero
// timeout disables the client-side deadline.
func NewHTTPClient(baseURL string, timeout time.Duration, log logger.Logger) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		logger:  log,
	}
}

// RunTask submits the task and waits for the agent's final output.
func (c *HTTPClient) RunTask(ctx context.Context, req TaskRequest) (string, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("%w: marshal request: %v", ErrAgent, err)
	}

	endpoint := c.baseURL + "/api/v1/tasks"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("%w: build request: %v", ErrAgent, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	c.logger.Info(ctx, "submitting task to browser agent", map[string]interface{}{
		"endpoint": endpoint,
		"provider": req.LLM.Provider,
		"model":    req.LLM.Model,
	})

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrAgent, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: read response: %v", ErrAgent, err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: status %d: %s", ErrAgent, resp.StatusCode, truncate(string(body), 512))
	}

	// The runtime usually wraps its output in {"output": "..."} but older
	// versions return the text directly.
	var wrapped struct {
		Output string `json:"output"`
	}
	if err := json.Unmarshal(body, &wrapped); err == nil && wrapped.Output != "" {
		return wrapped.Output, nil
	}
	return string(body), nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

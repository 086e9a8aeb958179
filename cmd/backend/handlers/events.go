package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/hairizuan-noorazman/webtester/events"
	"github.com/hairizuan-noorazman/webtester/logger"
)

const sseHeartbeatInterval = 15 * time.Second

// EventsHandler streams run progress to the dashboard over Server-Sent
// Events. Each subscriber gets its own channel from the bus; slow readers
// lose events rather than blocking runs.
type EventsHandler struct {
	bus    *events.Bus
	logger logger.Logger
}

// NewEventsHandler creates an SSE handler over the given bus.
func NewEventsHandler(bus *events.Bus, log logger.Logger) *EventsHandler {
	return &EventsHandler{
		bus:    bus,
		logger: log,
	}
}

// Stream serves the SSE endpoint. The connection stays open until the client
// disconnects or the bus shuts down.
func (h *EventsHandler) Stream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		respondError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ch := h.bus.Subscribe()
	defer h.bus.Unsubscribe(ch)

	h.logger.Debug(r.Context(), "sse subscriber connected", map[string]interface{}{
		"remote_addr": r.RemoteAddr,
	})

	heartbeat := time.NewTicker(sseHeartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			h.logger.Debug(r.Context(), "sse subscriber disconnected", map[string]interface{}{
				"remote_addr": r.RemoteAddr,
			})
			return
		case <-heartbeat.C:
			fmt.Fprint(w, ": heartbeat\n\n")
			flusher.Flush()
		case event, open := <-ch:
			if !open {
				return
			}
			payload, err := json.Marshal(event)
			if err != nil {
				h.logger.Warn(r.Context(), "failed to encode event", map[string]interface{}{
					"event_type": event.EventType(),
					"error":      err.Error(),
				})
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.EventType(), payload)
			flusher.Flush()
		}
	}
}

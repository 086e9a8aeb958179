package handlers

import (
	"net/http"
	"time"

	"github.com/hairizuan-noorazman/webtester/logger"
)

// AuthMiddleware rejects requests without a valid session cookie. It is a
// no-op when no dashboard password is configured.
type AuthMiddleware struct {
	auth   *AuthHandler
	logger logger.Logger
}

// NewAuthMiddleware creates an authentication middleware backed by the
// given auth handler.
func NewAuthMiddleware(auth *AuthHandler, log logger.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		auth:   auth,
		logger: log,
	}
}

// Handler wraps an HTTP handler with session validation.
func (m *AuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !m.auth.Enabled() {
			next.ServeHTTP(w, r)
			return
		}
		if !m.auth.validateSession(r) {
			m.logger.Warn(r.Context(), "unauthenticated request", map[string]interface{}{
				"path":   r.URL.Path,
				"method": r.Method,
			})
			respondError(w, http.StatusUnauthorized, "authentication required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// statusRecorder captures the response status for request logging.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Flush lets the recorder pass through to streaming handlers.
func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// LoggingMiddleware logs every request with its status and duration.
func LoggingMiddleware(log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(recorder, r)

			log.Info(r.Context(), "request handled", map[string]interface{}{
				"method":      r.Method,
				"path":        r.URL.Path,
				"status":      recorder.status,
				"duration_ms": time.Since(start).Milliseconds(),
			})
		})
	}
}

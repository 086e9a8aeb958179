package handlers

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/securecookie"
	"golang.org/x/crypto/bcrypt"

	"github.com/hairizuan-noorazman/webtester/logger"
)

// AuthHandler guards the dashboard with a single shared password. When no
// password is configured the dashboard is open and login always succeeds.
type AuthHandler struct {
	passwordHash    []byte
	secureCookie    *securecookie.SecureCookie
	cookieName      string
	cookieSecure    bool
	sessionDuration time.Duration
	logger          logger.Logger
}

// sessionClaims is the payload encoded into the session cookie.
type sessionClaims struct {
	SessionID string    `json:"session_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

// NewAuthHandler creates an authentication handler. The plaintext dashboard
// password is hashed once at startup and never held afterwards; an empty
// password disables authentication entirely.
func NewAuthHandler(
	dashboardPassword string,
	cookieSecret string,
	cookieName string,
	cookieSecure bool,
	sessionDuration time.Duration,
	log logger.Logger,
) (*AuthHandler, error) {
	h := &AuthHandler{
		secureCookie:    securecookie.New([]byte(cookieSecret), nil),
		cookieName:      cookieName,
		cookieSecure:    cookieSecure,
		sessionDuration: sessionDuration,
		logger:          log,
	}
	if dashboardPassword != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(dashboardPassword), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		h.passwordHash = hash
	}
	return h, nil
}

// Enabled reports whether a dashboard password is configured.
func (h *AuthHandler) Enabled() bool {
	return h.passwordHash != nil
}

// LoginRequest carries the dashboard password.
type LoginRequest struct {
	Password string `json:"password"`
}

// Login validates the dashboard password and issues a session cookie.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if !h.Enabled() {
		respondSuccess(w, "authentication is disabled")
		return
	}

	var req LoginRequest
	if err := parseJSON(r, &req, h.logger); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := bcrypt.CompareHashAndPassword(h.passwordHash, []byte(req.Password)); err != nil {
		h.logger.Warn(r.Context(), "invalid dashboard password attempt", map[string]interface{}{
			"remote_addr": r.RemoteAddr,
		})
		respondError(w, http.StatusUnauthorized, "invalid password")
		return
	}

	claims := sessionClaims{
		SessionID: uuid.New().String(),
		ExpiresAt: time.Now().Add(h.sessionDuration),
	}
	encoded, err := h.secureCookie.Encode(h.cookieName, claims)
	if err != nil {
		h.logger.Error(r.Context(), "failed to encode session cookie", map[string]interface{}{
			"error": err.Error(),
		})
		respondError(w, http.StatusInternalServerError, "failed to create session")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     h.cookieName,
		Value:    encoded,
		Path:     "/",
		Expires:  claims.ExpiresAt,
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteStrictMode,
	})

	h.logger.Info(r.Context(), "dashboard login", map[string]interface{}{
		"session_id": claims.SessionID,
	})
	respondSuccess(w, "logged in")
}

// Logout clears the session cookie.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteStrictMode,
	})
	respondSuccess(w, "logged out")
}

// validateSession checks the session cookie on a request.
func (h *AuthHandler) validateSession(r *http.Request) bool {
	cookie, err := r.Cookie(h.cookieName)
	if err != nil {
		return false
	}

	var claims sessionClaims
	if err := h.secureCookie.Decode(h.cookieName, cookie.Value, &claims); err != nil {
		return false
	}
	return time.Now().Before(claims.ExpiresAt)
}

package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hairizuan-noorazman/webtester/logger"
)

func setupAuthHandler(t *testing.T, password string) *AuthHandler {
	t.Helper()
	handler, err := NewAuthHandler(
		password,
		"0123456789abcdef0123456789abcdef",
		"webtester_session",
		false,
		time.Hour,
		logger.NewTestLogger(),
	)
	require.NoError(t, err)
	return handler
}

func TestAuthHandler_Login(t *testing.T) {
	t.Run("correct password issues session cookie", func(t *testing.T) {
		handler := setupAuthHandler(t, "hunter2")

		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(`{"password":"hunter2"}`))
		rec := httptest.NewRecorder()
		handler.Login(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)

		cookies := rec.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.Equal(t, "webtester_session", cookies[0].Name)
		assert.NotEmpty(t, cookies[0].Value)
		assert.True(t, cookies[0].HttpOnly)
	})

	t.Run("wrong password gets 401 without a cookie", func(t *testing.T) {
		handler := setupAuthHandler(t, "hunter2")

		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(`{"password":"wrong"}`))
		rec := httptest.NewRecorder()
		handler.Login(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Empty(t, rec.Result().Cookies())
	})

	t.Run("disabled auth always succeeds", func(t *testing.T) {
		handler := setupAuthHandler(t, "")
		assert.False(t, handler.Enabled())

		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(`{"password":"anything"}`))
		rec := httptest.NewRecorder()
		handler.Login(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("malformed body gets 400", func(t *testing.T) {
		handler := setupAuthHandler(t, "hunter2")

		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader("{broken"))
		rec := httptest.NewRecorder()
		handler.Login(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestAuthHandler_Logout(t *testing.T) {
	handler := setupAuthHandler(t, "hunter2")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil)
	rec := httptest.NewRecorder()
	handler.Logout(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Empty(t, cookies[0].Value)
	assert.Negative(t, cookies[0].MaxAge)
}

func TestAuthMiddleware(t *testing.T) {
	protected := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	login := func(t *testing.T, handler *AuthHandler, password string) *http.Cookie {
		t.Helper()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(`{"password":"`+password+`"}`))
		rec := httptest.NewRecorder()
		handler.Login(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
		cookies := rec.Result().Cookies()
		require.Len(t, cookies, 1)
		return cookies[0]
	}

	t.Run("valid session passes through", func(t *testing.T) {
		handler := setupAuthHandler(t, "hunter2")
		middleware := NewAuthMiddleware(handler, logger.NewTestLogger())
		cookie := login(t, handler, "hunter2")

		req := httptest.NewRequest(http.MethodGet, "/api/v1/config", nil)
		req.AddCookie(cookie)
		rec := httptest.NewRecorder()
		middleware.Handler(protected).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("missing cookie gets 401", func(t *testing.T) {
		handler := setupAuthHandler(t, "hunter2")
		middleware := NewAuthMiddleware(handler, logger.NewTestLogger())

		req := httptest.NewRequest(http.MethodGet, "/api/v1/config", nil)
		rec := httptest.NewRecorder()
		middleware.Handler(protected).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("tampered cookie gets 401", func(t *testing.T) {
		handler := setupAuthHandler(t, "hunter2")
		middleware := NewAuthMiddleware(handler, logger.NewTestLogger())

		req := httptest.NewRequest(http.MethodGet, "/api/v1/config", nil)
		req.AddCookie(&http.Cookie{Name: "webtester_session", Value: "forged"})
		rec := httptest.NewRecorder()
		middleware.Handler(protected).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("expired session gets 401", func(t *testing.T) {
		handler, err := NewAuthHandler(
			"hunter2",
			"0123456789abcdef0123456789abcdef",
			"webtester_session",
			false,
			-time.Minute,
			logger.NewTestLogger(),
		)
		require.NoError(t, err)
		middleware := NewAuthMiddleware(handler, logger.NewTestLogger())
		cookie := login(t, handler, "hunter2")

		req := httptest.NewRequest(http.MethodGet, "/api/v1/config", nil)
		req.AddCookie(cookie)
		rec := httptest.NewRecorder()
		middleware.Handler(protected).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("disabled auth passes everything", func(t *testing.T) {
		handler := setupAuthHandler(t, "")
		middleware := NewAuthMiddleware(handler, logger.NewTestLogger())

		req := httptest.NewRequest(http.MethodGet, "/api/v1/config", nil)
		rec := httptest.NewRecorder()
		middleware.Handler(protected).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNoContent, rec.Code)
	})
}

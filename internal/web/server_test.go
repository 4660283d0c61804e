package web

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/wegpiraten/billing/internal/config"
	"github.com/wegpiraten/billing/internal/secrets"
)

func testServer(t *testing.T) *Server {
	t.Helper()
	t.Setenv("APP_USER", "admin")
	t.Setenv("APP_PASSWORD", "geheim")

	store, err := secrets.NewStore("")
	require.NoError(t, err)

	s, err := NewServer(&config.Config{
		Web: config.WebConfig{Host: "127.0.0.1", Port: 0, BinaryPath: "billing"},
	}, store, zap.NewNop())
	require.NoError(t, err)
	return s
}

func postForm(s *Server, path string, form url.Values, cookie *http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

func sessionCookieOf(t *testing.T, w *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range w.Result().Cookies() {
		if c.Name == sessionCookie {
			return c
		}
	}
	t.Fatal("no session cookie set")
	return nil
}

func TestServer_Login(t *testing.T) {
	s := testServer(t)

	t.Run("wrong credentials", func(t *testing.T) {
		w := postForm(s, "/login", url.Values{
			"username": {"admin"},
			"password": {"falsch"},
		}, nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("correct credentials start a session", func(t *testing.T) {
		w := postForm(s, "/login", url.Values{
			"username": {"admin"},
			"password": {"geheim"},
		}, nil)
		require.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, "/menu", w.Header().Get("Location"))
		sessionCookieOf(t, w)
	})
}

func TestServer_RequireSession(t *testing.T) {
	s := testServer(t)

	t.Run("menu without session redirects to login", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/menu", nil)
		w := httptest.NewRecorder()
		s.engine.ServeHTTP(w, req)
		assert.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, "/login", w.Header().Get("Location"))
	})

	t.Run("menu with session", func(t *testing.T) {
		login := postForm(s, "/login", url.Values{
			"username": {"admin"},
			"password": {"geheim"},
		}, nil)
		cookie := sessionCookieOf(t, login)

		req := httptest.NewRequest(http.MethodGet, "/menu", nil)
		req.AddCookie(cookie)
		w := httptest.NewRecorder()
		s.engine.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("logout ends the session", func(t *testing.T) {
		login := postForm(s, "/login", url.Values{
			"username": {"admin"},
			"password": {"geheim"},
		}, nil)
		cookie := sessionCookieOf(t, login)

		req := httptest.NewRequest(http.MethodGet, "/logout", nil)
		req.AddCookie(cookie)
		w := httptest.NewRecorder()
		s.engine.ServeHTTP(w, req)
		require.Equal(t, http.StatusFound, w.Code)

		req = httptest.NewRequest(http.MethodGet, "/menu", nil)
		req.AddCookie(cookie)
		w = httptest.NewRecorder()
		s.engine.ServeHTTP(w, req)
		assert.Equal(t, http.StatusFound, w.Code, "stale cookie is rejected")
	})
}

func TestServer_LaunchValidatesMonth(t *testing.T) {
	s := testServer(t)
	login := postForm(s, "/login", url.Values{
		"username": {"admin"},
		"password": {"geheim"},
	}, nil)
	cookie := sessionCookieOf(t, login)

	w := postForm(s, "/invoices", url.Values{"month": {"kein monat"}}, cookie)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sessionRequest(t *testing.T, uid uint) *http.Request {
	t.Helper()
	rec := httptest.NewRecorder()
	CreateSession(rec, uid)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}
	return req
}

func TestSessionRoundTrip(t *testing.T) {
	req := sessionRequest(t, 42)
	uid, ok := ParseSession(req)
	require.True(t, ok)
	assert.Equal(t, uint(42), uid)
}

func TestParseSessionRejectsTamperedCookie(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "session", Value: "42.forgedsignature"})
	_, ok := ParseSession(req)
	assert.False(t, ok)
}

func TestRequireAuth(t *testing.T) {
	SetUserVerifier(nil)
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) })
	h := Middleware(RequireAuth(next))

	// no session
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// valid session
	w = httptest.NewRecorder()
	h.ServeHTTP(w, sessionRequest(t, 7))
	assert.Equal(t, http.StatusNoContent, w.Code)

	// verifier says the user is gone
	SetUserVerifier(func(_ context.Context, _ uint) bool { return false })
	defer SetUserVerifier(nil)
	w = httptest.NewRecorder()
	h.ServeHTTP(w, sessionRequest(t, 7))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

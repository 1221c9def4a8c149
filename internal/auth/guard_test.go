package auth

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/account-auth/internal/apperror"
)

func newTestGuard(t *testing.T) (*SessionGuard, *TokenService) {
	t.Helper()
	ts := newTestTokenService(t)
	deny := func(w http.ResponseWriter, err error) {
		http.Error(w, err.Error(), http.StatusUnauthorized)
	}
	return NewSessionGuard(ts, deny, slog.New(slog.NewTextHandler(io.Discard, nil))), ts
}

func requestWithCookie(value string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/api/user/data", nil)
	if value != "" {
		req.AddCookie(&http.Cookie{Name: CookieName, Value: value})
	}
	return req
}

func TestAuthenticate_ValidCookie(t *testing.T) {
	g, ts := newTestGuard(t)
	token, err := ts.Generate("user-42")
	require.NoError(t, err)

	id, err := g.Authenticate(requestWithCookie(token))
	require.NoError(t, err)
	assert.Equal(t, "user-42", id.UserID)
}

func TestAuthenticate_Rejections(t *testing.T) {
	g, ts := newTestGuard(t)
	expired, err := ts.GenerateWithDuration("user-42", -time.Minute)
	require.NoError(t, err)

	tests := []struct {
		name   string
		cookie string
	}{
		{"no cookie", ""},
		{"garbage", "not-a-token"},
		{"expired", expired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := g.Authenticate(requestWithCookie(tt.cookie))
			assert.True(t, errors.Is(err, apperror.ErrUnauthenticated), "error = %v", err)
		})
	}
}

func TestRequire_PassesIdentityExplicitly(t *testing.T) {
	g, ts := newTestGuard(t)
	token, _ := ts.Generate("user-7")

	var got Identity
	h := g.Require(func(w http.ResponseWriter, r *http.Request, id Identity) {
		got = id
		w.WriteHeader(http.StatusNoContent)
	})

	rr := httptest.NewRecorder()
	h(rr, requestWithCookie(token))

	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, "user-7", got.UserID)
}

func TestRequire_DeniesWithoutCalling(t *testing.T) {
	g, _ := newTestGuard(t)

	called := false
	h := g.Require(func(http.ResponseWriter, *http.Request, Identity) { called = true })

	rr := httptest.NewRecorder()
	h(rr, requestWithCookie(""))

	assert.False(t, called)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

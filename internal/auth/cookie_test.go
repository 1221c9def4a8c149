package auth

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCookieConfig_Session(t *testing.T) {
	tests := []struct {
		name       string
		production bool
		wantSecure bool
		wantSite   http.SameSite
	}{
		{"development", false, false, http.SameSiteStrictMode},
		{"production", true, true, http.SameSiteNoneMode},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ck := NewCookieConfig(tt.production, SessionTTL).Session("jwt-value")

			assert.Equal(t, CookieName, ck.Name)
			assert.Equal(t, "jwt-value", ck.Value)
			assert.True(t, ck.HttpOnly)
			assert.Equal(t, tt.wantSecure, ck.Secure)
			assert.Equal(t, tt.wantSite, ck.SameSite)
			assert.Equal(t, int((7 * 24 * time.Hour).Seconds()), ck.MaxAge)
		})
	}
}

func TestCookieConfig_MaxAgeMatchesTokenTTL(t *testing.T) {
	ts, err := NewTokenService("cookie-test-secret-0123456789")
	require.NoError(t, err)

	ck := NewCookieConfig(false, ts.TTL()).Session("jwt-value")
	assert.Equal(t, int(ts.TTL().Seconds()), ck.MaxAge)
	assert.WithinDuration(t, time.Now().Add(ts.TTL()), ck.Expires, time.Minute)
}

// Clearing must repeat every attribute used when setting, or the browser
// keeps the original cookie.
func TestCookieConfig_ClearMirrorsSession(t *testing.T) {
	for _, production := range []bool{false, true} {
		cfg := NewCookieConfig(production, SessionTTL)
		set := cfg.Session("jwt-value")
		clear := cfg.Clear()

		assert.Equal(t, set.Name, clear.Name)
		assert.Equal(t, set.Path, clear.Path)
		assert.Equal(t, set.Domain, clear.Domain)
		assert.Equal(t, set.HttpOnly, clear.HttpOnly)
		assert.Equal(t, set.Secure, clear.Secure)
		assert.Equal(t, set.SameSite, clear.SameSite)
		assert.Empty(t, clear.Value)
		assert.Less(t, clear.MaxAge, 0)
	}
}

package auth

import (
	"net/http"
	"time"
)

// CookieName is the name of the session cookie.
const CookieName = "token"

// CookieConfig builds the session cookie for setting and for clearing.
//
// Browsers only delete a cookie when the clearing Set-Cookie carries the same
// name, path and security attributes as the original, so Session and Clear
// share one attribute builder.
type CookieConfig struct {
	Production bool
	MaxAge     time.Duration
}

// NewCookieConfig returns a CookieConfig whose cookies live for maxAge.
// Pass the issuing TokenService's TTL so the cookie never outlives the token.
func NewCookieConfig(production bool, maxAge time.Duration) CookieConfig {
	return CookieConfig{Production: production, MaxAge: maxAge}
}

// Session returns the cookie carrying a freshly issued token.
func (c CookieConfig) Session(token string) *http.Cookie {
	ck := c.base()
	ck.Value = token
	ck.MaxAge = int(c.MaxAge.Seconds())
	ck.Expires = time.Now().Add(c.MaxAge)
	return ck
}

// Clear returns a cookie that tells the browser to drop the session cookie.
func (c CookieConfig) Clear() *http.Cookie {
	ck := c.base()
	ck.Value = ""
	ck.MaxAge = -1
	ck.Expires = time.Unix(0, 0)
	return ck
}

// base holds the attributes that must match between Session and Clear.
// Production runs behind HTTPS with the client on another origin, which
// requires Secure + SameSite=None. Elsewhere the cookie is strictly same-site.
func (c CookieConfig) base() *http.Cookie {
	ck := &http.Cookie{
		Name:     CookieName,
		Path:     "/",
		HttpOnly: true,
		Secure:   c.Production,
		SameSite: http.SameSiteStrictMode,
	}
	if c.Production {
		ck.SameSite = http.SameSiteNoneMode
	}
	return ck
}

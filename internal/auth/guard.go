package auth

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/sakif/account-auth/internal/apperror"
)

// Identity is the acting user resolved from a valid session cookie.
type Identity struct {
	UserID string
}

// AuthedHandlerFunc is an HTTP handler that receives the resolved Identity
// as an explicit argument.
type AuthedHandlerFunc func(w http.ResponseWriter, r *http.Request, id Identity)

// DenyFunc writes the response for a request that failed authentication.
type DenyFunc func(w http.ResponseWriter, err error)

// SessionGuard checks the session cookie on protected routes.
//
// The identity is handed to the wrapped handler as a parameter instead of
// being stored in the request context, so a handler cannot run without one.
// Verification is signature + expiry only; there is no revocation list.
type SessionGuard struct {
	tokens *TokenService
	deny   DenyFunc
	logger *slog.Logger
}

// NewSessionGuard creates a SessionGuard. deny renders Unauthenticated results.
func NewSessionGuard(tokens *TokenService, deny DenyFunc, logger *slog.Logger) *SessionGuard {
	return &SessionGuard{tokens: tokens, deny: deny, logger: logger}
}

// Authenticate resolves the Identity behind r's session cookie.
//
// A missing cookie, bad signature, expired token or token without a subject
// all return an apperror.ErrUnauthenticated error. None of them is a fault.
func (g *SessionGuard) Authenticate(r *http.Request) (Identity, error) {
	cookie, err := r.Cookie(CookieName)
	if err != nil || cookie.Value == "" {
		return Identity{}, apperror.Unauthenticated("Not Authorized. Login Again")
	}

	userID, err := g.tokens.Validate(cookie.Value)
	if err != nil {
		if !errors.Is(err, ErrTokenExpired) {
			g.logger.Debug("session token rejected", slog.String("error", err.Error()))
		}
		return Identity{}, apperror.Unauthenticated("Not Authorized. Login Again")
	}

	return Identity{UserID: userID}, nil
}

// Require adapts next into an http.HandlerFunc that only runs for
// authenticated requests.
func (g *SessionGuard) Require(next AuthedHandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := g.Authenticate(r)
		if err != nil {
			g.deny(w, err)
			return
		}
		next(w, r, id)
	}
}

package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/account-auth/internal/auth"
	"github.com/sakif/account-auth/internal/service"
)

// AuthHandler exposes the account lifecycle over HTTP.
//
// HANDLER RESPONSIBILITIES:
//   - HandleRegister / HandleLogin → run the service call, set the session cookie
//   - HandleLogout                 → clear the session cookie
//   - HandleSendVerifyOTP / HandleVerifyAccount → verification flow (session required)
//   - HandleSendResetOTP / HandleResetPassword  → reset flow (no session)
//   - HandleIsAuth                 → cheap "is my cookie still good?" probe
//
// Guarded handlers have the AuthedHandlerFunc signature: the SessionGuard
// hands them the caller's Identity, so they never read the cookie themselves.
type AuthHandler struct {
	auth    *service.AuthService
	cookies auth.CookieConfig
	logger  *slog.Logger
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(svc *service.AuthService, cookies auth.CookieConfig, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{auth: svc, cookies: cookies, logger: logger}
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type verifyAccountRequest struct {
	OTP string `json:"otp"`
}

type sendResetOTPRequest struct {
	Email string `json:"email"`
}

type resetPasswordRequest struct {
	Email       string `json:"email"`
	OTP         string `json:"otp"`
	NewPassword string `json:"newPassword"`
}

// HandleRegister creates an account and signs the caller in.
//
// HTTP: POST /api/auth/register
// REQUEST BODY: {"name": "Ann", "email": "ann@x.com", "password": "pw1"}
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req, "Missing Details"); err != nil {
		WriteError(w, err)
		return
	}

	res, err := h.auth.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		h.fail(w, service.OpRegister, err)
		return
	}

	http.SetCookie(w, h.cookies.Session(res.Token))
	writeSuccess(w, "Registration successful")
}

// HandleLogin checks credentials and signs the caller in.
//
// HTTP: POST /api/auth/login
// REQUEST BODY: {"email": "ann@x.com", "password": "pw1"}
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req, "Email and password are required"); err != nil {
		WriteError(w, err)
		return
	}

	res, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.fail(w, service.OpLogin, err)
		return
	}

	http.SetCookie(w, h.cookies.Session(res.Token))
	writeSuccess(w, "Login successful")
}

// HandleLogout clears the session cookie.
//
// HTTP: POST /api/auth/logout
//
// Sessions are stateless JWTs, so logout only removes the client's copy. It
// always succeeds, with or without a cookie.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, h.cookies.Clear())
	writeSuccess(w, "Logged Out")
}

// HandleSendVerifyOTP emails a verification code to the signed-in user.
//
// HTTP: POST /api/auth/send-verify-otp
// Auth: required
func (h *AuthHandler) HandleSendVerifyOTP(w http.ResponseWriter, r *http.Request, id auth.Identity) {
	if err := h.auth.SendVerifyOTP(r.Context(), id.UserID); err != nil {
		h.fail(w, service.OpSendVerifyOTP, err)
		return
	}
	writeSuccess(w, "Verification OTP sent on Email")
}

// HandleVerifyAccount consumes a verification code.
//
// HTTP: POST /api/auth/verify-account
// Auth: required
// REQUEST BODY: {"otp": "042917"}
func (h *AuthHandler) HandleVerifyAccount(w http.ResponseWriter, r *http.Request, id auth.Identity) {
	var req verifyAccountRequest
	if err := decodeJSON(r, &req, "Missing Details"); err != nil {
		WriteError(w, err)
		return
	}

	if err := h.auth.VerifyAccount(r.Context(), id.UserID, req.OTP); err != nil {
		h.fail(w, service.OpVerifyAccount, err)
		return
	}
	writeSuccess(w, "Email verified successfully")
}

// HandleSendResetOTP emails a password reset code.
//
// HTTP: POST /api/auth/send-reset-otp
// REQUEST BODY: {"email": "ann@x.com"}
func (h *AuthHandler) HandleSendResetOTP(w http.ResponseWriter, r *http.Request) {
	var req sendResetOTPRequest
	if err := decodeJSON(r, &req, "Email is required"); err != nil {
		WriteError(w, err)
		return
	}

	if err := h.auth.SendResetOTP(r.Context(), req.Email); err != nil {
		h.fail(w, service.OpSendResetOTP, err)
		return
	}
	writeSuccess(w, "OTP sent to your email")
}

// HandleResetPassword consumes a reset code and sets a new password.
//
// HTTP: POST /api/auth/reset-password
// REQUEST BODY: {"email": "ann@x.com", "otp": "042917", "newPassword": "pw2"}
func (h *AuthHandler) HandleResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if err := decodeJSON(r, &req, "Email, OTP, and new password are required"); err != nil {
		WriteError(w, err)
		return
	}

	if err := h.auth.ResetPassword(r.Context(), req.Email, req.OTP, req.NewPassword); err != nil {
		h.fail(w, service.OpResetPassword, err)
		return
	}
	writeSuccess(w, "Password has been reset successfully")
}

// HandleIsAuth reports success when the session cookie is valid. The guard
// has already done all the work by the time this runs.
//
// HTTP: GET /api/auth/is-auth
// Auth: required
func (h *AuthHandler) HandleIsAuth(w http.ResponseWriter, r *http.Request, _ auth.Identity) {
	writeJSON(w, http.StatusOK, Response{Success: true})
}

// fail logs the failed operation and writes the error response.
func (h *AuthHandler) fail(w http.ResponseWriter, op string, err error) {
	h.logger.Info("auth operation failed",
		slog.String("operation", op),
		slog.String("error", err.Error()),
	)
	WriteError(w, err)
}

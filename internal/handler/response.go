package handler

// RESPONSE HELPERS:
// Every endpoint answers with the same JSON envelope:
//
//	{"success": true,  "message": "Login successful"}
//	{"success": true,  "userData": {"name": "Ann", "isAccountVerified": false}}
//	{"success": false, "message": "Invalid OTP", "code": "invalid_otp"}
//
// Clients key off "success"; "code" is the machine-readable error kind and the
// HTTP status carries the same information for tooling that prefers it.

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sakif/account-auth/internal/apperror"
	"github.com/sakif/account-auth/internal/model"
)

// Response is the envelope returned by all API endpoints.
type Response struct {
	Success  bool            `json:"success"`
	Message  string          `json:"message,omitempty"`
	UserData *model.UserData `json:"userData,omitempty"`
	Code     string          `json:"code,omitempty"` // set on failures only
}

// writeJSON sends a JSON response with the given status code.
// Headers and status must be written before the body.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// Headers are already sent; all we can do is log.
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

func writeSuccess(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusOK, Response{Success: true, Message: message})
}

// WriteError maps a domain error to an HTTP status and the failure envelope.
//
// The service layer returns sentinels wrapped in *apperror.AppError; this is
// the only place they become status codes. Errors that are not AppErrors are
// internal faults and their text is never sent to the client.
func WriteError(w http.ResponseWriter, err error) {
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		writeJSON(w, http.StatusInternalServerError, Response{
			Message: "An internal error occurred",
			Code:    apperror.Code(err),
		})
		return
	}

	writeJSON(w, statusFor(err), Response{
		Message: appErr.Message,
		Code:    apperror.Code(err),
	})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, apperror.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, apperror.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperror.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, apperror.ErrInvalidCredential),
		errors.Is(err, apperror.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, apperror.ErrInvalidOTP),
		errors.Is(err, apperror.ErrOTPExpired):
		return http.StatusBadRequest
	case errors.Is(err, apperror.ErrAlreadyVerified):
		return http.StatusConflict
	case errors.Is(err, apperror.ErrDependency):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// decodeJSON reads a JSON request body into dst. A malformed body is a
// validation failure, reported with the endpoint's missing-fields message.
func decodeJSON(r *http.Request, dst any, message string) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperror.ValidationFailed("", message)
	}
	return nil
}

package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/account-auth/internal/auth"
	"github.com/sakif/account-auth/internal/service"
)

// UserHandler serves the signed-in user's own data.
type UserHandler struct {
	users  *service.UserService
	logger *slog.Logger
}

// NewUserHandler creates a UserHandler.
func NewUserHandler(users *service.UserService, logger *slog.Logger) *UserHandler {
	return &UserHandler{users: users, logger: logger}
}

// HandleUserData returns the caller's name and verification state.
//
// HTTP: GET /api/user/data
// Auth: required
//
// RESPONSE FORMAT:
//
//	{"success": true, "userData": {"name": "Ann", "isAccountVerified": false}}
func (h *UserHandler) HandleUserData(w http.ResponseWriter, r *http.Request, id auth.Identity) {
	data, err := h.users.GetUserData(r.Context(), id.UserID)
	if err != nil {
		WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Response{Success: true, UserData: &data})
}

package service

import (
	"context"
	"log/slog"

	"github.com/sakif/account-auth/internal/model"
	"github.com/sakif/account-auth/internal/repository"
)

// UserService serves read-only account data to signed-in users.
type UserService struct {
	users  repository.UserRepository
	logger *slog.Logger
}

// NewUserService creates a UserService.
func NewUserService(users repository.UserRepository, logger *slog.Logger) *UserService {
	return &UserService{users: users, logger: logger}
}

// GetUserData returns the public profile of the user behind a session.
func (s *UserService) GetUserData(ctx context.Context, userID string) (model.UserData, error) {
	user, err := findUserByID(ctx, s.users, userID)
	if err != nil {
		s.logger.Debug("user data lookup failed", slog.String("userID", userID), slog.String("error", err.Error()))
		return model.UserData{}, err
	}
	return user.Data(), nil
}

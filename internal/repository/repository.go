package repository

import (
	"context"

	"github.com/sakif/account-auth/internal/model"
)

// UserRepository is the credential store.
//
// Lookups return apperror.ErrNotFound when no row matches. Create returns
// apperror.ErrConflict when the email is already registered.
//
// The Set* and Consume* methods each write only their own OTP columns, so
// concurrent operations on one user never overwrite each other's fields.
// SetVerifyOTP reports false when the account is already verified.
//
// The Consume* methods are single conditional writes: they only apply when
// the stored code still equals otp and has not expired at nowMillis, and
// report false when another request got there first.
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	SetVerifyOTP(ctx context.Context, id, otp string, expireAtMillis int64) (bool, error)
	SetResetOTP(ctx context.Context, id, otp string, expireAtMillis int64) error
	ConsumeVerifyOTP(ctx context.Context, id, otp string, nowMillis int64) (bool, error)
	ConsumeResetOTP(ctx context.Context, id, otp, newPasswordHash string, nowMillis int64) (bool, error)
	Ping(ctx context.Context) error
}

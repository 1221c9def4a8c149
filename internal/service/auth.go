// Package service contains the business logic layer of the application.
//
//	AuthHandler (HTTP) → AuthService (rules) → UserRepository (store)
//	                                         ↘ TokenService, PasswordService,
//	                                           OTPGenerator, Notifier
//
// Services accept plain values and return *apperror.AppError values; they
// know nothing about HTTP, cookies or status codes. Every store or notifier
// fault is converted to apperror.ErrDependency at this boundary.
package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sakif/account-auth/internal/apperror"
	"github.com/sakif/account-auth/internal/auth"
	"github.com/sakif/account-auth/internal/metrics"
	"github.com/sakif/account-auth/internal/model"
	"github.com/sakif/account-auth/internal/notify"
	"github.com/sakif/account-auth/internal/repository"
)

// Operation names used for logs and metrics.
const (
	OpRegister      = "register"
	OpLogin         = "login"
	OpSendVerifyOTP = "send_verify_otp"
	OpVerifyAccount = "verify_account"
	OpSendResetOTP  = "send_reset_otp"
	OpResetPassword = "reset_password"
)

// AuthService handles registration, login and the OTP lifecycle.
type AuthService struct {
	users     repository.UserRepository
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	otps      *auth.OTPGenerator
	notifier  notify.Notifier
	metrics   *metrics.Metrics
	logger    *slog.Logger

	// now is the service clock; tests replace it to simulate elapsed time.
	now func() time.Time
}

// NewAuthService creates an AuthService with all required dependencies.
// m may be nil when metrics are disabled.
func NewAuthService(
	users repository.UserRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	otps *auth.OTPGenerator,
	notifier notify.Notifier,
	m *metrics.Metrics,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		tokens:    tokens,
		passwords: passwords,
		otps:      otps,
		notifier:  notifier,
		metrics:   m,
		logger:    logger,
		now:       time.Now,
	}
}

// SetClock replaces the clock used for OTP expiry. It is meant for tests
// that drive the service over HTTP and must not be called concurrently with
// requests.
func (s *AuthService) SetClock(now func() time.Time) {
	s.now = now
}

// AuthResult bundles the user and the session token so the handler can set
// the cookie in one step.
type AuthResult struct {
	User  *model.User
	Token string
}

// Register creates an unverified account and opens a session for it.
//
// The welcome email is best-effort: a delivery failure is logged and the
// registration still succeeds, since the account and session already exist.
func (s *AuthService) Register(ctx context.Context, name, email, password string) (res *AuthResult, err error) {
	defer func() { s.metrics.Operation(OpRegister, err) }()

	name = strings.TrimSpace(name)
	email = normalizeEmail(email)
	if name == "" || email == "" || password == "" {
		return nil, apperror.ValidationFailed("", "Missing Details")
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, apperror.Conflict("User already exists")
	} else if !errors.Is(err, apperror.ErrNotFound) {
		return nil, storeFailure("Failed to look up user", err)
	}

	hash, err := s.hashPassword(password)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, storeFailure("Failed to create user", err)
	}

	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return nil, fmt.Errorf("service/auth: generating token for user %s: %w", user.ID, err)
	}

	s.logger.Info("user registered", slog.String("userID", user.ID))

	if msg, err := notify.WelcomeMessage(user.Name, user.Email); err != nil {
		s.logger.Error("rendering welcome email", slog.String("error", err.Error()))
	} else if err := s.send(ctx, user.Email, msg); err != nil {
		s.logger.Warn("welcome email not sent",
			slog.String("userID", user.ID),
			slog.String("error", err.Error()),
		)
	}

	return &AuthResult{User: user, Token: token}, nil
}

// Login checks credentials and opens a session. It never writes to the store.
func (s *AuthService) Login(ctx context.Context, email, password string) (res *AuthResult, err error) {
	defer func() { s.metrics.Operation(OpLogin, err) }()

	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, apperror.ValidationFailed("", "Email and password are required")
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.NotFoundMessage("Invalid email")
		}
		return nil, storeFailure("Failed to look up user", err)
	}

	if err := s.passwords.Verify(user.PasswordHash, password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			return nil, apperror.InvalidCredential("Invalid password")
		}
		return nil, fmt.Errorf("service/auth: verifying password for user %s: %w", user.ID, err)
	}

	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return nil, fmt.Errorf("service/auth: generating token for user %s: %w", user.ID, err)
	}

	s.logger.Info("user logged in", slog.String("userID", user.ID))
	return &AuthResult{User: user, Token: token}, nil
}

// SendVerifyOTP issues a verification code valid for 24h and emails it.
//
// The code is persisted before sending, so a delivery failure leaves a
// usable code behind; the caller still sees the failure.
func (s *AuthService) SendVerifyOTP(ctx context.Context, userID string) (err error) {
	defer func() { s.metrics.Operation(OpSendVerifyOTP, err) }()

	user, err := s.userByID(ctx, userID)
	if err != nil {
		return err
	}
	if user.IsAccountVerified {
		return apperror.AlreadyVerified("Account already verified")
	}

	code, err := s.otps.Generate()
	if err != nil {
		return fmt.Errorf("service/auth: %w", err)
	}
	expireAt := auth.ExpiryMillis(s.now(), auth.VerifyOTPTTL)

	// Only applies while unverified, so a VerifyAccount racing with this
	// request cannot be rolled back.
	ok, err := s.users.SetVerifyOTP(ctx, user.ID, code, expireAt)
	if err != nil {
		return storeFailure("Failed to save verification code", err)
	}
	if !ok {
		return apperror.AlreadyVerified("Account already verified")
	}
	s.metrics.OTPIssued("verify")

	msg, err := notify.VerifyOTPMessage(code, "24 hours")
	if err != nil {
		return fmt.Errorf("service/auth: %w", err)
	}
	if err := s.send(ctx, user.Email, msg); err != nil {
		return apperror.Dependency("Failed to send verification email", err)
	}

	s.logger.Info("verification otp sent", slog.String("userID", user.ID))
	return nil
}

// VerifyAccount consumes the verification code and marks the account verified.
//
// Checks run in order and the first failure wins: user exists, stored code
// is present and equal, code has not expired. The final write is a
// conditional update, so of two concurrent requests with the same code only
// one succeeds; the other gets InvalidOtp.
func (s *AuthService) VerifyAccount(ctx context.Context, userID, otp string) (err error) {
	defer func() { s.metrics.Operation(OpVerifyAccount, err) }()

	if otp == "" {
		return apperror.ValidationFailed("otp", "Missing Details")
	}

	user, err := s.userByID(ctx, userID)
	if err != nil {
		return err
	}

	now := s.now()
	if err := checkOTP(user.VerifyOTP, user.VerifyOTPExpireAt, otp, now); err != nil {
		return err
	}

	ok, err := s.users.ConsumeVerifyOTP(ctx, user.ID, otp, now.UnixMilli())
	if err != nil {
		return storeFailure("Failed to verify account", err)
	}
	if !ok {
		return apperror.InvalidOTP("Invalid OTP")
	}

	s.logger.Info("account verified", slog.String("userID", user.ID))
	return nil
}

// SendResetOTP issues a password reset code valid for 15 minutes and emails
// it. It does not require a session.
func (s *AuthService) SendResetOTP(ctx context.Context, email string) (err error) {
	defer func() { s.metrics.Operation(OpSendResetOTP, err) }()

	email = normalizeEmail(email)
	if email == "" {
		return apperror.ValidationFailed("email", "Email is required")
	}

	user, err := s.userByEmail(ctx, email)
	if err != nil {
		return err
	}

	code, err := s.otps.Generate()
	if err != nil {
		return fmt.Errorf("service/auth: %w", err)
	}
	expireAt := auth.ExpiryMillis(s.now(), auth.ResetOTPTTL)

	if err := s.users.SetResetOTP(ctx, user.ID, code, expireAt); err != nil {
		return storeFailure("Failed to save reset code", err)
	}
	s.metrics.OTPIssued("reset")

	msg, err := notify.ResetOTPMessage(code, "15 minutes")
	if err != nil {
		return fmt.Errorf("service/auth: %w", err)
	}
	if err := s.send(ctx, user.Email, msg); err != nil {
		return apperror.Dependency("Failed to send reset email", err)
	}

	s.logger.Info("reset otp sent", slog.String("userID", user.ID))
	return nil
}

// ResetPassword consumes the reset code and replaces the password hash.
// Check order matches VerifyAccount.
func (s *AuthService) ResetPassword(ctx context.Context, email, otp, newPassword string) (err error) {
	defer func() { s.metrics.Operation(OpResetPassword, err) }()

	email = normalizeEmail(email)
	if email == "" || otp == "" || newPassword == "" {
		return apperror.ValidationFailed("", "Email, OTP, and new password are required")
	}

	user, err := s.userByEmail(ctx, email)
	if err != nil {
		return err
	}

	now := s.now()
	if err := checkOTP(user.ResetOTP, user.ResetOTPExpireAt, otp, now); err != nil {
		return err
	}

	hash, err := s.hashPassword(newPassword)
	if err != nil {
		return err
	}

	ok, err := s.users.ConsumeResetOTP(ctx, user.ID, otp, hash, now.UnixMilli())
	if err != nil {
		return storeFailure("Failed to reset password", err)
	}
	if !ok {
		return apperror.InvalidOTP("Invalid OTP")
	}

	s.logger.Info("password reset", slog.String("userID", user.ID))
	return nil
}

// checkOTP applies the shared code checks: present and equal, then unexpired.
func checkOTP(stored string, expireAt int64, submitted string, now time.Time) error {
	if stored == "" || subtle.ConstantTimeCompare([]byte(stored), []byte(submitted)) != 1 {
		return apperror.InvalidOTP("Invalid OTP")
	}
	if expireAt < now.UnixMilli() {
		return apperror.OTPExpired("OTP Expired")
	}
	return nil
}

func (s *AuthService) userByID(ctx context.Context, id string) (*model.User, error) {
	return findUserByID(ctx, s.users, id)
}

// findUserByID resolves a session's user id. An empty id means the caller
// skipped the session guard.
func findUserByID(ctx context.Context, users repository.UserRepository, id string) (*model.User, error) {
	if id == "" {
		return nil, apperror.Unauthenticated("Not Authorized. Login Again")
	}
	user, err := users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.NotFoundMessage("User not found")
		}
		return nil, storeFailure("Failed to look up user", err)
	}
	return user, nil
}

func (s *AuthService) userByEmail(ctx context.Context, email string) (*model.User, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.NotFoundMessage("User not found")
		}
		return nil, storeFailure("Failed to look up user", err)
	}
	return user, nil
}

func (s *AuthService) hashPassword(password string) (string, error) {
	hash, err := s.passwords.Hash(password)
	if err != nil {
		if errors.Is(err, auth.ErrPasswordTooLong) {
			return "", apperror.ValidationFailed("password",
				fmt.Sprintf("Password must be %d bytes or fewer", auth.MaxPasswordBytes))
		}
		return "", fmt.Errorf("service/auth: %w", err)
	}
	return hash, nil
}

// send delivers msg and records the outcome. It waits for the notifier;
// nothing outlives the request.
func (s *AuthService) send(ctx context.Context, to string, msg notify.Message) error {
	err := s.notifier.Send(ctx, to, msg.Subject, msg.Body)
	s.metrics.Notification(err)
	return err
}

// storeFailure passes AppErrors from the store through unchanged and wraps
// anything else as a dependency failure.
func storeFailure(message string, err error) error {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return apperror.Dependency(message, err)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

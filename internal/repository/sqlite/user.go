package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/xid"
	sqlitedrv "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/sakif/account-auth/internal/apperror"
	"github.com/sakif/account-auth/internal/model"
	"github.com/sakif/account-auth/internal/repository"
)

// compile-time check that *DB implements repository.UserRepository
var _ repository.UserRepository = (*DB)(nil)

const userColumns = `id, name, email, password_hash, is_account_verified,
	verify_otp, verify_otp_expire_at, reset_otp, reset_otp_expire_at,
	created_at, updated_at`

// Create inserts a new user, generating its xid and timestamps in place.
// A duplicate email maps to apperror.ErrConflict.
func (db *DB) Create(ctx context.Context, user *model.User) error {
	now := time.Now()
	user.ID = xid.New().String()
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID,
		user.Name,
		user.Email,
		user.PasswordHash,
		user.IsAccountVerified,
		user.VerifyOTP,
		user.VerifyOTPExpireAt,
		user.ResetOTP,
		user.ResetOTPExpireAt,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("User already exists")
		}
		return fmt.Errorf("sqlite: inserting user %s: %w", user.Email, err)
	}

	return nil
}

// GetByID retrieves a user by their internal ID.
// Returns apperror.ErrNotFound if no user exists with that ID.
func (db *DB) GetByID(ctx context.Context, id string) (*model.User, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id)

	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", id)
		}
		return nil, fmt.Errorf("sqlite: getting user %s: %w", id, err)
	}

	return u, nil
}

// GetByEmail retrieves a user by email (case-insensitive).
// Returns apperror.ErrNotFound if no user exists with that email.
func (db *DB) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ?`, email)

	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFoundMessage("User not found")
		}
		return nil, fmt.Errorf("sqlite: getting user by email %s: %w", email, err)
	}

	return u, nil
}

// SetVerifyOTP stores a pending verification code. It only touches the
// verify_* columns and only applies while the account is unverified, so it
// can never undo a verification or a password change that landed after the
// caller read the row. Returns false when the account is already verified.
func (db *DB) SetVerifyOTP(ctx context.Context, id, otp string, expireAtMillis int64) (bool, error) {
	result, err := db.conn.ExecContext(ctx,
		`UPDATE users
		 SET verify_otp = ?, verify_otp_expire_at = ?, updated_at = ?
		 WHERE id = ? AND is_account_verified = 0`,
		otp, expireAtMillis, time.Now(), id,
	)
	if err != nil {
		return false, fmt.Errorf("sqlite: setting verify otp for %s: %w", id, err)
	}
	return applied(result)
}

// SetResetOTP stores a pending reset code, touching only the reset_* columns.
// Returns apperror.ErrNotFound if no user exists with that ID.
func (db *DB) SetResetOTP(ctx context.Context, id, otp string, expireAtMillis int64) error {
	result, err := db.conn.ExecContext(ctx,
		`UPDATE users
		 SET reset_otp = ?, reset_otp_expire_at = ?, updated_at = ?
		 WHERE id = ?`,
		otp, expireAtMillis, time.Now(), id,
	)
	if err != nil {
		return fmt.Errorf("sqlite: setting reset otp for %s: %w", id, err)
	}
	return expectOneRow(result, id)
}

// ConsumeVerifyOTP marks the account verified and clears the verify OTP,
// but only if the stored code still equals otp and has not expired.
// Returns false (and no error) when the condition no longer holds.
func (db *DB) ConsumeVerifyOTP(ctx context.Context, id, otp string, nowMillis int64) (bool, error) {
	result, err := db.conn.ExecContext(ctx,
		`UPDATE users
		 SET is_account_verified = 1, verify_otp = '', verify_otp_expire_at = 0, updated_at = ?
		 WHERE id = ? AND verify_otp <> '' AND verify_otp = ? AND verify_otp_expire_at >= ?`,
		time.Now(), id, otp, nowMillis,
	)
	if err != nil {
		return false, fmt.Errorf("sqlite: consuming verify otp for %s: %w", id, err)
	}
	return applied(result)
}

// ConsumeResetOTP swaps in newPasswordHash and clears the reset OTP under the
// same compare-and-set condition as ConsumeVerifyOTP.
func (db *DB) ConsumeResetOTP(ctx context.Context, id, otp, newPasswordHash string, nowMillis int64) (bool, error) {
	result, err := db.conn.ExecContext(ctx,
		`UPDATE users
		 SET password_hash = ?, reset_otp = '', reset_otp_expire_at = 0, updated_at = ?
		 WHERE id = ? AND reset_otp <> '' AND reset_otp = ? AND reset_otp_expire_at >= ?`,
		newPasswordHash, time.Now(), id, otp, nowMillis,
	)
	if err != nil {
		return false, fmt.Errorf("sqlite: consuming reset otp for %s: %w", id, err)
	}
	return applied(result)
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanUser(row scanner) (*model.User, error) {
	var u model.User
	err := row.Scan(
		&u.ID,
		&u.Name,
		&u.Email,
		&u.PasswordHash,
		&u.IsAccountVerified,
		&u.VerifyOTP,
		&u.VerifyOTPExpireAt,
		&u.ResetOTP,
		&u.ResetOTPExpireAt,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func applied(result sql.Result) (bool, error) {
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	return n == 1, nil
}

func expectOneRow(result sql.Result, id string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if n == 0 {
		return apperror.NotFound("user", id)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var se *sqlitedrv.Error
	if errors.As(err, &se) {
		return se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
	}
	return false
}

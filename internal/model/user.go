// Package model defines the data structures used throughout the application.
package model

import "time"

// User is a registered account and the only persisted entity.
//
// OTP STATE:
// Each OTP pair (code + expiry) is either empty ("" / 0) or holds one pending
// 6-digit code. Expiries are unix milliseconds; a code whose expiry has
// lapsed stays stored until it is overwritten or consumed, and is treated as
// invalid on check.
//
// VerifyOTP and ResetOTP are independent: requesting one never touches the other.
type User struct {
	ID                string    `json:"id"                db:"id"`
	Name              string    `json:"name"              db:"name"`
	Email             string    `json:"email"             db:"email"`
	PasswordHash      string    `json:"-"                 db:"password_hash"`
	IsAccountVerified bool      `json:"isAccountVerified" db:"is_account_verified"`
	VerifyOTP         string    `json:"-"                 db:"verify_otp"`
	VerifyOTPExpireAt int64     `json:"-"                 db:"verify_otp_expire_at"`
	ResetOTP          string    `json:"-"                 db:"reset_otp"`
	ResetOTPExpireAt  int64     `json:"-"                 db:"reset_otp_expire_at"`
	CreatedAt         time.Time `json:"createdAt"         db:"created_at"`
	UpdatedAt         time.Time `json:"updatedAt"         db:"updated_at"`
}

// UserData is the public projection returned by GET /api/user/data.
type UserData struct {
	Name              string `json:"name"`
	IsAccountVerified bool   `json:"isAccountVerified"`
}

// Data returns the public projection of u.
func (u *User) Data() UserData {
	return UserData{Name: u.Name, IsAccountVerified: u.IsAccountVerified}
}

package auth

import (
	"crypto/rand"
	"fmt"
	"io"
	"math/big"
	"time"
)

// OTP lifetimes. A reset code grants a password change, so it lives far
// shorter than a verification code.
const (
	VerifyOTPTTL = 24 * time.Hour
	ResetOTPTTL  = 15 * time.Minute
)

// OTPDigits is the fixed width of every code.
const OTPDigits = 6

var otpSpace = big.NewInt(1_000_000)

// OTPGenerator draws uniformly random numeric codes in [000000, 999999].
type OTPGenerator struct {
	rand io.Reader
}

// NewOTPGenerator returns a generator backed by crypto/rand.
func NewOTPGenerator() *OTPGenerator {
	return &OTPGenerator{rand: rand.Reader}
}

// NewOTPGeneratorFromReader draws from r instead of crypto/rand.
// Tests use it to pin the sequence of codes.
func NewOTPGeneratorFromReader(r io.Reader) *OTPGenerator {
	return &OTPGenerator{rand: r}
}

// Generate returns a fresh 6-character code. Leading zeros are kept, so a
// draw of 42 becomes "000042".
func (g *OTPGenerator) Generate() (string, error) {
	n, err := rand.Int(g.rand, otpSpace)
	if err != nil {
		return "", fmt.Errorf("auth: drawing otp: %w", err)
	}
	return FormatOTP(n.Int64()), nil
}

// FormatOTP renders n as a zero-padded OTPDigits-wide string.
func FormatOTP(n int64) string {
	return fmt.Sprintf("%0*d", OTPDigits, n)
}

// ExpiryMillis returns the unix-millisecond expiry for a code issued at now.
func ExpiryMillis(now time.Time, ttl time.Duration) int64 {
	return now.Add(ttl).UnixMilli()
}

package auth

import (
	"bytes"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sixDigits = regexp.MustCompile(`^[0-9]{6}$`)

func TestGenerate_IsSixDigits(t *testing.T) {
	g := NewOTPGenerator()

	for range 200 {
		code, err := g.Generate()
		require.NoError(t, err)
		assert.Regexp(t, sixDigits, code)
	}
}

func TestGenerate_PreservesLeadingZeros(t *testing.T) {
	tests := []struct {
		name  string
		bytes []byte
		want  string
	}{
		// rand.Int reads 3 bytes for a 20-bit bound and masks the top byte to 4 bits.
		{"draw 42", []byte{0x00, 0x00, 0x2A}, "000042"},
		{"draw 0", []byte{0x00, 0x00, 0x00}, "000000"},
		{"draw 999999", []byte{0x0F, 0x42, 0x3F}, "999999"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewOTPGeneratorFromReader(bytes.NewReader(tt.bytes))
			code, err := g.Generate()
			require.NoError(t, err)
			assert.Equal(t, tt.want, code)
		})
	}
}

func TestGenerate_ReaderFailure(t *testing.T) {
	g := NewOTPGeneratorFromReader(bytes.NewReader(nil))
	_, err := g.Generate()
	assert.Error(t, err)
}

func TestFormatOTP(t *testing.T) {
	assert.Equal(t, "000042", FormatOTP(42))
	assert.Equal(t, "100000", FormatOTP(100000))
	assert.Equal(t, "000007", FormatOTP(7))
}

func TestExpiryMillis(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	assert.Equal(t, now.Add(24*time.Hour).UnixMilli(), ExpiryMillis(now, VerifyOTPTTL))
	assert.Equal(t, now.Add(15*time.Minute).UnixMilli(), ExpiryMillis(now, ResetOTPTTL))
	assert.Less(t, ResetOTPTTL, VerifyOTPTTL)
}

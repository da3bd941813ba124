// File: internal/auth/totp.go
package auth

import (
	"crypto/hmac"
	"crypto/sha1" //nolint:gosec // RFC 4226 specifies HMAC-SHA1
	"encoding/base32"
	"encoding/binary"
	"fmt"
	"math"
	"strings"
	"time"
)

// totpPeriod is the standard 30 second TOTP time step.
const totpPeriod = 30

// totpDigits is the code length CAS expects.
const totpDigits = 6

// GenerateTOTP computes the 6 digit RFC 6238 code for the base32 secret at
// the given time, along with how long the code remains valid. Spaces and
// lowercase in the secret are tolerated, since authenticator apps display
// secrets grouped and lowercased.
func GenerateTOTP(secret string, when time.Time) (code string, remaining time.Duration, err error) {
	if secret == "" {
		return "", 0, fmt.Errorf("otp secret must not be empty")
	}

	normalized := strings.ToUpper(strings.ReplaceAll(secret, " ", ""))
	key, err := base32.StdEncoding.WithPadding(base32.NoPadding).DecodeString(normalized)
	if err != nil {
		return "", 0, fmt.Errorf("otp secret is not valid base32: %w", err)
	}

	counter := uint64(math.Floor(float64(when.Unix()) / totpPeriod))
	remaining = time.Duration(totpPeriod-when.Unix()%totpPeriod) * time.Second

	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, counter)

	mac := hmac.New(sha1.New, key)
	_, _ = mac.Write(buf)
	sum := mac.Sum(nil)

	// Dynamic truncation per RFC 4226 section 5.4.
	offset := sum[len(sum)-1] & 0xf
	value := (int64(sum[offset])&0x7f)<<24 |
		(int64(sum[offset+1])&0xff)<<16 |
		(int64(sum[offset+2])&0xff)<<8 |
		int64(sum[offset+3])&0xff

	modulo := value % int64(math.Pow10(totpDigits))
	return fmt.Sprintf("%0*d", totpDigits, modulo), remaining, nil
}

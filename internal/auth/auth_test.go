// File: internal/auth/auth_test.go
package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestDetectProvider(t *testing.T) {
	tests := []struct {
		host string
		want Provider
	}{
		{"accounts.google.com", ProviderGoogle},
		{"cas.nss.udel.edu", ProviderCAS},
		{"docs.google.com", ProviderNone},
		{"www.google.com", ProviderNone},
		{"", ProviderNone},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DetectProvider(tt.host), "host %q", tt.host)
	}
}

func TestFreshTOTPWaitsOutWindowBoundary(t *testing.T) {
	a := New(nil, time.Second, zap.NewNop())

	// 29s into a window: 1s remaining, under the 2s floor. freshTOTP must
	// sleep into the next window and return that window's code.
	calls := 0
	a.now = func() time.Time {
		calls++
		if calls == 1 {
			return time.Unix(59, 0)
		}
		return time.Unix(60, 0)
	}

	start := time.Now()
	code, err := a.freshTOTP(rfcSecret)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), time.Second)

	want, _, err := GenerateTOTP(rfcSecret, time.Unix(60, 0))
	require.NoError(t, err)
	assert.Equal(t, want, code)
}

func TestFreshTOTPKeepsCodeWithPlentyLeft(t *testing.T) {
	a := New(nil, time.Second, zap.NewNop())
	a.now = func() time.Time { return time.Unix(30, 0) }

	code, err := a.freshTOTP(rfcSecret)
	require.NoError(t, err)

	want, _, err := GenerateTOTP(rfcSecret, time.Unix(30, 0))
	require.NoError(t, err)
	assert.Equal(t, want, code)
}

func TestFreshTOTPPropagatesSecretErrors(t *testing.T) {
	a := New(nil, time.Second, zap.NewNop())
	_, err := a.freshTOTP("")
	require.Error(t, err)
}

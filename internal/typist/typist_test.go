// File: internal/typist/typist_test.go
package typist

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/bluehensdev/formpilot/internal/config"
)

func testTypingConfig() config.TypingConfig {
	return config.TypingConfig{
		KeyDelayMeanMs:   70,
		KeyDelayStdDevMs: 28,
		KeyDelayMinMs:    35,
		KeyHoldMeanMs:    55,
		KeyHoldStdDevMs:  15,
		TypoRate:         0.02,
	}
}

func newTestTypist(seed int64) *Typist {
	return New(testTypingConfig(), rand.New(rand.NewSource(seed)), zap.NewNop())
}

func TestPauseDurationRespectsFloor(t *testing.T) {
	ty := newTestTypist(1)

	for i := 0; i < 1000; i++ {
		d := ty.pauseDuration(1.0, 1.0, nil, 0)
		assert.GreaterOrEqual(t, d, 35*time.Millisecond)
	}
}

func TestPauseDurationScalesWithMean(t *testing.T) {
	base := newTestTypist(7)
	scaled := newTestTypist(7)

	// Same rng stream, doubled mean scale: every draw must be >= the base
	// draw because both mean and floor double.
	for i := 0; i < 200; i++ {
		d1 := base.pauseDuration(1.0, 0, nil, 0)
		d2 := scaled.pauseDuration(2.0, 0, nil, 0)
		assert.GreaterOrEqual(t, d2, d1)
	}
}

func TestHoldDurationFloor(t *testing.T) {
	cfg := testTypingConfig()
	cfg.KeyHoldMeanMs = 0
	cfg.KeyHoldStdDevMs = 0
	ty := New(cfg, rand.New(rand.NewSource(3)), zap.NewNop())

	assert.Equal(t, 15*time.Millisecond, ty.holdDuration())
}

func TestNgramFactor(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		index int
		want  float64
	}{
		{"first character", "the", 0, 1.0},
		{"trigram the", "the", 2, 0.55},
		{"digram th", "th", 1, 0.7},
		{"uncommon pair", "qz", 1, 1.0},
		{"case insensitive", "THE", 2, 0.55},
		{"out of range index", "ab", 5, 1.0},
		{"nil runes", "", 0, 1.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, ngramFactor([]rune(tt.text), tt.index), 1e-9)
		})
	}
}

func TestKeyboardNeighborsAreSymmetricEnough(t *testing.T) {
	// Every neighbor listed for a letter key should itself be a known key,
	// otherwise slips could produce characters we never intend to type.
	for key, neighbors := range keyboardNeighbors {
		for _, n := range neighbors {
			if n == '-' {
				continue // edge of the number row
			}
			_, ok := keyboardNeighbors[n]
			assert.Truef(t, ok, "neighbor %q of key %q is not a known key", n, key)
		}
	}
}

func TestDeterministicUnderFixedSeed(t *testing.T) {
	a := newTestTypist(42)
	b := newTestTypist(42)

	for i := 0; i < 100; i++ {
		require.Equal(t,
			a.pauseDuration(1.0, 1.0, []rune("stipend"), i%7),
			b.pauseDuration(1.0, 1.0, []rune("stipend"), i%7),
		)
	}
}

func TestZeroTypoRateNeverRollsASlip(t *testing.T) {
	cfg := testTypingConfig()
	cfg.TypoRate = 0
	ty := New(cfg, rand.New(rand.NewSource(9)), zap.NewNop())

	for i := 0; i < 1000; i++ {
		assert.False(t, ty.roll() < ty.cfg.TypoRate)
	}
}

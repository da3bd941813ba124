// File: internal/typist/typist.go

// Package typist drives the browser keyboard with human cadence: gaussian
// inter-key delays, faster common digrams and trigrams, a small dwell after
// every key, and the occasional neighbor-key slip that gets backspaced and
// corrected. With a zero typo rate it degenerates to plain randomized-delay
// typing.
package typist

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"
	"go.uber.org/zap"

	"github.com/bluehensdev/formpilot/internal/config"
)

// keyboardNeighbors maps a key to the keys physically adjacent on a QWERTY
// layout, used to pick plausible slips.
var keyboardNeighbors = map[rune]string{
	'1': "2q", '2': "13wq", '3': "24we", '4': "35er", '5': "46rt", '6': "57ty",
	'7': "68yu", '8': "79ui", '9': "80io", '0': "9-op",
	'q': "wa1s", 'w': "qase23", 'e': "wsdr34", 'r': "edft45", 't': "rfgy56",
	'y': "tghu67", 'u': "yhji78", 'i': "ujko89", 'o': "iklp90", 'p': "ol0-",
	'a': "qwsz", 's': "awedxz", 'd': "serfcx", 'f': "drtgvc", 'g': "ftyhbv",
	'h': "gyujnb", 'j': "huikmn", 'k': "jiolm", 'l': "kop",
	'z': "asx", 'x': "zsdc", 'c': "xdfv", 'v': "cfgb", 'b': "vghn", 'n': "bhjm", 'm': "njk",
}

// commonNgrams are letter sequences typed noticeably faster than isolated keys.
var commonNgrams = map[string]bool{
	"th": true, "he": true, "in": true, "er": true, "an": true, "re": true,
	"es": true, "on": true, "st": true, "nt": true,
	"the": true, "and": true, "ing": true, "ion": true, "tio": true,
}

// Typist holds the cadence configuration and rng state.
type Typist struct {
	cfg    config.TypingConfig
	logger *zap.Logger

	mu  sync.Mutex
	rng *rand.Rand
}

// New creates a Typist. A nil rng gets a time-seeded one; tests inject a
// fixed-seed rng for reproducibility.
func New(cfg config.TypingConfig, rng *rand.Rand, logger *zap.Logger) *Typist {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Typist{
		cfg:    cfg,
		logger: logger.Named("typist"),
		rng:    rng,
	}
}

// Type focuses the element matched by selector and types text with human
// cadence. The selector must match a visible element.
func (t *Typist) Type(selector string, text string) chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		if err := chromedp.Click(selector, chromedp.ByQuery, chromedp.NodeVisible).Do(ctx); err != nil {
			return fmt.Errorf("typist: failed to focus %q: %w", selector, err)
		}

		runes := []rune(text)
		for i := 0; i < len(runes); i++ {
			if err := t.keyPause(ctx, 1.0, 1.0, runes, i); err != nil {
				return err
			}

			if t.roll() < t.cfg.TypoRate {
				slipped, err := t.slipAndCorrect(ctx, runes[i])
				if err != nil {
					return fmt.Errorf("typist: typo simulation: %w", err)
				}
				if slipped {
					continue
				}
			}

			if err := t.sendKey(ctx, string(runes[i])); err != nil {
				return fmt.Errorf("typist: failed to send key %q: %w", runes[i], err)
			}
		}
		return nil
	})
}

// Press sends a single control key (Enter, Tab, ...) to the element matched
// by selector.
func (t *Typist) Press(selector string, key string) chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		if err := t.keyPause(ctx, 1.5, 0.5, nil, 0); err != nil {
			return err
		}
		if err := chromedp.SendKeys(selector, key, chromedp.ByQuery).Do(ctx); err != nil {
			return fmt.Errorf("typist: failed to press key on %q: %w", selector, err)
		}
		return nil
	})
}

// TypeActive types into whatever element currently holds focus. Google Forms
// moves focus to the "Other" text input right after its checkbox is clicked,
// so there is no selector to target.
func (t *Typist) TypeActive(text string) chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		for _, r := range []rune(text) {
			if err := t.keyPause(ctx, 1.0, 1.0, nil, 0); err != nil {
				return err
			}
			if err := t.sendKey(ctx, string(r)); err != nil {
				return fmt.Errorf("typist: failed to send key %q: %w", r, err)
			}
		}
		return nil
	})
}

// sendKey dispatches one key to the focused element and sleeps for the dwell
// time.
func (t *Typist) sendKey(ctx context.Context, key string) error {
	action := chromedp.SendKeys("document.activeElement", key, chromedp.ByJSPath)
	if err := action.Do(ctx); err != nil {
		return err
	}
	return chromedp.Sleep(t.holdDuration()).Do(ctx)
}

// holdDuration models key dwell with a gaussian around the configured mean.
func (t *Typist) holdDuration() time.Duration {
	t.mu.Lock()
	n := t.rng.NormFloat64()
	t.mu.Unlock()

	ms := n*t.cfg.KeyHoldStdDevMs + t.cfg.KeyHoldMeanMs
	if ms < 15 {
		ms = 15
	}
	return time.Duration(ms) * time.Millisecond
}

// keyPause sleeps for a human-like inter-key delay. When runes and index are
// provided, common digrams and trigrams shorten the pause.
func (t *Typist) keyPause(ctx context.Context, meanScale, stdDevScale float64, runes []rune, index int) error {
	return chromedp.Sleep(t.pauseDuration(meanScale, stdDevScale, runes, index)).Do(ctx)
}

// pauseDuration is keyPause without the sleep, split out for tests.
func (t *Typist) pauseDuration(meanScale, stdDevScale float64, runes []rune, index int) time.Duration {
	mean := t.cfg.KeyDelayMeanMs * meanScale
	stdDev := t.cfg.KeyDelayStdDevMs * stdDevScale
	minDelay := t.cfg.KeyDelayMinMs * meanScale

	factor := ngramFactor(runes, index)
	mean *= factor
	minDelay *= factor

	t.mu.Lock()
	n := t.rng.NormFloat64()
	t.mu.Unlock()

	ms := math.Max(minDelay, n*stdDev+mean)
	return time.Duration(ms) * time.Millisecond
}

// ngramFactor returns the rhythm speedup for the character at index given
// its predecessors.
func ngramFactor(runes []rune, index int) float64 {
	if runes == nil || index <= 0 || index >= len(runes) {
		return 1.0
	}
	if index >= 2 && commonNgrams[strings.ToLower(string(runes[index-2:index+1]))] {
		return 0.55
	}
	if commonNgrams[strings.ToLower(string(runes[index-1:index+1]))] {
		return 0.7
	}
	return 1.0
}

// slipAndCorrect types a neighbor of the intended key, pauses as if noticing
// the mistake, backspaces, and types the intended key. Returns false when the
// key has no mapped neighbors (the caller types it normally).
func (t *Typist) slipAndCorrect(ctx context.Context, intended rune) (bool, error) {
	lower := unicode.ToLower(intended)
	neighbors, ok := keyboardNeighbors[lower]
	if !ok || len(neighbors) == 0 {
		return false, nil
	}

	t.mu.Lock()
	slip := rune(neighbors[t.rng.Intn(len(neighbors))])
	preserveCase := t.rng.Float64() < 0.8
	t.mu.Unlock()
	if unicode.IsUpper(intended) && preserveCase {
		slip = unicode.ToUpper(slip)
	}

	if err := t.sendKey(ctx, string(slip)); err != nil {
		return true, err
	}
	// Recognition pause, noticeably longer than the regular rhythm.
	if err := t.keyPause(ctx, 1.8, 0.6, nil, 0); err != nil {
		return true, err
	}
	if err := t.sendKey(ctx, kb.Backspace); err != nil {
		return true, err
	}
	if err := t.keyPause(ctx, 1.2, 0.5, nil, 0); err != nil {
		return true, err
	}
	if err := t.sendKey(ctx, string(intended)); err != nil {
		return true, err
	}
	return true, nil
}

// roll draws a uniform [0,1) sample under the lock.
func (t *Typist) roll() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.rng.Float64()
}

// File: internal/browser/session.go
package browser

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

// Session wraps one browser tab. It remembers the URL of the last completed
// navigation so callers can decide which login flow the page landed on.
type Session struct {
	ctx    context.Context
	cancel context.CancelFunc
	logger *zap.Logger

	pageLoadTimeout time.Duration
	lastURL         *url.URL
}

func newSession(allocatorCtx context.Context, pageLoadTimeout time.Duration, logger *zap.Logger) *Session {
	tabCtx, cancel := chromedp.NewContext(allocatorCtx)
	s := &Session{
		ctx:             tabCtx,
		cancel:          cancel,
		logger:          logger.Named("session"),
		pageLoadTimeout: pageLoadTimeout,
	}

	// A stray beforeunload or alert would otherwise stall the fill forever.
	chromedp.ListenTarget(tabCtx, func(ev interface{}) {
		if dialog, ok := ev.(*page.EventJavascriptDialogOpening); ok {
			s.logger.Warn("Dismissing unexpected page dialog",
				zap.String("type", string(dialog.Type)),
				zap.String("message", dialog.Message),
			)
			go func() {
				if err := chromedp.Run(tabCtx, page.HandleJavaScriptDialog(true)); err != nil {
					s.logger.Debug("Failed to dismiss dialog", zap.Error(err))
				}
			}()
		}
	})
	return s
}

// Navigate loads the given URL, waiting up to the configured page load
// timeout, and records where the browser actually ended up (Google Forms
// redirects unauthenticated visitors to a login host).
func (s *Session) Navigate(rawURL string) error {
	s.logger.Info("Navigating", zap.String("url", rawURL))

	navCtx, cancel := context.WithTimeout(s.ctx, s.pageLoadTimeout)
	defer cancel()

	var landed string
	err := chromedp.Run(navCtx,
		chromedp.Navigate(rawURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Location(&landed),
	)
	if err != nil {
		return fmt.Errorf("failed to navigate to %q: %w", rawURL, err)
	}

	parsed, err := url.Parse(landed)
	if err != nil {
		return fmt.Errorf("browser reported unparseable location %q: %w", landed, err)
	}
	s.lastURL = parsed

	s.logger.Debug("Navigation complete", zap.String("landed", landed))
	return nil
}

// Location re-reads the browser's current URL and updates the cached value.
func (s *Session) Location() (*url.URL, error) {
	var current string
	if err := chromedp.Run(s.ctx, chromedp.Location(&current)); err != nil {
		return nil, fmt.Errorf("failed to read browser location: %w", err)
	}
	parsed, err := url.Parse(current)
	if err != nil {
		return nil, fmt.Errorf("browser reported unparseable location %q: %w", current, err)
	}
	s.lastURL = parsed
	return parsed, nil
}

// LastURL returns the URL recorded by the most recent Navigate or Location
// call, which may be nil before the first navigation.
func (s *Session) LastURL() *url.URL {
	return s.lastURL
}

// Run executes chromedp actions against this tab.
func (s *Session) Run(actions ...chromedp.Action) error {
	return chromedp.Run(s.ctx, actions...)
}

// RunWithTimeout executes actions with a deadline.
func (s *Session) RunWithTimeout(timeout time.Duration, actions ...chromedp.Action) error {
	ctx, cancel := context.WithTimeout(s.ctx, timeout)
	defer cancel()
	return chromedp.Run(ctx, actions...)
}

// Context exposes the tab context for packages that build their own actions.
func (s *Session) Context() context.Context {
	return s.ctx
}

// Close tears down the tab.
func (s *Session) Close() {
	s.cancel()
}

// File: internal/auth/auth.go

// Package auth drives the two login flows the target form can redirect to: a
// Google account login and the university's CAS SSO with its one-time-password
// step.
package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"
	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/bluehensdev/formpilot/internal/typist"
)

// Provider identifies which identity provider the page landed on.
type Provider string

const (
	ProviderGoogle Provider = "google"
	ProviderCAS    Provider = "cas"
	ProviderNone   Provider = "none"
)

// Known login hosts.
const (
	googleLoginHost = "accounts.google.com"
	casLoginHost    = "cas.nss.udel.edu"
)

// loginAttr is the one-shot attribute stamped onto located login inputs.
const loginAttr = "data-formpilot-login"

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

// DetectProvider maps the post-navigation URL host to a Provider. Any host
// other than the two known login hosts means no authentication is required
// (the browser already has a session, or the form is public).
func DetectProvider(host string) Provider {
	switch host {
	case googleLoginHost:
		return ProviderGoogle
	case casLoginHost:
		return ProviderCAS
	default:
		return ProviderNone
	}
}

// CASCredentials is what the CAS flow types. OTPSecret is the base32 TOTP
// secret; the 6 digit code is computed at submission time.
type CASCredentials struct {
	Username  string
	Password  string
	OTPSecret string
}

// Authenticator runs login steps against a tab context.
type Authenticator struct {
	typist      *typist.Typist
	logger      *zap.Logger
	stepTimeout time.Duration

	// now is swappable for TOTP tests.
	now func() time.Time
}

// New creates an Authenticator.
func New(ty *typist.Typist, stepTimeout time.Duration, logger *zap.Logger) *Authenticator {
	return &Authenticator{
		typist:      ty,
		logger:      logger.Named("auth"),
		stepTimeout: stepTimeout,
		now:         time.Now,
	}
}

// EnterGoogleEmail runs the email step of the Google accounts flow. It is a
// separate step because the email decides what follows: a Google password
// page for personal accounts, or a CAS redirect for university ones.
func (a *Authenticator) EnterGoogleEmail(ctx context.Context, email string) error {
	a.logger.Info("Entering the account email")
	if err := a.typeAndSubmit(ctx, `input[type="email"]`, email, true); err != nil {
		return fmt.Errorf("email step: %w", err)
	}
	return nil
}

// EnterGooglePassword runs the password step of the Google flow.
func (a *Authenticator) EnterGooglePassword(ctx context.Context, password string) error {
	if err := a.typeAndSubmit(ctx, `input[type="password"]`, password, true); err != nil {
		return fmt.Errorf("google login, password step: %w", err)
	}
	return nil
}

// LoginCAS types the username, password, then the computed TOTP code into
// the CAS pages. The username field does not auto-advance, so only password
// and token get an Enter press.
func (a *Authenticator) LoginCAS(ctx context.Context, creds CASCredentials) error {
	a.logger.Info("Logging in with the university CAS SSO")

	if err := a.typeAndSubmit(ctx, `input#username`, creds.Username, false); err != nil {
		return fmt.Errorf("cas login, username step: %w", err)
	}
	if err := a.typeAndSubmit(ctx, `input#password`, creds.Password, true); err != nil {
		return fmt.Errorf("cas login, password step: %w", err)
	}

	code, err := a.freshTOTP(creds.OTPSecret)
	if err != nil {
		return fmt.Errorf("cas login, otp step: %w", err)
	}
	if err := a.typeAndSubmit(ctx, `input#token`, code, true); err != nil {
		return fmt.Errorf("cas login, otp step: %w", err)
	}
	return nil
}

// freshTOTP computes a code, waiting out the window boundary when the
// current code is about to expire so it is still valid once typed.
func (a *Authenticator) freshTOTP(secret string) (string, error) {
	code, remaining, err := GenerateTOTP(secret, a.now())
	if err != nil {
		return "", err
	}
	if remaining < 2*time.Second {
		a.logger.Debug("OTP code about to roll over, waiting for the next window")
		time.Sleep(remaining)
		code, _, err = GenerateTOTP(secret, a.now())
		if err != nil {
			return "", err
		}
	}
	return code, nil
}

// typeAndSubmit waits for the last element matching selector to be usable,
// types the value with human cadence and optionally presses Enter.
func (a *Authenticator) typeAndSubmit(ctx context.Context, selector, value string, submit bool) error {
	stepCtx, cancel := context.WithTimeout(ctx, a.stepTimeout)
	defer cancel()

	if err := chromedp.Run(stepCtx, chromedp.WaitVisible(selector, chromedp.ByQuery)); err != nil {
		return fmt.Errorf("no visible element matched %q: %w", selector, err)
	}

	// Login pages occasionally render hidden duplicates of their inputs;
	// the visible one is last in document order, so tag it the way the form
	// locator tags its widgets.
	tagged, untag, err := tagLastMatch(stepCtx, selector)
	if err != nil {
		return err
	}
	defer func() {
		if untagErr := chromedp.Run(ctx, untag); untagErr != nil {
			a.logger.Debug("Failed to remove login tag attribute", zap.Error(untagErr))
		}
	}()

	actions := []chromedp.Action{a.typist.Type(tagged, value)}
	if submit {
		actions = append(actions, a.typist.Press(tagged, kb.Enter))
	}
	if err := chromedp.Run(stepCtx, actions...); err != nil {
		return fmt.Errorf("typing into %q: %w", selector, err)
	}
	return nil
}

// jsString renders s as a JavaScript string literal.
func jsString(s string) string {
	b, _ := jsonAPI.Marshal(s)
	return string(b)
}

// tagLastMatch stamps the last element matching selector and returns a CSS
// selector addressing it plus the untag action.
func tagLastMatch(ctx context.Context, selector string) (string, chromedp.Action, error) {
	token := uuid.New().String()
	js := fmt.Sprintf(`(() => {
	const els = document.querySelectorAll(%s);
	if (els.length === 0) { return false; }
	els[els.length - 1].setAttribute(%s, %s);
	return true;
})()`, jsString(selector), jsString(loginAttr), jsString(token))

	var ok bool
	if err := chromedp.Run(ctx, chromedp.Evaluate(js, &ok)); err != nil {
		return "", nil, fmt.Errorf("tagging last match of %q: %w", selector, err)
	}
	if !ok {
		return "", nil, fmt.Errorf("no element matched %q", selector)
	}

	tagged := fmt.Sprintf(`[%s=%q]`, loginAttr, token)
	untagJS := fmt.Sprintf(`(() => {
	const el = document.querySelector(%s);
	if (el) { el.removeAttribute(%s); }
	return true;
})()`, jsString(tagged), jsString(loginAttr))
	var done bool
	return tagged, chromedp.Evaluate(untagJS, &done), nil
}

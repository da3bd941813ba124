// File: internal/prompt/prompt.go

// Package prompt collects credentials interactively. Nothing here is ever
// read from flags or config files so that secrets stay out of shell history.
package prompt

import (
	"encoding/base32"
	"fmt"
	"regexp"
	"strings"

	"github.com/AlecAivazis/survey/v2"
)

// emailPattern mirrors the permissive local@domain.tld shape: anything
// without an @ on either side of exactly one, with a dotted domain.
var emailPattern = regexp.MustCompile(`^[^@]+@[^@]+\.[^@]+$`)

// asker is the survey entry point, swappable in tests.
type asker func(p survey.Prompt, response interface{}, opts ...survey.AskOpt) error

// Prompter asks for credentials on the terminal.
type Prompter struct {
	ask asker
}

// New returns a terminal-backed Prompter.
func New() *Prompter {
	return &Prompter{ask: survey.AskOne}
}

// Email asks for the account email, re-asking until it looks like an address.
func (p *Prompter) Email() (string, error) {
	var email string
	q := &survey.Input{Message: "Email address:"}
	if err := p.ask(q, &email, survey.WithValidator(ValidateEmail)); err != nil {
		return "", fmt.Errorf("failed to read email: %w", err)
	}
	return strings.TrimSpace(email), nil
}

// Password asks for a password without echoing it. The label distinguishes
// the Google and CAS prompts.
func (p *Prompter) Password(label string) (string, error) {
	var password string
	q := &survey.Password{Message: label + " password:"}
	if err := p.ask(q, &password, survey.WithValidator(ValidateNotEmpty)); err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return password, nil
}

// Username asks for the CAS username.
func (p *Prompter) Username() (string, error) {
	var username string
	q := &survey.Input{Message: "CAS username:"}
	if err := p.ask(q, &username, survey.WithValidator(ValidateNotEmpty)); err != nil {
		return "", fmt.Errorf("failed to read username: %w", err)
	}
	return strings.TrimSpace(username), nil
}

// OTPSecret asks for the base32 TOTP secret without echoing it.
func (p *Prompter) OTPSecret() (string, error) {
	var secret string
	q := &survey.Password{Message: "Two-factor secret (base32):"}
	if err := p.ask(q, &secret, survey.WithValidator(ValidateOTPSecret)); err != nil {
		return "", fmt.Errorf("failed to read otp secret: %w", err)
	}
	return strings.TrimSpace(secret), nil
}

// ValidateEmail is a survey validator accepting local@domain.tld shapes.
func ValidateEmail(val interface{}) error {
	s, ok := val.(string)
	if !ok || !emailPattern.MatchString(strings.TrimSpace(s)) {
		return fmt.Errorf("enter a valid email address")
	}
	return nil
}

// ValidateNotEmpty is a survey validator rejecting blank answers.
func ValidateNotEmpty(val interface{}) error {
	s, ok := val.(string)
	if !ok || strings.TrimSpace(s) == "" {
		return fmt.Errorf("a value is required")
	}
	return nil
}

// ValidateOTPSecret is a survey validator checking the answer decodes as
// base32 after stripping the grouping authenticator apps display.
func ValidateOTPSecret(val interface{}) error {
	s, ok := val.(string)
	if !ok {
		return fmt.Errorf("a base32 secret is required")
	}
	normalized := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(s), " ", ""))
	if normalized == "" {
		return fmt.Errorf("a base32 secret is required")
	}
	if _, err := base32.StdEncoding.WithPadding(base32.NoPadding).DecodeString(normalized); err != nil {
		return fmt.Errorf("the secret is not valid base32")
	}
	return nil
}

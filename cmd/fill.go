package cmd

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/bluehensdev/formpilot/internal/auth"
	"github.com/bluehensdev/formpilot/internal/browser"
	"github.com/bluehensdev/formpilot/internal/config"
	"github.com/bluehensdev/formpilot/internal/form"
	"github.com/bluehensdev/formpilot/internal/observability"
	"github.com/bluehensdev/formpilot/internal/prompt"
	"github.com/bluehensdev/formpilot/internal/typist"
)

// newFillCmd creates and configures the `fill` command.
func newFillCmd() *cobra.Command {
	var setFlags []string
	var dryRun bool

	fillCmd := &cobra.Command{
		Use:   "fill",
		Short: "Opens the registration form, logs in if needed and fills every field",
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			// Bind flags to their viper keys so the command line overrides the
			// config file and environment with the right precedence.
			if err := viper.BindPFlag("form.url", cmd.Flags().Lookup("url")); err != nil {
				return err
			}
			if err := viper.BindPFlag("browser.headless", cmd.Flags().Lookup("headless")); err != nil {
				return err
			}
			if err := viper.BindPFlag("browser.page_load_timeout", cmd.Flags().Lookup("timeout")); err != nil {
				return err
			}
			if err := viper.BindPFlag("form.report_path", cmd.Flags().Lookup("report")); err != nil {
				return err
			}
			return viper.BindPFlag("form.seed", cmd.Flags().Lookup("seed"))
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			// Use the signal-aware context passed from main.go.
			ctx := cmd.Context()
			logger := observability.GetLogger()

			var cfg config.Config
			if err := viper.Unmarshal(&cfg); err != nil {
				return fmt.Errorf("failed to re-unmarshal config with flag overrides: %w", err)
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}

			catalog, err := buildCatalog(cfg.Form, setFlags)
			if err != nil {
				return err
			}

			if dryRun {
				printCatalog(catalog)
				return nil
			}

			runID := uuid.New().String()
			logger.Info("Starting fill run",
				zap.String("runID", runID),
				zap.String("url", cfg.Form.URL),
				zap.Bool("headless", cfg.Browser.Headless),
				zap.Int("fields", catalog.Len()),
			)

			components, err := initializeFillComponents(ctx, &cfg, logger)
			if err != nil {
				if components != nil {
					components.Shutdown()
				}
				return fmt.Errorf("failed to initialize fill components: %w", err)
			}
			defer components.Shutdown()

			report, err := components.run(ctx, &cfg, catalog, runID)
			if err != nil {
				if errors.Is(err, context.Canceled) {
					logger.Warn("Fill run aborted", zap.String("runID", runID))
					return fmt.Errorf("fill run aborted by user signal")
				}
				return err
			}

			if cfg.Form.ReportPath != "" {
				if err := report.WriteFile(cfg.Form.ReportPath); err != nil {
					return err
				}
				logger.Info("Fill report written", zap.String("path", cfg.Form.ReportPath))
			}

			filled, skipped, failed := report.Counts()
			fmt.Printf("\nFill complete. Run ID: %s\n", runID)
			fmt.Printf("Fields: %d filled, %d skipped, %d failed\n", filled, skipped, failed)
			fmt.Println("The form is left open for review. Nothing has been submitted.")
			return nil
		},
	}

	fillCmd.Flags().String("url", config.DefaultFormURL, "Form URL to open. (Overrides config/env)")
	fillCmd.Flags().Bool("headless", false, "Run the browser without a window. (Overrides config/env)")
	fillCmd.Flags().Duration("timeout", 60*time.Second, "Page load timeout. (Overrides config/env)")
	fillCmd.Flags().StringP("report", "o", "", "Output path for the JSON fill report. If unset, no report is written.")
	fillCmd.Flags().Int64("seed", 0, "Seed for randomized answers. Zero picks a time-based seed.")
	fillCmd.Flags().StringArrayVar(&setFlags, "set", nil, `Override a field value, e.g. --set "Last Name=Smith". Repeatable.`)
	fillCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the resolved field values without opening a browser.")

	return fillCmd
}

// buildCatalog applies config file overrides and then --set flags on top of
// the built-in field catalog.
func buildCatalog(cfg config.FormConfig, setFlags []string) (*form.Catalog, error) {
	catalog := form.DefaultCatalog()

	// Sorted for a deterministic error when several overrides are bad.
	labels := make([]string, 0, len(cfg.Overrides))
	for label := range cfg.Overrides {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	for _, label := range labels {
		if err := catalog.Override(label, cfg.Overrides[label]); err != nil {
			return nil, fmt.Errorf("invalid form.overrides entry: %w", err)
		}
	}

	for _, raw := range setFlags {
		label, value, ok := strings.Cut(raw, "=")
		if !ok || strings.TrimSpace(label) == "" {
			return nil, fmt.Errorf("invalid --set %q, expected label=value", raw)
		}
		if err := catalog.Override(strings.TrimSpace(label), value); err != nil {
			return nil, fmt.Errorf("invalid --set %q: %w", raw, err)
		}
	}
	return catalog, nil
}

// printCatalog renders the resolved values for --dry-run.
func printCatalog(catalog *form.Catalog) {
	fmt.Printf("%-40s %-16s %s\n", "LABEL", "KIND", "VALUE")
	for _, f := range catalog.Fields() {
		fmt.Printf("%-40s %-16s %s\n", f.Label, f.Kind, f.ValueString())
	}
}

// fillComponents holds initialized services.
type fillComponents struct {
	Manager       *browser.Manager
	Session       *browser.Session
	Typist        *typist.Typist
	Filler        *form.Filler
	Authenticator *auth.Authenticator
	Prompter      *prompt.Prompter
	logger        *zap.Logger
}

// Shutdown closes the tab and the browser process.
func (fc *fillComponents) Shutdown() {
	if fc.Session != nil {
		fc.Session.Close()
	}
	if fc.Manager != nil {
		fc.Manager.Shutdown()
	}
}

// initializeFillComponents handles dependency injection.
func initializeFillComponents(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*fillComponents, error) {
	components := &fillComponents{logger: logger}

	seed := cfg.Form.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	logger.Debug("Seeding rng", zap.Int64("seed", seed))
	rng := rand.New(rand.NewSource(seed))

	manager, err := browser.NewManager(ctx, cfg.Browser, logger)
	if err != nil {
		return components, fmt.Errorf("failed to launch a browser: %w", err)
	}
	components.Manager = manager

	session, err := manager.NewSession(ctx)
	if err != nil {
		return components, fmt.Errorf("failed to open a tab: %w", err)
	}
	components.Session = session

	components.Typist = typist.New(cfg.Typing, rng, logger)
	components.Filler = form.NewFiller(form.NewLocator(logger), components.Typist, rng, cfg.Form.CheckboxPicks, logger)
	components.Authenticator = auth.New(components.Typist, cfg.Auth.StepTimeout, logger)
	components.Prompter = prompt.New()

	return components, nil
}

// run navigates to the form, authenticates when a login page intervenes and
// fills every field, returning the run report.
func (fc *fillComponents) run(ctx context.Context, cfg *config.Config, catalog *form.Catalog, runID string) (*form.Report, error) {
	report := &form.Report{
		RunID:     runID,
		FormURL:   cfg.Form.URL,
		StartedAt: time.Now().UTC(),
	}

	if err := fc.Session.Navigate(cfg.Form.URL); err != nil {
		return nil, fmt.Errorf("failed to open the form: %w", err)
	}

	if err := fc.login(ctx, cfg); err != nil {
		return nil, err
	}

	if err := fc.waitForForm(cfg.Browser.PageLoadTimeout); err != nil {
		return nil, err
	}

	report.Entries = fc.Filler.Fill(fc.Session.Context(), catalog)
	report.FinishedAt = time.Now().UTC()
	return report, nil
}

// login resolves the provider and drives the matching flow. Credentials are
// always collected interactively, except for the email and username which may
// be preset in config.
func (fc *fillComponents) login(ctx context.Context, cfg *config.Config) error {
	provider := auth.Provider(cfg.Auth.Provider)
	if cfg.Auth.Provider == "auto" {
		provider = auth.DetectProvider(fc.currentHost())
	}

	switch provider {
	case auth.ProviderNone:
		fc.logger.Info("No login page detected, proceeding straight to the form")
		return nil
	case auth.ProviderGoogle:
		return fc.loginViaGoogle(ctx, cfg)
	case auth.ProviderCAS:
		return fc.loginViaCAS(ctx, cfg)
	default:
		return fmt.Errorf("unsupported auth provider %q", provider)
	}
}

// loginViaGoogle enters the email, then branches. University accounts bounce
// from the Google email page to CAS; personal accounts stay on Google and ask
// for a password.
func (fc *fillComponents) loginViaGoogle(ctx context.Context, cfg *config.Config) error {
	email := cfg.Auth.Email
	if email == "" {
		var err error
		if email, err = fc.Prompter.Email(); err != nil {
			return err
		}
	}

	if err := fc.Authenticator.EnterGoogleEmail(fc.Session.Context(), email); err != nil {
		return err
	}

	next, err := fc.waitNextLoginPage(ctx, cfg.Auth.StepTimeout)
	if err != nil {
		return err
	}
	if next == auth.ProviderCAS {
		return fc.loginViaCAS(ctx, cfg)
	}

	password, err := fc.Prompter.Password("Google")
	if err != nil {
		return err
	}
	return fc.Authenticator.EnterGooglePassword(fc.Session.Context(), password)
}

// loginViaCAS collects the CAS credentials and runs the three step flow.
func (fc *fillComponents) loginViaCAS(ctx context.Context, cfg *config.Config) error {
	username := cfg.Auth.Username
	if username == "" {
		var err error
		if username, err = fc.Prompter.Username(); err != nil {
			return err
		}
	}
	password, err := fc.Prompter.Password("CAS")
	if err != nil {
		return err
	}
	secret, err := fc.Prompter.OTPSecret()
	if err != nil {
		return err
	}

	return fc.Authenticator.LoginCAS(fc.Session.Context(), auth.CASCredentials{
		Username:  username,
		Password:  password,
		OTPSecret: secret,
	})
}

// currentHost returns the host of the tab's current URL, or "" if it cannot
// be read.
func (fc *fillComponents) currentHost() string {
	u, err := fc.Session.Location()
	if err != nil {
		fc.logger.Warn("Could not read the current location", zap.Error(err))
		return ""
	}
	return u.Host
}

// waitNextLoginPage polls after the email step until either the CAS redirect
// lands or Google's password page renders.
func (fc *fillComponents) waitNextLoginPage(ctx context.Context, timeout time.Duration) (auth.Provider, error) {
	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		if p := auth.DetectProvider(fc.currentHost()); p == auth.ProviderCAS {
			return auth.ProviderCAS, nil
		}

		var hasPassword bool
		err := fc.Session.Run(chromedp.Evaluate(
			`document.querySelector('input[type="password"]') !== null`, &hasPassword))
		if err == nil && hasPassword {
			return auth.ProviderGoogle, nil
		}

		if time.Now().After(deadline) {
			return auth.ProviderNone, fmt.Errorf("no password page or CAS redirect appeared within %s", timeout)
		}
		select {
		case <-ctx.Done():
			return auth.ProviderNone, ctx.Err()
		case <-ticker.C:
		}
	}
}

// waitForForm blocks until the post-login redirect lands back on the form.
func (fc *fillComponents) waitForForm(timeout time.Duration) error {
	if err := fc.Session.RunWithTimeout(timeout, chromedp.WaitReady("form", chromedp.ByQuery)); err != nil {
		return fmt.Errorf("the form never rendered after login: %w", err)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(newFillCmd())
}

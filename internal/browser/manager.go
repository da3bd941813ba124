// File: internal/browser/manager.go

// Package browser owns the lifecycle of the one browser process used for a
// fill run: finding an installed Chromium-family executable, launching it
// through chromedp, and handing out tab sessions.
package browser

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/bluehensdev/formpilot/internal/config"
)

// startupProbeTimeout bounds the about:blank liveness check after launch.
const startupProbeTimeout = 30 * time.Second

// Manager handles the browser process. All sessions derive from its
// allocator context.
type Manager struct {
	logger *zap.Logger
	cfg    config.BrowserConfig

	allocatorCtx    context.Context
	allocatorCancel context.CancelFunc
}

// NewManager locates a browser executable, launches the process and verifies
// it responds before returning.
func NewManager(ctx context.Context, cfg config.BrowserConfig, logger *zap.Logger) (*Manager, error) {
	m := &Manager{
		logger: logger.Named("browser"),
		cfg:    cfg,
	}
	if err := m.launch(ctx); err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}
	return m, nil
}

// launch prepares allocator options and starts the browser process.
func (m *Manager) launch(ctx context.Context) error {
	execPath, flavor := m.resolveExecutable()
	if execPath != "" {
		m.logger.Info("Using browser executable",
			zap.String("flavor", flavor),
			zap.String("path", execPath))
	} else {
		m.logger.Info("No known browser install found; deferring to chromedp's default lookup")
	}

	opts := m.buildAllocatorOptions(execPath)

	allocCtx, cancel := chromedp.NewExecAllocator(ctx, opts...)
	m.allocatorCtx = allocCtx
	m.allocatorCancel = cancel

	// Open a throwaway tab to confirm the process started and responds.
	probeCtx, cancelProbe := context.WithTimeout(allocCtx, startupProbeTimeout)
	probeCtx, cancelProbeTab := chromedp.NewContext(probeCtx)
	defer cancelProbeTab()
	defer cancelProbe()

	if err := chromedp.Run(probeCtx, chromedp.Navigate("about:blank")); err != nil {
		m.allocatorCancel()
		return fmt.Errorf("browser failed to start or respond: %w", err)
	}

	m.logger.Info("Browser launched and responsive")
	return nil
}

// resolveExecutable returns the configured executable, or the first known
// install it can find, preferring Chrome, then Chromium, Brave and Edge.
// An empty path means chromedp should use its own lookup.
func (m *Manager) resolveExecutable() (path, flavor string) {
	if m.cfg.ExecPath != "" {
		return m.cfg.ExecPath, "configured"
	}
	for _, c := range executableCandidates(runtime.GOOS) {
		if resolved := findExecutable(c.path); resolved != "" {
			return resolved, c.flavor
		}
	}
	return "", ""
}

// candidate pairs a probe path with the browser flavor it belongs to.
type candidate struct {
	flavor string
	path   string
}

// executableCandidates lists the well-known install locations per OS, in
// preference order.
func executableCandidates(goos string) []candidate {
	switch goos {
	case "darwin":
		return []candidate{
			{"chrome", "/Applications/Google Chrome.app/Contents/MacOS/Google Chrome"},
			{"chromium", "/Applications/Chromium.app/Contents/MacOS/Chromium"},
			{"brave", "/Applications/Brave Browser.app/Contents/MacOS/Brave Browser"},
			{"edge", "/Applications/Microsoft Edge.app/Contents/MacOS/Microsoft Edge"},
		}
	case "windows":
		return []candidate{
			{"chrome", `C:\Program Files\Google\Chrome\Application\chrome.exe`},
			{"chrome", `C:\Program Files (x86)\Google\Chrome\Application\chrome.exe`},
			{"chromium", `C:\Program Files\Chromium\Application\chrome.exe`},
			{"brave", `C:\Program Files\BraveSoftware\Brave-Browser\Application\brave.exe`},
			{"edge", `C:\Program Files (x86)\Microsoft\Edge\Application\msedge.exe`},
		}
	default: // linux and friends
		return []candidate{
			{"chrome", "google-chrome"},
			{"chrome", "google-chrome-stable"},
			{"chromium", "chromium"},
			{"chromium", "chromium-browser"},
			{"brave", "brave-browser"},
			{"edge", "microsoft-edge"},
		}
	}
}

// findExecutable resolves a candidate to an absolute path, or "" if the
// binary is not present.
func findExecutable(path string) string {
	if strings.ContainsAny(path, `/\`) {
		if _, err := os.Stat(path); err == nil {
			return path
		}
		return ""
	}
	resolved, err := exec.LookPath(path)
	if err != nil {
		return ""
	}
	return resolved
}

// browserFlag pairs a Chromium command line switch with its value.
type browserFlag struct {
	name  string
	value any
}

// flagSet computes the switches for the browser process. The list is defined
// explicitly rather than derived from chromedp's defaults: the stock set
// carries enable-automation, which makes Google's login pages suspicious of
// the session, so it must never appear here.
func (m *Manager) flagSet(goos string) []browserFlag {
	flags := []browserFlag{
		{"disable-background-networking", true},
		{"disable-default-apps", true},
		{"disable-extensions", true},
		{"disable-hang-monitor", true},
		{"disable-popup-blocking", true},
		{"disable-prompt-on-repost", true},
		{"disable-sync", true},
		{"disable-blink-features", "AutomationControlled"},
	}

	if m.cfg.Headless {
		flags = append(flags,
			browserFlag{"headless", true},
			browserFlag{"disable-gpu", true},
		)
	}
	if m.cfg.IgnoreTLSErrors {
		flags = append(flags, browserFlag{"ignore-certificate-errors", true})
	}

	// Custom arguments from the config file, "--name=value" or "--name".
	for _, arg := range m.cfg.Args {
		name, value, found := strings.Cut(strings.TrimPrefix(arg, "--"), "=")
		if found {
			flags = append(flags, browserFlag{name, value})
		} else {
			flags = append(flags, browserFlag{name, true})
		}
	}

	// Flags required when running inside containers.
	if goos == "linux" {
		flags = append(flags,
			browserFlag{"no-sandbox", true},
			browserFlag{"disable-dev-shm-usage", true},
		)
	}

	return flags
}

// buildAllocatorOptions assembles the chromedp options for the configured
// browser instance.
func (m *Manager) buildAllocatorOptions(execPath string) []chromedp.ExecAllocatorOption {
	opts := []chromedp.ExecAllocatorOption{
		chromedp.NoFirstRun,
		chromedp.NoDefaultBrowserCheck,
	}
	for _, f := range m.flagSet(runtime.GOOS) {
		opts = append(opts, chromedp.Flag(f.name, f.value))
	}
	if execPath != "" {
		opts = append(opts, chromedp.ExecPath(execPath))
	}
	return opts
}

// NewSession opens a fresh tab.
func (m *Manager) NewSession(ctx context.Context) (*Session, error) {
	if m.allocatorCtx == nil {
		return nil, fmt.Errorf("browser manager is not launched")
	}
	return newSession(m.allocatorCtx, m.cfg.PageLoadTimeout, m.logger), nil
}

// Shutdown terminates the browser process.
func (m *Manager) Shutdown() {
	if m.allocatorCancel == nil {
		return
	}
	m.logger.Info("Shutting down browser process")
	m.allocatorCancel()
	<-m.allocatorCtx.Done()
}

package roddriver

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
)

// SessionConfig configures the browser session.
type SessionConfig struct {
	// RemoteURL is the WebSocket URL of an external Chrome instance.
	// Empty = launch a local Chrome via launcher.
	RemoteURL string

	// Headful runs Chrome with a visible window. Default: headless.
	Headful bool

	// Stealth creates the page through the stealth injection, hiding
	// the usual automation fingerprints.
	Stealth bool

	// NavTimeout bounds Navigate plus the load wait. Default: 30s.
	NavTimeout time.Duration

	Logger *slog.Logger
}

func (c *SessionConfig) defaults() {
	if c.NavTimeout <= 0 {
		c.NavTimeout = 30 * time.Second
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Session owns one Chrome instance and the page the Finder works on.
// Start it with a process-lifetime context; Close releases Chrome and,
// for locally launched instances, its user data directory.
type Session struct {
	cfg SessionConfig

	mu      sync.Mutex
	browser *rod.Browser
	lnch    *launcher.Launcher
	page    *rod.Page
	closed  bool
}

// NewSession creates a Session. Call Start before anything else.
func NewSession(cfg SessionConfig) *Session {
	cfg.defaults()
	return &Session{cfg: cfg}
}

// Start launches Chrome, or connects to the configured remote instance.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return fmt.Errorf("roddriver: session is closed")
	}
	if s.browser != nil {
		return nil
	}

	b, err := s.launch(ctx)
	if err != nil {
		return err
	}
	s.browser = b
	return nil
}

func (s *Session) launch(ctx context.Context) (*rod.Browser, error) {
	log := s.cfg.Logger

	var wsURL string
	if s.cfg.RemoteURL != "" {
		wsURL = s.cfg.RemoteURL
		log.Info("roddriver: connecting to remote browser", "url", wsURL)
	} else {
		l := launcher.New().Headless(!s.cfg.Headful)

		// Anti-detection flags.
		l = l.Set("disable-blink-features", "AutomationControlled")

		u, err := l.Launch()
		if err != nil {
			return nil, fmt.Errorf("roddriver: launch: %w", err)
		}
		wsURL = u
		s.lnch = l
		log.Info("roddriver: launched local chrome", "headful", s.cfg.Headful)
	}

	b := rod.New().ControlURL(wsURL).Context(ctx)
	if err := b.Connect(); err != nil {
		return nil, fmt.Errorf("roddriver: connect: %w", err)
	}

	// Ignore certificate errors for dev/testing targets.
	if err := b.IgnoreCertErrors(true); err != nil {
		log.Warn("roddriver: ignore cert errors failed", "error", err)
	}

	return b, nil
}

// Page returns the session's working page, creating it on first use.
func (s *Session) Page() (*rod.Page, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, fmt.Errorf("roddriver: session is closed")
	}
	if s.page != nil {
		return s.page, nil
	}
	if s.browser == nil {
		return nil, fmt.Errorf("roddriver: session not started")
	}

	var (
		page *rod.Page
		err  error
	)
	if s.cfg.Stealth {
		page, err = stealth.Page(s.browser)
	} else {
		page, err = s.browser.Page(proto.TargetCreateTarget{URL: ""})
	}
	if err != nil {
		return nil, fmt.Errorf("roddriver: create page: %w", err)
	}

	s.page = page
	return page, nil
}

// Navigate opens the target URL on the session page and waits for the
// load event within the navigation timeout. A slow load is logged, not
// fatal: resolution has its own budgets.
func (s *Session) Navigate(ctx context.Context, pageURL string) error {
	page, err := s.Page()
	if err != nil {
		return err
	}

	navCtx, cancel := context.WithTimeout(ctx, s.cfg.NavTimeout)
	defer cancel()

	if err := page.Context(navCtx).Navigate(pageURL); err != nil {
		return fmt.Errorf("roddriver: navigate %s: %w", pageURL, err)
	}
	if err := page.Context(navCtx).WaitLoad(); err != nil {
		s.cfg.Logger.Warn("roddriver: wait load timeout", "url", pageURL, "error", err)
	}
	return nil
}

// Driver returns a probe driver bound to the session page.
func (s *Session) Driver() (*Driver, error) {
	page, err := s.Page()
	if err != nil {
		return nil, err
	}
	return NewDriver(page), nil
}

// Close shuts down the page, the browser, and a locally launched Chrome.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	if s.page != nil {
		if err := s.page.Close(); err != nil {
			s.cfg.Logger.Debug("roddriver: page close", "error", err)
		}
		s.page = nil
	}
	if s.browser != nil {
		if err := s.browser.Close(); err != nil {
			s.cfg.Logger.Debug("roddriver: browser close", "error", err)
		}
		s.browser = nil
	}
	if s.lnch != nil {
		s.lnch.Cleanup()
		s.lnch = nil
	}
	return nil
}

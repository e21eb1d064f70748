package platform

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/oklog/ulid/v2"

	"github.com/patrykgolabek/jobapply/internal/config"
)

var (
	// ErrContextManagerClosed is returned when Acquire is called after Close.
	ErrContextManagerClosed = errors.New("browser context manager is closed")
)

// managedBrowser wraps a rod.Browser with the recycling metadata the
// teacher's browser pool tracked per-instance, applied here to one
// persistent browser per platform key instead of an interchangeable pool.
type managedBrowser struct {
	id         string
	browser    *rod.Browser
	createdAt  time.Time
	lastUsedAt time.Time
	useCount   int
}

// ContextManager hands out a persistent, stealth-patched browser context per
// platform key so a BrowserPlatform adapter keeps its cookies/login state
// across applies, recycling the underlying browser when it grows stale.
// Grounded on the teacher's browser.Pool health-check/recycle lifecycle,
// repurposed from an interchangeable N-browser pool into a 1-per-platform
// persistent context keyed the way internal/session.Manager keyed browser
// sessions by caller identity.
type ContextManager struct {
	mu       sync.Mutex
	browsers map[string]*managedBrowser
	cfg      *config.Config
	logger   *slog.Logger
	closed   bool
}

// NewContextManager creates a ContextManager.
func NewContextManager(cfg *config.Config, logger *slog.Logger) *ContextManager {
	return &ContextManager{
		browsers: make(map[string]*managedBrowser),
		cfg:      cfg,
		logger:   logger,
	}
}

// Acquire opens a new *rod.Page in the persistent browser for platformKey,
// launching or recycling that browser as needed. Callers call Release (via
// the BrowserPlatform adapter's own Release) when done with the page; the
// browser itself stays warm between applies.
func (m *ContextManager) Acquire(ctx context.Context, platformKey string) (*rod.Page, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, ErrContextManagerClosed
	}

	mb, ok := m.browsers[platformKey]
	if ok && m.healthy(mb) {
		mb.lastUsedAt = time.Now()
		mb.useCount++
		return m.newPage(mb)
	}

	if ok {
		m.logger.Info("recycling stale browser context", "platform", platformKey, "age", time.Since(mb.createdAt), "uses", mb.useCount)
		m.closeBrowser(mb)
		delete(m.browsers, platformKey)
	}

	mb, err := m.launch(ctx)
	if err != nil {
		return nil, err
	}
	m.browsers[platformKey] = mb
	return m.newPage(mb)
}

// Release is a no-op placeholder for symmetry with the teacher's
// Acquire/Release pool API: the browser context persists across applies, and
// the pages Acquire opened are neither closed nor tracked here; they stay
// open until their browser is recycled or closed. Present so BrowserPlatform adapters have a
// consistent Acquire/Release shape to implement regardless of backing
// resource.
func (m *ContextManager) Release(platformKey string) {}

// Close shuts down every persistent browser context.
func (m *ContextManager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	m.closed = true
	for key, mb := range m.browsers {
		m.closeBrowser(mb)
		delete(m.browsers, key)
	}
}

// StartIdleReaper periodically closes browser contexts that have sat idle
// past Config.BrowserIdleTimeout, freeing memory between bursts of applies.
func (m *ContextManager) StartIdleReaper(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.reapIdle()
		}
	}
}

func (m *ContextManager) reapIdle() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	for key, mb := range m.browsers {
		if time.Since(mb.lastUsedAt) > m.cfg.BrowserIdleTimeout {
			m.logger.Info("closing idle browser context", "platform", key, "idle_for", time.Since(mb.lastUsedAt))
			m.closeBrowser(mb)
			delete(m.browsers, key)
		}
	}
}

func (m *ContextManager) healthy(mb *managedBrowser) bool {
	if time.Since(mb.createdAt) > m.cfg.BrowserMaxAge {
		return false
	}
	defer func() { _ = recover() }()
	_, err := mb.browser.Pages()
	return err == nil
}

func (m *ContextManager) newPage(mb *managedBrowser) (*rod.Page, error) {
	if !m.cfg.DisableStealth {
		page, err := stealth.Page(mb.browser)
		if err != nil {
			m.logger.Warn("stealth page creation failed, falling back to plain page", "error", err)
		} else {
			return page, nil
		}
	}
	return mb.browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
}

func (m *ContextManager) launch(ctx context.Context) (*managedBrowser, error) {
	l := launcher.New()
	if m.cfg.ChromePath != "" {
		l = l.Bin(m.cfg.ChromePath)
	}
	l = l.
		Headless(true).
		Set("disable-blink-features", "AutomationControlled").
		Set("disable-dev-shm-usage").
		Set("disable-gpu").
		Set("no-sandbox").
		Set("disable-setuid-sandbox").
		Set("disable-infobars").
		Set("window-size", "1920,1080").
		Set("lang", "en-US,en")

	u, err := l.Launch()
	if err != nil {
		return nil, err
	}

	browser := rod.New().ControlURL(u)
	if err := browser.Connect(); err != nil {
		return nil, err
	}

	id := ulid.Make().String()
	m.logger.Info("browser context launched", "id", id)
	return &managedBrowser{
		id:         id,
		browser:    browser,
		createdAt:  time.Now(),
		lastUsedAt: time.Now(),
	}, nil
}

func (m *ContextManager) closeBrowser(mb *managedBrowser) {
	if err := mb.browser.Close(); err != nil {
		m.logger.Warn("error closing browser context", "id", mb.id, "error", err)
	}
}

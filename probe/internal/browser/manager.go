// CLAUDE:SUMMARY Chrome lifecycle for layout capture: launch or connect, recycle on heap or age, viewport per tab.
// Package browser runs the headless Chrome used to capture pages whose DOM
// only exists after scripts ran. A Manager owns one Chrome (local launch or
// remote DevTools endpoint) and swaps it for a fresh one when its JS heap
// or its age passes a bound; tabs capture markup with per-element boxes.
package browser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
)

// ErrClosed is returned once Close was called.
var ErrClosed = errors.New("browser: manager is closed")

// Config configures the browser manager.
type Config struct {
	// RemoteURL is the DevTools WebSocket URL of an external Chrome.
	// Empty launches a local headless Chrome.
	RemoteURL string
	// Bin is the Chrome executable for local launches. Empty lets Rod
	// find or download one.
	Bin string

	// MemoryLimit is the JS heap size, in bytes, above which Chrome is
	// recycled. Default: 1 GiB.
	MemoryLimit int64
	// RecycleInterval is the maximum lifetime of one Chrome. Default: 4h.
	RecycleInterval time.Duration
	// CheckInterval is how often heap and age are checked. Default: 30s.
	CheckInterval time.Duration

	// ResourceBlocking lists resource types never loaded (image, font,
	// media, stylesheet). Stylesheets drive layout: blocking them makes
	// visibility decisions unreliable.
	ResourceBlocking []string
	// Stealth applies go-rod/stealth evasions to every tab. Default: true.
	Stealth *bool

	// ViewportWidth and ViewportHeight size every tab. Elements below the
	// viewport count as invisible. Default: 1280x800.
	ViewportWidth  int
	ViewportHeight int

	// NavTimeout bounds navigation and load. Default: 30s.
	NavTimeout time.Duration
	// Settle is waited after load for late scripts. Default: 0.
	Settle time.Duration

	Logger *slog.Logger
}

func (c *Config) defaults() {
	if c.MemoryLimit <= 0 {
		c.MemoryLimit = 1 << 30
	}
	if c.RecycleInterval <= 0 {
		c.RecycleInterval = 4 * time.Hour
	}
	if c.CheckInterval <= 0 {
		c.CheckInterval = 30 * time.Second
	}
	if c.Stealth == nil {
		on := true
		c.Stealth = &on
	}
	if c.ViewportWidth <= 0 {
		c.ViewportWidth = 1280
	}
	if c.ViewportHeight <= 0 {
		c.ViewportHeight = 800
	}
	if c.NavTimeout <= 0 {
		c.NavTimeout = 30 * time.Second
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// instance is one running Chrome.
type instance struct {
	browser    *rod.Browser
	launcher   *launcher.Launcher // nil for remote connections
	started    time.Time
	generation int
}

func (in *instance) shutdown() {
	if in == nil {
		return
	}
	if in.browser != nil {
		in.browser.Close()
	}
	if in.launcher != nil {
		in.launcher.Cleanup()
	}
}

// Manager owns one Chrome at a time.
type Manager struct {
	cfg Config

	mu     sync.RWMutex
	cur    *instance
	closed bool
}

// NewManager creates a Manager. Start it before opening tabs.
func NewManager(cfg Config) *Manager {
	cfg.defaults()
	return &Manager{cfg: cfg}
}

// Start brings Chrome up and starts the health monitor, which runs until
// ctx is done. Starting a running Manager is a no-op.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	if m.cur != nil {
		return nil
	}
	in, err := m.launch(1)
	if err != nil {
		return err
	}
	m.cur = in
	go m.monitor(ctx)
	return nil
}

// Browser returns the current Rod handle, nil before Start or after Close.
func (m *Manager) Browser() *rod.Browser {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.cur == nil {
		return nil
	}
	return m.cur.browser
}

// Recycle replaces Chrome with a fresh one. Open tabs are lost.
func (m *Manager) Recycle(reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	gen := 1
	if m.cur != nil {
		gen = m.cur.generation + 1
		m.cfg.Logger.Info("browser: recycling",
			"reason", reason, "generation", m.cur.generation, "uptime", time.Since(m.cur.started))
		m.cur.shutdown()
		m.cur = nil
	}
	in, err := m.launch(gen)
	if err != nil {
		return fmt.Errorf("browser: relaunch: %w", err)
	}
	m.cur = in
	return nil
}

// Close shuts Chrome down for good.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.cur.shutdown()
	m.cur = nil
	return nil
}

func (m *Manager) launch(gen int) (*instance, error) {
	in := &instance{generation: gen}

	controlURL := m.cfg.RemoteURL
	if controlURL == "" {
		l := launcher.New().
			Headless(true).
			Set("disable-blink-features", "AutomationControlled")
		if m.cfg.Bin != "" {
			l = l.Bin(m.cfg.Bin)
		}
		u, err := l.Launch()
		if err != nil {
			return nil, fmt.Errorf("browser: launch: %w", err)
		}
		controlURL, in.launcher = u, l
	}

	in.browser = rod.New().ControlURL(controlURL)
	if err := in.browser.Connect(); err != nil {
		in.browser = nil
		in.shutdown()
		return nil, fmt.Errorf("browser: connect %s: %w", controlURL, err)
	}
	if err := in.browser.IgnoreCertErrors(true); err != nil {
		m.cfg.Logger.Warn("browser: ignore cert errors failed", "error", err)
	}
	in.started = time.Now()
	m.cfg.Logger.Info("browser: ready",
		"remote", m.cfg.RemoteURL != "", "generation", gen, "control_url", controlURL)
	return in, nil
}

func (m *Manager) monitor(ctx context.Context) {
	ticker := time.NewTicker(m.cfg.CheckInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		m.mu.RLock()
		in, closed := m.cur, m.closed
		m.mu.RUnlock()
		if closed {
			return
		}
		if in == nil {
			continue
		}

		heap, err := heapUsage(in.browser)
		if err != nil {
			m.cfg.Logger.Debug("browser: heap check failed", "error", err)
			heap = -1
		}
		if reason := recycleReason(time.Since(in.started), heap, m.cfg); reason != "" {
			if err := m.Recycle(reason); err != nil {
				m.cfg.Logger.Error("browser: recycle failed", "reason", reason, "error", err)
			}
		}
	}
}

// recycleReason names the bound Chrome has passed, or returns "". A
// negative heap means it could not be read.
func recycleReason(uptime time.Duration, heap int64, cfg Config) string {
	switch {
	case uptime > cfg.RecycleInterval:
		return "age"
	case heap > cfg.MemoryLimit:
		return "memory"
	}
	return ""
}

// heapUsage reads performance.memory from the first open page.
func heapUsage(b *rod.Browser) (int64, error) {
	pages, err := b.Pages()
	if err != nil {
		return 0, err
	}
	if len(pages) == 0 {
		return 0, errors.New("browser: no page to read heap from")
	}
	res, err := pages[0].Eval(`() => performance.memory ? performance.memory.usedJSHeapSize : 0`)
	if err != nil {
		return 0, err
	}
	return int64(res.Value.Int()), nil
}

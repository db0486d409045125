package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
)

// Tab is one navigated page.
type Tab struct {
	Page    *rod.Page
	PageURL string

	router *rod.HijackRouter
}

// OpenTab opens a tab on mgr's browser, sized to the configured viewport
// with stealth and resource blocking applied, then navigates to pageURL
// and waits for load (plus Settle).
func OpenTab(ctx context.Context, mgr *Manager, pageURL string) (*Tab, error) {
	b := mgr.Browser()
	if b == nil {
		return nil, fmt.Errorf("browser: not started")
	}
	cfg := mgr.cfg

	page, err := newPage(b, *cfg.Stealth)
	if err != nil {
		return nil, fmt.Errorf("browser: create tab: %w", err)
	}
	t := &Tab{Page: page, PageURL: pageURL}

	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             cfg.ViewportWidth,
		Height:            cfg.ViewportHeight,
		DeviceScaleFactor: 1,
	}); err != nil {
		t.Close()
		return nil, fmt.Errorf("browser: viewport: %w", err)
	}
	if len(cfg.ResourceBlocking) > 0 {
		t.router = blockResources(page, cfg.ResourceBlocking)
	}

	nav, cancel := context.WithTimeout(ctx, cfg.NavTimeout)
	defer cancel()
	if err := page.Context(nav).Navigate(pageURL); err != nil {
		t.Close()
		return nil, fmt.Errorf("browser: navigate %s: %w", pageURL, err)
	}
	// A page that never fires load is still captured as it stands.
	if err := page.Context(nav).WaitLoad(); err != nil {
		cfg.Logger.Warn("browser: load not reached", "url", pageURL, "error", err)
	}

	if cfg.Settle > 0 {
		timer := time.NewTimer(cfg.Settle)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			t.Close()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
	return t, nil
}

func newPage(b *rod.Browser, withStealth bool) (*rod.Page, error) {
	if withStealth {
		return stealth.Page(b)
	}
	return b.Page(proto.TargetCreateTarget{})
}

// Capture records the rendered DOM with per-element layout.
func (t *Tab) Capture(ctx context.Context) (*Capture, error) {
	res, err := t.Page.Context(ctx).Eval(captureScript, BoxAttr)
	if err != nil {
		return nil, fmt.Errorf("browser: capture: %w", err)
	}
	v := res.Value
	c := &Capture{
		URL:            v.Get("url").Str(),
		HTML:           v.Get("html").Str(),
		ViewportHeight: v.Get("vh").Num(),
	}
	if c.URL == "" {
		c.URL = t.PageURL
	}
	return c, nil
}

// Close stops request interception and closes the tab.
func (t *Tab) Close() error {
	if t.router != nil {
		t.router.Stop()
		t.router = nil
	}
	if t.Page == nil {
		return nil
	}
	return t.Page.Close()
}

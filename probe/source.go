// CLAUDE:SUMMARY Page acquisition: inline HTML, HTTP GET, browser capture, or auto escalation from HTTP to browser.
package probe

import (
	"context"
	"fmt"

	"github.com/hazyhaar/domsynth/dom"
	"github.com/hazyhaar/domsynth/probe/internal/browser"
	"github.com/hazyhaar/domsynth/report"
)

// Mode selects how a page is acquired.
type Mode string

const (
	ModeInline  Mode = "inline"  // HTML supplied by the caller
	ModeHTTP    Mode = "http"    // single GET, no scripts
	ModeBrowser Mode = "browser" // headless Chrome with layout capture
	ModeAuto    Mode = "auto"    // GET, escalate to the browser for script shells
)

// Source designates a page.
type Source struct {
	HTML string `json:"html,omitempty"`
	URL  string `json:"url,omitempty"`
	Mode Mode   `json:"mode,omitempty"`
}

func (s Source) mode() Mode {
	if s.Mode != "" {
		return s.Mode
	}
	if s.HTML != "" {
		return ModeInline
	}
	return ModeAuto
}

// Page is a loaded document.
type Page struct {
	URL  string
	Hash string // SHA-256 of the analysed HTML
	Mode Mode   // how it was actually acquired
	Doc  *dom.Document
}

// Load acquires and parses a page.
func (p *Probe) Load(ctx context.Context, src Source) (*Page, error) {
	switch m := src.mode(); m {
	case ModeInline:
		if src.HTML == "" {
			return nil, fmt.Errorf("probe: inline source without html")
		}
		return p.parse(src.URL, []byte(src.HTML), ModeInline)

	case ModeHTTP, ModeAuto:
		if src.URL == "" {
			return nil, fmt.Errorf("probe: %s source without url", m)
		}
		res, err := p.fetch.Fetch(ctx, src.URL)
		if err != nil {
			if m == ModeAuto && p.browserEnabled() {
				p.logger.Warn("probe: fetch failed, escalating to browser", "url", src.URL, "error", err)
				return p.capture(ctx, src.URL)
			}
			return nil, err
		}
		if res.Truncated {
			p.logger.Warn("probe: body truncated", "url", res.URL, "size", len(res.HTML))
		}
		if m == ModeAuto && !res.Sufficient && p.browserEnabled() {
			p.logger.Info("probe: script shell detected, escalating to browser", "url", src.URL)
			return p.capture(ctx, src.URL)
		}
		return p.parse(res.URL, res.HTML, ModeHTTP)

	case ModeBrowser:
		if src.URL == "" {
			return nil, fmt.Errorf("probe: browser source without url")
		}
		return p.capture(ctx, src.URL)

	default:
		return nil, fmt.Errorf("probe: unknown mode %q", m)
	}
}

func (p *Probe) parse(pageURL string, body []byte, mode Mode) (*Page, error) {
	doc, err := dom.ParseBytes(body, dom.WithUIAttr(p.cfg.Selector.UIAttr))
	if err != nil {
		return nil, fmt.Errorf("probe: %w", err)
	}
	return &Page{URL: pageURL, Hash: report.HashHTML(body), Mode: mode, Doc: doc}, nil
}

func (p *Probe) capture(ctx context.Context, pageURL string) (*Page, error) {
	mgr, err := p.ensureBrowser()
	if err != nil {
		return nil, err
	}
	tab, err := browser.OpenTab(ctx, mgr, pageURL)
	if err != nil {
		return nil, fmt.Errorf("probe: %w", err)
	}
	defer tab.Close()

	c, err := tab.Capture(ctx)
	if err != nil {
		return nil, fmt.Errorf("probe: %w", err)
	}
	doc, err := c.Document(dom.WithUIAttr(p.cfg.Selector.UIAttr))
	if err != nil {
		return nil, fmt.Errorf("probe: %w", err)
	}
	return &Page{URL: c.URL, Hash: report.HashHTML([]byte(c.HTML)), Mode: ModeBrowser, Doc: doc}, nil
}

// ensureBrowser starts the manager on first use.
func (p *Probe) ensureBrowser() (*browser.Manager, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stopped {
		return nil, fmt.Errorf("probe: stopped")
	}
	if p.noBrowser {
		return nil, fmt.Errorf("probe: browser disabled")
	}
	if p.mgr == nil {
		b := p.cfg.Browser
		p.mgr = browser.NewManager(browser.Config{
			RemoteURL:        b.Remote,
			Bin:              b.Bin,
			MemoryLimit:      b.MemoryLimit,
			RecycleInterval:  b.RecycleInterval,
			ResourceBlocking: b.ResourceBlocking,
			Stealth:          b.Stealth,
			ViewportWidth:    b.ViewportWidth,
			ViewportHeight:   b.ViewportHeight,
			NavTimeout:       b.NavTimeout,
			Settle:           b.Settle,
			Logger:           p.logger,
		})
	}
	// The monitor goroutine follows the probe's lifetime, not the request's.
	if err := p.mgr.Start(p.ctx); err != nil {
		return nil, fmt.Errorf("probe: start browser: %w", err)
	}
	return p.mgr, nil
}

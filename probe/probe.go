// Package probe is the automation driver around the selector synthesizer
// and the structure snapshotter. It acquires pages (inline HTML, HTTP, or
// a headless browser capture that records real layout), runs either
// algorithm, and emits reports to sinks. It also exposes both operations
// as MCP tools.
//
// The algorithms themselves live in the selector and structure packages
// and never touch the network; probe only feeds them documents.
package probe

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hazyhaar/domsynth/idgen"
	"github.com/hazyhaar/domsynth/kit"
	"github.com/hazyhaar/domsynth/probe/internal/browser"
	"github.com/hazyhaar/domsynth/probe/internal/config"
	"github.com/hazyhaar/domsynth/probe/internal/fetcher"
	"github.com/hazyhaar/domsynth/probe/internal/sink"
	"github.com/hazyhaar/domsynth/report"
	"github.com/hazyhaar/domsynth/selector"
	"github.com/hazyhaar/domsynth/structure"
)

// Sink re-exports the output interface.
type Sink = sink.Sink

// NewStdoutSink writes JSON-line envelopes to w (stdout when nil).
func NewStdoutSink(w io.Writer) Sink { return sink.NewStdout(w) }

// NewFileSink appends JSON-line envelopes to a file.
func NewFileSink(path string) (Sink, error) { return sink.NewFile(path) }

// NewCallbackSink delivers reports to Go functions. Either may be nil.
func NewCallbackSink(onSelection func(context.Context, report.Selection) error, onOutline func(context.Context, report.Outline) error) Sink {
	return sink.NewCallback(onSelection, onOutline)
}

// Probe orchestrates page loading, analysis and report delivery. Safe for
// concurrent use.
type Probe struct {
	cfg     *Config
	fetch   *fetcher.Fetcher
	sinkR   *sink.Router
	ids     idgen.Generator
	session *selector.Session
	logger  *slog.Logger
	now     func() time.Time

	ctx    context.Context
	cancel context.CancelFunc

	mu        sync.Mutex
	mgr       *browser.Manager
	stopped   bool
	noBrowser bool
}

// Option configures a Probe.
type Option func(*probeOptions)

type probeOptions struct {
	logger    *slog.Logger
	sinks     []Sink
	sinksSet  bool
	ids       idgen.Generator
	client    *http.Client
	noBrowser bool
	now       func() time.Time
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option { return func(o *probeOptions) { o.logger = l } }

// WithSinks sets the report sinks, replacing those built from the config.
func WithSinks(s ...Sink) Option {
	return func(o *probeOptions) { o.sinks, o.sinksSet = s, true }
}

// WithIDGenerator sets the report ID generator. Default: UUIDv7.
func WithIDGenerator(g idgen.Generator) Option { return func(o *probeOptions) { o.ids = g } }

// WithHTTPClient sets the client of the HTTP path.
func WithHTTPClient(c *http.Client) Option { return func(o *probeOptions) { o.client = c } }

// WithoutBrowser disables Chrome: browser sources fail and auto sources
// stay on HTTP.
func WithoutBrowser() Option { return func(o *probeOptions) { o.noBrowser = true } }

// withClock is used by tests.
func withClock(now func() time.Time) Option { return func(o *probeOptions) { o.now = now } }

// New creates a Probe. A nil cfg means the algorithm defaults and no
// sinks. Sinks come from cfg.Sinks unless WithSinks is given.
func New(cfg *Config, opts ...Option) (*Probe, error) {
	o := probeOptions{ids: idgen.Default, now: time.Now}
	for _, fn := range opts {
		fn(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	if cfg == nil {
		cfg = &Config{}
	}

	if !o.sinksSet {
		for _, sc := range cfg.Sinks {
			s, err := buildSink(sc)
			if err != nil {
				return nil, err
			}
			o.sinks = append(o.sinks, s)
		}
	}

	fopts := []fetcher.Option{fetcher.WithLogger(o.logger), fetcher.WithUserAgent(cfg.Fetch.UserAgent)}
	switch {
	case o.client != nil:
		fopts = append(fopts, fetcher.WithClient(o.client))
	case cfg.Fetch.Timeout > 0:
		fopts = append(fopts, fetcher.WithClient(&http.Client{Timeout: cfg.Fetch.Timeout}))
	}

	ctx, cancel := context.WithCancel(context.Background())
	p := &Probe{
		cfg:       cfg,
		fetch:     fetcher.New(fopts...),
		sinkR:     sink.NewRouter(o.logger, o.sinks...),
		ids:       o.ids,
		logger:    o.logger,
		now:       o.now,
		ctx:       ctx,
		cancel:    cancel,
		noBrowser: o.noBrowser,
	}
	p.session = selector.NewSession(p.selectorOptions(), cfg.Selector.Blocked...)
	return p, nil
}

func buildSink(sc SinkConfig) (Sink, error) {
	switch sc.Type {
	case "", "stdout":
		return sink.NewStdout(nil), nil
	case "file":
		if sc.Path == "" {
			return nil, fmt.Errorf("probe: file sink without path")
		}
		return sink.NewFile(sc.Path)
	default:
		return nil, fmt.Errorf("probe: unknown sink type %q", sc.Type)
	}
}

func (p *Probe) browserEnabled() bool { return !p.noBrowser }

func (p *Probe) selectorOptions() selector.Options {
	c := p.cfg.Selector
	return selector.Options{
		MaxLength:   c.MaxLength,
		AnchorDepth: c.AnchorDepth,
		WidenDepth:  c.WidenDepth,
		Logger:      p.logger,
	}
}

func (p *Probe) structureOptions(keys []string, limit int) structure.Options {
	c := p.cfg.Structure
	if len(keys) == 0 {
		keys = c.AttributeKeys
	}
	if limit <= 0 {
		limit = c.Limit
	}
	if limit <= 0 {
		limit = structure.DefaultLimit
	}
	return structure.Options{
		Limit:         limit,
		AttributeKeys: keys,
		MaxDepth:      c.MaxDepth,
		SkipTags:      c.SkipTags,
		Logger:        p.logger,
	}
}

// SelectorRequest asks for the selectors of one element.
type SelectorRequest struct {
	Source Source `json:"source"`
	// Target designates the element, in any form dom.Document.Locate
	// accepts. It must match exactly one element.
	Target string `json:"target"`
	// Blocked fragments are never used in the result. They apply to this
	// request only, session or not.
	Blocked []string `json:"blocked,omitempty"`
	// Session makes the probe remember the anchors of this result and
	// block them on later session requests.
	Session bool `json:"session,omitempty"`
}

// Selectors synthesises the selector pair of the designated element and
// emits a report.Selection.
func (p *Probe) Selectors(ctx context.Context, req SelectorRequest) (*report.Selection, error) {
	if req.Target == "" {
		return nil, fmt.Errorf("probe: selectors: empty target")
	}
	page, err := p.Load(ctx, req.Source)
	if err != nil {
		return nil, err
	}
	node, err := page.Doc.LocateOne(req.Target)
	if err != nil {
		return nil, fmt.Errorf("probe: selectors: %w", err)
	}

	var res selector.Result
	if req.Session {
		res, err = p.session.Synthesize(page.Doc, node, req.Blocked...)
	} else {
		blocked := selector.NewBlocked(p.cfg.Selector.Blocked...)
		blocked.Add(req.Blocked...)
		res, err = selector.Synthesize(page.Doc, node, blocked, p.selectorOptions())
	}
	if err != nil {
		return nil, fmt.Errorf("probe: selectors: %w", err)
	}

	sel := report.NewSelection(p.ids(), page.URL, page.Hash, req.Target, res, p.now().UnixMilli())
	if err := p.sinkR.SendSelection(ctx, sel); err != nil {
		p.logger.Error("probe: send selection failed", append(kit.CallFrom(ctx).LogAttrs(), "error", err)...)
	}
	p.logger.Info("probe: selectors", append(kit.CallFrom(ctx).LogAttrs(),
		"url", page.URL, "target", req.Target,
		"primary", sel.Primary, "secondary", sel.Secondary, "verified", sel.Verified)...)
	return &sel, nil
}

// StructureRequest asks for an outline of a subtree.
type StructureRequest struct {
	Source Source `json:"source"`
	// Root designates the subtree root. Empty means the body.
	Root string `json:"root,omitempty"`
	// Keys overrides the configured attribute keys.
	Keys []string `json:"keys,omitempty"`
	// Limit overrides the configured size limit.
	Limit int `json:"limit,omitempty"`
}

// Structure snapshots the designated subtree and emits a report.Outline.
func (p *Probe) Structure(ctx context.Context, req StructureRequest) (*report.Outline, error) {
	page, err := p.Load(ctx, req.Source)
	if err != nil {
		return nil, err
	}
	root := page.Doc.Body()
	if req.Root != "" {
		if root, err = page.Doc.LocateOne(req.Root); err != nil {
			return nil, fmt.Errorf("probe: structure: %w", err)
		}
	}

	opts := p.structureOptions(req.Keys, req.Limit)
	res := structure.Recognize(page.Doc, root, opts)

	out := report.NewOutline(p.ids(), page.URL, page.Hash, req.Root, opts.Limit, res, p.now().UnixMilli())
	if err := p.sinkR.SendOutline(ctx, out); err != nil {
		p.logger.Error("probe: send outline failed", append(kit.CallFrom(ctx).LogAttrs(), "error", err)...)
	}
	p.logger.Info("probe: structure", append(kit.CallFrom(ctx).LogAttrs(),
		"url", page.URL, "root", req.Root, "depth", out.Depth, "length", out.Length)...)
	return &out, nil
}

// RunTargets processes batch targets matching cfg.Batch.Only, at most
// cfg.Batch.Concurrency at a time (in order when 1). A failing target is
// logged and skipped; all failures are returned joined.
func (p *Probe) RunTargets(ctx context.Context, targets []Target) error {
	targets, err := config.FilterTargets(targets, p.cfg.Batch.Only)
	if err != nil {
		return err
	}
	limit := p.cfg.Batch.Concurrency
	if limit <= 0 {
		limit = 1
	}

	var (
		mu   sync.Mutex
		errs []error
	)
	fail := func(err error) {
		mu.Lock()
		errs = append(errs, err)
		mu.Unlock()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for _, t := range targets {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			p.runTarget(gctx, t, fail)
			return nil
		})
	}
	g.Wait()
	if err := ctx.Err(); err != nil {
		fail(err)
	}
	return errors.Join(errs...)
}

func (p *Probe) runTarget(ctx context.Context, t Target, fail func(error)) {
	tctx := kit.WithCall(ctx, kit.Call{Transport: "batch", RequestID: t.ID})
	src := Source{URL: t.URL, Mode: Mode(t.Mode)}
	if t.Selector != "" {
		if _, err := p.Selectors(tctx, SelectorRequest{Source: src, Target: t.Selector}); err != nil {
			p.logger.Error("probe: target selectors failed", "id", t.ID, "url", t.URL, "error", err)
			fail(fmt.Errorf("target %s: %w", t.ID, err))
		}
	}
	if t.Outline || t.Selector == "" {
		if _, err := p.Structure(tctx, StructureRequest{Source: src, Root: t.Root, Keys: t.AttributeKeys}); err != nil {
			p.logger.Error("probe: target structure failed", "id", t.ID, "url", t.URL, "error", err)
			fail(fmt.Errorf("target %s: %w", t.ID, err))
		}
	}
}

// Session returns the blocked fragments accumulated by session requests.
func (p *Probe) Session() []string {
	return p.session.Blocked()
}

// ResetSession clears the session's blocked fragments.
func (p *Probe) ResetSession() {
	p.session.Reset()
	p.session.Block(p.cfg.Selector.Blocked...)
}

// Stop closes the browser (if started) and the sinks.
func (p *Probe) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stopped {
		return nil
	}
	p.stopped = true
	p.cancel()
	if p.mgr != nil {
		p.mgr.Close()
	}
	return p.sinkR.Close()
}

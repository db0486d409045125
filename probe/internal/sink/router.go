package sink

import (
	"context"
	"log/slog"

	"github.com/hazyhaar/domsynth/report"
)

// Router fans reports out to every sink. A failing sink does not stop
// the others; failures are logged and the first one is returned.
type Router struct {
	sinks  []Sink
	logger *slog.Logger
}

// NewRouter creates a fan-out router.
func NewRouter(logger *slog.Logger, sinks ...Sink) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{sinks: sinks, logger: logger}
}

func (r *Router) SendSelection(ctx context.Context, sel report.Selection) error {
	return r.each("selection", func(s Sink) error { return s.SendSelection(ctx, sel) })
}

func (r *Router) SendOutline(ctx context.Context, out report.Outline) error {
	return r.each("outline", func(s Sink) error { return s.SendOutline(ctx, out) })
}

func (r *Router) Close() error {
	return r.each("close", func(s Sink) error { return s.Close() })
}

func (r *Router) each(op string, fn func(Sink) error) error {
	var firstErr error
	for _, s := range r.sinks {
		if err := fn(s); err != nil {
			r.logger.Warn("sink: "+op+" failed", "error", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

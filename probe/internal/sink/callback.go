// CLAUDE:SUMMARY In-process sink delivering reports through Go function calls.
package sink

import (
	"context"

	"github.com/hazyhaar/domsynth/report"
)

// SelectionFunc receives each selection.
type SelectionFunc func(ctx context.Context, sel report.Selection) error

// OutlineFunc receives each outline.
type OutlineFunc func(ctx context.Context, out report.Outline) error

// Callback hands reports to Go functions, without serialisation.
type Callback struct {
	onSelection SelectionFunc
	onOutline   OutlineFunc
}

// NewCallback creates a Callback sink. Either handler may be nil.
func NewCallback(onSelection SelectionFunc, onOutline OutlineFunc) *Callback {
	return &Callback{onSelection: onSelection, onOutline: onOutline}
}

func (c *Callback) SendSelection(ctx context.Context, sel report.Selection) error {
	if c.onSelection != nil {
		return c.onSelection(ctx, sel)
	}
	return nil
}

func (c *Callback) SendOutline(ctx context.Context, out report.Outline) error {
	if c.onOutline != nil {
		return c.onOutline(ctx, out)
	}
	return nil
}

func (c *Callback) Close() error { return nil }

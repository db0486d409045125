// Package sink defines output backends for probe reports.
package sink

import (
	"context"

	"github.com/hazyhaar/domsynth/report"
)

// Sink delivers reports.
type Sink interface {
	SendSelection(ctx context.Context, sel report.Selection) error
	SendOutline(ctx context.Context, out report.Outline) error
	Close() error
}

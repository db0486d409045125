// Package selector derives short, robust selectors that re-locate a DOM
// element: a primary and an independently derived secondary, each checked
// against the live document with the uniqueness oracle.
//
// Candidates come from stable tokens only: ids, test and accessibility
// attributes, semantic classes, at most one :nth-of-type, and trimmed text
// as a last resort. html and body are never used as anchors or chain
// tokens, and every verified selector stays within Options.MaxLength.
package selector

import (
	"errors"
	"log/slog"
)

// ErrUnsupportedTarget is returned for targets that cannot be described:
// nil or non-element nodes, detached nodes, html/body, and tool UI.
var ErrUnsupportedTarget = errors.New("selector: unsupported target")

// Options tunes the search. Zero values take the defaults below.
type Options struct {
	// MaxLength caps every verified selector. Default: 160.
	MaxLength int
	// AnchorDepth is how many ancestors the anchor search visits. Default: 6.
	AnchorDepth int
	// WidenDepth is how many further ancestors the secondary search visits
	// when the nearest anchor fails. Default: 3.
	WidenDepth int
	// MaxTextLength bounds the text used by text selectors. Default: 24.
	MaxTextLength int
	// MaxAttrValueLength bounds attribute values used as tokens. Default: 40.
	MaxAttrValueLength int
	// MaxClasses and MaxAttributes cap the tokens kept per node. Default: 3.
	MaxClasses    int
	MaxAttributes int

	Logger *slog.Logger
}

func (o *Options) defaults() {
	if o.MaxLength <= 0 {
		o.MaxLength = 160
	}
	if o.AnchorDepth <= 0 {
		o.AnchorDepth = 6
	}
	if o.WidenDepth <= 0 {
		o.WidenDepth = 3
	}
	if o.MaxTextLength <= 0 {
		o.MaxTextLength = 24
	}
	if o.MaxAttrValueLength <= 0 {
		o.MaxAttrValueLength = 40
	}
	if o.MaxClasses <= 0 {
		o.MaxClasses = 3
	}
	if o.MaxAttributes <= 0 {
		o.MaxAttributes = 3
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
}

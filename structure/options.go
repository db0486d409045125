// Package structure snapshots the shape of a DOM subtree as compact JSON
// sized for a reader with a fixed budget, typically a language model.
//
// The snapshot only keeps visible elements, drops the tool's own UI and a
// skip-list of uninformative tags, and records a configurable list of
// attributes per element. Its depth is chosen adaptively: the tree is
// rebuilt one level deeper at a time until the serialised form crosses
// Options.Limit, then whichever of the last two depths lands closer to the
// limit wins.
package structure

import "log/slog"

// Defaults.
const (
	DefaultLimit      = 5000
	DefaultStartDepth = 2
	DefaultMaxDepth   = 20
)

// DefaultAttributeKeys returns a fresh copy of the default attribute list.
func DefaultAttributeKeys() []string {
	return []string{"id", "class", "placeholder"}
}

// DefaultSkipTags returns a fresh copy of the default skip-list.
func DefaultSkipTags() []string {
	return []string{"style", "script", "svg", "img"}
}

// Options tunes a snapshot. Zero values take the defaults.
type Options struct {
	// Limit is the target serialised length in characters. Default: 5000.
	Limit int
	// AttributeKeys lists the attributes collected per element, in output
	// order. Recognised keys: id, class, name, role, tabindex, placeholder,
	// innerText, value. Any other key is read as a plain attribute.
	AttributeKeys []string
	// StartDepth is the first depth tried. Default: 2.
	StartDepth int
	// MaxDepth is the depth ceiling. Default: 20.
	MaxDepth int
	// SkipTags are never described, nor is anything below them.
	SkipTags []string

	Logger *slog.Logger
}

func (o *Options) defaults() {
	if o.Limit <= 0 {
		o.Limit = DefaultLimit
	}
	if len(o.AttributeKeys) == 0 {
		o.AttributeKeys = DefaultAttributeKeys()
	}
	if o.StartDepth <= 0 {
		o.StartDepth = DefaultStartDepth
	}
	if o.MaxDepth <= 0 {
		o.MaxDepth = DefaultMaxDepth
	}
	if o.MaxDepth < o.StartDepth {
		o.MaxDepth = o.StartDepth
	}
	if o.SkipTags == nil {
		o.SkipTags = DefaultSkipTags()
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
}

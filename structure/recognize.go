// CLAUDE:SUMMARY Adaptive depth walk: rebuild one level deeper until the serialised tree crosses the limit, keep the closer side.
package structure

import (
	"unicode/utf8"

	"golang.org/x/net/html"

	"github.com/hazyhaar/domsynth/dom"
)

// Result is one snapshot. Tree is nil when nothing informative exists.
type Result struct {
	Depth      int    `json:"depth"`
	Length     int    `json:"length"`
	Serialized string `json:"serialized"`
	Tree       *Node  `json:"tree"`
}

// Recognize snapshots the subtree under root. A nil root, or a root inside
// the tool's own UI, is replaced by the document body.
func Recognize(doc *dom.Document, root *html.Node, opts Options) Result {
	opts.defaults()
	if doc == nil {
		return Result{Depth: opts.StartDepth}
	}
	if root == nil || doc.IsOwnUI(root) {
		root = doc.Body()
	}
	if root == nil {
		return Result{Depth: opts.StartDepth}
	}

	b := newBuilder(doc, opts)
	res := closestByLimit(opts.Limit, opts.StartDepth, opts.MaxDepth, func(depth int) (Result, bool) {
		tree := b.tree(root, depth)
		s, err := Serialize(tree)
		if err != nil {
			opts.Logger.Warn("structure: serialize failed", "depth", depth, "error", err)
			s = ""
		}
		return Result{
			Depth:      depth,
			Length:     utf8.RuneCountInString(s),
			Serialized: s,
			Tree:       tree,
		}, !b.truncated
	})

	opts.Logger.Debug("structure: recognized",
		"tag", dom.Tag(root), "depth", res.Depth, "length", res.Length,
		"nodes", res.Tree.Count(), "limit", opts.Limit)
	return res
}

// closestByLimit walks depths from start to max. An empty result stops the
// walk at once. Once a result exceeds limit, the previous in-budget result
// is kept when its undershoot is not larger than the overshoot; a first
// result already over the limit is returned as is. When the ceiling is
// reached without crossing the limit the deepest result wins. A build that
// reports the subtree exhausted ends the walk early: every deeper tree is
// identical, so its result stands for the ceiling.
func closestByLimit(limit, start, max int, build func(depth int) (Result, bool)) Result {
	var prev Result
	prevLen := 0
	for depth := start; depth <= max; depth++ {
		cur, exhausted := build(depth)
		if cur.Length == 0 {
			return cur
		}
		if cur.Length > limit {
			if prevLen == 0 {
				return cur
			}
			if cur.Length-limit < limit-prevLen {
				return cur
			}
			return prev
		}
		prev, prevLen = cur, cur.Length
		if exhausted {
			prev.Depth = max
			break
		}
	}
	return prev
}

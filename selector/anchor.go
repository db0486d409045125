package selector

import (
	"golang.org/x/net/html"

	"github.com/hazyhaar/domsynth/dom"
)

// Anchor is an ancestor that a selector alone already identifies. It is
// only used to prefix child selectors during one synthesis call.
type Anchor struct {
	Selector string
	Node     *html.Node
}

// anchorFor tries, in order, the id, each stable attribute, each stable
// class (bare then tag-qualified) and the bare tag of n, returning the
// first one unique in the whole document.
func (s *synth) anchorFor(n *html.Node) *Anchor {
	t := s.tokensOf(n)
	var cands []string
	if t.id != "" {
		cands = append(cands, t.id)
	}
	cands = append(cands, t.attrs...)
	for _, c := range t.classes {
		esc := dom.Escape(c)
		cands = append(cands, "."+esc, t.tag+"."+esc)
	}
	cands = append(cands, t.tag)

	for _, sel := range cands {
		if s.unique(sel, n) {
			return &Anchor{Selector: sel, Node: n}
		}
	}
	return nil
}

// searchAnchor walks ancestors starting at from, skipping html and body
// (which still count towards depth), and returns the first independently
// unique one.
func (s *synth) searchAnchor(from *html.Node, depth int) *Anchor {
	cur := from
	for i := 0; cur != nil && i < depth; i++ {
		if !dom.IsRootTag(dom.Tag(cur)) {
			if a := s.anchorFor(cur); a != nil {
				return a
			}
		}
		cur = dom.ParentElement(cur)
	}
	return nil
}

// nearestAnchor is the anchor of the target, searched from its parent up
// to AnchorDepth levels. Memoised per call.
func (s *synth) nearestAnchor(target *html.Node) *Anchor {
	if !s.nearestDone {
		s.nearest = s.searchAnchor(dom.ParentElement(target), s.opts.AnchorDepth)
		s.nearestDone = true
	}
	return s.nearest
}

// widerAnchor continues above the nearest anchor (or above the target's
// parent when there is none) for WidenDepth more levels.
func (s *synth) widerAnchor(target *html.Node) *Anchor {
	from := dom.ParentElement(target)
	if a := s.nearestAnchor(target); a != nil {
		from = dom.ParentElement(a.Node)
	}
	return s.searchAnchor(from, s.opts.WidenDepth)
}

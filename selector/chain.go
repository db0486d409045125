// CLAUDE:SUMMARY Candidate generators: anchor+child chains, self combos, nth-of-type, scoped parent>child chains.
package selector

import (
	"strings"

	"github.com/hazyhaar/domsynth/dom"
)

// childTokens lists the target's own tokens in chain priority order:
// stable attributes, id, tag.class, the two-class combos, then
// nth-of-type forms (bare only when no class exists).
func childTokens(t *tokens) []string {
	var out []string
	out = append(out, t.attrs...)
	if t.id != "" {
		out = append(out, t.id)
	}
	for _, c := range t.classes {
		out = append(out, t.tag+"."+dom.Escape(c))
	}
	if bare, tagged, ok := t.pair(); ok {
		out = append(out, bare, tagged)
	}
	out = append(out, nthTokens(t)...)
	return out
}

// nthTokens are the structural forms: tag:nth when there is no class,
// tag.class:nth for each class.
func nthTokens(t *tokens) []string {
	if t.nth == "" {
		return nil
	}
	var out []string
	if len(t.classes) == 0 {
		out = append(out, t.tag+t.nth)
	}
	for _, c := range t.classes {
		out = append(out, t.tag+"."+dom.Escape(c)+t.nth)
	}
	return out
}

// chainCandidates prefixes each child token with the anchor and the
// right combinator. A nil anchor yields the bare child tokens.
func chainCandidates(a *Anchor, t *tokens) []string {
	base := ""
	if a != nil {
		if dom.ParentElement(t.node) == a.Node {
			base = a.Selector + " > "
		} else {
			base = a.Selector + " "
		}
	}
	kids := childTokens(t)
	out := make([]string, 0, len(kids))
	for _, k := range kids {
		out = append(out, base+k)
	}
	return out
}

// selfCandidates combine the node's tag with its own attributes and
// classes, without an anchor.
func selfCandidates(t *tokens) []string {
	var out []string
	for _, a := range t.attrs {
		out = append(out, t.tag+a)
	}
	for _, c := range t.classes {
		out = append(out, t.tag+"."+dom.Escape(c))
	}
	if bare, tagged, ok := t.pair(); ok {
		out = append(out, bare, tagged)
	}
	return out
}

// nthCandidates is the minimal structural tier on the bare node.
func nthCandidates(t *tokens) []string {
	return nthTokens(t)
}

// scopedCandidates builds parent > child chains from the parent's own
// tokens. The parent must not be html or body, and a parent variant that
// already uses :nth-of-type is only combined with nth-free child tokens.
func (s *synth) scopedCandidates(t *tokens) []string {
	parent := dom.ParentElement(t.node)
	if parent == nil || dom.IsRootTag(dom.Tag(parent)) {
		return nil
	}
	p := s.tokensOf(parent)

	var bases []string
	if p.id != "" {
		bases = append(bases, p.id)
	}
	bases = append(bases, p.attrs...)
	for _, c := range p.classes {
		esc := dom.Escape(c)
		bases = append(bases, "."+esc, p.tag+"."+esc)
	}
	bases = append(bases, p.tag)

	var variants []string
	for _, b := range bases {
		variants = append(variants, b)
		if !strings.HasPrefix(b, "#") && p.nth != "" {
			variants = append(variants, b+p.nth)
		}
	}

	var plain []string
	plain = append(plain, t.attrs...)
	if t.id != "" {
		plain = append(plain, t.id)
	}
	for _, c := range t.classes {
		plain = append(plain, t.tag+"."+dom.Escape(c))
	}
	if bare, tagged, ok := t.pair(); ok {
		plain = append(plain, bare, tagged)
	}
	structural := nthTokens(t)

	var out []string
	for _, base := range variants {
		kids := plain
		if !strings.Contains(base, ":nth-of-type(") {
			kids = append(append([]string(nil), plain...), structural...)
		}
		for _, k := range kids {
			out = append(out, base+" > "+k)
		}
	}
	return out
}

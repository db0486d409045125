// CLAUDE:SUMMARY Fallback ladders as ordered strategy tables; verified tiers consult the oracle, text/fallback do not.
package selector

import (
	"unicode/utf8"

	"github.com/hazyhaar/domsynth/dom"
)

// Tier names the strategy that produced a selector.
type Tier string

const (
	TierID           Tier = "id"            // own id, unique document-wide
	TierAttribute    Tier = "attribute"     // own stable attribute, unique
	TierChain        Tier = "chain"         // nearest anchor + child token
	TierWideChain    Tier = "wide_chain"    // wider anchor + child token
	TierSelf         Tier = "self"          // tag combined with own attributes/classes
	TierNth          Tier = "nth"           // tag[.class]:nth-of-type
	TierScoped       Tier = "scoped"        // parent tokens > child token
	TierText         Tier = "text"          // text="…", not verified
	TierAnchoredText Tier = "anchored_text" // anchor >> text="…", not verified
	TierFallback     Tier = "fallback"      // tag.class or tag:nth-of-type, not verified
)

// Verified reports whether selectors of this tier were confirmed unique
// by the oracle when produced.
func (t Tier) Verified() bool {
	switch t {
	case TierText, TierAnchoredText, TierFallback:
		return false
	}
	return t != ""
}

// strategy generates candidates for one tier.
type strategy struct {
	tier Tier
	// verified strategies return the first candidate the oracle accepts;
	// the others return their first candidate as is.
	verified   bool
	candidates func(s *synth, t *tokens) []string
}

var primaryLadder = []strategy{
	{TierID, true, func(_ *synth, t *tokens) []string {
		if t.id == "" {
			return nil
		}
		return []string{t.id}
	}},
	{TierAttribute, true, func(_ *synth, t *tokens) []string {
		return t.attrs
	}},
	{TierChain, true, func(s *synth, t *tokens) []string {
		return chainCandidates(s.nearestAnchor(t.node), t)
	}},
	{TierSelf, true, func(_ *synth, t *tokens) []string {
		return selfCandidates(t)
	}},
	{TierNth, true, func(_ *synth, t *tokens) []string {
		return nthCandidates(t)
	}},
	{TierScoped, true, func(s *synth, t *tokens) []string {
		return s.scopedCandidates(t)
	}},
	{TierText, false, func(s *synth, t *tokens) []string {
		if txt := TrimmedText(t.node, s.opts.MaxTextLength); txt != "" {
			return []string{dom.TextQuote(txt)}
		}
		return nil
	}},
	{TierFallback, false, func(s *synth, t *tokens) []string {
		return []string{fallback(t, s.opts.MaxLength)}
	}},
}

var secondaryLadder = []strategy{
	{TierChain, true, func(s *synth, t *tokens) []string {
		return chainCandidates(s.nearestAnchor(t.node), t)
	}},
	{TierWideChain, true, func(s *synth, t *tokens) []string {
		return chainCandidates(s.widerAnchor(t.node), t)
	}},
	{TierScoped, true, func(s *synth, t *tokens) []string {
		return s.scopedCandidates(t)
	}},
	{TierAnchoredText, false, func(s *synth, t *tokens) []string {
		a := s.nearestAnchor(t.node)
		if a == nil {
			return nil
		}
		if txt := TrimmedText(t.node, s.opts.MaxTextLength); txt != "" {
			return []string{a.Selector + dom.ChainSeparator + dom.TextQuote(txt)}
		}
		return nil
	}},
	{TierText, false, func(s *synth, t *tokens) []string {
		if txt := TrimmedText(t.node, s.opts.MaxTextLength); txt != "" {
			return []string{dom.TextQuote(txt)}
		}
		return nil
	}},
}

// fallback is the terminal best-effort selector: tag plus its best class,
// or tag plus its structural index. It is always well-formed, not
// necessarily unique.
func fallback(t *tokens, maxLen int) string {
	if len(t.classes) > 0 {
		sel := t.tag + "." + dom.Escape(t.classes[0])
		if utf8.RuneCountInString(sel) <= maxLen {
			return sel
		}
	}
	return t.tag + t.nth
}

// run walks a ladder and returns the first selector a tier yields.
func (s *synth) run(ladder []strategy, t *tokens) (string, Tier, bool) {
	for _, st := range ladder {
		cands := st.candidates(s, t)
		if !st.verified {
			if len(cands) > 0 && cands[0] != "" {
				return cands[0], st.tier, true
			}
			continue
		}
		for _, sel := range cands {
			if s.unique(sel, t.node) {
				return sel, st.tier, true
			}
		}
	}
	return "", "", false
}

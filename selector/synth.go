// CLAUDE:SUMMARY Entry point: primary and secondary selector synthesis for one element.
package selector

import (
	"fmt"
	"unicode/utf8"

	"golang.org/x/net/html"

	"github.com/hazyhaar/domsynth/dom"
)

// Result is a pair of independently derived selectors for one element.
// Selectors from unverified tiers (see Tier.Verified) are best effort and
// may match more than one element; callers needing certainty re-check
// them with dom.Document.Locate.
type Result struct {
	Primary       string `json:"primary"`
	Secondary     string `json:"secondary"`
	PrimaryTier   Tier   `json:"primary_tier"`
	SecondaryTier Tier   `json:"secondary_tier"`
}

// Anchors returns the anchor fragments of both selectors, deduplicated.
// Feeding them back as blocked tokens forces later calls onto other
// anchors.
func (r Result) Anchors() []string {
	seen := make(map[string]bool)
	var out []string
	for _, sel := range []string{r.Primary, r.Secondary} {
		for _, f := range AnchorFragments(sel) {
			if !seen[f] {
				seen[f] = true
				out = append(out, f)
			}
		}
	}
	return out
}

// synth holds the state of one synthesis call. Nothing survives the call.
type synth struct {
	doc     *dom.Document
	blocked Blocked
	opts    Options
	cache   map[*html.Node]*tokens

	nearest     *Anchor
	nearestDone bool

	queries int
}

// unique asks the oracle, after enforcing the length cap.
func (s *synth) unique(sel string, target *html.Node) bool {
	if sel == "" || utf8.RuneCountInString(sel) > s.opts.MaxLength {
		return false
	}
	s.queries++
	return s.doc.IsUnique(sel, nil, target)
}

// Synthesize derives the primary and secondary selectors of target.
// Fragments in blocked are never used.
func Synthesize(doc *dom.Document, target *html.Node, blocked Blocked, opts Options) (Result, error) {
	opts.defaults()
	if err := checkTarget(doc, target); err != nil {
		return Result{}, err
	}

	s := &synth{
		doc:     doc,
		blocked: blocked,
		opts:    opts,
		cache:   make(map[*html.Node]*tokens),
	}
	t := s.tokensOf(target)

	var res Result
	res.Primary, res.PrimaryTier, _ = s.run(primaryLadder, t)

	sec, tier, ok := s.run(secondaryLadder, t)
	if !ok {
		sec, tier = res.Primary, res.PrimaryTier
	}
	res.Secondary, res.SecondaryTier = sec, tier

	opts.Logger.Debug("selector: synthesized",
		"tag", t.tag,
		"primary", res.Primary, "primary_tier", res.PrimaryTier,
		"secondary", res.Secondary, "secondary_tier", res.SecondaryTier,
		"queries", s.queries)

	return res, nil
}

func checkTarget(doc *dom.Document, target *html.Node) error {
	if doc == nil || target == nil || target.Type != html.ElementNode {
		return fmt.Errorf("%w: not an element", ErrUnsupportedTarget)
	}
	if !doc.Contains(target) {
		return fmt.Errorf("%w: detached node", ErrUnsupportedTarget)
	}
	if tag := dom.Tag(target); dom.IsRootTag(tag) {
		return fmt.Errorf("%w: <%s>", ErrUnsupportedTarget, tag)
	}
	if doc.IsOwnUI(target) {
		return fmt.Errorf("%w: tool UI element", ErrUnsupportedTarget)
	}
	return nil
}

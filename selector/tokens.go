// CLAUDE:SUMMARY Token extractors: stable classes (filtered + scored), stable attributes, trimmed text, nth-of-type.
package selector

import (
	"regexp"
	"slices"
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"github.com/hazyhaar/domsynth/dom"
)

var (
	// Generated or scoped-style prefixes (css-in-js, angular, styled).
	generatedClass = regexp.MustCompile(`^(?:ng-|jsx-|css-|style-|_)`)

	// Utility-framework families: layout, spacing, colour, motion.
	utilityClass = regexp.MustCompile(`^(?:flex|grid|block|inline|hidden|visible|container|h-|w-|min-|max-|p-|m-|mx-|my-|px-|py-|pl-|pr-|pt-|pb-|space-|rounded|shadow|text-|font-|leading|tracking|bg-|border|opacity|z-|ring|outline|overflow|transition|duration-|ease-|animate-)`)

	// Stateful words as whole tokens or dash/underscore separated parts.
	stateClass = regexp.MustCompile(`(?:^|[-_])(?:hover|active|focus|selected|pressed|expanded|collapsed|open|closed|visible|hidden|loading|busy|error|success|disabled|enabled|current|prev|next)(?:$|[-_])`)

	stateFlagClass = regexp.MustCompile(`^(?:is|has)-`)

	// BEM state modifiers.
	stateModifierClass = regexp.MustCompile(`--(?:hover|active|focus|selected|pressed|expanded|collapsed|open|closed|visible|hidden|loading|busy|error|success)`)

	digit = regexp.MustCompile(`\d`)
)

// priorityAttributes are tried first, in this order.
var priorityAttributes = []string{
	"data-testid",
	"data-test",
	"data-cy",
	"data-qa",
	"data-automation",
	"data-name",
	"role",
	"aria-label",
}

// customDataLimit is how many extra data-* attributes are considered.
const customDataLimit = 2

// ClassScore ranks a class by how semantic it looks: +2 when hyphenated,
// +1 when free of digits, +1 when not a BEM modifier. Higher sorts first.
func ClassScore(c string) int {
	s := 0
	if strings.Contains(c, "-") {
		s += 2
	}
	if !digit.MatchString(c) {
		s++
	}
	if !strings.Contains(c, "--") {
		s++
	}
	return s
}

// isStableClass applies the exclusion filters, blocked set aside.
func isStableClass(c string) bool {
	switch {
	case generatedClass.MatchString(c):
		return false
	case strings.ContainsAny(c, "[]:"):
		return false
	case utilityClass.MatchString(c):
		return false
	case stateClass.MatchString(c):
		return false
	case stateFlagClass.MatchString(c):
		return false
	case stateModifierClass.MatchString(c):
		return false
	}
	return true
}

// StableClasses returns up to max classes of n that survive the filters,
// best first. Ties keep source order.
func StableClasses(n *html.Node, blocked Blocked, max int) []string {
	var out []string
	for _, c := range dom.Classes(n) {
		if !isStableClass(c) {
			continue
		}
		if blocked.Has("."+c) || blocked.Has("."+dom.Escape(c)) {
			continue
		}
		out = append(out, c)
	}
	slices.SortStableFunc(out, func(a, b string) int {
		return ClassScore(b) - ClassScore(a)
	})
	if len(out) > max {
		out = out[:max]
	}
	return out
}

// AttributeFragment renders `[name="value"]` with the value escaped.
func AttributeFragment(name, value string) string {
	return `[` + name + `="` + dom.Escape(value) + `"]`
}

// StableAttributes returns up to max attribute fragments for n: the
// priority attributes first, then the first custom data-* attributes.
// Values are whitespace-normalised; empty or over-long values are skipped.
func StableAttributes(n *html.Node, blocked Blocked, maxValueLen, max int) []string {
	var out []string
	pick := func(name, value string) {
		v := dom.NormalizeText(value)
		if v == "" || len([]rune(v)) > maxValueLen {
			return
		}
		frag := AttributeFragment(name, v)
		if !blocked.Has(frag) {
			out = append(out, frag)
		}
	}

	for _, name := range priorityAttributes {
		if v, ok := dom.Attr(n, name); ok {
			pick(name, v)
		}
	}

	custom := 0
	for _, a := range n.Attr {
		if custom >= customDataLimit {
			break
		}
		if a.Namespace != "" || !strings.HasPrefix(a.Key, "data-") || slices.Contains(priorityAttributes, a.Key) {
			continue
		}
		custom++
		pick(a.Key, a.Val)
	}

	if len(out) > max {
		out = out[:max]
	}
	return out
}

// IDFragment returns `#id` for n, or "" when n has no id or it is blocked.
func IDFragment(n *html.Node, blocked Blocked) string {
	id := dom.ID(n)
	if id == "" {
		return ""
	}
	frag := "#" + dom.Escape(id)
	if blocked.Has("#"+id) || blocked.Has(frag) {
		return ""
	}
	return frag
}

// TrimmedText returns the normalised text of n when it is at most max
// characters long, "" otherwise.
func TrimmedText(n *html.Node, max int) string {
	t := dom.NormalizeText(dom.TextContent(n))
	if len([]rune(t)) > max {
		return ""
	}
	return t
}

// NthOfType returns `:nth-of-type(i)`, i being the 1-based position of n
// among its same-tag siblings, or "" when n has no parent element.
func NthOfType(n *html.Node) string {
	parent := dom.ParentElement(n)
	if parent == nil {
		return ""
	}
	tag := dom.Tag(n)
	idx := 0
	for _, c := range dom.Children(parent) {
		if dom.Tag(c) == tag {
			idx++
		}
		if c == n {
			return ":nth-of-type(" + strconv.Itoa(idx) + ")"
		}
	}
	return ""
}

// classChain renders `.a.b` for the given classes.
func classChain(classes []string) string {
	var b strings.Builder
	for _, c := range classes {
		b.WriteByte('.')
		b.WriteString(dom.Escape(c))
	}
	return b.String()
}

// tokens is everything the extractors know about one node.
type tokens struct {
	node    *html.Node
	tag     string
	id      string // `#id` fragment or ""
	classes []string
	attrs   []string
	nth     string
}

func (s *synth) tokensOf(n *html.Node) *tokens {
	if t, ok := s.cache[n]; ok {
		return t
	}
	t := &tokens{
		node:    n,
		tag:     dom.Tag(n),
		id:      IDFragment(n, s.blocked),
		classes: StableClasses(n, s.blocked, s.opts.MaxClasses),
		attrs:   StableAttributes(n, s.blocked, s.opts.MaxAttrValueLength, s.opts.MaxAttributes),
		nth:     NthOfType(n),
	}
	s.cache[n] = t
	return t
}

// pair is the tag-qualified and bare two-class combos, when available.
func (t *tokens) pair() (bare, tagged string, ok bool) {
	if len(t.classes) < 2 {
		return "", "", false
	}
	c := classChain(t.classes[:2])
	return c, t.tag + c, true
}

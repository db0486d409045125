package selector

import (
	"strings"
)

// Blocked is a set of selector fragments (`#id`, `.class`,
// `[data-x="v"]`) that must not be reused.
type Blocked map[string]struct{}

// NewBlocked builds a set from fragments. Blank entries are ignored.
func NewBlocked(fragments ...string) Blocked {
	b := make(Blocked, len(fragments))
	b.Add(fragments...)
	return b
}

// Add inserts fragments.
func (b Blocked) Add(fragments ...string) {
	for _, f := range fragments {
		if f = strings.TrimSpace(f); f != "" {
			b[f] = struct{}{}
		}
	}
}

// Has reports whether fragment is blocked. A nil set blocks nothing.
func (b Blocked) Has(fragment string) bool {
	if b == nil {
		return false
	}
	_, ok := b[fragment]
	return ok
}

// List returns the fragments in no particular order.
func (b Blocked) List() []string {
	out := make([]string, 0, len(b))
	for f := range b {
		out = append(out, f)
	}
	return out
}

// Fragments splits a selector into its single fragments: ids, classes and
// attribute selectors, in order of appearance. Tag names, pseudo-classes,
// combinators and text segments are skipped.
func Fragments(sel string) []string {
	var out []string
	i := 0
	for i < len(sel) {
		c := sel[i]
		switch {
		case c == '\\':
			i = escapeEnd(sel, i)
		case c == '"':
			i = skipQuoted(sel, i)
		case c == '#' || c == '.':
			j := identEnd(sel, i+1)
			if j > i+1 {
				out = append(out, sel[i:j])
			}
			i = j
		case c == '[':
			j := i + 1
			for j < len(sel) && sel[j] != ']' {
				if sel[j] == '"' {
					j = skipQuoted(sel, j)
					continue
				}
				j++
			}
			if j < len(sel) {
				j++
			}
			out = append(out, sel[i:j])
			i = j
		case c == '(':
			// :nth-of-type(3) and friends.
			for i < len(sel) && sel[i] != ')' {
				i++
			}
		default:
			i++
		}
	}
	return out
}

// AnchorFragments returns the fragments of the leading compound of sel,
// the part a later selector could reuse as its anchor.
func AnchorFragments(sel string) []string {
	head := sel
	if i := strings.Index(head, " >> "); i >= 0 {
		head = head[:i]
	}
	if strings.HasPrefix(head, "text=") {
		return nil
	}
	if i := compoundEnd(head); i >= 0 {
		head = head[:i]
	}
	return Fragments(head)
}

// compoundEnd finds the first top-level combinator (space or >).
func compoundEnd(sel string) int {
	for i := 0; i < len(sel); i++ {
		switch sel[i] {
		case '\\':
			i = escapeEnd(sel, i) - 1
		case '"':
			i = skipQuoted(sel, i) - 1
		case '[':
			for i < len(sel) && sel[i] != ']' {
				if sel[i] == '"' {
					i = skipQuoted(sel, i)
					continue
				}
				i++
			}
		case ' ', '>':
			return i
		}
	}
	return -1
}

func skipQuoted(s string, i int) int {
	j := i + 1
	for j < len(s) {
		switch s[j] {
		case '\\':
			j += 2
			continue
		case '"':
			return j + 1
		}
		j++
	}
	return len(s)
}

func identEnd(s string, i int) int {
	for i < len(s) {
		c := s[i]
		switch {
		case c == '\\':
			i = escapeEnd(s, i)
		case c == '-' || c == '_' || c >= 0x80 ||
			(c >= '0' && c <= '9') || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z'):
			i++
		default:
			return i
		}
	}
	return min(i, len(s))
}

// escapeEnd returns the index after the CSS escape starting at s[i]: a
// hex escape of up to six digits plus one optional space, or a single
// escaped character.
func escapeEnd(s string, i int) int {
	if i+1 < len(s) && isHex(s[i+1]) {
		i++
		for n := 0; n < 6 && i < len(s) && isHex(s[i]); n++ {
			i++
		}
		if i < len(s) && s[i] == ' ' {
			i++
		}
		return i
	}
	return min(i+2, len(s))
}

func isHex(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

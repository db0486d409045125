// CLAUDE:SUMMARY Uniqueness oracle: does a CSS selector resolve to exactly one given element (cascadia).
package dom

import (
	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
)

// IsUnique reports whether sel matches exactly one element and that element
// is target. With a non-nil scope only descendants of scope are considered,
// like Element.querySelectorAll; matching itself still sees the whole
// ancestor chain. Malformed selectors and matcher panics yield false.
func (d *Document) IsUnique(sel string, scope, target *html.Node) (unique bool) {
	if sel == "" || target == nil {
		return false
	}
	defer func() {
		if recover() != nil {
			unique = false
		}
	}()

	m, err := cascadia.Compile(sel)
	if err != nil {
		return false
	}

	root := scope
	if root == nil {
		root = d.Root
	}

	var found *html.Node
	count := 0
	var walk func(*html.Node) bool
	walk = func(n *html.Node) bool {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != html.ElementNode {
				continue
			}
			if m.Match(c) {
				count++
				if count > 1 {
					return false
				}
				found = c
			}
			if !walk(c) {
				return false
			}
		}
		return true
	}
	walk(root)

	return count == 1 && found == target
}

// Count returns how many elements sel matches in the whole document, or -1
// when sel does not compile.
func (d *Document) Count(sel string) (count int) {
	defer func() {
		if recover() != nil {
			count = -1
		}
	}()
	m, err := cascadia.Compile(sel)
	if err != nil {
		return -1
	}
	return len(m.MatchAll(d.Root))
}

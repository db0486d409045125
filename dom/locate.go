// CLAUDE:SUMMARY Resolves synthesized selectors (CSS, text="…", chained with >>) back to elements for replay.
package dom

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
)

// ChainSeparator joins selector segments that are resolved one inside the
// other, as in `#app >> text="Send"`.
const ChainSeparator = " >> "

// TextQuote renders the text engine segment for s.
func TextQuote(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`)
	return `text="` + r.Replace(s) + `"`
}

// Locate resolves sel to the elements it designates, in document order.
// Accepted forms are plain CSS, the text engine (text="literal", matching
// the innermost elements whose normalised text equals the literal), and
// segments of either joined by " >> ", each resolved inside the matches of
// the previous one.
func (d *Document) Locate(sel string) ([]*html.Node, error) {
	sel = strings.TrimSpace(sel)
	if sel == "" {
		return nil, fmt.Errorf("dom: locate: empty selector")
	}

	scopes := []*html.Node{d.Root}
	for _, seg := range splitChain(sel) {
		seg = strings.TrimSpace(seg)
		var next []*html.Node
		seen := make(map[*html.Node]bool)
		for _, scope := range scopes {
			found, err := d.locateSegment(scope, seg)
			if err != nil {
				return nil, err
			}
			for _, n := range found {
				if !seen[n] {
					seen[n] = true
					next = append(next, n)
				}
			}
		}
		scopes = next
		if len(scopes) == 0 {
			return nil, nil
		}
	}
	return scopes, nil
}

// splitChain cuts sel at each ChainSeparator outside a quoted string, so
// text="a >> b" and [title="x >> y"] stay whole.
func splitChain(sel string) []string {
	var out []string
	start := 0
	var quote byte
	for i := 0; i < len(sel); i++ {
		c := sel[i]
		switch {
		case quote != 0:
			if c == '\\' {
				i++
			} else if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
		case c == '\\':
			i++
		case strings.HasPrefix(sel[i:], ChainSeparator):
			out = append(out, sel[start:i])
			i += len(ChainSeparator) - 1
			start = i + 1
		}
	}
	return append(out, sel[start:])
}

// LocateOne resolves sel and requires exactly one match.
func (d *Document) LocateOne(sel string) (*html.Node, error) {
	nodes, err := d.Locate(sel)
	if err != nil {
		return nil, err
	}
	switch len(nodes) {
	case 0:
		return nil, fmt.Errorf("%w: %s", ErrNotFound, sel)
	case 1:
		return nodes[0], nil
	default:
		return nil, fmt.Errorf("dom: locate %s: %d matches", sel, len(nodes))
	}
}

func (d *Document) locateSegment(scope *html.Node, seg string) ([]*html.Node, error) {
	if lit, ok := textLiteral(seg); ok {
		return findText(scope, lit), nil
	}
	if _, err := cascadia.Compile(seg); err != nil {
		return nil, fmt.Errorf("dom: locate %q: %w", seg, err)
	}
	return goquery.NewDocumentFromNode(scope).Find(seg).Nodes, nil
}

// textLiteral extracts the literal of a text engine segment.
func textLiteral(seg string) (string, bool) {
	rest, ok := strings.CutPrefix(seg, "text=")
	if !ok {
		return "", false
	}
	if len(rest) >= 2 && rest[0] == '"' && rest[len(rest)-1] == '"' {
		if s, err := strconv.Unquote(rest); err == nil {
			return s, true
		}
		return rest[1 : len(rest)-1], true
	}
	return rest, true
}

// findText returns the innermost elements under scope whose normalised
// text content equals lit.
func findText(scope *html.Node, lit string) []*html.Node {
	lit = NormalizeText(lit)
	var out []*html.Node
	var walk func(*html.Node) bool
	walk = func(n *html.Node) bool {
		matchedBelow := false
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode && walk(c) {
				matchedBelow = true
			}
		}
		if n == scope || n.Type != html.ElementNode {
			return matchedBelow
		}
		if matchedBelow {
			return true
		}
		if NormalizeText(TextContent(n)) == lit {
			out = append(out, n)
			return true
		}
		return false
	}
	walk(scope)
	return out
}

// CLAUDE:SUMMARY Parsed DOM document with layout, own-UI detection and element helpers over x/net/html.
// Package dom wraps an x/net/html tree with the pieces both the selector
// synthesizer and the structure snapshotter need: element accessors, a
// layout source for visibility decisions, a uniqueness oracle and a
// resolver for the selectors the synthesizer emits.
//
// dom only reads the tree. Nothing in this package mutates nodes, except
// BoxLayout decoding which strips the capture attributes it consumed.
package dom

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// DefaultUIAttr marks elements injected by the automation tool itself.
// Elements carrying it with the value "true", and all their descendants,
// are never described or targeted.
const DefaultUIAttr = "data-browser-auto-ui"

// ErrNotFound is returned when a selector resolves to nothing.
var ErrNotFound = errors.New("dom: no matching element")

// Document is a parsed page.
type Document struct {
	// Root is the html.DocumentNode.
	Root *html.Node

	// Layout answers style and geometry questions. Default: InlineLayout.
	Layout Layout

	// UIAttr is the own-UI marker attribute. Default: DefaultUIAttr.
	UIAttr string
}

// Option configures a Document at parse time.
type Option func(*Document)

// WithLayout replaces the default InlineLayout.
func WithLayout(l Layout) Option {
	return func(d *Document) { d.Layout = l }
}

// WithUIAttr sets the own-UI marker attribute.
func WithUIAttr(attr string) Option {
	return func(d *Document) {
		if attr != "" {
			d.UIAttr = attr
		}
	}
}

// Parse reads an HTML document.
func Parse(r io.Reader, opts ...Option) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("dom: parse: %w", err)
	}
	return NewDocument(root, opts...), nil
}

// ParseString is Parse over a string.
func ParseString(s string, opts ...Option) (*Document, error) {
	return Parse(strings.NewReader(s), opts...)
}

// ParseBytes is Parse over a byte slice.
func ParseBytes(b []byte, opts ...Option) (*Document, error) {
	return Parse(bytes.NewReader(b), opts...)
}

// NewDocument wraps an already parsed tree.
func NewDocument(root *html.Node, opts ...Option) *Document {
	d := &Document{Root: root, UIAttr: DefaultUIAttr}
	for _, o := range opts {
		o(d)
	}
	if d.Layout == nil {
		d.Layout = NewInlineLayout()
	}
	return d
}

// DocumentElement returns the <html> element, or nil.
func (d *Document) DocumentElement() *html.Node {
	for c := d.Root.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			return c
		}
	}
	return nil
}

// Body returns <body>, falling back to the document element when the
// tree has none (fragments, frameset pages).
func (d *Document) Body() *html.Node {
	de := d.DocumentElement()
	if de == nil {
		return nil
	}
	for c := de.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.DataAtom == atom.Body {
			return c
		}
	}
	return de
}

// Contains reports whether n is attached to this document.
func (d *Document) Contains(n *html.Node) bool {
	for p := n; p != nil; p = p.Parent {
		if p == d.Root {
			return true
		}
	}
	return false
}

// IsOwnUI reports whether n or one of its ancestors is tool UI.
func (d *Document) IsOwnUI(n *html.Node) bool {
	for p := n; p != nil; p = p.Parent {
		if p.Type != html.ElementNode {
			continue
		}
		if v, ok := Attr(p, d.UIAttr); ok && v == "true" {
			return true
		}
	}
	return false
}

// Tag returns the lower-case tag name of an element, "" otherwise.
func Tag(n *html.Node) string {
	if n == nil || n.Type != html.ElementNode {
		return ""
	}
	return strings.ToLower(n.Data)
}

// IsRootTag reports whether tag is html or body. Those are never used as
// anchors or chain tokens.
func IsRootTag(tag string) bool {
	return tag == "html" || tag == "body"
}

// Attr looks up an attribute by name.
func Attr(n *html.Node, key string) (string, bool) {
	if n == nil {
		return "", false
	}
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// AttrValue returns the attribute value or "".
func AttrValue(n *html.Node, key string) string {
	v, _ := Attr(n, key)
	return v
}

// ID returns the id attribute.
func ID(n *html.Node) string {
	return AttrValue(n, "id")
}

// Classes returns the class list in source order.
func Classes(n *html.Node) []string {
	return strings.Fields(AttrValue(n, "class"))
}

// ParentElement returns the parent if it is an element.
func ParentElement(n *html.Node) *html.Node {
	if n == nil || n.Parent == nil || n.Parent.Type != html.ElementNode {
		return nil
	}
	return n.Parent
}

// Children returns the element children of n.
func Children(n *html.Node) []*html.Node {
	var out []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			out = append(out, c)
		}
	}
	return out
}

// TextContent concatenates all descendant text nodes, like the DOM
// textContent property.
func TextContent(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

// NormalizeText trims and collapses whitespace runs to single spaces.
func NormalizeText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

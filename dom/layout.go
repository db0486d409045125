// CLAUDE:SUMMARY Layout sources (inline-style approximation and captured boxes) and the visibility predicate.
package dom

import (
	"errors"
	"strconv"
	"strings"
	"sync"

	"github.com/aymerick/douceur/parser"
	"golang.org/x/net/html"
)

// ErrNoLayout is returned when a layout has nothing to say about a node,
// typically because it is detached or was not rendered at capture time.
var ErrNoLayout = errors.New("dom: no layout for node")

// Rect is a bounding client rectangle in CSS pixels.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Top is the top edge.
func (r Rect) Top() float64 { return r.Y }

// Bottom is the bottom edge.
func (r Rect) Bottom() float64 { return r.Y + r.Height }

// Style holds the computed properties that affect visibility.
type Style struct {
	Display    string `json:"display"`
	Visibility string `json:"visibility"`
}

// Layout answers style and geometry reads for element nodes. Reads may
// fail; callers treat a failed read as "not visible".
type Layout interface {
	Style(n *html.Node) (Style, error)
	Rect(n *html.Node) (Rect, error)
	// ViewportHeight is the window inner height. 0 means unbounded.
	ViewportHeight() float64
}

// Visible reports whether an element is rendered inside the viewport.
// Any layout failure counts as invisible.
func (d *Document) Visible(n *html.Node) bool {
	if n == nil || n.Type != html.ElementNode || !d.Contains(n) {
		return false
	}
	st, err := d.Layout.Style(n)
	if err != nil {
		return false
	}
	r, err := d.Layout.Rect(n)
	if err != nil {
		return false
	}
	if st.Display == "none" || st.Visibility == "hidden" {
		return false
	}
	if r.Width <= 0 || r.Height <= 0 {
		return false
	}
	if vh := d.Layout.ViewportHeight(); vh > 0 && r.Top() >= vh {
		return false
	}
	return r.Bottom() > 0
}

// --- inline layout ---

// uaHidden lists elements the user-agent stylesheet renders with
// display:none.
var uaHidden = map[string]bool{
	"head": true, "script": true, "style": true, "template": true,
	"title": true, "meta": true, "link": true, "base": true,
}

// InlineLayout approximates computed style for static HTML, where no
// rendering engine is available. It reads the inline style attribute, the
// hidden attribute and the user-agent display:none defaults. Geometry is
// nominal (1x1 at the origin) unless the inline style zeroes a dimension.
type InlineLayout struct{}

// NewInlineLayout returns the static layout.
func NewInlineLayout() *InlineLayout { return &InlineLayout{} }

// Style implements Layout.
func (InlineLayout) Style(n *html.Node) (Style, error) {
	if n == nil || n.Type != html.ElementNode {
		return Style{}, ErrNoLayout
	}
	st := Style{Display: "block", Visibility: "visible"}
	if uaHidden[Tag(n)] {
		st.Display = "none"
	}
	if _, ok := Attr(n, "hidden"); ok {
		st.Display = "none"
	}
	decls := inlineDeclarations(n)
	if v, ok := decls["display"]; ok {
		st.Display = v
	}
	if v, ok := decls["visibility"]; ok {
		st.Visibility = v
	}
	// visibility is inherited.
	if _, ok := decls["visibility"]; !ok {
		for p := ParentElement(n); p != nil; p = ParentElement(p) {
			if v, ok := inlineDeclarations(p)["visibility"]; ok {
				st.Visibility = v
				break
			}
		}
	}
	return st, nil
}

// Rect implements Layout.
func (InlineLayout) Rect(n *html.Node) (Rect, error) {
	if n == nil || n.Type != html.ElementNode {
		return Rect{}, ErrNoLayout
	}
	r := Rect{Width: 1, Height: 1}
	decls := inlineDeclarations(n)
	if zeroLength(decls["width"]) {
		r.Width = 0
	}
	if zeroLength(decls["height"]) {
		r.Height = 0
	}
	return r, nil
}

// ViewportHeight implements Layout. Static documents have no viewport.
func (InlineLayout) ViewportHeight() float64 { return 0 }

// inlineDeclarations parses the style attribute into lower-case
// property/value pairs. Unparseable styles are ignored.
func inlineDeclarations(n *html.Node) map[string]string {
	raw, ok := Attr(n, "style")
	if !ok || strings.TrimSpace(raw) == "" {
		return nil
	}
	decls, err := parser.ParseDeclarations(raw)
	if err != nil {
		return nil
	}
	out := make(map[string]string, len(decls))
	for _, d := range decls {
		out[strings.ToLower(strings.TrimSpace(d.Property))] = strings.ToLower(strings.TrimSpace(d.Value))
	}
	return out
}

func zeroLength(v string) bool {
	if v == "" {
		return false
	}
	v = strings.TrimSuffix(v, "px")
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	return err == nil && f == 0
}

// --- captured boxes ---

// Box is the captured layout of one element.
type Box struct {
	Rect  Rect
	Style Style
}

// BoxLayout serves layout recorded from a live browser.
type BoxLayout struct {
	mu       sync.RWMutex
	boxes    map[*html.Node]Box
	viewport float64
}

// NewBoxLayout creates an empty BoxLayout for a viewport of the given
// height (0 = unbounded).
func NewBoxLayout(viewportHeight float64) *BoxLayout {
	return &BoxLayout{boxes: make(map[*html.Node]Box), viewport: viewportHeight}
}

// Set records the box of n.
func (l *BoxLayout) Set(n *html.Node, b Box) {
	l.mu.Lock()
	l.boxes[n] = b
	l.mu.Unlock()
}

// Len is the number of recorded boxes.
func (l *BoxLayout) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.boxes)
}

// Style implements Layout.
func (l *BoxLayout) Style(n *html.Node) (Style, error) {
	l.mu.RLock()
	b, ok := l.boxes[n]
	l.mu.RUnlock()
	if !ok {
		return Style{}, ErrNoLayout
	}
	return b.Style, nil
}

// Rect implements Layout.
func (l *BoxLayout) Rect(n *html.Node) (Rect, error) {
	l.mu.RLock()
	b, ok := l.boxes[n]
	l.mu.RUnlock()
	if !ok {
		return Rect{}, ErrNoLayout
	}
	return b.Rect, nil
}

// ViewportHeight implements Layout.
func (l *BoxLayout) ViewportHeight() float64 { return l.viewport }

// DecodeBoxes moves box annotations written by a capture script into a
// BoxLayout. Each annotated element carries attr with the value
// "x,y,width,height,display,visibility"; the attribute is removed from the
// node once decoded. Malformed annotations leave the node without a box.
func DecodeBoxes(root *html.Node, attr string, viewportHeight float64) *BoxLayout {
	l := NewBoxLayout(viewportHeight)
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			kept := n.Attr[:0]
			for _, a := range n.Attr {
				if a.Namespace == "" && a.Key == attr {
					if b, ok := parseBox(a.Val); ok {
						l.boxes[n] = b
					}
					continue
				}
				kept = append(kept, a)
			}
			n.Attr = kept
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return l
}

func parseBox(v string) (Box, bool) {
	parts := strings.Split(v, ",")
	if len(parts) != 6 {
		return Box{}, false
	}
	var nums [4]float64
	for i := 0; i < 4; i++ {
		f, err := strconv.ParseFloat(strings.TrimSpace(parts[i]), 64)
		if err != nil {
			return Box{}, false
		}
		nums[i] = f
	}
	return Box{
		Rect:  Rect{X: nums[0], Y: nums[1], Width: nums[2], Height: nums[3]},
		Style: Style{Display: strings.TrimSpace(parts[4]), Visibility: strings.TrimSpace(parts[5])},
	}, true
}

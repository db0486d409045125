package dom

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var blockTags = map[atom.Atom]bool{
	atom.Address: true, atom.Article: true, atom.Aside: true, atom.Blockquote: true,
	atom.Dd: true, atom.Div: true, atom.Dl: true, atom.Dt: true, atom.Fieldset: true,
	atom.Figcaption: true, atom.Figure: true, atom.Footer: true, atom.Form: true,
	atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true,
	atom.Header: true, atom.Hr: true, atom.Li: true, atom.Main: true, atom.Nav: true,
	atom.Ol: true, atom.P: true, atom.Pre: true, atom.Section: true, atom.Table: true,
	atom.Tr: true, atom.Ul: true,
}

// InnerText approximates HTMLElement.innerText: text of rendered
// descendants only, block boundaries turned into line breaks, each line
// whitespace-collapsed. An invisible n yields "".
func (d *Document) InnerText(n *html.Node) string {
	if !d.Visible(n) {
		return ""
	}
	var lines []string
	var cur strings.Builder
	flush := func() {
		if s := NormalizeText(cur.String()); s != "" {
			lines = append(lines, s)
		}
		cur.Reset()
	}
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			cur.WriteString(n.Data)
			return
		case html.ElementNode:
			if n.DataAtom == atom.Br {
				flush()
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode && !d.Visible(c) {
				continue
			}
			block := c.Type == html.ElementNode && blockTags[c.DataAtom]
			if block {
				flush()
			}
			walk(c)
			if block {
				flush()
			}
		}
	}
	walk(n)
	flush()
	return strings.Join(lines, "\n")
}

// FormValue returns the current value of a form control the way the DOM
// value property reports it for static markup, and false for elements
// without a string value.
func FormValue(n *html.Node) (string, bool) {
	if n == nil || n.Type != html.ElementNode {
		return "", false
	}
	switch n.DataAtom {
	case atom.Input, atom.Button, atom.Option, atom.Data, atom.Param, atom.Output:
		if n.DataAtom == atom.Option {
			if v, ok := Attr(n, "value"); ok {
				return v, true
			}
			return NormalizeText(TextContent(n)), true
		}
		return AttrValue(n, "value"), true
	case atom.Textarea:
		return TextContent(n), true
	case atom.Select:
		var first, selected *html.Node
		var walk func(*html.Node)
		walk = func(n *html.Node) {
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				if c.Type != html.ElementNode {
					continue
				}
				if c.DataAtom == atom.Option {
					if first == nil {
						first = c
					}
					if _, ok := Attr(c, "selected"); ok && selected == nil {
						selected = c
					}
					continue
				}
				walk(c)
			}
		}
		walk(n)
		if selected == nil {
			selected = first
		}
		if selected == nil {
			return "", true
		}
		return FormValue(selected)
	}
	return "", false
}

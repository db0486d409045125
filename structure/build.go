package structure

import (
	"golang.org/x/net/html"

	"github.com/hazyhaar/domsynth/dom"
)

// builder produces filtered trees of one subtree.
type builder struct {
	doc  *dom.Document
	keys []string
	skip map[string]bool

	// truncated is set when the last tree cut off element children at
	// its depth bound.
	truncated bool
}

func newBuilder(doc *dom.Document, opts Options) *builder {
	skip := make(map[string]bool, len(opts.SkipTags))
	for _, t := range opts.SkipTags {
		skip[t] = true
	}
	return &builder{doc: doc, keys: opts.AttributeKeys, skip: skip}
}

// tree builds the snapshot of root limited to maxDepth levels (the root
// being level 1). The root is returned even when it carries nothing but
// its tag; nil means the root itself is excluded.
func (b *builder) tree(root *html.Node, maxDepth int) *Node {
	b.truncated = false
	n, ok := b.node(root, maxDepth, 1)
	if !ok {
		return nil
	}
	return &n
}

// node describes n, or reports false when n is tool UI, not visible,
// or a skipped tag.
func (b *builder) node(n *html.Node, maxDepth, depth int) (Node, bool) {
	if n.Type != html.ElementNode || b.doc.IsOwnUI(n) || !b.doc.Visible(n) {
		return Node{}, false
	}
	tag := dom.Tag(n)
	if tag == "" || b.skip[tag] {
		return Node{}, false
	}

	out := Node{Tag: tag, Attributes: b.attributes(n)}
	if depth < maxDepth {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			child, ok := b.node(c, maxDepth, depth+1)
			if ok && child.informative() {
				out.Children = append(out.Children, child)
			}
		}
	} else if hasElementChild(n) {
		b.truncated = true
	}
	return out, true
}

// attributes collects the configured keys in order. Empty values are
// dropped.
func (b *builder) attributes(n *html.Node) Attributes {
	var out Attributes
	add := func(key, val string) {
		if val != "" {
			out = append(out, Attr{Key: key, Value: val})
		}
	}
	for _, key := range b.keys {
		switch key {
		case "id":
			add(key, dom.ID(n))
		case "class":
			add(key, dom.AttrValue(n, "class"))
		case "name", "role", "tabindex", "placeholder":
			add(key, dom.AttrValue(n, key))
		case "innerText":
			add(key, b.doc.InnerText(n))
		case "value":
			if v, ok := dom.FormValue(n); ok {
				add(key, v)
			}
		default:
			add(key, dom.AttrValue(n, key))
		}
	}
	return out
}

func hasElementChild(n *html.Node) bool {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			return true
		}
	}
	return false
}

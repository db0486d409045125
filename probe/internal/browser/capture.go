// CLAUDE:SUMMARY In-page capture script stamping layout boxes into the DOM, and its Go-side decoder.
package browser

import (
	"fmt"

	"github.com/hazyhaar/domsynth/dom"
)

// BoxAttr carries "x,y,width,height,display,visibility" on each element of
// a captured page. dom.DecodeBoxes strips it again.
const BoxAttr = "data-domsynth-box"

// captureScript stamps every element with its box, serialises the
// document, then removes the stamps so the live page is left as found.
const captureScript = `(attr) => {
	const els = document.documentElement.querySelectorAll('*');
	const all = [document.documentElement, ...els];
	for (const el of all) {
		const r = el.getBoundingClientRect();
		const cs = getComputedStyle(el);
		el.setAttribute(attr, [r.x, r.y, r.width, r.height, cs.display, cs.visibility].join(','));
	}
	const html = document.documentElement.outerHTML;
	for (const el of all) el.removeAttribute(attr);
	return {html: html, vh: window.innerHeight, url: location.href};
}`

// Capture is a rendered page snapshot.
type Capture struct {
	URL            string
	HTML           string
	ViewportHeight float64
}

// Document parses the capture into a dom.Document backed by the recorded
// boxes. Elements without a box are treated as invisible.
func (c *Capture) Document(opts ...dom.Option) (*dom.Document, error) {
	doc, err := dom.ParseString(c.HTML, opts...)
	if err != nil {
		return nil, fmt.Errorf("browser: parse capture: %w", err)
	}
	doc.Layout = dom.DecodeBoxes(doc.Root, BoxAttr, c.ViewportHeight)
	return doc, nil
}

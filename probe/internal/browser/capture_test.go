package browser

import (
	"strings"
	"testing"

	"github.com/hazyhaar/domsynth/dom"
)

func TestCaptureDocument(t *testing.T) {
	c := &Capture{
		URL:            "https://example.com/",
		ViewportHeight: 800,
		HTML: `<html data-domsynth-box="0,0,1024,900,block,visible"><head data-domsynth-box="0,0,0,0,none,visible"></head>` +
			`<body data-domsynth-box="0,0,1024,900,block,visible">` +
			`<div id="shown" data-domsynth-box="0,10,100,20,block,visible">a</div>` +
			`<div id="flat" data-domsynth-box="0,40,100,0,block,visible">b</div>` +
			`<div id="below" data-domsynth-box="0,850,100,20,block,visible">c</div>` +
			`<div id="nobox">d</div>` +
			`</body></html>`,
	}
	doc, err := c.Document()
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(renderAttrs(doc), BoxAttr) {
		t.Fatalf("box attribute left in document")
	}

	cases := map[string]bool{
		"#shown": true,
		"#flat":  false,
		"#below": false,
		"#nobox": false,
	}
	for sel, want := range cases {
		n, err := doc.LocateOne(sel)
		if err != nil {
			t.Fatalf("%s: %v", sel, err)
		}
		if got := doc.Visible(n); got != want {
			t.Errorf("Visible(%s) = %v, want %v", sel, got, want)
		}
	}
}

func TestIsBlocked(t *testing.T) {
	blocked := map[string]bool{"images": true, "fonts": true}
	cases := []struct {
		typ  string
		want bool
	}{
		{"Image", true},
		{"Font", true},
		{"Stylesheet", false},
		{"Document", false},
	}
	for _, c := range cases {
		if got := isBlocked(blocked, c.typ); got != c.want {
			t.Errorf("isBlocked(%q) = %v, want %v", c.typ, got, c.want)
		}
	}
}

func renderAttrs(doc *dom.Document) string {
	var b strings.Builder
	for _, sel := range []string{"html", "body", "div"} {
		nodes, _ := doc.Locate(sel)
		for _, n := range nodes {
			for _, a := range n.Attr {
				b.WriteString(a.Key)
				b.WriteByte(' ')
			}
		}
	}
	return b.String()
}

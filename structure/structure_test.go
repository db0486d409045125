package structure

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/net/html"

	"github.com/hazyhaar/domsynth/dom"
)

func parse(t *testing.T, s string) *dom.Document {
	t.Helper()
	d, err := dom.ParseString(s)
	if err != nil {
		t.Fatal(err)
	}
	return d
}

func find(t *testing.T, d *dom.Document, sel string) *html.Node {
	t.Helper()
	n, err := d.LocateOne(sel)
	if err != nil {
		t.Fatalf("LocateOne(%q): %v", sel, err)
	}
	return n
}

// synthetic returns a build func reporting the given length per depth.
func synthetic(lengths map[int]int, calls *[]int) func(int) (Result, bool) {
	return func(depth int) (Result, bool) {
		*calls = append(*calls, depth)
		return Result{Depth: depth, Length: lengths[depth]}, false
	}
}

func TestClosestByLimit(t *testing.T) {
	cases := []struct {
		name    string
		limit   int
		lengths map[int]int
		max     int
		want    int
		calls   int
	}{
		{"overshoot closer", 100, map[int]int{2: 90, 3: 104}, 20, 3, 2},
		{"undershoot closer", 100, map[int]int{2: 95, 3: 120}, 20, 2, 2},
		{"tie keeps shallower", 100, map[int]int{2: 90, 3: 110}, 20, 2, 2},
		{"empty stops", 100, map[int]int{2: 0, 3: 50}, 20, 2, 1},
		{"first over limit", 100, map[int]int{2: 150, 3: 300}, 20, 2, 1},
		{"ceiling", 100, map[int]int{2: 10, 3: 20, 4: 30, 5: 40}, 5, 5, 4},
		{"exact fit beats overshoot", 100, map[int]int{2: 100, 3: 101}, 20, 2, 2},
	}
	for _, c := range cases {
		var calls []int
		got := closestByLimit(c.limit, 2, c.max, synthetic(c.lengths, &calls))
		if got.Depth != c.want {
			t.Errorf("%s: depth = %d, want %d", c.name, got.Depth, c.want)
		}
		if len(calls) != c.calls {
			t.Errorf("%s: %d builds (%v), want %d", c.name, len(calls), calls, c.calls)
		}
	}
}

func TestClosestByLimit_Exhausted(t *testing.T) {
	var calls []int
	got := closestByLimit(100, 2, 20, func(depth int) (Result, bool) {
		calls = append(calls, depth)
		return Result{Depth: depth, Length: 10 * depth}, depth == 3
	})
	if got.Depth != 20 || len(calls) != 2 {
		t.Errorf("depth = %d after %v, want ceiling 20 after two builds", got.Depth, calls)
	}
	if got.Length != 30 {
		t.Errorf("length = %d, want 30 from the last build", got.Length)
	}
}

func TestRecognize_FitsReportsCeiling(t *testing.T) {
	d := parse(t, `<html><body><div id="a"><p id="b">x</p></div></body></html>`)
	res := Recognize(d, nil, Options{Limit: 5000})
	if res.Depth != DefaultMaxDepth {
		t.Errorf("depth = %d, want %d", res.Depth, DefaultMaxDepth)
	}
	want := `{"tag":"body","children":[{"tag":"div","attributes":{"id":"a"},"children":[{"tag":"p","attributes":{"id":"b"}}]}]}`
	if res.Serialized != want {
		t.Errorf("serialized:\n got %s\nwant %s", res.Serialized, want)
	}

	res = Recognize(d, nil, Options{Limit: 5000, MaxDepth: 7})
	if res.Depth != 7 {
		t.Errorf("depth = %d, want ceiling 7", res.Depth)
	}
}

func listPage(n int) string {
	var b strings.Builder
	b.WriteString(`<html><body><div id="wrap"><ul id="list">`)
	for i := 1; i <= n; i++ {
		fmt.Fprintf(&b, `<li class="item-%d"><span>x</span></li>`, i)
	}
	b.WriteString(`</ul></div></body></html>`)
	return b.String()
}

func TestRecognize_DepthSelection(t *testing.T) {
	// Serialised lengths with the default keys: depth 2 = 68, depth 3 = 121,
	// depth 4 = 1045 (spans carry nothing and are dropped).
	d := parse(t, listPage(20))

	cases := []struct {
		limit int
		depth int
	}{
		{126, 3},   // 5 under vs 919 over
		{1040, 4},  // 5 over vs 919 under
		{100, 3},   // 21 over vs 32 under
		{90, 2},    // 31 over vs 22 under
		{50, 2},    // depth 2 already over
		{5000, 20}, // everything fits: the ceiling
	}
	for _, c := range cases {
		res := Recognize(d, nil, Options{Limit: c.limit})
		if res.Depth != c.depth {
			t.Errorf("limit %d: depth = %d (length %d), want %d", c.limit, res.Depth, res.Length, c.depth)
		}
	}

	res := Recognize(d, nil, Options{Limit: 126})
	want := `{"tag":"body","children":[{"tag":"div","attributes":{"id":"wrap"},"children":[{"tag":"ul","attributes":{"id":"list"}}]}]}`
	if res.Serialized != want {
		t.Errorf("serialized:\n got %s\nwant %s", res.Serialized, want)
	}
	if res.Length != 121 {
		t.Errorf("length = %d, want 121", res.Length)
	}
}

func TestRecognize_Filters(t *testing.T) {
	d := parse(t, `<html><body>
<div id="app" class="shell">
  <header><h1 class="title">Hi</h1></header>
  <form id="login"><input name="user" placeholder="User"></form>
  <script>var x;</script><style>.a{}</style><img id="logo" src="x.png">
  <svg id="icon"><g id="g"></g></svg>
  <div id="gone" style="display:none"><span id="inner">x</span></div>
  <div><span>no attributes anywhere</span></div>
  <div data-browser-auto-ui="true" id="ui"><p id="uip">ui</p></div>
</div></body></html>`)

	res := Recognize(d, nil, Options{})
	want := `{"tag":"body","children":[{"tag":"div","attributes":{"id":"app","class":"shell"},"children":[` +
		`{"tag":"header","children":[{"tag":"h1","attributes":{"class":"title"}}]},` +
		`{"tag":"form","attributes":{"id":"login"},"children":[{"tag":"input","attributes":{"placeholder":"User"}}]}]}]}`
	if res.Serialized != want {
		t.Errorf("serialized:\n got %s\nwant %s", res.Serialized, want)
	}
	if res.Depth != DefaultMaxDepth {
		t.Errorf("depth = %d, want %d", res.Depth, DefaultMaxDepth)
	}
	if res.Tree.Count() != 6 {
		t.Errorf("nodes = %d, want 6", res.Tree.Count())
	}
}

func TestRecognize_BoxLayout(t *testing.T) {
	d := parse(t, `<html><body><div id="a">x</div><div id="b">y</div><div id="c">z</div><div id="d">w</div></body></html>`)
	visible := dom.Style{Display: "block", Visibility: "visible"}
	l := dom.NewBoxLayout(800)
	l.Set(d.Body(), dom.Box{Rect: dom.Rect{Width: 100, Height: 100}, Style: visible})
	l.Set(find(t, d, "#a"), dom.Box{Rect: dom.Rect{Width: 10, Height: 10}, Style: visible})
	l.Set(find(t, d, "#b"), dom.Box{Rect: dom.Rect{Width: 0, Height: 10}, Style: visible})
	l.Set(find(t, d, "#d"), dom.Box{Rect: dom.Rect{Y: 900, Width: 10, Height: 10}, Style: visible})
	d.Layout = l

	res := Recognize(d, nil, Options{})
	want := `{"tag":"body","children":[{"tag":"div","attributes":{"id":"a"}}]}`
	if res.Serialized != want {
		t.Errorf("serialized = %s, want %s", res.Serialized, want)
	}

	// Nothing rendered at all: the root itself is excluded.
	d.Layout = dom.NewBoxLayout(800)
	res = Recognize(d, nil, Options{})
	if res.Tree != nil || res.Serialized != "" || res.Length != 0 || res.Depth != DefaultStartDepth {
		t.Errorf("empty layout: %+v", res)
	}
}

func findTag(n *Node, tag string) *Node {
	if n == nil {
		return nil
	}
	if n.Tag == tag {
		return n
	}
	for i := range n.Children {
		if f := findTag(&n.Children[i], tag); f != nil {
			return f
		}
	}
	return nil
}

func TestRecognize_AttributeKeys(t *testing.T) {
	d := parse(t, `<html><body><div id="f">
<label role="note" tabindex="0">Name <b>bold</b></label>
<input id="n" name="who" value="Bob">
<select id="s"><option>One</option><option selected>Two</option></select>
<p data-x="7">para</p>
</div></body></html>`)

	keys := []string{"role", "innerText", "value", "data-x", "name", "tabindex"}
	res := Recognize(d, find(t, d, "#f"), Options{AttributeKeys: keys})

	checks := []struct {
		tag, key, want string
	}{
		{"label", "role", "note"},
		{"label", "innerText", "Name bold"},
		{"label", "tabindex", "0"},
		{"input", "value", "Bob"},
		{"input", "name", "who"},
		{"select", "value", "Two"},
		{"p", "data-x", "7"},
		{"p", "innerText", "para"},
	}
	for _, c := range checks {
		n := findTag(res.Tree, c.tag)
		if n == nil {
			t.Errorf("<%s> missing from %s", c.tag, res.Serialized)
			continue
		}
		if got, _ := n.Attributes.Get(c.key); got != c.want {
			t.Errorf("<%s> %s = %q, want %q", c.tag, c.key, got, c.want)
		}
	}

	label := findTag(res.Tree, "label")
	var order []string
	for _, a := range label.Attributes {
		order = append(order, a.Key)
	}
	if diff := cmp.Diff([]string{"role", "innerText", "tabindex"}, order); diff != "" {
		t.Errorf("label attribute order (-want +got):\n%s", diff)
	}
	if _, ok := findTag(res.Tree, "input").Attributes.Get("innerText"); ok {
		t.Error("empty innerText kept on <input>")
	}
}

func TestRecognize_Root(t *testing.T) {
	d := parse(t, `<html><body><div id="a"><p id="b">x</p></div>
<div data-browser-auto-ui="true"><p id="ui">x</p></div></body></html>`)

	body := Recognize(d, nil, Options{})
	fromUI := Recognize(d, find(t, d, "#ui"), Options{})
	if diff := cmp.Diff(body, fromUI); diff != "" {
		t.Errorf("own UI root not replaced by body (-body +ui):\n%s", diff)
	}

	sub := Recognize(d, find(t, d, "#a"), Options{})
	want := `{"tag":"div","attributes":{"id":"a"},"children":[{"tag":"p","attributes":{"id":"b"}}]}`
	if sub.Serialized != want {
		t.Errorf("subtree = %s, want %s", sub.Serialized, want)
	}

	// A bare root is still described.
	bare := Recognize(parse(t, `<html><body><section></section></body></html>`), nil, Options{})
	if bare.Serialized != `{"tag":"body"}` {
		t.Errorf("bare body = %s", bare.Serialized)
	}

	if res := Recognize(nil, nil, Options{}); res.Tree != nil || res.Depth != DefaultStartDepth {
		t.Errorf("nil document: %+v", res)
	}
}

func TestRecognize_Idempotent(t *testing.T) {
	d := parse(t, listPage(30))
	for _, limit := range []int{50, 200, 5000} {
		a := Recognize(d, nil, Options{Limit: limit})
		b := Recognize(d, nil, Options{Limit: limit})
		if diff := cmp.Diff(a, b); diff != "" {
			t.Errorf("limit %d (-first +second):\n%s", limit, diff)
		}
	}
}

func TestRecognize_MaxDepth(t *testing.T) {
	d := parse(t, listPage(3))
	res := Recognize(d, nil, Options{MaxDepth: 3})
	if res.Depth != 3 {
		t.Errorf("depth = %d, want ceiling 3", res.Depth)
	}
	if findTag(res.Tree, "li") != nil {
		t.Error("li beyond ceiling")
	}

	res = Recognize(d, nil, Options{StartDepth: 4, MaxDepth: 1})
	if res.Depth != 4 {
		t.Errorf("depth = %d, want 4 (ceiling raised to start)", res.Depth)
	}
}

func TestSerialize(t *testing.T) {
	tree := &Node{
		Tag:        "p",
		Attributes: Attributes{{Key: "placeholder", Value: "a<b & c"}, {Key: "id", Value: "x"}},
	}
	got, err := Serialize(tree)
	if err != nil {
		t.Fatal(err)
	}
	want := `{"tag":"p","attributes":{"placeholder":"a<b & c","id":"x"}}`
	if got != want {
		t.Errorf("Serialize = %s, want %s", got, want)
	}

	var back Node
	if err := json.Unmarshal([]byte(got), &back); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(*tree, back); diff != "" {
		t.Errorf("round trip (-want +got):\n%s", diff)
	}

	if s, err := Serialize(nil); err != nil || s != "" {
		t.Errorf("Serialize(nil) = %q, %v", s, err)
	}
	var a Attributes
	if err := json.Unmarshal([]byte(`["x"]`), &a); err == nil {
		t.Error("expected error for non-object attributes")
	}
}

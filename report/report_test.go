package report

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/hazyhaar/domsynth/selector"
	"github.com/hazyhaar/domsynth/structure"
)

func TestNewSelection(t *testing.T) {
	res := selector.Result{
		Primary:       `[data-testid="go"]`,
		Secondary:     `#app > [data-testid="go"]`,
		PrimaryTier:   selector.TierAttribute,
		SecondaryTier: selector.TierChain,
	}
	s := NewSelection("id1", "https://example.com", "abc", "button", res, 42)
	if !s.Verified {
		t.Error("two oracle-checked tiers should be verified")
	}
	if diff := cmp.Diff([]string{`[data-testid="go"]`, "#app"}, s.Anchors); diff != "" {
		t.Errorf("anchors (-want +got):\n%s", diff)
	}

	res.SecondaryTier = selector.TierAnchoredText
	res.Secondary = `#app >> text="Go"`
	if NewSelection("id2", "", "abc", "button", res, 42).Verified {
		t.Error("text tier reported as verified")
	}
}

func TestDecode(t *testing.T) {
	sel := NewSelection("s1", "", "h", "#x", selector.Result{Primary: "#x", Secondary: "#x", PrimaryTier: selector.TierID, SecondaryTier: selector.TierID}, 1)
	data, err := MarshalSelection(&sel)
	if err != nil {
		t.Fatal(err)
	}
	line, _ := json.Marshal(Envelope{Type: KindSelection, Data: data})
	v, err := Decode(line)
	if err != nil {
		t.Fatal(err)
	}
	got, ok := v.(*Selection)
	if !ok {
		t.Fatalf("Decode returned %T", v)
	}
	if diff := cmp.Diff(sel, *got); diff != "" {
		t.Errorf("selection (-want +got):\n%s", diff)
	}

	tree := &structure.Node{Tag: "body", Attributes: structure.Attributes{{Key: "id", Value: "b"}}}
	out := NewOutline("o1", "", "h", "", 5000, structure.Result{Depth: 2, Length: 39, Serialized: `{"tag":"body","attributes":{"id":"b"}}`, Tree: tree}, 1)
	data, err = MarshalOutline(&out)
	if err != nil {
		t.Fatal(err)
	}
	line, _ = json.Marshal(Envelope{Type: KindOutline, Data: data})
	v, err = Decode(line)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(&out, v); diff != "" {
		t.Errorf("outline (-want +got):\n%s", diff)
	}

	for _, bad := range []string{`{"type":"nope","data":{}}`, `not json`, `{"type":"outline","data":[1]}`} {
		if _, err := Decode([]byte(bad)); err == nil || !strings.HasPrefix(err.Error(), "report: ") {
			t.Errorf("Decode(%s) err = %v", bad, err)
		}
	}
}

func TestHashHTML(t *testing.T) {
	if got := HashHTML(nil); got != "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855" {
		t.Errorf("HashHTML(nil) = %s", got)
	}
	if HashHTML([]byte("<p>a</p>")) == HashHTML([]byte("<p>b</p>")) {
		t.Error("distinct pages hash alike")
	}
}

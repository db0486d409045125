package sink

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/hazyhaar/domsynth/report"
)

func TestStdout_Envelopes(t *testing.T) {
	var buf bytes.Buffer
	s := NewStdout(&buf)
	ctx := context.Background()

	if err := s.SendSelection(ctx, report.Selection{ID: "s1", Primary: `[data-testid="submit"]`}); err != nil {
		t.Fatal(err)
	}
	if err := s.SendOutline(ctx, report.Outline{ID: "o1", Depth: 3, Serialized: `{"tag":"a<b"}`}); err != nil {
		t.Fatal(err)
	}

	raw := append([]byte(nil), buf.Bytes()...)
	if !bytes.Contains(raw, []byte(`a<b`)) {
		t.Errorf("output is HTML-escaped: %s", raw)
	}

	sc := bufio.NewScanner(bytes.NewReader(raw))
	var got []any
	for sc.Scan() {
		v, err := report.Decode(sc.Bytes())
		if err != nil {
			t.Fatalf("decode %q: %v", sc.Text(), err)
		}
		got = append(got, v)
	}
	if len(got) != 2 {
		t.Fatalf("got %d records, want 2", len(got))
	}
	sel, ok := got[0].(*report.Selection)
	if !ok || sel.Primary != `[data-testid="submit"]` {
		t.Errorf("record 0 = %#v", got[0])
	}
	out, ok := got[1].(*report.Outline)
	if !ok || out.Depth != 3 || out.Serialized != `{"tag":"a<b"}` {
		t.Errorf("record 1 = %#v", got[1])
	}
}

func TestFile_Appends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.jsonl")
	for i := 0; i < 2; i++ {
		s, err := NewFile(path)
		if err != nil {
			t.Fatal(err)
		}
		if err := s.SendSelection(context.Background(), report.Selection{ID: "x"}); err != nil {
			t.Fatal(err)
		}
		if err := s.Close(); err != nil {
			t.Fatal(err)
		}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if n := bytes.Count(data, []byte("\n")); n != 2 {
		t.Errorf("lines = %d, want 2", n)
	}
}

func TestRouter_FanOutFirstError(t *testing.T) {
	errA := errors.New("a failed")
	var calls []string

	a := NewCallback(func(context.Context, report.Selection) error {
		calls = append(calls, "a")
		return errA
	}, nil)
	b := NewCallback(func(context.Context, report.Selection) error {
		calls = append(calls, "b")
		return errors.New("b failed")
	}, nil)
	c := NewCallback(func(context.Context, report.Selection) error {
		calls = append(calls, "c")
		return nil
	}, nil)

	r := NewRouter(nil, a, b, c)
	err := r.SendSelection(context.Background(), report.Selection{})
	if !errors.Is(err, errA) {
		t.Errorf("err = %v, want %v", err, errA)
	}
	if len(calls) != 3 {
		t.Errorf("calls = %v, want all three sinks", calls)
	}
	if err := r.SendOutline(context.Background(), report.Outline{}); err != nil {
		t.Errorf("nil outline handlers: %v", err)
	}
}

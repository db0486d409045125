package kit

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestChain_Order(t *testing.T) {
	var order []string

	mw := func(name string) Middleware {
		return func(next Endpoint) Endpoint {
			return func(ctx context.Context, req any) (any, error) {
				order = append(order, name+"_before")
				resp, err := next(ctx, req)
				order = append(order, name+"_after")
				return resp, err
			}
		}
	}

	base := func(_ context.Context, _ any) (any, error) {
		order = append(order, "endpoint")
		return "ok", nil
	}

	resp, err := Chain(mw("a"), mw("b"))(base)(context.Background(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if resp != "ok" {
		t.Fatalf("response: got %v", resp)
	}

	want := []string{"a_before", "b_before", "endpoint", "b_after", "a_after"}
	if strings.Join(order, ",") != strings.Join(want, ",") {
		t.Fatalf("order: got %v, want %v", order, want)
	}
}

func TestChain_Empty(t *testing.T) {
	base := func(_ context.Context, req any) (any, error) { return req, nil }
	resp, err := Chain()(base)(context.Background(), 7)
	if err != nil || resp != 7 {
		t.Fatalf("got %v, %v", resp, err)
	}
}

func TestLogging_Error(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	errFail := errors.New("fail")
	base := func(_ context.Context, _ any) (any, error) { return nil, errFail }

	ctx := WithCall(context.Background(), Call{Transport: "mcp", Tool: "domsynth_selectors"})
	ctx = WithCall(ctx, Call{RequestID: "req_1"})
	_, err := Logging(logger, "domsynth_selectors")(base)(ctx, nil)
	if !errors.Is(err, errFail) {
		t.Fatalf("error: got %v, want %v", err, errFail)
	}
	out := buf.String()
	for _, want := range []string{"kit: endpoint failed", "endpoint=domsynth_selectors", "transport=mcp", "tool=domsynth_selectors", "request_id=req_1"} {
		if !strings.Contains(out, want) {
			t.Errorf("log %q missing %q", out, want)
		}
	}
}

func TestCallFrom(t *testing.T) {
	c := CallFrom(context.Background())
	if c.Transport != "cli" || c.RequestID != "" || c.Tool != "" {
		t.Fatalf("default call: got %+v", c)
	}
	if attrs := c.LogAttrs(); len(attrs) != 2 {
		t.Errorf("default attrs: got %v, want transport only", attrs)
	}

	ctx := WithCall(context.Background(), Call{Transport: "batch", RequestID: "t1"})
	ctx = WithCall(ctx, Call{RequestID: "t2"})
	if c := CallFrom(ctx); c.Transport != "batch" || c.RequestID != "t2" {
		t.Fatalf("merged call: got %+v", c)
	}
}

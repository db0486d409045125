package fetcher

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func serve(t *testing.T, contentType string, body []byte) string {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if contentType != "" {
			w.Header().Set("Content-Type", contentType)
		}
		w.Write(body)
	}))
	t.Cleanup(srv.Close)
	return srv.URL
}

func TestFetch_DecodesLatin1(t *testing.T) {
	url := serve(t, "text/html; charset=iso-8859-1", []byte("<html><body><p>caf\xe9</p></body></html>"))

	res, err := New().Fetch(context.Background(), url)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(res.HTML), "café") {
		t.Errorf("HTML = %q", res.HTML)
	}
	if res.Charset == "utf-8" || res.Charset == "" {
		t.Errorf("Charset = %q", res.Charset)
	}
}

func TestFetch_KeepsUndeclaredUTF8(t *testing.T) {
	// High-bit bytes only after the sniffing window.
	body := "<html><body><p>" + strings.Repeat("a", 2000) + "</p><p>naïve</p></body></html>"
	url := serve(t, "text/html", []byte(body))

	res, err := New().Fetch(context.Background(), url)
	if err != nil {
		t.Fatal(err)
	}
	if string(res.HTML) != body {
		t.Error("body altered")
	}
	if res.Charset != "utf-8" {
		t.Errorf("Charset = %q", res.Charset)
	}
}

func TestFetch_RejectsNonHTML(t *testing.T) {
	url := serve(t, "application/json", []byte(`{"ok":true}`))
	if _, err := New().Fetch(context.Background(), url); err == nil {
		t.Fatal("expected error for JSON response")
	}
}

func TestIsHTML(t *testing.T) {
	cases := []struct {
		ct   string
		want bool
	}{
		{"", true},
		{"text/html", true},
		{"text/html; charset=utf-8", true},
		{"application/xhtml+xml", true},
		{"TEXT/HTML", true},
		{"application/json", false},
		{"image/png", false},
	}
	for _, c := range cases {
		if got := isHTML(c.ct); got != c.want {
			t.Errorf("isHTML(%q) = %v, want %v", c.ct, got, c.want)
		}
	}
}

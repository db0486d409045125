package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/hazyhaar/domsynth/dbopen"
)

func env(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func TestParse_Defaults(t *testing.T) {
	t.Setenv(EnvStructLimit, "")
	t.Setenv(EnvAttrKeys, "")

	cfg, err := Parse([]byte(`
targets:
  - id: home
    url: https://example.com/
    selector: "#login"
`))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Structure.Limit != 5000 {
		t.Errorf("Structure.Limit = %d, want 5000", cfg.Structure.Limit)
	}
	if cfg.Browser.RecycleInterval != 4*time.Hour {
		t.Errorf("RecycleInterval = %v", cfg.Browser.RecycleInterval)
	}
	if len(cfg.Sinks) != 1 || cfg.Sinks[0].Type != "stdout" {
		t.Errorf("Sinks = %+v", cfg.Sinks)
	}
	if cfg.Targets[0].Mode != "auto" {
		t.Errorf("Target mode = %q, want auto", cfg.Targets[0].Mode)
	}
	if cfg.Batch.Concurrency != 1 {
		t.Errorf("Batch.Concurrency = %d, want 1", cfg.Batch.Concurrency)
	}
}

func TestParse_Values(t *testing.T) {
	t.Setenv(EnvStructLimit, "")
	t.Setenv(EnvAttrKeys, "")

	cfg, err := Parse([]byte(`
browser:
  remote: ws://127.0.0.1:9222/devtools/browser/x
  stealth: false
  nav_timeout: 5s
structure:
  limit: 1200
  attribute_keys: [id, role, innerText]
selector:
  blocked: ["#app"]
batch:
  concurrency: 4
  only: ["shop-*"]
`))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Browser.Stealth == nil || *cfg.Browser.Stealth {
		t.Errorf("Stealth = %v, want false", cfg.Browser.Stealth)
	}
	if cfg.Browser.NavTimeout != 5*time.Second {
		t.Errorf("NavTimeout = %v", cfg.Browser.NavTimeout)
	}
	if cfg.Structure.Limit != 1200 {
		t.Errorf("Limit = %d", cfg.Structure.Limit)
	}
	if got := cfg.Structure.AttributeKeys; len(got) != 3 || got[2] != "innerText" {
		t.Errorf("AttributeKeys = %v", got)
	}
	if len(cfg.Selector.Blocked) != 1 {
		t.Errorf("Blocked = %v", cfg.Selector.Blocked)
	}
	if cfg.Batch.Concurrency != 4 || len(cfg.Batch.Only) != 1 {
		t.Errorf("Batch = %+v", cfg.Batch)
	}
}

func TestApplyEnv(t *testing.T) {
	var cfg Config
	err := cfg.ApplyEnv(env(map[string]string{
		EnvStructLimit: " 800 ",
		EnvAttrKeys:    "id, name ,,value",
	}))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Structure.Limit != 800 {
		t.Errorf("Limit = %d, want 800", cfg.Structure.Limit)
	}
	want := []string{"id", "name", "value"}
	if len(cfg.Structure.AttributeKeys) != len(want) {
		t.Fatalf("AttributeKeys = %v, want %v", cfg.Structure.AttributeKeys, want)
	}
	for i := range want {
		if cfg.Structure.AttributeKeys[i] != want[i] {
			t.Errorf("AttributeKeys[%d] = %q, want %q", i, cfg.Structure.AttributeKeys[i], want[i])
		}
	}

	if err := cfg.ApplyEnv(env(map[string]string{EnvStructLimit: "lots"})); err == nil {
		t.Error("expected error for invalid limit")
	}
}

func TestLoadFile_Missing(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error")
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "probe.yaml")
	if err := os.WriteFile(path, []byte("structure:\n  limit: 42\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv(EnvStructLimit, "")
	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Structure.Limit != 42 {
		t.Errorf("Limit = %d, want 42", cfg.Structure.Limit)
	}
}

func TestTargets_SaveLoadDisable(t *testing.T) {
	ctx := context.Background()
	db := dbopen.OpenMemory(t, dbopen.WithSchema(Schema))

	targets := []Target{
		{ID: "b", URL: "https://example.com/b", Mode: "http", Outline: true, AttributeKeys: []string{"id", "role"}},
		{ID: "a", URL: "https://example.com/a", Selector: "#go"},
	}
	for _, tg := range targets {
		if err := SaveTarget(ctx, db, tg); err != nil {
			t.Fatal(err)
		}
	}

	got, err := LoadTargets(ctx, db)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d targets, want 2", len(got))
	}
	if got[0].ID != "a" || got[0].Mode != "auto" || got[0].Selector != "#go" {
		t.Errorf("target a = %+v", got[0])
	}
	if !got[1].Outline || len(got[1].AttributeKeys) != 2 || got[1].Mode != "http" {
		t.Errorf("target b = %+v", got[1])
	}

	if err := DisableTarget(ctx, db, "a"); err != nil {
		t.Fatal(err)
	}
	got, err = LoadTargets(ctx, db)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].ID != "b" {
		t.Fatalf("after disable: %+v", got)
	}
}

func TestFilterTargets(t *testing.T) {
	targets := []Target{{ID: "shop-home"}, {ID: "blog-post"}, {ID: "shop-cart"}, {ID: "docs"}}

	cases := []struct {
		name     string
		patterns []string
		want     []string
	}{
		{"none", nil, []string{"shop-home", "blog-post", "shop-cart", "docs"}},
		{"prefix", []string{"shop-*"}, []string{"shop-home", "shop-cart"}},
		{"either", []string{"docs", "blog-?ost"}, []string{"blog-post", "docs"}},
		{"alternatives", []string{"{docs,shop-cart}"}, []string{"shop-cart", "docs"}},
		{"no match", []string{"admin-*"}, nil},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, err := FilterTargets(targets, c.patterns)
			if err != nil {
				t.Fatal(err)
			}
			var ids []string
			for _, tg := range got {
				ids = append(ids, tg.ID)
			}
			if len(ids) != len(c.want) {
				t.Fatalf("ids = %v, want %v", ids, c.want)
			}
			for i := range ids {
				if ids[i] != c.want[i] {
					t.Errorf("ids = %v, want %v", ids, c.want)
					break
				}
			}
		})
	}

	if _, err := FilterTargets(targets, []string{"shop-["}); err == nil {
		t.Error("expected error for malformed pattern")
	}
}

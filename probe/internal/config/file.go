// CLAUDE:SUMMARY Probe config structs, YAML loading with defaults, environment overrides.
// Package config holds probe configuration from a YAML file, environment
// overrides and an optional SQLite target table.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment overrides.
const (
	EnvStructLimit = "DOMSYNTH_STRUCT_LIMIT"
	EnvAttrKeys    = "DOMSYNTH_ATTR_KEYS"
)

// Config is the top-level probe configuration.
type Config struct {
	Browser   BrowserConfig   `yaml:"browser"`
	Fetch     FetchConfig     `yaml:"fetch"`
	Selector  SelectorConfig  `yaml:"selector"`
	Structure StructureConfig `yaml:"structure"`
	Sinks     []SinkConfig    `yaml:"sinks"`
	Batch     BatchConfig     `yaml:"batch"`
	Targets   []Target        `yaml:"targets"`
}

// BatchConfig controls how targets are run.
type BatchConfig struct {
	Concurrency int      `yaml:"concurrency"` // targets processed at once, default 1
	Only        []string `yaml:"only"`        // glob patterns on target ids, empty = all
}

// BrowserConfig controls Chrome.
type BrowserConfig struct {
	Remote           string        `yaml:"remote"`
	Bin              string        `yaml:"bin"`
	MemoryLimit      int64         `yaml:"memory_limit"`
	RecycleInterval  time.Duration `yaml:"recycle_interval"`
	ResourceBlocking []string      `yaml:"resource_blocking"`
	Stealth          *bool         `yaml:"stealth"`
	ViewportWidth    int           `yaml:"viewport_width"`
	ViewportHeight   int           `yaml:"viewport_height"`
	NavTimeout       time.Duration `yaml:"nav_timeout"`
	Settle           time.Duration `yaml:"settle"`
}

// FetchConfig controls the HTTP path.
type FetchConfig struct {
	UserAgent string        `yaml:"user_agent"`
	Timeout   time.Duration `yaml:"timeout"`
}

// SelectorConfig tunes selector synthesis. Zero values keep the
// synthesizer defaults.
type SelectorConfig struct {
	MaxLength   int      `yaml:"max_length"`
	AnchorDepth int      `yaml:"anchor_depth"`
	WidenDepth  int      `yaml:"widen_depth"`
	UIAttr      string   `yaml:"ui_attr"`
	Blocked     []string `yaml:"blocked"`
}

// StructureConfig tunes the snapshotter.
type StructureConfig struct {
	Limit         int      `yaml:"limit"`
	AttributeKeys []string `yaml:"attribute_keys"`
	MaxDepth      int      `yaml:"max_depth"`
	SkipTags      []string `yaml:"skip_tags"`
}

// SinkConfig defines an output backend.
type SinkConfig struct {
	Type string `yaml:"type"` // stdout | file
	Path string `yaml:"path"` // for file
}

// Target is one batch job: a page and what to compute on it.
type Target struct {
	ID            string   `yaml:"id"`
	URL           string   `yaml:"url"`
	Mode          string   `yaml:"mode"`     // inline | http | browser | auto
	Selector      string   `yaml:"selector"` // element to synthesise selectors for
	Root          string   `yaml:"root"`     // outline root, empty = body
	Outline       bool     `yaml:"outline"`
	AttributeKeys []string `yaml:"attribute_keys"`
}

// LoadFile reads a YAML configuration file and applies environment
// overrides and defaults.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML configuration.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return &cfg, nil
}

// Default returns a configuration with environment overrides applied.
func Default() (*Config, error) {
	var cfg Config
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return &cfg, nil
}

// ApplyEnv overrides the structure limit and attribute keys from the
// environment. lookup is os.LookupEnv outside tests.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvStructLimit); ok && strings.TrimSpace(v) != "" {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil || n <= 0 {
			return fmt.Errorf("config: %s: invalid limit %q", EnvStructLimit, v)
		}
		c.Structure.Limit = n
	}
	if v, ok := lookup(EnvAttrKeys); ok {
		if keys := SplitList(v); len(keys) > 0 {
			c.Structure.AttributeKeys = keys
		}
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Browser.MemoryLimit <= 0 {
		c.Browser.MemoryLimit = 1 << 30
	}
	if c.Browser.RecycleInterval <= 0 {
		c.Browser.RecycleInterval = 4 * time.Hour
	}
	if c.Browser.NavTimeout <= 0 {
		c.Browser.NavTimeout = 30 * time.Second
	}
	if c.Fetch.Timeout <= 0 {
		c.Fetch.Timeout = 30 * time.Second
	}
	if c.Structure.Limit <= 0 {
		c.Structure.Limit = 5000
	}
	if c.Batch.Concurrency <= 0 {
		c.Batch.Concurrency = 1
	}
	if len(c.Sinks) == 0 {
		c.Sinks = []SinkConfig{{Type: "stdout"}}
	}
	for i := range c.Targets {
		if c.Targets[i].Mode == "" {
			c.Targets[i].Mode = "auto"
		}
	}
}

// SplitList splits a comma separated list, dropping blanks.
func SplitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

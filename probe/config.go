package probe

import (
	"context"
	"database/sql"

	"github.com/hazyhaar/domsynth/probe/internal/config"
)

// Config is the top-level probe configuration. Re-exported from internal.
type Config = config.Config

// BrowserConfig controls Chrome.
type BrowserConfig = config.BrowserConfig

// SelectorConfig tunes selector synthesis.
type SelectorConfig = config.SelectorConfig

// StructureConfig tunes the snapshotter.
type StructureConfig = config.StructureConfig

// SinkConfig defines an output backend.
type SinkConfig = config.SinkConfig

// BatchConfig controls batch concurrency and target selection.
type BatchConfig = config.BatchConfig

// Target is one batch job.
type Target = config.Target

// LoadConfigFile reads a YAML configuration file.
func LoadConfigFile(path string) (*Config, error) {
	return config.LoadFile(path)
}

// DefaultConfig returns the defaults with environment overrides applied.
func DefaultConfig() (*Config, error) {
	return config.Default()
}

// OpenTargetDB opens (creating if needed) a SQLite target table.
func OpenTargetDB(path string) (*sql.DB, error) {
	return config.OpenDB(path)
}

// LoadTargets reads the active targets of a target table.
func LoadTargets(ctx context.Context, db *sql.DB) ([]Target, error) {
	return config.LoadTargets(ctx, db)
}

// SaveTarget inserts or replaces a target.
func SaveTarget(ctx context.Context, db *sql.DB, t Target) error {
	return config.SaveTarget(ctx, db, t)
}

// SplitList splits a comma separated list.
func SplitList(s string) []string {
	return config.SplitList(s)
}

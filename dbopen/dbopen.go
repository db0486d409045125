// Package dbopen opens the SQLite databases the probe keeps batch targets
// in. Pragmas run as plain statements, so any database/sql SQLite driver
// can back it; the domsynth binary registers modernc.org/sqlite:
//
//	import _ "modernc.org/sqlite"
//	db, err := dbopen.Open("targets.db", dbopen.WithSchema(config.Schema))
package dbopen

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
)

// Pragma is applied on open, before any schema statement.
type Pragma struct {
	Name  string
	Value string
}

func (p Pragma) String() string { return "PRAGMA " + p.Name + " = " + p.Value }

// DefaultPragmas returns the pragmas Open applies unless overridden.
func DefaultPragmas() []Pragma {
	return []Pragma{
		{"foreign_keys", "ON"},
		{"journal_mode", "WAL"},
		{"busy_timeout", "10000"},
		{"synchronous", "NORMAL"},
	}
}

type settings struct {
	driver  string
	pragmas []Pragma
	mkdir   bool
	schema  []string
}

// Option customises Open.
type Option func(*settings)

// WithDriver sets the database/sql driver name. Default: "sqlite".
func WithDriver(name string) Option { return func(s *settings) { s.driver = name } }

// WithPragma sets one pragma, replacing a default of the same name.
func WithPragma(name, value string) Option {
	return func(s *settings) {
		for i := range s.pragmas {
			if strings.EqualFold(s.pragmas[i].Name, name) {
				s.pragmas[i].Value = value
				return
			}
		}
		s.pragmas = append(s.pragmas, Pragma{name, value})
	}
}

// WithBusyTimeout sets busy_timeout in milliseconds.
func WithBusyTimeout(ms int) Option { return WithPragma("busy_timeout", strconv.Itoa(ms)) }

// WithMkdirAll creates the parent directories of a file database.
func WithMkdirAll() Option { return func(s *settings) { s.mkdir = true } }

// WithSchema queues statements run after the pragmas, in order.
func WithSchema(stmts ...string) Option {
	return func(s *settings) { s.schema = append(s.schema, stmts...) }
}

// Open opens the database at path, applies pragmas and schema, and pings.
func Open(path string, opts ...Option) (*sql.DB, error) {
	s := settings{driver: "sqlite", pragmas: DefaultPragmas()}
	for _, o := range opts {
		o(&s)
	}

	if s.mkdir && path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("dbopen: mkdir: %w", err)
		}
	}

	db, err := sql.Open(s.driver, path)
	if err != nil {
		return nil, fmt.Errorf("dbopen: open %s: %w", path, err)
	}
	if err := s.init(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func (s *settings) init(db *sql.DB) error {
	for _, p := range s.pragmas {
		if _, err := db.Exec(p.String()); err != nil {
			return fmt.Errorf("dbopen: %s: %w", p, err)
		}
	}
	for i, stmt := range s.schema {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("dbopen: schema statement %d: %w", i+1, err)
		}
	}
	if err := db.Ping(); err != nil {
		return fmt.Errorf("dbopen: ping: %w", err)
	}
	return nil
}

// OpenMemory opens an in-memory database for tests, closed on cleanup.
// It is capped at one connection: each ":memory:" connection would
// otherwise be its own empty database.
func OpenMemory(t testing.TB, opts ...Option) *sql.DB {
	t.Helper()
	db, err := Open(":memory:", opts...)
	if err != nil {
		t.Fatalf("dbopen.OpenMemory: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	return db
}

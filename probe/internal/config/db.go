// CLAUDE:SUMMARY Batch targets stored in a SQLite probe_targets table.
package config

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hazyhaar/domsynth/dbopen"
)

// Schema for the probe_targets table.
const Schema = `
CREATE TABLE IF NOT EXISTS probe_targets (
	id             TEXT PRIMARY KEY,
	url            TEXT NOT NULL,
	mode           TEXT DEFAULT 'auto',
	selector       TEXT DEFAULT '',
	root           TEXT DEFAULT '',
	outline        INTEGER DEFAULT 0,
	attribute_keys TEXT DEFAULT '[]',
	status         TEXT DEFAULT 'active',
	updated_at     INTEGER NOT NULL
);
`

// OpenDB opens (creating if needed) a target database.
func OpenDB(path string) (*sql.DB, error) {
	db, err := dbopen.Open(path, dbopen.WithMkdirAll(), dbopen.WithSchema(Schema))
	if err != nil {
		return nil, fmt.Errorf("config: open targets: %w", err)
	}
	return db, nil
}

// LoadTargets reads all active targets, ordered by id.
func LoadTargets(ctx context.Context, db *sql.DB) ([]Target, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, url, mode, selector, root, outline, attribute_keys
		FROM probe_targets
		WHERE status = 'active'
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("config: load targets: %w", err)
	}
	defer rows.Close()

	var out []Target
	for rows.Next() {
		var t Target
		var outline int
		var keysJSON string
		if err := rows.Scan(&t.ID, &t.URL, &t.Mode, &t.Selector, &t.Root, &outline, &keysJSON); err != nil {
			return nil, fmt.Errorf("config: scan target: %w", err)
		}
		if keysJSON != "" {
			if err := json.Unmarshal([]byte(keysJSON), &t.AttributeKeys); err != nil {
				return nil, fmt.Errorf("config: target %s: attribute_keys: %w", t.ID, err)
			}
		}
		t.Outline = outline != 0
		if t.Mode == "" {
			t.Mode = "auto"
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// SaveTarget inserts or replaces a target as active.
func SaveTarget(ctx context.Context, db *sql.DB, t Target) error {
	keys, err := json.Marshal(t.AttributeKeys)
	if err != nil {
		return fmt.Errorf("config: save target: %w", err)
	}
	if t.AttributeKeys == nil {
		keys = []byte("[]")
	}
	outline := 0
	if t.Outline {
		outline = 1
	}
	_, err = dbopen.Exec(ctx, db, `
		INSERT INTO probe_targets (id, url, mode, selector, root, outline, attribute_keys, status, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, 'active', ?)
		ON CONFLICT(id) DO UPDATE SET
			url = excluded.url, mode = excluded.mode, selector = excluded.selector,
			root = excluded.root, outline = excluded.outline,
			attribute_keys = excluded.attribute_keys, status = 'active',
			updated_at = excluded.updated_at
	`, t.ID, t.URL, t.Mode, t.Selector, t.Root, outline, string(keys), time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("config: save target %s: %w", t.ID, err)
	}
	return nil
}

// DisableTarget marks a target inactive.
func DisableTarget(ctx context.Context, db *sql.DB, id string) error {
	_, err := dbopen.Exec(ctx, db,
		`UPDATE probe_targets SET status = 'disabled', updated_at = ? WHERE id = ?`,
		time.Now().UnixMilli(), id)
	if err != nil {
		return fmt.Errorf("config: disable target %s: %w", id, err)
	}
	return nil
}

// Package watch re-runs an action when a SQLite table changes. It polls a
// version token, waits for writes to settle, then fires.
//
//	w := watch.New(db, watch.Options{Detector: watch.MaxColumn("probe_targets", "updated_at")})
//	err := w.Run(ctx, func(ctx context.Context) error { return rerun(ctx) })
package watch

import (
	"context"
	"database/sql"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"
)

// Detector reads a version token. Two different tokens mean the watched
// data changed.
type Detector func(ctx context.Context, db *sql.DB) (int64, error)

// DataVersion reads PRAGMA data_version, which moves when another
// connection commits to the same file.
func DataVersion(ctx context.Context, db *sql.DB) (int64, error) {
	var v int64
	err := db.QueryRowContext(ctx, "PRAGMA data_version").Scan(&v)
	return v, err
}

// MaxColumn polls MAX(column) of table, 0 when the table is empty.
func MaxColumn(table, column string) Detector {
	q := "SELECT COALESCE(MAX(" + quoteIdent(column) + "), 0) FROM " + quoteIdent(table)
	return func(ctx context.Context, db *sql.DB) (int64, error) {
		var v int64
		err := db.QueryRowContext(ctx, q).Scan(&v)
		return v, err
	}
}

func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// Options tunes a Watcher.
type Options struct {
	// Interval between polls. Default: 1s.
	Interval time.Duration
	// Quiet is how long the token must stay unchanged before the action
	// fires. 0 fires on the poll that saw the change.
	Quiet time.Duration
	// Immediate runs the action once before the first poll.
	Immediate bool
	// Detector defaults to DataVersion.
	Detector Detector
	Logger   *slog.Logger
}

func (o *Options) defaults() {
	if o.Interval <= 0 {
		o.Interval = time.Second
	}
	if o.Detector == nil {
		o.Detector = DataVersion
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
}

// Stats are point-in-time counters.
type Stats struct {
	Polls    int64 `json:"polls"`
	Changes  int64 `json:"changes"`
	Runs     int64 `json:"runs"`
	Failures int64 `json:"failures"`
}

// Watcher polls one database. Stats is safe to call while Run is active.
type Watcher struct {
	db   *sql.DB
	opts Options

	polls, changes, runs, failures atomic.Int64
}

// New creates a Watcher. Run starts it.
func New(db *sql.DB, opts Options) *Watcher {
	opts.defaults()
	return &Watcher{db: db, opts: opts}
}

// Stats returns the counters.
func (w *Watcher) Stats() Stats {
	return Stats{
		Polls:    w.polls.Load(),
		Changes:  w.changes.Load(),
		Runs:     w.runs.Load(),
		Failures: w.failures.Load(),
	}
}

// Run blocks until ctx is done. A failed action leaves the token
// unacknowledged, so the next poll fires it again.
func (w *Watcher) Run(ctx context.Context, action func(context.Context) error) error {
	log := w.opts.Logger

	seen, err := w.opts.Detector(ctx, w.db)
	if err != nil {
		log.Warn("watch: initial poll failed", "error", err)
		seen = -1
	}
	if w.opts.Immediate && !w.fire(ctx, action, seen) {
		seen = -1
	}

	tick := time.NewTicker(w.opts.Interval)
	defer tick.Stop()

	var quiet *time.Timer
	var quietC <-chan time.Time
	pending, hasPending := int64(0), false
	defer func() {
		if quiet != nil {
			quiet.Stop()
		}
	}()

	log.Info("watch: started", "interval", w.opts.Interval, "quiet", w.opts.Quiet)
	for {
		select {
		case <-ctx.Done():
			log.Info("watch: stopped", "runs", w.runs.Load())
			return nil

		case <-tick.C:
			w.polls.Add(1)
			cur, err := w.opts.Detector(ctx, w.db)
			if err != nil {
				w.failures.Add(1)
				log.Warn("watch: poll failed", "error", err)
				continue
			}
			if cur == seen || (hasPending && cur == pending) {
				continue
			}
			w.changes.Add(1)
			pending, hasPending = cur, true
			if w.opts.Quiet <= 0 {
				if w.fire(ctx, action, cur) {
					seen = cur
				}
				hasPending = false
				continue
			}
			if quiet != nil {
				quiet.Stop()
			}
			quiet = time.NewTimer(w.opts.Quiet)
			quietC = quiet.C
			log.Debug("watch: change seen, waiting for quiet", "version", cur)

		case <-quietC:
			quietC = nil
			if hasPending {
				if w.fire(ctx, action, pending) {
					seen = pending
				}
				hasPending = false
			}
		}
	}
}

func (w *Watcher) fire(ctx context.Context, action func(context.Context) error, version int64) bool {
	start := time.Now()
	if err := action(ctx); err != nil {
		w.failures.Add(1)
		w.opts.Logger.Error("watch: action failed", "version", version, "error", err)
		return false
	}
	w.runs.Add(1)
	w.opts.Logger.Info("watch: action done", "version", version, "duration", time.Since(start))
	return true
}

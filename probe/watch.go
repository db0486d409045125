package probe

import (
	"context"
	"database/sql"
	"time"

	"github.com/hazyhaar/domsynth/probe/internal/config"
	"github.com/hazyhaar/domsynth/watch"
)

// WatchTargets runs the active targets of db once, then again each time
// the target table changes, until ctx is done. Target failures are logged;
// only a failure to read the table is retried on the next poll.
func (p *Probe) WatchTargets(ctx context.Context, db *sql.DB, interval time.Duration) error {
	w := watch.New(db, watch.Options{
		Interval:  interval,
		Quiet:     interval / 2,
		Immediate: true,
		Detector:  watch.MaxColumn("probe_targets", "updated_at"),
		Logger:    p.logger,
	})
	return w.Run(ctx, func(ctx context.Context) error {
		targets, err := config.LoadTargets(ctx, db)
		if err != nil {
			return err
		}
		if err := p.RunTargets(ctx, targets); err != nil {
			p.logger.Warn("probe: watched targets had failures", "targets", len(targets), "error", err)
		}
		return nil
	})
}

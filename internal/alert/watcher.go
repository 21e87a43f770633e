package alert

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Watcher polls the evaluator on a fixed interval. It replaces the original
// self-rearming timer: the ticker is owned here, the evaluator only answers
// polls.
type Watcher struct {
	Evaluator *Evaluator
	Interval  time.Duration
	Log       zerolog.Logger

	// Notify is called for each notification. Optional; notifications are
	// always logged.
	Notify func(Notification)
}

// Run polls once immediately, then on every tick until the context is
// cancelled. Poll serializes internally, so a slow poll never overlaps the
// next one.
func (w *Watcher) Run(ctx context.Context) {
	w.check(ctx)

	ticker := time.NewTicker(w.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.check(ctx)
		}
	}
}

func (w *Watcher) check(ctx context.Context) {
	notification, err := w.Evaluator.Poll(ctx)
	if err != nil {
		w.Log.Error().Err(err).Msg("alert poll failed")
		return
	}
	if notification == nil {
		return
	}

	w.Log.Info().
		Int("new_alerts", notification.NewCount).
		Int("total_alerts", notification.Snapshot.Total).
		Msg("new inventory alerts")

	if w.Notify != nil {
		w.Notify(*notification)
	}
}

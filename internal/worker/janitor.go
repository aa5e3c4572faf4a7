package worker

import (
	"context"
	"time"
)

// RunJanitor periodically deletes cancelled orders. Blocks until ctx is
// cancelled.
func (w *Worker) RunJanitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			purged, err := w.Orders.PurgeCancelled(ctx)
			if err != nil {
				w.Log.Error("cancelled orders cleanup failed", "error", err)
				continue
			}
			if purged > 0 {
				w.Log.Info("cancelled orders purged", "count", purged)
			}
		}
	}
}

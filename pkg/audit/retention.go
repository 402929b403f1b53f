package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/juris-platform/baseline/pkg/baseline"
)

// sweepInterval is how often the retention worker prunes old events.
const sweepInterval = 24 * time.Hour

// RetentionWorker prunes audit events that have aged out of the retention
// window. One sweep runs at startup, then one per sweepInterval.
type RetentionWorker struct {
	store  *baseline.AuditStore
	days   int
	logger *slog.Logger
}

// NewRetentionWorker creates a RetentionWorker keeping retentionDays of
// events. A non-positive retentionDays disables the worker.
func NewRetentionWorker(store *baseline.AuditStore, retentionDays int, logger *slog.Logger) *RetentionWorker {
	if logger == nil {
		logger = slog.Default()
	}
	return &RetentionWorker{store: store, days: retentionDays, logger: logger}
}

// Run sweeps until the context is cancelled. It returns immediately when
// the worker is disabled.
func (w *RetentionWorker) Run(ctx context.Context) {
	if w.store == nil || w.days <= 0 {
		w.logger.Info("audit retention disabled", "retentionDays", w.days)
		return
	}

	w.logger.Info("audit retention started", "retentionDays", w.days)
	w.sweep()

	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("audit retention stopped")
			return
		case <-ticker.C:
			w.sweep()
		}
	}
}

func (w *RetentionWorker) sweep() {
	cutoff := time.Now().AddDate(0, 0, -w.days)
	pruned, err := w.store.DeleteOlderThan(cutoff)
	switch {
	case err != nil:
		w.logger.Error("audit retention sweep failed", "error", err)
	case pruned > 0:
		w.logger.Info("audit events pruned", "count", pruned, "cutoff", cutoff.Format(time.RFC3339))
	}
}

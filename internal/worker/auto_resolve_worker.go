package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/observability"
	"github.com/spec-kit/helpdesk-service/internal/service"
)

// AutoResolveWorker periodically sweeps stale tickets into resolved. It is
// only the driver: eligibility and batch semantics live in the lifecycle
// service.
type AutoResolveWorker struct {
	lifecycle *service.LifecycleService
	metrics   *observability.Metrics
	logger    *zap.Logger
	interval  time.Duration
}

// NewAutoResolveWorker creates the worker.
func NewAutoResolveWorker(lifecycle *service.LifecycleService, metrics *observability.Metrics, logger *zap.Logger, interval time.Duration) *AutoResolveWorker {
	return &AutoResolveWorker{
		lifecycle: lifecycle,
		metrics:   metrics,
		logger:    logger,
		interval:  interval,
	}
}

// Run starts the sweep loop and should be launched in its own goroutine.
func (w *AutoResolveWorker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("auto-resolve worker shutting down")
			return
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

func (w *AutoResolveWorker) sweep(ctx context.Context) {
	// bound each cycle so a hung store call cannot wedge the loop
	cycleCtx, cancel := context.WithTimeout(ctx, w.interval)
	defer cancel()

	summary, err := w.lifecycle.AutoResolveEligibleTickets(cycleCtx)
	if err != nil {
		w.logger.Error("auto-resolution sweep failed", zap.Error(err))
		return
	}
	w.metrics.RecordSweep(summary.Failed)
}

package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/repository"
	"github.com/spec-kit/helpdesk-service/internal/service"
)

// FeedbackRequestWorker drains due scheduled notifications. The scheduled
// rows are the durable replacement for an in-memory delay timer: a restart
// between resolution and the feedback request leaves the row in place, and
// the next poll delivers it.
type FeedbackRequestWorker struct {
	scheduled     repository.ScheduledNotificationRepository
	notifications *service.NotificationService
	logger        *zap.Logger
	poll          time.Duration
	batchLimit    int
	now           func() time.Time
}

// NewFeedbackRequestWorker creates the worker.
func NewFeedbackRequestWorker(scheduled repository.ScheduledNotificationRepository, notifications *service.NotificationService, logger *zap.Logger, poll time.Duration, batchLimit int) *FeedbackRequestWorker {
	return &FeedbackRequestWorker{
		scheduled:     scheduled,
		notifications: notifications,
		logger:        logger,
		poll:          poll,
		batchLimit:    batchLimit,
		now:           time.Now,
	}
}

// Run starts the polling loop and should be launched in its own goroutine.
func (w *FeedbackRequestWorker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.poll)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("feedback request worker shutting down")
			return
		case <-ticker.C:
			w.drain(ctx)
		}
	}
}

func (w *FeedbackRequestWorker) drain(ctx context.Context) {
	cycleCtx, cancel := context.WithTimeout(ctx, w.poll)
	defer cancel()

	due, err := w.scheduled.ListDue(cycleCtx, w.now(), w.batchLimit)
	if err != nil {
		w.logger.Error("list due scheduled notifications", zap.Error(err))
		return
	}
	for i := range due {
		if err := w.notifications.DeliverScheduled(cycleCtx, &due[i]); err != nil {
			// row stays undelivered; the next poll retries it
			w.logger.Warn("deliver scheduled notification failed",
				zap.String("scheduled_id", due[i].ID),
				zap.Error(err))
		}
	}
}

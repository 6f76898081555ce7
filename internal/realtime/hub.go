package realtime

import (
	"context"
	"sort"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/repository"
)

const (
	userChannelPrefix = "notifications:user:"
	adminChannel      = "notifications:admin"
)

// Hub fans notification change signals out over redis pub/sub. Subscribers
// receive the full current matching set on every change, not a delta stream;
// ordering (newest first) is applied on each delivery.
type Hub struct {
	client        *redis.Client
	notifications repository.NotificationRepository
	logger        *zap.Logger
}

// NewHub constructs the hub.
func NewHub(client *redis.Client, notifications repository.NotificationRepository, logger *zap.Logger) *Hub {
	return &Hub{client: client, notifications: notifications, logger: logger}
}

// Subscription is a live view over a notification filter. C delivers the
// current result set after every underlying change; Cancel releases the
// redis subscription and closes C.
type Subscription struct {
	C      <-chan []domain.Notification
	cancel context.CancelFunc
}

// Cancel stops delivery and releases resources.
func (s *Subscription) Cancel() {
	if s.cancel != nil {
		s.cancel()
	}
}

// NotifyChanged signals that a notification was created or updated. Failures
// are logged only: a missed signal degrades liveness of subscribers, not
// correctness of the stored data.
func (h *Hub) NotifyChanged(ctx context.Context, n *domain.Notification) {
	if h == nil || h.client == nil {
		return
	}
	if n.UserID != nil {
		if err := h.client.Publish(ctx, userChannelPrefix+*n.UserID, n.ID).Err(); err != nil {
			h.logger.Warn("publish user notification signal", zap.Error(err))
		}
	}
	if n.AdminNotification {
		if err := h.client.Publish(ctx, adminChannel, n.ID).Err(); err != nil {
			h.logger.Warn("publish admin notification signal", zap.Error(err))
		}
	}
}

// SubscribeUser delivers all notifications for the user.
func (h *Hub) SubscribeUser(ctx context.Context, userID string) *Subscription {
	return h.subscribe(ctx, userChannelPrefix+userID, func(ctx context.Context) ([]domain.Notification, error) {
		return h.notifications.ListForUser(ctx, userID, false)
	})
}

// SubscribeUserUnread delivers only unread notifications for the user; the
// caller derives the unread count from the set size.
func (h *Hub) SubscribeUserUnread(ctx context.Context, userID string) *Subscription {
	return h.subscribe(ctx, userChannelPrefix+userID, func(ctx context.Context) ([]domain.Notification, error) {
		return h.notifications.ListForUser(ctx, userID, true)
	})
}

// SubscribeAdmin delivers admin-directed notifications.
func (h *Hub) SubscribeAdmin(ctx context.Context) *Subscription {
	return h.subscribe(ctx, adminChannel, func(ctx context.Context) ([]domain.Notification, error) {
		return h.notifications.ListAdmin(ctx, false)
	})
}

// SubscribeAdminUnread delivers unread admin-directed notifications.
func (h *Hub) SubscribeAdminUnread(ctx context.Context) *Subscription {
	return h.subscribe(ctx, adminChannel, func(ctx context.Context) ([]domain.Notification, error) {
		return h.notifications.ListAdmin(ctx, true)
	})
}

type fetchFunc func(ctx context.Context) ([]domain.Notification, error)

func (h *Hub) subscribe(parent context.Context, channel string, fetch fetchFunc) *Subscription {
	ctx, cancel := context.WithCancel(parent)
	pubsub := h.client.Subscribe(ctx, channel)
	out := make(chan []domain.Notification, 1)

	go func() {
		defer close(out)
		defer pubsub.Close() //nolint:errcheck

		// initial snapshot, then redeliver on every signal
		h.deliver(ctx, out, fetch)
		signals := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-signals:
				if !ok {
					return
				}
				h.deliver(ctx, out, fetch)
			}
		}
	}()

	return &Subscription{C: out, cancel: cancel}
}

func (h *Hub) deliver(ctx context.Context, out chan []domain.Notification, fetch fetchFunc) {
	set, err := fetch(ctx)
	if err != nil {
		h.logger.Warn("fetch notification set for subscriber", zap.Error(err))
		return
	}
	sort.Slice(set, func(i, j int) bool {
		return set[i].CreatedAt.After(set[j].CreatedAt)
	})

	// replace a stale undelivered set when the subscriber lags
	select {
	case out <- set:
		return
	default:
	}
	select {
	case <-out:
	default:
	}
	select {
	case out <- set:
	case <-ctx.Done():
	}
}

package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/config"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/realtime"
	"github.com/spec-kit/helpdesk-service/internal/repository"
)

// Canned messages for non-resolution status changes, keyed by target status.
var statusChangeMessages = map[domain.TicketStatus]string{
	domain.TicketStatusOpen:       "Your ticket has been reopened",
	domain.TicketStatusInProgress: "Your ticket is now being worked on",
	domain.TicketStatusResolved:   "Your ticket has been resolved",
	domain.TicketStatusClosed:     "Your ticket has been closed",
}

// NotificationService turns ticket events into persistent notification
// records and signals subscribers through the realtime hub. Notification
// failures after a successful ticket write are logged, not rolled back: the
// ticket state is authoritative.
type NotificationService struct {
	notifications repository.NotificationRepository
	scheduled     repository.ScheduledNotificationRepository
	hub           *realtime.Hub
	logger        *zap.Logger
	cfg           config.WorkflowConfig
	now           func() time.Time
}

// NotificationDependencies bundles requirements for the service.
type NotificationDependencies struct {
	NotificationRepo repository.NotificationRepository
	ScheduledRepo    repository.ScheduledNotificationRepository
	Hub              *realtime.Hub
	Logger           *zap.Logger
	Workflow         config.WorkflowConfig
	Now              func() time.Time
}

// NewNotificationService creates the service.
func NewNotificationService(deps NotificationDependencies) *NotificationService {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &NotificationService{
		notifications: deps.NotificationRepo,
		scheduled:     deps.ScheduledRepo,
		hub:           deps.Hub,
		logger:        deps.Logger,
		cfg:           deps.Workflow,
		now:           now,
	}
}

// RegisterHandlers subscribes to ticket lifecycle events.
func (n *NotificationService) RegisterHandlers(dispatcher events.Dispatcher) {
	if dispatcher == nil {
		return
	}
	dispatcher.Subscribe(events.EventTicketCreated, n.handleTicketCreated)
	dispatcher.Subscribe(events.EventTicketResolved, n.handleTicketResolved)
	dispatcher.Subscribe(events.EventTicketStatusChanged, n.handleTicketStatusChanged)
	dispatcher.Subscribe(events.EventFeedbackSubmitted, n.handleFeedbackSubmitted)
}

func (n *NotificationService) handleTicketCreated(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketCreatedPayload)
	if !ok {
		return fmt.Errorf("unexpected payload for %s", event.Type)
	}
	notification := &domain.Notification{
		Type:              domain.NotificationNewTicketCreated,
		Title:             "New ticket created",
		Message:           fmt.Sprintf("A new %s priority ticket was filed: %q", payload.Priority, payload.Title),
		AdminNotification: true,
		TicketID:          event.TicketID,
		Priority:          &payload.Priority,
		Category:          &payload.Category,
	}
	return n.create(ctx, notification)
}

// handleTicketResolved creates the immediate resolution notification for the
// ticket creator and schedules the feedback request after the configured
// delay. The scheduled row is durable, so a restart in the delay window
// cannot drop the feedback request.
func (n *NotificationService) handleTicketResolved(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketResolvedPayload)
	if !ok {
		return fmt.Errorf("unexpected payload for %s", event.Type)
	}

	message := fmt.Sprintf("Your ticket %q has been resolved", payload.Title)
	if payload.AutoResolved {
		message = fmt.Sprintf("Your ticket %q was automatically resolved after a period of inactivity", payload.Title)
	}
	userID := payload.CreatedBy
	resolvedBy := payload.ResolvedBy
	notification := &domain.Notification{
		Type:         domain.NotificationTicketResolved,
		Title:        "Ticket resolved",
		Message:      message,
		UserID:       &userID,
		TicketID:     event.TicketID,
		Priority:     &payload.Priority,
		Category:     &payload.Category,
		ResolvedBy:   &resolvedBy,
		AutoResolved: payload.AutoResolved,
	}
	if err := n.create(ctx, notification); err != nil {
		return err
	}

	scheduledAt := n.now().Add(n.cfg.FeedbackRequestDelay())
	scheduled := &domain.ScheduledNotification{
		Type:        domain.NotificationFeedbackRequested,
		TicketID:    event.TicketID,
		TicketTitle: payload.Title,
		UserID:      payload.CreatedBy,
		DueAt:       scheduledAt,
	}
	if err := n.scheduled.Create(ctx, scheduled); err != nil {
		n.logger.Error("schedule feedback request",
			zap.String("ticket_id", event.TicketID),
			zap.Error(err))
		return err
	}
	return nil
}

func (n *NotificationService) handleTicketStatusChanged(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketStatusChangedPayload)
	if !ok {
		return fmt.Errorf("unexpected payload for %s", event.Type)
	}
	message, ok := statusChangeMessages[payload.NewStatus]
	if !ok {
		message = fmt.Sprintf("Your ticket status changed to %s", payload.NewStatus)
	}
	userID := payload.CreatedBy
	changedBy := event.Actor
	newStatus := payload.NewStatus
	notification := &domain.Notification{
		Type:      domain.NotificationTicketStatusChanged,
		Title:     "Ticket status updated",
		Message:   message,
		UserID:    &userID,
		TicketID:  event.TicketID,
		Priority:  &payload.Priority,
		Category:  &payload.Category,
		NewStatus: &newStatus,
		ChangedBy: &changedBy,
	}
	return n.create(ctx, notification)
}

func (n *NotificationService) handleFeedbackSubmitted(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.FeedbackSubmittedPayload)
	if !ok {
		return fmt.Errorf("unexpected payload for %s", event.Type)
	}
	rating := payload.Rating
	notification := &domain.Notification{
		Type:              domain.NotificationFeedbackSubmitted,
		Title:             "Feedback received",
		Message:           fmt.Sprintf("Feedback submitted for ticket %q: %d/5", payload.TicketTitle, payload.Rating),
		AdminNotification: true,
		TicketID:          event.TicketID,
		Rating:            &rating,
	}
	return n.create(ctx, notification)
}

// DeliverScheduled creates the notification for a due scheduled row and marks
// the row delivered. A delivery failure leaves the row for the next poll.
func (n *NotificationService) DeliverScheduled(ctx context.Context, sn *domain.ScheduledNotification) error {
	userID := sn.UserID
	notification := &domain.Notification{
		Type:     sn.Type,
		Title:    "How did we do?",
		Message:  fmt.Sprintf("Your ticket %q was resolved. Please rate your experience.", sn.TicketTitle),
		UserID:   &userID,
		TicketID: sn.TicketID,
	}
	if err := n.create(ctx, notification); err != nil {
		return err
	}
	return n.scheduled.MarkDelivered(ctx, sn.ID, n.now())
}

// Get returns a single notification.
func (n *NotificationService) Get(ctx context.Context, id string) (*domain.Notification, error) {
	return n.notifications.GetByID(ctx, id)
}

// MarkRead flips a notification to read. Idempotent: the second call leaves
// read and readAt unchanged.
func (n *NotificationService) MarkRead(ctx context.Context, id string) (*domain.Notification, error) {
	notification, err := n.notifications.MarkRead(ctx, id)
	if err != nil {
		return nil, err
	}
	if n.hub != nil {
		n.hub.NotifyChanged(ctx, notification)
	}
	return notification, nil
}

// ListForUser returns the user's notifications, newest first per store order.
func (n *NotificationService) ListForUser(ctx context.Context, userID string, onlyUnread bool) ([]domain.Notification, error) {
	return n.notifications.ListForUser(ctx, userID, onlyUnread)
}

// ListAdmin returns admin-directed notifications.
func (n *NotificationService) ListAdmin(ctx context.Context, onlyUnread bool) ([]domain.Notification, error) {
	return n.notifications.ListAdmin(ctx, onlyUnread)
}

// UnreadCountForUser returns the user's unread notification count.
func (n *NotificationService) UnreadCountForUser(ctx context.Context, userID string) (int64, error) {
	return n.notifications.CountUnreadForUser(ctx, userID)
}

// UnreadCountAdmin returns the unread admin-directed notification count.
func (n *NotificationService) UnreadCountAdmin(ctx context.Context) (int64, error) {
	return n.notifications.CountUnreadAdmin(ctx)
}

func (n *NotificationService) create(ctx context.Context, notification *domain.Notification) error {
	if err := n.notifications.Create(ctx, notification); err != nil {
		n.logger.Error("create notification",
			zap.String("type", string(notification.Type)),
			zap.String("ticket_id", notification.TicketID),
			zap.Error(err))
		return err
	}
	if n.hub != nil {
		n.hub.NotifyChanged(ctx, notification)
	}
	return nil
}

package handlers

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/api/dto"
	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/realtime"
	"github.com/spec-kit/helpdesk-service/internal/service"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

// NotificationsHandler serves per-user and admin notification endpoints.
type NotificationsHandler struct {
	notifications *service.NotificationService
	hub           *realtime.Hub
}

// NewNotificationsHandler constructs handler.
func NewNotificationsHandler(notifications *service.NotificationService, hub *realtime.Hub) *NotificationsHandler {
	return &NotificationsHandler{notifications: notifications, hub: hub}
}

// List GET /notifications.
func (h *NotificationsHandler) List(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	onlyUnread := c.QueryBool("unread")
	items, err := h.notifications.ListForUser(c.UserContext(), principal.User.ID, onlyUnread)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": notificationResponses(items)})
}

// UnreadCount GET /notifications/unread-count.
func (h *NotificationsHandler) UnreadCount(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	count, err := h.notifications.UnreadCountForUser(c.UserContext(), principal.User.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.UnreadCountResponse{Unread: count}})
}

// MarkRead POST /notifications/:id/read. A notification may only be marked
// read by its recipient, or by an admin for admin-directed notifications.
func (h *NotificationsHandler) MarkRead(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	notification, err := h.notifications.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	if !canAccess(principal, notification) {
		return apperrors.NewForbidden("access denied")
	}
	notification, err = h.notifications.MarkRead(c.UserContext(), notification.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": notificationResponse(notification)})
}

// ListAdmin GET /admin/notifications.
func (h *NotificationsHandler) ListAdmin(c *fiber.Ctx) error {
	onlyUnread := c.QueryBool("unread")
	items, err := h.notifications.ListAdmin(c.UserContext(), onlyUnread)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": notificationResponses(items)})
}

// UnreadCountAdmin GET /admin/notifications/unread-count.
func (h *NotificationsHandler) UnreadCountAdmin(c *fiber.Ctx) error {
	count, err := h.notifications.UnreadCountAdmin(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.UnreadCountResponse{Unread: count}})
}

// Stream GET /notifications/stream. Server-sent events: every change to the
// caller's notification set redelivers the full current set.
func (h *NotificationsHandler) Stream(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	sub := h.hub.SubscribeUser(context.Background(), principal.User.ID)
	return h.stream(c, sub)
}

// StreamAdmin GET /admin/notifications/stream.
func (h *NotificationsHandler) StreamAdmin(c *fiber.Ctx) error {
	sub := h.hub.SubscribeAdmin(context.Background())
	return h.stream(c, sub)
}

// streamHeartbeat is how often an SSE comment line is written when no
// notification change arrives. Each heartbeat is a real write, so a
// disconnected client fails it and the subscription is released within one
// interval instead of lingering until the next delivery.
const streamHeartbeat = 15 * time.Second

func (h *NotificationsHandler) stream(c *fiber.Ctx, sub *realtime.Subscription) error {
	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")

	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		streamNotificationSets(w, sub, streamHeartbeat)
	})
	return nil
}

func streamNotificationSets(w *bufio.Writer, sub *realtime.Subscription, heartbeat time.Duration) {
	defer sub.Cancel()
	ticker := time.NewTicker(heartbeat)
	defer ticker.Stop()

	for {
		select {
		case set, ok := <-sub.C:
			if !ok {
				return
			}
			payload, err := json.Marshal(notificationResponses(set))
			if err != nil {
				return
			}
			if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
				return
			}
			if err := w.Flush(); err != nil {
				return
			}
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
				return
			}
			if err := w.Flush(); err != nil {
				return
			}
		}
	}
}

func canAccess(principal *auth.Principal, n *domain.Notification) bool {
	if n.UserID != nil && *n.UserID == principal.User.ID {
		return true
	}
	return n.AdminNotification && principal.Role != domain.RoleUser
}

func notificationResponse(n *domain.Notification) dto.NotificationResponse {
	return dto.NotificationResponse{
		ID:                n.ID,
		Type:              n.Type,
		Title:             n.Title,
		Message:           n.Message,
		UserID:            n.UserID,
		AdminNotification: n.AdminNotification,
		TicketID:          n.TicketID,
		Read:              n.Read,
		ReadAt:            n.ReadAt,
		CreatedAt:         n.CreatedAt,
		Priority:          n.Priority,
		Category:          n.Category,
		ResolvedBy:        n.ResolvedBy,
		NewStatus:         n.NewStatus,
		ChangedBy:         n.ChangedBy,
		AutoResolved:      n.AutoResolved,
		Rating:            n.Rating,
	}
}

func notificationResponses(items []domain.Notification) []dto.NotificationResponse {
	resp := make([]dto.NotificationResponse, 0, len(items))
	for i := range items {
		resp = append(resp, notificationResponse(&items[i]))
	}
	return resp
}

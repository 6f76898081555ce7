package dto

import (
	"time"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// NotificationResponse represents a delivered notification.
type NotificationResponse struct {
	ID                string                  `json:"id"`
	Type              domain.NotificationType `json:"type"`
	Title             string                  `json:"title"`
	Message           string                  `json:"message"`
	UserID            *string                 `json:"user_id,omitempty"`
	AdminNotification bool                    `json:"admin_notification,omitempty"`
	TicketID          string                  `json:"ticket_id"`
	Read              bool                    `json:"read"`
	ReadAt            *time.Time              `json:"read_at,omitempty"`
	CreatedAt         time.Time               `json:"created_at"`
	Priority          *domain.TicketPriority  `json:"priority,omitempty"`
	Category          *domain.TicketCategory  `json:"category,omitempty"`
	ResolvedBy        *string                 `json:"resolved_by,omitempty"`
	NewStatus         *domain.TicketStatus    `json:"new_status,omitempty"`
	ChangedBy         *string                 `json:"changed_by,omitempty"`
	AutoResolved      bool                    `json:"auto_resolved,omitempty"`
	Rating            *int                    `json:"rating,omitempty"`
}

// UnreadCountResponse carries an unread counter.
type UnreadCountResponse struct {
	Unread int64 `json:"unread"`
}

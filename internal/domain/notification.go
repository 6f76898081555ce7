package domain

import "time"

// NotificationType enumerates supported notification kinds.
type NotificationType string

const (
	NotificationTicketResolved      NotificationType = "ticket_resolved"
	NotificationTicketUpdated       NotificationType = "ticket_updated"
	NotificationTicketStatusChanged NotificationType = "ticket_status_changed"
	NotificationFeedbackRequested   NotificationType = "feedback_requested"
	NotificationNewTicketCreated    NotificationType = "new_ticket_created"
	NotificationFeedbackSubmitted   NotificationType = "feedback_submitted"
)

// Notification is a per-user or admin-broadcast message tied to a ticket.
// UserID is nil for admin-directed notifications. Read defaults to false at
// creation; once true, ReadAt is set and never cleared.
type Notification struct {
	ID                string
	Type              NotificationType
	Title             string
	Message           string
	UserID            *string
	AdminNotification bool
	TicketID          string
	Read              bool
	ReadAt            *time.Time
	CreatedAt         time.Time

	// Type-specific metadata.
	Priority     *TicketPriority
	Category     *TicketCategory
	ResolvedBy   *string
	NewStatus    *TicketStatus
	ChangedBy    *string
	AutoResolved bool
	Rating       *int
}

// ScheduledNotification is a durable record for a notification that must be
// delivered at a later time. Rows stay until delivered so a restart between
// scheduling and delivery cannot drop them.
type ScheduledNotification struct {
	ID          string
	Type        NotificationType
	TicketID    string
	TicketTitle string
	UserID      string
	DueAt       time.Time
	DeliveredAt *time.Time
	CreatedAt   time.Time
}

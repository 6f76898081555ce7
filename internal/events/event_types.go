package events

import (
	"time"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated       EventType = "ticket_created"
	EventTicketStatusChanged EventType = "ticket_status_changed"
	EventTicketResolved      EventType = "ticket_resolved"
	EventFeedbackSubmitted   EventType = "feedback_submitted"
)

// Event represents a domain event emitted by services. Actor is the user id
// of the caller, or the configured system marker for automated transitions.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  string      `json:"ticket_id"`
	Actor     string      `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	Title     string                `json:"title"`
	CreatedBy string                `json:"created_by"`
	Priority  domain.TicketPriority `json:"priority"`
	Category  domain.TicketCategory `json:"category"`
}

// TicketStatusChangedPayload payload for non-resolution transitions.
type TicketStatusChangedPayload struct {
	Title     string                `json:"title"`
	CreatedBy string                `json:"created_by"`
	OldStatus domain.TicketStatus   `json:"old_status"`
	NewStatus domain.TicketStatus   `json:"new_status"`
	Priority  domain.TicketPriority `json:"priority"`
	Category  domain.TicketCategory `json:"category"`
}

// TicketResolvedPayload payload for transitions into resolved.
type TicketResolvedPayload struct {
	Title        string                `json:"title"`
	CreatedBy    string                `json:"created_by"`
	ResolvedBy   string                `json:"resolved_by"`
	Priority     domain.TicketPriority `json:"priority"`
	Category     domain.TicketCategory `json:"category"`
	AutoResolved bool                  `json:"auto_resolved"`
}

// FeedbackSubmittedPayload payload.
type FeedbackSubmittedPayload struct {
	TicketTitle string `json:"ticket_title"`
	UserID      string `json:"user_id"`
	Rating      int    `json:"rating"`
}

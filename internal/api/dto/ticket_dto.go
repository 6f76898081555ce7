package dto

import (
	"time"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	Title       string                `json:"title"`
	Description string                `json:"description"`
	Category    domain.TicketCategory `json:"category"`
	Priority    domain.TicketPriority `json:"priority"`
}

// UpdateStatusRequest payload for admin transitions.
type UpdateStatusRequest struct {
	Status domain.TicketStatus `json:"status"`
}

// TicketResponse provides ticket info.
type TicketResponse struct {
	ID                  string                `json:"id"`
	Title               string                `json:"title"`
	Description         string                `json:"description"`
	Category            domain.TicketCategory `json:"category"`
	Priority            domain.TicketPriority `json:"priority"`
	Status              domain.TicketStatus   `json:"status"`
	CreatedBy           string                `json:"created_by"`
	ResolvedBy          *string               `json:"resolved_by,omitempty"`
	ResolvedAt          *time.Time            `json:"resolved_at,omitempty"`
	AutoResolved        bool                  `json:"auto_resolved,omitempty"`
	FeedbackSubmitted   bool                  `json:"feedback_submitted,omitempty"`
	FeedbackSubmittedBy *string               `json:"feedback_submitted_by,omitempty"`
	FeedbackSubmittedAt *time.Time            `json:"feedback_submitted_at,omitempty"`
	CreatedAt           time.Time             `json:"created_at"`
	UpdatedAt           time.Time             `json:"updated_at"`
}

// SweepResponse reports an auto-resolution sweep outcome.
type SweepResponse struct {
	Eligible  int      `json:"eligible"`
	Succeeded int      `json:"succeeded"`
	Failed    int      `json:"failed"`
	Attempted []string `json:"attempted"`
}

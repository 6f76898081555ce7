package dto

import "time"

// SubmitFeedbackRequest payload.
type SubmitFeedbackRequest struct {
	Rating      int    `json:"rating"`
	Suggestions string `json:"suggestions"`
}

// FeedbackResponse represents stored feedback.
type FeedbackResponse struct {
	ID          string    `json:"id"`
	TicketID    string    `json:"ticket_id"`
	TicketTitle string    `json:"ticket_title"`
	Rating      int       `json:"rating"`
	Suggestions string    `json:"suggestions,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// FeedbackExistsResponse answers the pre-submission guard query.
type FeedbackExistsResponse struct {
	Exists bool `json:"exists"`
}

package domain

import "time"

// Feedback captures a user's rating for a resolved ticket. At most one
// record exists per (ticket, user) pair, enforced by a store-level unique
// constraint.
type Feedback struct {
	ID          string
	TicketID    string
	TicketTitle string
	UserID      string
	Rating      int
	Suggestions string
	CreatedAt   time.Time
}

// RatingMin and RatingMax bound the accepted feedback rating.
const (
	RatingMin = 1
	RatingMax = 5
)

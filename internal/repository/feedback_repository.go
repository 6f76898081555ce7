package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// RatingStats aggregates submitted feedback ratings.
type RatingStats struct {
	Count   int64
	Average float64
}

// FeedbackRepository encapsulates feedback persistence. A unique index on
// (ticket_id, user_id) makes concurrent double-submits fail deterministically.
type FeedbackRepository interface {
	Create(ctx context.Context, fb *domain.Feedback) error
	Exists(ctx context.Context, ticketID, userID string) (bool, error)
	ListByTicket(ctx context.Context, ticketID string) ([]domain.Feedback, error)
	Stats(ctx context.Context) (*RatingStats, error)
}

type feedbackRepository struct {
	pool *pgxpool.Pool
}

// NewFeedbackRepository instantiates repository.
func NewFeedbackRepository(pool *pgxpool.Pool) FeedbackRepository {
	return &feedbackRepository{pool: pool}
}

func (r *feedbackRepository) Create(ctx context.Context, fb *domain.Feedback) error {
	const query = `
        INSERT INTO feedback (ticket_id, ticket_title, user_id, rating, suggestions)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		fb.TicketID,
		fb.TicketTitle,
		fb.UserID,
		fb.Rating,
		fb.Suggestions,
	).Scan(&fb.ID, &fb.CreatedAt)
}

func (r *feedbackRepository) Exists(ctx context.Context, ticketID, userID string) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM feedback WHERE ticket_id=$1 AND user_id=$2)`
	var exists bool
	err := r.pool.QueryRow(ctx, query, ticketID, userID).Scan(&exists)
	return exists, err
}

func (r *feedbackRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.Feedback, error) {
	const query = `
        SELECT id, ticket_id, ticket_title, user_id, rating, suggestions, created_at
        FROM feedback WHERE ticket_id=$1 ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Feedback
	for rows.Next() {
		var fb domain.Feedback
		if err := rows.Scan(
			&fb.ID,
			&fb.TicketID,
			&fb.TicketTitle,
			&fb.UserID,
			&fb.Rating,
			&fb.Suggestions,
			&fb.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, fb)
	}
	return result, rows.Err()
}

func (r *feedbackRepository) Stats(ctx context.Context) (*RatingStats, error) {
	const query = `SELECT COUNT(*), COALESCE(AVG(rating), 0) FROM feedback`
	var stats RatingStats
	if err := r.pool.QueryRow(ctx, query).Scan(&stats.Count, &stats.Average); err != nil {
		return nil, err
	}
	return &stats, nil
}

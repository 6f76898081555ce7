package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// ScheduledNotificationRepository is the durable outbox for notifications
// that must be delivered after a delay. Rows survive restarts; the scheduler
// worker drains due rows and marks them delivered.
type ScheduledNotificationRepository interface {
	Create(ctx context.Context, sn *domain.ScheduledNotification) error
	ListDue(ctx context.Context, now time.Time, limit int) ([]domain.ScheduledNotification, error)
	MarkDelivered(ctx context.Context, id string, at time.Time) error
}

type scheduledNotificationRepository struct {
	pool *pgxpool.Pool
}

// NewScheduledNotificationRepository instantiates repository.
func NewScheduledNotificationRepository(pool *pgxpool.Pool) ScheduledNotificationRepository {
	return &scheduledNotificationRepository{pool: pool}
}

func (r *scheduledNotificationRepository) Create(ctx context.Context, sn *domain.ScheduledNotification) error {
	const query = `
        INSERT INTO scheduled_notifications (type, ticket_id, ticket_title, user_id, due_at)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		sn.Type,
		sn.TicketID,
		sn.TicketTitle,
		sn.UserID,
		sn.DueAt,
	).Scan(&sn.ID, &sn.CreatedAt)
}

func (r *scheduledNotificationRepository) ListDue(ctx context.Context, now time.Time, limit int) ([]domain.ScheduledNotification, error) {
	if limit <= 0 {
		limit = 100
	}
	const query = `
        SELECT id, type, ticket_id, ticket_title, user_id, due_at, delivered_at, created_at
        FROM scheduled_notifications
        WHERE delivered_at IS NULL AND due_at <= $1
        ORDER BY due_at ASC LIMIT $2`
	rows, err := r.pool.Query(ctx, query, now, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.ScheduledNotification
	for rows.Next() {
		var sn domain.ScheduledNotification
		if err := rows.Scan(
			&sn.ID,
			&sn.Type,
			&sn.TicketID,
			&sn.TicketTitle,
			&sn.UserID,
			&sn.DueAt,
			&sn.DeliveredAt,
			&sn.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, sn)
	}
	return result, rows.Err()
}

func (r *scheduledNotificationRepository) MarkDelivered(ctx context.Context, id string, at time.Time) error {
	const query = `
        UPDATE scheduled_notifications SET delivered_at=$1
        WHERE id=$2 AND delivered_at IS NULL`
	cmd, err := r.pool.Exec(ctx, query, at, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

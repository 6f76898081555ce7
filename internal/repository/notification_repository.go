package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// NotificationRepository encapsulates notification persistence.
type NotificationRepository interface {
	Create(ctx context.Context, n *domain.Notification) error
	GetByID(ctx context.Context, id string) (*domain.Notification, error)
	// MarkRead sets read=true and stamps read_at on first call only; marking
	// an already-read notification again is a no-op in effect.
	MarkRead(ctx context.Context, id string) (*domain.Notification, error)
	ListForUser(ctx context.Context, userID string, onlyUnread bool) ([]domain.Notification, error)
	ListAdmin(ctx context.Context, onlyUnread bool) ([]domain.Notification, error)
	CountUnreadForUser(ctx context.Context, userID string) (int64, error)
	CountUnreadAdmin(ctx context.Context) (int64, error)
}

type notificationRepository struct {
	pool *pgxpool.Pool
}

// NewNotificationRepository instantiates repository.
func NewNotificationRepository(pool *pgxpool.Pool) NotificationRepository {
	return &notificationRepository{pool: pool}
}

const notificationColumns = `id, type, title, message, user_id, admin_notification, ticket_id,
               read, read_at, created_at, priority, category, resolved_by, new_status,
               changed_by, auto_resolved, rating`

func (r *notificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	const query = `
        INSERT INTO notifications (type, title, message, user_id, admin_notification, ticket_id,
            priority, category, resolved_by, new_status, changed_by, auto_resolved, rating)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
        RETURNING id, read, created_at`
	return r.pool.QueryRow(ctx, query,
		n.Type,
		n.Title,
		n.Message,
		n.UserID,
		n.AdminNotification,
		n.TicketID,
		n.Priority,
		n.Category,
		n.ResolvedBy,
		n.NewStatus,
		n.ChangedBy,
		n.AutoResolved,
		n.Rating,
	).Scan(&n.ID, &n.Read, &n.CreatedAt)
}

func (r *notificationRepository) GetByID(ctx context.Context, id string) (*domain.Notification, error) {
	query := `SELECT ` + notificationColumns + ` FROM notifications WHERE id=$1`
	var n domain.Notification
	if err := r.pool.QueryRow(ctx, query, id).Scan(notificationFields(&n)...); err != nil {
		return nil, err
	}
	return &n, nil
}

func (r *notificationRepository) MarkRead(ctx context.Context, id string) (*domain.Notification, error) {
	// COALESCE keeps the original read_at on repeat calls.
	query := `
        UPDATE notifications SET read=TRUE, read_at=COALESCE(read_at, NOW())
        WHERE id=$1
        RETURNING ` + notificationColumns
	var n domain.Notification
	if err := r.pool.QueryRow(ctx, query, id).Scan(notificationFields(&n)...); err != nil {
		return nil, err
	}
	return &n, nil
}

func (r *notificationRepository) ListForUser(ctx context.Context, userID string, onlyUnread bool) ([]domain.Notification, error) {
	query := `SELECT ` + notificationColumns + ` FROM notifications WHERE user_id=$1`
	if onlyUnread {
		query += ` AND read=FALSE`
	}
	query += ` ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanNotifications(rows)
}

func (r *notificationRepository) ListAdmin(ctx context.Context, onlyUnread bool) ([]domain.Notification, error) {
	query := `SELECT ` + notificationColumns + ` FROM notifications WHERE admin_notification=TRUE`
	if onlyUnread {
		query += ` AND read=FALSE`
	}
	query += ` ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanNotifications(rows)
}

func (r *notificationRepository) CountUnreadForUser(ctx context.Context, userID string) (int64, error) {
	const query = `SELECT COUNT(*) FROM notifications WHERE user_id=$1 AND read=FALSE`
	var count int64
	err := r.pool.QueryRow(ctx, query, userID).Scan(&count)
	return count, err
}

func (r *notificationRepository) CountUnreadAdmin(ctx context.Context) (int64, error) {
	const query = `SELECT COUNT(*) FROM notifications WHERE admin_notification=TRUE AND read=FALSE`
	var count int64
	err := r.pool.QueryRow(ctx, query).Scan(&count)
	return count, err
}

func notificationFields(n *domain.Notification) []any {
	return []any{
		&n.ID,
		&n.Type,
		&n.Title,
		&n.Message,
		&n.UserID,
		&n.AdminNotification,
		&n.TicketID,
		&n.Read,
		&n.ReadAt,
		&n.CreatedAt,
		&n.Priority,
		&n.Category,
		&n.ResolvedBy,
		&n.NewStatus,
		&n.ChangedBy,
		&n.AutoResolved,
		&n.Rating,
	}
}

func scanNotifications(rows pgx.Rows) ([]domain.Notification, error) {
	var result []domain.Notification
	for rows.Next() {
		var n domain.Notification
		if err := rows.Scan(notificationFields(&n)...); err != nil {
			return nil, err
		}
		result = append(result, n)
	}
	return result, rows.Err()
}

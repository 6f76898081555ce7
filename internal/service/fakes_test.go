package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/repository"
)

func uniqueViolation() error {
	return &pgconn.PgError{Code: "23505", ConstraintName: "feedback_ticket_id_user_id_key"}
}

type fakeTicketRepo struct {
	mu      sync.Mutex
	tickets map[string]*domain.Ticket
	nextID  int

	failUpdate map[string]error
	flagErr    error
}

func newFakeTicketRepo() *fakeTicketRepo {
	return &fakeTicketRepo{
		tickets:    make(map[string]*domain.Ticket),
		failUpdate: make(map[string]error),
	}
}

func (f *fakeTicketRepo) Create(_ context.Context, ticket *domain.Ticket) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	ticket.ID = fmt.Sprintf("ticket-%d", f.nextID)
	if ticket.CreatedAt.IsZero() {
		ticket.CreatedAt = time.Now()
	}
	ticket.UpdatedAt = ticket.CreatedAt
	copied := *ticket
	f.tickets[ticket.ID] = &copied
	return nil
}

func (f *fakeTicketRepo) Update(_ context.Context, ticket *domain.Ticket) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.failUpdate[ticket.ID]; ok {
		return err
	}
	if _, ok := f.tickets[ticket.ID]; !ok {
		return pgx.ErrNoRows
	}
	ticket.UpdatedAt = time.Now()
	copied := *ticket
	f.tickets[ticket.ID] = &copied
	return nil
}

func (f *fakeTicketRepo) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ticket, ok := f.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *ticket
	return &copied, nil
}

func (f *fakeTicketRepo) ListWithFilter(_ context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []domain.Ticket
	for _, ticket := range f.tickets {
		if filter.CreatedBy != nil && ticket.CreatedBy != *filter.CreatedBy {
			continue
		}
		result = append(result, *ticket)
	}
	return result, nil
}

func (f *fakeTicketRepo) ListEligibleForAutoResolve(_ context.Context, cutoff time.Time, limit int) ([]domain.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []domain.Ticket
	for _, ticket := range f.tickets {
		if ticket.Status != domain.TicketStatusOpen {
			continue
		}
		if ticket.Priority != domain.TicketPriorityLow && ticket.Priority != domain.TicketPriorityMedium {
			continue
		}
		if ticket.CreatedAt.After(cutoff) {
			continue
		}
		result = append(result, *ticket)
		if limit > 0 && len(result) >= limit {
			break
		}
	}
	return result, nil
}

func (f *fakeTicketRepo) SetFeedbackSubmitted(_ context.Context, ticketID, userID string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.flagErr != nil {
		return f.flagErr
	}
	ticket, ok := f.tickets[ticketID]
	if !ok {
		return pgx.ErrNoRows
	}
	ticket.FeedbackSubmitted = true
	ticket.FeedbackSubmittedBy = &userID
	ticket.FeedbackSubmittedAt = &at
	return nil
}

func (f *fakeTicketRepo) CountsBy(_ context.Context, column string) (map[string]int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	counts := make(map[string]int64)
	for _, ticket := range f.tickets {
		switch column {
		case "status":
			counts[string(ticket.Status)]++
		case "priority":
			counts[string(ticket.Priority)]++
		case "category":
			counts[string(ticket.Category)]++
		}
	}
	return counts, nil
}

func (f *fakeTicketRepo) CountAutoResolved(_ context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var count int64
	for _, ticket := range f.tickets {
		if ticket.AutoResolved {
			count++
		}
	}
	return count, nil
}

type fakeNotificationRepo struct {
	mu            sync.Mutex
	notifications map[string]*domain.Notification
	order         []string
	nextID        int
	createErr     error
}

func newFakeNotificationRepo() *fakeNotificationRepo {
	return &fakeNotificationRepo{notifications: make(map[string]*domain.Notification)}
}

func (f *fakeNotificationRepo) Create(_ context.Context, n *domain.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	f.nextID++
	n.ID = fmt.Sprintf("notification-%d", f.nextID)
	n.Read = false
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}
	copied := *n
	f.notifications[n.ID] = &copied
	f.order = append(f.order, n.ID)
	return nil
}

func (f *fakeNotificationRepo) GetByID(_ context.Context, id string) (*domain.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n, ok := f.notifications[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *n
	return &copied, nil
}

func (f *fakeNotificationRepo) MarkRead(_ context.Context, id string) (*domain.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n, ok := f.notifications[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	n.Read = true
	if n.ReadAt == nil {
		at := time.Now()
		n.ReadAt = &at
	}
	copied := *n
	return &copied, nil
}

func (f *fakeNotificationRepo) ListForUser(_ context.Context, userID string, onlyUnread bool) ([]domain.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []domain.Notification
	for _, id := range f.order {
		n := f.notifications[id]
		if n.UserID == nil || *n.UserID != userID {
			continue
		}
		if onlyUnread && n.Read {
			continue
		}
		result = append(result, *n)
	}
	return result, nil
}

func (f *fakeNotificationRepo) ListAdmin(_ context.Context, onlyUnread bool) ([]domain.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []domain.Notification
	for _, id := range f.order {
		n := f.notifications[id]
		if !n.AdminNotification {
			continue
		}
		if onlyUnread && n.Read {
			continue
		}
		result = append(result, *n)
	}
	return result, nil
}

func (f *fakeNotificationRepo) CountUnreadForUser(ctx context.Context, userID string) (int64, error) {
	items, err := f.ListForUser(ctx, userID, true)
	return int64(len(items)), err
}

func (f *fakeNotificationRepo) CountUnreadAdmin(ctx context.Context) (int64, error) {
	items, err := f.ListAdmin(ctx, true)
	return int64(len(items)), err
}

type fakeScheduledRepo struct {
	mu     sync.Mutex
	rows   map[string]*domain.ScheduledNotification
	order  []string
	nextID int
}

func newFakeScheduledRepo() *fakeScheduledRepo {
	return &fakeScheduledRepo{rows: make(map[string]*domain.ScheduledNotification)}
}

func (f *fakeScheduledRepo) Create(_ context.Context, sn *domain.ScheduledNotification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	sn.ID = fmt.Sprintf("scheduled-%d", f.nextID)
	if sn.CreatedAt.IsZero() {
		sn.CreatedAt = time.Now()
	}
	copied := *sn
	f.rows[sn.ID] = &copied
	f.order = append(f.order, sn.ID)
	return nil
}

func (f *fakeScheduledRepo) ListDue(_ context.Context, now time.Time, limit int) ([]domain.ScheduledNotification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []domain.ScheduledNotification
	for _, id := range f.order {
		sn := f.rows[id]
		if sn.DeliveredAt != nil || sn.DueAt.After(now) {
			continue
		}
		result = append(result, *sn)
		if limit > 0 && len(result) >= limit {
			break
		}
	}
	return result, nil
}

func (f *fakeScheduledRepo) MarkDelivered(_ context.Context, id string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	sn, ok := f.rows[id]
	if !ok || sn.DeliveredAt != nil {
		return pgx.ErrNoRows
	}
	sn.DeliveredAt = &at
	return nil
}

type fakeFeedbackRepo struct {
	mu        sync.Mutex
	items     map[string]*domain.Feedback
	nextID    int
	createErr error
}

func newFakeFeedbackRepo() *fakeFeedbackRepo {
	return &fakeFeedbackRepo{items: make(map[string]*domain.Feedback)}
}

func (f *fakeFeedbackRepo) key(ticketID, userID string) string {
	return ticketID + "|" + userID
}

func (f *fakeFeedbackRepo) Create(_ context.Context, fb *domain.Feedback) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	key := f.key(fb.TicketID, fb.UserID)
	if _, ok := f.items[key]; ok {
		return uniqueViolation()
	}
	f.nextID++
	fb.ID = fmt.Sprintf("feedback-%d", f.nextID)
	if fb.CreatedAt.IsZero() {
		fb.CreatedAt = time.Now()
	}
	copied := *fb
	f.items[key] = &copied
	return nil
}

func (f *fakeFeedbackRepo) Exists(_ context.Context, ticketID, userID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.items[f.key(ticketID, userID)]
	return ok, nil
}

func (f *fakeFeedbackRepo) ListByTicket(_ context.Context, ticketID string) ([]domain.Feedback, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []domain.Feedback
	for _, fb := range f.items {
		if fb.TicketID == ticketID {
			result = append(result, *fb)
		}
	}
	return result, nil
}

func (f *fakeFeedbackRepo) Stats(_ context.Context) (*repository.RatingStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	stats := &repository.RatingStats{}
	var sum int
	for _, fb := range f.items {
		stats.Count++
		sum += fb.Rating
	}
	if stats.Count > 0 {
		stats.Average = float64(sum) / float64(stats.Count)
	}
	return stats, nil
}

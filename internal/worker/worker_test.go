package worker

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/config"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/observability"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	"github.com/spec-kit/helpdesk-service/internal/service"
)

type memTicketRepo struct {
	mu      sync.Mutex
	tickets map[string]*domain.Ticket
	nextID  int
}

func newMemTicketRepo() *memTicketRepo {
	return &memTicketRepo{tickets: make(map[string]*domain.Ticket)}
}

func (m *memTicketRepo) Create(_ context.Context, ticket *domain.Ticket) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	ticket.ID = fmt.Sprintf("ticket-%d", m.nextID)
	copied := *ticket
	m.tickets[ticket.ID] = &copied
	return nil
}

func (m *memTicketRepo) Update(_ context.Context, ticket *domain.Ticket) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tickets[ticket.ID]; !ok {
		return pgx.ErrNoRows
	}
	copied := *ticket
	m.tickets[ticket.ID] = &copied
	return nil
}

func (m *memTicketRepo) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ticket, ok := m.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *ticket
	return &copied, nil
}

func (m *memTicketRepo) ListWithFilter(_ context.Context, _ repository.TicketFilter) ([]domain.Ticket, error) {
	return nil, nil
}

func (m *memTicketRepo) ListEligibleForAutoResolve(_ context.Context, cutoff time.Time, limit int) ([]domain.Ticket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []domain.Ticket
	for _, ticket := range m.tickets {
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

func (m *memTicketRepo) SetFeedbackSubmitted(_ context.Context, _, _ string, _ time.Time) error {
	return nil
}

func (m *memTicketRepo) CountsBy(_ context.Context, _ string) (map[string]int64, error) {
	return nil, nil
}

func (m *memTicketRepo) CountAutoResolved(_ context.Context) (int64, error) {
	return 0, nil
}

type memScheduledRepo struct {
	mu     sync.Mutex
	rows   map[string]*domain.ScheduledNotification
	order  []string
	nextID int
}

func newMemScheduledRepo() *memScheduledRepo {
	return &memScheduledRepo{rows: make(map[string]*domain.ScheduledNotification)}
}

func (m *memScheduledRepo) Create(_ context.Context, sn *domain.ScheduledNotification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	sn.ID = fmt.Sprintf("scheduled-%d", m.nextID)
	copied := *sn
	m.rows[sn.ID] = &copied
	m.order = append(m.order, sn.ID)
	return nil
}

func (m *memScheduledRepo) ListDue(_ context.Context, now time.Time, limit int) ([]domain.ScheduledNotification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []domain.ScheduledNotification
	for _, id := range m.order {
		sn := m.rows[id]
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

func (m *memScheduledRepo) MarkDelivered(_ context.Context, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	sn, ok := m.rows[id]
	if !ok || sn.DeliveredAt != nil {
		return pgx.ErrNoRows
	}
	sn.DeliveredAt = &at
	return nil
}

type memNotificationRepo struct {
	mu        sync.Mutex
	created   []domain.Notification
	createErr error
}

func (m *memNotificationRepo) Create(_ context.Context, n *domain.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	n.ID = fmt.Sprintf("notification-%d", len(m.created)+1)
	m.created = append(m.created, *n)
	return nil
}

func (m *memNotificationRepo) GetByID(_ context.Context, _ string) (*domain.Notification, error) {
	return nil, pgx.ErrNoRows
}

func (m *memNotificationRepo) MarkRead(_ context.Context, _ string) (*domain.Notification, error) {
	return nil, pgx.ErrNoRows
}

func (m *memNotificationRepo) ListForUser(_ context.Context, _ string, _ bool) ([]domain.Notification, error) {
	return nil, nil
}

func (m *memNotificationRepo) ListAdmin(_ context.Context, _ bool) ([]domain.Notification, error) {
	return nil, nil
}

func (m *memNotificationRepo) CountUnreadForUser(_ context.Context, _ string) (int64, error) {
	return 0, nil
}

func (m *memNotificationRepo) CountUnreadAdmin(_ context.Context) (int64, error) {
	return 0, nil
}

func workflowConfig() config.WorkflowConfig {
	return config.WorkflowConfig{
		SystemActor:                 "auto-resolve-system",
		AutoResolveAfterDays:        7,
		FeedbackRequestDelaySeconds: 30,
		SweepIntervalMinutes:        60,
		SchedulerPollSeconds:        5,
		SweepBatchLimit:             200,
	}
}

func TestAutoResolveWorkerSweep(t *testing.T) {
	tickets := newMemTicketRepo()
	stale := &domain.Ticket{
		Title:       "stale",
		Description: "stale",
		Category:    domain.TicketCategoryOther,
		Priority:    domain.TicketPriorityLow,
		Status:      domain.TicketStatusOpen,
		CreatedBy:   "user-1",
		CreatedAt:   time.Now().Add(-10 * 24 * time.Hour),
	}
	require.NoError(t, tickets.Create(context.Background(), stale))
	fresh := &domain.Ticket{
		Title:       "fresh",
		Description: "fresh",
		Category:    domain.TicketCategoryOther,
		Priority:    domain.TicketPriorityLow,
		Status:      domain.TicketStatusOpen,
		CreatedBy:   "user-1",
		CreatedAt:   time.Now().Add(-time.Hour),
	}
	require.NoError(t, tickets.Create(context.Background(), fresh))

	lifecycle := service.NewLifecycleService(service.LifecycleDependencies{
		TicketRepo: tickets,
		Logger:     zap.NewNop(),
		Workflow:   workflowConfig(),
	})
	worker := NewAutoResolveWorker(lifecycle, observability.NewMetrics(), zap.NewNop(), time.Minute)

	worker.sweep(context.Background())

	resolved, err := tickets.GetByID(context.Background(), stale.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusResolved, resolved.Status)
	assert.True(t, resolved.AutoResolved)

	untouched, err := tickets.GetByID(context.Background(), fresh.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusOpen, untouched.Status)
}

func TestFeedbackRequestWorkerDrainsDueRows(t *testing.T) {
	scheduled := newMemScheduledRepo()
	store := &memNotificationRepo{}
	notifications := service.NewNotificationService(service.NotificationDependencies{
		NotificationRepo: store,
		ScheduledRepo:    scheduled,
		Logger:           zap.NewNop(),
		Workflow:         workflowConfig(),
	})

	now := time.Now()
	due := &domain.ScheduledNotification{
		Type:        domain.NotificationFeedbackRequested,
		TicketID:    "ticket-1",
		TicketTitle: "Printer jam",
		UserID:      "user-1",
		DueAt:       now.Add(-time.Second),
	}
	require.NoError(t, scheduled.Create(context.Background(), due))
	future := &domain.ScheduledNotification{
		Type:        domain.NotificationFeedbackRequested,
		TicketID:    "ticket-2",
		TicketTitle: "VPN down",
		UserID:      "user-2",
		DueAt:       now.Add(time.Hour),
	}
	require.NoError(t, scheduled.Create(context.Background(), future))

	worker := NewFeedbackRequestWorker(scheduled, notifications, zap.NewNop(), time.Second, 100)
	worker.drain(context.Background())

	require.Len(t, store.created, 1)
	assert.Equal(t, domain.NotificationFeedbackRequested, store.created[0].Type)
	require.NotNil(t, store.created[0].UserID)
	assert.Equal(t, "user-1", *store.created[0].UserID)

	remaining, err := scheduled.ListDue(context.Background(), now.Add(2*time.Hour), 10)
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, "ticket-2", remaining[0].TicketID)
}

func TestFeedbackRequestWorkerRetriesFailedDelivery(t *testing.T) {
	scheduled := newMemScheduledRepo()
	store := &memNotificationRepo{createErr: assert.AnError}
	notifications := service.NewNotificationService(service.NotificationDependencies{
		NotificationRepo: store,
		ScheduledRepo:    scheduled,
		Logger:           zap.NewNop(),
		Workflow:         workflowConfig(),
	})

	row := &domain.ScheduledNotification{
		Type:     domain.NotificationFeedbackRequested,
		TicketID: "ticket-1",
		UserID:   "user-1",
		DueAt:    time.Now().Add(-time.Minute),
	}
	require.NoError(t, scheduled.Create(context.Background(), row))

	worker := NewFeedbackRequestWorker(scheduled, notifications, zap.NewNop(), time.Second, 100)
	worker.drain(context.Background())

	// delivery failed, so the row stays due for the next poll
	due, err := scheduled.ListDue(context.Background(), time.Now(), 10)
	require.NoError(t, err)
	require.Len(t, due, 1)

	store.mu.Lock()
	store.createErr = nil
	store.mu.Unlock()
	worker.drain(context.Background())

	due, err = scheduled.ListDue(context.Background(), time.Now(), 10)
	require.NoError(t, err)
	assert.Empty(t, due)
	assert.Len(t, store.created, 1)
}

package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/config"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

// LifecycleService owns ticket status transitions, the auto-resolution
// eligibility rule, and emits the events that drive the notification cascade.
type LifecycleService struct {
	tickets    repository.TicketRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        config.WorkflowConfig
	now        func() time.Time
}

// LifecycleDependencies bundles requirements for the lifecycle service.
type LifecycleDependencies struct {
	TicketRepo repository.TicketRepository
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
	Workflow   config.WorkflowConfig
	Now        func() time.Time
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	Title       string
	Description string
	Category    domain.TicketCategory
	Priority    domain.TicketPriority
}

// TicketListFilter describes listing filters.
type TicketListFilter struct {
	Statuses    []domain.TicketStatus
	Priorities  []domain.TicketPriority
	Categories  []domain.TicketCategory
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	Limit       int
	Offset      int
}

// SweepSummary reports the outcome of one auto-resolution sweep. Per-ticket
// failures are isolated: they count against Failed but never stop the sweep.
type SweepSummary struct {
	Eligible  int      `json:"eligible"`
	Succeeded int      `json:"succeeded"`
	Failed    int      `json:"failed"`
	Attempted []string `json:"attempted"`
}

// NewLifecycleService constructs the service.
func NewLifecycleService(deps LifecycleDependencies) *LifecycleService {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &LifecycleService{
		tickets:    deps.TicketRepo,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
		cfg:        deps.Workflow,
		now:        now,
	}
}

// CreateTicket files a new open ticket for a user.
func (s *LifecycleService) CreateTicket(ctx context.Context, userID string, input TicketCreateInput) (*domain.Ticket, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" || strings.TrimSpace(input.Description) == "" {
		return nil, apperrors.NewValidationError("title and description required", nil)
	}
	if !domain.ValidCategory(input.Category) {
		return nil, apperrors.NewValidationError("unknown category", map[string]any{"category": input.Category})
	}
	if input.Priority == "" {
		input.Priority = domain.TicketPriorityMedium
	}
	if !domain.ValidPriority(input.Priority) {
		return nil, apperrors.NewValidationError("unknown priority", map[string]any{"priority": input.Priority})
	}

	ticket := &domain.Ticket{
		Title:       title,
		Description: strings.TrimSpace(input.Description),
		Category:    input.Category,
		Priority:    input.Priority,
		Status:      domain.TicketStatusOpen,
		CreatedBy:   userID,
	}
	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, err
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		Actor:    userID,
		Payload: events.TicketCreatedPayload{
			Title:     ticket.Title,
			CreatedBy: ticket.CreatedBy,
			Priority:  ticket.Priority,
			Category:  ticket.Category,
		},
	})
	return ticket, nil
}

// ListUserTickets returns paginated tickets for a requester.
func (s *LifecycleService) ListUserTickets(ctx context.Context, userID string, filter TicketListFilter) ([]domain.Ticket, error) {
	return s.tickets.ListWithFilter(ctx, repoFilter(&userID, filter))
}

// ListAllTickets returns tickets across all users, for admin triage.
func (s *LifecycleService) ListAllTickets(ctx context.Context, filter TicketListFilter) ([]domain.Ticket, error) {
	return s.tickets.ListWithFilter(ctx, repoFilter(nil, filter))
}

// GetTicketForUser fetches a ticket ensuring ownership. Admins may read any
// ticket.
func (s *LifecycleService) GetTicketForUser(ctx context.Context, user *domain.User, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.CreatedBy != user.ID && user.Role == domain.RoleUser {
		return nil, apperrors.NewForbidden("access denied")
	}
	return ticket, nil
}

// TransitionStatus writes the new status and stamps resolution metadata when
// entering resolved. There is no formal state machine: any target status is
// accepted, including reopening a resolved ticket, which surfaces to the
// creator as a "reopened" notification.
func (s *LifecycleService) TransitionStatus(ctx context.Context, ticketID string, newStatus domain.TicketStatus, changedBy string) (*domain.Ticket, error) {
	if !domain.ValidStatus(newStatus) {
		return nil, apperrors.NewValidationError("unknown status", map[string]any{"status": newStatus})
	}

	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}

	oldStatus := ticket.Status
	ticket.Status = newStatus
	if newStatus == domain.TicketStatusResolved {
		resolvedAt := s.now()
		ticket.ResolvedBy = &changedBy
		ticket.ResolvedAt = &resolvedAt
		// a human re-resolving a previously auto-resolved ticket clears the flag
		ticket.AutoResolved = changedBy == s.cfg.SystemActor
	}
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, err
	}

	if newStatus == domain.TicketStatusResolved {
		s.publishEvent(ctx, events.Event{
			Type:     events.EventTicketResolved,
			TicketID: ticket.ID,
			Actor:    changedBy,
			Payload: events.TicketResolvedPayload{
				Title:        ticket.Title,
				CreatedBy:    ticket.CreatedBy,
				ResolvedBy:   changedBy,
				Priority:     ticket.Priority,
				Category:     ticket.Category,
				AutoResolved: ticket.AutoResolved,
			},
		})
	} else {
		s.publishEvent(ctx, events.Event{
			Type:     events.EventTicketStatusChanged,
			TicketID: ticket.ID,
			Actor:    changedBy,
			Payload: events.TicketStatusChangedPayload{
				Title:     ticket.Title,
				CreatedBy: ticket.CreatedBy,
				OldStatus: oldStatus,
				NewStatus: newStatus,
				Priority:  ticket.Priority,
				Category:  ticket.Category,
			},
		})
	}
	return ticket, nil
}

// AutoResolveEligibleTickets sweeps stale open low/medium priority tickets
// into resolved as the system actor. Critical and high priority tickets are
// never auto-resolved regardless of age. Each resolution is attempted
// independently; one failure never blocks the rest.
func (s *LifecycleService) AutoResolveEligibleTickets(ctx context.Context) (*SweepSummary, error) {
	cutoff := s.now().Add(-s.cfg.AutoResolveAge())
	eligible, err := s.tickets.ListEligibleForAutoResolve(ctx, cutoff, s.cfg.SweepBatchLimit)
	if err != nil {
		return nil, err
	}

	summary := &SweepSummary{
		Eligible:  len(eligible),
		Attempted: make([]string, 0, len(eligible)),
	}
	for i := range eligible {
		ticket := &eligible[i]
		summary.Attempted = append(summary.Attempted, ticket.ID)
		if _, err := s.TransitionStatus(ctx, ticket.ID, domain.TicketStatusResolved, s.cfg.SystemActor); err != nil {
			summary.Failed++
			s.logger.Warn("auto-resolve ticket failed",
				zap.String("ticket_id", ticket.ID),
				zap.Error(err))
			continue
		}
		summary.Succeeded++
	}

	s.logger.Info("auto-resolution sweep finished",
		zap.Int("eligible", summary.Eligible),
		zap.Int("succeeded", summary.Succeeded),
		zap.Int("failed", summary.Failed))
	return summary, nil
}

func repoFilter(createdBy *string, filter TicketListFilter) repository.TicketFilter {
	return repository.TicketFilter{
		CreatedBy:   createdBy,
		Statuses:    filter.Statuses,
		Priorities:  filter.Priorities,
		Categories:  filter.Categories,
		CreatedFrom: filter.CreatedFrom,
		CreatedTo:   filter.CreatedTo,
		Limit:       filter.Limit,
		Offset:      filter.Offset,
	}
}

func (s *LifecycleService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = s.now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

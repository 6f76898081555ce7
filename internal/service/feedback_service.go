package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

// FeedbackService owns the existence check and submission of per-ticket
// feedback, and the feedback flag on the ticket record.
type FeedbackService struct {
	feedback   repository.FeedbackRepository
	tickets    repository.TicketRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
	now        func() time.Time
}

// FeedbackDependencies bundles requirements for the service.
type FeedbackDependencies struct {
	FeedbackRepo repository.FeedbackRepository
	TicketRepo   repository.TicketRepository
	Dispatcher   events.Dispatcher
	Logger       *zap.Logger
	Now          func() time.Time
}

// FeedbackInput describes a submission.
type FeedbackInput struct {
	Rating      int
	Suggestions string
}

// NewFeedbackService constructs the service.
func NewFeedbackService(deps FeedbackDependencies) *FeedbackService {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &FeedbackService{
		feedback:   deps.FeedbackRepo,
		tickets:    deps.TicketRepo,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
		now:        now,
	}
}

// Exists reports whether the user already submitted feedback for the ticket.
// A soft guard only; the unique index on (ticket_id, user_id) is what makes
// concurrent double-submits fail deterministically.
func (s *FeedbackService) Exists(ctx context.Context, ticketID, userID string) (bool, error) {
	return s.feedback.Exists(ctx, ticketID, userID)
}

// Submit validates and records feedback, then flags the originating ticket.
// The two writes are not transactional: a failure after the insert leaves the
// feedback recorded with the ticket flag unset, which the flag update on a
// retry cannot double-count because the insert conflicts first.
func (s *FeedbackService) Submit(ctx context.Context, ticketID, userID string, input FeedbackInput) (*domain.Feedback, error) {
	if input.Rating < domain.RatingMin || input.Rating > domain.RatingMax {
		return nil, apperrors.NewValidationError("rating must be between 1 and 5", map[string]any{"rating": input.Rating})
	}

	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.CreatedBy != userID {
		return nil, apperrors.NewForbidden("feedback is limited to the ticket creator")
	}

	fb := &domain.Feedback{
		TicketID:    ticket.ID,
		TicketTitle: ticket.Title,
		UserID:      userID,
		Rating:      input.Rating,
		Suggestions: strings.TrimSpace(input.Suggestions),
	}
	if err := s.feedback.Create(ctx, fb); err != nil {
		if apperrors.IsUniqueViolation(err) {
			return nil, apperrors.NewConflict("feedback already submitted for this ticket", nil)
		}
		return nil, err
	}

	if err := s.tickets.SetFeedbackSubmitted(ctx, ticket.ID, userID, s.now()); err != nil {
		// feedback is recorded; the missing flag is surfaced but not rolled back
		s.logger.Error("set feedback flag on ticket",
			zap.String("ticket_id", ticket.ID),
			zap.Error(err))
		return fb, err
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventFeedbackSubmitted,
		TicketID: ticket.ID,
		Actor:    userID,
		Payload: events.FeedbackSubmittedPayload{
			TicketTitle: ticket.Title,
			UserID:      userID,
			Rating:      input.Rating,
		},
	})
	return fb, nil
}

func (s *FeedbackService) publishEvent(ctx context.Context, event events.Event) {
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

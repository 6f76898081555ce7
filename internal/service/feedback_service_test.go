package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

type feedbackFixture struct {
	feedback *FeedbackService
	tickets  *fakeTicketRepo
	store    *fakeFeedbackRepo
	recorded *recordedEvents
}

func newFeedbackFixture(t *testing.T) *feedbackFixture {
	t.Helper()
	tickets := newFakeTicketRepo()
	store := newFakeFeedbackRepo()
	dispatcher := events.NewInMemoryDispatcher()
	recorded := &recordedEvents{}
	recorded.capture(dispatcher, events.EventFeedbackSubmitted)

	svc := NewFeedbackService(FeedbackDependencies{
		FeedbackRepo: store,
		TicketRepo:   tickets,
		Dispatcher:   dispatcher,
		Logger:       zap.NewNop(),
	})
	return &feedbackFixture{feedback: svc, tickets: tickets, store: store, recorded: recorded}
}

func (f *feedbackFixture) seedResolvedTicket(t *testing.T, createdBy string) *domain.Ticket {
	t.Helper()
	resolvedAt := time.Now()
	resolvedBy := "admin-9"
	ticket := &domain.Ticket{
		Title:       "Monitor flickers",
		Description: "intermittent",
		Category:    domain.TicketCategoryHardware,
		Priority:    domain.TicketPriorityLow,
		Status:      domain.TicketStatusResolved,
		CreatedBy:   createdBy,
		ResolvedBy:  &resolvedBy,
		ResolvedAt:  &resolvedAt,
	}
	require.NoError(t, f.tickets.Create(context.Background(), ticket))
	return ticket
}

func TestFeedbackExistsLifecycle(t *testing.T) {
	f := newFeedbackFixture(t)
	ctx := context.Background()
	ticket := f.seedResolvedTicket(t, "user-1")

	exists, err := f.feedback.Exists(ctx, ticket.ID, "user-1")
	require.NoError(t, err)
	assert.False(t, exists)

	fb, err := f.feedback.Submit(ctx, ticket.ID, "user-1", FeedbackInput{Rating: 4, Suggestions: "  quick fix, thanks  "})
	require.NoError(t, err)
	assert.Equal(t, 4, fb.Rating)
	assert.Equal(t, "quick fix, thanks", fb.Suggestions)
	assert.Equal(t, ticket.Title, fb.TicketTitle)

	exists, err = f.feedback.Exists(ctx, ticket.ID, "user-1")
	require.NoError(t, err)
	assert.True(t, exists)

	// the ticket carries the submission flag
	stored, err := f.tickets.GetByID(ctx, ticket.ID)
	require.NoError(t, err)
	assert.True(t, stored.FeedbackSubmitted)
	require.NotNil(t, stored.FeedbackSubmittedBy)
	assert.Equal(t, "user-1", *stored.FeedbackSubmittedBy)
	assert.NotNil(t, stored.FeedbackSubmittedAt)

	require.Len(t, f.recorded.events, 1)
	payload, ok := f.recorded.events[0].Payload.(events.FeedbackSubmittedPayload)
	require.True(t, ok)
	assert.Equal(t, 4, payload.Rating)
}

func TestFeedbackRatingBounds(t *testing.T) {
	f := newFeedbackFixture(t)
	ctx := context.Background()
	ticket := f.seedResolvedTicket(t, "user-1")

	for _, rating := range []int{0, -1, 6, 100} {
		_, err := f.feedback.Submit(ctx, ticket.ID, "user-1", FeedbackInput{Rating: rating})
		require.Error(t, err, "rating %d", rating)
		var domainErr *apperrors.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "VALIDATION_FAILED", domainErr.Code)
	}

	// boundary values pass
	_, err := f.feedback.Submit(ctx, ticket.ID, "user-1", FeedbackInput{Rating: 1})
	assert.NoError(t, err)
	other := f.seedResolvedTicket(t, "user-1")
	_, err = f.feedback.Submit(ctx, other.ID, "user-1", FeedbackInput{Rating: 5})
	assert.NoError(t, err)
}

func TestFeedbackLimitedToCreator(t *testing.T) {
	f := newFeedbackFixture(t)
	ticket := f.seedResolvedTicket(t, "user-1")

	_, err := f.feedback.Submit(context.Background(), ticket.ID, "user-2", FeedbackInput{Rating: 3})
	require.Error(t, err)
	var domainErr *apperrors.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "FORBIDDEN", domainErr.Code)
}

func TestFeedbackDoubleSubmitConflicts(t *testing.T) {
	f := newFeedbackFixture(t)
	ctx := context.Background()
	ticket := f.seedResolvedTicket(t, "user-1")

	_, err := f.feedback.Submit(ctx, ticket.ID, "user-1", FeedbackInput{Rating: 5})
	require.NoError(t, err)

	_, err = f.feedback.Submit(ctx, ticket.ID, "user-1", FeedbackInput{Rating: 2})
	require.Error(t, err)
	var domainErr *apperrors.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "CONFLICT", domainErr.Code)
}

func TestFeedbackUnknownTicket(t *testing.T) {
	f := newFeedbackFixture(t)
	_, err := f.feedback.Submit(context.Background(), "missing", "user-1", FeedbackInput{Rating: 3})
	assert.Error(t, err)
}

package service

import (
	"context"

	"github.com/spec-kit/helpdesk-service/internal/repository"
)

// AnalyticsSummary aggregates ticket and feedback figures for manager
// dashboards.
type AnalyticsSummary struct {
	ByStatus      map[string]int64 `json:"by_status"`
	ByPriority    map[string]int64 `json:"by_priority"`
	ByCategory    map[string]int64 `json:"by_category"`
	AutoResolved  int64            `json:"auto_resolved"`
	FeedbackCount int64            `json:"feedback_count"`
	AverageRating float64          `json:"average_rating"`
}

// AnalyticsService reads aggregate views over tickets and feedback.
type AnalyticsService struct {
	tickets  repository.TicketRepository
	feedback repository.FeedbackRepository
}

// NewAnalyticsService constructs the service.
func NewAnalyticsService(tickets repository.TicketRepository, feedback repository.FeedbackRepository) *AnalyticsService {
	return &AnalyticsService{tickets: tickets, feedback: feedback}
}

// Summary aggregates current counts.
func (s *AnalyticsService) Summary(ctx context.Context) (*AnalyticsSummary, error) {
	byStatus, err := s.tickets.CountsBy(ctx, "status")
	if err != nil {
		return nil, err
	}
	byPriority, err := s.tickets.CountsBy(ctx, "priority")
	if err != nil {
		return nil, err
	}
	byCategory, err := s.tickets.CountsBy(ctx, "category")
	if err != nil {
		return nil, err
	}
	autoResolved, err := s.tickets.CountAutoResolved(ctx)
	if err != nil {
		return nil, err
	}
	stats, err := s.feedback.Stats(ctx)
	if err != nil {
		return nil, err
	}

	return &AnalyticsSummary{
		ByStatus:      byStatus,
		ByPriority:    byPriority,
		ByCategory:    byCategory,
		AutoResolved:  autoResolved,
		FeedbackCount: stats.Count,
		AverageRating: stats.Average,
	}, nil
}

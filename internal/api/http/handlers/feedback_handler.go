package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/api/dto"
	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/service"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

// FeedbackHandler serves the feedback guard and submission endpoints.
type FeedbackHandler struct {
	feedback *service.FeedbackService
}

// NewFeedbackHandler constructs handler.
func NewFeedbackHandler(feedback *service.FeedbackService) *FeedbackHandler {
	return &FeedbackHandler{feedback: feedback}
}

// Exists GET /tickets/:id/feedback/exists.
func (h *FeedbackHandler) Exists(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	exists, err := h.feedback.Exists(c.UserContext(), c.Params("id"), principal.User.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.FeedbackExistsResponse{Exists: exists}})
}

// Submit POST /tickets/:id/feedback.
func (h *FeedbackHandler) Submit(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.SubmitFeedbackRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	fb, err := h.feedback.Submit(c.UserContext(), c.Params("id"), principal.User.ID, service.FeedbackInput{
		Rating:      req.Rating,
		Suggestions: req.Suggestions,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": feedbackResponse(fb)})
}

func feedbackResponse(fb *domain.Feedback) dto.FeedbackResponse {
	return dto.FeedbackResponse{
		ID:          fb.ID,
		TicketID:    fb.TicketID,
		TicketTitle: fb.TicketTitle,
		Rating:      fb.Rating,
		Suggestions: fb.Suggestions,
		CreatedAt:   fb.CreatedAt,
	}
}

package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/akademia-app/exam-api/internal/dto"
	"github.com/akademia-app/exam-api/internal/service"
	"github.com/akademia-app/exam-api/internal/utils"
)

// GradingHandler wires the staff-only manual grading route.
type GradingHandler struct {
	service service.GradingService
	logger  zerolog.Logger
}

// NewGradingHandler constructs the handler.
func NewGradingHandler(service service.GradingService, logger zerolog.Logger) *GradingHandler {
	return &GradingHandler{
		service: service,
		logger:  logger.With().Str("component", "grading_handler").Logger(),
	}
}

// Register attaches grading endpoints.
func (h *GradingHandler) Register(answers fiber.Router) {
	answers.Post("/:id/grade", h.gradeManual)
}

func (h *GradingHandler) gradeManual(c *fiber.Ctx) error {
	answerID, err := parseUUIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.ManualGradeRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	attempt, err := h.service.GradeManualAnswer(c.Context(), actorFromContext(c), answerID, payload)
	if err != nil {
		return respondServiceError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "answer graded", attempt)
}

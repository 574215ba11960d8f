package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/akademia-app/exam-api/internal/dto"
	"github.com/akademia-app/exam-api/internal/service"
	"github.com/akademia-app/exam-api/internal/utils"
)

// AttemptHandler wires attempt lifecycle HTTP routes.
type AttemptHandler struct {
	service service.AttemptService
	logger  zerolog.Logger
}

// NewAttemptHandler constructs the handler.
func NewAttemptHandler(service service.AttemptService, logger zerolog.Logger) *AttemptHandler {
	return &AttemptHandler{
		service: service,
		logger:  logger.With().Str("component", "attempt_handler").Logger(),
	}
}

// Register attaches attempt endpoints.
func (h *AttemptHandler) Register(assignments fiber.Router, attempts fiber.Router) {
	assignments.Post("/:id/attempts", h.start)
	attempts.Get("/:id", h.get)
	attempts.Put("/:id/answers", h.saveAnswers)
	attempts.Post("/:id/submit", h.submit)
}

func (h *AttemptHandler) start(c *fiber.Ctx) error {
	assignmentID, err := parseUUIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	attempt, err := h.service.Start(c.Context(), actorFromContext(c), assignmentID)
	if err != nil {
		return respondServiceError(c, h.logger, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "attempt started", attempt)
}

func (h *AttemptHandler) get(c *fiber.Ctx) error {
	attemptID, err := parseUUIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	attempt, err := h.service.Get(c.Context(), actorFromContext(c), attemptID)
	if err != nil {
		return respondServiceError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "attempt retrieved", attempt)
}

func (h *AttemptHandler) saveAnswers(c *fiber.Ctx) error {
	attemptID, err := parseUUIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.SaveAnswersRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	if err := h.service.SaveAnswers(c.Context(), actorFromContext(c), attemptID, payload); err != nil {
		return respondServiceError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "answers saved", fiber.Map{"attempt_id": attemptID})
}

func (h *AttemptHandler) submit(c *fiber.Ctx) error {
	attemptID, err := parseUUIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	attempt, err := h.service.Submit(c.Context(), actorFromContext(c), attemptID)
	if err != nil {
		return respondServiceError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "attempt submitted", attempt)
}

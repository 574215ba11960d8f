package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/akademia-app/exam-api/internal/service"
	"github.com/akademia-app/exam-api/internal/utils"
)

// respondServiceError translates engine error kinds into HTTP statuses.
// Not-found covers cross-tenant ids so foreign tenants cannot probe for
// existence; guard violations map to 409 because the request was well formed
// but the state machine refused it.
func respondServiceError(c *fiber.Ctx, logger zerolog.Logger, err error) error {
	switch {
	case errors.Is(err, service.ErrExamNotFound),
		errors.Is(err, service.ErrAssignmentNotFound),
		errors.Is(err, service.ErrAttemptNotFound),
		errors.Is(err, service.ErrAnswerNotFound),
		errors.Is(err, service.ErrQuestionNotFound):
		return utils.SendError(c, fiber.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrForbidden):
		return utils.SendError(c, fiber.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrWindowClosed),
		errors.Is(err, service.ErrAttemptLimitExceeded),
		errors.Is(err, service.ErrAttemptInProgress),
		errors.Is(err, service.ErrInvalidState),
		errors.Is(err, service.ErrInvalidAnswerType),
		errors.Is(err, service.ErrExamLocked):
		return utils.SendError(c, fiber.StatusConflict, err.Error())
	case errors.Is(err, service.ErrWindowOrder),
		errors.Is(err, service.ErrAssignmentTarget),
		errors.Is(err, service.ErrScoreOutOfRange),
		errors.Is(err, service.ErrQuestionNotInExam),
		isValidationError(err):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	default:
		logger.Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}

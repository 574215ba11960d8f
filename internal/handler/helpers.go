package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/akademia-app/exam-api/internal/middleware"
	"github.com/akademia-app/exam-api/internal/service"
)

func parseUUIDParam(c *fiber.Ctx, name string) (uuid.UUID, error) {
	parsed, err := uuid.Parse(c.Params(name))
	if err != nil {
		return uuid.Nil, errors.New("invalid identifier")
	}
	return parsed, nil
}

func uuidFromLocals(c *fiber.Ctx, key string) uuid.UUID {
	if value := c.Locals(key); value != nil {
		if id, ok := value.(uuid.UUID); ok {
			return id
		}
		if raw, ok := value.(string); ok {
			if id, err := uuid.Parse(raw); err == nil {
				return id
			}
		}
	}
	return uuid.Nil
}

func roleFromLocals(c *fiber.Ctx) string {
	if value := c.Locals(middleware.LocalsUserRole); value != nil {
		if role, ok := value.(string); ok {
			return role
		}
	}
	return ""
}

func actorFromContext(c *fiber.Ctx) service.Actor {
	return service.Actor{
		ID:        uuidFromLocals(c, middleware.LocalsUserID),
		AcademyID: uuidFromLocals(c, middleware.LocalsAcademyID),
		Role:      roleFromLocals(c),
	}
}

func isValidationError(err error) bool {
	var validationErrors validator.ValidationErrors
	return errors.As(err, &validationErrors)
}

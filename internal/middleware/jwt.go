package middleware

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/akademia-app/exam-api/internal/utils"
)

// Locals keys populated by the JWT middleware.
const (
	LocalsUserID    = "user_id"
	LocalsAcademyID = "academy_id"
	LocalsUserRole  = "user_role"
)

// JWTProtected returns a middleware that validates JWT bearer tokens and
// extracts the caller's identity, role and academy scope.
func JWTProtected(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authorization := c.Get("Authorization")
		if authorization == "" {
			return utils.SendError(c, fiber.StatusUnauthorized, "authorization header missing")
		}

		const bearer = "Bearer "
		if !strings.HasPrefix(strings.ToLower(authorization), strings.ToLower(bearer)) {
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid authorization header")
		}

		tokenString := strings.TrimSpace(authorization[len(bearer):])
		if tokenString == "" {
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid token")
		}

		token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method")
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid token")
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid token claims")
		}

		userID, ok := extractUUIDClaim(claims, "sub", "user_id")
		if !ok {
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid subject")
		}

		academyID, ok := extractUUIDClaim(claims, "academy_id", "tenant_id")
		if !ok {
			return utils.SendError(c, fiber.StatusUnauthorized, "missing academy scope")
		}

		c.Locals(LocalsUserID, userID)
		c.Locals(LocalsAcademyID, academyID)
		if role := extractRoleClaim(claims); role != "" {
			c.Locals(LocalsUserRole, role)
		}

		return c.Next()
	}
}

func extractUUIDClaim(claims jwt.MapClaims, keys ...string) (uuid.UUID, bool) {
	for _, key := range keys {
		value, ok := claims[key]
		if !ok {
			continue
		}
		raw, ok := value.(string)
		if !ok {
			continue
		}
		parsed, err := uuid.Parse(strings.TrimSpace(raw))
		if err == nil {
			return parsed, true
		}
	}

	return uuid.Nil, false
}

func extractRoleClaim(claims jwt.MapClaims) string {
	for _, key := range []string{"role", "roles"} {
		value, ok := claims[key]
		if !ok {
			continue
		}
		switch v := value.(type) {
		case string:
			if role := strings.ToLower(strings.TrimSpace(v)); role != "" {
				return role
			}
		case []interface{}:
			for _, item := range v {
				if str, ok := item.(string); ok {
					if role := strings.ToLower(strings.TrimSpace(str)); role != "" {
						return role
					}
				}
			}
		}
	}

	return ""
}

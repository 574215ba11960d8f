package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func jwtTestApp() (*fiber.App, *struct {
	userID    uuid.UUID
	academyID uuid.UUID
	role      string
}) {
	captured := &struct {
		userID    uuid.UUID
		academyID uuid.UUID
		role      string
	}{}

	app := fiber.New()
	app.Use(JWTProtected(testSecret))
	app.Get("/", func(c *fiber.Ctx) error {
		captured.userID, _ = c.Locals(LocalsUserID).(uuid.UUID)
		captured.academyID, _ = c.Locals(LocalsAcademyID).(uuid.UUID)
		captured.role, _ = c.Locals(LocalsUserRole).(string)
		return c.SendStatus(fiber.StatusOK)
	})
	return app, captured
}

func TestJWTProtectedExtractsIdentity(t *testing.T) {
	app, captured := jwtTestApp()

	userID := uuid.New()
	academyID := uuid.New()
	token := signToken(t, jwt.MapClaims{
		"sub":        userID.String(),
		"academy_id": academyID.String(),
		"role":       "Teacher",
		"exp":        time.Now().Add(time.Hour).Unix(),
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, userID, captured.userID)
	require.Equal(t, academyID, captured.academyID)
	require.Equal(t, "teacher", captured.role)
}

func TestJWTProtectedRejectsMissingHeader(t *testing.T) {
	app, _ := jwtTestApp()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestJWTProtectedRejectsBadSignature(t *testing.T) {
	app, _ := jwtTestApp()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":        uuid.New().String(),
		"academy_id": uuid.New().String(),
	})
	signed, err := token.SignedString([]byte("wrong-secret"))
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestJWTProtectedRequiresAcademyScope(t *testing.T) {
	app, _ := jwtTestApp()

	token := signToken(t, jwt.MapClaims{
		"sub": uuid.New().String(),
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestJWTProtectedAcceptsTenantAlias(t *testing.T) {
	app, captured := jwtTestApp()

	academyID := uuid.New()
	token := signToken(t, jwt.MapClaims{
		"user_id":   uuid.New().String(),
		"tenant_id": academyID.String(),
		"exp":       time.Now().Add(time.Hour).Unix(),
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, academyID, captured.academyID)
}

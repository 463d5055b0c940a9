package middleware

import (
	"fmt"
	"net/http/httptest"
	"testing"

	"lms/config"
	attemptService "lms/services/attempt"
	progressService "lms/services/progress"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{&attemptService.ValidationError{Field: "score", Reason: "too high"}, fiber.StatusUnprocessableEntity},
		{attemptService.ErrQuizNotPublished, fiber.StatusUnprocessableEntity},
		{attemptService.ErrInvalidDuration, fiber.StatusUnprocessableEntity},
		{attemptService.ErrAttemptNotFound, fiber.StatusNotFound},
		{fmt.Errorf("load: %w", attemptService.ErrOptionNotFound), fiber.StatusNotFound},
		{progressService.ErrContentNotFound, fiber.StatusNotFound},
		{attemptService.ErrInvalidStateTransition, fiber.StatusConflict},
		{attemptService.ErrAttemptNotActive, fiber.StatusConflict},
		{attemptService.ErrAttemptExpired, fiber.StatusConflict},
		{attemptService.ErrDuplicateAnswer, fiber.StatusConflict},
		{attemptService.ErrManualReviewRequired, fiber.StatusConflict},
		{progressService.ErrAlreadyEnrolled, fiber.StatusConflict},
		{progressService.ErrNotEnrolled, fiber.StatusForbidden},
		{attemptService.ErrLockTimeout, fiber.StatusInternalServerError},
		{fmt.Errorf("connection reset"), fiber.StatusInternalServerError},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, StatusFor(tt.err), tt.err.Error())
	}
}

func newAuthApp() *fiber.App {
	config.AppConfig = &config.Config{JWTKey: "test-secret"}

	app := fiber.New()
	app.Get("/me", JWTMiddleware, func(c *fiber.Ctx) error {
		return c.SendString(fmt.Sprintf("%d/%s/%t", c.Locals("userId").(uint), c.Locals("role").(string), IsStaff(c)))
	})
	app.Get("/staff", JWTMiddleware, RequireRole(RoleInstructor, RoleAdmin), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})
	return app
}

func TestJWTMiddleware(t *testing.T) {
	app := newAuthApp()

	token, err := GenerateJWT(12, "instructor")
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	body := make([]byte, 64)
	n, _ := resp.Body.Read(body)
	assert.Equal(t, "12/INSTRUCTOR/true", string(body[:n]))

	for _, header := range []string{"", "Token " + token, "Bearer not-a-jwt"} {
		req := httptest.NewRequest("GET", "/me", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode, header)
	}
}

func TestRequireRole(t *testing.T) {
	app := newAuthApp()

	student, err := GenerateJWT(3, RoleStudent)
	require.NoError(t, err)
	admin, err := GenerateJWT(4, RoleAdmin)
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/staff", nil)
	req.Header.Set("Authorization", "Bearer "+student)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	req = httptest.NewRequest("GET", "/staff", nil)
	req.Header.Set("Authorization", "Bearer "+admin)
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
}

package middleware

import (
	"errors"
	"log"

	attemptService "lms/services/attempt"
	progressService "lms/services/progress"

	"github.com/gofiber/fiber/v2"
)

func JsonResponse(c *fiber.Ctx, statusCode int, status bool, message string, data interface{}) error {
	return c.Status(statusCode).JSON(fiber.Map{
		"status":  status,
		"message": message,
		"data":    data,
	})
}

func ValidationErrorResponse(c *fiber.Ctx, errors map[string]string) error {
	return JsonResponse(c, fiber.StatusUnprocessableEntity, false, "Validation failed!", errors)
}

// StatusFor maps a service error to its HTTP status code.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, attemptService.ErrValidationFailed),
		errors.Is(err, attemptService.ErrQuizNotPublished),
		errors.Is(err, attemptService.ErrInvalidDuration):
		return fiber.StatusUnprocessableEntity

	case attemptService.IsNotFound(err),
		errors.Is(err, progressService.ErrCourseNotFound),
		errors.Is(err, progressService.ErrContentNotFound),
		errors.Is(err, progressService.ErrEnrollmentNotFound):
		return fiber.StatusNotFound

	case errors.Is(err, attemptService.ErrInvalidStateTransition),
		errors.Is(err, attemptService.ErrAttemptNotActive),
		errors.Is(err, attemptService.ErrAttemptExpired),
		errors.Is(err, attemptService.ErrDuplicateAnswer),
		errors.Is(err, attemptService.ErrDuplicateAttempt),
		errors.Is(err, attemptService.ErrManualReviewRequired),
		errors.Is(err, progressService.ErrAlreadyEnrolled),
		errors.Is(err, progressService.ErrAlreadyCompleted):
		return fiber.StatusConflict

	case errors.Is(err, progressService.ErrNotEnrolled):
		return fiber.StatusForbidden
	}
	return fiber.StatusInternalServerError
}

// ServiceErrorResponse writes err using the status from StatusFor.
// Field-scoped validation errors keep the JsonResponse validation shape.
func ServiceErrorResponse(c *fiber.Ctx, err error) error {
	var ve *attemptService.ValidationError
	if errors.As(err, &ve) {
		return ValidationErrorResponse(c, map[string]string{ve.Field: ve.Reason})
	}

	status := StatusFor(err)
	if status == fiber.StatusInternalServerError {
		log.Printf("[HTTP] %s %s failed: %v", c.Method(), c.Path(), err)
		return JsonResponse(c, status, false, "Something went wrong, please try again!", nil)
	}
	return JsonResponse(c, status, false, err.Error(), nil)
}

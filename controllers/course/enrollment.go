package controllers

import (
	"lms/middleware"
	progressService "lms/services/progress"

	"github.com/gofiber/fiber/v2"
)

// ProgressController handles enrollment and content completion, the inputs
// of Enrollment.progress_percentage.
type ProgressController struct {
	Progress *progressService.Tracker
}

func NewProgressController(progress *progressService.Tracker) *ProgressController {
	return &ProgressController{Progress: progress}
}

func (ctl *ProgressController) EnrollInCourse(c *fiber.Ctx) error {
	// Retrieve userId from JWT middleware
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	// Retrieve validated course ID
	courseID := c.Locals("courseID").(uint)

	enrollment, err := ctl.Progress.Enroll(c.UserContext(), userID, courseID)
	if err != nil {
		return middleware.ServiceErrorResponse(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Enrolled in course successfully!", enrollment)
}

func (ctl *ProgressController) MarkContentComplete(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	courseID := c.Locals("courseID").(uint)
	contentID := c.Locals("contentID").(uint)

	enrollment, err := ctl.Progress.MarkContentComplete(c.UserContext(), userID, courseID, contentID)
	if err != nil {
		return middleware.ServiceErrorResponse(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Content marked as completed successfully!", enrollment)
}

// GetUserProgress gets the user's progress and final grade in a course
func (ctl *ProgressController) GetUserProgress(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	courseID := c.Locals("courseID").(uint)

	enrollment, err := ctl.Progress.Get(c.UserContext(), userID, courseID)
	if err != nil {
		return middleware.ServiceErrorResponse(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Progress fetched successfully!", enrollment)
}

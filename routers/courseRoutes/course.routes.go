package courseRoutes

import (
	controllers "lms/controllers/course"
	"lms/middleware"
	validators "lms/validators/course"

	"github.com/gofiber/fiber/v2"
)

// SetupCourseRoutes sets up the enrollment and progress routes
func SetupCourseRoutes(app *fiber.App, ctl *controllers.ProgressController) {
	userGroup := app.Group("/course")

	// Enrollment
	userGroup.Post("/:id/enroll", middleware.JWTMiddleware, validators.EnrollCourse(), ctl.EnrollInCourse)

	// Content completion
	userGroup.Post("/:course_id/content/:content_id/complete", middleware.JWTMiddleware, validators.MarkContentComplete(), ctl.MarkContentComplete)

	// Progress tracking
	userGroup.Get("/:course_id/progress", middleware.JWTMiddleware, validators.GetCourseProgress(), ctl.GetUserProgress)
}

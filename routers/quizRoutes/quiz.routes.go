package quizRoutes

import (
	controllers "lms/controllers/quiz"
	"lms/middleware"
	validators "lms/validators/quiz"

	"github.com/gofiber/fiber/v2"
)

// SetupQuizRoutes sets up the attempt lifecycle routes
func SetupQuizRoutes(app *fiber.App, ctl *controllers.AttemptController) {
	staff := middleware.RequireRole(middleware.RoleInstructor, middleware.RoleAdmin)

	// Student flow
	app.Post("/quiz/:quiz_id/attempts/start", middleware.JWTMiddleware, validators.StartAttempt(), ctl.StartAttempt)

	attemptGroup := app.Group("/attempts", middleware.JWTMiddleware)
	attemptGroup.Post("/:attempt_id/answers", validators.RecordAnswer(), ctl.RecordAnswer)
	attemptGroup.Post("/:attempt_id/submit", validators.AttemptID(), ctl.SubmitAttempt)
	attemptGroup.Get("/:attempt_id", validators.AttemptID(), ctl.GetAttempt)

	// Grading
	attemptGroup.Get("/", staff, validators.ListAttempts(), ctl.ListAttempts)
	attemptGroup.Post("/:attempt_id/grade", staff, validators.GradeAttempt(), ctl.GradeAttempt)
	attemptGroup.Post("/:attempt_id/answers/:question_id/score", staff, validators.ScoreAnswer(), ctl.ScoreAnswer)
}

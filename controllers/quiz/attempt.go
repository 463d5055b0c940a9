package controllers

import (
	"lms/middleware"
	courseModels "lms/models/course"
	attemptService "lms/services/attempt"
	quizValidator "lms/validators/quiz"

	"github.com/gofiber/fiber/v2"
)

// AttemptController exposes the attempt lifecycle over HTTP. The caller's
// identity comes from the JWT middleware and is passed to the service
// explicitly.
type AttemptController struct {
	Attempts *attemptService.Manager
}

func NewAttemptController(attempts *attemptService.Manager) *AttemptController {
	return &AttemptController{Attempts: attempts}
}

// StartAttempt starts a new attempt of a quiz for the caller
func (ctl *AttemptController) StartAttempt(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}
	quizID := c.Locals("quizID").(uint)

	attempt, err := ctl.Attempts.Start(c.UserContext(), quizID, userID)
	if err != nil {
		return middleware.ServiceErrorResponse(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Attempt started!", attempt)
}

// RecordAnswer stores one answer of an in-progress attempt
func (ctl *AttemptController) RecordAnswer(c *fiber.Ctx) error {
	attemptID := c.Locals("attemptID").(uint)
	if ok, err := ctl.ownsAttempt(c, attemptID); !ok {
		return err
	}

	reqData := c.Locals("validatedAnswer").(*quizValidator.RecordAnswerRequest)

	answer, err := ctl.Attempts.RecordAnswer(c.UserContext(), attemptID, reqData.QuestionID, reqData.Payload())
	if err != nil {
		return middleware.ServiceErrorResponse(c, err)
	}
	if !middleware.IsStaff(c) {
		answer.HideGrading()
	}

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Answer recorded!", answer)
}

// SubmitAttempt submits an attempt; repeating it is harmless
func (ctl *AttemptController) SubmitAttempt(c *fiber.Ctx) error {
	attemptID := c.Locals("attemptID").(uint)
	if ok, err := ctl.ownsAttempt(c, attemptID); !ok {
		return err
	}

	attempt, err := ctl.Attempts.Submit(c.UserContext(), attemptID)
	if err != nil {
		return middleware.ServiceErrorResponse(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Attempt submitted!", attempt)
}

// GradeAttempt grades a submitted attempt, manually or automatically
func (ctl *AttemptController) GradeAttempt(c *fiber.Ctx) error {
	graderID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}
	attemptID := c.Locals("attemptID").(uint)
	reqData := c.Locals("validatedGrade").(*quizValidator.GradeAttemptRequest)

	attempt, err := ctl.Attempts.Grade(c.UserContext(), attemptID, attemptService.GradeInput{
		Score:    reqData.Score,
		IsPassed: reqData.IsPassed,
	}, &graderID)
	if err != nil {
		return middleware.ServiceErrorResponse(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Attempt graded!", attempt)
}

// ScoreAnswer records a reviewed score for one answer
func (ctl *AttemptController) ScoreAnswer(c *fiber.Ctx) error {
	graderID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}
	attemptID := c.Locals("attemptID").(uint)
	questionID := c.Locals("questionID").(uint)
	reqData := c.Locals("validatedScore").(*quizValidator.ScoreAnswerRequest)

	answer, err := ctl.Attempts.ScoreAnswer(c.UserContext(), attemptID, questionID, *reqData.Score, graderID)
	if err != nil {
		return middleware.ServiceErrorResponse(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Answer scored!", answer)
}

// GetAttempt returns an attempt with its answers and remaining time
func (ctl *AttemptController) GetAttempt(c *fiber.Ctx) error {
	attemptID := c.Locals("attemptID").(uint)
	if ok, err := ctl.ownsAttempt(c, attemptID); !ok {
		return err
	}

	view, err := ctl.Attempts.Get(c.UserContext(), attemptID)
	if err != nil {
		return middleware.ServiceErrorResponse(c, err)
	}

	// Correctness stays hidden from students until the attempt is graded
	if !middleware.IsStaff(c) && view.Status != courseModels.AttemptGraded {
		for i := range view.Answers {
			view.Answers[i].HideGrading()
		}
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Attempt fetched successfully!", view)
}

// ListAttempts lists attempts matching the validated filter
func (ctl *AttemptController) ListAttempts(c *fiber.Ctx) error {
	filter := c.Locals("attemptFilter").(attemptService.AttemptFilter)

	attempts, total, err := ctl.Attempts.List(c.UserContext(), filter)
	if err != nil {
		return middleware.ServiceErrorResponse(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Attempts fetched successfully!", fiber.Map{
		"attempts": attempts,
		"total":    total,
	})
}

// ownsAttempt lets students act only on their own attempts; staff pass.
// On false the error response has already been written.
func (ctl *AttemptController) ownsAttempt(c *fiber.Ctx, attemptID uint) (bool, error) {
	if middleware.IsStaff(c) {
		return true, nil
	}
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return false, middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	view, err := ctl.Attempts.Get(c.UserContext(), attemptID)
	if err != nil {
		return false, middleware.ServiceErrorResponse(c, err)
	}
	if view.StudentID != userID {
		return false, middleware.JsonResponse(c, fiber.StatusForbidden, false, "This attempt belongs to another student!", nil)
	}
	return true, nil
}

package quizValidator

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"lms/middleware"
	courseModels "lms/models/course"
	attemptService "lms/services/attempt"

	"github.com/gofiber/fiber/v2"
)

// RecordAnswerRequest is the body of an answer submission.
type RecordAnswerRequest struct {
	QuestionID       uint            `json:"question_id" validate:"required,gt=0"`
	SelectedOptionID *uint           `json:"selected_option_id" validate:"omitempty,gt=0"`
	BooleanAnswer    *bool           `json:"boolean_answer"`
	AnswerText       json.RawMessage `json:"answer_text"`
}

func (r RecordAnswerRequest) Payload() attemptService.AnswerPayload {
	return attemptService.AnswerPayload{
		SelectedOptionID: r.SelectedOptionID,
		BooleanAnswer:    r.BooleanAnswer,
		AnswerText:       r.AnswerText,
	}
}

// GradeAttemptRequest is empty for auto-grading.
type GradeAttemptRequest struct {
	Score    *int  `json:"score" validate:"omitempty,gte=0"`
	IsPassed *bool `json:"is_passed"`
}

type ScoreAnswerRequest struct {
	Score *int `json:"score" validate:"required,gte=0"`
}

type listAttemptsQuery struct {
	QuizID    uint   `query:"quiz_id" validate:"omitempty,gt=0"`
	StudentID uint   `query:"student_id" validate:"omitempty,gt=0"`
	Status    string `query:"status" validate:"omitempty,oneof=in_progress submitted graded"`
	StartedOn string `query:"started_on" validate:"omitempty,datetime=2006-01-02"`
	Limit     int    `query:"limit" validate:"omitempty,min=1,max=100"`
	Offset    int    `query:"offset" validate:"omitempty,min=0"`
}

func parseID(c *fiber.Ctx, param string) (uint, bool) {
	raw := strings.TrimSpace(c.Params(param))
	if raw == "" {
		return 0, false
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

func StartAttempt() fiber.Handler {
	return func(c *fiber.Ctx) error {
		quizID, ok := parseID(c, "quiz_id")
		if !ok {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid Quiz ID!", nil)
		}
		c.Locals("quizID", quizID)
		return c.Next()
	}
}

// AttemptID validates the :attempt_id route parameter.
func AttemptID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		attemptID, ok := parseID(c, "attempt_id")
		if !ok {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid Attempt ID!", nil)
		}
		c.Locals("attemptID", attemptID)
		return c.Next()
	}
}

func RecordAnswer() fiber.Handler {
	return func(c *fiber.Ctx) error {
		attemptID, ok := parseID(c, "attempt_id")
		if !ok {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid Attempt ID!", nil)
		}

		reqData := new(RecordAnswerRequest)
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}
		if err := middleware.Validate.Struct(reqData); err != nil {
			return middleware.StructValidationResponse(c, err)
		}

		c.Locals("attemptID", attemptID)
		c.Locals("validatedAnswer", reqData)
		return c.Next()
	}
}

func GradeAttempt() fiber.Handler {
	return func(c *fiber.Ctx) error {
		attemptID, ok := parseID(c, "attempt_id")
		if !ok {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid Attempt ID!", nil)
		}

		reqData := new(GradeAttemptRequest)
		if len(c.Body()) > 0 {
			if err := c.BodyParser(reqData); err != nil {
				return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
			}
		}
		if err := middleware.Validate.Struct(reqData); err != nil {
			return middleware.StructValidationResponse(c, err)
		}

		errors := make(map[string]string)
		if reqData.Score != nil && reqData.IsPassed == nil {
			errors["is_passed"] = "is_passed is required together with score!"
		}
		if reqData.IsPassed != nil && reqData.Score == nil {
			errors["score"] = "score is required together with is_passed!"
		}
		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("attemptID", attemptID)
		c.Locals("validatedGrade", reqData)
		return c.Next()
	}
}

func ScoreAnswer() fiber.Handler {
	return func(c *fiber.Ctx) error {
		attemptID, ok := parseID(c, "attempt_id")
		if !ok {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid Attempt ID!", nil)
		}
		questionID, ok := parseID(c, "question_id")
		if !ok {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid Question ID!", nil)
		}

		reqData := new(ScoreAnswerRequest)
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}
		if err := middleware.Validate.Struct(reqData); err != nil {
			return middleware.StructValidationResponse(c, err)
		}

		c.Locals("attemptID", attemptID)
		c.Locals("questionID", questionID)
		c.Locals("validatedScore", reqData)
		return c.Next()
	}
}

// ListAttempts turns the query string into an attempt filter.
func ListAttempts() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(listAttemptsQuery)
		if err := c.QueryParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid query parameters!", nil)
		}
		if err := middleware.Validate.Struct(reqData); err != nil {
			return middleware.StructValidationResponse(c, err)
		}

		filter := attemptService.AttemptFilter{
			Limit:  reqData.Limit,
			Offset: reqData.Offset,
		}
		if reqData.QuizID > 0 {
			filter.QuizID = &reqData.QuizID
		}
		if reqData.StudentID > 0 {
			filter.StudentID = &reqData.StudentID
		}
		if reqData.Status != "" {
			status := courseModels.AttemptStatus(reqData.Status)
			filter.Status = &status
		}
		if reqData.StartedOn != "" {
			day, err := time.Parse("2006-01-02", reqData.StartedOn)
			if err != nil {
				return middleware.ValidationErrorResponse(c, map[string]string{"started_on": "Must be a date formatted as 2006-01-02!"})
			}
			filter.StartedOn = &day
		}

		c.Locals("attemptFilter", filter)
		return c.Next()
	}
}

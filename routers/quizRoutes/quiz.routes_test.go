package quizRoutes

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http/httptest"
	"testing"

	"lms/config"
	controllers "lms/controllers/quiz"
	"lms/database"
	"lms/events"
	"lms/middleware"
	courseModels "lms/models/course"
	attemptService "lms/services/attempt"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type envelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type testServer struct {
	t          *testing.T
	app        *fiber.App
	quiz       courseModels.Quiz
	question   courseModels.Question
	student    string
	classmate  string
	instructor string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	config.AppConfig = &config.Config{JWTKey: "test-secret"}

	db, err := database.OpenInMemory(uuid.NewString())
	require.NoError(t, err)
	bus := events.NewBus(1, 16)
	t.Cleanup(func() {
		bus.Close()
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	s := &testServer{t: t}
	s.quiz = courseModels.Quiz{CourseID: 1, Title: "Fractions", DurationMinutes: 30, PassingScore: 10, MaxScore: 15, Status: courseModels.QuizPublished, AutoGradeEnabled: true}
	require.NoError(t, db.Create(&s.quiz).Error)
	expected := true
	s.question = courseModels.Question{QuizID: s.quiz.ID, Type: courseModels.QuestionTrueFalse, Text: "2/4 equals 1/2", Point: 15, ExpectedBoolean: &expected}
	require.NoError(t, db.Create(&s.question).Error)

	manager := attemptService.NewManager(db, attemptService.NewSequencer(0), attemptService.NewAnswerValidator(),
		attemptService.NewGradingEngine(true), bus, false)

	s.app = fiber.New()
	SetupQuizRoutes(s.app, controllers.NewAttemptController(manager))

	s.student = s.token(501, middleware.RoleStudent)
	s.classmate = s.token(502, middleware.RoleStudent)
	s.instructor = s.token(900, middleware.RoleInstructor)
	return s
}

func (s *testServer) token(userID uint, role string) string {
	token, err := middleware.GenerateJWT(userID, role)
	require.NoError(s.t, err)
	return token
}

func (s *testServer) do(method, path, token string, body interface{}) (int, envelope) {
	s.t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(s.t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := s.app.Test(req, -1)
	require.NoError(s.t, err)
	defer resp.Body.Close()

	var env envelope
	require.NoError(s.t, json.NewDecoder(resp.Body).Decode(&env))
	return resp.StatusCode, env
}

func TestAttemptFlow(t *testing.T) {
	s := newTestServer(t)

	status, env := s.do("POST", fmt.Sprintf("/quiz/%d/attempts/start", s.quiz.ID), s.student, nil)
	require.Equal(t, fiber.StatusCreated, status, env.Message)
	var attempt courseModels.Attempt
	require.NoError(t, json.Unmarshal(env.Data, &attempt))
	assert.Equal(t, 1, attempt.AttemptNumber)
	assert.Equal(t, courseModels.AttemptInProgress, attempt.Status)

	base := fmt.Sprintf("/attempts/%d", attempt.ID)

	status, env = s.do("POST", base+"/answers", s.student, fiber.Map{"question_id": s.question.ID, "boolean_answer": true})
	require.Equal(t, fiber.StatusCreated, status, env.Message)

	status, _ = s.do("POST", base+"/answers", s.student, fiber.Map{"question_id": s.question.ID, "boolean_answer": false})
	assert.Equal(t, fiber.StatusConflict, status)

	status, _ = s.do("GET", base, s.classmate, nil)
	assert.Equal(t, fiber.StatusForbidden, status)

	status, _ = s.do("POST", base+"/grade", s.student, nil)
	assert.Equal(t, fiber.StatusForbidden, status)

	status, _ = s.do("POST", base+"/submit", s.student, nil)
	require.Equal(t, fiber.StatusOK, status)
	status, _ = s.do("POST", base+"/submit", s.student, nil)
	assert.Equal(t, fiber.StatusOK, status)

	status, env = s.do("POST", base+"/grade", s.instructor, fiber.Map{"score": 12})
	assert.Equal(t, fiber.StatusUnprocessableEntity, status, env.Message)

	status, env = s.do("POST", base+"/grade", s.instructor, nil)
	require.Equal(t, fiber.StatusOK, status, env.Message)
	require.NoError(t, json.Unmarshal(env.Data, &attempt))
	assert.Equal(t, courseModels.AttemptGraded, attempt.Status)
	assert.Equal(t, 15, attempt.Score)
	assert.True(t, attempt.IsPassed)

	status, _ = s.do("POST", base+"/submit", s.student, nil)
	assert.Equal(t, fiber.StatusConflict, status)

	status, env = s.do("GET", fmt.Sprintf("/attempts?quiz_id=%d&status=graded", s.quiz.ID), s.instructor, nil)
	require.Equal(t, fiber.StatusOK, status, env.Message)
	var listed struct {
		Attempts []courseModels.Attempt `json:"attempts"`
		Total    int64                  `json:"total"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &listed))
	assert.Equal(t, int64(1), listed.Total)
	require.Len(t, listed.Attempts, 1)
	assert.Equal(t, attempt.ID, listed.Attempts[0].ID)
}

func TestRequestValidation(t *testing.T) {
	s := newTestServer(t)

	status, _ := s.do("POST", "/quiz/abc/attempts/start", s.student, nil)
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, _ = s.do("POST", fmt.Sprintf("/quiz/%d/attempts/start", s.quiz.ID), "", nil)
	assert.Equal(t, fiber.StatusUnauthorized, status)

	status, _ = s.do("POST", "/quiz/9999/attempts/start", s.student, nil)
	assert.Equal(t, fiber.StatusNotFound, status)

	status, env := s.do("POST", "/attempts/1/answers", s.student, fiber.Map{"boolean_answer": true})
	assert.Equal(t, fiber.StatusUnprocessableEntity, status)
	assert.Contains(t, string(env.Data), "question_id")

	status, _ = s.do("GET", "/attempts?status=archived", s.instructor, nil)
	assert.Equal(t, fiber.StatusUnprocessableEntity, status)

	status, _ = s.do("POST", "/attempts/1/answers/1/score", s.instructor, fiber.Map{})
	assert.Equal(t, fiber.StatusUnprocessableEntity, status)
}

func TestStudentCannotReadAnswerKeyBeforeGrading(t *testing.T) {
	s := newTestServer(t)

	status, env := s.do("POST", fmt.Sprintf("/quiz/%d/attempts/start", s.quiz.ID), s.student, nil)
	require.Equal(t, fiber.StatusCreated, status, env.Message)
	var attempt courseModels.Attempt
	require.NoError(t, json.Unmarshal(env.Data, &attempt))
	base := fmt.Sprintf("/attempts/%d", attempt.ID)

	status, env = s.do("POST", base+"/answers", s.student, fiber.Map{"question_id": s.question.ID, "boolean_answer": true})
	require.Equal(t, fiber.StatusCreated, status, env.Message)
	var answer courseModels.Answer
	require.NoError(t, json.Unmarshal(env.Data, &answer))
	assert.Nil(t, answer.IsCorrect)

	answerOf := func(token string) courseModels.Answer {
		status, env := s.do("GET", base, token, nil)
		require.Equal(t, fiber.StatusOK, status, env.Message)
		var view attemptService.AttemptView
		require.NoError(t, json.Unmarshal(env.Data, &view))
		require.Len(t, view.Answers, 1)
		return view.Answers[0]
	}

	assert.Nil(t, answerOf(s.student).IsCorrect)
	staffView := answerOf(s.instructor).IsCorrect
	require.NotNil(t, staffView)
	assert.True(t, *staffView)

	status, _ = s.do("POST", base+"/submit", s.student, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Nil(t, answerOf(s.student).IsCorrect)

	status, _ = s.do("POST", base+"/grade", s.instructor, nil)
	require.Equal(t, fiber.StatusOK, status)
	graded := answerOf(s.student).IsCorrect
	require.NotNil(t, graded)
	assert.True(t, *graded)
}

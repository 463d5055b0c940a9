package attempt

import (
	"encoding/json"
	"testing"

	courseModels "lms/models/course"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func validatorFixture() (courseModels.Attempt, courseModels.Question, courseModels.QuestionOption, courseModels.QuestionOption) {
	attempt := courseModels.Attempt{Model: gorm.Model{ID: 7}, QuizID: 3}
	mcq := courseModels.Question{Model: gorm.Model{ID: 11}, QuizID: 3, Type: courseModels.QuestionMCQ, Point: 5}
	right := courseModels.QuestionOption{Model: gorm.Model{ID: 21}, QuestionID: 11, IsCorrect: true}
	other := courseModels.QuestionOption{Model: gorm.Model{ID: 22}, QuestionID: 99}
	return attempt, mcq, right, other
}

func TestValidateMCQ(t *testing.T) {
	v := NewAnswerValidator()
	attempt, mcq, right, other := validatorFixture()

	answer, err := v.Validate(attempt, mcq, AnswerPayload{SelectedOptionID: uintPtr(right.ID)}, &right)
	require.NoError(t, err)
	assert.Equal(t, uint(7), answer.AttemptID)
	assert.Equal(t, uint(11), answer.QuestionID)
	require.NotNil(t, answer.IsCorrect)
	assert.True(t, *answer.IsCorrect)

	_, err = v.Validate(attempt, mcq, AnswerPayload{SelectedOptionID: uintPtr(other.ID)}, &other)
	assert.ErrorIs(t, err, ErrValidationFailed)

	_, err = v.Validate(attempt, mcq, AnswerPayload{}, nil)
	assert.ErrorIs(t, err, ErrValidationFailed)

	_, err = v.Validate(attempt, mcq, AnswerPayload{SelectedOptionID: uintPtr(right.ID), BooleanAnswer: boolPtr(true)}, &right)
	assert.ErrorIs(t, err, ErrValidationFailed)
}

func TestValidateRejectsQuestionOfAnotherQuiz(t *testing.T) {
	v := NewAnswerValidator()
	attempt, mcq, right, _ := validatorFixture()
	mcq.QuizID = 4

	_, err := v.Validate(attempt, mcq, AnswerPayload{SelectedOptionID: uintPtr(right.ID)}, &right)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "question_id", verr.Field)
}

func TestValidateTrueFalse(t *testing.T) {
	v := NewAnswerValidator()
	attempt := courseModels.Attempt{Model: gorm.Model{ID: 1}, QuizID: 3}
	question := courseModels.Question{Model: gorm.Model{ID: 2}, QuizID: 3, Type: courseModels.QuestionTrueFalse, ExpectedBoolean: boolPtr(false)}

	answer, err := v.Validate(attempt, question, AnswerPayload{BooleanAnswer: boolPtr(true)}, nil)
	require.NoError(t, err)
	require.NotNil(t, answer.IsCorrect)
	assert.False(t, *answer.IsCorrect)
	assert.True(t, *answer.BooleanAnswer)

	question.ExpectedBoolean = nil
	answer, err = v.Validate(attempt, question, AnswerPayload{BooleanAnswer: boolPtr(true)}, nil)
	require.NoError(t, err)
	assert.Nil(t, answer.IsCorrect)

	_, err = v.Validate(attempt, question, AnswerPayload{}, nil)
	assert.ErrorIs(t, err, ErrValidationFailed)

	_, err = v.Validate(attempt, question, AnswerPayload{BooleanAnswer: boolPtr(true), AnswerText: json.RawMessage(`"yes"`)}, nil)
	assert.ErrorIs(t, err, ErrValidationFailed)
}

func TestValidateText(t *testing.T) {
	v := NewAnswerValidator()
	attempt := courseModels.Attempt{Model: gorm.Model{ID: 1}, QuizID: 3}
	question := courseModels.Question{Model: gorm.Model{ID: 2}, QuizID: 3, Type: courseModels.QuestionText}

	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{name: "plain string", raw: `"Find the LCM first"`, want: `"Find the LCM first"`},
		{name: "locale map keeps non-empty", raw: `{"en":"Find the LCM","id":"  "}`, want: `{"en":"Find the LCM"}`},
		{name: "missing", raw: ``, wantErr: true},
		{name: "null", raw: `null`, wantErr: true},
		{name: "blank string", raw: `"   "`, wantErr: true},
		{name: "all locales blank", raw: `{"en":"","id":" "}`, wantErr: true},
		{name: "number", raw: `42`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			answer, err := v.Validate(attempt, question, AnswerPayload{AnswerText: json.RawMessage(tt.raw)}, nil)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrValidationFailed)
				return
			}
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(answer.AnswerText))
			assert.Nil(t, answer.IsCorrect)
		})
	}

	_, err := v.Validate(attempt, question, AnswerPayload{AnswerText: json.RawMessage(`"x"`), SelectedOptionID: uintPtr(1)}, nil)
	assert.ErrorIs(t, err, ErrValidationFailed)
}

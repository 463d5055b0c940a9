package attempt

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	courseModels "lms/models/course"

	"gorm.io/datatypes"
)

// AnswerPayload is the type-dependent part of an answer submission.
// AnswerText is either a JSON string or an object of locale → text.
type AnswerPayload struct {
	SelectedOptionID *uint
	BooleanAnswer    *bool
	AnswerText       json.RawMessage
}

func (p AnswerPayload) hasText() bool {
	trimmed := bytes.TrimSpace(p.AnswerText)
	return len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null"))
}

// AnswerValidator checks one answer against its question's contract.
type AnswerValidator struct{}

func NewAnswerValidator() *AnswerValidator {
	return &AnswerValidator{}
}

// Validate returns the answer row to persist for attempt. selected is the
// option referenced by payload.SelectedOptionID, already loaded by the caller.
// IsCorrect is left nil when correctness needs a human.
func (v *AnswerValidator) Validate(
	attempt courseModels.Attempt,
	question courseModels.Question,
	payload AnswerPayload,
	selected *courseModels.QuestionOption,
) (courseModels.Answer, error) {
	answer := courseModels.Answer{
		AttemptID:  attempt.ID,
		QuestionID: question.ID,
	}

	if question.QuizID != attempt.QuizID {
		return answer, invalid("question_id", "question does not belong to this attempt's quiz")
	}

	switch question.Type {
	case courseModels.QuestionMCQ:
		if payload.SelectedOptionID == nil {
			return answer, invalid("selected_option_id", "is required for mcq questions")
		}
		if selected == nil || selected.ID != *payload.SelectedOptionID || selected.QuestionID != question.ID {
			return answer, invalid("selected_option_id", "option does not belong to this question")
		}
		if payload.BooleanAnswer != nil {
			return answer, invalid("boolean_answer", "is not accepted for mcq questions")
		}
		if payload.hasText() {
			return answer, invalid("answer_text", "is not accepted for mcq questions")
		}
		isCorrect := selected.IsCorrect
		answer.SelectedOptionID = payload.SelectedOptionID
		answer.IsCorrect = &isCorrect

	case courseModels.QuestionTrueFalse:
		if payload.BooleanAnswer == nil {
			return answer, invalid("boolean_answer", "is required for true_false questions")
		}
		if payload.SelectedOptionID != nil {
			return answer, invalid("selected_option_id", "is not accepted for true_false questions")
		}
		if payload.hasText() {
			return answer, invalid("answer_text", "is not accepted for true_false questions")
		}
		answer.BooleanAnswer = payload.BooleanAnswer
		if question.ExpectedBoolean != nil {
			isCorrect := *payload.BooleanAnswer == *question.ExpectedBoolean
			answer.IsCorrect = &isCorrect
		}

	case courseModels.QuestionText:
		if payload.SelectedOptionID != nil {
			return answer, invalid("selected_option_id", "is not accepted for text questions")
		}
		if payload.BooleanAnswer != nil {
			return answer, invalid("boolean_answer", "is not accepted for text questions")
		}
		text, err := normalizeAnswerText(payload.AnswerText)
		if err != nil {
			return answer, err
		}
		answer.AnswerText = text

	default:
		return answer, invalid("question_id", fmt.Sprintf("unsupported question type %q", question.Type))
	}

	return answer, nil
}

// normalizeAnswerText accepts a non-empty string or a locale map with at
// least one non-empty value.
func normalizeAnswerText(raw json.RawMessage) (datatypes.JSON, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, invalid("answer_text", "is required for text questions")
	}

	var plain string
	if err := json.Unmarshal(trimmed, &plain); err == nil {
		if strings.TrimSpace(plain) == "" {
			return nil, invalid("answer_text", "must not be empty")
		}
		out, _ := json.Marshal(plain)
		return datatypes.JSON(out), nil
	}

	var localized map[string]string
	if err := json.Unmarshal(trimmed, &localized); err == nil {
		kept := make(map[string]string, len(localized))
		for locale, text := range localized {
			if strings.TrimSpace(text) != "" {
				kept[locale] = text
			}
		}
		if len(kept) == 0 {
			return nil, invalid("answer_text", "must contain at least one non-empty translation")
		}
		out, _ := json.Marshal(kept)
		return datatypes.JSON(out), nil
	}

	return nil, invalid("answer_text", "must be a string or an object of localized strings")
}

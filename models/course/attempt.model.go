package course

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type AttemptStatus string

const (
	AttemptInProgress AttemptStatus = "in_progress"
	AttemptSubmitted  AttemptStatus = "submitted"
	AttemptGraded     AttemptStatus = "graded"
)

// Attempt is one student's timed pass through a quiz. AttemptNumber is
// unique per (quiz, student) and assigned by the attempt sequencer.
type Attempt struct {
	gorm.Model
	QuizID        uint          `json:"quiz_id" gorm:"not null;uniqueIndex:idx_attempt_slot,priority:1"`
	StudentID     uint          `json:"student_id" gorm:"not null;uniqueIndex:idx_attempt_slot,priority:2"`
	AttemptNumber int           `json:"attempt_number" gorm:"not null;uniqueIndex:idx_attempt_slot,priority:3"`
	Status        AttemptStatus `json:"status" gorm:"type:varchar(20);not null;index"`
	StartAt       time.Time     `json:"start_at"`
	EndsAt        time.Time     `json:"ends_at"`
	SubmittedAt   *time.Time    `json:"submitted_at"`
	GradedAt      *time.Time    `json:"graded_at"`
	GradedBy      *uint         `json:"graded_by"`
	Score         int           `json:"score" gorm:"default:0"`
	IsPassed      bool          `json:"is_passed" gorm:"default:false"`
	Answers       []Answer      `json:"answers,omitempty" gorm:"foreignKey:AttemptID"`
}

// RemainingSeconds is the advisory time left before EndsAt, never negative.
func (a Attempt) RemainingSeconds(now time.Time) int64 {
	if a.Status != AttemptInProgress {
		return 0
	}
	remaining := int64(a.EndsAt.Sub(now).Seconds())
	if remaining < 0 {
		return 0
	}
	return remaining
}

func (a Attempt) IsTimeUp(now time.Time) bool {
	return !now.Before(a.EndsAt)
}

// Answer is a student's response to one question within an attempt.
// AnswerText holds either a JSON string or a locale→text object.
type Answer struct {
	gorm.Model
	AttemptID        uint           `json:"attempt_id" gorm:"not null;uniqueIndex:idx_answer_slot,priority:1"`
	QuestionID       uint           `json:"question_id" gorm:"not null;uniqueIndex:idx_answer_slot,priority:2"`
	SelectedOptionID *uint          `json:"selected_option_id,omitempty"`
	BooleanAnswer    *bool          `json:"boolean_answer,omitempty"`
	AnswerText       datatypes.JSON `json:"answer_text,omitempty"`
	IsCorrect        *bool          `json:"is_correct"`
	QuestionScore    *int           `json:"question_score"`
	GradedBy         *uint          `json:"graded_by"`
	GradedAt         *time.Time     `json:"graded_at"`
}

// AttemptSequence is the lock anchor of a (quiz, student) pair.
type AttemptSequence struct {
	QuizID     uint      `gorm:"primaryKey;autoIncrement:false"`
	StudentID  uint      `gorm:"primaryKey;autoIncrement:false"`
	LastNumber int       `gorm:"not null;default:0"`
	UpdatedAt  time.Time
}

// HideGrading clears correctness and review fields so a student cannot read
// the answer key off an attempt that is not graded yet.
func (a *Answer) HideGrading() {
	a.IsCorrect = nil
	a.QuestionScore = nil
	a.GradedBy = nil
	a.GradedAt = nil
}

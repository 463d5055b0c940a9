package attempt

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"lms/events"
	courseModels "lms/models/course"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GradeInput carries caller-supplied grading values. Both nil means
// "auto-grade"; both set means manual grading.
type GradeInput struct {
	Score    *int
	IsPassed *bool
}

func (in GradeInput) manual() bool {
	return in.Score != nil || in.IsPassed != nil
}

// AttemptView is an attempt with its advisory time-window state.
type AttemptView struct {
	courseModels.Attempt
	RemainingSeconds int64 `json:"remaining_seconds"`
	IsTimeUp         bool  `json:"is_time_up"`
}

// Manager owns the attempt state machine in_progress → submitted → graded.
// Every transition runs in one transaction; events are published only
// after that transaction commits.
type Manager struct {
	db        *gorm.DB
	sequencer *Sequencer
	validator *AnswerValidator
	grader    *GradingEngine
	publisher events.Publisher

	enforceTimeWindow bool
	now               func() time.Time
}

func NewManager(
	db *gorm.DB,
	sequencer *Sequencer,
	validator *AnswerValidator,
	grader *GradingEngine,
	publisher events.Publisher,
	enforceTimeWindow bool,
) *Manager {
	return &Manager{
		db:                db,
		sequencer:         sequencer,
		validator:         validator,
		grader:            grader,
		publisher:         publisher,
		enforceTimeWindow: enforceTimeWindow,
		now:               func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) },
	}
}

// WithClock replaces the time source.
func (m *Manager) WithClock(now func() time.Time) *Manager {
	m.now = now
	return m
}

// Start opens a new in_progress attempt for studentID on a published quiz.
func (m *Manager) Start(ctx context.Context, quizID, studentID uint) (*courseModels.Attempt, error) {
	var created courseModels.Attempt

	err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var quiz courseModels.Quiz
		if err := tx.Where("id = ? AND is_deleted = ?", quizID, false).First(&quiz).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrQuizNotFound
			}
			return fmt.Errorf("load quiz: %w", err)
		}
		if quiz.Status != courseModels.QuizPublished {
			return ErrQuizNotPublished
		}
		if quiz.DurationMinutes <= 0 {
			return ErrInvalidDuration
		}

		number, err := m.sequencer.Next(tx, quizID, studentID)
		if err != nil {
			return err
		}

		startAt := m.now()
		created = courseModels.Attempt{
			QuizID:        quizID,
			StudentID:     studentID,
			AttemptNumber: number,
			Status:        courseModels.AttemptInProgress,
			StartAt:       startAt,
			EndsAt:        startAt.Add(time.Duration(quiz.DurationMinutes) * time.Minute),
			Score:         0,
			IsPassed:      false,
		}
		if err := tx.Create(&created).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrDuplicateAttempt
			}
			return fmt.Errorf("create attempt: %w", classifyLockError(err))
		}
		return nil
	})
	if err != nil {
		log.Printf("[ATTEMPT] start failed quiz_id=%d student_id=%d: %v", quizID, studentID, err)
		return nil, err
	}

	log.Printf("[ATTEMPT] started attempt_id=%d quiz_id=%d student_id=%d number=%d ends_at=%s",
		created.ID, quizID, studentID, created.AttemptNumber, created.EndsAt.Format(time.RFC3339))
	return &created, nil
}

// RecordAnswer stores one validated answer on an in_progress attempt.
func (m *Manager) RecordAnswer(ctx context.Context, attemptID, questionID uint, payload AnswerPayload) (*courseModels.Answer, error) {
	var answer courseModels.Answer

	err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		attempt, err := lockAttempt(tx, attemptID)
		if err != nil {
			return err
		}
		if attempt.Status != courseModels.AttemptInProgress {
			return ErrAttemptNotActive
		}
		if m.enforceTimeWindow && attempt.IsTimeUp(m.now()) {
			return ErrAttemptExpired
		}

		var question courseModels.Question
		if err := tx.First(&question, questionID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrQuestionNotFound
			}
			return fmt.Errorf("load question: %w", err)
		}

		var selected *courseModels.QuestionOption
		if payload.SelectedOptionID != nil {
			var option courseModels.QuestionOption
			if err := tx.First(&option, *payload.SelectedOptionID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrOptionNotFound
				}
				return fmt.Errorf("load option: %w", err)
			}
			selected = &option
		}

		answer, err = m.validator.Validate(*attempt, question, payload, selected)
		if err != nil {
			return err
		}

		var existing int64
		if err := tx.Model(&courseModels.Answer{}).
			Where("attempt_id = ? AND question_id = ?", attemptID, questionID).
			Count(&existing).Error; err != nil {
			return fmt.Errorf("check existing answer: %w", err)
		}
		if existing > 0 {
			return ErrDuplicateAnswer
		}

		if err := tx.Create(&answer).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrDuplicateAnswer
			}
			return fmt.Errorf("create answer: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &answer, nil
}

// Submit moves an in_progress attempt to submitted. Submitting an already
// submitted attempt returns it unchanged and emits nothing. When the time
// window is enforced a late submit still closes the attempt, with
// submitted_at capped at ends_at.
func (m *Manager) Submit(ctx context.Context, attemptID uint) (*courseModels.Attempt, error) {
	var attempt *courseModels.Attempt
	transitioned := false

	err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		attempt, err = lockAttempt(tx, attemptID)
		if err != nil {
			return err
		}

		switch attempt.Status {
		case courseModels.AttemptSubmitted:
			return nil
		case courseModels.AttemptInProgress:
		default:
			return transitionError("submit", attempt.Status)
		}

		now := m.now()
		if m.enforceTimeWindow && attempt.IsTimeUp(now) {
			// The window closed the attempt; record it as handed in at ends_at.
			now = attempt.EndsAt
		}
		if attempt.SubmittedAt == nil {
			attempt.SubmittedAt = &now
		}
		attempt.Status = courseModels.AttemptSubmitted

		if err := tx.Model(&courseModels.Attempt{}).Where("id = ?", attempt.ID).Updates(map[string]interface{}{
			"status":       attempt.Status,
			"submitted_at": attempt.SubmittedAt,
		}).Error; err != nil {
			return fmt.Errorf("submit attempt: %w", err)
		}
		transitioned = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	if transitioned {
		log.Printf("[ATTEMPT] submitted attempt_id=%d quiz_id=%d student_id=%d",
			attempt.ID, attempt.QuizID, attempt.StudentID)
		m.publisher.Publish(events.NewAttemptSubmitted(*attempt, m.now()))
	}
	return attempt, nil
}

// Grade finalizes a submitted attempt. Caller-supplied values are used when
// present; otherwise the quiz must be auto-graded and the GradingEngine
// provides them. graderID is nil for system grading.
func (m *Manager) Grade(ctx context.Context, attemptID uint, in GradeInput, graderID *uint) (*courseModels.Attempt, error) {
	var attempt *courseModels.Attempt

	err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		attempt, err = lockAttempt(tx, attemptID)
		if err != nil {
			return err
		}
		if attempt.Status != courseModels.AttemptSubmitted {
			return transitionError("grade", attempt.Status)
		}

		var quiz courseModels.Quiz
		if err := tx.First(&quiz, attempt.QuizID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrQuizNotFound
			}
			return fmt.Errorf("load quiz: %w", err)
		}

		var result GradeResult
		if in.manual() {
			if in.Score == nil {
				return invalid("score", "is required for manual grading")
			}
			if in.IsPassed == nil {
				return invalid("is_passed", "is required for manual grading")
			}
			if *in.Score < 0 || *in.Score > quiz.MaxScore {
				return invalid("score", fmt.Sprintf("must be between 0 and %d", quiz.MaxScore))
			}
			result = GradeResult{Score: *in.Score, IsPassed: *in.IsPassed}
		} else {
			if !quiz.AutoGradeEnabled {
				return invalid("score", "is required: this quiz is graded manually")
			}
			var questions []courseModels.Question
			if err := tx.Where("quiz_id = ?", quiz.ID).Find(&questions).Error; err != nil {
				return fmt.Errorf("load questions: %w", err)
			}
			var answers []courseModels.Answer
			if err := tx.Where("attempt_id = ?", attempt.ID).Find(&answers).Error; err != nil {
				return fmt.Errorf("load answers: %w", err)
			}
			result, err = m.grader.AutoGrade(quiz, questions, answers)
			if err != nil {
				return err
			}
		}

		now := m.now()
		attempt.Status = courseModels.AttemptGraded
		attempt.Score = result.Score
		attempt.IsPassed = result.IsPassed
		attempt.GradedAt = &now
		attempt.GradedBy = graderID

		if err := tx.Model(&courseModels.Attempt{}).Where("id = ?", attempt.ID).Updates(map[string]interface{}{
			"status":    attempt.Status,
			"score":     attempt.Score,
			"is_passed": attempt.IsPassed,
			"graded_at": attempt.GradedAt,
			"graded_by": attempt.GradedBy,
		}).Error; err != nil {
			return fmt.Errorf("grade attempt: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("[ATTEMPT] graded attempt_id=%d score=%d passed=%t manual=%t",
		attempt.ID, attempt.Score, attempt.IsPassed, in.manual())
	m.publisher.Publish(events.NewAttemptGraded(*attempt, m.now()))
	return attempt, nil
}

// ScoreAnswer records an instructor's score for one answer of a submitted
// attempt, typically a text answer awaiting review.
func (m *Manager) ScoreAnswer(ctx context.Context, attemptID, questionID uint, score int, graderID uint) (*courseModels.Answer, error) {
	var answer courseModels.Answer

	err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		attempt, err := lockAttempt(tx, attemptID)
		if err != nil {
			return err
		}
		if attempt.Status != courseModels.AttemptSubmitted {
			return transitionError("review answers of", attempt.Status)
		}

		if err := tx.Where("attempt_id = ? AND question_id = ?", attemptID, questionID).First(&answer).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrAnswerNotFound
			}
			return fmt.Errorf("load answer: %w", err)
		}

		var question courseModels.Question
		if err := tx.First(&question, questionID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrQuestionNotFound
			}
			return fmt.Errorf("load question: %w", err)
		}
		if score < 0 || score > question.Point {
			return invalid("score", fmt.Sprintf("must be between 0 and %d", question.Point))
		}

		now := m.now()
		isCorrect := score == question.Point
		answer.QuestionScore = &score
		answer.IsCorrect = &isCorrect
		answer.GradedBy = &graderID
		answer.GradedAt = &now

		return tx.Model(&courseModels.Answer{}).Where("id = ?", answer.ID).Updates(map[string]interface{}{
			"question_score": answer.QuestionScore,
			"is_correct":     answer.IsCorrect,
			"graded_by":      answer.GradedBy,
			"graded_at":      answer.GradedAt,
		}).Error
	})
	if err != nil {
		return nil, err
	}

	return &answer, nil
}

// Get loads an attempt with its answers.
func (m *Manager) Get(ctx context.Context, attemptID uint) (*AttemptView, error) {
	var attempt courseModels.Attempt
	if err := m.db.WithContext(ctx).Preload("Answers").First(&attempt, attemptID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAttemptNotFound
		}
		return nil, fmt.Errorf("load attempt: %w", err)
	}

	now := m.now()
	return &AttemptView{
		Attempt:          attempt,
		RemainingSeconds: attempt.RemainingSeconds(now),
		IsTimeUp:         attempt.IsTimeUp(now),
	}, nil
}

// HandleSubmitted grades auto-graded quizzes as soon as they are submitted.
// Attempts that still need review stay submitted.
func (m *Manager) HandleSubmitted(ctx context.Context, evt events.Event) {
	submitted, ok := evt.(events.AttemptSubmitted)
	if !ok {
		return
	}

	var quiz courseModels.Quiz
	if err := m.db.WithContext(ctx).First(&quiz, submitted.Attempt.QuizID).Error; err != nil {
		log.Printf("[ATTEMPT] auto-grade: load quiz %d: %v", submitted.Attempt.QuizID, err)
		return
	}
	if !quiz.AutoGradeEnabled {
		return
	}

	_, err := m.Grade(ctx, submitted.Attempt.ID, GradeInput{}, nil)
	switch {
	case err == nil:
	case errors.Is(err, ErrManualReviewRequired):
		log.Printf("[ATTEMPT] auto-grade: attempt_id=%d waiting for review: %v", submitted.Attempt.ID, err)
	case errors.Is(err, ErrInvalidStateTransition):
		log.Printf("[ATTEMPT] auto-grade: attempt_id=%d already graded", submitted.Attempt.ID)
	default:
		log.Printf("[ATTEMPT] auto-grade: attempt_id=%d failed: %v", submitted.Attempt.ID, err)
	}
}

func lockAttempt(tx *gorm.DB, attemptID uint) (*courseModels.Attempt, error) {
	var attempt courseModels.Attempt
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&attempt, attemptID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAttemptNotFound
		}
		return nil, fmt.Errorf("load attempt: %w", classifyLockError(err))
	}
	return &attempt, nil
}

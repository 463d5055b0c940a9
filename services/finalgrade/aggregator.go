package finalgrade

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"time"

	"lms/events"
	courseModels "lms/models/course"

	"gorm.io/gorm"
)

type Policy string

const (
	// PolicyAverage is the mean percentage over every graded attempt.
	PolicyAverage Policy = "average"
	// PolicyBest is the mean over quizzes of each quiz's best percentage.
	PolicyBest Policy = "best"
	// PolicyWeighted is total score over total max score.
	PolicyWeighted Policy = "weighted"
)

// GradedAttempt is one graded attempt of a course quiz.
type GradedAttempt struct {
	QuizID   uint
	Score    int
	MaxScore int
}

// Aggregator recomputes Enrollment.FinalGrade. It is the only writer of
// that column and writes only once progress reaches 100%. Failures are
// logged and never reach the grading request that triggered them.
type Aggregator struct {
	db     *gorm.DB
	policy Policy
	now    func() time.Time
}

func NewAggregator(db *gorm.DB, policy Policy) *Aggregator {
	switch policy {
	case PolicyAverage, PolicyBest, PolicyWeighted:
	default:
		policy = PolicyAverage
	}
	return &Aggregator{db: db, policy: policy, now: time.Now}
}

// HandleAttemptGraded is the events.Handler for AttemptGraded.
func (a *Aggregator) HandleAttemptGraded(ctx context.Context, evt events.Event) {
	graded, ok := evt.(events.AttemptGraded)
	if !ok {
		return
	}
	a.absorb("attempt graded", func() error {
		var quiz courseModels.Quiz
		if err := a.db.WithContext(ctx).First(&quiz, graded.Attempt.QuizID).Error; err != nil {
			return fmt.Errorf("load quiz %d: %w", graded.Attempt.QuizID, err)
		}
		_, err := a.Recompute(ctx, graded.Attempt.StudentID, quiz.CourseID)
		return err
	})
}

// HandleEnrollmentCompleted covers attempts graded before the learner
// reached 100% progress.
func (a *Aggregator) HandleEnrollmentCompleted(ctx context.Context, evt events.Event) {
	completed, ok := evt.(events.EnrollmentCompleted)
	if !ok {
		return
	}
	a.absorb("enrollment completed", func() error {
		_, err := a.Recompute(ctx, completed.Enrollment.UserID, completed.Enrollment.CourseID)
		return err
	})
}

// Recompute writes the final grade of (studentID, courseID) when the
// enrollment is complete and at least one attempt is graded. It reports
// whether a write happened.
func (a *Aggregator) Recompute(ctx context.Context, studentID, courseID uint) (bool, error) {
	db := a.db.WithContext(ctx)

	var enrollment courseModels.Enrollment
	if err := db.Where("user_id = ? AND course_id = ? AND is_deleted = ?", studentID, courseID, false).
		First(&enrollment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("[FINAL-GRADE] no enrollment for student_id=%d course_id=%d, skipping", studentID, courseID)
			return false, nil
		}
		return false, fmt.Errorf("load enrollment: %w", err)
	}

	if !enrollment.IsComplete() {
		log.Printf("[FINAL-GRADE] enrollment_id=%d progress %.2f%% below 100, final grade untouched",
			enrollment.ID, enrollment.ProgressPercentage)
		return false, nil
	}

	var attempts []GradedAttempt
	if err := db.Model(&courseModels.Attempt{}).
		Select("attempts.quiz_id, attempts.score, quizzes.max_score").
		Joins("JOIN quizzes ON quizzes.id = attempts.quiz_id").
		Where("attempts.student_id = ? AND attempts.status = ? AND quizzes.course_id = ?",
			studentID, courseModels.AttemptGraded, courseID).
		Scan(&attempts).Error; err != nil {
		return false, fmt.Errorf("load graded attempts: %w", err)
	}

	grade, ok := Compute(a.policy, attempts)
	if !ok {
		log.Printf("[FINAL-GRADE] enrollment_id=%d has no graded attempts yet", enrollment.ID)
		return false, nil
	}

	gradedAt := a.now()
	if err := db.Model(&courseModels.Enrollment{}).Where("id = ?", enrollment.ID).Updates(map[string]interface{}{
		"final_grade":     grade,
		"final_graded_at": gradedAt,
	}).Error; err != nil {
		return false, fmt.Errorf("save final grade: %w", err)
	}

	log.Printf("[FINAL-GRADE] enrollment_id=%d final_grade=%.2f policy=%s attempts=%d",
		enrollment.ID, grade, a.policy, len(attempts))
	return true, nil
}

// Reconcile recomputes every complete enrollment that still has no final
// grade. It returns how many were written.
func (a *Aggregator) Reconcile(ctx context.Context) (int, error) {
	var pending []courseModels.Enrollment
	if err := a.db.WithContext(ctx).
		Where("progress_percentage >= ? AND final_grade IS NULL AND is_deleted = ?", 100, false).
		Find(&pending).Error; err != nil {
		return 0, fmt.Errorf("load pending enrollments: %w", err)
	}

	written := 0
	for _, enrollment := range pending {
		ok, err := a.Recompute(ctx, enrollment.UserID, enrollment.CourseID)
		if err != nil {
			log.Printf("[FINAL-GRADE] reconcile enrollment_id=%d: %v", enrollment.ID, err)
			continue
		}
		if ok {
			written++
		}
	}
	return written, nil
}

func (a *Aggregator) absorb(trigger string, fn func() error) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[FINAL-GRADE] panic after %s: %v", trigger, r)
		}
	}()
	if err := fn(); err != nil {
		log.Printf("[FINAL-GRADE] recompute after %s failed: %v", trigger, err)
	}
}

// Compute aggregates attempts into a 0-100 grade rounded to two decimals.
// ok is false when no attempt has a positive max score.
func Compute(policy Policy, attempts []GradedAttempt) (float64, bool) {
	var percents []float64
	var scoreSum, maxSum int
	bestByQuiz := make(map[uint]float64)
	for _, at := range attempts {
		if at.MaxScore <= 0 {
			continue
		}
		pct := float64(at.Score) / float64(at.MaxScore) * 100
		percents = append(percents, pct)
		if best, seen := bestByQuiz[at.QuizID]; !seen || pct > best {
			bestByQuiz[at.QuizID] = pct
		}
		scoreSum += at.Score
		maxSum += at.MaxScore
	}
	if len(percents) == 0 {
		return 0, false
	}

	var grade float64
	switch policy {
	case PolicyBest:
		for _, pct := range bestByQuiz {
			grade += pct
		}
		grade /= float64(len(bestByQuiz))
	case PolicyWeighted:
		grade = float64(scoreSum) / float64(maxSum) * 100
	default:
		for _, pct := range percents {
			grade += pct
		}
		grade /= float64(len(percents))
	}

	return math.Round(grade*100) / 100, true
}

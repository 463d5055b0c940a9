package attempt

import (
	"fmt"
	"time"

	courseModels "lms/models/course"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Sequencer hands out attempt numbers per (quiz, student).
type Sequencer struct {
	lockTimeoutMs int
}

func NewSequencer(lockTimeoutMs int) *Sequencer {
	return &Sequencer{lockTimeoutMs: lockTimeoutMs}
}

// Next returns max(attempt_number)+1 for the pair. It must run inside the
// start transaction: the sequence row and the pair's attempts stay locked
// until that transaction ends, so concurrent starts are serialized.
func (s *Sequencer) Next(tx *gorm.DB, quizID, studentID uint) (int, error) {
	restore, err := applyLockTimeout(tx, s.lockTimeoutMs)
	if err != nil {
		return 0, fmt.Errorf("set lock timeout: %w", err)
	}
	defer restore()

	// The sequence row exists even before the first attempt, so the very
	// first start of a pair has something to lock.
	seq := courseModels.AttemptSequence{QuizID: quizID, StudentID: studentID}
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&seq).Error; err != nil {
		return 0, fmt.Errorf("ensure attempt sequence: %w", classifyLockError(err))
	}

	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("quiz_id = ? AND student_id = ?", quizID, studentID).
		First(&seq).Error; err != nil {
		return 0, fmt.Errorf("lock attempt sequence: %w", classifyLockError(err))
	}

	var numbers []int
	if err := tx.Unscoped().Model(&courseModels.Attempt{}).
		Clauses(clause.Locking{Strength: "SHARE"}).
		Where("quiz_id = ? AND student_id = ?", quizID, studentID).
		Pluck("attempt_number", &numbers).Error; err != nil {
		return 0, fmt.Errorf("lock existing attempts: %w", classifyLockError(err))
	}

	highest := seq.LastNumber
	for _, n := range numbers {
		if n > highest {
			highest = n
		}
	}
	next := highest + 1

	if err := tx.Model(&courseModels.AttemptSequence{}).
		Where("quiz_id = ? AND student_id = ?", quizID, studentID).
		Updates(map[string]interface{}{"last_number": next, "updated_at": time.Now()}).Error; err != nil {
		return 0, fmt.Errorf("advance attempt sequence: %w", classifyLockError(err))
	}

	return next, nil
}

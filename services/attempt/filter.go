package attempt

import (
	"context"
	"fmt"
	"time"

	courseModels "lms/models/course"

	"github.com/jinzhu/now"
	"gorm.io/gorm"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// AttemptFilter selects attempts for listing. Nil fields are not filtered on.
type AttemptFilter struct {
	QuizID    *uint
	StudentID *uint
	Status    *courseModels.AttemptStatus
	StartedOn *time.Time // calendar day of start_at, in the location of the value
	Limit     int
	Offset    int
}

// Validate checks the filter and fills in the default limit.
func (f *AttemptFilter) Validate() error {
	if f.Status != nil {
		switch *f.Status {
		case courseModels.AttemptInProgress, courseModels.AttemptSubmitted, courseModels.AttemptGraded:
		default:
			return invalid("status", fmt.Sprintf("unknown attempt status %q", *f.Status))
		}
	}
	if f.Limit == 0 {
		f.Limit = defaultListLimit
	}
	if f.Limit < 0 || f.Limit > maxListLimit {
		return invalid("limit", fmt.Sprintf("must be between 1 and %d", maxListLimit))
	}
	if f.Offset < 0 {
		return invalid("offset", "must not be negative")
	}
	return nil
}

func (f AttemptFilter) apply(q *gorm.DB) *gorm.DB {
	if f.QuizID != nil {
		q = q.Where("quiz_id = ?", *f.QuizID)
	}
	if f.StudentID != nil {
		q = q.Where("student_id = ?", *f.StudentID)
	}
	if f.Status != nil {
		q = q.Where("status = ?", *f.Status)
	}
	if f.StartedOn != nil {
		day := now.With(*f.StartedOn)
		q = q.Where("start_at BETWEEN ? AND ?", day.BeginningOfDay(), day.EndOfDay())
	}
	return q
}

// List returns the attempts matching f, newest first, and the total match count.
func (m *Manager) List(ctx context.Context, f AttemptFilter) ([]courseModels.Attempt, int64, error) {
	if err := f.Validate(); err != nil {
		return nil, 0, err
	}

	base := f.apply(m.db.WithContext(ctx).Model(&courseModels.Attempt{}))

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count attempts: %w", err)
	}

	var attempts []courseModels.Attempt
	if err := f.apply(m.db.WithContext(ctx)).
		Order("start_at desc, id desc").
		Limit(f.Limit).
		Offset(f.Offset).
		Find(&attempts).Error; err != nil {
		return nil, 0, fmt.Errorf("list attempts: %w", err)
	}

	return attempts, total, nil
}

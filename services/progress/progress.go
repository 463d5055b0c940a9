package progress

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"lms/events"
	courseModels "lms/models/course"

	"gorm.io/gorm"
)

var (
	ErrCourseNotFound     = errors.New("course not found or not active")
	ErrContentNotFound    = errors.New("course content not found")
	ErrNotEnrolled        = errors.New("user not enrolled in this course")
	ErrAlreadyEnrolled    = errors.New("user already enrolled in this course")
	ErrAlreadyCompleted   = errors.New("content already marked as completed")
	ErrEnrollmentNotFound = errors.New("enrollment not found")
)

// Tracker maintains Enrollment progress from content completions and
// announces when an enrollment reaches 100%.
type Tracker struct {
	db        *gorm.DB
	publisher events.Publisher
}

func NewTracker(db *gorm.DB, publisher events.Publisher) *Tracker {
	return &Tracker{db: db, publisher: publisher}
}

// Enroll creates an enrollment for an active course.
func (t *Tracker) Enroll(ctx context.Context, userID, courseID uint) (*courseModels.Enrollment, error) {
	var enrollment courseModels.Enrollment

	err := t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var course courseModels.Course
		if err := tx.Where("id = ? AND is_deleted = ? AND status = ?", courseID, false, "ACTIVE").First(&course).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrCourseNotFound
			}
			return fmt.Errorf("load course: %w", err)
		}

		var existing int64
		if err := tx.Model(&courseModels.Enrollment{}).
			Where("user_id = ? AND course_id = ? AND is_deleted = ?", userID, courseID, false).
			Count(&existing).Error; err != nil {
			return fmt.Errorf("check enrollment: %w", err)
		}
		if existing > 0 {
			return ErrAlreadyEnrolled
		}

		enrollment = courseModels.Enrollment{
			UserID:   userID,
			CourseID: courseID,
			Status:   courseModels.EnrollmentEnrolled,
		}
		return tx.Create(&enrollment).Error
	})
	if err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// MarkContentComplete records a completion and recalculates progress.
func (t *Tracker) MarkContentComplete(ctx context.Context, userID, courseID, contentID uint) (*courseModels.Enrollment, error) {
	var enrollment courseModels.Enrollment
	crossed := false

	err := t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var content courseModels.CourseContent
		if err := tx.Where("id = ? AND course_id = ? AND is_deleted = ? AND is_published = ?", contentID, courseID, false, true).
			First(&content).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrContentNotFound
			}
			return fmt.Errorf("load content: %w", err)
		}

		if err := tx.Where("user_id = ? AND course_id = ? AND is_deleted = ?", userID, courseID, false).
			First(&enrollment).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotEnrolled
			}
			return fmt.Errorf("load enrollment: %w", err)
		}

		var done int64
		if err := tx.Model(&courseModels.ContentCompletion{}).
			Where("user_id = ? AND course_content_id = ? AND is_deleted = ?", userID, contentID, false).
			Count(&done).Error; err != nil {
			return fmt.Errorf("check completion: %w", err)
		}
		if done > 0 {
			return ErrAlreadyCompleted
		}

		completion := courseModels.ContentCompletion{
			UserID:          userID,
			CourseID:        courseID,
			CourseContentID: contentID,
			Status:          "COMPLETED",
		}
		if err := tx.Create(&completion).Error; err != nil {
			return fmt.Errorf("create completion: %w", err)
		}

		var err error
		crossed, err = recalculate(tx, &enrollment)
		return err
	})
	if err != nil {
		return nil, err
	}

	if crossed {
		log.Printf("[PROGRESS] enrollment_id=%d reached 100%%", enrollment.ID)
		t.publisher.Publish(events.NewEnrollmentCompleted(enrollment, time.Now()))
	}
	return &enrollment, nil
}

// Get returns the enrollment of userID in courseID.
func (t *Tracker) Get(ctx context.Context, userID, courseID uint) (*courseModels.Enrollment, error) {
	var enrollment courseModels.Enrollment
	if err := t.db.WithContext(ctx).
		Where("user_id = ? AND course_id = ? AND is_deleted = ?", userID, courseID, false).
		First(&enrollment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEnrollmentNotFound
		}
		return nil, fmt.Errorf("load enrollment: %w", err)
	}
	return &enrollment, nil
}

// recalculate refreshes progress columns of enrollment inside tx and
// reports whether this update took it to 100%.
func recalculate(tx *gorm.DB, enrollment *courseModels.Enrollment) (bool, error) {
	var totalContent int64
	var completedContent int64

	if err := tx.Model(&courseModels.CourseContent{}).
		Where("course_id = ? AND is_deleted = ? AND is_published = ?", enrollment.CourseID, false, true).
		Count(&totalContent).Error; err != nil {
		return false, fmt.Errorf("count contents: %w", err)
	}
	if err := tx.Model(&courseModels.ContentCompletion{}).
		Where("user_id = ? AND course_id = ? AND is_deleted = ?", enrollment.UserID, enrollment.CourseID, false).
		Count(&completedContent).Error; err != nil {
		return false, fmt.Errorf("count completions: %w", err)
	}

	wasComplete := enrollment.IsComplete()

	enrollment.CompletedContents = int(completedContent)
	enrollment.TotalContents = int(totalContent)
	if totalContent > 0 {
		enrollment.ProgressPercentage = float64(completedContent) / float64(totalContent) * 100
		if enrollment.ProgressPercentage > 100 {
			enrollment.ProgressPercentage = 100
		}
	}

	if enrollment.IsComplete() {
		enrollment.Status = courseModels.EnrollmentCompleted
		if enrollment.CompletedAt == nil {
			now := time.Now()
			enrollment.CompletedAt = &now
		}
	} else if enrollment.ProgressPercentage > 0 {
		enrollment.Status = courseModels.EnrollmentInProgress
	}

	if err := tx.Model(&courseModels.Enrollment{}).Where("id = ?", enrollment.ID).Updates(map[string]interface{}{
		"completed_contents":  enrollment.CompletedContents,
		"total_contents":      enrollment.TotalContents,
		"progress_percentage": enrollment.ProgressPercentage,
		"status":              enrollment.Status,
		"completed_at":        enrollment.CompletedAt,
	}).Error; err != nil {
		return false, fmt.Errorf("save progress: %w", err)
	}

	return !wasComplete && enrollment.IsComplete(), nil
}

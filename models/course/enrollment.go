package course

import (
	"time"

	"gorm.io/gorm"
)

const (
	EnrollmentEnrolled   = "ENROLLED"
	EnrollmentInProgress = "IN_PROGRESS"
	EnrollmentCompleted  = "COMPLETED"
)

// Enrollment tracks a user's enrollment in a course with progress.
// FinalGrade is written only by the final grade aggregator once
// ProgressPercentage reaches 100.
type Enrollment struct {
	gorm.Model
	UserID             uint       `json:"user_id" gorm:"index;not null"`
	CourseID           uint       `json:"course_id" gorm:"index;not null"`
	Status             string     `json:"status" gorm:"default:'ENROLLED'"`
	ProgressPercentage float64    `json:"progress_percentage" gorm:"default:0"` // 0-100
	CompletedContents  int        `json:"completed_contents" gorm:"default:0"`
	TotalContents      int        `json:"total_contents" gorm:"default:0"`
	CompletedAt        *time.Time `json:"completed_at"`
	FinalGrade         *float64   `json:"final_grade"`
	FinalGradedAt      *time.Time `json:"final_graded_at"`
	IsDeleted          bool       `gorm:"default:false"`
}

// IsComplete reports whether the learner has finished every course content.
func (e Enrollment) IsComplete() bool {
	return e.ProgressPercentage >= 100
}

package course

import "gorm.io/gorm"

// CourseContent is one unit a learner must complete to reach 100% progress.
type CourseContent struct {
	gorm.Model
	CourseID    uint   `json:"course_id" gorm:"index;not null"`
	Title       string `json:"title"`
	ContentType string `json:"content_type" gorm:"default:'TEXT'"` // TEXT, QUIZ, VIDEO
	QuizID      *uint  `json:"quiz_id,omitempty"`                  // For QUIZ type
	OrderIndex  int    `json:"order_index" gorm:"default:0"`
	IsPublished bool   `json:"is_published" gorm:"default:false"`
	IsDeleted   bool   `gorm:"default:false"`
}

// ContentCompletion tracks user's completion of course content
type ContentCompletion struct {
	gorm.Model
	UserID          uint   `json:"user_id" gorm:"index;not null"`
	CourseID        uint   `json:"course_id" gorm:"index;not null"`
	CourseContentID uint   `json:"course_content_id" gorm:"index;not null"`
	Status          string `json:"status" gorm:"default:'COMPLETED'"`
	IsDeleted       bool   `gorm:"default:false"`
}

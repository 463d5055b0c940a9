package course

import "gorm.io/gorm"

type QuizStatus string

const (
	QuizDraft     QuizStatus = "draft"
	QuizPublished QuizStatus = "published"
)

type QuestionType string

const (
	QuestionMCQ       QuestionType = "mcq"
	QuestionTrueFalse QuestionType = "true_false"
	QuestionText      QuestionType = "text"
)

// Quiz is authored outside this service and read-only here.
type Quiz struct {
	gorm.Model
	CourseID         uint       `json:"course_id" gorm:"index;not null"`
	Title            string     `json:"title"`
	DurationMinutes  int        `json:"duration_minutes"`
	PassingScore     int        `json:"passing_score"`
	MaxScore         int        `json:"max_score"`
	Status           QuizStatus `json:"status" gorm:"type:varchar(20);default:'draft'"`
	AutoGradeEnabled bool       `json:"auto_grade_enabled" gorm:"default:false"`
	IsDeleted        bool       `gorm:"default:false"`
}

// Question belongs to a quiz. ExpectedBoolean is the authored answer of a
// true_false question; when nil the answer is left to manual grading.
type Question struct {
	gorm.Model
	QuizID          uint             `json:"quiz_id" gorm:"index;not null"`
	Type            QuestionType     `json:"type" gorm:"type:varchar(20);not null"`
	Text            string           `json:"text" gorm:"type:text"`
	Point           int              `json:"point" gorm:"default:1"`
	IsRequired      bool             `json:"is_required" gorm:"default:false"`
	ExpectedBoolean *bool            `json:"-"`
	OrderIndex      int              `json:"order_index" gorm:"default:0"`
	Options         []QuestionOption `json:"options,omitempty" gorm:"foreignKey:QuestionID"`
}

// QuestionOption represents an option for a multiple choice question
type QuestionOption struct {
	gorm.Model
	QuestionID uint   `json:"question_id" gorm:"index;not null"`
	OptionText string `json:"option_text"`
	IsCorrect  bool   `json:"-" gorm:"default:false"`
	OrderIndex int    `json:"order_index" gorm:"default:0"`
}

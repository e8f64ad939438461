package models

import (
	"time"

	"gorm.io/datatypes"
)

// AnswerChoices is the fixed set of valid answer labels for quiz questions.
var AnswerChoices = []string{"A", "B", "C", "D"}

// Quiz is attached to exactly one lesson. PassingScore is the percentage
// threshold an attempt must reach to count as passed.
type Quiz struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	LessonID     uint      `gorm:"not null;uniqueIndex" json:"lesson_id"`
	Title        string    `gorm:"size:255;not null" json:"title"`
	PassingScore int       `gorm:"not null;default:70" json:"passing_score"`
	TimeLimit    int       `json:"time_limit"`
	CreatedAt    time.Time `json:"created_at"`

	Lesson    Lesson         `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Questions []QuizQuestion `gorm:"constraint:OnDelete:CASCADE" json:"questions,omitempty"`
}

// QuizQuestion holds one multiple-choice question with four fixed options.
// CorrectAnswer is a single upper-case letter out of AnswerChoices.
type QuizQuestion struct {
	ID            uint   `gorm:"primaryKey" json:"id"`
	QuizID        uint   `gorm:"not null;index" json:"quiz_id"`
	Question      string `gorm:"type:text;not null" json:"question"`
	OptionA       string `gorm:"type:text;not null" json:"option_a"`
	OptionB       string `gorm:"type:text;not null" json:"option_b"`
	OptionC       string `gorm:"type:text;not null" json:"option_c"`
	OptionD       string `gorm:"type:text;not null" json:"option_d"`
	CorrectAnswer string `gorm:"size:1;not null" json:"correct_answer"`
	Points        int    `gorm:"not null;default:1" json:"points"`
	OrderIndex    int    `json:"order_index"`
}

// QuizAttempt is one scored submission of answers. Attempts are append-only:
// retaking a quiz always creates a new row so the full history stays
// available for students and instructors. Answers keeps the submitted
// map of question ID to chosen letter for auditing.
type QuizAttempt struct {
	ID           uint              `gorm:"primaryKey" json:"id"`
	EnrollmentID uint              `gorm:"not null;index" json:"enrollment_id"`
	QuizID       uint              `gorm:"not null;index" json:"quiz_id"`
	Score        int               `gorm:"not null" json:"score"`
	TotalPoints  int               `gorm:"not null" json:"total_points"`
	Percentage   float64           `gorm:"type:decimal(5,2)" json:"percentage"`
	Passed       bool              `gorm:"not null" json:"passed"`
	Answers      datatypes.JSONMap `gorm:"type:json" json:"answers"`
	StartedAt    time.Time         `gorm:"autoCreateTime" json:"started_at"`
	CompletedAt  time.Time         `json:"completed_at"`

	Enrollment Enrollment `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Quiz       Quiz       `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

package models

import "time"

// Lesson content types.
const (
	LessonTypeVideo      = "video"
	LessonTypeText       = "text"
	LessonTypeQuiz       = "quiz"
	LessonTypeAssignment = "assignment"
)

// Section is an ordered chapter inside a course.
type Section struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	CourseID    uint      `gorm:"not null;index" json:"course_id"`
	Title       string    `gorm:"size:255;not null" json:"title"`
	Description string    `gorm:"type:text" json:"description"`
	OrderIndex  int       `gorm:"not null" json:"order_index"`
	CreatedAt   time.Time `json:"created_at"`

	Lessons []Lesson `gorm:"constraint:OnDelete:CASCADE" json:"lessons,omitempty"`
}

// Lesson is the atomic unit of course content and of progress tracking.
type Lesson struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	SectionID   uint      `gorm:"not null;index" json:"section_id"`
	Title       string    `gorm:"size:255;not null" json:"title"`
	ContentType string    `gorm:"size:20;not null" json:"content_type"`
	VideoURL    string    `gorm:"size:500" json:"video_url"`
	TextContent string    `gorm:"type:text" json:"text_content"`
	Duration    int       `json:"duration"`
	OrderIndex  int       `gorm:"not null" json:"order_index"`
	IsPreview   bool      `gorm:"not null;default:false" json:"is_preview"`
	CreatedAt   time.Time `json:"created_at"`

	Section Section `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}

package dto

import (
	"time"

	"github.com/kelasku/kelasku-go-api/internal/models"
)

// SectionCreateRequest describes the payload for adding a section.
type SectionCreateRequest struct {
	Title       string `json:"title" validate:"required,min=2,max=255"`
	Description string `json:"description"`
	OrderIndex  int    `json:"order_index" validate:"gte=0"`
}

// SectionUpdateRequest describes a partial section update.
type SectionUpdateRequest struct {
	Title       *string `json:"title" validate:"omitempty,min=2,max=255"`
	Description *string `json:"description"`
	OrderIndex  *int    `json:"order_index" validate:"omitempty,gte=0"`
}

// LessonCreateRequest describes the payload for adding a lesson.
type LessonCreateRequest struct {
	Title       string `json:"title" validate:"required,min=2,max=255"`
	ContentType string `json:"content_type" validate:"required,oneof=video text quiz assignment"`
	VideoURL    string `json:"video_url" validate:"omitempty,url"`
	TextContent string `json:"text_content"`
	Duration    int    `json:"duration" validate:"gte=0"`
	OrderIndex  int    `json:"order_index" validate:"gte=0"`
	IsPreview   bool   `json:"is_preview"`
}

// LessonUpdateRequest describes a partial lesson update.
type LessonUpdateRequest struct {
	Title       *string `json:"title" validate:"omitempty,min=2,max=255"`
	ContentType *string `json:"content_type" validate:"omitempty,oneof=video text quiz assignment"`
	VideoURL    *string `json:"video_url" validate:"omitempty,url"`
	TextContent *string `json:"text_content"`
	Duration    *int    `json:"duration" validate:"omitempty,gte=0"`
	OrderIndex  *int    `json:"order_index" validate:"omitempty,gte=0"`
	IsPreview   *bool   `json:"is_preview"`
}

// SectionResponse is the serialized section representation.
type SectionResponse struct {
	ID          uint      `json:"id"`
	CourseID    uint      `json:"course_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	OrderIndex  int       `json:"order_index"`
	CreatedAt   time.Time `json:"created_at"`
}

// LessonResponse is the serialized lesson representation. IsCompleted is
// populated per-student when the caller has an enrollment in the course.
type LessonResponse struct {
	ID           uint      `json:"id"`
	SectionID    uint      `json:"section_id"`
	Title        string    `json:"title"`
	ContentType  string    `json:"content_type"`
	VideoURL     string    `json:"video_url"`
	TextContent  string    `json:"text_content"`
	Duration     int       `json:"duration"`
	OrderIndex   int       `json:"order_index"`
	IsPreview    bool      `json:"is_preview"`
	IsCompleted  bool      `json:"is_completed"`
	AssignmentID *uint     `json:"assignment_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// CurriculumSection pairs a section with its ordered lessons.
type CurriculumSection struct {
	SectionResponse
	Lessons []LessonResponse `json:"lessons"`
}

// CurriculumResponse is the full course outline, with the caller's
// enrollment attached when present.
type CurriculumResponse struct {
	Curriculum []CurriculumSection `json:"curriculum"`
	Enrollment *EnrollmentResponse `json:"enrollment"`
}

// NewSectionResponse converts a model into a DTO.
func NewSectionResponse(section models.Section) SectionResponse {
	return SectionResponse{
		ID:          section.ID,
		CourseID:    section.CourseID,
		Title:       section.Title,
		Description: section.Description,
		OrderIndex:  section.OrderIndex,
		CreatedAt:   section.CreatedAt,
	}
}

// NewLessonResponse converts a model into a DTO.
func NewLessonResponse(lesson models.Lesson) LessonResponse {
	return LessonResponse{
		ID:          lesson.ID,
		SectionID:   lesson.SectionID,
		Title:       lesson.Title,
		ContentType: lesson.ContentType,
		VideoURL:    lesson.VideoURL,
		TextContent: lesson.TextContent,
		Duration:    lesson.Duration,
		OrderIndex:  lesson.OrderIndex,
		IsPreview:   lesson.IsPreview,
		CreatedAt:   lesson.CreatedAt,
	}
}

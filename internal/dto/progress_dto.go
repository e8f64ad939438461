package dto

import (
	"time"

	"github.com/kelasku/kelasku-go-api/internal/models"
)

// ProgressResponse is returned after a completion-triggering event.
type ProgressResponse struct {
	Progress   int                `json:"progress"`
	Enrollment EnrollmentResponse `json:"enrollment"`
}

// LessonCompletionResponse is one completion row of an enrollment.
type LessonCompletionResponse struct {
	LessonID    uint       `json:"lesson_id"`
	Completed   bool       `json:"completed"`
	CompletedAt *time.Time `json:"completed_at"`
}

// CourseProgressResponse bundles an enrollment with its completion rows.
type CourseProgressResponse struct {
	Enrollment       EnrollmentResponse         `json:"enrollment"`
	LessonCompletion []LessonCompletionResponse `json:"lesson_progress"`
}

// CertificateResponse is the synthesized certificate descriptor. It is
// regenerated on every call and never persisted.
type CertificateResponse struct {
	Serial      string     `json:"id"`
	Course      string     `json:"course"`
	Student     string     `json:"student"`
	CompletedAt *time.Time `json:"date"`
	URL         string     `json:"url"`
}

// NewLessonCompletionResponses converts completion rows into DTOs.
func NewLessonCompletionResponses(completions []models.LessonCompletion) []LessonCompletionResponse {
	responses := make([]LessonCompletionResponse, 0, len(completions))
	for _, completion := range completions {
		responses = append(responses, LessonCompletionResponse{
			LessonID:    completion.LessonID,
			Completed:   completion.Completed,
			CompletedAt: completion.CompletedAt,
		})
	}

	return responses
}

package dto

import (
	"time"

	"github.com/kelasku/kelasku-go-api/internal/models"
)

// AssignmentCreateRequest describes the payload for attaching an assignment
// to a lesson.
type AssignmentCreateRequest struct {
	Title       string `json:"title" validate:"required,min=3,max=255"`
	Description string `json:"description"`
	DueDate     string `json:"due_date" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
	MaxScore    int    `json:"max_score" validate:"omitempty,gte=1"`
}

// SubmissionCreateRequest describes a student handing in work. Either text
// content or a file reference must be present.
type SubmissionCreateRequest struct {
	Content string `json:"content"`
	FileURL string `json:"file_url" validate:"omitempty,url"`
}

// GradeRequest describes an instructor grading a submission.
type GradeRequest struct {
	Grade    *int   `json:"grade" validate:"required,gte=0"`
	Feedback string `json:"feedback"`
}

// AssignmentResponse is the serialized assignment representation.
type AssignmentResponse struct {
	ID          uint      `json:"id"`
	LessonID    uint      `json:"lesson_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	DueDate     time.Time `json:"due_date"`
	MaxScore    int       `json:"max_score"`
	CreatedAt   time.Time `json:"created_at"`
}

// SubmissionResponse is the serialized submission representation.
type SubmissionResponse struct {
	ID           uint       `json:"id"`
	AssignmentID uint       `json:"assignment_id"`
	StudentID    uint       `json:"student_id"`
	StudentName  string     `json:"student_name,omitempty"`
	Content      string     `json:"content"`
	FileURL      string     `json:"file_url"`
	SubmittedAt  time.Time  `json:"submitted_at"`
	Grade        *int       `json:"grade"`
	Feedback     string     `json:"feedback"`
	GradedBy     *uint      `json:"graded_by"`
	GradedAt     *time.Time `json:"graded_at"`
}

// AssignmentWithSubmissionResponse pairs an assignment with the calling
// student's submission, if any.
type AssignmentWithSubmissionResponse struct {
	Assignment *AssignmentResponse `json:"assignment"`
	Submission *SubmissionResponse `json:"submission"`
}

// NewAssignmentResponse converts a model into a DTO.
func NewAssignmentResponse(assignment models.Assignment) AssignmentResponse {
	return AssignmentResponse{
		ID:          assignment.ID,
		LessonID:    assignment.LessonID,
		Title:       assignment.Title,
		Description: assignment.Description,
		DueDate:     assignment.DueDate,
		MaxScore:    assignment.MaxScore,
		CreatedAt:   assignment.CreatedAt,
	}
}

// NewSubmissionResponse converts a model into a DTO.
func NewSubmissionResponse(submission models.AssignmentSubmission) SubmissionResponse {
	response := SubmissionResponse{
		ID:           submission.ID,
		AssignmentID: submission.AssignmentID,
		StudentID:    submission.StudentID,
		Content:      submission.Content,
		FileURL:      submission.FileURL,
		SubmittedAt:  submission.SubmittedAt,
		Grade:        submission.Grade,
		Feedback:     submission.Feedback,
		GradedBy:     submission.GradedBy,
		GradedAt:     submission.GradedAt,
	}
	if submission.Student.ID != 0 {
		response.StudentName = submission.Student.Name
	}

	return response
}

// NewSubmissionResponseSlice converts submissions into DTOs.
func NewSubmissionResponseSlice(submissions []models.AssignmentSubmission) []SubmissionResponse {
	responses := make([]SubmissionResponse, 0, len(submissions))
	for _, submission := range submissions {
		responses = append(responses, NewSubmissionResponse(submission))
	}

	return responses
}

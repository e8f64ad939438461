package dto

import (
	"time"

	"github.com/kelasku/kelasku-go-api/internal/models"
)

// ReviewCreateRequest describes a student rating a course.
type ReviewCreateRequest struct {
	Rating int    `json:"rating" validate:"required,gte=1,lte=5"`
	Review string `json:"review" validate:"omitempty,max=5000"`
}

// ReviewUpdateRequest describes a partial review update.
type ReviewUpdateRequest struct {
	Rating *int    `json:"rating" validate:"omitempty,gte=1,lte=5"`
	Review *string `json:"review" validate:"omitempty,max=5000"`
}

// ReviewResponse is the serialized review representation.
type ReviewResponse struct {
	ID            uint      `json:"id"`
	CourseID      uint      `json:"course_id"`
	StudentID     uint      `json:"student_id"`
	StudentName   string    `json:"student_name,omitempty"`
	StudentAvatar string    `json:"student_avatar,omitempty"`
	Rating        int       `json:"rating"`
	Review        string    `json:"review"`
	HelpfulCount  int       `json:"helpful_count"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// NewReviewResponse converts a model into a DTO.
func NewReviewResponse(review models.Review) ReviewResponse {
	response := ReviewResponse{
		ID:           review.ID,
		CourseID:     review.CourseID,
		StudentID:    review.StudentID,
		Rating:       review.Rating,
		Review:       review.Review,
		HelpfulCount: review.HelpfulCount,
		CreatedAt:    review.CreatedAt,
		UpdatedAt:    review.UpdatedAt,
	}
	if review.Student.ID != 0 {
		response.StudentName = review.Student.Name
		response.StudentAvatar = review.Student.Avatar
	}

	return response
}

// NewReviewResponseSlice converts reviews into DTOs.
func NewReviewResponseSlice(reviews []models.Review) []ReviewResponse {
	responses := make([]ReviewResponse, 0, len(reviews))
	for _, review := range reviews {
		responses = append(responses, NewReviewResponse(review))
	}

	return responses
}

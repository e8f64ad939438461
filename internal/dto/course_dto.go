package dto

import (
	"time"

	"github.com/kelasku/kelasku-go-api/internal/models"
)

// CourseCreateRequest describes the payload for publishing a new course.
type CourseCreateRequest struct {
	Title       string  `json:"title" validate:"required,min=3,max=255"`
	Description string  `json:"description" validate:"required,min=10"`
	CategoryID  uint    `json:"category_id" validate:"required"`
	Level       string  `json:"level" validate:"required,oneof=beginner intermediate advanced"`
	Price       float64 `json:"price" validate:"gte=0"`
	Thumbnail   string  `json:"thumbnail" validate:"omitempty,url"`
	Status      string  `json:"status" validate:"omitempty,oneof=draft published archived"`
}

// CourseUpdateRequest describes a partial course update.
type CourseUpdateRequest struct {
	Title       *string  `json:"title" validate:"omitempty,min=3,max=255"`
	Description *string  `json:"description" validate:"omitempty,min=10"`
	CategoryID  *uint    `json:"category_id"`
	Level       *string  `json:"level" validate:"omitempty,oneof=beginner intermediate advanced"`
	Price       *float64 `json:"price" validate:"omitempty,gte=0"`
	Thumbnail   *string  `json:"thumbnail" validate:"omitempty,url"`
	Status      *string  `json:"status" validate:"omitempty,oneof=draft published archived"`
}

// CourseListQuery carries catalog browsing parameters.
type CourseListQuery struct {
	Category string
	Level    string
	PriceMin *float64
	PriceMax *float64
	Search   string
	Sort     string
	Page     int
	Limit    int
}

// CourseResponse is the serialized course representation for API clients.
type CourseResponse struct {
	ID               uint      `json:"id"`
	InstructorID     uint      `json:"instructor_id"`
	InstructorName   string    `json:"instructor_name,omitempty"`
	Title            string    `json:"title"`
	Slug             string    `json:"slug"`
	Description      string    `json:"description"`
	CategoryID       *uint     `json:"category_id"`
	CategoryName     string    `json:"category_name,omitempty"`
	Level            string    `json:"level"`
	Price            float64   `json:"price"`
	Thumbnail        string    `json:"thumbnail"`
	Status           string    `json:"status"`
	TotalLessons     int       `json:"total_lessons"`
	TotalDuration    int       `json:"total_duration"`
	TotalEnrollments int       `json:"total_enrollments"`
	AverageRating    float64   `json:"average_rating"`
	IsEnrolled       bool      `json:"is_enrolled"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// CourseListResponse bundles a catalog page with the total row count.
type CourseListResponse struct {
	Courses []CourseResponse `json:"courses"`
	Total   int64            `json:"total"`
}

// EnrollmentResponse is the serialized enrollment representation.
type EnrollmentResponse struct {
	ID          uint       `json:"id"`
	StudentID   uint       `json:"student_id"`
	CourseID    uint       `json:"course_id"`
	Progress    int        `json:"progress"`
	EnrolledAt  time.Time  `json:"enrolled_at"`
	CompletedAt *time.Time `json:"completed_at"`
}

// EnrolledCourseResponse pairs a course with the student's enrollment state.
type EnrolledCourseResponse struct {
	CourseResponse
	EnrollmentID uint       `json:"enrollment_id"`
	Progress     int        `json:"progress"`
	EnrolledAt   time.Time  `json:"enrolled_at"`
	CompletedAt  *time.Time `json:"completed_at"`
}

// NewCourseResponse converts a model into a DTO.
func NewCourseResponse(course models.Course) CourseResponse {
	response := CourseResponse{
		ID:               course.ID,
		InstructorID:     course.InstructorID,
		Title:            course.Title,
		Slug:             course.Slug,
		Description:      course.Description,
		CategoryID:       course.CategoryID,
		Level:            course.Level,
		Price:            course.Price,
		Thumbnail:        course.Thumbnail,
		Status:           course.Status,
		TotalLessons:     course.TotalLessons,
		TotalDuration:    course.TotalDuration,
		TotalEnrollments: course.TotalEnrollments,
		AverageRating:    course.AverageRating,
		CreatedAt:        course.CreatedAt,
		UpdatedAt:        course.UpdatedAt,
	}
	if course.Instructor.ID != 0 {
		response.InstructorName = course.Instructor.Name
	}
	if course.Category != nil {
		response.CategoryName = course.Category.Name
	}

	return response
}

// NewCourseResponseSlice converts a slice of models into DTOs.
func NewCourseResponseSlice(courses []models.Course) []CourseResponse {
	responses := make([]CourseResponse, 0, len(courses))
	for _, course := range courses {
		responses = append(responses, NewCourseResponse(course))
	}

	return responses
}

// NewEnrollmentResponse converts a model into a DTO.
func NewEnrollmentResponse(enrollment models.Enrollment) EnrollmentResponse {
	return EnrollmentResponse{
		ID:          enrollment.ID,
		StudentID:   enrollment.StudentID,
		CourseID:    enrollment.CourseID,
		Progress:    enrollment.Progress,
		EnrolledAt:  enrollment.EnrolledAt,
		CompletedAt: enrollment.CompletedAt,
	}
}

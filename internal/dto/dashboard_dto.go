package dto

import (
	"time"

	"github.com/kelasku/kelasku-go-api/internal/models"
	"github.com/kelasku/kelasku-go-api/internal/repository"
)

// RecentCourse is a compact course card on the student dashboard.
type RecentCourse struct {
	CourseID   uint      `json:"course_id"`
	Title      string    `json:"title"`
	Thumbnail  string    `json:"thumbnail"`
	Progress   int       `json:"progress"`
	EnrolledAt time.Time `json:"enrolled_at"`
}

// StudentDashboardResponse aggregates a student's learning state.
type StudentDashboardResponse struct {
	Stats         repository.StudentStats `json:"stats"`
	RecentCourses []RecentCourse          `json:"recent_courses"`
}

// TopCourse is a compact course entry on the instructor dashboard.
type TopCourse struct {
	CourseID         uint    `json:"course_id"`
	Title            string  `json:"title"`
	TotalEnrollments int     `json:"total_enrollments"`
	AverageRating    float64 `json:"average_rating"`
}

// InstructorDashboardResponse aggregates teaching activity.
type InstructorDashboardResponse struct {
	Stats      repository.InstructorStats `json:"stats"`
	TopCourses []TopCourse                `json:"top_courses"`
}

// AdminDashboardResponse aggregates platform-wide totals.
type AdminDashboardResponse struct {
	TotalStudents    int64 `json:"total_students"`
	TotalInstructors int64 `json:"total_instructors"`
	TotalCourses     int64 `json:"total_courses"`
}

// NewRecentCourses converts enrollments (with preloaded courses) into
// dashboard cards.
func NewRecentCourses(enrollments []models.Enrollment) []RecentCourse {
	cards := make([]RecentCourse, 0, len(enrollments))
	for _, enrollment := range enrollments {
		cards = append(cards, RecentCourse{
			CourseID:   enrollment.CourseID,
			Title:      enrollment.Course.Title,
			Thumbnail:  enrollment.Course.Thumbnail,
			Progress:   enrollment.Progress,
			EnrolledAt: enrollment.EnrolledAt,
		})
	}

	return cards
}

// NewTopCourses converts courses into dashboard entries.
func NewTopCourses(courses []models.Course) []TopCourse {
	entries := make([]TopCourse, 0, len(courses))
	for _, course := range courses {
		entries = append(entries, TopCourse{
			CourseID:         course.ID,
			Title:            course.Title,
			TotalEnrollments: course.TotalEnrollments,
			AverageRating:    course.AverageRating,
		})
	}

	return entries
}

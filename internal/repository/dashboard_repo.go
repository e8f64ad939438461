package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/kelasku/kelasku-go-api/internal/models"
)

// StudentStats aggregates a student's enrollment counts.
type StudentStats struct {
	TotalEnrolled    int64 `json:"total_enrolled"`
	CompletedCourses int64 `json:"completed_courses"`
	ActiveCourses    int64 `json:"active_courses"`
}

// InstructorStats aggregates teaching activity for an instructor.
type InstructorStats struct {
	TotalCourses  int64   `json:"total_courses"`
	TotalStudents int64   `json:"total_students"`
	AverageRating float64 `json:"average_rating"`
}

// DashboardRepository runs the aggregate queries behind the dashboards.
type DashboardRepository interface {
	StudentStats(ctx context.Context, studentID uint) (StudentStats, error)
	RecentEnrollments(ctx context.Context, studentID uint, limit int) ([]models.Enrollment, error)
	InstructorStats(ctx context.Context, instructorID uint) (InstructorStats, error)
}

type dashboardRepository struct {
	db *gorm.DB
}

// NewDashboardRepository instantiates a GORM-backed repository.
func NewDashboardRepository(db *gorm.DB) DashboardRepository {
	return &dashboardRepository{db: db}
}

func (r *dashboardRepository) StudentStats(ctx context.Context, studentID uint) (StudentStats, error) {
	var stats StudentStats

	base := r.db.WithContext(ctx).Model(&models.Enrollment{}).Where("student_id = ?", studentID)
	if err := base.Session(&gorm.Session{}).Count(&stats.TotalEnrolled).Error; err != nil {
		return StudentStats{}, err
	}
	if err := base.Session(&gorm.Session{}).Where("progress = 100").Count(&stats.CompletedCourses).Error; err != nil {
		return StudentStats{}, err
	}
	stats.ActiveCourses = stats.TotalEnrolled - stats.CompletedCourses

	return stats, nil
}

func (r *dashboardRepository) RecentEnrollments(ctx context.Context, studentID uint, limit int) ([]models.Enrollment, error) {
	if limit <= 0 {
		limit = 5
	}

	var enrollments []models.Enrollment
	if err := r.db.WithContext(ctx).
		Preload("Course").
		Where("student_id = ?", studentID).
		Order("enrolled_at DESC").
		Limit(limit).
		Find(&enrollments).Error; err != nil {
		return nil, err
	}

	return enrollments, nil
}

func (r *dashboardRepository) InstructorStats(ctx context.Context, instructorID uint) (InstructorStats, error) {
	var stats InstructorStats

	if err := r.db.WithContext(ctx).Model(&models.Course{}).
		Where("instructor_id = ?", instructorID).
		Count(&stats.TotalCourses).Error; err != nil {
		return InstructorStats{}, err
	}

	if err := r.db.WithContext(ctx).Model(&models.Enrollment{}).
		Joins("JOIN courses ON courses.id = enrollments.course_id").
		Where("courses.instructor_id = ?", instructorID).
		Distinct("enrollments.student_id").
		Count(&stats.TotalStudents).Error; err != nil {
		return InstructorStats{}, err
	}

	row := r.db.WithContext(ctx).Model(&models.Course{}).
		Where("instructor_id = ?", instructorID).
		Select("COALESCE(AVG(average_rating), 0)").
		Row()
	if err := row.Scan(&stats.AverageRating); err != nil {
		return InstructorStats{}, err
	}

	return stats, nil
}

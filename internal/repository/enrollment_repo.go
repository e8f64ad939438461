package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/kelasku/kelasku-go-api/internal/models"
)

// EnrollmentRepository defines persistence operations for enrollments and
// lesson completion rows. InTransaction yields a repository bound to a single
// database transaction so the completion upsert, lesson count and progress write
// sequence is atomic with respect to concurrent completions for the same
// enrollment.
type EnrollmentRepository interface {
	Create(ctx context.Context, enrollment *models.Enrollment) error
	GetByID(ctx context.Context, id uint) (models.Enrollment, error)
	GetByStudentAndCourse(ctx context.Context, studentID, courseID uint) (models.Enrollment, error)
	ListByStudent(ctx context.Context, studentID uint) ([]models.Enrollment, error)
	ResolveByLesson(ctx context.Context, lessonID, studentID uint) (models.Enrollment, error)
	UpdateProgress(ctx context.Context, enrollmentID uint, progress int, completedAt *time.Time) error

	UpsertCompletion(ctx context.Context, enrollmentID, lessonID uint, completedAt time.Time) error
	CountCompleted(ctx context.Context, enrollmentID uint) (int64, error)
	CountCourseLessons(ctx context.Context, courseID uint) (int64, error)
	ListCompletions(ctx context.Context, enrollmentID uint) ([]models.LessonCompletion, error)

	InTransaction(ctx context.Context, fn func(repo EnrollmentRepository) error) error
}

type enrollmentRepository struct {
	db *gorm.DB
}

// NewEnrollmentRepository instantiates a GORM-backed repository.
func NewEnrollmentRepository(db *gorm.DB) EnrollmentRepository {
	return &enrollmentRepository{db: db}
}

func (r *enrollmentRepository) Create(ctx context.Context, enrollment *models.Enrollment) error {
	return r.db.WithContext(ctx).Create(enrollment).Error
}

func (r *enrollmentRepository) GetByID(ctx context.Context, id uint) (models.Enrollment, error) {
	var enrollment models.Enrollment
	if err := r.db.WithContext(ctx).
		Preload("Course").
		Preload("Student").
		First(&enrollment, id).Error; err != nil {
		return models.Enrollment{}, err
	}

	return enrollment, nil
}

func (r *enrollmentRepository) GetByStudentAndCourse(ctx context.Context, studentID, courseID uint) (models.Enrollment, error) {
	var enrollment models.Enrollment
	if err := r.db.WithContext(ctx).
		Where("student_id = ?", studentID).
		Where("course_id = ?", courseID).
		First(&enrollment).Error; err != nil {
		return models.Enrollment{}, err
	}

	return enrollment, nil
}

func (r *enrollmentRepository) ListByStudent(ctx context.Context, studentID uint) ([]models.Enrollment, error) {
	var enrollments []models.Enrollment
	if err := r.db.WithContext(ctx).
		Preload("Course").
		Where("student_id = ?", studentID).
		Order("enrolled_at DESC").
		Find(&enrollments).Error; err != nil {
		return nil, err
	}

	return enrollments, nil
}

// ResolveByLesson walks from lesson through section and course to enrollment and returns
// the caller's enrollment in the course owning the lesson. A missing row
// means the student is not enrolled (or the lesson does not exist).
func (r *enrollmentRepository) ResolveByLesson(ctx context.Context, lessonID, studentID uint) (models.Enrollment, error) {
	var enrollment models.Enrollment
	err := r.db.WithContext(ctx).Model(&models.Enrollment{}).
		Joins("JOIN courses ON courses.id = enrollments.course_id").
		Joins("JOIN sections ON sections.course_id = courses.id").
		Joins("JOIN lessons ON lessons.section_id = sections.id").
		Where("lessons.id = ?", lessonID).
		Where("enrollments.student_id = ?", studentID).
		Take(&enrollment).Error
	if err != nil {
		return models.Enrollment{}, err
	}

	return enrollment, nil
}

func (r *enrollmentRepository) UpdateProgress(ctx context.Context, enrollmentID uint, progress int, completedAt *time.Time) error {
	return r.db.WithContext(ctx).Model(&models.Enrollment{}).
		Where("id = ?", enrollmentID).
		Updates(map[string]interface{}{
			"progress":     progress,
			"completed_at": completedAt,
		}).Error
}

func (r *enrollmentRepository) UpsertCompletion(ctx context.Context, enrollmentID, lessonID uint, completedAt time.Time) error {
	completion := models.LessonCompletion{
		EnrollmentID: enrollmentID,
		LessonID:     lessonID,
		Completed:    true,
		CompletedAt:  &completedAt,
	}

	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "enrollment_id"}, {Name: "lesson_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{"completed": true, "completed_at": completedAt}),
	}).Create(&completion).Error
}

func (r *enrollmentRepository) CountCompleted(ctx context.Context, enrollmentID uint) (int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.LessonCompletion{}).
		Where("enrollment_id = ?", enrollmentID).
		Where("completed = ?", true).
		Count(&total).Error; err != nil {
		return 0, err
	}

	return total, nil
}

// CountCourseLessons counts lessons live across all sections of the course.
// The count is taken at call time so lessons added after enrollment always
// widen the progress denominator.
func (r *enrollmentRepository) CountCourseLessons(ctx context.Context, courseID uint) (int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.Lesson{}).
		Joins("JOIN sections ON sections.id = lessons.section_id").
		Where("sections.course_id = ?", courseID).
		Count(&total).Error; err != nil {
		return 0, err
	}

	return total, nil
}

func (r *enrollmentRepository) ListCompletions(ctx context.Context, enrollmentID uint) ([]models.LessonCompletion, error) {
	var completions []models.LessonCompletion
	if err := r.db.WithContext(ctx).
		Where("enrollment_id = ?", enrollmentID).
		Find(&completions).Error; err != nil {
		return nil, err
	}

	return completions, nil
}

func (r *enrollmentRepository) InTransaction(ctx context.Context, fn func(repo EnrollmentRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&enrollmentRepository{db: tx})
	})
}

package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/kelasku/kelasku-go-api/internal/models"
)

// AssignmentRepository defines persistence operations for assignments and
// their submissions. Submissions are keyed (assignment, student): upserting
// replaces the work but deliberately leaves grading fields untouched.
type AssignmentRepository interface {
	Create(ctx context.Context, assignment *models.Assignment) error
	GetByID(ctx context.Context, id uint) (models.Assignment, error)
	GetByLesson(ctx context.Context, lessonID uint) (models.Assignment, error)
	ListByCourse(ctx context.Context, courseID uint) ([]models.Assignment, error)

	UpsertSubmission(ctx context.Context, submission *models.AssignmentSubmission, submittedAt time.Time) error
	GetSubmission(ctx context.Context, assignmentID, studentID uint) (models.AssignmentSubmission, error)
	GetSubmissionByID(ctx context.Context, id uint) (models.AssignmentSubmission, error)
	UpdateSubmission(ctx context.Context, submission *models.AssignmentSubmission) error
	ListSubmissions(ctx context.Context, assignmentID uint) ([]models.AssignmentSubmission, error)
}

type assignmentRepository struct {
	db *gorm.DB
}

// NewAssignmentRepository instantiates a GORM-backed repository.
func NewAssignmentRepository(db *gorm.DB) AssignmentRepository {
	return &assignmentRepository{db: db}
}

func (r *assignmentRepository) Create(ctx context.Context, assignment *models.Assignment) error {
	return r.db.WithContext(ctx).Create(assignment).Error
}

func (r *assignmentRepository) GetByID(ctx context.Context, id uint) (models.Assignment, error) {
	var assignment models.Assignment
	if err := r.db.WithContext(ctx).First(&assignment, id).Error; err != nil {
		return models.Assignment{}, err
	}

	return assignment, nil
}

func (r *assignmentRepository) GetByLesson(ctx context.Context, lessonID uint) (models.Assignment, error) {
	var assignment models.Assignment
	if err := r.db.WithContext(ctx).Where("lesson_id = ?", lessonID).First(&assignment).Error; err != nil {
		return models.Assignment{}, err
	}

	return assignment, nil
}

func (r *assignmentRepository) ListByCourse(ctx context.Context, courseID uint) ([]models.Assignment, error) {
	var assignments []models.Assignment
	if err := r.db.WithContext(ctx).
		Joins("JOIN lessons ON lessons.id = assignments.lesson_id").
		Joins("JOIN sections ON sections.id = lessons.section_id").
		Where("sections.course_id = ?", courseID).
		Find(&assignments).Error; err != nil {
		return nil, err
	}

	return assignments, nil
}

func (r *assignmentRepository) UpsertSubmission(ctx context.Context, submission *models.AssignmentSubmission, submittedAt time.Time) error {
	submission.SubmittedAt = submittedAt

	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "assignment_id"}, {Name: "student_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"content":      submission.Content,
			"file_url":     submission.FileURL,
			"submitted_at": submittedAt,
		}),
	}).Create(submission).Error
}

func (r *assignmentRepository) GetSubmission(ctx context.Context, assignmentID, studentID uint) (models.AssignmentSubmission, error) {
	var submission models.AssignmentSubmission
	if err := r.db.WithContext(ctx).
		Where("assignment_id = ?", assignmentID).
		Where("student_id = ?", studentID).
		First(&submission).Error; err != nil {
		return models.AssignmentSubmission{}, err
	}

	return submission, nil
}

func (r *assignmentRepository) GetSubmissionByID(ctx context.Context, id uint) (models.AssignmentSubmission, error) {
	var submission models.AssignmentSubmission
	if err := r.db.WithContext(ctx).
		Preload("Assignment").
		Preload("Student").
		First(&submission, id).Error; err != nil {
		return models.AssignmentSubmission{}, err
	}

	return submission, nil
}

func (r *assignmentRepository) UpdateSubmission(ctx context.Context, submission *models.AssignmentSubmission) error {
	return r.db.WithContext(ctx).Save(submission).Error
}

func (r *assignmentRepository) ListSubmissions(ctx context.Context, assignmentID uint) ([]models.AssignmentSubmission, error) {
	var submissions []models.AssignmentSubmission
	if err := r.db.WithContext(ctx).
		Preload("Student").
		Where("assignment_id = ?", assignmentID).
		Order("submitted_at DESC").
		Find(&submissions).Error; err != nil {
		return nil, err
	}

	return submissions, nil
}

package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/kelasku/kelasku-go-api/internal/models"
)

// LessonContext carries the ownership chain of a lesson
// (lesson, section, course, instructor) resolved in one query. It is the
// basis for enrollment resolution and instructor authorization checks.
type LessonContext struct {
	LessonID     uint
	SectionID    uint
	CourseID     uint
	InstructorID uint
}

// CurriculumRepository defines persistence operations for sections and
// lessons.
type CurriculumRepository interface {
	CreateSection(ctx context.Context, section *models.Section) error
	GetSection(ctx context.Context, id uint) (models.Section, error)
	UpdateSection(ctx context.Context, section *models.Section) error
	DeleteSection(ctx context.Context, id uint) error
	ListSections(ctx context.Context, courseID uint) ([]models.Section, error)

	CreateLesson(ctx context.Context, lesson *models.Lesson) error
	GetLesson(ctx context.Context, id uint) (models.Lesson, error)
	UpdateLesson(ctx context.Context, lesson *models.Lesson) error
	DeleteLesson(ctx context.Context, id uint) error
	ListLessonsByCourse(ctx context.Context, courseID uint) ([]models.Lesson, error)

	ResolveLessonContext(ctx context.Context, lessonID uint) (LessonContext, error)
	ResolveSectionContext(ctx context.Context, sectionID uint) (LessonContext, error)
}

type curriculumRepository struct {
	db *gorm.DB
}

// NewCurriculumRepository instantiates a GORM-backed repository.
func NewCurriculumRepository(db *gorm.DB) CurriculumRepository {
	return &curriculumRepository{db: db}
}

func (r *curriculumRepository) CreateSection(ctx context.Context, section *models.Section) error {
	return r.db.WithContext(ctx).Create(section).Error
}

func (r *curriculumRepository) GetSection(ctx context.Context, id uint) (models.Section, error) {
	var section models.Section
	if err := r.db.WithContext(ctx).First(&section, id).Error; err != nil {
		return models.Section{}, err
	}

	return section, nil
}

func (r *curriculumRepository) UpdateSection(ctx context.Context, section *models.Section) error {
	return r.db.WithContext(ctx).Save(section).Error
}

func (r *curriculumRepository) DeleteSection(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.Section{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *curriculumRepository) ListSections(ctx context.Context, courseID uint) ([]models.Section, error) {
	var sections []models.Section
	if err := r.db.WithContext(ctx).
		Where("course_id = ?", courseID).
		Order("order_index ASC").
		Find(&sections).Error; err != nil {
		return nil, err
	}

	return sections, nil
}

func (r *curriculumRepository) CreateLesson(ctx context.Context, lesson *models.Lesson) error {
	return r.db.WithContext(ctx).Create(lesson).Error
}

func (r *curriculumRepository) GetLesson(ctx context.Context, id uint) (models.Lesson, error) {
	var lesson models.Lesson
	if err := r.db.WithContext(ctx).First(&lesson, id).Error; err != nil {
		return models.Lesson{}, err
	}

	return lesson, nil
}

func (r *curriculumRepository) UpdateLesson(ctx context.Context, lesson *models.Lesson) error {
	return r.db.WithContext(ctx).Save(lesson).Error
}

func (r *curriculumRepository) DeleteLesson(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.Lesson{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *curriculumRepository) ListLessonsByCourse(ctx context.Context, courseID uint) ([]models.Lesson, error) {
	var lessons []models.Lesson
	if err := r.db.WithContext(ctx).
		Joins("JOIN sections ON sections.id = lessons.section_id").
		Where("sections.course_id = ?", courseID).
		Order("lessons.order_index ASC").
		Find(&lessons).Error; err != nil {
		return nil, err
	}

	return lessons, nil
}

func (r *curriculumRepository) ResolveLessonContext(ctx context.Context, lessonID uint) (LessonContext, error) {
	var resolved LessonContext
	err := r.db.WithContext(ctx).Model(&models.Lesson{}).
		Select("lessons.id AS lesson_id, sections.id AS section_id, courses.id AS course_id, courses.instructor_id AS instructor_id").
		Joins("JOIN sections ON sections.id = lessons.section_id").
		Joins("JOIN courses ON courses.id = sections.course_id").
		Where("lessons.id = ?", lessonID).
		Take(&resolved).Error
	if err != nil {
		return LessonContext{}, err
	}

	return resolved, nil
}

func (r *curriculumRepository) ResolveSectionContext(ctx context.Context, sectionID uint) (LessonContext, error) {
	var resolved LessonContext
	err := r.db.WithContext(ctx).Model(&models.Section{}).
		Select("sections.id AS section_id, courses.id AS course_id, courses.instructor_id AS instructor_id").
		Joins("JOIN courses ON courses.id = sections.course_id").
		Where("sections.id = ?", sectionID).
		Take(&resolved).Error
	if err != nil {
		return LessonContext{}, err
	}

	return resolved, nil
}

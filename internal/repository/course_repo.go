package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/kelasku/kelasku-go-api/internal/models"
)

// CourseFilter describes catalog browsing options.
type CourseFilter struct {
	Category string
	Level    string
	PriceMin *float64
	PriceMax *float64
	Search   string
	Sort     string
	Page     int
	PageSize int
}

// CourseRepository defines persistence operations for courses, including the
// single recomputation point for the denormalized course counters.
type CourseRepository interface {
	List(ctx context.Context, filter CourseFilter) ([]models.Course, int64, error)
	GetByID(ctx context.Context, id uint) (models.Course, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
	Create(ctx context.Context, course *models.Course) error
	Update(ctx context.Context, course *models.Course) error
	Delete(ctx context.Context, id uint) error
	ListByInstructor(ctx context.Context, instructorID uint) ([]models.Course, error)
	TopByEnrollments(ctx context.Context, instructorID uint, limit int) ([]models.Course, error)
	Count(ctx context.Context) (int64, error)
	RefreshAggregates(ctx context.Context, courseID uint) error
}

type courseRepository struct {
	db *gorm.DB
}

// NewCourseRepository instantiates a GORM-backed repository.
func NewCourseRepository(db *gorm.DB) CourseRepository {
	return &courseRepository{db: db}
}

func (r *courseRepository) baseQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.Course{}).
		Preload("Instructor").
		Preload("Category")
}

func (r *courseRepository) List(ctx context.Context, filter CourseFilter) ([]models.Course, int64, error) {
	query := r.baseQuery(ctx)

	if filter.Category != "" {
		query = query.Joins("JOIN categories ON categories.id = courses.category_id").
			Where("categories.name = ?", filter.Category)
	}
	if filter.Level != "" {
		query = query.Where("courses.level = ?", filter.Level)
	}
	if filter.PriceMin != nil {
		query = query.Where("courses.price >= ?", *filter.PriceMin)
	}
	if filter.PriceMax != nil {
		query = query.Where("courses.price <= ?", *filter.PriceMax)
	}
	if filter.Search != "" {
		pattern := "%" + strings.ToLower(strings.TrimSpace(filter.Search)) + "%"
		query = query.Where("LOWER(courses.title) LIKE ? OR LOWER(courses.description) LIKE ?", pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = query.Order(normalizeCourseSort(filter.Sort))

	if filter.PageSize > 0 {
		page := filter.Page
		if page <= 0 {
			page = 1
		}
		query = query.Offset((page - 1) * filter.PageSize).Limit(filter.PageSize)
	}

	var courses []models.Course
	if err := query.Find(&courses).Error; err != nil {
		return nil, 0, err
	}

	return courses, total, nil
}

func (r *courseRepository) GetByID(ctx context.Context, id uint) (models.Course, error) {
	var course models.Course
	if err := r.baseQuery(ctx).First(&course, id).Error; err != nil {
		return models.Course{}, err
	}

	return course, nil
}

func (r *courseRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.Course{}).Where("slug = ?", slug).Count(&total).Error; err != nil {
		return false, err
	}

	return total > 0, nil
}

func (r *courseRepository) Create(ctx context.Context, course *models.Course) error {
	return r.db.WithContext(ctx).Create(course).Error
}

func (r *courseRepository) Update(ctx context.Context, course *models.Course) error {
	return r.db.WithContext(ctx).Save(course).Error
}

func (r *courseRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.Course{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *courseRepository) ListByInstructor(ctx context.Context, instructorID uint) ([]models.Course, error) {
	var courses []models.Course
	if err := r.db.WithContext(ctx).
		Where("instructor_id = ?", instructorID).
		Order("created_at DESC").
		Find(&courses).Error; err != nil {
		return nil, err
	}

	return courses, nil
}

func (r *courseRepository) TopByEnrollments(ctx context.Context, instructorID uint, limit int) ([]models.Course, error) {
	if limit <= 0 {
		limit = 5
	}

	var courses []models.Course
	if err := r.db.WithContext(ctx).
		Where("instructor_id = ?", instructorID).
		Order("total_enrollments DESC").
		Limit(limit).
		Find(&courses).Error; err != nil {
		return nil, err
	}

	return courses, nil
}

func (r *courseRepository) Count(ctx context.Context) (int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.Course{}).Count(&total).Error; err != nil {
		return 0, err
	}

	return total, nil
}

// RefreshAggregates recomputes every denormalized counter on the course row
// from its child rows. All structural and review mutations funnel through
// this one statement instead of maintaining increments at each call site.
func (r *courseRepository) RefreshAggregates(ctx context.Context, courseID uint) error {
	return r.db.WithContext(ctx).Exec(`
		UPDATE courses SET
			total_lessons = (
				SELECT COUNT(lessons.id) FROM lessons
				JOIN sections ON lessons.section_id = sections.id
				WHERE sections.course_id = courses.id
			),
			total_duration = (
				SELECT COALESCE(SUM(lessons.duration), 0) FROM lessons
				JOIN sections ON lessons.section_id = sections.id
				WHERE sections.course_id = courses.id
			),
			total_enrollments = (
				SELECT COUNT(enrollments.id) FROM enrollments
				WHERE enrollments.course_id = courses.id
			),
			average_rating = (
				SELECT COALESCE(AVG(reviews.rating), 0) FROM reviews
				WHERE reviews.course_id = courses.id
			)
		WHERE courses.id = ?`, courseID).Error
}

func normalizeCourseSort(sort string) string {
	switch strings.ToLower(strings.TrimSpace(sort)) {
	case "popularity":
		return "total_enrollments DESC"
	case "rating":
		return "average_rating DESC"
	case "price_asc":
		return "price ASC"
	case "price_desc":
		return "price DESC"
	case "newest", "":
		return "courses.created_at DESC"
	default:
		return "courses.created_at DESC"
	}
}

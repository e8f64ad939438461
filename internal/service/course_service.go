package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/kelasku/kelasku-go-api/internal/dto"
	"github.com/kelasku/kelasku-go-api/internal/models"
	"github.com/kelasku/kelasku-go-api/internal/repository"
)

// ErrCourseNotFound indicates the course was not located.
var ErrCourseNotFound = errors.New("course not found")

// ErrAlreadyEnrolled indicates the student already holds an enrollment in
// the course.
var ErrAlreadyEnrolled = errors.New("already enrolled in this course")

// ErrCourseNotPublished indicates the course is not open for enrollment.
var ErrCourseNotPublished = errors.New("course is not published")

var slugPattern = regexp.MustCompile(`[^a-z0-9]+`)

// CourseService owns the course catalog and enrollment lifecycle.
type CourseService interface {
	List(ctx context.Context, query dto.CourseListQuery, studentID uint) (dto.CourseListResponse, error)
	Get(ctx context.Context, courseID, studentID uint) (dto.CourseResponse, error)
	Create(ctx context.Context, payload dto.CourseCreateRequest, instructorID uint) (dto.CourseResponse, error)
	Update(ctx context.Context, courseID uint, payload dto.CourseUpdateRequest, actor Actor) (dto.CourseResponse, error)
	Delete(ctx context.Context, courseID uint, actor Actor) error
	Enroll(ctx context.Context, courseID, studentID uint) (dto.EnrollmentResponse, error)
	MyCourses(ctx context.Context, studentID uint) ([]dto.EnrolledCourseResponse, error)
	InstructorCourses(ctx context.Context, instructorID uint) ([]dto.CourseResponse, error)
}

type courseService struct {
	courses     repository.CourseRepository
	enrollments repository.EnrollmentRepository
	events      EventPublisher
	validator   *validator.Validate
	sanitizer   *bluemonday.Policy
	logger      zerolog.Logger
	tracer      trace.Tracer
	now         func() time.Time
}

// NewCourseService constructs the course service.
func NewCourseService(
	courses repository.CourseRepository,
	enrollments repository.EnrollmentRepository,
	events EventPublisher,
	validate *validator.Validate,
	logger zerolog.Logger,
) CourseService {
	return &courseService{
		courses:     courses,
		enrollments: enrollments,
		events:      events,
		validator:   validate,
		sanitizer:   bluemonday.UGCPolicy(),
		logger:      logger.With().Str("component", "course_service").Logger(),
		tracer:      otel.Tracer("github.com/kelasku/kelasku-go-api/internal/service/course"),
		now:         time.Now,
	}
}

func (s *courseService) List(ctx context.Context, query dto.CourseListQuery, studentID uint) (dto.CourseListResponse, error) {
	courses, total, err := s.courses.List(ctx, repository.CourseFilter{
		Category: query.Category,
		Level:    query.Level,
		PriceMin: query.PriceMin,
		PriceMax: query.PriceMax,
		Search:   query.Search,
		Sort:     query.Sort,
		Page:     query.Page,
		PageSize: query.Limit,
	})
	if err != nil {
		return dto.CourseListResponse{}, err
	}

	responses := dto.NewCourseResponseSlice(courses)
	if studentID != 0 {
		s.markEnrolled(ctx, responses, studentID)
	}

	return dto.CourseListResponse{Courses: responses, Total: total}, nil
}

func (s *courseService) Get(ctx context.Context, courseID, studentID uint) (dto.CourseResponse, error) {
	course, err := s.courses.GetByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.CourseResponse{}, ErrCourseNotFound
		}
		return dto.CourseResponse{}, err
	}

	response := dto.NewCourseResponse(course)
	if studentID != 0 {
		if _, err := s.enrollments.GetByStudentAndCourse(ctx, studentID, courseID); err == nil {
			response.IsEnrolled = true
		}
	}

	return response, nil
}

func (s *courseService) Create(ctx context.Context, payload dto.CourseCreateRequest, instructorID uint) (dto.CourseResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.CourseResponse{}, err
	}

	slug, err := s.uniqueSlug(ctx, payload.Title)
	if err != nil {
		return dto.CourseResponse{}, err
	}

	status := payload.Status
	if status == "" {
		status = models.CourseStatusDraft
	}

	categoryID := payload.CategoryID
	course := models.Course{
		InstructorID: instructorID,
		Title:        s.sanitizer.Sanitize(payload.Title),
		Slug:         slug,
		Description:  s.sanitizer.Sanitize(payload.Description),
		CategoryID:   &categoryID,
		Level:        payload.Level,
		Price:        payload.Price,
		Thumbnail:    payload.Thumbnail,
		Status:       status,
	}

	if err := s.courses.Create(ctx, &course); err != nil {
		return dto.CourseResponse{}, err
	}

	s.logger.Info().
		Uint("course_id", course.ID).
		Uint("instructor_id", instructorID).
		Str("slug", slug).
		Msg("course created")

	return dto.NewCourseResponse(course), nil
}

func (s *courseService) Update(ctx context.Context, courseID uint, payload dto.CourseUpdateRequest, actor Actor) (dto.CourseResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.CourseResponse{}, err
	}

	course, err := s.ownedCourse(ctx, courseID, actor)
	if err != nil {
		return dto.CourseResponse{}, err
	}

	if payload.Title != nil {
		course.Title = s.sanitizer.Sanitize(*payload.Title)
	}
	if payload.Description != nil {
		course.Description = s.sanitizer.Sanitize(*payload.Description)
	}
	if payload.CategoryID != nil {
		course.CategoryID = payload.CategoryID
	}
	if payload.Level != nil {
		course.Level = *payload.Level
	}
	if payload.Price != nil {
		course.Price = *payload.Price
	}
	if payload.Thumbnail != nil {
		course.Thumbnail = *payload.Thumbnail
	}
	if payload.Status != nil {
		course.Status = *payload.Status
	}

	if err := s.courses.Update(ctx, &course); err != nil {
		return dto.CourseResponse{}, err
	}

	return dto.NewCourseResponse(course), nil
}

func (s *courseService) Delete(ctx context.Context, courseID uint, actor Actor) error {
	if _, err := s.ownedCourse(ctx, courseID, actor); err != nil {
		return err
	}

	return s.courses.Delete(ctx, courseID)
}

// Enroll opens an enrollment in a published course. The (student, course)
// pair is unique, so a duplicate request fails before hitting the database
// constraint.
func (s *courseService) Enroll(ctx context.Context, courseID, studentID uint) (dto.EnrollmentResponse, error) {
	ctx, span := s.tracer.Start(ctx, "course.enroll", trace.WithAttributes(
		attribute.Int64("course.id", int64(courseID)),
		attribute.Int64("student.id", int64(studentID)),
	))
	defer span.End()

	course, err := s.courses.GetByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.EnrollmentResponse{}, ErrCourseNotFound
		}
		span.RecordError(err)
		return dto.EnrollmentResponse{}, err
	}

	if course.Status != models.CourseStatusPublished {
		return dto.EnrollmentResponse{}, ErrCourseNotPublished
	}

	if _, err := s.enrollments.GetByStudentAndCourse(ctx, studentID, courseID); err == nil {
		return dto.EnrollmentResponse{}, ErrAlreadyEnrolled
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		span.RecordError(err)
		return dto.EnrollmentResponse{}, err
	}

	enrollment := models.Enrollment{
		StudentID:  studentID,
		CourseID:   courseID,
		Progress:   0,
		EnrolledAt: s.now(),
	}

	if err := s.enrollments.Create(ctx, &enrollment); err != nil {
		span.RecordError(err)
		return dto.EnrollmentResponse{}, err
	}

	if err := s.courses.RefreshAggregates(ctx, courseID); err != nil {
		s.logger.Error().Err(err).Uint("course_id", courseID).Msg("failed to refresh course aggregates")
	}

	if s.events != nil {
		s.events.Publish(EventCourseEnrolled, map[string]interface{}{
			"enrollment_id": enrollment.ID,
			"course_id":     courseID,
			"student_id":    studentID,
		})
	}

	return dto.NewEnrollmentResponse(enrollment), nil
}

func (s *courseService) MyCourses(ctx context.Context, studentID uint) ([]dto.EnrolledCourseResponse, error) {
	enrollments, err := s.enrollments.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.EnrolledCourseResponse, 0, len(enrollments))
	for _, enrollment := range enrollments {
		responses = append(responses, dto.EnrolledCourseResponse{
			CourseResponse: dto.NewCourseResponse(enrollment.Course),
			EnrollmentID:   enrollment.ID,
			Progress:       enrollment.Progress,
			EnrolledAt:     enrollment.EnrolledAt,
			CompletedAt:    enrollment.CompletedAt,
		})
	}

	return responses, nil
}

func (s *courseService) InstructorCourses(ctx context.Context, instructorID uint) ([]dto.CourseResponse, error) {
	courses, err := s.courses.ListByInstructor(ctx, instructorID)
	if err != nil {
		return nil, err
	}

	return dto.NewCourseResponseSlice(courses), nil
}

func (s *courseService) ownedCourse(ctx context.Context, courseID uint, actor Actor) (models.Course, error) {
	course, err := s.courses.GetByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Course{}, ErrCourseNotFound
		}
		return models.Course{}, err
	}

	if course.InstructorID != actor.ID && !actor.IsAdmin() {
		return models.Course{}, ErrNotCourseOwner
	}

	return course, nil
}

func (s *courseService) markEnrolled(ctx context.Context, responses []dto.CourseResponse, studentID uint) {
	enrollments, err := s.enrollments.ListByStudent(ctx, studentID)
	if err != nil {
		s.logger.Warn().Err(err).Uint("student_id", studentID).Msg("failed to load enrollments for catalog flags")
		return
	}

	enrolled := make(map[uint]struct{}, len(enrollments))
	for _, enrollment := range enrollments {
		enrolled[enrollment.CourseID] = struct{}{}
	}
	for i := range responses {
		if _, ok := enrolled[responses[i].ID]; ok {
			responses[i].IsEnrolled = true
		}
	}
}

// uniqueSlug lowercases the title, collapses non-alphanumerics to hyphens
// and appends a numeric suffix until the slug is free.
func (s *courseService) uniqueSlug(ctx context.Context, title string) (string, error) {
	base := strings.Trim(slugPattern.ReplaceAllString(strings.ToLower(title), "-"), "-")
	if base == "" {
		base = "course"
	}

	slug := base
	for i := 2; ; i++ {
		exists, err := s.courses.SlugExists(ctx, slug)
		if err != nil {
			return "", err
		}
		if !exists {
			return slug, nil
		}
		slug = fmt.Sprintf("%s-%d", base, i)
	}
}

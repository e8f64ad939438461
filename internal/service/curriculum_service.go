package service

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/kelasku/kelasku-go-api/internal/dto"
	"github.com/kelasku/kelasku-go-api/internal/models"
	"github.com/kelasku/kelasku-go-api/internal/repository"
)

// ErrSectionNotFound indicates the section was not located.
var ErrSectionNotFound = errors.New("section not found")

// CurriculumService owns the course outline: sections, lessons and the
// per-student curriculum view.
type CurriculumService interface {
	CreateSection(ctx context.Context, courseID uint, payload dto.SectionCreateRequest, actor Actor) (dto.SectionResponse, error)
	UpdateSection(ctx context.Context, sectionID uint, payload dto.SectionUpdateRequest, actor Actor) (dto.SectionResponse, error)
	DeleteSection(ctx context.Context, sectionID uint, actor Actor) error

	CreateLesson(ctx context.Context, sectionID uint, payload dto.LessonCreateRequest, actor Actor) (dto.LessonResponse, error)
	UpdateLesson(ctx context.Context, lessonID uint, payload dto.LessonUpdateRequest, actor Actor) (dto.LessonResponse, error)
	DeleteLesson(ctx context.Context, lessonID uint, actor Actor) error

	Curriculum(ctx context.Context, courseID, studentID uint) (dto.CurriculumResponse, error)
}

type curriculumService struct {
	curriculum  repository.CurriculumRepository
	courses     repository.CourseRepository
	enrollments repository.EnrollmentRepository
	assignments repository.AssignmentRepository
	validator   *validator.Validate
	sanitizer   *bluemonday.Policy
	logger      zerolog.Logger
	now         func() time.Time
}

// NewCurriculumService constructs the curriculum service.
func NewCurriculumService(
	curriculum repository.CurriculumRepository,
	courses repository.CourseRepository,
	enrollments repository.EnrollmentRepository,
	assignments repository.AssignmentRepository,
	validate *validator.Validate,
	logger zerolog.Logger,
) CurriculumService {
	return &curriculumService{
		curriculum:  curriculum,
		courses:     courses,
		enrollments: enrollments,
		assignments: assignments,
		validator:   validate,
		sanitizer:   bluemonday.UGCPolicy(),
		logger:      logger.With().Str("component", "curriculum_service").Logger(),
		now:         time.Now,
	}
}

func (s *curriculumService) CreateSection(ctx context.Context, courseID uint, payload dto.SectionCreateRequest, actor Actor) (dto.SectionResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.SectionResponse{}, err
	}

	course, err := s.courses.GetByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SectionResponse{}, ErrCourseNotFound
		}
		return dto.SectionResponse{}, err
	}
	if course.InstructorID != actor.ID && !actor.IsAdmin() {
		return dto.SectionResponse{}, ErrNotCourseOwner
	}

	section := models.Section{
		CourseID:    courseID,
		Title:       s.sanitizer.Sanitize(payload.Title),
		Description: s.sanitizer.Sanitize(payload.Description),
		OrderIndex:  payload.OrderIndex,
	}

	if err := s.curriculum.CreateSection(ctx, &section); err != nil {
		return dto.SectionResponse{}, err
	}

	return dto.NewSectionResponse(section), nil
}

func (s *curriculumService) UpdateSection(ctx context.Context, sectionID uint, payload dto.SectionUpdateRequest, actor Actor) (dto.SectionResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.SectionResponse{}, err
	}

	if _, err := s.authorizeSection(ctx, sectionID, actor); err != nil {
		return dto.SectionResponse{}, err
	}

	section, err := s.curriculum.GetSection(ctx, sectionID)
	if err != nil {
		return dto.SectionResponse{}, err
	}

	if payload.Title != nil {
		section.Title = s.sanitizer.Sanitize(*payload.Title)
	}
	if payload.Description != nil {
		section.Description = s.sanitizer.Sanitize(*payload.Description)
	}
	if payload.OrderIndex != nil {
		section.OrderIndex = *payload.OrderIndex
	}

	if err := s.curriculum.UpdateSection(ctx, &section); err != nil {
		return dto.SectionResponse{}, err
	}

	return dto.NewSectionResponse(section), nil
}

func (s *curriculumService) DeleteSection(ctx context.Context, sectionID uint, actor Actor) error {
	sectionCtx, err := s.authorizeSection(ctx, sectionID, actor)
	if err != nil {
		return err
	}

	if err := s.curriculum.DeleteSection(ctx, sectionID); err != nil {
		return err
	}

	s.refreshAggregates(ctx, sectionCtx.CourseID)
	return nil
}

func (s *curriculumService) CreateLesson(ctx context.Context, sectionID uint, payload dto.LessonCreateRequest, actor Actor) (dto.LessonResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.LessonResponse{}, err
	}

	sectionCtx, err := s.authorizeSection(ctx, sectionID, actor)
	if err != nil {
		return dto.LessonResponse{}, err
	}

	lesson := models.Lesson{
		SectionID:   sectionID,
		Title:       s.sanitizer.Sanitize(payload.Title),
		ContentType: payload.ContentType,
		VideoURL:    payload.VideoURL,
		TextContent: s.sanitizer.Sanitize(payload.TextContent),
		Duration:    payload.Duration,
		OrderIndex:  payload.OrderIndex,
		IsPreview:   payload.IsPreview,
	}

	if err := s.curriculum.CreateLesson(ctx, &lesson); err != nil {
		return dto.LessonResponse{}, err
	}

	// Adding a lesson widens the progress denominator for every existing
	// enrollment; the stored percentages catch up on each student's next
	// completion event.
	s.refreshAggregates(ctx, sectionCtx.CourseID)

	return dto.NewLessonResponse(lesson), nil
}

func (s *curriculumService) UpdateLesson(ctx context.Context, lessonID uint, payload dto.LessonUpdateRequest, actor Actor) (dto.LessonResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.LessonResponse{}, err
	}

	lessonCtx, err := s.authorizeLesson(ctx, lessonID, actor)
	if err != nil {
		return dto.LessonResponse{}, err
	}

	lesson, err := s.curriculum.GetLesson(ctx, lessonID)
	if err != nil {
		return dto.LessonResponse{}, err
	}

	if payload.Title != nil {
		lesson.Title = s.sanitizer.Sanitize(*payload.Title)
	}
	if payload.ContentType != nil {
		lesson.ContentType = *payload.ContentType
	}
	if payload.VideoURL != nil {
		lesson.VideoURL = *payload.VideoURL
	}
	if payload.TextContent != nil {
		lesson.TextContent = s.sanitizer.Sanitize(*payload.TextContent)
	}
	if payload.Duration != nil {
		lesson.Duration = *payload.Duration
	}
	if payload.OrderIndex != nil {
		lesson.OrderIndex = *payload.OrderIndex
	}
	if payload.IsPreview != nil {
		lesson.IsPreview = *payload.IsPreview
	}

	if err := s.curriculum.UpdateLesson(ctx, &lesson); err != nil {
		return dto.LessonResponse{}, err
	}

	if payload.Duration != nil {
		s.refreshAggregates(ctx, lessonCtx.CourseID)
	}

	return dto.NewLessonResponse(lesson), nil
}

func (s *curriculumService) DeleteLesson(ctx context.Context, lessonID uint, actor Actor) error {
	lessonCtx, err := s.authorizeLesson(ctx, lessonID, actor)
	if err != nil {
		return err
	}

	if err := s.curriculum.DeleteLesson(ctx, lessonID); err != nil {
		return err
	}

	s.refreshAggregates(ctx, lessonCtx.CourseID)
	return nil
}

// Curriculum returns the ordered outline of a course. When the caller holds
// an enrollment, each lesson carries its completion flag and the response
// includes the enrollment itself.
func (s *curriculumService) Curriculum(ctx context.Context, courseID, studentID uint) (dto.CurriculumResponse, error) {
	if _, err := s.courses.GetByID(ctx, courseID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.CurriculumResponse{}, ErrCourseNotFound
		}
		return dto.CurriculumResponse{}, err
	}

	sections, err := s.curriculum.ListSections(ctx, courseID)
	if err != nil {
		return dto.CurriculumResponse{}, err
	}
	lessons, err := s.curriculum.ListLessonsByCourse(ctx, courseID)
	if err != nil {
		return dto.CurriculumResponse{}, err
	}

	assignmentByLesson := map[uint]uint{}
	assignments, err := s.assignments.ListByCourse(ctx, courseID)
	if err != nil {
		return dto.CurriculumResponse{}, err
	}
	for _, assignment := range assignments {
		assignmentByLesson[assignment.LessonID] = assignment.ID
	}

	response := dto.CurriculumResponse{}

	completed := map[uint]bool{}
	if studentID != 0 {
		enrollment, err := s.enrollments.GetByStudentAndCourse(ctx, studentID, courseID)
		switch {
		case err == nil:
			enrollmentResponse := dto.NewEnrollmentResponse(enrollment)
			response.Enrollment = &enrollmentResponse
			completions, err := s.enrollments.ListCompletions(ctx, enrollment.ID)
			if err != nil {
				return dto.CurriculumResponse{}, err
			}
			for _, completion := range completions {
				if completion.Completed {
					completed[completion.LessonID] = true
				}
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
		default:
			return dto.CurriculumResponse{}, err
		}
	}

	lessonsBySection := map[uint][]dto.LessonResponse{}
	for _, lesson := range lessons {
		lessonResponse := dto.NewLessonResponse(lesson)
		lessonResponse.IsCompleted = completed[lesson.ID]
		if assignmentID, ok := assignmentByLesson[lesson.ID]; ok {
			id := assignmentID
			lessonResponse.AssignmentID = &id
		}
		lessonsBySection[lesson.SectionID] = append(lessonsBySection[lesson.SectionID], lessonResponse)
	}

	curriculum := make([]dto.CurriculumSection, 0, len(sections))
	for _, section := range sections {
		curriculum = append(curriculum, dto.CurriculumSection{
			SectionResponse: dto.NewSectionResponse(section),
			Lessons:         lessonsBySection[section.ID],
		})
	}
	response.Curriculum = curriculum

	return response, nil
}

func (s *curriculumService) authorizeSection(ctx context.Context, sectionID uint, actor Actor) (repository.LessonContext, error) {
	sectionCtx, err := s.curriculum.ResolveSectionContext(ctx, sectionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return repository.LessonContext{}, ErrSectionNotFound
		}
		return repository.LessonContext{}, err
	}
	if sectionCtx.InstructorID != actor.ID && !actor.IsAdmin() {
		return repository.LessonContext{}, ErrNotCourseOwner
	}

	return sectionCtx, nil
}

func (s *curriculumService) authorizeLesson(ctx context.Context, lessonID uint, actor Actor) (repository.LessonContext, error) {
	lessonCtx, err := s.curriculum.ResolveLessonContext(ctx, lessonID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return repository.LessonContext{}, ErrLessonNotFound
		}
		return repository.LessonContext{}, err
	}
	if lessonCtx.InstructorID != actor.ID && !actor.IsAdmin() {
		return repository.LessonContext{}, ErrNotCourseOwner
	}

	return lessonCtx, nil
}

func (s *curriculumService) refreshAggregates(ctx context.Context, courseID uint) {
	if err := s.courses.RefreshAggregates(ctx, courseID); err != nil {
		s.logger.Error().Err(err).Uint("course_id", courseID).Msg("failed to refresh course aggregates")
	}
}

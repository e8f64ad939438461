package service

import (
	"context"
	"errors"
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
	"github.com/kelasku/kelasku-go-api/internal/observability"
	"github.com/kelasku/kelasku-go-api/internal/repository"
)

// ErrAssignmentNotFound indicates the assignment was not located.
var ErrAssignmentNotFound = errors.New("assignment not found")

// ErrSubmissionNotFound indicates the submission was not located.
var ErrSubmissionNotFound = errors.New("submission not found")

// ErrSubmissionEmpty indicates a submission carried neither text content nor
// a file reference.
var ErrSubmissionEmpty = errors.New("submission requires content or a file")

// ErrGradeOutOfRange indicates a grade outside [0, max_score].
var ErrGradeOutOfRange = errors.New("grade exceeds assignment max score")

// AssignmentService owns assignment authoring, submissions and the grading
// workflow.
type AssignmentService interface {
	Create(ctx context.Context, lessonID uint, payload dto.AssignmentCreateRequest, actor Actor) (dto.AssignmentResponse, error)
	GetForStudent(ctx context.Context, assignmentID, studentID uint) (dto.AssignmentWithSubmissionResponse, error)
	GetByLesson(ctx context.Context, lessonID uint) (dto.AssignmentResponse, error)
	SubmitWork(ctx context.Context, assignmentID, studentID uint, payload dto.SubmissionCreateRequest) (dto.SubmissionResponse, error)
	Grade(ctx context.Context, submissionID uint, payload dto.GradeRequest, actor Actor) (dto.SubmissionResponse, error)
	ListSubmissions(ctx context.Context, assignmentID uint, actor Actor) ([]dto.SubmissionResponse, error)
}

type assignmentService struct {
	assignments repository.AssignmentRepository
	curriculum  repository.CurriculumRepository
	enrollments repository.EnrollmentRepository
	completion  CompletionTrigger
	events      EventPublisher
	validator   *validator.Validate
	sanitizer   *bluemonday.Policy
	logger      zerolog.Logger
	tracer      trace.Tracer
	now         func() time.Time
}

// NewAssignmentService constructs the assignment service.
func NewAssignmentService(
	assignments repository.AssignmentRepository,
	curriculum repository.CurriculumRepository,
	enrollments repository.EnrollmentRepository,
	completion CompletionTrigger,
	events EventPublisher,
	validate *validator.Validate,
	logger zerolog.Logger,
) AssignmentService {
	return &assignmentService{
		assignments: assignments,
		curriculum:  curriculum,
		enrollments: enrollments,
		completion:  completion,
		events:      events,
		validator:   validate,
		sanitizer:   bluemonday.UGCPolicy(),
		logger:      logger.With().Str("component", "assignment_service").Logger(),
		tracer:      otel.Tracer("github.com/kelasku/kelasku-go-api/internal/service/assignment"),
		now:         time.Now,
	}
}

func (s *assignmentService) Create(ctx context.Context, lessonID uint, payload dto.AssignmentCreateRequest, actor Actor) (dto.AssignmentResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.AssignmentResponse{}, err
	}

	lessonCtx, err := s.curriculum.ResolveLessonContext(ctx, lessonID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AssignmentResponse{}, ErrLessonNotFound
		}
		return dto.AssignmentResponse{}, err
	}

	if lessonCtx.InstructorID != actor.ID && !actor.IsAdmin() {
		return dto.AssignmentResponse{}, ErrNotCourseOwner
	}

	maxScore := payload.MaxScore
	if maxScore <= 0 {
		maxScore = 100
	}

	assignment := models.Assignment{
		LessonID:    lessonID,
		Title:       s.sanitizer.Sanitize(payload.Title),
		Description: s.sanitizer.Sanitize(payload.Description),
		MaxScore:    maxScore,
	}
	if payload.DueDate != "" {
		dueDate, err := time.Parse(time.RFC3339, payload.DueDate)
		if err != nil {
			return dto.AssignmentResponse{}, err
		}
		assignment.DueDate = dueDate
	}

	if err := s.assignments.Create(ctx, &assignment); err != nil {
		return dto.AssignmentResponse{}, err
	}

	return dto.NewAssignmentResponse(assignment), nil
}

// GetForStudent returns the assignment alongside the caller's submission.
// The student must be enrolled in the owning course.
func (s *assignmentService) GetForStudent(ctx context.Context, assignmentID, studentID uint) (dto.AssignmentWithSubmissionResponse, error) {
	assignment, err := s.assignments.GetByID(ctx, assignmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AssignmentWithSubmissionResponse{}, ErrAssignmentNotFound
		}
		return dto.AssignmentWithSubmissionResponse{}, err
	}

	if _, err := s.enrollments.ResolveByLesson(ctx, assignment.LessonID, studentID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AssignmentWithSubmissionResponse{}, ErrEnrollmentNotFound
		}
		return dto.AssignmentWithSubmissionResponse{}, err
	}

	response := dto.AssignmentWithSubmissionResponse{}
	assignmentResponse := dto.NewAssignmentResponse(assignment)
	response.Assignment = &assignmentResponse

	submission, err := s.assignments.GetSubmission(ctx, assignmentID, studentID)
	switch {
	case err == nil:
		submissionResponse := dto.NewSubmissionResponse(submission)
		response.Submission = &submissionResponse
	case errors.Is(err, gorm.ErrRecordNotFound):
	default:
		return dto.AssignmentWithSubmissionResponse{}, err
	}

	return response, nil
}

func (s *assignmentService) GetByLesson(ctx context.Context, lessonID uint) (dto.AssignmentResponse, error) {
	assignment, err := s.assignments.GetByLesson(ctx, lessonID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AssignmentResponse{}, ErrAssignmentNotFound
		}
		return dto.AssignmentResponse{}, err
	}

	return dto.NewAssignmentResponse(assignment), nil
}

// SubmitWork records or replaces the student's submission. Resubmitting
// overwrites content, file and timestamp while leaving any existing grade,
// feedback and grading metadata untouched.
func (s *assignmentService) SubmitWork(ctx context.Context, assignmentID, studentID uint, payload dto.SubmissionCreateRequest) (dto.SubmissionResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.SubmissionResponse{}, err
	}
	if payload.Content == "" && payload.FileURL == "" {
		return dto.SubmissionResponse{}, ErrSubmissionEmpty
	}

	assignment, err := s.assignments.GetByID(ctx, assignmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionResponse{}, ErrAssignmentNotFound
		}
		return dto.SubmissionResponse{}, err
	}

	if _, err := s.enrollments.ResolveByLesson(ctx, assignment.LessonID, studentID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionResponse{}, ErrEnrollmentNotFound
		}
		return dto.SubmissionResponse{}, err
	}

	submission := models.AssignmentSubmission{
		AssignmentID: assignmentID,
		StudentID:    studentID,
		Content:      s.sanitizer.Sanitize(payload.Content),
		FileURL:      payload.FileURL,
	}

	if err := s.assignments.UpsertSubmission(ctx, &submission, s.now()); err != nil {
		return dto.SubmissionResponse{}, err
	}

	// The upsert leaves prior grading fields in place on resubmission;
	// reload so the response reflects the stored row.
	stored, err := s.assignments.GetSubmission(ctx, assignmentID, studentID)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}

	return dto.NewSubmissionResponse(stored), nil
}

// Grade records a score and feedback for a submission, then marks the
// assignment's lesson complete for the student's enrollment. Only the
// course's instructor or an admin may grade, and the grade must fall within
// [0, max_score].
func (s *assignmentService) Grade(ctx context.Context, submissionID uint, payload dto.GradeRequest, actor Actor) (dto.SubmissionResponse, error) {
	ctx, span := s.tracer.Start(ctx, "assignment.grade", trace.WithAttributes(
		attribute.Int64("submission.id", int64(submissionID)),
		attribute.Int64("grader.id", int64(actor.ID)),
	))
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		return dto.SubmissionResponse{}, err
	}

	submission, err := s.assignments.GetSubmissionByID(ctx, submissionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionResponse{}, ErrSubmissionNotFound
		}
		span.RecordError(err)
		return dto.SubmissionResponse{}, err
	}

	lessonCtx, err := s.curriculum.ResolveLessonContext(ctx, submission.Assignment.LessonID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionResponse{}, ErrLessonNotFound
		}
		span.RecordError(err)
		return dto.SubmissionResponse{}, err
	}

	if lessonCtx.InstructorID != actor.ID && !actor.IsAdmin() {
		return dto.SubmissionResponse{}, ErrNotCourseOwner
	}

	grade := *payload.Grade
	if grade < 0 || grade > submission.Assignment.MaxScore {
		return dto.SubmissionResponse{}, ErrGradeOutOfRange
	}

	gradedAt := s.now()
	graderID := actor.ID
	submission.Grade = &grade
	submission.Feedback = s.sanitizer.Sanitize(payload.Feedback)
	submission.GradedBy = &graderID
	submission.GradedAt = &gradedAt

	if err := s.assignments.UpdateSubmission(ctx, &submission); err != nil {
		span.RecordError(err)
		return dto.SubmissionResponse{}, err
	}

	if s.events != nil {
		s.events.Publish(EventSubmissionGraded, map[string]interface{}{
			"submission_id": submission.ID,
			"assignment_id": submission.AssignmentID,
			"student_id":    submission.StudentID,
			"grade":         grade,
			"graded_by":     actor.ID,
		})
	}

	// A graded assignment counts as progress on its lesson.
	enrollment, err := s.enrollments.ResolveByLesson(ctx, submission.Assignment.LessonID, submission.StudentID)
	switch {
	case err == nil:
		if s.completion != nil {
			observability.LessonCompletions().WithLabelValues("grading").Inc()
			if _, err := s.completion.CompleteLesson(ctx, enrollment.ID, submission.Assignment.LessonID); err != nil {
				s.logger.Error().Err(err).
					Uint("enrollment_id", enrollment.ID).
					Uint("lesson_id", submission.Assignment.LessonID).
					Msg("failed to mark lesson complete after grading")
			}
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		s.logger.Warn().
			Uint("submission_id", submission.ID).
			Uint("student_id", submission.StudentID).
			Msg("graded submission has no matching enrollment")
	default:
		span.RecordError(err)
		return dto.SubmissionResponse{}, err
	}

	return dto.NewSubmissionResponse(submission), nil
}

// ListSubmissions returns every submission for an assignment, instructor or
// admin only.
func (s *assignmentService) ListSubmissions(ctx context.Context, assignmentID uint, actor Actor) ([]dto.SubmissionResponse, error) {
	assignment, err := s.assignments.GetByID(ctx, assignmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAssignmentNotFound
		}
		return nil, err
	}

	lessonCtx, err := s.curriculum.ResolveLessonContext(ctx, assignment.LessonID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLessonNotFound
		}
		return nil, err
	}

	if lessonCtx.InstructorID != actor.ID && !actor.IsAdmin() {
		return nil, ErrNotCourseOwner
	}

	submissions, err := s.assignments.ListSubmissions(ctx, assignmentID)
	if err != nil {
		return nil, err
	}

	return dto.NewSubmissionResponseSlice(submissions), nil
}

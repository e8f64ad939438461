package service

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/kelasku/kelasku-go-api/internal/dto"
	"github.com/kelasku/kelasku-go-api/internal/models"
	"github.com/kelasku/kelasku-go-api/internal/observability"
	"github.com/kelasku/kelasku-go-api/internal/repository"
)

// ErrEnrollmentNotFound indicates the caller has no enrollment covering the
// requested lesson or enrollment id.
var ErrEnrollmentNotFound = errors.New("enrollment not found")

// CompletionTrigger marks a lesson complete for an enrollment and
// recalculates the enrollment's progress. The quiz and assignment workflows
// depend on this capability instead of re-implementing the
// lesson-to-enrollment resolution themselves.
type CompletionTrigger interface {
	CompleteLesson(ctx context.Context, enrollmentID, lessonID uint) (models.Enrollment, error)
}

// ProgressService owns lesson completion tracking and the derived enrollment
// progress percentage.
type ProgressService interface {
	CompletionTrigger
	MarkLessonComplete(ctx context.Context, lessonID, studentID uint) (dto.ProgressResponse, error)
	Recalculate(ctx context.Context, enrollmentID uint) (models.Enrollment, error)
	GetCourseProgress(ctx context.Context, enrollmentID, studentID uint) (dto.CourseProgressResponse, error)
}

type progressService struct {
	enrollments repository.EnrollmentRepository
	events      EventPublisher
	logger      zerolog.Logger
	tracer      trace.Tracer
	now         func() time.Time
}

// NewProgressService constructs the progress service.
func NewProgressService(enrollments repository.EnrollmentRepository, events EventPublisher, logger zerolog.Logger) ProgressService {
	return &progressService{
		enrollments: enrollments,
		events:      events,
		logger:      logger.With().Str("component", "progress_service").Logger(),
		tracer:      otel.Tracer("github.com/kelasku/kelasku-go-api/internal/service/progress"),
		now:         time.Now,
	}
}

// MarkLessonComplete resolves the caller's enrollment for a lesson and runs
// the completion trigger. Students who are not enrolled in the course owning
// the lesson get ErrEnrollmentNotFound, never a silent write.
func (s *progressService) MarkLessonComplete(ctx context.Context, lessonID, studentID uint) (dto.ProgressResponse, error) {
	ctx, span := s.tracer.Start(ctx, "progress.mark_lesson_complete", trace.WithAttributes(
		attribute.Int64("lesson.id", int64(lessonID)),
		attribute.Int64("student.id", int64(studentID)),
	))
	defer span.End()

	enrollment, err := s.enrollments.ResolveByLesson(ctx, lessonID, studentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			span.SetStatus(codes.Error, "enrollment_not_found")
			return dto.ProgressResponse{}, ErrEnrollmentNotFound
		}
		span.RecordError(err)
		return dto.ProgressResponse{}, err
	}

	updated, err := s.CompleteLesson(ctx, enrollment.ID, lessonID)
	if err != nil {
		span.RecordError(err)
		return dto.ProgressResponse{}, err
	}

	observability.LessonCompletions().WithLabelValues("manual").Inc()

	return dto.ProgressResponse{
		Progress:   updated.Progress,
		Enrollment: dto.NewEnrollmentResponse(updated),
	}, nil
}

// CompleteLesson upserts the completion row and recalculates progress inside
// a single transaction, so two completions racing on the same enrollment can
// never leave a stale percentage behind.
func (s *progressService) CompleteLesson(ctx context.Context, enrollmentID, lessonID uint) (models.Enrollment, error) {
	ctx, span := s.tracer.Start(ctx, "progress.complete_lesson", trace.WithAttributes(
		attribute.Int64("enrollment.id", int64(enrollmentID)),
		attribute.Int64("lesson.id", int64(lessonID)),
	))
	defer span.End()

	var updated models.Enrollment
	err := s.enrollments.InTransaction(ctx, func(repo repository.EnrollmentRepository) error {
		enrollment, err := repo.GetByID(ctx, enrollmentID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrEnrollmentNotFound
			}
			return err
		}

		if err := repo.UpsertCompletion(ctx, enrollmentID, lessonID, s.now()); err != nil {
			return err
		}

		updated, err = s.recalculate(ctx, repo, enrollment)
		return err
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "complete_lesson_failed")
		return models.Enrollment{}, err
	}

	span.SetAttributes(attribute.Int("enrollment.progress", updated.Progress))

	if s.events != nil {
		s.events.Publish(EventProgressUpdated, map[string]interface{}{
			"enrollment_id": updated.ID,
			"course_id":     updated.CourseID,
			"student_id":    updated.StudentID,
			"progress":      updated.Progress,
			"completed":     updated.IsCompleted(),
		})
	}

	return updated, nil
}

// Recalculate re-derives the progress percentage from the live lesson count
// without marking anything complete. Invoked after structural course changes
// and safe to call any number of times.
func (s *progressService) Recalculate(ctx context.Context, enrollmentID uint) (models.Enrollment, error) {
	var updated models.Enrollment
	err := s.enrollments.InTransaction(ctx, func(repo repository.EnrollmentRepository) error {
		enrollment, err := repo.GetByID(ctx, enrollmentID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrEnrollmentNotFound
			}
			return err
		}

		updated, err = s.recalculate(ctx, repo, enrollment)
		return err
	})
	if err != nil {
		return models.Enrollment{}, err
	}

	return updated, nil
}

// recalculate runs the derivation steps against the provided (possibly
// transaction-bound) repository. The denominator is always the live lesson
// count: adding a lesson to a finished course drops the student below 100%
// and revokes the completion timestamp until the new lesson is done.
func (s *progressService) recalculate(ctx context.Context, repo repository.EnrollmentRepository, enrollment models.Enrollment) (models.Enrollment, error) {
	totalLessons, err := repo.CountCourseLessons(ctx, enrollment.CourseID)
	if err != nil {
		return models.Enrollment{}, err
	}

	completedCount, err := repo.CountCompleted(ctx, enrollment.ID)
	if err != nil {
		return models.Enrollment{}, err
	}

	progress := 0
	if totalLessons > 0 {
		progress = roundPercent(completedCount, totalLessons)
	}

	var completedAt *time.Time
	if progress == 100 {
		finished := s.now()
		completedAt = &finished
	}

	if err := repo.UpdateProgress(ctx, enrollment.ID, progress, completedAt); err != nil {
		return models.Enrollment{}, err
	}

	s.logger.Debug().
		Uint("enrollment_id", enrollment.ID).
		Int64("completed", completedCount).
		Int64("total", totalLessons).
		Int("progress", progress).
		Msg("progress recalculated")

	enrollment.Progress = progress
	enrollment.CompletedAt = completedAt

	return enrollment, nil
}

func (s *progressService) GetCourseProgress(ctx context.Context, enrollmentID, studentID uint) (dto.CourseProgressResponse, error) {
	enrollment, err := s.enrollments.GetByID(ctx, enrollmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.CourseProgressResponse{}, ErrEnrollmentNotFound
		}
		return dto.CourseProgressResponse{}, err
	}

	if enrollment.StudentID != studentID {
		return dto.CourseProgressResponse{}, ErrEnrollmentNotFound
	}

	completions, err := s.enrollments.ListCompletions(ctx, enrollmentID)
	if err != nil {
		return dto.CourseProgressResponse{}, err
	}

	return dto.CourseProgressResponse{
		Enrollment:       dto.NewEnrollmentResponse(enrollment),
		LessonCompletion: dto.NewLessonCompletionResponses(completions),
	}, nil
}

// roundPercent computes round-half-up(completed/total × 100).
func roundPercent(completed, total int64) int {
	return int(math.Floor(float64(completed)/float64(total)*100 + 0.5))
}

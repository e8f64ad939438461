package service

import (
	"context"
	"errors"
	"math"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/kelasku/kelasku-go-api/internal/dto"
	"github.com/kelasku/kelasku-go-api/internal/models"
	"github.com/kelasku/kelasku-go-api/internal/observability"
	"github.com/kelasku/kelasku-go-api/internal/repository"
)

// ErrQuizNotFound indicates the quiz (or its lesson) was not located.
var ErrQuizNotFound = errors.New("quiz not found")

// ErrLessonNotFound indicates the referenced lesson does not exist.
var ErrLessonNotFound = errors.New("lesson not found")

// ErrNotCourseOwner indicates the actor is neither the course's instructor
// nor an admin.
var ErrNotCourseOwner = errors.New("not authorized for this course")

// Actor identifies the authenticated caller of a service operation.
type Actor struct {
	ID   uint
	Role string
}

// IsAdmin reports whether the actor holds the admin role.
func (a Actor) IsAdmin() bool {
	return a.Role == models.RoleAdmin
}

// QuizService owns quiz authoring and the scoring engine.
type QuizService interface {
	CreateOrReplace(ctx context.Context, lessonID uint, payload dto.QuizUpsertRequest, actor Actor) (dto.QuizResponse, error)
	GetByLesson(ctx context.Context, lessonID uint) (dto.QuizResponse, error)
	QuestionsForAttempt(ctx context.Context, quizID, studentID uint) ([]dto.AttemptQuestionResponse, error)
	Submit(ctx context.Context, quizID, studentID uint, payload dto.QuizSubmitRequest) (dto.QuizResultResponse, error)
	Results(ctx context.Context, quizID, studentID uint) ([]dto.QuizAttemptResponse, error)
	StudentHistory(ctx context.Context, studentID uint) ([]dto.QuizHistoryEntry, error)
}

type quizService struct {
	quizzes     repository.QuizRepository
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

// NewQuizService constructs the quiz service.
func NewQuizService(
	quizzes repository.QuizRepository,
	curriculum repository.CurriculumRepository,
	enrollments repository.EnrollmentRepository,
	completion CompletionTrigger,
	events EventPublisher,
	validate *validator.Validate,
	logger zerolog.Logger,
) QuizService {
	return &quizService{
		quizzes:     quizzes,
		curriculum:  curriculum,
		enrollments: enrollments,
		completion:  completion,
		events:      events,
		validator:   validate,
		sanitizer:   bluemonday.StrictPolicy(),
		logger:      logger.With().Str("component", "quiz_service").Logger(),
		tracer:      otel.Tracer("github.com/kelasku/kelasku-go-api/internal/service/quiz"),
		now:         time.Now,
	}
}

// CreateOrReplace upserts the quiz attached to a lesson, replacing its
// question set wholesale. Only the course's instructor or an admin may edit.
func (s *quizService) CreateOrReplace(ctx context.Context, lessonID uint, payload dto.QuizUpsertRequest, actor Actor) (dto.QuizResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.QuizResponse{}, err
	}

	lessonCtx, err := s.curriculum.ResolveLessonContext(ctx, lessonID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.QuizResponse{}, ErrLessonNotFound
		}
		return dto.QuizResponse{}, err
	}

	if lessonCtx.InstructorID != actor.ID && !actor.IsAdmin() {
		return dto.QuizResponse{}, ErrNotCourseOwner
	}

	quiz := models.Quiz{
		LessonID:     lessonID,
		Title:        s.sanitizer.Sanitize(payload.Title),
		PassingScore: payload.PassingScore,
		TimeLimit:    payload.TimeLimit,
	}

	questions := make([]models.QuizQuestion, 0, len(payload.Questions))
	for _, q := range payload.Questions {
		points := q.Points
		if points <= 0 {
			points = 1
		}
		questions = append(questions, models.QuizQuestion{
			Question:      s.sanitizer.Sanitize(q.Question),
			OptionA:       s.sanitizer.Sanitize(q.OptionA),
			OptionB:       s.sanitizer.Sanitize(q.OptionB),
			OptionC:       s.sanitizer.Sanitize(q.OptionC),
			OptionD:       s.sanitizer.Sanitize(q.OptionD),
			CorrectAnswer: q.CorrectAnswer,
			Points:        points,
			OrderIndex:    q.OrderIndex,
		})
	}

	if err := s.quizzes.Replace(ctx, &quiz, questions); err != nil {
		return dto.QuizResponse{}, err
	}

	quiz.Questions = questions

	return dto.NewQuizResponse(quiz), nil
}

func (s *quizService) GetByLesson(ctx context.Context, lessonID uint) (dto.QuizResponse, error) {
	quiz, err := s.quizzes.GetByLesson(ctx, lessonID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.QuizResponse{}, ErrQuizNotFound
		}
		return dto.QuizResponse{}, err
	}

	return dto.NewQuizResponse(quiz), nil
}

// QuestionsForAttempt returns the question set with answers stripped. The
// student must hold an enrollment in the course owning the quiz's lesson.
func (s *quizService) QuestionsForAttempt(ctx context.Context, quizID, studentID uint) ([]dto.AttemptQuestionResponse, error) {
	quiz, _, err := s.resolveForStudent(ctx, quizID, studentID)
	if err != nil {
		return nil, err
	}

	return dto.NewAttemptQuestionResponses(quiz.Questions), nil
}

// Submit scores an answer set against the quiz's answer key and appends an
// immutable attempt row. Unanswered questions earn no credit; the engine does
// not require every question to be answered. Passing additionally marks the
// quiz's lesson complete through the completion trigger.
func (s *quizService) Submit(ctx context.Context, quizID, studentID uint, payload dto.QuizSubmitRequest) (dto.QuizResultResponse, error) {
	ctx, span := s.tracer.Start(ctx, "quiz.submit", trace.WithAttributes(
		attribute.Int64("quiz.id", int64(quizID)),
		attribute.Int64("student.id", int64(studentID)),
	))
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		span.SetStatus(codes.Error, "validation_failed")
		return dto.QuizResultResponse{}, err
	}

	quiz, enrollment, err := s.resolveForStudent(ctx, quizID, studentID)
	if err != nil {
		span.RecordError(err)
		return dto.QuizResultResponse{}, err
	}

	score, totalPoints := scoreAnswers(quiz.Questions, payload.Answers)

	// Pass/fail is decided on the raw ratio; rounding is for storage only.
	raw := 0.0
	if totalPoints > 0 {
		raw = float64(score) / float64(totalPoints) * 100
	}
	passed := raw >= float64(quiz.PassingScore)
	percentage := roundTwoDecimals(raw)

	answers := datatypes.JSONMap{}
	for questionID, letter := range payload.Answers {
		answers[strconv.FormatUint(uint64(questionID), 10)] = letter
	}

	attempt := models.QuizAttempt{
		EnrollmentID: enrollment.ID,
		QuizID:       quiz.ID,
		Score:        score,
		TotalPoints:  totalPoints,
		Percentage:   percentage,
		Passed:       passed,
		Answers:      answers,
		CompletedAt:  s.now(),
	}

	if err := s.quizzes.CreateAttempt(ctx, &attempt); err != nil {
		span.RecordError(err)
		return dto.QuizResultResponse{}, err
	}

	span.SetAttributes(
		attribute.Int("quiz.score", score),
		attribute.Float64("quiz.percentage", percentage),
		attribute.Bool("quiz.passed", passed),
	)

	outcome := "failed"
	if passed {
		outcome = "passed"
	}
	observability.QuizAttempts().WithLabelValues(outcome).Inc()

	if s.events != nil {
		s.events.Publish(EventQuizAttempted, map[string]interface{}{
			"quiz_id":       quiz.ID,
			"enrollment_id": enrollment.ID,
			"percentage":    percentage,
			"passed":        passed,
		})
	}

	if passed && s.completion != nil {
		observability.LessonCompletions().WithLabelValues("quiz").Inc()
		if _, err := s.completion.CompleteLesson(ctx, enrollment.ID, quiz.LessonID); err != nil {
			s.logger.Error().Err(err).
				Uint("enrollment_id", enrollment.ID).
				Uint("lesson_id", quiz.LessonID).
				Msg("failed to mark lesson complete after passed quiz")
		}
	}

	return dto.QuizResultResponse{
		Score:       score,
		TotalPoints: totalPoints,
		Percentage:  percentage,
		Passed:      passed,
		Attempt:     dto.NewQuizAttemptResponse(attempt),
	}, nil
}

func (s *quizService) Results(ctx context.Context, quizID, studentID uint) ([]dto.QuizAttemptResponse, error) {
	attempts, err := s.quizzes.ListAttempts(ctx, quizID, studentID)
	if err != nil {
		return nil, err
	}

	return dto.NewQuizAttemptResponseSlice(attempts), nil
}

func (s *quizService) StudentHistory(ctx context.Context, studentID uint) ([]dto.QuizHistoryEntry, error) {
	attempts, err := s.quizzes.ListAttemptsByStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}

	entries := make([]dto.QuizHistoryEntry, 0, len(attempts))
	for _, attempt := range attempts {
		entries = append(entries, dto.QuizHistoryEntry{
			QuizAttemptResponse: dto.NewQuizAttemptResponse(attempt),
			QuizTitle:           attempt.Quiz.Title,
		})
	}

	return entries, nil
}

// resolveForStudent loads the quiz and the student's enrollment in the
// course owning the quiz's lesson, rejecting non-enrolled callers.
func (s *quizService) resolveForStudent(ctx context.Context, quizID, studentID uint) (models.Quiz, models.Enrollment, error) {
	quiz, err := s.quizzes.GetByID(ctx, quizID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Quiz{}, models.Enrollment{}, ErrQuizNotFound
		}
		return models.Quiz{}, models.Enrollment{}, err
	}

	enrollment, err := s.enrollments.ResolveByLesson(ctx, quiz.LessonID, studentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Quiz{}, models.Enrollment{}, ErrEnrollmentNotFound
		}
		return models.Quiz{}, models.Enrollment{}, err
	}

	return quiz, enrollment, nil
}

// scoreAnswers accumulates total points across every question and credits a
// question's points only on an exact, case-sensitive letter match.
func scoreAnswers(questions []models.QuizQuestion, answers map[uint]string) (score, totalPoints int) {
	for _, question := range questions {
		totalPoints += question.Points
		if answers[question.ID] == question.CorrectAnswer {
			score += question.Points
		}
	}

	return score, totalPoints
}

func roundTwoDecimals(value float64) float64 {
	return math.Round(value*100) / 100
}

package service

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/kelasku/kelasku-go-api/internal/dto"
	"github.com/kelasku/kelasku-go-api/internal/models"
	"github.com/kelasku/kelasku-go-api/internal/repository"
)

// ErrReviewNotFound indicates the review was not located.
var ErrReviewNotFound = errors.New("review not found")

// ErrNotReviewOwner indicates the actor does not own the review.
var ErrNotReviewOwner = errors.New("not the review owner")

// ReviewService owns course ratings. Only enrolled students may review, one
// review per (course, student), and every rating mutation refreshes the
// course's average.
type ReviewService interface {
	ListByCourse(ctx context.Context, courseID uint) ([]dto.ReviewResponse, error)
	Create(ctx context.Context, courseID, studentID uint, payload dto.ReviewCreateRequest) (dto.ReviewResponse, error)
	Update(ctx context.Context, reviewID uint, payload dto.ReviewUpdateRequest, actor Actor) (dto.ReviewResponse, error)
	Delete(ctx context.Context, reviewID uint, actor Actor) error
	MarkHelpful(ctx context.Context, reviewID uint) error
}

type reviewService struct {
	reviews     repository.ReviewRepository
	enrollments repository.EnrollmentRepository
	courses     repository.CourseRepository
	validator   *validator.Validate
	sanitizer   *bluemonday.Policy
	logger      zerolog.Logger
}

// NewReviewService constructs the review service.
func NewReviewService(
	reviews repository.ReviewRepository,
	enrollments repository.EnrollmentRepository,
	courses repository.CourseRepository,
	validate *validator.Validate,
	logger zerolog.Logger,
) ReviewService {
	return &reviewService{
		reviews:     reviews,
		enrollments: enrollments,
		courses:     courses,
		validator:   validate,
		sanitizer:   bluemonday.UGCPolicy(),
		logger:      logger.With().Str("component", "review_service").Logger(),
	}
}

func (s *reviewService) ListByCourse(ctx context.Context, courseID uint) ([]dto.ReviewResponse, error) {
	reviews, err := s.reviews.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}

	return dto.NewReviewResponseSlice(reviews), nil
}

func (s *reviewService) Create(ctx context.Context, courseID, studentID uint, payload dto.ReviewCreateRequest) (dto.ReviewResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.ReviewResponse{}, err
	}

	if _, err := s.enrollments.GetByStudentAndCourse(ctx, studentID, courseID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ReviewResponse{}, ErrEnrollmentNotFound
		}
		return dto.ReviewResponse{}, err
	}

	review := models.Review{
		CourseID:  courseID,
		StudentID: studentID,
		Rating:    payload.Rating,
		Review:    s.sanitizer.Sanitize(payload.Review),
	}

	if err := s.reviews.Create(ctx, &review); err != nil {
		return dto.ReviewResponse{}, err
	}

	s.refreshAggregates(ctx, courseID)

	return dto.NewReviewResponse(review), nil
}

func (s *reviewService) Update(ctx context.Context, reviewID uint, payload dto.ReviewUpdateRequest, actor Actor) (dto.ReviewResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.ReviewResponse{}, err
	}

	review, err := s.ownedReview(ctx, reviewID, actor)
	if err != nil {
		return dto.ReviewResponse{}, err
	}

	if payload.Rating != nil {
		review.Rating = *payload.Rating
	}
	if payload.Review != nil {
		review.Review = s.sanitizer.Sanitize(*payload.Review)
	}

	if err := s.reviews.Update(ctx, &review); err != nil {
		return dto.ReviewResponse{}, err
	}

	if payload.Rating != nil {
		s.refreshAggregates(ctx, review.CourseID)
	}

	return dto.NewReviewResponse(review), nil
}

func (s *reviewService) Delete(ctx context.Context, reviewID uint, actor Actor) error {
	review, err := s.ownedReview(ctx, reviewID, actor)
	if err != nil {
		return err
	}

	if err := s.reviews.Delete(ctx, reviewID); err != nil {
		return err
	}

	s.refreshAggregates(ctx, review.CourseID)
	return nil
}

func (s *reviewService) MarkHelpful(ctx context.Context, reviewID uint) error {
	if err := s.reviews.IncrementHelpful(ctx, reviewID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrReviewNotFound
		}
		return err
	}

	return nil
}

func (s *reviewService) ownedReview(ctx context.Context, reviewID uint, actor Actor) (models.Review, error) {
	review, err := s.reviews.GetByID(ctx, reviewID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Review{}, ErrReviewNotFound
		}
		return models.Review{}, err
	}

	if review.StudentID != actor.ID && !actor.IsAdmin() {
		return models.Review{}, ErrNotReviewOwner
	}

	return review, nil
}

func (s *reviewService) refreshAggregates(ctx context.Context, courseID uint) {
	if err := s.courses.RefreshAggregates(ctx, courseID); err != nil {
		s.logger.Error().Err(err).Uint("course_id", courseID).Msg("failed to refresh course aggregates")
	}
}

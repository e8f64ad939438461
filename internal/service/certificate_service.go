package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/kelasku/kelasku-go-api/internal/dto"
	"github.com/kelasku/kelasku-go-api/internal/observability"
	"github.com/kelasku/kelasku-go-api/internal/repository"
)

// ErrCourseNotCompleted indicates the enrollment has not reached full
// progress yet.
var ErrCourseNotCompleted = errors.New("course not completed yet")

// CertificateService gates certificate issuance on full course progress.
// Certificates are synthesized descriptors, never persisted: a second call
// for the same enrollment yields a fresh serial.
type CertificateService interface {
	IsEligible(ctx context.Context, enrollmentID, studentID uint) (bool, error)
	Issue(ctx context.Context, enrollmentID, studentID uint) (dto.CertificateResponse, error)
}

type certificateService struct {
	enrollments repository.EnrollmentRepository
	baseURL     string
	logger      zerolog.Logger
	tracer      trace.Tracer
	now         func() time.Time
}

// NewCertificateService constructs the certificate service. baseURL prefixes
// the generated download link.
func NewCertificateService(enrollments repository.EnrollmentRepository, baseURL string, logger zerolog.Logger) CertificateService {
	return &certificateService{
		enrollments: enrollments,
		baseURL:     baseURL,
		logger:      logger.With().Str("component", "certificate_service").Logger(),
		tracer:      otel.Tracer("github.com/kelasku/kelasku-go-api/internal/service/certificate"),
		now:         time.Now,
	}
}

func (s *certificateService) IsEligible(ctx context.Context, enrollmentID, studentID uint) (bool, error) {
	enrollment, err := s.enrollments.GetByID(ctx, enrollmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, ErrEnrollmentNotFound
		}
		return false, err
	}
	if enrollment.StudentID != studentID {
		return false, ErrEnrollmentNotFound
	}

	return enrollment.IsCompleted(), nil
}

// Issue synthesizes a certificate descriptor for a completed enrollment.
// The single gate is progress: once an enrollment stands at 100 the call
// never fails for eligibility reasons.
func (s *certificateService) Issue(ctx context.Context, enrollmentID, studentID uint) (dto.CertificateResponse, error) {
	ctx, span := s.tracer.Start(ctx, "certificate.issue", trace.WithAttributes(
		attribute.Int64("enrollment.id", int64(enrollmentID)),
	))
	defer span.End()

	enrollment, err := s.enrollments.GetByID(ctx, enrollmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.CertificateResponse{}, ErrEnrollmentNotFound
		}
		span.RecordError(err)
		return dto.CertificateResponse{}, err
	}
	if enrollment.StudentID != studentID {
		return dto.CertificateResponse{}, ErrEnrollmentNotFound
	}

	if !enrollment.IsCompleted() {
		span.SetAttributes(attribute.Int("enrollment.progress", enrollment.Progress))
		return dto.CertificateResponse{}, ErrCourseNotCompleted
	}

	serial := fmt.Sprintf("CERT-%d-%d", enrollment.ID, s.now().Unix())
	observability.CertificatesIssued().Inc()

	s.logger.Info().
		Uint("enrollment_id", enrollment.ID).
		Str("serial", serial).
		Msg("certificate issued")

	return dto.CertificateResponse{
		Serial:      serial,
		Course:      enrollment.Course.Title,
		Student:     enrollment.Student.Name,
		CompletedAt: enrollment.CompletedAt,
		URL:         fmt.Sprintf("%s/certificates/%s.pdf", s.baseURL, serial),
	}, nil
}

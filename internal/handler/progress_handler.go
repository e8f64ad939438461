package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/kelasku/kelasku-go-api/internal/service"
	"github.com/kelasku/kelasku-go-api/internal/utils"
)

// ProgressHandler wires lesson completion, progress and certificate routes.
type ProgressHandler struct {
	progress     service.ProgressService
	certificates service.CertificateService
	courses      service.CourseService
	logger       zerolog.Logger
}

// NewProgressHandler constructs the handler.
func NewProgressHandler(progress service.ProgressService, certificates service.CertificateService, courses service.CourseService, logger zerolog.Logger) *ProgressHandler {
	return &ProgressHandler{
		progress:     progress,
		certificates: certificates,
		courses:      courses,
		logger:       logger.With().Str("component", "progress_handler").Logger(),
	}
}

// Register attaches the student learning endpoints.
func (h *ProgressHandler) Register(router fiber.Router) {
	router.Post("/lessons/:id/complete", h.completeLesson)
	router.Get("/enrollments/:id/progress", h.getProgress)
	router.Get("/enrollments/:id/certificate", h.getCertificate)
	router.Get("/my-courses", h.myCourses)
}

func (h *ProgressHandler) completeLesson(c *fiber.Ctx) error {
	lessonID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	response, err := h.progress.MarkLessonComplete(c.Context(), lessonID, userIDFromContext(c))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "lesson completed", response)
}

func (h *ProgressHandler) getProgress(c *fiber.Ctx) error {
	enrollmentID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	response, err := h.progress.GetCourseProgress(c.Context(), enrollmentID, userIDFromContext(c))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "progress retrieved", response)
}

func (h *ProgressHandler) getCertificate(c *fiber.Ctx) error {
	enrollmentID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	certificate, err := h.certificates.Issue(c.Context(), enrollmentID, userIDFromContext(c))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "certificate issued", certificate)
}

func (h *ProgressHandler) myCourses(c *fiber.Ctx) error {
	courses, err := h.courses.MyCourses(c.Context(), userIDFromContext(c))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "enrolled courses retrieved", courses)
}

func (h *ProgressHandler) handleError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrEnrollmentNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "enrollment not found")
	case errors.Is(err, service.ErrCourseNotCompleted):
		return utils.SendError(c, fiber.StatusBadRequest, "course not completed yet")
	default:
		h.logger.Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}

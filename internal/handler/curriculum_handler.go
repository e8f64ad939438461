package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/kelasku/kelasku-go-api/internal/dto"
	"github.com/kelasku/kelasku-go-api/internal/service"
	"github.com/kelasku/kelasku-go-api/internal/utils"
)

// CurriculumHandler wires section and lesson management routes.
type CurriculumHandler struct {
	service service.CurriculumService
	logger  zerolog.Logger
}

// NewCurriculumHandler constructs the handler.
func NewCurriculumHandler(service service.CurriculumService, logger zerolog.Logger) *CurriculumHandler {
	return &CurriculumHandler{
		service: service,
		logger:  logger.With().Str("component", "curriculum_handler").Logger(),
	}
}

// Register attaches curriculum management endpoints; instructor or admin
// role is enforced by the surrounding middleware.
func (h *CurriculumHandler) Register(router fiber.Router) {
	router.Post("/courses/:id/sections", h.createSection)
	router.Patch("/sections/:id", h.updateSection)
	router.Delete("/sections/:id", h.deleteSection)

	router.Post("/sections/:id/lessons", h.createLesson)
	router.Patch("/lessons/:id", h.updateLesson)
	router.Delete("/lessons/:id", h.deleteLesson)
}

func (h *CurriculumHandler) createSection(c *fiber.Ctx) error {
	courseID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.SectionCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	section, err := h.service.CreateSection(c.Context(), courseID, payload, actorFromContext(c))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "section created", section)
}

func (h *CurriculumHandler) updateSection(c *fiber.Ctx) error {
	sectionID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.SectionUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	section, err := h.service.UpdateSection(c.Context(), sectionID, payload, actorFromContext(c))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "section updated", section)
}

func (h *CurriculumHandler) deleteSection(c *fiber.Ctx) error {
	sectionID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.service.DeleteSection(c.Context(), sectionID, actorFromContext(c)); err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "section deleted", fiber.Map{"id": sectionID})
}

func (h *CurriculumHandler) createLesson(c *fiber.Ctx) error {
	sectionID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.LessonCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	lesson, err := h.service.CreateLesson(c.Context(), sectionID, payload, actorFromContext(c))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "lesson created", lesson)
}

func (h *CurriculumHandler) updateLesson(c *fiber.Ctx) error {
	lessonID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.LessonUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	lesson, err := h.service.UpdateLesson(c.Context(), lessonID, payload, actorFromContext(c))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "lesson updated", lesson)
}

func (h *CurriculumHandler) deleteLesson(c *fiber.Ctx) error {
	lessonID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.service.DeleteLesson(c.Context(), lessonID, actorFromContext(c)); err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "lesson deleted", fiber.Map{"id": lessonID})
}

func (h *CurriculumHandler) handleError(c *fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors
	switch {
	case errors.Is(err, service.ErrCourseNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "course not found")
	case errors.Is(err, service.ErrSectionNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "section not found")
	case errors.Is(err, service.ErrLessonNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "lesson not found")
	case errors.Is(err, service.ErrNotCourseOwner):
		return utils.SendError(c, fiber.StatusForbidden, "not authorized for this course")
	case errors.As(err, &validationErrors):
		return utils.SendError(c, fiber.StatusBadRequest, validationErrors.Error())
	default:
		h.logger.Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}

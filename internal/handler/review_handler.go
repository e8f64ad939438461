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

// ReviewHandler wires course review routes.
type ReviewHandler struct {
	service service.ReviewService
	logger  zerolog.Logger
}

// NewReviewHandler constructs the handler.
func NewReviewHandler(service service.ReviewService, logger zerolog.Logger) *ReviewHandler {
	return &ReviewHandler{
		service: service,
		logger:  logger.With().Str("component", "review_handler").Logger(),
	}
}

// RegisterPublic attaches read-only endpoints.
func (h *ReviewHandler) RegisterPublic(router fiber.Router) {
	router.Get("/courses/:id/reviews", h.listByCourse)
}

// RegisterStudent attaches review mutation endpoints.
func (h *ReviewHandler) RegisterStudent(router fiber.Router) {
	router.Post("/courses/:id/reviews", h.create)
	router.Patch("/reviews/:id", h.update)
	router.Delete("/reviews/:id", h.delete)
	router.Post("/reviews/:id/helpful", h.markHelpful)
}

func (h *ReviewHandler) listByCourse(c *fiber.Ctx) error {
	courseID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	reviews, err := h.service.ListByCourse(c.Context(), courseID)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "reviews retrieved", reviews)
}

func (h *ReviewHandler) create(c *fiber.Ctx) error {
	courseID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.ReviewCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	review, err := h.service.Create(c.Context(), courseID, userIDFromContext(c), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "review created", review)
}

func (h *ReviewHandler) update(c *fiber.Ctx) error {
	reviewID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.ReviewUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	review, err := h.service.Update(c.Context(), reviewID, payload, actorFromContext(c))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "review updated", review)
}

func (h *ReviewHandler) delete(c *fiber.Ctx) error {
	reviewID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.service.Delete(c.Context(), reviewID, actorFromContext(c)); err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "review deleted", fiber.Map{"id": reviewID})
}

func (h *ReviewHandler) markHelpful(c *fiber.Ctx) error {
	reviewID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.service.MarkHelpful(c.Context(), reviewID); err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "review marked helpful", fiber.Map{"id": reviewID})
}

func (h *ReviewHandler) handleError(c *fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors
	switch {
	case errors.Is(err, service.ErrReviewNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "review not found")
	case errors.Is(err, service.ErrEnrollmentNotFound):
		return utils.SendError(c, fiber.StatusForbidden, "not enrolled in this course")
	case errors.Is(err, service.ErrNotReviewOwner):
		return utils.SendError(c, fiber.StatusForbidden, "not the review owner")
	case errors.As(err, &validationErrors):
		return utils.SendError(c, fiber.StatusBadRequest, validationErrors.Error())
	default:
		h.logger.Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}

package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/kelasku/kelasku-go-api/internal/service"
	"github.com/kelasku/kelasku-go-api/internal/utils"
)

// DashboardHandler wires role-scoped dashboard routes.
type DashboardHandler struct {
	service service.DashboardService
	logger  zerolog.Logger
}

// NewDashboardHandler constructs the handler.
func NewDashboardHandler(service service.DashboardService, logger zerolog.Logger) *DashboardHandler {
	return &DashboardHandler{
		service: service,
		logger:  logger.With().Str("component", "dashboard_handler").Logger(),
	}
}

// RegisterStudent attaches the student dashboard endpoint.
func (h *DashboardHandler) RegisterStudent(router fiber.Router) {
	router.Get("", h.student)
}

// RegisterInstructor attaches the instructor dashboard endpoint.
func (h *DashboardHandler) RegisterInstructor(router fiber.Router) {
	router.Get("", h.instructor)
}

// RegisterAdmin attaches the admin dashboard endpoint.
func (h *DashboardHandler) RegisterAdmin(router fiber.Router) {
	router.Get("", h.admin)
}

func (h *DashboardHandler) student(c *fiber.Ctx) error {
	response, err := h.service.StudentDashboard(c.Context(), userIDFromContext(c))
	if err != nil {
		return h.internalError(c, err)
	}

	return utils.SendSuccess(c, "dashboard retrieved", response)
}

func (h *DashboardHandler) instructor(c *fiber.Ctx) error {
	response, err := h.service.InstructorDashboard(c.Context(), userIDFromContext(c))
	if err != nil {
		return h.internalError(c, err)
	}

	return utils.SendSuccess(c, "dashboard retrieved", response)
}

func (h *DashboardHandler) admin(c *fiber.Ctx) error {
	response, err := h.service.AdminDashboard(c.Context())
	if err != nil {
		return h.internalError(c, err)
	}

	return utils.SendSuccess(c, "dashboard retrieved", response)
}

func (h *DashboardHandler) internalError(c *fiber.Ctx, err error) error {
	h.logger.Error().Err(err).Msg("internal server error")
	return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
}

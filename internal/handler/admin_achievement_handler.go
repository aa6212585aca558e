package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/mentoria/mentoria-api/internal/dto"
	"github.com/mentoria/mentoria-api/internal/service"
	"github.com/mentoria/mentoria-api/internal/utils"
)

// AdminAchievementHandler manages achievement definitions.
type AdminAchievementHandler struct {
	service service.AdminAchievementService
	logger  zerolog.Logger
}

// NewAdminAchievementHandler constructs the handler.
func NewAdminAchievementHandler(service service.AdminAchievementService, logger zerolog.Logger) *AdminAchievementHandler {
	return &AdminAchievementHandler{
		service: service,
		logger:  logger.With().Str("component", "admin_achievement_handler").Logger(),
	}
}

// Register attaches the achievement management routes to the router group.
func (h *AdminAchievementHandler) Register(router fiber.Router) {
	router.Get("", h.list)
	router.Post("", h.create)
	router.Put("/:id", h.update)
}

func (h *AdminAchievementHandler) list(c *fiber.Ctx) error {
	achievements, err := h.service.List(requestContext(c))
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("achievement listing failed")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to list achievements")
	}

	return utils.SendSuccess(c, "achievements", achievements)
}

func (h *AdminAchievementHandler) create(c *fiber.Ctx) error {
	var payload dto.AdminAchievementRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	achievement, err := h.service.Create(requestContext(c), activityActorFromContext(c), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "achievement created", achievement)
}

func (h *AdminAchievementHandler) update(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.AdminAchievementRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	achievement, err := h.service.Update(requestContext(c), activityActorFromContext(c), id, payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "achievement updated", achievement)
}

func (h *AdminAchievementHandler) handleError(c *fiber.Ctx, err error) error {
	switch {
	case isValidationError(err):
		return utils.SendValidationError(c, err)
	case errors.Is(err, service.ErrInvalidCriteria):
		return utils.SendError(c, fiber.StatusBadRequest, "criteria does not match the schema for its kind")
	case errors.Is(err, service.ErrAchievementNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "achievement not found")
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg("achievement request failed")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}

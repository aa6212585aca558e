package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/mentoria/mentoria-api/internal/dto"
	"github.com/mentoria/mentoria-api/internal/service"
	"github.com/mentoria/mentoria-api/internal/utils"
)

// AdminFeatureHandler manages class feature grants and the trial allow-list.
type AdminFeatureHandler struct {
	service   service.AdminFeatureService
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewAdminFeatureHandler constructs the handler.
func NewAdminFeatureHandler(service service.AdminFeatureService, validate *validator.Validate, logger zerolog.Logger) *AdminFeatureHandler {
	return &AdminFeatureHandler{
		service:   service,
		validator: validate,
		logger:    logger.With().Str("component", "admin_feature_handler").Logger(),
	}
}

// Register attaches the admin feature routes to the router group.
func (h *AdminFeatureHandler) Register(router fiber.Router) {
	router.Get("/classes/:classId/features", h.listClassFeatures)
	router.Post("/classes/:classId/features", h.grant)
	router.Delete("/classes/:classId/features/:feature", h.revoke)

	router.Get("/trial-content", h.listTrialContent)
	router.Post("/trial-content", h.addTrialContent)
	router.Delete("/trial-content", h.removeTrialContent)
}

func (h *AdminFeatureHandler) listClassFeatures(c *fiber.Ctx) error {
	classID, err := parseUintParam(c, "classId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	features, err := h.service.ListClassFeatures(requestContext(c), classID)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "class features", features)
}

func (h *AdminFeatureHandler) grant(c *fiber.Ctx) error {
	classID, err := parseUintParam(c, "classId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.AdminFeatureGrantRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}
	if err := h.validator.Struct(payload); err != nil {
		return utils.SendValidationError(c, err)
	}

	if err := h.service.GrantFeature(requestContext(c), activityActorFromContext(c), classID, payload); err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "feature granted", nil)
}

func (h *AdminFeatureHandler) revoke(c *fiber.Ctx) error {
	classID, err := parseUintParam(c, "classId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	feature := c.Params("feature")
	if feature == "" {
		return utils.SendError(c, fiber.StatusBadRequest, "feature is required")
	}

	if err := h.service.RevokeFeature(requestContext(c), activityActorFromContext(c), classID, feature); err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "feature revoked", nil)
}

func (h *AdminFeatureHandler) listTrialContent(c *fiber.Ctx) error {
	entries, err := h.service.ListTrialContent(requestContext(c))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "trial content", entries)
}

func (h *AdminFeatureHandler) addTrialContent(c *fiber.Ctx) error {
	var payload dto.AdminTrialContentRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}
	if err := h.validator.Struct(payload); err != nil {
		return utils.SendValidationError(c, err)
	}

	entry, err := h.service.AddTrialContent(requestContext(c), activityActorFromContext(c), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "trial content added", entry)
}

func (h *AdminFeatureHandler) removeTrialContent(c *fiber.Ctx) error {
	var payload dto.AdminTrialContentRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}
	if err := h.validator.Struct(payload); err != nil {
		return utils.SendValidationError(c, err)
	}

	if err := h.service.RemoveTrialContent(requestContext(c), activityActorFromContext(c), payload); err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "trial content removed", nil)
}

func (h *AdminFeatureHandler) handleError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrUnknownFeature):
		return utils.SendError(c, fiber.StatusBadRequest, "unknown feature key")
	case errors.Is(err, service.ErrGrantNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "feature grant not found")
	case errors.Is(err, service.ErrTrialEntryNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "trial content entry not found")
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg("admin feature request failed")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}

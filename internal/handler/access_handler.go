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

// AccessHandler exposes the trial content gate and the usage counters.
type AccessHandler struct {
	service   service.TrialService
	limits    service.TrialLimits
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewAccessHandler constructs the handler.
func NewAccessHandler(service service.TrialService, limits service.TrialLimits, validate *validator.Validate, logger zerolog.Logger) *AccessHandler {
	return &AccessHandler{
		service:   service,
		limits:    limits,
		validator: validate,
		logger:    logger.With().Str("component", "access_handler").Logger(),
	}
}

// Register attaches the access endpoints to the router group.
func (h *AccessHandler) Register(router fiber.Router) {
	router.Get("/check", h.check)
	router.Post("/usage", h.recordUsage)
}

func (h *AccessHandler) check(c *fiber.Ctx) error {
	userID := userIDFromContext(c)
	if userID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "user not authenticated")
	}

	var query dto.AccessCheckRequest
	if err := c.QueryParser(&query); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid query parameters")
	}
	if err := h.validator.Struct(query); err != nil {
		return utils.SendValidationError(c, err)
	}

	decision, err := h.service.CheckContentAccess(requestContext(c), userID, query.ContentType, query.ContentID)
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("access check failed")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to evaluate access")
	}

	return utils.SendSuccess(c, "access evaluated", decision)
}

func (h *AccessHandler) recordUsage(c *fiber.Ctx) error {
	userID := userIDFromContext(c)
	if userID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "user not authenticated")
	}

	var payload dto.UsageRecordRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.validator.Struct(payload); err != nil {
		return utils.SendValidationError(c, err)
	}

	used, err := h.service.RecordUsage(requestContext(c), userID, payload.ActivityType)
	if err != nil {
		if errors.Is(err, service.ErrUnknownActivity) {
			return utils.SendError(c, fiber.StatusBadRequest, "activity has no daily limit")
		}
		requestLogger(h.logger, c).Error().Err(err).Msg("usage record failed")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to record usage")
	}

	response := dto.UsageRecordResponse{
		ActivityType: payload.ActivityType,
		UsedToday:    used,
	}
	switch payload.ActivityType {
	case "quiz":
		response.DailyLimit = h.limits.QuizPerDay
	case "flashcards":
		response.DailyLimit = h.limits.FlashcardPerDay
	}

	return utils.SendSuccess(c, "usage recorded", response)
}

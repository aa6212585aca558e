package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/mentoria/mentoria-api/internal/dto"
	"github.com/mentoria/mentoria-api/internal/service"
	"github.com/mentoria/mentoria-api/internal/utils"
)

// FeatureHandler serves the authenticated user's allowed feature set.
type FeatureHandler struct {
	service service.FeatureService
	logger  zerolog.Logger
}

// NewFeatureHandler constructs the handler.
func NewFeatureHandler(service service.FeatureService, logger zerolog.Logger) *FeatureHandler {
	return &FeatureHandler{
		service: service,
		logger:  logger.With().Str("component", "feature_handler").Logger(),
	}
}

// Register attaches the feature endpoints to the router group.
func (h *FeatureHandler) Register(router fiber.Router) {
	router.Get("", h.list)
}

func (h *FeatureHandler) list(c *fiber.Ctx) error {
	userID := userIDFromContext(c)
	if userID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "user not authenticated")
	}

	features, cached := h.service.AllowedFeatures(requestContext(c), userID)

	return utils.SendSuccess(c, "features retrieved", dto.FeatureListResponse{
		Features: features,
		Cached:   cached,
	})
}

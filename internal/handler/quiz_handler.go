package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/mentoria/mentoria-api/internal/dto"
	"github.com/mentoria/mentoria-api/internal/service"
	"github.com/mentoria/mentoria-api/internal/utils"
)

// QuizHandler wires quiz attempt submission and history.
type QuizHandler struct {
	service service.QuizService
	logger  zerolog.Logger
}

// NewQuizHandler constructs the handler.
func NewQuizHandler(service service.QuizService, logger zerolog.Logger) *QuizHandler {
	return &QuizHandler{
		service: service,
		logger:  logger.With().Str("component", "quiz_handler").Logger(),
	}
}

// Register attaches the quiz endpoints to the router group.
func (h *QuizHandler) Register(router fiber.Router) {
	router.Post("/attempts", h.submit)
	router.Get("/attempts", h.list)
}

func (h *QuizHandler) submit(c *fiber.Ctx) error {
	userID := userIDFromContext(c)
	if userID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "user not authenticated")
	}

	var payload dto.QuizAttemptRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	attempt, err := h.service.SubmitAttempt(requestContext(c), userID, payload)
	if err != nil {
		if isValidationError(err) {
			return utils.SendValidationError(c, err)
		}

		var accessErr *service.QuizAccessError
		if errors.As(err, &accessErr) {
			return utils.SendErrorWithDetails(c, fiber.StatusForbidden, "quiz access denied", accessErr.Decision)
		}

		requestLogger(h.logger, c).Error().Err(err).Msg("quiz attempt failed")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to record attempt")
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "attempt recorded", attempt)
}

func (h *QuizHandler) list(c *fiber.Ctx) error {
	userID := userIDFromContext(c)
	if userID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "user not authenticated")
	}

	limit, err := parseQueryInt(c, "limit")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid limit")
	}

	attempts, err := h.service.ListAttempts(requestContext(c), userID, limit)
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("quiz attempt listing failed")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to list attempts")
	}

	return utils.SendSuccess(c, "attempts retrieved", attempts)
}

package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/mentoria/mentoria-api/internal/dto"
	"github.com/mentoria/mentoria-api/internal/middleware"
	"github.com/mentoria/mentoria-api/internal/service"
	"github.com/mentoria/mentoria-api/internal/utils"
)

// EssayHandler wires essay submission, annotation and finalization routes.
type EssayHandler struct {
	essays        service.EssayService
	annotations   service.AnnotationService
	notifications service.NotificationService
	logger        zerolog.Logger
}

// NewEssayHandler constructs the handler. The notification service may be
// nil; finalization then skips the essay_corrected push.
func NewEssayHandler(essays service.EssayService, annotations service.AnnotationService, notifications service.NotificationService, logger zerolog.Logger) *EssayHandler {
	return &EssayHandler{
		essays:        essays,
		annotations:   annotations,
		notifications: notifications,
		logger:        logger.With().Str("component", "essay_handler").Logger(),
	}
}

// Register attaches essay endpoints to the router group. Mutating annotation
// routes are restricted to teachers and admins.
func (h *EssayHandler) Register(router fiber.Router) {
	router.Post("", h.submit)
	router.Get("", h.list)
	router.Get("/:id", h.get)

	teacherOnly := middleware.RequireRole("teacher", "admin")
	router.Post("/:id/analyze", teacherOnly, h.analyze)
	router.Post("/:id/annotations", teacherOnly, h.createAnnotation)
	router.Patch("/annotations/:annotationId", teacherOnly, h.updateAnnotation)
	router.Delete("/annotations/:annotationId", teacherOnly, h.deleteAnnotation)
	router.Post("/:id/finalize", teacherOnly, h.finalize)
}

func (h *EssayHandler) submit(c *fiber.Ctx) error {
	userID := userIDFromContext(c)
	if userID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "user not authenticated")
	}

	var payload dto.EssayCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	manuscript, err := c.FormFile("manuscript")
	if err != nil {
		manuscript = nil
	}

	essay, err := h.essays.Submit(requestContext(c), userID, payload, manuscript)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "essay submitted", essay)
}

func (h *EssayHandler) list(c *fiber.Ctx) error {
	var filter dto.EssayFilter
	if err := c.QueryParser(&filter); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid query parameters")
	}

	// Students only see their own essays.
	if userRoleFromContext(c) == "student" {
		userID := userIDFromContext(c)
		filter.UserID = &userID
	}

	essays, err := h.essays.List(requestContext(c), filter)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "essays retrieved", essays)
}

func (h *EssayHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	essay, err := h.essays.Get(requestContext(c), id)
	if err != nil {
		return h.handleError(c, err)
	}

	if userRoleFromContext(c) == "student" && essay.UserID != userIDFromContext(c) {
		return utils.SendError(c, fiber.StatusForbidden, "essay belongs to another user")
	}

	return utils.SendSuccess(c, "essay retrieved", essay)
}

func (h *EssayHandler) analyze(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	proposals, err := h.essays.Analyze(requestContext(c), id)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "analysis complete", proposals)
}

func (h *EssayHandler) createAnnotation(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.AnnotationCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	annotation, err := h.annotations.Create(requestContext(c), id, payload, activityActorFromContext(c))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "annotation created", annotation)
}

func (h *EssayHandler) updateAnnotation(c *fiber.Ctx) error {
	annotationID, err := parseUintParam(c, "annotationId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.AnnotationUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	annotation, err := h.annotations.Update(requestContext(c), annotationID, payload, activityActorFromContext(c))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "annotation updated", annotation)
}

func (h *EssayHandler) deleteAnnotation(c *fiber.Ctx) error {
	annotationID, err := parseUintParam(c, "annotationId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.annotations.Delete(requestContext(c), annotationID, activityActorFromContext(c)); err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "annotation deleted", nil)
}

func (h *EssayHandler) finalize(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.EssayFinalizeRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	ctx := requestContext(c)
	essay, err := h.annotations.Finalize(ctx, id, payload, activityActorFromContext(c))
	if err != nil {
		return h.handleError(c, err)
	}

	if h.notifications != nil {
		h.notifications.EssayCorrected(ctx, essay.UserID, essay.ID)
	}

	return utils.SendSuccess(c, "essay finalized", essay)
}

func (h *EssayHandler) handleError(c *fiber.Ctx, err error) error {
	switch {
	case isValidationError(err):
		return utils.SendValidationError(c, err)
	case errors.Is(err, service.ErrEssayNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "essay not found")
	case errors.Is(err, service.ErrPromptNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "essay prompt not found")
	case errors.Is(err, service.ErrAnnotationNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "annotation not found")
	case errors.Is(err, service.ErrEssayFinalized):
		return utils.SendError(c, fiber.StatusConflict, "essay is already corrected")
	case errors.Is(err, service.ErrInvalidOffsets):
		return utils.SendError(c, fiber.StatusBadRequest, "annotation offsets out of range")
	case errors.Is(err, service.ErrGradeMissing):
		return utils.SendError(c, fiber.StatusBadRequest, "grade or competence scores required")
	case errors.Is(err, service.ErrManuscriptType):
		return utils.SendError(c, fiber.StatusUnsupportedMediaType, "manuscript must be an image or PDF")
	case errors.Is(err, service.ErrManuscriptTooLarge):
		return utils.SendError(c, fiber.StatusRequestEntityTooLarge, "manuscript exceeds the size limit")
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg("essay request failed")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}

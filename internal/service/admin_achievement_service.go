package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/mentoria/mentoria-api/internal/dto"
	"github.com/mentoria/mentoria-api/internal/models"
	"github.com/mentoria/mentoria-api/internal/repository"
)

var (
	ErrAchievementNotFound = errors.New("achievement not found")
	ErrInvalidCriteria     = errors.New("achievement criteria does not match the schema for its kind")
)

// Criteria documents are schema-checked per kind so the score pipeline never
// has to defend against malformed thresholds at evaluation time.
var criteriaSchemas = map[string]string{
	models.AchievementKindXPTotal: `{
		"type": "object",
		"required": ["threshold"],
		"properties": {
			"threshold": {"type": "integer", "minimum": 1}
		},
		"additionalProperties": false
	}`,
	models.AchievementKindActivityCount: `{
		"type": "object",
		"required": ["activity_type", "threshold"],
		"properties": {
			"activity_type": {"type": "string", "enum": ["flashcards", "quiz", "essay", "simulation", "forum_post", "forum_reply", "forum_like"]},
			"threshold": {"type": "integer", "minimum": 1}
		},
		"additionalProperties": false
	}`,
	models.AchievementKindStreak: `{
		"type": "object",
		"required": ["threshold"],
		"properties": {
			"threshold": {"type": "integer", "minimum": 1}
		},
		"additionalProperties": false
	}`,
	models.AchievementKindRank: `{
		"type": "object",
		"required": ["threshold"],
		"properties": {
			"threshold": {"type": "integer", "minimum": 1}
		},
		"additionalProperties": false
	}`,
}

// AdminAchievementService manages achievement definitions.
type AdminAchievementService interface {
	List(ctx context.Context) ([]dto.AchievementResponse, error)
	Create(ctx context.Context, actor ActivityActor, payload dto.AdminAchievementRequest) (dto.AchievementResponse, error)
	Update(ctx context.Context, actor ActivityActor, id uint, payload dto.AdminAchievementRequest) (dto.AchievementResponse, error)
}

type adminAchievementService struct {
	repo      repository.AchievementRepository
	validator *validator.Validate
	schemas   map[string]*jsonschema.Schema
	activity  ActivityRecorder
	logger    zerolog.Logger
}

// NewAdminAchievementService compiles the per-kind criteria schemas and
// returns the definition manager.
func NewAdminAchievementService(repo repository.AchievementRepository, validate *validator.Validate, activity ActivityRecorder, logger zerolog.Logger) (AdminAchievementService, error) {
	schemas := make(map[string]*jsonschema.Schema, len(criteriaSchemas))
	for kind, raw := range criteriaSchemas {
		compiler := jsonschema.NewCompiler()
		resource := fmt.Sprintf("criteria_%s.json", kind)
		if err := compiler.AddResource(resource, strings.NewReader(raw)); err != nil {
			return nil, fmt.Errorf("register criteria schema for %s: %w", kind, err)
		}
		schema, err := compiler.Compile(resource)
		if err != nil {
			return nil, fmt.Errorf("compile criteria schema for %s: %w", kind, err)
		}
		schemas[kind] = schema
	}

	return &adminAchievementService{
		repo:      repo,
		validator: validate,
		schemas:   schemas,
		activity:  activity,
		logger:    logger.With().Str("component", "admin_achievement_service").Logger(),
	}, nil
}

func (s *adminAchievementService) List(ctx context.Context) ([]dto.AchievementResponse, error) {
	achievements, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.AchievementResponse, 0, len(achievements))
	for _, achievement := range achievements {
		responses = append(responses, dto.NewAchievementResponse(achievement))
	}

	return responses, nil
}

func (s *adminAchievementService) Create(ctx context.Context, actor ActivityActor, payload dto.AdminAchievementRequest) (dto.AchievementResponse, error) {
	if err := s.validate(payload); err != nil {
		return dto.AchievementResponse{}, err
	}

	achievement := models.Achievement{
		Slug:        strings.TrimSpace(payload.Slug),
		Title:       strings.TrimSpace(payload.Title),
		Description: strings.TrimSpace(payload.Description),
		Kind:        payload.Kind,
		Criteria:    datatypes.JSONMap(payload.Criteria),
		XPReward:    payload.XPReward,
	}

	if err := s.repo.Create(ctx, &achievement); err != nil {
		return dto.AchievementResponse{}, err
	}

	s.record(ctx, actor, "achievement.created", achievement.ID, achievement.Slug)

	return dto.NewAchievementResponse(achievement), nil
}

func (s *adminAchievementService) Update(ctx context.Context, actor ActivityActor, id uint, payload dto.AdminAchievementRequest) (dto.AchievementResponse, error) {
	if err := s.validate(payload); err != nil {
		return dto.AchievementResponse{}, err
	}

	achievement, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AchievementResponse{}, ErrAchievementNotFound
		}
		return dto.AchievementResponse{}, err
	}

	achievement.Slug = strings.TrimSpace(payload.Slug)
	achievement.Title = strings.TrimSpace(payload.Title)
	achievement.Description = strings.TrimSpace(payload.Description)
	achievement.Kind = payload.Kind
	achievement.Criteria = datatypes.JSONMap(payload.Criteria)
	achievement.XPReward = payload.XPReward

	if err := s.repo.Update(ctx, &achievement); err != nil {
		return dto.AchievementResponse{}, err
	}

	s.record(ctx, actor, "achievement.updated", achievement.ID, achievement.Slug)

	return dto.NewAchievementResponse(achievement), nil
}

func (s *adminAchievementService) validate(payload dto.AdminAchievementRequest) error {
	if err := s.validator.Struct(payload); err != nil {
		return err
	}

	schema, ok := s.schemas[payload.Kind]
	if !ok {
		return ErrInvalidCriteria
	}

	criteria, err := normalizeCriteria(payload.Criteria)
	if err != nil {
		return ErrInvalidCriteria
	}

	if err := schema.Validate(criteria); err != nil {
		s.logger.Debug().Err(err).Str("kind", payload.Kind).Msg("criteria rejected by schema")
		return ErrInvalidCriteria
	}

	return nil
}

// normalizeCriteria round-trips the document through encoding/json so the
// schema validator only ever sees decoded-JSON value types.
func normalizeCriteria(criteria map[string]interface{}) (interface{}, error) {
	raw, err := json.Marshal(criteria)
	if err != nil {
		return nil, err
	}

	var normalized interface{}
	if err := json.Unmarshal(raw, &normalized); err != nil {
		return nil, err
	}

	return normalized, nil
}

func (s *adminAchievementService) record(ctx context.Context, actor ActivityActor, action string, id uint, slug string) {
	if s.activity == nil {
		return
	}

	entityID := id
	entry := ActivityEntry{
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		Action:     action,
		EntityType: "achievement",
		EntityID:   &entityID,
		Metadata:   map[string]interface{}{"slug": slug},
	}

	if _, err := s.activity.Record(ctx, entry); err != nil {
		s.logger.Warn().Err(err).Str("action", action).Msg("failed to record admin activity")
	}
}

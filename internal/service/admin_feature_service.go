package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/mentoria/mentoria-api/internal/dto"
	"github.com/mentoria/mentoria-api/internal/models"
	"github.com/mentoria/mentoria-api/internal/repository"
)

var (
	ErrUnknownFeature     = errors.New("unknown feature key")
	ErrGrantNotFound      = errors.New("feature grant not found")
	ErrTrialEntryNotFound = errors.New("trial content entry not found")
)

// AdminFeatureService manages class feature grants and the trial content
// allow-list. Mutations invalidate the cached feature sets of every student
// enrolled in the affected class.
type AdminFeatureService interface {
	GrantFeature(ctx context.Context, actor ActivityActor, classID uint, payload dto.AdminFeatureGrantRequest) error
	RevokeFeature(ctx context.Context, actor ActivityActor, classID uint, feature string) error
	ListClassFeatures(ctx context.Context, classID uint) (dto.ClassFeaturesResponse, error)

	ListTrialContent(ctx context.Context) ([]models.TrialAllowedContent, error)
	AddTrialContent(ctx context.Context, actor ActivityActor, payload dto.AdminTrialContentRequest) (models.TrialAllowedContent, error)
	RemoveTrialContent(ctx context.Context, actor ActivityActor, payload dto.AdminTrialContentRequest) error
}

type adminFeatureService struct {
	classes  repository.ClassRepository
	trial    repository.TrialContentRepository
	features FeatureService
	activity ActivityRecorder
	logger   zerolog.Logger
}

// NewAdminFeatureService constructs the admin feature manager.
func NewAdminFeatureService(classes repository.ClassRepository, trial repository.TrialContentRepository, features FeatureService, activity ActivityRecorder, logger zerolog.Logger) AdminFeatureService {
	return &adminFeatureService{
		classes:  classes,
		trial:    trial,
		features: features,
		activity: activity,
		logger:   logger.With().Str("component", "admin_feature_service").Logger(),
	}
}

func (s *adminFeatureService) GrantFeature(ctx context.Context, actor ActivityActor, classID uint, payload dto.AdminFeatureGrantRequest) error {
	key := models.FeatureKey(payload.FeatureKey)
	if !key.Valid() {
		return ErrUnknownFeature
	}

	permission := models.ClassFeaturePermission{ClassID: classID, FeatureKey: key}
	if err := s.classes.GrantFeature(ctx, &permission); err != nil {
		return err
	}

	s.invalidateClass(ctx, classID)
	s.record(ctx, actor, "feature.granted", "class", classID, map[string]interface{}{
		"feature": payload.FeatureKey,
	})

	return nil
}

func (s *adminFeatureService) RevokeFeature(ctx context.Context, actor ActivityActor, classID uint, feature string) error {
	key := models.FeatureKey(feature)
	if !key.Valid() {
		return ErrUnknownFeature
	}

	removed, err := s.classes.RevokeFeature(ctx, classID, key)
	if err != nil {
		return err
	}
	if removed == 0 {
		return ErrGrantNotFound
	}

	s.invalidateClass(ctx, classID)
	s.record(ctx, actor, "feature.revoked", "class", classID, map[string]interface{}{
		"feature": feature,
	})

	return nil
}

func (s *adminFeatureService) ListClassFeatures(ctx context.Context, classID uint) (dto.ClassFeaturesResponse, error) {
	keys, err := s.classes.FeatureKeysForClass(ctx, classID)
	if err != nil {
		return dto.ClassFeaturesResponse{}, err
	}

	if keys == nil {
		keys = []models.FeatureKey{}
	}

	return dto.ClassFeaturesResponse{ClassID: classID, Features: keys}, nil
}

func (s *adminFeatureService) ListTrialContent(ctx context.Context) ([]models.TrialAllowedContent, error) {
	return s.trial.List(ctx)
}

func (s *adminFeatureService) AddTrialContent(ctx context.Context, actor ActivityActor, payload dto.AdminTrialContentRequest) (models.TrialAllowedContent, error) {
	entry := models.TrialAllowedContent{
		ContentType: payload.ContentType,
		ContentID:   payload.ContentID,
	}

	if err := s.trial.Add(ctx, &entry); err != nil {
		return models.TrialAllowedContent{}, err
	}

	s.record(ctx, actor, "trial_content.added", "trial_content", entry.ID, map[string]interface{}{
		"content_type": payload.ContentType,
		"content_id":   payload.ContentID,
	})

	return entry, nil
}

func (s *adminFeatureService) RemoveTrialContent(ctx context.Context, actor ActivityActor, payload dto.AdminTrialContentRequest) error {
	removed, err := s.trial.Remove(ctx, payload.ContentType, payload.ContentID)
	if err != nil {
		return err
	}
	if removed == 0 {
		return ErrTrialEntryNotFound
	}

	s.record(ctx, actor, "trial_content.removed", "trial_content", 0, map[string]interface{}{
		"content_type": payload.ContentType,
		"content_id":   payload.ContentID,
	})

	return nil
}

func (s *adminFeatureService) invalidateClass(ctx context.Context, classID uint) {
	userIDs, err := s.classes.EnrolledUserIDs(ctx, classID)
	if err != nil {
		s.logger.Warn().Err(err).Uint("class_id", classID).Msg("failed to list enrolled users for cache invalidation")
		return
	}

	s.features.Invalidate(ctx, userIDs)
}

func (s *adminFeatureService) record(ctx context.Context, actor ActivityActor, action, entityType string, entityID uint, metadata map[string]interface{}) {
	if s.activity == nil {
		return
	}

	entry := ActivityEntry{
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		Action:     action,
		EntityType: entityType,
		Metadata:   metadata,
	}
	if entityID != 0 {
		id := entityID
		entry.EntityID = &id
	}

	if _, err := s.activity.Record(ctx, entry); err != nil {
		s.logger.Warn().Err(err).Str("action", action).Msg("failed to record admin activity")
	}
}

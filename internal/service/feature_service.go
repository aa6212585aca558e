package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/mentoria/mentoria-api/internal/models"
	"github.com/mentoria/mentoria-api/internal/repository"
)

// FeatureService computes the set of platform features enabled for a user.
type FeatureService interface {
	// AllowedFeatures returns the deduplicated union of feature permissions
	// over the user's class enrollments. Any lookup failure yields the empty
	// set: access checks deny by default.
	AllowedFeatures(ctx context.Context, userID uint) ([]models.FeatureKey, bool)
	// Invalidate drops the cached feature set for every member of a class.
	Invalidate(ctx context.Context, userIDs []uint)
}

type featureService struct {
	users    repository.UserRepository
	classes  repository.ClassRepository
	cache    *redis.Client
	cacheTTL time.Duration
	logger   zerolog.Logger
	tracer   trace.Tracer
}

// NewFeatureService constructs the permission evaluator.
func NewFeatureService(users repository.UserRepository, classes repository.ClassRepository, cache *redis.Client, ttl time.Duration, logger zerolog.Logger) FeatureService {
	return &featureService{
		users:    users,
		classes:  classes,
		cache:    cache,
		cacheTTL: ttl,
		logger:   logger.With().Str("component", "feature_service").Logger(),
		tracer:   otel.Tracer("github.com/mentoria/mentoria-api/internal/service/feature"),
	}
}

func featureCacheKey(userID uint) string {
	return fmt.Sprintf("features:user:%d", userID)
}

func (s *featureService) AllowedFeatures(ctx context.Context, userID uint) ([]models.FeatureKey, bool) {
	ctx, span := s.tracer.Start(ctx, "features.evaluate", trace.WithAttributes(
		attribute.Int64("feature.user_id", int64(userID)),
	))
	defer span.End()

	if cached, ok := s.readCache(ctx, userID); ok {
		span.SetAttributes(attribute.Bool("feature.cache_hit", true))
		return cached, true
	}

	features := s.evaluate(ctx, userID)
	s.writeCache(ctx, userID, features)

	return features, false
}

func (s *featureService) evaluate(ctx context.Context, userID uint) []models.FeatureKey {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		s.logger.Warn().Err(err).Uint("user_id", userID).Msg("user lookup failed, denying all features")
		return []models.FeatureKey{}
	}

	// Teachers and administrators are not gated per class.
	if !user.IsStudent() {
		return models.AllFeatureKeys()
	}

	classIDs, err := s.classes.ClassIDsForUser(ctx, userID)
	if err != nil {
		s.logger.Warn().Err(err).Uint("user_id", userID).Msg("enrollment lookup failed, denying all features")
		return []models.FeatureKey{}
	}

	if len(classIDs) == 0 {
		return []models.FeatureKey{}
	}

	keys, err := s.classes.FeatureKeysForClasses(ctx, classIDs)
	if err != nil {
		s.logger.Warn().Err(err).Uint("user_id", userID).Msg("feature lookup failed, denying all features")
		return []models.FeatureKey{}
	}

	seen := make(map[models.FeatureKey]struct{}, len(keys))
	features := make([]models.FeatureKey, 0, len(keys))
	for _, key := range keys {
		if !key.Valid() {
			s.logger.Warn().Str("feature_key", string(key)).Msg("unknown feature key in permissions table")
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		features = append(features, key)
	}

	return features
}

func (s *featureService) readCache(ctx context.Context, userID uint) ([]models.FeatureKey, bool) {
	if s.cache == nil {
		return nil, false
	}

	cached, err := s.cache.Get(ctx, featureCacheKey(userID)).Result()
	if err != nil {
		if err != redis.Nil {
			s.logger.Warn().Err(err).Msg("failed to read feature cache")
		}
		return nil, false
	}

	var features []models.FeatureKey
	if err := json.Unmarshal([]byte(cached), &features); err != nil {
		return nil, false
	}

	return features, true
}

func (s *featureService) writeCache(ctx context.Context, userID uint, features []models.FeatureKey) {
	if s.cache == nil {
		return
	}

	payload, err := json.Marshal(features)
	if err != nil {
		return
	}

	if err := s.cache.Set(ctx, featureCacheKey(userID), payload, s.cacheTTL).Err(); err != nil {
		s.logger.Warn().Err(err).Msg("failed to store feature cache")
	}
}

func (s *featureService) Invalidate(ctx context.Context, userIDs []uint) {
	if s.cache == nil || len(userIDs) == 0 {
		return
	}

	keys := make([]string, 0, len(userIDs))
	for _, id := range userIDs {
		keys = append(keys, featureCacheKey(id))
	}

	if err := s.cache.Del(ctx, keys...).Err(); err != nil {
		s.logger.Warn().Err(err).Int("keys", len(keys)).Msg("failed to invalidate feature cache")
	}
}

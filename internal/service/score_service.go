package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/mentoria/mentoria-api/internal/dto"
	"github.com/mentoria/mentoria-api/internal/models"
	"github.com/mentoria/mentoria-api/internal/observability"
	"github.com/mentoria/mentoria-api/internal/repository"
)

// ScoreService records activity outcomes, awards XP and evaluates
// achievement unlocks.
type ScoreService interface {
	AddScore(ctx context.Context, userID uint, payload dto.ScoreSubmitRequest) (dto.ScoreResult, error)
}

type scoreService struct {
	scores       repository.ScoreRepository
	achievements repository.AchievementRepository
	notifier     AchievementNotifier
	validator    *validator.Validate
	logger       zerolog.Logger
	tracer       trace.Tracer
	now          func() time.Time
}

// AchievementNotifier receives unlock events; nil disables notifications.
type AchievementNotifier interface {
	AchievementUnlocked(ctx context.Context, userID uint, achievement models.Achievement)
}

// NewScoreService constructs the XP aggregator.
func NewScoreService(scores repository.ScoreRepository, achievements repository.AchievementRepository, notifier AchievementNotifier, validate *validator.Validate, logger zerolog.Logger) ScoreService {
	return &scoreService{
		scores:       scores,
		achievements: achievements,
		notifier:     notifier,
		validator:    validate,
		logger:       logger.With().Str("component", "score_service").Logger(),
		tracer:       otel.Tracer("github.com/mentoria/mentoria-api/internal/service/score"),
		now:          time.Now,
	}
}

// ComputeXP applies the fixed multiplier table. The function is monotonic in
// item count, accuracy, word count and rating for every activity type.
func ComputeXP(payload dto.ScoreSubmitRequest) int {
	switch payload.ActivityType {
	case models.ActivityFlashcards:
		base := float64(2 * payload.ItemCount)
		base *= accuracyMultiplier(payload.Accuracy)
		if payload.ItemCount >= 50 {
			base *= 1.3
		} else if payload.ItemCount >= 20 {
			base *= 1.1
		}
		return int(math.Round(base))
	case models.ActivityQuiz:
		base := float64(3 * payload.ItemCount)
		base *= accuracyMultiplier(payload.Accuracy)
		if payload.DurationSec > 0 && payload.ItemCount > 0 && payload.DurationSec <= payload.ItemCount*30 {
			base *= 1.1
		}
		return int(math.Round(base))
	case models.ActivityEssay:
		base := float64(payload.WordCount) / 10
		if base > 50 {
			base = 50
		}
		rating := payload.Rating
		if rating < 1 {
			rating = 1
		}
		return int(math.Round(base * (float64(rating) / 5 * 2)))
	case models.ActivitySimulation:
		base := float64(5 * payload.ItemCount)
		base *= accuracyMultiplier(payload.Accuracy)
		return int(math.Round(base))
	case models.ActivityForumPost:
		return 10
	case models.ActivityForumReply:
		return 5
	case models.ActivityForumLike:
		return 1
	default:
		return 0
	}
}

func accuracyMultiplier(accuracy float64) float64 {
	switch {
	case accuracy >= 90:
		return 1.5
	case accuracy >= 80:
		return 1.2
	default:
		return 1.0
	}
}

func (s *scoreService) AddScore(ctx context.Context, userID uint, payload dto.ScoreSubmitRequest) (dto.ScoreResult, error) {
	ctx, span := s.tracer.Start(ctx, "scores.add", trace.WithAttributes(
		attribute.Int64("score.user_id", int64(userID)),
		attribute.String("score.activity_type", payload.ActivityType),
	))
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		span.RecordError(err)
		return dto.ScoreResult{}, err
	}

	xp := ComputeXP(payload)

	ledger := models.Score{
		UserID:       userID,
		ActivityType: payload.ActivityType,
		ActivityID:   payload.ActivityID,
		ScoreValue:   xp,
		Accuracy:     payload.Accuracy,
		ItemCount:    payload.ItemCount,
	}
	if err := s.scores.CreateScore(ctx, &ledger); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "ledger_insert_failed")
		return dto.ScoreResult{}, fmt.Errorf("record score: %w", err)
	}

	progress, err := s.scores.AddXP(ctx, userID, int64(xp), payload.ActivityType, s.now())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "xp_increment_failed")
		return dto.ScoreResult{}, fmt.Errorf("apply xp: %w", err)
	}

	observability.XPAwarded().WithLabelValues(payload.ActivityType).Add(float64(xp))

	result := dto.ScoreResult{
		XPAwarded:            xp,
		TotalXP:              progress.TotalXP,
		Level:                progress.Level(),
		UnlockedAchievements: []dto.UnlockedAchievement{},
	}

	unlocked, err := s.evaluateAchievements(ctx, userID, progress)
	if err != nil {
		// XP landed; the caller learns the achievement pass failed instead
		// of the failure disappearing into a log line.
		s.logger.Error().Err(err).Uint("user_id", userID).Msg("achievement evaluation failed")
		span.RecordError(err)
		result.AchievementCheckFailed = true
		return result, nil
	}

	result.UnlockedAchievements = unlocked
	span.SetAttributes(
		attribute.Int("score.xp_awarded", xp),
		attribute.Int("score.achievements_unlocked", len(unlocked)),
	)

	return result, nil
}

func (s *scoreService) evaluateAchievements(ctx context.Context, userID uint, progress models.UserProgress) ([]dto.UnlockedAchievement, error) {
	definitions, err := s.achievements.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	alreadyUnlocked, err := s.achievements.UnlockedIDs(ctx, userID)
	if err != nil {
		return nil, err
	}

	unlocked := make([]dto.UnlockedAchievement, 0)
	for _, definition := range definitions {
		if _, has := alreadyUnlocked[definition.ID]; has {
			continue
		}

		satisfied, err := s.satisfies(ctx, userID, definition, progress)
		if err != nil {
			return unlocked, err
		}
		if !satisfied {
			continue
		}

		granted, err := s.achievements.Grant(ctx, &models.UserAchievement{
			UserID:        userID,
			AchievementID: definition.ID,
			UnlockedAt:    s.now(),
		})
		if err != nil {
			return unlocked, err
		}
		if !granted {
			// Another request won the race; the unique index kept the grant single.
			continue
		}

		observability.AchievementsUnlocked().WithLabelValues(definition.Slug).Inc()
		if s.notifier != nil {
			s.notifier.AchievementUnlocked(ctx, userID, definition)
		}

		unlocked = append(unlocked, dto.UnlockedAchievement{
			ID:       definition.ID,
			Slug:     definition.Slug,
			Title:    definition.Title,
			XPReward: definition.XPReward,
		})
	}

	return unlocked, nil
}

func (s *scoreService) satisfies(ctx context.Context, userID uint, definition models.Achievement, progress models.UserProgress) (bool, error) {
	threshold := criteriaInt(definition.Criteria, "threshold")

	switch definition.Kind {
	case models.AchievementKindXPTotal:
		return progress.TotalXP >= int64(threshold), nil
	case models.AchievementKindStreak:
		return progress.StreakDays >= threshold, nil
	case models.AchievementKindRank:
		rank, err := s.scores.Rank(ctx, userID)
		if err != nil {
			return false, err
		}
		return threshold > 0 && rank <= int64(threshold), nil
	case models.AchievementKindActivityCount:
		activity := criteriaString(definition.Criteria, "activity_type")
		count, err := s.scores.CountScoresByActivity(ctx, userID, activity)
		if err != nil {
			return false, err
		}
		return count >= int64(threshold), nil
	default:
		s.logger.Warn().Str("kind", definition.Kind).Msg("unknown achievement kind")
		return false, nil
	}
}

func criteriaInt(criteria map[string]interface{}, key string) int {
	if criteria == nil {
		return 0
	}
	switch value := criteria[key].(type) {
	case float64:
		return int(value)
	case int:
		return value
	case int64:
		return int(value)
	default:
		return 0
	}
}

func criteriaString(criteria map[string]interface{}, key string) string {
	if criteria == nil {
		return ""
	}
	if value, ok := criteria[key].(string); ok {
		return value
	}
	return ""
}

package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/mentoria/mentoria-api/internal/dto"
	"github.com/mentoria/mentoria-api/internal/models"
	"github.com/mentoria/mentoria-api/internal/observability"
	"github.com/mentoria/mentoria-api/internal/repository"
)

// ErrUnknownActivity indicates a usage record for an activity without a daily limit.
var ErrUnknownActivity = errors.New("unknown limited activity")

// TrialLimits configures the per-day usage ceilings applied to trial accounts.
type TrialLimits struct {
	QuizPerDay      int
	FlashcardPerDay int
	UpgradeMessage  string
}

// TrialService gates content access for trial accounts.
type TrialService interface {
	CheckContentAccess(ctx context.Context, userID uint, contentType string, contentID uint) (dto.AccessDecision, error)
	// RecordUsage increments the day-scoped counter for a limited activity
	// and returns the post-increment value.
	RecordUsage(ctx context.Context, userID uint, activityType string) (int64, error)
	UsageToday(ctx context.Context, userID uint, activityType string) (int64, error)
}

type trialService struct {
	users   repository.UserRepository
	content repository.TrialContentRepository
	counter *redis.Client
	limits  TrialLimits
	logger  zerolog.Logger
	tracer  trace.Tracer
	now     func() time.Time
}

// NewTrialService constructs the trial/content gate.
func NewTrialService(users repository.UserRepository, content repository.TrialContentRepository, counter *redis.Client, limits TrialLimits, logger zerolog.Logger) TrialService {
	return &trialService{
		users:   users,
		content: content,
		counter: counter,
		limits:  limits,
		logger:  logger.With().Str("component", "trial_service").Logger(),
		tracer:  otel.Tracer("github.com/mentoria/mentoria-api/internal/service/trial"),
		now:     time.Now,
	}
}

// usageKey is scoped to the local calendar day; the day boundary is local
// midnight and is not configurable.
func (s *trialService) usageKey(userID uint, activityType string, at time.Time) string {
	return fmt.Sprintf("trial:usage:%d:%s:%s", userID, activityType, at.Format("2006-01-02"))
}

func (s *trialService) dailyLimit(activityType string) (int, bool) {
	switch activityType {
	case models.ActivityQuiz:
		return s.limits.QuizPerDay, true
	case models.ActivityFlashcards:
		return s.limits.FlashcardPerDay, true
	default:
		return 0, false
	}
}

// limitedActivityFor maps a content type onto the daily counter it consumes.
// Only quizzes and flashcards carry daily counters; other content types are
// gated by the allow-list alone.
func limitedActivityFor(contentType string) (string, bool) {
	switch contentType {
	case "quiz":
		return models.ActivityQuiz, true
	case "flashcards":
		return models.ActivityFlashcards, true
	default:
		return "", false
	}
}

func (s *trialService) CheckContentAccess(ctx context.Context, userID uint, contentType string, contentID uint) (dto.AccessDecision, error) {
	ctx, span := s.tracer.Start(ctx, "trial.check_access", trace.WithAttributes(
		attribute.Int64("trial.user_id", int64(userID)),
		attribute.String("trial.content_type", contentType),
	))
	defer span.End()

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Warn().Err(err).Uint("user_id", userID).Msg("profile lookup failed during access check")
		}
		// Missing profile gets the safe default rather than an error page.
		return s.deny(dto.AccessReasonTrialLocked), nil
	}

	if !user.IsTrial {
		observability.AccessDecisions().WithLabelValues("allowed").Inc()
		return dto.AccessDecision{HasAccess: true}, nil
	}

	now := s.now()
	if user.TrialExpired(now) {
		return s.deny(dto.AccessReasonExpired), nil
	}

	allowed, err := s.content.IsAllowed(ctx, contentType, contentID)
	if err != nil {
		s.logger.Warn().Err(err).Msg("allow-list lookup failed during access check")
		return s.deny(dto.AccessReasonTrialLocked), nil
	}

	if !allowed {
		return s.deny(dto.AccessReasonTrialLocked), nil
	}

	// Counters are independent per activity: exhausting the quiz budget
	// leaves flashcards available and vice versa.
	if activity, limited := limitedActivityFor(contentType); limited {
		limit, _ := s.dailyLimit(activity)
		used, err := s.UsageToday(ctx, userID, activity)
		if err != nil {
			s.logger.Warn().Err(err).Msg("usage counter read failed during access check")
			return s.deny(dto.AccessReasonDailyLimitReached), nil
		}

		if limit > 0 && used >= int64(limit) {
			return s.deny(dto.AccessReasonDailyLimitReached), nil
		}
	}

	observability.AccessDecisions().WithLabelValues("allowed").Inc()

	return dto.AccessDecision{HasAccess: true}, nil
}

func (s *trialService) deny(reason string) dto.AccessDecision {
	observability.AccessDecisions().WithLabelValues(reason).Inc()

	return dto.AccessDecision{
		HasAccess:      false,
		Reason:         reason,
		UpgradeMessage: s.limits.UpgradeMessage,
	}
}

func (s *trialService) RecordUsage(ctx context.Context, userID uint, activityType string) (int64, error) {
	if _, ok := s.dailyLimit(activityType); !ok {
		return 0, ErrUnknownActivity
	}

	if s.counter == nil {
		return 0, nil
	}

	key := s.usageKey(userID, activityType, s.now())
	used, err := s.counter.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}

	// Expiry keeps yesterday's keys from accumulating; 48h covers clock skew
	// around the midnight rollover.
	if used == 1 {
		if err := s.counter.Expire(ctx, key, 48*time.Hour).Err(); err != nil {
			s.logger.Warn().Err(err).Str("key", key).Msg("failed to set usage counter expiry")
		}
	}

	return used, nil
}

func (s *trialService) UsageToday(ctx context.Context, userID uint, activityType string) (int64, error) {
	if s.counter == nil {
		return 0, nil
	}

	key := s.usageKey(userID, activityType, s.now())
	used, err := s.counter.Get(ctx, key).Int64()
	if err != nil {
		if err == redis.Nil {
			return 0, nil
		}
		return 0, err
	}

	return used, nil
}

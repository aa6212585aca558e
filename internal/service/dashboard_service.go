package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/mentoria/mentoria-api/internal/dto"
	"github.com/mentoria/mentoria-api/internal/repository"
)

// DashboardService produces the aggregated progress view for a student.
type DashboardService interface {
	GetDashboard(ctx context.Context, userID uint) (dto.DashboardResponse, error)
	Leaderboard(ctx context.Context, userID uint, limit int) (dto.LeaderboardResponse, error)
}

type dashboardService struct {
	scores       repository.ScoreRepository
	achievements repository.AchievementRepository
	users        repository.UserRepository
	cache        *redis.Client
	cacheTTL     time.Duration
	logger       zerolog.Logger
}

// NewDashboardService builds the dashboard aggregator.
func NewDashboardService(scores repository.ScoreRepository, achievements repository.AchievementRepository, users repository.UserRepository, cache *redis.Client, ttl time.Duration, logger zerolog.Logger) DashboardService {
	return &dashboardService{
		scores:       scores,
		achievements: achievements,
		users:        users,
		cache:        cache,
		cacheTTL:     ttl,
		logger:       logger.With().Str("component", "dashboard_service").Logger(),
	}
}

func (s *dashboardService) GetDashboard(ctx context.Context, userID uint) (dto.DashboardResponse, error) {
	cacheKey := fmt.Sprintf("dashboard:user:%d", userID)

	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, cacheKey).Result(); err == nil {
			var response dto.DashboardResponse
			if unmarshalErr := json.Unmarshal([]byte(cached), &response); unmarshalErr == nil {
				s.logger.Debug().Uint("user_id", userID).Msg("dashboard cache hit")
				return response, nil
			}
		} else if err != redis.Nil {
			s.logger.Warn().Err(err).Msg("failed to read dashboard cache")
		}
	}

	progress, err := s.scores.GetProgress(ctx, userID)
	if err != nil {
		return dto.DashboardResponse{}, err
	}

	rank, err := s.scores.Rank(ctx, userID)
	if err != nil {
		return dto.DashboardResponse{}, err
	}

	recent, err := s.scores.ListRecentScores(ctx, userID, 10)
	if err != nil {
		return dto.DashboardResponse{}, err
	}

	grants, err := s.achievements.ListUnlocked(ctx, userID)
	if err != nil {
		return dto.DashboardResponse{}, err
	}

	response := dto.DashboardResponse{
		TotalXP:        progress.TotalXP,
		Level:          progress.Level(),
		Rank:           rank,
		QuizCount:      progress.QuizCount,
		FlashcardCount: progress.FlashcardCount,
		EssayCount:     progress.EssayCount,
		StreakDays:     progress.StreakDays,
		RecentScores:   make([]dto.ScoreEntry, 0, len(recent)),
		Achievements:   make([]dto.AchievementBadge, 0, len(grants)),
	}

	for _, score := range recent {
		response.RecentScores = append(response.RecentScores, dto.NewScoreEntry(score))
	}

	for _, grant := range grants {
		response.Achievements = append(response.Achievements, dto.AchievementBadge{
			ID:         grant.AchievementID,
			Slug:       grant.Achievement.Slug,
			Title:      grant.Achievement.Title,
			UnlockedAt: grant.UnlockedAt,
		})
	}

	if s.cache != nil {
		if payload, err := json.Marshal(response); err == nil {
			if err := s.cache.Set(ctx, cacheKey, payload, s.cacheTTL).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("failed to store dashboard cache")
			}
		}
	}

	return response, nil
}

func (s *dashboardService) Leaderboard(ctx context.Context, userID uint, limit int) (dto.LeaderboardResponse, error) {
	if limit <= 0 || limit > 100 {
		limit = 10
	}

	top, err := s.scores.TopProgress(ctx, limit)
	if err != nil {
		return dto.LeaderboardResponse{}, err
	}

	response := dto.LeaderboardResponse{Entries: make([]dto.LeaderboardEntry, 0, len(top))}
	for i, progress := range top {
		entry := dto.LeaderboardEntry{
			Position: int64(i + 1),
			UserID:   progress.UserID,
			TotalXP:  progress.TotalXP,
			Level:    progress.Level(),
		}
		if user, err := s.users.GetByID(ctx, progress.UserID); err == nil {
			entry.Name = user.Name
		}
		response.Entries = append(response.Entries, entry)

		if progress.UserID == userID {
			me := entry
			response.Me = &me
		}
	}

	if response.Me == nil {
		rank, err := s.scores.Rank(ctx, userID)
		if err != nil {
			return response, nil
		}
		progress, err := s.scores.GetProgress(ctx, userID)
		if err != nil {
			return response, nil
		}
		response.Me = &dto.LeaderboardEntry{
			Position: rank,
			UserID:   userID,
			TotalXP:  progress.TotalXP,
			Level:    progress.Level(),
		}
	}

	return response, nil
}

package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mentoria/mentoria-api/internal/models"
)

// ScoreRepository appends ledger rows and maintains the aggregated progress.
type ScoreRepository interface {
	CreateScore(ctx context.Context, score *models.Score) error
	// AddXP applies a database-side atomic increment to total_xp and the
	// matching activity counter, creating the progress row on first use.
	// It returns the post-increment progress snapshot.
	AddXP(ctx context.Context, userID uint, xp int64, activityType string, at time.Time) (models.UserProgress, error)
	GetProgress(ctx context.Context, userID uint) (models.UserProgress, error)
	Rank(ctx context.Context, userID uint) (int64, error)
	ListRecentScores(ctx context.Context, userID uint, limit int) ([]models.Score, error)
	CountScoresByActivity(ctx context.Context, userID uint, activityType string) (int64, error)
	TopProgress(ctx context.Context, limit int) ([]models.UserProgress, error)
}

type scoreRepository struct {
	db *gorm.DB
}

// NewScoreRepository instantiates the repository.
func NewScoreRepository(db *gorm.DB) ScoreRepository {
	return &scoreRepository{db: db}
}

func (r *scoreRepository) CreateScore(ctx context.Context, score *models.Score) error {
	return r.db.WithContext(ctx).Create(score).Error
}

func (r *scoreRepository) AddXP(ctx context.Context, userID uint, xp int64, activityType string, at time.Time) (models.UserProgress, error) {
	counter := counterColumn(activityType)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		seed := models.UserProgress{UserID: userID}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoNothing: true,
		}).Create(&seed).Error; err != nil {
			return err
		}

		updates := map[string]interface{}{
			"total_xp":         gorm.Expr("total_xp + ?", xp),
			"last_activity_at": at,
		}
		if counter != "" {
			updates[counter] = gorm.Expr(counter+" + 1")
		}

		return tx.Model(&models.UserProgress{}).
			Where("user_id = ?", userID).
			Updates(updates).Error
	})
	if err != nil {
		return models.UserProgress{}, err
	}

	return r.GetProgress(ctx, userID)
}

func (r *scoreRepository) GetProgress(ctx context.Context, userID uint) (models.UserProgress, error) {
	var progress models.UserProgress
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&progress).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.UserProgress{UserID: userID}, nil
		}
		return models.UserProgress{}, err
	}

	return progress, nil
}

// Rank counts users with strictly more XP; position is count+1.
func (r *scoreRepository) Rank(ctx context.Context, userID uint) (int64, error) {
	progress, err := r.GetProgress(ctx, userID)
	if err != nil {
		return 0, err
	}

	var ahead int64
	if err := r.db.WithContext(ctx).
		Model(&models.UserProgress{}).
		Where("total_xp > ?", progress.TotalXP).
		Count(&ahead).Error; err != nil {
		return 0, err
	}

	return ahead + 1, nil
}

func (r *scoreRepository) ListRecentScores(ctx context.Context, userID uint, limit int) ([]models.Score, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	var scores []models.Score
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&scores).Error; err != nil {
		return nil, err
	}

	return scores, nil
}

func (r *scoreRepository) CountScoresByActivity(ctx context.Context, userID uint, activityType string) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Score{}).
		Where("user_id = ? AND activity_type = ?", userID, activityType).
		Count(&count).Error; err != nil {
		return 0, err
	}

	return count, nil
}

func (r *scoreRepository) TopProgress(ctx context.Context, limit int) ([]models.UserProgress, error) {
	if limit <= 0 || limit > 100 {
		limit = 10
	}

	var rows []models.UserProgress
	if err := r.db.WithContext(ctx).
		Order("total_xp DESC, user_id ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, err
	}

	return rows, nil
}

func counterColumn(activityType string) string {
	switch activityType {
	case models.ActivityQuiz, models.ActivitySimulation:
		return "quiz_count"
	case models.ActivityFlashcards:
		return "flashcard_count"
	case models.ActivityEssay:
		return "essay_count"
	default:
		return ""
	}
}

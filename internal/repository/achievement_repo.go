package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mentoria/mentoria-api/internal/models"
)

// AchievementRepository manages achievement definitions and grants.
type AchievementRepository interface {
	ListAll(ctx context.Context) ([]models.Achievement, error)
	GetByID(ctx context.Context, id uint) (models.Achievement, error)
	Create(ctx context.Context, achievement *models.Achievement) error
	Update(ctx context.Context, achievement *models.Achievement) error
	UnlockedIDs(ctx context.Context, userID uint) (map[uint]struct{}, error)
	ListUnlocked(ctx context.Context, userID uint) ([]models.UserAchievement, error)
	// Grant inserts the join row if absent. The ON CONFLICT DO NOTHING clause
	// backs the uniqueness check, so concurrent grants stay idempotent.
	Grant(ctx context.Context, grant *models.UserAchievement) (bool, error)
}

type achievementRepository struct {
	db *gorm.DB
}

// NewAchievementRepository instantiates the repository.
func NewAchievementRepository(db *gorm.DB) AchievementRepository {
	return &achievementRepository{db: db}
}

func (r *achievementRepository) ListAll(ctx context.Context) ([]models.Achievement, error) {
	var achievements []models.Achievement
	if err := r.db.WithContext(ctx).Order("id").Find(&achievements).Error; err != nil {
		return nil, err
	}

	return achievements, nil
}

func (r *achievementRepository) GetByID(ctx context.Context, id uint) (models.Achievement, error) {
	var achievement models.Achievement
	if err := r.db.WithContext(ctx).First(&achievement, id).Error; err != nil {
		return models.Achievement{}, err
	}

	return achievement, nil
}

func (r *achievementRepository) Create(ctx context.Context, achievement *models.Achievement) error {
	return r.db.WithContext(ctx).Create(achievement).Error
}

func (r *achievementRepository) Update(ctx context.Context, achievement *models.Achievement) error {
	return r.db.WithContext(ctx).Save(achievement).Error
}

func (r *achievementRepository) UnlockedIDs(ctx context.Context, userID uint) (map[uint]struct{}, error) {
	var ids []uint
	if err := r.db.WithContext(ctx).
		Model(&models.UserAchievement{}).
		Where("user_id = ?", userID).
		Pluck("achievement_id", &ids).Error; err != nil {
		return nil, err
	}

	unlocked := make(map[uint]struct{}, len(ids))
	for _, id := range ids {
		unlocked[id] = struct{}{}
	}

	return unlocked, nil
}

func (r *achievementRepository) ListUnlocked(ctx context.Context, userID uint) ([]models.UserAchievement, error) {
	var grants []models.UserAchievement
	if err := r.db.WithContext(ctx).
		Preload("Achievement").
		Where("user_id = ?", userID).
		Order("unlocked_at DESC").
		Find(&grants).Error; err != nil {
		return nil, err
	}

	return grants, nil
}

func (r *achievementRepository) Grant(ctx context.Context, grant *models.UserAchievement) (bool, error) {
	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "achievement_id"}},
		DoNothing: true,
	}).Create(grant)
	if result.Error != nil {
		return false, result.Error
	}

	return result.RowsAffected > 0, nil
}

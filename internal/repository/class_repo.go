package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mentoria/mentoria-api/internal/models"
)

// ClassRepository exposes enrollments and per-class feature permissions.
type ClassRepository interface {
	ClassIDsForUser(ctx context.Context, userID uint) ([]uint, error)
	FeatureKeysForClasses(ctx context.Context, classIDs []uint) ([]models.FeatureKey, error)
	FeatureKeysForClass(ctx context.Context, classID uint) ([]models.FeatureKey, error)
	EnrolledUserIDs(ctx context.Context, classID uint) ([]uint, error)
	GrantFeature(ctx context.Context, permission *models.ClassFeaturePermission) error
	RevokeFeature(ctx context.Context, classID uint, key models.FeatureKey) (int64, error)
}

type classRepository struct {
	db *gorm.DB
}

// NewClassRepository constructs a class repository.
func NewClassRepository(db *gorm.DB) ClassRepository {
	return &classRepository{db: db}
}

func (r *classRepository) ClassIDsForUser(ctx context.Context, userID uint) ([]uint, error) {
	var ids []uint
	if err := r.db.WithContext(ctx).
		Model(&models.ClassEnrollment{}).
		Where("user_id = ?", userID).
		Pluck("class_id", &ids).Error; err != nil {
		return nil, err
	}

	return ids, nil
}

func (r *classRepository) FeatureKeysForClasses(ctx context.Context, classIDs []uint) ([]models.FeatureKey, error) {
	if len(classIDs) == 0 {
		return nil, nil
	}

	var keys []models.FeatureKey
	if err := r.db.WithContext(ctx).
		Model(&models.ClassFeaturePermission{}).
		Where("class_id IN ?", classIDs).
		Pluck("feature_key", &keys).Error; err != nil {
		return nil, err
	}

	return keys, nil
}

func (r *classRepository) FeatureKeysForClass(ctx context.Context, classID uint) ([]models.FeatureKey, error) {
	return r.FeatureKeysForClasses(ctx, []uint{classID})
}

func (r *classRepository) EnrolledUserIDs(ctx context.Context, classID uint) ([]uint, error) {
	var ids []uint
	if err := r.db.WithContext(ctx).
		Model(&models.ClassEnrollment{}).
		Where("class_id = ?", classID).
		Pluck("user_id", &ids).Error; err != nil {
		return nil, err
	}

	return ids, nil
}

func (r *classRepository) GrantFeature(ctx context.Context, permission *models.ClassFeaturePermission) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "class_id"}, {Name: "feature_key"}},
		DoNothing: true,
	}).Create(permission).Error
}

func (r *classRepository) RevokeFeature(ctx context.Context, classID uint, key models.FeatureKey) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("class_id = ? AND feature_key = ?", classID, key).
		Delete(&models.ClassFeaturePermission{})

	return result.RowsAffected, result.Error
}

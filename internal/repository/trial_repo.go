package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/mentoria/mentoria-api/internal/models"
)

// TrialContentRepository manages the trial content allow-list.
type TrialContentRepository interface {
	IsAllowed(ctx context.Context, contentType string, contentID uint) (bool, error)
	List(ctx context.Context) ([]models.TrialAllowedContent, error)
	Add(ctx context.Context, entry *models.TrialAllowedContent) error
	Remove(ctx context.Context, contentType string, contentID uint) (int64, error)
}

type trialContentRepository struct {
	db *gorm.DB
}

// NewTrialContentRepository constructs the allow-list repository.
func NewTrialContentRepository(db *gorm.DB) TrialContentRepository {
	return &trialContentRepository{db: db}
}

func (r *trialContentRepository) IsAllowed(ctx context.Context, contentType string, contentID uint) (bool, error) {
	var entry models.TrialAllowedContent
	err := r.db.WithContext(ctx).
		Where("content_type = ? AND content_id = ?", contentType, contentID).
		First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}

	return true, nil
}

func (r *trialContentRepository) List(ctx context.Context) ([]models.TrialAllowedContent, error) {
	var entries []models.TrialAllowedContent
	if err := r.db.WithContext(ctx).Order("content_type, content_id").Find(&entries).Error; err != nil {
		return nil, err
	}

	return entries, nil
}

func (r *trialContentRepository) Add(ctx context.Context, entry *models.TrialAllowedContent) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *trialContentRepository) Remove(ctx context.Context, contentType string, contentID uint) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("content_type = ? AND content_id = ?", contentType, contentID).
		Delete(&models.TrialAllowedContent{})

	return result.RowsAffected, result.Error
}

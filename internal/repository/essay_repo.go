package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/mentoria/mentoria-api/internal/models"
)

// EssayFilter narrows essay listings.
type EssayFilter struct {
	UserID   *uint
	PromptID *uint
	Status   *string
}

// EssayRepository defines data operations for essays.
type EssayRepository interface {
	List(ctx context.Context, filter EssayFilter) ([]models.Essay, error)
	GetByID(ctx context.Context, id uint) (models.Essay, error)
	Create(ctx context.Context, essay *models.Essay) error
	Update(ctx context.Context, essay *models.Essay) error
	Finalize(ctx context.Context, essay *models.Essay, scores []models.EssayCompetenceScore) error
	GetPrompt(ctx context.Context, id uint) (models.EssayPrompt, error)
	CompetenceScores(ctx context.Context, essayID uint) ([]models.EssayCompetenceScore, error)
}

type essayRepository struct {
	db *gorm.DB
}

// NewEssayRepository instantiates the repository.
func NewEssayRepository(db *gorm.DB) EssayRepository {
	return &essayRepository{db: db}
}

func (r *essayRepository) baseQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.Essay{}).Preload("Prompt")
}

func (r *essayRepository) List(ctx context.Context, filter EssayFilter) ([]models.Essay, error) {
	query := r.baseQuery(ctx)

	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}

	if filter.PromptID != nil {
		query = query.Where("prompt_id = ?", *filter.PromptID)
	}

	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}

	var essays []models.Essay
	if err := query.Order("created_at DESC").Find(&essays).Error; err != nil {
		return nil, err
	}

	return essays, nil
}

func (r *essayRepository) GetByID(ctx context.Context, id uint) (models.Essay, error) {
	var essay models.Essay
	if err := r.baseQuery(ctx).First(&essay, id).Error; err != nil {
		return models.Essay{}, err
	}

	return essay, nil
}

func (r *essayRepository) Create(ctx context.Context, essay *models.Essay) error {
	return r.db.WithContext(ctx).Create(essay).Error
}

func (r *essayRepository) Update(ctx context.Context, essay *models.Essay) error {
	return r.db.WithContext(ctx).Save(essay).Error
}

// Finalize persists the grade, feedback and competency sub-scores in a single
// transaction so a mid-way failure cannot leave a half-corrected essay.
func (r *essayRepository) Finalize(ctx context.Context, essay *models.Essay, scores []models.EssayCompetenceScore) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(essay).Error; err != nil {
			return err
		}

		if err := tx.Where("essay_id = ?", essay.ID).Delete(&models.EssayCompetenceScore{}).Error; err != nil {
			return err
		}

		if len(scores) > 0 {
			if err := tx.Create(&scores).Error; err != nil {
				return err
			}
		}

		return nil
	})
}

func (r *essayRepository) GetPrompt(ctx context.Context, id uint) (models.EssayPrompt, error) {
	var prompt models.EssayPrompt
	if err := r.db.WithContext(ctx).First(&prompt, id).Error; err != nil {
		return models.EssayPrompt{}, err
	}

	return prompt, nil
}

func (r *essayRepository) CompetenceScores(ctx context.Context, essayID uint) ([]models.EssayCompetenceScore, error) {
	var scores []models.EssayCompetenceScore
	if err := r.db.WithContext(ctx).
		Where("essay_id = ?", essayID).
		Order("competence").
		Find(&scores).Error; err != nil {
		return nil, err
	}

	return scores, nil
}

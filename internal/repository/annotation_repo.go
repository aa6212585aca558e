package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/mentoria/mentoria-api/internal/models"
)

// AnnotationRepository defines data operations for essay annotations.
type AnnotationRepository interface {
	ListByEssay(ctx context.Context, essayID uint) ([]models.EssayAnnotation, error)
	GetByID(ctx context.Context, id uint) (models.EssayAnnotation, error)
	Create(ctx context.Context, annotation *models.EssayAnnotation) error
	CreateBatch(ctx context.Context, annotations []models.EssayAnnotation) error
	Update(ctx context.Context, annotation *models.EssayAnnotation) error
	Delete(ctx context.Context, id uint) (int64, error)
}

type annotationRepository struct {
	db *gorm.DB
}

// NewAnnotationRepository instantiates the repository.
func NewAnnotationRepository(db *gorm.DB) AnnotationRepository {
	return &annotationRepository{db: db}
}

func (r *annotationRepository) ListByEssay(ctx context.Context, essayID uint) ([]models.EssayAnnotation, error) {
	var annotations []models.EssayAnnotation
	if err := r.db.WithContext(ctx).
		Where("essay_id = ?", essayID).
		Order("start_offset, end_offset").
		Find(&annotations).Error; err != nil {
		return nil, err
	}

	return annotations, nil
}

func (r *annotationRepository) GetByID(ctx context.Context, id uint) (models.EssayAnnotation, error) {
	var annotation models.EssayAnnotation
	if err := r.db.WithContext(ctx).First(&annotation, id).Error; err != nil {
		return models.EssayAnnotation{}, err
	}

	return annotation, nil
}

func (r *annotationRepository) Create(ctx context.Context, annotation *models.EssayAnnotation) error {
	return r.db.WithContext(ctx).Create(annotation).Error
}

func (r *annotationRepository) CreateBatch(ctx context.Context, annotations []models.EssayAnnotation) error {
	if len(annotations) == 0 {
		return nil
	}

	return r.db.WithContext(ctx).Create(&annotations).Error
}

func (r *annotationRepository) Update(ctx context.Context, annotation *models.EssayAnnotation) error {
	return r.db.WithContext(ctx).Save(annotation).Error
}

func (r *annotationRepository) Delete(ctx context.Context, id uint) (int64, error) {
	result := r.db.WithContext(ctx).Delete(&models.EssayAnnotation{}, id)
	return result.RowsAffected, result.Error
}

package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/mentoria/mentoria-api/internal/models"
)

// QuizRepository persists quiz attempts and their answers.
type QuizRepository interface {
	CreateAttempt(ctx context.Context, attempt *models.QuizAttempt, answers []models.QuizAnswer) error
	ListAttempts(ctx context.Context, userID uint, limit int) ([]models.QuizAttempt, error)
}

type quizRepository struct {
	db *gorm.DB
}

// NewQuizRepository instantiates the repository.
func NewQuizRepository(db *gorm.DB) QuizRepository {
	return &quizRepository{db: db}
}

func (r *quizRepository) CreateAttempt(ctx context.Context, attempt *models.QuizAttempt, answers []models.QuizAnswer) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(attempt).Error; err != nil {
			return err
		}

		for i := range answers {
			answers[i].AttemptID = attempt.ID
		}

		if len(answers) > 0 {
			if err := tx.Create(&answers).Error; err != nil {
				return err
			}
		}

		return nil
	})
}

func (r *quizRepository) ListAttempts(ctx context.Context, userID uint, limit int) ([]models.QuizAttempt, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	var attempts []models.QuizAttempt
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&attempts).Error; err != nil {
		return nil, err
	}

	return attempts, nil
}

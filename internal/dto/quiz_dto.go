package dto

import (
	"time"

	"github.com/mentoria/mentoria-api/internal/models"
)

// QuizAnswerInput is one answered question inside an attempt submission.
type QuizAnswerInput struct {
	QuestionID uint   `json:"question_id" validate:"required,gt=0"`
	Selected   string `json:"selected" validate:"required,max=8"`
	Correct    bool   `json:"correct"`
}

// QuizAttemptRequest submits a completed quiz run.
type QuizAttemptRequest struct {
	QuizID      uint              `json:"quiz_id" validate:"required,gt=0"`
	DurationSec int               `json:"duration_sec" validate:"gte=0"`
	Answers     []QuizAnswerInput `json:"answers" validate:"required,min=1,dive"`
}

// QuizAttemptResponse reports the stored attempt and the XP it produced.
type QuizAttemptResponse struct {
	ID            uint         `json:"id"`
	QuizID        uint         `json:"quiz_id"`
	QuestionCount int          `json:"question_count"`
	CorrectCount  int          `json:"correct_count"`
	Accuracy      float64      `json:"accuracy"`
	DurationSec   int          `json:"duration_sec"`
	CreatedAt     time.Time    `json:"created_at"`
	Score         *ScoreResult `json:"score,omitempty"`
}

// NewQuizAttemptResponse converts an attempt model into a DTO.
func NewQuizAttemptResponse(model models.QuizAttempt) QuizAttemptResponse {
	accuracy := 0.0
	if model.QuestionCount > 0 {
		accuracy = float64(model.CorrectCount) / float64(model.QuestionCount) * 100
	}

	return QuizAttemptResponse{
		ID:            model.ID,
		QuizID:        model.QuizID,
		QuestionCount: model.QuestionCount,
		CorrectCount:  model.CorrectCount,
		Accuracy:      accuracy,
		DurationSec:   model.DurationSec,
		CreatedAt:     model.CreatedAt,
	}
}

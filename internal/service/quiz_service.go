package service

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/mentoria/mentoria-api/internal/dto"
	"github.com/mentoria/mentoria-api/internal/models"
	"github.com/mentoria/mentoria-api/internal/repository"
)

// QuizAccessError carries the gate decision so the handler can return
// the upgrade message alongside the 403.
type QuizAccessError struct {
	Decision dto.AccessDecision
}

func (e *QuizAccessError) Error() string {
	return "quiz access denied: " + e.Decision.Reason
}

// QuizService runs completed quiz attempts through the content gate, the
// usage counter and the score pipeline.
type QuizService interface {
	SubmitAttempt(ctx context.Context, userID uint, payload dto.QuizAttemptRequest) (dto.QuizAttemptResponse, error)
	ListAttempts(ctx context.Context, userID uint, limit int) ([]dto.QuizAttemptResponse, error)
}

type quizService struct {
	repo      repository.QuizRepository
	trial     TrialService
	scores    ScoreService
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewQuizService constructs the quiz attempt pipeline.
func NewQuizService(repo repository.QuizRepository, trial TrialService, scores ScoreService, validate *validator.Validate, logger zerolog.Logger) QuizService {
	return &quizService{
		repo:      repo,
		trial:     trial,
		scores:    scores,
		validator: validate,
		logger:    logger.With().Str("component", "quiz_service").Logger(),
	}
}

func (s *quizService) SubmitAttempt(ctx context.Context, userID uint, payload dto.QuizAttemptRequest) (dto.QuizAttemptResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.QuizAttemptResponse{}, err
	}

	decision, err := s.trial.CheckContentAccess(ctx, userID, "quiz", payload.QuizID)
	if err != nil {
		return dto.QuizAttemptResponse{}, err
	}
	if !decision.HasAccess {
		return dto.QuizAttemptResponse{}, &QuizAccessError{Decision: decision}
	}

	correct := 0
	answers := make([]models.QuizAnswer, 0, len(payload.Answers))
	for _, answer := range payload.Answers {
		if answer.Correct {
			correct++
		}
		answers = append(answers, models.QuizAnswer{
			QuestionID: answer.QuestionID,
			Selected:   answer.Selected,
			Correct:    answer.Correct,
		})
	}

	attempt := models.QuizAttempt{
		UserID:        userID,
		QuizID:        payload.QuizID,
		QuestionCount: len(payload.Answers),
		CorrectCount:  correct,
		DurationSec:   payload.DurationSec,
	}

	if err := s.repo.CreateAttempt(ctx, &attempt, answers); err != nil {
		return dto.QuizAttemptResponse{}, err
	}

	if _, err := s.trial.RecordUsage(ctx, userID, models.ActivityQuiz); err != nil {
		if !errors.Is(err, ErrUnknownActivity) {
			s.logger.Warn().Err(err).Uint("user_id", userID).Msg("failed to record quiz usage")
		}
	}

	response := dto.NewQuizAttemptResponse(attempt)

	result, err := s.scores.AddScore(ctx, userID, dto.ScoreSubmitRequest{
		ActivityType: models.ActivityQuiz,
		ActivityID:   payload.QuizID,
		ItemCount:    attempt.QuestionCount,
		Accuracy:     response.Accuracy,
		DurationSec:  payload.DurationSec,
	})
	if err != nil {
		// The attempt is stored; surface it even when scoring fails.
		s.logger.Error().Err(err).Uint("user_id", userID).Msg("failed to score quiz attempt")
		return response, nil
	}

	response.Score = &result
	return response, nil
}

func (s *quizService) ListAttempts(ctx context.Context, userID uint, limit int) ([]dto.QuizAttemptResponse, error) {
	attempts, err := s.repo.ListAttempts(ctx, userID, limit)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.QuizAttemptResponse, 0, len(attempts))
	for _, attempt := range attempts {
		responses = append(responses, dto.NewQuizAttemptResponse(attempt))
	}

	return responses, nil
}

package service

import (
	"context"
	"errors"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/mentoria/mentoria-api/internal/dto"
	"github.com/mentoria/mentoria-api/internal/models"
)

type memoryQuizRepo struct {
	attempts []models.QuizAttempt
	answers  map[uint][]models.QuizAnswer
	nextID   uint
}

func newMemoryQuizRepo() *memoryQuizRepo {
	return &memoryQuizRepo{answers: make(map[uint][]models.QuizAnswer), nextID: 1}
}

func (m *memoryQuizRepo) CreateAttempt(ctx context.Context, attempt *models.QuizAttempt, answers []models.QuizAnswer) error {
	attempt.ID = m.nextID
	m.nextID++
	m.attempts = append(m.attempts, *attempt)
	m.answers[attempt.ID] = answers
	return nil
}

func (m *memoryQuizRepo) ListAttempts(ctx context.Context, userID uint, limit int) ([]models.QuizAttempt, error) {
	var results []models.QuizAttempt
	for _, attempt := range m.attempts {
		if attempt.UserID == userID {
			results = append(results, attempt)
		}
	}
	return results, nil
}

type stubTrialService struct {
	decision dto.AccessDecision
	recorded []string
	usageErr error
}

func (s *stubTrialService) CheckContentAccess(ctx context.Context, userID uint, contentType string, contentID uint) (dto.AccessDecision, error) {
	return s.decision, nil
}

func (s *stubTrialService) RecordUsage(ctx context.Context, userID uint, activityType string) (int64, error) {
	if s.usageErr != nil {
		return 0, s.usageErr
	}
	s.recorded = append(s.recorded, activityType)
	return int64(len(s.recorded)), nil
}

func (s *stubTrialService) UsageToday(ctx context.Context, userID uint, activityType string) (int64, error) {
	return int64(len(s.recorded)), nil
}

type stubScoreService struct {
	result   dto.ScoreResult
	err      error
	payloads []dto.ScoreSubmitRequest
}

func (s *stubScoreService) AddScore(ctx context.Context, userID uint, payload dto.ScoreSubmitRequest) (dto.ScoreResult, error) {
	s.payloads = append(s.payloads, payload)
	if s.err != nil {
		return dto.ScoreResult{}, s.err
	}
	return s.result, nil
}

func quizAttemptPayload() dto.QuizAttemptRequest {
	return dto.QuizAttemptRequest{
		QuizID:      7,
		DurationSec: 120,
		Answers: []dto.QuizAnswerInput{
			{QuestionID: 1, Selected: "a", Correct: true},
			{QuestionID: 2, Selected: "c", Correct: false},
			{QuestionID: 3, Selected: "b", Correct: true},
			{QuestionID: 4, Selected: "d", Correct: true},
		},
	}
}

func TestSubmitAttemptScoresAndRecordsUsage(t *testing.T) {
	repo := newMemoryQuizRepo()
	trial := &stubTrialService{decision: dto.AccessDecision{HasAccess: true}}
	scores := &stubScoreService{result: dto.ScoreResult{XPAwarded: 13, TotalXP: 13, Level: 1}}

	svc := NewQuizService(repo, trial, scores, validator.New(validator.WithRequiredStructEnabled()), zerolog.Nop())

	response, err := svc.SubmitAttempt(context.Background(), 1, quizAttemptPayload())
	require.NoError(t, err)
	require.Equal(t, 4, response.QuestionCount)
	require.Equal(t, 3, response.CorrectCount)
	require.InDelta(t, 75.0, response.Accuracy, 0.01)
	require.NotNil(t, response.Score)
	require.Equal(t, 13, response.Score.XPAwarded)

	require.Equal(t, []string{models.ActivityQuiz}, trial.recorded)
	require.Len(t, scores.payloads, 1)
	require.Equal(t, models.ActivityQuiz, scores.payloads[0].ActivityType)
	require.Equal(t, uint(7), scores.payloads[0].ActivityID)
	require.InDelta(t, 75.0, scores.payloads[0].Accuracy, 0.01)

	require.Len(t, repo.attempts, 1)
	require.Len(t, repo.answers[repo.attempts[0].ID], 4)
}

func TestSubmitAttemptDeniedByGate(t *testing.T) {
	trial := &stubTrialService{decision: dto.AccessDecision{
		HasAccess:      false,
		Reason:         dto.AccessReasonDailyLimitReached,
		UpgradeMessage: "upgrade",
	}}
	repo := newMemoryQuizRepo()

	svc := NewQuizService(repo, trial, &stubScoreService{}, validator.New(validator.WithRequiredStructEnabled()), zerolog.Nop())

	_, err := svc.SubmitAttempt(context.Background(), 1, quizAttemptPayload())

	var accessErr *QuizAccessError
	require.ErrorAs(t, err, &accessErr)
	require.Equal(t, dto.AccessReasonDailyLimitReached, accessErr.Decision.Reason)
	require.Empty(t, repo.attempts)
}

func TestSubmitAttemptKeepsAttemptOnScoringFailure(t *testing.T) {
	repo := newMemoryQuizRepo()
	trial := &stubTrialService{decision: dto.AccessDecision{HasAccess: true}}
	scores := &stubScoreService{err: errors.New("ledger down")}

	svc := NewQuizService(repo, trial, scores, validator.New(validator.WithRequiredStructEnabled()), zerolog.Nop())

	response, err := svc.SubmitAttempt(context.Background(), 1, quizAttemptPayload())
	require.NoError(t, err)
	require.Nil(t, response.Score)
	require.Len(t, repo.attempts, 1)
}

func TestSubmitAttemptRequiresAnswers(t *testing.T) {
	svc := NewQuizService(newMemoryQuizRepo(), &stubTrialService{}, &stubScoreService{}, validator.New(validator.WithRequiredStructEnabled()), zerolog.Nop())

	_, err := svc.SubmitAttempt(context.Background(), 1, dto.QuizAttemptRequest{QuizID: 7})
	require.Error(t, err)
}

func TestListAttempts(t *testing.T) {
	repo := newMemoryQuizRepo()
	repo.attempts = []models.QuizAttempt{
		{ID: 1, UserID: 1, QuizID: 7, QuestionCount: 4, CorrectCount: 2},
		{ID: 2, UserID: 2, QuizID: 7, QuestionCount: 4, CorrectCount: 4},
	}

	svc := NewQuizService(repo, &stubTrialService{}, &stubScoreService{}, validator.New(validator.WithRequiredStructEnabled()), zerolog.Nop())

	attempts, err := svc.ListAttempts(context.Background(), 1, 10)
	require.NoError(t, err)
	require.Len(t, attempts, 1)
	require.InDelta(t, 50.0, attempts[0].Accuracy, 0.01)
}

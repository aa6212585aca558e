package handler

import (
	"bytes"
	"context"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/mentoria/mentoria-api/internal/dto"
	"github.com/mentoria/mentoria-api/internal/service"
)

type stubQuizService struct {
	submitted dto.QuizAttemptResponse
	attempts  []dto.QuizAttemptResponse
	err       error
}

func (s *stubQuizService) SubmitAttempt(ctx context.Context, userID uint, payload dto.QuizAttemptRequest) (dto.QuizAttemptResponse, error) {
	if s.err != nil {
		return dto.QuizAttemptResponse{}, s.err
	}
	return s.submitted, nil
}

func (s *stubQuizService) ListAttempts(ctx context.Context, userID uint, limit int) ([]dto.QuizAttemptResponse, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.attempts, nil
}

func quizTestApp(svc service.QuizService) *fiber.App {
	app := fiber.New()
	group := app.Group("/api/v1/quizzes", authenticated(4, "student"))
	NewQuizHandler(svc, zerolog.Nop()).Register(group)
	return app
}

func TestSubmitQuizAttemptCreated(t *testing.T) {
	svc := &stubQuizService{submitted: dto.QuizAttemptResponse{ID: 11, QuizID: 7, QuestionCount: 4, CorrectCount: 3, Accuracy: 75}}
	app := quizTestApp(svc)

	payload := bytes.NewBufferString(`{"quiz_id":7,"duration_sec":180,"answers":[{"question_id":1,"correct":true}]}`)
	req := httptest.NewRequest("POST", "/api/v1/quizzes/attempts", payload)
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	body := decodeEnvelope(t, resp.Body)
	require.True(t, body.Success)
	require.Equal(t, "attempt recorded", body.Message)
	require.Equal(t, float64(75), body.Data["accuracy"])
}

func TestSubmitQuizAttemptForbiddenCarriesDecision(t *testing.T) {
	svc := &stubQuizService{err: &service.QuizAccessError{Decision: dto.AccessDecision{
		Reason:         dto.AccessReasonDailyLimitReached,
		UpgradeMessage: "upgrade for unlimited quizzes",
	}}}
	app := quizTestApp(svc)

	payload := bytes.NewBufferString(`{"quiz_id":7,"answers":[{"question_id":1,"correct":true}]}`)
	req := httptest.NewRequest("POST", "/api/v1/quizzes/attempts", payload)
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	body := decodeEnvelope(t, resp.Body)
	require.False(t, body.Success)
	require.Equal(t, "daily_limit_reached", body.Details["reason"])
	require.Equal(t, "upgrade for unlimited quizzes", body.Details["upgrade_message"])
}

func TestListQuizAttempts(t *testing.T) {
	svc := &stubQuizService{attempts: []dto.QuizAttemptResponse{{ID: 1, QuizID: 7}, {ID: 2, QuizID: 9}}}
	app := quizTestApp(svc)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/quizzes/attempts?limit=10", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestQuizAttemptsRequireAuthentication(t *testing.T) {
	app := fiber.New()
	NewQuizHandler(&stubQuizService{}, zerolog.Nop()).Register(app.Group("/api/v1/quizzes"))

	resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/quizzes/attempts", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

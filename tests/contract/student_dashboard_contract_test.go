package contract_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/stretchr/testify/require"

	"github.com/mentoria/mentoria-api/internal/dto"
	"github.com/mentoria/mentoria-api/internal/handler"
)

type stubDashboardService struct {
	response dto.DashboardResponse
}

func (s stubDashboardService) GetDashboard(context.Context, uint) (dto.DashboardResponse, error) {
	return s.response, nil
}

func (s stubDashboardService) Leaderboard(context.Context, uint, int) (dto.LeaderboardResponse, error) {
	return dto.LeaderboardResponse{}, nil
}

func compileSchema(t *testing.T, name string) *jsonschema.Schema {
	t.Helper()

	schemaPath, err := filepath.Abs(filepath.Join("..", "contracts", name))
	require.NoError(t, err)

	compiler := jsonschema.NewCompiler()
	schema, err := compiler.Compile("file://" + schemaPath)
	require.NoError(t, err)
	return schema
}

func asStudent(userID uint) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals("user_id", userID)
		c.Locals("user_role", "student")
		return c.Next()
	}
}

func TestStudentDashboardContract(t *testing.T) {
	schema := compileSchema(t, "student_dashboard.schema.json")

	now := time.Now().UTC()
	response := dto.DashboardResponse{
		TotalXP:        420,
		Level:          5,
		Rank:           12,
		QuizCount:      8,
		FlashcardCount: 14,
		EssayCount:     2,
		StreakDays:     4,
		RecentScores: []dto.ScoreEntry{
			{
				ID:           77,
				ActivityType: "quiz",
				ActivityID:   9,
				ScoreValue:   40,
				Accuracy:     85,
				ItemCount:    10,
				CreatedAt:    now.Add(-2 * time.Hour),
			},
		},
		Achievements: []dto.AchievementBadge{
			{ID: 3, Slug: "xp-100", Title: "Primeiros 100 XP", UnlockedAt: now.Add(-72 * time.Hour)},
		},
	}

	svc := stubDashboardService{response: response}
	dashboardHandler := handler.NewDashboardHandler(svc, zerolog.Nop())

	app := fiber.New()
	group := app.Group("/api/v1", asStudent(1))
	dashboardHandler.Register(group)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/dashboard", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	resp.Body.Close()

	var payload interface{}
	require.NoError(t, json.Unmarshal(body, &payload))
	require.NoError(t, schema.Validate(payload))
}

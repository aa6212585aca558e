package performance_test

import (
	"fmt"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"sort"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/mentoria/mentoria-api/internal/handler"
	"github.com/mentoria/mentoria-api/internal/models"
	"github.com/mentoria/mentoria-api/internal/repository"
	"github.com/mentoria/mentoria-api/internal/service"
)

func setupDashboardPerformanceApp(t *testing.T) *fiber.App {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:dashboard_perf?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Score{},
		&models.UserProgress{},
		&models.Achievement{},
		&models.UserAchievement{},
	))

	mini, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mini.Close)
	redisClient := redis.NewClient(&redis.Options{Addr: mini.Addr()})

	now := time.Now().UTC()
	for i := 1; i <= 50; i++ {
		user := models.User{
			ID:    uint(i),
			Name:  fmt.Sprintf("Aluno %d", i),
			Email: fmt.Sprintf("aluno%d@example.com", i),
			Role:  models.RoleStudent,
		}
		require.NoError(t, db.Create(&user).Error)

		progress := models.UserProgress{
			UserID:    user.ID,
			TotalXP:   int64(i * 37),
			QuizCount: i,
		}
		require.NoError(t, db.Create(&progress).Error)

		for j := 0; j < 10; j++ {
			score := models.Score{
				UserID:       user.ID,
				ActivityType: "quiz",
				ActivityID:   uint(j + 1),
				ScoreValue:   30,
				Accuracy:     80,
				ItemCount:    10,
				CreatedAt:    now.Add(-time.Duration(j) * time.Hour),
			}
			require.NoError(t, db.Create(&score).Error)
		}
	}

	scoreRepo := repository.NewScoreRepository(db)
	achievementRepo := repository.NewAchievementRepository(db)
	userRepo := repository.NewUserRepository(db)

	dashboardService := service.NewDashboardService(scoreRepo, achievementRepo, userRepo, redisClient, 0, zerolog.Nop())
	dashboardHandler := handler.NewDashboardHandler(dashboardService, zerolog.Nop())

	app := fiber.New()
	group := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Locals("user_id", uint(25))
		c.Locals("user_role", "student")
		return c.Next()
	})
	dashboardHandler.Register(group)

	return app
}

func TestDashboardP95LatencyBelow250ms(t *testing.T) {
	app := setupDashboardPerformanceApp(t)

	runs := 40
	durations := make([]time.Duration, 0, runs)

	for i := 0; i < runs; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/dashboard", nil)
		start := time.Now()
		resp, err := app.Test(req)
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		_, _ = io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		durations = append(durations, time.Since(start))
	}

	sort.Slice(durations, func(i, j int) bool { return durations[i] < durations[j] })
	index := int(math.Ceil(0.95*float64(len(durations)))) - 1
	if index < 0 {
		index = 0
	}
	p95 := durations[index]

	require.LessOrEqual(t, p95, 250*time.Millisecond)

	leaderboardReq := httptest.NewRequest(http.MethodGet, "/api/v1/leaderboard?limit=10", nil)
	start := time.Now()
	resp, err := app.Test(leaderboardReq)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	require.LessOrEqual(t, time.Since(start), 250*time.Millisecond)
}

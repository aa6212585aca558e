package router

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/mentoria/mentoria-api/internal/config"
	"github.com/mentoria/mentoria-api/internal/handler"
	"github.com/mentoria/mentoria-api/internal/middleware"
	"github.com/mentoria/mentoria-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	FeatureHandler          *handler.FeatureHandler
	AccessHandler           *handler.AccessHandler
	EssayHandler            *handler.EssayHandler
	QuizHandler             *handler.QuizHandler
	ScoreHandler            *handler.ScoreHandler
	DashboardHandler        *handler.DashboardHandler
	NotificationHandler     *handler.NotificationHandler
	AdminFeatureHandler     *handler.AdminFeatureHandler
	AdminAchievementHandler *handler.AdminAchievementHandler
	AdminActivityHandler    *handler.AdminActivityHandler
	JWTMiddleware           fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	// Common v1 group for health & headers
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))

	app.Get("/metrics", observability.MetricsHandler())

	// Use provided JWT middleware, or a no-op if nil
	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	// Feature flags resolved for the authenticated user
	if deps.FeatureHandler != nil {
		features := app.Group("/api/v1/features", jwtMiddleware)
		deps.FeatureHandler.Register(features)
	}

	// Trial access checks & usage recording
	if deps.AccessHandler != nil {
		access := app.Group("/api/v1/access", jwtMiddleware)
		deps.AccessHandler.Register(access)
	}

	// Essay submission, analysis and annotation review. Submissions carry
	// manuscript uploads, so the group is rate limited per user.
	if deps.EssayHandler != nil {
		essays := app.Group("/api/v1/essays", jwtMiddleware, middleware.RateLimit("essays", 60, time.Minute))
		deps.EssayHandler.Register(essays)
	}

	// Quiz attempts feeding the scoring pipeline
	if deps.QuizHandler != nil {
		quizzes := app.Group("/api/v1/quizzes", jwtMiddleware)
		deps.QuizHandler.Register(quizzes)
	}

	// Direct score submission for activities without a dedicated endpoint
	if deps.ScoreHandler != nil {
		scores := app.Group("/api/v1/scores", jwtMiddleware)
		deps.ScoreHandler.Register(scores)
	}

	// Student dashboard & leaderboard
	if deps.DashboardHandler != nil {
		dashboard := app.Group("/api/v1", jwtMiddleware)
		deps.DashboardHandler.Register(dashboard)
	}

	// Notification inbox plus SSE/websocket streams
	if deps.NotificationHandler != nil {
		notifications := app.Group("/api/v1/notifications", jwtMiddleware)
		deps.NotificationHandler.Register(notifications)
	}

	// Admin surface
	adminGuard := middleware.RequireRole("admin")

	if deps.AdminFeatureHandler != nil {
		adminFeatures := app.Group("/api/v1/admin", jwtMiddleware, adminGuard)
		deps.AdminFeatureHandler.Register(adminFeatures)
	}

	if deps.AdminAchievementHandler != nil {
		adminAchievements := app.Group("/api/v1/admin/achievements", jwtMiddleware, adminGuard)
		deps.AdminAchievementHandler.Register(adminAchievements)
	}

	if deps.AdminActivityHandler != nil {
		adminActivity := app.Group("/api/v1/admin/activity", jwtMiddleware, adminGuard)
		deps.AdminActivityHandler.Register(adminActivity)
	}
}

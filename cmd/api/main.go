package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/mentoria/mentoria-api/internal/config"
	"github.com/mentoria/mentoria-api/internal/database"
	"github.com/mentoria/mentoria-api/internal/handler"
	"github.com/mentoria/mentoria-api/internal/middleware"
	"github.com/mentoria/mentoria-api/internal/models"
	"github.com/mentoria/mentoria-api/internal/repository"
	"github.com/mentoria/mentoria-api/internal/router"
	"github.com/mentoria/mentoria-api/internal/service"
	"github.com/mentoria/mentoria-api/pkg/ai"
	cloud "github.com/mentoria/mentoria-api/pkg/cloudinary"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.Class{},
		&models.ClassEnrollment{},
		&models.ClassFeaturePermission{},
		&models.TrialAllowedContent{},
		&models.EssayPrompt{},
		&models.Essay{},
		&models.EssayAnnotation{},
		&models.EssayErrorCategory{},
		&models.EssayCompetenceScore{},
		&models.Score{},
		&models.UserProgress{},
		&models.Achievement{},
		&models.UserAchievement{},
		&models.QuizAttempt{},
		&models.QuizAnswer{},
		&models.Notification{},
		&models.ActivityLog{},
	); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	redisClient, err := database.ConnectRedis(cfg.RedisURL)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()

	natsConn, err := database.ConnectNATS(cfg.NATSURL, cfg.AppName)
	if err != nil {
		logger.Warn().Err(err).Msg("nats unavailable, cross-instance fanout disabled")
		natsConn = nil
	}
	if natsConn != nil {
		defer natsConn.Close()
	}

	uploader, err := cloud.New(cloud.Config{
		CloudName: cfg.CloudinaryCloudName,
		APIKey:    cfg.CloudinaryAPIKey,
		APISecret: cfg.CloudinaryAPISecret,
		Folder:    cfg.CloudinaryUploadFolder,
	}, logger)
	if err != nil {
		log.Fatalf("failed to create cloudinary client: %v", err)
	}

	analyzer := buildAnalyzer(cfg, logger)

	validate := validator.New(validator.WithRequiredStructEnabled())

	userRepo := repository.NewUserRepository(db)
	classRepo := repository.NewClassRepository(db)
	trialContentRepo := repository.NewTrialContentRepository(db)
	essayRepo := repository.NewEssayRepository(db)
	annotationRepo := repository.NewAnnotationRepository(db)
	scoreRepo := repository.NewScoreRepository(db)
	achievementRepo := repository.NewAchievementRepository(db)
	quizRepo := repository.NewQuizRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	activityRepo := repository.NewActivityLogRepository(db)

	trialLimits := service.TrialLimits{
		QuizPerDay:      cfg.TrialQuizDailyLimit,
		FlashcardPerDay: cfg.TrialCardDailyLimit,
		UpgradeMessage:  cfg.TrialUpgradeMessage,
	}

	featureService := service.NewFeatureService(userRepo, classRepo, redisClient, cfg.FeatureCacheTTL, logger)
	trialService := service.NewTrialService(userRepo, trialContentRepo, redisClient, trialLimits, logger)
	activityService := service.NewActivityService(activityRepo, validate, logger)
	notificationService := service.NewNotificationService(notificationRepo, redisClient, "mentoria", natsConn, validate, logger)
	scoreService := service.NewScoreService(scoreRepo, achievementRepo, notificationService, validate, logger)
	quizService := service.NewQuizService(quizRepo, trialService, scoreService, validate, logger)
	essayService := service.NewEssayService(essayRepo, annotationRepo, analyzer, uploader, validate, logger)
	annotationService := service.NewAnnotationService(essayRepo, annotationRepo, validate, activityService, logger)
	dashboardService := service.NewDashboardService(scoreRepo, achievementRepo, userRepo, redisClient, cfg.DashboardCacheTTL, logger)
	adminFeatureService := service.NewAdminFeatureService(classRepo, trialContentRepo, featureService, activityService, logger)
	adminAchievementService, err := service.NewAdminAchievementService(achievementRepo, validate, activityService, logger)
	if err != nil {
		log.Fatalf("failed to build achievement service: %v", err)
	}

	consumerCtx, stopConsumers := context.WithCancel(context.Background())
	defer stopConsumers()
	notificationService.Start(consumerCtx)

	featureHandler := handler.NewFeatureHandler(featureService, logger)
	accessHandler := handler.NewAccessHandler(trialService, trialLimits, validate, logger)
	essayHandler := handler.NewEssayHandler(essayService, annotationService, notificationService, logger)
	quizHandler := handler.NewQuizHandler(quizService, logger)
	scoreHandler := handler.NewScoreHandler(scoreService, logger)
	dashboardHandler := handler.NewDashboardHandler(dashboardService, logger)
	notificationHandler := handler.NewNotificationHandler(notificationService, logger, 30*time.Second)
	adminFeatureHandler := handler.NewAdminFeatureHandler(adminFeatureService, validate, logger)
	adminAchievementHandler := handler.NewAdminAchievementHandler(adminAchievementService, logger)
	adminActivityHandler := handler.NewAdminActivityHandler(activityService, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger, AllowOrigins: cfg.CORSAllowOrigins})
	router.Register(app, cfg, router.Dependencies{
		FeatureHandler:          featureHandler,
		AccessHandler:           accessHandler,
		EssayHandler:            essayHandler,
		QuizHandler:             quizHandler,
		ScoreHandler:            scoreHandler,
		DashboardHandler:        dashboardHandler,
		NotificationHandler:     notificationHandler,
		AdminFeatureHandler:     adminFeatureHandler,
		AdminAchievementHandler: adminAchievementHandler,
		AdminActivityHandler:    adminActivityHandler,
		JWTMiddleware:           middleware.JWTProtected(cfg.JWTSecret),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app, stopConsumers)
}

func buildAnalyzer(cfg config.Config, logger zerolog.Logger) ai.EssayAnalyzer {
	switch cfg.AIProvider {
	case "openai":
		analyzer, err := ai.NewOpenAIAnalyzer(ai.OpenAIConfig{
			APIKey: cfg.OpenAIAPIKey,
			Logger: logger,
		})
		if err != nil {
			logger.Warn().Err(err).Msg("openai analyzer unavailable, essay analysis disabled")
			return nil
		}
		return analyzer
	case "anthropic":
		analyzer, err := ai.NewAnthropicAnalyzer(ai.AnthropicConfig{APIKey: cfg.AnthropicAPIKey})
		if err != nil {
			logger.Warn().Err(err).Msg("anthropic analyzer unavailable, essay analysis disabled")
			return nil
		}
		return analyzer
	default:
		logger.Warn().Str("provider", cfg.AIProvider).Msg("unknown ai provider, essay analysis disabled")
		return nil
	}
}

func waitForShutdown(app *fiber.App, stopConsumers context.CancelFunc) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	stopConsumers()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}

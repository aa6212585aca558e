package integration_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/mentoria/mentoria-api/internal/config"
	"github.com/mentoria/mentoria-api/internal/dto"
	"github.com/mentoria/mentoria-api/internal/handler"
	"github.com/mentoria/mentoria-api/internal/middleware"
	"github.com/mentoria/mentoria-api/internal/models"
	"github.com/mentoria/mentoria-api/internal/repository"
	"github.com/mentoria/mentoria-api/internal/router"
	"github.com/mentoria/mentoria-api/internal/service"
)

func setupAdminApp(t *testing.T) (*fiber.App, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:admin_e2e?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Class{},
		&models.ClassEnrollment{},
		&models.ClassFeaturePermission{},
		&models.TrialAllowedContent{},
		&models.ActivityLog{},
	))

	mini, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mini.Close)
	redisClient := redis.NewClient(&redis.Options{Addr: mini.Addr()})

	validate := validator.New(validator.WithRequiredStructEnabled())
	logger := zerolog.New(io.Discard)

	userRepo := repository.NewUserRepository(db)
	classRepo := repository.NewClassRepository(db)
	trialRepo := repository.NewTrialContentRepository(db)
	activityRepo := repository.NewActivityLogRepository(db)

	limits := service.TrialLimits{QuizPerDay: 3, FlashcardPerDay: 5, UpgradeMessage: "assine para continuar"}

	featureService := service.NewFeatureService(userRepo, classRepo, redisClient, time.Minute, logger)
	trialService := service.NewTrialService(userRepo, trialRepo, redisClient, limits, logger)
	activityService := service.NewActivityService(activityRepo, validate, logger)
	adminFeatureService := service.NewAdminFeatureService(classRepo, trialRepo, featureService, activityService, logger)

	app := fiber.New()
	middleware.Register(app, middleware.Config{Logger: &logger})

	router.Register(app, config.Config{AppName: "Mentoria Test", JWTSecret: "secret"}, router.Dependencies{
		FeatureHandler:       handler.NewFeatureHandler(featureService, logger),
		AccessHandler:        handler.NewAccessHandler(trialService, limits, validate, logger),
		AdminFeatureHandler:  handler.NewAdminFeatureHandler(adminFeatureService, validate, logger),
		AdminActivityHandler: handler.NewAdminActivityHandler(activityService, logger),
		JWTMiddleware: func(c *fiber.Ctx) error {
			if strings.HasPrefix(c.Path(), "/api/v1/admin") {
				c.Locals("user_id", uint(9001))
				c.Locals("user_role", "admin")
			} else {
				c.Locals("user_id", uint(1))
				c.Locals("user_role", "student")
			}
			return c.Next()
		},
	})

	return app, db
}

func decode[T any](t *testing.T, resp *http.Response, target *T) {
	t.Helper()
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, target))
}

func postJSON(t *testing.T, app *fiber.App, path string, payload interface{}) *http.Response {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp
}

func TestAdminEndToEndFlow(t *testing.T) {
	app, db := setupAdminApp(t)

	expires := time.Now().Add(7 * 24 * time.Hour)
	student := models.User{ID: 1, Name: "Ana", Email: "ana@example.com", Role: models.RoleStudent, IsTrial: true, TrialExpiresAt: &expires}
	require.NoError(t, db.Create(&student).Error)

	class := models.Class{Name: "Turma ENEM"}
	require.NoError(t, db.Create(&class).Error)
	require.NoError(t, db.Create(&models.ClassEnrollment{ClassID: class.ID, UserID: student.ID}).Error)

	// Step 1: admin enables the quiz feature for the class
	resp := postJSON(t, app, "/api/v1/admin/classes/1/features", map[string]interface{}{"feature_key": "quiz"})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	// Step 2: the enrolled student now sees the feature
	req := httptest.NewRequest(http.MethodGet, "/api/v1/features", nil)
	res, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, res.StatusCode)

	var featuresResp struct {
		Success bool                    `json:"success"`
		Data    dto.FeatureListResponse `json:"data"`
	}
	decode(t, res, &featuresResp)
	require.True(t, featuresResp.Success)
	require.Contains(t, featuresResp.Data.Features, models.FeatureQuiz)

	// Step 3: admin allow-lists one quiz for trial accounts
	resp = postJSON(t, app, "/api/v1/admin/trial-content", map[string]interface{}{"content_type": "quiz", "content_id": 42})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	// Step 4: the trial student may open the allow-listed quiz only
	res, err = app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/access/check?content_type=quiz&content_id=42", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, res.StatusCode)

	var allowed struct {
		Success bool               `json:"success"`
		Data    dto.AccessDecision `json:"data"`
	}
	decode(t, res, &allowed)
	require.True(t, allowed.Data.HasAccess)

	res, err = app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/access/check?content_type=quiz&content_id=43", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, res.StatusCode)

	var denied struct {
		Success bool               `json:"success"`
		Data    dto.AccessDecision `json:"data"`
	}
	decode(t, res, &denied)
	require.False(t, denied.Data.HasAccess)
	require.Equal(t, dto.AccessReasonTrialLocked, denied.Data.Reason)

	// Step 5: usage recording echoes the configured daily limit
	resp = postJSON(t, app, "/api/v1/access/usage", map[string]interface{}{"activity_type": "quiz"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var usage struct {
		Success bool                    `json:"success"`
		Data    dto.UsageRecordResponse `json:"data"`
	}
	decode(t, resp, &usage)
	require.Equal(t, int64(1), usage.Data.UsedToday)
	require.Equal(t, 3, usage.Data.DailyLimit)

	// Step 6: the admin actions landed in the audit trail
	res, err = app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/admin/activity", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, res.StatusCode)

	var activity struct {
		Success bool                          `json:"success"`
		Data    dto.AdminActivityListResponse `json:"data"`
	}
	decode(t, res, &activity)
	require.True(t, activity.Success)

	actions := make([]string, 0, len(activity.Data.Items))
	for _, item := range activity.Data.Items {
		actions = append(actions, item.Action)
	}
	require.Contains(t, actions, "feature.granted")
	require.Contains(t, actions, "trial_content.added")
	for _, item := range activity.Data.Items {
		require.Equal(t, uint(9001), item.ActorID)
		require.Equal(t, "admin", item.ActorRole)
	}
}

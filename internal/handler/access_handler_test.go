package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
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

	"github.com/mentoria/mentoria-api/internal/models"
	"github.com/mentoria/mentoria-api/internal/repository"
	"github.com/mentoria/mentoria-api/internal/service"
	"github.com/mentoria/mentoria-api/internal/utils"
)

type envelope struct {
	Success bool                   `json:"success"`
	Message string                 `json:"message"`
	Data    map[string]interface{} `json:"data"`
	Details map[string]interface{} `json:"details"`
}

func decodeEnvelope(t *testing.T, body io.Reader) envelope {
	t.Helper()

	var decoded envelope
	require.NoError(t, json.NewDecoder(body).Decode(&decoded))
	return decoded
}

// authenticated mounts the handler group behind a middleware that injects the
// token claims the JWT layer would provide.
func authenticated(userID uint, role string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals("user_id", userID)
		c.Locals("user_role", role)
		return c.Next()
	}
}

func accessTestApp(t *testing.T) (*fiber.App, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.TrialAllowedContent{}))

	mini, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mini.Close)
	redisClient := redis.NewClient(&redis.Options{Addr: mini.Addr()})

	limits := service.TrialLimits{QuizPerDay: 1, FlashcardPerDay: 2, UpgradeMessage: "upgrade"}
	trial := service.NewTrialService(
		repository.NewUserRepository(db),
		repository.NewTrialContentRepository(db),
		redisClient,
		limits,
		zerolog.Nop(),
	)

	validate := validator.New(validator.WithRequiredStructEnabled())
	accessHandler := NewAccessHandler(trial, limits, validate, zerolog.Nop())

	app := fiber.New()
	group := app.Group("/api/v1/access", authenticated(1, models.RoleStudent))
	accessHandler.Register(group)

	return app, db
}

func TestAccessCheckAllowedForFullAccount(t *testing.T) {
	app, db := accessTestApp(t)
	require.NoError(t, db.Create(&models.User{ID: 1, Name: "Ana", Email: "ana@example.com", Role: models.RoleStudent}).Error)

	req := httptest.NewRequest("GET", "/api/v1/access/check?content_type=quiz&content_id=5", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	body := decodeEnvelope(t, resp.Body)
	require.True(t, body.Success)
	require.Equal(t, true, body.Data["has_access"])
}

func TestAccessCheckTrialDeniedOutsideAllowList(t *testing.T) {
	app, db := accessTestApp(t)
	expires := time.Now().Add(24 * time.Hour)
	require.NoError(t, db.Create(&models.User{
		ID: 1, Name: "Ana", Email: "ana@example.com", Role: models.RoleStudent,
		IsTrial: true, TrialExpiresAt: &expires,
	}).Error)

	req := httptest.NewRequest("GET", "/api/v1/access/check?content_type=quiz&content_id=5", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	body := decodeEnvelope(t, resp.Body)
	require.Equal(t, false, body.Data["has_access"])
	require.Equal(t, "trial_locked", body.Data["reason"])
	require.Equal(t, "upgrade", body.Data["upgrade_message"])
}

func TestAccessCheckRejectsUnknownContentType(t *testing.T) {
	app, _ := accessTestApp(t)

	req := httptest.NewRequest("GET", "/api/v1/access/check?content_type=podcast&content_id=5", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestRecordUsageReturnsCounterAndLimit(t *testing.T) {
	app, db := accessTestApp(t)
	require.NoError(t, db.Create(&models.User{ID: 1, Name: "Ana", Email: "ana@example.com", Role: models.RoleStudent}).Error)

	payload := bytes.NewBufferString(`{"activity_type":"flashcards"}`)
	req := httptest.NewRequest("POST", "/api/v1/access/usage", payload)
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	body := decodeEnvelope(t, resp.Body)
	require.Equal(t, float64(1), body.Data["used_today"])
	require.Equal(t, float64(2), body.Data["daily_limit"])
}

func TestRecordUsageUnknownActivity(t *testing.T) {
	app, _ := accessTestApp(t)

	payload := bytes.NewBufferString(`{"activity_type":"essay"}`)
	req := httptest.NewRequest("POST", "/api/v1/access/usage", payload)
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestAccessEndpointsRequireAuthentication(t *testing.T) {
	limits := service.TrialLimits{}
	accessHandler := NewAccessHandler(nil, limits, validator.New(validator.WithRequiredStructEnabled()), zerolog.Nop())

	app := fiber.New()
	accessHandler.Register(app.Group("/api/v1/access"))

	req := httptest.NewRequest("GET", "/api/v1/access/check?content_type=quiz&content_id=5", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	var decoded utils.APIResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	require.False(t, decoded.Success)
}

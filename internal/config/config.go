package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName                string
	AppEnv                 string
	AppPort                string
	CORSAllowOrigins       string
	DatabaseURL            string
	RedisURL               string
	NATSURL                string
	JWTSecret              string
	JWTRefreshSecret       string
	CloudinaryCloudName    string
	CloudinaryAPIKey       string
	CloudinaryAPISecret    string
	CloudinaryUploadFolder string
	FeatureCacheTTL        time.Duration
	DashboardCacheTTL      time.Duration
	TrialQuizDailyLimit    int
	TrialCardDailyLimit    int
	TrialUpgradeMessage    string
	AIProvider             string
	OpenAIAPIKey           string
	AnthropicAPIKey        string
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("MENTORIA")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "Mentoria API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("cloudinary.folder", "mentoria/essays")
	v.SetDefault("feature.cache_ttl", "10m")
	v.SetDefault("dashboard.cache_ttl", "5m")
	v.SetDefault("trial.quiz_daily_limit", 5)
	v.SetDefault("trial.card_daily_limit", 20)
	v.SetDefault("trial.upgrade_message", "Upgrade your plan to keep studying without limits.")
	v.SetDefault("ai.provider", "openai")
	v.SetDefault("cors.allow_origins", "*")

	featureTTL, err := parseTTL(v.GetString("feature.cache_ttl"), 10*time.Minute)
	if err != nil {
		return Config{}, fmt.Errorf("invalid feature cache ttl: %w", err)
	}

	dashboardTTL, err := parseTTL(v.GetString("dashboard.cache_ttl"), 5*time.Minute)
	if err != nil {
		return Config{}, fmt.Errorf("invalid dashboard cache ttl: %w", err)
	}

	cfg := Config{
		AppName:                v.GetString("app.name"),
		AppEnv:                 v.GetString("app.env"),
		AppPort:                v.GetString("app.port"),
		CORSAllowOrigins:       v.GetString("cors.allow_origins"),
		DatabaseURL:            v.GetString("database.url"),
		RedisURL:               v.GetString("redis.url"),
		NATSURL:                v.GetString("nats.url"),
		JWTSecret:              v.GetString("jwt.secret"),
		JWTRefreshSecret:       v.GetString("jwt.refresh_secret"),
		CloudinaryCloudName:    v.GetString("cloudinary.cloud_name"),
		CloudinaryAPIKey:       v.GetString("cloudinary.api_key"),
		CloudinaryAPISecret:    v.GetString("cloudinary.api_secret"),
		CloudinaryUploadFolder: v.GetString("cloudinary.folder"),
		FeatureCacheTTL:        featureTTL,
		DashboardCacheTTL:      dashboardTTL,
		TrialQuizDailyLimit:    v.GetInt("trial.quiz_daily_limit"),
		TrialCardDailyLimit:    v.GetInt("trial.card_daily_limit"),
		TrialUpgradeMessage:    v.GetString("trial.upgrade_message"),
		AIProvider:             strings.ToLower(v.GetString("ai.provider")),
		OpenAIAPIKey:           v.GetString("openai_api_key"),
		AnthropicAPIKey:        v.GetString("anthropic_api_key"),
	}

	if cfg.JWTSecret == "" || cfg.JWTRefreshSecret == "" {
		return Config{}, fmt.Errorf("jwt secrets must be provided")
	}

	if cfg.TrialQuizDailyLimit <= 0 {
		cfg.TrialQuizDailyLimit = 5
	}

	if cfg.TrialCardDailyLimit <= 0 {
		cfg.TrialCardDailyLimit = 20
	}

	return cfg, nil
}

func parseTTL(value string, fallback time.Duration) (time.Duration, error) {
	if value == "" {
		return fallback, nil
	}

	ttl, err := time.ParseDuration(value)
	if err != nil {
		return 0, err
	}

	return ttl, nil
}

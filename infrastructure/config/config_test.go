package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.ServerAddress)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "calibrate", cfg.DynamoDBTable)
	assert.Equal(t, "ScaleIndex", cfg.IndexName)
	assert.Equal(t, "calibrate-events", cfg.EventBusName)
	assert.Equal(t, 30, cfg.RateLimitPerMinute)
	assert.Equal(t, 60, cfg.QuestionSetCacheTTL)
	assert.True(t, cfg.IsDevelopment())
	assert.False(t, cfg.IsProduction())
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("TABLE_NAME", "calibrate-staging")
	t.Setenv("ENABLE_METRICS", "true")
	t.Setenv("RATE_LIMIT_PER_MINUTE", "5")
	t.Setenv("WATCH_TUNING", "1")
	t.Setenv("TUNING_PATH", "/etc/calibrate/tuning.yaml")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "calibrate-staging", cfg.DynamoDBTable)
	assert.True(t, cfg.EnableMetrics)
	assert.Equal(t, 5, cfg.RateLimitPerMinute)
	assert.True(t, cfg.WatchTuning)
}

func TestValidate_ProductionRequiresAuth(t *testing.T) {
	cfg := &Config{
		Environment:   "production",
		DynamoDBTable: "calibrate",
		EventBusName:  "calibrate-events",
	}
	assert.Error(t, cfg.Validate())

	cfg.JWTSecret = "secret"
	assert.NoError(t, cfg.Validate())

	cfg.JWTSecret = ""
	cfg.SupabaseURL = "https://project.supabase.co"
	assert.NoError(t, cfg.Validate())
}

func TestValidate_WatchTuningRequiresPath(t *testing.T) {
	cfg := &Config{Environment: "development", WatchTuning: true}
	assert.Error(t, cfg.Validate())

	cfg.TuningPath = "/etc/calibrate/tuning.yaml"
	assert.NoError(t, cfg.Validate())
}

func TestValidate_NegativeRateLimit(t *testing.T) {
	cfg := &Config{Environment: "development", RateLimitPerMinute: -1}
	assert.Error(t, cfg.Validate())
}

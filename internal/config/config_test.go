package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("FIREBASE_API_KEY", "test-api-key")
	t.Setenv("FIREBASE_PROJECT_ID", "test-project")
}

func TestLoadConfigDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "debug", cfg.GinMode)
	assert.Equal(t, DefaultAPIBaseURL, cfg.APIBaseURL)
	assert.Equal(t, "web/issues.json", cfg.FallbackIssuesPath)
	assert.Equal(t, 3*time.Second, cfg.LoadTimeout())
	assert.Equal(t, 7*24*time.Hour, cfg.SessionTTL())
	assert.Empty(t, cfg.RedisAddr)
}

func TestLoadConfigFromEnv(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("API_BASE_URL", "https://backend.example.com")
	t.Setenv("LOAD_TIMEOUT_MS", "500")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("CLIENT_URL", "https://app.example.com")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "https://backend.example.com", cfg.APIBaseURL)
	assert.Equal(t, 500*time.Millisecond, cfg.LoadTimeout())
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	assert.Equal(t, "https://app.example.com", cfg.ClientURL)
}

func TestLoadConfigRequiresAPIKey(t *testing.T) {
	t.Setenv("FIREBASE_API_KEY", "")
	t.Setenv("FIREBASE_PROJECT_ID", "test-project")

	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "FIREBASE_API_KEY")
}

func TestLoadConfigRequiresProjectID(t *testing.T) {
	t.Setenv("FIREBASE_API_KEY", "test-api-key")
	t.Setenv("FIREBASE_PROJECT_ID", "")

	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "FIREBASE_PROJECT_ID")
}

func TestLoadConfigRejectsNonPositiveTimeout(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("LOAD_TIMEOUT_MS", "0")

	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LOAD_TIMEOUT_MS")
}

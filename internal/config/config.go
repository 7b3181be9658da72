package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// DefaultAPIBaseURL is the deployed backend used when API_BASE_URL is unset.
const DefaultAPIBaseURL = "https://server-bzhwshzg7-diptes-projects.vercel.app"

// Config holds all configuration for the application.
type Config struct {
	Port    string `mapstructure:"PORT"`
	GinMode string `mapstructure:"GIN_MODE"`

	// Upstream REST backend for issues and contributions.
	APIBaseURL string `mapstructure:"API_BASE_URL"`

	// Firebase identity project.
	FirebaseAPIKey                   string `mapstructure:"FIREBASE_API_KEY"`
	FirebaseProjectID                string `mapstructure:"FIREBASE_PROJECT_ID"`
	GoogleApplicationCredentials     string `mapstructure:"GOOGLE_APPLICATION_CREDENTIALS"`
	FirebaseServiceAccountJSONBase64 string `mapstructure:"FIREBASE_SERVICE_ACCOUNT_JSON_BASE64"`

	// Browser origin allowed by CORS and used for federated redirects.
	ClientURL string `mapstructure:"CLIENT_URL"`

	// Static fallback resource for the resilient issue loader.
	FallbackIssuesPath string `mapstructure:"FALLBACK_ISSUES_PATH"`

	// Bounded wait before the loader abandons the primary source.
	LoadTimeoutMS int `mapstructure:"LOAD_TIMEOUT_MS"`

	// Session store. Empty REDIS_ADDR selects the in-memory store.
	RedisAddr       string `mapstructure:"REDIS_ADDR"`
	RedisPassword   string `mapstructure:"REDIS_PASSWORD"`
	RedisDB         int    `mapstructure:"REDIS_DB"`
	SessionTTLHours int    `mapstructure:"SESSION_TTL_HOURS"`
}

// LoadConfig loads configuration from environment variables using Viper.
func LoadConfig() (*Config, error) {
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	viper.SetDefault("PORT", "8080")
	viper.SetDefault("GIN_MODE", "debug")
	viper.SetDefault("API_BASE_URL", DefaultAPIBaseURL)
	viper.SetDefault("FALLBACK_ISSUES_PATH", "web/issues.json")
	viper.SetDefault("LOAD_TIMEOUT_MS", 3000)
	viper.SetDefault("SESSION_TTL_HOURS", 24*7)
	viper.SetDefault("REDIS_DB", 0)

	viper.BindEnv("PORT")
	viper.BindEnv("GIN_MODE")
	viper.BindEnv("API_BASE_URL")
	viper.BindEnv("FIREBASE_API_KEY")
	viper.BindEnv("FIREBASE_PROJECT_ID")
	viper.BindEnv("GOOGLE_APPLICATION_CREDENTIALS")
	viper.BindEnv("FIREBASE_SERVICE_ACCOUNT_JSON_BASE64")
	viper.BindEnv("CLIENT_URL")
	viper.BindEnv("FALLBACK_ISSUES_PATH")
	viper.BindEnv("LOAD_TIMEOUT_MS")
	viper.BindEnv("REDIS_ADDR")
	viper.BindEnv("REDIS_PASSWORD")
	viper.BindEnv("REDIS_DB")
	viper.BindEnv("SESSION_TTL_HOURS")

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, errors.New("failed to unmarshal config: " + err.Error())
	}

	if cfg.FirebaseAPIKey == "" {
		return nil, errors.New("FIREBASE_API_KEY is required")
	}
	if cfg.FirebaseProjectID == "" {
		return nil, errors.New("FIREBASE_PROJECT_ID is required")
	}
	if cfg.LoadTimeoutMS <= 0 {
		return nil, errors.New("LOAD_TIMEOUT_MS must be positive")
	}
	if cfg.SessionTTLHours <= 0 {
		return nil, errors.New("SESSION_TTL_HOURS must be positive")
	}

	return &cfg, nil
}

// LoadTimeout returns the loader's bounded wait as a duration.
func (c *Config) LoadTimeout() time.Duration {
	return time.Duration(c.LoadTimeoutMS) * time.Millisecond
}

// SessionTTL returns the session lifetime as a duration.
func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLHours) * time.Hour
}

package config

import (
	"net/url"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Config holds the application configuration
type Config struct {
	// GitHub
	GitHubAPIURL     string
	GitHubAPIVersion string
	UserAgent        string
	RequestsPerSec   float64

	// Dashboard
	DefaultUser string
	PublicURL   string // base for shareable ?user= links

	// Storage
	StorageType string // "sqlite" or "postgres"
	SQLitePath  string
	PostgresURL string

	// API Server
	APIPort string
	APIHost string

	// CLI
	APIEndpoint string

	LogLevel string
}

// Load loads the configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	rps, err := strconv.ParseFloat(getEnv("GITHUB_RPS", "10"), 64)
	if err != nil {
		return nil, &ConfigError{Field: "GITHUB_RPS", Message: "must be a number"}
	}

	return &Config{
		GitHubAPIURL:     getEnv("GITHUB_API_URL", "https://api.github.com"),
		GitHubAPIVersion: getEnv("GITHUB_API_VERSION", "2022-11-28"),
		UserAgent:        getEnv("GITHUB_USER_AGENT", "devpulse/1.0"),
		RequestsPerSec:   rps,
		DefaultUser:      getEnv("DEFAULT_USER", ""),
		PublicURL:        getEnv("PUBLIC_URL", "http://localhost:8080/"),
		StorageType:      getEnv("STORAGE_TYPE", "sqlite"),
		SQLitePath:       getEnv("SQLITE_PATH", "./devpulse.db"),
		PostgresURL:      getEnv("POSTGRES_URL", ""),
		APIPort:          getEnv("API_PORT", "8080"),
		APIHost:          getEnv("API_HOST", "localhost"),
		APIEndpoint:      getEnv("API_ENDPOINT", "http://localhost:8080"),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
	}, nil
}

// getEnv returns the value of an environment variable or a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if u, err := url.Parse(c.GitHubAPIURL); err != nil || u.Scheme == "" || u.Host == "" {
		return &ConfigError{Field: "GITHUB_API_URL", Message: "must be an absolute URL"}
	}
	if c.RequestsPerSec <= 0 {
		return &ConfigError{Field: "GITHUB_RPS", Message: "must be greater than zero"}
	}
	if c.StorageType != "sqlite" && c.StorageType != "postgres" {
		return &ConfigError{Field: "STORAGE_TYPE", Message: "must be 'sqlite' or 'postgres'"}
	}
	if c.StorageType == "postgres" && c.PostgresURL == "" {
		return &ConfigError{Field: "POSTGRES_URL", Message: "PostgreSQL URL is required when STORAGE_TYPE is 'postgres'"}
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return &ConfigError{Field: "LOG_LEVEL", Message: err.Error()}
	}
	return nil
}

// NewLogger builds the process logger at the configured level
func (c *Config) NewLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	if level, err := logrus.ParseLevel(c.LogLevel); err == nil {
		logger.SetLevel(level)
	}
	return logger
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return e.Field + ": " + e.Message
}

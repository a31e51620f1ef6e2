package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the application configuration
type Config struct {
	// Runtime
	Env      string // "dev" or "prod"
	LogLevel string

	// GitHub API
	GitHubAPIBaseURL string
	GitHubAccept     string
	GitHubUserAgent  string
	GitHubToken      string // optional, used for public-scope requests
	GitHubTimeout    time.Duration
	PageSize         int
	MaxPages         int
	FetchConcurrency int
	RateLimitMaxWait time.Duration // longest wait for a rate limit reset
	MinDelay         time.Duration // spacing between consecutive GitHub calls

	// GitHub OAuth
	GitHubClientID     string
	GitHubClientSecret string
	GitHubRedirectURI  string

	// Storage
	StorageType string // "memory", "sqlite" or "postgres"
	SQLitePath  string
	PostgresURL string

	// Cache and sessions
	CacheTTL        time.Duration
	SessionTTL      time.Duration
	CleanupInterval time.Duration

	// API Server
	APIPort        string
	APIHost        string
	RequestTimeout time.Duration
	CORSOrigins    []string

	// CLI
	APIEndpoint string
}

// Load loads the configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	return &Config{
		Env:      getEnv("ENV", "dev"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		GitHubAPIBaseURL: getEnv("GITHUB_API_BASE_URL", "https://api.github.com"),
		GitHubAccept:     getEnv("GITHUB_ACCEPT", "application/vnd.github.v3+json"),
		GitHubUserAgent:  getEnv("GITHUB_USER_AGENT", "GitPeek-App"),
		GitHubToken:      getEnv("GITHUB_TOKEN", ""),
		GitHubTimeout:    getEnvDuration("GITHUB_TIMEOUT", 30*time.Second),
		PageSize:         getEnvInt("GITHUB_PAGE_SIZE", 100),
		MaxPages:         getEnvInt("GITHUB_MAX_PAGES", 0),
		FetchConcurrency: getEnvInt("FETCH_CONCURRENCY", 5),
		RateLimitMaxWait: getEnvDuration("GITHUB_RATE_LIMIT_MAX_WAIT", time.Minute),
		MinDelay:         getEnvDuration("GITHUB_MIN_DELAY", 100*time.Millisecond),

		GitHubClientID:     getEnv("GITHUB_CLIENT_ID", ""),
		GitHubClientSecret: getEnv("GITHUB_CLIENT_SECRET", ""),
		GitHubRedirectURI:  getEnv("GITHUB_REDIRECT_URI", "http://localhost:5173/auth/callback"),

		StorageType: getEnv("STORAGE_TYPE", "sqlite"),
		SQLitePath:  getEnv("SQLITE_PATH", "./gitpeek.db"),
		PostgresURL: getEnv("POSTGRES_URL", ""),

		CacheTTL:        getEnvDuration("CACHE_TTL", 10*time.Minute),
		SessionTTL:      getEnvDuration("SESSION_TTL", 7*24*time.Hour),
		CleanupInterval: getEnvDuration("CLEANUP_INTERVAL", time.Hour),

		APIPort:        getEnv("API_PORT", "8000"),
		APIHost:        getEnv("API_HOST", "localhost"),
		RequestTimeout: getEnvDuration("REQUEST_TIMEOUT", 60*time.Second),
		CORSOrigins:    getEnvList("CORS_ORIGINS", []string{"http://localhost:5173", "http://localhost:3000"}),

		APIEndpoint: getEnv("API_ENDPOINT", "http://localhost:8000"),
	}, nil
}

// getEnv returns the value of an environment variable or a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvList(key string, defaultValue []string) []string {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	var values []string
	for _, v := range strings.Split(raw, ",") {
		if v = strings.TrimSpace(v); v != "" {
			values = append(values, v)
		}
	}
	return values
}

// OAuthConfigured reports whether the OAuth client credentials are set
func (c *Config) OAuthConfigured() bool {
	return c.GitHubClientID != "" && c.GitHubClientSecret != ""
}

// Validate validates the configuration
func (c *Config) Validate() error {
	switch c.StorageType {
	case "memory", "sqlite", "postgres":
	default:
		return &ConfigError{Field: "STORAGE_TYPE", Message: "must be 'memory', 'sqlite' or 'postgres'"}
	}
	if c.StorageType == "postgres" && c.PostgresURL == "" {
		return &ConfigError{Field: "POSTGRES_URL", Message: "PostgreSQL URL is required when STORAGE_TYPE is 'postgres'"}
	}
	if c.PageSize < 1 || c.PageSize > 100 {
		return &ConfigError{Field: "GITHUB_PAGE_SIZE", Message: "must be between 1 and 100"}
	}
	if c.MaxPages < 0 {
		return &ConfigError{Field: "GITHUB_MAX_PAGES", Message: "must not be negative"}
	}
	if c.FetchConcurrency < 1 {
		return &ConfigError{Field: "FETCH_CONCURRENCY", Message: "must be at least 1"}
	}
	if c.CacheTTL <= 0 {
		return &ConfigError{Field: "CACHE_TTL", Message: "must be positive"}
	}
	if c.CleanupInterval <= 0 {
		return &ConfigError{Field: "CLEANUP_INTERVAL", Message: "must be positive"}
	}
	if c.SessionTTL <= 0 {
		return &ConfigError{Field: "SESSION_TTL", Message: "must be positive"}
	}
	return nil
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return e.Field + ": " + e.Message
}

package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Server ServerConfig

	// Jira API configuration
	Jira JiraConfig

	// Dashboard configuration
	Dashboards DashboardsConfig

	// Rate limiting configuration
	RateLimit RateLimitConfig

	// WebSocket configuration
	WebSocket WebSocketConfig

	// Logging configuration
	Logging LoggingConfig

	// Application metadata
	App AppConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// JiraConfig holds Jira Cloud API credentials and limits. Base URL and
// credentials may be empty at startup; requests fail with a clear error
// until they are set.
type JiraConfig struct {
	BaseURL     string
	Email       string
	APIToken    string
	HTTPTimeout time.Duration
	MaxResults  int
}

// DashboardsConfig holds the query scopes, cache TTLs and the polling
// cadence of the configured dashboards.
type DashboardsConfig struct {
	// SharedTTL applies to every dashboard except nova.
	SharedTTL time.Duration
	// NovaTTL is shorter: the nova board is the most watched screen.
	NovaTTL            time.Duration
	NovaProject        string
	OperationalProject string
	Dev1Project        string
	TeamProjects       []string
	TeamAccountIDs     []string
	PollInterval       time.Duration
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	Enabled           bool
	RequestsPerSecond float64
	BurstSize         int
}

// WebSocketConfig holds WebSocket configuration
type WebSocketConfig struct {
	AllowedOrigins  []string
	ReadBufferSize  int
	WriteBufferSize int
	PingInterval    time.Duration
	PongWait        time.Duration
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, text
}

// AppConfig holds application metadata
type AppConfig struct {
	Name        string
	Version     string
	Environment string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (for local development)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnvOrDefault("SERVER_PORT", ":8080"),
			ReadTimeout:     getDurationOrDefault("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getDurationOrDefault("SERVER_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:     getDurationOrDefault("SERVER_IDLE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getDurationOrDefault("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		Jira: JiraConfig{
			BaseURL:     os.Getenv("JIRA_BASE_URL"),
			Email:       os.Getenv("JIRA_EMAIL"),
			APIToken:    os.Getenv("JIRA_API_TOKEN"),
			HTTPTimeout: getDurationOrDefault("JIRA_HTTP_TIMEOUT", 30*time.Second),
			MaxResults:  getIntOrDefault("JIRA_MAX_RESULTS", 100),
		},
		Dashboards: DashboardsConfig{
			SharedTTL:          getDurationOrDefault("DASHBOARD_CACHE_TTL", 30*time.Minute),
			NovaTTL:            getDurationOrDefault("NOVA_CACHE_TTL", 5*time.Minute),
			NovaProject:        getEnvOrDefault("NOVA_PROJECT", "NOVA"),
			OperationalProject: getEnvOrDefault("OPERATIONAL_PROJECT", "NOVA"),
			Dev1Project:        getEnvOrDefault("DEV1_PROJECT", "NOVA"),
			TeamProjects:       getStringSliceOrDefault("TEAM_PROJECTS", []string{"OPRD", "CM", "NOVA"}),
			TeamAccountIDs:     getStringSliceOrDefault("TEAM_ACCOUNT_IDS", []string{}),
			PollInterval:       getDurationOrDefault("POLL_INTERVAL", time.Minute),
		},
		RateLimit: RateLimitConfig{
			Enabled:           getBoolOrDefault("RATE_LIMIT_ENABLED", true),
			RequestsPerSecond: getFloatOrDefault("RATE_LIMIT_RPS", 10),
			BurstSize:         getIntOrDefault("RATE_LIMIT_BURST", 20),
		},
		WebSocket: WebSocketConfig{
			AllowedOrigins:  getStringSliceOrDefault("WS_ALLOWED_ORIGINS", []string{}),
			ReadBufferSize:  getIntOrDefault("WS_READ_BUFFER_SIZE", 1024),
			WriteBufferSize: getIntOrDefault("WS_WRITE_BUFFER_SIZE", 1024),
			PingInterval:    getDurationOrDefault("WS_PING_INTERVAL", 54*time.Second),
			PongWait:        getDurationOrDefault("WS_PONG_WAIT", 60*time.Second),
		},
		Logging: LoggingConfig{
			Level:  getEnvOrDefault("LOG_LEVEL", "info"),
			Format: getEnvOrDefault("LOG_FORMAT", "json"),
		},
		App: AppConfig{
			Name:        getEnvOrDefault("APP_NAME", "tvdash"),
			Version:     getEnvOrDefault("APP_VERSION", "dev"),
			Environment: getEnvOrDefault("APP_ENV", "development"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate validates the configuration. Jira credentials are deliberately
// not required here: a deployment without them still starts and reports the
// problem through dashboard status on the first refresh.
func (c *Config) Validate() error {
	var errs []string

	if c.Dashboards.PollInterval < time.Second {
		errs = append(errs, "POLL_INTERVAL must be at least 1s")
	}

	if c.Dashboards.SharedTTL <= 0 || c.Dashboards.NovaTTL <= 0 {
		errs = append(errs, "cache TTLs must be positive")
	}

	if c.Jira.MaxResults < 1 || c.Jira.MaxResults > 100 {
		errs = append(errs, "JIRA_MAX_RESULTS must be between 1 and 100")
	}

	if c.App.Environment == "production" {
		if len(c.WebSocket.AllowedOrigins) == 0 {
			errs = append(errs, "WS_ALLOWED_ORIGINS must be set in production")
		}
	}

	if len(errs) > 0 {
		return errors.New("configuration errors:\n  - " + strings.Join(errs, "\n  - "))
	}

	return nil
}

// IsDevelopment returns true if running in development environment
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// IsProduction returns true if running in production environment
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// Helper functions

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getStringSliceOrDefault(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		result := make([]string, 0, len(parts))
		for _, part := range parts {
			trimmed := strings.TrimSpace(part)
			if trimmed != "" {
				result = append(result, trimmed)
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return defaultValue
}

// String returns a redacted string representation of the config (safe for logging)
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{Server: %s, Jira: %s as %s [token REDACTED], Poll: %s, Environment: %s}",
		c.Server.Port,
		c.Jira.BaseURL,
		c.Jira.Email,
		c.Dashboards.PollInterval,
		c.App.Environment,
	)
}

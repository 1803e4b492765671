package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/verdantlabs/canopy/pkg/observability"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Auth     AuthConfig
	Policy   PolicyConfig

	Observability ObservabilityConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	// Health/metrics server (separate port for k8s probes)
	HealthPort string
}

// DatabaseConfig holds PostgreSQL connection settings
type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// AuthConfig holds token lifecycle settings
type AuthConfig struct {
	// TokenCleanupSchedule is a cron expression for the expired-token sweep
	TokenCleanupSchedule string
	// TokenTTL is the default lifetime of newly issued tokens; zero means
	// tokens never expire
	TokenTTL time.Duration
}

// PolicyConfig holds access-policy cache settings
type PolicyConfig struct {
	ACLCacheSize int
	ACLCacheTTL  time.Duration
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	LogLevel       observability.LogLevel
	MetricsEnabled bool
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host:            getEnv("CANOPY_HOST", "0.0.0.0"),
			Port:            getEnv("CANOPY_PORT", "8080"),
			ReadTimeout:     getEnvDuration("CANOPY_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getEnvDuration("CANOPY_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:     getEnvDuration("CANOPY_IDLE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getEnvDuration("CANOPY_SHUTDOWN_TIMEOUT", 30*time.Second),
			HealthPort:      getEnv("CANOPY_HEALTH_PORT", "9090"),
		},
		Database: DatabaseConfig{
			URL:             getEnv("CANOPY_POSTGRES_URL", ""),
			MaxOpenConns:    getEnvInt("CANOPY_POSTGRES_MAX_CONNS", 25),
			MaxIdleConns:    getEnvInt("CANOPY_POSTGRES_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvDuration("CANOPY_POSTGRES_CONN_LIFETIME", 30*time.Minute),
		},
		Auth: AuthConfig{
			TokenCleanupSchedule: getEnv("CANOPY_TOKEN_CLEANUP_SCHEDULE", "@hourly"),
			TokenTTL:             getEnvDuration("CANOPY_TOKEN_TTL", 0),
		},
		Policy: PolicyConfig{
			ACLCacheSize: getEnvInt("CANOPY_ACL_CACHE_SIZE", 1024),
			ACLCacheTTL:  getEnvDuration("CANOPY_ACL_CACHE_TTL", 5*time.Minute),
		},
		Observability: ObservabilityConfig{
			LogLevel:       parseLogLevel(getEnv("CANOPY_LOG_LEVEL", "info")),
			MetricsEnabled: getEnvBool("CANOPY_METRICS_ENABLED", true),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if c.Server.HealthPort == "" {
		return fmt.Errorf("health port is required")
	}
	if c.Server.Port == c.Server.HealthPort {
		return fmt.Errorf("server port and health port must be different")
	}

	if c.Database.URL == "" {
		return fmt.Errorf("postgres URL is required")
	}
	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("postgres max connections must be positive")
	}

	if c.Policy.ACLCacheSize <= 0 {
		return fmt.Errorf("ACL cache size must be positive")
	}
	if c.Policy.ACLCacheTTL <= 0 {
		return fmt.Errorf("ACL cache TTL must be positive")
	}

	if c.Auth.TokenCleanupSchedule == "" {
		return fmt.Errorf("token cleanup schedule is required")
	}

	return nil
}

// parseLogLevel parses a log level string
func parseLogLevel(level string) observability.LogLevel {
	switch strings.ToLower(level) {
	case "debug":
		return observability.DebugLevel
	case "info":
		return observability.InfoLevel
	case "warn", "warning":
		return observability.WarnLevel
	case "error":
		return observability.ErrorLevel
	default:
		return observability.InfoLevel
	}
}

// getEnv returns an environment variable value or a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool returns a boolean environment variable or a default
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.ToLower(value) == "true" || value == "1"
	}
	return defaultValue
}

// getEnvInt returns an integer environment variable or a default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvDuration returns a duration environment variable or a default
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

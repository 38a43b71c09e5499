package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Catalog  CatalogConfig
	Engine   EngineConfig
	OTEL     OTELConfig
	Env      string
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host string
	Port int
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
	Enabled  bool
}

// CatalogConfig selects where the facility catalog is loaded from.
type CatalogConfig struct {
	// Source is "postgres" or "file".
	Source string

	// FilePath is the JSON catalog path when Source is "file".
	FilePath string
}

// EngineConfig holds the wait-time resolution engine tuning knobs.
type EngineConfig struct {
	FetchTimeout    time.Duration
	StaleAfter      time.Duration
	ScrapeInterval  time.Duration
	APIInterval     time.Duration
	BreakerFailures int
	BreakerCooldown time.Duration
	BreakerMaxShift int

	RefreshInterval    time.Duration
	RefreshConcurrency int

	CrowdAbandonedAfter time.Duration

	GeofenceRadiusMeters float64
	GeofenceMinDwell     time.Duration
}

// OTELConfig holds OpenTelemetry configuration
type OTELConfig struct {
	ServiceName    string
	ServiceVersion string
	Endpoint       string
	Enabled        bool
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	return &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: getEnvAsInt("SERVER_PORT", 8080),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Database: getEnv("DB_NAME", "waitline"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvAsInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", true),
		},
		Catalog: CatalogConfig{
			Source:   getEnv("CATALOG_SOURCE", "postgres"),
			FilePath: getEnv("CATALOG_FILE", "facilities.json"),
		},
		Engine: EngineConfig{
			FetchTimeout:    getEnvAsDuration("FETCH_TIMEOUT", 8*time.Second),
			StaleAfter:      getEnvAsDuration("STALE_AFTER", 8*time.Hour),
			ScrapeInterval:  getEnvAsDuration("SCRAPE_MIN_INTERVAL", 30*time.Second),
			APIInterval:     getEnvAsDuration("API_MIN_INTERVAL", 10*time.Second),
			BreakerFailures: getEnvAsInt("BREAKER_FAILURES", 3),
			BreakerCooldown: getEnvAsDuration("BREAKER_COOLDOWN", 60*time.Second),
			BreakerMaxShift: getEnvAsInt("BREAKER_MAX_SHIFT", 6),

			RefreshInterval:    getEnvAsDuration("REFRESH_INTERVAL", 90*time.Second),
			RefreshConcurrency: getEnvAsInt("REFRESH_CONCURRENCY", 5),

			CrowdAbandonedAfter: getEnvAsDuration("CROWD_ABANDONED_AFTER", 4*time.Hour),

			GeofenceRadiusMeters: getEnvAsFloat("GEOFENCE_RADIUS_METERS", 75),
			GeofenceMinDwell:     getEnvAsDuration("GEOFENCE_MIN_DWELL", 5*time.Minute),
		},
		OTEL: OTELConfig{
			ServiceName:    getEnv("OTEL_SERVICE_NAME", "waitline"),
			ServiceVersion: getEnv("OTEL_SERVICE_VERSION", "1.0.0"),
			Endpoint:       getEnv("OTEL_ENDPOINT", ""),
			Enabled:        getEnvAsBool("OTEL_ENABLED", false),
		},
		Env: getEnv("APP_ENV", "development"),
	}, nil
}

// DatabaseDSN returns the PostgreSQL connection string
func (c *DatabaseConfig) DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// RedisAddr returns the Redis address
func (c *RedisConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

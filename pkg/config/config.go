package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
// Every environment variable is read here and nowhere else.
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// Database
	Database DatabaseConfig

	// Redis
	Redis RedisConfig

	// Remote bar source
	Stooq StooqConfig

	// Fetch worker pool
	Fetch FetchConfig

	// Scheduler
	Scheduler SchedulerConfig

	// Strategy YAML path ("" = built-in defaults)
	StrategyPath string

	// Logging
	LogLevel  string
	LogFormat string

	// Monitoring
	MetricsEnabled bool
	MetricsPort    string
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	URL      string

	// Connection Pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
}

// StooqConfig holds the daily bar download endpoint configuration
type StooqConfig struct {
	BaseURL      string
	DirectoryURL string // HTML symbol directory page
	Suffix       string // market suffix appended to symbols, e.g. ".us"
}

// FetchConfig holds the remote collection settings
type FetchConfig struct {
	Workers   int
	RateLimit float64 // requests per second
	Timeout   time.Duration
}

// SchedulerConfig holds cron schedules (with seconds field)
type SchedulerConfig struct {
	Enabled       bool
	CollectSpec   string
	AnalyzeSpec   string
	PurgeSpec     string
	RetentionDays int
}

// Load reads configuration from environment variables.
// Only this function calls os.Getenv().
func Load() (*Config, error) {
	// Try multiple paths for .env file
	loadEnvFile()

	cfg := &Config{
		// Server
		Port: getEnv("PORT", "8080"),
		Env:  getEnv("ENV", "development"),

		// Database
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnv("DB_PORT", "5432"),
			Name:            getEnv("DB_NAME", "prism"),
			User:            getEnv("DB_USER", "prism"),
			Password:        getEnv("DB_PASSWORD", ""),
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 25),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 5),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		// Redis
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", true),
		},

		// Remote bar source
		Stooq: StooqConfig{
			BaseURL:      getEnv("STOOQ_BASE_URL", "https://stooq.com"),
			DirectoryURL: getEnv("STOOQ_DIRECTORY_URL", ""),
			Suffix:       getEnv("STOOQ_SUFFIX", ".us"),
		},

		// Fetch worker pool
		Fetch: FetchConfig{
			Workers:   getEnvAsInt("FETCH_WORKERS", 4),
			RateLimit: getEnvAsFloat("FETCH_RATE_LIMIT", 2.0),
			Timeout:   getEnvAsDuration("FETCH_TIMEOUT", "20s"),
		},

		// Scheduler (cron specs include the seconds field)
		Scheduler: SchedulerConfig{
			Enabled:       getEnvAsBool("SCHEDULER_ENABLED", true),
			CollectSpec:   getEnv("SCHEDULE_COLLECT", "0 30 18 * * 1-5"),
			AnalyzeSpec:   getEnv("SCHEDULE_ANALYZE", "0 0 19 * * 1-5"),
			PurgeSpec:     getEnv("SCHEDULE_PURGE", "0 0 3 * * 0"),
			RetentionDays: getEnvAsInt("RUN_RETENTION_DAYS", 90),
		},

		// Strategy
		StrategyPath: getEnv("STRATEGY_CONFIG", ""),

		// Logging
		LogLevel:  getEnv("LOG_LEVEL", "debug"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		// Monitoring
		MetricsEnabled: getEnvAsBool("METRICS_ENABLED", true),
		MetricsPort:    getEnv("METRICS_PORT", "9090"),
	}

	// Validate configuration
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if required configuration values are set
func (c *Config) validate() error {
	// Database URL is required
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	// Validate environment
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	if c.Fetch.Workers < 1 {
		return fmt.Errorf("FETCH_WORKERS must be >= 1")
	}
	if c.Fetch.RateLimit <= 0 {
		return fmt.Errorf("FETCH_RATE_LIMIT must be > 0")
	}
	if c.Scheduler.RetentionDays < 1 {
		return fmt.Errorf("RUN_RETENTION_DAYS must be >= 1")
	}

	return nil
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	// Try paths in order of priority
	paths := []string{
		".env", // Current directory
	}

	// Also try relative to executable
	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
			filepath.Join(exeDir, "..", "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		// Fallback to default
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}

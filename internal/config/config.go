package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

type Config struct {
	Server struct {
		Port         string
		ReadTimeout  time.Duration
		WriteTimeout time.Duration
		LogLevel     string
	}

	Upstream struct {
		BaseURL string
		Timeout time.Duration
	}

	Analysis struct {
		DefaultStartDate string
		DefaultEndDate   string
		RefreshSchedule  string
		RunTimeout       time.Duration
	}

	Cache struct {
		Duration time.Duration
		MaxSize  int
	}

	CircuitBreaker struct {
		Threshold int
		Timeout   time.Duration
	}

	Retry struct {
		MaxRetries int
		Delay      time.Duration
		Multiplier float64
	}

	Redis struct {
		Addr       string
		Password   string
		DB         int
		KeyPrefix  string
		ResultTTL  time.Duration
		MaxHistory int
	}
}

func LoadConfig() (*Config, error) {
	// Load .env file if exists
	if err := godotenv.Load(); err != nil {
		zap.L().Info("No .env file found, using environment variables")
	}

	cfg := &Config{}

	// Server configuration
	cfg.Server.Port = getEnv("FIBER_PORT", "8080")
	cfg.Server.ReadTimeout = parseDuration(getEnv("FIBER_READ_TIMEOUT", "10s"))
	cfg.Server.WriteTimeout = parseDuration(getEnv("FIBER_WRITE_TIMEOUT", "5m"))
	cfg.Server.LogLevel = getEnv("LOG_LEVEL", "info")

	// Upstream analysis service
	cfg.Upstream.BaseURL = getEnv("ANALYSIS_API_URL", "http://localhost:8000")
	cfg.Upstream.Timeout = parseDuration(getEnv("ANALYSIS_TIMEOUT", "5m"))

	// Analysis runs
	cfg.Analysis.DefaultStartDate = getEnv("DEFAULT_START_DATE", "2023-01-01T00")
	cfg.Analysis.DefaultEndDate = getEnv("DEFAULT_END_DATE", "2023-12-31T23")
	cfg.Analysis.RefreshSchedule = lookupEnv("REFRESH_SCHEDULE", "@every 30m")
	cfg.Analysis.RunTimeout = parseDuration(getEnv("RUN_TIMEOUT", "10m"))

	// Cache configuration
	cfg.Cache.Duration = parseDuration(getEnv("CACHE_DURATION", "10m"))
	cfg.Cache.MaxSize = parseInt(getEnv("MAX_CACHE_SIZE", "1000"))

	// Circuit breaker configuration
	cfg.CircuitBreaker.Threshold = parseInt(getEnv("CIRCUIT_BREAKER_THRESHOLD", "3"))
	cfg.CircuitBreaker.Timeout = parseDuration(getEnv("CIRCUIT_BREAKER_TIMEOUT", "30s"))

	// Retry configuration
	cfg.Retry.MaxRetries = parseInt(getEnv("MAX_RETRIES", "3"))
	cfg.Retry.Delay = parseDuration(getEnv("RETRY_DELAY", "1s"))
	cfg.Retry.Multiplier = parseFloat(getEnv("RETRY_MULTIPLIER", "2"))

	// Run persistence; memory unless REDIS_ADDR is set
	cfg.Redis.Addr = getEnv("REDIS_ADDR", "")
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", "")
	cfg.Redis.DB = parseInt(getEnv("REDIS_DB", "0"))
	cfg.Redis.KeyPrefix = getEnv("REDIS_KEY_PREFIX", "energy:")
	cfg.Redis.ResultTTL = parseDuration(getEnv("RESULT_TTL", "168h"))
	cfg.Redis.MaxHistory = parseInt(getEnv("STORE_MAX_HISTORY", "50"))

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// lookupEnv is like getEnv but keeps an explicitly empty value.
func lookupEnv(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return defaultValue
}

func parseDuration(value string) time.Duration {
	duration, err := time.ParseDuration(value)
	if err != nil {
		zap.L().Warn("Failed to parse duration", zap.String("value", value), zap.Error(err))
		return 0
	}
	return duration
}

func parseInt(value string) int {
	intValue, err := strconv.Atoi(value)
	if err != nil {
		zap.L().Warn("Failed to parse int", zap.String("value", value), zap.Error(err))
		return 0
	}
	return intValue
}

func parseFloat(value string) float64 {
	floatValue, err := strconv.ParseFloat(value, 64)
	if err != nil {
		zap.L().Warn("Failed to parse float", zap.String("value", value), zap.Error(err))
		return 0
	}
	return floatValue
}

package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port     string
	Env      string
	LogLevel string

	// Amelia scheduling backend
	AmeliaBaseURL     string
	AmeliaNonce       string
	RequestTimeout    time.Duration
	RetryMaxAttempts  int
	RetryBackoff      time.Duration
	CacheTTL          time.Duration

	// Calendar grid
	GridHourStart int
	GridHourEnd   int

	// Redis response cache
	RedisAddr     string
	RedisPassword string
	RedisTLS      bool

	// Origins allowed to call the API from the browser
	CORSAllowedOrigins []string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:     getEnv("PORT", "8080"),
		Env:      getEnv("ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		AmeliaBaseURL:    strings.TrimRight(getEnv("AMELIA_BASE_URL", ""), "/"),
		AmeliaNonce:      getEnv("AMELIA_NONCE", ""),
		RequestTimeout:   getEnvAsDuration("AMELIA_REQUEST_TIMEOUT", 5*time.Second),
		RetryMaxAttempts: getEnvAsInt("AMELIA_RETRY_MAX_ATTEMPTS", 2),
		RetryBackoff:     getEnvAsDuration("AMELIA_RETRY_BACKOFF", 300*time.Millisecond),
		CacheTTL:         getEnvAsDuration("AMELIA_CACHE_TTL", 2*time.Minute),

		GridHourStart: getEnvAsInt("GRID_HOUR_START", 7),
		GridHourEnd:   getEnvAsInt("GRID_HOUR_END", 20),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),

		CORSAllowedOrigins: getEnvAsSlice("CORS_ALLOWED_ORIGINS"),
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsSlice retrieves a comma-separated environment variable
func getEnvAsSlice(key string) []string {
	raw := getEnv(key, "")
	if raw == "" {
		return nil
	}
	var values []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			values = append(values, part)
		}
	}
	return values
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

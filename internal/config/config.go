package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	ServerPort        string
	QuizSize          int
	SessionDuration   time.Duration
	StaticFilesPath   string
	TemplatesPath     string
	CSRFSecret        string
	RateLimitRequests int
	RateLimitWindow   time.Duration
}

// Load reads configuration from environment variables with sensible defaults.
// A .env file in the working directory is applied first when present.
func Load() *Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Warning: failed to load .env file: %v", err)
	}

	return &Config{
		ServerPort:        getEnv("PORT", "8080"),
		QuizSize:          getEnvInt("QUIZ_SIZE", 10),
		SessionDuration:   getEnvDuration("SESSION_DURATION", 24*time.Hour),
		StaticFilesPath:   getEnv("STATIC_PATH", "./static"),
		TemplatesPath:     getEnv("TEMPLATES_PATH", "./internal/templates"),
		CSRFSecret:        getEnv("CSRF_SECRET", ""),
		RateLimitRequests: getEnvInt("RATE_LIMIT_REQUESTS", 30),
		RateLimitWindow:   getEnvDuration("RATE_LIMIT_WINDOW", time.Minute),
	}
}

// getEnv reads an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt reads a positive integer, falling back on missing or bad values
func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil || n <= 0 {
		log.Printf("Warning: invalid %s=%q, using %d", key, value, defaultValue)
		return defaultValue
	}
	return n
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		log.Printf("Warning: invalid %s=%q, using %s", key, value, defaultValue)
		return defaultValue
	}
	return d
}

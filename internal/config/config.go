package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	// Database backend: "sqlite" (default), "postgres" or "mysql".
	// Server backends use DatabaseURL; SQLite keeps the shared content
	// store and the per-user store in separate files.
	DatabaseType    string
	DatabaseURL     string
	ContentDBPath   string
	UserDBPath      string

	// Enrichment oracle (empty key means enrichment runs in placeholder mode)
	OpenAIKey       string
	OpenAIModel     string
	EnrichTimeout   time.Duration
	EnrichWorkers   int
	EnrichBatchSize int

	// NativeLanguage is the learners' side of every word identity
	NativeLanguage string

	AudioDir    string
	LessonsPath string

	// Interval between scheduled progress-cache sweeps
	RefreshInterval time.Duration

	LogMode string
}

// Load reads configuration from environment variables with sensible defaults.
// A .env file in the working directory is honored when present.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		DatabaseType:    getEnv("DB_TYPE", "sqlite"),
		DatabaseURL:     getEnv("DB_URL", ""),
		ContentDBPath:   getEnv("CONTENT_DB_PATH", "./data/content.db"),
		UserDBPath:      getEnv("USER_DB_PATH", "./data/users.db"),
		OpenAIKey:       getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:     getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		EnrichTimeout:   getEnvDuration("ENRICH_TIMEOUT", 30*time.Second),
		EnrichWorkers:   getEnvInt("ENRICH_WORKERS", 2),
		EnrichBatchSize: getEnvInt("ENRICH_BATCH_SIZE", 10),
		NativeLanguage:  getEnv("NATIVE_LANGUAGE", "en"),
		AudioDir:        getEnv("AUDIO_DIR", "./static/audio"),
		LessonsPath:     getEnv("LESSONS_PATH", "./data/lessons.xlsx"),
		RefreshInterval: getEnvDuration("REFRESH_INTERVAL", time.Hour),
		LogMode:         getEnv("LOG_MODE", "dev"),
	}
}

// getEnv reads an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil && n > 0 {
			return n
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil && d > 0 {
			return d
		}
	}
	return defaultValue
}

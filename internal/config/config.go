package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
type Config struct {
	Port        string
	Env         string
	DatabaseURL string
	SQLitePath  string
	RedisURL    string

	// Agent runner
	ServerURL        string
	OllamaURL        string
	JudgeModel       string
	ParticipantsFile string
	Rooms            []string
	HistoryLimit     int
	CooldownMin      time.Duration
	CooldownMax      time.Duration
}

// Load reads configuration from environment variables.
// In development, it loads from .env file if present.
// In production, it panics on missing required variables.
func Load() *Config {
	// Load .env file if it exists (for development)
	_ = godotenv.Load()

	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		Env:         getEnv("ENV", "development"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		SQLitePath:  os.Getenv("SQLITE_PATH"),
		RedisURL:    os.Getenv("REDIS_URL"),

		ServerURL:        getEnv("SERVER_URL", "http://localhost:8080"),
		OllamaURL:        getEnv("OLLAMA_URL", "http://localhost:11434"),
		JudgeModel:       getEnv("JUDGE_MODEL", "gemma3:12b"),
		ParticipantsFile: getEnv("PARTICIPANTS_FILE", "participants.yaml"),
		HistoryLimit:     getEnvInt("HISTORY_LIMIT", 30),
		CooldownMin:      getEnvDuration("COOLDOWN_MIN", 200*time.Second),
		CooldownMax:      getEnvDuration("COOLDOWN_MAX", 400*time.Second),
	}

	// Parse rooms (comma-separated names)
	for _, entry := range strings.Split(getEnv("ROOMS", "general"), ",") {
		entry = strings.TrimSpace(entry)
		if entry != "" {
			cfg.Rooms = append(cfg.Rooms, entry)
		}
	}

	// In production, require a real database
	if cfg.Env == "production" && cfg.DatabaseURL == "" {
		panic("DATABASE_URL is required in production")
	}

	return cfg
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

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

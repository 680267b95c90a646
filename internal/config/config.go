package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	// Environment
	Environment string

	// Database
	DatabaseURL string

	// Redis
	RedisURL string

	// Server
	Port        string
	FrontendURL string

	// Session lifecycle
	SessionExpiryMinutes int

	// Gameplay tuning overrides (zero = built-in default)
	PowerMultiplier   float64
	MaxBouncesPerShot int
	BounceCooldownMS  int
	ResolverPollMS    int
	RestitutionScale  float64

	// Presentation streaming
	SnapshotRateHz int
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	return &Config{
		Environment: getEnv("APP_ENV", "development"),

		DatabaseURL: getEnv("DATABASE_URL", "postgres://localhost:5432/greenside?sslmode=disable"),

		RedisURL: getEnv("REDIS_URL", "redis://localhost:6379/0"),

		Port:        getEnv("APP_PORT", "8080"),
		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:5173"),

		SessionExpiryMinutes: getEnvInt("SESSION_EXPIRY_MINUTES", 30),

		PowerMultiplier:   getEnvFloat("POWER_MULTIPLIER", 0),
		MaxBouncesPerShot: getEnvInt("MAX_BOUNCES_PER_SHOT", 0),
		BounceCooldownMS:  getEnvInt("BOUNCE_COOLDOWN_MS", 0),
		ResolverPollMS:    getEnvInt("RESOLVER_POLL_MS", 0),
		RestitutionScale:  getEnvFloat("RESTITUTION_SCALE", 0),

		SnapshotRateHz: getEnvInt("SNAPSHOT_RATE_HZ", 20),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

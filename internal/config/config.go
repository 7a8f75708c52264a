package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all runtime configuration, loaded from the environment.
type Config struct {
	AppEnv string
	Port   string

	// Beds24 API
	APIURL       string
	APIToken     string
	Organization string

	// Postgres
	PGHost     string
	PGPort     string
	PGUser     string
	PGPassword string
	PGDatabase string

	// Redis
	RedisHost     string
	RedisPort     string
	RedisPassword string

	// Sync engine
	SyncInterval time.Duration
	WorkerCount  int
	PageSize     int

	// Trigger endpoint auth
	JWTSecret string
}

// Load reads .env (if present) and the process environment.
func Load() *Config {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	return &Config{
		AppEnv:        getEnv("APP_ENV", "development"),
		Port:          getEnv("PORT", "8080"),
		APIURL:        getEnv("BEDS24_API_URL", "https://api.beds24.com/v2"),
		APIToken:      os.Getenv("BEDS24_API_KEY"),
		Organization:  os.Getenv("BEDS24_ORGANIZATION"),
		PGHost:        getEnv("PG_HOST", "localhost"),
		PGPort:        getEnv("PG_PORT", "5432"),
		PGUser:        getEnv("PG_USER", "postgres"),
		PGPassword:    os.Getenv("PG_PASSWORD"),
		PGDatabase:    getEnv("PG_DB", "staysync"),
		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		SyncInterval:  getDurationEnv("SYNC_INTERVAL", time.Hour),
		WorkerCount:   getIntEnv("SYNC_WORKERS", 5),
		PageSize:      getIntEnv("SYNC_PAGE_SIZE", 500),
		JWTSecret:     os.Getenv("JWT_SECRET"),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getIntEnv(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return fallback
}

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	DatabaseURL string
	LogMode     string
	AutoMigrate bool

	ClerkSecretKey string
	MetricsUser    string
	MetricsPass    string
	PprofSecret    string

	RateLimitRPS   float64
	RateLimitBurst int

	RedisAddr     string
	RedisPassword string
	CacheTTL      time.Duration

	SyncWorkers      int
	SyncQueueSize    int
	SyncPollInterval time.Duration
	SyncMaxAttempts  int

	FCMCredentialsFile string
}

// Load reads .env (if present) and the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:               getEnv("PORT", "3333"),
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		LogMode:            getEnv("LOG_MODE", "development"),
		AutoMigrate:        getBool("AUTO_MIGRATE", false),
		ClerkSecretKey:     os.Getenv("CLERK_SECRET_KEY"),
		MetricsUser:        os.Getenv("METRICS_USER"),
		MetricsPass:        os.Getenv("METRICS_PASS"),
		PprofSecret:        os.Getenv("PPROF_SECRET"),
		RateLimitRPS:       getFloat("RATE_LIMIT_RPS", 5),
		RateLimitBurst:     getInt("RATE_LIMIT_BURST", 30),
		RedisAddr:          strings.TrimSpace(os.Getenv("REDIS_ADDR")),
		RedisPassword:      os.Getenv("REDIS_PASSWORD"),
		CacheTTL:           getDuration("CACHE_TTL", 5*time.Minute),
		SyncWorkers:        getInt("SYNC_WORKERS", 4),
		SyncQueueSize:      getInt("SYNC_QUEUE_SIZE", 100),
		SyncPollInterval:   getDuration("SYNC_POLL_INTERVAL", 30*time.Second),
		SyncMaxAttempts:    getInt("SYNC_MAX_ATTEMPTS", 5),
		FCMCredentialsFile: getEnv("FCM_CREDENTIALS_FILE", "./serviceAccountKey.json"),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is not set")
	}
	if cfg.SyncWorkers < 1 {
		return nil, fmt.Errorf("SYNC_WORKERS must be at least 1, got %d", cfg.SyncWorkers)
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v, err := strconv.Atoi(strings.TrimSpace(os.Getenv(key)))
	if err != nil {
		return fallback
	}
	return v
}

func getFloat(key string, fallback float64) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(os.Getenv(key)), 64)
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

func getBool(key string, fallback bool) bool {
	v, err := strconv.ParseBool(strings.TrimSpace(os.Getenv(key)))
	if err != nil {
		return fallback
	}
	return v
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v, err := time.ParseDuration(strings.TrimSpace(os.Getenv(key)))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

type Config struct {
	Port                  string
	AppEnv                string
	DBUrl                 string
	ChatStore             string
	MemorySeedUsers       []string
	JWTSecret             string
	RedisURL              string
	UserCacheTTL          time.Duration
	DirectoryRefreshAsync bool
	AsynqConcurrency      int
	PageDefaultLimit      int
	PageMaxLimit          int
	WSSendBuffer          int
	AutoMigrate           bool
}

func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}
	return fromEnv()
}

func fromEnv() (*Config, error) {
	jwtSecret, exists := os.LookupEnv("JWT_SECRET")
	if !exists || jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	cfg := &Config{
		Port:                  getEnv("PORT", "8080"),
		AppEnv:                normalizeEnv(getEnv("APP_ENV", "production")),
		DBUrl:                 getEnv("DB_URL", ""),
		ChatStore:             strings.ToLower(strings.TrimSpace(getEnv("CHAT_STORE", StorePostgres))),
		MemorySeedUsers:       getEnvList("MEMORY_SEED_USERS"),
		JWTSecret:             jwtSecret,
		RedisURL:              getEnv("REDIS_URL", ""),
		UserCacheTTL:          getEnvDuration("USER_CACHE_TTL", 10*time.Minute),
		DirectoryRefreshAsync: getEnvBool("DIRECTORY_REFRESH_ASYNC", false),
		AsynqConcurrency:      getEnvInt("ASYNQ_CONCURRENCY", 10),
		PageDefaultLimit:      getEnvInt("MESSAGE_PAGE_DEFAULT_LIMIT", 20),
		PageMaxLimit:          getEnvInt("MESSAGE_PAGE_MAX_LIMIT", 100),
		WSSendBuffer:          getEnvInt("WS_SEND_BUFFER", 128),
		AutoMigrate:           getEnvBool("AUTO_MIGRATE", false),
	}

	switch cfg.ChatStore {
	case StorePostgres:
		if cfg.DBUrl == "" {
			return nil, fmt.Errorf("DB_URL is required when CHAT_STORE=%s", StorePostgres)
		}
	case StoreMemory:
	default:
		return nil, fmt.Errorf("CHAT_STORE must be %q or %q, got %q", StorePostgres, StoreMemory, cfg.ChatStore)
	}
	if cfg.DirectoryRefreshAsync && cfg.RedisURL == "" {
		return nil, fmt.Errorf("DIRECTORY_REFRESH_ASYNC requires REDIS_URL")
	}
	if cfg.PageDefaultLimit > cfg.PageMaxLimit {
		cfg.PageDefaultLimit = cfg.PageMaxLimit
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return fallback
	}

	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

// getEnvInt ignores non-positive and malformed values.
func getEnvInt(key string, fallback int) int {
	value, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	i, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || i <= 0 {
		return fallback
	}
	return i
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func getEnvList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func normalizeEnv(value string) string {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "dev", "develop", "development", "local":
		return "development"
	case "prod", "production":
		return "production"
	case "stage", "staging":
		return "staging"
	case "test", "testing":
		return "test"
	default:
		return strings.ToLower(strings.TrimSpace(value))
	}
}

func (c *Config) IsDevelopment() bool {
	return c != nil && c.AppEnv == "development"
}

// UsesRedis reports whether the Redis-backed cache and queue are available.
func (c *Config) UsesRedis() bool {
	return c != nil && c.RedisURL != ""
}

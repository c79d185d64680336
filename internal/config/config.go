package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	// Remote product API
	APIBaseURL string
	APITimeout time.Duration

	// Redis (optional, for view-state persistence)
	RedisURL string

	// Local fallback for view-state persistence
	StateFilePath string

	Environment string

	// Cache
	CacheTTL time.Duration

	// Pagination
	DefaultPageSize int
	MaxPageSize     int

	// Import
	ImportBatchSize int
}

func Load() *Config {
	apiTimeout, _ := strconv.Atoi(getEnv("API_TIMEOUT_SECONDS", "10"))
	cacheTTL, _ := strconv.Atoi(getEnv("CACHE_TTL_SECONDS", "300"))
	defaultPageSize, _ := strconv.Atoi(getEnv("DEFAULT_PAGE_SIZE", "20"))
	maxPageSize, _ := strconv.Atoi(getEnv("MAX_PAGE_SIZE", "100"))
	importBatchSize, _ := strconv.Atoi(getEnv("IMPORT_BATCH_SIZE", "100"))

	return &Config{
		APIBaseURL: getEnv("PRODUCTS_API_URL", "http://localhost:8087"),
		APITimeout: time.Duration(apiTimeout) * time.Second,

		RedisURL: getEnv("REDIS_URL", ""),

		StateFilePath: getEnv("STATE_FILE_PATH", ".product-admin-state.json"),

		Environment: getEnv("ENVIRONMENT", "development"),

		CacheTTL: time.Duration(cacheTTL) * time.Second,

		DefaultPageSize: defaultPageSize,
		MaxPageSize:     maxPageSize,

		ImportBatchSize: importBatchSize,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

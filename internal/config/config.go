package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/adityanexturn/profilescope/pkg/config"
)

// Cache backend selection for the insight store.
const (
	CacheBackendMemory   = "memory"
	CacheBackendPostgres = "postgres"
	CacheBackendRedis    = "redis"
)

// Config stores environment configuration for profilescope. The core
// packages never read the environment themselves; everything is loaded
// here and passed in explicitly.
type Config struct {
	Port string

	// Social data source.
	SourceBaseURL     string
	SourceAccessToken string
	FetchMaxItems     int
	FetchPageSize     int
	FetchMaxRetries   int
	FetchBaseDelay    time.Duration
	FetchMaxDelay     time.Duration
	FetchTimeout      time.Duration

	// Insight generation.
	InsightStaleness   time.Duration
	InsightCallTimeout time.Duration
	InsightMaxPosts    int
	InsightMaxCaption  int

	// Insight cache backend: memory, postgres, or redis.
	CacheBackend string
	DatabaseURL  string
	RedisURL     string
}

// LoadConfig loads the profilescope configuration from environment variables.
func LoadConfig() Config {
	return Config{
		Port: config.GetEnv("PORT", "18040"),

		SourceBaseURL:     config.GetEnv("SOURCE_BASE_URL", ""),
		SourceAccessToken: config.GetEnv("SOURCE_ACCESS_TOKEN", ""),
		FetchMaxItems:     config.GetEnvInt("FETCH_MAX_ITEMS", 50),
		FetchPageSize:     config.GetEnvInt("FETCH_PAGE_SIZE", 25),
		FetchMaxRetries:   config.GetEnvInt("FETCH_MAX_RETRIES", 4),
		FetchBaseDelay:    config.GetEnvDuration("FETCH_BASE_DELAY", 500*time.Millisecond),
		FetchMaxDelay:     config.GetEnvDuration("FETCH_MAX_DELAY", 30*time.Second),
		FetchTimeout:      config.GetEnvDuration("FETCH_TIMEOUT", 15*time.Second),

		InsightStaleness:   config.GetEnvDuration("INSIGHT_STALENESS_WINDOW", 24*time.Hour),
		InsightCallTimeout: config.GetEnvDuration("INSIGHT_CALL_TIMEOUT", 30*time.Second),
		InsightMaxPosts:    config.GetEnvInt("INSIGHT_MAX_POSTS", 8),
		InsightMaxCaption:  config.GetEnvInt("INSIGHT_MAX_CAPTION_RUNES", 200),

		CacheBackend: strings.ToLower(config.GetEnv("INSIGHT_CACHE_BACKEND", CacheBackendMemory)),
		DatabaseURL:  config.GetEnv("DATABASE_URL", ""),
		RedisURL:     config.GetEnv("REDIS_URL", ""),
	}
}

// Validate checks cross-field requirements that GetEnv defaults cannot.
func (c Config) Validate() error {
	switch c.CacheBackend {
	case CacheBackendMemory:
	case CacheBackendPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("INSIGHT_CACHE_BACKEND=postgres requires DATABASE_URL")
		}
	case CacheBackendRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("INSIGHT_CACHE_BACKEND=redis requires REDIS_URL")
		}
	default:
		return fmt.Errorf("unknown INSIGHT_CACHE_BACKEND %q", c.CacheBackend)
	}
	if c.FetchMaxItems <= 0 {
		return fmt.Errorf("FETCH_MAX_ITEMS must be positive")
	}
	return nil
}

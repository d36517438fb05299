// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	DataDir  string // Base directory for the catalog database (always absolute)
	RedisURL string
	NATSURL  string
	LogLevel string
	Port     int
	DevMode  bool

	Matching MatchingConfig
}

// MatchingConfig holds tunables for the matching engine. The TTL asymmetry
// (long match cache, shorter per-user dedup) is deliberate: re-alerting a
// user about a still-listed deal after a week is acceptable, re-surfacing a
// stale match record is not.
type MatchingConfig struct {
	MinScore           float64       // Score threshold below which matches are dropped
	MaxMatches         int           // Cap on matches returned per goal
	CandidateFetchSize int           // Bound on candidates fetched before scoring
	MatchTTL           time.Duration // Lifetime of cached match records
	PairDedupTTL       time.Duration // Dedup window per (goal, deal) pair
	UserDedupTTL       time.Duration // Dedup window per (user, deal) pair
	SweepIntervalHours int           // How often the cron sweep re-matches all goals
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	dataDir := getEnv("DEALRADAR_DATA_DIR", "./data")
	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}
	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:  absDataDir,
		RedisURL: getEnv("REDIS_URL", "redis://localhost:6379/0"),
		NATSURL:  getEnv("NATS_URL", "nats://localhost:4222"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		Port:     getEnvAsInt("PORT", 8080),
		DevMode:  getEnvAsBool("DEV_MODE", false),
		Matching: MatchingConfig{
			MinScore:           getEnvAsFloat("MATCH_MIN_SCORE", 0.7),
			MaxMatches:         getEnvAsInt("MATCH_MAX_MATCHES", 10),
			CandidateFetchSize: getEnvAsInt("MATCH_CANDIDATE_FETCH_SIZE", 50),
			MatchTTL:           time.Duration(getEnvAsInt("MATCH_TTL_DAYS", 30)) * 24 * time.Hour,
			PairDedupTTL:       time.Duration(getEnvAsInt("NOTIFY_PAIR_DEDUP_TTL_DAYS", 30)) * 24 * time.Hour,
			UserDedupTTL:       time.Duration(getEnvAsInt("NOTIFY_USER_DEDUP_TTL_DAYS", 7)) * 24 * time.Hour,
			SweepIntervalHours: getEnvAsInt("MATCH_SWEEP_INTERVAL_HOURS", 6),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if required configuration is present and sane
func (c *Config) Validate() error {
	if c.Matching.MinScore < 0 || c.Matching.MinScore > 1 {
		return fmt.Errorf("MATCH_MIN_SCORE must be in [0,1], got %v", c.Matching.MinScore)
	}
	if c.Matching.MaxMatches < 1 {
		return fmt.Errorf("MATCH_MAX_MATCHES must be positive, got %d", c.Matching.MaxMatches)
	}
	if c.Matching.CandidateFetchSize < 1 {
		return fmt.Errorf("MATCH_CANDIDATE_FETCH_SIZE must be positive, got %d", c.Matching.CandidateFetchSize)
	}
	if c.Matching.SweepIntervalHours < 1 {
		return fmt.Errorf("MATCH_SWEEP_INTERVAL_HOURS must be positive, got %d", c.Matching.SweepIntervalHours)
	}
	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

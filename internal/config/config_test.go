package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DEALRADAR_DATA_DIR", t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "redis://localhost:6379/0", cfg.RedisURL)
	assert.Equal(t, "nats://localhost:4222", cfg.NATSURL)
	assert.Equal(t, 8080, cfg.Port)
	assert.False(t, cfg.DevMode)
	assert.Equal(t, 0.7, cfg.Matching.MinScore)
	assert.Equal(t, 10, cfg.Matching.MaxMatches)
	assert.Equal(t, 50, cfg.Matching.CandidateFetchSize)
	assert.Equal(t, 30*24*time.Hour, cfg.Matching.MatchTTL)
	assert.Equal(t, 30*24*time.Hour, cfg.Matching.PairDedupTTL)
	assert.Equal(t, 7*24*time.Hour, cfg.Matching.UserDedupTTL)
	assert.Equal(t, 6, cfg.Matching.SweepIntervalHours)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("DEALRADAR_DATA_DIR", t.TempDir())
	t.Setenv("MATCH_MIN_SCORE", "0.5")
	t.Setenv("MATCH_MAX_MATCHES", "25")
	t.Setenv("NOTIFY_USER_DEDUP_TTL_DAYS", "3")
	t.Setenv("DEV_MODE", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 0.5, cfg.Matching.MinScore)
	assert.Equal(t, 25, cfg.Matching.MaxMatches)
	assert.Equal(t, 3*24*time.Hour, cfg.Matching.UserDedupTTL)
	assert.True(t, cfg.DevMode)
}

func TestLoad_MalformedEnvFallsBackToDefault(t *testing.T) {
	t.Setenv("DEALRADAR_DATA_DIR", t.TempDir())
	t.Setenv("MATCH_MAX_MATCHES", "lots")
	t.Setenv("MATCH_MIN_SCORE", "very high")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 10, cfg.Matching.MaxMatches)
	assert.Equal(t, 0.7, cfg.Matching.MinScore)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "min score above one",
			mutate:  func(c *Config) { c.Matching.MinScore = 1.5 },
			wantErr: "MATCH_MIN_SCORE",
		},
		{
			name:    "negative min score",
			mutate:  func(c *Config) { c.Matching.MinScore = -0.1 },
			wantErr: "MATCH_MIN_SCORE",
		},
		{
			name:    "zero max matches",
			mutate:  func(c *Config) { c.Matching.MaxMatches = 0 },
			wantErr: "MATCH_MAX_MATCHES",
		},
		{
			name:    "zero fetch size",
			mutate:  func(c *Config) { c.Matching.CandidateFetchSize = 0 },
			wantErr: "MATCH_CANDIDATE_FETCH_SIZE",
		},
		{
			name:    "zero sweep interval",
			mutate:  func(c *Config) { c.Matching.SweepIntervalHours = 0 },
			wantErr: "MATCH_SWEEP_INTERVAL_HOURS",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{
				Matching: MatchingConfig{
					MinScore:           0.7,
					MaxMatches:         10,
					CandidateFetchSize: 50,
					SweepIntervalHours: 6,
				},
			}
			tt.mutate(cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

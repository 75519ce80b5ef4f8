package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elonfeng/tripradar/pkg/match"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 10, cfg.Recommend.CatalogTopN)
	assert.Equal(t, 30, cfg.Recommend.EnrichedTopN)
	assert.Equal(t, 10, cfg.Recommend.ExternalTopN)
	assert.Equal(t, 50000, cfg.Sources.GooglePlaces.Radius)
	assert.Len(t, cfg.Regions, 5)
	assert.NoError(t, cfg.Validate())

	coast, ok := cfg.Region("coast")
	require.True(t, ok)
	assert.InDelta(t, 35.8, coast.Lat, 1e-9)
	_, ok = cfg.Region("atlantis")
	assert.False(t, ok)
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
database:
  path: /tmp/trips.db
recommend:
  catalog_top_n: 5
  duration_mode: substring
  extra_keywords:
    relaxationSpa: [hammam, thalasso]
regions:
  - name: coast
    lat: 35.8
    lng: 10.6
    keyword: beach resorts
sources:
  feeds:
    enabled: true
    feeds:
      - name: coast events
        url: https://example.com/coast.xml
        region: coast
schedule:
  refresh_interval: 30m
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/trips.db", cfg.Database.Path)
	assert.Equal(t, 5, cfg.Recommend.CatalogTopN)
	assert.Equal(t, 30, cfg.Recommend.EnrichedTopN, "unset values keep defaults")
	assert.Len(t, cfg.Regions, 1)
	assert.Equal(t, "coast", cfg.Sources.Feeds.Feeds[0].Region)
	assert.Equal(t, 30*time.Minute, cfg.Schedule.ParseRefreshInterval())
	assert.Equal(t, 24*time.Hour, cfg.Schedule.ParseDigestInterval())

	engine := cfg.Recommend.Engine()
	assert.Equal(t, match.DurationSubstring, engine.DurationMode)
	assert.Equal(t, []string{"hammam", "thalasso"}, engine.ExtraKeywords[match.InterestRelaxationSpa])
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("TRIPRADAR_DB_PATH", "/data/env.db")
	t.Setenv("TRIPRADAR_LOG_LEVEL", "debug")
	t.Setenv("GOOGLE_PLACES_API_KEY", "g-key")
	t.Setenv("UNSPLASH_ACCESS_KEY", "u-key")
	t.Setenv("SLACK_WEBHOOK_URL", "https://hooks.slack.test/x")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "/data/env.db", cfg.Database.Path)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "g-key", cfg.Sources.GooglePlaces.APIKey)
	assert.Equal(t, "u-key", cfg.Images.Unsplash.AccessKey)
	assert.True(t, cfg.Alerts.Slack.Enabled)
	assert.False(t, cfg.Alerts.Discord.Enabled)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
		msg  string
	}{
		{"zero top n", "recommend:\n  catalog_top_n: 0\n", "catalog_top_n"},
		{"unknown duration mode", "recommend:\n  duration_mode: fuzzy\n", "duration_mode"},
		{"region without name", "regions:\n  - lat: 1\n", "regions[0]"},
		{"feed without url", "sources:\n  feeds:\n    feeds:\n      - name: x\n", "feeds[0]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestParseFallbacks(t *testing.T) {
	assert.Equal(t, 6*time.Hour, ScheduleConfig{RefreshInterval: "soon"}.ParseRefreshInterval())
	assert.Equal(t, 7*24*time.Hour, RecommendConfig{}.ParseCacheMaxAge())
	assert.Equal(t, time.Minute, BreakerConfig{Interval: "x"}.ParseInterval())
	assert.Equal(t, 30*time.Second, BreakerConfig{}.ParseTimeout())
	assert.Equal(t, 5*time.Second, BreakerConfig{Timeout: "5s"}.ParseTimeout())
}

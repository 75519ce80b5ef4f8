package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/elonfeng/tripradar/pkg/match"
)

// Config is the root configuration.
type Config struct {
	Database  DatabaseConfig  `yaml:"database"`
	Server    ServerConfig    `yaml:"server"`
	Logging   LoggingConfig   `yaml:"logging"`
	Schedule  ScheduleConfig  `yaml:"schedule"`
	Recommend RecommendConfig `yaml:"recommend"`
	Regions   []Region        `yaml:"regions"`
	Sources   SourcesConfig   `yaml:"sources"`
	Images    ImagesConfig    `yaml:"images"`
	Alerts    AlertsConfig    `yaml:"alerts"`
}

// DatabaseConfig configures SQLite storage.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port        int      `yaml:"port"`
	// RateLimit is the per-IP request budget per minute. 0 disables it.
	RateLimit   int      `yaml:"rate_limit"`
	CORSOrigins []string `yaml:"cors_origins"`
}

// LoggingConfig configures the global logger.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // json or console
	Caller bool   `yaml:"caller"`
}

// ScheduleConfig configures the background jobs of `tripradar run`.
type ScheduleConfig struct {
	RefreshInterval string `yaml:"refresh_interval"`
	DigestInterval  string `yaml:"digest_interval"`
}

// ParseRefreshInterval returns the place refresh interval as time.Duration.
func (s ScheduleConfig) ParseRefreshInterval() time.Duration {
	d, err := time.ParseDuration(s.RefreshInterval)
	if err != nil {
		return 6 * time.Hour
	}
	return d
}

// ParseDigestInterval returns the top-pick digest interval as time.Duration.
func (s ScheduleConfig) ParseDigestInterval() time.Duration {
	d, err := time.ParseDuration(s.DigestInterval)
	if err != nil {
		return 24 * time.Hour
	}
	return d
}

// RecommendConfig tunes ranking.
type RecommendConfig struct {
	CatalogTopN   int                         `yaml:"catalog_top_n"`
	EnrichedTopN  int                         `yaml:"enriched_top_n"`
	ExternalTopN  int                         `yaml:"external_top_n"`
	DurationMode  string                      `yaml:"duration_mode"` // parsed or substring
	ExtraKeywords map[match.Interest][]string `yaml:"extra_keywords"`
	// CacheMaxAge bounds how old cached places may be when every live
	// source fails.
	CacheMaxAge   string                      `yaml:"cache_max_age"`
}

// ParseCacheMaxAge returns the place cache fallback window.
func (r RecommendConfig) ParseCacheMaxAge() time.Duration {
	d, err := time.ParseDuration(r.CacheMaxAge)
	if err != nil {
		return 7 * 24 * time.Hour
	}
	return d
}

// Engine returns the scoring engine config.
func (r RecommendConfig) Engine() match.Config {
	return match.Config{
		DurationMode:  match.DurationMode(r.DurationMode),
		ExtraKeywords: r.ExtraKeywords,
	}
}

// Region is a searchable area with a centre point and a search phrase.
type Region struct {
	Name    string  `yaml:"name"`
	Lat     float64 `yaml:"lat"`
	Lng     float64 `yaml:"lng"`
	Keyword string  `yaml:"keyword"`
}

// SourcesConfig holds configuration for external place sources.
type SourcesConfig struct {
	GooglePlaces GooglePlacesConfig `yaml:"google_places"`
	Feeds        FeedsConfig        `yaml:"feeds"`
	Filter       FilterConfig       `yaml:"filter"`
	Breaker      BreakerConfig      `yaml:"breaker"`
}

// GooglePlacesConfig for the Places Nearby Search source.
type GooglePlacesConfig struct {
	Enabled           bool    `yaml:"enabled"`
	APIKey            string  `yaml:"api_key"`
	BaseURL           string  `yaml:"base_url"`
	Radius            int     `yaml:"radius"` // metres
	// RequestsPerSecond caps outgoing calls. 0 means unlimited.
	RequestsPerSecond float64 `yaml:"requests_per_second"`
}

// FeedsConfig for RSS/Atom place feeds.
type FeedsConfig struct {
	Enabled bool       `yaml:"enabled"`
	Feeds   []FeedItem `yaml:"feeds"`
}

// FeedItem is a single place feed. An empty Region means the feed applies
// to every region.
type FeedItem struct {
	Name   string `yaml:"name"`
	URL    string `yaml:"url"`
	Region string `yaml:"region"`
}

// FilterConfig drops unwanted places before scoring. The built-in
// service-type exclusions always apply.
type FilterConfig struct {
	ExcludeTypes []string `yaml:"exclude_types"`
	ExcludeNames []string `yaml:"exclude_names"`
}

// BreakerConfig tunes the circuit breaker around every external source.
type BreakerConfig struct {
	MaxRequests  uint32  `yaml:"max_requests"`
	Interval     string  `yaml:"interval"`
	Timeout      string  `yaml:"timeout"`
	MinRequests  uint32  `yaml:"min_requests"`
	FailureRatio float64 `yaml:"failure_ratio"`
}

// ParseInterval returns the closed-state count reset period.
func (b BreakerConfig) ParseInterval() time.Duration {
	d, err := time.ParseDuration(b.Interval)
	if err != nil {
		return time.Minute
	}
	return d
}

// ParseTimeout returns how long an open breaker waits before probing.
func (b BreakerConfig) ParseTimeout() time.Duration {
	d, err := time.ParseDuration(b.Timeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// ImagesConfig configures image enrichment.
type ImagesConfig struct {
	Unsplash UnsplashConfig `yaml:"unsplash"`
}

// UnsplashConfig for the Unsplash search API.
type UnsplashConfig struct {
	Enabled     bool   `yaml:"enabled"`
	AccessKey   string `yaml:"access_key"`
	BaseURL     string `yaml:"base_url"`
	Concurrency int    `yaml:"concurrency"`
}

// AlertsConfig configures alert destinations.
type AlertsConfig struct {
	Slack   SlackConfig   `yaml:"slack"`
	Discord DiscordConfig `yaml:"discord"`
	Webhook WebhookConfig `yaml:"webhook"`
}

// SlackConfig for Slack webhook alerts.
type SlackConfig struct {
	Enabled    bool   `yaml:"enabled"`
	WebhookURL string `yaml:"webhook_url"`
}

// DiscordConfig for Discord webhook alerts.
type DiscordConfig struct {
	Enabled    bool   `yaml:"enabled"`
	WebhookURL string `yaml:"webhook_url"`
}

// WebhookConfig for generic webhook alerts.
type WebhookConfig struct {
	Enabled bool   `yaml:"enabled"`
	URL     string `yaml:"url"`
	Secret  string `yaml:"secret"`
}

// DefaultRegions are the Tunisian regions the catalog is tagged with.
func DefaultRegions() []Region {
	return []Region{
		{Name: "north", Lat: 36.8, Lng: 10.3, Keyword: "tourist attractions Tunis Bizerte Tabarka"},
		{Name: "coast", Lat: 35.8, Lng: 10.6, Keyword: "beach resorts Hammamet Sousse Mahdia Monastir"},
		{Name: "historical_cities", Lat: 35.8, Lng: 10.1, Keyword: "historical sites museums Kairouan Carthage"},
		{Name: "desert", Lat: 33.7, Lng: 8.7, Keyword: "Sahara desert oasis Tozeur Douz Tataouine"},
		{Name: "south", Lat: 32.8, Lng: 10.3, Keyword: "Matmata Tataouine southern Tunisia"},
	}
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{Path: "./tripradar.db"},
		Server: ServerConfig{
			Port:        8080,
			RateLimit:   120,
			CORSOrigins: []string{"*"},
		},
		Logging: LoggingConfig{Level: "info", Format: "json"},
		Schedule: ScheduleConfig{
			RefreshInterval: "6h",
			DigestInterval:  "24h",
		},
		Recommend: RecommendConfig{
			CatalogTopN:  10,
			EnrichedTopN: 30,
			ExternalTopN: 10,
			DurationMode: string(match.DurationParsed),
			CacheMaxAge:  "168h",
		},
		Regions: DefaultRegions(),
		Sources: SourcesConfig{
			GooglePlaces: GooglePlacesConfig{
				Enabled:           true,
				BaseURL:           "https://maps.googleapis.com/maps/api/place/nearbysearch/json",
				Radius:            50000,
				RequestsPerSecond: 5,
			},
			Breaker: BreakerConfig{
				MaxRequests:  1,
				Interval:     "1m",
				Timeout:      "30s",
				MinRequests:  3,
				FailureRatio: 0.6,
			},
		},
		Images: ImagesConfig{
			Unsplash: UnsplashConfig{
				Enabled:     true,
				BaseURL:     "https://api.unsplash.com",
				Concurrency: 4,
			},
		},
	}
}

// Load reads configuration from a YAML file and applies env var overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Validate rejects values the service cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.Recommend.CatalogTopN < 1 {
		errs = append(errs, errors.New("recommend.catalog_top_n must be at least 1"))
	}
	if c.Recommend.EnrichedTopN < 1 {
		errs = append(errs, errors.New("recommend.enriched_top_n must be at least 1"))
	}
	if c.Recommend.ExternalTopN < 1 {
		errs = append(errs, errors.New("recommend.external_top_n must be at least 1"))
	}
	if err := c.Recommend.Engine().Validate(); err != nil {
		errs = append(errs, fmt.Errorf("recommend.duration_mode: %w", err))
	}
	for i, r := range c.Regions {
		if r.Name == "" {
			errs = append(errs, fmt.Errorf("regions[%d]: name is required", i))
		}
	}
	for i, f := range c.Sources.Feeds.Feeds {
		if f.URL == "" {
			errs = append(errs, fmt.Errorf("sources.feeds.feeds[%d]: url is required", i))
		}
	}
	return errors.Join(errs...)
}

// Region returns the named region.
func (c *Config) Region(name string) (Region, bool) {
	for _, r := range c.Regions {
		if r.Name == name {
			return r, true
		}
	}
	return Region{}, false
}

// applyEnvOverrides overrides config values with environment variables.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("TRIPRADAR_DB_PATH"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("TRIPRADAR_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("GOOGLE_PLACES_API_KEY"); v != "" {
		cfg.Sources.GooglePlaces.APIKey = v
	}
	if v := os.Getenv("UNSPLASH_ACCESS_KEY"); v != "" {
		cfg.Images.Unsplash.AccessKey = v
	}
	if v := os.Getenv("SLACK_WEBHOOK_URL"); v != "" {
		cfg.Alerts.Slack.WebhookURL = v
		cfg.Alerts.Slack.Enabled = true
	}
	if v := os.Getenv("DISCORD_WEBHOOK_URL"); v != "" {
		cfg.Alerts.Discord.WebhookURL = v
		cfg.Alerts.Discord.Enabled = true
	}
}

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/elonfeng/tripradar/internal/catalog"
	"github.com/elonfeng/tripradar/internal/config"
	"github.com/elonfeng/tripradar/internal/logging"
	"github.com/elonfeng/tripradar/internal/scheduler"
	"github.com/elonfeng/tripradar/internal/store"
	"github.com/elonfeng/tripradar/pkg/alert"
	"github.com/elonfeng/tripradar/pkg/imagery"
	"github.com/elonfeng/tripradar/pkg/match"
	"github.com/elonfeng/tripradar/pkg/recommend"
	"github.com/elonfeng/tripradar/pkg/server"
	"github.com/elonfeng/tripradar/pkg/source"
)

func loadConfig() (*config.Config, error) {
	path := cfgFile
	if path == "" {
		if _, err := os.Stat("config.yaml"); err == nil {
			path = "config.yaml"
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logCfg := logging.DefaultConfig()
	logCfg.Level = cfg.Logging.Level
	logCfg.Format = cfg.Logging.Format
	logCfg.Caller = cfg.Logging.Caller
	logging.Init(logCfg)
	return cfg, nil
}

func openStore(cfg *config.Config) (*store.SQLiteStore, error) {
	db, err := store.New(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return db, nil
}

func breakerSettings(cfg *config.Config) source.BreakerSettings {
	b := cfg.Sources.Breaker
	return source.BreakerSettings{
		MaxRequests:  b.MaxRequests,
		Interval:     b.ParseInterval(),
		Timeout:      b.ParseTimeout(),
		MinRequests:  b.MinRequests,
		FailureRatio: b.FailureRatio,
	}
}

func buildSources(cfg *config.Config) []source.Source {
	var sources []source.Source
	settings := breakerSettings(cfg)

	if g := cfg.Sources.GooglePlaces; g.Enabled {
		if g.APIKey == "" {
			logging.Warn().Msg("google places enabled without api key (set GOOGLE_PLACES_API_KEY)")
		}
		sources = append(sources, source.NewBreaker(source.NewGooglePlaces(source.GoogleOptions{
			APIKey:            g.APIKey,
			BaseURL:           g.BaseURL,
			Radius:            g.Radius,
			RequestsPerSecond: g.RequestsPerSecond,
		}), settings))
	}
	if f := cfg.Sources.Feeds; f.Enabled && len(f.Feeds) > 0 {
		feeds := make([]source.Feed, len(f.Feeds))
		for i, item := range f.Feeds {
			feeds[i] = source.Feed{Name: item.Name, URL: item.URL, Region: item.Region}
		}
		sources = append(sources, source.NewBreaker(source.NewFeeds(feeds), settings))
	}

	return sources
}

func buildCollector(cfg *config.Config, n *match.Normalizer) *source.Collector {
	sources := buildSources(cfg)
	if len(sources) == 0 {
		return nil
	}

	regions := make([]source.Region, len(cfg.Regions))
	for i, r := range cfg.Regions {
		regions[i] = source.Region{Name: r.Name, Lat: r.Lat, Lng: r.Lng, Keyword: r.Keyword}
	}
	filter := source.NewFilter(cfg.Sources.Filter.ExcludeTypes, cfg.Sources.Filter.ExcludeNames)
	return source.NewCollector(sources, regions, n, filter)
}

func buildService(cfg *config.Config, db store.Store) *recommend.Service {
	engine := match.NewEngine(cfg.Recommend.Engine())

	var enricher recommend.Enricher
	if u := cfg.Images.Unsplash; u.Enabled && u.AccessKey != "" {
		enricher = imagery.NewEnricher(imagery.NewUnsplash(u.AccessKey, u.BaseURL, breakerSettings(cfg)), u.Concurrency)
	}

	return recommend.New(db, engine, buildCollector(cfg, engine.Normalizer()), enricher, recommend.Config{
		CatalogTopN:  cfg.Recommend.CatalogTopN,
		EnrichedTopN: cfg.Recommend.EnrichedTopN,
		ExternalTopN: cfg.Recommend.ExternalTopN,
		CacheMaxAge:  cfg.Recommend.ParseCacheMaxAge(),
	})
}

func buildAlertManager(cfg *config.Config) *alert.Manager {
	var notifiers []alert.Notifier

	if cfg.Alerts.Slack.Enabled && cfg.Alerts.Slack.WebhookURL != "" {
		notifiers = append(notifiers, alert.NewSlack(cfg.Alerts.Slack.WebhookURL))
	}
	if cfg.Alerts.Discord.Enabled && cfg.Alerts.Discord.WebhookURL != "" {
		notifiers = append(notifiers, alert.NewDiscord(cfg.Alerts.Discord.WebhookURL))
	}
	if cfg.Alerts.Webhook.Enabled && cfg.Alerts.Webhook.URL != "" {
		notifiers = append(notifiers, alert.NewWebhook(cfg.Alerts.Webhook.URL, cfg.Alerts.Webhook.Secret))
	}

	return alert.NewManager(notifiers)
}

func buildServer(cfg *config.Config, svc *recommend.Service, db store.Store, port int) *server.Server {
	if port == 0 {
		port = cfg.Server.Port
	}
	return server.New(svc, db, server.Options{
		Port:        port,
		RateLimit:   cfg.Server.RateLimit,
		CORSOrigins: cfg.Server.CORSOrigins,
	})
}

func runSeed(ctx context.Context, file string, force bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	db, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	if file != "" {
		dests, err := catalog.LoadFile(file)
		if err != nil {
			return err
		}
		if err := db.UpsertDestinations(ctx, dests); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "seeded %d destinations from %s\n", len(dests), file)
		return nil
	}

	n, err := catalog.Seed(ctx, db, force)
	if err != nil {
		return err
	}
	if n == 0 {
		fmt.Fprintln(os.Stderr, "catalog already present (use --force to overwrite)")
		return nil
	}
	fmt.Fprintf(os.Stderr, "seeded %d destinations\n", n)
	return nil
}

func runRecommend(ctx context.Context, profileID string, limit int, images, jsonOutput bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	db, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	recs, err := buildService(cfg, db).Catalog(ctx, profileID, recommend.Options{TopN: limit, Images: images})
	if err != nil {
		return err
	}
	if jsonOutput {
		return printJSON(map[string]any{"recommendations": recs, "count": len(recs)})
	}
	if len(recs) == 0 {
		fmt.Println("no destinations found (try: tripradar seed)")
		return nil
	}
	return printDestinations(recs)
}

func runPlaces(ctx context.Context, profileID string, limit int, jsonOutput bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	db, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	places, err := buildService(cfg, db).Places(ctx, profileID, limit)
	if err != nil {
		return err
	}
	if jsonOutput {
		return printJSON(map[string]any{"places": places, "count": len(places)})
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SCORE\tRATING\tREGION\tNAME\tINTERESTS")
	for _, p := range places {
		fmt.Fprintf(w, "%d\t%.1f\t%s\t%s\t%s\n",
			p.RelevanceScore, p.Rating, p.Region, p.Name, matchedInterests(p.Matches))
	}
	return w.Flush()
}

func runScore(profileFile, catalogFile string, limit int, jsonOutput bool) error {
	profile, err := readProfile(profileFile)
	if err != nil {
		return err
	}

	var dests []match.Destination
	if catalogFile != "" {
		dests, err = catalog.LoadFile(catalogFile)
	} else {
		dests, err = catalog.Load()
	}
	if err != nil {
		return err
	}

	recs, err := match.NewEngine(match.DefaultConfig()).ScoreCatalog(profile, dests, limit)
	if err != nil {
		return err
	}
	if jsonOutput {
		return printJSON(map[string]any{"recommendations": recs, "count": len(recs)})
	}
	return printDestinations(recs)
}

// readProfile reads a profile from JSON (the API shape) or YAML.
func readProfile(path string) (*match.Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read profile %s: %w", path, err)
	}

	var p match.Profile
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = json.Unmarshal(data, &p)
	default:
		err = yaml.Unmarshal(data, &p)
	}
	if err != nil {
		return nil, fmt.Errorf("parse profile %s: %w", path, err)
	}
	return &p, nil
}

func runServe(ctx context.Context, port int) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	db, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	srv := buildServer(cfg, buildService(cfg, db), db, port)
	return serveUntilDone(ctx, srv)
}

func runDaemon(ctx context.Context, port int) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	db, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	if _, err := catalog.Seed(ctx, db, false); err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	svc := buildService(cfg, db)
	sched := scheduler.New(svc, db, buildAlertManager(cfg),
		cfg.Schedule.ParseRefreshInterval(),
		cfg.Schedule.ParseDigestInterval(),
	)
	srv := buildServer(cfg, svc, db, port)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := sched.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("scheduler: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		return serveUntilDone(gctx, srv)
	})
	return g.Wait()
}

// serveUntilDone runs srv until ctx ends, then shuts it down gracefully.
func serveUntilDone(ctx context.Context, srv *server.Server) error {
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logging.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(os.Stdout, string(data))
	return err
}

func printDestinations(recs []match.ScoredDestination) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SCORE\tREGION\tNAME\tTRAVEL TIME")
	for _, r := range recs {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", r.RelevanceScore, r.Region, r.Name, r.TravelTimeFromCapital)
	}
	return w.Flush()
}

func matchedInterests(m map[match.Interest]bool) string {
	var out []string
	for _, i := range match.AllInterests() {
		if m[i] {
			out = append(out, string(i))
		}
	}
	return strings.Join(out, ",")
}

// Package recommend serves ranked recommendations for saved profiles.
package recommend

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/elonfeng/tripradar/internal/logging"
	"github.com/elonfeng/tripradar/internal/metrics"
	"github.com/elonfeng/tripradar/internal/store"
	"github.com/elonfeng/tripradar/internal/validation"
	"github.com/elonfeng/tripradar/pkg/match"
	"github.com/elonfeng/tripradar/pkg/source"
)

var (
	// ErrProfileNotFound is returned when a profile id is unknown.
	ErrProfileNotFound = errors.New("profile not found")
	// ErrSourcesUnavailable is returned when no source answered and the
	// place cache has nothing recent for the profile's regions.
	ErrSourcesUnavailable = errors.New("place sources unavailable")
)

const (
	ModeCatalog  = "catalog"
	ModeExternal = "external"
)

// Enricher attaches images to scored destinations.
type Enricher interface {
	Enrich(ctx context.Context, items []match.ScoredDestination)
}

// Config holds result sizes and cache age.
type Config struct {
	CatalogTopN  int
	EnrichedTopN int
	ExternalTopN int
	CacheMaxAge  time.Duration
}

// DefaultConfig returns the result sizes the mobile client expects.
func DefaultConfig() Config {
	return Config{
		CatalogTopN:  10,
		EnrichedTopN: 30,
		ExternalTopN: 10,
		CacheMaxAge:  7 * 24 * time.Hour,
	}
}

// Options tunes a catalog request.
type Options struct {
	TopN   int  // 0 picks the configured default
	Images bool // attach images; raises the default size
}

// Service combines storage, the scoring engine and live place sources.
type Service struct {
	store     store.Store
	engine    *match.Engine
	collector *source.Collector // optional, nil = no live places
	enricher  Enricher          // optional, nil = no images
	cfg       Config
	now       func() time.Time
}

// New creates a recommendation service.
func New(s store.Store, engine *match.Engine, collector *source.Collector, enricher Enricher, cfg Config) *Service {
	def := DefaultConfig()
	if cfg.CatalogTopN < 1 {
		cfg.CatalogTopN = def.CatalogTopN
	}
	if cfg.EnrichedTopN < 1 {
		cfg.EnrichedTopN = def.EnrichedTopN
	}
	if cfg.ExternalTopN < 1 {
		cfg.ExternalTopN = def.ExternalTopN
	}
	if cfg.CacheMaxAge <= 0 {
		cfg.CacheMaxAge = def.CacheMaxAge
	}
	return &Service{
		store:     s,
		engine:    engine,
		collector: collector,
		enricher:  enricher,
		cfg:       cfg,
		now:       time.Now,
	}
}

// Engine returns the scoring engine.
func (s *Service) Engine() *match.Engine {
	return s.engine
}

// Profile loads a saved profile.
func (s *Service) Profile(ctx context.Context, id string) (*store.ProfileRecord, error) {
	rec, err := s.store.GetProfile(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrProfileNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// CreateProfile validates p and saves it under a new id.
func (s *Service) CreateProfile(ctx context.Context, p match.Profile) (*store.ProfileRecord, error) {
	if err := validation.ValidateStruct(&p); err != nil {
		return nil, err
	}
	rec := &store.ProfileRecord{ID: uuid.NewString(), Profile: p}
	if err := s.store.SaveProfile(ctx, rec); err != nil {
		return nil, err
	}
	logging.Info().Str("profile", rec.ID).Msg("profile created")
	return rec, nil
}

// UpdateProfile validates p and replaces the saved profile id.
func (s *Service) UpdateProfile(ctx context.Context, id string, p match.Profile) (*store.ProfileRecord, error) {
	if err := validation.ValidateStruct(&p); err != nil {
		return nil, err
	}
	rec, err := s.Profile(ctx, id)
	if err != nil {
		return nil, err
	}
	rec.Profile = p
	if err := s.store.SaveProfile(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// lookup returns the saved profile, or nil when id is empty or unknown.
// A nil profile scores every candidate neutrally.
func (s *Service) lookup(ctx context.Context, id string) (*match.Profile, error) {
	if id == "" {
		return nil, nil
	}
	rec, err := s.store.GetProfile(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		logging.Debug().Str("profile", id).Msg("profile not found, scoring neutrally")
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec.Profile, nil
}

// Catalog ranks the stored destinations for a profile.
func (s *Service) Catalog(ctx context.Context, profileID string, opts Options) ([]match.ScoredDestination, error) {
	profile, err := s.lookup(ctx, profileID)
	if err != nil {
		return nil, err
	}
	dests, err := s.store.ListDestinations(ctx)
	if err != nil {
		return nil, err
	}

	topN := opts.TopN
	if topN == 0 {
		topN = s.cfg.CatalogTopN
		if opts.Images {
			topN = s.cfg.EnrichedTopN
		}
	}

	ranked, err := s.ScoreCatalog(profile, dests, topN)
	if err != nil {
		return nil, err
	}
	if opts.Images && s.enricher != nil {
		s.enricher.Enrich(ctx, ranked)
	}
	metrics.RecommendationsServed.WithLabelValues(ModeCatalog).Add(float64(len(ranked)))
	return ranked, nil
}

// Places ranks live places around the profile's preferred regions. When
// no source answers it falls back to places cached within CacheMaxAge.
func (s *Service) Places(ctx context.Context, profileID string, topN int) ([]match.ScoredPlace, error) {
	if topN == 0 {
		topN = s.cfg.ExternalTopN
	}
	if topN < 1 {
		return nil, match.ErrInvalidTopN
	}
	profile, err := s.lookup(ctx, profileID)
	if err != nil {
		return nil, err
	}

	places, err := s.livePlaces(ctx, profile)
	if err != nil {
		logging.Warn().Err(err).Str("profile", profileID).Msg("live places unavailable, using cache")
		places, err = s.cachedPlaces(ctx, profile, err)
		if err != nil {
			return nil, err
		}
	}

	ranked, err := s.ScoreExternal(profile, places, topN)
	if err != nil {
		return nil, err
	}
	metrics.RecommendationsServed.WithLabelValues(ModeExternal).Add(float64(len(ranked)))
	return ranked, nil
}

// livePlaces collects and caches places. It fails only when nothing came
// back and at least one search failed.
func (s *Service) livePlaces(ctx context.Context, profile *match.Profile) ([]match.ExternalPlace, error) {
	if s.collector == nil {
		return nil, source.ErrNotConfigured
	}
	if profile == nil {
		profile = &match.Profile{}
	}

	places, err := s.collector.Collect(ctx, profile)
	if err != nil && len(places) == 0 {
		return nil, err
	}
	if err != nil {
		logging.Warn().Err(err).Int("places", len(places)).Msg("partial place collection")
	}

	if len(places) > 0 {
		if err := s.store.UpsertPlaces(ctx, places, s.now()); err != nil {
			logging.Warn().Err(err).Msg("cache places failed")
		}
	}
	return places, nil
}

func (s *Service) cachedPlaces(ctx context.Context, profile *match.Profile, cause error) ([]match.ExternalPlace, error) {
	names := profileRegions(profile)
	if s.collector != nil {
		names = regionNames(s.collector.Resolve(names))
	}

	cached, err := s.store.ListPlaces(ctx, names, s.now().Add(-s.cfg.CacheMaxAge))
	if err != nil {
		return nil, err
	}
	if len(cached) == 0 {
		return nil, fmt.Errorf("%w: %w", ErrSourcesUnavailable, cause)
	}

	metrics.PlaceCacheFallbacks.Inc()
	places := make([]match.ExternalPlace, len(cached))
	for i, c := range cached {
		places[i] = c.ExternalPlace
	}
	return places, nil
}

func profileRegions(p *match.Profile) []string {
	if p == nil {
		return nil
	}
	return p.PreferredRegions
}

func regionNames(regions []source.Region) []string {
	names := make([]string, len(regions))
	for i, r := range regions {
		names[i] = r.Name
	}
	return names
}

// ScoreCatalog scores caller-supplied destinations.
func (s *Service) ScoreCatalog(profile *match.Profile, dests []match.Destination, topN int) ([]match.ScoredDestination, error) {
	start := time.Now()
	ranked, err := s.engine.ScoreCatalog(profile, dests, topN)
	if err != nil {
		return nil, err
	}
	metrics.RecordScoring(ModeCatalog, len(dests), time.Since(start))
	return ranked, nil
}

// ScoreExternal scores caller-supplied places.
func (s *Service) ScoreExternal(profile *match.Profile, places []match.ExternalPlace, topN int) ([]match.ScoredPlace, error) {
	start := time.Now()
	ranked, err := s.engine.ScoreExternal(profile, places, topN)
	if err != nil {
		return nil, err
	}
	metrics.RecordScoring(ModeExternal, len(places), time.Since(start))
	return ranked, nil
}

package recommend

import (
	"context"
	"errors"
	"fmt"

	"github.com/elonfeng/tripradar/internal/logging"
	"github.com/elonfeng/tripradar/internal/metrics"
	"github.com/elonfeng/tripradar/internal/store"
	"github.com/elonfeng/tripradar/pkg/match"
	"github.com/elonfeng/tripradar/pkg/source"
)

// RefreshPlaces collects places for every configured region with a neutral
// query and writes them to the cache. It returns the number cached.
func (s *Service) RefreshPlaces(ctx context.Context) (int, error) {
	if s.collector == nil {
		return 0, source.ErrNotConfigured
	}

	places, err := s.collector.CollectRegions(ctx, &match.Profile{}, s.collector.Regions())
	if len(places) > 0 {
		if werr := s.store.UpsertPlaces(ctx, places, s.now()); werr != nil {
			return 0, fmt.Errorf("cache places: %w", werr)
		}
	}
	if err != nil {
		logging.Warn().Err(err).Int("places", len(places)).Msg("place refresh incomplete")
	}
	if err != nil && len(places) == 0 {
		return 0, err
	}
	return len(places), nil
}

// PickChange describes a profile whose best catalog match changed.
type PickChange struct {
	ProfileID string
	Previous  *store.TopPick // nil on the first digest
	Current   match.ScoredDestination
}

// UpdateTopPick ranks the catalog for rec and stores its best match. It
// returns a change when the best destination differs from the stored one.
// A first pick is stored without reporting a change.
func (s *Service) UpdateTopPick(ctx context.Context, rec *store.ProfileRecord) (*PickChange, error) {
	dests, err := s.store.ListDestinations(ctx)
	if err != nil {
		return nil, err
	}
	if len(dests) == 0 {
		return nil, nil
	}

	ranked, err := s.ScoreCatalog(&rec.Profile, dests, 1)
	if err != nil {
		return nil, err
	}
	best := ranked[0]

	prev, err := s.store.GetTopPick(ctx, rec.ID, ModeCatalog)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}
	if prev != nil && prev.Name == best.Name {
		return nil, nil
	}

	err = s.store.SetTopPick(ctx, &store.TopPick{
		ProfileID: rec.ID,
		Mode:      ModeCatalog,
		Name:      best.Name,
		Score:     best.RelevanceScore,
		UpdatedAt: s.now().UTC(),
	})
	if err != nil {
		return nil, err
	}
	if prev == nil {
		return nil, nil
	}

	metrics.TopPickChanges.Inc()
	return &PickChange{ProfileID: rec.ID, Previous: prev, Current: best}, nil
}

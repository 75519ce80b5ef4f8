package scheduler

import (
	"context"
	"time"

	"github.com/elonfeng/tripradar/internal/logging"
	"github.com/elonfeng/tripradar/internal/store"
	"github.com/elonfeng/tripradar/pkg/alert"
	"github.com/elonfeng/tripradar/pkg/recommend"
)

// ProfileLister lists saved profiles.
type ProfileLister interface {
	ListProfiles(ctx context.Context) ([]store.ProfileRecord, error)
}

// Scheduler refreshes the place cache and sends top pick digests.
type Scheduler struct {
	svc        *recommend.Service
	profiles   ProfileLister
	alertMgr   *alert.Manager
	refreshInt time.Duration
	digestInt  time.Duration
}

// New creates a new scheduler.
func New(
	svc *recommend.Service,
	profiles ProfileLister,
	alertMgr *alert.Manager,
	refreshInt, digestInt time.Duration,
) *Scheduler {
	if refreshInt == 0 {
		refreshInt = 6 * time.Hour
	}
	if digestInt == 0 {
		digestInt = 24 * time.Hour
	}
	if alertMgr == nil {
		alertMgr = alert.NewManager(nil)
	}
	return &Scheduler{
		svc:        svc,
		profiles:   profiles,
		alertMgr:   alertMgr,
		refreshInt: refreshInt,
		digestInt:  digestInt,
	}
}

// Run starts the scheduler loop. Blocks until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	refreshTicker := time.NewTicker(s.refreshInt)
	digestTicker := time.NewTicker(s.digestInt)
	defer refreshTicker.Stop()
	defer digestTicker.Stop()

	s.Refresh(ctx)
	s.Digest(ctx)

	logging.Info().Dur("refresh_interval", s.refreshInt).Dur("digest_interval", s.digestInt).
		Msg("scheduler running")

	for {
		select {
		case <-ctx.Done():
			logging.Info().Msg("scheduler stopped")
			return ctx.Err()
		case <-refreshTicker.C:
			s.Refresh(ctx)
		case <-digestTicker.C:
			s.Digest(ctx)
		}
	}
}

// Refresh caches places for every configured region.
func (s *Scheduler) Refresh(ctx context.Context) int {
	n, err := s.svc.RefreshPlaces(ctx)
	if err != nil {
		logging.Warn().Err(err).Msg("place refresh failed")
		return 0
	}
	logging.Info().Int("places", n).Msg("place cache refreshed")
	return n
}

// Digest recomputes every profile's top pick and alerts on changes. It
// returns the number of profiles whose pick changed.
func (s *Scheduler) Digest(ctx context.Context) int {
	recs, err := s.profiles.ListProfiles(ctx)
	if err != nil {
		logging.Error().Err(err).Msg("list profiles failed")
		return 0
	}

	changed := 0
	for i := range recs {
		if ctx.Err() != nil {
			break
		}
		change, err := s.svc.UpdateTopPick(ctx, &recs[i])
		if err != nil {
			logging.Warn().Err(err).Str("profile", recs[i].ID).Msg("top pick update failed")
			continue
		}
		if change == nil {
			continue
		}
		changed++

		logging.Info().Str("profile", change.ProfileID).Str("destination", change.Current.Name).
			Int("score", change.Current.RelevanceScore).Msg("top pick changed")

		if !s.alertMgr.HasNotifiers() {
			continue
		}
		if err := s.alertMgr.Broadcast(ctx, alert.FromChange(change)); err != nil {
			logging.Warn().Err(err).Str("profile", change.ProfileID).Msg("alert failed")
		}
	}
	return changed
}

package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elonfeng/tripradar/pkg/match"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestDestinations_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	hours := 1.0
	dests := []match.Destination{
		{
			Name:                  "Hammamet",
			Region:                "coast",
			BestFor:               []string{"beach", "relaxation"},
			BudgetLevels:          []string{"Budget", "Moderate"},
			CrowdLevel:            match.CrowdLevelModerate,
			TravelTimeFromCapital: "1 hour",
			TravelHours:           &hours,
			FamilyFriendly:        true,
			EstimatedCost:         match.CostRange{Min: 40, Max: 120},
			Location:              match.Location{Lat: 36.4, Lng: 10.6},
			ImageURL:              "https://images.example/hammamet.jpg",
		},
		{Name: "Douz", Region: "desert", BestFor: []string{"desertAdventure"}},
	}
	require.NoError(t, s.UpsertDestinations(ctx, dests))

	n, err := s.CountDestinations(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	got, err := s.GetDestination(ctx, "Hammamet")
	require.NoError(t, err)
	assert.Equal(t, "coast", got.Region)
	assert.Equal(t, []string{"beach", "relaxation"}, got.BestFor)
	require.NotNil(t, got.TravelHours)
	assert.Equal(t, 1.0, *got.TravelHours)
	assert.Equal(t, 120.0, got.EstimatedCost.Max)
	assert.Empty(t, got.ImageURL, "image URLs are not persisted")

	_, err = s.GetDestination(ctx, "Atlantis")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDestinations_UpsertKeepsOrder(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.UpsertDestinations(ctx, []match.Destination{
		{Name: "A", Region: "north"},
		{Name: "B", Region: "south"},
		{Name: "C", Region: "coast"},
	}))
	require.NoError(t, s.UpsertDestinations(ctx, []match.Destination{
		{Name: "A", Region: "desert"},
	}))

	list, err := s.ListDestinations(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []string{"A", "B", "C"}, []string{list[0].Name, list[1].Name, list[2].Name})
	assert.Equal(t, "desert", list[0].Region)
}

func TestDestinations_RequireName(t *testing.T) {
	s := newTestStore(t)
	err := s.UpsertDestinations(context.Background(), []match.Destination{{Region: "coast"}})
	assert.Error(t, err)
}

func TestProfiles(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	rec := &ProfileRecord{
		ID: "p1",
		Profile: match.Profile{
			TravelerType:     match.TravelerFamily,
			BudgetRange:      match.BudgetLow,
			PreferredRegions: []string{"coast"},
			Interests:        map[match.Interest]int{match.InterestBeach: 5},
			TravelStyle:      &match.TravelStyle{CrowdTolerance: match.CrowdAvoid},
		},
	}
	require.NoError(t, s.SaveProfile(ctx, rec))
	created := rec.CreatedAt
	assert.False(t, created.IsZero())

	got, err := s.GetProfile(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, rec.Profile, got.Profile)

	rec.Profile.BudgetRange = match.BudgetHigh
	require.NoError(t, s.SaveProfile(ctx, rec))

	got, err = s.GetProfile(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, match.BudgetHigh, got.Profile.BudgetRange)
	assert.True(t, got.CreatedAt.Equal(created), "created_at survives updates")

	require.NoError(t, s.SaveProfile(ctx, &ProfileRecord{ID: "p2"}))
	all, err := s.ListProfiles(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	_, err = s.GetProfile(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.Error(t, s.SaveProfile(ctx, &ProfileRecord{}))
}

func TestPlaces(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	open := true
	old := time.Now().Add(-48 * time.Hour)
	fresh := time.Now()

	require.NoError(t, s.UpsertPlaces(ctx, []match.ExternalPlace{
		{ID: "old", Name: "Old Souq", Region: "north", Types: []string{"market"}},
	}, old))
	require.NoError(t, s.UpsertPlaces(ctx, []match.ExternalPlace{
		{ID: "g1", Name: "Yasmine Beach", Region: "coast", Rating: 4.4, UserRatingsTotal: 320,
			Types: []string{"natural_feature"}, OpenNow: &open, Source: "google_places",
			Location: match.Location{Lat: 36.37, Lng: 10.54}},
		{ID: "f1", Name: "Ksar Ghilane", Region: "desert"},
		{Name: "no id"},
	}, fresh))

	all, err := s.ListPlaces(ctx, nil, time.Time{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	recent, err := s.ListPlaces(ctx, nil, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.Len(t, recent, 2)

	coast, err := s.ListPlaces(ctx, []string{"coast", "north"}, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	require.Len(t, coast, 1)

	p := coast[0]
	assert.Equal(t, "Yasmine Beach", p.Name)
	assert.Equal(t, []string{"natural_feature"}, p.Types)
	require.NotNil(t, p.OpenNow)
	assert.True(t, *p.OpenNow)
	assert.Equal(t, 320, p.UserRatingsTotal)
	assert.InDelta(t, 36.37, p.Location.Lat, 1e-9)

	desert, err := s.ListPlaces(ctx, []string{"desert"}, time.Time{})
	require.NoError(t, err)
	require.Len(t, desert, 1)
	assert.Nil(t, desert[0].OpenNow)
}

func TestTopPicks(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	_, err := s.GetTopPick(ctx, "p1", "catalog")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.SetTopPick(ctx, &TopPick{ProfileID: "p1", Mode: "catalog", Name: "Hammamet", Score: 35}))
	require.NoError(t, s.SetTopPick(ctx, &TopPick{ProfileID: "p1", Mode: "catalog", Name: "Djerba", Score: 40}))

	pick, err := s.GetTopPick(ctx, "p1", "catalog")
	require.NoError(t, err)
	assert.Equal(t, "Djerba", pick.Name)
	assert.Equal(t, 40, pick.Score)
}

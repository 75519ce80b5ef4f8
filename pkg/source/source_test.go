package source

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elonfeng/tripradar/pkg/match"
)

var coast = Region{Name: "coast", Lat: 35.8, Lng: 10.6, Keyword: "beach resorts"}

func TestQueryText(t *testing.T) {
	q := Query{Region: coast, Keywords: []string{"beach", " ", "museum"}}
	assert.Equal(t, "beach resorts beach museum", q.Text())

	q = Query{Keywords: []string{"souk"}}
	assert.Equal(t, "souk", q.Text())
}

func TestBuildQuery(t *testing.T) {
	n := match.NewNormalizer(nil)

	profile := &match.Profile{Interests: map[match.Interest]int{
		match.InterestBeach:           2,
		match.InterestCultureHistory:  5,
		match.InterestFoodGastronomy:  5,
		match.InterestNatureMountains: 4,
		match.InterestNightlife:       1,
	}}
	q := BuildQuery(profile, coast, n)

	var want []string
	for _, i := range []match.Interest{match.InterestCultureHistory, match.InterestFoodGastronomy, match.InterestNatureMountains} {
		want = append(want, n.Keywords(i)...)
	}
	assert.Equal(t, want, q.Keywords)
	assert.Equal(t, coast, q.Region)

	empty := BuildQuery(&match.Profile{}, coast, n)
	assert.Equal(t, []string{"tourist attraction"}, empty.Keywords)
}

func TestGooglePlacesSearch(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		assert.Equal(t, "secret", r.URL.Query().Get("key"))
		assert.Equal(t, "35.8,10.6", r.URL.Query().Get("location"))
		assert.Equal(t, "50000", r.URL.Query().Get("radius"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"status": "OK",
			"results": [
				{
					"place_id": "p1",
					"name": "Sidi Bou Said Beach",
					"rating": 4.6,
					"user_ratings_total": 120,
					"types": ["natural_feature", "point_of_interest"],
					"vicinity": "Sidi Bou Said",
					"opening_hours": {"open_now": true},
					"geometry": {"location": {"lat": 36.87, "lng": 10.34}}
				},
				{"place_id": "p2", "name": "Cafe des Delices"}
			]
		}`))
	}))
	defer srv.Close()

	g := NewGooglePlaces(GoogleOptions{APIKey: "secret", BaseURL: srv.URL})
	places, err := g.Search(context.Background(), Query{Region: coast, Keywords: []string{"beach"}})
	require.NoError(t, err)
	require.Len(t, places, 2)
	assert.Contains(t, gotQuery, "keyword=beach+resorts+beach")

	p := places[0]
	assert.Equal(t, "p1", p.ID)
	assert.Equal(t, 4.6, p.Rating)
	assert.Equal(t, 120, p.UserRatingsTotal)
	require.NotNil(t, p.OpenNow)
	assert.True(t, *p.OpenNow)
	assert.Equal(t, 36.87, p.Location.Lat)
	assert.Equal(t, "coast", p.Region)
	assert.Equal(t, "google_places", p.Source)

	assert.Nil(t, places[1].OpenNow)
}

func TestGooglePlacesErrors(t *testing.T) {
	t.Run("no key", func(t *testing.T) {
		_, err := NewGooglePlaces(GoogleOptions{}).Search(context.Background(), Query{Region: coast})
		assert.ErrorIs(t, err, ErrNotConfigured)
	})

	t.Run("http status", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer srv.Close()
		_, err := NewGooglePlaces(GoogleOptions{APIKey: "k", BaseURL: srv.URL}).Search(context.Background(), Query{Region: coast})
		assert.ErrorContains(t, err, "500")
	})

	t.Run("api status", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"status":"REQUEST_DENIED","error_message":"bad key"}`))
		}))
		defer srv.Close()
		_, err := NewGooglePlaces(GoogleOptions{APIKey: "k", BaseURL: srv.URL}).Search(context.Background(), Query{Region: coast})
		assert.ErrorContains(t, err, "REQUEST_DENIED")
	})

	t.Run("zero results", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"status":"ZERO_RESULTS","results":[]}`))
		}))
		defer srv.Close()
		places, err := NewGooglePlaces(GoogleOptions{APIKey: "k", BaseURL: srv.URL}).Search(context.Background(), Query{Region: coast})
		require.NoError(t, err)
		assert.Empty(t, places)
	})
}

const testFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0" xmlns:geo="http://www.w3.org/2003/01/geo/wgs84_pos#">
<channel>
  <title>Coast picks</title>
  <item>
    <guid>bardo</guid>
    <title>Bardo Museum</title>
    <category>museum</category>
    <category>tourist_attraction</category>
    <rating>4.7</rating>
    <reviews>800</reviews>
    <geo:lat>36.809</geo:lat>
    <geo:long>10.134</geo:long>
  </item>
  <item>
    <link>https://example.com/souk</link>
    <title>Souk El Attarine</title>
  </item>
  <item>
    <title>No identity</title>
  </item>
</channel>
</rss>`

func TestFeedsSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "tripradar/1.0", r.UserAgent())
		_, _ = w.Write([]byte(testFeed))
	}))
	defer srv.Close()

	f := NewFeeds([]Feed{
		{Name: "coastal", URL: srv.URL, Region: "Coast"},
		{Name: "desert", URL: srv.URL + "/unused", Region: "desert"},
	})
	places, err := f.Search(context.Background(), Query{Region: coast})
	require.NoError(t, err)
	require.Len(t, places, 2)

	bardo := places[0]
	assert.Equal(t, "feed:coastal:bardo", bardo.ID)
	assert.Equal(t, "Bardo Museum", bardo.Name)
	assert.Equal(t, []string{"museum", "tourist_attraction"}, bardo.Types)
	assert.Equal(t, 4.7, bardo.Rating)
	assert.Equal(t, 800, bardo.UserRatingsTotal)
	assert.InDelta(t, 36.809, bardo.Location.Lat, 1e-9)
	assert.InDelta(t, 10.134, bardo.Location.Lng, 1e-9)
	assert.Equal(t, "coast", bardo.Region)
	assert.Equal(t, "feed", bardo.Source)

	assert.Equal(t, "feed:coastal:https://example.com/souk", places[1].ID)
}

func TestFeedsPartialFailure(t *testing.T) {
	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(testFeed))
	}))
	defer good.Close()
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer bad.Close()

	places, err := NewFeeds([]Feed{{Name: "bad", URL: bad.URL}, {Name: "good", URL: good.URL}}).
		Search(context.Background(), Query{Region: coast})
	require.NoError(t, err)
	assert.Len(t, places, 2)

	_, err = NewFeeds([]Feed{{Name: "bad", URL: bad.URL}}).Search(context.Background(), Query{Region: coast})
	assert.ErrorContains(t, err, "502")
}

func TestFilter(t *testing.T) {
	f := NewFilter([]string{"Pharmacy"}, []string{"hotel ibis"})

	keep := []match.ExternalPlace{
		{Name: "Medina", Types: []string{"tourist_attraction", "atm"}},
		{Name: "Untyped spot"},
	}
	drop := []match.ExternalPlace{
		{Name: "BIAT", Types: []string{"bank", "atm"}},
		{Name: "Shell", Types: []string{"gas_station"}},
		{Name: "Night pharmacy", Types: []string{"pharmacy"}},
		{Name: "Hotel Ibis Sfax", Types: []string{"lodging"}},
		{Name: "", Types: []string{"museum"}},
	}
	for _, p := range keep {
		assert.True(t, f.Keep(p), p.Name)
	}
	for _, p := range drop {
		assert.False(t, f.Keep(p), p.Name)
	}

	assert.Equal(t, keep, f.Apply(append(append([]match.ExternalPlace{}, drop...), keep...)))

	var none *Filter
	assert.Len(t, none.Apply(drop), len(drop))
}

type stubSource struct {
	name  SourceType
	delay time.Duration
	err   error
	calls atomic.Int32
	fn    func(q Query) []match.ExternalPlace
}

func (s *stubSource) Name() SourceType { return s.name }

func (s *stubSource) Search(ctx context.Context, q Query) ([]match.ExternalPlace, error) {
	s.calls.Add(1)
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if s.err != nil {
		return nil, s.err
	}
	return s.fn(q), nil
}

func namedPlaces(source string) func(Query) []match.ExternalPlace {
	return func(q Query) []match.ExternalPlace {
		return []match.ExternalPlace{{
			ID:     source + "-" + q.Region.Name,
			Name:   source + " " + q.Region.Name,
			Region: q.Region.Name,
		}}
	}
}

func TestCollectorOrdering(t *testing.T) {
	slow := &stubSource{name: "slow", delay: 20 * time.Millisecond, fn: namedPlaces("slow")}
	fast := &stubSource{name: "fast", fn: namedPlaces("fast")}
	regions := []Region{coast, {Name: "desert", Lat: 33.7, Lng: 8.7}}

	c := NewCollector([]Source{slow, fast}, regions, nil, nil)
	profile := &match.Profile{PreferredRegions: []string{"desert", "coast", "DESERT"}}

	places, err := c.Collect(context.Background(), profile)
	require.NoError(t, err)

	var ids []string
	for _, p := range places {
		ids = append(ids, p.ID)
	}
	assert.Equal(t, []string{"slow-desert", "fast-desert", "slow-coast", "fast-coast"}, ids)
}

func TestCollectorResolve(t *testing.T) {
	c := NewCollector([]Source{&stubSource{name: "s"}}, []Region{coast}, nil, nil)

	assert.Equal(t, []Region{coast}, c.Resolve(nil))

	got := c.Resolve([]string{"Atlantis"})
	require.Len(t, got, 1)
	assert.Equal(t, "Atlantis", got[0].Name)
	assert.Equal(t, coast.Lat, got[0].Lat)
}

func TestCollectorErrors(t *testing.T) {
	boom := errors.New("boom")
	ok := &stubSource{name: "ok", fn: namedPlaces("ok")}
	bad := &stubSource{name: "bad", err: boom}

	c := NewCollector([]Source{bad, ok}, []Region{coast}, nil, nil)
	places, err := c.Collect(context.Background(), &match.Profile{})
	require.Error(t, err)
	assert.Len(t, places, 1)

	var ce *CollectError
	require.ErrorAs(t, err, &ce)
	assert.False(t, ce.AllFailed())
	assert.ErrorIs(t, err, boom)
	assert.ErrorContains(t, err, "bad/coast")

	c = NewCollector([]Source{bad}, []Region{coast}, nil, nil)
	places, err = c.Collect(context.Background(), &match.Profile{})
	require.ErrorAs(t, err, &ce)
	assert.True(t, ce.AllFailed())
	assert.Empty(t, places)

	_, err = NewCollector(nil, nil, nil, nil).Collect(context.Background(), &match.Profile{})
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestCollectorAppliesFilter(t *testing.T) {
	src := &stubSource{name: "s", fn: func(q Query) []match.ExternalPlace {
		return []match.ExternalPlace{
			{ID: "1", Name: "Bank", Types: []string{"bank"}},
			{ID: "2", Name: "Ribat", Types: []string{"museum"}},
		}
	}}
	c := NewCollector([]Source{src}, []Region{coast}, nil, NewFilter(nil, nil))
	places, err := c.Collect(context.Background(), &match.Profile{})
	require.NoError(t, err)
	require.Len(t, places, 1)
	assert.Equal(t, "2", places[0].ID)
}

func TestBreakerOpens(t *testing.T) {
	src := &stubSource{name: "flaky", err: errors.New("down")}
	b := NewBreaker(src, BreakerSettings{
		MaxRequests:  1,
		Interval:     time.Minute,
		Timeout:      time.Minute,
		MinRequests:  2,
		FailureRatio: 0.5,
	})
	assert.Equal(t, SourceType("flaky"), b.Name())

	for range 2 {
		_, err := b.Search(context.Background(), Query{Region: coast})
		assert.ErrorContains(t, err, "down")
	}
	assert.Equal(t, gobreaker.StateOpen, b.State())

	_, err := b.Search(context.Background(), Query{Region: coast})
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, int32(2), src.calls.Load())
}

func TestBreakerIgnoresMissingCredentials(t *testing.T) {
	src := &stubSource{name: "nokey", err: ErrNotConfigured}
	b := NewBreaker(src, BreakerSettings{MaxRequests: 1, MinRequests: 1, FailureRatio: 0.1})

	for range 3 {
		_, err := b.Search(context.Background(), Query{Region: coast})
		assert.ErrorIs(t, err, ErrNotConfigured)
	}
	assert.Equal(t, gobreaker.StateClosed, b.State())
}

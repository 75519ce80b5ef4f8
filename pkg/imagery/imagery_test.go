package imagery

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elonfeng/tripradar/pkg/match"
	"github.com/elonfeng/tripradar/pkg/source"
)

func TestUnsplashLookup(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search/photos", r.URL.Path)
		assert.Equal(t, "Client-ID key", r.Header.Get("Authorization"))
		assert.Equal(t, "landscape", r.URL.Query().Get("orientation"))
		assert.Equal(t, "1", r.URL.Query().Get("per_page"))

		if r.URL.Query().Get("query") == "nothing" {
			_, _ = w.Write([]byte(`{"results":[]}`))
			return
		}
		_, _ = w.Write([]byte(`{"results":[{"urls":{"regular":"https://images.unsplash.com/a.jpg","small":"x"}}]}`))
	}))
	defer srv.Close()

	u := NewUnsplash("key", srv.URL, source.DefaultBreakerSettings())

	got, err := u.Lookup(context.Background(), "tourist attraction")
	require.NoError(t, err)
	assert.Equal(t, "https://images.unsplash.com/a.jpg", got)

	got, err = u.Lookup(context.Background(), "nothing")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestUnsplashErrors(t *testing.T) {
	_, err := NewUnsplash("", "", source.DefaultBreakerSettings()).Lookup(context.Background(), "x")
	assert.ErrorIs(t, err, ErrNoAccessKey)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	_, err = NewUnsplash("key", srv.URL, source.DefaultBreakerSettings()).Lookup(context.Background(), "x")
	assert.ErrorContains(t, err, "403")
}

type fakeLooker struct {
	mu    sync.Mutex
	terms []string
}

func (f *fakeLooker) Lookup(_ context.Context, q string) (string, error) {
	f.mu.Lock()
	f.terms = append(f.terms, q)
	f.mu.Unlock()
	if strings.HasPrefix(q, "fail") {
		return "", errors.New("lookup failed")
	}
	if q == "empty" {
		return "", nil
	}
	return "img://" + q, nil
}

func TestSearchTerm(t *testing.T) {
	assert.Equal(t, "tourist attraction", SearchTerm(match.Destination{Name: "Bardo", PlaceType: "tourist_attraction"}))
	assert.Equal(t, "Djerba", SearchTerm(match.Destination{Name: "Djerba"}))
}

func TestEnrich(t *testing.T) {
	items := []match.ScoredDestination{
		{Destination: match.Destination{Name: "Hammamet"}},
		{Destination: match.Destination{Name: "Bardo", PlaceType: "art_gallery"}},
		{Destination: match.Destination{Name: "fail me", ImageURL: "keep"}},
		{Destination: match.Destination{Name: "empty"}},
	}
	l := &fakeLooker{}

	NewEnricher(l, 2).Enrich(context.Background(), items)

	assert.Equal(t, "img://Hammamet", items[0].ImageURL)
	assert.Equal(t, "img://art gallery", items[1].ImageURL)
	assert.Equal(t, "keep", items[2].ImageURL)
	assert.Empty(t, items[3].ImageURL)
	assert.Len(t, l.terms, 4)
}

func TestEnrichCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	l := &fakeLooker{}
	items := []match.ScoredDestination{{Destination: match.Destination{Name: "Tozeur"}}}
	NewEnricher(l, 0).Enrich(ctx, items)

	assert.Empty(t, l.terms)
	assert.Empty(t, items[0].ImageURL)
}

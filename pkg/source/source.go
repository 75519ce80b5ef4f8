package source

import (
	"context"
	"errors"
	"strings"

	"github.com/elonfeng/tripradar/pkg/match"
)

// SourceType identifies which service a place came from.
type SourceType string

const (
	SourceGooglePlaces SourceType = "google_places"
	SourceFeed         SourceType = "feed"
)

// ErrNotConfigured is returned by sources missing required credentials.
var ErrNotConfigured = errors.New("source not configured")

// Region is a searchable area: a centre point plus a phrase describing
// what the area is known for.
type Region struct {
	Name    string
	Lat     float64
	Lng     float64
	Keyword string
}

// Query is one search in one region.
type Query struct {
	Region   Region
	Keywords []string
}

// Text joins the region phrase and the keywords into one search string.
func (q Query) Text() string {
	parts := make([]string, 0, len(q.Keywords)+1)
	if q.Region.Keyword != "" {
		parts = append(parts, q.Region.Keyword)
	}
	for _, kw := range q.Keywords {
		if kw = strings.TrimSpace(kw); kw != "" {
			parts = append(parts, kw)
		}
	}
	return strings.Join(parts, " ")
}

// Source is the interface every place provider must implement.
type Source interface {
	Name() SourceType
	Search(ctx context.Context, q Query) ([]match.ExternalPlace, error)
}

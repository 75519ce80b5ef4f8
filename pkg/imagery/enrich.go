package imagery

import (
	"context"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/elonfeng/tripradar/internal/logging"
	"github.com/elonfeng/tripradar/pkg/match"
)

// Looker finds an image URL for a search term.
type Looker interface {
	Lookup(ctx context.Context, query string) (string, error)
}

// Enricher fills in ImageURL on scored destinations.
type Enricher struct {
	looker      Looker
	concurrency int
}

// NewEnricher creates an enricher running at most concurrency lookups at a
// time.
func NewEnricher(l Looker, concurrency int) *Enricher {
	if concurrency <= 0 {
		concurrency = 4
	}
	return &Enricher{looker: l, concurrency: concurrency}
}

// SearchTerm is the place type with underscores as spaces, or the name when
// the destination has no place type.
func SearchTerm(d match.Destination) string {
	if d.PlaceType != "" {
		return strings.ReplaceAll(d.PlaceType, "_", " ")
	}
	return d.Name
}

// Enrich looks up an image for every item in place. A failed lookup leaves
// its item unchanged. Enrich never fails; it stops early only when ctx is
// cancelled.
func (e *Enricher) Enrich(ctx context.Context, items []match.ScoredDestination) {
	var g errgroup.Group
	g.SetLimit(e.concurrency)

	for i := range items {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			term := SearchTerm(items[i].Destination)
			url, err := e.looker.Lookup(ctx, term)
			if err != nil {
				logging.Warn().Err(err).Str("destination", items[i].Name).Msg("image lookup failed")
				return nil
			}
			if url != "" {
				items[i].ImageURL = url
			}
			return nil
		})
	}
	_ = g.Wait()
}

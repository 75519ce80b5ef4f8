package source

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/elonfeng/tripradar/internal/logging"
	"github.com/elonfeng/tripradar/internal/metrics"
	"github.com/elonfeng/tripradar/pkg/match"
)

// DefaultRegion is searched when a profile names no region.
const DefaultRegion = "coast"

const defaultConcurrency = 4

// Collector runs every source against every region a profile prefers.
type Collector struct {
	sources     []Source
	all         []Region
	regions     map[string]Region
	fallback    Region
	normalizer  *match.Normalizer
	filter      *Filter
	concurrency int
}

// NewCollector creates a collector over sources. Regions are looked up by
// name, case-insensitively. A nil filter keeps every place.
func NewCollector(sources []Source, regions []Region, n *match.Normalizer, f *Filter) *Collector {
	c := &Collector{
		sources:     sources,
		all:         regions,
		regions:     make(map[string]Region, len(regions)),
		normalizer:  n,
		filter:      f,
		concurrency: defaultConcurrency,
	}
	if c.normalizer == nil {
		c.normalizer = match.NewNormalizer(nil)
	}
	for _, r := range regions {
		c.regions[strings.ToLower(r.Name)] = r
	}

	if r, ok := c.regions[DefaultRegion]; ok {
		c.fallback = r
	} else if len(regions) > 0 {
		c.fallback = regions[0]
	} else {
		c.fallback = Region{Name: DefaultRegion, Lat: 35.8, Lng: 10.6}
	}
	return c
}

// SetConcurrency caps the number of searches in flight.
func (c *Collector) SetConcurrency(n int) {
	if n > 0 {
		c.concurrency = n
	}
}

// Sources returns the names of the configured sources.
func (c *Collector) Sources() []SourceType {
	names := make([]SourceType, len(c.sources))
	for i, s := range c.sources {
		names[i] = s.Name()
	}
	return names
}

// Regions returns the configured regions in order.
func (c *Collector) Regions() []Region {
	return append([]Region(nil), c.all...)
}

// Resolve maps region names to searchable regions, dropping duplicates.
// Unknown names search the default region's area under their own name.
// An empty list resolves to the default region.
func (c *Collector) Resolve(names []string) []Region {
	seen := make(map[string]bool, len(names))
	var out []Region
	for _, name := range names {
		key := strings.ToLower(strings.TrimSpace(name))
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true

		r, ok := c.regions[key]
		if !ok {
			r = c.fallback
			r.Name = name
		}
		out = append(out, r)
	}
	if len(out) == 0 {
		out = []Region{c.fallback}
	}
	return out
}

// Collect searches the profile's preferred regions. See CollectRegions.
func (c *Collector) Collect(ctx context.Context, profile *match.Profile) ([]match.ExternalPlace, error) {
	return c.CollectRegions(ctx, profile, c.Resolve(profile.PreferredRegions))
}

// CollectRegions searches every region with every source concurrently.
// Results merge in region order then source order and pass through the
// filter. A non-nil error is a *CollectError; places from the pairs that
// succeeded are returned alongside it.
func (c *Collector) CollectRegions(ctx context.Context, profile *match.Profile, regions []Region) ([]match.ExternalPlace, error) {
	if len(c.sources) == 0 {
		return nil, fmt.Errorf("collect: %w", ErrNotConfigured)
	}

	slots := make([][]match.ExternalPlace, len(regions)*len(c.sources))
	errs := make([]error, len(slots))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)

	for ri, region := range regions {
		q := BuildQuery(profile, region, c.normalizer)
		for si, src := range c.sources {
			slot := ri*len(c.sources) + si
			g.Go(func() error {
				start := time.Now()
				places, err := src.Search(gctx, q)
				metrics.RecordSourceRequest(string(src.Name()), time.Since(start), err)
				if err != nil {
					logging.Warn().Err(err).Str("source", string(src.Name())).
						Str("region", region.Name).Msg("source search failed")
					errs[slot] = fmt.Errorf("%s/%s: %w", src.Name(), region.Name, err)
					return nil
				}
				slots[slot] = places
				return nil
			})
		}
	}
	_ = g.Wait()

	var merged []match.ExternalPlace
	for _, places := range slots {
		merged = append(merged, places...)
	}
	merged = c.filter.Apply(merged)

	logging.Debug().Int("regions", len(regions)).Int("sources", len(c.sources)).
		Int("places", len(merged)).Msg("collection finished")

	var failed []error
	for _, err := range errs {
		if err != nil {
			failed = append(failed, err)
		}
	}
	if len(failed) == 0 {
		return merged, nil
	}
	return merged, &CollectError{Attempted: len(slots), Errs: failed}
}

// CollectError lists the source/region pairs that failed during a collection.
type CollectError struct {
	Attempted int
	Errs      []error
}

func (e *CollectError) Error() string {
	return fmt.Sprintf("%d of %d searches failed: %v", len(e.Errs), e.Attempted, errors.Join(e.Errs...))
}

func (e *CollectError) Unwrap() []error { return e.Errs }

// AllFailed reports whether no search succeeded.
func (e *CollectError) AllFailed() bool {
	return len(e.Errs) >= e.Attempted
}

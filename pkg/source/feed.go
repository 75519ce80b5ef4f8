package source

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/elonfeng/tripradar/internal/logging"
	"github.com/elonfeng/tripradar/pkg/match"
)

// Feed is a named RSS/Atom feed of places. An empty Region means the feed
// serves every region.
type Feed struct {
	Name   string
	URL    string
	Region string
}

// Feeds reads places from RSS/Atom feeds. Each entry is one place: the GUID
// identifies it, the title names it and the categories are its type tags.
// RSS entries may carry <rating>, <reviews> and geo:lat/geo:long elements.
type Feeds struct {
	client *http.Client
	parser *gofeed.Parser
	feeds  []Feed
}

// NewFeeds creates a new feed source.
func NewFeeds(feeds []Feed) *Feeds {
	return &Feeds{
		client: &http.Client{Timeout: 30 * time.Second},
		parser: gofeed.NewParser(),
		feeds:  feeds,
	}
}

func (f *Feeds) Name() SourceType { return SourceFeed }

// Search reads every feed that applies to the query region. It fails only
// when every applicable feed fails.
func (f *Feeds) Search(ctx context.Context, q Query) ([]match.ExternalPlace, error) {
	var (
		places []match.ExternalPlace
		errs   []error
		tried  int
	)

	for _, feed := range f.feeds {
		if feed.Region != "" && !strings.EqualFold(feed.Region, q.Region.Name) {
			continue
		}
		tried++

		items, err := f.readFeed(ctx, feed, q.Region.Name)
		if err != nil {
			logging.Warn().Err(err).Str("feed", feed.Name).Msg("feed read failed")
			errs = append(errs, err)
			continue
		}
		places = append(places, items...)
	}

	if tried > 0 && len(errs) == tried {
		return nil, errors.Join(errs...)
	}
	return places, nil
}

func (f *Feeds) readFeed(ctx context.Context, feed Feed, region string) ([]match.ExternalPlace, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feed.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("create feed request %s: %w", feed.Name, err)
	}
	req.Header.Set("User-Agent", "tripradar/1.0")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch feed %s: %w", feed.Name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed %s status %d", feed.Name, resp.StatusCode)
	}

	parsed, err := f.parser.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", feed.Name, err)
	}

	places := make([]match.ExternalPlace, 0, len(parsed.Items))
	for _, entry := range parsed.Items {
		id := entry.GUID
		if id == "" {
			id = entry.Link
		}
		if id == "" {
			continue
		}

		p := match.ExternalPlace{
			ID:     fmt.Sprintf("feed:%s:%s", feed.Name, id),
			Name:   strings.TrimSpace(entry.Title),
			Types:  entry.Categories,
			Region: region,
			Source: string(SourceFeed),
		}
		if v, ok := entry.Custom["rating"]; ok {
			p.Rating, _ = strconv.ParseFloat(strings.TrimSpace(v), 64)
		}
		if v, ok := entry.Custom["reviews"]; ok {
			p.UserRatingsTotal, _ = strconv.Atoi(strings.TrimSpace(v))
		}
		p.Location.Lat, p.Location.Lng = geoPoint(entry)
		places = append(places, p)
	}
	return places, nil
}

// geoPoint reads W3C geo extension elements when present.
func geoPoint(entry *gofeed.Item) (lat, lng float64) {
	geo, ok := entry.Extensions["geo"]
	if !ok {
		return 0, 0
	}
	if v := geo["lat"]; len(v) > 0 {
		lat, _ = strconv.ParseFloat(strings.TrimSpace(v[0].Value), 64)
	}
	if v := geo["long"]; len(v) > 0 {
		lng, _ = strconv.ParseFloat(strings.TrimSpace(v[0].Value), 64)
	}
	return lat, lng
}

package source

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/elonfeng/tripradar/pkg/match"
)

const defaultGoogleURL = "https://maps.googleapis.com/maps/api/place/nearbysearch/json"

// GoogleOptions configures the Places Nearby Search source.
type GoogleOptions struct {
	APIKey  string
	BaseURL string
	Radius  int
	// RequestsPerSecond caps outgoing calls. 0 means unlimited.
	RequestsPerSecond float64
}

// GooglePlaces searches the Google Places Nearby Search API.
type GooglePlaces struct {
	client  *http.Client
	apiKey  string
	baseURL string
	radius  int
	limiter *rate.Limiter
}

// NewGooglePlaces creates a new Google Places source.
func NewGooglePlaces(opts GoogleOptions) *GooglePlaces {
	if opts.BaseURL == "" {
		opts.BaseURL = defaultGoogleURL
	}
	if opts.Radius <= 0 {
		opts.Radius = 50000
	}
	limiter := rate.NewLimiter(rate.Inf, 0)
	if opts.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1)
	}
	return &GooglePlaces{
		client:  &http.Client{Timeout: 15 * time.Second},
		apiKey:  opts.APIKey,
		baseURL: opts.BaseURL,
		radius:  opts.Radius,
		limiter: limiter,
	}
}

func (g *GooglePlaces) Name() SourceType { return SourceGooglePlaces }

func (g *GooglePlaces) Search(ctx context.Context, q Query) ([]match.ExternalPlace, error) {
	if g.apiKey == "" {
		return nil, fmt.Errorf("google places: %w", ErrNotConfigured)
	}
	if err := g.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("google places rate limit: %w", err)
	}

	params := url.Values{}
	params.Set("location", formatCoord(q.Region.Lat)+","+formatCoord(q.Region.Lng))
	params.Set("radius", strconv.Itoa(g.radius))
	params.Set("keyword", q.Text())
	params.Set("key", g.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create google places request: %w", err)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch google places: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("google places API status %d", resp.StatusCode)
	}

	var result nearbyResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode google places response: %w", err)
	}

	switch result.Status {
	case "OK", "ZERO_RESULTS", "":
	default:
		return nil, fmt.Errorf("google places API %s: %s", result.Status, result.ErrorMessage)
	}

	places := make([]match.ExternalPlace, 0, len(result.Results))
	for _, r := range result.Results {
		p := match.ExternalPlace{
			ID:               r.PlaceID,
			Name:             r.Name,
			Rating:           r.Rating,
			UserRatingsTotal: r.UserRatingsTotal,
			Types:            r.Types,
			Vicinity:         r.Vicinity,
			Location:         match.Location{Lat: r.Geometry.Location.Lat, Lng: r.Geometry.Location.Lng},
			Region:           q.Region.Name,
			Source:           string(SourceGooglePlaces),
		}
		if r.OpeningHours != nil {
			p.OpenNow = r.OpeningHours.OpenNow
		}
		places = append(places, p)
	}
	return places, nil
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

type nearbyResponse struct {
	Status       string         `json:"status"`
	ErrorMessage string         `json:"error_message"`
	Results      []nearbyResult `json:"results"`
}

type nearbyResult struct {
	PlaceID          string   `json:"place_id"`
	Name             string   `json:"name"`
	Rating           float64  `json:"rating"`
	UserRatingsTotal int      `json:"user_ratings_total"`
	Types            []string `json:"types"`
	Vicinity         string   `json:"vicinity"`
	OpeningHours     *struct {
		OpenNow *bool `json:"open_now"`
	} `json:"opening_hours"`
	Geometry struct {
		Location struct {
			Lat float64 `json:"lat"`
			Lng float64 `json:"lng"`
		} `json:"location"`
	} `json:"geometry"`
}

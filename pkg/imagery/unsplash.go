// Package imagery attaches photos to recommendations.
package imagery

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/elonfeng/tripradar/pkg/source"
)

const defaultUnsplashURL = "https://api.unsplash.com"

// ErrNoAccessKey is returned when Unsplash has no access key.
var ErrNoAccessKey = errors.New("unsplash access key not set")

// Unsplash looks up photos with the Unsplash search API.
type Unsplash struct {
	client    *http.Client
	baseURL   string
	accessKey string
	cb        *gobreaker.CircuitBreaker[string]
}

// NewUnsplash creates a new Unsplash client.
func NewUnsplash(accessKey, baseURL string, s source.BreakerSettings) *Unsplash {
	if baseURL == "" {
		baseURL = defaultUnsplashURL
	}
	return &Unsplash{
		client:    &http.Client{Timeout: 10 * time.Second},
		baseURL:   baseURL,
		accessKey: accessKey,
		cb:        source.NewCircuitBreaker[string]("unsplash", s),
	}
}

// Lookup returns the regular-size URL of the first landscape photo matching
// query, or "" when nothing matches.
func (u *Unsplash) Lookup(ctx context.Context, query string) (string, error) {
	if u.accessKey == "" {
		return "", ErrNoAccessKey
	}
	return u.cb.Execute(func() (string, error) {
		return u.search(ctx, query)
	})
}

func (u *Unsplash) search(ctx context.Context, query string) (string, error) {
	params := url.Values{}
	params.Set("query", query)
	params.Set("per_page", "1")
	params.Set("orientation", "landscape")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.baseURL+"/search/photos?"+params.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("create unsplash request: %w", err)
	}
	req.Header.Set("Accept-Version", "v1")
	req.Header.Set("Authorization", "Client-ID "+u.accessKey)

	resp, err := u.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch unsplash: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unsplash API status %d", resp.StatusCode)
	}

	var result struct {
		Results []struct {
			URLs struct {
				Regular string `json:"regular"`
			} `json:"urls"`
		} `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decode unsplash response: %w", err)
	}
	if len(result.Results) == 0 {
		return "", nil
	}
	return result.Results[0].URLs.Regular, nil
}

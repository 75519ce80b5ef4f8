// Package alert notifies external channels when a profile's best
// recommendation changes.
package alert

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/elonfeng/tripradar/internal/logging"
	"github.com/elonfeng/tripradar/pkg/match"
	"github.com/elonfeng/tripradar/pkg/recommend"
)

// Notification describes a new top pick for a profile.
type Notification struct {
	ProfileID     string    `json:"profile_id"`
	Title         string    `json:"title"`
	Destination   string    `json:"destination"`
	Region        string    `json:"region"`
	Score         int       `json:"score"`
	Previous      string    `json:"previous,omitempty"`
	PreviousScore int       `json:"previous_score,omitempty"`
	Highlights    []string  `json:"highlights,omitempty"`
	ImageURL      string    `json:"image_url,omitempty"`
	Time          time.Time `json:"time"`
}

// FromChange builds the notification for a top pick change.
func FromChange(c *recommend.PickChange) *Notification {
	n := &Notification{
		ProfileID:   c.ProfileID,
		Title:       fmt.Sprintf("New top pick: %s", c.Current.Name),
		Destination: c.Current.Name,
		Region:      c.Current.Region,
		Score:       c.Current.RelevanceScore,
		Highlights:  highlights(c.Current.Destination),
		ImageURL:    c.Current.ImageURL,
		Time:        time.Now().UTC(),
	}
	if c.Previous != nil {
		n.Previous = c.Previous.Name
		n.PreviousScore = c.Previous.Score
	}
	return n
}

func highlights(d match.Destination) []string {
	src := d.Highlights
	if len(src) == 0 {
		src = d.Attractions
	}
	if len(src) > 3 {
		src = src[:3]
	}
	return append([]string(nil), src...)
}

// Summary is a one-line description used by chat notifiers.
func (n *Notification) Summary() string {
	s := fmt.Sprintf("%s (%s) scores %d/100", n.Destination, n.Region, n.Score)
	if n.Previous != "" {
		s += fmt.Sprintf(", replacing %s (%d)", n.Previous, n.PreviousScore)
	}
	return s
}

// Notifier delivers alerts to a specific destination.
type Notifier interface {
	Name() string
	Send(ctx context.Context, n *Notification) error
}

// Manager broadcasts notifications to all registered notifiers.
type Manager struct {
	notifiers []Notifier
}

// NewManager creates a new alert manager.
func NewManager(notifiers []Notifier) *Manager {
	return &Manager{notifiers: notifiers}
}

// HasNotifiers returns true if at least one notifier is configured.
func (m *Manager) HasNotifiers() bool {
	return len(m.notifiers) > 0
}

// Broadcast sends n to every notifier and joins their failures.
func (m *Manager) Broadcast(ctx context.Context, n *Notification) error {
	var errs []error
	for _, notifier := range m.notifiers {
		if err := notifier.Send(ctx, n); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", notifier.Name(), err))
			continue
		}
		logging.Debug().Str("notifier", notifier.Name()).Str("profile", n.ProfileID).Msg("alert sent")
	}
	return errors.Join(errs...)
}

// post sends a JSON body and treats any 2xx as success.
func post(ctx context.Context, client *http.Client, url string, body []byte, header http.Header) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "tripradar/1.0")
	for k, v := range header {
		req.Header[k] = v
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("send: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("status %d", resp.StatusCode)
	}
	return nil
}

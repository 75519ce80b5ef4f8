// Package catalog ships the curated destination catalog and loads it into
// the store.
package catalog

import (
	"context"
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/elonfeng/tripradar/internal/logging"
	"github.com/elonfeng/tripradar/pkg/match"
)

//go:embed seed.yaml
var seedYAML []byte

type document struct {
	Destinations []match.Destination `yaml:"destinations"`
}

// Writer is the part of the store seeding needs.
type Writer interface {
	CountDestinations(ctx context.Context) (int, error)
	UpsertDestinations(ctx context.Context, dests []match.Destination) error
}

// Load returns the embedded catalog.
func Load() ([]match.Destination, error) {
	return parse(seedYAML)
}

// LoadFile reads a catalog in the same YAML layout as the embedded one.
func LoadFile(path string) ([]match.Destination, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	dests, err := parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return dests, nil
}

func parse(data []byte) ([]match.Destination, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	seen := make(map[string]struct{}, len(doc.Destinations))
	for i, d := range doc.Destinations {
		if d.Name == "" {
			return nil, fmt.Errorf("destination %d: name is required", i)
		}
		if _, dup := seen[d.Name]; dup {
			return nil, fmt.Errorf("duplicate destination %q", d.Name)
		}
		seen[d.Name] = struct{}{}
	}
	return doc.Destinations, nil
}

// Seed writes the embedded catalog when the store has no destinations, or
// unconditionally when force is set. It returns how many were written.
func Seed(ctx context.Context, w Writer, force bool) (int, error) {
	if !force {
		n, err := w.CountDestinations(ctx)
		if err != nil {
			return 0, err
		}
		if n > 0 {
			logging.Info().Int("existing", n).Msg("catalog already seeded")
			return 0, nil
		}
	}

	dests, err := Load()
	if err != nil {
		return 0, err
	}
	if err := w.UpsertDestinations(ctx, dests); err != nil {
		return 0, fmt.Errorf("seed catalog: %w", err)
	}
	logging.Info().Int("destinations", len(dests)).Msg("catalog seeded")
	return len(dests), nil
}

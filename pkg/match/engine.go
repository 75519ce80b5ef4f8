// Package match scores destinations and external places against a user's
// travel preference profile.
//
// The engine is pure: it performs no I/O, holds no mutable state after
// construction and returns identical output for identical input. A single
// Engine may be shared by any number of goroutines.
//
// Two candidate shapes are supported:
//
//   - Catalog mode scores curated Destination records on six sub-scores
//     (interest, budget, region, travel style, trip duration, family).
//   - External mode scores places from a third-party places API after the
//     Normalizer has derived interest matches from their name and type tags.
//
// Every relevance score is an integer in [0, 100]. Results are ranked by
// score with ties kept in input order, then capped to the caller's topN.
package match

import (
	"errors"
	"fmt"
)

// ErrInvalidTopN is returned when the requested result cap is below one.
var ErrInvalidTopN = errors.New("topN must be at least 1")

// DurationMode selects how the trip-duration bonus reads a destination's
// travel time.
type DurationMode string

const (
	// DurationParsed compares numeric hours parsed from the destination.
	DurationParsed DurationMode = "parsed"
	// DurationSubstring reproduces the legacy check for the digits "1" and
	// "2" anywhere in the travel-time text.
	DurationSubstring DurationMode = "substring"
)

// Config tunes the engine.
type Config struct {
	// DurationMode defaults to DurationParsed.
	DurationMode DurationMode
	// ExtraKeywords are appended to the built-in external-mode keyword table.
	ExtraKeywords map[Interest][]string
}

// DefaultConfig returns the engine defaults.
func DefaultConfig() Config {
	return Config{DurationMode: DurationParsed}
}

// Validate checks the config for unknown modes.
func (c Config) Validate() error {
	switch c.DurationMode {
	case "", DurationParsed, DurationSubstring:
		return nil
	default:
		return fmt.Errorf("unknown duration mode %q", c.DurationMode)
	}
}

// Engine ranks candidates against a profile.
type Engine struct {
	durationMode DurationMode
	normalizer   *Normalizer
}

// NewEngine creates a scoring engine. Unknown duration modes fall back to
// DurationParsed; call Config.Validate first to reject them instead.
func NewEngine(cfg Config) *Engine {
	mode := cfg.DurationMode
	if mode != DurationSubstring {
		mode = DurationParsed
	}
	return &Engine{
		durationMode: mode,
		normalizer:   NewNormalizer(cfg.ExtraKeywords),
	}
}

// Normalizer returns the normalizer used for external candidates.
func (e *Engine) Normalizer() *Normalizer {
	return e.normalizer
}

// ScoreCatalog scores every destination, ranks them and returns at most topN.
func (e *Engine) ScoreCatalog(profile *Profile, candidates []Destination, topN int) ([]ScoredDestination, error) {
	if topN < 1 {
		return nil, ErrInvalidTopN
	}

	scored := make([]ScoredDestination, 0, len(candidates))
	for _, d := range candidates {
		b := e.ScoreDestination(profile, d)
		scored = append(scored, ScoredDestination{
			Destination:    d,
			RelevanceScore: finalScore(b),
			Breakdown:      b,
		})
	}

	return rank(scored, func(s ScoredDestination) int { return s.RelevanceScore }, topN), nil
}

// ScoreExternal deduplicates raw places by ID, normalizes and scores them,
// ranks them and returns at most topN.
func (e *Engine) ScoreExternal(profile *Profile, raw []ExternalPlace, topN int) ([]ScoredPlace, error) {
	if topN < 1 {
		return nil, ErrInvalidTopN
	}

	interests := profile.ActiveInterests()
	unique := Dedupe(raw)

	scored := make([]ScoredPlace, 0, len(unique))
	for _, p := range unique {
		n := e.normalizer.Normalize(p, interests)
		b := scoreNormalized(profile, n)
		scored = append(scored, ScoredPlace{
			NormalizedPlace: n,
			RelevanceScore:  finalScore(b),
			Breakdown:       b,
		})
	}

	return rank(scored, func(s ScoredPlace) int { return s.RelevanceScore }, topN), nil
}

package source

import (
	"context"
	"errors"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/elonfeng/tripradar/internal/logging"
	"github.com/elonfeng/tripradar/internal/metrics"
	"github.com/elonfeng/tripradar/pkg/match"
)

// BreakerSettings configures the circuit breaker placed in front of an
// external service.
type BreakerSettings struct {
	MaxRequests  uint32        // probes allowed while half-open
	Interval     time.Duration // closed-state count reset period
	Timeout      time.Duration // open period before probing again
	MinRequests  uint32
	FailureRatio float64
}

// DefaultBreakerSettings trips after 60% of at least 3 requests fail and
// probes again after 30 seconds.
func DefaultBreakerSettings() BreakerSettings {
	return BreakerSettings{
		MaxRequests:  1,
		Interval:     time.Minute,
		Timeout:      30 * time.Second,
		MinRequests:  3,
		FailureRatio: 0.6,
	}
}

// NewCircuitBreaker builds a breaker that reports its state under name.
// Cancelled calls and missing credentials do not count as failures.
func NewCircuitBreaker[T any](name string, s BreakerSettings) *gobreaker.CircuitBreaker[T] {
	metrics.CircuitBreakerState.WithLabelValues(name).Set(0)

	return gobreaker.NewCircuitBreaker[T](gobreaker.Settings{
		Name:        name,
		MaxRequests: s.MaxRequests,
		Interval:    s.Interval,
		Timeout:     s.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < s.MinRequests {
				return false
			}
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			if ratio >= s.FailureRatio {
				logging.Warn().Str("breaker", name).Uint32("failures", counts.TotalFailures).
					Float64("failure_rate", ratio*100).Msg("opening circuit")
				return true
			}
			return false
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Info().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).
				Msg("circuit state transition")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled) || errors.Is(err, ErrNotConfigured)
		},
	})
}

func stateToFloat(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}

// Breaker guards a Source with a circuit breaker. While open, Search fails
// fast with gobreaker.ErrOpenState.
type Breaker struct {
	src Source
	cb  *gobreaker.CircuitBreaker[[]match.ExternalPlace]
}

// NewBreaker wraps src.
func NewBreaker(src Source, s BreakerSettings) *Breaker {
	return &Breaker{
		src: src,
		cb:  NewCircuitBreaker[[]match.ExternalPlace](string(src.Name()), s),
	}
}

func (b *Breaker) Name() SourceType { return b.src.Name() }

func (b *Breaker) Search(ctx context.Context, q Query) ([]match.ExternalPlace, error) {
	return b.cb.Execute(func() ([]match.ExternalPlace, error) {
		return b.src.Search(ctx, q)
	})
}

// State reports the breaker state.
func (b *Breaker) State() gobreaker.State {
	return b.cb.State()
}

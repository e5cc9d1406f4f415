package embedding

import (
	"context"
	"errors"
	"fmt"

	"atscore/internal/config"
	atsErrors "atscore/internal/errors"

	"github.com/sony/gobreaker/v2"
)

// CircuitBreaker guards embedding calls. A nil *CircuitBreaker is valid and
// simply runs the wrapped function.
type CircuitBreaker struct {
	cb *gobreaker.CircuitBreaker[[][]float64]
}

// NewCircuitBreaker returns nil when the breaker is disabled
func NewCircuitBreaker(name string, cfg config.CircuitBreakerConfig, logger *atsErrors.Logger) *CircuitBreaker {
	if !cfg.Enabled {
		return nil
	}

	settings := gobreaker.Settings{
		Name:        fmt.Sprintf("Embedding-%s", name),
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= cfg.MinRequests &&
				failureRatio >= cfg.FailureThreshold
		},
		// a caller giving up is not a provider failure
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			if logger == nil {
				return
			}
			logger.Warn("Circuit breaker state changed",
				"name", name,
				"from", from.String(),
				"to", to.String(),
				"failure_threshold", cfg.FailureThreshold)
		},
	}

	return &CircuitBreaker{cb: gobreaker.NewCircuitBreaker[[][]float64](settings)}
}

// Execute runs fn under breaker protection
func (cb *CircuitBreaker) Execute(fn func() ([][]float64, error)) ([][]float64, error) {
	if cb == nil || cb.cb == nil {
		return fn()
	}
	vectors, err := cb.cb.Execute(fn)
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, atsErrors.NewEmbeddingError(atsErrors.ErrCodeCircuitOpen, "embedding provider circuit breaker is open", err)
	}
	return vectors, err
}

// GetStats returns circuit breaker statistics
func (cb *CircuitBreaker) GetStats() map[string]any {
	if cb == nil || cb.cb == nil {
		return map[string]any{
			"enabled": false,
		}
	}

	return map[string]any{
		"name":    cb.cb.Name(),
		"state":   cb.cb.State().String(),
		"counts":  cb.cb.Counts(),
		"enabled": true,
	}
}

// IsHealthy returns true if the circuit breaker is not open
func (cb *CircuitBreaker) IsHealthy() bool {
	if cb == nil || cb.cb == nil {
		return true
	}
	return cb.cb.State() != gobreaker.StateOpen
}

// BreakerProvider wraps a Provider with a circuit breaker
type BreakerProvider struct {
	next    Provider
	breaker *CircuitBreaker
}

// NewBreakerProvider wraps next with a breaker named after the provider
func NewBreakerProvider(next Provider, cfg config.CircuitBreakerConfig, logger *atsErrors.Logger) *BreakerProvider {
	return &BreakerProvider{
		next:    next,
		breaker: NewCircuitBreaker(next.Name(), cfg, logger),
	}
}

func (b *BreakerProvider) Name() string { return b.next.Name() }

func (b *BreakerProvider) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	return b.breaker.Execute(func() ([][]float64, error) {
		return b.next.Embed(ctx, texts)
	})
}

// Health reports an open breaker without touching the backend
func (b *BreakerProvider) Health(ctx context.Context) error {
	if !b.breaker.IsHealthy() {
		return atsErrors.NewEmbeddingError(atsErrors.ErrCodeCircuitOpen, "embedding provider circuit breaker is open", nil)
	}
	if hc, ok := b.next.(HealthChecker); ok {
		return hc.Health(ctx)
	}
	return nil
}

func (b *BreakerProvider) Stats() map[string]any {
	stats := map[string]any{"circuit_breaker": b.breaker.GetStats()}
	if sr, ok := b.next.(StatsReporter); ok {
		for k, v := range sr.Stats() {
			stats[k] = v
		}
	}
	return stats
}

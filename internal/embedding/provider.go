package embedding

import (
	"context"
	"fmt"

	"atscore/internal/config"
	"atscore/internal/errors"
)

// Provider turns texts into embedding vectors. Implementations return exactly
// one vector per input text, in input order.
type Provider interface {
	Embed(ctx context.Context, texts []string) ([][]float64, error)
	Name() string
}

// HealthChecker is implemented by providers that can check their backend
type HealthChecker interface {
	Health(ctx context.Context) error
}

// StatsReporter is implemented by providers that expose runtime statistics
type StatsReporter interface {
	Stats() map[string]any
}

// NewProvider builds the configured provider stack: the backend client,
// wrapped in a vector cache and a circuit breaker when enabled.
func NewProvider(ctx context.Context, cfg config.EmbeddingConfig, logger *errors.Logger) (Provider, error) {
	var base Provider
	switch cfg.Provider {
	case config.ProviderHTTP:
		p, err := NewHTTPProvider(cfg, logger)
		if err != nil {
			return nil, err
		}
		base = p
	case config.ProviderGemini:
		p, err := NewGeminiProvider(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
		base = p
	case config.ProviderNone:
		return NoopProvider{}, nil
	default:
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig,
			fmt.Sprintf("unknown embedding provider: %s", cfg.Provider), nil)
	}

	provider := base
	if cfg.CacheSize > 0 {
		provider = NewCachedProvider(provider, cfg.Model, cfg.CacheSize)
	}
	if cfg.CircuitBreaker.Enabled {
		provider = NewBreakerProvider(provider, cfg.CircuitBreaker, logger)
	}
	return provider, nil
}

// NoopProvider is used when no embedding backend is configured. Every call
// fails, so semantic scoring always takes the keyword similarity fallback.
type NoopProvider struct{}

func (NoopProvider) Name() string { return config.ProviderNone }

func (NoopProvider) Embed(context.Context, []string) ([][]float64, error) {
	return nil, errors.NewEmbeddingError(errors.ErrCodeEmbeddingFailed, "no embedding provider configured", nil)
}

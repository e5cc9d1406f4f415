package cli

import (
	"context"

	"atscore/internal/ats"
	"atscore/internal/config"
	"atscore/internal/embedding"
	"atscore/internal/errors"
	"atscore/internal/observability"
)

// newAnalyzer builds the configured embedding provider stack and an analyzer
// on top of it. om may be nil.
func newAnalyzer(ctx context.Context, cfg *config.Config, logger *errors.Logger, om *observability.Manager) (*ats.Analyzer, embedding.Provider, error) {
	provider, err := embedding.NewProvider(ctx, cfg.Embedding, logger)
	if err != nil {
		return nil, nil, err
	}
	provider = om.InstrumentProvider(provider)

	analyzer := ats.NewAnalyzer(provider, cfg.Embedding.Timeout, logger,
		ats.WithMetrics(om.Metrics()),
		ats.WithEmbeddingDimension(cfg.Embedding.Dimension),
		ats.WithTopKeywords(cfg.Analysis.TopKeywords),
	)
	return analyzer, provider, nil
}

// newKeywordAnalyzer builds an analyzer for keyword-only work. It never
// reaches an embedding backend.
func newKeywordAnalyzer(cfg *config.Config, logger *errors.Logger) (*ats.Analyzer, embedding.Provider, error) {
	provider := embedding.NoopProvider{}
	return ats.NewAnalyzer(provider, cfg.Embedding.Timeout, logger,
		ats.WithTopKeywords(cfg.Analysis.TopKeywords),
	), provider, nil
}

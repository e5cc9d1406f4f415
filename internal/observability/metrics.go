package observability

import (
	"context"
	"fmt"
	"time"

	"atscore/internal/config"
	"atscore/internal/errors"
	"atscore/internal/types"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds the domain instruments. The zero value records nothing.
type Metrics struct {
	cfg config.CustomMetricsConfig

	// analysis
	AnalysesTotal      metric.Int64Counter
	AnalysisDuration   metric.Float64Histogram
	FinalScore         metric.Int64Histogram
	SemanticFallbacks  metric.Int64Counter
	KeywordExtractions metric.Int64Counter

	// embedding provider
	EmbeddingRequests metric.Int64Counter
	EmbeddingErrors   metric.Int64Counter
	EmbeddingDuration metric.Float64Histogram

	// infrastructure
	RateLimitHits   metric.Int64Counter
	CertReloadCount metric.Int64Counter
	CertExpiryTime  metric.Float64Gauge
}

var scoreBuckets = []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100}

func newMetrics(meter metric.Meter, cfg config.CustomMetricsConfig) (*Metrics, error) {
	m := &Metrics{cfg: cfg}
	var err error

	if m.AnalysesTotal, err = meter.Int64Counter("atscore_analyses_total",
		metric.WithDescription("Total number of completed analyses")); err != nil {
		return nil, instrumentError("analyses total", err)
	}
	if m.AnalysisDuration, err = meter.Float64Histogram("atscore_analysis_duration_seconds",
		metric.WithDescription("Time spent on one analysis"),
		metric.WithUnit("s")); err != nil {
		return nil, instrumentError("analysis duration", err)
	}
	if m.FinalScore, err = meter.Int64Histogram("atscore_final_score",
		metric.WithDescription("Distribution of final match scores"),
		metric.WithExplicitBucketBoundaries(scoreBuckets...)); err != nil {
		return nil, instrumentError("final score", err)
	}
	if m.SemanticFallbacks, err = meter.Int64Counter("atscore_semantic_fallbacks_total",
		metric.WithDescription("Semantic scores computed with the keyword similarity fallback")); err != nil {
		return nil, instrumentError("semantic fallbacks", err)
	}
	if m.KeywordExtractions, err = meter.Int64Counter("atscore_keyword_extractions_total",
		metric.WithDescription("Total number of standalone keyword extractions")); err != nil {
		return nil, instrumentError("keyword extractions", err)
	}

	if m.EmbeddingRequests, err = meter.Int64Counter("atscore_embedding_requests_total",
		metric.WithDescription("Total number of embedding provider requests")); err != nil {
		return nil, instrumentError("embedding requests", err)
	}
	if m.EmbeddingErrors, err = meter.Int64Counter("atscore_embedding_errors_total",
		metric.WithDescription("Total number of failed embedding provider requests")); err != nil {
		return nil, instrumentError("embedding errors", err)
	}
	if m.EmbeddingDuration, err = meter.Float64Histogram("atscore_embedding_duration_seconds",
		metric.WithDescription("Embedding provider latency"),
		metric.WithUnit("s")); err != nil {
		return nil, instrumentError("embedding duration", err)
	}

	if m.RateLimitHits, err = meter.Int64Counter("atscore_rate_limit_hits_total",
		metric.WithDescription("Total number of rate limited requests")); err != nil {
		return nil, instrumentError("rate limit hits", err)
	}
	if m.CertReloadCount, err = meter.Int64Counter("atscore_cert_reloads_total",
		metric.WithDescription("Total number of certificate reloads")); err != nil {
		return nil, instrumentError("cert reloads", err)
	}
	if m.CertExpiryTime, err = meter.Float64Gauge("atscore_cert_expiry_seconds",
		metric.WithDescription("Seconds until the serving certificate expires"),
		metric.WithUnit("s")); err != nil {
		return nil, instrumentError("cert expiry", err)
	}

	return m, nil
}

func instrumentError(name string, err error) error {
	return fmt.Errorf("failed to create %s metric: %w", name, err)
}

// RecordAnalysis counts a completed analysis and its scores
func (m *Metrics) RecordAnalysis(ctx context.Context, result *types.ATSAnalysisResult, duration time.Duration) {
	if m.AnalysesTotal == nil || !m.cfg.Analysis.Enabled {
		return
	}
	attrs := metric.WithAttributes(attribute.Bool("semantic_fallback", result.SemanticScore.IsFallback()))
	m.AnalysesTotal.Add(ctx, 1, attrs)
	m.AnalysisDuration.Record(ctx, duration.Seconds(), attrs)
	if m.cfg.Analysis.TrackScores {
		m.FinalScore.Record(ctx, int64(result.FinalScore), attrs)
	}
}

// RecordSemanticFallback counts a degraded semantic score
func (m *Metrics) RecordSemanticFallback(ctx context.Context, provider string, err error) {
	if m.SemanticFallbacks == nil || !m.cfg.Analysis.Enabled {
		return
	}
	m.SemanticFallbacks.Add(ctx, 1, metric.WithAttributes(
		attribute.String("provider", provider),
		attribute.String("reason", errorCode(err)),
	))
}

// RecordKeywordExtraction counts a standalone extraction
func (m *Metrics) RecordKeywordExtraction(ctx context.Context, keywords int, _ time.Duration) {
	if m.KeywordExtractions == nil || !m.cfg.Analysis.Enabled {
		return
	}
	m.KeywordExtractions.Add(ctx, 1, metric.WithAttributes(attribute.Bool("empty", keywords == 0)))
}

// RecordEmbedding counts one provider call
func (m *Metrics) RecordEmbedding(ctx context.Context, provider string, duration time.Duration, err error) {
	if m.EmbeddingRequests == nil || !m.cfg.Embedding.Enabled {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("provider", provider),
		attribute.Bool("success", err == nil),
	)
	m.EmbeddingRequests.Add(ctx, 1, attrs)
	if m.cfg.Embedding.TrackDuration {
		m.EmbeddingDuration.Record(ctx, duration.Seconds(), attrs)
	}
	if err != nil {
		m.EmbeddingErrors.Add(ctx, 1, metric.WithAttributes(
			attribute.String("provider", provider),
			attribute.String("code", errorCode(err)),
		))
	}
}

// RecordRateLimitHit counts a rejected request
func (m *Metrics) RecordRateLimitHit(ctx context.Context, limiter string) {
	if m.RateLimitHits == nil || !m.cfg.Infrastructure.Enabled || !m.cfg.Infrastructure.TrackRateLimits {
		return
	}
	m.RateLimitHits.Add(ctx, 1, metric.WithAttributes(attribute.String("limiter", limiter)))
}

// RecordCertReload counts a certificate reload and updates the expiry gauge
func (m *Metrics) RecordCertReload(ctx context.Context, success bool, notAfter time.Time) {
	if m.CertReloadCount == nil || !m.cfg.Infrastructure.Enabled || !m.cfg.Infrastructure.TrackCertReloads {
		return
	}
	m.CertReloadCount.Add(ctx, 1, metric.WithAttributes(attribute.Bool("success", success)))
	if success && !notAfter.IsZero() {
		m.CertExpiryTime.Record(ctx, time.Until(notAfter).Seconds())
	}
}

func errorCode(err error) string {
	if appErr, ok := errors.AsAppError(err); ok {
		return appErr.Code
	}
	return "unknown"
}

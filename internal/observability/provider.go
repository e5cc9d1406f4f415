package observability

import (
	"context"
	"time"

	"atscore/internal/embedding"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"
)

// instrumentedProvider traces and meters every embedding call
type instrumentedProvider struct {
	next    embedding.Provider
	metrics *Metrics
	tracer  oteltrace.Tracer
}

// InstrumentProvider wraps p with tracing and embedding metrics
func (om *Manager) InstrumentProvider(p embedding.Provider) embedding.Provider {
	return &instrumentedProvider{
		next:    p,
		metrics: om.Metrics(),
		tracer:  om.Tracer("atscore.embedding"),
	}
}

func (p *instrumentedProvider) Name() string { return p.next.Name() }

func (p *instrumentedProvider) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	ctx, span := p.tracer.Start(ctx, "embedding.embed", oteltrace.WithAttributes(
		attribute.String("embedding.provider", p.next.Name()),
		attribute.Int("embedding.texts", len(texts)),
	))
	defer span.End()

	start := time.Now()
	vectors, err := p.next.Embed(ctx, texts)
	p.metrics.RecordEmbedding(ctx, p.next.Name(), time.Since(start), err)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return vectors, err
}

func (p *instrumentedProvider) Health(ctx context.Context) error {
	if hc, ok := p.next.(embedding.HealthChecker); ok {
		return hc.Health(ctx)
	}
	return nil
}

func (p *instrumentedProvider) Stats() map[string]any {
	if sr, ok := p.next.(embedding.StatsReporter); ok {
		return sr.Stats()
	}
	return map[string]any{}
}

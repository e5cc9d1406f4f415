package observability

import (
	"context"
	"testing"

	"atscore/internal/config"
	"atscore/internal/embedding"
	"atscore/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInstrumentProvider(t *testing.T) {
	m, reader := newTestMetrics(t, allMetricsEnabled())
	om := &Manager{metrics: m}

	p := om.InstrumentProvider(embedding.NoopProvider{})
	assert.Equal(t, config.ProviderNone, p.Name())

	_, err := p.Embed(context.Background(), []string{"a", "b"})
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeEmbeddingFailed))

	totals := counterTotals(t, reader)
	assert.Equal(t, int64(1), totals["atscore_embedding_requests_total"])
	assert.Equal(t, int64(1), totals["atscore_embedding_errors_total"])

	hc, ok := p.(embedding.HealthChecker)
	require.True(t, ok)
	assert.NoError(t, hc.Health(context.Background()))
}

package ats

import (
	"context"
	"sync/atomic"

	"atscore/internal/errors"
)

// mockProvider returns fixed vectors or a fixed error
type mockProvider struct {
	vectors [][]float64
	err     error
	block   bool
	calls   atomic.Int32
}

func (m *mockProvider) Name() string { return "mock" }

func (m *mockProvider) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	m.calls.Add(1)
	if m.block {
		<-ctx.Done()
		return nil, errors.NewNetworkError(errors.ErrCodeEmbeddingTimeout, "timed out", ctx.Err())
	}
	if m.err != nil {
		return nil, m.err
	}
	return m.vectors, nil
}

func identicalVectors() [][]float64 {
	return [][]float64{{0.2, 0.4, 0.6}, {0.2, 0.4, 0.6}}
}

// fallbackRecorder counts fallback notifications
type fallbackRecorder struct {
	fallbacks atomic.Int32
}

func (r *fallbackRecorder) RecordSemanticFallback(context.Context, string, error) {
	r.fallbacks.Add(1)
}

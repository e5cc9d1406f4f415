package ats

import (
	"context"
	"math"
	"testing"
	"time"

	"atscore/internal/embedding"
	"atscore/internal/errors"
	"atscore/internal/types"

	"github.com/stretchr/testify/assert"
)

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b []float64
		want float64
	}{
		{name: "identical", a: []float64{1, 2, 3}, b: []float64{1, 2, 3}, want: 1},
		{name: "orthogonal", a: []float64{1, 0}, b: []float64{0, 1}, want: 0},
		{name: "opposite", a: []float64{1, 1}, b: []float64{-1, -1}, want: -1},
		{name: "zero vector", a: []float64{0, 0, 0}, b: []float64{1, 2, 3}, want: 0},
		{name: "length mismatch", a: []float64{1, 2}, b: []float64{1, 2, 3}, want: 0},
		{name: "empty", a: nil, b: nil, want: 0},
		{name: "large magnitudes", a: []float64{1e200, 1e200}, b: []float64{1e200, 1e200}, want: 1},
		{name: "mixed magnitudes", a: []float64{1e300, 0}, b: []float64{1e-300, 1e-300}, want: math.Sqrt2 / 2},
		{name: "tiny magnitudes", a: []float64{1e-200, 0}, b: []float64{0, 1e-200}, want: 0},
		{name: "nan component", a: []float64{math.NaN(), 1}, b: []float64{1, 1}, want: 0},
		{name: "inf component", a: []float64{1, 1}, b: []float64{math.Inf(1), 1}, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, CosineSimilarity(tt.a, tt.b), 1e-9)
		})
	}
}

func TestKeywordSimilarity(t *testing.T) {
	// 4 shared tokens out of 13 distinct
	assert.InDelta(t, 4.0/13.0*100, KeywordSimilarity(scenarioResume, scenarioJD), 1e-9)
	assert.Equal(t, 100.0, KeywordSimilarity("python django", "Django, Python"))
	assert.Equal(t, 0.0, KeywordSimilarity("", ""))
	assert.Equal(t, 0.0, KeywordSimilarity("python", "rust"))
}

func TestSemanticScoreWithEmbeddings(t *testing.T) {
	provider := &mockProvider{vectors: identicalVectors()}
	scorer := NewSemanticScorer(provider, time.Second, nil)

	ss := scorer.Score(context.Background(), scenarioResume, scenarioJD)

	assert.Equal(t, 100, ss.Score)
	assert.InDelta(t, 100.0, ss.SimilarityPercentage, 1e-9)
	assert.False(t, ss.IsFallback())
	assert.Equal(t, []string{"python", "django", "aws", "skills"}, ss.ContextualMatches)
	assert.Equal(t, []string{"python", "django", "aws"}, ss.SemanticStrengths)
	assert.Equal(t, []string{"docker", "kubernetes"}, ss.SemanticGaps)
	assert.Equal(t, int32(1), provider.calls.Load())
}

func TestSemanticScoreCalibration(t *testing.T) {
	// cos = 0.6 -> 60% -> 66 after calibration
	provider := &mockProvider{vectors: [][]float64{{1, 0}, {0.6, 0.8}}}
	ss := NewSemanticScorer(provider, time.Second, nil).Score(context.Background(), "go", "rust")

	assert.InDelta(t, 60.0, ss.SimilarityPercentage, 1e-9)
	assert.Equal(t, 66, ss.Score)
}

func TestSemanticScoreNegativeSimilarityClamps(t *testing.T) {
	provider := &mockProvider{vectors: [][]float64{{1, 0}, {-1, 0}}}
	ss := NewSemanticScorer(provider, time.Second, nil).Score(context.Background(), "go", "rust")

	assert.Equal(t, 0.0, ss.SimilarityPercentage)
	assert.Equal(t, 0, ss.Score)
}

func TestSemanticScoreBlankInput(t *testing.T) {
	provider := &mockProvider{vectors: identicalVectors()}
	scorer := NewSemanticScorer(provider, time.Second, nil)

	for _, pair := range [][2]string{{"", scenarioJD}, {scenarioResume, "   "}, {"", ""}} {
		ss := scorer.Score(context.Background(), pair[0], pair[1])
		assert.Equal(t, 0, ss.Score)
		assert.Equal(t, 0.0, ss.SimilarityPercentage)
		assert.False(t, ss.IsFallback())
	}
	assert.Equal(t, int32(0), provider.calls.Load())
}

func TestSemanticScoreFallback(t *testing.T) {
	tests := []struct {
		name     string
		provider embedding.Provider
		timeout  time.Duration
	}{
		{name: "provider error", provider: &mockProvider{err: errors.NewNetworkError(errors.ErrCodeEmbeddingFailed, "unreachable", nil)}},
		{name: "wrong vector count", provider: &mockProvider{vectors: [][]float64{{1, 2, 3}}}},
		{name: "non-finite component", provider: &mockProvider{vectors: [][]float64{{1, math.NaN()}, {1, 1}}}},
		{name: "infinite component", provider: &mockProvider{vectors: [][]float64{{1, 1}, {math.Inf(-1), 1}}}},
		{name: "timeout", provider: &mockProvider{block: true}, timeout: 20 * time.Millisecond},
		{name: "no provider configured", provider: embedding.NoopProvider{}},
		{name: "nil provider", provider: nil},
	}

	want := int(math.Round(KeywordSimilarity(scenarioResume, scenarioJD)))

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder := &fallbackRecorder{}
			scorer := NewSemanticScorer(tt.provider, tt.timeout, errors.NewDiscardLogger())
			scorer.recorder = recorder

			ss := scorer.Score(context.Background(), scenarioResume, scenarioJD)

			assert.True(t, ss.IsFallback())
			assert.Equal(t, []string{types.SemanticFallbackStrength}, ss.SemanticStrengths)
			assert.Equal(t, want, ss.Score)
			assert.Equal(t, KeywordSimilarity(scenarioResume, scenarioJD), ss.SimilarityPercentage)
			assert.Empty(t, ss.ContextualMatches)
			assert.Empty(t, ss.SemanticGaps)
			assert.Equal(t, int32(1), recorder.fallbacks.Load())
		})
	}
}

func TestSemanticScoreHugeComponentsStayInRange(t *testing.T) {
	provider := &mockProvider{vectors: [][]float64{{1e200, 1e200}, {1e200, 1e200}}}
	scorer := NewSemanticScorer(provider, time.Second, nil)

	ss := scorer.Score(context.Background(), scenarioResume, scenarioJD)

	assert.False(t, ss.IsFallback())
	assert.Equal(t, 100, ss.Score)
	assert.InDelta(t, 100.0, ss.SimilarityPercentage, 1e-9)
}

func TestSemanticScoreDimensionCheck(t *testing.T) {
	analyzer := NewAnalyzer(&mockProvider{vectors: identicalVectors()}, time.Second, nil, WithEmbeddingDimension(4))

	ss := analyzer.semantic.Score(context.Background(), scenarioResume, scenarioJD)
	assert.True(t, ss.IsFallback(), "3-wide vectors against an expected width of 4")

	analyzer = NewAnalyzer(&mockProvider{vectors: identicalVectors()}, time.Second, nil, WithEmbeddingDimension(3))
	ss = analyzer.semantic.Score(context.Background(), scenarioResume, scenarioJD)
	assert.False(t, ss.IsFallback())
	assert.Equal(t, 100, ss.Score)

	t.Run("blank input uses the configured width", func(t *testing.T) {
		vectors, err := analyzer.semantic.embed(context.Background(), "", scenarioJD)
		assert.NoError(t, err)
		assert.Len(t, vectors[0], 3)
	})
}

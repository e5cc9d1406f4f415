package ats

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"atscore/internal/embedding"
	"atscore/internal/errors"
	"atscore/internal/nlp"
	"atscore/internal/types"
)

const (
	// DefaultEmbeddingDimension is the width of the zero vectors used for blank input
	DefaultEmbeddingDimension = 384

	// semanticCalibration lifts cosine percentages, which skew low for
	// sentence embeddings of genuinely related texts.
	semanticCalibration = 1.1

	maxContextualMatches = 10
	maxSemanticStrengths = 5
	maxSemanticGaps      = 5
)

// FallbackRecorder is notified whenever the keyword similarity fallback is used
type FallbackRecorder interface {
	RecordSemanticFallback(ctx context.Context, provider string, err error)
}

// SemanticScorer scores two texts by embedding similarity
type SemanticScorer struct {
	provider  embedding.Provider
	timeout   time.Duration
	dimension int
	// strictDimension rejects provider vectors whose width is not dimension
	strictDimension bool
	logger          *errors.Logger
	recorder        FallbackRecorder
}

// NewSemanticScorer creates a scorer. A zero timeout leaves the call bounded
// only by the caller's context.
func NewSemanticScorer(provider embedding.Provider, timeout time.Duration, logger *errors.Logger) *SemanticScorer {
	if provider == nil {
		provider = embedding.NoopProvider{}
	}
	if logger == nil {
		logger = errors.NewDiscardLogger()
	}
	return &SemanticScorer{
		provider:  provider,
		timeout:   timeout,
		dimension: DefaultEmbeddingDimension,
		logger:    logger,
	}
}

// Score never fails: provider problems degrade to KeywordSimilarity and are
// flagged with types.SemanticFallbackStrength.
func (s *SemanticScorer) Score(ctx context.Context, resumeText, jdText string) types.SemanticScore {
	vectors, err := s.embed(ctx, resumeText, jdText)
	if err != nil {
		return s.fallback(ctx, resumeText, jdText, err)
	}

	similarity := CosineSimilarity(vectors[0], vectors[1])
	pct := math.Max(0, math.Min(100, similarity*100))

	resumeTokens := nlp.Tokenize(resumeText, nlp.DefaultOptions())
	jdTokens := nlp.Tokenize(jdText, nlp.DefaultOptions())
	contextual := contextualMatches(resumeTokens, jdTokens)

	return types.SemanticScore{
		Score:                int(math.Round(math.Min(100, pct*semanticCalibration))),
		SimilarityPercentage: pct,
		ContextualMatches:    contextual,
		SemanticStrengths:    filterTechnicalOrDomain(contextual, maxSemanticStrengths),
		SemanticGaps:         semanticGaps(resumeTokens, jdTokens),
	}
}

func (s *SemanticScorer) embed(ctx context.Context, resumeText, jdText string) ([][]float64, error) {
	if strings.TrimSpace(resumeText) == "" || strings.TrimSpace(jdText) == "" {
		return [][]float64{make([]float64, s.dimension), make([]float64, s.dimension)}, nil
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	vectors, err := s.provider.Embed(ctx, []string{resumeText, jdText})
	if err != nil {
		return nil, err
	}
	if len(vectors) != 2 {
		return nil, errors.NewEmbeddingError(errors.ErrCodeEmbeddingProtocol,
			"embedding provider must return exactly two vectors", nil).
			WithContext("count", len(vectors))
	}
	for i, v := range vectors {
		if err := s.checkVector(v); err != nil {
			return nil, err.WithContext("index", i)
		}
	}
	return vectors, nil
}

func (s *SemanticScorer) checkVector(v []float64) *errors.AppError {
	if s.strictDimension && len(v) != s.dimension {
		return errors.NewEmbeddingError(errors.ErrCodeEmbeddingProtocol,
			fmt.Sprintf("embedding has dimension %d, expected %d", len(v), s.dimension), nil)
	}
	for _, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return errors.NewEmbeddingError(errors.ErrCodeEmbeddingProtocol,
				"embedding contains a non-finite component", nil)
		}
	}
	return nil
}

func (s *SemanticScorer) fallback(ctx context.Context, resumeText, jdText string, cause error) types.SemanticScore {
	s.logger.LogWarn(cause, "Semantic scoring fell back to keyword similarity",
		"provider", s.provider.Name())
	if s.recorder != nil {
		s.recorder.RecordSemanticFallback(ctx, s.provider.Name(), cause)
	}

	similarity := KeywordSimilarity(resumeText, jdText)
	return types.SemanticScore{
		Score:                int(math.Round(similarity)),
		SimilarityPercentage: similarity,
		ContextualMatches:    []string{},
		SemanticStrengths:    []string{types.SemanticFallbackStrength},
		SemanticGaps:         []string{},
	}
}

// CosineSimilarity returns 0 for vectors of different length, zero norm or
// non-finite components. Components are scaled by the largest magnitude
// first, so sums of squares cannot overflow.
func CosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var scaleA, scaleB float64
	for i := range a {
		if math.IsNaN(a[i]) || math.IsInf(a[i], 0) || math.IsNaN(b[i]) || math.IsInf(b[i], 0) {
			return 0
		}
		scaleA = math.Max(scaleA, math.Abs(a[i]))
		scaleB = math.Max(scaleB, math.Abs(b[i]))
	}
	if scaleA == 0 || scaleB == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		x, y := a[i]/scaleA, b[i]/scaleB
		dot += x * y
		normA += x * x
		normB += y * y
	}
	similarity := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	if math.IsNaN(similarity) {
		return 0
	}
	return math.Max(-1, math.Min(1, similarity))
}

// KeywordSimilarity is the Jaccard overlap of the two token sets, as a percentage
func KeywordSimilarity(a, b string) float64 {
	setA := tokenSet(nlp.Tokenize(a, nlp.DefaultOptions()))
	setB := tokenSet(nlp.Tokenize(b, nlp.DefaultOptions()))

	union := len(setA)
	intersection := 0
	for token := range setB {
		if _, ok := setA[token]; ok {
			intersection++
		} else {
			union++
		}
	}
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union) * 100
}

func contextualMatches(resumeTokens, jdTokens []string) []string {
	jdSet := tokenSet(jdTokens)
	seen := make(map[string]struct{})
	out := []string{}
	for _, token := range resumeTokens {
		if len(out) == maxContextualMatches {
			break
		}
		if _, ok := jdSet[token]; !ok {
			continue
		}
		if _, dup := seen[token]; dup {
			continue
		}
		seen[token] = struct{}{}
		out = append(out, token)
	}
	return out
}

func semanticGaps(resumeTokens, jdTokens []string) []string {
	resumeSet := tokenSet(resumeTokens)
	seen := make(map[string]struct{})
	var missing []string
	for _, token := range jdTokens {
		if _, ok := resumeSet[token]; ok {
			continue
		}
		if _, dup := seen[token]; dup {
			continue
		}
		seen[token] = struct{}{}
		missing = append(missing, token)
	}
	return filterTechnicalOrDomain(missing, maxSemanticGaps)
}

func filterTechnicalOrDomain(tokens []string, limit int) []string {
	out := []string{}
	for _, token := range tokens {
		if len(out) == limit {
			break
		}
		switch nlp.Categorize(token) {
		case types.CategoryTechnical, types.CategoryDomain:
			out = append(out, token)
		}
	}
	return out
}

func tokenSet(tokens []string) map[string]struct{} {
	set := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		set[t] = struct{}{}
	}
	return set
}

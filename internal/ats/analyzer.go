package ats

import (
	"context"
	"math"
	"time"

	"atscore/internal/embedding"
	"atscore/internal/errors"
	"atscore/internal/nlp"
	"atscore/internal/types"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
)

const (
	keywordWeight  = 0.6
	semanticWeight = 0.4
)

// MetricsRecorder receives business metrics from the analyzer
type MetricsRecorder interface {
	FallbackRecorder
	RecordAnalysis(ctx context.Context, result *types.ATSAnalysisResult, duration time.Duration)
	RecordKeywordExtraction(ctx context.Context, keywords int, duration time.Duration)
}

// Analyzer runs complete resume against job description analyses
type Analyzer struct {
	semantic      *SemanticScorer
	scoreKeywords func(resumeText, jdText string) types.KeywordScore
	logger        *errors.Logger
	metrics       MetricsRecorder
	topKeywords   int
	now           func() time.Time
}

// Option configures an Analyzer
type Option func(*Analyzer)

// WithMetrics attaches a metrics recorder
func WithMetrics(m MetricsRecorder) Option {
	return func(a *Analyzer) {
		a.metrics = m
		a.semantic.recorder = m
	}
}

// WithEmbeddingDimension sets the expected embedding width. Provider vectors
// of any other width are treated as a protocol error.
func WithEmbeddingDimension(n int) Option {
	return func(a *Analyzer) {
		if n > 0 {
			a.semantic.dimension = n
			a.semantic.strictDimension = true
		}
	}
}

// WithTopKeywords sets the default keyword count for standalone extraction
func WithTopKeywords(n int) Option {
	return func(a *Analyzer) {
		if n > 0 {
			a.topKeywords = n
		}
	}
}

// WithClock overrides the time source
func WithClock(now func() time.Time) Option {
	return func(a *Analyzer) { a.now = now }
}

// NewAnalyzer creates an analyzer whose semantic step uses provider, with
// each embedding call bounded by embedTimeout.
func NewAnalyzer(provider embedding.Provider, embedTimeout time.Duration, logger *errors.Logger, opts ...Option) *Analyzer {
	if logger == nil {
		logger = errors.NewDiscardLogger()
	}
	a := &Analyzer{
		semantic:      NewSemanticScorer(provider, embedTimeout, logger),
		scoreKeywords: CalculateKeywordScore,
		logger:        logger,
		topKeywords:   nlp.DefaultTopN,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Analyze scores the resume against the job description. Keyword and
// semantic scoring run concurrently; provider failures are absorbed into the
// semantic score, so errors are limited to invalid requests and a context
// that is already done.
func (a *Analyzer) Analyze(ctx context.Context, req types.AnalysisRequest) (*types.ATSAnalysisResult, error) {
	if err := types.Validate(req); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ctx, span := otel.Tracer("atscore.ats").Start(ctx, "ats.analyze")
	defer span.End()

	start := a.now()

	var semanticScore types.SemanticScore

	// keyword scoring stays on the calling goroutine
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		semanticScore = a.semantic.Score(gctx, req.ResumeText, req.JobDescription)
		return nil
	})
	keywordScore := a.scoreKeywords(req.ResumeText, req.JobDescription)
	if err := g.Wait(); err != nil {
		return nil, err
	}

	gaps := IdentifySkillGaps(keywordScore)
	elapsed := a.now().Sub(start)

	result := &types.ATSAnalysisResult{
		ID:              uuid.NewString(),
		FinalScore:      FinalScore(keywordScore.Score, semanticScore.Score),
		KeywordScore:    keywordScore,
		SemanticScore:   semanticScore,
		SkillGaps:       gaps,
		Recommendations: GenerateRecommendations(keywordScore, semanticScore, gaps),
		ResumeWordCount: nlp.CountTokens(req.ResumeText),
		JDWordCount:     nlp.CountTokens(req.JobDescription),
		JobRole:         req.JobRole,
		ProcessingTime:  elapsed.Milliseconds(),
		Timestamp:       a.now().UTC(),
	}

	span.SetAttributes(
		attribute.String("analysis.id", result.ID),
		attribute.Int("analysis.final_score", result.FinalScore),
		attribute.Int("analysis.keyword_score", keywordScore.Score),
		attribute.Int("analysis.semantic_score", semanticScore.Score),
		attribute.Bool("analysis.semantic_fallback", semanticScore.IsFallback()),
	)
	if a.metrics != nil {
		a.metrics.RecordAnalysis(ctx, result, elapsed)
	}

	a.logger.Info("Analysis completed",
		"id", result.ID,
		"final_score", result.FinalScore,
		"keyword_score", keywordScore.Score,
		"semantic_score", semanticScore.Score,
		"semantic_fallback", semanticScore.IsFallback(),
		"processing_ms", result.ProcessingTime)

	return result, nil
}

// ExtractKeywords runs standalone keyword extraction for a single text
func (a *Analyzer) ExtractKeywords(ctx context.Context, req types.KeywordsRequest) (*types.KeywordsResponse, error) {
	if err := types.Validate(req); err != nil {
		return nil, err
	}

	topN := req.TopN
	if topN <= 0 {
		topN = a.topKeywords
	}

	start := a.now()
	resp := &types.KeywordsResponse{
		Keywords:   nlp.ExtractKeywords(req.Text, topN),
		TokenCount: nlp.CountTokens(req.Text),
	}
	if a.metrics != nil {
		a.metrics.RecordKeywordExtraction(ctx, len(resp.Keywords), a.now().Sub(start))
	}
	return resp, nil
}

// FinalScore blends the keyword and semantic scores
func FinalScore(keywordScore, semanticScore int) int {
	return int(math.Round(float64(keywordScore)*keywordWeight + float64(semanticScore)*semanticWeight))
}

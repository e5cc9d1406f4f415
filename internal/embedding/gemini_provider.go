package embedding

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"atscore/internal/config"
	atsErrors "atscore/internal/errors"

	"google.golang.org/api/googleapi"
	"google.golang.org/genai"
)

const geminiTaskType = "SEMANTIC_SIMILARITY"

// GeminiProvider embeds texts with the Gemini embedding API
type GeminiProvider struct {
	client    *genai.Client
	model     string
	dimension int32
	logger    *atsErrors.Logger
}

// NewGeminiProvider creates a Gemini embedding client
func NewGeminiProvider(ctx context.Context, cfg config.EmbeddingConfig, logger *atsErrors.Logger) (*GeminiProvider, error) {
	if cfg.APIKey == "" {
		return nil, atsErrors.NewConfigError(atsErrors.ErrCodeMissingAPIKey, "gemini embedding provider requires an API key", nil)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, atsErrors.NewEmbeddingError(atsErrors.ErrCodeEmbeddingFailed, "failed to create Gemini client", err)
	}

	model := cfg.Model
	if model == "" {
		model = "text-embedding-004"
	}

	return &GeminiProvider{
		client:    client,
		model:     model,
		dimension: int32(cfg.Dimension),
		logger:    logger,
	}, nil
}

func (g *GeminiProvider) Name() string { return config.ProviderGemini }

// Embed requests one embedding per text in a single batch call
func (g *GeminiProvider) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	contents := make([]*genai.Content, len(texts))
	for i, text := range texts {
		contents[i] = genai.NewContentFromText(text, genai.RoleUser)
	}

	embedConfig := &genai.EmbedContentConfig{TaskType: geminiTaskType}
	if g.dimension > 0 {
		embedConfig.OutputDimensionality = &g.dimension
	}

	resp, err := g.client.Models.EmbedContent(ctx, g.model, contents, embedConfig)
	if err != nil {
		return nil, classifyGeminiError(ctx, err)
	}

	if len(resp.Embeddings) != len(texts) {
		return nil, atsErrors.NewEmbeddingError(atsErrors.ErrCodeEmbeddingProtocol,
			fmt.Sprintf("expected %d embeddings, Gemini returned %d", len(texts), len(resp.Embeddings)), nil)
	}

	vectors := make([][]float64, len(resp.Embeddings))
	for i, e := range resp.Embeddings {
		if e == nil || len(e.Values) == 0 {
			return nil, atsErrors.NewEmbeddingError(atsErrors.ErrCodeEmbeddingProtocol,
				fmt.Sprintf("Gemini returned an empty embedding at index %d", i), nil)
		}
		vectors[i] = toFloat64(e.Values)
	}

	if g.logger != nil {
		g.logger.Debug("Embeddings received", "provider", g.Name(), "model", g.model, "count", len(vectors))
	}
	return vectors, nil
}

// Health checks that the configured model is reachable
func (g *GeminiProvider) Health(ctx context.Context) error {
	if _, err := g.client.Models.Get(ctx, g.model, &genai.GetModelConfig{}); err != nil {
		return classifyGeminiError(ctx, err)
	}
	return nil
}

func toFloat64(values []float32) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = float64(v)
	}
	return out
}

// classifyGeminiError maps SDK failures onto the error taxonomy
func classifyGeminiError(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || ctx.Err() == context.DeadlineExceeded {
		return atsErrors.NewNetworkError(atsErrors.ErrCodeEmbeddingTimeout, "Gemini embedding request timed out", err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return atsErrors.NewNetworkError(atsErrors.ErrCodeEmbeddingFailed, "Gemini embedding request failed", err)
	}

	status := 0
	var apiErr genai.APIError
	var googleErr *googleapi.Error
	switch {
	case errors.As(err, &apiErr):
		status = apiErr.Code
	case errors.As(err, &googleErr):
		status = googleErr.Code
	}

	code := atsErrors.ErrCodeEmbeddingFailed
	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		code = atsErrors.ErrCodeMissingAPIKey
	}
	appErr := atsErrors.NewEmbeddingError(code, "Gemini embedding request failed", err)
	if status != 0 {
		appErr = appErr.WithContext("status_code", status)
	}
	return appErr
}

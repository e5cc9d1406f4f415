package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"

	"atscore/internal/config"
	atsErrors "atscore/internal/errors"

	"github.com/xeipuuv/gojsonschema"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// maxResponseBytes bounds how much of a provider response is read
const maxResponseBytes = 32 << 20

const embedResponseSchema = `{
  "type": "object",
  "required": ["embeddings"],
  "properties": {
    "embeddings": {
      "type": "array",
      "items": {
        "type": "array",
        "minItems": 1,
        "items": {"type": "number"}
      }
    },
    "model": {"type": "string"},
    "dimension": {"type": "integer", "minimum": 1}
  }
}`

var embedSchema = mustCompileSchema(embedResponseSchema)

func mustCompileSchema(schema string) *gojsonschema.Schema {
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(schema))
	if err != nil {
		panic(fmt.Sprintf("invalid embedded schema: %v", err))
	}
	return s
}

type embedRequest struct {
	Texts []string `json:"texts"`
	Model string   `json:"model,omitempty"`
}

type embedResponse struct {
	Embeddings [][]float64 `json:"embeddings"`
	Model      string      `json:"model,omitempty"`
	Dimension  int         `json:"dimension,omitempty"`
}

// HTTPProvider calls a sentence-embedding service over JSON/HTTP:
//
//	POST {baseURL}/embed  {"texts": [...], "model": "..."}
//	-> {"embeddings": [[...], ...], "model": "...", "dimension": n}
type HTTPProvider struct {
	baseURL string
	model   string
	apiKey  string
	client  *http.Client
	logger  *atsErrors.Logger
}

// NewHTTPProvider creates a provider for the configured base URL
func NewHTTPProvider(cfg config.EmbeddingConfig, logger *atsErrors.Logger) (*HTTPProvider, error) {
	if cfg.BaseURL == "" {
		return nil, atsErrors.NewConfigError(atsErrors.ErrCodeInvalidConfig, "embedding base URL is required", nil)
	}

	return &HTTPProvider{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		model:   cfg.Model,
		apiKey:  cfg.APIKey,
		client: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		logger: logger,
	}, nil
}

func (p *HTTPProvider) Name() string { return config.ProviderHTTP }

// Embed sends all texts in one request
func (p *HTTPProvider) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	body, err := json.Marshal(embedRequest{Texts: texts, Model: p.model})
	if err != nil {
		return nil, atsErrors.NewInternalError(atsErrors.ErrCodeEmbeddingFailed, "failed to encode embedding request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/embed", bytes.NewReader(body))
	if err != nil {
		return nil, atsErrors.NewInternalError(atsErrors.ErrCodeEmbeddingFailed, "failed to build embedding request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if p.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, classifyTransportError(ctx, err)
	}
	defer func() { _ = resp.Body.Close() }()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, classifyTransportError(ctx, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, atsErrors.NewEmbeddingError(atsErrors.ErrCodeEmbeddingFailed,
			fmt.Sprintf("embedding provider returned status %d", resp.StatusCode), nil).
			WithContext("status_code", resp.StatusCode).
			WithContext("body", truncate(string(payload), 256))
	}

	parsed, err := decodeEmbedResponse(payload)
	if err != nil {
		return nil, err
	}

	if len(parsed.Embeddings) != len(texts) {
		return nil, atsErrors.NewEmbeddingError(atsErrors.ErrCodeEmbeddingProtocol,
			fmt.Sprintf("expected %d embeddings, provider returned %d", len(texts), len(parsed.Embeddings)), nil)
	}
	for i, v := range parsed.Embeddings {
		if parsed.Dimension > 0 && len(v) != parsed.Dimension {
			return nil, atsErrors.NewEmbeddingError(atsErrors.ErrCodeEmbeddingProtocol,
				fmt.Sprintf("embedding %d has %d values, response declares dimension %d", i, len(v), parsed.Dimension), nil)
		}
	}

	if p.logger != nil {
		p.logger.Debug("Embeddings received",
			"provider", p.Name(),
			"model", parsed.Model,
			"count", len(parsed.Embeddings),
			"dimension", len(parsed.Embeddings[0]))
	}

	return parsed.Embeddings, nil
}

// Health calls GET {baseURL}/health
func (p *HTTPProvider) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/health", nil)
	if err != nil {
		return atsErrors.NewInternalError(atsErrors.ErrCodeEmbeddingFailed, "failed to build health request", err)
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return classifyTransportError(ctx, err)
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return atsErrors.NewEmbeddingError(atsErrors.ErrCodeEmbeddingFailed,
			fmt.Sprintf("embedding provider health returned status %d", resp.StatusCode), nil)
	}
	return nil
}

func decodeEmbedResponse(payload []byte) (*embedResponse, error) {
	result, err := embedSchema.Validate(gojsonschema.NewBytesLoader(payload))
	if err != nil {
		return nil, atsErrors.NewEmbeddingError(atsErrors.ErrCodeEmbeddingProtocol, "embedding response is not valid JSON", err)
	}
	if !result.Valid() {
		problems := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			problems = append(problems, e.String())
		}
		return nil, atsErrors.NewEmbeddingError(atsErrors.ErrCodeEmbeddingProtocol,
			"embedding response failed schema validation: "+strings.Join(problems, "; "), nil)
	}

	var parsed embedResponse
	if err := json.Unmarshal(payload, &parsed); err != nil {
		return nil, atsErrors.NewEmbeddingError(atsErrors.ErrCodeEmbeddingProtocol, "failed to decode embedding response", err)
	}
	return &parsed, nil
}

// classifyTransportError maps client failures onto the error taxonomy
func classifyTransportError(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || ctx.Err() == context.DeadlineExceeded {
		return atsErrors.NewNetworkError(atsErrors.ErrCodeEmbeddingTimeout, "embedding provider timed out", err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return atsErrors.NewNetworkError(atsErrors.ErrCodeEmbeddingTimeout, "embedding provider timed out", err)
	}
	return atsErrors.NewNetworkError(atsErrors.ErrCodeEmbeddingFailed, "embedding provider unreachable", err)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

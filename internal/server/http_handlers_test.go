package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"atscore/internal/ats"
	"atscore/internal/config"
	"atscore/internal/embedding"
	"atscore/internal/errors"
	"atscore/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testResume = "Experienced Python developer with Django and AWS skills, strong communication"
	testJD     = "Looking for Python Django AWS Docker Kubernetes engineer with leadership skills"
)

// fakeProvider returns identical vectors and reports configurable health
type fakeProvider struct {
	healthErr error
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) Embed(_ context.Context, texts []string) ([][]float64, error) {
	vectors := make([][]float64, len(texts))
	for i := range texts {
		vectors[i] = []float64{0.1, 0.2, 0.3}
	}
	return vectors, nil
}

func (f *fakeProvider) Health(context.Context) error { return f.healthErr }

func (f *fakeProvider) Stats() map[string]any {
	return map[string]any{"circuit_breaker": map[string]any{"state": "closed", "enabled": true}}
}

func newTestServer(t *testing.T, cfg ServerConfig, provider embedding.Provider) (*Server, *httptest.Server) {
	t.Helper()
	logger := errors.NewDiscardLogger()
	analyzer := ats.NewAnalyzer(provider, time.Second, logger)
	s := NewServer(cfg, analyzer, provider, nil, logger)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(func() {
		ts.Close()
		if s.RateLimiter != nil {
			s.RateLimiter.Close()
		}
	})
	return s, ts
}

func postJSON(t *testing.T, url string, body any, headers map[string]string) *http.Response {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(payload))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestAnalyzeEndpoint(t *testing.T) {
	_, ts := newTestServer(t, ServerConfig{MaxRequestSize: 1 << 20}, &fakeProvider{})

	resp := postJSON(t, ts.URL+"/analyze", types.AnalysisRequest{
		ResumeText:     testResume,
		JobDescription: testJD,
		JobRole:        "Backend Engineer",
	}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	result := decodeBody[types.ATSAnalysisResult](t, resp)
	assert.NotEmpty(t, result.ID)
	assert.Equal(t, 39, result.KeywordScore.Score)
	assert.Equal(t, 100, result.SemanticScore.Score)
	assert.Equal(t, 63, result.FinalScore)
	assert.Equal(t, "Backend Engineer", result.JobRole)
	assert.Contains(t, result.KeywordScore.MissingKeywords, "docker")
}

func TestAnalyzeEndpointFallback(t *testing.T) {
	_, ts := newTestServer(t, ServerConfig{}, embedding.NoopProvider{})

	resp := postJSON(t, ts.URL+"/analyze", types.AnalysisRequest{
		ResumeText:     testResume,
		JobDescription: testJD,
	}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	result := decodeBody[types.ATSAnalysisResult](t, resp)
	assert.True(t, result.SemanticScore.IsFallback())
	assert.Equal(t, 31, result.SemanticScore.Score)
	assert.Equal(t, 36, result.FinalScore)
}

func TestAnalyzeEndpointErrors(t *testing.T) {
	_, ts := newTestServer(t, ServerConfig{MaxRequestSize: 512}, &fakeProvider{})

	tests := []struct {
		name        string
		contentType string
		body        string
		wantStatus  int
		wantMessage string
	}{
		{
			name:        "wrong content type",
			contentType: "text/plain",
			body:        `{}`,
			wantStatus:  http.StatusBadRequest,
			wantMessage: "content-type must be application/json",
		},
		{
			name:        "malformed json",
			contentType: "application/json",
			body:        `{"resumeText":`,
			wantStatus:  http.StatusBadRequest,
			wantMessage: "failed to parse JSON",
		},
		{
			name:        "body too large",
			contentType: "application/json",
			body:        fmt.Sprintf(`{"resumeText":%q}`, strings.Repeat("a", 1024)),
			wantStatus:  http.StatusBadRequest,
			wantMessage: "request body too large",
		},
		{
			name:        "job role too long",
			contentType: "application/json; charset=utf-8",
			body:        fmt.Sprintf(`{"resumeText":"go","jobDescription":"go","jobRole":%q}`, strings.Repeat("r", 201)),
			wantStatus:  http.StatusBadRequest,
			wantMessage: "JobRole",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Post(ts.URL+"/analyze", tt.contentType, strings.NewReader(tt.body))
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			body := decodeBody[ErrorResponse](t, resp)
			assert.NotEmpty(t, body.Error)
			assert.Contains(t, body.Message, tt.wantMessage)
		})
	}
}

func TestAnalyzeEndpointMethodNotAllowed(t *testing.T) {
	_, ts := newTestServer(t, ServerConfig{}, &fakeProvider{})

	resp, err := http.Get(ts.URL + "/analyze")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestKeywordsEndpoint(t *testing.T) {
	_, ts := newTestServer(t, ServerConfig{}, &fakeProvider{})

	t.Run("ranked keywords", func(t *testing.T) {
		resp := postJSON(t, ts.URL+"/keywords", types.KeywordsRequest{Text: testJD, TopN: 3}, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		out := decodeBody[types.KeywordsResponse](t, resp)
		assert.Len(t, out.Keywords, 3)
		assert.Positive(t, out.TokenCount)
	})

	t.Run("missing text", func(t *testing.T) {
		resp := postJSON(t, ts.URL+"/keywords", map[string]any{"topN": 3}, nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestAuthMiddleware(t *testing.T) {
	_, ts := newTestServer(t, ServerConfig{APIKeys: []string{"service-key-123456"}}, &fakeProvider{})
	req := types.KeywordsRequest{Text: "Go Kubernetes"}

	tests := []struct {
		name       string
		headers    map[string]string
		wantStatus int
	}{
		{"missing key", nil, http.StatusUnauthorized},
		{"wrong key", map[string]string{"X-API-Key": "nope"}, http.StatusUnauthorized},
		{"x-api-key header", map[string]string{"X-API-Key": "service-key-123456"}, http.StatusOK},
		{"bearer token", map[string]string{"Authorization": "Bearer service-key-123456"}, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := postJSON(t, ts.URL+"/keywords", req, tt.headers)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
		})
	}

	t.Run("health is public", func(t *testing.T) {
		resp, err := http.Get(ts.URL + "/health")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})
}

func TestRateLimitedEndpoint(t *testing.T) {
	s, ts := newTestServer(t, ServerConfig{
		RateLimit: &config.RateLimitConfig{
			Enabled:        true,
			RequestsPerMin: 1,
			BurstCapacity:  1,
			ByIP:           true,
		},
	}, &fakeProvider{})
	req := types.KeywordsRequest{Text: "Go Kubernetes"}

	first := postJSON(t, ts.URL+"/keywords", req, nil)
	assert.Equal(t, http.StatusOK, first.StatusCode)

	second := postJSON(t, ts.URL+"/keywords", req, nil)
	assert.Equal(t, http.StatusTooManyRequests, second.StatusCode)
	assert.Equal(t, "60", second.Header.Get("Retry-After"))

	stats := s.RateLimiter.GetStats()
	assert.Equal(t, int64(1), stats["rejected_requests"])
	assert.Equal(t, 1, stats["active_limiters"])
}

func TestHealthEndpoint(t *testing.T) {
	tests := []struct {
		name          string
		provider      embedding.Provider
		wantStatus    string
		wantAvailable bool
		wantCode      string
	}{
		{
			name:          "healthy provider",
			provider:      &fakeProvider{},
			wantStatus:    "healthy",
			wantAvailable: true,
		},
		{
			name: "circuit open",
			provider: &fakeProvider{healthErr: errors.NewEmbeddingError(
				errors.ErrCodeCircuitOpen, "embedding provider circuit breaker is open", nil)},
			wantStatus: "degraded",
			wantCode:   errors.ErrCodeCircuitOpen,
		},
		{
			name:       "no provider configured",
			provider:   embedding.NoopProvider{},
			wantStatus: "degraded",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ts := newTestServer(t, ServerConfig{Version: "1.2.3"}, tt.provider)

			resp, err := http.Get(ts.URL + "/health")
			require.NoError(t, err)
			defer resp.Body.Close()
			require.Equal(t, http.StatusOK, resp.StatusCode)

			body := decodeBody[map[string]any](t, resp)
			assert.Equal(t, tt.wantStatus, body["status"])
			assert.Equal(t, "1.2.3", body["version"])

			emb, ok := body["embedding"].(map[string]any)
			require.True(t, ok)
			assert.Equal(t, tt.wantAvailable, emb["available"])
			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, emb["code"])
			}
		})
	}
}

func TestHealthEndpointReportsBreaker(t *testing.T) {
	_, ts := newTestServer(t, ServerConfig{}, &fakeProvider{})

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	body := decodeBody[map[string]any](t, resp)
	emb := body["embedding"].(map[string]any)
	breaker, ok := emb["circuit_breaker"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "closed", breaker["state"])
}

func TestStatsEndpoint(t *testing.T) {
	_, ts := newTestServer(t, ServerConfig{MaxRequestSize: 2048, APIKeys: []string{"k"}}, &fakeProvider{})

	resp, err := http.Get(ts.URL + "/stats")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody[map[string]any](t, resp)
	server := body["server"].(map[string]any)
	assert.Equal(t, float64(2048), server["max_request_size_bytes"])
	assert.Equal(t, true, server["auth_enabled"])
	assert.Equal(t, map[string]any{"enabled": false}, body["rate_limiting"])
	assert.Contains(t, body, "embedding")
}

func TestStatusForError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", errors.NewValidationError(errors.ErrCodeInvalidRequest, "bad", nil), http.StatusBadRequest},
		{"embedding", errors.NewEmbeddingError(errors.ErrCodeEmbeddingFailed, "down", nil), http.StatusServiceUnavailable},
		{"network", errors.NewNetworkError(errors.ErrCodeNetworkTimeout, "slow", nil), http.StatusServiceUnavailable},
		{"config", errors.NewConfigError(errors.ErrCodeInvalidConfig, "bad", nil), http.StatusInternalServerError},
		{"deadline", context.DeadlineExceeded, http.StatusGatewayTimeout},
		{"wrapped deadline", fmt.Errorf("analyze: %w", context.DeadlineExceeded), http.StatusGatewayTimeout},
		{"plain", fmt.Errorf("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, statusForError(tt.err))
		})
	}
}

package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"time"

	"atscore/internal/config"
	"atscore/internal/embedding"
	atsErrors "atscore/internal/errors"
	"atscore/internal/types"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	defaultHealthCheckTimeout = 5 * time.Second
	certCriticalThreshold     = 24 * time.Hour
	certWarningThreshold      = 7 * 24 * time.Hour
)

// analyzeHandler scores a resume against a job description
func (s *Server) analyzeHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := s.Observability.Tracer("atscore.api").Start(r.Context(), "api.analyze")
	defer span.End()

	var req types.AnalysisRequest
	if err := parseJSONRequest(r, &req); err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.String("error.type", "validation"))
		writeErrorResponse(w, "Invalid request body", err.Error(), http.StatusBadRequest)
		return
	}

	span.SetAttributes(
		attribute.Int("request.resume_length", len(req.ResumeText)),
		attribute.Int("request.jd_length", len(req.JobDescription)),
	)

	result, err := s.Analyzer.Analyze(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.writeAppError(w, r, err, "Failed to analyze resume")
		return
	}

	span.SetAttributes(
		attribute.String("analysis.id", result.ID),
		attribute.Int("analysis.final_score", result.FinalScore),
	)
	s.writeJSON(w, http.StatusOK, result)
}

// keywordsHandler extracts ranked keywords from a single text
func (s *Server) keywordsHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := s.Observability.Tracer("atscore.api").Start(r.Context(), "api.keywords")
	defer span.End()

	var req types.KeywordsRequest
	if err := parseJSONRequest(r, &req); err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.String("error.type", "validation"))
		writeErrorResponse(w, "Invalid request body", err.Error(), http.StatusBadRequest)
		return
	}

	resp, err := s.Analyzer.ExtractKeywords(ctx, req)
	if err != nil {
		span.RecordError(err)
		s.writeAppError(w, r, err, "Failed to extract keywords")
		return
	}

	span.SetAttributes(attribute.Int("keywords.count", len(resp.Keywords)))
	s.writeJSON(w, http.StatusOK, resp)
}

// healthHandler reports embedding provider and certificate status. An
// unavailable embedding backend degrades semantic scoring to the keyword
// fallback but does not stop the service, so only certificate problems
// produce a 503.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	response := map[string]any{
		"status":  "healthy",
		"service": "atscore",
		"version": s.Version,
	}

	embeddingStatus := s.checkEmbeddingHealth(r.Context())
	response["embedding"] = embeddingStatus
	if available, ok := embeddingStatus["available"].(bool); ok && !available {
		response["status"] = "degraded"
	}

	statusCode := http.StatusOK
	if certStatus := s.checkCertificateHealth(); certStatus != nil {
		response["certificates"] = certStatus
		if healthy, ok := certStatus["healthy"].(bool); ok && !healthy {
			response["status"] = "unhealthy"
			statusCode = http.StatusServiceUnavailable
		}
	}

	s.writeJSON(w, statusCode, response)
}

// checkEmbeddingHealth checks the provider stack within the configured timeout
func (s *Server) checkEmbeddingHealth(ctx context.Context) map[string]any {
	if s.Provider == nil || s.Provider.Name() == config.ProviderNone {
		return map[string]any{
			"provider":  config.ProviderNone,
			"available": false,
			"mode":      "keyword-fallback",
		}
	}

	status := map[string]any{
		"provider":  s.Provider.Name(),
		"available": true,
	}

	if hc, ok := s.Provider.(embedding.HealthChecker); ok {
		ctx, cancel := context.WithTimeout(ctx, s.healthCheckTimeout())
		defer cancel()
		if err := hc.Health(ctx); err != nil {
			status["available"] = false
			status["error"] = err.Error()
			if appErr, ok := atsErrors.AsAppError(err); ok {
				status["code"] = appErr.Code
			}
		}
	}

	if sr, ok := s.Provider.(embedding.StatsReporter); ok {
		if breaker, ok := sr.Stats()["circuit_breaker"]; ok {
			status["circuit_breaker"] = breaker
		}
	}

	return status
}

func (s *Server) healthCheckTimeout() time.Duration {
	if s.HealthCheck.EmbeddingCheckTimeout > 0 {
		return s.HealthCheck.EmbeddingCheckTimeout
	}
	if s.HealthCheck.Timeout > 0 {
		return s.HealthCheck.Timeout
	}
	return defaultHealthCheckTimeout
}

// checkCertificateHealth checks the health of TLS certificates
func (s *Server) checkCertificateHealth() map[string]any {
	if s.CertificateManager == nil {
		return nil
	}

	certStatus := make(map[string]any)

	timeToExpiry, err := s.CertificateManager.CheckExpiry()
	if err != nil {
		certStatus["healthy"] = false
		certStatus["error"] = fmt.Sprintf("Failed to check certificate expiry: %v", err)
		return certStatus
	}

	certStatus["time_to_expiry_hours"] = int(timeToExpiry.Hours())

	switch {
	case timeToExpiry <= 0:
		certStatus["healthy"] = false
		certStatus["status"] = "expired"
	case timeToExpiry <= certCriticalThreshold:
		certStatus["healthy"] = false
		certStatus["status"] = "critical"
	case timeToExpiry <= certWarningThreshold:
		certStatus["healthy"] = true
		certStatus["status"] = "warning"
	default:
		certStatus["healthy"] = true
		certStatus["status"] = "ok"
	}

	certStatus["auto_reload"] = s.CertificateManager.WatcherStatus()
	certStatus["reloads"] = s.CertificateManager.GetMetrics()

	return certStatus
}

// statsHandler provides rate limiter and embedding provider statistics
func (s *Server) statsHandler(w http.ResponseWriter, r *http.Request) {
	response := map[string]any{
		"service": "atscore",
		"version": s.Version,
		"server": map[string]any{
			"max_request_size_bytes": s.MaxRequestSize,
			"auth_enabled":           len(s.APIKeys) > 0,
		},
	}

	if s.RateLimiter != nil {
		response["rate_limiting"] = s.RateLimiter.GetStats()
	} else {
		response["rate_limiting"] = map[string]any{"enabled": false}
	}

	if sr, ok := s.Provider.(embedding.StatsReporter); ok {
		response["embedding"] = sr.Stats()
	}

	s.writeJSON(w, http.StatusOK, response)
}

// parseJSONRequest decodes a JSON request body into v
func parseJSONRequest(r *http.Request, v any) error {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || mediaType != "application/json" {
		return fmt.Errorf("content-type must be application/json")
	}

	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			return fmt.Errorf("request body too large (limit is %d bytes)", maxBytesErr.Limit)
		}
		return fmt.Errorf("failed to parse JSON: %w", err)
	}
	return nil
}

// statusForError maps an error to an HTTP status code
func statusForError(err error) int {
	if errors.Is(err, context.DeadlineExceeded) {
		return http.StatusGatewayTimeout
	}
	if errors.Is(err, context.Canceled) {
		return http.StatusServiceUnavailable
	}

	appErr, ok := atsErrors.AsAppError(err)
	if !ok {
		return http.StatusInternalServerError
	}
	switch appErr.Type {
	case atsErrors.ErrorTypeValidation, atsErrors.ErrorTypeIO:
		return http.StatusBadRequest
	case atsErrors.ErrorTypeEmbedding, atsErrors.ErrorTypeNetwork:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeAppError logs err and writes it using the AppError message when present
func (s *Server) writeAppError(w http.ResponseWriter, r *http.Request, err error, title string) {
	status := statusForError(err)
	message := err.Error()
	if appErr, ok := atsErrors.AsAppError(err); ok {
		message = appErr.Message
	}

	if status >= http.StatusInternalServerError {
		s.Logger.LogError(err, title, "endpoint", r.URL.Path)
	} else {
		s.Logger.Debug(title, "endpoint", r.URL.Path, "error", err.Error())
	}
	writeErrorResponse(w, title, message, status)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.Logger.LogError(err, "Failed to encode response")
	}
}

// writeErrorResponse writes a standardized error response
func writeErrorResponse(w http.ResponseWriter, errTitle, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(ErrorResponse{
		Error:   errTitle,
		Message: message,
	})
}

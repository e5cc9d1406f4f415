package server

import (
	"time"

	"atscore/internal/ats"
	"atscore/internal/config"
	"atscore/internal/embedding"
	atsErrors "atscore/internal/errors"
	"atscore/internal/observability"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// Server holds configuration and collaborators for the HTTP API
type Server struct {
	Host    string
	Port    string
	Version string

	// TLS Configuration
	TLSConfig config.TLSConfig

	// Certificate management
	CertificateManager *CertificateManager

	// Vault connection for watching the TLS secret. VaultClient, when set,
	// is used instead of connecting with Vault.
	Vault       config.VaultConfig
	VaultClient VaultSecretReader

	// API Authentication
	APIKeys map[string]bool

	// Timeout configurations
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	HealthCheck  config.HealthCheckConfig

	// Request size limit
	MaxRequestSize int64

	// Rate limiting
	RateLimit   *config.RateLimitConfig
	RateLimiter *RateLimiter

	// Analysis engine and the embedding provider stack behind it
	Analyzer *ats.Analyzer
	Provider embedding.Provider

	Observability *observability.Manager
	Logger        *atsErrors.Logger
}

// ServerConfig holds configuration for creating a Server instance
type ServerConfig struct {
	Host           string
	Port           string
	Version        string
	TLSConfig      config.TLSConfig
	Vault          config.VaultConfig
	APIKeys        []string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	HealthCheck    config.HealthCheckConfig
	MaxRequestSize int64
	RateLimit      *config.RateLimitConfig
}

// ServerConfigFromConfig derives the server settings from the application config
func ServerConfigFromConfig(cfg *config.Config, version string) ServerConfig {
	return ServerConfig{
		Host:           cfg.Server.Host,
		Port:           cfg.Server.Port,
		Version:        version,
		TLSConfig:      cfg.Server.TLS,
		Vault:          cfg.Vault,
		APIKeys:        cfg.Server.APIKeys,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		HealthCheck:    cfg.Observability.HealthCheck,
		MaxRequestSize: cfg.App.MaxFileSize,
		RateLimit:      &cfg.Server.RateLimit,
	}
}

// NewServer creates a new Server. om may be nil, in which case telemetry is
// a no-op.
func NewServer(cfg ServerConfig, analyzer *ats.Analyzer, provider embedding.Provider, om *observability.Manager, logger *atsErrors.Logger) *Server {
	if logger == nil {
		logger = atsErrors.NewDiscardLogger()
	}

	apiKeyMap := make(map[string]bool)
	for _, key := range cfg.APIKeys {
		if key != "" {
			apiKeyMap[key] = true
		}
	}

	var rateLimiter *RateLimiter
	if cfg.RateLimit != nil && cfg.RateLimit.Enabled {
		rateLimiter = NewRateLimiter(cfg.RateLimit.RequestsPerMin, cfg.RateLimit.Window, cfg.RateLimit.BurstCapacity, logger)
	}

	return &Server{
		Host:           cfg.Host,
		Port:           cfg.Port,
		Version:        cfg.Version,
		TLSConfig:      cfg.TLSConfig,
		Vault:          cfg.Vault,
		APIKeys:        apiKeyMap,
		ReadTimeout:    cfg.ReadTimeout,
		WriteTimeout:   cfg.WriteTimeout,
		IdleTimeout:    cfg.IdleTimeout,
		HealthCheck:    cfg.HealthCheck,
		MaxRequestSize: cfg.MaxRequestSize,
		RateLimit:      cfg.RateLimit,
		RateLimiter:    rateLimiter,
		Analyzer:       analyzer,
		Provider:       provider,
		Observability:  om,
		Logger:         logger,
	}
}

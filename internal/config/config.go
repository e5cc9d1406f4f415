package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"atscore/internal/errors"

	"github.com/spf13/viper"
)

// Config holds all application configuration
// Secret precedence order:
// 1. Vault (if configured) - Highest priority
// 2. Config file values
// 3. Environment variables (ATSCORE_EMBEDDING_APIKEY, etc.)
// 4. Default values - Lowest priority
type Config struct {
	Embedding     EmbeddingConfig     `mapstructure:"embedding"`
	Analysis      AnalysisConfig      `mapstructure:"analysis"`
	Server        ServerConfig        `mapstructure:"server"`
	App           AppConfig           `mapstructure:"app"`
	Vault         VaultConfig         `mapstructure:"vault"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

// Embedding provider names
const (
	ProviderHTTP   = "http"
	ProviderGemini = "gemini"
	ProviderNone   = "none"
)

// EmbeddingConfig holds the embedding provider configuration
type EmbeddingConfig struct {
	Provider       string               `mapstructure:"provider"` // http, gemini, none
	BaseURL        string               `mapstructure:"baseURL"`
	Model          string               `mapstructure:"model"`
	APIKey         string               `mapstructure:"apiKey"`
	Timeout        time.Duration        `mapstructure:"timeout"`
	Dimension      int                  `mapstructure:"dimension"`
	CacheSize      int                  `mapstructure:"cacheSize"` // 0 disables the vector cache
	CircuitBreaker CircuitBreakerConfig `mapstructure:"circuitBreaker"`
}

// CircuitBreakerConfig represents circuit breaker configuration
type CircuitBreakerConfig struct {
	Enabled          bool          `mapstructure:"enabled"`
	MaxRequests      uint32        `mapstructure:"maxRequests"`      // Max requests allowed when half-open
	Interval         time.Duration `mapstructure:"interval"`         // Interval to clear counts
	Timeout          time.Duration `mapstructure:"timeout"`          // Open to half-open delay
	MinRequests      uint32        `mapstructure:"minRequests"`      // Minimum requests before tripping
	FailureThreshold float64       `mapstructure:"failureThreshold"` // Failure ratio threshold (0.0-1.0)
}

// AnalysisConfig holds keyword extraction settings for the standalone commands
type AnalysisConfig struct {
	TopKeywords int `mapstructure:"topKeywords"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"readTimeout"`
	WriteTimeout time.Duration `mapstructure:"writeTimeout"`
	IdleTimeout  time.Duration `mapstructure:"idleTimeout"`

	TLS TLSConfig `mapstructure:"tls"`

	// Service-to-service API keys; empty disables the check
	APIKeys []string `mapstructure:"apiKeys"`

	RateLimit RateLimitConfig `mapstructure:"rateLimit"`
}

// TLSConfig holds TLS/mTLS configuration
type TLSConfig struct {
	Mode     string `mapstructure:"mode"` // disabled, server, mutual
	CertFile string `mapstructure:"certFile"`
	KeyFile  string `mapstructure:"keyFile"`
	CAFile   string `mapstructure:"caFile"`

	// PEM content, populated from Vault
	CertContent string `mapstructure:"certContent"`
	KeyContent  string `mapstructure:"keyContent"`
	CAContent   string `mapstructure:"caContent"`

	MinVersion       string `mapstructure:"minVersion"`       // 1.2, 1.3
	ClientAuthPolicy string `mapstructure:"clientAuthPolicy"` // require, request, verify

	AutoReload AutoReloadConfig `mapstructure:"autoReload"`
}

// AutoReloadConfig controls certificate hot reload from disk and from Vault
type AutoReloadConfig struct {
	Enabled       bool          `mapstructure:"enabled"`
	DebounceDelay time.Duration `mapstructure:"debounceDelay"`

	Vault VaultWatcherConfig `mapstructure:"vault"`
}

// VaultWatcherConfig polls a KVv2 TLS secret and reloads when its version moves
type VaultWatcherConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	PollInterval time.Duration `mapstructure:"pollInterval"`
	SecretPath   string        `mapstructure:"secretPath"` // defaults to vault.secrets.tlsCerts
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	RequestsPerMin int           `mapstructure:"requestsPerMin"`
	BurstCapacity  int           `mapstructure:"burstCapacity"`
	ByIP           bool          `mapstructure:"byIP"`
	ByAPIKey       bool          `mapstructure:"byAPIKey"`
	Window         time.Duration `mapstructure:"window"` // Idle limiter cleanup window
}

// AppConfig holds general application configuration
type AppConfig struct {
	LogLevel         string   `mapstructure:"logLevel"`
	DefaultFormat    string   `mapstructure:"defaultFormat"`
	SupportedFormats []string `mapstructure:"supportedFormats"`
	MaxFileSize      int64    `mapstructure:"maxFileSize"`
}

// ObservabilityConfig holds observability configuration
type ObservabilityConfig struct {
	Enabled         bool                `mapstructure:"enabled"`
	ServiceName     string              `mapstructure:"serviceName"`
	ServiceVersion  string              `mapstructure:"serviceVersion"`
	ServiceInstance string              `mapstructure:"serviceInstance"`
	ConsoleOutput   bool                `mapstructure:"consoleOutput"`
	Tracing         TracingConfig       `mapstructure:"tracing"`
	Metrics         MetricsConfig       `mapstructure:"metrics"`
	CustomMetrics   CustomMetricsConfig `mapstructure:"customMetrics"`
	Prometheus      PrometheusConfig    `mapstructure:"prometheus"`
	OTLP            OTLPConfig          `mapstructure:"otlp"`
	HealthCheck     HealthCheckConfig   `mapstructure:"healthCheck"`
}

// TracingConfig holds tracing configuration
type TracingConfig struct {
	Enabled    bool    `mapstructure:"enabled"`
	SampleRate float64 `mapstructure:"sampleRate"`
}

// MetricsConfig holds metrics configuration
type MetricsConfig struct {
	Enabled            bool          `mapstructure:"enabled"`
	CollectionInterval time.Duration `mapstructure:"collectionInterval"`
}

// CustomMetricsConfig toggles groups of domain metrics
type CustomMetricsConfig struct {
	Embedding      EmbeddingMetricsConfig      `mapstructure:"embedding"`
	Analysis       AnalysisMetricsConfig       `mapstructure:"analysis"`
	Infrastructure InfrastructureMetricsConfig `mapstructure:"infrastructure"`
}

// EmbeddingMetricsConfig holds embedding provider metrics configuration
type EmbeddingMetricsConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	TrackDuration bool `mapstructure:"trackDuration"`
}

// AnalysisMetricsConfig holds analysis metrics configuration
type AnalysisMetricsConfig struct {
	Enabled     bool `mapstructure:"enabled"`
	TrackScores bool `mapstructure:"trackScores"`
}

// InfrastructureMetricsConfig holds infrastructure metrics configuration
type InfrastructureMetricsConfig struct {
	Enabled          bool `mapstructure:"enabled"`
	TrackRateLimits  bool `mapstructure:"trackRateLimits"`
	TrackCertReloads bool `mapstructure:"trackCertReloads"`
}

// PrometheusConfig holds Prometheus configuration
type PrometheusConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Endpoint string `mapstructure:"endpoint"`
	Port     string `mapstructure:"port"`
}

// OTLPConfig holds OTLP exporter configuration
type OTLPConfig struct {
	Enabled  bool              `mapstructure:"enabled"`
	Endpoint string            `mapstructure:"endpoint"`
	Insecure bool              `mapstructure:"insecure"`
	Headers  map[string]string `mapstructure:"headers"`
}

// HealthCheckConfig holds health check configuration
type HealthCheckConfig struct {
	Timeout               time.Duration `mapstructure:"timeout"`
	EmbeddingCheckTimeout time.Duration `mapstructure:"embeddingCheckTimeout"`
}

// LoadConfig loads configuration from defaults, an optional config file and
// environment variables. ATSCORE_CONFIG points at an explicit config file.
func LoadConfig() (*Config, error) {
	log.Println("[CONFIG] Starting configuration loading process")

	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix("ATSCORE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if explicit := os.Getenv("ATSCORE_CONFIG"); explicit != "" {
		v.SetConfigFile(explicit)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("/etc/atscore/")
		v.AddConfigPath("$HOME/.config/atscore")
		v.AddConfigPath(".")
	}

	configFileUsed := ""
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig, "failed to read config file", err)
		}
		log.Println("[CONFIG] No config file found, using defaults and environment variables")
	} else {
		configFileUsed = v.ConfigFileUsed()
		log.Printf("[CONFIG] Loaded config file: %s", configFileUsed)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig, "failed to unmarshal config", err)
	}

	config.applyFallbacks()
	config.logConfigurationSources(configFileUsed)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	log.Println("[CONFIG] Configuration loading completed successfully")
	return &config, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if err := c.validateEmbedding(); err != nil {
		return err
	}

	if c.Analysis.TopKeywords <= 0 {
		return invalidConfig("analysis.topKeywords must be positive")
	}

	if c.Server.Port == "" {
		return invalidConfig("server port is required")
	}

	if _, err := errors.ParseLevel(c.App.LogLevel); err != nil {
		return errors.NewConfigError(errors.ErrCodeInvalidConfig, "invalid app.logLevel", err)
	}

	validFormats := make(map[string]bool)
	for _, format := range c.App.SupportedFormats {
		validFormats[format] = true
	}
	if !validFormats[c.App.DefaultFormat] {
		return invalidConfig(fmt.Sprintf("invalid default format: %s", c.App.DefaultFormat))
	}

	if err := c.ValidateTLSConfig(); err != nil {
		return errors.NewConfigError(errors.ErrCodeInvalidConfig, "TLS configuration error", err)
	}

	return nil
}

func (c *Config) validateEmbedding() error {
	e := c.Embedding

	switch e.Provider {
	case ProviderHTTP:
		if e.BaseURL == "" {
			return invalidConfig("embedding.baseURL is required for the http provider")
		}
	case ProviderGemini:
		if e.APIKey == "" {
			return errors.NewConfigError(errors.ErrCodeMissingAPIKey,
				"embedding API key is required for the gemini provider (set ATSCORE_EMBEDDING_APIKEY or GEMINI_API_KEY)", nil)
		}
	case ProviderNone:
	default:
		return invalidConfig(fmt.Sprintf("unknown embedding provider: %s (must be 'http', 'gemini', or 'none')", e.Provider))
	}

	if e.Timeout <= 0 {
		return invalidConfig("embedding timeout must be positive")
	}
	if e.Dimension <= 0 {
		return invalidConfig("embedding dimension must be positive")
	}
	if e.CacheSize < 0 {
		return invalidConfig("embedding cacheSize cannot be negative")
	}

	cb := e.CircuitBreaker
	if cb.Enabled && (cb.FailureThreshold <= 0 || cb.FailureThreshold > 1) {
		return invalidConfig("embedding circuitBreaker.failureThreshold must be in (0, 1]")
	}

	return nil
}

func invalidConfig(message string) error {
	return errors.NewConfigError(errors.ErrCodeInvalidConfig, message, nil)
}

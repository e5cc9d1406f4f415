package observability

import (
	"atscore/internal/config"
)

// Settings is the resolved observability setup for one process
type Settings struct {
	ServiceName     string
	ServiceVersion  string
	ServiceInstance string
	Enabled         bool
	ConsoleOutput   bool
	TracingEnabled  bool
	MetricsEnabled  bool
	SampleRate      float64
	Prometheus      PrometheusSettings
}

// SettingsFromConfig resolves settings, falling back to the build version
// when no service version is configured.
func SettingsFromConfig(cfg *config.Config, version string) Settings {
	if cfg == nil {
		return Settings{
			ServiceName:    "atscore",
			ServiceVersion: version,
			Enabled:        false,
			SampleRate:     1.0,
		}
	}

	obs := cfg.Observability
	serviceVersion := obs.ServiceVersion
	if serviceVersion == "" {
		serviceVersion = version
	}

	return Settings{
		ServiceName:     obs.ServiceName,
		ServiceVersion:  serviceVersion,
		ServiceInstance: obs.ServiceInstance,
		Enabled:         obs.Enabled,
		ConsoleOutput:   obs.ConsoleOutput,
		TracingEnabled:  obs.Tracing.Enabled,
		MetricsEnabled:  obs.Metrics.Enabled,
		SampleRate:      obs.Tracing.SampleRate,
		Prometheus: PrometheusSettings{
			Enabled:  obs.Prometheus.Enabled,
			Endpoint: obs.Prometheus.Endpoint,
			Port:     obs.Prometheus.Port,
		},
	}
}

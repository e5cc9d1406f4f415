package observability

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"atscore/internal/errors"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/sdk/metric"
)

// PrometheusSettings controls the scrape endpoint
type PrometheusSettings struct {
	Enabled  bool
	Endpoint string
	Port     string
}

// newPrometheusReader creates the exporter and a mux serving it on the
// configured endpoint. The exporter registers with the default registry,
// which promhttp.Handler serves.
func newPrometheusReader(settings PrometheusSettings) (metric.Reader, *http.ServeMux, error) {
	exporter, err := prometheus.New()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create Prometheus exporter: %w", err)
	}

	endpoint := settings.Endpoint
	if endpoint == "" {
		endpoint = "/metrics"
	}
	mux := http.NewServeMux()
	mux.Handle(endpoint, promhttp.Handler())

	return exporter, mux, nil
}

// startPrometheusServer serves mux on its own port. The listener is bound
// before returning so port conflicts surface at startup.
func startPrometheusServer(mux *http.ServeMux, port string, logger *errors.Logger) (func(context.Context) error, error) {
	listener, err := net.Listen("tcp", ":"+port)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on Prometheus port %s: %w", port, err)
	}

	server := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	logger.Info("Prometheus metrics server started", "address", listener.Addr().String())

	go func() {
		if err := server.Serve(listener); err != nil && err != http.ErrServerClosed {
			logger.LogError(err, "Prometheus server error")
		}
	}()

	return server.Shutdown, nil
}

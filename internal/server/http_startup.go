package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"
)

const shutdownTimeout = 30 * time.Second

// Start listens on the configured address and serves until ctx is done or
// the process receives SIGINT/SIGTERM.
func (s *Server) Start(ctx context.Context) error {
	addr := net.JoinHostPort(s.Host, s.Port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve runs the API on ln with graceful shutdown
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tlsConfig, err := s.configureTLS()
	if err != nil {
		_ = ln.Close()
		return err
	}

	httpServer := &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  s.ReadTimeout,
		WriteTimeout: s.WriteTimeout,
		IdleTimeout:  s.IdleTimeout,
		TLSConfig:    tlsConfig,
	}

	s.logServerInfo(ln.Addr().String(), tlsConfig != nil)

	serverErrors := make(chan error, 1)
	go func() {
		var err error
		if tlsConfig != nil {
			// certificates come from TLSConfig.GetCertificate
			err = httpServer.ServeTLS(ln, "", "")
		} else {
			err = httpServer.Serve(ln)
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- err
		}
		close(serverErrors)
	}()

	select {
	case err, ok := <-serverErrors:
		s.cleanup()
		if ok {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
		s.Logger.Info("Shutdown requested, starting graceful shutdown")
		return s.performGracefulShutdown(httpServer)
	}
}

// performGracefulShutdown drains in-flight requests, then releases the
// rate limiter and certificate watcher.
func (s *Server) performGracefulShutdown(server *http.Server) error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	defer s.cleanup()

	if err := server.Shutdown(shutdownCtx); err != nil {
		s.Logger.LogError(err, "Failed to shutdown server gracefully, forcing close")
		return server.Close()
	}

	s.Logger.Info("Server shutdown completed successfully")
	return nil
}

func (s *Server) cleanup() {
	if s.CertificateManager != nil {
		if err := s.CertificateManager.Stop(); err != nil {
			s.Logger.LogError(err, "Failed to stop certificate manager")
		}
	}
	if s.RateLimiter != nil {
		s.RateLimiter.Close()
	}
}

// logServerInfo records the effective server setup
func (s *Server) logServerInfo(addr string, tlsEnabled bool) {
	s.Logger.Info("Starting HTTP server",
		"address", addr,
		"tls_mode", s.TLSConfig.Mode,
		"tls_enabled", tlsEnabled,
		"endpoints", []string{"POST /analyze", "POST /keywords", "GET /health", "GET /stats"})

	if len(s.APIKeys) > 0 {
		s.Logger.Info("API authentication enabled", "keys_configured", len(s.APIKeys))
	} else {
		s.Logger.Warn("API authentication disabled, analysis endpoints are publicly accessible")
	}

	if s.MaxRequestSize > 0 {
		s.Logger.Info("Request size limit", "bytes", s.MaxRequestSize)
	} else {
		s.Logger.Warn("No request size limit configured")
	}

	if s.RateLimit != nil && s.RateLimit.Enabled {
		s.Logger.Info("Rate limiting enabled",
			"requests_per_min", s.RateLimit.RequestsPerMin,
			"burst", s.RateLimit.BurstCapacity,
			"by_ip", s.RateLimit.ByIP,
			"by_api_key", s.RateLimit.ByAPIKey)
	} else {
		s.Logger.Warn("Rate limiting disabled")
	}
}

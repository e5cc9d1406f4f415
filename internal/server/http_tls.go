package server

import (
	"crypto/tls"
	"fmt"

	"atscore/internal/config"
)

// configureTLS starts the certificate manager and builds the listener TLS
// config. It returns nil when TLS is disabled.
func (s *Server) configureTLS() (*tls.Config, error) {
	switch s.TLSConfig.Mode {
	case config.TLSModeDisabled, "":
		return nil, nil
	case config.TLSModeServer, config.TLSModeMutual:
	default:
		return nil, fmt.Errorf("invalid TLS mode: %s (must be 'disabled', 'server', or 'mutual')", s.TLSConfig.Mode)
	}

	certManager := NewCertificateManager(s.TLSConfig, s.Observability.Metrics(), s.Logger)
	if s.TLSConfig.AutoReload.Vault.Enabled {
		client, err := s.vaultClient()
		if err != nil {
			return nil, err
		}
		certManager.UseVaultSource(client)
	}
	if err := certManager.Start(); err != nil {
		return nil, fmt.Errorf("failed to set up TLS: %w", err)
	}
	certManager.AddReloadCallback(func(success bool, err error) {
		if success {
			s.Logger.Info("TLS certificates reloaded successfully")
		} else {
			s.Logger.LogError(err, "Failed to reload TLS certificates")
		}
	})
	s.CertificateManager = certManager

	return s.buildTLSConfig(certManager), nil
}

// vaultClient returns the injected client or connects to Vault
func (s *Server) vaultClient() (VaultSecretReader, error) {
	if s.VaultClient != nil {
		return s.VaultClient, nil
	}
	if !s.Vault.Enabled {
		return nil, fmt.Errorf("vault certificate watching requires vault.enabled")
	}
	vc, err := config.NewVaultClient(s.Vault, s.Logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Vault client: %w", err)
	}
	s.VaultClient = vc
	return vc, nil
}

// buildTLSConfig creates a TLS config that always reads the current
// certificate and client CA pool from the manager.
func (s *Server) buildTLSConfig(cm *CertificateManager) *tls.Config {
	base := &tls.Config{
		MinVersion:     minTLSVersion(s.TLSConfig.MinVersion),
		GetCertificate: cm.GetServerCertificate,
		ClientAuth:     tls.NoClientCert,
	}

	if s.TLSConfig.Mode != config.TLSModeMutual {
		return base
	}

	base.ClientAuth = clientAuthPolicy(s.TLSConfig.ClientAuthPolicy)
	base.ClientCAs = cm.GetCACertPool()
	base.GetConfigForClient = func(*tls.ClientHelloInfo) (*tls.Config, error) {
		cfg := base.Clone()
		cfg.ClientCAs = cm.GetCACertPool()
		cfg.GetConfigForClient = nil
		return cfg, nil
	}
	return base
}

func minTLSVersion(version string) uint16 {
	if version == "1.3" {
		return tls.VersionTLS13
	}
	return tls.VersionTLS12
}

func clientAuthPolicy(policy string) tls.ClientAuthType {
	switch policy {
	case "request":
		return tls.RequestClientCert
	case "verify":
		return tls.VerifyClientCertIfGiven
	default:
		return tls.RequireAndVerifyClientCert
	}
}

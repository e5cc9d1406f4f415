package server

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
	"sync"
	"time"

	"atscore/internal/config"
	"atscore/internal/errors"
)

// CertReloadRecorder receives certificate reload outcomes
type CertReloadRecorder interface {
	RecordCertReload(ctx context.Context, success bool, notAfter time.Time)
}

// ReloadCallback is called after every reload attempt
type ReloadCallback func(success bool, err error)

// CertificateMetrics holds counters about certificate reloads
type CertificateMetrics struct {
	ReloadCount        int64     `json:"reload_count"`
	ReloadSuccessCount int64     `json:"reload_success_count"`
	ReloadFailureCount int64     `json:"reload_failure_count"`
	LastReloadTime     time.Time `json:"last_reload_time"`
	LastReloadSuccess  bool      `json:"last_reload_success"`
	LastReloadError    string    `json:"last_reload_error,omitempty"`
}

// CertificateManager holds the live server certificate and client CA pool.
// A failed reload keeps the previously loaded material in service.
type CertificateManager struct {
	mu sync.RWMutex

	serverCert       *tls.Certificate
	caCertPool       *x509.CertPool
	serverCertExpiry time.Time

	fileWatcher  *CertWatcher
	vaultSource  VaultSecretReader
	vaultWatcher *VaultWatcher

	config          config.TLSConfig
	reloadCallbacks []ReloadCallback
	recorder        CertReloadRecorder
	logger          *errors.Logger
	now             func() time.Time

	metrics CertificateMetrics
}

// NewCertificateManager creates a certificate manager. recorder may be nil.
func NewCertificateManager(tlsConfig config.TLSConfig, recorder CertReloadRecorder, logger *errors.Logger) *CertificateManager {
	if logger == nil {
		logger = errors.NewDiscardLogger()
	}
	return &CertificateManager{
		config:   tlsConfig,
		recorder: recorder,
		logger:   logger,
		now:      time.Now,
	}
}

// UseVaultSource sets the client the Vault watcher polls. Call before Start.
func (cm *CertificateManager) UseVaultSource(client VaultSecretReader) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.vaultSource = client
}

// Start loads the initial certificates and, when auto-reload is enabled,
// starts watching the files and the Vault TLS secret.
func (cm *CertificateManager) Start() error {
	if err := cm.loadCertificates(); err != nil {
		return fmt.Errorf("failed to load initial certificates: %w", err)
	}
	if err := cm.startFileWatcher(); err != nil {
		return err
	}
	return cm.startVaultWatcher()
}

func (cm *CertificateManager) startFileWatcher() error {
	if !cm.config.AutoReload.Enabled {
		return nil
	}

	var files []string
	for _, f := range []string{cm.config.CertFile, cm.config.KeyFile, cm.config.CAFile} {
		if f != "" {
			files = append(files, f)
		}
	}
	if len(files) == 0 {
		return nil
	}

	watcher := NewCertWatcher(files, cm.config.AutoReload.DebounceDelay, cm.triggerReload, cm.logger)
	if err := watcher.Start(); err != nil {
		return fmt.Errorf("failed to start certificate watcher: %w", err)
	}

	cm.mu.Lock()
	cm.fileWatcher = watcher
	cm.mu.Unlock()
	return nil
}

func (cm *CertificateManager) startVaultWatcher() error {
	cm.mu.RLock()
	watch := cm.config.AutoReload.Vault
	client := cm.vaultSource
	cm.mu.RUnlock()
	if !watch.Enabled {
		return nil
	}
	if client == nil {
		return fmt.Errorf("vault certificate watching is enabled but no Vault client is configured")
	}
	if watch.SecretPath == "" {
		return fmt.Errorf("vault certificate watching requires a secret path")
	}

	watcher := NewVaultWatcher(client, watch.SecretPath, watch.PollInterval, cm.applyVaultCertificates, cm.logger)
	if err := watcher.Start(); err != nil {
		return fmt.Errorf("failed to start Vault certificate watcher: %w", err)
	}

	cm.mu.Lock()
	cm.vaultWatcher = watcher
	cm.mu.Unlock()
	return nil
}

// Stop stops the running watchers
func (cm *CertificateManager) Stop() error {
	cm.mu.RLock()
	fileWatcher := cm.fileWatcher
	vaultWatcher := cm.vaultWatcher
	cm.mu.RUnlock()

	if fileWatcher != nil {
		if err := fileWatcher.Stop(); err != nil {
			return err
		}
	}
	if vaultWatcher != nil {
		if err := vaultWatcher.Stop(); err != nil {
			return err
		}
	}
	cm.logger.Info("Certificate manager stopped")
	return nil
}

// GetServerCertificate serves the current certificate to TLS handshakes
func (cm *CertificateManager) GetServerCertificate(hello *tls.ClientHelloInfo) (*tls.Certificate, error) {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	if cm.serverCert == nil {
		return nil, fmt.Errorf("no server certificate available")
	}
	if cm.now().After(cm.serverCertExpiry) {
		cm.logger.Warn("Serving expired server certificate",
			"expiry", cm.serverCertExpiry,
			"server_name", hello.ServerName)
	}
	return cm.serverCert, nil
}

// GetCACertPool returns the current client CA pool
func (cm *CertificateManager) GetCACertPool() *x509.CertPool {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.caCertPool
}

// ReloadCertificates reloads certificates on demand
func (cm *CertificateManager) ReloadCertificates() error {
	return cm.loadCertificates()
}

// AddReloadCallback registers a callback run after every reload attempt
func (cm *CertificateManager) AddReloadCallback(callback ReloadCallback) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.reloadCallbacks = append(cm.reloadCallbacks, callback)
}

// CheckExpiry returns the time left until the server certificate expires
func (cm *CertificateManager) CheckExpiry() (time.Duration, error) {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	if cm.serverCertExpiry.IsZero() {
		return 0, fmt.Errorf("no certificates loaded")
	}
	return cm.serverCertExpiry.Sub(cm.now()), nil
}

// GetMetrics returns a snapshot of the reload counters
func (cm *CertificateManager) GetMetrics() CertificateMetrics {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.metrics
}

// WatcherStatus describes the auto-reload state for the health endpoint
func (cm *CertificateManager) WatcherStatus() map[string]any {
	cm.mu.RLock()
	watcher := cm.fileWatcher
	vaultWatcher := cm.vaultWatcher
	enabled := cm.config.AutoReload.Enabled
	cm.mu.RUnlock()

	status := map[string]any{"enabled": enabled}
	if watcher != nil {
		status["running"] = watcher.IsRunning()
		status["watched_files"] = watcher.WatchedFiles()
	}
	if vaultWatcher != nil {
		status["vault"] = vaultWatcher.Status()
	}
	return status
}

// loadCertificates reads the key pair and, in mutual mode, the client CA,
// then swaps them in together.
func (cm *CertificateManager) loadCertificates() error {
	cm.mu.RLock()
	cfg := cm.config
	cm.mu.RUnlock()
	return cm.loadFrom(cfg)
}

// loadFrom loads material described by cfg and, on success, makes cfg the
// configuration later reloads start from.
func (cm *CertificateManager) loadFrom(cfg config.TLSConfig) error {
	cert, expiry, err := loadKeyPair(cfg)
	var pool *x509.CertPool
	if err == nil && cfg.Mode == config.TLSModeMutual {
		pool, err = loadCAPool(cfg)
	}
	if err != nil {
		cm.finishReload(false, time.Time{}, err)
		return err
	}

	cm.mu.Lock()
	cm.config = cfg
	cm.serverCert = &cert
	cm.serverCertExpiry = expiry
	if pool != nil {
		cm.caCertPool = pool
	}
	cm.mu.Unlock()

	cm.finishReload(true, expiry, nil)
	cm.logger.Info("Certificates loaded", "server_cert_expiry", expiry)
	return nil
}

func (cm *CertificateManager) finishReload(success bool, notAfter time.Time, err error) {
	cm.mu.Lock()
	cm.metrics.ReloadCount++
	cm.metrics.LastReloadTime = cm.now()
	cm.metrics.LastReloadSuccess = success
	if success {
		cm.metrics.ReloadSuccessCount++
		cm.metrics.LastReloadError = ""
	} else {
		cm.metrics.ReloadFailureCount++
		cm.metrics.LastReloadError = err.Error()
	}
	callbacks := make([]ReloadCallback, len(cm.reloadCallbacks))
	copy(callbacks, cm.reloadCallbacks)
	cm.mu.Unlock()

	if cm.recorder != nil {
		cm.recorder.RecordCertReload(context.Background(), success, notAfter)
	}
	for _, callback := range callbacks {
		callback(success, err)
	}
}

// triggerReload is the watcher callback
func (cm *CertificateManager) triggerReload() {
	cm.logger.Info("Certificate reload triggered by file change")
	if err := cm.loadCertificates(); err != nil {
		cm.logger.LogError(err, "Failed to reload certificates, keeping previous ones")
	}
}

// applyVaultCertificates is the Vault watcher callback. Empty fields keep the
// current content.
func (cm *CertificateManager) applyVaultCertificates(data *CertificateData, err error) {
	if err != nil {
		cm.finishReload(false, time.Time{}, err)
		cm.logger.LogError(err, "Failed to fetch certificates from Vault, keeping previous ones")
		return
	}

	cm.mu.RLock()
	cfg := cm.config
	cm.mu.RUnlock()

	if data.CertContent != "" {
		cfg.CertContent = data.CertContent
	}
	if data.KeyContent != "" {
		cfg.KeyContent = data.KeyContent
	}
	if data.CAContent != "" {
		cfg.CAContent = data.CAContent
	}

	if err := cm.loadFrom(cfg); err != nil {
		cm.logger.LogError(err, "Failed to apply certificates from Vault, keeping previous ones")
	}
}

// loadKeyPair loads the server key pair from inline content or files
func loadKeyPair(cfg config.TLSConfig) (tls.Certificate, time.Time, error) {
	var (
		cert tls.Certificate
		err  error
	)
	switch {
	case cfg.CertContent != "" && cfg.KeyContent != "":
		cert, err = tls.X509KeyPair([]byte(cfg.CertContent), []byte(cfg.KeyContent))
	case cfg.CertFile != "" && cfg.KeyFile != "":
		cert, err = tls.LoadX509KeyPair(cfg.CertFile, cfg.KeyFile)
	default:
		return tls.Certificate{}, time.Time{}, fmt.Errorf("TLS certificate and key are required (provide either files or content)")
	}
	if err != nil {
		return tls.Certificate{}, time.Time{}, fmt.Errorf("failed to load server cert/key: %w", err)
	}

	leaf, err := x509.ParseCertificate(cert.Certificate[0])
	if err != nil {
		return tls.Certificate{}, time.Time{}, fmt.Errorf("failed to parse server certificate: %w", err)
	}
	cert.Leaf = leaf
	return cert, leaf.NotAfter, nil
}

// loadCAPool builds the client CA pool from inline content or a file
func loadCAPool(cfg config.TLSConfig) (*x509.CertPool, error) {
	var caCert []byte
	switch {
	case cfg.CAContent != "":
		caCert = []byte(cfg.CAContent)
	case cfg.CAFile != "":
		data, err := os.ReadFile(cfg.CAFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read CA file: %w", err)
		}
		caCert = data
	default:
		return nil, fmt.Errorf("CA certificate is required for mutual TLS mode (provide either caFile or caContent)")
	}

	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(caCert) {
		return nil, fmt.Errorf("failed to parse CA certificate")
	}
	return pool, nil
}

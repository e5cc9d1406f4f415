package server

import (
	"fmt"
	"sync"
	"time"

	"atscore/internal/config"
	"atscore/internal/errors"
)

// VaultSecretReader reads KVv2 secrets. *config.VaultClient satisfies it.
type VaultSecretReader interface {
	GetSecretV2(path string) (*config.VaultSecret, error)
}

// CertificateData is the PEM material held in the Vault TLS secret
type CertificateData struct {
	CertContent string
	KeyContent  string
	CAContent   string
}

// VaultReloadCallback receives new certificate data, or the error that
// prevented fetching it.
type VaultReloadCallback func(data *CertificateData, err error)

// VaultWatcher polls a Vault TLS secret and calls back whenever its version
// moves past the last one seen.
type VaultWatcher struct {
	mu sync.RWMutex

	client       VaultSecretReader
	secretPath   string
	pollInterval time.Duration
	onChange     VaultReloadCallback
	logger       *errors.Logger

	stopChan    chan struct{}
	stopOnce    sync.Once
	done        chan struct{}
	running     bool
	lastVersion int64
	lastPoll    time.Time
}

// NewVaultWatcher creates a watcher for secretPath
func NewVaultWatcher(client VaultSecretReader, secretPath string, pollInterval time.Duration, onChange VaultReloadCallback, logger *errors.Logger) *VaultWatcher {
	if logger == nil {
		logger = errors.NewDiscardLogger()
	}
	if pollInterval <= 0 {
		pollInterval = 5 * time.Minute
	}
	return &VaultWatcher{
		client:       client,
		secretPath:   secretPath,
		pollInterval: pollInterval,
		onChange:     onChange,
		logger:       logger,
		stopChan:     make(chan struct{}),
		done:         make(chan struct{}),
	}
}

// Start records the current secret version and begins polling. The material
// already loaded at startup matches that version, so it is not reloaded.
func (vw *VaultWatcher) Start() error {
	vw.mu.Lock()
	defer vw.mu.Unlock()
	if vw.running {
		return fmt.Errorf("vault watcher is already running")
	}

	secret, err := vw.client.GetSecretV2(vw.secretPath)
	if err != nil {
		return fmt.Errorf("failed to read TLS secret %s: %w", vw.secretPath, err)
	}
	vw.lastVersion = secret.Version
	vw.running = true

	go vw.pollLoop()
	vw.logger.Info("Vault certificate watcher started",
		"secret_path", vw.secretPath,
		"poll_interval", vw.pollInterval,
		"version", vw.lastVersion)
	return nil
}

// Stop ends polling and waits for the loop to exit
func (vw *VaultWatcher) Stop() error {
	vw.mu.RLock()
	running := vw.running
	vw.mu.RUnlock()
	if !running {
		return nil
	}

	vw.stopOnce.Do(func() { close(vw.stopChan) })
	<-vw.done

	vw.mu.Lock()
	vw.running = false
	vw.mu.Unlock()
	vw.logger.Info("Vault certificate watcher stopped")
	return nil
}

func (vw *VaultWatcher) pollLoop() {
	defer close(vw.done)
	ticker := time.NewTicker(vw.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			vw.poll()
		case <-vw.stopChan:
			return
		}
	}
}

// poll checks the secret once and notifies on a new version
func (vw *VaultWatcher) poll() {
	data, changed, err := vw.checkForUpdates()
	if err != nil {
		vw.logger.LogError(err, "Failed to check Vault for certificate updates", "secret_path", vw.secretPath)
		return
	}
	if !changed {
		return
	}
	vw.logger.Info("Vault TLS secret changed, reloading certificates", "version", vw.Version())
	vw.onChange(data, nil)
}

// checkForUpdates reads the secret and reports whether its version is newer
// than the last one seen. The data of a newer version is returned with it.
func (vw *VaultWatcher) checkForUpdates() (*CertificateData, bool, error) {
	secret, err := vw.client.GetSecretV2(vw.secretPath)

	vw.mu.Lock()
	defer vw.mu.Unlock()
	vw.lastPoll = time.Now()
	if err != nil {
		return nil, false, fmt.Errorf("failed to read secret: %w", err)
	}
	if secret.Version <= vw.lastVersion {
		return nil, false, nil
	}
	vw.lastVersion = secret.Version
	return certificateDataFrom(secret), true, nil
}

func certificateDataFrom(secret *config.VaultSecret) *CertificateData {
	data := &CertificateData{}
	if v, ok := secret.Data["cert"].(string); ok {
		data.CertContent = v
	}
	if v, ok := secret.Data["key"].(string); ok {
		data.KeyContent = v
	}
	if v, ok := secret.Data["ca"].(string); ok {
		data.CAContent = v
	}
	return data
}

// Version is the last secret version seen
func (vw *VaultWatcher) Version() int64 {
	vw.mu.RLock()
	defer vw.mu.RUnlock()
	return vw.lastVersion
}

// Status describes the watcher for the health endpoint
func (vw *VaultWatcher) Status() map[string]any {
	vw.mu.RLock()
	defer vw.mu.RUnlock()
	status := map[string]any{
		"running":       vw.running,
		"secret_path":   vw.secretPath,
		"poll_interval": vw.pollInterval.String(),
		"last_version":  vw.lastVersion,
	}
	if !vw.lastPoll.IsZero() {
		status["last_poll"] = vw.lastPoll
	}
	return status
}

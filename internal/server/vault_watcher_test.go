package server

import (
	"crypto/tls"
	"fmt"
	"sync"
	"testing"
	"time"

	"atscore/internal/config"
	"atscore/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeVault serves a single KVv2 secret whose content can be swapped
type fakeVault struct {
	mu     sync.Mutex
	secret *config.VaultSecret
	err    error
	reads  int
}

func (f *fakeVault) GetSecretV2(path string) (*config.VaultSecret, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reads++
	if f.err != nil {
		return nil, f.err
	}
	return f.secret, nil
}

func (f *fakeVault) publish(version int64, data map[string]any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.secret = &config.VaultSecret{Data: data, Version: version}
	f.err = nil
}

func (f *fakeVault) fail(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

func TestVaultWatcherCheckForUpdates(t *testing.T) {
	vault := &fakeVault{}
	vault.publish(2, map[string]any{"cert": "cert-v2", "key": "key-v2", "ca": "ca-v2"})

	vw := NewVaultWatcher(vault, "secret/data/tls", time.Minute, func(*CertificateData, error) {}, nil)

	data, changed, err := vw.checkForUpdates()
	require.NoError(t, err)
	require.True(t, changed)
	assert.Equal(t, &CertificateData{CertContent: "cert-v2", KeyContent: "key-v2", CAContent: "ca-v2"}, data)
	assert.Equal(t, int64(2), vw.Version())

	_, changed, err = vw.checkForUpdates()
	require.NoError(t, err)
	assert.False(t, changed, "same version is not a change")

	vault.fail(fmt.Errorf("permission denied"))
	_, changed, err = vw.checkForUpdates()
	require.Error(t, err)
	assert.False(t, changed)
	assert.Equal(t, int64(2), vw.Version())
}

func TestVaultWatcherStartRecordsCurrentVersion(t *testing.T) {
	vault := &fakeVault{}
	vault.publish(7, map[string]any{})

	var calls int
	vw := NewVaultWatcher(vault, "secret/data/tls", time.Hour, func(*CertificateData, error) { calls++ }, errors.NewDiscardLogger())
	require.NoError(t, vw.Start())
	defer vw.Stop()

	assert.Equal(t, int64(7), vw.Version())
	assert.Error(t, vw.Start(), "already running")

	status := vw.Status()
	assert.Equal(t, true, status["running"])
	assert.Equal(t, "secret/data/tls", status["secret_path"])
	assert.Zero(t, calls)

	require.NoError(t, vw.Stop())
	assert.Equal(t, false, vw.Status()["running"])
	require.NoError(t, vw.Stop())
}

func TestCertificateManagerReloadsFromVault(t *testing.T) {
	oldCert, oldKey := selfSignedPEM(t, time.Now().Add(10*24*time.Hour))
	newCert, newKey := selfSignedPEM(t, time.Now().Add(60*24*time.Hour))

	vault := &fakeVault{}
	vault.publish(1, map[string]any{"cert": string(oldCert), "key": string(oldKey)})
	recorder := &reloadRecorder{}

	cm := NewCertificateManager(config.TLSConfig{
		Mode:        config.TLSModeServer,
		CertContent: string(oldCert),
		KeyContent:  string(oldKey),
		AutoReload: config.AutoReloadConfig{
			Vault: config.VaultWatcherConfig{
				Enabled:      true,
				PollInterval: 20 * time.Millisecond,
				SecretPath:   "secret/data/tls",
			},
		},
	}, recorder, errors.NewDiscardLogger())
	cm.UseVaultSource(vault)
	require.NoError(t, cm.Start())
	defer cm.Stop()

	vaultStatus, ok := cm.WatcherStatus()["vault"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, int64(1), vaultStatus["last_version"])

	t.Run("new version is served", func(t *testing.T) {
		vault.publish(2, map[string]any{"cert": string(newCert), "key": string(newKey)})

		require.Eventually(t, func() bool {
			left, err := cm.CheckExpiry()
			return err == nil && left > 30*24*time.Hour
		}, 5*time.Second, 10*time.Millisecond)

		assert.Equal(t, []bool{true, true}, recorder.snapshot())
	})

	t.Run("broken version keeps the current certificate", func(t *testing.T) {
		before, err := cm.GetServerCertificate(&tls.ClientHelloInfo{})
		require.NoError(t, err)

		vault.publish(3, map[string]any{"cert": "not a certificate", "key": string(newKey)})

		require.Eventually(t, func() bool {
			return cm.GetMetrics().ReloadFailureCount == 1
		}, 5*time.Second, 10*time.Millisecond)

		after, err := cm.GetServerCertificate(&tls.ClientHelloInfo{})
		require.NoError(t, err)
		assert.Same(t, before, after)
		assert.Equal(t, []bool{true, true, false}, recorder.snapshot())
	})
}

func TestCertificateManagerVaultWatchingNeedsClient(t *testing.T) {
	certPEM, keyPEM := selfSignedPEM(t, time.Now().Add(24*time.Hour))

	cm := NewCertificateManager(config.TLSConfig{
		Mode:        config.TLSModeServer,
		CertContent: string(certPEM),
		KeyContent:  string(keyPEM),
		AutoReload: config.AutoReloadConfig{
			Vault: config.VaultWatcherConfig{Enabled: true, SecretPath: "secret/data/tls"},
		},
	}, nil, nil)

	err := cm.Start()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no Vault client")
}

func TestConfigureTLSUsesInjectedVaultClient(t *testing.T) {
	certPEM, keyPEM := selfSignedPEM(t, time.Now().Add(24*time.Hour))
	vault := &fakeVault{}
	vault.publish(4, map[string]any{"cert": string(certPEM), "key": string(keyPEM)})

	s := &Server{
		TLSConfig: config.TLSConfig{
			Mode:        config.TLSModeServer,
			CertContent: string(certPEM),
			KeyContent:  string(keyPEM),
			AutoReload: config.AutoReloadConfig{
				Vault: config.VaultWatcherConfig{Enabled: true, PollInterval: time.Hour, SecretPath: "secret/data/tls"},
			},
		},
		VaultClient: vault,
		Logger:      errors.NewDiscardLogger(),
	}

	tlsConfig, err := s.configureTLS()
	require.NoError(t, err)
	require.NotNil(t, tlsConfig)
	defer s.CertificateManager.Stop()

	vaultStatus, ok := s.CertificateManager.WatcherStatus()["vault"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, int64(4), vaultStatus["last_version"])
}

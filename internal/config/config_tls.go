package config

import "fmt"

// TLS modes
const (
	TLSModeDisabled = "disabled"
	TLSModeServer   = "server"
	TLSModeMutual   = "mutual"
)

// pemMaterial describes one piece of PEM input that can come from a file or
// from inline content, never both.
type pemMaterial struct {
	name    string
	file    string
	content string
}

func (m pemMaterial) present() bool {
	return m.file != "" || m.content != ""
}

func (m pemMaterial) validate(required bool, mode string) error {
	if m.file != "" && m.content != "" {
		return fmt.Errorf("cannot specify both %sFile and %sContent - choose one", m.name, m.name)
	}
	if required && !m.present() {
		return fmt.Errorf("TLS %s is required for %s mode (provide either %sFile or %sContent)", m.name, mode, m.name, m.name)
	}
	return nil
}

// ValidateTLSConfig validates the TLS configuration
func (c *Config) ValidateTLSConfig() error {
	return validateTLS(c.Server.TLS)
}

func validateTLS(tls TLSConfig) error {
	cert := pemMaterial{name: "cert", file: tls.CertFile, content: tls.CertContent}
	key := pemMaterial{name: "key", file: tls.KeyFile, content: tls.KeyContent}
	ca := pemMaterial{name: "ca", file: tls.CAFile, content: tls.CAContent}

	switch tls.Mode {
	case TLSModeDisabled:
		return nil
	case TLSModeServer:
		for _, m := range []pemMaterial{cert, key} {
			if err := m.validate(true, tls.Mode); err != nil {
				return err
			}
		}
	case TLSModeMutual:
		for _, m := range []pemMaterial{cert, key, ca} {
			if err := m.validate(true, tls.Mode); err != nil {
				return err
			}
		}
		switch tls.ClientAuthPolicy {
		case "", "require", "request", "verify":
		default:
			return fmt.Errorf("invalid clientAuthPolicy: %s (must be 'require', 'request', or 'verify')", tls.ClientAuthPolicy)
		}
	default:
		return fmt.Errorf("invalid TLS mode: %s (must be 'disabled', 'server', or 'mutual')", tls.Mode)
	}

	switch tls.MinVersion {
	case "", "1.2", "1.3":
		return nil
	default:
		return fmt.Errorf("invalid TLS minVersion: %s (must be '1.2' or '1.3')", tls.MinVersion)
	}
}

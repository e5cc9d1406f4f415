package config

import (
	"fmt"
	"log"
	"os"
	"strings"
)

// applyFallbacks fills values that can come from legacy environment variables
// or be derived from other settings.
func (c *Config) applyFallbacks() {
	c.applyEmbeddingKeyFallback()
	c.applyServerAPIKeyFallbacks()
	c.applyTLSDefaults()
	c.applyObservabilityDefaults()
}

func (c *Config) applyEmbeddingKeyFallback() {
	if c.Embedding.APIKey == "" && c.Embedding.Provider == ProviderGemini {
		c.Embedding.APIKey = os.Getenv("GEMINI_API_KEY")
	}
}

func (c *Config) applyServerAPIKeyFallbacks() {
	// a comma separated env value arrives as a single untrimmed slice
	c.Server.APIKeys = splitAndTrim(strings.Join(c.Server.APIKeys, ","))
	if len(c.Server.APIKeys) == 0 {
		if apiKeysEnv := os.Getenv("ATSCORE_SERVER_APIKEYS"); apiKeysEnv != "" {
			c.Server.APIKeys = splitAndTrim(apiKeysEnv)
		}
	}
}

func (c *Config) applyTLSDefaults() {
	if c.Server.TLS.Mode == TLSModeMutual && c.Server.TLS.ClientAuthPolicy == "" {
		c.Server.TLS.ClientAuthPolicy = "require"
	}
	if c.Server.TLS.MinVersion == "" && c.Server.TLS.Mode != TLSModeDisabled {
		c.Server.TLS.MinVersion = "1.2"
	}
	if c.Server.TLS.AutoReload.Vault.SecretPath == "" {
		c.Server.TLS.AutoReload.Vault.SecretPath = c.Vault.Secrets.TLSCerts
	}
}

func (c *Config) applyObservabilityDefaults() {
	if c.Observability.ServiceInstance == "" {
		c.Observability.ServiceInstance = generateServiceInstanceID(c.Observability.ServiceName)
	}
	if c.App.LogLevel == "debug" && !c.Observability.ConsoleOutput {
		c.Observability.ConsoleOutput = true
	}
}

func generateServiceInstanceID(serviceName string) string {
	if hostname, err := os.Hostname(); err == nil {
		return fmt.Sprintf("%s-%s", serviceName, hostname)
	}
	return fmt.Sprintf("%s-1", serviceName)
}

// splitAndTrim splits a comma separated list and drops empty entries
func splitAndTrim(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// logConfigurationSources logs a summary of configuration sources being used
func (c *Config) logConfigurationSources(configFileUsed string) {
	if configFileUsed != "" {
		log.Printf("[CONFIG] Config file: %s", configFileUsed)
	} else {
		log.Println("[CONFIG] Config file: None (using defaults)")
	}

	envVars := []string{
		"ATSCORE_EMBEDDING_PROVIDER",
		"ATSCORE_EMBEDDING_BASEURL",
		"ATSCORE_EMBEDDING_MODEL",
		"ATSCORE_EMBEDDING_APIKEY",
		"ATSCORE_SERVER_PORT",
		"ATSCORE_SERVER_HOST",
		"ATSCORE_SERVER_APIKEYS",
		"ATSCORE_APP_LOGLEVEL",
		"ATSCORE_VAULT_ENABLED",
		"GEMINI_API_KEY",
	}

	var set []string
	for _, envVar := range envVars {
		value := os.Getenv(envVar)
		if value == "" {
			continue
		}
		if strings.Contains(strings.ToLower(envVar), "key") {
			value = "***MASKED***"
		}
		set = append(set, envVar+"="+value)
	}
	if len(set) == 0 {
		log.Println("[CONFIG] Environment variables: none set")
	} else {
		log.Printf("[CONFIG] Environment variables: %s", strings.Join(set, ", "))
	}

	apiKeyState := "***NOT SET***"
	if c.Embedding.APIKey != "" {
		apiKeyState = "***CONFIGURED***"
	}
	log.Printf("[CONFIG] Embedding: provider=%s model=%s baseURL=%s apiKey=%s timeout=%s",
		c.Embedding.Provider, c.Embedding.Model, c.Embedding.BaseURL, apiKeyState, c.Embedding.Timeout)
	log.Printf("[CONFIG] Server: %s:%s tls=%s apiKeys=%d", c.Server.Host, c.Server.Port, c.Server.TLS.Mode, len(c.Server.APIKeys))
	log.Printf("[CONFIG] Log level: %s, vault: %t, observability: %t",
		c.App.LogLevel, c.Vault.Enabled, c.Observability.Enabled)
}

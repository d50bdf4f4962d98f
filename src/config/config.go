package config

import (
	"fmt"
	"os"
	"strings"

	"finance-pipeline/src/helpers"
	"finance-pipeline/src/models"

	"gopkg.in/yaml.v3"
)

// -----------------------------------------------------------------------------

// Config wraps models.MConfig and provides business logic methods
type Config struct {
	*models.MConfig
}

// -----------------------------------------------------------------------------

// NewConfig creates a new MConfig instance from a YAML file. When the file
// does not exist, the co-located example config ("<name>.example.yaml") is
// tried before failing with a ConfigurationError.
func NewConfig(configPath string) (*Config, error) {
	resolved, err := resolvePath(configPath)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(resolved)
	if err != nil {
		return nil, helpers.NewConfigurationError(fmt.Sprintf("failed to read config file '%s'", resolved), err)
	}

	var modelConfig models.MConfig
	if err := yaml.Unmarshal(data, &modelConfig); err != nil {
		return nil, helpers.NewConfigurationError("failed to parse config from YAML", err)
	}

	config := &Config{MConfig: &modelConfig}
	config.applyDefaults()
	config.expandAPIKeys()

	if err := config.Validate(); err != nil {
		return nil, helpers.NewConfigurationError("config validation failed", err)
	}

	return config, nil
}

// -----------------------------------------------------------------------------

func resolvePath(configPath string) (string, error) {
	if _, err := os.Stat(configPath); err == nil {
		return configPath, nil
	}

	examplePath := strings.TrimSuffix(configPath, ".yaml") + ".example.yaml"
	if _, err := os.Stat(examplePath); err == nil {
		fmt.Printf("Warning: %s not found, using %s\n", configPath, examplePath)
		return examplePath, nil
	}

	return "", helpers.NewConfigurationError(fmt.Sprintf("config file not found: %s", configPath), nil)
}

// -----------------------------------------------------------------------------

func (c *Config) applyDefaults() {
	if c.Name == "" {
		c.Name = "finance-pipeline"
	}
	if c.LogLevel == "" {
		c.LogLevel = "INFO"
	}
	if c.Database.BackupDir == "" {
		c.Database.BackupDir = "data/backups"
	}
	if c.Server.Host == "" {
		c.Server.Host = "127.0.0.1"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8765
	}
	if c.Network.RequestTimeout == 0 {
		c.Network.RequestTimeout = 30
	}
	if c.Network.UserAgent == "" {
		c.Network.UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
	}
}

// -----------------------------------------------------------------------------

// expandAPIKeys resolves ${VAR} references in api_keys values, so credentials
// can live in the environment (or a .env file) instead of the config file.
func (c *Config) expandAPIKeys() {
	for source, key := range c.APIKeys {
		c.APIKeys[source] = os.ExpandEnv(key)
	}
}

// -----------------------------------------------------------------------------

// Validate performs basic configuration validation
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("database path cannot be empty")
	}

	if c.Server.Port <= 1024 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port number: %d (must be between 1025 and 65535)", c.Server.Port)
	}

	if c.Network.RequestTimeout <= 0 {
		return fmt.Errorf("request timeout must be greater than 0")
	}

	for source, quota := range c.Quotas {
		if quota.Limit <= 0 {
			return fmt.Errorf("quota limit for source '%s' must be greater than 0", source)
		}
		if quota.WindowHours <= 0 {
			return fmt.Errorf("quota window for source '%s' must be greater than 0", source)
		}
	}

	return nil
}

// -----------------------------------------------------------------------------

// APIKey returns the configured credential for a source, empty when absent.
func (c *Config) APIKey(source string) string {
	return c.APIKeys[source]
}

package cli

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultConfigPath is where the database alias config is looked up when
// --config is not given.
const DefaultConfigPath = "tessera.yaml"

// DefaultDatabase is the alias used when --database is not given.
const DefaultDatabase = "default"

// Config maps database aliases to SQLite paths:
//
//	databases:
//	  default: ./app.db
//	  analytics: /var/lib/app/analytics.db
type Config struct {
	Databases map[string]string `yaml:"databases"`
}

// LoadConfig reads and parses a YAML config file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return &cfg, nil
}

// Resolve returns the SQLite path for a database alias.
func (c *Config) Resolve(alias string) (string, error) {
	path, ok := c.Databases[alias]
	if !ok {
		return "", fmt.Errorf("no database %q in config", alias)
	}
	return path, nil
}

// resolveDatabase picks the target database path: an explicit --db path
// wins; otherwise the alias is looked up in the config file.
func resolveDatabase(dbPath, configPath, alias string) (string, error) {
	if dbPath != "" {
		return dbPath, nil
	}
	if configPath == "" {
		configPath = DefaultConfigPath
	}
	if alias == "" {
		alias = DefaultDatabase
	}
	cfg, err := LoadConfig(configPath)
	if err != nil {
		return "", err
	}
	return cfg.Resolve(alias)
}

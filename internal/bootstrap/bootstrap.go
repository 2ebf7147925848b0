// Package bootstrap reads an optional YAML override file so clients can point
// at a server without touching the config database (useful for provisioning
// and CI). Values here win over the store when present.
package bootstrap

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/luma-home/luma/internal/config"
	"github.com/luma-home/luma/internal/validate"
)

// Config stores connection overrides for the CLI.
type Config struct {
	ServerHost string    `yaml:"server_host,omitempty"`
	ServerPort int       `yaml:"server_port,omitempty"`
	CloudURL   string    `yaml:"cloud_url,omitempty"`
	LocalToken string    `yaml:"local_token,omitempty"`
	Name       string    `yaml:"name,omitempty"`
	UpdatedAt  time.Time `yaml:"updated_at,omitempty"`
}

// Path returns the absolute filesystem location of the bootstrap file.
func Path() string {
	return config.GetInstancePaths(config.DefaultInstance).Bootstrap
}

// Load returns the stored bootstrap configuration. If the file does not
// exist, (nil, nil) is returned.
func Load() (*Config, error) {
	return loadFrom(Path())
}

func loadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("bootstrap: read file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("bootstrap: decode file: %w", err)
	}

	if cfg.CloudURL != "" {
		if err := validate.HTTPURL(cfg.CloudURL); err != nil {
			return nil, fmt.Errorf("bootstrap: cloud_url: %w", err)
		}
	}
	if cfg.ServerHost != "" {
		if err := validate.HostPort(cfg.ServerHost, cfg.ServerPort); err != nil {
			return nil, fmt.Errorf("bootstrap: server address: %w", err)
		}
	}

	return &cfg, nil
}

// Save persists the given bootstrap configuration to disk, creating
// intermediate directories as needed.
func Save(cfg *Config) error {
	if cfg == nil {
		return errors.New("bootstrap: config is nil")
	}

	path := Path()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("bootstrap: create directory: %w", err)
	}

	cfg.UpdatedAt = time.Now().UTC()
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("bootstrap: encode file: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("bootstrap: write file: %w", err)
	}
	return nil
}

// Clear removes the bootstrap file. Missing files are not an error.
func Clear() error {
	err := os.Remove(Path())
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("bootstrap: remove file: %w", err)
	}
	return nil
}

package platform

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/aretw0/tenken/pkg/adapters/fs"
)

// Config mirrors tenken.yaml.
type Config struct {
	Adapter     string `yaml:"adapter,omitempty"`
	Path        string `yaml:"path,omitempty"`
	RedisURL    string `yaml:"redis_url,omitempty"`
	RedisPrefix string `yaml:"redis_prefix,omitempty"`
	Debounce    string `yaml:"debounce,omitempty"`
	Locale      string `yaml:"locale,omitempty"`
}

// LoadConfig reads a config file. A missing file yields an empty Config.
func LoadConfig(path string) (Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("invalid %s: %w", filepath.Base(path), err)
	}
	if cfg.Debounce != "" {
		if _, err := time.ParseDuration(cfg.Debounce); err != nil {
			return cfg, fmt.Errorf("invalid debounce %q: %w", cfg.Debounce, err)
		}
	}
	return cfg, nil
}

// DataPath resolves the data location relative to the project root.
func (c Config) DataPath(root string) string {
	switch {
	case c.Path == "":
		return filepath.Join(root, DataDir)
	case filepath.IsAbs(c.Path):
		return c.Path
	default:
		return filepath.Join(root, c.Path)
	}
}

// Options converts the file settings into session options.
func (c Config) Options() []Option {
	var opts []Option
	if c.Adapter != "" {
		opts = append(opts, WithAdapter(c.Adapter))
	}
	if c.RedisURL != "" || c.RedisPrefix != "" {
		opts = append(opts, WithRedis(c.RedisURL, c.RedisPrefix))
	}
	if d, err := time.ParseDuration(c.Debounce); err == nil {
		opts = append(opts, WithDebounce(d))
	}
	return opts
}

// Save replaces the config file atomically.
func (c Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return fs.WriteFileAtomic(path, data, 0644)
}

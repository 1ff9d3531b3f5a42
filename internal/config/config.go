// Package config provides configuration loading and structs for the Susume server.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug     bool            `yaml:"debug"`
	Server    ServerConfig    `yaml:"server"`
	Storage   StorageConfig   `yaml:"storage"`
	Poster    PosterConfig    `yaml:"poster"`
	Recommend RecommendConfig `yaml:"recommend"`
	Auth      AuthConfig      `yaml:"auth"`
	Watch     WatchConfig     `yaml:"watch"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// StorageConfig holds paths for the dataset, the persisted catalog/matrix
// pair, the freshness record, the credential database, and the title index.
type StorageConfig struct {
	DatasetPath    string `yaml:"dataset_path"`
	CatalogPath    string `yaml:"catalog_path"`
	MatrixPath     string `yaml:"matrix_path"`
	FreshnessPath  string `yaml:"freshness_path"`
	DatabasePath   string `yaml:"database_path"`
	TitleIndexPath string `yaml:"title_index_path"`
}

// PosterConfig holds TMDB poster API settings.
type PosterConfig struct {
	APIKey         string `yaml:"api_key"`
	BaseURL        string `yaml:"base_url"`
	ImageBaseURL   string `yaml:"image_base_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// Timeout returns the poster request timeout as a duration.
func (p *PosterConfig) Timeout() time.Duration {
	return time.Duration(p.TimeoutSeconds) * time.Second
}

// RecommendConfig holds recommendation settings.
type RecommendConfig struct {
	TopN int `yaml:"top_n"`
}

// AuthConfig holds credential policy and session settings.
type AuthConfig struct {
	MinUsernameLen    int `yaml:"min_username_len"`
	MinPasswordLen    int `yaml:"min_password_len"`
	BcryptCost        int `yaml:"bcrypt_cost"`
	SessionTTLMinutes int `yaml:"session_ttl_minutes"`
}

// SessionTTL returns the session lifetime as a duration.
func (a *AuthConfig) SessionTTL() time.Duration {
	return time.Duration(a.SessionTTLMinutes) * time.Minute
}

// WatchConfig holds the optional dataset file watch settings. Watching is
// off by default; the manual refresh endpoint is the primary update path.
type WatchConfig struct {
	Enabled    bool `yaml:"enabled"`
	DebounceMs int  `yaml:"debounce_ms"`
}

// Debounce returns the watch debounce interval as a duration.
func (w *WatchConfig) Debounce() time.Duration {
	return time.Duration(w.DebounceMs) * time.Millisecond
}

// Load reads and parses the config file at path, expands paths, and applies defaults.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)

	configDir := filepath.Dir(path)
	cfg.Storage.DatasetPath = expandPath(cfg.Storage.DatasetPath, configDir)
	cfg.Storage.CatalogPath = expandPath(cfg.Storage.CatalogPath, configDir)
	cfg.Storage.MatrixPath = expandPath(cfg.Storage.MatrixPath, configDir)
	cfg.Storage.FreshnessPath = expandPath(cfg.Storage.FreshnessPath, configDir)
	cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, configDir)
	cfg.Storage.TitleIndexPath = expandPath(cfg.Storage.TitleIndexPath, configDir)

	return &cfg, nil
}

// Save writes the config to path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}

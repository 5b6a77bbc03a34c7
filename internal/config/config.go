// Package config loads the JSON5 configuration file and applies defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/titanous/json5"
)

// ProviderConfig selects and configures the model provider.
type ProviderConfig struct {
	// Kind is "openai" (default) or "dashscope".
	Kind       string `json:"kind"`
	APIKey     string `json:"api_key"`
	APIBase    string `json:"api_base"`
	ChatModel  string `json:"chat_model"`
	EmbedModel string `json:"embed_model"`

	// RequestsPerMinute throttles provider calls. 0 disables throttling.
	RequestsPerMinute int `json:"requests_per_minute"`

	// EmbedCacheSize is the in-process embedding LRU size.
	EmbedCacheSize int `json:"embed_cache_size"`
}

// StoreConfig selects the backing store.
type StoreConfig struct {
	// PostgresDSN enables managed (Postgres + pgvector) mode when set.
	PostgresDSN string `json:"postgres_dsn"`

	// SQLitePath is the standalone-mode database file.
	SQLitePath string `json:"sqlite_path"`
}

// TelemetryConfig configures the optional OTLP trace exporter.
type TelemetryConfig struct {
	Enabled     bool              `json:"enabled"`
	Endpoint    string            `json:"endpoint"`
	Protocol    string            `json:"protocol"` // "grpc" (default) or "http"
	Insecure    bool              `json:"insecure"`
	ServiceName string            `json:"service_name"`
	Headers     map[string]string `json:"headers"`
}

// Config is the root configuration.
type Config struct {
	Provider  ProviderConfig  `json:"provider"`
	Store     StoreConfig     `json:"store"`
	Telemetry TelemetryConfig `json:"telemetry"`
}

// DefaultPath returns ~/.mnemo/config.json5.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "config.json5"
	}
	return filepath.Join(home, ".mnemo", "config.json5")
}

// Load reads and parses the config file at path, then applies defaults.
// A missing file yields the defaults (the API key can come from the
// environment).
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else if err := json5.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Provider.Kind == "" {
		c.Provider.Kind = "openai"
	}
	if c.Provider.APIKey == "" {
		c.Provider.APIKey = os.Getenv("MNEMO_API_KEY")
	}
	if c.Provider.EmbedCacheSize == 0 {
		c.Provider.EmbedCacheSize = 2048
	}
	if c.Store.SQLitePath == "" {
		if home, err := os.UserHomeDir(); err == nil {
			c.Store.SQLitePath = filepath.Join(home, ".mnemo", "mnemo.db")
		} else {
			c.Store.SQLitePath = "mnemo.db"
		}
	}
	if c.Telemetry.ServiceName == "" {
		c.Telemetry.ServiceName = "mnemo"
	}
	if c.Telemetry.Protocol == "" {
		c.Telemetry.Protocol = "grpc"
	}
}

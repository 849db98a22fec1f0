// Package config provides configuration loading and structs for the SmartDesk server.
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
	Provider  ProviderConfig  `yaml:"provider"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Search    SearchConfig    `yaml:"search"`
	Backfill  BackfillConfig  `yaml:"backfill"`
	SLA       SLAConfig       `yaml:"sla"`
	Watch     WatchConfig     `yaml:"watch"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// StorageConfig holds paths for the record database and the canned-response index.
type StorageConfig struct {
	DatabasePath    string `yaml:"database_path"`
	CannedIndexPath string `yaml:"canned_index_path"`
}

// ProviderConfig holds the hosted AI provider settings shared by the
// external classifier, the assistant and the hosted embedding provider.
type ProviderConfig struct {
	APIKey          string        `yaml:"api_key,omitempty"`
	APIKeyEnv       string        `yaml:"api_key_env"`
	GenerationModel string        `yaml:"generation_model"`
	EmbeddingModel  string        `yaml:"embedding_model"`
	Timeout         time.Duration `yaml:"timeout"`

	// DisableClassifier keeps triage rule-based even when a key is present.
	DisableClassifier bool `yaml:"disable_classifier"`

	// DisableAssistant answers chat with the fixed ticket-creation reply.
	DisableAssistant bool `yaml:"disable_assistant"`
}

// ResolveAPIKey returns the configured key, falling back to the environment variable.
func (p *ProviderConfig) ResolveAPIKey() string {
	if p.APIKey != "" {
		return p.APIKey
	}
	if p.APIKeyEnv == "" {
		return ""
	}
	return strings.TrimSpace(os.Getenv(p.APIKeyEnv))
}

// Embedding provider kinds.
const (
	EmbeddingGemini  = "gemini"
	EmbeddingONNX    = "onnx"
	EmbeddingHashing = "hashing"
	EmbeddingNone    = "none"
)

// EmbeddingConfig selects and configures the embedding provider.
type EmbeddingConfig struct {
	Provider   string `yaml:"provider"`
	ModelPath  string `yaml:"model_path"`
	Dimensions int    `yaml:"dimensions"`
	MaxTokens  int    `yaml:"max_tokens"`
}

// SearchConfig holds knowledge search settings.
type SearchConfig struct {
	DefaultTopK      int `yaml:"default_top_k"`
	MaxTopK          int `yaml:"max_top_k"`
	SuggestLimit     int `yaml:"suggest_limit"`
	SuggestMinLength int `yaml:"suggest_min_length"`
}

// DefaultBackfillCooldown spaces backfill provider calls when cooldown is unset.
const DefaultBackfillCooldown = 65 * time.Second

// BackfillConfig holds embedding backfill pacing.
type BackfillConfig struct {
	// Cooldown is the delay between provider calls. Nil means the default;
	// an explicit 0 disables the delay.
	Cooldown    *time.Duration `yaml:"cooldown"`
	MaxAttempts int            `yaml:"max_attempts"`
}

// CooldownOrDefault returns the configured cooldown, or DefaultBackfillCooldown when unset.
func (b *BackfillConfig) CooldownOrDefault() time.Duration {
	if b.Cooldown != nil {
		return *b.Cooldown
	}
	return DefaultBackfillCooldown
}

// SLAConfig holds the allowance in minutes seeded for each priority.
type SLAConfig struct {
	HighMinutes   int `yaml:"high_minutes"`
	MediumMinutes int `yaml:"medium_minutes"`
	LowMinutes    int `yaml:"low_minutes"`
}

// WatchConfig holds knowledge import directory settings.
type WatchConfig struct {
	Directories []string `yaml:"directories"`
	Extensions  []string `yaml:"extensions"`
	Recursive   *bool    `yaml:"recursive"`
}

// RecursiveOrDefault returns whether to watch recursively; defaults to true when unset.
func (w *WatchConfig) RecursiveOrDefault() bool {
	if w.Recursive != nil {
		return *w.Recursive
	}
	return true
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
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	configDir := filepath.Dir(path)
	cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, configDir)
	if cfg.Storage.CannedIndexPath != "" {
		cfg.Storage.CannedIndexPath = expandPath(cfg.Storage.CannedIndexPath, configDir)
	}
	if cfg.Embedding.ModelPath != "" {
		cfg.Embedding.ModelPath = expandPath(cfg.Embedding.ModelPath, configDir)
	}
	for i := range cfg.Watch.Directories {
		cfg.Watch.Directories[i] = expandPath(cfg.Watch.Directories[i], configDir)
	}

	return &cfg, nil
}

// Validate rejects settings that defaults cannot repair.
func (c *Config) Validate() error {
	switch c.Embedding.Provider {
	case EmbeddingGemini, EmbeddingONNX, EmbeddingHashing, EmbeddingNone:
	default:
		return fmt.Errorf("unknown embedding provider %q", c.Embedding.Provider)
	}
	if c.Search.MaxTopK < c.Search.DefaultTopK {
		return fmt.Errorf("search.max_top_k (%d) is below search.default_top_k (%d)",
			c.Search.MaxTopK, c.Search.DefaultTopK)
	}
	if c.SLA.HighMinutes < 0 || c.SLA.MediumMinutes < 0 || c.SLA.LowMinutes < 0 {
		return fmt.Errorf("sla minutes must not be negative")
	}
	return nil
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

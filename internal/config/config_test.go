package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
server:
  host: "127.0.0.1"
  port: 9000
storage:
  database_path: "test.db"
backfill:
  cooldown: 2s
  max_attempts: 5
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Host != "127.0.0.1" || cfg.Server.Port != 9000 {
		t.Errorf("unexpected server config: %+v", cfg.Server)
	}
	if cfg.Storage.DatabasePath == "" {
		t.Error("database_path should be set")
	}
	if cfg.Backfill.CooldownOrDefault() != 2*time.Second || cfg.Backfill.MaxAttempts != 5 {
		t.Errorf("unexpected backfill config: %+v", cfg.Backfill)
	}
	if cfg.Debug {
		t.Error("debug should default to false when unset")
	}
}

func TestLoad_expandPathDotSlashRelativeToConfigDir(t *testing.T) {
	path := writeConfig(t, `
storage:
  database_path: "./data/smartdesk.db"
  canned_index_path: "./data/canned"
watch:
  directories: ["./kb"]
`)
	dir := filepath.Dir(path)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join(dir, "data", "smartdesk.db"); cfg.Storage.DatabasePath != want {
		t.Errorf("database_path = %s, want %s", cfg.Storage.DatabasePath, want)
	}
	if want := filepath.Join(dir, "data", "canned"); cfg.Storage.CannedIndexPath != want {
		t.Errorf("canned_index_path = %s, want %s", cfg.Storage.CannedIndexPath, want)
	}
	if len(cfg.Watch.Directories) != 1 || cfg.Watch.Directories[0] != filepath.Join(dir, "kb") {
		t.Errorf("watch directories = %v", cfg.Watch.Directories)
	}
}

func TestLoad_InvalidProvider(t *testing.T) {
	path := writeConfig(t, `
embedding:
  provider: "word2vec"
`)
	if _, err := Load(path); err == nil {
		t.Error("expected error for unknown embedding provider")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)
	if cfg.Server.Host != "localhost" || cfg.Server.Port != 8080 {
		t.Errorf("default server: got %+v", cfg.Server)
	}
	if cfg.Search.DefaultTopK != 5 || cfg.Search.SuggestLimit != 5 || cfg.Search.SuggestMinLength != 2 {
		t.Errorf("default search: got %+v", cfg.Search)
	}
	if cfg.Backfill.CooldownOrDefault() != 65*time.Second || cfg.Backfill.MaxAttempts != 3 {
		t.Errorf("default backfill: got %+v", cfg.Backfill)
	}
	if cfg.SLA != (SLAConfig{HighMinutes: 240, MediumMinutes: 480, LowMinutes: 1440}) {
		t.Errorf("default sla: got %+v", cfg.SLA)
	}
	if cfg.Provider.APIKeyEnv != "GEMINI_API_KEY" || cfg.Provider.Timeout != 15*time.Second {
		t.Errorf("default provider: got %+v", cfg.Provider)
	}
	if cfg.Embedding.Provider != EmbeddingGemini {
		t.Errorf("default embedding provider: got %s", cfg.Embedding.Provider)
	}
	if len(cfg.Watch.Extensions) != 5 || cfg.Watch.Extensions[0] != ".txt" {
		t.Errorf("watch extensions: got %v", cfg.Watch.Extensions)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestApplyDefaults_WatchRecursiveWhenDirectoriesSet(t *testing.T) {
	cfg := &Config{Watch: WatchConfig{Directories: []string{"/tmp/kb"}}}
	ApplyDefaults(cfg)
	if cfg.Watch.Recursive == nil || !*cfg.Watch.Recursive {
		t.Error("recursive should default to true when directories are set")
	}
}

func TestWatchConfig_RecursiveOrDefault(t *testing.T) {
	t.Run("nil_returns_true", func(t *testing.T) {
		w := &WatchConfig{}
		if got := w.RecursiveOrDefault(); !got {
			t.Errorf("RecursiveOrDefault() = %v, want true", got)
		}
	})
	t.Run("false_returns_false", func(t *testing.T) {
		f := false
		w := &WatchConfig{Recursive: &f}
		if got := w.RecursiveOrDefault(); got {
			t.Errorf("RecursiveOrDefault() = %v, want false", got)
		}
	})
}

func TestProviderConfig_ResolveAPIKey(t *testing.T) {
	t.Setenv("SMARTDESK_TEST_KEY", " from-env ")
	p := ProviderConfig{APIKeyEnv: "SMARTDESK_TEST_KEY"}
	if got := p.ResolveAPIKey(); got != "from-env" {
		t.Errorf("ResolveAPIKey() = %q, want from-env", got)
	}
	p.APIKey = "explicit"
	if got := p.ResolveAPIKey(); got != "explicit" {
		t.Errorf("ResolveAPIKey() = %q, want explicit", got)
	}
	if got := (&ProviderConfig{}).ResolveAPIKey(); got != "" {
		t.Errorf("ResolveAPIKey() = %q, want empty", got)
	}
}

func TestSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "saved.yaml")
	cooldown := 90 * time.Second
	cfg := &Config{
		Server:   ServerConfig{Host: "localhost", Port: 9090},
		Storage:  StorageConfig{DatabasePath: "/tmp/db"},
		Backfill: BackfillConfig{Cooldown: &cooldown},
	}
	if err := Save(path, cfg); err != nil {
		t.Fatal(err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Server.Port != 9090 {
		t.Errorf("loaded port: got %d", loaded.Server.Port)
	}
	if got := loaded.Backfill.CooldownOrDefault(); got != 90*time.Second {
		t.Errorf("loaded cooldown: got %v", got)
	}
}

func TestLoad_ZeroCooldownDisablesDelay(t *testing.T) {
	path := writeConfig(t, `
backfill:
  cooldown: 0s
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Backfill.Cooldown == nil {
		t.Fatal("explicit cooldown should be kept")
	}
	if got := cfg.Backfill.CooldownOrDefault(); got != 0 {
		t.Errorf("cooldown = %v, want 0", got)
	}
}

func TestBackfillConfig_CooldownOrDefault(t *testing.T) {
	if got := (&BackfillConfig{}).CooldownOrDefault(); got != DefaultBackfillCooldown {
		t.Errorf("unset cooldown = %v, want %v", got, DefaultBackfillCooldown)
	}
	d := 5 * time.Second
	if got := (&BackfillConfig{Cooldown: &d}).CooldownOrDefault(); got != d {
		t.Errorf("cooldown = %v, want %v", got, d)
	}
}

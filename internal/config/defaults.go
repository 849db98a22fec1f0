package config

import "time"

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "/usr/local/var/smartdesk/data/smartdesk.db"
	}
	if cfg.Provider.APIKeyEnv == "" {
		cfg.Provider.APIKeyEnv = "GEMINI_API_KEY"
	}
	if cfg.Provider.GenerationModel == "" {
		cfg.Provider.GenerationModel = "gemini-2.5-flash"
	}
	if cfg.Provider.EmbeddingModel == "" {
		cfg.Provider.EmbeddingModel = "gemini-embedding-001"
	}
	if cfg.Provider.Timeout == 0 {
		cfg.Provider.Timeout = 15 * time.Second
	}
	if cfg.Embedding.Provider == "" {
		cfg.Embedding.Provider = EmbeddingGemini
	}
	if cfg.Embedding.Dimensions == 0 {
		cfg.Embedding.Dimensions = 384
	}
	if cfg.Embedding.MaxTokens == 0 {
		cfg.Embedding.MaxTokens = 256
	}
	if cfg.Search.DefaultTopK == 0 {
		cfg.Search.DefaultTopK = 5
	}
	if cfg.Search.MaxTopK == 0 {
		cfg.Search.MaxTopK = 50
	}
	if cfg.Search.SuggestLimit == 0 {
		cfg.Search.SuggestLimit = 5
	}
	if cfg.Search.SuggestMinLength == 0 {
		cfg.Search.SuggestMinLength = 2
	}
	if cfg.Backfill.Cooldown == nil {
		d := DefaultBackfillCooldown
		cfg.Backfill.Cooldown = &d
	}
	if cfg.Backfill.MaxAttempts == 0 {
		cfg.Backfill.MaxAttempts = 3
	}
	if cfg.SLA.HighMinutes == 0 {
		cfg.SLA.HighMinutes = 240
	}
	if cfg.SLA.MediumMinutes == 0 {
		cfg.SLA.MediumMinutes = 480
	}
	if cfg.SLA.LowMinutes == 0 {
		cfg.SLA.LowMinutes = 1440
	}
	if cfg.Watch.Extensions == nil {
		cfg.Watch.Extensions = []string{".txt", ".md", ".pdf", ".docx", ".xlsx"}
	}
	// Recursive defaults to true when unset (nil).
	if len(cfg.Watch.Directories) > 0 && cfg.Watch.Recursive == nil {
		t := true
		cfg.Watch.Recursive = &t
	}
}

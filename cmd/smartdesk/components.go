package main

import (
	"context"
	"fmt"
	"io"

	"github.com/hyperjump/smartdesk/internal/analytics"
	"github.com/hyperjump/smartdesk/internal/assist"
	"github.com/hyperjump/smartdesk/internal/canned"
	"github.com/hyperjump/smartdesk/internal/config"
	"github.com/hyperjump/smartdesk/internal/embedding"
	"github.com/hyperjump/smartdesk/internal/gemini"
	"github.com/hyperjump/smartdesk/internal/indexer"
	"github.com/hyperjump/smartdesk/internal/keyword"
	"github.com/hyperjump/smartdesk/internal/metrics"
	"github.com/hyperjump/smartdesk/internal/search"
	"github.com/hyperjump/smartdesk/internal/storage"
	"github.com/hyperjump/smartdesk/internal/ticket"
	"github.com/hyperjump/smartdesk/internal/triage"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Components holds initialized services.
type Components struct {
	Storage   *storage.SQLiteStorage
	Registry  *prometheus.Registry
	Provider  embedding.Provider
	Triage    *triage.Service
	Search    *search.Service
	Indexer   *indexer.Indexer
	Tickets   *ticket.Service
	Analytics *analytics.Aggregator
	Assist    *assist.Service

	closers []io.Closer
}

// Close releases the store, the embedding model and any opened index.
func (c *Components) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		_ = c.closers[i].Close()
	}
	if c.Storage != nil {
		_ = c.Storage.Close()
	}
}

func initializeComponents(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Components, error) {
	store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	c := &Components{Storage: store, Registry: prometheus.NewRegistry()}
	m := metrics.New(c.Registry)

	var client *gemini.Client
	if key := cfg.Provider.ResolveAPIKey(); key != "" {
		client, err = gemini.NewClient(ctx, gemini.Config{
			APIKey:          key,
			GenerationModel: cfg.Provider.GenerationModel,
			EmbeddingModel:  cfg.Provider.EmbeddingModel,
		})
		if err != nil {
			c.Close()
			return nil, err
		}
	}

	provider, closer := newEmbeddingProvider(cfg, client, logger)
	if closer != nil {
		c.closers = append(c.closers, closer)
	}
	c.Provider = provider

	triageOpts := []triage.ServiceOption{
		triage.WithTimeout(cfg.Provider.Timeout),
		triage.WithLogger(logger),
		triage.WithMetrics(m),
	}
	if client != nil && !cfg.Provider.DisableClassifier {
		triageOpts = append(triageOpts, triage.WithExternal(triage.NewLLMClassifier(client)))
	}
	c.Triage = triage.NewService(triage.NewRuleClassifier(triage.DefaultKeywordTables()), triageOpts...)

	searchOpts := []search.ServiceOption{
		search.WithEmbedTimeout(cfg.Provider.Timeout),
		search.WithLogger(logger),
		search.WithMetrics(m),
	}
	idxOpts := []indexer.IndexerOption{
		indexer.WithBackfillPacing(cfg.Backfill.CooldownOrDefault(), cfg.Backfill.MaxAttempts),
		indexer.WithLogger(logger),
		indexer.WithMetrics(m),
	}
	if provider != nil {
		searchOpts = append(searchOpts, search.WithProvider(provider))
		idxOpts = append(idxOpts, indexer.WithProvider(provider))
	}
	c.Search = search.NewService(store, cfg.Search, searchOpts...)
	c.Indexer = indexer.NewIndexer(store, idxOpts...)
	c.Tickets = ticket.NewService(store, c.Triage, ticket.WithLogger(logger))
	c.Analytics = analytics.NewAggregator(store, analytics.WithLogger(logger))

	assistOpts := []assist.ServiceOption{
		assist.WithTimeout(cfg.Provider.Timeout),
		assist.WithLogger(logger),
		assist.WithMetrics(m),
	}
	if client != nil && !cfg.Provider.DisableAssistant {
		assistOpts = append(assistOpts, assist.WithGenerator(client.TextGenerator()))
	}
	c.Assist = assist.NewService(c.Search, assistOpts...)

	diskBytes, err := storage.UsageBytes(cfg.Storage.DatabasePath, cfg.Storage.CannedIndexPath)
	if err != nil {
		logger.Warn("failed to measure storage size", zap.Error(err))
	}
	logger.Info("components initialized",
		zap.String("database", cfg.Storage.DatabasePath),
		zap.Int64("disk_bytes", diskBytes),
		zap.Bool("external_triage", c.Triage.ExternalEnabled()),
		zap.Bool("semantic_search", c.Search.SemanticEnabled()),
		zap.Bool("assistant", c.Assist.Enabled()),
	)
	return c, nil
}

// newEmbeddingProvider returns nil when the configured provider cannot run;
// search then answers from the keyword path.
func newEmbeddingProvider(cfg *config.Config, client *gemini.Client, logger *zap.Logger) (embedding.Provider, io.Closer) {
	switch cfg.Embedding.Provider {
	case config.EmbeddingGemini:
		if client == nil {
			logger.Info("embeddings disabled: no provider API key",
				zap.String("api_key_env", cfg.Provider.APIKeyEnv))
			return nil, nil
		}
		return embedding.NewGeminiProvider(client), nil
	case config.EmbeddingONNX:
		p, err := embedding.NewONNXProvider(embedding.ONNXConfig{
			ModelPath:  cfg.Embedding.ModelPath,
			Dimensions: cfg.Embedding.Dimensions,
			MaxTokens:  cfg.Embedding.MaxTokens,
		})
		if err != nil {
			logger.Warn("ONNX embeddings unavailable, semantic search disabled", zap.Error(err))
			return nil, nil
		}
		return p, p
	case config.EmbeddingHashing:
		return embedding.NewHashingProvider(cfg.Embedding.Dimensions), nil
	}
	return nil, nil
}

// openCanned opens the canned-response index and indexes stored responses.
// Only the server opens it; an on-disk index is locked while open.
func (c *Components) openCanned(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*canned.Service, error) {
	idx, err := keyword.NewBleveIndex(cfg.Storage.CannedIndexPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize canned-response index: %w", err)
	}
	c.closers = append(c.closers, idx)
	svc := canned.NewService(c.Storage, idx, logger)
	n, err := svc.Sync(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to index canned responses: %w", err)
	}
	logger.Debug("canned responses indexed", zap.Int("count", n))
	return svc, nil
}

// Package indexer writes knowledge articles into the store and attaches their embeddings.
package indexer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/hyperjump/smartdesk/internal/embedding"
	"github.com/hyperjump/smartdesk/internal/extract"
	"github.com/hyperjump/smartdesk/internal/fileid"
	"github.com/hyperjump/smartdesk/internal/metrics"
	"github.com/hyperjump/smartdesk/internal/models"
	"github.com/hyperjump/smartdesk/internal/storage"
	"go.uber.org/zap"
)

// DefaultEmbedTimeout bounds a single document embedding call.
const DefaultEmbedTimeout = 30 * time.Second

// Indexer creates, imports and embeds knowledge articles.
type Indexer struct {
	articles     storage.ArticleStore
	provider     embedding.Provider
	extractor    *extract.Extractor
	embedTimeout time.Duration
	cooldown     time.Duration
	maxAttempts  int
	logger       *zap.Logger
	metrics      *metrics.Metrics

	backfillMu sync.Mutex
}

// IndexerOption configures an Indexer.
type IndexerOption func(*Indexer)

// WithProvider sets the embedding provider. Without one, articles stay keyword-only.
func WithProvider(p embedding.Provider) IndexerOption {
	return func(idx *Indexer) { idx.provider = p }
}

// WithExtractor sets the file extractor used by ImportFile.
func WithExtractor(e *extract.Extractor) IndexerOption {
	return func(idx *Indexer) {
		if e != nil {
			idx.extractor = e
		}
	}
}

// WithEmbedTimeout bounds each embedding call.
func WithEmbedTimeout(d time.Duration) IndexerOption {
	return func(idx *Indexer) {
		if d > 0 {
			idx.embedTimeout = d
		}
	}
}

// WithBackfillPacing sets the delay between backfill provider calls and the
// attempts per article. A zero cooldown disables the delay.
func WithBackfillPacing(cooldown time.Duration, maxAttempts int) IndexerOption {
	return func(idx *Indexer) {
		if cooldown >= 0 {
			idx.cooldown = cooldown
		}
		if maxAttempts > 0 {
			idx.maxAttempts = maxAttempts
		}
	}
}

// WithLogger sets a logger for debug output (article stored, file imported, etc.).
func WithLogger(l *zap.Logger) IndexerOption {
	return func(idx *Indexer) {
		if l != nil {
			idx.logger = l
		}
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m *metrics.Metrics) IndexerOption {
	return func(idx *Indexer) { idx.metrics = m }
}

// NewIndexer creates an indexer over the article store.
func NewIndexer(articles storage.ArticleStore, opts ...IndexerOption) *Indexer {
	idx := &Indexer{
		articles:     articles,
		extractor:    extract.NewExtractor(),
		embedTimeout: DefaultEmbedTimeout,
		cooldown:     65 * time.Second,
		maxAttempts:  3,
		logger:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(idx)
	}
	return idx
}

// EmbeddingEnabled reports whether an embedding provider is configured.
func (idx *Indexer) EmbeddingEnabled() bool {
	return idx.provider != nil
}

// CreateArticle validates and stores an article, then tries to embed it.
// Embedding failure is logged and leaves the article keyword-only.
func (idx *Indexer) CreateArticle(ctx context.Context, input *models.ArticleInput) (*models.Article, error) {
	a := &models.Article{
		ID:         input.ID,
		Title:      strings.TrimSpace(input.Title),
		Body:       CleanText(input.Body),
		Tags:       cleanTags(input.Tags),
		Active:     true,
		SourcePath: input.SourcePath,
	}
	if a.Title == "" || a.Body == "" {
		return nil, fmt.Errorf("%w: title and body are required", models.ErrInvalidRequest)
	}
	if err := idx.articles.CreateArticle(ctx, a); err != nil {
		return nil, fmt.Errorf("failed to store article: %w", err)
	}
	idx.logger.Debug("Article stored", zap.String("id", a.ID), zap.String("title", a.Title))

	if idx.provider != nil {
		if err := idx.embedArticle(ctx, a); err != nil {
			idx.logger.Warn("Article embedding failed, article stays keyword-only",
				zap.String("id", a.ID), zap.Error(err))
		}
	}
	return a, nil
}

// embedArticle requests a document embedding and stores it on a.
func (idx *Indexer) embedArticle(ctx context.Context, a *models.Article) error {
	embedCtx, cancel := context.WithTimeout(ctx, idx.embedTimeout)
	defer cancel()
	values, err := idx.provider.Embed(embedCtx, a.EmbeddingText(), embedding.TaskDocument)
	if err != nil {
		idx.metrics.ObserveProviderFailure("embedding")
		return fmt.Errorf("failed to embed article %s: %w", a.ID, err)
	}
	e := &models.Embedding{Values: values, Model: idx.provider.Model()}
	if err := idx.articles.SetArticleEmbedding(ctx, a.ID, e); err != nil {
		return fmt.Errorf("failed to store embedding for %s: %w", a.ID, err)
	}
	a.Embedding = e
	return nil
}

// ImportFile reads a knowledge file and creates or updates its article. The
// article ID is derived from the absolute path so re-importing updates the
// same article. If allowedExts is non-empty, the file's extension must be in it.
// An unchanged file is left alone and reported with changed=false.
func (idx *Indexer) ImportFile(ctx context.Context, path string, allowedExts []string) (a *models.Article, changed bool, err error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, false, fmt.Errorf("absolute path: %w", err)
	}
	ext := strings.ToLower(filepath.Ext(absPath))
	if len(allowedExts) > 0 && !extensionAllowed(ext, allowedExts) {
		return nil, false, fmt.Errorf("%w: extension %q not in allowed list", models.ErrInvalidRequest, ext)
	}
	info, err := os.Stat(absPath)
	if err != nil {
		return nil, false, fmt.Errorf("stat file: %w", err)
	}
	if !info.Mode().IsRegular() {
		return nil, false, fmt.Errorf("%w: not a regular file: %s", models.ErrInvalidRequest, absPath)
	}

	doc, err := idx.extractor.Extract(absPath)
	if err != nil {
		return nil, false, fmt.Errorf("extract content: %w", err)
	}
	id := fileid.ArticleID(absPath)
	title := strings.TrimSpace(doc.Title)
	body := CleanText(doc.Body)

	existing, err := idx.articles.GetArticle(ctx, id)
	if errors.Is(err, models.ErrNotFound) {
		a, err := idx.CreateArticle(ctx, &models.ArticleInput{ID: id, Title: title, Body: body, SourcePath: absPath})
		if err != nil {
			return nil, false, err
		}
		idx.logger.Debug("Imported file", zap.String("path", absPath), zap.String("id", id))
		return a, true, nil
	}
	if err != nil {
		return nil, false, err
	}

	if existing.Title == title && existing.Body == body && existing.Active {
		idx.logger.Debug("Skipping unchanged file", zap.String("path", absPath))
		return existing, false, nil
	}
	if body == "" {
		return nil, false, fmt.Errorf("%w: %s has no text", models.ErrInvalidRequest, absPath)
	}

	textChanged := existing.Title != title || existing.Body != body
	existing.Title = title
	existing.Body = body
	existing.Active = true
	existing.SourcePath = absPath
	if err := idx.articles.UpdateArticle(ctx, existing); err != nil {
		return nil, false, fmt.Errorf("failed to update article: %w", err)
	}
	if textChanged {
		if err := idx.articles.SetArticleEmbedding(ctx, id, nil); err != nil {
			return nil, false, err
		}
		existing.Embedding = nil
		if idx.provider != nil {
			if err := idx.embedArticle(ctx, existing); err != nil {
				idx.logger.Warn("Re-embedding failed, article stays keyword-only until backfill",
					zap.String("id", id), zap.Error(err))
			}
		}
	}
	idx.logger.Debug("Updated file article", zap.String("path", absPath), zap.String("id", id))
	return existing, true, nil
}

// RemoveFile deactivates the article imported from path. Unknown paths are ignored.
func (idx *Indexer) RemoveFile(ctx context.Context, path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("absolute path: %w", err)
	}
	id := fileid.ArticleID(absPath)
	if err := idx.articles.DeactivateArticle(ctx, id); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil
		}
		return err
	}
	idx.logger.Debug("Deactivated file article", zap.String("path", absPath), zap.String("id", id))
	return nil
}

// ImportDirectory walks dir and imports each regular file whose extension is
// in allowedExts (all files when empty). Files without text are skipped with a
// warning. Returns the number of articles created or updated.
func (idx *Indexer) ImportDirectory(ctx context.Context, dir string, allowedExts []string, recursive bool) (n int, err error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return 0, fmt.Errorf("absolute path: %w", err)
	}
	info, err := os.Stat(absDir)
	if err != nil {
		return 0, fmt.Errorf("stat directory: %w", err)
	}
	if !info.IsDir() {
		return 0, fmt.Errorf("not a directory: %s", absDir)
	}
	err = filepath.WalkDir(absDir, func(path string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			if path != absDir && (!recursive || strings.HasPrefix(d.Name(), ".")) {
				return filepath.SkipDir
			}
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		if len(allowedExts) > 0 && !extensionAllowed(ext, allowedExts) {
			return nil
		}
		finfo, statErr := os.Stat(path)
		if statErr != nil || !finfo.Mode().IsRegular() {
			return nil
		}
		_, changed, importErr := idx.ImportFile(ctx, path, allowedExts)
		if errors.Is(importErr, models.ErrInvalidRequest) {
			idx.logger.Warn("Skipping file", zap.String("path", path), zap.Error(importErr))
			return nil
		}
		if importErr != nil {
			return importErr
		}
		if changed {
			n++
		}
		return nil
	})
	return n, err
}

func extensionAllowed(ext string, allowed []string) bool {
	extNorm := strings.ToLower(strings.TrimPrefix(ext, "."))
	for _, a := range allowed {
		if strings.ToLower(strings.TrimPrefix(a, ".")) == extNorm {
			return true
		}
	}
	return false
}

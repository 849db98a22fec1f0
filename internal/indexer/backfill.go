package indexer

import (
	"context"
	"errors"
	"fmt"

	"github.com/hyperjump/smartdesk/internal/embedding"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

var (
	// ErrProviderUnavailable is returned by Backfill when no embedding provider is configured.
	ErrProviderUnavailable = fmt.Errorf("%w: no embedding provider configured", embedding.ErrUnavailable)
	// ErrBackfillRunning is returned when a backfill is already in progress.
	ErrBackfillRunning = errors.New("backfill already running")
)

// BackfillEntry is the outcome for one article.
type BackfillEntry struct {
	ArticleID string `json:"article_id"`
	Title     string `json:"title"`
	Attempts  int    `json:"attempts"`
	Embedded  bool   `json:"embedded"`
	Error     string `json:"error,omitempty"`
}

// BackfillReport summarizes a backfill run.
type BackfillReport struct {
	Candidates int             `json:"candidates"`
	Embedded   int             `json:"embedded"`
	Failed     int             `json:"failed"`
	Entries    []BackfillEntry `json:"entries"`
}

// Backfill embeds every active article that has no vector, one at a time.
// Provider calls are spaced by the configured cooldown and each article gets
// up to the configured number of attempts. Per-article failures are recorded
// in the report and never abort the run. Cancelling ctx stops the run and
// returns the partial report together with the context error.
func (idx *Indexer) Backfill(ctx context.Context) (*BackfillReport, error) {
	if idx.provider == nil {
		return nil, ErrProviderUnavailable
	}
	if !idx.backfillMu.TryLock() {
		return nil, ErrBackfillRunning
	}
	defer idx.backfillMu.Unlock()

	pending, err := idx.articles.ListArticlesMissingEmbedding(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list articles missing embeddings: %w", err)
	}
	report := &BackfillReport{Candidates: len(pending), Entries: make([]BackfillEntry, 0, len(pending))}
	idx.logger.Info("Backfill started",
		zap.Int("candidates", len(pending)),
		zap.Duration("cooldown", idx.cooldown),
		zap.Int("max_attempts", idx.maxAttempts))

	limit := rate.Inf
	if idx.cooldown > 0 {
		limit = rate.Every(idx.cooldown)
	}
	limiter := rate.NewLimiter(limit, 1)

	for _, a := range pending {
		entry := BackfillEntry{ArticleID: a.ID, Title: a.Title}
		var lastErr error
		for attempt := 1; attempt <= idx.maxAttempts; attempt++ {
			if err := limiter.Wait(ctx); err != nil {
				return report, stopErr(ctx, err)
			}
			entry.Attempts = attempt
			lastErr = idx.embedArticle(ctx, a)
			if lastErr == nil {
				break
			}
			if ctx.Err() != nil {
				return report, ctx.Err()
			}
			idx.logger.Warn("Backfill attempt failed",
				zap.String("id", a.ID), zap.Int("attempt", attempt), zap.Error(lastErr))
		}

		if lastErr != nil {
			entry.Error = lastErr.Error()
			report.Failed++
			idx.metrics.ObserveBackfill("failed")
			idx.logger.Warn("Backfill gave up on article", zap.String("id", a.ID), zap.Int("attempts", entry.Attempts))
		} else {
			entry.Embedded = true
			report.Embedded++
			idx.metrics.ObserveBackfill("embedded")
		}
		report.Entries = append(report.Entries, entry)
	}

	idx.logger.Info("Backfill finished",
		zap.Int("embedded", report.Embedded),
		zap.Int("failed", report.Failed))
	return report, nil
}

// stopErr prefers the context's own error over the limiter's deadline error.
func stopErr(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return err
}

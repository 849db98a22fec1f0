// Package search answers knowledge-base queries with vector similarity,
// degrading to keyword matching when embeddings are unavailable.
package search

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hyperjump/smartdesk/internal/config"
	"github.com/hyperjump/smartdesk/internal/embedding"
	"github.com/hyperjump/smartdesk/internal/metrics"
	"github.com/hyperjump/smartdesk/internal/models"
	"github.com/hyperjump/smartdesk/internal/storage"
	"github.com/hyperjump/smartdesk/internal/vector"
	"go.uber.org/zap"
)

// DefaultEmbedTimeout bounds a single query embedding call.
const DefaultEmbedTimeout = 15 * time.Second

// Service runs knowledge search over the article store.
type Service struct {
	articles     storage.ArticleStore
	provider     embedding.Provider
	config       config.SearchConfig
	embedTimeout time.Duration
	logger       *zap.Logger
	metrics      *metrics.Metrics
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithProvider enables semantic search. Without a provider every search uses keyword matching.
func WithProvider(p embedding.Provider) ServiceOption {
	return func(s *Service) { s.provider = p }
}

// WithEmbedTimeout bounds the query embedding call.
func WithEmbedTimeout(d time.Duration) ServiceOption {
	return func(s *Service) {
		if d > 0 {
			s.embedTimeout = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) ServiceOption {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m *metrics.Metrics) ServiceOption {
	return func(s *Service) { s.metrics = m }
}

// NewService creates a search service. Zero values in cfg take the config defaults.
func NewService(articles storage.ArticleStore, cfg config.SearchConfig, opts ...ServiceOption) *Service {
	wrapped := config.Config{Search: cfg}
	config.ApplyDefaults(&wrapped)
	s := &Service{
		articles:     articles,
		config:       wrapped.Search,
		embedTimeout: DefaultEmbedTimeout,
		logger:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SemanticEnabled reports whether an embedding provider is configured.
func (s *Service) SemanticEnabled() bool {
	return s.provider != nil
}

// Search returns up to topK articles for query. topK <= 0 uses the configured
// default. Provider failures never surface as errors; the response mode says
// which path answered.
func (s *Service) Search(ctx context.Context, query string, topK int) (*models.SearchResponse, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: no query provided", models.ErrInvalidRequest)
	}
	if topK <= 0 {
		topK = s.config.DefaultTopK
	}
	if topK > s.config.MaxTopK {
		topK = s.config.MaxTopK
	}

	resp, err := s.search(ctx, query, topK)
	if err != nil {
		return nil, err
	}
	s.metrics.ObserveSearch(string(resp.Mode))
	s.logger.Debug("Search completed",
		zap.String("query", query),
		zap.String("mode", string(resp.Mode)),
		zap.Int("results", len(resp.Results)))
	return resp, nil
}

func (s *Service) search(ctx context.Context, query string, topK int) (*models.SearchResponse, error) {
	if hits, ok := s.semantic(ctx, query, topK); ok {
		return &models.SearchResponse{Mode: models.ModeSemantic, Query: query, Results: hits}, nil
	}

	hits, err := s.keyword(ctx, query, topK)
	if err != nil {
		return nil, err
	}
	mode := models.ModeKeywordFallback
	if len(hits) == 0 {
		mode = models.ModeEmpty
	}
	return &models.SearchResponse{Mode: mode, Query: query, Results: hits}, nil
}

// semantic returns false when the keyword path should answer instead.
func (s *Service) semantic(ctx context.Context, query string, topK int) ([]models.ArticleHit, bool) {
	if s.provider == nil {
		return nil, false
	}

	embedCtx, cancel := context.WithTimeout(ctx, s.embedTimeout)
	queryVec, err := s.provider.Embed(embedCtx, query, embedding.TaskQuery)
	cancel()
	if err != nil {
		s.metrics.ObserveProviderFailure("embedding")
		s.logger.Warn("Query embedding failed, using keyword fallback", zap.Error(err))
		return nil, false
	}

	articles, err := s.articles.ListActiveArticles(ctx)
	if err != nil {
		s.logger.Warn("Failed to load articles for semantic search", zap.Error(err))
		return nil, false
	}

	model := s.provider.Model()
	byID := make(map[string]*models.Article, len(articles))
	candidates := make([]vector.Candidate, 0, len(articles))
	for _, a := range articles {
		if !a.HasEmbedding() {
			continue
		}
		if a.Embedding.Model != "" && a.Embedding.Model != model {
			continue
		}
		byID[a.ID] = a
		candidates = append(candidates, vector.Candidate{ID: a.ID, Vector: a.Embedding.Values})
	}
	if len(candidates) == 0 {
		s.logger.Debug("No embedded articles, using keyword fallback")
		return nil, false
	}

	matches := vector.TopK(vector.Rank(queryVec, candidates), topK)
	if len(matches) == 0 {
		return nil, false
	}
	hits := make([]models.ArticleHit, 0, len(matches))
	for _, m := range matches {
		score := m.Similarity
		hits = append(hits, models.NewArticleHit(byID[m.ID], &score))
	}
	return hits, true
}

// keyword matches the raw query against title and body, newest first.
func (s *Service) keyword(ctx context.Context, query string, topK int) ([]models.ArticleHit, error) {
	articles, err := s.articles.ListActiveArticles(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list articles: %w", err)
	}
	needle := strings.ToLower(query)
	hits := make([]models.ArticleHit, 0, topK)
	for _, a := range articles {
		if len(hits) == topK {
			break
		}
		if strings.Contains(strings.ToLower(a.Title), needle) || strings.Contains(strings.ToLower(a.Body), needle) {
			hits = append(hits, models.NewArticleHit(a, nil))
		}
	}
	return hits, nil
}

// Suggest returns title matches for search-as-you-type. Queries shorter than
// the configured minimum return nothing.
func (s *Service) Suggest(ctx context.Context, query string) ([]models.ArticleSuggestion, error) {
	query = strings.TrimSpace(query)
	out := []models.ArticleSuggestion{}
	if len([]rune(query)) < s.config.SuggestMinLength {
		return out, nil
	}
	articles, err := s.articles.ListActiveArticles(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list articles: %w", err)
	}
	needle := strings.ToLower(query)
	for _, a := range articles {
		if len(out) == s.config.SuggestLimit {
			break
		}
		if matchesTitleOrTag(a, needle) {
			out = append(out, models.ArticleSuggestion{ID: a.ID, Title: a.Title})
		}
	}
	return out, nil
}

func matchesTitleOrTag(a *models.Article, needle string) bool {
	if strings.Contains(strings.ToLower(a.Title), needle) {
		return true
	}
	for _, tag := range a.Tags {
		if strings.Contains(strings.ToLower(tag), needle) {
			return true
		}
	}
	return false
}

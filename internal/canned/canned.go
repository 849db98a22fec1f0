// Package canned manages agents' pre-written replies and their keyword search.
package canned

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hyperjump/smartdesk/internal/keyword"
	"github.com/hyperjump/smartdesk/internal/models"
	"github.com/hyperjump/smartdesk/internal/storage"
	"go.uber.org/zap"
)

// DefaultLimit caps search results when the caller passes no limit.
const DefaultLimit = 10

// Service stores canned responses and keeps the keyword index in sync.
type Service struct {
	store  storage.CannedStore
	index  keyword.Index
	logger *zap.Logger
}

// NewService creates a canned response service. logger may be nil.
func NewService(store storage.CannedStore, index keyword.Index, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, index: index, logger: logger}
}

// Create validates, stores and indexes a canned response.
func (s *Service) Create(ctx context.Context, c *models.CannedResponse) error {
	c.Title = strings.TrimSpace(c.Title)
	c.Body = strings.TrimSpace(c.Body)
	if c.Title == "" || c.Body == "" {
		return fmt.Errorf("%w: title and body are required", models.ErrInvalidRequest)
	}
	c.SearchTags = cleanTags(c.SearchTags)
	if err := s.store.CreateCannedResponse(ctx, c); err != nil {
		return err
	}
	if err := s.index.Index(ctx, c); err != nil {
		return err
	}
	s.logger.Debug("Canned response created", zap.String("id", c.ID), zap.String("title", c.Title))
	return nil
}

// Search returns canned responses matching query, best first. A blank query lists all.
func (s *Service) Search(ctx context.Context, query string, limit int) ([]*models.CannedResponse, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if strings.TrimSpace(query) == "" {
		all, err := s.store.ListCannedResponses(ctx)
		if err != nil {
			return nil, err
		}
		if len(all) > limit {
			all = all[:limit]
		}
		return all, nil
	}

	hits, err := s.index.Search(ctx, query, limit, &keyword.SearchOptions{FuzzyEnabled: true, PhraseBoost: 1.5})
	if err != nil {
		return nil, err
	}
	out := make([]*models.CannedResponse, 0, len(hits))
	for _, h := range hits {
		c, err := s.store.GetCannedResponse(ctx, h.ID)
		if errors.Is(err, models.ErrNotFound) {
			s.logger.Warn("Stale canned response in index", zap.String("id", h.ID))
			_ = s.index.Delete(ctx, h.ID)
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// Sync indexes every stored canned response. Used at startup for in-memory indexes.
func (s *Service) Sync(ctx context.Context) (int, error) {
	all, err := s.store.ListCannedResponses(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list canned responses: %w", err)
	}
	for _, c := range all {
		if err := s.index.Index(ctx, c); err != nil {
			return 0, err
		}
	}
	return len(all), nil
}

func cleanTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hyperjump/smartdesk/internal/models"
)

const articleColumns = `id, title, body, tags, embedding, embedding_model, active, source_path, created_at, updated_at`

// CreateArticle inserts an article. An empty ID is replaced with a new UUID.
func (s *SQLiteStorage) CreateArticle(ctx context.Context, a *models.Article) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	tags, err := marshalStrings(a.Tags)
	if err != nil {
		return fmt.Errorf("failed to marshal tags: %w", err)
	}
	vec, model, err := encodeEmbedding(a.Embedding)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	a.CreatedAt = now
	a.UpdatedAt = now

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO articles (`+articleColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.Title, a.Body, tags, vec, model, a.Active, a.SourcePath, a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert article: %w", err)
	}
	return nil
}

// GetArticle returns an article by ID.
func (s *SQLiteStorage) GetArticle(ctx context.Context, id string) (*models.Article, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+articleColumns+` FROM articles WHERE id = ?`, id)
	a, err := scanArticle(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("article", id)
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

// UpdateArticle updates the editable fields of an article. The stored vector is left untouched.
func (s *SQLiteStorage) UpdateArticle(ctx context.Context, a *models.Article) error {
	tags, err := marshalStrings(a.Tags)
	if err != nil {
		return fmt.Errorf("failed to marshal tags: %w", err)
	}
	a.UpdatedAt = time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`UPDATE articles SET title = ?, body = ?, tags = ?, active = ?, source_path = ?, updated_at = ?
		 WHERE id = ?`,
		a.Title, a.Body, tags, a.Active, a.SourcePath, a.UpdatedAt, a.ID,
	)
	if err != nil {
		return err
	}
	return requireAffected(res, "article", a.ID)
}

// DeactivateArticle hides an article from search without deleting it.
func (s *SQLiteStorage) DeactivateArticle(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE articles SET active = 0, updated_at = ? WHERE id = ?`, time.Now().UTC(), id)
	if err != nil {
		return err
	}
	return requireAffected(res, "article", id)
}

// ListActiveArticles returns active articles, newest first.
func (s *SQLiteStorage) ListActiveArticles(ctx context.Context) ([]*models.Article, error) {
	return s.queryArticles(ctx,
		`SELECT `+articleColumns+` FROM articles WHERE active = 1 ORDER BY created_at DESC, rowid DESC`)
}

// ListArticlesMissingEmbedding returns active articles without a vector, oldest first.
func (s *SQLiteStorage) ListArticlesMissingEmbedding(ctx context.Context) ([]*models.Article, error) {
	return s.queryArticles(ctx,
		`SELECT `+articleColumns+` FROM articles WHERE active = 1 AND embedding IS NULL ORDER BY created_at, rowid`)
}

// SetArticleEmbedding stores e on the article; nil clears it.
func (s *SQLiteStorage) SetArticleEmbedding(ctx context.Context, id string, e *models.Embedding) error {
	vec, model, err := encodeEmbedding(e)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE articles SET embedding = ?, embedding_model = ?, updated_at = ? WHERE id = ?`,
		vec, model, time.Now().UTC(), id)
	if err != nil {
		return err
	}
	return requireAffected(res, "article", id)
}

// CountArticles returns total, active and embedded (active with vector) counts.
func (s *SQLiteStorage) CountArticles(ctx context.Context) (total, active, embedded int64, err error) {
	err = s.db.QueryRowContext(ctx,
		`SELECT COUNT(*),
		        COALESCE(SUM(CASE WHEN active = 1 THEN 1 ELSE 0 END), 0),
		        COALESCE(SUM(CASE WHEN active = 1 AND embedding IS NOT NULL THEN 1 ELSE 0 END), 0)
		 FROM articles`,
	).Scan(&total, &active, &embedded)
	return total, active, embedded, err
}

func (s *SQLiteStorage) queryArticles(ctx context.Context, query string, args ...any) ([]*models.Article, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.Article
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanArticle(r rowScanner) (*models.Article, error) {
	var a models.Article
	var tags, vec, model, source sql.NullString
	if err := r.Scan(&a.ID, &a.Title, &a.Body, &tags, &vec, &model, &a.Active, &source, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}
	var err error
	if a.Tags, err = unmarshalStrings(tags); err != nil {
		return nil, fmt.Errorf("failed to unmarshal tags: %w", err)
	}
	if vec.Valid {
		e := &models.Embedding{Model: model.String}
		if err := json.Unmarshal([]byte(vec.String), &e.Values); err != nil {
			return nil, fmt.Errorf("failed to unmarshal embedding for %s: %w", a.ID, err)
		}
		a.Embedding = e
	}
	a.SourcePath = source.String
	return &a, nil
}

func encodeEmbedding(e *models.Embedding) (vec, model sql.NullString, err error) {
	if e == nil {
		return vec, model, nil
	}
	values := e.Values
	if values == nil {
		values = []float32{}
	}
	b, err := json.Marshal(values)
	if err != nil {
		return vec, model, fmt.Errorf("failed to marshal embedding: %w", err)
	}
	return sql.NullString{String: string(b), Valid: true}, sql.NullString{String: e.Model, Valid: e.Model != ""}, nil
}

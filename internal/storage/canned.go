package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hyperjump/smartdesk/internal/models"
)

// CreateCannedResponse inserts a canned response.
func (s *SQLiteStorage) CreateCannedResponse(ctx context.Context, c *models.CannedResponse) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	tags, err := marshalStrings(c.SearchTags)
	if err != nil {
		return fmt.Errorf("failed to marshal search tags: %w", err)
	}
	c.CreatedAt = time.Now().UTC()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO canned_responses (id, title, body, search_tags, created_at) VALUES (?, ?, ?, ?, ?)`,
		c.ID, c.Title, c.Body, tags, c.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert canned response: %w", err)
	}
	return nil
}

// GetCannedResponse returns a canned response by ID.
func (s *SQLiteStorage) GetCannedResponse(ctx context.Context, id string) (*models.CannedResponse, error) {
	c, err := scanCanned(s.db.QueryRowContext(ctx,
		`SELECT id, title, body, search_tags, created_at FROM canned_responses WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("canned response", id)
	}
	return c, err
}

// ListCannedResponses returns all canned responses ordered by title.
func (s *SQLiteStorage) ListCannedResponses(ctx context.Context) ([]*models.CannedResponse, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, body, search_tags, created_at FROM canned_responses ORDER BY title`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*models.CannedResponse
	for rows.Next() {
		c, err := scanCanned(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func scanCanned(r rowScanner) (*models.CannedResponse, error) {
	var c models.CannedResponse
	var tags sql.NullString
	if err := r.Scan(&c.ID, &c.Title, &c.Body, &tags, &c.CreatedAt); err != nil {
		return nil, err
	}
	var err error
	if c.SearchTags, err = unmarshalStrings(tags); err != nil {
		return nil, fmt.Errorf("failed to unmarshal search tags: %w", err)
	}
	return &c, nil
}

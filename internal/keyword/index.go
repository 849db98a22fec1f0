// Package keyword provides full-text indexing of canned responses.
package keyword

import (
	"context"

	"github.com/hyperjump/smartdesk/internal/models"
)

// SearchOptions tunes keyword search. Nil means use defaults.
type SearchOptions struct {
	// TitleBoost multiplies matches in the title. Default 3.
	TitleBoost float64
	// TagBoost multiplies matches in search tags. Default 2.
	TagBoost float64
	// PhraseBoost adds a body phrase clause for multi-term queries when > 1.
	PhraseBoost float64
	// FuzzyEnabled matches terms within Fuzziness edits.
	FuzzyEnabled bool
	Fuzziness    int
}

// Index defines canned response search operations.
type Index interface {
	Index(ctx context.Context, c *models.CannedResponse) error
	Search(ctx context.Context, query string, limit int, opts *SearchOptions) ([]*Result, error)
	Delete(ctx context.Context, id string) error
	DocCount() (uint64, error)
	Close() error
}

// Result is a single keyword search hit.
type Result struct {
	ID    string
	Score float64
}

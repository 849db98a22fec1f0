// Package embedding provides text embedding providers for knowledge articles
// and search queries.
package embedding

import (
	"context"
	"errors"
)

// ErrUnavailable marks a provider that cannot produce embeddings right now.
var ErrUnavailable = errors.New("embedding provider unavailable")

// Task tells the provider how the vector will be used.
type Task string

const (
	// TaskDocument embeds text that will be stored and searched.
	TaskDocument Task = "document"
	// TaskQuery embeds a search query.
	TaskQuery Task = "query"
)

// Provider produces vector embeddings for text.
type Provider interface {
	Embed(ctx context.Context, text string, task Task) ([]float32, error)
	// Model identifies the embedding space; vectors from different models are not comparable.
	Model() string
}

// Package models defines core data structures for articles, tickets, triage and search.
package models

import "time"

// Embedding is a stored article vector. A nil *Embedding on an Article means the
// article has not been embedded yet.
type Embedding struct {
	Values []float32 `json:"values"`
	Model  string    `json:"model,omitempty"`
}

// Article is a knowledge-base entry.
type Article struct {
	ID         string     `json:"id" db:"id"`
	Title      string     `json:"title" db:"title"`
	Body       string     `json:"body" db:"body"`
	Tags       []string   `json:"tags" db:"tags"`
	Embedding  *Embedding `json:"-" db:"embedding"`
	Active     bool       `json:"active" db:"active"`
	SourcePath string     `json:"source_path,omitempty" db:"source_path"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at" db:"updated_at"`
}

// HasEmbedding reports whether a vector has been attached.
func (a *Article) HasEmbedding() bool {
	return a.Embedding != nil
}

// EmbeddingText is the text submitted to the embedding provider for this article.
func (a *Article) EmbeddingText() string {
	return a.Title + "\n\n" + a.Body
}

// ArticleInput is the input for creating an article.
type ArticleInput struct {
	ID         string   `json:"id,omitempty"`
	Title      string   `json:"title"`
	Body       string   `json:"body"`
	Tags       []string `json:"tags,omitempty"`
	SourcePath string   `json:"-"`
}

// ArticleSuggestion is a lightweight title match used for search-as-you-type.
type ArticleSuggestion struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

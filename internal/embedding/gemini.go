package embedding

import (
	"context"
	"fmt"

	"github.com/hyperjump/smartdesk/internal/gemini"
)

// geminiEmbedder is the subset of gemini.Client used here.
type geminiEmbedder interface {
	Embed(ctx context.Context, text, taskType, title string) ([]float32, error)
	EmbeddingModel() string
}

// documentTitle is sent with every document embedding; article text already
// starts with the article's own title.
const documentTitle = "Knowledge Base Article"

// GeminiProvider embeds text with the Gemini embedding API.
type GeminiProvider struct {
	client geminiEmbedder
}

// NewGeminiProvider returns a provider backed by client.
func NewGeminiProvider(client geminiEmbedder) *GeminiProvider {
	return &GeminiProvider{client: client}
}

// Embed maps the task onto Gemini's retrieval task types.
func (p *GeminiProvider) Embed(ctx context.Context, text string, task Task) ([]float32, error) {
	taskType, title := gemini.TaskRetrievalDocument, documentTitle
	if task == TaskQuery {
		taskType, title = gemini.TaskRetrievalQuery, ""
	}
	vec, err := p.client.Embed(ctx, text, taskType, title)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return vec, nil
}

// Model returns the Gemini embedding model name.
func (p *GeminiProvider) Model() string {
	return "gemini/" + p.client.EmbeddingModel()
}

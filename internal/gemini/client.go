// Package gemini wraps the Google Gen AI SDK for ticket classification prompts,
// assistant replies and knowledge-base embeddings.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// Embedding task types understood by the Gemini embedding endpoint.
const (
	TaskRetrievalDocument = "RETRIEVAL_DOCUMENT"
	TaskRetrievalQuery    = "RETRIEVAL_QUERY"
)

// Client calls Gemini models with an API key.
type Client struct {
	client          *genai.Client
	generationModel string
	embeddingModel  string
}

// Config holds client settings.
type Config struct {
	APIKey          string
	GenerationModel string
	EmbeddingModel  string
}

// NewClient creates a Gemini API client. An empty API key is an error; callers
// treat a missing credential as "provider not configured" before calling this.
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini API key is required")
	}
	c, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &Client{
		client:          c,
		generationModel: cfg.GenerationModel,
		embeddingModel:  cfg.EmbeddingModel,
	}, nil
}

// Generate sends prompt as a single user turn and returns the concatenated
// text of the first candidate. The reply is requested as JSON.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	return c.generate(ctx, prompt, &genai.GenerateContentConfig{
		Temperature:      genai.Ptr[float32](0),
		ResponseMIMEType: "application/json",
	})
}

// TextGenerator generates free-form text replies with the client's model.
type TextGenerator struct {
	client *Client
}

// TextGenerator returns a generator for conversational replies.
func (c *Client) TextGenerator() *TextGenerator {
	return &TextGenerator{client: c}
}

// Generate sends prompt and returns the reply text.
func (g *TextGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	return g.client.generate(ctx, prompt, &genai.GenerateContentConfig{
		Temperature: genai.Ptr[float32](0.3),
	})
}

func (c *Client) generate(ctx context.Context, prompt string, cfg *genai.GenerateContentConfig) (string, error) {
	content := genai.NewContentFromText(prompt, genai.RoleUser)
	resp, err := c.client.Models.GenerateContent(ctx, c.generationModel, []*genai.Content{content}, cfg)
	if err != nil {
		return "", fmt.Errorf("failed to generate content with Gemini: %w", err)
	}
	return candidateText(resp)
}

// Embed returns the embedding of text. taskType is TaskRetrievalDocument or
// TaskRetrievalQuery; title is only sent for documents.
func (c *Client) Embed(ctx context.Context, text, taskType, title string) ([]float32, error) {
	cfg := &genai.EmbedContentConfig{TaskType: taskType}
	if taskType == TaskRetrievalDocument && title != "" {
		cfg.Title = title
	}
	resp, err := c.client.Models.EmbedContent(ctx, c.embeddingModel, genai.Text(text), cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to embed content with Gemini: %w", err)
	}
	if resp == nil || len(resp.Embeddings) == 0 || resp.Embeddings[0] == nil {
		return nil, errors.New("no embeddings in Gemini response")
	}
	values := resp.Embeddings[0].Values
	if len(values) == 0 {
		return nil, errors.New("empty embedding in Gemini response")
	}
	return values, nil
}

// EmbeddingModel returns the configured embedding model name.
func (c *Client) EmbeddingModel() string {
	return c.embeddingModel
}

func candidateText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", errors.New("no response candidates from Gemini")
	}
	cand := resp.Candidates[0]
	if cand.Content == nil {
		return "", errors.New("empty candidate content from Gemini")
	}
	var b strings.Builder
	for _, part := range cand.Content.Parts {
		if part != nil && part.Text != "" {
			b.WriteString(part.Text)
		}
	}
	if b.Len() == 0 {
		return "", errors.New("no text in Gemini response")
	}
	return b.String(), nil
}

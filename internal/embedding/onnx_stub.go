//go:build !cgo

package embedding

import (
	"context"
	"fmt"
)

// ONNXConfig configures a local sentence-embedding model.
type ONNXConfig struct {
	ModelPath  string
	Dimensions int
	MaxTokens  int
}

// ONNXProvider is unavailable without CGO.
type ONNXProvider struct{}

// NewONNXProvider always fails when built without CGO.
func NewONNXProvider(_ ONNXConfig) (*ONNXProvider, error) {
	return nil, fmt.Errorf("%w: ONNX embeddings require CGO_ENABLED=1 and onnxruntime", ErrUnavailable)
}

// Embed always fails.
func (p *ONNXProvider) Embed(context.Context, string, Task) ([]float32, error) {
	return nil, ErrUnavailable
}

// Model returns "onnx".
func (p *ONNXProvider) Model() string { return "onnx" }

// Close is a no-op.
func (p *ONNXProvider) Close() error { return nil }

//go:build cgo

package embedding

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/hyperjump/smartdesk/pkg/utils"
	ort "github.com/yalue/onnxruntime_go"
)

// ONNXConfig configures a local sentence-embedding model.
type ONNXConfig struct {
	ModelPath  string
	Dimensions int
	MaxTokens  int
}

// ONNXProvider runs a BERT-style embedding model with ONNX Runtime. It needs
// CGO and the onnxruntime shared library. Runs are serialized because the
// session reuses bound tensors.
type ONNXProvider struct {
	mu         sync.Mutex
	cfg        ONNXConfig
	tokenizer  Tokenizer
	session    *ort.AdvancedSession
	inputIDs   *ort.Tensor[int64]
	attention  *ort.Tensor[int64]
	tokenTypes *ort.Tensor[int64]
	output     *ort.Tensor[float32]
}

// NewONNXProvider loads the model at cfg.ModelPath.
func NewONNXProvider(cfg ONNXConfig) (*ONNXProvider, error) {
	if err := ort.InitializeEnvironment(); err != nil {
		return nil, fmt.Errorf("%w: failed to initialize ONNX runtime: %v", ErrUnavailable, err)
	}

	p := &ONNXProvider{cfg: cfg, tokenizer: HashTokenizer{}}
	shape := ort.NewShape(1, int64(cfg.MaxTokens))
	ids, mask, types := p.tokenizer.Tokenize("", cfg.MaxTokens)

	var err error
	if p.inputIDs, err = ort.NewTensor(shape, ids); err != nil {
		return nil, fmt.Errorf("failed to create input_ids tensor: %w", err)
	}
	if p.attention, err = ort.NewTensor(shape, mask); err != nil {
		p.Close()
		return nil, fmt.Errorf("failed to create attention_mask tensor: %w", err)
	}
	if p.tokenTypes, err = ort.NewTensor(shape, types); err != nil {
		p.Close()
		return nil, fmt.Errorf("failed to create token_type_ids tensor: %w", err)
	}
	if p.output, err = ort.NewTensor(ort.NewShape(1, int64(cfg.Dimensions)), make([]float32, cfg.Dimensions)); err != nil {
		p.Close()
		return nil, fmt.Errorf("failed to create output tensor: %w", err)
	}

	p.session, err = ort.NewAdvancedSession(cfg.ModelPath,
		[]string{"input_ids", "attention_mask", "token_type_ids"},
		[]string{"output"},
		[]ort.ArbitraryTensor{p.inputIDs, p.attention, p.tokenTypes},
		[]ort.ArbitraryTensor{p.output},
		nil,
	)
	if err != nil {
		p.Close()
		return nil, fmt.Errorf("failed to create ONNX session: %w", err)
	}
	return p, nil
}

// Embed runs the model on text. The task is ignored.
func (p *ONNXProvider) Embed(ctx context.Context, text string, _ Task) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ids, mask, types := p.tokenizer.Tokenize(text, p.cfg.MaxTokens)

	p.mu.Lock()
	defer p.mu.Unlock()
	copy(p.inputIDs.GetData(), ids)
	copy(p.attention.GetData(), mask)
	copy(p.tokenTypes.GetData(), types)
	if err := p.session.Run(); err != nil {
		return nil, fmt.Errorf("onnx inference failed: %w", err)
	}
	vec := make([]float32, p.cfg.Dimensions)
	copy(vec, p.output.GetData())
	utils.NormalizeL2(vec)
	return vec, nil
}

// Model names the local model file.
func (p *ONNXProvider) Model() string {
	return "onnx/" + filepath.Base(p.cfg.ModelPath)
}

// Close releases the session and tensors.
func (p *ONNXProvider) Close() error {
	var err error
	if p.session != nil {
		err = p.session.Destroy()
		p.session = nil
	}
	if p.inputIDs != nil {
		_ = p.inputIDs.Destroy()
	}
	if p.attention != nil {
		_ = p.attention.Destroy()
	}
	if p.tokenTypes != nil {
		_ = p.tokenTypes.Destroy()
	}
	if p.output != nil {
		_ = p.output.Destroy()
	}
	p.inputIDs, p.attention, p.tokenTypes, p.output = nil, nil, nil, nil
	return err
}

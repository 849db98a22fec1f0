package embedding

import (
	"context"
	"errors"
	"math"
	"testing"
)

func dot(a, b []float32) float64 {
	var s float64
	for i := range a {
		s += float64(a[i]) * float64(b[i])
	}
	return s
}

func TestHashingProvider_Deterministic(t *testing.T) {
	p := NewHashingProvider(64)
	a, err := p.Embed(context.Background(), "reset my password", TaskDocument)
	if err != nil {
		t.Fatal(err)
	}
	b, _ := p.Embed(context.Background(), "reset my password", TaskQuery)
	if len(a) != 64 {
		t.Fatalf("len = %d", len(a))
	}
	if math.Abs(dot(a, b)-1) > 1e-6 {
		t.Errorf("same text should embed identically, dot = %v", dot(a, b))
	}
}

func TestHashingProvider_SharedWordsAreCloser(t *testing.T) {
	p := NewHashingProvider(256)
	ctx := context.Background()
	q, _ := p.Embed(ctx, "vpn connection problem", TaskQuery)
	near, _ := p.Embed(ctx, "how to fix a vpn connection", TaskDocument)
	far, _ := p.Embed(ctx, "submitting annual leave", TaskDocument)
	if dot(q, near) <= dot(q, far) {
		t.Errorf("expected overlap to score higher: near=%v far=%v", dot(q, near), dot(q, far))
	}
}

func TestHashingProvider_EmptyTextIsZeroVector(t *testing.T) {
	v, err := NewHashingProvider(8).Embed(context.Background(), "  !! ", TaskQuery)
	if err != nil {
		t.Fatal(err)
	}
	for _, x := range v {
		if x != 0 {
			t.Fatalf("expected zero vector, got %v", v)
		}
	}
}

func TestHashingProvider_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewHashingProvider(8).Embed(ctx, "x", TaskQuery); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v", err)
	}
}

type fakeGemini struct {
	task  string
	title string
	err   error
}

func (f *fakeGemini) Embed(_ context.Context, _ string, taskType, title string) ([]float32, error) {
	f.task = taskType
	f.title = title
	if f.err != nil {
		return nil, f.err
	}
	return []float32{1, 0}, nil
}

func (f *fakeGemini) EmbeddingModel() string { return "text-embedding-004" }

func TestGeminiProvider_TaskMapping(t *testing.T) {
	f := &fakeGemini{}
	p := NewGeminiProvider(f)
	if _, err := p.Embed(context.Background(), "q", TaskQuery); err != nil {
		t.Fatal(err)
	}
	if f.task != "RETRIEVAL_QUERY" || f.title != "" {
		t.Errorf("query task = %q title = %q", f.task, f.title)
	}
	_, _ = p.Embed(context.Background(), "d", TaskDocument)
	if f.task != "RETRIEVAL_DOCUMENT" || f.title != "Knowledge Base Article" {
		t.Errorf("document task = %q title = %q", f.task, f.title)
	}
	if p.Model() != "gemini/text-embedding-004" {
		t.Errorf("model = %q", p.Model())
	}
}

func TestGeminiProvider_ErrorIsUnavailable(t *testing.T) {
	p := NewGeminiProvider(&fakeGemini{err: errors.New("429 quota")})
	if _, err := p.Embed(context.Background(), "q", TaskQuery); !errors.Is(err, ErrUnavailable) {
		t.Errorf("err = %v, want ErrUnavailable", err)
	}
}

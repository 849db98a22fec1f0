package embedding

import (
	"context"
	"fmt"
	"hash/fnv"

	"github.com/hyperjump/smartdesk/pkg/utils"
)

// HashingProvider is a deterministic offline provider. Each token is hashed
// into one of Dimensions buckets, so texts sharing words get similar vectors.
type HashingProvider struct {
	dimensions int
}

// NewHashingProvider returns a provider with the given number of dimensions.
func NewHashingProvider(dimensions int) *HashingProvider {
	if dimensions <= 0 {
		dimensions = 256
	}
	return &HashingProvider{dimensions: dimensions}
}

// Embed returns an L2-normalized bag-of-words vector. Text with no tokens
// yields a zero vector. The task is ignored.
func (p *HashingProvider) Embed(ctx context.Context, text string, _ Task) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	vec := make([]float32, p.dimensions)
	for _, tok := range Tokens(text) {
		h := fnv.New32a()
		_, _ = h.Write([]byte(tok))
		vec[h.Sum32()%uint32(p.dimensions)]++
	}
	utils.NormalizeL2(vec)
	return vec, nil
}

// Model identifies the hashing space by its dimension.
func (p *HashingProvider) Model() string {
	return fmt.Sprintf("hashing-%d", p.dimensions)
}

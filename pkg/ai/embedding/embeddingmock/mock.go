// Package embeddingmock provides a deterministic embedder for tests.
package embeddingmock

import (
	"context"
	"hash/fnv"
	"math"
	"sync"

	"github.com/memorai/memorai/pkg/ai/embedding"
)

// HashEmbedder derives a unit vector from the FNV hash of the text. Equal texts get equal
// vectors; Alias lets a test pin two texts to the same vector.
type HashEmbedder struct {
	dims int

	mu      sync.Mutex
	aliases map[string]string
	calls   int
}

var _ embedding.Embedder = (*HashEmbedder)(nil)

func New(dims int) *HashEmbedder {
	return &HashEmbedder{dims: dims, aliases: map[string]string{}}
}

// Alias makes text embed exactly like target
func (m *HashEmbedder) Alias(text, target string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.aliases[text] = target
}

// Calls returns the number of texts embedded so far
func (m *HashEmbedder) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func (m *HashEmbedder) EmbedDocuments(ctx context.Context, documents []string, opts ...embedding.Option) ([]embedding.Embedding, error) {
	out := make([]embedding.Embedding, len(documents))
	for i, d := range documents {
		out[i] = embedding.Embedding{Vector: m.vector(d)}
	}
	return out, nil
}

func (m *HashEmbedder) EmbedQuery(ctx context.Context, text string, opts ...embedding.Option) (embedding.Embedding, error) {
	return embedding.Embedding{Vector: m.vector(text)}, nil
}

func (m *HashEmbedder) vector(text string) []float32 {
	m.mu.Lock()
	m.calls++
	if target, ok := m.aliases[text]; ok {
		text = target
	}
	m.mu.Unlock()

	h := fnv.New64a()
	h.Write([]byte(text))
	seed := h.Sum64()

	vec := make([]float32, m.dims)
	var norm float64
	for i := range vec {
		seed = seed*6364136223846793005 + 1442695040888963407
		vec[i] = float32(int64(seed)) / float32(math.MaxInt64)
		norm += float64(vec[i]) * float64(vec[i])
	}
	if norm == 0 {
		return vec
	}
	n := float32(math.Sqrt(norm))
	for i := range vec {
		vec[i] /= n
	}
	return vec
}

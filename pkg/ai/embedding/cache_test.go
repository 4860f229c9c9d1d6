package embedding

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingEmbedder struct {
	calls [][]string
}

func (c *countingEmbedder) EmbedDocuments(ctx context.Context, documents []string, opts ...Option) ([]Embedding, error) {
	c.calls = append(c.calls, documents)
	out := make([]Embedding, len(documents))
	for i, d := range documents {
		out[i] = Embedding{Vector: []float32{float32(len(d))}}
	}
	return out, nil
}

func (c *countingEmbedder) EmbedQuery(ctx context.Context, text string, opts ...Option) (Embedding, error) {
	e, err := c.EmbedDocuments(ctx, []string{text}, opts...)
	return e[0], err
}

type mapCache struct {
	mu sync.Mutex
	m  map[string][]float32
}

func (m *mapCache) Get(_ context.Context, key string) ([]float32, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.m[key]
	return v, ok, nil
}

func (m *mapCache) Set(_ context.Context, key string, v []float32) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.m[key] = v
	return nil
}

func (m *mapCache) Close() error { return nil }

func TestCachedEmbedderOnlySendsMisses(t *testing.T) {
	inner := &countingEmbedder{}
	cached := NewCachedEmbedder(inner, &mapCache{m: map[string][]float32{}})
	ctx := context.Background()

	first, err := cached.EmbedDocuments(ctx, []string{"a", "bb"}, WithModel("m"))
	require.NoError(t, err)
	require.Len(t, first, 2)

	second, err := cached.EmbedDocuments(ctx, []string{"bb", "ccc"}, WithModel("m"))
	require.NoError(t, err)

	assert.Equal(t, []float32{2}, second[0].Vector)
	assert.Equal(t, []float32{3}, second[1].Vector)
	require.Len(t, inner.calls, 2)
	assert.Equal(t, []string{"ccc"}, inner.calls[1])

	q, err := cached.EmbedQuery(ctx, "a", WithModel("m"))
	require.NoError(t, err)
	assert.Equal(t, []float32{1}, q.Vector)
	assert.Len(t, inner.calls, 2)
}

func TestCacheKeySeparatesModels(t *testing.T) {
	assert.NotEqual(t, CacheKey("a", 384, "text"), CacheKey("b", 384, "text"))
	assert.NotEqual(t, CacheKey("a", 384, "text"), CacheKey("a", 768, "text"))
	assert.Equal(t, CacheKey("a", 384, "text"), CacheKey("a", 384, "text"))
}

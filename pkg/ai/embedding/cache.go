package embedding

import (
	"context"
	"encoding/hex"
	"fmt"

	"github.com/memorai/memorai/pkg/logx"
	"golang.org/x/crypto/blake2b"
)

// Cache stores vectors by key. Implementations live in embeddinginfra.
type Cache interface {
	Get(ctx context.Context, key string) ([]float32, bool, error)
	Set(ctx context.Context, key string, vector []float32) error
	Close() error
}

// CachedEmbedder serves repeated texts from a Cache and only sends misses upstream
type CachedEmbedder struct {
	next  Embedder
	cache Cache
}

func NewCachedEmbedder(next Embedder, cache Cache) *CachedEmbedder {
	return &CachedEmbedder{next: next, cache: cache}
}

// CacheKey derives the cache key from model, dimensions and a blake2b digest of the text
func CacheKey(model string, dims int, text string) string {
	sum := blake2b.Sum256([]byte(text))
	return fmt.Sprintf("emb:%s:%d:%s", model, dims, hex.EncodeToString(sum[:]))
}

func (c *CachedEmbedder) EmbedDocuments(ctx context.Context, documents []string, opts ...Option) ([]Embedding, error) {
	options := DefaultOptions()
	for _, opt := range opts {
		opt(options)
	}

	out := make([]Embedding, len(documents))
	keys := make([]string, len(documents))
	var missIdx []int
	var missDocs []string

	for i, doc := range documents {
		keys[i] = CacheKey(options.Model, options.Dimensions, doc)
		vec, ok, err := c.cache.Get(ctx, keys[i])
		if err != nil {
			logx.Warn("embedding cache read failed", "error", err)
		}
		if ok {
			out[i] = Embedding{Vector: vec}
			continue
		}
		missIdx = append(missIdx, i)
		missDocs = append(missDocs, doc)
	}

	if len(missDocs) == 0 {
		return out, nil
	}

	fresh, err := c.next.EmbedDocuments(ctx, missDocs, opts...)
	if err != nil {
		return nil, err
	}
	if len(fresh) != len(missDocs) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d documents", len(fresh), len(missDocs))
	}

	for j, i := range missIdx {
		out[i] = fresh[j]
		if err := c.cache.Set(ctx, keys[i], fresh[j].Vector); err != nil {
			logx.Warn("embedding cache write failed", "error", err)
		}
	}
	return out, nil
}

func (c *CachedEmbedder) EmbedQuery(ctx context.Context, text string, opts ...Option) (Embedding, error) {
	embeddings, err := c.EmbedDocuments(ctx, []string{text}, opts...)
	if err != nil {
		return Embedding{}, err
	}
	return embeddings[0], nil
}

// Close releases the cache; the wrapped embedder is owned by the caller
func (c *CachedEmbedder) Close() error {
	return c.cache.Close()
}

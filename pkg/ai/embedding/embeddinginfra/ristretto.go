package embeddinginfra

import (
	"context"
	"time"

	"github.com/dgraph-io/ristretto"
	"github.com/memorai/memorai/pkg/ai/embedding"
)

// RistrettoCache keeps vectors in process memory, bounded by an entry count
type RistrettoCache struct {
	cache *ristretto.Cache
	ttl   time.Duration
}

var _ embedding.Cache = (*RistrettoCache)(nil)

// NewRistrettoCache creates a cache holding roughly maxEntries vectors; every entry costs 1
func NewRistrettoCache(maxEntries int, ttl time.Duration) (*RistrettoCache, error) {
	if maxEntries <= 0 {
		maxEntries = 10000
	}
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: int64(maxEntries) * 10,
		MaxCost:     int64(maxEntries),
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}
	return &RistrettoCache{cache: cache, ttl: ttl}, nil
}

func (r *RistrettoCache) Get(_ context.Context, key string) ([]float32, bool, error) {
	v, ok := r.cache.Get(key)
	if !ok {
		return nil, false, nil
	}
	vec, ok := v.([]float32)
	return vec, ok, nil
}

func (r *RistrettoCache) Set(_ context.Context, key string, vector []float32) error {
	if r.ttl > 0 {
		r.cache.SetWithTTL(key, vector, 1, r.ttl)
	} else {
		r.cache.Set(key, vector, 1)
	}
	return nil
}

// Wait blocks until buffered writes are visible to Get
func (r *RistrettoCache) Wait() {
	r.cache.Wait()
}

func (r *RistrettoCache) Close() error {
	r.cache.Close()
	return nil
}

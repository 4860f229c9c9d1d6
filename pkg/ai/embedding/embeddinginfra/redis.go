package embeddinginfra

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"time"

	"github.com/memorai/memorai/pkg/ai/embedding"
	"github.com/redis/go-redis/v9"
)

// RedisCache shares vectors between replicas. Vectors are stored as little-endian float32 bytes.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	owned  bool
}

var _ embedding.Cache = (*RedisCache)(nil)

func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

// NewRedisCacheFromURL parses a redis:// URL and owns the resulting client
func NewRedisCacheFromURL(ctx context.Context, url string, ttl time.Duration) (*RedisCache, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return &RedisCache{client: client, ttl: ttl, owned: true}, nil
}

func (r *RedisCache) Get(ctx context.Context, key string) ([]float32, bool, error) {
	raw, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to get embedding from Redis: %w", err)
	}
	vec, err := decodeVector(raw)
	if err != nil {
		return nil, false, err
	}
	return vec, true, nil
}

func (r *RedisCache) Set(ctx context.Context, key string, vector []float32) error {
	if err := r.client.Set(ctx, key, encodeVector(vector), r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store embedding in Redis: %w", err)
	}
	return nil
}

func (r *RedisCache) Close() error {
	if r.owned {
		return r.client.Close()
	}
	return nil
}

func encodeVector(vec []float32) []byte {
	buf := make([]byte, 4*len(vec))
	for i, v := range vec {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

func decodeVector(buf []byte) ([]float32, error) {
	if len(buf)%4 != 0 {
		return nil, fmt.Errorf("corrupt cached embedding: %d bytes", len(buf))
	}
	vec := make([]float32, len(buf)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	return vec, nil
}

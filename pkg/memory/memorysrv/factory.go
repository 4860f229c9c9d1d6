package memorysrv

import (
	"context"
	"fmt"
	"io"

	"github.com/memorai/memorai/pkg/ai/embedding"
	"github.com/memorai/memorai/pkg/ai/embedding/embeddinginfra"
	"github.com/memorai/memorai/pkg/ai/llm"
	aionnx "github.com/memorai/memorai/pkg/ai/providers/onnx"
	aiopenai "github.com/memorai/memorai/pkg/ai/providers/openai"
	"github.com/memorai/memorai/pkg/config"
	"github.com/memorai/memorai/pkg/logx"
	"github.com/memorai/memorai/pkg/memory"
	"github.com/memorai/memorai/pkg/memory/memoryinfra"
)

// EngineConfig is the subset of the process configuration the engine is built from
type EngineConfig struct {
	LLM         config.LLMConfig
	Embedder    config.EmbedderConfig
	VectorStore config.VectorStoreConfig
	Database    config.DatabaseConfig
	Redis       config.RedisConfig
	Snapshot    config.SnapshotConfig
}

// FromConfig builds a MemoryService with every backend selected by cfg.
// The vector store is not contacted here; the collection is created on first use.
func FromConfig(ctx context.Context, cfg EngineConfig) (*MemoryService, error) {
	var closers []io.Closer
	fail := func(err error) (*MemoryService, error) {
		for _, c := range closers {
			_ = c.Close()
		}
		return nil, err
	}

	chat := aiopenai.NewCompatibleProvider(cfg.LLM.BaseURL, cfg.LLM.APIKey)
	llmClient := llm.NewClient(chat,
		llm.WithModel(cfg.LLM.Model),
		llm.WithTemperature(float32(cfg.LLM.Temperature)),
		llm.WithMaxTokens(cfg.LLM.MaxTokens),
	)
	logx.Info("🤖 LLM configured", "base_url", cfg.LLM.BaseURL, "model", cfg.LLM.Model)

	base, err := newEmbedder(cfg.Embedder)
	if err != nil {
		return fail(err)
	}
	if c, ok := base.(io.Closer); ok {
		closers = append(closers, c)
	}

	cache, err := newEmbeddingCache(ctx, cfg.Embedder, cfg.Redis)
	if err != nil {
		return fail(err)
	}
	var embedder embedding.Embedder = base
	if cache != nil {
		closers = append(closers, cache)
		embedder = embedding.NewCachedEmbedder(base, cache)
	}
	embedder = embedding.NewClient(embedder, embeddingDefaults(cfg.Embedder)...)

	store, err := newVectorStore(cfg.VectorStore)
	if err != nil {
		return fail(err)
	}

	history, err := newHistoryStore(ctx, cfg.Database)
	if err != nil {
		_ = store.Close()
		return fail(err)
	}

	opts := []ServiceOption{WithClosers(closers...)}
	snap, err := newSnapshotter(ctx, cfg.Snapshot)
	if err != nil {
		_ = store.Close()
		_ = history.Close()
		return fail(err)
	}
	if snap != nil {
		opts = append(opts, WithSnapshotter(snap))
	}

	return NewMemoryService(llmClient, embedder, store, history, opts...), nil
}

func newEmbedder(cfg config.EmbedderConfig) (embedding.Embedder, error) {
	switch cfg.Provider {
	case config.EmbedderProviderHuggingFace:
		// text-embeddings-inference serves an OpenAI-compatible /v1/embeddings route
		logx.Info("🧮 Embeddings: huggingface TEI", "base_url", cfg.BaseURL, "model", cfg.Model)
		return aiopenai.NewCompatibleProvider(cfg.BaseURL, cfg.APIKey), nil
	case config.EmbedderProviderOpenAI:
		logx.Info("🧮 Embeddings: openai", "model", cfg.Model)
		if cfg.BaseURL != "" {
			return aiopenai.NewCompatibleProvider(cfg.BaseURL, cfg.APIKey), nil
		}
		return aiopenai.NewOpenAIProvider(cfg.APIKey), nil
	case config.EmbedderProviderONNX:
		logx.Info("🧮 Embeddings: local onnx", "model_path", cfg.ModelPath)
		return aionnx.New(aionnx.Config{
			ModelPath:     cfg.ModelPath,
			TokenizerPath: cfg.TokenizerPath,
			LibraryPath:   cfg.LibraryPath,
			Dimensions:    cfg.Dims,
		})
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Provider)
	}
}

func embeddingDefaults(cfg config.EmbedderConfig) []embedding.Option {
	dims := embedding.WithDimensions(cfg.Dims)
	if cfg.RequestDims {
		dims = embedding.WithRequestedDimensions(cfg.Dims)
	}
	return []embedding.Option{embedding.WithModel(cfg.Model), dims}
}

// newEmbeddingCache prefers Redis when configured, then the in-process cache; a zero size disables caching
func newEmbeddingCache(ctx context.Context, cfg config.EmbedderConfig, rc config.RedisConfig) (embedding.Cache, error) {
	if rc.Enabled() {
		cache, err := embeddinginfra.NewRedisCacheFromURL(ctx, rc.URL, cfg.CacheTTL)
		if err != nil {
			return nil, fmt.Errorf("embedding cache: %w", err)
		}
		logx.Info("🗄️  Embedding cache: redis")
		return cache, nil
	}
	if cfg.CacheSize <= 0 {
		return nil, nil
	}
	cache, err := embeddinginfra.NewRistrettoCache(cfg.CacheSize, cfg.CacheTTL)
	if err != nil {
		return nil, fmt.Errorf("embedding cache: %w", err)
	}
	logx.Info("🗄️  Embedding cache: in-process", "entries", cfg.CacheSize)
	return cache, nil
}

func newVectorStore(cfg config.VectorStoreConfig) (memory.VectorStore, error) {
	switch cfg.Provider {
	case config.VectorStoreQdrant:
		logx.Info("📦 Vector store: qdrant", "url", cfg.URL(), "collection", cfg.Collection)
		return memoryinfra.NewQdrantStore(memoryinfra.QdrantConfig{
			Endpoint:   cfg.URL(),
			Collection: cfg.Collection,
			Dims:       cfg.Dims,
			APIKey:     cfg.APIKey,
			Timeout:    cfg.Timeout,
		}), nil
	case config.VectorStoreChromem:
		logx.Info("📦 Vector store: chromem", "path", cfg.Path, "collection", cfg.Collection)
		return memoryinfra.NewChromemStore(cfg.Collection, cfg.Dims, cfg.Path)
	default:
		return nil, fmt.Errorf("unknown vector store %q", cfg.Provider)
	}
}

func newHistoryStore(ctx context.Context, cfg config.DatabaseConfig) (memory.HistoryStore, error) {
	if cfg.UsePostgres() {
		logx.Info("📜 History store: postgres")
		return memoryinfra.OpenPostgresHistory(ctx, cfg.URL, cfg.MaxOpenConns, cfg.MaxIdleConns)
	}
	logx.Info("📜 History store: sqlite", "path", cfg.HistoryPath)
	return memoryinfra.OpenSQLiteHistory(ctx, cfg.HistoryPath)
}

func newSnapshotter(ctx context.Context, cfg config.SnapshotConfig) (memory.Snapshotter, error) {
	switch cfg.Mode {
	case config.SnapshotModeNone:
		return nil, nil
	case config.SnapshotModeLocal:
		logx.Info("💾 Reset snapshots: local", "dir", cfg.Dir)
		return memoryinfra.NewLocalSnapshotter(cfg.Dir)
	case config.SnapshotModeS3:
		logx.Info("💾 Reset snapshots: s3", "bucket", cfg.Bucket, "region", cfg.Region)
		return memoryinfra.NewS3SnapshotterFromRegion(ctx, cfg.Region, cfg.Bucket, cfg.Prefix)
	default:
		return nil, fmt.Errorf("unknown snapshot mode %q", cfg.Mode)
	}
}

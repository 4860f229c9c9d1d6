// container.go
package main

import (
	"context"
	"strings"
	"time"

	"github.com/memorai/memorai/pkg/config"
	"github.com/memorai/memorai/pkg/logx"
	"github.com/memorai/memorai/pkg/memory"
	"github.com/memorai/memorai/pkg/memory/memoryapi"
	"github.com/memorai/memorai/pkg/memory/memorysrv"
)

// Container holds all application dependencies
type Container struct {
	// Config
	Config *config.Config

	// Engine is the single memory engine shared by every request
	Engine memory.Engine

	// API Handlers
	MemoryHandlers *memoryapi.MemoryHandlers

	// Middleware
	APIKeyMiddleware *memoryapi.APIKeyMiddleware
}

// NewContainer initializes the dependency injection container
func NewContainer(cfg *config.Config) *Container {
	logx.Info("🔧 Initializing dependency container...")

	c := &Container{
		Config: cfg,
	}

	c.initEngine()
	c.initHandlers()

	logx.Info("✅ Container initialized successfully")
	return c
}

func (c *Container) initEngine() {
	logx.Info("🏗️ Initializing memory engine...")
	logx.Infof("  LLM model: %s (via %s)", c.Config.LLM.Model, c.Config.LLM.BaseURL)
	logx.Infof("  Embedding model: %s (%s, %d dims)", c.Config.Embedder.Model, c.Config.Embedder.Provider, c.Config.Embedder.Dims)
	logx.Infof("  Vector store: %s", describeVectorStore(c.Config.VectorStore))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	engine, err := memorysrv.FromConfig(ctx, engineConfig(c.Config))
	if err != nil {
		logx.Fatalf("Failed to initialize memory engine: %v", err)
	}
	c.Engine = engine

	logx.Info("✅ Memory engine initialized")
}

func (c *Container) initHandlers() {
	c.APIKeyMiddleware = memoryapi.NewAPIKeyMiddleware(c.Config.Auth.APIKey)
	c.MemoryHandlers = memoryapi.NewMemoryHandlers(c.Engine, memoryapi.HealthInfo{
		EmbeddingModel: c.Config.Embedder.Model,
		LLMModel:       c.Config.LLM.Model,
	})

	if c.APIKeyMiddleware.Enabled() {
		logx.Info("🔒 API key authentication enabled")
	} else {
		logx.Warn("🔓 API key authentication disabled (MEMORAI_API_KEY is empty)")
	}
}

// StartBackgroundServices probes the backing stores once so connectivity problems show up at boot
// instead of on the first request
func (c *Container) StartBackgroundServices(ctx context.Context) {
	go func() {
		probeCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
		defer cancel()

		if p, ok := c.Engine.(memory.Pinger); ok {
			if err := p.Ping(probeCtx); err != nil {
				logx.Warnf("⚠️  Backing stores not reachable yet: %v", err)
				return
			}
			logx.Info("✅ Vector store and history database reachable")
		}

		if _, err := c.Engine.GetAll(probeCtx, memory.WithUserID(memory.HealthCheckUserID)); err != nil {
			logx.Warnf("⚠️  Memory collection not ready yet: %v", err)
			return
		}
		logx.Info("✅ Memory collection ready")
	}()
}

// Cleanup closes all connections held by the engine
func (c *Container) Cleanup() {
	logx.Info("🧹 Cleaning up resources...")

	if c.Engine != nil {
		if err := c.Engine.Close(); err != nil {
			logx.Errorf("Error closing memory engine: %v", err)
		} else {
			logx.Info("✅ Memory engine closed")
		}
	}

	logx.Info("✅ Cleanup completed")
}

// ============================================================================
// Helper Functions
// ============================================================================

// engineConfig assembles the LLM, embedder and vector store sections passed to the engine factory
func engineConfig(cfg *config.Config) memorysrv.EngineConfig {
	return memorysrv.EngineConfig{
		LLM:         cfg.LLM,
		Embedder:    cfg.Embedder,
		VectorStore: cfg.VectorStore,
		Database:    cfg.Database,
		Redis:       cfg.Redis,
		Snapshot:    cfg.Snapshot,
	}
}

func describeVectorStore(vc config.VectorStoreConfig) string {
	if vc.Provider == config.VectorStoreChromem {
		if vc.Path == "" {
			return "chromem (in-memory), collection " + vc.Collection
		}
		return "chromem at " + vc.Path + ", collection " + vc.Collection
	}
	return "qdrant at " + strings.TrimPrefix(vc.URL(), "http://") + ", collection " + vc.Collection
}

package config

import (
	"fmt"
	"time"
)

const (
	VectorStoreQdrant  = "qdrant"
	VectorStoreChromem = "chromem"
)

type VectorStoreConfig struct {
	Provider   string
	Host       string
	Port       int
	Collection string
	APIKey     string
	Timeout    time.Duration
	// Dims mirrors EmbedderConfig.Dims; the collection is created with this size
	Dims int
	// Path persists the chromem database when set
	Path string
}

// URL is the base URL of the Qdrant REST API
func (vc VectorStoreConfig) URL() string {
	return fmt.Sprintf("http://%s:%d", vc.Host, vc.Port)
}

func loadVectorStoreConfig() VectorStoreConfig {
	return VectorStoreConfig{
		Provider:   getEnv("VECTOR_STORE_PROVIDER", VectorStoreQdrant),
		Host:       getEnv("QDRANT_HOST", "qdrant"),
		Port:       getEnvInt("QDRANT_PORT", 6333),
		Collection: getEnv("QDRANT_COLLECTION", "memories"),
		APIKey:     getEnv("QDRANT_API_KEY", ""),
		Timeout:    getEnvDuration("QDRANT_TIMEOUT", 10*time.Second),
		Dims:       getEnvInt("EMBEDDING_DIMS", 384),
		Path:       getEnv("CHROMEM_PATH", ""),
	}
}

package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// EnvPrefix is prepended to every variable name read by the loaders
const EnvPrefix = "MEMORAI_"

type Config struct {
	Server      ServerConfig
	LLM         LLMConfig
	Embedder    EmbedderConfig
	VectorStore VectorStoreConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	Snapshot    SnapshotConfig
	Auth        AuthConfig
	Environment Environment
}

type Environment string

const (
	EnvironmentDevelopment Environment = "development"
	EnvironmentStaging     Environment = "staging"
	EnvironmentProduction  Environment = "production"
)

func (c Config) IsDevelopment() bool {
	return c.Environment == EnvironmentDevelopment
}
func (c Config) IsProd() bool {
	return c.Environment == EnvironmentProduction
}

func loadEnvironment() Environment {
	env := getEnv("ENVIRONMENT", "development")
	switch strings.ToLower(env) {
	case "production":
		return EnvironmentProduction
	case "staging":
		return EnvironmentStaging
	default:
		return EnvironmentDevelopment
	}
}

// Load reads the optional dotenv file and then every section from the environment.
// Variables already present in the environment win over the dotenv file.
func Load() (*Config, error) {
	if err := loadDotenv(); err != nil {
		return nil, err
	}

	cfg := &Config{
		Server:      loadServerConfig(),
		LLM:         loadLLMConfig(),
		Embedder:    loadEmbedderConfig(),
		VectorStore: loadVectorStoreConfig(),
		Database:    loadDatabaseConfig(),
		Redis:       loadRedisConfig(),
		Snapshot:    loadSnapshotConfig(),
		Auth:        loadAuthConfig(),
		Environment: loadEnvironment(),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

func loadDotenv() error {
	path := os.Getenv(EnvPrefix + "ENV_FILE")
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

func (c *Config) Validate() error {
	switch c.LLM.Provider {
	case LLMProviderOpenAI:
	default:
		return fmt.Errorf("unknown LLM provider %q", c.LLM.Provider)
	}

	switch c.Embedder.Provider {
	case EmbedderProviderHuggingFace, EmbedderProviderOpenAI, EmbedderProviderONNX:
	default:
		return fmt.Errorf("unknown embedding provider %q", c.Embedder.Provider)
	}

	if c.Embedder.Dims <= 0 {
		return fmt.Errorf("embedding dimensions must be positive, got %d", c.Embedder.Dims)
	}

	switch c.VectorStore.Provider {
	case VectorStoreQdrant, VectorStoreChromem:
	default:
		return fmt.Errorf("unknown vector store provider %q", c.VectorStore.Provider)
	}

	switch c.Snapshot.Mode {
	case SnapshotModeNone, SnapshotModeLocal, SnapshotModeS3:
	default:
		return fmt.Errorf("unknown snapshot mode %q", c.Snapshot.Mode)
	}
	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(EnvPrefix + key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(EnvPrefix + key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(EnvPrefix + key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(EnvPrefix + key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(EnvPrefix + key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvStringSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(EnvPrefix + key); value != "" {
		parts := strings.Split(value, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return parts
	}
	return defaultValue
}

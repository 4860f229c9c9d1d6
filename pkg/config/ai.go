package config

import "time"

const (
	LLMProviderOpenAI = "openai"

	EmbedderProviderHuggingFace = "huggingface"
	EmbedderProviderOpenAI      = "openai"
	EmbedderProviderONNX        = "onnx"
)

// LLMConfig targets any OpenAI-compatible chat completions endpoint (OpenRouter by default)
type LLMConfig struct {
	Provider    string
	BaseURL     string
	APIKey      string
	Model       string
	Temperature float64
	MaxTokens   int
}

type EmbedderConfig struct {
	Provider string
	BaseURL  string
	APIKey   string
	Model    string
	Dims     int
	// RequestDims sends Dims with each request; only models with variable output size accept it
	RequestDims bool

	// onnx provider only
	ModelPath     string
	TokenizerPath string
	LibraryPath   string

	CacheSize int
	CacheTTL  time.Duration
}

func loadLLMConfig() LLMConfig {
	return LLMConfig{
		Provider:    getEnv("LLM_PROVIDER", LLMProviderOpenAI),
		BaseURL:     getEnv("LLM_BASE_URL", "https://openrouter.ai/api/v1"),
		APIKey:      getEnv("OPENROUTER_API_KEY", ""),
		Model:       getEnv("LLM_MODEL", "arcee-ai/trinity-large-preview:free"),
		Temperature: getEnvFloat("LLM_TEMPERATURE", 0.1),
		MaxTokens:   getEnvInt("LLM_MAX_TOKENS", 2000),
	}
}

func loadEmbedderConfig() EmbedderConfig {
	return EmbedderConfig{
		Provider:      getEnv("EMBEDDING_PROVIDER", EmbedderProviderHuggingFace),
		BaseURL:       getEnv("EMBEDDING_BASE_URL", "http://embeddings:80/v1"),
		APIKey:        getEnv("EMBEDDING_API_KEY", ""),
		Model:         getEnv("EMBEDDING_MODEL", "multi-qa-MiniLM-L6-cos-v1"),
		Dims:          getEnvInt("EMBEDDING_DIMS", 384),
		RequestDims:   getEnvBool("EMBEDDING_REQUEST_DIMS", false),
		ModelPath:     getEnv("EMBEDDING_MODEL_PATH", ""),
		TokenizerPath: getEnv("EMBEDDING_TOKENIZER_PATH", ""),
		LibraryPath:   getEnv("ONNX_LIBRARY_PATH", ""),
		CacheSize:     getEnvInt("EMBEDDING_CACHE_SIZE", 10000),
		CacheTTL:      getEnvDuration("EMBEDDING_CACHE_TTL", 24*time.Hour),
	}
}

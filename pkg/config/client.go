package config

import (
	"os"
	"time"
)

// ClientConfig configures memoryclient and the MCP server that drives it
type ClientConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// LoadClient reads the client settings only; the MCP binary does not need the server sections
func LoadClient() ClientConfig {
	_ = loadDotenv()
	return ClientConfig{
		BaseURL: getEnv("API_URL", "http://localhost:8000"),
		APIKey:  os.Getenv(EnvPrefix + "API_KEY"),
		Timeout: getEnvDuration("API_TIMEOUT", 30*time.Second),
	}
}

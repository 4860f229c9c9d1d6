package config

type ServerConfig struct {
	Port         int
	Environment  string
	LogLevel     string
	CORSOrigins  []string
	RedactErrors bool
}

func loadServerConfig() ServerConfig {
	return ServerConfig{
		Port:         getEnvInt("SERVER_PORT", 8000),
		Environment:  getEnv("ENVIRONMENT", "development"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		CORSOrigins:  getEnvStringSlice("CORS_ORIGINS", []string{"*"}),
		RedactErrors: getEnvBool("REDACT_ERRORS", false),
	}
}

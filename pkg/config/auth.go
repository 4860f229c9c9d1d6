package config

type AuthConfig struct {
	// APIKey enables the x-api-key check on protected routes when non-empty
	APIKey string
	// JWTSecret is declared for compatibility and not consumed by any route
	JWTSecret string
}

func (ac AuthConfig) Enabled() bool {
	return ac.APIKey != ""
}

func loadAuthConfig() AuthConfig {
	return AuthConfig{
		APIKey:    getEnv("API_KEY", ""),
		JWTSecret: getEnv("JWT_SECRET", "memorai-jwt-secret-change-in-production"),
	}
}

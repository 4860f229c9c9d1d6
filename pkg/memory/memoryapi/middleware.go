package memoryapi

import (
	"crypto/subtle"

	"github.com/gofiber/fiber/v2"
	"github.com/memorai/memorai/pkg/logx"
	"github.com/memorai/memorai/pkg/memory"
)

const apiKeyHeader = "X-API-Key"

// APIKeyMiddleware guards protected routes with a single static key.
// An empty key disables the check.
type APIKeyMiddleware struct {
	apiKey []byte
}

func NewAPIKeyMiddleware(apiKey string) *APIKeyMiddleware {
	return &APIKeyMiddleware{apiKey: []byte(apiKey)}
}

func (am *APIKeyMiddleware) Enabled() bool {
	return len(am.apiKey) > 0
}

func (am *APIKeyMiddleware) Authenticate() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !am.Enabled() {
			return c.Next()
		}

		provided := []byte(c.Get(apiKeyHeader))
		if subtle.ConstantTimeCompare(provided, am.apiKey) != 1 {
			logx.WithFields(logx.Fields{
				"path":   c.Path(),
				"method": c.Method(),
				"ip":     c.IP(),
			}).Warn("rejected request with invalid api key")
			return memory.ErrUnauthorized()
		}

		return c.Next()
	}
}

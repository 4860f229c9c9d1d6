package memoryapi

import (
	"github.com/gofiber/fiber/v2"
	"github.com/memorai/memorai/pkg/logx"
	"github.com/memorai/memorai/pkg/memory"
)

// HealthInfo is the static part of the health response
type HealthInfo struct {
	EmbeddingModel string
	LLMModel       string
}

// Health probes the engine with a list on the reserved scope. It always answers 200;
// a failed probe only degrades the status.
func (h *MemoryHandlers) Health(c *fiber.Ctx) error {
	connected := true
	if _, err := h.engine.GetAll(c.Context(), memory.WithUserID(memory.HealthCheckUserID)); err != nil {
		logx.Warnf("Health check - vector store connectivity issue: %v", err)
		connected = false
	}

	status := "ok"
	if !connected {
		status = "degraded"
	}

	return c.JSON(memory.HealthStatus{
		Status:          status,
		QdrantConnected: connected,
		EmbeddingModel:  h.info.EmbeddingModel,
		LLMModel:        h.info.LLMModel,
	})
}

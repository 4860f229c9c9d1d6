package memoryapi

import (
	"github.com/gofiber/fiber/v2"
	"github.com/memorai/memorai/pkg/logx"
	"github.com/memorai/memorai/pkg/memory"
)

// MemoryHandlers adapts HTTP requests to exactly one engine call each
type MemoryHandlers struct {
	engine memory.Engine
	info   HealthInfo
}

func NewMemoryHandlers(engine memory.Engine, info HealthInfo) *MemoryHandlers {
	return &MemoryHandlers{engine: engine, info: info}
}

func (h *MemoryHandlers) RegisterRoutes(router fiber.Router, authMiddleware *APIKeyMiddleware) {
	auth := authMiddleware.Authenticate()

	router.Get("/health", h.Health)

	router.Post("/memories", auth, h.CreateMemories)
	router.Get("/memories", auth, h.ListMemories)
	router.Delete("/memories", auth, h.DeleteAllMemories)
	router.Get("/memories/:id", auth, h.GetMemory)
	router.Put("/memories/:id", auth, h.UpdateMemory)
	router.Delete("/memories/:id", auth, h.DeleteMemory)
	router.Get("/memories/:id/history", auth, h.MemoryHistory)
	router.Post("/search", auth, h.SearchMemories)
	router.Post("/reset", auth, h.ResetMemories)
}

func (h *MemoryHandlers) CreateMemories(c *fiber.Ctx) error {
	var body createBody
	if err := c.BodyParser(&body); err != nil {
		return invalidBody(err)
	}
	if err := validateCreate(body); err != nil {
		return err
	}
	req := body.request()

	logx.WithFields(scopeFields(req.UserID, req.AgentID, req.RunID)).
		Infof("Adding %d message(s)", len(req.Messages))

	result, err := h.engine.Add(c.Context(), req.Messages, req.Options()...)
	if err != nil {
		return upstream(c, "Failed to add memories", err, scopeFields(req.UserID, req.AgentID, req.RunID))
	}

	logx.Infof("Add produced %d change(s)", len(result.Results))
	return c.Status(fiber.StatusCreated).JSON(result)
}

func (h *MemoryHandlers) ListMemories(c *fiber.Ctx) error {
	userID, agentID, runID := c.Query("user_id"), c.Query("agent_id"), c.Query("run_id")
	limit := c.QueryInt("limit", memory.DefaultListLimit)
	if err := validateListLimit(limit); err != nil {
		return err
	}

	opts := append(memory.ScopeOptions(userID, agentID, runID), memory.WithLimit(limit))
	result, err := h.engine.GetAll(c.Context(), opts...)
	if err != nil {
		return upstream(c, "Failed to list memories", err, scopeFields(userID, agentID, runID))
	}

	logx.Infof("Listed %d memories", len(result.Results))
	return c.JSON(result)
}

func (h *MemoryHandlers) GetMemory(c *fiber.Ctx) error {
	id := c.Params("id")

	record, err := h.engine.Get(c.Context(), id)
	if err != nil {
		return upstream(c, "Failed to get memory", err, logx.Fields{"memory_id": id})
	}
	if record == nil {
		logx.WithFields(logx.Fields{"memory_id": id, "request_id": requestID(c)}).Warn("Memory not found")
		return memory.ErrMemoryNotFound(id)
	}

	return c.JSON(record)
}

func (h *MemoryHandlers) UpdateMemory(c *fiber.Ctx) error {
	id := c.Params("id")

	var req memory.UpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(err)
	}
	if err := validateUpdate(req); err != nil {
		return err
	}

	result, err := h.engine.Update(c.Context(), id, req.Data)
	if err != nil {
		return upstream(c, "Failed to update memory", err, logx.Fields{"memory_id": id})
	}

	logx.Infof("Updated memory %s", id)
	return c.JSON(result)
}

func (h *MemoryHandlers) DeleteMemory(c *fiber.Ctx) error {
	id := c.Params("id")

	if err := h.engine.Delete(c.Context(), id); err != nil {
		return upstream(c, "Failed to delete memory", err, logx.Fields{"memory_id": id})
	}

	logx.Infof("Deleted memory %s", id)
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *MemoryHandlers) DeleteAllMemories(c *fiber.Ctx) error {
	userID, agentID, runID := c.Query("user_id"), c.Query("agent_id"), c.Query("run_id")
	if userID == "" && agentID == "" {
		fields := scopeFields(userID, agentID, runID)
		fields["request_id"] = requestID(c)
		logx.WithFields(fields).Warn("Delete all rejected without user_id or agent_id")
		return memory.ErrMissingFilters()
	}

	if err := h.engine.DeleteAll(c.Context(), memory.ScopeOptions(userID, agentID, runID)...); err != nil {
		return upstream(c, "Failed to delete memories", err, scopeFields(userID, agentID, runID))
	}

	logx.WithFields(scopeFields(userID, agentID, runID)).Info("Deleted all memories in scope")
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *MemoryHandlers) MemoryHistory(c *fiber.Ctx) error {
	id := c.Params("id")

	entries, err := h.engine.History(c.Context(), id)
	if err != nil {
		return upstream(c, "Failed to get memory history", err, logx.Fields{"memory_id": id})
	}
	if entries == nil {
		entries = []memory.HistoryEntry{}
	}

	return c.JSON(entries)
}

func (h *MemoryHandlers) SearchMemories(c *fiber.Ctx) error {
	var req memory.SearchRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(err)
	}
	if err := validateSearch(req); err != nil {
		return err
	}

	result, err := h.engine.Search(c.Context(), req.Query, req.Options()...)
	if err != nil {
		return upstream(c, "Failed to search memories", err, scopeFields(req.UserID, req.AgentID, req.RunID))
	}

	logx.Infof("Search returned %d results for query: %q", len(result.Results), truncate(req.Query, 80))
	return c.JSON(result)
}

func (h *MemoryHandlers) ResetMemories(c *fiber.Ctx) error {
	logx.Warn("Resetting ALL memories")

	if err := h.engine.Reset(c.Context()); err != nil {
		return upstream(c, "Failed to reset memories", err, logx.Fields{})
	}

	logx.Info("All memories have been reset")
	return c.SendStatus(fiber.StatusNoContent)
}

// ============================================================================
// Helpers
// ============================================================================

// upstream logs an engine failure with its identifiers and converts it into a 500
func upstream(c *fiber.Ctx, operation string, err error, fields logx.Fields) error {
	fields["path"] = c.Path()
	fields["request_id"] = requestID(c)
	logx.WithFields(fields).Errorf("%s: %v", operation, err)
	return memory.ErrUpstream(operation, err)
}

func scopeFields(userID, agentID, runID string) logx.Fields {
	return logx.Fields{"user_id": userID, "agent_id": agentID, "run_id": runID}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

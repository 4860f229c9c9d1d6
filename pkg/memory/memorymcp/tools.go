// Package memorymcp exposes the MemorAI API as MCP tools for coding agents.
package memorymcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/memorai/memorai/pkg/logx"
	"github.com/memorai/memorai/pkg/memory"
	"github.com/memorai/memorai/pkg/memory/memoryclient"
)

const (
	ServerName   = "memorai"
	defaultAgent = "claude"

	defaultSearchLimit = 10
	defaultRecallLimit = 15
	maxRecallLimit     = 50
	contextPreview     = 10
)

// Tools binds every memory tool to one API client
type Tools struct {
	client *memoryclient.Client
}

func NewTools(client *memoryclient.Client) *Tools {
	return &Tools{client: client}
}

// NewServer builds an MCP server with every memory tool registered
func NewServer(client *memoryclient.Client, version string) *server.MCPServer {
	s := server.NewMCPServer(ServerName, version, server.WithToolCapabilities(false))
	s.AddTools(NewTools(client).ServerTools()...)
	return s
}

func (t *Tools) ServerTools() []server.ServerTool {
	return []server.ServerTool{
		{Tool: storeTool(), Handler: t.handleStore},
		{Tool: searchTool(), Handler: t.handleSearch},
		{Tool: listTool(), Handler: t.handleList},
		{Tool: updateTool(), Handler: t.handleUpdate},
		{Tool: deleteTool(), Handler: t.handleDelete},
		{Tool: deleteAllTool(), Handler: t.handleDeleteAll},
		{Tool: historyTool(), Handler: t.handleHistory},
		{Tool: healthTool(), Handler: t.handleHealth},
		{Tool: autoRecallTool(), Handler: t.handleAutoRecall},
		{Tool: contextTool(), Handler: t.handleContext},
	}
}

// ============================================================================
// Handlers
// ============================================================================

func (t *Tools) handleStore(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	project, err := req.RequireString("project")
	if err != nil {
		return toolError(err), nil
	}
	content, err := req.RequireString("content")
	if err != nil {
		return toolError(err), nil
	}
	agent := req.GetString("agent", defaultAgent)
	if agent == "" {
		agent = defaultAgent
	}

	result, err := t.client.Add(ctx, memory.CreateRequest{
		Messages: []memory.Message{{Role: "user", Content: content}},
		UserID:   project,
		AgentID:  agent,
		Metadata: metadataArg(req),
	})
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(result)
}

func (t *Tools) handleSearch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return toolError(err), nil
	}
	limit := req.GetInt("limit", defaultSearchLimit)
	if limit < 1 || limit > memory.MaxSearchLimit {
		return toolError(fmt.Errorf("limit must be between 1 and %d", memory.MaxSearchLimit)), nil
	}

	records, err := t.client.Search(ctx, memory.SearchRequest{
		Query:   query,
		UserID:  req.GetString("project", ""),
		AgentID: req.GetString("agent", ""),
		Limit:   &limit,
	})
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(records)
}

func (t *Tools) handleList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	project, err := req.RequireString("project")
	if err != nil {
		return toolError(err), nil
	}

	records, err := t.client.List(ctx, project, req.GetString("agent", ""), 0)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(records)
}

func (t *Tools) handleUpdate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("memory_id")
	if err != nil {
		return toolError(err), nil
	}
	content, err := req.RequireString("content")
	if err != nil {
		return toolError(err), nil
	}

	result, err := t.client.Update(ctx, id, content)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(result)
}

func (t *Tools) handleDelete(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("memory_id")
	if err != nil {
		return toolError(err), nil
	}

	if err := t.client.Delete(ctx, id); err != nil {
		return toolError(err), nil
	}
	return jsonResult(map[string]any{"success": true, "message": fmt.Sprintf("Memory %s deleted.", id)})
}

func (t *Tools) handleDeleteAll(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	project, err := req.RequireString("project")
	if err != nil {
		return toolError(err), nil
	}

	if err := t.client.DeleteAll(ctx, project, ""); err != nil {
		return toolError(err), nil
	}
	return jsonResult(map[string]any{
		"success": true,
		"message": fmt.Sprintf("All memories for project '%s' deleted.", project),
	})
}

func (t *Tools) handleHistory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("memory_id")
	if err != nil {
		return toolError(err), nil
	}

	entries, err := t.client.History(ctx, id)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(entries)
}

func (t *Tools) handleHealth(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	status, err := t.client.Health(ctx)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(status)
}

// handleAutoRecall searches with the given context, or lists the project when there is none
func (t *Tools) handleAutoRecall(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	project, err := req.RequireString("project")
	if err != nil {
		return toolError(err), nil
	}
	limit := req.GetInt("limit", defaultRecallLimit)
	if limit < 1 || limit > maxRecallLimit {
		return toolError(fmt.Errorf("limit must be between 1 and %d", maxRecallLimit)), nil
	}

	var records []memory.Record
	if focus := req.GetString("context", ""); focus != "" {
		records, err = t.client.Search(ctx, memory.SearchRequest{Query: focus, UserID: project, Limit: &limit})
	} else {
		records, err = t.client.List(ctx, project, "", limit)
	}
	if err != nil {
		return toolError(err), nil
	}
	if len(records) > limit {
		records = records[:limit]
	}
	return jsonResult(records)
}

func (t *Tools) handleContext(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	project, err := req.RequireString("project")
	if err != nil {
		return toolError(err), nil
	}

	records, err := t.client.List(ctx, project, "", 0)
	if err != nil {
		return toolError(err), nil
	}
	// records are oldest first
	recent := records
	if len(recent) > contextPreview {
		recent = recent[len(recent)-contextPreview:]
	}

	return jsonResult(map[string]any{
		"project":         project,
		"total_memories":  len(records),
		"recent_memories": recent,
		"summary":         fmt.Sprintf("Project %q has %d stored memories.", project, len(records)),
	})
}

// ============================================================================
// Helpers
// ============================================================================

func jsonResult(v any) (*mcp.CallToolResult, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return toolError(err), nil
	}
	return mcp.NewToolResultText(string(b)), nil
}

func toolError(err error) *mcp.CallToolResult {
	logx.Warn("memory tool failed", "error", err)
	return mcp.NewToolResultError("Error: " + err.Error())
}

// metadataArg accepts metadata as an object or as a JSON-encoded string
func metadataArg(req mcp.CallToolRequest) map[string]any {
	switch v := req.GetArguments()["metadata"].(type) {
	case map[string]any:
		if len(v) > 0 {
			return v
		}
	case string:
		var md map[string]any
		if json.Unmarshal([]byte(v), &md) == nil && len(md) > 0 {
			return md
		}
	}
	return nil
}

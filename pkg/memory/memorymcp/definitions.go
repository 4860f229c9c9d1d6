package memorymcp

import "github.com/mark3labs/mcp-go/mcp"

func storeTool() mcp.Tool {
	return mcp.NewTool("memory_store",
		mcp.WithDescription(`Store a new memory.

Use this to persist information worth recalling later: decisions, user preferences,
patterns, issues encountered and lessons learned. The content is sent as a user message;
the service extracts the facts and indexes them for semantic search.

Returns the extracted memories and their ids.`),
		mcp.WithString("project",
			mcp.Description("Project name / namespace for the memory. Maps to user_id."),
			mcp.Required(),
		),
		mcp.WithString("content",
			mcp.Description("The textual content of the memory. Be detailed so meaningful facts can be extracted."),
			mcp.Required(),
		),
		mcp.WithString("agent",
			mcp.Description("Name of the agent storing the memory. Maps to agent_id. Defaults to 'claude'."),
			mcp.DefaultString(defaultAgent),
		),
		mcp.WithObject("metadata",
			mcp.Description("Arbitrary key-value metadata to attach to the memory"),
		),
	)
}

func searchTool() mcp.Tool {
	return mcp.NewTool("memory_search",
		mcp.WithDescription(`Search memories by semantic similarity.

Natural language works; exact keywords are not needed. Optionally filter by project
(user_id) or agent (agent_id). Returns matches ordered by relevance with scores.`),
		mcp.WithString("query",
			mcp.Description("Natural-language search query"),
			mcp.Required(),
		),
		mcp.WithString("project",
			mcp.Description("Filter by project name (maps to user_id). Omit to search across all projects."),
		),
		mcp.WithString("agent",
			mcp.Description("Filter by agent name (maps to agent_id)"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of results to return (default 10, max 100)"),
			mcp.Min(1),
			mcp.Max(100),
			mcp.DefaultNumber(defaultSearchLimit),
		),
	)
}

func listTool() mcp.Tool {
	return mcp.NewTool("memory_list",
		mcp.WithDescription("List the memories stored for a project, oldest first."),
		mcp.WithString("project",
			mcp.Description("Project name to list memories for (maps to user_id)"),
			mcp.Required(),
		),
		mcp.WithString("agent",
			mcp.Description("Filter by agent name (maps to agent_id)"),
		),
	)
}

func updateTool() mcp.Tool {
	return mcp.NewTool("memory_update",
		mcp.WithDescription("Replace the content of an existing memory. The memory_id is the UUID returned when it was created."),
		mcp.WithString("memory_id",
			mcp.Description("The UUID of the memory to update"),
			mcp.Required(),
		),
		mcp.WithString("content",
			mcp.Description("New content for the memory"),
			mcp.Required(),
		),
	)
}

func deleteTool() mcp.Tool {
	return mcp.NewTool("memory_delete",
		mcp.WithDescription("Permanently delete a single memory by its UUID. This cannot be undone."),
		mcp.WithString("memory_id",
			mcp.Description("The UUID of the memory to delete"),
			mcp.Required(),
		),
	)
}

func deleteAllTool() mcp.Tool {
	return mcp.NewTool("memory_delete_all",
		mcp.WithDescription("Permanently delete ALL memories of a project. Destructive bulk operation; use with caution."),
		mcp.WithString("project",
			mcp.Description("Project whose memories should all be deleted (maps to user_id)"),
			mcp.Required(),
		),
	)
}

func historyTool() mcp.Tool {
	return mcp.NewTool("memory_history",
		mcp.WithDescription("Show how a memory changed over time, oldest change first."),
		mcp.WithString("memory_id",
			mcp.Description("The UUID of the memory to get history for"),
			mcp.Required(),
		),
	)
}

func healthTool() mcp.Tool {
	return mcp.NewTool("memory_health",
		mcp.WithDescription("Check that the MemorAI API is running and reachable. Use it to diagnose connectivity issues."),
	)
}

func autoRecallTool() mcp.Tool {
	return mcp.NewTool("auto_recall",
		mcp.WithDescription(`Recall the most relevant memories of a project at session start.

With a context the memories are ranked by semantic relevance to it; without one the
project's memories are listed.`),
		mcp.WithString("project",
			mcp.Description("Project name to recall context for (maps to user_id)"),
			mcp.Required(),
		),
		mcp.WithString("context",
			mcp.Description("What the agent is about to work on, to improve recall relevance"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of memories to recall (default 15, max 50)"),
			mcp.Min(1),
			mcp.Max(maxRecallLimit),
			mcp.DefaultNumber(defaultRecallLimit),
		),
	)
}

func contextTool() mcp.Tool {
	return mcp.NewTool("memory_context",
		mcp.WithDescription("Summarize a project's memory space: total count and the most recent memories."),
		mcp.WithString("project",
			mcp.Description("Project name to get context for (maps to user_id)"),
			mcp.Required(),
		),
	)
}

package memorymcp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/memorai/memorai/pkg/memory/memoryclient"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type apiCall struct {
	Method string
	Path   string
	Query  string
	Body   map[string]any
}

// fakeAPI answers like the memory service and records what it was asked
type fakeAPI struct {
	mu      sync.Mutex
	calls   []apiCall
	records int
	fail    bool
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	raw, _ := io.ReadAll(r.Body)
	call := apiCall{Method: r.Method, Path: r.URL.Path, Query: r.URL.RawQuery}
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &call.Body)
	}
	f.mu.Lock()
	f.calls = append(f.calls, call)
	f.mu.Unlock()

	if f.fail {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"detail":"Failed to search memories: boom"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	switch {
	case r.Method == http.MethodDelete:
		w.WriteHeader(http.StatusNoContent)
	case r.URL.Path == "/health":
		_, _ = w.Write([]byte(`{"status":"ok","qdrant_connected":true,"embedding_model":"mini","llm_model":"chat"}`))
	case r.URL.Path == "/memories" && r.Method == http.MethodPost:
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"results":[{"id":"m1","memory":"Uses Go","event":"ADD"}]}`))
	case r.URL.Path == "/memories" || r.URL.Path == "/search":
		items := make([]string, f.records)
		for i := range items {
			items[i] = fmt.Sprintf(`{"id":"m%d","memory":"fact %d"}`, i, i)
		}
		_, _ = w.Write([]byte(`{"results":[` + strings.Join(items, ",") + `]}`))
	case strings.HasSuffix(r.URL.Path, "/history"):
		_, _ = w.Write([]byte(`[{"id":"h1","memory_id":"m1","event":"ADD","created_at":"2026-01-01T00:00:00.000000Z","is_deleted":false}]`))
	default:
		_, _ = w.Write([]byte(`{"message":"Memory updated successfully!"}`))
	}
}

func (f *fakeAPI) last() apiCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[len(f.calls)-1]
}

func setup(t *testing.T) (*Tools, *fakeAPI) {
	t.Helper()
	api := &fakeAPI{records: 3}
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)
	return NewTools(memoryclient.New(srv.URL, memoryclient.WithAPIKey("k"))), api
}

func call(t *testing.T, tools *Tools, name string, args map[string]any) (*mcp.CallToolResult, string) {
	t.Helper()
	for _, st := range tools.ServerTools() {
		if st.Tool.Name != name {
			continue
		}
		req := mcp.CallToolRequest{}
		req.Params.Name = name
		req.Params.Arguments = args
		res, err := st.Handler(context.Background(), req)
		require.NoError(t, err)
		require.NotEmpty(t, res.Content)
		return res, textOf(res.Content[0])
	}
	t.Fatalf("tool %s not registered", name)
	return nil, ""
}

func textOf(c mcp.Content) string {
	switch v := c.(type) {
	case mcp.TextContent:
		return v.Text
	case *mcp.TextContent:
		return v.Text
	}
	return ""
}

func TestAllToolsRegistered(t *testing.T) {
	tools, _ := setup(t)
	var names []string
	for _, st := range tools.ServerTools() {
		names = append(names, st.Tool.Name)
	}
	assert.ElementsMatch(t, []string{
		"memory_store", "memory_search", "memory_list", "memory_update", "memory_delete",
		"memory_delete_all", "memory_history", "memory_health", "auto_recall", "memory_context",
	}, names)
}

func TestStoreMapsProjectAndDefaultsAgent(t *testing.T) {
	tools, api := setup(t)

	res, text := call(t, tools, "memory_store", map[string]any{
		"project":  "memorai",
		"content":  "We use Go for the API",
		"metadata": map[string]any{"kind": "decision"},
	})
	assert.False(t, res.IsError)
	assert.Contains(t, text, `"Uses Go"`)

	got := api.last()
	assert.Equal(t, "/memories", got.Path)
	assert.Equal(t, "memorai", got.Body["user_id"])
	assert.Equal(t, "claude", got.Body["agent_id"])
	assert.Equal(t, "decision", got.Body["metadata"].(map[string]any)["kind"])
}

func TestStoreRequiresContent(t *testing.T) {
	tools, api := setup(t)

	res, _ := call(t, tools, "memory_store", map[string]any{"project": "memorai"})
	assert.True(t, res.IsError)
	assert.Empty(t, api.calls)
}

func TestSearchForwardsFilters(t *testing.T) {
	tools, api := setup(t)

	res, text := call(t, tools, "memory_search", map[string]any{"query": "language", "project": "memorai", "limit": 5.0})
	assert.False(t, res.IsError)
	assert.Contains(t, text, "fact 0")

	got := api.last()
	assert.Equal(t, "/search", got.Path)
	assert.Equal(t, "memorai", got.Body["user_id"])
	assert.Equal(t, 5.0, got.Body["limit"])
	assert.NotContains(t, got.Body, "agent_id")

	res, _ = call(t, tools, "memory_search", map[string]any{"query": "x", "limit": 500.0})
	assert.True(t, res.IsError)
}

func TestDeleteToolsReportSuccess(t *testing.T) {
	tools, api := setup(t)

	_, text := call(t, tools, "memory_delete", map[string]any{"memory_id": "m1"})
	assert.Contains(t, text, "Memory m1 deleted.")
	assert.Equal(t, "/memories/m1", api.last().Path)

	_, text = call(t, tools, "memory_delete_all", map[string]any{"project": "memorai"})
	assert.Contains(t, text, "All memories for project 'memorai' deleted.")
	assert.Equal(t, "user_id=memorai", api.last().Query)
}

func TestUpdateAndHistory(t *testing.T) {
	tools, api := setup(t)

	_, text := call(t, tools, "memory_update", map[string]any{"memory_id": "m1", "content": "Uses Go 1.25"})
	assert.Contains(t, text, "Memory updated successfully!")
	assert.Equal(t, "Uses Go 1.25", api.last().Body["data"])

	_, text = call(t, tools, "memory_history", map[string]any{"memory_id": "m1"})
	assert.Contains(t, text, `"memory_id": "m1"`)
}

func TestAutoRecall(t *testing.T) {
	tools, api := setup(t)
	api.records = 20

	_, text := call(t, tools, "auto_recall", map[string]any{"project": "memorai"})
	var records []map[string]any
	require.NoError(t, json.Unmarshal([]byte(text), &records))
	assert.Len(t, records, 15)
	assert.Equal(t, "/memories", api.last().Path)

	_, _ = call(t, tools, "auto_recall", map[string]any{"project": "memorai", "context": "auth refactor", "limit": 3.0})
	got := api.last()
	assert.Equal(t, "/search", got.Path)
	assert.Equal(t, "auth refactor", got.Body["query"])
	assert.Equal(t, 3.0, got.Body["limit"])
}

func TestMemoryContextSummary(t *testing.T) {
	tools, api := setup(t)
	api.records = 12

	_, text := call(t, tools, "memory_context", map[string]any{"project": "memorai"})
	var summary map[string]any
	require.NoError(t, json.Unmarshal([]byte(text), &summary))
	assert.Equal(t, 12.0, summary["total_memories"])
	assert.Len(t, summary["recent_memories"], 10)
	assert.Equal(t, `Project "memorai" has 12 stored memories.`, summary["summary"])
}

func TestHealthAndFailures(t *testing.T) {
	tools, api := setup(t)

	res, text := call(t, tools, "memory_health", nil)
	assert.False(t, res.IsError)
	assert.Contains(t, text, `"status": "ok"`)

	api.fail = true
	res, text = call(t, tools, "memory_search", map[string]any{"query": "x"})
	assert.True(t, res.IsError)
	assert.Equal(t, "Error: MemorAI API returned 500: Failed to search memories: boom", text)
}

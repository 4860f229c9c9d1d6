package memoryapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/memorai/memorai/pkg/logx"
	"github.com/memorai/memorai/pkg/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = "secret-key"

// fakeEngine records calls and answers from its fields
type fakeEngine struct {
	mu    sync.Mutex
	calls []string
	opts  *memory.Options

	addResult *memory.AddResult
	record    *memory.Record
	results   *memory.Results
	history   []memory.HistoryEntry
	err       error
}

var _ memory.Engine = (*fakeEngine)(nil)

func (f *fakeEngine) track(name string, opts []memory.Option) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, name)
	f.opts = memory.NewOptions(opts...)
}

func (f *fakeEngine) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeEngine) Add(_ context.Context, msgs []memory.Message, opts ...memory.Option) (*memory.AddResult, error) {
	f.track("Add", opts)
	if f.err != nil {
		return nil, f.err
	}
	if f.addResult != nil {
		return f.addResult, nil
	}
	out := &memory.AddResult{}
	for i, m := range msgs {
		out.Results = append(out.Results, memory.AddResultItem{ID: string(rune('a' + i)), Memory: m.Content, Event: memory.EventAdd})
	}
	return out, nil
}

func (f *fakeEngine) Get(_ context.Context, id string) (*memory.Record, error) {
	f.track("Get", nil)
	return f.record, f.err
}

func (f *fakeEngine) GetAll(_ context.Context, opts ...memory.Option) (*memory.Results, error) {
	f.track("GetAll", opts)
	if f.err != nil {
		return nil, f.err
	}
	if f.results != nil {
		return f.results, nil
	}
	return &memory.Results{Results: []memory.Record{}}, nil
}

func (f *fakeEngine) Update(_ context.Context, id string, data string) (*memory.UpdateResult, error) {
	f.track("Update", nil)
	if f.err != nil {
		return nil, f.err
	}
	return &memory.UpdateResult{Message: "Memory updated successfully!"}, nil
}

func (f *fakeEngine) Delete(_ context.Context, id string) error {
	f.track("Delete", nil)
	return f.err
}

func (f *fakeEngine) DeleteAll(_ context.Context, opts ...memory.Option) error {
	f.track("DeleteAll", opts)
	return f.err
}

func (f *fakeEngine) History(_ context.Context, id string) ([]memory.HistoryEntry, error) {
	f.track("History", nil)
	return f.history, f.err
}

func (f *fakeEngine) Search(_ context.Context, query string, opts ...memory.Option) (*memory.Results, error) {
	f.track("Search", opts)
	if f.err != nil {
		return nil, f.err
	}
	return &memory.Results{Results: []memory.Record{}}, nil
}

func (f *fakeEngine) Reset(_ context.Context) error {
	f.track("Reset", nil)
	return f.err
}

func (f *fakeEngine) Close() error { return nil }

func newTestApp(engine memory.Engine, apiKey string, redact bool) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(redact)})
	NewMemoryHandlers(engine, HealthInfo{EmbeddingModel: "mini", LLMModel: "chat"}).
		RegisterRoutes(app, NewAPIKeyMiddleware(apiKey))
	app.Use(NotFoundHandler)
	return app
}

func do(t *testing.T, app *fiber.App, method, target, body string, key string) (*http.Response, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if key != "" {
		req.Header.Set("X-API-Key", key)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var decoded map[string]any
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(t, json.Unmarshal(raw, &decoded))
	}
	return resp, decoded
}

func TestProtectedRoutesRequireKey(t *testing.T) {
	engine := &fakeEngine{}
	app := newTestApp(engine, testKey, false)

	routes := []struct{ method, target, body string }{
		{http.MethodPost, "/memories", `{"messages":[{"role":"user","content":"hi"}]}`},
		{http.MethodGet, "/memories?user_id=alice", ""},
		{http.MethodGet, "/memories/abc", ""},
		{http.MethodPut, "/memories/abc", `{"data":"x"}`},
		{http.MethodDelete, "/memories/abc", ""},
		{http.MethodDelete, "/memories?user_id=alice", ""},
		{http.MethodGet, "/memories/abc/history", ""},
		{http.MethodPost, "/search", `{"query":"x"}`},
		{http.MethodPost, "/reset", ""},
	}
	for _, r := range routes {
		for _, key := range []string{"", "wrong"} {
			resp, body := do(t, app, r.method, r.target, r.body, key)
			assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, "%s %s", r.method, r.target)
			assert.Equal(t, "Invalid or missing API key", body["detail"])
		}
	}
	assert.Empty(t, engine.Calls())
}

func TestAuthDisabledWithoutKey(t *testing.T) {
	app := newTestApp(&fakeEngine{}, "", false)

	resp, _ := do(t, app, http.MethodGet, "/memories", "", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestHealthIsPublic(t *testing.T) {
	engine := &fakeEngine{}
	app := newTestApp(engine, testKey, false)

	resp, body := do(t, app, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, true, body["qdrant_connected"])
	assert.Equal(t, "mini", body["embedding_model"])
	assert.Equal(t, "chat", body["llm_model"])
	assert.Equal(t, memory.HealthCheckUserID, engine.opts.UserID)
}

func TestHealthDegradesWhenStoreUnreachable(t *testing.T) {
	app := newTestApp(&fakeEngine{err: errors.New("dial tcp qdrant:6333: connection refused")}, testKey, false)

	resp, body := do(t, app, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "degraded", body["status"])
	assert.Equal(t, false, body["qdrant_connected"])
}

func TestCreateMemories(t *testing.T) {
	engine := &fakeEngine{}
	app := newTestApp(engine, testKey, false)

	resp, body := do(t, app, http.MethodPost, "/memories",
		`{"messages":[{"role":"user","content":"I like hiking"}],"user_id":"alice"}`, testKey)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	results := body["results"].([]any)
	require.Len(t, results, 1)
	assert.Equal(t, "I like hiking", results[0].(map[string]any)["memory"])
	assert.Equal(t, "alice", engine.opts.UserID)
	assert.Empty(t, engine.opts.AgentID)
	assert.True(t, engine.opts.Infer)
}

func TestCreateForwardsOptionalFields(t *testing.T) {
	engine := &fakeEngine{}
	app := newTestApp(engine, testKey, false)

	resp, _ := do(t, app, http.MethodPost, "/memories",
		`{"messages":[{"role":"user","content":"x"}],"agent_id":"claude","run_id":"r1","metadata":{"k":"v"},"infer":false}`, testKey)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "claude", engine.opts.AgentID)
	assert.Equal(t, "r1", engine.opts.RunID)
	assert.Equal(t, "v", engine.opts.Metadata["k"])
	assert.False(t, engine.opts.Infer)
}

func TestCreateRejectsEmptyMessages(t *testing.T) {
	engine := &fakeEngine{}
	app := newTestApp(engine, testKey, false)

	for _, payload := range []string{`{"messages":[]}`, `{"user_id":"alice"}`, `{"messages":`} {
		resp, body := do(t, app, http.MethodPost, "/memories", payload, testKey)
		assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode, payload)
		assert.Equal(t, memory.CodeInvalidRequest.Code, body["code"])
	}
	assert.Empty(t, engine.Calls())
}

func TestCreateRejectsIncompleteMessages(t *testing.T) {
	engine := &fakeEngine{}
	app := newTestApp(engine, testKey, false)

	cases := map[string]string{
		`{"messages":[{}],"user_id":"alice"}`:                                            "messages[0].role",
		`{"messages":[{"role":"user"}]}`:                                                 "messages[0].content",
		`{"messages":[{"content":"hi"}]}`:                                                "messages[0].role",
		`{"messages":[{"role":"user","content":"hi"},{"role":"user","content":null}]}`: "messages[1].content",
	}
	for payload, field := range cases {
		resp, body := do(t, app, http.MethodPost, "/memories", payload, testKey)
		assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode, payload)
		details, _ := body["details"].(map[string]any)
		assert.Contains(t, details, field, payload)
	}
	assert.Empty(t, engine.Calls())
}

func TestCreateAcceptsEmptyContent(t *testing.T) {
	engine := &fakeEngine{}
	app := newTestApp(engine, testKey, false)

	resp, _ := do(t, app, http.MethodPost, "/memories", `{"messages":[{"role":"user","content":"","name":"bob"}]}`, testKey)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, []string{"Add"}, engine.Calls())
}

func TestCreateUpstreamFailure(t *testing.T) {
	app := newTestApp(&fakeEngine{err: errors.New("llm timeout")}, testKey, false)

	resp, body := do(t, app, http.MethodPost, "/memories", `{"messages":[{"role":"user","content":"x"}]}`, testKey)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "Failed to add memories: llm timeout", body["detail"])
}

func TestRedactedUpstreamFailure(t *testing.T) {
	app := newTestApp(&fakeEngine{err: errors.New("password=hunter2")}, testKey, true)

	resp, body := do(t, app, http.MethodPost, "/reset", "", testKey)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "Failed to reset memories", body["detail"])
	assert.NotContains(t, body, "details")
}

func TestGetMemory(t *testing.T) {
	engine := &fakeEngine{record: &memory.Record{ID: "m1", Memory: "Likes tea"}}
	app := newTestApp(engine, testKey, false)

	resp, body := do(t, app, http.MethodGet, "/memories/m1", "", testKey)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Likes tea", body["memory"])
}

func TestGetMissingMemoryIs404(t *testing.T) {
	app := newTestApp(&fakeEngine{}, testKey, false)

	resp, body := do(t, app, http.MethodGet, "/memories/m1", "", testKey)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Memory m1 not found", body["detail"])

	failing := newTestApp(&fakeEngine{err: errors.New("boom")}, testKey, false)
	resp, _ = do(t, failing, http.MethodGet, "/memories/m1", "", testKey)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

func TestRejectedRequestsAreLogged(t *testing.T) {
	var buf bytes.Buffer
	logx.SetOutput(&buf)
	defer logx.SetOutput(os.Stderr)

	app := newTestApp(&fakeEngine{}, testKey, false)

	resp, _ := do(t, app, http.MethodGet, "/memories/m404", "", testKey)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, buf.String(), "Memory not found")
	assert.Contains(t, buf.String(), "memory_id=m404")

	buf.Reset()
	resp, _ = do(t, app, http.MethodDelete, "/memories?run_id=r9", "", testKey)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, buf.String(), "Delete all rejected")
	assert.Contains(t, buf.String(), "run_id=r9")
}

func TestListMemories(t *testing.T) {
	engine := &fakeEngine{results: &memory.Results{Results: []memory.Record{{ID: "m1", Memory: "a"}}}}
	app := newTestApp(engine, testKey, false)

	resp, body := do(t, app, http.MethodGet, "/memories?user_id=alice&agent_id=claude", "", testKey)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, body["results"], 1)
	assert.Equal(t, "alice", engine.opts.UserID)
	assert.Equal(t, "claude", engine.opts.AgentID)
	assert.Equal(t, memory.DefaultListLimit, engine.opts.Limit)

	resp, _ = do(t, app, http.MethodGet, "/memories?limit=0", "", testKey)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestUpdateMemory(t *testing.T) {
	engine := &fakeEngine{}
	app := newTestApp(engine, testKey, false)

	resp, body := do(t, app, http.MethodPut, "/memories/m1", `{"data":"Likes green tea"}`, testKey)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Memory updated successfully!", body["message"])

	resp, _ = do(t, app, http.MethodPut, "/memories/m1", `{"data":""}`, testKey)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, []string{"Update"}, engine.Calls())

	resp, _ = do(t, app, http.MethodPut, "/memories/m1", `{"data":"   "}`, testKey)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []string{"Update", "Update"}, engine.Calls())
}

func TestUpdateUnknownMemoryIs500(t *testing.T) {
	app := newTestApp(&fakeEngine{err: memory.ErrMemoryNotFound("m1")}, testKey, false)

	resp, body := do(t, app, http.MethodPut, "/memories/m1", `{"data":"x"}`, testKey)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, memory.CodeUpstreamFailure.Code, body["code"])
}

func TestDeleteMemoryTwice(t *testing.T) {
	engine := &fakeEngine{}
	app := newTestApp(engine, testKey, false)

	for range 2 {
		resp, _ := do(t, app, http.MethodDelete, "/memories/m1", "", testKey)
		assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	}
	assert.Equal(t, []string{"Delete", "Delete"}, engine.Calls())
}

func TestDeleteAllRequiresFilter(t *testing.T) {
	engine := &fakeEngine{}
	app := newTestApp(engine, testKey, false)

	resp, body := do(t, app, http.MethodDelete, "/memories", "", testKey)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Must provide at least user_id or agent_id to delete memories", body["detail"])

	resp, _ = do(t, app, http.MethodDelete, "/memories?run_id=r1", "", testKey)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Empty(t, engine.Calls())

	resp, _ = do(t, app, http.MethodDelete, "/memories?agent_id=claude", "", testKey)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "claude", engine.opts.AgentID)
}

func TestHistoryIsAlwaysAList(t *testing.T) {
	app := newTestApp(&fakeEngine{}, testKey, false)

	req := httptest.NewRequest(http.MethodGet, "/memories/m1/history", nil)
	req.Header.Set("X-API-Key", testKey)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	raw, _ := io.ReadAll(resp.Body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "[]", string(raw))
}

func TestSearchValidatesLimit(t *testing.T) {
	engine := &fakeEngine{}
	app := newTestApp(engine, testKey, false)

	for _, payload := range []string{`{"query":"x","limit":0}`, `{"query":"x","limit":101}`, `{"query":""}`, `{}`} {
		resp, _ := do(t, app, http.MethodPost, "/search", payload, testKey)
		assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode, payload)
	}
	assert.Empty(t, engine.Calls())

	resp, body := do(t, app, http.MethodPost, "/search", `{"query":"tea","user_id":"alice"}`, testKey)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotNil(t, body["results"])
	assert.Equal(t, memory.DefaultSearchLimit, engine.opts.Limit)
	assert.Equal(t, "alice", engine.opts.UserID)

	resp, _ = do(t, app, http.MethodPost, "/search", `{"query":"tea","limit":100}`, testKey)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 100, engine.opts.Limit)

	resp, _ = do(t, app, http.MethodPost, "/search", `{"query":" "}`, testKey)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestReset(t *testing.T) {
	engine := &fakeEngine{}
	app := newTestApp(engine, testKey, false)

	resp, _ := do(t, app, http.MethodPost, "/reset", "", testKey)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, []string{"Reset"}, engine.Calls())
}

func TestUnknownRoute(t *testing.T) {
	app := newTestApp(&fakeEngine{}, testKey, false)

	resp, body := do(t, app, http.MethodGet, "/nope", "", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "ROUTE_NOT_FOUND", body["code"])
}

package aiopenai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/memorai/memorai/pkg/ai/embedding"
	"github.com/memorai/memorai/pkg/ai/llm"
	"github.com/openai/openai-go/v3/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) *OpenAIProvider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewCompatibleProvider(srv.URL+"/v1/", "", option.WithMaxRetries(0))
}

func TestChatJSONMode(t *testing.T) {
	var body map[string]any
	provider := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "c1", "object": "chat.completion", "created": 1, "model": "m",
			"choices": [{"index": 0, "finish_reason": "stop",
				"message": {"role": "assistant", "content": "{\"facts\":[\"likes hiking\"]}"}}],
			"usage": {"prompt_tokens": 3, "completion_tokens": 5, "total_tokens": 8}
		}`))
	})

	resp, err := provider.Chat(context.Background(),
		[]llm.Message{llm.NewSystemMessage("extract"), llm.NewUserMessage("I like hiking")},
		llm.WithModel("m"), llm.WithTemperature(0.1), llm.WithMaxTokens(2000), llm.WithJSONMode(),
	)
	require.NoError(t, err)

	assert.Equal(t, `{"facts":["likes hiking"]}`, resp.Message.Content)
	assert.Equal(t, 8, resp.Usage.TotalTokens)
	assert.Equal(t, "m", body["model"])
	assert.Equal(t, float64(2000), body["max_tokens"])
	assert.Equal(t, map[string]any{"type": "json_object"}, body["response_format"])
	assert.Len(t, body["messages"], 2)
}

func TestEmbedDocumentsOrdersByIndex(t *testing.T) {
	var body map[string]any
	provider := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/embeddings", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"object": "list", "model": "mini",
			"data": [
				{"object": "embedding", "index": 1, "embedding": [0.0, 1.0]},
				{"object": "embedding", "index": 0, "embedding": [1.0, 0.0]}
			],
			"usage": {"prompt_tokens": 2, "total_tokens": 2}
		}`))
	})

	embs, err := provider.EmbedDocuments(context.Background(), []string{"a", "b"},
		embedding.WithModel("mini"), embedding.WithDimensions(2))
	require.NoError(t, err)
	require.Len(t, embs, 2)

	assert.Equal(t, []float32{1, 0}, embs[0].Vector)
	assert.Equal(t, []float32{0, 1}, embs[1].Vector)
	assert.Equal(t, "mini", body["model"])
	assert.Equal(t, "float", body["encoding_format"])
	assert.NotContains(t, body, "dimensions")
}

func TestEmbedQuerySendsRequestedDimensions(t *testing.T) {
	var body map[string]any
	provider := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"object": "list", "model": "text-embedding-3-small",
			"data": [{"object": "embedding", "index": 0, "embedding": [0.6, 0.8]}],
			"usage": {"prompt_tokens": 1, "total_tokens": 1}
		}`))
	})

	emb, err := provider.EmbedQuery(context.Background(), "tea",
		embedding.WithModel("text-embedding-3-small"), embedding.WithRequestedDimensions(2))
	require.NoError(t, err)

	assert.Equal(t, []float32{0.6, 0.8}, emb.Vector)
	assert.Equal(t, float64(2), body["dimensions"])
}

func TestChatUpstreamError(t *testing.T) {
	provider := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error": {"message": "bad key", "type": "auth"}}`))
	})

	_, err := provider.Chat(context.Background(), []llm.Message{llm.NewUserMessage("hi")})
	assert.Error(t, err)
}

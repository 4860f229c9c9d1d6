package memory

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestOptionsLastWinsAndMetadataMerges(t *testing.T) {
	o := NewOptions(
		WithUserID("alice"),
		WithMetadata(map[string]any{"a": 1, "b": 1}),
		WithUserID("bob"),
		WithMetadata(map[string]any{"b": 2}),
	)

	assert.Equal(t, "bob", o.UserID)
	assert.Equal(t, map[string]any{"a": 1, "b": 2}, o.Metadata)
	assert.True(t, o.Infer)
	assert.Equal(t, Filters{"user_id": "bob"}, o.Filters())
	assert.Equal(t, 100, o.LimitOr(100))
}

func TestCreateRequestOptionsSkipEmptyFields(t *testing.T) {
	req := CreateRequest{UserID: "alice", Metadata: map[string]any{}}
	o := NewOptions(req.Options()...)

	assert.Equal(t, Filters{"user_id": "alice"}, o.Filters())
	assert.Nil(t, o.Metadata)
}

func TestSearchRequestLimit(t *testing.T) {
	assert.Equal(t, 10, SearchRequest{}.EffectiveLimit())
	five := 5
	o := NewOptions(SearchRequest{Query: "q", AgentID: "bot", Limit: &five}.Options()...)
	assert.Equal(t, 5, o.Limit)
	assert.Equal(t, "bot", o.AgentID)
}

func TestRecordFromPayload(t *testing.T) {
	p := NewPayload("likes hiking", "h", "2024-01-01T00:00:00.000000Z",
		map[string]any{"topic": "sport", "data": "shadow", PayloadEncoded: "shadow"},
		Filters{"user_id": "alice"})

	r := RecordFromPayload("id-1", p)
	assert.Equal(t, "likes hiking", r.Memory)
	assert.Equal(t, "alice", r.UserID)
	assert.Equal(t, map[string]any{"topic": "sport"}, r.Metadata)
	assert.NotContains(t, p, PayloadEncoded)
}

func TestFormatTimeIsFixedWidth(t *testing.T) {
	a := FormatTime(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	b := FormatTime(time.Date(2024, 1, 1, 0, 0, 0, 500000000, time.UTC))
	assert.Len(t, a, len(b))
	assert.Less(t, a, b)
}

func TestErrorRegistry(t *testing.T) {
	err := ErrMemoryNotFound("abc")
	assert.Equal(t, "MEMORY_NOT_FOUND", err.Code)
	assert.Equal(t, "Memory abc not found", err.Message)
	assert.Equal(t, http.StatusNotFound, err.HTTPStatus)

	up := ErrUpstream("Failed to list memories", errors.New("qdrant down"))
	assert.Equal(t, http.StatusInternalServerError, up.HTTPStatus)
	assert.Equal(t, "Failed to list memories: qdrant down", up.Message)
}

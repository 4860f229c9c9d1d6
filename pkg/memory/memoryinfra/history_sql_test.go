package memoryinfra

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/memorai/memorai/pkg/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestSQLiteHistoryOrderingAndReset(t *testing.T) {
	ctx := context.Background()
	store, err := OpenSQLiteHistory(ctx, filepath.Join(t.TempDir(), "nested", "history.db"))
	require.NoError(t, err)
	defer store.Close()

	entries := []memory.HistoryEntry{
		{ID: "h1", MemoryID: "m1", NewMemory: strPtr("likes tea"), Event: memory.EventAdd, CreatedAt: "2024-01-01T00:00:00.000000Z"},
		{ID: "h2", MemoryID: "m1", OldMemory: strPtr("likes tea"), NewMemory: strPtr("likes coffee"), Event: memory.EventUpdate,
			CreatedAt: "2024-01-01T00:00:00.000000Z", UpdatedAt: strPtr("2024-01-02T00:00:00.000000Z")},
		{ID: "h3", MemoryID: "m1", OldMemory: strPtr("likes coffee"), Event: memory.EventDelete, CreatedAt: "2024-01-01T00:00:00.000000Z",
			IsDeleted: true, ActorID: strPtr("alice"), Role: strPtr("user")},
		{ID: "h4", MemoryID: "m2", NewMemory: strPtr("other"), Event: memory.EventAdd, CreatedAt: "2023-12-31T00:00:00.000000Z"},
	}
	for _, e := range entries {
		require.NoError(t, store.Add(ctx, e))
	}

	got, err := store.List(ctx, "m1")
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []string{"h1", "h2", "h3"}, []string{got[0].ID, got[1].ID, got[2].ID})
	assert.Nil(t, got[0].OldMemory)
	assert.Equal(t, "likes coffee", *got[1].NewMemory)
	assert.True(t, got[2].IsDeleted)
	assert.Equal(t, memory.EventDelete, got[2].Event)
	assert.Equal(t, "alice", *got[2].ActorID)

	none, err := store.List(ctx, "unknown")
	require.NoError(t, err)
	assert.Empty(t, none)

	require.NoError(t, store.Reset(ctx))
	got, err = store.List(ctx, "m1")
	require.NoError(t, err)
	assert.Empty(t, got)
}

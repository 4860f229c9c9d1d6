package memory

import (
	"context"
)

// Engine is the call contract the HTTP layer depends on
type Engine interface {
	// Add extracts facts from messages and reconciles them with existing memories
	Add(ctx context.Context, messages []Message, opts ...Option) (*AddResult, error)
	// Get returns nil, nil when the id is unknown
	Get(ctx context.Context, id string) (*Record, error)
	GetAll(ctx context.Context, opts ...Option) (*Results, error)
	Update(ctx context.Context, id string, data string) (*UpdateResult, error)
	// Delete is a no-op for unknown ids
	Delete(ctx context.Context, id string) error
	DeleteAll(ctx context.Context, opts ...Option) error
	History(ctx context.Context, id string) ([]HistoryEntry, error)
	Search(ctx context.Context, query string, opts ...Option) (*Results, error)
	Reset(ctx context.Context) error
	Close() error
}

// ============================================================================
// Ports
// ============================================================================

// Payload is the metadata stored alongside each vector
type Payload map[string]any

// Payload keys with fixed meaning; everything else is user metadata
const (
	PayloadData      = "data"
	PayloadHash      = "hash"
	PayloadCreatedAt = "created_at"
	PayloadUpdatedAt = "updated_at"
	PayloadUserID    = "user_id"
	PayloadAgentID   = "agent_id"
	PayloadRunID     = "run_id"
	PayloadActorID   = "actor_id"
	PayloadRole      = "role"

	// PayloadEncoded is used by stores that keep the whole payload serialized under one key
	PayloadEncoded = "_payload"
)

var reservedPayloadKeys = map[string]bool{
	PayloadData: true, PayloadHash: true, PayloadCreatedAt: true, PayloadUpdatedAt: true,
	PayloadUserID: true, PayloadAgentID: true, PayloadRunID: true, PayloadActorID: true, PayloadRole: true,
	PayloadEncoded: true,
}

// Filters are exact-match conditions on payload keys, combined with AND
type Filters map[string]string

type Point struct {
	ID      string
	Vector  []float32
	Payload Payload
}

type ScoredPoint struct {
	ID      string
	Score   float64
	Payload Payload
}

// VectorStore is the persistence port for embedded memories
type VectorStore interface {
	// EnsureCollection creates the collection when missing
	EnsureCollection(ctx context.Context) error
	// Upsert inserts or replaces points by id
	Upsert(ctx context.Context, points []Point) error
	Search(ctx context.Context, vector []float32, limit int, filters Filters) ([]ScoredPoint, error)
	// Get returns nil, nil when the point does not exist
	Get(ctx context.Context, id string) (*Point, error)
	Delete(ctx context.Context, ids ...string) error
	List(ctx context.Context, filters Filters, limit int) ([]Point, error)
	// Reset drops and recreates the collection
	Reset(ctx context.Context) error
	// Ping checks connectivity without requiring the collection
	Ping(ctx context.Context) error
	Close() error
}

// HistoryStore records every change applied to a memory
type HistoryStore interface {
	Add(ctx context.Context, entry HistoryEntry) error
	// List returns the entries of a memory oldest first
	List(ctx context.Context, memoryID string) ([]HistoryEntry, error)
	Reset(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}

// Pinger is implemented by engines that can check their backing stores directly
type Pinger interface {
	Ping(ctx context.Context) error
}

// Snapshotter persists every record before a reset and returns where the dump went
type Snapshotter interface {
	Save(ctx context.Context, records []Record) (string, error)
}

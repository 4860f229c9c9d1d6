package memory

import (
	"time"
)

// ============================================================================
// Memory Entities
// ============================================================================

// Message is one conversational turn submitted for memory extraction
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
	Name    string `json:"name,omitempty"`
}

// Record is a stored memory as returned by get, list and search
type Record struct {
	ID        string         `json:"id"`
	Memory    string         `json:"memory"`
	Hash      string         `json:"hash,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	Score     *float64       `json:"score,omitempty"`
	CreatedAt string         `json:"created_at,omitempty"`
	UpdatedAt string         `json:"updated_at,omitempty"`
	UserID    string         `json:"user_id,omitempty"`
	AgentID   string         `json:"agent_id,omitempty"`
	RunID     string         `json:"run_id,omitempty"`
	ActorID   string         `json:"actor_id,omitempty"`
	Role      string         `json:"role,omitempty"`
}

// Event is the change applied to a memory by an add or update
type Event string

const (
	EventAdd    Event = "ADD"
	EventUpdate Event = "UPDATE"
	EventDelete Event = "DELETE"
	EventNone   Event = "NONE"
)

func (e Event) IsValid() bool {
	switch e {
	case EventAdd, EventUpdate, EventDelete, EventNone:
		return true
	}
	return false
}

// AddResultItem describes one change produced by Add
type AddResultItem struct {
	ID             string `json:"id"`
	Memory         string `json:"memory"`
	Event          Event  `json:"event"`
	PreviousMemory string `json:"previous_memory,omitempty"`
}

type AddResult struct {
	Results []AddResultItem `json:"results"`
}

// Results wraps list and search output
type Results struct {
	Results []Record `json:"results"`
}

type UpdateResult struct {
	Message string `json:"message"`
}

// HistoryEntry is one row of a memory's change log
type HistoryEntry struct {
	ID        string  `db:"id" json:"id"`
	MemoryID  string  `db:"memory_id" json:"memory_id"`
	OldMemory *string `db:"old_memory" json:"old_memory"`
	NewMemory *string `db:"new_memory" json:"new_memory"`
	Event     Event   `db:"event" json:"event"`
	CreatedAt string  `db:"created_at" json:"created_at"`
	UpdatedAt *string `db:"updated_at" json:"updated_at"`
	IsDeleted bool    `db:"is_deleted" json:"is_deleted"`
	ActorID   *string `db:"actor_id" json:"actor_id"`
	Role      *string `db:"role" json:"role"`
}

// TimeLayout is the fixed-width UTC layout used for every stored timestamp,
// so timestamps sort lexically in both the vector payload and the history table
const TimeLayout = "2006-01-02T15:04:05.000000Z07:00"

func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

// HealthCheckUserID is the reserved scope used by the health probe
const HealthCheckUserID = "__health_check__"

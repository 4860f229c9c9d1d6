package memory

// ============================================================================
// Request DTOs
// ============================================================================

type CreateRequest struct {
	Messages []Message      `json:"messages"`
	UserID   string         `json:"user_id,omitempty"`
	AgentID  string         `json:"agent_id,omitempty"`
	RunID    string         `json:"run_id,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
	Infer    *bool          `json:"infer,omitempty"`
}

// Options derives the engine options; only non-empty fields are forwarded
func (r CreateRequest) Options() []Option {
	opts := ScopeOptions(r.UserID, r.AgentID, r.RunID)
	if len(r.Metadata) > 0 {
		opts = append(opts, WithMetadata(r.Metadata))
	}
	if r.Infer != nil {
		opts = append(opts, WithInfer(*r.Infer))
	}
	return opts
}

type UpdateRequest struct {
	Data string `json:"data"`
}

const (
	DefaultSearchLimit = 10
	MaxSearchLimit     = 100
	DefaultListLimit   = 100
)

type SearchRequest struct {
	Query   string `json:"query"`
	UserID  string `json:"user_id,omitempty"`
	AgentID string `json:"agent_id,omitempty"`
	RunID   string `json:"run_id,omitempty"`
	Limit   *int   `json:"limit,omitempty"`
}

// EffectiveLimit returns the requested limit or the default of 10
func (r SearchRequest) EffectiveLimit() int {
	if r.Limit == nil {
		return DefaultSearchLimit
	}
	return *r.Limit
}

func (r SearchRequest) Options() []Option {
	opts := ScopeOptions(r.UserID, r.AgentID, r.RunID)
	return append(opts, WithLimit(r.EffectiveLimit()))
}

// HealthStatus is the body of GET /health
type HealthStatus struct {
	Status          string `json:"status"`
	QdrantConnected bool   `json:"qdrant_connected"`
	EmbeddingModel  string `json:"embedding_model"`
	LLMModel        string `json:"llm_model"`
}

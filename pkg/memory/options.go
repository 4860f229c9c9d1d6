package memory

// Options carries the namespace filters and extras of a single engine call
type Options struct {
	UserID   string
	AgentID  string
	RunID    string
	Metadata map[string]any
	Limit    int
	// Infer disables LLM extraction on Add when false
	Infer bool
}

// Option sets one field of Options. Options apply in call order.
type Option func(*Options)

func WithUserID(id string) Option {
	return func(o *Options) { o.UserID = id }
}

func WithAgentID(id string) Option {
	return func(o *Options) { o.AgentID = id }
}

func WithRunID(id string) Option {
	return func(o *Options) { o.RunID = id }
}

// WithMetadata merges md into any metadata set by earlier options; later keys win
func WithMetadata(md map[string]any) Option {
	return func(o *Options) {
		if len(md) == 0 {
			return
		}
		if o.Metadata == nil {
			o.Metadata = make(map[string]any, len(md))
		}
		for k, v := range md {
			o.Metadata[k] = v
		}
	}
}

func WithLimit(n int) Option {
	return func(o *Options) { o.Limit = n }
}

func WithInfer(infer bool) Option {
	return func(o *Options) { o.Infer = infer }
}

// NewOptions applies opts over the defaults (infer enabled, no limit)
func NewOptions(opts ...Option) *Options {
	o := &Options{Infer: true}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Filters returns the set namespace fields keyed by payload name
func (o *Options) Filters() Filters {
	f := Filters{}
	if o.UserID != "" {
		f[PayloadUserID] = o.UserID
	}
	if o.AgentID != "" {
		f[PayloadAgentID] = o.AgentID
	}
	if o.RunID != "" {
		f[PayloadRunID] = o.RunID
	}
	return f
}

// LimitOr returns the configured limit, or def when unset
func (o *Options) LimitOr(def int) int {
	if o.Limit > 0 {
		return o.Limit
	}
	return def
}

// ScopeOptions rebuilds the namespace options for handlers that accept them as optional strings.
// Empty values are skipped.
func ScopeOptions(userID, agentID, runID string) []Option {
	var opts []Option
	if userID != "" {
		opts = append(opts, WithUserID(userID))
	}
	if agentID != "" {
		opts = append(opts, WithAgentID(agentID))
	}
	if runID != "" {
		opts = append(opts, WithRunID(runID))
	}
	return opts
}

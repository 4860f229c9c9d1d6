package llm

import (
	"context"
)

// LLM represents a generic large language model interface
type LLM interface {
	// Chat generates a response based on the conversation history
	Chat(ctx context.Context, messages []Message, opts ...Option) (Response, error)
}

// Response contains the model's response and additional metadata
type Response struct {
	Message Message
	Usage   Usage
}

// Client binds an LLM to a set of default options applied before per-call options
type Client struct {
	llm      LLM
	defaults []Option
}

// NewClient creates a new LLM client
func NewClient(llm LLM, defaults ...Option) *Client {
	return &Client{llm: llm, defaults: defaults}
}

// Chat generates a response based on the conversation history
func (c *Client) Chat(ctx context.Context, messages []Message, opts ...Option) (Response, error) {
	all := make([]Option, 0, len(c.defaults)+len(opts))
	all = append(all, c.defaults...)
	all = append(all, opts...)
	return c.llm.Chat(ctx, messages, all...)
}

package embedding

import (
	"context"
)

// Embedder represents an interface for text embedding operations
type Embedder interface {
	// EmbedDocuments converts a slice of documents into vector embeddings
	EmbedDocuments(ctx context.Context, documents []string, opts ...Option) ([]Embedding, error)

	// EmbedQuery converts a single query text into a vector embedding
	EmbedQuery(ctx context.Context, text string, opts ...Option) (Embedding, error)
}

// Embedding represents a vector embedding result
type Embedding struct {
	// Vector is the embedding vector
	Vector []float32

	// Usage contains token usage statistics
	Usage Usage
}

// Usage represents token usage statistics for embeddings
type Usage struct {
	PromptTokens int
	TotalTokens  int
}

// Client binds an Embedder to default options, typically the configured model and dimensions
type Client struct {
	embedder Embedder
	defaults []Option
}

// NewClient creates a new embedding client
func NewClient(embedder Embedder, defaults ...Option) *Client {
	return &Client{embedder: embedder, defaults: defaults}
}

// EmbedDocuments converts a slice of documents into vector embeddings
func (c *Client) EmbedDocuments(ctx context.Context, documents []string, opts ...Option) ([]Embedding, error) {
	return c.embedder.EmbedDocuments(ctx, documents, c.merge(opts)...)
}

// EmbedQuery converts a single query text into a vector embedding
func (c *Client) EmbedQuery(ctx context.Context, text string, opts ...Option) (Embedding, error) {
	return c.embedder.EmbedQuery(ctx, text, c.merge(opts)...)
}

func (c *Client) merge(opts []Option) []Option {
	all := make([]Option, 0, len(c.defaults)+len(opts))
	all = append(all, c.defaults...)
	return append(all, opts...)
}

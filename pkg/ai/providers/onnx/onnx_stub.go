//go:build !onnx

package aionnx

import (
	"context"
	"errors"

	"github.com/memorai/memorai/pkg/ai/embedding"
)

// ErrNotBuilt is returned when the binary was compiled without the onnx build tag
var ErrNotBuilt = errors.New("onnx embedder not available: rebuild with -tags onnx")

type Embedder struct{}

var _ embedding.Embedder = (*Embedder)(nil)

func New(cfg Config) (*Embedder, error) {
	return nil, ErrNotBuilt
}

func (e *Embedder) EmbedDocuments(ctx context.Context, documents []string, opts ...embedding.Option) ([]embedding.Embedding, error) {
	return nil, ErrNotBuilt
}

func (e *Embedder) EmbedQuery(ctx context.Context, text string, opts ...embedding.Option) (embedding.Embedding, error) {
	return embedding.Embedding{}, ErrNotBuilt
}

func (e *Embedder) Close() error { return nil }

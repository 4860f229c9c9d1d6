//go:build onnx

package aionnx

import (
	"context"
	"fmt"
	"sync"

	"github.com/memorai/memorai/pkg/ai/embedding"
	"github.com/memorai/memorai/pkg/logx"
	ort "github.com/yalue/onnxruntime_go"
)

var initOnce sync.Once
var initErr error

// Embedder runs a sentence-transformer ONNX export in process
type Embedder struct {
	mu        sync.Mutex
	session   *ort.DynamicAdvancedSession
	tokenizer *WordPiece
	cfg       Config
}

var _ embedding.Embedder = (*Embedder)(nil)

func New(cfg Config) (*Embedder, error) {
	if cfg.ModelPath == "" {
		return nil, fmt.Errorf("onnx model path is required")
	}
	cfg.setDefaults()

	initOnce.Do(func() {
		if cfg.LibraryPath != "" {
			ort.SetSharedLibraryPath(cfg.LibraryPath)
		}
		initErr = ort.InitializeEnvironment()
	})
	if initErr != nil {
		return nil, fmt.Errorf("failed to initialize ONNX runtime: %w", initErr)
	}

	tokenizer, err := LoadWordPiece(cfg.TokenizerPath)
	if err != nil {
		return nil, err
	}

	session, err := ort.NewDynamicAdvancedSession(cfg.ModelPath,
		[]string{"input_ids", "attention_mask", "token_type_ids"},
		[]string{"last_hidden_state"},
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create ONNX session: %w", err)
	}

	logx.Info("onnx embedder ready", "model", cfg.ModelPath, "dims", cfg.Dimensions)
	return &Embedder{session: session, tokenizer: tokenizer, cfg: cfg}, nil
}

func (e *Embedder) EmbedDocuments(ctx context.Context, documents []string, opts ...embedding.Option) ([]embedding.Embedding, error) {
	out := make([]embedding.Embedding, len(documents))
	for i, doc := range documents {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		vec, err := e.embed(doc)
		if err != nil {
			return nil, err
		}
		out[i] = embedding.Embedding{Vector: vec}
	}
	return out, nil
}

func (e *Embedder) EmbedQuery(ctx context.Context, text string, opts ...embedding.Option) (embedding.Embedding, error) {
	embs, err := e.EmbedDocuments(ctx, []string{text}, opts...)
	if err != nil {
		return embedding.Embedding{}, err
	}
	return embs[0], nil
}

func (e *Embedder) embed(text string) ([]float32, error) {
	maxLen := e.cfg.MaxLength
	ids, mask := e.tokenizer.Encode(text, maxLen)
	typeIDs := make([]int64, maxLen)

	shape := ort.NewShape(1, int64(maxLen))
	idsT, err := ort.NewTensor(shape, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to create input_ids tensor: %w", err)
	}
	defer idsT.Destroy()
	maskT, err := ort.NewTensor(shape, mask)
	if err != nil {
		return nil, fmt.Errorf("failed to create attention_mask tensor: %w", err)
	}
	defer maskT.Destroy()
	typeT, err := ort.NewTensor(shape, typeIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to create token_type_ids tensor: %w", err)
	}
	defer typeT.Destroy()

	outputs := []ort.Value{nil}

	e.mu.Lock()
	err = e.session.Run([]ort.Value{idsT, maskT, typeT}, outputs)
	e.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("ONNX inference failed: %w", err)
	}
	defer func() {
		for _, o := range outputs {
			if o != nil {
				o.Destroy()
			}
		}
	}()

	tensor, ok := outputs[0].(*ort.Tensor[float32])
	if !ok {
		return nil, fmt.Errorf("unexpected output tensor type")
	}

	vec, err := meanPool(tensor.GetData(), tensor.GetShape(), mask, e.cfg.Dimensions)
	if err != nil {
		return nil, err
	}
	return normalize(vec), nil
}

func (e *Embedder) Close() error {
	if e.session != nil {
		return e.session.Destroy()
	}
	return nil
}

package memoryinfra

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/memorai/memorai/pkg/memory"
	chromem "github.com/philippgille/chromem-go"
)

// payloadKey holds the JSON payload; chromem metadata is string-only and only used for filtering
const payloadKey = memory.PayloadEncoded

// ChromemStore is an embedded vector store for local development and tests
type ChromemStore struct {
	db   *chromem.DB
	name string
	dims int

	mu  sync.RWMutex
	col *chromem.Collection
}

var _ memory.VectorStore = (*ChromemStore)(nil)

// NewChromemStore opens an in-memory store, or a persistent one when path is set
func NewChromemStore(name string, dims int, path string) (*ChromemStore, error) {
	if dims <= 0 {
		return nil, fmt.Errorf("chromem store needs positive dimensions, got %d", dims)
	}
	var db *chromem.DB
	if path == "" {
		db = chromem.NewDB()
	} else {
		var err error
		db, err = chromem.NewPersistentDB(path, false)
		if err != nil {
			return nil, fmt.Errorf("open chromem db: %w", err)
		}
	}
	return &ChromemStore{db: db, name: name, dims: dims}, nil
}

func (s *ChromemStore) collection() (*chromem.Collection, error) {
	s.mu.RLock()
	col := s.col
	s.mu.RUnlock()
	if col != nil {
		return col, nil
	}
	if err := s.EnsureCollection(context.Background()); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.col, nil
}

func (s *ChromemStore) EnsureCollection(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.col != nil {
		return nil
	}
	col, err := s.db.GetOrCreateCollection(s.name, nil, nil)
	if err != nil {
		return fmt.Errorf("create collection: %w", err)
	}
	s.col = col
	return nil
}

func (s *ChromemStore) Upsert(ctx context.Context, points []memory.Point) error {
	col, err := s.collection()
	if err != nil {
		return err
	}
	for _, p := range points {
		doc, err := toDocument(p)
		if err != nil {
			return err
		}
		// AddDocument overwrites an existing id
		if err := col.AddDocument(ctx, doc); err != nil {
			return fmt.Errorf("add document: %w", err)
		}
	}
	return nil
}

func toDocument(p memory.Point) (chromem.Document, error) {
	raw, err := json.Marshal(p.Payload)
	if err != nil {
		return chromem.Document{}, fmt.Errorf("marshal payload: %w", err)
	}
	md := make(map[string]string, len(p.Payload)+1)
	for k, v := range p.Payload {
		if str, ok := v.(string); ok && k != payloadKey {
			md[k] = str
		}
	}
	md[payloadKey] = string(raw)
	content, _ := p.Payload[memory.PayloadData].(string)
	if content == "" {
		content = p.ID
	}
	return chromem.Document{
		ID:        p.ID,
		Metadata:  md,
		Embedding: p.Vector,
		Content:   content,
	}, nil
}

func fromMetadata(md map[string]string) memory.Payload {
	var p memory.Payload
	if raw, ok := md[payloadKey]; ok && json.Unmarshal([]byte(raw), &p) == nil {
		return p
	}
	p = memory.Payload{}
	for k, v := range md {
		if k != payloadKey {
			p[k] = v
		}
	}
	return p
}

func (s *ChromemStore) Search(ctx context.Context, vector []float32, limit int, filters memory.Filters) ([]memory.ScoredPoint, error) {
	col, err := s.collection()
	if err != nil {
		return nil, err
	}

	// chromem rejects nResults larger than the collection
	n := min(limit, col.Count())
	if n <= 0 {
		return nil, nil
	}

	results, err := col.QueryEmbedding(ctx, vector, n, map[string]string(filters), nil)
	if err != nil {
		if isInsufficientDocsError(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("chromem query: %w", err)
	}

	out := make([]memory.ScoredPoint, len(results))
	for i, r := range results {
		out[i] = memory.ScoredPoint{ID: r.ID, Score: float64(r.Similarity), Payload: fromMetadata(r.Metadata)}
	}
	return out, nil
}

func (s *ChromemStore) Get(ctx context.Context, id string) (*memory.Point, error) {
	col, err := s.collection()
	if err != nil {
		return nil, err
	}
	doc, err := col.GetByID(ctx, id)
	if err != nil {
		if strings.Contains(err.Error(), "not found") {
			return nil, nil
		}
		return nil, err
	}
	return &memory.Point{ID: doc.ID, Vector: doc.Embedding, Payload: fromMetadata(doc.Metadata)}, nil
}

func (s *ChromemStore) Delete(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	col, err := s.collection()
	if err != nil {
		return err
	}
	return col.Delete(ctx, nil, nil, ids...)
}

// List enumerates matching documents by querying with a probe vector over the whole collection.
// Results are ordered by creation time.
func (s *ChromemStore) List(ctx context.Context, filters memory.Filters, limit int) ([]memory.Point, error) {
	col, err := s.collection()
	if err != nil {
		return nil, err
	}
	count := col.Count()
	if count == 0 {
		return nil, nil
	}

	probe := make([]float32, s.dims)
	probe[0] = 1
	results, err := col.QueryEmbedding(ctx, probe, count, map[string]string(filters), nil)
	if err != nil {
		if isInsufficientDocsError(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("chromem list: %w", err)
	}

	out := make([]memory.Point, len(results))
	for i, r := range results {
		out[i] = memory.Point{ID: r.ID, Payload: fromMetadata(r.Metadata)}
	}
	sort.SliceStable(out, func(i, j int) bool {
		ci, _ := out[i].Payload[memory.PayloadCreatedAt].(string)
		cj, _ := out[j].Payload[memory.PayloadCreatedAt].(string)
		if ci != cj {
			return ci < cj
		}
		return out[i].ID < out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *ChromemStore) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.db.DeleteCollection(s.name); err != nil {
		return fmt.Errorf("delete collection: %w", err)
	}
	col, err := s.db.CreateCollection(s.name, nil, nil)
	if err != nil {
		return fmt.Errorf("create collection: %w", err)
	}
	s.col = col
	return nil
}

func (s *ChromemStore) Ping(ctx context.Context) error {
	_, err := s.collection()
	return err
}

func (s *ChromemStore) Close() error {
	return nil
}

func isInsufficientDocsError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "nResults must be") || strings.Contains(msg, "number of documents")
}

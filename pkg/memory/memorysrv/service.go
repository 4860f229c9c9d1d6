package memorysrv

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/memorai/memorai/pkg/ai/embedding"
	"github.com/memorai/memorai/pkg/ai/llm"
	"github.com/memorai/memorai/pkg/errx"
	"github.com/memorai/memorai/pkg/logx"
	"github.com/memorai/memorai/pkg/memory"
)

const (
	// neighbours retrieved per fact when reconciling with existing memories
	reconcileSearchLimit = 5
	embedConcurrency     = 4
)

// MemoryService is the in-process memory engine
type MemoryService struct {
	llm         *llm.Client
	embedder    embedding.Embedder
	store       memory.VectorStore
	history     memory.HistoryStore
	snapshotter memory.Snapshotter
	closers     []io.Closer

	now   func() time.Time
	newID func() string

	readyMu sync.Mutex
	ready   bool
}

var (
	_ memory.Engine = (*MemoryService)(nil)
	_ memory.Pinger = (*MemoryService)(nil)
)

type ServiceOption func(*MemoryService)

// WithSnapshotter dumps every record before Reset wipes the store
func WithSnapshotter(s memory.Snapshotter) ServiceOption {
	return func(ms *MemoryService) { ms.snapshotter = s }
}

// WithClosers registers extra resources released by Close, such as the embedding cache
func WithClosers(c ...io.Closer) ServiceOption {
	return func(ms *MemoryService) { ms.closers = append(ms.closers, c...) }
}

func WithClock(now func() time.Time) ServiceOption {
	return func(ms *MemoryService) { ms.now = now }
}

func WithIDGenerator(newID func() string) ServiceOption {
	return func(ms *MemoryService) { ms.newID = newID }
}

func NewMemoryService(
	llmClient *llm.Client,
	embedder embedding.Embedder,
	store memory.VectorStore,
	history memory.HistoryStore,
	opts ...ServiceOption,
) *MemoryService {
	s := &MemoryService{
		llm:      llmClient,
		embedder: embedder,
		store:    store,
		history:  history,
		now:      time.Now,
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ensureReady creates the collection on first use so the process can start while the store is down
func (s *MemoryService) ensureReady(ctx context.Context) error {
	s.readyMu.Lock()
	defer s.readyMu.Unlock()
	if s.ready {
		return nil
	}
	if err := s.store.EnsureCollection(ctx); err != nil {
		return errx.Wrap(err, "vector store unavailable", errx.TypeExternal)
	}
	s.ready = true
	return nil
}

func (s *MemoryService) Get(ctx context.Context, id string) (*memory.Record, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, nil
	}
	if err := s.ensureReady(ctx); err != nil {
		return nil, err
	}
	point, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, errx.Wrap(err, "failed to get memory", errx.TypeExternal).WithDetail("memory_id", id)
	}
	if point == nil {
		return nil, nil
	}
	rec := memory.RecordFromPayload(point.ID, point.Payload)
	return &rec, nil
}

func (s *MemoryService) GetAll(ctx context.Context, opts ...memory.Option) (*memory.Results, error) {
	o := memory.NewOptions(opts...)
	if err := s.ensureReady(ctx); err != nil {
		return nil, err
	}
	points, err := s.store.List(ctx, o.Filters(), o.LimitOr(memory.DefaultListLimit))
	if err != nil {
		return nil, errx.Wrap(err, "failed to list memories", errx.TypeExternal)
	}
	out := &memory.Results{Results: make([]memory.Record, 0, len(points))}
	for _, p := range points {
		out.Results = append(out.Results, memory.RecordFromPayload(p.ID, p.Payload))
	}
	return out, nil
}

func (s *MemoryService) Search(ctx context.Context, query string, opts ...memory.Option) (*memory.Results, error) {
	o := memory.NewOptions(opts...)
	if err := s.ensureReady(ctx); err != nil {
		return nil, err
	}
	emb, err := s.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, errx.Wrap(err, "failed to embed query", errx.TypeExternal)
	}
	hits, err := s.store.Search(ctx, emb.Vector, o.LimitOr(memory.DefaultSearchLimit), o.Filters())
	if err != nil {
		return nil, errx.Wrap(err, "failed to search memories", errx.TypeExternal)
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })

	out := &memory.Results{Results: make([]memory.Record, 0, len(hits))}
	for _, h := range hits {
		rec := memory.RecordFromPayload(h.ID, h.Payload)
		score := h.Score
		rec.Score = &score
		out.Results = append(out.Results, rec)
	}
	return out, nil
}

func (s *MemoryService) Update(ctx context.Context, id string, data string) (*memory.UpdateResult, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, memory.ErrMemoryNotFound(id)
	}
	if err := s.ensureReady(ctx); err != nil {
		return nil, err
	}
	emb, err := s.embedder.EmbedQuery(ctx, data)
	if err != nil {
		return nil, errx.Wrap(err, "failed to embed memory", errx.TypeExternal)
	}
	if _, err := s.updateMemory(ctx, id, data, emb.Vector); err != nil {
		return nil, err
	}
	return &memory.UpdateResult{Message: "Memory updated successfully!"}, nil
}

func (s *MemoryService) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return nil
	}
	if err := s.ensureReady(ctx); err != nil {
		return err
	}
	_, err := s.deleteMemory(ctx, id)
	return err
}

func (s *MemoryService) DeleteAll(ctx context.Context, opts ...memory.Option) error {
	o := memory.NewOptions(opts...)
	filters := o.Filters()
	if len(filters) == 0 {
		return memory.ErrMissingFilters()
	}
	if err := s.ensureReady(ctx); err != nil {
		return err
	}
	points, err := s.store.List(ctx, filters, 0)
	if err != nil {
		return errx.Wrap(err, "failed to list memories", errx.TypeExternal)
	}
	for _, p := range points {
		if _, err := s.deleteMemory(ctx, p.ID); err != nil {
			return err
		}
	}
	logx.WithFields(logx.Fields{"filters": filters, "deleted": len(points)}).Info("deleted memories")
	return nil
}

func (s *MemoryService) History(ctx context.Context, id string) ([]memory.HistoryEntry, error) {
	entries, err := s.history.List(ctx, id)
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []memory.HistoryEntry{}
	}
	return entries, nil
}

func (s *MemoryService) Reset(ctx context.Context) error {
	if err := s.ensureReady(ctx); err != nil {
		return err
	}
	if s.snapshotter != nil {
		points, err := s.store.List(ctx, nil, 0)
		if err != nil {
			return errx.Wrap(err, "failed to read memories for snapshot", errx.TypeExternal)
		}
		records := make([]memory.Record, len(points))
		for i, p := range points {
			records[i] = memory.RecordFromPayload(p.ID, p.Payload)
		}
		loc, err := s.snapshotter.Save(ctx, records)
		if err != nil {
			return errx.Wrap(err, "failed to snapshot memories", errx.TypeInternal)
		}
		logx.Info("memory snapshot written", "location", loc, "records", len(records))
	}

	if err := s.store.Reset(ctx); err != nil {
		return errx.Wrap(err, "failed to reset vector store", errx.TypeExternal)
	}
	if err := s.history.Reset(ctx); err != nil {
		return err
	}
	logx.Warn("memory store reset")
	return nil
}

// Ping checks the vector store and the history database
func (s *MemoryService) Ping(ctx context.Context) error {
	var errs []error
	if err := s.store.Ping(ctx); err != nil {
		errs = append(errs, errx.Wrap(err, "vector store unreachable", errx.TypeExternal))
	}
	if err := s.history.Ping(ctx); err != nil {
		errs = append(errs, errx.Wrap(err, "history store unreachable", errx.TypeExternal))
	}
	return errors.Join(errs...)
}

func (s *MemoryService) Close() error {
	var errs []error
	if err := s.store.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := s.history.Close(); err != nil {
		errs = append(errs, err)
	}
	for _, c := range s.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// ============================================================================
// Mutations shared by Add, Update and Delete
// ============================================================================

type newMemory struct {
	data     string
	vector   []float32
	metadata map[string]any
	filters  memory.Filters
	actorID  string
	role     string
}

func (s *MemoryService) createMemory(ctx context.Context, m newMemory) (string, error) {
	id := s.newID()
	now := memory.FormatTime(s.now())

	payload := memory.NewPayload(m.data, hashText(m.data), now, m.metadata, m.filters)
	if m.actorID != "" {
		payload[memory.PayloadActorID] = m.actorID
	}
	if m.role != "" {
		payload[memory.PayloadRole] = m.role
	}

	if err := s.store.Upsert(ctx, []memory.Point{{ID: id, Vector: m.vector, Payload: payload}}); err != nil {
		return "", errx.Wrap(err, "failed to store memory", errx.TypeExternal)
	}

	entry := memory.HistoryEntry{
		ID:        s.newID(),
		MemoryID:  id,
		NewMemory: &m.data,
		Event:     memory.EventAdd,
		CreatedAt: now,
		ActorID:   optional(m.actorID),
		Role:      optional(m.role),
	}
	if err := s.history.Add(ctx, entry); err != nil {
		return "", err
	}
	return id, nil
}

// updateMemory replaces the text and vector of an existing memory, keeping scope and created_at.
// It returns the previous text.
func (s *MemoryService) updateMemory(ctx context.Context, id, data string, vector []float32) (string, error) {
	existing, err := s.store.Get(ctx, id)
	if err != nil {
		return "", errx.Wrap(err, "failed to get memory", errx.TypeExternal).WithDetail("memory_id", id)
	}
	if existing == nil {
		return "", memory.ErrMemoryNotFound(id)
	}

	payload := existing.Payload.Clone()
	old, _ := payload[memory.PayloadData].(string)
	createdAt, _ := payload[memory.PayloadCreatedAt].(string)
	now := memory.FormatTime(s.now())

	payload[memory.PayloadData] = data
	payload[memory.PayloadHash] = hashText(data)
	payload[memory.PayloadUpdatedAt] = now

	if err := s.store.Upsert(ctx, []memory.Point{{ID: id, Vector: vector, Payload: payload}}); err != nil {
		return "", errx.Wrap(err, "failed to update memory", errx.TypeExternal).WithDetail("memory_id", id)
	}

	actor, _ := payload[memory.PayloadActorID].(string)
	role, _ := payload[memory.PayloadRole].(string)
	entry := memory.HistoryEntry{
		ID:        s.newID(),
		MemoryID:  id,
		OldMemory: &old,
		NewMemory: &data,
		Event:     memory.EventUpdate,
		CreatedAt: createdAt,
		UpdatedAt: &now,
		ActorID:   optional(actor),
		Role:      optional(role),
	}
	if err := s.history.Add(ctx, entry); err != nil {
		return "", err
	}
	return old, nil
}

// deleteMemory removes a memory; unknown ids report found=false and no error
func (s *MemoryService) deleteMemory(ctx context.Context, id string) (string, error) {
	existing, err := s.store.Get(ctx, id)
	if err != nil {
		return "", errx.Wrap(err, "failed to get memory", errx.TypeExternal).WithDetail("memory_id", id)
	}
	if existing == nil {
		return "", nil
	}

	if err := s.store.Delete(ctx, id); err != nil {
		return "", errx.Wrap(err, "failed to delete memory", errx.TypeExternal).WithDetail("memory_id", id)
	}

	old, _ := existing.Payload[memory.PayloadData].(string)
	createdAt, _ := existing.Payload[memory.PayloadCreatedAt].(string)
	now := memory.FormatTime(s.now())
	if createdAt == "" {
		createdAt = now
	}
	actor, _ := existing.Payload[memory.PayloadActorID].(string)
	role, _ := existing.Payload[memory.PayloadRole].(string)

	entry := memory.HistoryEntry{
		ID:        s.newID(),
		MemoryID:  id,
		OldMemory: &old,
		Event:     memory.EventDelete,
		CreatedAt: createdAt,
		UpdatedAt: &now,
		IsDeleted: true,
		ActorID:   optional(actor),
		Role:      optional(role),
	}
	if err := s.history.Add(ctx, entry); err != nil {
		return "", err
	}
	return old, nil
}

func hashText(s string) string {
	sum := md5.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

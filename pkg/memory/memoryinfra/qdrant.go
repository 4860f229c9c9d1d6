package memoryinfra

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/memorai/memorai/pkg/memory"
)

// QdrantStore talks to the Qdrant REST API (port 6333)
type QdrantStore struct {
	endpoint   string
	collection string
	dims       int
	apiKey     string
	httpClient *http.Client
}

var _ memory.VectorStore = (*QdrantStore)(nil)

type QdrantConfig struct {
	Endpoint   string
	Collection string
	Dims       int
	APIKey     string
	Timeout    time.Duration
}

func NewQdrantStore(cfg QdrantConfig) *QdrantStore {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &QdrantStore{
		endpoint:   cfg.Endpoint,
		collection: cfg.Collection,
		dims:       cfg.Dims,
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// StatusError is returned for non-2xx responses
type StatusError struct {
	Op     string
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("qdrant: %s status %d: %s", e.Op, e.Status, e.Body)
}

func (s *QdrantStore) collectionURL(suffix string) string {
	return s.endpoint + "/collections/" + url.PathEscape(s.collection) + suffix
}

// do sends body as JSON and decodes the "result" field into out when non-nil
func (s *QdrantStore) do(ctx context.Context, op, method, target string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("qdrant: encode %s: %w", op, err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return fmt.Errorf("qdrant: build %s: %w", op, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if s.apiKey != "" {
		req.Header.Set("api-key", s.apiKey)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("qdrant: %s: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &StatusError{Op: op, Status: resp.StatusCode, Body: string(bytes.TrimSpace(msg))}
	}

	if out == nil {
		return nil
	}
	envelope := struct {
		Result any `json:"result"`
	}{Result: out}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("qdrant: decode %s: %w", op, err)
	}
	return nil
}

func (s *QdrantStore) EnsureCollection(ctx context.Context) error {
	err := s.do(ctx, "get collection", http.MethodGet, s.collectionURL(""), nil, nil)
	if err == nil {
		return nil
	}
	if se, ok := err.(*StatusError); !ok || se.Status != http.StatusNotFound {
		return err
	}
	return s.createCollection(ctx)
}

func (s *QdrantStore) createCollection(ctx context.Context) error {
	body := map[string]any{
		"vectors": map[string]any{
			"size":     s.dims,
			"distance": "Cosine",
		},
	}
	err := s.do(ctx, "create collection", http.MethodPut, s.collectionURL(""), body, nil)
	if se, ok := err.(*StatusError); ok && se.Status == http.StatusConflict {
		return nil
	}
	return err
}

type qdrantPoint struct {
	ID      any            `json:"id"`
	Vector  []float32      `json:"vector,omitempty"`
	Payload memory.Payload `json:"payload"`
	Score   float64        `json:"score,omitempty"`
}

func (p qdrantPoint) id() string {
	switch v := p.ID.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}

func (s *QdrantStore) Upsert(ctx context.Context, points []memory.Point) error {
	if len(points) == 0 {
		return nil
	}
	body := struct {
		Points []qdrantPoint `json:"points"`
	}{Points: make([]qdrantPoint, len(points))}
	for i, p := range points {
		body.Points[i] = qdrantPoint{ID: p.ID, Vector: p.Vector, Payload: p.Payload}
	}
	return s.do(ctx, "upsert", http.MethodPut, s.collectionURL("/points?wait=true"), body, nil)
}

func buildFilter(filters memory.Filters) map[string]any {
	if len(filters) == 0 {
		return nil
	}
	must := make([]map[string]any, 0, len(filters))
	for k, v := range filters {
		must = append(must, map[string]any{
			"key":   k,
			"match": map[string]any{"value": v},
		})
	}
	return map[string]any{"must": must}
}

func (s *QdrantStore) Search(ctx context.Context, vector []float32, limit int, filters memory.Filters) ([]memory.ScoredPoint, error) {
	body := map[string]any{
		"vector":       vector,
		"limit":        limit,
		"with_payload": true,
	}
	if f := buildFilter(filters); f != nil {
		body["filter"] = f
	}

	var result []qdrantPoint
	if err := s.do(ctx, "search", http.MethodPost, s.collectionURL("/points/search"), body, &result); err != nil {
		return nil, err
	}

	out := make([]memory.ScoredPoint, len(result))
	for i, r := range result {
		out[i] = memory.ScoredPoint{ID: r.id(), Score: r.Score, Payload: r.Payload}
	}
	return out, nil
}

func (s *QdrantStore) Get(ctx context.Context, id string) (*memory.Point, error) {
	var result qdrantPoint
	err := s.do(ctx, "get", http.MethodGet, s.collectionURL("/points/"+url.PathEscape(id)), nil, &result)
	if err != nil {
		if se, ok := err.(*StatusError); ok && se.Status == http.StatusNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &memory.Point{ID: result.id(), Vector: result.Vector, Payload: result.Payload}, nil
}

func (s *QdrantStore) Delete(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	body := map[string]any{"points": ids}
	return s.do(ctx, "delete", http.MethodPost, s.collectionURL("/points/delete?wait=true"), body, nil)
}

// List scrolls through matching points. limit <= 0 returns every match.
func (s *QdrantStore) List(ctx context.Context, filters memory.Filters, limit int) ([]memory.Point, error) {
	const pageSize = 256

	var out []memory.Point
	var offset any
	for {
		page := pageSize
		if limit > 0 && limit-len(out) < page {
			page = limit - len(out)
		}

		body := map[string]any{
			"limit":        page,
			"with_payload": true,
			"with_vector":  false,
		}
		if f := buildFilter(filters); f != nil {
			body["filter"] = f
		}
		if offset != nil {
			body["offset"] = offset
		}

		var result struct {
			Points         []qdrantPoint `json:"points"`
			NextPageOffset any           `json:"next_page_offset"`
		}
		if err := s.do(ctx, "scroll", http.MethodPost, s.collectionURL("/points/scroll"), body, &result); err != nil {
			return nil, err
		}

		for _, p := range result.Points {
			out = append(out, memory.Point{ID: p.id(), Payload: p.Payload})
		}

		if result.NextPageOffset == nil || len(result.Points) == 0 {
			return out, nil
		}
		if limit > 0 && len(out) >= limit {
			return out, nil
		}
		offset = result.NextPageOffset
	}
}

func (s *QdrantStore) Reset(ctx context.Context) error {
	err := s.do(ctx, "delete collection", http.MethodDelete, s.collectionURL(""), nil, nil)
	if se, ok := err.(*StatusError); err != nil && !(ok && se.Status == http.StatusNotFound) {
		return err
	}
	return s.createCollection(ctx)
}

// Ping lists collections, which succeeds before the memories collection exists
func (s *QdrantStore) Ping(ctx context.Context) error {
	return s.do(ctx, "ping", http.MethodGet, s.endpoint+"/collections", nil, nil)
}

func (s *QdrantStore) Close() error {
	s.httpClient.CloseIdleConnections()
	return nil
}

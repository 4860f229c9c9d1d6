// Package memoryclient is a typed client for the MemorAI HTTP API.
package memoryclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/memorai/memorai/pkg/config"
	"github.com/memorai/memorai/pkg/errx"
	"github.com/memorai/memorai/pkg/memory"
	"github.com/tidwall/gjson"
)

type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithAPIKey(key string) Option {
	return func(c *Client) { c.apiKey = key }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FromConfig builds a client from MEMORAI_API_URL, MEMORAI_API_KEY and MEMORAI_API_TIMEOUT
func FromConfig(cfg config.ClientConfig) *Client {
	return New(cfg.BaseURL,
		WithAPIKey(cfg.APIKey),
		WithHTTPClient(&http.Client{Timeout: cfg.Timeout}),
	)
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

// APIError is returned for any non-2xx answer
type APIError struct {
	Status int
	Detail string
	Body   string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("MemorAI API returned %d: %s", e.Status, e.Detail)
	}
	return fmt.Sprintf("MemorAI API returned %d: %s", e.Status, e.Body)
}

// ============================================================================
// Operations
// ============================================================================

func (c *Client) Health(ctx context.Context) (*memory.HealthStatus, error) {
	var out memory.HealthStatus
	if err := c.doJSON(ctx, http.MethodGet, "/health", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Add(ctx context.Context, req memory.CreateRequest) (*memory.AddResult, error) {
	var out memory.AddResult
	if err := c.doJSON(ctx, http.MethodPost, "/memories", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// List returns the memories of a scope. Empty filters are omitted from the query.
func (c *Client) List(ctx context.Context, userID, agentID string, limit int) ([]memory.Record, error) {
	q := url.Values{}
	setIf(q, "user_id", userID)
	setIf(q, "agent_id", agentID)
	if limit > 0 {
		q.Set("limit", fmt.Sprint(limit))
	}
	raw, err := c.do(ctx, http.MethodGet, "/memories", q, nil)
	if err != nil {
		return nil, err
	}
	return decodeRecords(raw)
}

func (c *Client) Get(ctx context.Context, id string) (*memory.Record, error) {
	var out memory.Record
	if err := c.doJSON(ctx, http.MethodGet, "/memories/"+url.PathEscape(id), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Update(ctx context.Context, id, data string) (*memory.UpdateResult, error) {
	var out memory.UpdateResult
	err := c.doJSON(ctx, http.MethodPut, "/memories/"+url.PathEscape(id), nil, memory.UpdateRequest{Data: data}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Delete(ctx context.Context, id string) error {
	_, err := c.do(ctx, http.MethodDelete, "/memories/"+url.PathEscape(id), nil, nil)
	return err
}

func (c *Client) DeleteAll(ctx context.Context, userID, agentID string) error {
	q := url.Values{}
	setIf(q, "user_id", userID)
	setIf(q, "agent_id", agentID)
	_, err := c.do(ctx, http.MethodDelete, "/memories", q, nil)
	return err
}

func (c *Client) History(ctx context.Context, id string) ([]memory.HistoryEntry, error) {
	var out []memory.HistoryEntry
	if err := c.doJSON(ctx, http.MethodGet, "/memories/"+url.PathEscape(id)+"/history", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Search(ctx context.Context, req memory.SearchRequest) ([]memory.Record, error) {
	raw, err := c.do(ctx, http.MethodPost, "/search", nil, req)
	if err != nil {
		return nil, err
	}
	return decodeRecords(raw)
}

func (c *Client) Reset(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodPost, "/reset", nil, nil)
	return err
}

// ============================================================================
// Transport
// ============================================================================

func (c *Client) doJSON(ctx context.Context, method, path string, q url.Values, body, out any) error {
	raw, err := c.do(ctx, method, path, q, body)
	if err != nil {
		return err
	}
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return errx.Wrap(err, "invalid response from MemorAI API", errx.TypeExternal).WithDetail("path", path)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, q url.Values, body any) ([]byte, error) {
	target := c.baseURL + path
	if len(q) > 0 {
		target += "?" + q.Encode()
	}

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, errx.Wrap(err, "failed to encode request", errx.TypeInternal)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, errx.Wrap(err, "failed to build request", errx.TypeInternal)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errx.Wrap(err, "failed to connect to MemorAI API at "+c.baseURL, errx.TypeExternal)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errx.Wrap(err, "failed to read response", errx.TypeExternal)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{
			Status: resp.StatusCode,
			Detail: gjson.GetBytes(raw, "detail").String(),
			Body:   string(raw),
		}
	}
	if resp.StatusCode == http.StatusNoContent {
		return nil, nil
	}
	return raw, nil
}

// decodeRecords accepts both a bare array and a {"results": [...]} envelope
func decodeRecords(raw []byte) ([]memory.Record, error) {
	parsed := gjson.ParseBytes(raw)
	list := parsed
	if !parsed.IsArray() {
		list = parsed.Get("results")
	}
	if !list.IsArray() {
		return []memory.Record{}, nil
	}

	out := []memory.Record{}
	if err := json.Unmarshal([]byte(list.Raw), &out); err != nil {
		return nil, errx.Wrap(err, "invalid records in response", errx.TypeExternal)
	}
	return out, nil
}

func setIf(q url.Values, key, value string) {
	if value != "" {
		q.Set(key, value)
	}
}

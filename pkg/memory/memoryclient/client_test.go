package memoryclient

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/memorai/memorai/pkg/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorded struct {
	method string
	path   string
	query  string
	key    string
	body   string
}

func newServer(t *testing.T, status int, reply string) (*httptest.Server, *[]recorded) {
	t.Helper()
	var calls []recorded
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		calls = append(calls, recorded{
			method: r.Method,
			path:   r.URL.Path,
			query:  r.URL.RawQuery,
			key:    r.Header.Get("X-API-Key"),
			body:   string(body),
		})
		if status == http.StatusNoContent {
			w.WriteHeader(status)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(reply))
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func TestAddSendsKeyAndBody(t *testing.T) {
	srv, calls := newServer(t, http.StatusCreated, `{"results":[{"id":"m1","memory":"Likes tea","event":"ADD"}]}`)
	c := New(srv.URL+"/", WithAPIKey("k"))

	res, err := c.Add(context.Background(), memory.CreateRequest{
		Messages: []memory.Message{{Role: "user", Content: "I like tea"}},
		UserID:   "proj",
	})
	require.NoError(t, err)
	require.Len(t, res.Results, 1)
	assert.Equal(t, memory.EventAdd, res.Results[0].Event)

	got := (*calls)[0]
	assert.Equal(t, http.MethodPost, got.method)
	assert.Equal(t, "/memories", got.path)
	assert.Equal(t, "k", got.key)

	var sent map[string]any
	require.NoError(t, json.Unmarshal([]byte(got.body), &sent))
	assert.Equal(t, "proj", sent["user_id"])
	assert.NotContains(t, sent, "agent_id")
}

func TestListAcceptsBothShapes(t *testing.T) {
	for _, reply := range []string{
		`[{"id":"a","memory":"x"},{"id":"b","memory":"y"}]`,
		`{"results":[{"id":"a","memory":"x"},{"id":"b","memory":"y"}]}`,
	} {
		srv, calls := newServer(t, http.StatusOK, reply)
		records, err := New(srv.URL).List(context.Background(), "proj", "", 0)
		require.NoError(t, err)
		assert.Len(t, records, 2)
		assert.Equal(t, "user_id=proj", (*calls)[0].query)
	}
}

func TestDeleteHandlesNoContent(t *testing.T) {
	srv, calls := newServer(t, http.StatusNoContent, "")
	c := New(srv.URL)

	require.NoError(t, c.Delete(context.Background(), "m1"))
	require.NoError(t, c.DeleteAll(context.Background(), "proj", "claude"))
	assert.Equal(t, "/memories/m1", (*calls)[0].path)
	assert.Equal(t, "agent_id=claude&user_id=proj", (*calls)[1].query)
}

func TestErrorsCarryDetail(t *testing.T) {
	srv, _ := newServer(t, http.StatusNotFound, `{"detail":"Memory m1 not found","code":"MEMORY_NOT_FOUND"}`)

	_, err := New(srv.URL).Get(context.Background(), "m1")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
	assert.Equal(t, "MemorAI API returned 404: Memory m1 not found", err.Error())
}

func TestConnectionFailure(t *testing.T) {
	srv, _ := newServer(t, http.StatusOK, `{}`)
	srv.Close()

	_, err := New(srv.URL).Health(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to connect to MemorAI API")
}

package pathstore

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/dgallion1/lexgest/internal/legal"
)

// fakeServer is an in-memory pathstore.
type fakeServer struct {
	mu      sync.Mutex
	nodes   map[string]json.RawMessage
	links   []LinkRequest
	deletes []string
	auth    []string
	failPut bool
}

func newFakeServer(t *testing.T) (*fakeServer, *Client) {
	f := &fakeServer{nodes: map[string]json.RawMessage{}}
	srv := httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(srv.Close)
	return f, NewClient(srv.URL+"/", "ps-key")
}

func (f *fakeServer) serve(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.auth = append(f.auth, r.Header.Get("Authorization"))
	key := strings.TrimPrefix(r.URL.Path, "/kv/")

	switch {
	case r.Method == http.MethodPut && r.URL.Path == "/links":
		var l LinkRequest
		_ = json.NewDecoder(r.Body).Decode(&l)
		f.links = append(f.links, l)
	case r.Method == http.MethodPut:
		if f.failPut {
			http.Error(w, "disk full", http.StatusInsufficientStorage)
			return
		}
		var req struct {
			Value json.RawMessage `json:"value"`
		}
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &req)
		f.nodes[key] = req.Value
		w.WriteHeader(http.StatusCreated)
	case r.Method == http.MethodGet && strings.HasSuffix(key, "/*"):
		prefix := strings.TrimSuffix(key, "*")
		var nodes []ListChildrenResponse
		for k, v := range f.nodes {
			if strings.HasPrefix(k, prefix) {
				nodes = append(nodes, ListChildrenResponse{Key: k, Value: v})
			}
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"nodes": nodes})
	case r.Method == http.MethodGet:
		v, ok := f.nodes[key]
		if !ok {
			http.NotFound(w, r)
			return
		}
		_ = json.NewEncoder(w).Encode(NodeResponse{Key: key, Value: v})
	case r.Method == http.MethodDelete:
		f.deletes = append(f.deletes, r.URL.String())
		for k := range f.nodes {
			if k == key || (r.URL.Query().Get("children") == "true" && strings.HasPrefix(k, key+"/")) {
				delete(f.nodes, k)
			}
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func paragraphs(doc, n int) []legal.Paragraph {
	out := make([]legal.Paragraph, n)
	for i := range out {
		out[i] = legal.Paragraph{ID: legal.ParagraphID(doc, i+1), Text: "Clause text."}
	}
	return out
}

func TestStore_SaveRunChunksParagraphs(t *testing.T) {
	f, c := newFakeServer(t)
	s := NewStore(c, 3, zaptest.NewLogger(t))

	item := legal.SummaryItem{ID: "run-1", Title: "Lease"}
	docs := []legal.Document{
		{Index: 1, Name: "lease.pdf", Paragraphs: paragraphs(1, 250), AddedAt: time.Now()},
		{Index: 2, Name: "pasted text", Paragraphs: paragraphs(2, 3)},
	}
	writes, err := s.SaveRun(context.Background(), "sess", item, docs)
	require.NoError(t, err)
	// summary + 2 meta + 3 chunks + 1 chunk
	assert.Equal(t, 7, writes)

	f.mu.Lock()
	defer f.mu.Unlock()
	assert.Contains(t, f.nodes, "lexgest/sessions/sess/runs/run-1/summary")
	assert.Contains(t, f.nodes, "lexgest/sessions/sess/documents/d1/paragraphs/0002")
	assert.NotContains(t, f.nodes, "lexgest/sessions/sess/documents/d1/paragraphs/0003")

	var last paragraphChunk
	require.NoError(t, json.Unmarshal(f.nodes["lexgest/sessions/sess/documents/d1/paragraphs/0002"], &last))
	assert.Len(t, last.Paragraphs, 50)
	assert.Equal(t, "d1.p201", last.First)
	assert.Equal(t, "d1.p250", last.Last)

	require.Len(t, f.links, 2)
	assert.Equal(t, "lexgest/sessions/sess/runs/run-1/summary", f.links[0].From)
	for _, a := range f.auth {
		assert.Equal(t, "Bearer ps-key", a)
	}
}

func TestStore_SaveRunFailure(t *testing.T) {
	f, c := newFakeServer(t)
	f.failPut = true
	_, err := NewStore(c, 0, nil).SaveRun(context.Background(), "sess", legal.SummaryItem{ID: "r"}, nil)
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusInsufficientStorage, se.Status)
}

func TestStore_LoadAndList(t *testing.T) {
	_, c := newFakeServer(t)
	s := NewStore(c, 2, nil)
	ctx := context.Background()

	got, err := s.LoadSummary(ctx, "sess", "missing")
	require.NoError(t, err)
	assert.Nil(t, got)

	item := legal.SummaryItem{ID: "run-9", Title: "NDA", Extractions: []legal.Extraction{{Text: "x", SourceParagraphs: []string{"d1.p1"}}}}
	_, err = s.SaveRun(ctx, "sess", item, nil)
	require.NoError(t, err)

	got, err = s.LoadSummary(ctx, "sess", "run-9")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "NDA", got.Title)
	assert.Equal(t, item.Extractions, got.Extractions)

	runs, err := s.ListRuns(ctx, "sess", 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"lexgest/sessions/sess/runs/run-9/summary"}, runs)
}

func TestStore_Deletes(t *testing.T) {
	f, c := newFakeServer(t)
	s := NewStore(c, 2, nil)
	ctx := context.Background()
	_, err := s.SaveRun(ctx, "sess", legal.SummaryItem{ID: "r"}, []legal.Document{{Index: 1, Name: "a", Paragraphs: paragraphs(1, 2)}})
	require.NoError(t, err)

	require.NoError(t, s.DeleteDocument(ctx, "sess", 1))
	require.NoError(t, s.DeleteSession(ctx, "sess"))

	f.mu.Lock()
	defer f.mu.Unlock()
	assert.Equal(t, []string{
		"/kv/lexgest/sessions/sess/documents/d1?children=true",
		"/kv/lexgest/sessions/sess?children=true",
	}, f.deletes)
	assert.Empty(t, f.nodes)
}

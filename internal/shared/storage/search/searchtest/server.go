// Package searchtest provides an in-memory Elasticsearch stand-in for tests.
package searchtest

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/elastic/go-elasticsearch/v8"

	"cvio-backend/internal/shared/storage/search"
)

// Server serves the document, index and search APIs from memory. Search
// ignores the query and returns every document of the index ordered by id;
// the last query body is kept for assertions.
type Server struct {
	mu        sync.Mutex
	indices   map[string]map[string]json.RawMessage
	lastQuery json.RawMessage
	failAll   bool
}

// NewClient starts a Server and returns a client pointed at it.
func NewClient(t *testing.T) (*search.Client, *Server) {
	t.Helper()
	fake := &Server{indices: map[string]map[string]json.RawMessage{}}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses:    []string{srv.URL},
		DisableRetry: true,
	})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return &search.Client{ES: es}, fake
}

// LastQuery returns the body of the most recent search request.
func (f *Server) LastQuery() json.RawMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastQuery
}

// FailAll makes every following request answer 500.
func (f *Server) FailAll() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failAll = true
}

// Docs returns the number of documents stored in index.
func (f *Server) Docs(index string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.indices[index])
}

func (f *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	w.Header().Set("X-Elastic-Product", "Elasticsearch")
	w.Header().Set("Content-Type", "application/json")
	if f.failAll {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":{"type":"internal"}}`))
		return
	}

	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	switch {
	case r.URL.Path == "/" && r.Method == http.MethodHead:
		w.WriteHeader(http.StatusOK)
	case len(parts) == 1 && r.Method == http.MethodHead:
		if _, ok := f.indices[parts[0]]; !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	case len(parts) == 1 && r.Method == http.MethodPut:
		f.indices[parts[0]] = map[string]json.RawMessage{}
		_, _ = w.Write([]byte(`{"acknowledged":true}`))
	case len(parts) == 2 && parts[1] == "_search":
		body, _ := io.ReadAll(r.Body)
		f.lastQuery = body
		docs, ok := f.indices[parts[0]]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":{"type":"index_not_found_exception"}}`))
			return
		}
		type hit struct {
			ID     string          `json:"_id"`
			Source json.RawMessage `json:"_source"`
		}
		var hits []hit
		for id, src := range docs {
			hits = append(hits, hit{ID: id, Source: src})
		}
		sort.Slice(hits, func(i, j int) bool { return hits[i].ID < hits[j].ID })
		_ = json.NewEncoder(w).Encode(map[string]any{"hits": map[string]any{"hits": hits}})
	case len(parts) == 3 && parts[1] == "_doc":
		f.serveDoc(w, r, parts[0], parts[2])
	case len(parts) == 3 && parts[1] == "_create":
		if _, exists := f.indices[parts[0]][parts[2]]; exists {
			w.WriteHeader(http.StatusConflict)
			_, _ = w.Write([]byte(`{"error":{"type":"version_conflict_engine_exception"}}`))
			return
		}
		f.serveDoc(w, r, parts[0], parts[2])
	default:
		w.WriteHeader(http.StatusBadRequest)
	}
}

func (f *Server) serveDoc(w http.ResponseWriter, r *http.Request, index, id string) {
	docs := f.indices[index]
	switch r.Method {
	case http.MethodPut, http.MethodPost:
		if docs == nil {
			docs = map[string]json.RawMessage{}
			f.indices[index] = docs
		}
		var body json.RawMessage
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		docs[id] = body
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"result":"created"}`))
	case http.MethodGet:
		src, ok := docs[id]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"found":false}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"found": true, "_id": id, "_source": src})
	case http.MethodDelete:
		if _, ok := docs[id]; !ok {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"result":"not_found"}`))
			return
		}
		delete(docs, id)
		_, _ = w.Write([]byte(`{"result":"deleted"}`))
	}
}

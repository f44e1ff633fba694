package graph

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

// recordedRequest is what the fake Graph server saw.
type recordedRequest struct {
	Method      string
	Path        string
	Query       string
	ContentType string
	Auth        string
	Body        []byte
}

// fakeGraph serves a token endpoint plus whatever Graph routes a test
// registers. Unregistered routes answer 404 itemNotFound.
type fakeGraph struct {
	*httptest.Server
	t *testing.T

	mu       sync.Mutex
	routes   map[string]http.HandlerFunc
	requests []recordedRequest
	tokens   int
}

func newFakeGraph(t *testing.T) *fakeGraph {
	t.Helper()
	fg := &fakeGraph{t: t, routes: make(map[string]http.HandlerFunc)}
	fg.Server = httptest.NewServer(http.HandlerFunc(fg.serve))
	t.Cleanup(fg.Close)
	return fg
}

func (fg *fakeGraph) serve(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == "/tenant-1234/oauth2/v2.0/token" {
		fg.mu.Lock()
		fg.tokens++
		fg.mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]any{"access_token": "test-token", "token_type": "Bearer", "expires_in": 3599})
		return
	}

	body, _ := io.ReadAll(r.Body)
	fg.mu.Lock()
	fg.requests = append(fg.requests, recordedRequest{
		Method:      r.Method,
		Path:        r.URL.Path,
		Query:       r.URL.RawQuery,
		ContentType: r.Header.Get("Content-Type"),
		Auth:        r.Header.Get("Authorization"),
		Body:        body,
	})
	handler, ok := fg.routes[r.Method+" "+r.URL.Path]
	fg.mu.Unlock()

	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]any{
			"error": map[string]string{"code": "itemNotFound", "message": "The resource could not be found."},
		})
		return
	}
	handler(w, r)
}

// handle registers a route keyed by method and decoded path under /v1.0.
func (fg *fakeGraph) handle(method, path string, h http.HandlerFunc) {
	fg.mu.Lock()
	defer fg.mu.Unlock()
	fg.routes[method+" /v1.0"+path] = h
}

func (fg *fakeGraph) recorded() []recordedRequest {
	fg.mu.Lock()
	defer fg.mu.Unlock()
	return append([]recordedRequest(nil), fg.requests...)
}

func (fg *fakeGraph) client(timeout time.Duration) *Client {
	return NewClient(testCredentials(fg.URL), fg.URL+"/v1.0", timeout, nil)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func jsonHandler(status int, v any) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, status, v)
	}
}

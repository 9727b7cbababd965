package telegram

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

const testToken = "123:secret"

// fakeAPI is an in-process Bot API. Handlers are keyed by method name.
type fakeAPI struct {
	t      *testing.T
	server *httptest.Server

	mu       sync.Mutex
	handlers map[string]http.HandlerFunc
	bodies   map[string][][]byte
	files    map[string][]byte
}

func newFakeAPI(t *testing.T) *fakeAPI {
	t.Helper()
	f := &fakeAPI{
		t:        t,
		handlers: map[string]http.HandlerFunc{},
		bodies:   map[string][][]byte{},
		files:    map[string][]byte{},
	}
	f.server = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeAPI) serve(w http.ResponseWriter, r *http.Request) {
	filePrefix := "/file/bot" + testToken + "/"
	if strings.HasPrefix(r.URL.Path, filePrefix) {
		f.mu.Lock()
		data, ok := f.files[strings.TrimPrefix(r.URL.Path, filePrefix)]
		f.mu.Unlock()
		if !ok {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write(data)
		return
	}

	prefix := "/bot" + testToken + "/"
	if !strings.HasPrefix(r.URL.Path, prefix) {
		http.NotFound(w, r)
		return
	}
	method := strings.TrimPrefix(r.URL.Path, prefix)

	body, _ := io.ReadAll(r.Body)
	r.Body = io.NopCloser(strings.NewReader(string(body)))

	f.mu.Lock()
	f.bodies[method] = append(f.bodies[method], body)
	h, ok := f.handlers[method]
	f.mu.Unlock()

	if !ok {
		writeJSON(w, map[string]any{"ok": false, "error_code": 404, "description": "Not Found: method not found"})
		return
	}
	h(w, r)
}

func (f *fakeAPI) handle(method string, h http.HandlerFunc) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers[method] = h
}

// ok registers a handler that always returns result.
func (f *fakeAPI) ok(method string, result any) {
	f.handle(method, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"ok": true, "result": result})
	})
}

// file serves data at the download path for filePath.
func (f *fakeAPI) file(filePath string, data []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.files[filePath] = data
}

func (f *fakeAPI) requests(method string) [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]byte(nil), f.bodies[method]...)
}

func (f *fakeAPI) client() *Client {
	f.t.Helper()
	c, err := NewClient(ClientConfig{Token: testToken, BaseURL: f.server.URL})
	require.NoError(f.t, err)
	return c
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/FR-TheFury/medic-ai-sub000/internal/core"
	"github.com/FR-TheFury/medic-ai-sub000/internal/domain/repository"
	"github.com/FR-TheFury/medic-ai-sub000/internal/infrastructure/apiclient"
	"github.com/FR-TheFury/medic-ai-sub000/internal/infrastructure/notify"
	"github.com/FR-TheFury/medic-ai-sub000/internal/infrastructure/querycache"
	"github.com/FR-TheFury/medic-ai-sub000/internal/logger"
	"github.com/stretchr/testify/require"
)

type routes map[string]http.HandlerFunc

// fakeBackend answers the epidemiology API. Unknown routes get a 404 with a
// detail, like the real backend.
type fakeBackend struct {
	mu     sync.Mutex
	hits   map[string]int
	routes routes
}

func (b *fakeBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	key := r.Method + " " + r.URL.Path
	b.hits[key]++
	h, ok := b.routes[key]
	b.mu.Unlock()
	w.Header().Set("Content-Type", "application/json")
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"detail":"Not Found"}`))
		return
	}
	h(w, r)
}

func (b *fakeBackend) count(key string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.hits[key]
}

func (b *fakeBackend) set(key string, h http.HandlerFunc) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.routes[key] = h
}

func reply(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}
}

func ok(body string) http.HandlerFunc { return reply(http.StatusOK, body) }

type testEnv struct {
	t       *testing.T
	router  http.Handler
	backend *fakeBackend
	notices *notify.Center
	session *core.Session
}

func newTestEnv(t *testing.T, r routes) *testEnv {
	t.Helper()
	if r == nil {
		r = routes{}
	}
	if _, set := r["GET /"]; !set {
		r["GET /"] = ok(`{"message":"ok"}`)
	}
	backend := &fakeBackend{hits: make(map[string]int), routes: r}
	srv := httptest.NewServer(backend)
	t.Cleanup(srv.Close)

	log := logger.NewNop()
	ctx := context.Background()
	notices := notify.NewCenter(20)

	store := repository.NewFileSessionStore(filepath.Join(t.TempDir(), "session.json"))
	session, err := core.NewSession(ctx, store, notices, log, core.SessionOptions{})
	require.NoError(t, err)

	client := apiclient.New(apiclient.Options{BaseURL: srv.URL, Timeout: 2 * time.Second, ProbeTimeout: time.Second}, session, notices, log)
	session.SetBackend(client.Auth)

	cache, err := querycache.New(querycache.Config{
		MaxSizeMB:   1,
		CounterSize: 1000,
		DefaultTTL:  time.Minute,
		TTLs:        core.CacheTTLs(time.Minute, time.Minute),
	}, log)
	require.NoError(t, err)
	t.Cleanup(cache.Close)

	monitor := core.NewMonitor(client, core.MonitorOptions{Interval: time.Hour, Burst: 10, MinGap: time.Millisecond}, log)
	catalog := core.NewCatalog(client, cache, notices, nil, log)

	h := NewHandler(Services{
		Session:     session,
		Monitor:     monitor,
		Notices:     notices,
		Dashboard:   core.NewDashboardService(catalog, monitor, repository.NewMemorySnapshotStore(), log),
		Catalog:     catalog,
		Predictions: core.NewPredictionService(client.Predictions, nil, notices, log),
	}, log)

	return &testEnv{t: t, router: NewRouter(h), backend: backend, notices: notices, session: session}
}

// login authenticates the session against the fake token endpoint.
func (e *testEnv) login() {
	e.t.Helper()
	e.backend.set("POST /token", ok(`{"access_token":"opaque-token","token_type":"bearer"}`))
	rec := e.do(http.MethodPost, "/api/auth/login", map[string]string{"username": "alice", "password": "secret1"})
	require.Equal(e.t, http.StatusOK, rec.Code, rec.Body.String())
}

func (e *testEnv) do(method, path string, body interface{}) *httptest.ResponseRecorder {
	e.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(e.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) upload(path string, fields map[string]string, filename string, content []byte) *httptest.ResponseRecorder {
	e.t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(e.t, mw.WriteField(k, v))
	}
	if filename != "" {
		part, err := mw.CreateFormFile("file", filename)
		require.NoError(e.t, err)
		_, err = part.Write(content)
		require.NoError(e.t, err)
	}
	require.NoError(e.t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func errorOf(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var body ErrorResponse
	decodeBody(t, rec, &body)
	return body
}

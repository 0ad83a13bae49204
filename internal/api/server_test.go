package api

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Blakeem/mdstore/internal/addressing"
	"github.com/Blakeem/mdstore/internal/config"
	"github.com/Blakeem/mdstore/internal/docstore"
	"github.com/Blakeem/mdstore/internal/metrics"
	"github.com/Blakeem/mdstore/internal/mutate"
)

const apiDoc = `# Guide

intro

## Setup

setup body

## Tasks

### Ship it

ship body
`

func newTestServer(t *testing.T, apiKey string) (*Server, string) {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "guide.md"), []byte(apiDoc), 0o644))

	src, err := docstore.NewSource(root)
	require.NoError(t, err)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	reg := prometheus.NewRegistry()
	met := metrics.New(reg)
	docs := docstore.NewManager(src, 0, 0, log, met)
	cache := addressing.NewCache(0, met)
	docs.Subscribe(func(p string) { cache.InvalidateDocument(p) })
	resolver := addressing.NewResolver(cache, docs)
	engine := mutate.NewEngine(0)

	cfg := config.Config{Port: "0", DocsRoot: root, APIKey: apiKey}
	return NewServer(docs, resolver, engine, met, reg, log, cfg), root
}

func doJSON(t *testing.T, s *Server, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, target, rd)
	w := httptest.NewRecorder()
	s.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &m))
	return m
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t, "")
	w := doJSON(t, s, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestAuth(t *testing.T) {
	s, _ := newTestServer(t, "secret")

	w := doJSON(t, s, http.MethodGet, "/api/documents?path=guide.md", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"error":"missing authorization"}`, w.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/api/documents?path=guide.md", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":"invalid api key"}`, rec.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/api/documents?path=guide.md", nil)
	req.Header.Set("Authorization", "Bearer secret")
	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	// Health stays public even with a key configured.
	w = doJSON(t, s, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestGetDocument(t *testing.T) {
	s, _ := newTestServer(t, "")

	w := doJSON(t, s, http.MethodGet, "/api/documents?path=guide.md", nil)
	require.Equal(t, http.StatusOK, w.Code)
	m := decode(t, w)
	assert.Equal(t, "guide.md", m["path"])
	assert.Equal(t, "Guide", m["title"])
	assert.NotEmpty(t, m["revision"])
	assert.NotEmpty(t, m["toc"])

	tasks, ok := m["tasks"].([]any)
	require.True(t, ok, "tasks list expected, got %v", m["tasks"])
	require.Len(t, tasks, 1)
	task := tasks[0].(map[string]any)
	assert.Equal(t, "ship-it", task["slug"])
	assert.Equal(t, "guide/tasks/ship-it", task["path"])
}

func TestGetDocument_Errors(t *testing.T) {
	s, _ := newTestServer(t, "")

	w := doJSON(t, s, http.MethodGet, "/api/documents", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, s, http.MethodGet, "/api/documents?path=missing.md", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetSection(t *testing.T) {
	s, _ := newTestServer(t, "")

	w := doJSON(t, s, http.MethodGet, "/api/sections?doc=guide.md&ref=setup", nil)
	require.Equal(t, http.StatusOK, w.Code)
	m := decode(t, w)
	assert.Equal(t, "setup body", m["body"])
}

func TestGetSection_StructuredFailure(t *testing.T) {
	s, _ := newTestServer(t, "")

	w := doJSON(t, s, http.MethodGet, "/api/sections?doc=guide.md&ref=guide/nope", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
	m := decode(t, w)
	assert.Equal(t, "no-such-segment", m["reason"])
	assert.Equal(t, "guide", m["matched_prefix"])
	assert.Contains(t, m["suggestions"], "setup")
}

func TestEditSection(t *testing.T) {
	s, _ := newTestServer(t, "")

	before := decode(t, doJSON(t, s, http.MethodGet, "/api/documents?path=guide.md", nil))

	w := doJSON(t, s, http.MethodPost, "/api/sections/edit", editRequest{
		Doc:       "guide.md",
		Reference: "setup",
		Operation: "append_child",
		Title:     "Extras",
		Body:      "extra body",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	m := decode(t, w)
	assert.Equal(t, float64(3), m["depth"])
	assert.NotEqual(t, before["revision"], m["revision"], "a persisted edit must mint a new revision")

	// The new section is readable through the normal path.
	w = doJSON(t, s, http.MethodGet, "/api/sections?doc=guide.md&ref=guide/setup/extras", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "extra body", decode(t, w)["body"])
}

func TestEditSection_Errors(t *testing.T) {
	s, _ := newTestServer(t, "")

	// Missing title on an insertion is a structural conflict.
	w := doJSON(t, s, http.MethodPost, "/api/sections/edit", editRequest{
		Doc:       "guide.md",
		Reference: "setup",
		Operation: "insert_after",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = doJSON(t, s, http.MethodPost, "/api/sections/edit", editRequest{
		Doc:       "guide.md",
		Reference: "nope",
		Operation: "replace",
	})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, s, http.MethodPost, "/api/sections/edit", editRequest{Doc: "guide.md"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestResolveAddress(t *testing.T) {
	s, _ := newTestServer(t, "")

	w := doJSON(t, s, http.MethodPost, "/api/addresses/resolve", resolveRequest{
		Raw: "guide.md#setup",
	})
	require.Equal(t, http.StatusOK, w.Code)
	m := decode(t, w)
	assert.Equal(t, "section", m["kind"])
	assert.Equal(t, "guide/setup", m["slug_path"])

	w = doJSON(t, s, http.MethodPost, "/api/addresses/resolve", resolveRequest{
		Raw:  "guide.md#ship-it",
		Kind: "task",
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "task", decode(t, w)["kind"])

	// A bare slug with no context document cannot be resolved.
	w = doJSON(t, s, http.MethodPost, "/api/addresses/resolve", resolveRequest{Raw: "setup"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestInvalidate(t *testing.T) {
	s, _ := newTestServer(t, "")

	_ = decode(t, doJSON(t, s, http.MethodGet, "/api/documents?path=guide.md", nil))

	w := doJSON(t, s, http.MethodPost, "/api/cache/invalidate", map[string]string{"path": "guide.md"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "guide.md", decode(t, w)["invalidated"])
	assert.Zero(t, s.docs.Len())
}

func TestMetricsEndpoint(t *testing.T) {
	s, _ := newTestServer(t, "")

	_ = doJSON(t, s, http.MethodGet, "/api/documents?path=guide.md", nil)

	w := doJSON(t, s, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "mdstore_cache_misses_total")
}

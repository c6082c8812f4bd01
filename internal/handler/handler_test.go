package handler

import (
	"bytes"
	"encoding/json"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"flowpad/internal/domain"
	"flowpad/internal/export"
	"flowpad/internal/metrics"
	"flowpad/internal/service"
)

type testServer struct {
	handler http.Handler
	editor  *service.Editor
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	n := 0
	opts := service.DefaultOptions()
	opts.IDGenerator = func() string {
		n++
		return "id" + strconv.Itoa(n)
	}

	collector := metrics.NewCollector("flowpad_test")
	editor := service.NewEditor(domain.DefaultGraph(), service.NewEventBus(), zap.NewNop(), collector, opts)

	renderer, err := export.NewRenderer(export.DefaultOptions())
	require.NoError(t, err)
	cache, err := export.NewCache(renderer, 4, collector)
	require.NoError(t, err)

	router := NewRouter(NewEditorHandler(editor, cache, zap.NewNop()), nil, collector, zap.NewNop(),
		[]string{"http://localhost:5173"})
	return &testServer{handler: router.Setup(), editor: editor}
}

func (s *testServer) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) snapshot(t *testing.T, method, path, body string) service.Snapshot {
	t.Helper()
	rec := s.do(t, method, path, body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var snap service.Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	return snap
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestGetGraph(t *testing.T) {
	s := newTestServer(t)
	snap := s.snapshot(t, http.MethodGet, "/api/graph", "")

	assert.Len(t, snap.Nodes, 5)
	assert.Len(t, snap.Edges, 4)
	assert.Zero(t, snap.Revision)
	assert.False(t, snap.CanUndo)
}

func TestConnectAndUndo(t *testing.T) {
	s := newTestServer(t)

	snap := s.snapshot(t, http.MethodPost, "/api/connect", `{"source":"1","target":"3"}`)
	require.Len(t, snap.Edges, 5)
	assert.True(t, snap.HasEdge("reactflow__edge-1-3"))
	assert.True(t, snap.CanUndo)
	assert.Equal(t, uint64(1), snap.Revision)

	// Connecting the same handles again changes nothing.
	snap = s.snapshot(t, http.MethodPost, "/api/connect", `{"source":"1","target":"3"}`)
	assert.Len(t, snap.Edges, 5)
	assert.Equal(t, uint64(1), snap.Revision)

	snap = s.snapshot(t, http.MethodPost, "/api/history/undo", "")
	assert.Len(t, snap.Edges, 4)
	assert.True(t, snap.CanRedo)

	snap = s.snapshot(t, http.MethodPost, "/api/history/redo", "")
	assert.Len(t, snap.Edges, 5)

	snap = s.snapshot(t, http.MethodDelete, "/api/history", "")
	assert.False(t, snap.CanUndo)
	assert.False(t, snap.CanRedo)
}

func TestMissingReferencesAreNoOps(t *testing.T) {
	s := newTestServer(t)

	snap := s.snapshot(t, http.MethodPost, "/api/connect", `{"source":"1","target":"missing"}`)
	assert.Len(t, snap.Edges, 4)

	snap = s.snapshot(t, http.MethodDelete, "/api/edges/missing", "")
	assert.Len(t, snap.Edges, 4)

	snap = s.snapshot(t, http.MethodPost, "/api/nodes/missing/derive", `{"position":{"x":1,"y":1}}`)
	assert.Len(t, snap.Nodes, 5)
	assert.Zero(t, snap.Revision)
}

func TestInvalidBodies(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name string
		path string
		body string
	}{
		{"malformed json", "/api/nodes/changes", `{`},
		{"missing changes", "/api/nodes/changes", `{}`},
		{"unknown change type", "/api/nodes/changes", `{"changes":[{"type":"bogus","id":"1"}]}`},
		{"unknown edge change type", "/api/edges/changes", `{"changes":[{"type":"position","id":"e1-2"}]}`},
		{"connection without target", "/api/connect", `{"source":"1"}`},
		{"connect end without source", "/api/connect-end", `{"over_pane":true}`},
		{"derive without position", "/api/nodes/1/derive", `{}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(t, http.MethodPost, tt.path, tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, "Invalid request body", decodeError(t, rec).Error)
		})
	}

	assert.Zero(t, s.editor.Snapshot().Revision)
}

func TestNodeChangesAndDerive(t *testing.T) {
	s := newTestServer(t)

	snap := s.snapshot(t, http.MethodPost, "/api/nodes/changes",
		`{"changes":[{"type":"position","id":"1","position":{"x":5,"y":6},"dragging":true}]}`)
	n, ok := snap.Node("1")
	require.True(t, ok)
	assert.Equal(t, domain.XYPosition{X: 5, Y: 6}, n.Position)

	snap = s.snapshot(t, http.MethodPost, "/api/nodes/2/derive", `{"position":{"x":40,"y":50}}`)
	assert.Len(t, snap.Nodes, 6)
	assert.Len(t, snap.Edges, 5)

	snap = s.snapshot(t, http.MethodPost, "/api/connect-end",
		`{"source_id":"1","start":{"x":10,"y":10},"end":{"x":60,"y":110},"over_pane":true}`)
	assert.Len(t, snap.Nodes, 7)

	snap = s.snapshot(t, http.MethodPost, "/api/connect-end",
		`{"source_id":"1","start":{"x":10,"y":10},"end":{"x":60,"y":110},"over_pane":false}`)
	assert.Len(t, snap.Nodes, 7)

	snap = s.snapshot(t, http.MethodDelete, "/api/edges/e1-2", "")
	assert.False(t, snap.HasEdge("e1-2"))
}

func TestClickModal(t *testing.T) {
	s := newTestServer(t)

	snap := s.snapshot(t, http.MethodPost, "/api/nodes/1/click", "")
	assert.False(t, snap.ShowModal)

	snap = s.snapshot(t, http.MethodPost, "/api/nodes/5/click", "")
	assert.True(t, snap.ShowModal)
	assert.Equal(t, `You clicked on the "Triangular" node.`, snap.ModalInfo)
	assert.Zero(t, snap.Revision)

	snap = s.snapshot(t, http.MethodDelete, "/api/modal", "")
	assert.False(t, snap.ShowModal)
}

func TestClipboardRoutes(t *testing.T) {
	s := newTestServer(t)

	snap := s.snapshot(t, http.MethodPost, "/api/clipboard/paste", "")
	assert.False(t, snap.CanPaste)
	assert.Len(t, snap.Nodes, 5)

	snap = s.snapshot(t, http.MethodPut, "/api/selection", `{"nodes":["1","2"],"edges":["e1-2"]}`)
	assert.True(t, snap.CanCopy)

	snap = s.snapshot(t, http.MethodPost, "/api/clipboard/copy", "")
	assert.True(t, snap.CanPaste)

	snap = s.snapshot(t, http.MethodPost, "/api/clipboard/paste", "")
	assert.Len(t, snap.Nodes, 7)
	assert.Len(t, snap.Edges, 5)

	snap = s.snapshot(t, http.MethodPost, "/api/clipboard/cut", "")
	assert.Len(t, snap.Nodes, 5)
	assert.False(t, snap.CanCopy)
}

func TestListKinds(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodGet, "/api/kinds", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var kinds []domain.KindSpec
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &kinds))
	assert.Len(t, kinds, 5)
	assert.Equal(t, domain.KindInput, kinds[0].Kind)
}

func TestExportPNG(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/api/export/png?width=120&height=80", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))

	img, err := png.Decode(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, 120, img.Bounds().Dx())
	assert.Equal(t, 80, img.Bounds().Dy())

	rec = s.do(t, http.MethodGet, "/api/export/png?width=abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/export/png?width=99999", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid export size", decodeError(t, rec).Error)
}

func TestExportTransform(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodGet, "/api/export/transform", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp transformResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1024, resp.Width)
	assert.Equal(t, 768, resp.Height)
	assert.Equal(t, domain.RectOfNodes(domain.DefaultGraph().Nodes), resp.Bounds)
	assert.GreaterOrEqual(t, resp.Transform.Zoom, domain.DefaultMinZoom)
	assert.LessOrEqual(t, resp.Transform.Zoom, domain.DefaultMaxZoom)
}

func TestExportImportDocuments(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/api/export/yaml", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/x-yaml", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "Input Node")

	rec = s.do(t, http.MethodGet, "/api/export/json", "")
	require.Equal(t, http.StatusOK, rec.Code)
	exported := rec.Body.String()

	rec = s.do(t, http.MethodGet, "/api/export/ansible", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// A document with a dangling edge is rejected and leaves state alone.
	rec = s.do(t, http.MethodPost, "/api/import/yaml",
		"nodes:\n  - id: a\n    type: default\nedges:\n  - id: e\n    source: a\n    target: b\n")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, s.editor.Snapshot().Revision)

	snap := s.snapshot(t, http.MethodPost, "/api/import/yaml",
		"nodes:\n  - id: a\n    type: input\n    data:\n      label: A\n")
	assert.Len(t, snap.Nodes, 1)
	assert.Empty(t, snap.Edges)
	assert.Equal(t, uint64(1), snap.Revision)
	assert.False(t, snap.CanUndo)

	snap = s.snapshot(t, http.MethodPost, "/api/import/json", exported)
	assert.Len(t, snap.Nodes, 5)
	assert.Len(t, snap.Edges, 4)
}

func TestInfrastructureRoutes(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","revision":0}`, rec.Body.String())

	s.do(t, http.MethodGet, "/api/graph", "")
	rec = s.do(t, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `flowpad_test_http_requests_total{method="GET",route="/api/graph",status="200"} 1`)
	assert.Contains(t, rec.Body.String(), "flowpad_test_graph_nodes 5")

	rec = s.do(t, http.MethodGet, "/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/graph", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
}

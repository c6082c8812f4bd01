package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"flowpad/internal/clipboard"
	"flowpad/internal/domain"
	"flowpad/internal/export"
	"flowpad/internal/service"
	"flowpad/internal/validation"
)

// maxBodyBytes caps request bodies, imported documents included
const maxBodyBytes = 8 << 20

// EditorHandler handles diagram API requests
type EditorHandler struct {
	editor  *service.Editor
	exports *export.Cache
	logger  *zap.Logger
}

// NewEditorHandler creates a new editor handler
func NewEditorHandler(editor *service.Editor, exports *export.Cache, logger *zap.Logger) *EditorHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EditorHandler{editor: editor, exports: exports, logger: logger}
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

type nodeChangesRequest struct {
	Changes []domain.NodeChange `json:"changes" validate:"required,dive"`
}

type edgeChangesRequest struct {
	Changes []domain.EdgeChange `json:"changes" validate:"required,dive"`
}

type deriveRequest struct {
	Position *domain.XYPosition `json:"position" validate:"required"`
}

// GetGraph returns the current snapshot
func (h *EditorHandler) GetGraph(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, h.editor.Snapshot(), http.StatusOK)
}

// ApplyNodeChanges applies canvas node deltas
func (h *EditorHandler) ApplyNodeChanges(w http.ResponseWriter, r *http.Request) {
	var req nodeChangesRequest
	if !h.decode(w, r, &req) {
		return
	}
	h.writeJSON(w, h.editor.ApplyNodeChanges(req.Changes), http.StatusOK)
}

// ApplyEdgeChanges applies canvas edge deltas
func (h *EditorHandler) ApplyEdgeChanges(w http.ResponseWriter, r *http.Request) {
	var req edgeChangesRequest
	if !h.decode(w, r, &req) {
		return
	}
	h.writeJSON(w, h.editor.ApplyEdgeChanges(req.Changes), http.StatusOK)
}

// Connect joins two handles with an edge
func (h *EditorHandler) Connect(w http.ResponseWriter, r *http.Request) {
	var req domain.Connection
	if !h.decode(w, r, &req) {
		return
	}
	h.writeJSON(w, h.editor.Connect(req), http.StatusOK)
}

// ConnectEnd finishes a connection gesture
func (h *EditorHandler) ConnectEnd(w http.ResponseWriter, r *http.Request) {
	var req domain.ConnectEnd
	if !h.decode(w, r, &req) {
		return
	}
	h.writeJSON(w, h.editor.ConnectEnd(req), http.StatusOK)
}

// DeriveNode spawns a connected copy of a node
func (h *EditorHandler) DeriveNode(w http.ResponseWriter, r *http.Request) {
	var req deriveRequest
	if !h.decode(w, r, &req) {
		return
	}
	h.writeJSON(w, h.editor.AddDerivedNode(chi.URLParam(r, "id"), *req.Position), http.StatusOK)
}

// DeleteEdge removes one edge by id
func (h *EditorHandler) DeleteEdge(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, h.editor.DeleteEdge(chi.URLParam(r, "id")), http.StatusOK)
}

// ClickNode reacts to a node click
func (h *EditorHandler) ClickNode(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, h.editor.ClickNode(chi.URLParam(r, "id")), http.StatusOK)
}

// DismissModal closes the modal
func (h *EditorHandler) DismissModal(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, h.editor.DismissModal(), http.StatusOK)
}

// SetSelection replaces the tracked selection
func (h *EditorHandler) SetSelection(w http.ResponseWriter, r *http.Request) {
	var req clipboard.Selection
	if !h.decode(w, r, &req) {
		return
	}
	h.writeJSON(w, h.editor.SetSelection(req), http.StatusOK)
}

// Cut moves the selection to the clipboard
func (h *EditorHandler) Cut(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, h.editor.Cut(), http.StatusOK)
}

// Copy copies the selection to the clipboard
func (h *EditorHandler) Copy(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, h.editor.Copy(), http.StatusOK)
}

// Paste inserts the clipboard contents
func (h *EditorHandler) Paste(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, h.editor.Paste(), http.StatusOK)
}

// Undo steps back in history
func (h *EditorHandler) Undo(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, h.editor.Undo(), http.StatusOK)
}

// Redo steps forward in history
func (h *EditorHandler) Redo(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, h.editor.Redo(), http.StatusOK)
}

// ClearHistory drops both history stacks
func (h *EditorHandler) ClearHistory(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, h.editor.ClearHistory(), http.StatusOK)
}

// ListKinds returns the node kind registry
func (h *EditorHandler) ListKinds(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, domain.Kinds(), http.StatusOK)
}

// Health reports liveness
func (h *EditorHandler) Health(w http.ResponseWriter, r *http.Request) {
	_, revision := h.editor.Graph()
	h.writeJSON(w, map[string]any{"status": "ok", "revision": revision}, http.StatusOK)
}

// Helper methods

// decode reads a JSON body into v and validates it, writing a 400 on failure
func (h *EditorHandler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		h.writeError(w, "Invalid request body", err.Error(), http.StatusBadRequest)
		return false
	}
	if err := validation.Struct(v); err != nil {
		status := http.StatusBadRequest
		if !errors.Is(err, validation.ErrInvalid) {
			status = http.StatusInternalServerError
		}
		h.writeError(w, "Invalid request body", err.Error(), status)
		return false
	}
	return true
}

func (h *EditorHandler) writeJSON(w http.ResponseWriter, data any, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode JSON", zap.Error(err))
	}
}

func (h *EditorHandler) writeError(w http.ResponseWriter, error, details string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(ErrorResponse{
		Error:   error,
		Details: details,
	}); err != nil {
		h.logger.Error("failed to encode error response", zap.Error(err))
	}
}

func attachment(name string) string {
	return fmt.Sprintf("attachment; filename=%s", name)
}

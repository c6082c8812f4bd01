package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"flowpad/internal/codec"
	"flowpad/internal/domain"
	"flowpad/internal/export"
)

var contentTypes = map[string]string{
	"json": "application/json",
	"yaml": "application/x-yaml",
}

var extensions = map[string]string{
	"json": "json",
	"yaml": "yml",
}

type transformResponse struct {
	Transform domain.Transform `json:"transform"`
	Bounds    domain.Rect      `json:"bounds"`
	Width     int              `json:"width"`
	Height    int              `json:"height"`
}

// ExportPNG renders the diagram as a PNG image
func (h *EditorHandler) ExportPNG(w http.ResponseWriter, r *http.Request) {
	width, height, ok := h.frameSize(w, r)
	if !ok {
		return
	}

	g, revision := h.editor.Graph()
	data, err := h.exports.PNG(g, revision, width, height)
	if err != nil {
		h.writeExportError(w, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Disposition", attachment("diagram.png"))
	if _, err := w.Write(data); err != nil {
		h.logger.Debug("failed to write PNG", zap.Error(err))
	}
}

// ExportTransform returns the viewport that fits the diagram into a frame
func (h *EditorHandler) ExportTransform(w http.ResponseWriter, r *http.Request) {
	width, height, ok := h.frameSize(w, r)
	if !ok {
		return
	}

	renderer := h.exports.Renderer()
	width, height, err := renderer.Size(width, height)
	if err != nil {
		h.writeExportError(w, err)
		return
	}

	g, _ := h.editor.Graph()
	h.writeJSON(w, transformResponse{
		Transform: renderer.Transform(g, width, height),
		Bounds:    domain.RectOfNodes(g.Nodes),
		Width:     width,
		Height:    height,
	}, http.StatusOK)
}

// ExportDocument writes the diagram as a JSON or YAML document
func (h *EditorHandler) ExportDocument(w http.ResponseWriter, r *http.Request) {
	c, err := codec.ForFormat(chi.URLParam(r, "format"))
	if err != nil {
		h.writeError(w, "Unknown export format", err.Error(), http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", contentTypes[c.Format()])
	w.Header().Set("Content-Disposition", attachment("diagram."+extensions[c.Format()]))
	if err := h.editor.Export(c, w); err != nil {
		h.logger.Error("failed to export diagram", zap.String("format", c.Format()), zap.Error(err))
		// Can't write error response as we already set headers
	}
}

// ImportDocument replaces the diagram with an uploaded document
func (h *EditorHandler) ImportDocument(w http.ResponseWriter, r *http.Request) {
	c, err := codec.ForFormat(chi.URLParam(r, "format"))
	if err != nil {
		h.writeError(w, "Unknown import format", err.Error(), http.StatusNotFound)
		return
	}

	snap, err := h.editor.Import(c, http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, domain.ErrInvalidDocument) {
			status = http.StatusBadRequest
		}
		h.logger.Warn("failed to import diagram", zap.String("format", c.Format()), zap.Error(err))
		h.writeError(w, "Failed to import diagram", err.Error(), status)
		return
	}

	h.writeJSON(w, snap, http.StatusOK)
}

// frameSize parses the optional width and height query parameters
func (h *EditorHandler) frameSize(w http.ResponseWriter, r *http.Request) (int, int, bool) {
	var size [2]int
	for i, name := range []string{"width", "height"} {
		raw := r.URL.Query().Get(name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			h.writeError(w, "Invalid "+name, err.Error(), http.StatusBadRequest)
			return 0, 0, false
		}
		size[i] = n
	}
	return size[0], size[1], true
}

func (h *EditorHandler) writeExportError(w http.ResponseWriter, err error) {
	if errors.Is(err, export.ErrInvalidSize) {
		h.writeError(w, "Invalid export size", err.Error(), http.StatusBadRequest)
		return
	}
	h.logger.Error("failed to render diagram", zap.Error(err))
	h.writeError(w, "Failed to render diagram", err.Error(), http.StatusInternalServerError)
}

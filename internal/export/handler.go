// Package export renders the current frame of a viewer to a file: a raster
// snapshot (PNG, BMP, TIFF) or a vector PDF.
package export

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/inamate/rulergrid/internal/raster"
	"github.com/inamate/rulergrid/internal/viewer"
)

const (
	maxDimension = 8192
	formatPDF    = "pdf"
)

// Viewers resolves the viewer being exported.
type Viewers interface {
	Get(viewerID string) (*viewer.Viewer, error)
}

type Handler struct {
	viewers Viewers
}

func NewHandler(viewers Viewers) *Handler {
	return &Handler{viewers: viewers}
}

// Snapshot handles GET /viewers/{id}/snapshot.{format}. The viewport size
// defaults to the viewer's surface and can be overridden with ?width=&height=.
func (h *Handler) Snapshot(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	format := vars["format"]
	if format != formatPDF && !raster.Format(format).Supported() {
		writeError(w, http.StatusNotFound, "unsupported snapshot format: "+format)
		return
	}

	v, err := h.viewers.Get(vars["id"])
	if err != nil {
		if errors.Is(err, viewer.ErrNotFound) {
			writeError(w, http.StatusNotFound, "viewer not found")
			return
		}
		slog.Error("get viewer", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	view := v.Engine.View()
	width, height := view.Bounds.Width, view.Bounds.Height
	if width < 1 || height < 1 {
		content := view.ContentBounds()
		width, height = content.Width, content.Height
	}
	width, err = dimension(r.URL.Query().Get("width"), width)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	height, err = dimension(r.URL.Query().Get("height"), height)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	frame := v.Engine.Frame()
	layout := v.Engine.Layout()

	var buf bytes.Buffer
	contentType := "application/pdf"
	if format == formatPDF {
		err = WritePDF(&buf, frame, layout, width, height)
	} else {
		f := raster.Format(format)
		img := raster.Snapshot(frame, layout, int(width), int(height))
		err = raster.Encode(&buf, img, f)
		contentType = f.ContentType()
	}
	if err != nil {
		slog.Error("export snapshot", "error", err, "viewer", v.ID, "format", format)
		writeError(w, http.StatusInternalServerError, "export failed")
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`inline; filename="%s.%s"`, v.ID, format))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.Write(buf.Bytes())

	slog.Info("snapshot exported", "viewer", v.ID, "format", format, "size", buf.Len())
}

// dimension parses an optional size override.
func dimension(s string, fallback float64) (float64, error) {
	if s == "" {
		if fallback < 1 {
			return 1, nil
		}
		return min(fallback, maxDimension), nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 || n > maxDimension {
		return 0, fmt.Errorf("invalid size %q: must be 1-%d", s, maxDimension)
	}
	return float64(n), nil
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

package asset

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/inamate/rulergrid/internal/auth"
	"github.com/inamate/rulergrid/internal/content"
	"github.com/inamate/rulergrid/internal/typeid"
	"github.com/inamate/rulergrid/internal/viewer"
	"github.com/inamate/rulergrid/internal/viewport"
)

const maxUploadSize = 20 << 20 // 20MB

// extensions maps measured formats to the stored file extension.
var extensions = map[string]string{
	"png":  ".png",
	"jpeg": ".jpg",
	"gif":  ".gif",
	"bmp":  ".bmp",
	"tiff": ".tiff",
	"webp": ".webp",
	"svg":  ".svg",
}

// UploadResponse is returned from the upload endpoint.
type UploadResponse struct {
	ID       string  `json:"id"`
	URL      string  `json:"url"`
	Width    float64 `json:"width"`
	Height   float64 `json:"height"`
	Type     string  `json:"type"`
	Name     string  `json:"name"`
	ViewerID string  `json:"viewerId,omitempty"`
}

// Binder attaches an uploaded asset to a viewer, making its content ready.
type Binder interface {
	Bind(viewerID, assetID string, info content.Info) error
}

// Tokens resolves a viewer token to the viewer it is scoped to.
type Tokens interface {
	ValidateToken(token string) (string, error)
}

// Handler serves asset upload and retrieval endpoints.
type Handler struct {
	dir    string // directory to store asset files
	binder Binder
	tokens Tokens
}

// NewHandler creates a new asset handler that stores files in dir. Binding an
// upload to a viewer needs a token for that viewer, checked by tokens.
func NewHandler(dir string, binder Binder, tokens Tokens) *Handler {
	if err := os.MkdirAll(dir, 0755); err != nil {
		slog.Error("create asset dir", "error", err, "dir", dir)
	}
	return &Handler{dir: dir, binder: binder, tokens: tokens}
}

// Upload handles POST /assets/upload (multipart form with a "file" field and
// an optional "viewer_id"). Only the natural size is read from the file; it
// is stored as uploaded. A viewer_id must come with a bearer token scoped to
// that viewer.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		writeError(w, http.StatusBadRequest, "file too large (max 20MB)")
		return
	}
	defer r.MultipartForm.RemoveAll()

	viewerID := r.FormValue("viewer_id")
	if viewerID != "" {
		if status, msg := h.authorize(r, viewerID); status != http.StatusOK {
			writeError(w, status, msg)
			return
		}
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing file field")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read file")
		return
	}

	info, err := content.Inspect(bytes.NewReader(data))
	if err != nil {
		writeError(w, http.StatusBadRequest, "unsupported content: "+err.Error())
		return
	}
	ext, ok := extensions[info.Format]
	if !ok {
		writeError(w, http.StatusBadRequest, "unsupported content format: "+info.Format)
		return
	}

	assetID := typeid.NewAssetID()
	filename := assetID + ext
	if err := copyFile(filepath.Join(h.dir, filename), bytes.NewReader(data)); err != nil {
		slog.Error("write asset file", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to save file")
		return
	}

	if viewerID != "" && h.binder != nil {
		if err := h.binder.Bind(viewerID, assetID, info); err != nil {
			h.Delete(assetID)
			switch {
			case errors.Is(err, viewer.ErrNotFound):
				writeError(w, http.StatusNotFound, "viewer not found")
			case errors.Is(err, viewport.ErrContentReady):
				writeError(w, http.StatusConflict, "viewer already has content")
			default:
				slog.Error("bind asset", "error", err, "viewer", viewerID)
				writeError(w, http.StatusBadRequest, err.Error())
			}
			return
		}
	}

	slog.Info("asset uploaded", "asset", assetID, "format", info.Format, "width", info.Width, "height", info.Height)

	resp := UploadResponse{
		ID:       assetID,
		URL:      fmt.Sprintf("/assets/%s", filename),
		Width:    info.Width,
		Height:   info.Height,
		Type:     info.Format,
		Name:     header.Filename,
		ViewerID: viewerID,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(resp)
}

// authorize checks that the request carries a token for viewerID.
func (h *Handler) authorize(r *http.Request, viewerID string) (int, string) {
	token, ok := auth.TokenFromRequest(r)
	if !ok || h.tokens == nil {
		return http.StatusUnauthorized, "missing authorization"
	}
	subject, err := h.tokens.ValidateToken(token)
	if err != nil {
		return http.StatusUnauthorized, "invalid token"
	}
	if subject != viewerID {
		return http.StatusForbidden, "token not valid for this viewer"
	}
	return http.StatusOK, ""
}

// Serve returns an http.Handler that serves stored asset files with caching headers.
func (h *Handler) Serve() http.Handler {
	fs := http.FileServer(http.Dir(h.dir))
	return http.StripPrefix("/assets/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Asset IDs are unique, so files are immutable
		w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
		fs.ServeHTTP(w, r)
	}))
}

// Delete removes an asset file from disk (for cleanup).
func (h *Handler) Delete(assetID string) error {
	for _, ext := range extensions {
		path := filepath.Join(h.dir, assetID+ext)
		if err := os.Remove(path); err == nil {
			return nil
		}
	}
	return fmt.Errorf("asset not found: %s", assetID)
}

// copyFile copies src reader to a file at dst path.
func copyFile(dst string, src io.Reader) error {
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, src); err != nil {
		out.Close()
		os.Remove(dst)
		return err
	}
	return out.Close()
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

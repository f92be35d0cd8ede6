package viewer

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/inamate/rulergrid/internal/auth"
	"github.com/inamate/rulergrid/internal/content"
	"github.com/inamate/rulergrid/internal/engine"
	"github.com/inamate/rulergrid/internal/geom"
	"github.com/inamate/rulergrid/internal/projection"
	"github.com/inamate/rulergrid/internal/viewport"
)

type Handler struct {
	service *Service
	auth    *auth.Service
}

func NewHandler(service *Service, authService *auth.Service) *Handler {
	return &Handler{service: service, auth: authService}
}

type createRequest struct {
	AccessKey   string  `json:"accessKey"`
	Width       float64 `json:"width"`
	Height      float64 `json:"height"`
	Placeholder bool    `json:"placeholder"`
}

type createResponse struct {
	Viewer Summary `json:"viewer"`
	Token  string  `json:"token"`
}

type panRequest struct {
	DX float64 `json:"dx"`
	DY float64 `json:"dy"`
}

type zoomRequest struct {
	Factor float64  `json:"factor"`
	DeltaY *float64 `json:"deltaY"`
	X      float64  `json:"x"`
	Y      float64  `json:"y"`
}

type frameResponse struct {
	Changed bool             `json:"changed"`
	View    engine.ViewState `json:"view"`
	Frame   projection.Frame `json:"frame"`
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if err := h.auth.CheckAccessKey(req.AccessKey); err != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid access key"})
		return
	}

	var info *content.Info
	switch {
	case req.Width != 0 || req.Height != 0:
		info = &content.Info{Width: req.Width, Height: req.Height, Format: "client"}
	case req.Placeholder:
		p := content.Placeholder()
		info = &p
	}

	v, err := h.service.Create(info)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	token, err := h.auth.IssueToken(v.ID)
	if err != nil {
		slog.Error("issue viewer token", "error", err, "viewer", v.ID)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}

	writeJSON(w, http.StatusCreated, createResponse{Viewer: v.Summary(), Token: token})
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	v, ok := h.viewer(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"viewer": v.Summary(),
		"frame":  v.Engine.Frame(),
	})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	viewers := h.service.List()
	out := make([]Summary, len(viewers))
	for i, v := range viewers {
		out[i] = v.Summary()
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(mux.Vars(r)["id"]); err != nil {
		handleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Pan(w http.ResponseWriter, r *http.Request) {
	v, ok := h.viewer(w, r)
	if !ok {
		return
	}
	var req panRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	writeFrame(w, v, v.Engine.Pan(req.DX, req.DY))
}

func (h *Handler) Zoom(w http.ResponseWriter, r *http.Request) {
	v, ok := h.viewer(w, r)
	if !ok {
		return
	}
	var req zoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	var changed bool
	if req.DeltaY != nil && req.Factor == 0 {
		changed = v.Engine.Wheel(*req.DeltaY, req.X, req.Y)
	} else {
		changed = v.Engine.Zoom(req.Factor, req.X, req.Y)
	}
	writeFrame(w, v, changed)
}

func (h *Handler) ZoomIn(w http.ResponseWriter, r *http.Request) {
	v, ok := h.viewer(w, r)
	if !ok {
		return
	}
	writeFrame(w, v, v.Engine.ZoomIn())
}

func (h *Handler) ZoomOut(w http.ResponseWriter, r *http.Request) {
	v, ok := h.viewer(w, r)
	if !ok {
		return
	}
	writeFrame(w, v, v.Engine.ZoomOut())
}

func (h *Handler) Resize(w http.ResponseWriter, r *http.Request) {
	v, ok := h.viewer(w, r)
	if !ok {
		return
	}
	var req geom.Rect
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Width < 0 || req.Height < 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "width and height must not be negative"})
		return
	}
	v.Engine.Resize(req)
	writeFrame(w, v, v.Engine.State().Ready())
}

// Content handles POST /viewers/{id}/content: the client reports the
// natural size of content it loaded itself.
func (h *Handler) Content(w http.ResponseWriter, r *http.Request) {
	v, ok := h.viewer(w, r)
	if !ok {
		return
	}
	var req content.Info
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Format == "" {
		req.Format = "client"
	}
	if err := v.Bind("", req); err != nil {
		handleServiceError(w, err)
		return
	}
	writeFrame(w, v, true)
}

func (h *Handler) HitTest(w http.ResponseWriter, r *http.Request) {
	v, ok := h.viewer(w, r)
	if !ok {
		return
	}
	x, errX := strconv.ParseFloat(r.URL.Query().Get("x"), 64)
	y, errY := strconv.ParseFloat(r.URL.Query().Get("y"), 64)
	if errX != nil || errY != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "x and y query parameters are required"})
		return
	}
	writeJSON(w, http.StatusOK, v.Engine.HitTest(x, y))
}

// Commands returns the current frame as draw commands.
func (h *Handler) Commands(w http.ResponseWriter, r *http.Request) {
	v, ok := h.viewer(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(v.Engine.Render()))
}

// Layer serves one layer of the current frame as SVG: top, left or grid.
func (h *Handler) Layer(w http.ResponseWriter, r *http.Request) {
	v, ok := h.viewer(w, r)
	if !ok {
		return
	}
	f := v.Engine.Frame()
	if !f.Ready {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "content not ready"})
		return
	}

	var write func(http.ResponseWriter) error
	switch mux.Vars(r)["layer"] {
	case projection.LayerTopRuler:
		write = func(w http.ResponseWriter) error { return f.TopRuler.WriteSVG(w) }
	case projection.LayerLeftRuler:
		write = func(w http.ResponseWriter) error { return f.LeftRuler.WriteSVG(w) }
	case projection.LayerGrid:
		write = func(w http.ResponseWriter) error { return f.Grid.WriteSVG(w) }
	default:
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown layer"})
		return
	}

	w.Header().Set("Content-Type", "image/svg+xml")
	if err := write(w); err != nil {
		slog.Error("write svg layer", "error", err, "viewer", v.ID)
	}
}

func (h *Handler) viewer(w http.ResponseWriter, r *http.Request) (*Viewer, bool) {
	v, err := h.service.Get(mux.Vars(r)["id"])
	if err != nil {
		handleServiceError(w, err)
		return nil, false
	}
	return v, true
}

func writeFrame(w http.ResponseWriter, v *Viewer, changed bool) {
	writeJSON(w, http.StatusOK, frameResponse{
		Changed: changed,
		View:    v.Engine.View(),
		Frame:   v.Engine.Frame(),
	})
}

func handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
	case errors.Is(err, viewport.ErrInvalidSize):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, viewport.ErrContentReady):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	default:
		slog.Error("service error", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

package auth

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
)

// ViewerLookup reports whether a viewer exists.
type ViewerLookup interface {
	Exists(viewerID string) bool
}

type Handler struct {
	service *Service
	viewers ViewerLookup
}

func NewHandler(service *Service, viewers ViewerLookup) *Handler {
	return &Handler{service: service, viewers: viewers}
}

type tokenRequest struct {
	ViewerID  string `json:"viewerId"`
	AccessKey string `json:"accessKey"`
}

type TokenResponse struct {
	ViewerID string `json:"viewerId"`
	Token    string `json:"token"`
}

// Token handles POST /auth/token: a token to join an existing viewer.
func (h *Handler) Token(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if req.ViewerID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "viewerId is required"})
		return
	}

	if err := h.service.CheckAccessKey(req.AccessKey); err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid access key"})
			return
		}
		slog.Error("access key check failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}

	if !h.viewers.Exists(req.ViewerID) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "viewer not found"})
		return
	}

	token, err := h.service.IssueToken(req.ViewerID)
	if err != nil {
		slog.Error("issue token failed", "error", err, "viewer", req.ViewerID)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}

	writeJSON(w, http.StatusOK, TokenResponse{ViewerID: req.ViewerID, Token: token})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

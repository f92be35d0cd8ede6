package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/inamate/rulergrid/internal/asset"
	"github.com/inamate/rulergrid/internal/auth"
	"github.com/inamate/rulergrid/internal/collab"
	"github.com/inamate/rulergrid/internal/config"
	"github.com/inamate/rulergrid/internal/export"
	mw "github.com/inamate/rulergrid/internal/middleware"
	"github.com/inamate/rulergrid/internal/projection"
	"github.com/inamate/rulergrid/internal/viewer"
	"github.com/inamate/rulergrid/internal/viewport"
)

func main() {
	hashKey := flag.String("hash-key", "", "print the ACCESS_KEY_HASH for a key and exit")
	flag.Parse()

	if *hashKey != "" {
		hash, err := auth.HashAccessKey(*hashKey)
		if err != nil {
			fmt.Fprintln(os.Stderr, "hash access key:", err)
			os.Exit(1)
		}
		fmt.Println(hash)
		return
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()})))

	authService := auth.NewService(cfg.JWTSecret, cfg.AccessKeyHash)

	// The hub is created after the registry it reads from; frames are
	// forwarded to it once it exists.
	var hub *collab.Hub
	viewerService := viewer.NewService(viewer.Options{
		Limits:    cfg.Limits(),
		Divisions: cfg.Divisions(),
		Layout:    cfg.Layout(),
		Bounds:    cfg.ViewBounds(),
		Publish: func(viewerID string, frame projection.Frame, change viewport.Change) {
			hub.PublishFrame(viewerID, frame, change)
		},
		Closed: func(viewerID string) {
			hub.CloseRoom(viewerID)
		},
	})
	hub = collab.NewHub(viewerService)
	go hub.Run()

	authHandler := auth.NewHandler(authService, viewerService)
	viewerHandler := viewer.NewHandler(viewerService, authService)
	assetHandler := asset.NewHandler(cfg.AssetDir, viewerService, authService)
	exportHandler := export.NewHandler(viewerService)

	r := mux.NewRouter()

	// Global middleware
	r.Use(mw.Recovery)
	r.Use(mw.Logger)
	r.Use(mw.CORS(cfg.Origins()))

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	// Public routes
	r.HandleFunc("/auth/token", authHandler.Token).Methods("POST", "OPTIONS")
	r.HandleFunc("/viewers", viewerHandler.Create).Methods("POST", "OPTIONS")
	r.HandleFunc("/viewers", viewerHandler.List).Methods("GET")
	r.HandleFunc("/assets/upload", assetHandler.Upload).Methods("POST", "OPTIONS")
	r.PathPrefix("/assets/").Handler(assetHandler.Serve()).Methods("GET")

	// Viewer routes, scoped by the viewer token
	protected := func(h http.HandlerFunc) http.Handler {
		return authService.RequireViewer(h)
	}
	r.Handle("/viewers/{id}", protected(viewerHandler.Get)).Methods("GET", "OPTIONS")
	r.Handle("/viewers/{id}", protected(viewerHandler.Delete)).Methods("DELETE", "OPTIONS")
	r.Handle("/viewers/{id}/pan", protected(viewerHandler.Pan)).Methods("POST", "OPTIONS")
	r.Handle("/viewers/{id}/zoom", protected(viewerHandler.Zoom)).Methods("POST", "OPTIONS")
	r.Handle("/viewers/{id}/zoom-in", protected(viewerHandler.ZoomIn)).Methods("POST", "OPTIONS")
	r.Handle("/viewers/{id}/zoom-out", protected(viewerHandler.ZoomOut)).Methods("POST", "OPTIONS")
	r.Handle("/viewers/{id}/resize", protected(viewerHandler.Resize)).Methods("POST", "OPTIONS")
	r.Handle("/viewers/{id}/content", protected(viewerHandler.Content)).Methods("POST", "OPTIONS")
	r.Handle("/viewers/{id}/hit", protected(viewerHandler.HitTest)).Methods("GET", "OPTIONS")
	r.Handle("/viewers/{id}/commands", protected(viewerHandler.Commands)).Methods("GET", "OPTIONS")
	r.Handle("/viewers/{id}/layers/{layer}.svg", protected(viewerHandler.Layer)).Methods("GET", "OPTIONS")
	r.Handle("/viewers/{id}/snapshot.{format}", protected(exportHandler.Snapshot)).Methods("GET", "OPTIONS")

	// WebSocket endpoint
	origins := originPatterns(cfg.Origins())
	r.Handle("/ws/viewers/{id}", protected(func(w http.ResponseWriter, r *http.Request) {
		handleWebSocket(w, r, hub, viewerService, origins)
	}))

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down server")
		hub.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		srv.Shutdown(shutdownCtx)
	}()

	slog.Info("server starting", "addr", addr, "divisions", cfg.Divisions(), "limits", cfg.Limits())
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

func handleWebSocket(w http.ResponseWriter, r *http.Request, hub *collab.Hub, viewers *viewer.Service, origins []string) {
	viewerID := mux.Vars(r)["id"]
	if !viewers.Exists(viewerID) {
		http.Error(w, "viewer not found", http.StatusNotFound)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: origins,
	})
	if err != nil {
		slog.Error("websocket accept", "error", err)
		return
	}

	client := collab.NewClient(hub, conn, viewerID, uuid.New().String())
	hub.Register(client)

	ctx := r.Context()
	go client.WritePump(ctx)
	client.ReadPump(ctx)
}

// originPatterns turns allowed origins into the host patterns the websocket
// handshake matches against.
func originPatterns(origins []string) []string {
	out := make([]string, 0, len(origins))
	for _, o := range origins {
		if i := strings.Index(o, "://"); i >= 0 {
			o = o[i+3:]
		}
		out = append(out, o)
	}
	return out
}

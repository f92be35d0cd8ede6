// Package viewer keeps the live viewers of a server process. Each viewer is
// an independent engine; there is no shared viewport state.
package viewer

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/inamate/rulergrid/internal/content"
	"github.com/inamate/rulergrid/internal/engine"
	"github.com/inamate/rulergrid/internal/geom"
	"github.com/inamate/rulergrid/internal/projection"
	"github.com/inamate/rulergrid/internal/typeid"
	"github.com/inamate/rulergrid/internal/viewport"
)

var ErrNotFound = errors.New("viewer not found")

// PublishFunc receives every frame a viewer renders.
type PublishFunc func(viewerID string, frame projection.Frame, change viewport.Change)

// Options configures the engines the registry creates.
type Options struct {
	Limits    viewport.Limits
	Divisions viewport.Divisions
	Layout    projection.Layout
	Bounds    geom.Rect
	Publish   PublishFunc
	Closed    func(viewerID string)
}

type Viewer struct {
	ID        string    `json:"id"`
	AssetID   string    `json:"assetId,omitempty"`
	Format    string    `json:"format,omitempty"`
	CreatedAt time.Time `json:"createdAt"`

	Engine *engine.Engine `json:"-"`
	mu     sync.Mutex
}

// Bind marks the viewer's content ready with the measured size.
func (v *Viewer) Bind(assetID string, info content.Info) error {
	if err := v.Engine.SetContentSize(info.Width, info.Height); err != nil {
		return fmt.Errorf("bind content: %w", err)
	}
	v.mu.Lock()
	v.AssetID = assetID
	v.Format = info.Format
	v.mu.Unlock()
	return nil
}

// Summary is the JSON view of a viewer.
type Summary struct {
	ID        string           `json:"id"`
	AssetID   string           `json:"assetId,omitempty"`
	Format    string           `json:"format,omitempty"`
	CreatedAt time.Time        `json:"createdAt"`
	View      engine.ViewState `json:"view"`
}

func (v *Viewer) Summary() Summary {
	v.mu.Lock()
	defer v.mu.Unlock()
	return Summary{
		ID:        v.ID,
		AssetID:   v.AssetID,
		Format:    v.Format,
		CreatedAt: v.CreatedAt,
		View:      v.Engine.View(),
	}
}

type Service struct {
	mu      sync.RWMutex
	viewers map[string]*Viewer
	opts    Options
}

func NewService(opts Options) *Service {
	return &Service{
		viewers: make(map[string]*Viewer),
		opts:    opts,
	}
}

// Create starts a new viewer. A non-nil info makes the content ready
// immediately.
func (s *Service) Create(info *content.Info) (*Viewer, error) {
	id := typeid.NewViewerID()
	v := &Viewer{ID: id, CreatedAt: time.Now().UTC()}
	v.Engine = engine.NewEngine(engine.Options{
		Limits:    s.opts.Limits,
		Divisions: s.opts.Divisions,
		Layout:    s.opts.Layout,
		Surface:   viewport.NewFixedSurface(s.opts.Bounds),
		Renderer:  s.renderer(id),
	})

	if info != nil {
		if err := v.Bind("", *info); err != nil {
			return nil, err
		}
	}

	s.mu.Lock()
	s.viewers[id] = v
	s.mu.Unlock()

	slog.Info("viewer created", "viewer", id, "ready", info != nil)
	return v, nil
}

func (s *Service) renderer(viewerID string) engine.Renderer {
	return engine.RendererFunc(func(f projection.Frame, change viewport.Change) {
		slog.Debug("frame", "viewer", viewerID, "change", change, "zoom", f.ZoomPercent)
		if s.opts.Publish != nil {
			s.opts.Publish(viewerID, f, change)
		}
	})
}

func (s *Service) Get(viewerID string) (*Viewer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.viewers[viewerID]
	if !ok {
		return nil, ErrNotFound
	}
	return v, nil
}

func (s *Service) Exists(viewerID string) bool {
	_, err := s.Get(viewerID)
	return err == nil
}

// List returns all viewers, oldest first.
func (s *Service) List() []*Viewer {
	s.mu.RLock()
	out := make([]*Viewer, 0, len(s.viewers))
	for _, v := range s.viewers {
		out = append(out, v)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

func (s *Service) Delete(viewerID string) error {
	s.mu.Lock()
	_, ok := s.viewers[viewerID]
	delete(s.viewers, viewerID)
	s.mu.Unlock()

	if !ok {
		return ErrNotFound
	}
	if s.opts.Closed != nil {
		s.opts.Closed(viewerID)
	}
	slog.Info("viewer deleted", "viewer", viewerID)
	return nil
}

// Bind attaches measured content to a viewer.
func (s *Service) Bind(viewerID, assetID string, info content.Info) error {
	v, err := s.Get(viewerID)
	if err != nil {
		return err
	}
	return v.Bind(assetID, info)
}

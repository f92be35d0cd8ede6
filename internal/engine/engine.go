package engine

import (
	"encoding/json"

	"github.com/inamate/rulergrid/internal/geom"
	"github.com/inamate/rulergrid/internal/projection"
	"github.com/inamate/rulergrid/internal/viewport"
)

// Renderer receives a projected frame after every effective state change.
// It runs synchronously inside the mutation and must not call back into the
// Engine's command methods.
type Renderer interface {
	Draw(frame projection.Frame, change viewport.Change)
}

// RendererFunc adapts a plain function to Renderer.
type RendererFunc func(projection.Frame, viewport.Change)

func (f RendererFunc) Draw(frame projection.Frame, change viewport.Change) {
	f(frame, change)
}

// Options configures an Engine. Zero values fall back to defaults.
type Options struct {
	Limits    viewport.Limits
	Divisions viewport.Divisions
	Layout    projection.Layout
	Surface   viewport.Surface
	Renderer  Renderer
}

// Engine is one viewer: it owns the viewport controller and projects its
// state for the renderer. It processes commands from the host and answers
// queries. Several viewers are several Engines.
type Engine struct {
	ctrl      *viewport.Controller
	surface   viewport.Surface
	divisions viewport.Divisions
	layout    projection.Layout
	renderer  Renderer
}

// NewEngine creates a new engine instance.
func NewEngine(opts Options) *Engine {
	if opts.Limits == (viewport.Limits{}) {
		opts.Limits = viewport.DefaultLimits()
	}
	if !opts.Divisions.Valid() {
		opts.Divisions = viewport.DefaultDivisions()
	}
	if opts.Layout == (projection.Layout{}) {
		opts.Layout = projection.DefaultLayout()
	}
	if opts.Surface == nil {
		opts.Surface = viewport.NewFixedSurface(geom.Rect{})
	}

	e := &Engine{
		surface:   opts.Surface,
		divisions: opts.Divisions,
		layout:    opts.Layout,
		renderer:  opts.Renderer,
	}
	e.ctrl = viewport.NewController(opts.Surface, opts.Limits, e.notify)
	return e
}

func (e *Engine) notify(s viewport.State, change viewport.Change) {
	if e.renderer == nil {
		return
	}
	e.renderer.Draw(projection.Project(s, e.divisions, e.layout), change)
}

// --- Commands (host → engine) ---

// SetContentSize marks the content ready with its natural size.
func (e *Engine) SetContentSize(width, height float64) error {
	return e.ctrl.SetContentSize(width, height)
}

// Pan moves the content by a screen-pixel delta.
func (e *Engine) Pan(dx, dy float64) bool {
	return e.ctrl.Pan(dx, dy)
}

// Zoom scales by factor about a client-space pivot.
func (e *Engine) Zoom(factor, clientX, clientY float64) bool {
	return e.ctrl.Zoom(factor, clientX, clientY)
}

// ZoomIn zooms one step about the viewer center.
func (e *Engine) ZoomIn() bool {
	return e.ctrl.ZoomIn()
}

// ZoomOut zooms one inverse step about the viewer center.
func (e *Engine) ZoomOut() bool {
	return e.ctrl.ZoomOut()
}

// Wheel zooms one step about the pointer, in for negative deltaY.
func (e *Engine) Wheel(deltaY, clientX, clientY float64) bool {
	return e.ctrl.Zoom(WheelFactor(deltaY, e.ctrl.Limits().ZoomStep), clientX, clientY)
}

// Resize updates the surface bounds, when the host pushes them, and
// re-projects the rulers.
func (e *Engine) Resize(bounds geom.Rect) {
	if fs, ok := e.surface.(*viewport.FixedSurface); ok {
		fs.SetBounds(bounds)
	}
	e.ctrl.Resize()
}

// --- Queries (engine → host) ---

// State returns the current viewport state.
func (e *Engine) State() viewport.State {
	return e.ctrl.State()
}

// Frame projects the current state.
func (e *Engine) Frame() projection.Frame {
	return projection.Project(e.ctrl.State(), e.divisions, e.layout)
}

// Divisions returns the division counts used for projection.
func (e *Engine) Divisions() viewport.Divisions {
	return e.divisions
}

// Layout returns the ruler chrome used for projection.
func (e *Engine) Layout() projection.Layout {
	return e.layout
}

// Limits returns the normalized zoom limits.
func (e *Engine) Limits() viewport.Limits {
	return e.ctrl.Limits()
}

// Render returns the current frame as draw commands JSON.
func (e *Engine) Render() string {
	result, _ := projection.CommandsToJSON(e.Frame().Commands())
	return result
}

// ViewState is the JSON summary returned to hosts.
type ViewState struct {
	viewport.State
	Ready       bool      `json:"ready"`
	ZoomPercent int       `json:"zoomPercent"`
	ZoomLabel   string    `json:"zoomLabel"`
	Container   string    `json:"container"`
	TopRuler    string    `json:"topRuler"`
	LeftRuler   string    `json:"leftRuler"`
	Bounds      geom.Rect `json:"bounds"`
}

// View returns the state together with its CSS projections.
func (e *Engine) View() ViewState {
	f := e.Frame()
	v := ViewState{
		State:       e.ctrl.State(),
		Ready:       f.Ready,
		ZoomPercent: f.ZoomPercent,
		Bounds:      e.ctrl.Bounds(),
	}
	if f.Ready {
		v.ZoomLabel = f.ZoomLabel()
		v.Container = f.Container.CSS()
		v.TopRuler = f.TopRuler.CSS()
		v.LeftRuler = f.LeftRuler.CSS()
	}
	return v
}

// ViewState returns View as JSON.
func (e *Engine) ViewState() string {
	data, _ := json.Marshal(e.View())
	return string(data)
}

// Hit is the result of a hit test.
type Hit struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Col    int     `json:"col"`
	Row    int     `json:"row"`
	Inside bool    `json:"inside"`
}

// HitTest maps a client point to image space and the division cell under it.
func (e *Engine) HitTest(clientX, clientY float64) Hit {
	s := e.ctrl.State()
	if !s.Ready() {
		return Hit{}
	}
	x, y := e.ctrl.ClientToImage(clientX, clientY)
	col, row, ok := viewport.Cell(s, e.divisions, x, y)
	return Hit{X: x, Y: y, Col: col, Row: row, Inside: ok}
}

// Settings is what hosts need to drive the engine.
type Settings struct {
	ZoomStep  float64            `json:"zoomStep"`
	MinZoom   float64            `json:"minZoom"`
	MaxZoom   float64            `json:"maxZoom"`
	Divisions viewport.Divisions `json:"divisions"`
	Layout    projection.Layout  `json:"layout"`
}

// Settings returns the effective configuration.
func (e *Engine) Settings() Settings {
	l := e.ctrl.Limits()
	return Settings{
		ZoomStep:  l.ZoomStep,
		MinZoom:   l.MinZoom,
		MaxZoom:   l.MaxZoom,
		Divisions: e.divisions,
		Layout:    e.layout,
	}
}

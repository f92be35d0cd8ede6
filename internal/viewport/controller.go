package viewport

import (
	"errors"
	"log/slog"
	"sync"

	"github.com/inamate/rulergrid/internal/geom"
)

var (
	ErrInvalidSize  = errors.New("content size must be positive and finite")
	ErrContentReady = errors.New("content size already set")
)

// Change tells a renderer what kind of mutation produced a notification, so
// it can choose between a full redraw and a partial update.
type Change uint8

const (
	ChangeContent Change = iota + 1
	ChangePan
	ChangeZoom
	ChangeResize
)

func (c Change) String() string {
	switch c {
	case ChangeContent:
		return "content"
	case ChangePan:
		return "pan"
	case ChangeZoom:
		return "zoom"
	case ChangeResize:
		return "resize"
	default:
		return "unknown"
	}
}

// Surface reports the untransformed on-screen box of the image container,
// in the same coordinate system as the zoom pivot.
type Surface interface {
	Bounds() geom.Rect
}

// FixedSurface is a Surface whose bounds are pushed by the host.
type FixedSurface struct {
	mu     sync.RWMutex
	bounds geom.Rect
}

// NewFixedSurface returns a surface with the given bounds.
func NewFixedSurface(bounds geom.Rect) *FixedSurface {
	return &FixedSurface{bounds: bounds}
}

func (s *FixedSurface) Bounds() geom.Rect {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.bounds
}

func (s *FixedSurface) SetBounds(bounds geom.Rect) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bounds = bounds
}

// NotifyFunc receives a snapshot of the state after every effective
// mutation. It runs synchronously while the controller is locked and must
// not call back into the Controller.
type NotifyFunc func(State, Change)

// Controller owns a State and is its only writer. Every operation runs to
// completion before returning, including the notification.
type Controller struct {
	mu      sync.Mutex
	state   State
	limits  Limits
	surface Surface
	bounds  geom.Rect
	notify  NotifyFunc
}

// NewController creates a controller for one viewer. limits is normalized;
// notify may be nil.
func NewController(surface Surface, limits Limits, notify NotifyFunc) *Controller {
	if surface == nil {
		surface = NewFixedSurface(geom.Rect{})
	}
	return &Controller{
		state:   NewState(),
		limits:  limits.Normalize(),
		surface: surface,
		bounds:  surface.Bounds(),
		notify:  notify,
	}
}

// State returns a snapshot of the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Limits returns the normalized zoom limits.
func (c *Controller) Limits() Limits {
	return c.limits
}

// Bounds returns the surface bounds observed by the last Resize.
func (c *Controller) Bounds() geom.Rect {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.bounds
}

// SetContentSize records the natural content size. It is accepted once.
func (c *Controller) SetContentSize(width, height float64) error {
	if !isFinite(width, height) || width <= 0 || height <= 0 {
		return ErrInvalidSize
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state.Ready() {
		return ErrContentReady
	}
	c.state.ImageWidth = width
	c.state.ImageHeight = height
	c.emit(ChangeContent)
	return nil
}

// Pan moves the container by (dx, dy) screen pixels. It reports whether
// the state changed.
func (c *Controller) Pan(dx, dy float64) bool {
	if !isFinite(dx, dy) {
		slog.Warn("pan ignored: non-finite delta", "dx", dx, "dy", dy)
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.state.Ready() {
		slog.Debug("pan ignored: content not ready")
		return false
	}

	tx := c.state.TranslateX + dx
	ty := c.state.TranslateY + dy
	if !isFinite(tx, ty) {
		slog.Warn("pan ignored: translation overflow", "dx", dx, "dy", dy)
		return false
	}

	c.state.TranslateX = tx
	c.state.TranslateY = ty
	c.emit(ChangePan)
	return true
}

// Zoom multiplies the scale by factor while keeping the content point under
// the pivot (client coordinates) fixed on screen. It reports whether the
// state changed; a saturated clamp is a no-op.
func (c *Controller) Zoom(factor, pivotClientX, pivotClientY float64) bool {
	if !isFinite(factor) || factor <= 0 {
		slog.Warn("zoom ignored: invalid factor", "factor", factor)
		return false
	}
	if !isFinite(pivotClientX, pivotClientY) {
		slog.Warn("zoom ignored: non-finite pivot", "x", pivotClientX, "y", pivotClientY)
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.state.Ready() {
		slog.Debug("zoom ignored: content not ready")
		return false
	}

	newScale := c.limits.Clamp(c.state.Scale * factor)
	if newScale == c.state.Scale {
		return false
	}

	box := c.surface.Bounds()
	px := pivotClientX - box.X
	py := pivotClientY - box.Y

	// Translation uses the old scale, so it must be computed before the commit.
	ratio := newScale / c.state.Scale
	next := c.state
	next.TranslateX = px - (px-c.state.TranslateX)*ratio
	next.TranslateY = py - (py-c.state.TranslateY)*ratio
	next.Scale = newScale
	if !next.Matrix().IsFinite() {
		slog.Warn("zoom ignored: non-finite result", "factor", factor, "scale", newScale)
		return false
	}

	c.state = next
	c.emit(ChangeZoom)
	return true
}

// ZoomIn zooms by one step about the center of the surface.
func (c *Controller) ZoomIn() bool {
	cx, cy := c.surface.Bounds().Center()
	return c.Zoom(c.limits.ZoomStep, cx, cy)
}

// ZoomOut zooms by the inverse step about the center of the surface.
func (c *Controller) ZoomOut() bool {
	cx, cy := c.surface.Bounds().Center()
	return c.Zoom(1/c.limits.ZoomStep, cx, cy)
}

// Resize picks up new surface bounds. Scale and translation are untouched;
// only ruler sizing is recomputed by the renderer.
func (c *Controller) Resize() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.bounds = c.surface.Bounds()
	if !c.state.Ready() {
		return
	}
	c.emit(ChangeResize)
}

// ClientToImage maps a client point to image space.
func (c *Controller) ClientToImage(clientX, clientY float64) (float64, float64) {
	c.mu.Lock()
	m := c.state.Matrix()
	c.mu.Unlock()

	box := c.surface.Bounds()
	return m.Invert().TransformPoint(clientX-box.X, clientY-box.Y)
}

// ImageToClient maps an image-space point to client coordinates.
func (c *Controller) ImageToClient(x, y float64) (float64, float64) {
	c.mu.Lock()
	m := c.state.Matrix()
	c.mu.Unlock()

	box := c.surface.Bounds()
	vx, vy := m.TransformPoint(x, y)
	return vx + box.X, vy + box.Y
}

// emit must be called with c.mu held.
func (c *Controller) emit(change Change) {
	if c.notify != nil {
		c.notify(c.state, change)
	}
}

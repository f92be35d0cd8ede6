package viewport

import (
	"errors"
	"math"
	"testing"

	"github.com/inamate/rulergrid/internal/geom"
)

type recorder struct {
	changes []Change
	states  []State
}

func (r *recorder) notify(s State, c Change) {
	r.changes = append(r.changes, c)
	r.states = append(r.states, s)
}

func newTestController(t *testing.T, bounds geom.Rect) (*Controller, *recorder, *FixedSurface) {
	t.Helper()
	rec := &recorder{}
	surface := NewFixedSurface(bounds)
	c := NewController(surface, DefaultLimits(), rec.notify)
	if err := c.SetContentSize(800, 800); err != nil {
		t.Fatalf("SetContentSize: %v", err)
	}
	return c, rec, surface
}

func TestSetContentSizeOnce(t *testing.T) {
	c := NewController(nil, DefaultLimits(), nil)
	if err := c.SetContentSize(0, 10); !errors.Is(err, ErrInvalidSize) {
		t.Fatalf("zero width: err = %v, want ErrInvalidSize", err)
	}
	if err := c.SetContentSize(math.Inf(1), 10); !errors.Is(err, ErrInvalidSize) {
		t.Fatalf("infinite width: err = %v, want ErrInvalidSize", err)
	}
	if err := c.SetContentSize(640, 480); err != nil {
		t.Fatalf("first SetContentSize: %v", err)
	}
	if err := c.SetContentSize(100, 100); !errors.Is(err, ErrContentReady) {
		t.Fatalf("second SetContentSize: err = %v, want ErrContentReady", err)
	}
	if s := c.State(); s.ImageWidth != 640 || s.ImageHeight != 480 {
		t.Fatalf("content size changed to %vx%v", s.ImageWidth, s.ImageHeight)
	}
}

func TestInertBeforeReady(t *testing.T) {
	rec := &recorder{}
	c := NewController(NewFixedSurface(geom.Rect{Width: 400, Height: 400}), DefaultLimits(), rec.notify)

	c.Pan(10, 10)
	c.Zoom(2, 100, 100)
	c.ZoomIn()
	c.Resize()

	if s := c.State(); s != NewState() {
		t.Fatalf("state changed before ready: %+v", s)
	}
	if len(rec.changes) != 0 {
		t.Fatalf("notified before ready: %v", rec.changes)
	}
}

func TestPanAdditivity(t *testing.T) {
	c, rec, _ := newTestController(t, geom.Rect{Width: 500, Height: 500})

	c.Pan(50, 0)
	c.Pan(0, 80)
	if s := c.State(); s.TranslateX != 50 || s.TranslateY != 80 {
		t.Fatalf("after pan(50,0), pan(0,80): (%v, %v), want (50, 80)", s.TranslateX, s.TranslateY)
	}

	deltas := [][2]float64{{-3.5, 2}, {7.25, -11}, {0.125, 0.5}, {-100, 40}}
	wantX, wantY := 50.0, 80.0
	for _, d := range deltas {
		c.Pan(d[0], d[1])
		wantX += d[0]
		wantY += d[1]
	}
	s := c.State()
	if math.Abs(s.TranslateX-wantX) > 1e-9 || math.Abs(s.TranslateY-wantY) > 1e-9 {
		t.Fatalf("translate = (%v, %v), want (%v, %v)", s.TranslateX, s.TranslateY, wantX, wantY)
	}
	if s.Scale != 1 {
		t.Fatalf("pan changed scale to %v", s.Scale)
	}

	// content + 6 pans
	if len(rec.changes) != 7 || rec.changes[1] != ChangePan {
		t.Fatalf("notifications = %v", rec.changes)
	}
}

func TestPanRejectsNonFinite(t *testing.T) {
	c, rec, _ := newTestController(t, geom.Rect{})
	before := c.State()
	if c.Pan(math.NaN(), 1) || c.Pan(1, math.Inf(-1)) {
		t.Fatal("non-finite pan reported a change")
	}
	if c.State() != before || len(rec.changes) != 1 {
		t.Fatal("non-finite pan mutated state or notified")
	}
}

func TestZoomRejectsInvalidInput(t *testing.T) {
	c, rec, _ := newTestController(t, geom.Rect{Width: 400, Height: 400})
	before := c.State()
	for _, f := range []float64{0, -2, math.NaN(), math.Inf(1)} {
		if c.Zoom(f, 10, 10) {
			t.Errorf("Zoom(%v) reported a change", f)
		}
	}
	if c.Zoom(2, math.NaN(), 10) || c.Zoom(2, 10, math.Inf(1)) {
		t.Error("zoom with non-finite pivot reported a change")
	}
	// finite pivot whose translation overflows at the new scale
	if c.Zoom(1.5, math.MaxFloat64, 10) {
		t.Error("zoom with overflowing translation reported a change")
	}
	if c.State() != before || len(rec.changes) != 1 {
		t.Fatal("rejected zoom mutated state or notified")
	}
}

func TestZoomClampingIdempotence(t *testing.T) {
	c, rec, _ := newTestController(t, geom.Rect{X: 20, Y: 30, Width: 600, Height: 400})

	for i := 0; i < 100 && c.State().Scale < DefaultMaxZoom; i++ {
		c.Zoom(1.5, 250, 170)
	}
	saturated := c.State()
	if saturated.Scale != DefaultMaxZoom {
		t.Fatalf("scale = %v, want saturation at %v", saturated.Scale, DefaultMaxZoom)
	}

	n := len(rec.changes)
	for i := 0; i < 5; i++ {
		if c.Zoom(1.5, 250, 170) {
			t.Fatal("zoom past the maximum reported a change")
		}
		c.ZoomIn()
	}
	if c.State() != saturated {
		t.Fatalf("state changed after saturation: %+v", c.State())
	}
	if len(rec.changes) != n {
		t.Fatalf("redundant notifications after saturation: %d", len(rec.changes)-n)
	}

	for i := 0; i < 200; i++ {
		c.Zoom(0.5, 0, 0)
	}
	if got := c.State().Scale; got != DefaultMinZoom {
		t.Fatalf("scale = %v, want saturation at %v", got, DefaultMinZoom)
	}
}

func TestZoomKeepsPivotFixed(t *testing.T) {
	c, _, _ := newTestController(t, geom.Rect{X: 35, Y: 60, Width: 700, Height: 500})
	c.Pan(-42, 17)

	pivots := [][2]float64{{35, 60}, {400, 300}, {735, 560}, {123.4, 567.8}}
	factors := []float64{2, 1.02, 0.5, 3.3, 1 / 1.02}
	for _, p := range pivots {
		for _, f := range factors {
			ix, iy := c.ClientToImage(p[0], p[1])
			c.Zoom(f, p[0], p[1])
			cx, cy := c.ImageToClient(ix, iy)
			if math.Abs(cx-p[0]) > 1e-6 || math.Abs(cy-p[1]) > 1e-6 {
				t.Fatalf("pivot (%v, %v) factor %v moved to (%v, %v)", p[0], p[1], f, cx, cy)
			}
		}
	}
}

func TestZoomPivotFormula(t *testing.T) {
	c, rec, _ := newTestController(t, geom.Rect{X: 100, Y: 50, Width: 800, Height: 800})
	c.Pan(10, 20)

	if !c.Zoom(2, 300, 250) {
		t.Fatal("zoom reported no change")
	}
	// px = 200, py = 200; tx = 200 - (200-10)*2, ty = 200 - (200-20)*2
	s := c.State()
	if s.Scale != 2 || s.TranslateX != -180 || s.TranslateY != -160 {
		t.Fatalf("state = %+v", s)
	}
	if last := rec.changes[len(rec.changes)-1]; last != ChangeZoom {
		t.Fatalf("last change = %v, want zoom", last)
	}
}

func TestZoomInOutAboutCenter(t *testing.T) {
	c, _, _ := newTestController(t, geom.Rect{X: 0, Y: 0, Width: 800, Height: 800})

	c.ZoomIn()
	if got := c.State().Scale; got != DefaultZoomStep {
		t.Fatalf("scale after ZoomIn = %v, want %v", got, DefaultZoomStep)
	}
	c.ZoomOut()
	s := c.State()
	if math.Abs(s.Scale-1) > 1e-12 || math.Abs(s.TranslateX) > 1e-9 || math.Abs(s.TranslateY) > 1e-9 {
		t.Fatalf("ZoomIn then ZoomOut = %+v, want identity", s)
	}
}

func TestResizeKeepsTransform(t *testing.T) {
	c, rec, surface := newTestController(t, geom.Rect{Width: 300, Height: 300})
	c.Zoom(2, 10, 10)
	c.Pan(5, 5)
	before := c.State()

	surface.SetBounds(geom.Rect{X: 12, Y: 8, Width: 1024, Height: 768})
	c.Resize()

	if c.State() != before {
		t.Fatalf("resize changed the transform: %+v -> %+v", before, c.State())
	}
	if got := c.Bounds(); got.Width != 1024 || got.X != 12 {
		t.Fatalf("bounds = %+v", got)
	}
	if last := rec.changes[len(rec.changes)-1]; last != ChangeResize {
		t.Fatalf("last change = %v, want resize", last)
	}
}

func TestLimitsNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   Limits
		want Limits
	}{
		{"defaults", DefaultLimits(), DefaultLimits()},
		{"inverted step", Limits{MinZoom: 0.1, MaxZoom: 10, ZoomStep: 0.8}, Limits{MinZoom: 0.1, MaxZoom: 10, ZoomStep: 1.25}},
		{"zero step", Limits{MinZoom: 0.1, MaxZoom: 10}, DefaultLimits()},
		{"swapped bounds", Limits{MinZoom: 5, MaxZoom: 0.5, ZoomStep: 1.2}, Limits{MinZoom: 0.5, MaxZoom: 5, ZoomStep: 1.2}},
		{"nan bounds", Limits{MinZoom: math.NaN(), MaxZoom: -1, ZoomStep: 1.1}, Limits{MinZoom: 0.1, MaxZoom: 10, ZoomStep: 1.1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.in.Normalize()
			if math.Abs(got.ZoomStep-tt.want.ZoomStep) > 1e-12 || got.MinZoom != tt.want.MinZoom || got.MaxZoom != tt.want.MaxZoom {
				t.Fatalf("Normalize() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestZoomPercent(t *testing.T) {
	s := NewState()
	s.Scale = 1.02
	if got := s.ZoomPercent(); got != 102 {
		t.Fatalf("ZoomPercent = %d, want 102", got)
	}
	s.Scale = 0.1049
	if got := s.ZoomPercent(); got != 10 {
		t.Fatalf("ZoomPercent = %d, want 10", got)
	}
}

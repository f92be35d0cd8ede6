package engine

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/inamate/rulergrid/internal/geom"
	"github.com/inamate/rulergrid/internal/projection"
	"github.com/inamate/rulergrid/internal/viewport"
)

type drawn struct {
	frames  []projection.Frame
	changes []viewport.Change
}

func (d *drawn) Draw(f projection.Frame, c viewport.Change) {
	d.frames = append(d.frames, f)
	d.changes = append(d.changes, c)
}

func newReadyEngine(t *testing.T) (*Engine, *drawn) {
	t.Helper()
	d := &drawn{}
	e := NewEngine(Options{
		Surface:  viewport.NewFixedSurface(geom.Rect{X: 30, Y: 30, Width: 800, Height: 600}),
		Renderer: d,
	})
	if err := e.SetContentSize(800, 800); err != nil {
		t.Fatalf("SetContentSize: %v", err)
	}
	return e, d
}

func TestEngineDefaults(t *testing.T) {
	e := NewEngine(Options{})
	s := e.Settings()
	if s.ZoomStep != viewport.DefaultZoomStep || s.MinZoom != viewport.DefaultMinZoom || s.MaxZoom != viewport.DefaultMaxZoom {
		t.Fatalf("limits = %+v", s)
	}
	if s.Divisions != viewport.DefaultDivisions() || s.Layout != projection.DefaultLayout() {
		t.Fatalf("divisions/layout = %+v", s)
	}
	if got := e.Render(); got != "[]" {
		t.Fatalf("Render before content = %q, want []", got)
	}
	if e.HitTest(10, 10).Inside {
		t.Fatal("hit test before content reported a hit")
	}
}

func TestRendererReceivesFrames(t *testing.T) {
	e, d := newReadyEngine(t)
	e.Pan(50, 0)
	e.Pan(0, 80)
	e.Zoom(2, 100, 100)
	e.Resize(geom.Rect{X: 30, Y: 30, Width: 400, Height: 400})

	want := []viewport.Change{viewport.ChangeContent, viewport.ChangePan, viewport.ChangePan, viewport.ChangeZoom, viewport.ChangeResize}
	if len(d.changes) != len(want) {
		t.Fatalf("changes = %v, want %v", d.changes, want)
	}
	for i := range want {
		if d.changes[i] != want[i] {
			t.Fatalf("changes = %v, want %v", d.changes, want)
		}
	}

	last := d.frames[len(d.frames)-1]
	if last.TopRuler.OffsetX != last.Container.TranslateX || last.LeftRuler.OffsetY != last.Container.TranslateY {
		t.Fatal("rulers out of sync in rendered frame")
	}
	if got := e.Frame(); got.Container != last.Container {
		t.Fatalf("Frame() = %+v, last drawn %+v", got.Container, last.Container)
	}
}

func TestViewState(t *testing.T) {
	e, _ := newReadyEngine(t)
	e.Pan(10, 20)
	e.Zoom(1.5, 30, 30)

	var v map[string]any
	if err := json.Unmarshal([]byte(e.ViewState()), &v); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if v["scale"] != 1.5 || v["zoomLabel"] != "150%" || v["ready"] != true {
		t.Fatalf("view state = %v", v)
	}
	if v["container"] != "translate(15px, 30px) scale(1.5)" {
		t.Fatalf("container = %v", v["container"])
	}
	if v["topRuler"] != "translateX(15px)" || v["leftRuler"] != "translateY(30px)" {
		t.Fatalf("rulers = %v / %v", v["topRuler"], v["leftRuler"])
	}
}

func TestHitTest(t *testing.T) {
	e, _ := newReadyEngine(t)
	e.Zoom(2, 30, 30)

	// client (30+200, 30+100) at scale 2 → image (100, 50)
	h := e.HitTest(230, 130)
	if !h.Inside || math.Abs(h.X-100) > 1e-9 || math.Abs(h.Y-50) > 1e-9 {
		t.Fatalf("hit = %+v", h)
	}
	if h.Col != 5 || h.Row != 2 {
		t.Fatalf("cell = (%d, %d), want (5, 2)", h.Col, h.Row)
	}
	if e.HitTest(0, 0).Inside {
		t.Fatal("point left of the content reported inside")
	}
}

func TestWheel(t *testing.T) {
	e, _ := newReadyEngine(t)
	e.Wheel(-120, 430, 330)
	if got := e.State().Scale; got != viewport.DefaultZoomStep {
		t.Fatalf("scale after wheel up = %v", got)
	}
	e.Wheel(120, 430, 330)
	if got := e.State().Scale; math.Abs(got-1) > 1e-12 {
		t.Fatalf("scale after wheel down = %v", got)
	}
}

func TestWheelFactor(t *testing.T) {
	tests := []struct {
		delta, step, want float64
	}{
		{-1, 1.02, 1.02},
		{100, 1.02, 1 / 1.02},
		{0, 2, 0.5},
	}
	for _, tt := range tests {
		if got := WheelFactor(tt.delta, tt.step); got != tt.want {
			t.Errorf("WheelFactor(%v, %v) = %v, want %v", tt.delta, tt.step, got, tt.want)
		}
	}
}

func TestDrag(t *testing.T) {
	e, _ := newReadyEngine(t)
	var d Drag

	if d.Move(e, 100, 100) {
		t.Fatal("move without press panned")
	}
	d.Press(100, 100)
	d.Move(e, 130, 90)
	d.Move(e, 150, 180)
	d.Release()
	d.Move(e, 500, 500)

	s := e.State()
	if s.TranslateX != 50 || s.TranslateY != 80 {
		t.Fatalf("translate = (%v, %v), want (50, 80)", s.TranslateX, s.TranslateY)
	}
	if d.Active() {
		t.Fatal("drag still active after release")
	}
}

func TestIndependentEngines(t *testing.T) {
	a, _ := newReadyEngine(t)
	b, _ := newReadyEngine(t)
	a.Pan(10, 10)
	if b.State().TranslateX != 0 {
		t.Fatal("engines share state")
	}
}

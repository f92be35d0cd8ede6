package viewport

import (
	"math"
	"testing"
)

func readyState(w, h float64) State {
	s := NewState()
	s.ImageWidth = w
	s.ImageHeight = h
	return s
}

func TestGridLinesConcreteScenario(t *testing.T) {
	xs, ys := GridLines(readyState(800, 800), DefaultDivisions())
	if len(xs) != 44 || len(ys) != 44 {
		t.Fatalf("got %d/%d grid lines, want 44/44", len(xs), len(ys))
	}
	if want := 4 * 800.0 / 45; math.Abs(xs[3]-want) > 1e-9 {
		t.Fatalf("grid x[3] = %v, want %v", xs[3], want)
	}
	// grid line #5 (index 4) sits at 5*800/45.
	if want := 88.889; math.Abs(xs[4]-want) > 1e-3 {
		t.Fatalf("grid x[4] = %v, want %v", xs[4], want)
	}
}

func TestRulerLinesIncludeEdges(t *testing.T) {
	s := readyState(800, 600)
	s.Scale = 2
	xs, ys := RulerLines(s, Divisions{X: 10, Y: 4})
	if len(xs) != 11 || len(ys) != 5 {
		t.Fatalf("got %d/%d ruler lines, want 11/5", len(xs), len(ys))
	}
	if xs[0] != 0 || xs[10] != 1600 {
		t.Fatalf("x edges = %v..%v, want 0..1600", xs[0], xs[10])
	}
	if ys[0] != 0 || ys[4] != 1200 {
		t.Fatalf("y edges = %v..%v, want 0..1200", ys[0], ys[4])
	}
}

func TestRulerIndexFiveAtUnitScale(t *testing.T) {
	xs, _ := RulerLines(readyState(800, 800), DefaultDivisions())
	if want := 5 * 800.0 / 45; math.Abs(xs[5]-want) > 1e-9 {
		t.Fatalf("ruler x[5] = %v, want %v", xs[5], want)
	}
}

func TestGridRulerAlignment(t *testing.T) {
	for _, scale := range []float64{0.1, 0.37, 1, 1.02, 2, 7.5, 10} {
		s := readyState(800, 613)
		s.Scale = scale
		s.TranslateX, s.TranslateY = -123.4, 56.7

		d := Divisions{X: 45, Y: 31}
		gx, gy := GridLines(s, d)
		rx, ry := RulerLines(s, d)
		for i := range gx {
			if diff := math.Abs(rx[i+1] - gx[i]*scale); diff > 1e-9 {
				t.Fatalf("scale %v: x misalignment at %d: %v", scale, i, diff)
			}
		}
		for i := range gy {
			if diff := math.Abs(ry[i+1] - gy[i]*scale); diff > 1e-9 {
				t.Fatalf("scale %v: y misalignment at %d: %v", scale, i, diff)
			}
		}
	}
}

func TestLinesEmptyBeforeReady(t *testing.T) {
	s := NewState()
	if xs, ys := GridLines(s, DefaultDivisions()); xs != nil || ys != nil {
		t.Fatal("grid lines computed before content ready")
	}
	if xs, ys := RulerLines(s, DefaultDivisions()); xs != nil || ys != nil {
		t.Fatal("ruler lines computed before content ready")
	}
}

func TestSingleDivision(t *testing.T) {
	s := readyState(100, 100)
	gx, _ := GridLines(s, Divisions{X: 1, Y: 1})
	rx, _ := RulerLines(s, Divisions{X: 1, Y: 1})
	if len(gx) != 0 {
		t.Fatalf("one division should yield no interior grid lines, got %v", gx)
	}
	if len(rx) != 2 {
		t.Fatalf("one division should yield two ruler lines, got %v", rx)
	}
}

func TestCell(t *testing.T) {
	s := readyState(900, 450)
	d := DefaultDivisions()
	tests := []struct {
		x, y     float64
		col, row int
		ok       bool
	}{
		{0, 0, 0, 0, true},
		{25, 15, 1, 1, true},
		{900, 450, 44, 44, true},
		{-1, 10, 0, 0, false},
		{10, 451, 0, 0, false},
		{math.NaN(), 0, 0, 0, false},
	}
	for _, tt := range tests {
		col, row, ok := Cell(s, d, tt.x, tt.y)
		if ok != tt.ok || (ok && (col != tt.col || row != tt.row)) {
			t.Errorf("Cell(%v, %v) = (%d, %d, %v), want (%d, %d, %v)", tt.x, tt.y, col, row, ok, tt.col, tt.row, tt.ok)
		}
	}
}

func TestContentBounds(t *testing.T) {
	s := readyState(800, 600)
	s.Scale = 1.5
	s.TranslateX, s.TranslateY = -40, 25
	got := s.ContentBounds()
	if got.X != -40 || got.Y != 25 || got.Width != 1200 || got.Height != 900 {
		t.Fatalf("ContentBounds = %+v", got)
	}
	if b := s.ImageBounds(); b.X != 0 || b.Width != 800 || b.Height != 600 {
		t.Fatalf("ImageBounds = %+v", b)
	}
}

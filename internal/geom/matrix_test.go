package geom

import (
	"math"
	"testing"
)

func TestTranslateScale(t *testing.T) {
	m := TranslateScale(12, -7, 2.5)
	if x, y := m.TransformPoint(4, 2); x != 22 || y != -2 {
		t.Fatalf("TransformPoint = (%v, %v), want (22, -2)", x, y)
	}
	if got := Translate(12, -7); got != TranslateScale(12, -7, 1) {
		t.Fatalf("Translate = %v", got)
	}
}

func TestInvertRoundTrip(t *testing.T) {
	m := TranslateScale(30, 40, 1.75)
	inv := m.Invert()

	x, y := m.TransformPoint(10, 20)
	bx, by := inv.TransformPoint(x, y)
	if math.Abs(bx-10) > 1e-9 || math.Abs(by-20) > 1e-9 {
		t.Fatalf("round trip = (%v, %v), want (10, 20)", bx, by)
	}
}

func TestInvertSingular(t *testing.T) {
	if got := TranslateScale(3, 4, 0).Invert(); got != Identity() {
		t.Fatalf("Invert of singular matrix = %v, want identity", got)
	}
}

func TestTransformRect(t *testing.T) {
	r := TranslateScale(5, 5, 2).TransformRect(Rect{X: 1, Y: 2, Width: 3, Height: 4})
	want := Rect{X: 7, Y: 9, Width: 6, Height: 8}
	if r != want {
		t.Fatalf("TransformRect = %+v, want %+v", r, want)
	}
}

func TestIsFinite(t *testing.T) {
	if !Identity().IsFinite() {
		t.Fatal("identity should be finite")
	}
	if TranslateScale(math.NaN(), 0, 1).IsFinite() {
		t.Fatal("NaN translation should not be finite")
	}
	if TranslateScale(0, 0, math.Inf(1)).IsFinite() {
		t.Fatal("infinite scale should not be finite")
	}
}

func TestRectContains(t *testing.T) {
	a := Rect{X: 0, Y: -5, Width: 15, Height: 15}
	if !a.Contains(14, 9) || !a.Contains(15, 10) || a.Contains(16, 0) || a.Contains(3, -6) {
		t.Fatal("Contains returned an unexpected result")
	}
	if cx, cy := a.Center(); cx != 7.5 || cy != 2.5 {
		t.Fatalf("Center = (%v, %v)", cx, cy)
	}
}

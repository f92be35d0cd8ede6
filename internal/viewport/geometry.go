package viewport

import "math"

// CrispOffset is the half-pixel shift applied to the rendered stroke of every
// ruler line so a 1px line covers exactly one device pixel. Raw coordinates
// returned by RulerLines never include it.
const CrispOffset = 0.5

// GridLines returns the interior division positions in image space:
// i*ImageWidth/d.X for i in [1, d.X-1], and likewise for Y. The result does
// not depend on scale or translation. Edges are excluded.
func GridLines(s State, d Divisions) (xs, ys []float64) {
	if !s.Ready() {
		return nil, nil
	}
	return interior(s.ImageWidth, d.X), interior(s.ImageHeight, d.Y)
}

// RulerLines returns the ruler positions in viewport space:
// i*(ImageWidth*Scale)/d.X for i in [0, d.X], and likewise for Y. Both edges
// are included, so ruler index i+1 corresponds to grid index i.
func RulerLines(s State, d Divisions) (xs, ys []float64) {
	if !s.Ready() {
		return nil, nil
	}
	w, h := s.ScaledSize()
	return inclusive(w, d.X), inclusive(h, d.Y)
}

func interior(extent float64, n int) []float64 {
	if n < 2 {
		return []float64{}
	}
	out := make([]float64, 0, n-1)
	for i := 1; i < n; i++ {
		out = append(out, float64(i)*extent/float64(n))
	}
	return out
}

func inclusive(extent float64, n int) []float64 {
	if n < 1 {
		return []float64{}
	}
	out := make([]float64, 0, n+1)
	for i := 0; i <= n; i++ {
		out = append(out, float64(i)*extent/float64(n))
	}
	return out
}

// Cell returns the division cell containing the image-space point, or
// ok=false when the point lies outside the content.
func Cell(s State, d Divisions, x, y float64) (col, row int, ok bool) {
	if !s.Ready() || !d.Valid() || !isFinite(x, y) {
		return 0, 0, false
	}
	if !s.ImageBounds().Contains(x, y) {
		return 0, 0, false
	}
	col = min(int(math.Floor(x*float64(d.X)/s.ImageWidth)), d.X-1)
	row = min(int(math.Floor(y*float64(d.Y)/s.ImageHeight)), d.Y-1)
	return col, row, true
}

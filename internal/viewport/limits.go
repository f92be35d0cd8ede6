package viewport

const (
	DefaultMinZoom       = 0.1
	DefaultMaxZoom       = 10.0
	DefaultZoomStep      = 1.02
	DefaultDivisionCount = 45
)

// Limits bounds the scale and sets the multiplicative step used by the
// zoom buttons and the wheel.
type Limits struct {
	MinZoom  float64 `json:"minZoom"`
	MaxZoom  float64 `json:"maxZoom"`
	ZoomStep float64 `json:"zoomStep"`
}

// DefaultLimits returns 0.1–10.0 with a 1.02 step.
func DefaultLimits() Limits {
	return Limits{MinZoom: DefaultMinZoom, MaxZoom: DefaultMaxZoom, ZoomStep: DefaultZoomStep}
}

// Normalize returns a usable copy of l. A step below 1.0 would invert the
// zoom controls, so it is replaced by its reciprocal (0.8 becomes 1.25).
// Unusable values fall back to the defaults.
func (l Limits) Normalize() Limits {
	if !isFinite(l.MinZoom) || l.MinZoom <= 0 {
		l.MinZoom = DefaultMinZoom
	}
	if !isFinite(l.MaxZoom) || l.MaxZoom <= 0 {
		l.MaxZoom = DefaultMaxZoom
	}
	if l.MinZoom > l.MaxZoom {
		l.MinZoom, l.MaxZoom = l.MaxZoom, l.MinZoom
	}
	switch {
	case !isFinite(l.ZoomStep) || l.ZoomStep <= 0 || l.ZoomStep == 1:
		l.ZoomStep = DefaultZoomStep
	case l.ZoomStep < 1:
		l.ZoomStep = 1 / l.ZoomStep
	}
	return l
}

// Clamp restricts scale to [MinZoom, MaxZoom].
func (l Limits) Clamp(scale float64) float64 {
	return max(l.MinZoom, min(l.MaxZoom, scale))
}

// Divisions is the number of ruler/grid units along each axis. Grid and
// rulers share it, which is what ties their coordinates together.
type Divisions struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// DefaultDivisions returns 45 divisions on both axes.
func DefaultDivisions() Divisions {
	return Divisions{X: DefaultDivisionCount, Y: DefaultDivisionCount}
}

// Valid reports whether both counts are at least one.
func (d Divisions) Valid() bool {
	return d.X >= 1 && d.Y >= 1
}

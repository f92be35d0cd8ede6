// Package viewport holds the single source of truth for a zoomable image
// viewer: the scale and translation of the image container, the content
// extent, the line geometry derived from them, and the controller that is
// the only writer of that state.
package viewport

import (
	"math"

	"github.com/inamate/rulergrid/internal/geom"
)

// State is the viewport data: the container transform plus the natural
// content size. Scale, TranslateX and TranslateY are only written by a
// Controller; ImageWidth and ImageHeight are written once, on content ready.
type State struct {
	Scale       float64 `json:"scale"`
	TranslateX  float64 `json:"translateX"`
	TranslateY  float64 `json:"translateY"`
	ImageWidth  float64 `json:"imageWidth"`
	ImageHeight float64 `json:"imageHeight"`
}

// NewState returns the initial state: unit scale, no translation, no content.
func NewState() State {
	return State{Scale: 1}
}

// Ready reports whether the content dimensions are known.
// Until then the viewport is inert.
func (s State) Ready() bool {
	return s.ImageWidth > 0 && s.ImageHeight > 0
}

// Matrix returns the container transform: Translate(tx, ty) * Scale(s).
// It maps image space into viewport space.
func (s State) Matrix() geom.Matrix2D {
	return geom.TranslateScale(s.TranslateX, s.TranslateY, s.Scale)
}

// ScaledSize returns the on-screen size of the content.
func (s State) ScaledSize() (float64, float64) {
	return s.ImageWidth * s.Scale, s.ImageHeight * s.Scale
}

// ImageBounds is the content rectangle in image space.
func (s State) ImageBounds() geom.Rect {
	return geom.Rect{Width: s.ImageWidth, Height: s.ImageHeight}
}

// ContentBounds returns the content rectangle in viewport space.
func (s State) ContentBounds() geom.Rect {
	return s.Matrix().TransformRect(s.ImageBounds())
}

// ZoomPercent is the display percentage round(scale*100).
func (s State) ZoomPercent() int {
	return int(math.Round(s.Scale * 100))
}

func isFinite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Package projection formats a viewport state and its line geometry into
// what the three render targets consume: the container transform, the two
// ruler strips and the grid overlay. It makes no decisions of its own.
package projection

import (
	"fmt"
	"image/color"
	"strconv"

	"github.com/inamate/rulergrid/internal/geom"
	"github.com/inamate/rulergrid/internal/viewport"
)

var (
	RulerStroke = color.NRGBA{R: 0x33, G: 0x33, B: 0x33, A: 0xff}
	GridStroke  = color.NRGBA{R: 0xe5, G: 0x39, B: 0x35, A: 0x99}
	LabelFill   = color.NRGBA{R: 0x55, G: 0x55, B: 0x55, A: 0xff}
)

const (
	StrokeWidth   = 1.0
	LabelFontSize = 10.0
)

// Layout is the host-provided chrome around the viewport.
type Layout struct {
	TopBarHeight float64 `json:"topBarHeight"`
	LeftBarWidth float64 `json:"leftBarWidth"`
	LabelEvery   int     `json:"labelEvery"` // 0 disables labels
}

// DefaultLayout returns 30px ruler bars labelled every 5 divisions.
func DefaultLayout() Layout {
	return Layout{TopBarHeight: 30, LeftBarWidth: 30, LabelEvery: 5}
}

// Axis identifies the ruler direction.
type Axis string

const (
	AxisX Axis = "x"
	AxisY Axis = "y"
)

// Transform is the image container's display transform.
type Transform struct {
	Scale      float64 `json:"scale"`
	TranslateX float64 `json:"translateX"`
	TranslateY float64 `json:"translateY"`
}

// CSS formats the transform as "translate(Xpx, Ypx) scale(S)".
func (t Transform) CSS() string {
	return fmt.Sprintf("translate(%spx, %spx) scale(%s)", num(t.TranslateX), num(t.TranslateY), num(t.Scale))
}

// Matrix returns the same transform as an affine matrix.
func (t Transform) Matrix() geom.Matrix2D {
	return geom.TranslateScale(t.TranslateX, t.TranslateY, t.Scale)
}

// Line is a straight stroke in the coordinate space of its layer.
type Line struct {
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
	X2 float64 `json:"x2"`
	Y2 float64 `json:"y2"`
}

// Label is a division index drawn next to a ruler line.
type Label struct {
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Text     string  `json:"text"`
	Anchor   string  `json:"anchor"` // "start" or "end"
	FontSize float64 `json:"fontSize"`
}

// Ruler is one ruler strip. Lines hold raw coordinates; the strip is drawn
// shifted by (OffsetX, OffsetY) to follow the container, and its lines by
// (CrispX, CrispY) to land on device-pixel centers.
type Ruler struct {
	Axis        Axis        `json:"axis"`
	Width       float64     `json:"width"`
	Height      float64     `json:"height"`
	OffsetX     float64     `json:"offsetX"`
	OffsetY     float64     `json:"offsetY"`
	CrispX      float64     `json:"crispX"`
	CrispY      float64     `json:"crispY"`
	StrokeWidth float64     `json:"strokeWidth"`
	Stroke      color.NRGBA `json:"-"`
	Lines       []Line      `json:"lines"`
	Labels      []Label     `json:"labels,omitempty"`
}

// CSS formats the sync offset: "translateX(Npx)" for the top ruler and
// "translateY(Npx)" for the left one.
func (r Ruler) CSS() string {
	if r.Axis == AxisY {
		return "translateY(" + num(r.OffsetY) + "px)"
	}
	return "translateX(" + num(r.OffsetX) + "px)"
}

// GroupTransform formats the crispness shift of the line group.
func (r Ruler) GroupTransform() string {
	return "translate(" + num(r.CrispX) + ", " + num(r.CrispY) + ")"
}

// SyncMatrix maps ruler coordinates into the ruler bar, crisp shift included.
func (r Ruler) SyncMatrix() geom.Matrix2D {
	return geom.Translate(r.OffsetX+r.CrispX, r.OffsetY+r.CrispY)
}

// Positions returns the raw coordinate of every line along the ruler axis.
func (r Ruler) Positions() []float64 {
	out := make([]float64, len(r.Lines))
	for i, l := range r.Lines {
		if r.Axis == AxisY {
			out[i] = l.Y1
		} else {
			out[i] = l.X1
		}
	}
	return out
}

// Rendered returns where line i is stroked inside the strip: the raw
// coordinate plus the crispness shift.
func (r Ruler) Rendered(i int) float64 {
	l := r.Lines[i]
	if r.Axis == AxisY {
		return l.Y1 + r.CrispY
	}
	return l.X1 + r.CrispX
}

// Overlay is the grid drawn inside the scaled container. It is sized to the
// unscaled content and relies on a non-scaling stroke.
type Overlay struct {
	Width            float64     `json:"width"`
	Height           float64     `json:"height"`
	StrokeWidth      float64     `json:"strokeWidth"`
	NonScalingStroke bool        `json:"nonScalingStroke"`
	Stroke           color.NRGBA `json:"-"`
	Vertical         []Line      `json:"vertical"`
	Horizontal       []Line      `json:"horizontal"`
}

// Lines returns vertical lines followed by horizontal ones.
func (o Overlay) Lines() []Line {
	out := make([]Line, 0, len(o.Vertical)+len(o.Horizontal))
	out = append(out, o.Vertical...)
	return append(out, o.Horizontal...)
}

// Frame is everything a renderer needs after one state change.
type Frame struct {
	Ready       bool      `json:"ready"`
	Container   Transform `json:"container"`
	TopRuler    Ruler     `json:"topRuler"`
	LeftRuler   Ruler     `json:"leftRuler"`
	Grid        Overlay   `json:"grid"`
	ZoomPercent int       `json:"zoomPercent"`
}

// ZoomLabel formats the display percentage, e.g. "150%".
func (f Frame) ZoomLabel() string {
	return strconv.Itoa(f.ZoomPercent) + "%"
}

// Project maps a state into a frame. A state that is not ready yields an
// empty frame.
func Project(s viewport.State, d viewport.Divisions, l Layout) Frame {
	if !s.Ready() {
		return Frame{}
	}

	gx, gy := viewport.GridLines(s, d)
	rx, ry := viewport.RulerLines(s, d)
	w, h := s.ScaledSize()

	return Frame{
		Ready: true,
		Container: Transform{
			Scale:      s.Scale,
			TranslateX: s.TranslateX,
			TranslateY: s.TranslateY,
		},
		TopRuler:    topRuler(rx, w, s.TranslateX, l),
		LeftRuler:   leftRuler(ry, h, s.TranslateY, l),
		Grid:        gridOverlay(gx, gy, s.ImageWidth, s.ImageHeight),
		ZoomPercent: s.ZoomPercent(),
	}
}

func topRuler(xs []float64, width, offset float64, l Layout) Ruler {
	r := Ruler{
		Axis:        AxisX,
		Width:       width,
		Height:      l.TopBarHeight,
		OffsetX:     offset,
		CrispX:      viewport.CrispOffset,
		StrokeWidth: StrokeWidth,
		Stroke:      RulerStroke,
		Lines:       make([]Line, len(xs)),
	}
	for i, x := range xs {
		r.Lines[i] = Line{X1: x, Y1: 0, X2: x, Y2: l.TopBarHeight}
		if labelled(i, l) {
			r.Labels = append(r.Labels, Label{X: x + 2, Y: 15, Text: strconv.Itoa(i), Anchor: "start", FontSize: LabelFontSize})
		}
	}
	return r
}

func leftRuler(ys []float64, height, offset float64, l Layout) Ruler {
	r := Ruler{
		Axis:        AxisY,
		Width:       l.LeftBarWidth,
		Height:      height,
		OffsetY:     offset,
		CrispY:      viewport.CrispOffset,
		StrokeWidth: StrokeWidth,
		Stroke:      RulerStroke,
		Lines:       make([]Line, len(ys)),
	}
	for i, y := range ys {
		r.Lines[i] = Line{X1: 0, Y1: y, X2: l.LeftBarWidth, Y2: y}
		if labelled(i, l) {
			r.Labels = append(r.Labels, Label{X: l.LeftBarWidth - 15, Y: y + 10, Text: strconv.Itoa(i), Anchor: "end", FontSize: LabelFontSize})
		}
	}
	return r
}

func gridOverlay(xs, ys []float64, width, height float64) Overlay {
	o := Overlay{
		Width:            width,
		Height:           height,
		StrokeWidth:      StrokeWidth,
		NonScalingStroke: true,
		Stroke:           GridStroke,
		Vertical:         make([]Line, len(xs)),
		Horizontal:       make([]Line, len(ys)),
	}
	for i, x := range xs {
		o.Vertical[i] = Line{X1: x, Y1: 0, X2: x, Y2: height}
	}
	for i, y := range ys {
		o.Horizontal[i] = Line{X1: 0, Y1: y, X2: width, Y2: y}
	}
	return o
}

func labelled(i int, l Layout) bool {
	return l.LabelEvery > 0 && i%l.LabelEvery == 0
}

// num formats like a browser would: shortest representation, no exponent
// for ordinary magnitudes.
func num(v float64) string {
	if v == 0 {
		return "0"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func hexColor(c color.NRGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

func opacity(c color.NRGBA) string {
	return num(float64(c.A) / 255)
}

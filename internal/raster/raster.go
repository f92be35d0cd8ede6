// Package raster draws projected frames into images, wrapping rasterx for
// the strokes and x/image/font for the ruler labels.
package raster

import (
	"image"
	"image/color"
	"math"
	"sync"

	"github.com/srwiley/rasterx"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"github.com/inamate/rulergrid/internal/geom"
	"github.com/inamate/rulergrid/internal/projection"
)

var (
	Background = color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	BarFill    = color.NRGBA{R: 0xf0, G: 0xf0, B: 0xf0, A: 0xff}
)

// canvas strokes straight lines into an RGBA image.
type canvas struct {
	img    *image.RGBA
	dasher *rasterx.Dasher
}

func newCanvas(width, height int) *canvas {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	scanner := rasterx.NewScannerGV(width, height, img, img.Bounds())
	return &canvas{img: img, dasher: rasterx.NewDasher(width, height, scanner)}
}

// stroke draws every line in one path with a butt-capped stroke of the
// given width. Coordinates are shifted by (dx, dy) first and axis-aligned
// lines are clipped to the canvas, so far-off geometry never reaches the
// fixed-point rasterizer.
func (c *canvas) stroke(lines []projection.Line, dx, dy, width float64, col color.Color) {
	if len(lines) == 0 {
		return
	}
	c.dasher.Clear()
	c.dasher.SetStroke(fixed.Int26_6(width*64), 0, rasterx.ButtCap, rasterx.ButtCap, rasterx.FlatGap, rasterx.Bevel, nil, 0)
	c.dasher.SetColor(col)
	pad := width + 1
	for _, l := range lines {
		shifted, ok := c.clip(projection.Line{X1: l.X1 + dx, Y1: l.Y1 + dy, X2: l.X2 + dx, Y2: l.Y2 + dy}, pad)
		if !ok {
			continue
		}
		c.dasher.Start(rasterx.ToFixedP(shifted.X1, shifted.Y1))
		c.dasher.Line(rasterx.ToFixedP(shifted.X2, shifted.Y2))
		c.dasher.Stop(false)
	}
	c.dasher.Draw()
}

// clip trims a vertical or horizontal line to the canvas grown by pad on
// every side. Other lines pass through unchanged.
func (c *canvas) clip(l projection.Line, pad float64) (projection.Line, bool) {
	b := c.img.Bounds()
	area := geom.Rect{
		X:      float64(b.Min.X) - pad,
		Y:      float64(b.Min.Y) - pad,
		Width:  float64(b.Dx()) + 2*pad,
		Height: float64(b.Dy()) + 2*pad,
	}
	switch {
	case l.X1 == l.X2:
		if !area.Contains(l.X1, area.Y) {
			return l, false
		}
		l.Y1 = clamp(l.Y1, area.Y, area.Y+area.Height)
		l.Y2 = clamp(l.Y2, area.Y, area.Y+area.Height)
	case l.Y1 == l.Y2:
		if !area.Contains(area.X, l.Y1) {
			return l, false
		}
		l.X1 = clamp(l.X1, area.X, area.X+area.Width)
		l.X2 = clamp(l.X2, area.X, area.X+area.Width)
	}
	return l, true
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}

// labelReach bounds how far a label's glyphs extend from its anchor.
const labelReach = 64

func (c *canvas) labels(labels []projection.Label, dx, dy float64, col color.Color) {
	b := c.img.Bounds()
	for _, lb := range labels {
		x, y := lb.X+dx, lb.Y+dy
		if x < float64(b.Min.X)-labelReach || x > float64(b.Max.X)+labelReach ||
			y < float64(b.Min.Y)-labelReach || y > float64(b.Max.Y)+labelReach {
			continue
		}
		face := labelFace(lb.FontSize)
		if lb.Anchor == "end" {
			x -= float64(font.MeasureString(face, lb.Text)) / 64
		}
		d := &font.Drawer{
			Dst:  c.img,
			Src:  image.NewUniform(col),
			Face: face,
			Dot:  rasterx.ToFixedP(x, y),
		}
		d.DrawString(lb.Text)
	}
}

var (
	facesMu sync.Mutex
	faces   = map[float64]font.Face{}
)

// labelFace returns Go Regular at the given size, falling back to the
// fixed 7x13 face if the embedded font cannot be loaded.
func labelFace(size float64) font.Face {
	facesMu.Lock()
	defer facesMu.Unlock()

	if f, ok := faces[size]; ok {
		return f
	}
	var face font.Face = basicfont.Face7x13
	if fnt, err := opentype.Parse(goregular.TTF); err == nil {
		if f, err := opentype.NewFace(fnt, &opentype.FaceOptions{Size: size, DPI: 72, Hinting: font.HintingNone}); err == nil {
			face = f
		}
	}
	faces[size] = face
	return face
}

func pixels(v float64) int {
	n := int(math.Ceil(v))
	if n < 1 {
		return 1
	}
	return n
}

// Ruler renders a ruler strip in its own coordinates, the way the SVG strip
// is drawn before the sync offset: lines at raw position plus the crisp
// shift, then labels. The image is transparent outside strokes and glyphs.
func Ruler(r projection.Ruler) *image.RGBA {
	return RulerWindow(r, pixels(r.Width+r.CrispX), pixels(r.Height+r.CrispY), 0, 0)
}

// RulerWindow renders the width x height part of a ruler strip that a bar
// shows when the strip is shifted by (dx, dy). The image never grows with
// the content size.
func RulerWindow(r projection.Ruler, width, height int, dx, dy float64) *image.RGBA {
	c := newCanvas(max(width, 1), max(height, 1))
	c.stroke(r.Lines, r.CrispX+dx, r.CrispY+dy, r.StrokeWidth, r.Stroke)
	c.labels(r.Labels, r.CrispX+dx, r.CrispY+dy, projection.LabelFill)
	return c.img
}

// Grid renders the overlay as seen through the container transform on a
// width x height viewport. Strokes keep their screen width at any scale.
func Grid(f projection.Frame, width, height int) *image.RGBA {
	c := newCanvas(max(width, 1), max(height, 1))
	if !f.Ready {
		return c.img
	}
	m := f.Container.Matrix()
	lines := f.Grid.Lines()
	mapped := make([]projection.Line, len(lines))
	for i, l := range lines {
		x1, y1 := m.TransformPoint(l.X1, l.Y1)
		x2, y2 := m.TransformPoint(l.X2, l.Y2)
		mapped[i] = projection.Line{X1: x1, Y1: y1, X2: x2, Y2: y2}
	}
	width1 := f.Grid.StrokeWidth
	if !f.Grid.NonScalingStroke {
		width1 *= f.Container.Scale
	}
	c.stroke(mapped, 0, 0, width1, f.Grid.Stroke)
	return c.img
}

// Snapshot composes the full viewer: the grid over a width x height
// viewport, the top ruler bar above it and the left ruler bar beside it,
// each ruler shifted by its sync offset and clipped to its bar.
func Snapshot(f projection.Frame, layout projection.Layout, width, height int) *image.RGBA {
	top := pixels(layout.TopBarHeight)
	left := pixels(layout.LeftBarWidth)
	width, height = max(width, 1), max(height, 1)

	out := image.NewRGBA(image.Rect(0, 0, left+width, top+height))
	draw.Draw(out, out.Bounds(), image.NewUniform(Background), image.Point{}, draw.Src)
	draw.Draw(out, image.Rect(0, 0, left+width, top), image.NewUniform(BarFill), image.Point{}, draw.Src)
	draw.Draw(out, image.Rect(0, top, left, top+height), image.NewUniform(BarFill), image.Point{}, draw.Src)

	view := image.Rect(left, top, left+width, top+height)
	draw.Draw(out, view, Grid(f, width, height), image.Point{}, draw.Over)
	if !f.Ready {
		return out
	}

	topBar := image.Rect(left, 0, left+width, top)
	draw.Draw(out, topBar, RulerWindow(f.TopRuler, width, top, f.TopRuler.OffsetX, 0), image.Point{}, draw.Over)

	leftBar := image.Rect(0, top, left, top+height)
	draw.Draw(out, leftBar, RulerWindow(f.LeftRuler, left, height, 0, f.LeftRuler.OffsetY), image.Point{}, draw.Over)
	return out
}

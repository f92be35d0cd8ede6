package export

import (
	"fmt"
	"image/color"
	"io"

	"github.com/jung-kurt/gofpdf"

	"github.com/inamate/rulergrid/internal/projection"
	"github.com/inamate/rulergrid/internal/raster"
)

// WritePDF draws the viewer chrome as vector graphics on a single page the
// size of the viewer, one point per CSS pixel. The layout matches
// raster.Snapshot: top bar, left bar and the grid viewport in the corner
// they leave.
func WritePDF(w io.Writer, f projection.Frame, layout projection.Layout, width, height float64) error {
	top, left := layout.TopBarHeight, layout.LeftBarWidth
	width, height = max(width, 1), max(height, 1)

	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		UnitStr: "pt",
		Size:    gofpdf.SizeType{Wd: left + width, Ht: top + height},
	})
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()

	setFill(pdf, raster.BarFill)
	pdf.Rect(0, 0, left+width, top, "F")
	pdf.Rect(0, top, left, height, "F")

	if f.Ready {
		pdf.ClipRect(left, top, width, height, false)
		drawGrid(pdf, f, left, top)
		pdf.ClipEnd()

		pdf.ClipRect(left, 0, width, top, false)
		drawRuler(pdf, f.TopRuler, left+f.TopRuler.OffsetX, 0)
		pdf.ClipEnd()

		pdf.ClipRect(0, top, left, height, false)
		drawRuler(pdf, f.LeftRuler, 0, top+f.LeftRuler.OffsetY)
		pdf.ClipEnd()
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

// drawGrid maps the overlay through the container transform. Line width
// stays at the screen width, like the non-scaling SVG stroke.
func drawGrid(pdf *gofpdf.Fpdf, f projection.Frame, dx, dy float64) {
	m := f.Container.Matrix()
	width := f.Grid.StrokeWidth
	if !f.Grid.NonScalingStroke {
		width *= f.Container.Scale
	}
	setStroke(pdf, f.Grid.Stroke, width)
	for _, l := range f.Grid.Lines() {
		x1, y1 := m.TransformPoint(l.X1, l.Y1)
		x2, y2 := m.TransformPoint(l.X2, l.Y2)
		pdf.Line(dx+x1, dy+y1, dx+x2, dy+y2)
	}
	pdf.SetAlpha(1, "Normal")
}

func drawRuler(pdf *gofpdf.Fpdf, r projection.Ruler, dx, dy float64) {
	setStroke(pdf, r.Stroke, r.StrokeWidth)
	lx, ly := dx+r.CrispX, dy+r.CrispY
	for _, l := range r.Lines {
		pdf.Line(lx+l.X1, ly+l.Y1, lx+l.X2, ly+l.Y2)
	}
	pdf.SetAlpha(1, "Normal")

	pdf.SetTextColor(int(projection.LabelFill.R), int(projection.LabelFill.G), int(projection.LabelFill.B))
	for _, label := range r.Labels {
		pdf.SetFont("Helvetica", "", label.FontSize)
		x := lx + label.X
		if label.Anchor == "end" {
			x -= pdf.GetStringWidth(label.Text)
		}
		pdf.Text(x, ly+label.Y, label.Text)
	}
}

func setStroke(pdf *gofpdf.Fpdf, c color.NRGBA, width float64) {
	pdf.SetDrawColor(int(c.R), int(c.G), int(c.B))
	pdf.SetLineWidth(width)
	pdf.SetLineCapStyle("butt")
	pdf.SetAlpha(float64(c.A)/255, "Normal")
}

func setFill(pdf *gofpdf.Fpdf, c color.NRGBA) {
	pdf.SetFillColor(int(c.R), int(c.G), int(c.B))
}

package projection

import (
	"bufio"
	"encoding/xml"
	"fmt"
	"io"
)

const svgNS = "http://www.w3.org/2000/svg"

// svgWriter remembers the first write error so element emission stays linear.
type svgWriter struct {
	w   *bufio.Writer
	err error
}

func (sw *svgWriter) printf(format string, args ...any) {
	if sw.err != nil {
		return
	}
	_, sw.err = fmt.Fprintf(sw.w, format, args...)
}

func (sw *svgWriter) text(s string) {
	if sw.err != nil {
		return
	}
	sw.err = xml.EscapeText(sw.w, []byte(s))
}

func (sw *svgWriter) flush() error {
	if sw.err != nil {
		return sw.err
	}
	return sw.w.Flush()
}

func (sw *svgWriter) line(l Line, stroke string, width float64, nonScaling bool) {
	sw.printf(`<line x1="%s" y1="%s" x2="%s" y2="%s" stroke="%s" stroke-width="%s"`,
		num(l.X1), num(l.Y1), num(l.X2), num(l.Y2), stroke, num(width))
	if nonScaling {
		sw.printf(` vector-effect="non-scaling-stroke"`)
	}
	sw.printf("/>\n")
}

// WriteSVG writes the ruler as a standalone SVG strip. The line group carries
// the crispness translation so x1/y1 keep their raw values.
func (r Ruler) WriteSVG(w io.Writer) error {
	sw := &svgWriter{w: bufio.NewWriter(w)}
	stroke := hexColor(r.Stroke)

	sw.printf(`<svg xmlns="%s" width="%s" height="%s">`+"\n", svgNS, num(r.Width), num(r.Height))
	sw.printf(`<g transform="%s">`+"\n", r.GroupTransform())
	for _, l := range r.Lines {
		sw.line(l, stroke, r.StrokeWidth, true)
	}
	for _, lb := range r.Labels {
		sw.printf(`<text x="%s" y="%s" font-size="%s" text-anchor="%s" fill="%s">`,
			num(lb.X), num(lb.Y), num(lb.FontSize), lb.Anchor, hexColor(LabelFill))
		sw.text(lb.Text)
		sw.printf("</text>\n")
	}
	sw.printf("</g>\n</svg>\n")
	return sw.flush()
}

// WriteSVG writes the grid overlay sized to the unscaled content.
func (o Overlay) WriteSVG(w io.Writer) error {
	sw := &svgWriter{w: bufio.NewWriter(w)}
	stroke := hexColor(o.Stroke)

	sw.printf(`<svg xmlns="%s" width="%s" height="%s" viewBox="0 0 %s %s" stroke-opacity="%s">`+"\n",
		svgNS, num(o.Width), num(o.Height), num(o.Width), num(o.Height), opacity(o.Stroke))
	for _, l := range o.Lines() {
		sw.line(l, stroke, o.StrokeWidth, o.NonScalingStroke)
	}
	sw.printf("</svg>\n")
	return sw.flush()
}

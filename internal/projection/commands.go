package projection

import (
	"encoding/json"
)

// Layer names used by draw commands.
const (
	LayerGrid      = "grid"
	LayerTopRuler  = "top"
	LayerLeftRuler = "left"
)

// DrawCommand represents a single drawing operation for the frontend to execute.
// "begin" pushes a transform (and sizes the layer when Layer is set), "end"
// pops it, "line" and "text" draw in the current space.
type DrawCommand struct {
	Op               string        `json:"op"`                         // "begin", "end", "line", "text"
	Layer            string        `json:"layer,omitempty"`            // grid, top, left
	Transform        []float64     `json:"transform,omitempty"`        // [a, b, c, d, e, f] affine matrix
	CSS              string        `json:"css,omitempty"`              // CSS form of the transform
	Width            float64       `json:"width,omitempty"`            // layer sizing
	Height           float64       `json:"height,omitempty"`           // layer sizing
	Path             []PathCommand `json:"path,omitempty"`             // Path data for "line" ops
	Stroke           string        `json:"stroke,omitempty"`           // Stroke color
	StrokeWidth      float64       `json:"strokeWidth,omitempty"`      // Stroke width
	Opacity          float64       `json:"opacity,omitempty"`          // Stroke alpha
	NonScalingStroke bool          `json:"nonScalingStroke,omitempty"` // keep on-screen width constant
	Text             string        `json:"text,omitempty"`
	X                float64       `json:"x,omitempty"`
	Y                float64       `json:"y,omitempty"`
	FontSize         float64       `json:"fontSize,omitempty"`
	Anchor           string        `json:"anchor,omitempty"`
}

// PathCommand represents a single path segment for rendering.
// Format matches Canvas2D: ["M", x, y], ["L", x, y].
type PathCommand []interface{}

// Commands flattens the frame into a draw command buffer, grid first, then
// the top and left rulers. An unready frame yields no commands.
func (f Frame) Commands() []DrawCommand {
	if !f.Ready {
		return nil
	}

	var commands []DrawCommand
	compileGrid(f, &commands)
	compileRuler(LayerTopRuler, f.TopRuler, &commands)
	compileRuler(LayerLeftRuler, f.LeftRuler, &commands)
	return commands
}

func compileGrid(f Frame, commands *[]DrawCommand) {
	g := f.Grid
	*commands = append(*commands, DrawCommand{
		Op:        "begin",
		Layer:     LayerGrid,
		Transform: f.Container.Matrix().ToSlice(),
		CSS:       f.Container.CSS(),
		Width:     g.Width,
		Height:    g.Height,
	})
	stroke := hexColor(g.Stroke)
	alpha := float64(g.Stroke.A) / 255
	for _, l := range g.Lines() {
		*commands = append(*commands, DrawCommand{
			Op:               "line",
			Path:             linePath(l),
			Stroke:           stroke,
			StrokeWidth:      g.StrokeWidth,
			Opacity:          alpha,
			NonScalingStroke: g.NonScalingStroke,
		})
	}
	*commands = append(*commands, DrawCommand{Op: "end"})
}

func compileRuler(layer string, r Ruler, commands *[]DrawCommand) {
	*commands = append(*commands,
		DrawCommand{
			Op:        "begin",
			Layer:     layer,
			Transform: []float64{1, 0, 0, 1, r.OffsetX, r.OffsetY},
			CSS:       r.CSS(),
			Width:     r.Width,
			Height:    r.Height,
		},
		DrawCommand{
			Op:        "begin",
			Transform: []float64{1, 0, 0, 1, r.CrispX, r.CrispY},
			CSS:       r.GroupTransform(),
		},
	)
	stroke := hexColor(r.Stroke)
	for _, l := range r.Lines {
		*commands = append(*commands, DrawCommand{
			Op:               "line",
			Path:             linePath(l),
			Stroke:           stroke,
			StrokeWidth:      r.StrokeWidth,
			Opacity:          1,
			NonScalingStroke: true,
		})
	}
	for _, lb := range r.Labels {
		*commands = append(*commands, DrawCommand{
			Op:       "text",
			Text:     lb.Text,
			X:        lb.X,
			Y:        lb.Y,
			FontSize: lb.FontSize,
			Anchor:   lb.Anchor,
		})
	}
	*commands = append(*commands, DrawCommand{Op: "end"}, DrawCommand{Op: "end"})
}

func linePath(l Line) []PathCommand {
	return []PathCommand{{"M", l.X1, l.Y1}, {"L", l.X2, l.Y2}}
}

// CommandsToJSON serializes draw commands to JSON.
func CommandsToJSON(commands []DrawCommand) (string, error) {
	if commands == nil {
		return "[]", nil
	}
	data, err := json.Marshal(commands)
	if err != nil {
		return "[]", err
	}
	return string(data), nil
}

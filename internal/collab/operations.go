package collab

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/inamate/rulergrid/internal/engine"
	"github.com/inamate/rulergrid/internal/geom"
)

var ErrUnknownOperation = errors.New("unknown operation type")

// ApplyOperation applies a viewport command message to the engine and
// reports whether the state changed. Effective changes are broadcast by the
// engine's renderer, not here.
func ApplyOperation(e *engine.Engine, msg *Message) (bool, error) {
	switch msg.Type {
	case TypePan:
		return applyPan(e, msg.Payload)
	case TypeZoom:
		return applyZoom(e, msg.Payload)
	case TypeResize:
		return applyResize(e, msg.Payload)
	case TypeContent:
		return applyContent(e, msg.Payload)
	default:
		return false, fmt.Errorf("%w: %s", ErrUnknownOperation, msg.Type)
	}
}

func applyPan(e *engine.Engine, raw json.RawMessage) (bool, error) {
	var p PanPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return false, fmt.Errorf("unmarshal pan: %w", err)
	}
	return e.Pan(p.DX, p.DY), nil
}

func applyZoom(e *engine.Engine, raw json.RawMessage) (bool, error) {
	var p ZoomPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return false, fmt.Errorf("unmarshal zoom: %w", err)
	}
	switch {
	case p.Step == "in":
		return e.ZoomIn(), nil
	case p.Step == "out":
		return e.ZoomOut(), nil
	case p.Step != "":
		return false, fmt.Errorf("unknown zoom step %q", p.Step)
	case p.Factor == 0 && p.DeltaY != nil:
		return e.Wheel(*p.DeltaY, p.X, p.Y), nil
	default:
		return e.Zoom(p.Factor, p.X, p.Y), nil
	}
}

func applyResize(e *engine.Engine, raw json.RawMessage) (bool, error) {
	var p ResizePayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return false, fmt.Errorf("unmarshal resize: %w", err)
	}
	if p.Width < 0 || p.Height < 0 {
		return false, errors.New("resize: negative size")
	}
	e.Resize(geom.Rect{X: p.X, Y: p.Y, Width: p.Width, Height: p.Height})
	return e.State().Ready(), nil
}

func applyContent(e *engine.Engine, raw json.RawMessage) (bool, error) {
	var p ContentPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return false, fmt.Errorf("unmarshal content: %w", err)
	}
	if err := e.SetContentSize(p.Width, p.Height); err != nil {
		return false, err
	}
	return true, nil
}

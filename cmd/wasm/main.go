//go:build js && wasm

package main

import (
	"syscall/js"

	"github.com/inamate/rulergrid/internal/engine"
	"github.com/inamate/rulergrid/internal/geom"
	"github.com/inamate/rulergrid/internal/projection"
	"github.com/inamate/rulergrid/internal/viewport"
)

var (
	eng     *engine.Engine
	frameFn js.Value // optional JS callback, set with onFrame
)

func main() {
	eng = engine.NewEngine(engine.Options{
		Renderer: engine.RendererFunc(draw),
	})

	// Create the engine API object
	rulergridEngine := js.Global().Get("Object").New()

	// --- Commands (host → engine) ---
	rulergridEngine.Set("contentReady", js.FuncOf(contentReady))
	rulergridEngine.Set("pan", js.FuncOf(pan))
	rulergridEngine.Set("zoom", js.FuncOf(zoom))
	rulergridEngine.Set("zoomIn", js.FuncOf(zoomIn))
	rulergridEngine.Set("zoomOut", js.FuncOf(zoomOut))
	rulergridEngine.Set("wheel", js.FuncOf(wheel))
	rulergridEngine.Set("resize", js.FuncOf(resize))
	rulergridEngine.Set("onFrame", js.FuncOf(onFrame))

	// --- Queries (engine → host) ---
	rulergridEngine.Set("render", js.FuncOf(render))
	rulergridEngine.Set("getViewState", js.FuncOf(getViewState))
	rulergridEngine.Set("hitTest", js.FuncOf(hitTest))
	rulergridEngine.Set("getConfig", js.FuncOf(getConfig))

	// Register on global scope
	js.Global().Set("rulergridEngine", rulergridEngine)

	// Signal that WASM is ready
	js.Global().Set("rulergridWasmReady", js.ValueOf(true))

	// Keep Go runtime alive
	select {}
}

// draw runs inside the engine's mutation, so the callback must not call
// back into rulergridEngine. It forwards the frame's CSS
// for the container and both ruler offsets.
func draw(f projection.Frame, change viewport.Change) {
	if frameFn.Type() != js.TypeFunction {
		return
	}
	frameFn.Invoke(map[string]interface{}{
		"change":    change.String(),
		"container": f.Container.CSS(),
		"topRuler":  f.TopRuler.CSS(),
		"leftRuler": f.LeftRuler.CSS(),
		"zoom":      f.ZoomLabel(),
	})
}

func floats(args []js.Value, n int) ([]float64, bool) {
	if len(args) < n {
		return nil, false
	}
	out := make([]float64, n)
	for i := range out {
		if args[i].Type() != js.TypeNumber {
			return nil, false
		}
		out[i] = args[i].Float()
	}
	return out, true
}

// --- Command Handlers ---

func contentReady(this js.Value, args []js.Value) interface{} {
	v, ok := floats(args, 2)
	if !ok {
		return js.ValueOf(map[string]interface{}{"error": "expected width and height"})
	}
	if err := eng.SetContentSize(v[0], v[1]); err != nil {
		return js.ValueOf(map[string]interface{}{"error": err.Error()})
	}
	return js.ValueOf(map[string]interface{}{"ok": true})
}

func pan(this js.Value, args []js.Value) interface{} {
	v, ok := floats(args, 2)
	if !ok {
		return js.ValueOf(false)
	}
	return js.ValueOf(eng.Pan(v[0], v[1]))
}

func zoom(this js.Value, args []js.Value) interface{} {
	v, ok := floats(args, 3)
	if !ok {
		return js.ValueOf(false)
	}
	return js.ValueOf(eng.Zoom(v[0], v[1], v[2]))
}

func zoomIn(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.ZoomIn())
}

func zoomOut(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.ZoomOut())
}

func wheel(this js.Value, args []js.Value) interface{} {
	v, ok := floats(args, 3)
	if !ok {
		return js.ValueOf(false)
	}
	return js.ValueOf(eng.Wheel(v[0], v[1], v[2]))
}

// resize takes the container's client rect: left, top, width, height.
func resize(this js.Value, args []js.Value) interface{} {
	v, ok := floats(args, 4)
	if !ok {
		return nil
	}
	eng.Resize(geom.Rect{X: v[0], Y: v[1], Width: v[2], Height: v[3]})
	return nil
}

func onFrame(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		frameFn = js.Undefined()
		return nil
	}
	frameFn = args[0]
	return nil
}

// --- Query Handlers ---

func render(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.Render())
}

func getViewState(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.ViewState())
}

func hitTest(this js.Value, args []js.Value) interface{} {
	v, ok := floats(args, 2)
	if !ok {
		return nil
	}
	h := eng.HitTest(v[0], v[1])
	if !h.Inside {
		return nil
	}
	return js.ValueOf(map[string]interface{}{
		"x":   h.X,
		"y":   h.Y,
		"col": h.Col,
		"row": h.Row,
	})
}

func getConfig(this js.Value, args []js.Value) interface{} {
	s := eng.Settings()
	return js.ValueOf(map[string]interface{}{
		"zoomStep":     s.ZoomStep,
		"minZoom":      s.MinZoom,
		"maxZoom":      s.MaxZoom,
		"xDivisions":   s.Divisions.X,
		"yDivisions":   s.Divisions.Y,
		"topBarHeight": s.Layout.TopBarHeight,
		"leftBarWidth": s.Layout.LeftBarWidth,
		"labelEvery":   s.Layout.LabelEvery,
	})
}

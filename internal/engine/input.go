package engine

// WheelFactor maps a wheel delta to a zoom factor: step when scrolling up
// (negative deltaY), 1/step otherwise.
func WheelFactor(deltaY, step float64) float64 {
	if deltaY < 0 {
		return step
	}
	return 1 / step
}

// Panner is the subset of Engine a Drag drives.
type Panner interface {
	Pan(dx, dy float64) bool
}

// Drag turns absolute pointer positions into pan deltas. The zero value is
// idle; Press starts a gesture, Move pans by the distance since the last
// position and Release ends it.
type Drag struct {
	active bool
	lastX  float64
	lastY  float64
}

// Press starts a drag at the given client position.
func (d *Drag) Press(x, y float64) {
	d.active = true
	d.lastX, d.lastY = x, y
}

// Move pans the target by the pointer movement. Moves outside a gesture are
// ignored.
func (d *Drag) Move(p Panner, x, y float64) bool {
	if !d.active {
		return false
	}
	dx, dy := x-d.lastX, y-d.lastY
	d.lastX, d.lastY = x, y
	if dx == 0 && dy == 0 {
		return false
	}
	return p.Pan(dx, dy)
}

// Release ends the gesture.
func (d *Drag) Release() {
	d.active = false
}

// Active reports whether a gesture is in progress.
func (d *Drag) Active() bool {
	return d.active
}

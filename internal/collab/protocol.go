package collab

import (
	"encoding/json"

	"github.com/inamate/rulergrid/internal/engine"
	"github.com/inamate/rulergrid/internal/projection"
)

type Message struct {
	Type     string          `json:"type"`
	ViewerID string          `json:"viewerId,omitempty"`
	ClientID string          `json:"clientId,omitempty"`
	Seq      int64           `json:"seq,omitempty"`
	Payload  json.RawMessage `json:"payload"`
}

const (
	// Viewport commands (client → server)
	TypePan     = "viewport.pan"
	TypeZoom    = "viewport.zoom"
	TypeResize  = "viewport.resize"
	TypeContent = "content.ready"

	// Server → client
	TypeWelcome = "welcome"
	TypeFrame   = "frame"
	TypeError   = "error"

	TypePresenceUpdate = "presence.update"
	TypePresenceState  = "presence.state"
	TypePresenceJoin   = "presence.join"
	TypePresenceLeave  = "presence.leave"
)

type PanPayload struct {
	DX float64 `json:"dx"`
	DY float64 `json:"dy"`
}

// ZoomPayload zooms by Factor about (X, Y). With Step set to "in" or "out"
// it zooms one step about the viewer center; with only DeltaY set it acts
// as a wheel event.
type ZoomPayload struct {
	Factor float64  `json:"factor,omitempty"`
	DeltaY *float64 `json:"deltaY,omitempty"`
	Step   string   `json:"step,omitempty"`
	X      float64  `json:"x"`
	Y      float64  `json:"y"`
}

type ResizePayload struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type ContentPayload struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type FramePayload struct {
	Change string           `json:"change"`
	Frame  projection.Frame `json:"frame"`
}

type WelcomePayload struct {
	ClientID string           `json:"clientId"`
	ViewerID string           `json:"viewerId"`
	View     engine.ViewState `json:"view"`
	Frame    projection.Frame `json:"frame"`
	Settings engine.Settings  `json:"settings"`
}

type ErrorPayload struct {
	Type    string `json:"type,omitempty"` // message type that failed
	Message string `json:"message"`
}

type PresencePayload struct {
	Cursor *CursorPos  `json:"cursor,omitempty"`
	Image  *engine.Hit `json:"image,omitempty"`
}

type CursorPos struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type PresenceStatePayload struct {
	Presences map[string]*PresencePayload `json:"presences"`
}

type PresenceJoinPayload struct {
	ClientID string `json:"clientId"`
}

type PresenceLeavePayload struct {
	ClientID string `json:"clientId"`
}

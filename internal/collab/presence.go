package collab

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/inamate/rulergrid/internal/engine"
)

// cursors tracks where each client's pointer is, both in client space and
// mapped into image space by the viewer's engine.
type cursors struct {
	mu sync.RWMutex
	at map[string]*PresencePayload // clientID -> last position
}

func newCursors() *cursors {
	return &cursors{at: make(map[string]*PresencePayload)}
}

// move records a client's pointer and resolves it against the engine.
func (c *cursors) move(clientID string, pos CursorPos, e *engine.Engine) *PresencePayload {
	p := &PresencePayload{Cursor: &pos}
	if hit := e.HitTest(pos.X, pos.Y); hit.Inside {
		p.Image = &hit
	}

	c.mu.Lock()
	c.at[clientID] = p
	c.mu.Unlock()
	return p
}

func (c *cursors) drop(clientID string) {
	c.mu.Lock()
	delete(c.at, clientID)
	c.mu.Unlock()
}

// stateMessage snapshots every known cursor, or returns nil when there are
// none to report.
func (c *cursors) stateMessage() *Message {
	c.mu.RLock()
	if len(c.at) == 0 {
		c.mu.RUnlock()
		return nil
	}
	all := make(map[string]*PresencePayload, len(c.at))
	for id, p := range c.at {
		all[id] = p
	}
	c.mu.RUnlock()

	payload, err := json.Marshal(PresenceStatePayload{Presences: all})
	if err != nil {
		slog.Error("marshal presence state", "error", err)
		return nil
	}
	return &Message{Type: TypePresenceState, Payload: payload}
}

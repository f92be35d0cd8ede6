package collab

import (
	"encoding/json"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/coder/websocket"

	"github.com/inamate/rulergrid/internal/projection"
	"github.com/inamate/rulergrid/internal/viewer"
	"github.com/inamate/rulergrid/internal/viewport"
)

// Viewers resolves the viewer a room is attached to.
type Viewers interface {
	Get(viewerID string) (*viewer.Viewer, error)
}

type Room struct {
	viewerID string
	clients  map[string]*Client // clientID -> client
	cursors  *cursors
	seq      atomic.Int64
}

func NewRoom(viewerID string) *Room {
	return &Room{
		viewerID: viewerID,
		clients:  make(map[string]*Client),
		cursors:  newCursors(),
	}
}

// Hub fans out the frames of each viewer to the websocket clients watching
// it. One room per viewer.
type Hub struct {
	mu         sync.RWMutex
	rooms      map[string]*Room // viewerID -> room
	viewers    Viewers
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	stopOnce   sync.Once
}

func NewHub(viewers Viewers) *Hub {
	return &Hub{
		rooms:      make(map[string]*Room),
		viewers:    viewers,
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		case <-h.done:
			return
		}
	}
}

// Stop ends Run and disconnects every client.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() {
		close(h.done)

		h.mu.RLock()
		var clients []*Client
		for _, room := range h.rooms {
			for _, c := range room.clients {
				clients = append(clients, c)
			}
		}
		h.mu.RUnlock()

		for _, c := range clients {
			c.conn.Close(websocket.StatusGoingAway, "server shutting down")
		}
		slog.Info("hub stopped", "clients", len(clients))
	})
}

func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
		client.conn.Close(websocket.StatusGoingAway, "server shutting down")
	}
}

func (h *Hub) leave(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
		client.close()
	}
}

func (h *Hub) addClient(client *Client) {
	v, err := h.viewers.Get(client.ViewerID)
	if err != nil {
		client.Send(errorMessage("", "viewer not found"))
		client.close()
		client.conn.Close(websocket.StatusPolicyViolation, "viewer not found")
		return
	}

	h.mu.Lock()
	room, ok := h.rooms[client.ViewerID]
	if !ok {
		room = NewRoom(client.ViewerID)
		h.rooms[client.ViewerID] = room
	}
	room.clients[client.ClientID] = client
	h.mu.Unlock()

	welcome, _ := json.Marshal(WelcomePayload{
		ClientID: client.ClientID,
		ViewerID: client.ViewerID,
		View:     v.Engine.View(),
		Frame:    v.Engine.Frame(),
		Settings: v.Engine.Settings(),
	})
	client.Send(&Message{Type: TypeWelcome, ViewerID: client.ViewerID, Seq: room.seq.Load(), Payload: welcome})

	if stateMsg := room.cursors.stateMessage(); stateMsg != nil {
		client.Send(stateMsg)
	}

	joinPayload, _ := json.Marshal(PresenceJoinPayload{ClientID: client.ClientID})
	h.broadcastToRoom(client.ViewerID, &Message{
		Type:     TypePresenceJoin,
		ClientID: client.ClientID,
		Payload:  joinPayload,
	}, client.ClientID)

	slog.Info("client joined", "client", client.ClientID, "viewer", client.ViewerID)
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	room, ok := h.rooms[client.ViewerID]
	if !ok {
		h.mu.Unlock()
		client.close()
		return
	}

	delete(room.clients, client.ClientID)
	client.close()
	room.cursors.drop(client.ClientID)

	if len(room.clients) == 0 {
		delete(h.rooms, client.ViewerID)
	}
	h.mu.Unlock()

	leavePayload, _ := json.Marshal(PresenceLeavePayload{ClientID: client.ClientID})
	h.broadcastToRoom(client.ViewerID, &Message{
		Type:     TypePresenceLeave,
		ClientID: client.ClientID,
		Payload:  leavePayload,
	}, "")

	slog.Info("client left", "client", client.ClientID, "viewer", client.ViewerID)
}

func (h *Hub) handleMessage(sender *Client, msg *Message) {
	v, err := h.viewers.Get(sender.ViewerID)
	if err != nil {
		sender.Send(errorMessage(msg.Type, "viewer not found"))
		return
	}

	switch msg.Type {
	case TypePresenceUpdate:
		h.handlePresenceUpdate(sender, v, msg)
	case TypePan, TypeZoom, TypeResize, TypeContent:
		if _, err := ApplyOperation(v.Engine, msg); err != nil {
			slog.Warn("operation rejected", "error", err, "type", msg.Type, "client", sender.ClientID)
			sender.Send(errorMessage(msg.Type, err.Error()))
		}
	default:
		slog.Warn("unknown message type", "type", msg.Type, "client", sender.ClientID)
		sender.Send(errorMessage(msg.Type, "unknown message type"))
	}
}

func (h *Hub) handlePresenceUpdate(sender *Client, v *viewer.Viewer, msg *Message) {
	var pos CursorPos
	if err := json.Unmarshal(msg.Payload, &pos); err != nil {
		slog.Warn("invalid presence payload", "error", err)
		sender.Send(errorMessage(msg.Type, "invalid presence payload"))
		return
	}

	h.mu.RLock()
	room, ok := h.rooms[sender.ViewerID]
	h.mu.RUnlock()
	if !ok {
		return
	}

	presence := room.cursors.move(sender.ClientID, pos, v.Engine)
	outPayload, _ := json.Marshal(presence)
	h.broadcastToRoom(sender.ViewerID, &Message{
		Type:     TypePresenceUpdate,
		ClientID: sender.ClientID,
		Payload:  outPayload,
	}, sender.ClientID)
}

// PublishFrame broadcasts a rendered frame to every client of the viewer.
// It is called from inside the engine's mutation and must not query it.
func (h *Hub) PublishFrame(viewerID string, frame projection.Frame, change viewport.Change) {
	h.mu.RLock()
	room, ok := h.rooms[viewerID]
	h.mu.RUnlock()
	if !ok {
		return
	}

	payload, err := json.Marshal(FramePayload{Change: change.String(), Frame: frame})
	if err != nil {
		slog.Error("marshal frame", "error", err, "viewer", viewerID)
		return
	}
	h.broadcastToRoom(viewerID, &Message{
		Type:     TypeFrame,
		ViewerID: viewerID,
		Seq:      room.seq.Add(1),
		Payload:  payload,
	}, "")
}

// CloseRoom disconnects every client of a deleted viewer.
func (h *Hub) CloseRoom(viewerID string) {
	h.mu.RLock()
	room, ok := h.rooms[viewerID]
	var clients []*Client
	if ok {
		for _, c := range room.clients {
			clients = append(clients, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range clients {
		c.conn.Close(websocket.StatusGoingAway, "viewer deleted")
	}
}

// ClientCount returns the number of clients connected to a viewer.
func (h *Hub) ClientCount(viewerID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if room, ok := h.rooms[viewerID]; ok {
		return len(room.clients)
	}
	return 0
}

func (h *Hub) broadcastToRoom(viewerID string, msg *Message, excludeClientID string) {
	h.mu.RLock()
	room, ok := h.rooms[viewerID]
	if !ok {
		h.mu.RUnlock()
		return
	}

	clients := make([]*Client, 0, len(room.clients))
	for _, c := range room.clients {
		if c.ClientID != excludeClientID {
			clients = append(clients, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range clients {
		c.Send(msg)
	}
}

func errorMessage(failedType, text string) *Message {
	payload, _ := json.Marshal(ErrorPayload{Type: failedType, Message: text})
	return &Message{Type: TypeError, Payload: payload}
}

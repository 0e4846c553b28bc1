package ws

import (
	"sync"

	"go.uber.org/zap"
)

// Hub is the connection registry: it owns every live connection and its
// room membership. Game services never see sockets, only the emitter
// view handed out by RoomEmitter.
type Hub struct {
	mu         sync.RWMutex
	conns      map[string]*clientConn // connID -> conn
	rooms      map[string]*room       // room name -> members
	membership map[string]string      // connID -> room name
}

func NewHub() *Hub {
	return &Hub{
		conns:      make(map[string]*clientConn),
		rooms:      make(map[string]*room),
		membership: make(map[string]string),
	}
}

func (h *Hub) Register(c *clientConn) {
	h.mu.Lock()
	h.conns[c.id] = c
	h.mu.Unlock()
}

// Unregister drops the connection and its membership. Returns the room
// the connection was in, "" if none.
func (h *Hub) Unregister(connID string) string {
	h.mu.Lock()
	defer h.mu.Unlock()

	prev := h.membership[connID]
	if r, ok := h.rooms[prev]; ok {
		r.remove(connID)
	}
	delete(h.membership, connID)
	delete(h.conns, connID)
	return prev
}

// Join moves the connection into roomName, leaving any previous room.
// Returns the previous room, "" if none.
func (h *Hub) Join(roomName, connID string) string {
	h.mu.Lock()
	defer h.mu.Unlock()

	prev := h.membership[connID]
	if prev == roomName {
		return prev
	}
	if r, ok := h.rooms[prev]; ok {
		r.remove(connID)
	}

	c, ok := h.conns[connID]
	if !ok {
		delete(h.membership, connID)
		return prev
	}
	r, ok := h.rooms[roomName]
	if !ok {
		r = newRoom()
		h.rooms[roomName] = r
	}
	r.add(c)
	h.membership[connID] = roomName
	return prev
}

// Room reports which room the connection currently belongs to.
func (h *Hub) Room(connID string) string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.membership[connID]
}

func (h *Hub) SendTo(connID, event string, body any) {
	h.mu.RLock()
	c, ok := h.conns[connID]
	h.mu.RUnlock()
	if !ok {
		return
	}
	if err := c.writeJSON(outFrame{Event: event, Body: body}); err != nil {
		c.close()
	}
}

func (h *Hub) BroadcastRoom(roomName, event string, body any) {
	h.broadcast(roomName, "", event, body)
}

func (h *Hub) BroadcastOthers(roomName, senderID, event string, body any) {
	h.broadcast(roomName, senderID, event, body)
}

func (h *Hub) broadcast(roomName, excludeID, event string, body any) {
	// Take a quick snapshot of the current members
	h.mu.RLock()
	r, ok := h.rooms[roomName]
	var conns []*clientConn
	if ok {
		conns = r.snapshot(excludeID)
	}
	h.mu.RUnlock()

	// Do the I/O outside the lock. A failed write only closes the socket:
	// registry cleanup stays with the reader goroutine, whose Unregister
	// must still see the membership so the owning service is told about
	// the departure.
	frame := outFrame{Event: event, Body: body}
	for _, c := range conns {
		if err := c.writeJSON(frame); err != nil {
			c.close()
		}
	}
}

// DisconnectAll forcibly severs every live connection. Used by the admin
// reset channel.
func (h *Hub) DisconnectAll() {
	h.mu.Lock()
	conns := make([]*clientConn, 0, len(h.conns))
	for _, c := range h.conns {
		conns = append(conns, c)
	}
	h.conns = make(map[string]*clientConn)
	h.rooms = make(map[string]*room)
	h.membership = make(map[string]string)
	h.mu.Unlock()

	for _, c := range conns {
		c.close()
	}
	zap.L().Warn("ws.disconnect_all", zap.Int("conns", len(conns)))
}

// Stats returns the member count per room.
func (h *Hub) Stats() map[string]int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make(map[string]int, len(h.rooms))
	for name, r := range h.rooms {
		out[name] = len(r.conns)
	}
	return out
}

// RoomEmitter is the per-room broadcast view handed to a game service.
// It satisfies each service's Emitter interface.
type RoomEmitter struct {
	hub  *Hub
	room string
}

func (h *Hub) RoomEmitter(roomName string) RoomEmitter {
	return RoomEmitter{hub: h, room: roomName}
}

func (e RoomEmitter) ToConn(connID, event string, body any) {
	e.hub.SendTo(connID, event, body)
}

func (e RoomEmitter) ToRoom(event string, body any) {
	e.hub.BroadcastRoom(e.room, event, body)
}

func (e RoomEmitter) ToOthers(senderID, event string, body any) {
	e.hub.BroadcastOthers(e.room, senderID, event, body)
}

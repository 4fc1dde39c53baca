package server

import (
	"sync"

	"github.com/gorilla/websocket"
)

// client wraps one websocket connection. The mutex serializes writes, which
// gorilla requires of concurrent senders.
type client struct {
	mtx  sync.Mutex
	conn *websocket.Conn

	playerID string
	roomID   string
}

func (c *client) send(event string, data interface{}) error {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	return c.conn.WriteJSON(struct {
		Event string      `json:"event"`
		Data  interface{} `json:"data,omitempty"`
	}{Event: event, Data: data})
}

func (c *client) joined() bool {
	return c.roomID != ""
}

// ConnRegistry tracks which connection speaks for which player of which
// room, so room events can be fanned out.
type ConnRegistry struct {
	mtx   sync.RWMutex
	rooms map[string]map[string]*client
}

func NewConnRegistry() *ConnRegistry {
	return &ConnRegistry{rooms: map[string]map[string]*client{}}
}

func (r *ConnRegistry) Add(c *client) {
	r.mtx.Lock()
	defer r.mtx.Unlock()
	room, ok := r.rooms[c.roomID]
	if !ok {
		room = map[string]*client{}
		r.rooms[c.roomID] = room
	}
	room[c.playerID] = c
}

func (r *ConnRegistry) Remove(c *client) {
	r.mtx.Lock()
	defer r.mtx.Unlock()
	room, ok := r.rooms[c.roomID]
	if !ok {
		return
	}
	delete(room, c.playerID)
	if len(room) == 0 {
		delete(r.rooms, c.roomID)
	}
}

// Clients snapshots the connections of one room.
func (r *ConnRegistry) Clients(roomID string) []*client {
	r.mtx.RLock()
	defer r.mtx.RUnlock()
	clients := make([]*client, 0, len(r.rooms[roomID]))
	for _, c := range r.rooms[roomID] {
		clients = append(clients, c)
	}
	return clients
}

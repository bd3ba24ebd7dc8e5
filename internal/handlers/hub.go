package handlers

import (
	"sync"

	"chatcord-server/internal/models"
	"chatcord-server/internal/presence"
	"chatcord-server/internal/utils"

	"github.com/gofiber/websocket/v2"
)

// Hub is the broadcast fan-out: it owns the live websocket connections and
// delivers events to a room's members, to one user, or to everyone. Room
// membership comes from the Directory, which stays the single source of
// truth for presence. Delivery is push-only; a failed write is logged and
// the read loop handles the eventual disconnect.
type Hub struct {
	dir *presence.Directory

	mu    sync.RWMutex
	conns map[string]*client
}

type client struct {
	conn *websocket.Conn
	// serializes writes; the websocket is not safe for concurrent writers
	mu sync.Mutex
}

func NewHub(dir *presence.Directory) *Hub {
	return &Hub{
		dir:   dir,
		conns: make(map[string]*client),
	}
}

func (h *Hub) Register(connID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[connID] = &client{conn: conn}
}

func (h *Hub) Unregister(connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.conns, connID)
}

func (h *Hub) ToConn(connID string, event models.WSEvent) {
	h.mu.RLock()
	cl, ok := h.conns[connID]
	h.mu.RUnlock()
	if !ok {
		return
	}
	h.send(cl, event)
}

func (h *Hub) ToUser(username string, event models.WSEvent) {
	user, ok := h.dir.FindByUsername(username)
	if !ok || !user.Online {
		return
	}
	h.ToConn(user.ConnID, event)
}

func (h *Hub) ToRoom(room, excludeConn string, event models.WSEvent) {
	for _, username := range h.dir.ListOnlineInRoom(room) {
		user, ok := h.dir.FindByUsername(username)
		if !ok || !user.Online || user.ConnID == excludeConn {
			continue
		}
		h.ToConn(user.ConnID, event)
	}
}

func (h *Hub) ToAll(event models.WSEvent) {
	h.mu.RLock()
	clients := make([]*client, 0, len(h.conns))
	for _, cl := range h.conns {
		clients = append(clients, cl)
	}
	h.mu.RUnlock()

	for _, cl := range clients {
		h.send(cl, event)
	}
}

func (h *Hub) send(cl *client, event models.WSEvent) {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	if err := utils.SendJSON(cl.conn, event); err != nil {
		utils.LogError(err, "hub send")
	}
}

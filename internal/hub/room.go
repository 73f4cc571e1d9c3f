package hub

import (
	"sync"
	"time"
)

// Room is transport-level membership only: which sockets receive traffic
// addressed to a room ID. Battle semantics live in the arena; the hub just
// fans frames out.
type Room struct {
	ID        string
	CreatedAt time.Time

	clients map[*Client]bool
	mu      sync.RWMutex
}

func NewRoom(id string) *Room {
	return &Room{
		ID:        id,
		CreatedAt: time.Now(),
		clients:   make(map[*Client]bool),
	}
}

func (r *Room) AddClient(client *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clients[client] = true
}

func (r *Room) RemoveClient(client *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.clients, client)
}

func (r *Room) GetClients() []*Client {
	r.mu.RLock()
	defer r.mu.RUnlock()

	clients := make([]*Client, 0, len(r.clients))
	for client := range r.clients {
		clients = append(clients, client)
	}
	return clients
}

func (r *Room) ClientCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}

func (r *Room) IsEmpty() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients) == 0
}

type RoomManager struct {
	rooms map[string]*Room
	mu    sync.RWMutex
}

func NewRoomManager() *RoomManager {
	return &RoomManager{
		rooms: make(map[string]*Room),
	}
}

func (rm *RoomManager) GetOrCreateRoom(roomID string) *Room {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	if room, exists := rm.rooms[roomID]; exists {
		return room
	}

	room := NewRoom(roomID)
	rm.rooms[roomID] = room
	return room
}

func (rm *RoomManager) GetRoom(roomID string) *Room {
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	return rm.rooms[roomID]
}

func (rm *RoomManager) JoinRoom(roomID string, client *Client) *Room {
	room := rm.GetOrCreateRoom(roomID)
	room.AddClient(client)
	client.JoinRoom(roomID)
	return room
}

func (rm *RoomManager) LeaveRoom(roomID string, client *Client) {
	rm.mu.RLock()
	room := rm.rooms[roomID]
	rm.mu.RUnlock()

	if room == nil {
		return
	}

	room.RemoveClient(client)
	client.LeaveRoom(roomID)

	if room.IsEmpty() {
		rm.mu.Lock()
		if room.IsEmpty() {
			delete(rm.rooms, roomID)
		}
		rm.mu.Unlock()
	}
}

func (rm *RoomManager) LeaveAllRooms(client *Client) []string {
	rooms := client.GetRooms()
	for _, roomID := range rooms {
		rm.LeaveRoom(roomID, client)
	}
	return rooms
}

func (rm *RoomManager) Count() int {
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	return len(rm.rooms)
}

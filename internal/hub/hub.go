package hub

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/CodeX-Labs/CodeX-Battle-Service/internal/metrics"
	"github.com/CodeX-Labs/CodeX-Battle-Service/pkg/protocol"
	"github.com/rs/zerolog"
)

// BattleDispatcher is the arena-facing half of the hub: inbound frames are
// decoded here and handed over as typed calls. The hub never interprets
// battle state.
type BattleDispatcher interface {
	FindMatch(ctx context.Context, player protocol.PlayerRef, gameMode string)
	CancelWait(ctx context.Context, playerID string)
	PlayerJoined(roomID string, player protocol.PlayerRef)
	CodeUpdated(roomID, playerID, code string)
	ProgressUpdated(roomID, playerID string, pct int)
	Submitted(roomID, playerID string, payload protocol.SubmitPayload)
	GaveUp(roomID, playerID string)
	PlayerDisconnected(playerID string)
}

// RemotePublisher forwards a frame to another instance when the target user
// has no local connection.
type RemotePublisher interface {
	PublishToUser(ctx context.Context, userID string, message []byte) error
}

type Hub struct {
	clients     map[*Client]bool
	userClients map[string]map[*Client]bool
	Register    chan *Client
	Unregister  chan *Client
	mu          sync.RWMutex
	logger      zerolog.Logger
	rooms       *RoomManager

	battles BattleDispatcher
	remote  RemotePublisher
	metrics *metrics.Metrics

	onDisconnect func(userID string)
	onPing       func(userID string)
}

func NewHub(m *metrics.Metrics, logger zerolog.Logger) *Hub {
	return &Hub{
		clients:     make(map[*Client]bool),
		userClients: make(map[string]map[*Client]bool),
		Register:    make(chan *Client),
		Unregister:  make(chan *Client),
		rooms:       NewRoomManager(),
		metrics:     m,
		logger:      logger.With().Str("component", "hub").Logger(),
	}
}

// SetBattleDispatcher must be called before Run. It is a setter rather than a
// constructor argument because the arena needs the hub as its transport.
func (h *Hub) SetBattleDispatcher(d BattleDispatcher) {
	h.battles = d
}

func (h *Hub) SetRemotePublisher(p RemotePublisher) {
	h.remote = p
}

// SetDisconnectHandler registers a hook fired when a user's last connection
// goes away.
func (h *Hub) SetDisconnectHandler(fn func(userID string)) {
	h.onDisconnect = fn
}

// SetPingHandler registers a hook fired on every client ping, used to keep
// presence records fresh.
func (h *Hub) SetPingHandler(fn func(userID string)) {
	h.onPing = fn
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.registerClient(client)

		case client := <-h.Unregister:
			h.unregisterClient(client)
		}
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[client] = true

	if h.userClients[client.UserID] == nil {
		h.userClients[client.UserID] = make(map[*Client]bool)
	}
	h.userClients[client.UserID][client] = true

	h.metrics.IncConnections()

	h.logger.Info().
		Str("clientId", client.ID).
		Str("userId", client.UserID).
		Int("totalClients", len(h.clients)).
		Msg("Client registered")
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()

	userGone := false
	if _, ok := h.clients[client]; ok {
		h.rooms.LeaveAllRooms(client)

		delete(h.clients, client)
		client.closeSend()

		if userClients, ok := h.userClients[client.UserID]; ok {
			delete(userClients, client)
			if len(userClients) == 0 {
				delete(h.userClients, client.UserID)
				userGone = true
			}
		}

		h.metrics.DecConnections()

		h.logger.Info().
			Str("clientId", client.ID).
			Str("userId", client.UserID).
			Int("totalClients", len(h.clients)).
			Msg("Client unregistered")
	}
	h.mu.Unlock()

	// Outside the lock: the handler walks back into the arena, which may
	// call SendToUser and take the hub lock again.
	if userGone && h.onDisconnect != nil {
		h.onDisconnect(client.UserID)
	}
}

func (h *Hub) ProcessMessage(client *Client, data []byte) {
	msg, err := protocol.ParseMessage(data)
	if err != nil {
		h.logger.Error().Err(err).Str("clientId", client.ID).Msg("Failed to parse message")
		h.sendError(client, "PARSE_ERROR", "Invalid message format", "")
		return
	}

	h.metrics.IncMessagesReceived()

	h.logger.Debug().
		Str("clientId", client.ID).
		Str("type", string(msg.Type)).
		Msg("Processing message")

	switch msg.Type {
	case protocol.MsgPing:
		h.handlePing(client, msg)
	case protocol.MsgFindMatch:
		h.handleFindMatch(client, msg)
	case protocol.MsgJoinRoom:
		h.handleJoinRoom(client, msg)
	case protocol.MsgCodeUpdate:
		h.handleCodeUpdate(client, msg)
	case protocol.MsgProgressUpdate:
		h.handleProgressUpdate(client, msg)
	case protocol.MsgSubmit:
		h.handleSubmit(client, msg)
	case protocol.MsgGiveUp:
		h.handleGiveUp(client, msg)
	default:
		h.sendError(client, "UNKNOWN_TYPE", "Unknown message type", msg.RequestID)
	}
}

func (h *Hub) handlePing(client *Client, msg *protocol.Message) {
	if h.onPing != nil {
		h.onPing(client.UserID)
	}
	response, _ := protocol.NewMessageWithRequestID(protocol.MsgPong, nil, msg.RequestID)
	h.SendToClient(client, response)
}

func (h *Hub) handleFindMatch(client *Client, msg *protocol.Message) {
	var payload protocol.FindMatchPayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		h.sendError(client, "INVALID_PAYLOAD", "Invalid find match payload", msg.RequestID)
		return
	}

	// Identity comes from the authenticated connection, never the payload.
	player := protocol.PlayerRef{UserID: client.UserID, Username: client.Username}
	if player.Username == "" {
		player.Username = payload.Username
	}

	h.battles.FindMatch(context.Background(), player, payload.GameMode)
}

func (h *Hub) handleJoinRoom(client *Client, msg *protocol.Message) {
	var payload protocol.JoinRoomPayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		h.sendError(client, "INVALID_PAYLOAD", "Invalid join room payload", msg.RequestID)
		return
	}

	if payload.RoomID == "" {
		h.sendError(client, "INVALID_ROOM", "Room ID is required", msg.RequestID)
		return
	}

	room := h.rooms.JoinRoom(payload.RoomID, client)

	h.logger.Info().
		Str("clientId", client.ID).
		Str("roomId", payload.RoomID).
		Int("memberCount", room.ClientCount()).
		Msg("Client joined room")

	h.battles.PlayerJoined(payload.RoomID, protocol.PlayerRef{
		UserID:   client.UserID,
		Username: client.Username,
	})
}

func (h *Hub) handleCodeUpdate(client *Client, msg *protocol.Message) {
	var payload protocol.CodeUpdatePayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		h.sendError(client, "INVALID_PAYLOAD", "Invalid code update payload", msg.RequestID)
		return
	}

	if !client.IsInRoom(payload.RoomID) {
		h.sendError(client, "NOT_IN_ROOM", "You are not in this room", msg.RequestID)
		return
	}

	h.battles.CodeUpdated(payload.RoomID, client.UserID, payload.Code)
}

func (h *Hub) handleProgressUpdate(client *Client, msg *protocol.Message) {
	var payload protocol.ProgressUpdatePayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		h.sendError(client, "INVALID_PAYLOAD", "Invalid progress update payload", msg.RequestID)
		return
	}

	if !client.IsInRoom(payload.RoomID) {
		h.sendError(client, "NOT_IN_ROOM", "You are not in this room", msg.RequestID)
		return
	}

	h.battles.ProgressUpdated(payload.RoomID, client.UserID, payload.Progress)
}

func (h *Hub) handleSubmit(client *Client, msg *protocol.Message) {
	var payload protocol.SubmitPayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		h.sendError(client, "INVALID_PAYLOAD", "Invalid submit payload", msg.RequestID)
		return
	}

	if !client.IsInRoom(payload.RoomID) {
		h.sendError(client, "NOT_IN_ROOM", "You are not in this room", msg.RequestID)
		return
	}

	h.battles.Submitted(payload.RoomID, client.UserID, payload)
}

func (h *Hub) handleGiveUp(client *Client, msg *protocol.Message) {
	var payload protocol.GiveUpPayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		h.sendError(client, "INVALID_PAYLOAD", "Invalid give up payload", msg.RequestID)
		return
	}

	if !client.IsInRoom(payload.RoomID) {
		h.sendError(client, "NOT_IN_ROOM", "You are not in this room", msg.RequestID)
		return
	}

	h.battles.GaveUp(payload.RoomID, client.UserID)
}

func (h *Hub) SendToClient(client *Client, msg *protocol.Message) {
	data, err := msg.ToBytes()
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to serialize message")
		return
	}

	h.metrics.IncMessagesSent()

	switch client.trySend(data) {
	case sendOK, sendClosed:
	case sendFull:
		h.logger.Warn().Str("clientId", client.ID).Msg("Client send buffer full, disconnecting")
		h.Unregister <- client
	}
}

// SendToUser delivers to every local connection for the user. When the user
// has no local connection the frame is handed to the remote publisher so a
// sibling instance can deliver it.
func (h *Hub) SendToUser(userID string, msg *protocol.Message) {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.userClients[userID]))
	for client := range h.userClients[userID] {
		clients = append(clients, client)
	}
	h.mu.RUnlock()

	if len(clients) == 0 {
		if h.remote != nil {
			data, err := msg.ToBytes()
			if err != nil {
				return
			}
			if err := h.remote.PublishToUser(context.Background(), userID, data); err != nil {
				h.logger.Error().Err(err).Str("userId", userID).Msg("Remote publish failed")
			}
		}
		return
	}

	for _, client := range clients {
		h.SendToClient(client, msg)
	}
}

func (h *Hub) SendToRoom(roomID string, msg *protocol.Message) {
	room := h.rooms.GetRoom(roomID)
	if room == nil {
		return
	}

	data, err := msg.ToBytes()
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to serialize message")
		return
	}

	for _, client := range room.GetClients() {
		h.metrics.IncMessagesSent()
		client.trySend(data)
	}
}

// DeliverLocal pushes an already-encoded frame, bypassing the remote
// publisher. The pub/sub listener uses it to avoid echo loops.
func (h *Hub) DeliverLocal(userID string, data []byte) {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.userClients[userID]))
	for client := range h.userClients[userID] {
		clients = append(clients, client)
	}
	h.mu.RUnlock()

	for _, client := range clients {
		h.metrics.IncMessagesSent()
		client.trySend(data)
	}
}

func (h *Hub) Broadcast(msg *protocol.Message) {
	data, err := msg.ToBytes()
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to serialize message")
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients {
		client.trySend(data)
	}
}

func (h *Hub) HasUser(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.userClients[userID]) > 0
}

func (h *Hub) sendError(client *Client, code, message, requestID string) {
	errMsg, _ := protocol.NewErrorMessage(code, message, requestID)
	h.SendToClient(client, errMsg)
}

func (h *Hub) GetStats() map[string]interface{} {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return map[string]interface{}{
		"totalClients": len(h.clients),
		"totalUsers":   len(h.userClients),
		"totalRooms":   h.rooms.Count(),
	}
}

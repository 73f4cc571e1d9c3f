package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/CodeX-Labs/CodeX-Battle-Service/internal/auth"
	"github.com/CodeX-Labs/CodeX-Battle-Service/internal/hub"
	"github.com/CodeX-Labs/CodeX-Battle-Service/internal/presence"
	"github.com/CodeX-Labs/CodeX-Battle-Service/internal/redis"
	"github.com/CodeX-Labs/CodeX-Battle-Service/pkg/protocol"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type WebSocketHandler struct {
	hub      *hub.Hub
	presence *presence.Manager
	pubsub   *redis.PubSub
	logger   zerolog.Logger
}

func NewWebSocketHandler(h *hub.Hub, p *presence.Manager, ps *redis.PubSub, logger zerolog.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		hub:      h,
		presence: p,
		pubsub:   ps,
		logger:   logger.With().Str("component", "ws-handler").Logger(),
	}
}

func (h *WebSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r.Context())
	if claims == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to upgrade connection")
		return
	}

	clientID := uuid.New().String()
	userID := claims.GetUserID()

	client := hub.NewClient(clientID, userID, claims.GetUsername(), conn, h.hub, h.logger)

	h.hub.Register <- client

	if h.presence != nil {
		h.presence.SetOnline(r.Context(), userID)
	}
	if h.pubsub != nil {
		if err := h.pubsub.SubscribeToUser(userID); err != nil {
			h.logger.Error().Err(err).Str("userId", userID).Msg("Failed to subscribe to user channel")
		}
	}

	connectedMsg, _ := protocol.NewMessage(protocol.MsgConnected, protocol.ConnectedPayload{
		UserID:     userID,
		InstanceID: clientID,
	})
	h.hub.SendToClient(client, connectedMsg)

	h.logger.Info().
		Str("clientId", clientID).
		Str("userId", userID).
		Str("remoteAddr", r.RemoteAddr).
		Msg("WebSocket connection established")

	go client.WritePump()
	go client.ReadPump()
}

func HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}
}

// ReadyHandler reports transport stats plus the live battle-room count.
func ReadyHandler(h *hub.Hub, battleRooms func() int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats := h.GetStats()
		if battleRooms != nil {
			stats["battleRooms"] = battleRooms()
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status": "ready",
			"stats":  stats,
		})
	}
}

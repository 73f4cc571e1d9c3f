package arena

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/CodeX-Labs/CodeX-Battle-Service/internal/challenge"
	"github.com/CodeX-Labs/CodeX-Battle-Service/internal/metrics"
	"github.com/CodeX-Labs/CodeX-Battle-Service/internal/scoring"
	"github.com/CodeX-Labs/CodeX-Battle-Service/internal/verifier"
	"github.com/CodeX-Labs/CodeX-Battle-Service/pkg/protocol"
)

// Registry owns every live coordinator, keyed by room ID. Inbound events
// for rooms it does not know are dropped silently: terminal-state races are
// expected under concurrent dual-player input.
type Registry struct {
	mu           sync.RWMutex
	coordinators map[string]*Coordinator
	// playerRooms lets a disconnect forfeit every room the player is in.
	playerRooms map[string]map[string]bool

	transport Transport
	verifier  *verifier.Verifier
	reporter  scoring.Reporter
	publisher OutcomePublisher
	metrics   *metrics.Metrics
	logger    zerolog.Logger
}

func NewRegistry(transport Transport, v *verifier.Verifier, reporter scoring.Reporter, publisher OutcomePublisher, m *metrics.Metrics, logger zerolog.Logger) *Registry {
	return &Registry{
		coordinators: make(map[string]*Coordinator),
		playerRooms:  make(map[string]map[string]bool),
		transport:    transport,
		verifier:     v,
		reporter:     reporter,
		publisher:    publisher,
		metrics:      m,
		logger:       logger.With().Str("component", "arena").Logger(),
	}
}

// CreateRoom builds a room for a freshly paired match and starts its
// coordinator loop. The challenge value is fixed for the room's lifetime.
func (r *Registry) CreateRoom(roomID string, ch *challenge.Challenge) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.coordinators[roomID]; exists {
		return
	}

	room := newBattleRoom(roomID, ch)
	coord := newCoordinator(room, r.transport, r.verifier, r.reporter, r.publisher, r.metrics, r.removeRoom, r.logger)
	r.coordinators[roomID] = coord
	go coord.run()

	if r.metrics != nil {
		r.metrics.IncRoomsActive()
	}

	r.logger.Info().
		Str("roomId", roomID).
		Str("challengeId", ch.ID).
		Str("category", string(ch.Category)).
		Msg("Battle room created")
}

func (r *Registry) removeRoom(roomID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	coord, ok := r.coordinators[roomID]
	if !ok {
		return
	}
	coord.stop()
	delete(r.coordinators, roomID)
	for _, rooms := range r.playerRooms {
		delete(rooms, roomID)
	}
	r.logger.Info().Str("roomId", roomID).Msg("Battle room removed")
}

func (r *Registry) coordinator(roomID string) *Coordinator {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.coordinators[roomID]
}

func (r *Registry) dispatch(roomID string, ev roomEvent) {
	coord := r.coordinator(roomID)
	if coord == nil {
		r.logger.Debug().Str("roomId", roomID).Msg("Event for unknown room dropped")
		return
	}
	coord.enqueue(ev)
}

// PlayerJoined attaches a client to its room's battle session.
func (r *Registry) PlayerJoined(roomID string, player protocol.PlayerRef) {
	r.mu.Lock()
	if rooms := r.playerRooms[player.UserID]; rooms == nil {
		r.playerRooms[player.UserID] = map[string]bool{roomID: true}
	} else {
		rooms[roomID] = true
	}
	r.mu.Unlock()

	r.dispatch(roomID, roomEvent{kind: evJoin, playerID: player.UserID, username: player.Username})
}

func (r *Registry) CodeUpdated(roomID, playerID, code string) {
	r.dispatch(roomID, roomEvent{kind: evCode, playerID: playerID, code: code})
}

func (r *Registry) ProgressUpdated(roomID, playerID string, pct int) {
	r.dispatch(roomID, roomEvent{kind: evProgress, playerID: playerID, progress: pct})
}

func (r *Registry) Submitted(roomID, playerID string, payload protocol.SubmitPayload) {
	r.dispatch(roomID, roomEvent{kind: evSubmit, playerID: playerID, submit: payload})
}

func (r *Registry) GaveUp(roomID, playerID string) {
	r.dispatch(roomID, roomEvent{kind: evGiveUp, playerID: playerID})
}

// PlayerDeparted handles a client leaving a room or dropping its
// connection: active rooms treat it as an implicit give-up.
func (r *Registry) PlayerDeparted(roomID, playerID string) {
	r.dispatch(roomID, roomEvent{kind: evDeparted, playerID: playerID})
}

// PlayerDisconnected forfeits every room the player was attached to.
func (r *Registry) PlayerDisconnected(playerID string) {
	r.mu.RLock()
	rooms := make([]string, 0, len(r.playerRooms[playerID]))
	for roomID := range r.playerRooms[playerID] {
		rooms = append(rooms, roomID)
	}
	r.mu.RUnlock()

	for _, roomID := range rooms {
		r.PlayerDeparted(roomID, playerID)
	}
}

// RoomCount reports the number of live rooms, for readiness stats.
func (r *Registry) RoomCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.coordinators)
}

package arena

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/CodeX-Labs/CodeX-Battle-Service/internal/challenge"
	"github.com/CodeX-Labs/CodeX-Battle-Service/internal/metrics"
	redisclient "github.com/CodeX-Labs/CodeX-Battle-Service/internal/redis"
	"github.com/CodeX-Labs/CodeX-Battle-Service/pkg/protocol"
)

const (
	waitQueueFmt   = "mm:waiting:%s"
	waitEntriesKey = "mm:entries"
)

type waitingEntry struct {
	UserID   string `json:"uid"`
	Username string `json:"username"`
	GameMode string `json:"gameMode"`
}

// Matchmaker pairs players waiting for the same game mode. The pool lives
// in redis so instances share it; entries are removed lazily: a cancelled
// player's ID may linger in the queue list but its entry record is gone,
// and pops skip it.
type Matchmaker struct {
	redis     *redisclient.Client
	catalog   *challenge.Catalog
	registry  *Registry
	transport Transport
	metrics   *metrics.Metrics
	logger    zerolog.Logger
}

func NewMatchmaker(redis *redisclient.Client, catalog *challenge.Catalog, registry *Registry, transport Transport, m *metrics.Metrics, logger zerolog.Logger) *Matchmaker {
	return &Matchmaker{
		redis:     redis,
		catalog:   catalog,
		registry:  registry,
		transport: transport,
		metrics:   m,
		logger:    logger.With().Str("component", "matchmaker").Logger(),
	}
}

// FindMatch pairs the player with a waiting opponent of the same mode, or
// parks them in the waiting pool.
func (m *Matchmaker) FindMatch(ctx context.Context, player protocol.PlayerRef, gameMode string) {
	mode := challenge.Category(strings.ToLower(gameMode))
	switch mode {
	case challenge.CategoryContest, challenge.CategoryDebugging, challenge.CategoryFlashcode:
	default:
		m.sendMatchError(player.UserID, "Unsupported game mode: "+gameMode)
		return
	}

	opponent, err := m.popWaiting(ctx, string(mode), player.UserID)
	if err != nil {
		m.logger.Error().Err(err).Msg("Matchmaking pool unavailable")
		m.sendMatchError(player.UserID, "Failed to find match. Please try again.")
		return
	}

	if opponent == nil {
		if err := m.park(ctx, player, string(mode)); err != nil {
			m.logger.Error().Err(err).Msg("Failed to park waiting player")
			m.sendMatchError(player.UserID, "Failed to find match. Please try again.")
		}
		return
	}

	m.pair(player, protocol.PlayerRef{UserID: opponent.UserID, Username: opponent.Username}, mode)
}

// CancelWait drops the player from the waiting pool, typically on
// disconnect.
func (m *Matchmaker) CancelWait(ctx context.Context, playerID string) {
	if err := m.redis.HDel(ctx, waitEntriesKey, playerID); err != nil {
		m.logger.Error().Err(err).Str("playerId", playerID).Msg("Failed to cancel wait")
	}
}

func (m *Matchmaker) popWaiting(ctx context.Context, mode, selfID string) (*waitingEntry, error) {
	queue := fmt.Sprintf(waitQueueFmt, mode)
	for {
		uid, err := m.redis.LPop(ctx, queue)
		if err != nil {
			if redisclient.IsNil(err) {
				return nil, nil
			}
			return nil, err
		}
		if uid == selfID {
			continue
		}
		raw, err := m.redis.HGet(ctx, waitEntriesKey, uid)
		if err != nil {
			if redisclient.IsNil(err) {
				// Cancelled while queued; skip the stale ID.
				continue
			}
			return nil, err
		}
		if err := m.redis.HDel(ctx, waitEntriesKey, uid); err != nil {
			return nil, err
		}
		var entry waitingEntry
		if err := json.Unmarshal([]byte(raw), &entry); err != nil {
			m.logger.Error().Err(err).Str("playerId", uid).Msg("Corrupt waiting entry dropped")
			continue
		}
		return &entry, nil
	}
}

func (m *Matchmaker) park(ctx context.Context, player protocol.PlayerRef, mode string) error {
	entry, err := json.Marshal(waitingEntry{
		UserID:   player.UserID,
		Username: player.Username,
		GameMode: mode,
	})
	if err != nil {
		return err
	}
	if err := m.redis.HSet(ctx, waitEntriesKey, player.UserID, string(entry)); err != nil {
		return err
	}
	if err := m.redis.RPush(ctx, fmt.Sprintf(waitQueueFmt, mode), player.UserID); err != nil {
		return err
	}
	m.logger.Info().
		Str("playerId", player.UserID).
		Str("gameMode", mode).
		Msg("Player waiting for opponent")
	return nil
}

func (m *Matchmaker) pair(a, b protocol.PlayerRef, mode challenge.Category) {
	ch, err := m.catalog.RandomByCategory(mode)
	if err != nil {
		m.logger.Error().Err(err).Str("gameMode", string(mode)).Msg("No challenge available for mode")
		m.sendMatchError(a.UserID, "Failed to find match. Please try again.")
		m.sendMatchError(b.UserID, "Failed to find match. Please try again.")
		return
	}

	roomID := fmt.Sprintf("room-%s-%s", a.UserID, b.UserID)
	m.registry.CreateRoom(roomID, ch)

	if m.metrics != nil {
		m.metrics.IncMatchesStarted()
	}

	m.logger.Info().
		Str("roomId", roomID).
		Str("challengeId", ch.ID).
		Str("gameMode", string(mode)).
		Msg("Match paired")

	doc := clientChallenge(ch)
	m.sendMatchFound(a, b, roomID, mode, doc)
	m.sendMatchFound(b, a, roomID, mode, doc)
}

func (m *Matchmaker) sendMatchFound(to, opponent protocol.PlayerRef, roomID string, mode challenge.Category, doc json.RawMessage) {
	msg, err := protocol.NewMessage(protocol.MsgMatchFound, protocol.MatchFoundPayload{
		RoomID:    roomID,
		GameMode:  string(mode),
		Opponent:  opponent,
		Challenge: doc,
	})
	if err != nil {
		m.logger.Error().Err(err).Msg("Failed to build match_found")
		return
	}
	m.transport.SendToUser(to.UserID, msg)
}

func (m *Matchmaker) sendMatchError(playerID, reason string) {
	msg, _ := protocol.NewMessage(protocol.MsgMatchError, protocol.MatchErrorPayload{Message: reason})
	m.transport.SendToUser(playerID, msg)
}

// clientChallenge renders the challenge for the match_found payload with
// hidden test cases stripped.
func clientChallenge(ch *challenge.Challenge) json.RawMessage {
	visible := *ch
	visible.TestCases = ch.Visible()
	doc, err := json.Marshal(&visible)
	if err != nil {
		return json.RawMessage(`{}`)
	}
	return doc
}

package arena

import (
	"github.com/CodeX-Labs/CodeX-Battle-Service/internal/challenge"
)

type State string

const (
	StateActive State = "active"
	StateEnded  State = "ended"
)

type EndReason string

const (
	ReasonSolved       EndReason = "solved"
	ReasonGaveUp       EndReason = "gave_up"
	ReasonDisconnected EndReason = "disconnected"
)

// PlayerSession is one player's live state within a match. Mutated only by
// the room's coordinator.
type PlayerSession struct {
	PlayerID        string
	Username        string
	CurrentCode     string
	CurrentProgress int
	HasGivenUp      bool
}

// BattleRoom is the live pairing of two players on one challenge. The value
// is owned exclusively by its coordinator; nothing outside the coordinator
// goroutine touches it.
type BattleRoom struct {
	ID        string
	Challenge *challenge.Challenge
	State     State

	players []*PlayerSession // at most two, join order

	WinnerID string
	LoserID  string
	Reason   EndReason
}

func newBattleRoom(id string, ch *challenge.Challenge) *BattleRoom {
	return &BattleRoom{
		ID:        id,
		Challenge: ch,
		State:     StateActive,
	}
}

func (r *BattleRoom) player(id string) *PlayerSession {
	for _, p := range r.players {
		if p.PlayerID == id {
			return p
		}
	}
	return nil
}

func (r *BattleRoom) opponentOf(id string) *PlayerSession {
	for _, p := range r.players {
		if p.PlayerID != id {
			return p
		}
	}
	return nil
}

// addPlayer registers a session. Joining again is a no-op; a third distinct
// player is rejected.
func (r *BattleRoom) addPlayer(id, username string) bool {
	if existing := r.player(id); existing != nil {
		if username != "" {
			existing.Username = username
		}
		return true
	}
	if len(r.players) >= 2 {
		return false
	}
	r.players = append(r.players, &PlayerSession{PlayerID: id, Username: username})
	return true
}

// end performs the room's single terminal transition. Returns false if the
// room already ended; the first terminal event wins and everything after
// no-ops.
func (r *BattleRoom) end(winnerID, loserID string, reason EndReason) bool {
	if r.State == StateEnded {
		return false
	}
	r.State = StateEnded
	r.WinnerID = winnerID
	r.LoserID = loserID
	r.Reason = reason
	if loser := r.player(loserID); loser != nil && reason != ReasonSolved {
		loser.HasGivenUp = true
	}
	return true
}

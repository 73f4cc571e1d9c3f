package arena

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/CodeX-Labs/CodeX-Battle-Service/internal/challenge"
	"github.com/CodeX-Labs/CodeX-Battle-Service/internal/executor"
	"github.com/CodeX-Labs/CodeX-Battle-Service/internal/metrics"
	"github.com/CodeX-Labs/CodeX-Battle-Service/internal/progress"
	"github.com/CodeX-Labs/CodeX-Battle-Service/internal/scoring"
	"github.com/CodeX-Labs/CodeX-Battle-Service/internal/verifier"
	"github.com/CodeX-Labs/CodeX-Battle-Service/pkg/events"
	"github.com/CodeX-Labs/CodeX-Battle-Service/pkg/protocol"
)

// flashcodeSubmitThreshold is the minimum typing accuracy a flashcode
// submission must reach to be accepted.
const flashcodeSubmitThreshold = 80

const verifyTimeout = 2 * time.Minute

// Transport is the slice of the websocket hub the arena pushes messages
// through. The arena exposes only operations and emitted events; it has no
// rendering hooks.
type Transport interface {
	SendToUser(userID string, msg *protocol.Message)
	SendToRoom(roomID string, msg *protocol.Message)
}

// OutcomePublisher fans the final match record out to downstream consumers.
type OutcomePublisher interface {
	PublishBattleCompleted(ctx context.Context, ev events.BattleCompletedEvent) error
}

type eventKind int

const (
	evJoin eventKind = iota
	evCode
	evProgress
	evSubmit
	evVerdict
	evGiveUp
	evDeparted
)

type roomEvent struct {
	kind     eventKind
	playerID string
	username string
	code     string
	progress int
	submit   protocol.SubmitPayload
	report   *verifier.Report
}

// Coordinator owns one BattleRoom's lifecycle and is the sole authority
// that may flip it to ended. All mutation funnels through a single inbound
// event queue consumed by one goroutine; the two players' streams arrive
// concurrently with no ordering between them, and the queue serializes
// them.
type Coordinator struct {
	room      *BattleRoom
	events    chan roomEvent
	done      chan struct{}
	transport Transport
	verifier  *verifier.Verifier
	reporter  scoring.Reporter
	publisher OutcomePublisher
	metrics   *metrics.Metrics
	logger    zerolog.Logger

	// inflight guards one outstanding verification per player.
	inflight map[string]bool
	onEnd    func(roomID string)
}

func newCoordinator(room *BattleRoom, transport Transport, v *verifier.Verifier, reporter scoring.Reporter, publisher OutcomePublisher, m *metrics.Metrics, onEnd func(string), logger zerolog.Logger) *Coordinator {
	return &Coordinator{
		room:      room,
		events:    make(chan roomEvent, 64),
		done:      make(chan struct{}),
		transport: transport,
		verifier:  v,
		reporter:  reporter,
		publisher: publisher,
		metrics:   m,
		inflight:  make(map[string]bool),
		onEnd:     onEnd,
		logger: logger.With().
			Str("component", "coordinator").
			Str("roomId", room.ID).
			Logger(),
	}
}

func (c *Coordinator) run() {
	for {
		select {
		case <-c.done:
			return
		case ev := <-c.events:
			c.handle(ev)
		}
	}
}

// enqueue delivers an event to the coordinator loop, dropping it if the
// room has been torn down. Events for dead rooms are expected under the
// dual-player race and are not an error.
func (c *Coordinator) enqueue(ev roomEvent) {
	select {
	case c.events <- ev:
	case <-c.done:
	}
}

func (c *Coordinator) stop() {
	select {
	case <-c.done:
	default:
		close(c.done)
	}
}

func (c *Coordinator) handle(ev roomEvent) {
	// The terminal transition reclaims the room immediately; anything still
	// queued behind it is ignored.
	if c.room.State == StateEnded {
		c.logger.Debug().Int("kind", int(ev.kind)).Str("playerId", ev.playerID).Msg("Event dropped, room ended")
		return
	}

	switch ev.kind {
	case evJoin:
		c.handleJoin(ev)
	case evCode:
		c.handleCode(ev)
	case evProgress:
		c.handleProgress(ev)
	case evSubmit:
		c.handleSubmit(ev)
	case evVerdict:
		c.handleVerdict(ev)
	case evGiveUp:
		c.terminate(ev.playerID, ReasonGaveUp)
	case evDeparted:
		c.handleDeparted(ev)
	}
}

func (c *Coordinator) handleJoin(ev roomEvent) {
	if !c.room.addPlayer(ev.playerID, ev.username) {
		c.logger.Warn().Str("playerId", ev.playerID).Msg("Join rejected, room full")
		errMsg, _ := protocol.NewErrorMessage("ROOM_FULL", "Room already has two players", "")
		c.transport.SendToUser(ev.playerID, errMsg)
		return
	}

	c.logger.Info().
		Str("playerId", ev.playerID).
		Int("memberCount", len(c.room.players)).
		Msg("Player joined room")

	reply, _ := protocol.NewMessage(protocol.MsgRoomJoined, protocol.RoomJoinedPayload{
		RoomID:      c.room.ID,
		MemberCount: len(c.room.players),
	})
	c.transport.SendToUser(ev.playerID, reply)
}

// handleCode relays the player's editor buffer verbatim to the opponent
// for live viewing. No validation; it does not affect scoring.
func (c *Coordinator) handleCode(ev roomEvent) {
	session := c.room.player(ev.playerID)
	if session == nil {
		return
	}
	session.CurrentCode = ev.code

	if opp := c.room.opponentOf(ev.playerID); opp != nil {
		msg, _ := protocol.NewMessage(protocol.MsgCodeUpdate, protocol.CodeUpdatePayload{
			RoomID: c.room.ID,
			Code:   ev.code,
		})
		c.transport.SendToUser(opp.PlayerID, msg)
	}
}

// handleProgress relays typing progress for the opponent's progress bar.
// Reaching 100 does not end the match; submission is an explicit act.
func (c *Coordinator) handleProgress(ev roomEvent) {
	session := c.room.player(ev.playerID)
	if session == nil {
		return
	}
	session.CurrentProgress = ev.progress

	if opp := c.room.opponentOf(ev.playerID); opp != nil {
		msg, _ := protocol.NewMessage(protocol.MsgProgressUpdate, protocol.ProgressUpdatePayload{
			RoomID:   c.room.ID,
			Progress: ev.progress,
		})
		c.transport.SendToUser(opp.PlayerID, msg)
	}
}

func (c *Coordinator) handleSubmit(ev roomEvent) {
	session := c.room.player(ev.playerID)
	if session == nil {
		return
	}

	ch := c.room.Challenge

	if ch.Category == challenge.CategoryFlashcode {
		pct := progress.Compute(ch.TargetText, ev.submit.Input)
		session.CurrentProgress = pct
		if pct < flashcodeSubmitThreshold {
			c.reject(ev.playerID, "You need to achieve at least 80% accuracy to submit!")
			return
		}
		c.acceptWin(ev.playerID, &verifier.Report{AllPassed: true, Status: verifier.StatusAllPassed})
		return
	}

	if ev.submit.Code == "" {
		c.reject(ev.playerID, "Cannot submit empty code")
		return
	}
	if c.inflight[ev.playerID] {
		c.reject(ev.playerID, "A submission is already being verified")
		return
	}

	lang := ch.Language
	if lang == "" {
		lang = ev.submit.Language
	}
	if lang == "" {
		// Debugging challenges store untagged buggy code; guess from the
		// submission itself.
		lang = executor.DetectLanguage(ev.submit.Code)
	}

	session.CurrentCode = ev.submit.Code
	c.inflight[ev.playerID] = true

	// Verification blocks on the oracle; run it off the loop and feed the
	// verdict back in as an event so the terminal guard still applies.
	cases := ch.TestCases
	mode := ch.CompareMode
	code := ev.submit.Code
	playerID := ev.playerID
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), verifyTimeout)
		defer cancel()
		report := c.verifier.Verify(ctx, cases, code, lang, mode)
		c.enqueue(roomEvent{kind: evVerdict, playerID: playerID, report: report})
	}()
}

func (c *Coordinator) handleVerdict(ev roomEvent) {
	delete(c.inflight, ev.playerID)
	report := ev.report

	if c.metrics != nil {
		switch {
		case report.AllPassed:
			c.metrics.IncVerdict("accepted")
		case report.Status == verifier.StatusExecError:
			c.metrics.IncVerdict("error")
		default:
			c.metrics.IncVerdict("rejected")
		}
	}

	if !report.AllPassed {
		msg, _ := protocol.NewMessage(protocol.MsgSubmissionResult, protocol.SubmissionResultPayload{
			RoomID:    c.room.ID,
			Status:    report.Status,
			Detail:    verifier.FormatReport(report),
			AllPassed: false,
			ElapsedMs: report.TotalElapsedMs,
		})
		c.transport.SendToUser(ev.playerID, msg)
		return
	}

	c.acceptWin(ev.playerID, report)
}

func (c *Coordinator) reject(playerID, reason string) {
	c.logger.Info().Str("playerId", playerID).Str("reason", reason).Msg("Submission rejected")
	msg, _ := protocol.NewMessage(protocol.MsgSubmissionRejected, protocol.SubmissionRejectedPayload{
		RoomID: c.room.ID,
		Reason: reason,
	})
	c.transport.SendToUser(playerID, msg)
}

// acceptWin performs the solved-path terminal transition.
func (c *Coordinator) acceptWin(winnerID string, report *verifier.Report) {
	opp := c.room.opponentOf(winnerID)
	loserID := ""
	if opp != nil {
		loserID = opp.PlayerID
	}
	if !c.room.end(winnerID, loserID, ReasonSolved) {
		return
	}

	// Flashcode wins carry a synthesized report with no per-case outcomes;
	// a case breakdown would be meaningless there.
	detail := ""
	if len(report.Outcomes) > 0 {
		detail = verifier.FormatReport(report)
	}

	result, _ := protocol.NewMessage(protocol.MsgSubmissionResult, protocol.SubmissionResultPayload{
		RoomID:    c.room.ID,
		Status:    report.Status,
		Detail:    detail,
		AllPassed: true,
		ElapsedMs: report.TotalElapsedMs,
	})
	c.transport.SendToUser(winnerID, result)

	c.finishRoom()
}

// terminate performs the give-up/disconnect terminal transition: the
// quitter loses, the opponent wins.
func (c *Coordinator) terminate(loserID string, reason EndReason) {
	opp := c.room.opponentOf(loserID)
	winnerID := ""
	if opp != nil {
		winnerID = opp.PlayerID
	}
	if !c.room.end(winnerID, loserID, reason) {
		return
	}
	c.finishRoom()
}

func (c *Coordinator) handleDeparted(ev roomEvent) {
	if c.room.player(ev.playerID) == nil {
		return
	}
	// Disconnect mid-match forfeits; there is no reconnection protocol.
	c.terminate(ev.playerID, ReasonDisconnected)
}

// finishRoom notifies both sides and reports the outcome exactly once per
// player. Runs inside the coordinator loop, strictly after the terminal
// transition succeeded.
func (c *Coordinator) finishRoom() {
	room := c.room
	winner := room.player(room.WinnerID)
	loser := room.player(room.LoserID)

	c.logger.Info().
		Str("winnerId", room.WinnerID).
		Str("loserId", room.LoserID).
		Str("reason", string(room.Reason)).
		Msg("Room ended")

	if c.metrics != nil {
		c.metrics.IncMatchEnded(string(room.Reason))
		c.metrics.DecRoomsActive()
	}

	winnerRef := protocol.PlayerRef{UserID: room.WinnerID}
	if winner != nil {
		winnerRef.Username = winner.Username
	}
	loserRef := protocol.PlayerRef{UserID: room.LoserID}
	if loser != nil {
		loserRef.Username = loser.Username
	}

	now := time.Now().UnixMilli()

	if winner != nil {
		var msg *protocol.Message
		if room.Reason == ReasonSolved {
			msg, _ = protocol.NewMessage(protocol.MsgChallengeWon, protocol.ChallengeWonPayload{
				Winner: winnerRef, Timestamp: now,
			})
		} else {
			msg, _ = protocol.NewMessage(protocol.MsgOpponentGaveUp, protocol.OpponentGaveUpPayload{
				Loser: loserRef, Timestamp: now,
			})
		}
		c.transport.SendToUser(winner.PlayerID, msg)
	}
	if loser != nil && room.Reason == ReasonSolved {
		msg, _ := protocol.NewMessage(protocol.MsgOpponentWon, protocol.ChallengeWonPayload{
			Winner: winnerRef, Timestamp: now,
		})
		c.transport.SendToUser(loser.PlayerID, msg)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Scoring backend is not idempotent: exactly one call per player.
	if winner != nil {
		c.report(ctx, winner.PlayerID, room.Challenge.Points)
	}
	if loser != nil {
		c.report(ctx, loser.PlayerID, 0)
	}

	if c.publisher != nil {
		perr := c.publisher.PublishBattleCompleted(ctx, events.BattleCompletedEvent{
			RoomID:        room.ID,
			ChallengeID:   room.Challenge.ID,
			ChallengeType: string(room.Challenge.Category),
			WinnerID:      room.WinnerID,
			LoserID:       room.LoserID,
			Reason:        string(room.Reason),
			Points:        room.Challenge.Points,
			Timestamp:     time.Now().UTC().Format(time.RFC3339),
		})
		if perr != nil {
			c.logger.Error().Err(perr).Msg("Failed to publish battle.completed")
		}
	}

	// Reclaim immediately so a rematch between the same players gets a
	// fresh room under the same deterministic id.
	if c.onEnd != nil {
		c.onEnd(room.ID)
	}
}

func (c *Coordinator) report(ctx context.Context, playerID string, points int) {
	err := c.reporter.ReportOutcome(ctx, scoring.Outcome{
		PlayerID:      playerID,
		ChallengeType: string(c.room.Challenge.Category),
		Points:        points,
		Level:         c.room.Challenge.Level,
	})
	if err != nil {
		c.logger.Error().Err(err).Str("playerId", playerID).Msg("Failed to report outcome")
	}
}

package arena

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/CodeX-Labs/CodeX-Battle-Service/internal/challenge"
	redisclient "github.com/CodeX-Labs/CodeX-Battle-Service/internal/redis"
	"github.com/CodeX-Labs/CodeX-Battle-Service/pkg/protocol"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redisclient.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	return mr, redisclient.NewClientFromRDB(rdb, zerolog.Nop())
}

func newTestMatchmaker(t *testing.T) (*Matchmaker, *fixture, *miniredis.Miniredis) {
	t.Helper()
	mr, rdb := newTestRedis(t)

	catalog := challenge.NewCatalog(zerolog.Nop())
	catalog.Upsert(contestChallenge())

	f := newFixture(passingVerifier())
	mm := NewMatchmaker(rdb, catalog, f.registry, f.transport, nil, zerolog.Nop())
	return mm, f, mr
}

func TestFindMatchParksFirstPlayer(t *testing.T) {
	mm, f, mr := newTestMatchmaker(t)
	ctx := context.Background()

	mm.FindMatch(ctx, protocol.PlayerRef{UserID: "p1", Username: "alice"}, "contest")

	if f.transport.hasType("p1", protocol.MsgMatchFound) {
		t.Fatal("first player should wait, not match")
	}

	raw := mr.HGet("mm:entries", "p1")
	var entry struct {
		Username string `json:"username"`
		GameMode string `json:"gameMode"`
	}
	if err := json.Unmarshal([]byte(raw), &entry); err != nil {
		t.Fatalf("waiting entry not stored: %v", err)
	}
	if entry.Username != "alice" || entry.GameMode != "contest" {
		t.Errorf("entry = %+v", entry)
	}
}

func TestFindMatchPairsSecondPlayer(t *testing.T) {
	mm, f, _ := newTestMatchmaker(t)
	ctx := context.Background()

	mm.FindMatch(ctx, protocol.PlayerRef{UserID: "p1", Username: "alice"}, "contest")
	mm.FindMatch(ctx, protocol.PlayerRef{UserID: "p2", Username: "bob"}, "contest")

	waitFor(t, func() bool {
		return f.transport.hasType("p1", protocol.MsgMatchFound) &&
			f.transport.hasType("p2", protocol.MsgMatchFound)
	})

	if f.registry.RoomCount() != 1 {
		t.Errorf("room count = %d, want 1", f.registry.RoomCount())
	}
}

func TestFindMatchModesDoNotMix(t *testing.T) {
	mm, f, _ := newTestMatchmaker(t)
	ctx := context.Background()

	mm.FindMatch(ctx, protocol.PlayerRef{UserID: "p1"}, "contest")
	mm.FindMatch(ctx, protocol.PlayerRef{UserID: "p2"}, "debugging")

	if f.transport.hasType("p1", protocol.MsgMatchFound) || f.transport.hasType("p2", protocol.MsgMatchFound) {
		t.Error("players of different modes were paired")
	}
}

func TestFindMatchUnsupportedMode(t *testing.T) {
	mm, f, _ := newTestMatchmaker(t)

	mm.FindMatch(context.Background(), protocol.PlayerRef{UserID: "p1"}, "speedrun")

	if !f.transport.hasType("p1", protocol.MsgMatchError) {
		t.Error("unsupported mode should produce match_error")
	}
}

func TestFindMatchSelfRequeue(t *testing.T) {
	mm, f, _ := newTestMatchmaker(t)
	ctx := context.Background()

	// Asking twice must not pair a player with themselves.
	mm.FindMatch(ctx, protocol.PlayerRef{UserID: "p1"}, "contest")
	mm.FindMatch(ctx, protocol.PlayerRef{UserID: "p1"}, "contest")

	if f.transport.hasType("p1", protocol.MsgMatchFound) {
		t.Error("player paired with themselves")
	}
}

func TestCancelWaitSkipsStaleEntry(t *testing.T) {
	mm, f, _ := newTestMatchmaker(t)
	ctx := context.Background()

	mm.FindMatch(ctx, protocol.PlayerRef{UserID: "p1"}, "contest")
	mm.CancelWait(ctx, "p1")

	// p1's ID still sits in the queue list, but its entry is gone; the next
	// player must skip it and park.
	mm.FindMatch(ctx, protocol.PlayerRef{UserID: "p2"}, "contest")

	if f.transport.hasType("p2", protocol.MsgMatchFound) {
		t.Error("paired with a cancelled player")
	}
}

func TestPairFailsWithoutChallenges(t *testing.T) {
	mr, rdb := newTestRedis(t)
	_ = mr
	catalog := challenge.NewCatalog(zerolog.Nop()) // empty

	f := newFixture(passingVerifier())
	mm := NewMatchmaker(rdb, catalog, f.registry, f.transport, nil, zerolog.Nop())
	ctx := context.Background()

	mm.FindMatch(ctx, protocol.PlayerRef{UserID: "p1"}, "contest")
	mm.FindMatch(ctx, protocol.PlayerRef{UserID: "p2"}, "contest")

	waitFor(t, func() bool {
		return f.transport.hasType("p1", protocol.MsgMatchError) &&
			f.transport.hasType("p2", protocol.MsgMatchError)
	})
	if f.registry.RoomCount() != 0 {
		t.Error("room created without a challenge")
	}
}

func TestMatchFoundHidesHiddenCases(t *testing.T) {
	mr, rdb := newTestRedis(t)
	_ = mr

	catalog := challenge.NewCatalog(zerolog.Nop())
	ch := contestChallenge()
	ch.TestCases = []challenge.TestCase{
		{Input: "1", ExpectedOutput: "2", Hidden: false},
		{Input: "3", ExpectedOutput: "4", Hidden: true},
	}
	catalog.Upsert(ch)

	f := newFixture(passingVerifier())
	mm := NewMatchmaker(rdb, catalog, f.registry, f.transport, nil, zerolog.Nop())
	ctx := context.Background()

	mm.FindMatch(ctx, protocol.PlayerRef{UserID: "p1"}, "contest")
	mm.FindMatch(ctx, protocol.PlayerRef{UserID: "p2"}, "contest")

	waitFor(t, func() bool { return f.transport.hasType("p1", protocol.MsgMatchFound) })

	f.transport.mu.Lock()
	defer f.transport.mu.Unlock()
	for _, m := range f.transport.msgs["p1"] {
		if m.Type != protocol.MsgMatchFound {
			continue
		}
		var payload protocol.MatchFoundPayload
		if err := json.Unmarshal(m.Payload, &payload); err != nil {
			t.Fatal(err)
		}
		var doc challenge.Challenge
		if err := json.Unmarshal(payload.Challenge, &doc); err != nil {
			t.Fatal(err)
		}
		if len(doc.TestCases) != 1 || doc.TestCases[0].Hidden {
			t.Errorf("hidden cases leaked to client: %+v", doc.TestCases)
		}
	}
}

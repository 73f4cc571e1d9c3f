package presence

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	redisclient "github.com/CodeX-Labs/CodeX-Battle-Service/internal/redis"
)

func newTestManager(t *testing.T, instanceID string) (*Manager, *miniredis.Miniredis, *redisclient.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	client := redisclient.NewClientFromRDB(rdb, zerolog.Nop())
	return NewManager(client, instanceID, zerolog.Nop()), mr, client
}

func TestOnlineOffline(t *testing.T) {
	m, _, _ := newTestManager(t, "inst-1")
	ctx := context.Background()

	online, err := m.IsOnline(ctx, "p1")
	if err != nil {
		t.Fatal(err)
	}
	if online {
		t.Fatal("unknown player reported online")
	}

	if err := m.SetOnline(ctx, "p1"); err != nil {
		t.Fatal(err)
	}
	online, _ = m.IsOnline(ctx, "p1")
	if !online {
		t.Fatal("player not reported online after SetOnline")
	}

	if err := m.SetOffline(ctx, "p1"); err != nil {
		t.Fatal(err)
	}
	online, _ = m.IsOnline(ctx, "p1")
	if online {
		t.Fatal("player still online after SetOffline")
	}
}

// A player connected through two instances stays online until both drop.
func TestMultiInstancePresence(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	client := redisclient.NewClientFromRDB(rdb, zerolog.Nop())

	a := NewManager(client, "inst-a", zerolog.Nop())
	b := NewManager(client, "inst-b", zerolog.Nop())
	ctx := context.Background()

	a.SetOnline(ctx, "p1")
	b.SetOnline(ctx, "p1")

	a.SetOffline(ctx, "p1")
	online, _ := b.IsOnline(ctx, "p1")
	if !online {
		t.Fatal("player went offline while another instance holds a socket")
	}

	b.SetOffline(ctx, "p1")
	online, _ = a.IsOnline(ctx, "p1")
	if online {
		t.Fatal("player online with no instances left")
	}
}

func TestPresenceExpires(t *testing.T) {
	m, mr, _ := newTestManager(t, "inst-1")
	ctx := context.Background()

	m.SetOnline(ctx, "p1")
	mr.FastForward(presenceTTL * 2)

	online, _ := m.IsOnline(ctx, "p1")
	if online {
		t.Fatal("stale presence did not expire")
	}
}

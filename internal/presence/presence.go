package presence

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	redisclient "github.com/CodeX-Labs/CodeX-Battle-Service/internal/redis"
)

const (
	presenceKeyFmt = "presence:player:%s"
	presenceTTL    = 5 * time.Minute
)

// Manager tracks which service instances currently hold a live socket for
// a player. A player with zero instances is offline; the arena treats a
// mid-match drop to offline as a forfeit.
type Manager struct {
	redis      *redisclient.Client
	instanceID string
	logger     zerolog.Logger
}

func NewManager(redis *redisclient.Client, instanceID string, logger zerolog.Logger) *Manager {
	return &Manager{
		redis:      redis,
		instanceID: instanceID,
		logger:     logger.With().Str("component", "presence").Logger(),
	}
}

func (m *Manager) SetOnline(ctx context.Context, playerID string) error {
	key := fmt.Sprintf(presenceKeyFmt, playerID)
	if err := m.redis.HSet(ctx, key, m.instanceID, time.Now().Unix()); err != nil {
		return err
	}
	return m.redis.Expire(ctx, key, presenceTTL)
}

func (m *Manager) SetOffline(ctx context.Context, playerID string) error {
	key := fmt.Sprintf(presenceKeyFmt, playerID)
	return m.redis.HDel(ctx, key, m.instanceID)
}

func (m *Manager) IsOnline(ctx context.Context, playerID string) (bool, error) {
	key := fmt.Sprintf(presenceKeyFmt, playerID)
	count, err := m.redis.HLen(ctx, key)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Refresh extends the presence TTL; called on client ping.
func (m *Manager) Refresh(ctx context.Context, playerID string) error {
	return m.SetOnline(ctx, playerID)
}

package challenge

import (
	"errors"
	"math/rand"
	"sync"

	"github.com/rs/zerolog"
)

var ErrNotFound = errors.New("challenge not found")

// Catalog holds the live challenge set, keyed by ID. The set is owned by an
// external admin service; this instance's copy is refreshed through Upsert
// calls driven by catalog events.
type Catalog struct {
	mu         sync.RWMutex
	byID       map[string]*Challenge
	byCategory map[Category][]string
	logger     zerolog.Logger
}

func NewCatalog(logger zerolog.Logger) *Catalog {
	return &Catalog{
		byID:       make(map[string]*Challenge),
		byCategory: make(map[Category][]string),
		logger:     logger.With().Str("component", "catalog").Logger(),
	}
}

func (c *Catalog) Upsert(ch *Challenge) {
	c.mu.Lock()
	defer c.mu.Unlock()

	old, exists := c.byID[ch.ID]
	if exists && old.Category != ch.Category {
		c.dropFromCategory(old.Category, ch.ID)
		exists = false
	}
	if !exists {
		c.byCategory[ch.Category] = append(c.byCategory[ch.Category], ch.ID)
	}
	c.byID[ch.ID] = ch

	c.logger.Debug().
		Str("challengeId", ch.ID).
		Str("category", string(ch.Category)).
		Msg("Challenge upserted")
}

func (c *Catalog) Remove(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ch, ok := c.byID[id]
	if !ok {
		return
	}
	delete(c.byID, id)
	c.dropFromCategory(ch.Category, id)

	c.logger.Debug().Str("challengeId", id).Msg("Challenge removed")
}

func (c *Catalog) dropFromCategory(cat Category, id string) {
	ids := c.byCategory[cat]
	for i, cid := range ids {
		if cid == id {
			c.byCategory[cat] = append(ids[:i], ids[i+1:]...)
			return
		}
	}
}

func (c *Catalog) Get(id string) (*Challenge, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	ch, ok := c.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return ch, nil
}

// RandomByCategory picks a random challenge of the given category, the way
// matches are seeded.
func (c *Catalog) RandomByCategory(cat Category) (*Challenge, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	ids := c.byCategory[cat]
	if len(ids) == 0 {
		return nil, ErrNotFound
	}
	return c.byID[ids[rand.Intn(len(ids))]], nil
}

func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.byID)
}

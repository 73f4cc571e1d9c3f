package kafka

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"github.com/CodeX-Labs/CodeX-Battle-Service/internal/challenge"
	"github.com/CodeX-Labs/CodeX-Battle-Service/pkg/events"
)

// Handlers keeps the in-memory challenge catalog in sync with the admin
// service, which owns the challenge set and announces edits over Kafka.
type Handlers struct {
	catalog *challenge.Catalog
	logger  zerolog.Logger
}

func NewHandlers(catalog *challenge.Catalog, logger zerolog.Logger) *Handlers {
	return &Handlers{
		catalog: catalog,
		logger:  logger.With().Str("component", "kafka-handlers").Logger(),
	}
}

func (h *Handlers) HandleChallengeUpserted(ctx context.Context, msg kafka.Message) error {
	var event events.ChallengeUpsertedEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		h.logger.Error().Err(err).Msg("Failed to unmarshal challenge.upserted event")
		return err
	}

	var ch challenge.Challenge
	if err := json.Unmarshal([]byte(event.Payload), &ch); err != nil {
		h.logger.Error().Err(err).
			Str("challengeId", event.ChallengeID).
			Msg("Failed to unmarshal challenge document")
		return err
	}
	if ch.ID == "" {
		ch.ID = event.ChallengeID
	}

	h.logger.Info().
		Str("challengeId", ch.ID).
		Str("category", string(ch.Category)).
		Str("title", event.Title).
		Msg("Processing challenge.upserted")

	h.catalog.Upsert(&ch)
	return nil
}

func (h *Handlers) HandleChallengeRemoved(ctx context.Context, msg kafka.Message) error {
	var event events.ChallengeRemovedEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		h.logger.Error().Err(err).Msg("Failed to unmarshal challenge.removed event")
		return err
	}

	h.logger.Info().
		Str("challengeId", event.ChallengeID).
		Msg("Processing challenge.removed")

	h.catalog.Remove(event.ChallengeID)
	return nil
}

func (h *Handlers) RegisterAll(consumer *Consumer) {
	consumer.RegisterHandler("challenge.upserted", h.HandleChallengeUpserted)
	consumer.RegisterHandler("challenge.removed", h.HandleChallengeRemoved)
}

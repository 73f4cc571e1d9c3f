package kafka

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"github.com/CodeX-Labs/CodeX-Battle-Service/internal/metrics"
	"github.com/CodeX-Labs/CodeX-Battle-Service/pkg/events"
)

const TopicBattleCompleted = "battle.completed"

// Producer publishes finished-match records, keyed by room ID so replays of
// the same room land on one partition.
type Producer struct {
	writer  *kafka.Writer
	metrics *metrics.Metrics
	logger  zerolog.Logger
}

func NewProducer(brokers []string, m *metrics.Metrics, logger zerolog.Logger) *Producer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        TopicBattleCompleted,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
	}

	return &Producer{
		writer:  writer,
		metrics: m,
		logger:  logger.With().Str("component", "kafka-producer").Logger(),
	}
}

func (p *Producer) PublishBattleCompleted(ctx context.Context, ev events.BattleCompletedEvent) error {
	value, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(ev.RoomID),
		Value: value,
	})
	if err != nil {
		p.metrics.IncKafkaMessage(TopicBattleCompleted, "error")
		p.logger.Error().Err(err).
			Str("roomId", ev.RoomID).
			Msg("Failed to publish battle.completed")
		return err
	}

	p.metrics.IncKafkaMessage(TopicBattleCompleted, "ok")
	p.logger.Info().
		Str("roomId", ev.RoomID).
		Str("winnerId", ev.WinnerID).
		Str("reason", ev.Reason).
		Msg("Published battle.completed")
	return nil
}

func (p *Producer) Close() error {
	return p.writer.Close()
}

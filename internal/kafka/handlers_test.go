package kafka

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/CodeX-Labs/CodeX-Battle-Service/internal/challenge"
	"github.com/CodeX-Labs/CodeX-Battle-Service/pkg/events"
)

func upsertMessage(t *testing.T, ch challenge.Challenge) kafkago.Message {
	t.Helper()
	payload, err := json.Marshal(ch)
	if err != nil {
		t.Fatal(err)
	}
	value, err := json.Marshal(events.ChallengeUpsertedEvent{
		ChallengeID: ch.ID,
		Category:    string(ch.Category),
		Title:       ch.Title,
		Payload:     string(payload),
	})
	if err != nil {
		t.Fatal(err)
	}
	return kafkago.Message{Value: value}
}

func TestHandleChallengeUpserted(t *testing.T) {
	catalog := challenge.NewCatalog(zerolog.Nop())
	h := NewHandlers(catalog, zerolog.Nop())

	ch := challenge.Challenge{
		ID:       "ch1",
		Title:    "Sum",
		Category: challenge.CategoryContest,
		Points:   100,
		TestCases: []challenge.TestCase{
			{Input: "1 2", ExpectedOutput: "3"},
		},
	}

	if err := h.HandleChallengeUpserted(context.Background(), upsertMessage(t, ch)); err != nil {
		t.Fatalf("HandleChallengeUpserted: %v", err)
	}

	got, err := catalog.Get("ch1")
	if err != nil {
		t.Fatalf("challenge not in catalog: %v", err)
	}
	if got.Title != "Sum" || len(got.TestCases) != 1 {
		t.Errorf("stored challenge = %+v", got)
	}
}

func TestHandleChallengeUpsertedBadEvent(t *testing.T) {
	catalog := challenge.NewCatalog(zerolog.Nop())
	h := NewHandlers(catalog, zerolog.Nop())

	if err := h.HandleChallengeUpserted(context.Background(), kafkago.Message{Value: []byte("{bad")}); err == nil {
		t.Error("malformed event should error")
	}
	if catalog.Len() != 0 {
		t.Error("malformed event mutated catalog")
	}
}

func TestHandleChallengeUpsertedBadPayload(t *testing.T) {
	catalog := challenge.NewCatalog(zerolog.Nop())
	h := NewHandlers(catalog, zerolog.Nop())

	value, _ := json.Marshal(events.ChallengeUpsertedEvent{
		ChallengeID: "ch1",
		Payload:     "{not a challenge",
	})
	if err := h.HandleChallengeUpserted(context.Background(), kafkago.Message{Value: value}); err == nil {
		t.Error("undecodable challenge document should error")
	}
}

func TestHandleChallengeRemoved(t *testing.T) {
	catalog := challenge.NewCatalog(zerolog.Nop())
	catalog.Upsert(&challenge.Challenge{ID: "ch1", Category: challenge.CategoryContest})
	h := NewHandlers(catalog, zerolog.Nop())

	value, _ := json.Marshal(events.ChallengeRemovedEvent{ChallengeID: "ch1"})
	if err := h.HandleChallengeRemoved(context.Background(), kafkago.Message{Value: value}); err != nil {
		t.Fatalf("HandleChallengeRemoved: %v", err)
	}
	if catalog.Len() != 0 {
		t.Error("challenge still present after removal")
	}
}

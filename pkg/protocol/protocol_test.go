package protocol

import (
	"encoding/json"
	"testing"
)

func TestParseMessage(t *testing.T) {
	msg, err := ParseMessage([]byte(`{"type":"submit","payload":{"roomId":"r1","code":"x"},"requestId":"req-1"}`))
	if err != nil {
		t.Fatalf("ParseMessage: %v", err)
	}
	if msg.Type != MsgSubmit || msg.RequestID != "req-1" {
		t.Errorf("msg = %+v", msg)
	}

	var payload SubmitPayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		t.Fatal(err)
	}
	if payload.RoomID != "r1" || payload.Code != "x" {
		t.Errorf("payload = %+v", payload)
	}
}

func TestParseMessageRejectsUntyped(t *testing.T) {
	if _, err := ParseMessage([]byte(`{"payload":{}}`)); err == nil {
		t.Error("message without type accepted")
	}
	if _, err := ParseMessage([]byte(`nonsense`)); err == nil {
		t.Error("non-JSON accepted")
	}
}

func TestNewErrorMessage(t *testing.T) {
	msg, err := NewErrorMessage("BAD", "broken", "req-9")
	if err != nil {
		t.Fatal(err)
	}
	if msg.Type != MsgError || msg.RequestID != "req-9" {
		t.Errorf("msg = %+v", msg)
	}

	var payload ErrorPayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		t.Fatal(err)
	}
	if payload.Code != "BAD" || payload.Message != "broken" {
		t.Errorf("payload = %+v", payload)
	}
}

func TestMessageRoundTrip(t *testing.T) {
	orig, err := NewMessage(MsgProgressUpdate, ProgressUpdatePayload{RoomID: "r", Progress: 55})
	if err != nil {
		t.Fatal(err)
	}
	data, err := orig.ToBytes()
	if err != nil {
		t.Fatal(err)
	}

	parsed, err := ParseMessage(data)
	if err != nil {
		t.Fatal(err)
	}
	if parsed.Type != MsgProgressUpdate || parsed.Timestamp == 0 {
		t.Errorf("parsed = %+v", parsed)
	}
}

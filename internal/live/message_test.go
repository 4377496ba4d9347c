package live

import (
	"encoding/json"
	"testing"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	frame, err := Encode(TypeCodeUpdate, CodeUpdatePayload{Code: "print(1)", Language: "python"})
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	var env Envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if env.Type != TypeCodeUpdate {
		t.Errorf("expected type %s, got %s", TypeCodeUpdate, env.Type)
	}

	var p CodeUpdatePayload
	if err := env.DecodePayload(&p); err != nil {
		t.Fatalf("DecodePayload failed: %v", err)
	}
	if p.Code != "print(1)" || p.Language != "python" {
		t.Errorf("unexpected payload: %+v", p)
	}
}

func TestDecodePayloadEmpty(t *testing.T) {
	env := Envelope{Type: TypeJoinRoom}
	var p JoinRoomPayload
	if err := env.DecodePayload(&p); err == nil {
		t.Error("expected error for empty payload")
	}
}

func TestDecodePayloadMalformed(t *testing.T) {
	env := Envelope{Type: TypeCodeSnapshot, Data: json.RawMessage(`{"code": 42}`)}
	var p CodeSnapshotPayload
	if err := env.DecodePayload(&p); err == nil {
		t.Error("expected error for type-mismatched payload")
	}
}

func TestEnvelopeUnknownTypeSurvivesDecode(t *testing.T) {
	var env Envelope
	if err := json.Unmarshal([]byte(`{"type":"made-up-event","data":{"x":1}}`), &env); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if env.Type != "made-up-event" {
		t.Errorf("unexpected type: %s", env.Type)
	}
}

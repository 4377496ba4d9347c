package live

import (
	"encoding/json"
	"fmt"
	"time"
)

// Message types, client to server
const (
	TypeJoinRoom      = "join-room"
	TypeAudioStream   = "audio-stream"
	TypeCodeUpdate    = "code-update"
	TypeCodeSnapshot  = "code-snapshot"
	TypeTerminalInput = "terminal-input"
)

// Message types, server to client
const (
	TypeJoined           = "joined"
	TypeTranscriptUpdate = "transcript-update"
	TypeTerminalOutput   = "terminal-output"
	TypeError            = "error"
)

// Envelope is the wire frame for every live message. The payload in Data is
// one of the typed structs below, selected by Type; the handler switches
// exhaustively on Type and drops anything unknown.
type Envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// JoinRoomPayload asks the server to add this connection to a session room
type JoinRoomPayload struct {
	RoomID string `json:"roomId"`
}

// AudioStreamPayload carries one opaque audio chunk, base64-encoded
type AudioStreamPayload struct {
	Chunk string `json:"chunk"`
}

// CodeUpdatePayload is the live, lossy editor state. Last write wins; losing
// one only degrades the observer's view, never the stored artifact.
type CodeUpdatePayload struct {
	Code     string `json:"code"`
	Language string `json:"language"`
}

// CodeSnapshotPayload is the periodic durable capture, independent of the
// code-update stream.
type CodeSnapshotPayload struct {
	SessionID string `json:"sessionId"`
	Code      string `json:"code"`
	Language  string `json:"language"`
}

// TerminalInputPayload forwards one line to the session's execution context
type TerminalInputPayload struct {
	SessionID string `json:"sessionId"`
	Input     string `json:"input"`
}

// JoinedPayload acknowledges room membership
type JoinedPayload struct {
	RoomID string `json:"roomId"`
}

// TranscriptUpdatePayload informs clients of a new transcript line
type TranscriptUpdatePayload struct {
	Speaker   string    `json:"speaker"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// TerminalOutputPayload carries the result of a terminal-input execution
type TerminalOutputPayload struct {
	Output string `json:"output"`
	Error  string `json:"error,omitempty"`
}

// ErrorPayload reports a protocol-level problem to the client
type ErrorPayload struct {
	Message string `json:"message"`
}

// Encode marshals a typed payload into an envelope frame
func Encode(msgType string, payload interface{}) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s payload: %w", msgType, err)
	}
	return json.Marshal(Envelope{Type: msgType, Data: data})
}

// MustEncode is Encode for payloads that cannot fail to marshal
func MustEncode(msgType string, payload interface{}) []byte {
	data, err := Encode(msgType, payload)
	if err != nil {
		panic(err)
	}
	return data
}

// DecodePayload unmarshals the envelope's payload into v
func (e *Envelope) DecodePayload(v interface{}) error {
	if len(e.Data) == 0 {
		return fmt.Errorf("%s: empty payload", e.Type)
	}
	if err := json.Unmarshal(e.Data, v); err != nil {
		return fmt.Errorf("%s: invalid payload: %w", e.Type, err)
	}
	return nil
}

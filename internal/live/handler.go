package live

import (
	"context"
	"encoding/base64"
	"errors"
	"log/slog"
	"time"

	"github.com/prepview/interview-engine/internal/exec"
	"github.com/prepview/interview-engine/internal/models"
	"github.com/prepview/interview-engine/internal/room"
)

// Sessions is the slice of the lifecycle controller the live channel needs
type Sessions interface {
	Activate(ctx context.Context, sessionID string) error
	SaveSnapshot(ctx context.Context, snap *models.CodeSnapshot) error
	AppendTranscript(ctx context.Context, entry *models.TranscriptEntry) error
}

// Runner executes one terminal snippet
type Runner interface {
	Execute(ctx context.Context, language, source string) (*exec.Result, error)
}

// Transcriber converts an audio chunk to text
type Transcriber interface {
	Transcribe(ctx context.Context, chunk []byte) (string, error)
}

// Handler multiplexes one interview session's live channel: room membership,
// code mirroring, audio transcription and terminal execution. One Handler
// serves all connections; per-connection state lives on the serve goroutine.
type Handler struct {
	registry    *room.Registry
	sessions    Sessions
	runner      Runner
	transcriber Transcriber
}

// NewHandler creates a live channel handler
func NewHandler(registry *room.Registry, sessions Sessions, runner Runner, transcriber Transcriber) *Handler {
	return &Handler{
		registry:    registry,
		sessions:    sessions,
		runner:      runner,
		transcriber: transcriber,
	}
}

// connState is per-connection protocol state, touched only by the serve
// goroutine.
type connState struct {
	roomID   string
	language string
}

// Serve runs the read loop for one client until the connection drops. On
// exit the client leaves all rooms; the session itself stays active so the
// client may rejoin and resume live sync.
func (h *Handler) Serve(ctx context.Context, c *Client) {
	slog.Info("live connection opened", "client", c.ID())

	state := &connState{language: "javascript"}

	defer func() {
		h.registry.Leave(c)
		c.Close()
		slog.Info("live connection closed", "client", c.ID(), "room", state.roomID)
	}()

	for {
		env, err := c.ReadEnvelope()
		if err != nil {
			// Malformed frames are dropped; anything else means the
			// connection is gone.
			if errors.Is(err, ErrMalformedFrame) {
				h.sendError(c, "malformed frame")
				continue
			}
			return
		}
		h.dispatch(ctx, c, state, env)
	}
}

// dispatch routes one frame. Unknown types are logged and dropped; malformed
// payloads get an error frame back but never kill the connection.
func (h *Handler) dispatch(ctx context.Context, c *Client, state *connState, env *Envelope) {
	switch env.Type {
	case TypeJoinRoom:
		var p JoinRoomPayload
		if err := env.DecodePayload(&p); err != nil {
			h.sendError(c, err.Error())
			return
		}
		h.handleJoinRoom(ctx, c, state, p)

	case TypeCodeUpdate:
		var p CodeUpdatePayload
		if err := env.DecodePayload(&p); err != nil {
			h.sendError(c, err.Error())
			return
		}
		h.handleCodeUpdate(c, state, p)

	case TypeCodeSnapshot:
		var p CodeSnapshotPayload
		if err := env.DecodePayload(&p); err != nil {
			h.sendError(c, err.Error())
			return
		}
		h.handleCodeSnapshot(ctx, c, state, p)

	case TypeAudioStream:
		var p AudioStreamPayload
		if err := env.DecodePayload(&p); err != nil {
			h.sendError(c, err.Error())
			return
		}
		h.handleAudioStream(ctx, c, state, p)

	case TypeTerminalInput:
		var p TerminalInputPayload
		if err := env.DecodePayload(&p); err != nil {
			h.sendError(c, err.Error())
			return
		}
		h.handleTerminalInput(ctx, c, state, p)

	default:
		slog.Debug("unknown live message type dropped", "type", env.Type, "client", c.ID())
	}
}

func (h *Handler) handleJoinRoom(ctx context.Context, c *Client, state *connState, p JoinRoomPayload) {
	if p.RoomID == "" {
		h.sendError(c, "roomId is required")
		return
	}

	h.registry.Join(c, p.RoomID)
	state.roomID = p.RoomID

	// First join flips the session created -> active
	if err := h.sessions.Activate(ctx, p.RoomID); err != nil {
		slog.Warn("failed to activate session on join", "room", p.RoomID, "error", err)
	}

	if err := c.Send(MustEncode(TypeJoined, JoinedPayload{RoomID: p.RoomID})); err != nil {
		slog.Debug("failed to send join ack", "client", c.ID(), "error", err)
	}
}

// handleCodeUpdate mirrors the live editor state to the rest of the room,
// excluding the author. Last write wins; there is no merge layer.
func (h *Handler) handleCodeUpdate(c *Client, state *connState, p CodeUpdatePayload) {
	if state.roomID == "" {
		h.sendError(c, "join a room before sending code updates")
		return
	}

	if p.Language != "" {
		state.language = p.Language
	}

	h.registry.Broadcast(state.roomID, MustEncode(TypeCodeUpdate, p), c)
}

// handleCodeSnapshot persists the periodic durable capture. Failures are
// logged, not fatal: durability loss here only affects post-hoc review.
func (h *Handler) handleCodeSnapshot(ctx context.Context, c *Client, state *connState, p CodeSnapshotPayload) {
	sessionID := p.SessionID
	if sessionID == "" {
		sessionID = state.roomID
	}
	if sessionID == "" {
		h.sendError(c, "sessionId is required")
		return
	}

	err := h.sessions.SaveSnapshot(ctx, &models.CodeSnapshot{
		SessionID: sessionID,
		Code:      p.Code,
		Language:  p.Language,
		Timestamp: time.Now().UTC(),
	})
	if err != nil {
		slog.Error("failed to persist code snapshot", "session", sessionID, "error", err)
	}
}

// handleAudioStream feeds the chunk to the transcriber and fans the resulting
// transcript line out to the room.
func (h *Handler) handleAudioStream(ctx context.Context, c *Client, state *connState, p AudioStreamPayload) {
	if state.roomID == "" {
		h.sendError(c, "join a room before streaming audio")
		return
	}

	chunk, err := base64.StdEncoding.DecodeString(p.Chunk)
	if err != nil {
		// Tolerate raw (non-base64) chunks from older clients
		chunk = []byte(p.Chunk)
	}

	text, err := h.transcriber.Transcribe(ctx, chunk)
	if err != nil {
		slog.Warn("transcription failed", "session", state.roomID, "error", err)
		return
	}

	now := time.Now().UTC()
	entry := &models.TranscriptEntry{
		SessionID: state.roomID,
		Speaker:   models.SpeakerCandidate,
		Text:      text,
		Timestamp: now,
	}
	if err := h.sessions.AppendTranscript(ctx, entry); err != nil {
		slog.Error("failed to persist transcript entry", "session", state.roomID, "error", err)
	}

	h.registry.Broadcast(state.roomID, MustEncode(TypeTranscriptUpdate, TranscriptUpdatePayload{
		Speaker:   string(models.SpeakerCandidate),
		Text:      text,
		Timestamp: now,
	}), nil)
}

// handleTerminalInput runs one line through the execution engine in the
// session's current language and broadcasts the result to the room.
func (h *Handler) handleTerminalInput(ctx context.Context, c *Client, state *connState, p TerminalInputPayload) {
	if state.roomID == "" && p.SessionID == "" {
		h.sendError(c, "join a room before sending terminal input")
		return
	}

	res, err := h.runner.Execute(ctx, state.language, p.Input)
	if err != nil {
		h.sendError(c, err.Error())
		return
	}

	h.registry.Broadcast(state.roomID, MustEncode(TypeTerminalOutput, TerminalOutputPayload{
		Output: res.Output,
		Error:  res.Error,
	}), nil)
}

func (h *Handler) sendError(c *Client, message string) {
	if err := c.Send(MustEncode(TypeError, ErrorPayload{Message: message})); err != nil {
		slog.Debug("failed to send error frame", "client", c.ID(), "error", err)
	}
}

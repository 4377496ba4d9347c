package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SessionStatus represents the current state of an interview session
type SessionStatus string

const (
	SessionCreated   SessionStatus = "created"   // Stub persisted, nobody joined yet
	SessionActive    SessionStatus = "active"    // Candidate joined, accepting live events
	SessionCompleted SessionStatus = "completed" // Ended, immutable from here on
)

// CanTransitionTo reports whether the status may move to next.
// Transitions are one-directional: created -> active -> completed.
func (s SessionStatus) CanTransitionTo(next SessionStatus) bool {
	switch s {
	case SessionCreated:
		return next == SessionActive || next == SessionCompleted
	case SessionActive:
		return next == SessionCompleted
	default:
		return false
	}
}

// IsTerminal returns true if the session is in a final state
func (s SessionStatus) IsTerminal() bool {
	return s == SessionCompleted
}

// Session represents one candidate's interview attempt
type Session struct {
	ID        int64         `json:"id"`
	SessionID string        `json:"sessionId"`
	UserID    string        `json:"userId"`
	FieldID   string        `json:"fieldId"`
	Status    SessionStatus `json:"status"`
	CreatedAt time.Time     `json:"createdAt"`
	UpdatedAt time.Time     `json:"updatedAt"`
}

// IsCompleted returns true once the session has been ended
func (s *Session) IsCompleted() bool {
	return s.Status == SessionCompleted
}

// NewSessionID allocates an opaque unique session token
func NewSessionID() string {
	return fmt.Sprintf("session-%s", uuid.New().String())
}

// StartSessionRequest is the body for POST /interview/start
type StartSessionRequest struct {
	FieldID string `json:"fieldId"`
}

// StartSessionResponse is returned after starting a session
type StartSessionResponse struct {
	SessionID string `json:"sessionId"`
	FieldID   string `json:"fieldId"`
}

// Report bundles everything recorded for one session
type Report struct {
	Session     *Session           `json:"session"`
	Transcripts []*TranscriptEntry `json:"transcripts"`
	Snapshots   []*CodeSnapshot    `json:"codeSnapshots"`
	Evaluation  *Evaluation        `json:"evaluation,omitempty"`
}

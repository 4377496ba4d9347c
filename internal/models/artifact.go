package models

import "time"

// Speaker identifies who produced a transcript line
type Speaker string

const (
	SpeakerCandidate Speaker = "candidate"
	SpeakerAI        Speaker = "ai"
)

// CodeSnapshot is a durable point-in-time capture of editor content.
// Append-only; distinct from the live, lossy code-update stream.
type CodeSnapshot struct {
	ID        int64     `json:"id"`
	SessionID string    `json:"sessionId"`
	Code      string    `json:"code"`
	Language  string    `json:"language"`
	Timestamp time.Time `json:"timestamp"`
}

// TranscriptEntry is one utterance in the interview conversation. Append-only.
type TranscriptEntry struct {
	ID        int64     `json:"id"`
	SessionID string    `json:"sessionId"`
	Speaker   Speaker   `json:"speaker"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// Upload records one stored interview video
type Upload struct {
	ID         int64     `json:"id"`
	SessionID  string    `json:"sessionId"`
	UserID     string    `json:"userId"`
	FieldID    string    `json:"fieldId"`
	QuestionID int       `json:"questionId"`
	Filename   string    `json:"filename"`
	Path       string    `json:"path"`
	SizeBytes  int64     `json:"sizeBytes"`
	CreatedAt  time.Time `json:"createdAt"`
}

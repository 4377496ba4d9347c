package storage

import (
	"context"
	"time"

	"github.com/prepview/interview-engine/internal/models"
)

// Repository defines the interface for interview persistence
type Repository interface {
	// Sessions
	CreateSession(ctx context.Context, s *models.Session) error
	GetSession(ctx context.Context, sessionID string) (*models.Session, error)
	UpdateSessionStatus(ctx context.Context, sessionID string, status models.SessionStatus) error
	ListSessions(ctx context.Context, userID string, limit, offset int) ([]*models.Session, error)
	CountSessions(ctx context.Context, userID string) (int, error)
	GetIdleSessions(ctx context.Context, idleSince time.Time) ([]*models.Session, error)

	// Code snapshots (append-only)
	CreateSnapshot(ctx context.Context, snap *models.CodeSnapshot) error
	GetSnapshots(ctx context.Context, sessionID string) ([]*models.CodeSnapshot, error)

	// Transcripts (append-only)
	CreateTranscript(ctx context.Context, entry *models.TranscriptEntry) error
	GetTranscripts(ctx context.Context, sessionID string) ([]*models.TranscriptEntry, error)

	// Evaluations
	CreateEvaluation(ctx context.Context, ev *models.Evaluation) error
	GetEvaluation(ctx context.Context, sessionID string) (*models.Evaluation, error)

	// Uploads
	CreateUpload(ctx context.Context, up *models.Upload) error
	GetUploads(ctx context.Context, sessionID string) ([]*models.Upload, error)

	// API tokens
	GetTokenByValue(ctx context.Context, token string) (*models.ApiToken, error)
	UpdateTokenLastUsed(ctx context.Context, token string) error

	// Health
	Ping(ctx context.Context) error
	Close() error
}

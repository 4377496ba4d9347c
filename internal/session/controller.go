package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prepview/interview-engine/internal/evaluate"
	"github.com/prepview/interview-engine/internal/models"
	"github.com/prepview/interview-engine/internal/storage"
)

// Common errors
var (
	ErrSessionNotFound  = errors.New("session not found")
	ErrSessionCompleted = errors.New("session already completed")
	ErrNotSessionOwner  = errors.New("session belongs to another user")
)

// Controller orchestrates the session lifecycle: created -> active ->
// completed, one-directional. It owns all durable writes for a session and
// triggers the evaluation collaborator at the end.
type Controller struct {
	repo      storage.Repository
	evaluator evaluate.Evaluator
}

// NewController creates a session lifecycle controller
func NewController(repo storage.Repository, evaluator evaluate.Evaluator) *Controller {
	return &Controller{
		repo:      repo,
		evaluator: evaluator,
	}
}

// Start allocates a session id and persists the stub row
func (c *Controller) Start(ctx context.Context, userID, fieldID string) (*models.Session, error) {
	if fieldID == "" {
		fieldID = "unknown"
	}

	now := time.Now().UTC()
	s := &models.Session{
		SessionID: models.NewSessionID(),
		UserID:    userID,
		FieldID:   fieldID,
		Status:    models.SessionCreated,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := c.repo.CreateSession(ctx, s); err != nil {
		return nil, fmt.Errorf("failed to start session: %w", err)
	}

	slog.Info("session started", "session", s.SessionID, "user", userID, "field", fieldID)
	return s, nil
}

// Activate flips a session created -> active on first join. Idempotent for
// already-active sessions; completed sessions are never resurrected.
func (c *Controller) Activate(ctx context.Context, sessionID string) error {
	s, err := c.repo.GetSession(ctx, sessionID)
	if err != nil {
		return err
	}
	if s == nil {
		return ErrSessionNotFound
	}

	switch s.Status {
	case models.SessionActive:
		return nil
	case models.SessionCompleted:
		return ErrSessionCompleted
	}

	if err := c.repo.UpdateSessionStatus(ctx, sessionID, models.SessionActive); err != nil {
		return fmt.Errorf("failed to activate session: %w", err)
	}

	slog.Info("session activated", "session", sessionID)
	return nil
}

// SaveSnapshot appends a durable code capture. Rejected once the session is
// completed.
func (c *Controller) SaveSnapshot(ctx context.Context, snap *models.CodeSnapshot) error {
	s, err := c.repo.GetSession(ctx, snap.SessionID)
	if err != nil {
		return err
	}
	if s == nil {
		return ErrSessionNotFound
	}
	if s.IsCompleted() {
		return ErrSessionCompleted
	}

	if snap.Timestamp.IsZero() {
		snap.Timestamp = time.Now().UTC()
	}

	return c.repo.CreateSnapshot(ctx, snap)
}

// AppendTranscript appends one utterance. Rejected once completed.
func (c *Controller) AppendTranscript(ctx context.Context, entry *models.TranscriptEntry) error {
	s, err := c.repo.GetSession(ctx, entry.SessionID)
	if err != nil {
		return err
	}
	if s == nil {
		return ErrSessionNotFound
	}
	if s.IsCompleted() {
		return ErrSessionCompleted
	}

	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}

	return c.repo.CreateTranscript(ctx, entry)
}

// End completes the session, invokes the evaluation collaborator and
// persists its result. userID, when non-empty, must match the owner.
func (c *Controller) End(ctx context.Context, sessionID, userID string) (*models.Evaluation, error) {
	s, err := c.repo.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, ErrSessionNotFound
	}
	if userID != "" && s.UserID != userID {
		return nil, ErrNotSessionOwner
	}
	if s.IsCompleted() {
		return nil, ErrSessionCompleted
	}

	if err := c.repo.UpdateSessionStatus(ctx, sessionID, models.SessionCompleted); err != nil {
		return nil, fmt.Errorf("failed to complete session: %w", err)
	}

	ev, err := c.evaluator.Evaluate(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("evaluation failed: %w", err)
	}

	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now().UTC()
	}
	if err := c.repo.CreateEvaluation(ctx, ev); err != nil {
		return nil, fmt.Errorf("failed to persist evaluation: %w", err)
	}

	slog.Info("session completed", "session", sessionID, "overall_score", ev.OverallScore)
	return ev, nil
}

// Expire forces an idle active session to completed without evaluation.
// Used by the reaper; the report then simply carries no evaluation.
func (c *Controller) Expire(ctx context.Context, sessionID string) error {
	s, err := c.repo.GetSession(ctx, sessionID)
	if err != nil {
		return err
	}
	if s == nil {
		return ErrSessionNotFound
	}
	if s.IsCompleted() {
		return nil
	}

	if err := c.repo.UpdateSessionStatus(ctx, sessionID, models.SessionCompleted); err != nil {
		return fmt.Errorf("failed to expire session: %w", err)
	}

	slog.Info("idle session expired", "session", sessionID)
	return nil
}

// IdleSessions returns active sessions with no activity for idleTimeout
func (c *Controller) IdleSessions(ctx context.Context, idleTimeout time.Duration) ([]*models.Session, error) {
	return c.repo.GetIdleSessions(ctx, time.Now().UTC().Add(-idleTimeout))
}

// Report bundles session, transcripts, snapshots and evaluation
func (c *Controller) Report(ctx context.Context, sessionID, userID string) (*models.Report, error) {
	s, err := c.repo.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, ErrSessionNotFound
	}
	if userID != "" && s.UserID != userID {
		return nil, ErrNotSessionOwner
	}

	transcripts, err := c.repo.GetTranscripts(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load transcripts: %w", err)
	}

	snapshots, err := c.repo.GetSnapshots(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshots: %w", err)
	}

	evaluation, err := c.repo.GetEvaluation(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load evaluation: %w", err)
	}

	return &models.Report{
		Session:     s,
		Transcripts: transcripts,
		Snapshots:   snapshots,
		Evaluation:  evaluation,
	}, nil
}

// Count returns the number of distinct sessions for a user
func (c *Controller) Count(ctx context.Context, userID string) (int, error) {
	return c.repo.CountSessions(ctx, userID)
}

// List returns a user's sessions, newest first
func (c *Controller) List(ctx context.Context, userID string, limit, offset int) ([]*models.Session, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return c.repo.ListSessions(ctx, userID, limit, offset)
}

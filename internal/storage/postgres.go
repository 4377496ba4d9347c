package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/prepview/interview-engine/internal/models"
)

// PostgresRepository implements Repository using PostgreSQL
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// PostgresConfig holds PostgreSQL connection configuration
type PostgresConfig struct {
	DSN          string
	MaxOpenConns int32
	MaxIdleConns int32
	MaxLifetime  time.Duration
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(ctx context.Context, cfg PostgresConfig) (*PostgresRepository, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to parse DSN: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		poolConfig.MaxConns = cfg.MaxOpenConns
	} else {
		poolConfig.MaxConns = 25 // default
	}

	if cfg.MaxIdleConns > 0 {
		poolConfig.MinConns = cfg.MaxIdleConns
	} else {
		poolConfig.MinConns = 5 // default
	}

	if cfg.MaxLifetime > 0 {
		poolConfig.MaxConnLifetime = cfg.MaxLifetime
	} else {
		poolConfig.MaxConnLifetime = 30 * time.Minute
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresRepository{pool: pool}, nil
}

// Ping checks database connectivity
func (r *PostgresRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// Close closes the database connection pool
func (r *PostgresRepository) Close() error {
	r.pool.Close()
	return nil
}

// --- Sessions ---

// CreateSession persists a new session stub
func (r *PostgresRepository) CreateSession(ctx context.Context, s *models.Session) error {
	query := `
		INSERT INTO interview_sessions (session_id, user_id, field_id, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	err := r.pool.QueryRow(ctx, query,
		s.SessionID,
		s.UserID,
		s.FieldID,
		string(s.Status),
		s.CreatedAt,
		s.UpdatedAt,
	).Scan(&s.ID)

	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}

	return nil
}

// GetSession retrieves a session by its public id. Returns nil when not found.
func (r *PostgresRepository) GetSession(ctx context.Context, sessionID string) (*models.Session, error) {
	query := `
		SELECT id, session_id, user_id, field_id, status, created_at, updated_at
		FROM interview_sessions
		WHERE session_id = $1
	`

	var s models.Session
	var statusStr string

	err := r.pool.QueryRow(ctx, query, sessionID).Scan(
		&s.ID,
		&s.SessionID,
		&s.UserID,
		&s.FieldID,
		&statusStr,
		&s.CreatedAt,
		&s.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	s.Status = models.SessionStatus(statusStr)
	return &s, nil
}

// UpdateSessionStatus moves a session to a new status
func (r *PostgresRepository) UpdateSessionStatus(ctx context.Context, sessionID string, status models.SessionStatus) error {
	query := `
		UPDATE interview_sessions
		SET status = $2, updated_at = NOW()
		WHERE session_id = $1
	`

	result, err := r.pool.Exec(ctx, query, sessionID, string(status))
	if err != nil {
		return fmt.Errorf("failed to update session status: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("session not found: %s", sessionID)
	}

	return nil
}

// ListSessions returns a user's sessions, newest first
func (r *PostgresRepository) ListSessions(ctx context.Context, userID string, limit, offset int) ([]*models.Session, error) {
	query := `
		SELECT id, session_id, user_id, field_id, status, created_at, updated_at
		FROM interview_sessions
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.pool.Query(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	return scanSessions(rows)
}

// CountSessions returns the number of distinct sessions for a user
func (r *PostgresRepository) CountSessions(ctx context.Context, userID string) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(DISTINCT session_id) FROM interview_sessions WHERE user_id = $1`,
		userID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count sessions: %w", err)
	}
	return count, nil
}

// GetIdleSessions returns active sessions with no activity since idleSince.
// Snapshot and transcript writes bump updated_at, so it doubles as an
// activity timestamp.
func (r *PostgresRepository) GetIdleSessions(ctx context.Context, idleSince time.Time) ([]*models.Session, error) {
	query := `
		SELECT id, session_id, user_id, field_id, status, created_at, updated_at
		FROM interview_sessions
		WHERE status = $1 AND updated_at < $2
	`

	rows, err := r.pool.Query(ctx, query, string(models.SessionActive), idleSince)
	if err != nil {
		return nil, fmt.Errorf("failed to get idle sessions: %w", err)
	}
	defer rows.Close()

	return scanSessions(rows)
}

func scanSessions(rows pgx.Rows) ([]*models.Session, error) {
	var sessions []*models.Session
	for rows.Next() {
		var s models.Session
		var statusStr string
		if err := rows.Scan(&s.ID, &s.SessionID, &s.UserID, &s.FieldID, &statusStr, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		s.Status = models.SessionStatus(statusStr)
		sessions = append(sessions, &s)
	}
	return sessions, rows.Err()
}

// --- Code snapshots ---

// CreateSnapshot appends a snapshot and bumps the session's activity time
func (r *PostgresRepository) CreateSnapshot(ctx context.Context, snap *models.CodeSnapshot) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx,
		`INSERT INTO code_snapshots (session_id, code, language, created_at) VALUES ($1, $2, $3, $4) RETURNING id`,
		snap.SessionID, snap.Code, snap.Language, snap.Timestamp,
	).Scan(&snap.ID)
	if err != nil {
		return fmt.Errorf("failed to create snapshot: %w", err)
	}

	if _, err := tx.Exec(ctx,
		`UPDATE interview_sessions SET updated_at = NOW() WHERE session_id = $1`,
		snap.SessionID,
	); err != nil {
		return fmt.Errorf("failed to touch session: %w", err)
	}

	return tx.Commit(ctx)
}

// GetSnapshots returns a session's snapshots, newest first
func (r *PostgresRepository) GetSnapshots(ctx context.Context, sessionID string) ([]*models.CodeSnapshot, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, session_id, code, language, created_at FROM code_snapshots WHERE session_id = $1 ORDER BY created_at DESC`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get snapshots: %w", err)
	}
	defer rows.Close()

	var snaps []*models.CodeSnapshot
	for rows.Next() {
		var s models.CodeSnapshot
		if err := rows.Scan(&s.ID, &s.SessionID, &s.Code, &s.Language, &s.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		snaps = append(snaps, &s)
	}
	return snaps, rows.Err()
}

// --- Transcripts ---

// CreateTranscript appends a transcript entry and bumps session activity
func (r *PostgresRepository) CreateTranscript(ctx context.Context, entry *models.TranscriptEntry) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx,
		`INSERT INTO transcripts (session_id, speaker, text, created_at) VALUES ($1, $2, $3, $4) RETURNING id`,
		entry.SessionID, string(entry.Speaker), entry.Text, entry.Timestamp,
	).Scan(&entry.ID)
	if err != nil {
		return fmt.Errorf("failed to create transcript entry: %w", err)
	}

	if _, err := tx.Exec(ctx,
		`UPDATE interview_sessions SET updated_at = NOW() WHERE session_id = $1`,
		entry.SessionID,
	); err != nil {
		return fmt.Errorf("failed to touch session: %w", err)
	}

	return tx.Commit(ctx)
}

// GetTranscripts returns a session's transcript in chronological order
func (r *PostgresRepository) GetTranscripts(ctx context.Context, sessionID string) ([]*models.TranscriptEntry, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, session_id, speaker, text, created_at FROM transcripts WHERE session_id = $1 ORDER BY created_at ASC`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get transcripts: %w", err)
	}
	defer rows.Close()

	var entries []*models.TranscriptEntry
	for rows.Next() {
		var e models.TranscriptEntry
		var speaker string
		if err := rows.Scan(&e.ID, &e.SessionID, &speaker, &e.Text, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan transcript entry: %w", err)
		}
		e.Speaker = models.Speaker(speaker)
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}

// --- Evaluations ---

// CreateEvaluation stores the evaluation for a session
func (r *PostgresRepository) CreateEvaluation(ctx context.Context, ev *models.Evaluation) error {
	scoresJSON, err := json.Marshal(ev.Scores)
	if err != nil {
		return fmt.Errorf("failed to marshal scores: %w", err)
	}

	feedbackJSON, err := json.Marshal(ev.Feedback)
	if err != nil {
		return fmt.Errorf("failed to marshal feedback: %w", err)
	}

	err = r.pool.QueryRow(ctx,
		`INSERT INTO evaluations (session_id, scores, feedback, overall_score, created_at)
		 VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		ev.SessionID, scoresJSON, feedbackJSON, ev.OverallScore, ev.CreatedAt,
	).Scan(&ev.ID)
	if err != nil {
		return fmt.Errorf("failed to create evaluation: %w", err)
	}

	return nil
}

// GetEvaluation returns the evaluation for a session, nil when absent
func (r *PostgresRepository) GetEvaluation(ctx context.Context, sessionID string) (*models.Evaluation, error) {
	var ev models.Evaluation
	var scoresJSON, feedbackJSON []byte

	err := r.pool.QueryRow(ctx,
		`SELECT id, session_id, scores, feedback, overall_score, created_at FROM evaluations WHERE session_id = $1`,
		sessionID,
	).Scan(&ev.ID, &ev.SessionID, &scoresJSON, &feedbackJSON, &ev.OverallScore, &ev.CreatedAt)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("failed to get evaluation: %w", err)
	}

	if err := json.Unmarshal(scoresJSON, &ev.Scores); err != nil {
		return nil, fmt.Errorf("failed to unmarshal scores: %w", err)
	}
	if err := json.Unmarshal(feedbackJSON, &ev.Feedback); err != nil {
		return nil, fmt.Errorf("failed to unmarshal feedback: %w", err)
	}

	return &ev, nil
}

// --- Uploads ---

// CreateUpload records a stored interview video
func (r *PostgresRepository) CreateUpload(ctx context.Context, up *models.Upload) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO interview_uploads (session_id, user_id, field_id, question_id, filename, path, size_bytes, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`,
		up.SessionID, up.UserID, up.FieldID, up.QuestionID, up.Filename, up.Path, up.SizeBytes, up.CreatedAt,
	).Scan(&up.ID)
	if err != nil {
		return fmt.Errorf("failed to create upload record: %w", err)
	}
	return nil
}

// GetUploads returns upload records for a session
func (r *PostgresRepository) GetUploads(ctx context.Context, sessionID string) ([]*models.Upload, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, session_id, user_id, field_id, question_id, filename, path, size_bytes, created_at
		 FROM interview_uploads WHERE session_id = $1 ORDER BY created_at ASC`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get uploads: %w", err)
	}
	defer rows.Close()

	var uploads []*models.Upload
	for rows.Next() {
		var u models.Upload
		if err := rows.Scan(&u.ID, &u.SessionID, &u.UserID, &u.FieldID, &u.QuestionID, &u.Filename, &u.Path, &u.SizeBytes, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan upload: %w", err)
		}
		uploads = append(uploads, &u)
	}
	return uploads, rows.Err()
}

// --- API tokens ---

// GetTokenByValue looks up a bearer token. Returns nil when unknown.
func (r *PostgresRepository) GetTokenByValue(ctx context.Context, token string) (*models.ApiToken, error) {
	var t models.ApiToken
	var lastUsed *time.Time

	err := r.pool.QueryRow(ctx,
		`SELECT id, user_id, token, is_active, created_at, last_used_at FROM api_tokens WHERE token = $1`,
		token,
	).Scan(&t.ID, &t.UserID, &t.Token, &t.IsActive, &t.CreatedAt, &lastUsed)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("failed to get token: %w", err)
	}

	t.LastUsedAt = lastUsed
	return &t, nil
}

// UpdateTokenLastUsed records token usage
func (r *PostgresRepository) UpdateTokenLastUsed(ctx context.Context, token string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE api_tokens SET last_used_at = NOW() WHERE token = $1`,
		token,
	)
	if err != nil {
		return fmt.Errorf("failed to update token last_used_at: %w", err)
	}
	return nil
}

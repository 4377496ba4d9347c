package cleanup

import (
	"context"
	"log/slog"
	"time"

	"github.com/prepview/interview-engine/internal/models"
)

// Sessions is the slice of the session controller the reaper needs
type Sessions interface {
	IdleSessions(ctx context.Context, idleTimeout time.Duration) ([]*models.Session, error)
	Expire(ctx context.Context, sessionID string) error
}

// Reaper periodically completes active sessions that have gone idle,
// so abandoned interviews do not stay active forever.
type Reaper struct {
	sessions    Sessions
	interval    time.Duration
	idleTimeout time.Duration
}

// NewReaper creates a new idle-session reaper
func NewReaper(sessions Sessions, interval, idleTimeout time.Duration) *Reaper {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	if idleTimeout <= 0 {
		idleTimeout = 2 * time.Hour
	}

	return &Reaper{
		sessions:    sessions,
		interval:    interval,
		idleTimeout: idleTimeout,
	}
}

// Start begins the reaper in a goroutine
func (r *Reaper) Start(ctx context.Context) {
	go r.run(ctx)
}

// run is the main loop for the reaper
func (r *Reaper) run(ctx context.Context) {
	slog.Info("session reaper started", "interval", r.interval, "idle_timeout", r.idleTimeout)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	// Run immediately on start
	r.reap(ctx)

	for {
		select {
		case <-ctx.Done():
			slog.Info("session reaper stopped")
			return
		case <-ticker.C:
			r.reap(ctx)
		}
	}
}

// reap finds and completes idle sessions
func (r *Reaper) reap(ctx context.Context) {
	slog.Debug("running reap cycle")

	idle, err := r.sessions.IdleSessions(ctx, r.idleTimeout)
	if err != nil {
		slog.Error("failed to get idle sessions", "error", err)
		return
	}

	if len(idle) == 0 {
		slog.Debug("no idle sessions found")
		return
	}

	slog.Info("found idle sessions", "count", len(idle))

	for _, s := range idle {
		slog.Info("expiring idle session",
			"session", s.SessionID,
			"user", s.UserID,
			"last_activity", s.UpdatedAt,
		)

		if err := r.sessions.Expire(ctx, s.SessionID); err != nil {
			slog.Error("failed to expire session",
				"error", err,
				"session", s.SessionID,
			)
			continue
		}
	}
}

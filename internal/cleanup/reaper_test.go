package cleanup

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/prepview/interview-engine/internal/models"
)

type fakeSessions struct {
	mu      sync.Mutex
	idle    []*models.Session
	expired []string
}

func (f *fakeSessions) IdleSessions(_ context.Context, _ time.Duration) ([]*models.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.idle, nil
}

func (f *fakeSessions) Expire(_ context.Context, sessionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.expired = append(f.expired, sessionID)
	return nil
}

func TestReapExpiresIdleSessions(t *testing.T) {
	fs := &fakeSessions{
		idle: []*models.Session{
			{SessionID: "session-a", Status: models.SessionActive},
			{SessionID: "session-b", Status: models.SessionActive},
		},
	}

	r := NewReaper(fs, time.Minute, time.Hour)
	r.reap(context.Background())

	fs.mu.Lock()
	defer fs.mu.Unlock()
	if len(fs.expired) != 2 {
		t.Fatalf("expired %d sessions, want 2", len(fs.expired))
	}
}

func TestReaperDefaults(t *testing.T) {
	r := NewReaper(&fakeSessions{}, 0, 0)
	if r.interval != 5*time.Minute {
		t.Errorf("interval = %v", r.interval)
	}
	if r.idleTimeout != 2*time.Hour {
		t.Errorf("idle timeout = %v", r.idleTimeout)
	}
}

package session

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/prepview/interview-engine/internal/evaluate"
	"github.com/prepview/interview-engine/internal/models"
)

// fakeRepo is an in-memory Repository for controller tests
type fakeRepo struct {
	mu          sync.Mutex
	sessions    map[string]*models.Session
	snapshots   map[string][]*models.CodeSnapshot
	transcripts map[string][]*models.TranscriptEntry
	evaluations map[string]*models.Evaluation
	uploads     map[string][]*models.Upload
	tokens      map[string]*models.ApiToken
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		sessions:    make(map[string]*models.Session),
		snapshots:   make(map[string][]*models.CodeSnapshot),
		transcripts: make(map[string][]*models.TranscriptEntry),
		evaluations: make(map[string]*models.Evaluation),
		uploads:     make(map[string][]*models.Upload),
		tokens:      make(map[string]*models.ApiToken),
	}
}

func (r *fakeRepo) CreateSession(_ context.Context, s *models.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *s
	cp.ID = int64(len(r.sessions) + 1)
	r.sessions[s.SessionID] = &cp
	s.ID = cp.ID
	return nil
}

func (r *fakeRepo) GetSession(_ context.Context, sessionID string) (*models.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[sessionID]
	if !ok {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (r *fakeRepo) UpdateSessionStatus(_ context.Context, sessionID string, status models.SessionStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[sessionID]
	if !ok {
		return errors.New("no such session")
	}
	s.Status = status
	s.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *fakeRepo) ListSessions(_ context.Context, userID string, limit, offset int) ([]*models.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Session
	for _, s := range r.sessions {
		if s.UserID == userID {
			cp := *s
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeRepo) CountSessions(_ context.Context, userID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, s := range r.sessions {
		if s.UserID == userID {
			n++
		}
	}
	return n, nil
}

func (r *fakeRepo) GetIdleSessions(_ context.Context, idleSince time.Time) ([]*models.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Session
	for _, s := range r.sessions {
		if s.Status == models.SessionActive && s.UpdatedAt.Before(idleSince) {
			cp := *s
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeRepo) CreateSnapshot(_ context.Context, snap *models.CodeSnapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snapshots[snap.SessionID] = append(r.snapshots[snap.SessionID], snap)
	if s, ok := r.sessions[snap.SessionID]; ok {
		s.UpdatedAt = time.Now().UTC()
	}
	return nil
}

func (r *fakeRepo) GetSnapshots(_ context.Context, sessionID string) ([]*models.CodeSnapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*models.CodeSnapshot(nil), r.snapshots[sessionID]...), nil
}

func (r *fakeRepo) CreateTranscript(_ context.Context, entry *models.TranscriptEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.transcripts[entry.SessionID] = append(r.transcripts[entry.SessionID], entry)
	if s, ok := r.sessions[entry.SessionID]; ok {
		s.UpdatedAt = time.Now().UTC()
	}
	return nil
}

func (r *fakeRepo) GetTranscripts(_ context.Context, sessionID string) ([]*models.TranscriptEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*models.TranscriptEntry(nil), r.transcripts[sessionID]...), nil
}

func (r *fakeRepo) CreateEvaluation(_ context.Context, ev *models.Evaluation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.evaluations[ev.SessionID]; exists {
		return errors.New("evaluation already exists")
	}
	r.evaluations[ev.SessionID] = ev
	return nil
}

func (r *fakeRepo) GetEvaluation(_ context.Context, sessionID string) (*models.Evaluation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ev, ok := r.evaluations[sessionID]
	if !ok {
		return nil, nil
	}
	return ev, nil
}

func (r *fakeRepo) CreateUpload(_ context.Context, up *models.Upload) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.uploads[up.SessionID] = append(r.uploads[up.SessionID], up)
	return nil
}

func (r *fakeRepo) GetUploads(_ context.Context, sessionID string) ([]*models.Upload, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*models.Upload(nil), r.uploads[sessionID]...), nil
}

func (r *fakeRepo) GetTokenByValue(_ context.Context, token string) (*models.ApiToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tokens[token]
	if !ok {
		return nil, nil
	}
	return t, nil
}

func (r *fakeRepo) UpdateTokenLastUsed(_ context.Context, token string) error { return nil }

func (r *fakeRepo) Ping(_ context.Context) error { return nil }
func (r *fakeRepo) Close() error                 { return nil }

func newTestController(t *testing.T) (*Controller, *fakeRepo) {
	t.Helper()
	repo := newFakeRepo()
	return NewController(repo, evaluate.NewMockEvaluator()), repo
}

func TestStartSession(t *testing.T) {
	c, repo := newTestController(t)

	s, err := c.Start(context.Background(), "user-1", "backend-development")
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if s.SessionID == "" {
		t.Fatal("expected non-empty session id")
	}
	if s.Status != models.SessionCreated {
		t.Errorf("status = %q, want created", s.Status)
	}

	stored, _ := repo.GetSession(context.Background(), s.SessionID)
	if stored == nil {
		t.Fatal("session not persisted")
	}
}

func TestStartSessionDefaultsField(t *testing.T) {
	c, _ := newTestController(t)

	s, err := c.Start(context.Background(), "user-1", "")
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if s.FieldID != "unknown" {
		t.Errorf("field = %q, want unknown", s.FieldID)
	}
}

func TestActivateTransitions(t *testing.T) {
	c, _ := newTestController(t)
	ctx := context.Background()

	s, _ := c.Start(ctx, "user-1", "frontend-development")

	if err := c.Activate(ctx, s.SessionID); err != nil {
		t.Fatalf("Activate created: %v", err)
	}

	// second join is a no-op
	if err := c.Activate(ctx, s.SessionID); err != nil {
		t.Fatalf("Activate active: %v", err)
	}

	if _, err := c.End(ctx, s.SessionID, "user-1"); err != nil {
		t.Fatalf("End: %v", err)
	}

	if err := c.Activate(ctx, s.SessionID); !errors.Is(err, ErrSessionCompleted) {
		t.Errorf("Activate completed = %v, want ErrSessionCompleted", err)
	}
}

func TestActivateUnknownSession(t *testing.T) {
	c, _ := newTestController(t)

	err := c.Activate(context.Background(), "session-missing")
	if !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("err = %v, want ErrSessionNotFound", err)
	}
}

func TestEndEvaluatesAndPersists(t *testing.T) {
	c, repo := newTestController(t)
	ctx := context.Background()

	s, _ := c.Start(ctx, "user-1", "backend-development")
	if err := c.Activate(ctx, s.SessionID); err != nil {
		t.Fatal(err)
	}

	ev, err := c.End(ctx, s.SessionID, "user-1")
	if err != nil {
		t.Fatalf("End: %v", err)
	}
	if ev.OverallScore < 0 || ev.OverallScore > 10 {
		t.Errorf("overall score %d out of [0,10]", ev.OverallScore)
	}

	stored, _ := repo.GetEvaluation(ctx, s.SessionID)
	if stored == nil {
		t.Fatal("evaluation not persisted")
	}

	got, _ := repo.GetSession(ctx, s.SessionID)
	if got.Status != models.SessionCompleted {
		t.Errorf("status = %q, want completed", got.Status)
	}
}

func TestEndTwiceRejected(t *testing.T) {
	c, _ := newTestController(t)
	ctx := context.Background()

	s, _ := c.Start(ctx, "user-1", "backend-development")
	if _, err := c.End(ctx, s.SessionID, "user-1"); err != nil {
		t.Fatal(err)
	}

	if _, err := c.End(ctx, s.SessionID, "user-1"); !errors.Is(err, ErrSessionCompleted) {
		t.Errorf("second End = %v, want ErrSessionCompleted", err)
	}
}

func TestEndWrongUser(t *testing.T) {
	c, _ := newTestController(t)
	ctx := context.Background()

	s, _ := c.Start(ctx, "user-1", "backend-development")
	if _, err := c.End(ctx, s.SessionID, "user-2"); !errors.Is(err, ErrNotSessionOwner) {
		t.Errorf("err = %v, want ErrNotSessionOwner", err)
	}
}

func TestWritesRejectedAfterCompletion(t *testing.T) {
	c, _ := newTestController(t)
	ctx := context.Background()

	s, _ := c.Start(ctx, "user-1", "backend-development")
	c.Activate(ctx, s.SessionID)
	if _, err := c.End(ctx, s.SessionID, "user-1"); err != nil {
		t.Fatal(err)
	}

	err := c.SaveSnapshot(ctx, &models.CodeSnapshot{SessionID: s.SessionID, Code: "x", Language: "python"})
	if !errors.Is(err, ErrSessionCompleted) {
		t.Errorf("SaveSnapshot = %v, want ErrSessionCompleted", err)
	}

	err = c.AppendTranscript(ctx, &models.TranscriptEntry{SessionID: s.SessionID, Speaker: models.SpeakerCandidate, Text: "hi"})
	if !errors.Is(err, ErrSessionCompleted) {
		t.Errorf("AppendTranscript = %v, want ErrSessionCompleted", err)
	}
}

func TestExpireIdleSession(t *testing.T) {
	c, repo := newTestController(t)
	ctx := context.Background()

	s, _ := c.Start(ctx, "user-1", "backend-development")
	c.Activate(ctx, s.SessionID)

	// push activity into the past
	repo.mu.Lock()
	repo.sessions[s.SessionID].UpdatedAt = time.Now().Add(-3 * time.Hour)
	repo.mu.Unlock()

	idle, err := c.IdleSessions(ctx, 2*time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	if len(idle) != 1 {
		t.Fatalf("idle sessions = %d, want 1", len(idle))
	}

	if err := c.Expire(ctx, s.SessionID); err != nil {
		t.Fatalf("Expire: %v", err)
	}

	// expiry is idempotent and produces no evaluation
	if err := c.Expire(ctx, s.SessionID); err != nil {
		t.Fatalf("second Expire: %v", err)
	}
	ev, _ := repo.GetEvaluation(ctx, s.SessionID)
	if ev != nil {
		t.Error("expired session should not be evaluated")
	}

	got, _ := repo.GetSession(ctx, s.SessionID)
	if got.Status != models.SessionCompleted {
		t.Errorf("status = %q, want completed", got.Status)
	}
}

func TestCountAndList(t *testing.T) {
	c, _ := newTestController(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := c.Start(ctx, "user-1", "backend-development"); err != nil {
			t.Fatal(err)
		}
	}
	c.Start(ctx, "user-2", "frontend-development")

	n, err := c.Count(ctx, "user-1")
	if err != nil {
		t.Fatal(err)
	}
	if n != 3 {
		t.Errorf("count = %d, want 3", n)
	}

	list, err := c.List(ctx, "user-1", 2, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 {
		t.Errorf("list len = %d, want 2", len(list))
	}
}

// Full lifecycle: start, join, snapshot, transcript, end, report.
func TestFullSessionLifecycle(t *testing.T) {
	c, _ := newTestController(t)
	ctx := context.Background()

	s, err := c.Start(ctx, "user-9", "backend-development")
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Activate(ctx, s.SessionID); err != nil {
		t.Fatal(err)
	}

	snap := &models.CodeSnapshot{SessionID: s.SessionID, Code: "def solve():\n    pass\n", Language: "python"}
	if err := c.SaveSnapshot(ctx, snap); err != nil {
		t.Fatal(err)
	}

	entry := &models.TranscriptEntry{SessionID: s.SessionID, Speaker: models.SpeakerCandidate, Text: "I would start with a hash map."}
	if err := c.AppendTranscript(ctx, entry); err != nil {
		t.Fatal(err)
	}

	if _, err := c.End(ctx, s.SessionID, "user-9"); err != nil {
		t.Fatal(err)
	}

	report, err := c.Report(ctx, s.SessionID, "user-9")
	if err != nil {
		t.Fatalf("Report: %v", err)
	}
	if report.Session.Status != models.SessionCompleted {
		t.Errorf("report status = %q, want completed", report.Session.Status)
	}
	if len(report.Snapshots) != 1 {
		t.Errorf("snapshots = %d, want 1", len(report.Snapshots))
	}
	if len(report.Transcripts) != 1 {
		t.Errorf("transcripts = %d, want 1", len(report.Transcripts))
	}
	if report.Evaluation == nil {
		t.Fatal("report is missing the evaluation")
	}
	scores := report.Evaluation.Scores
	for name, v := range map[string]int{
		"clarity":        scores.Clarity,
		"understanding":  scores.Understanding,
		"correctness":    scores.Correctness,
		"codeQuality":    scores.CodeQuality,
		"testCoverage":   scores.TestCoverage,
		"timeManagement": scores.TimeManagement,
		"confidence":     scores.Confidence,
	} {
		if v < 0 || v > 10 {
			t.Errorf("%s score %d out of [0,10]", name, v)
		}
	}
}

func TestReportUnknownSession(t *testing.T) {
	c, _ := newTestController(t)

	_, err := c.Report(context.Background(), "session-missing", "user-1")
	if !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("err = %v, want ErrSessionNotFound", err)
	}
}

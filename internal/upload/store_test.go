package upload

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func newTestStore(t *testing.T, maxBytes int64) *Store {
	t.Helper()
	s, err := NewStore(t.TempDir(), maxBytes)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestSaveRecording(t *testing.T) {
	s := newTestStore(t, 1<<20)

	name, n, err := s.Save("u1", "backend-development", "2", "take.webm", "video/webm", strings.NewReader("frame-data"))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if n != int64(len("frame-data")) {
		t.Errorf("bytes = %d", n)
	}
	if !strings.HasPrefix(name, "user-u1-field-backend-development-question-2-") {
		t.Errorf("unexpected filename %q", name)
	}
	if !strings.HasSuffix(name, ".webm") {
		t.Errorf("extension lost: %q", name)
	}

	data, err := os.ReadFile(filepath.Join(s.Dir(), name))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "frame-data" {
		t.Errorf("stored %q", data)
	}
}

func TestSaveRejectsNonVideo(t *testing.T) {
	s := newTestStore(t, 1<<20)

	_, _, err := s.Save("u1", "f1", "1", "evil.sh", "application/x-sh", strings.NewReader("#!/bin/sh"))
	if !errors.Is(err, ErrNotVideo) {
		t.Errorf("err = %v, want ErrNotVideo", err)
	}
}

func TestSaveRejectsOversized(t *testing.T) {
	s := newTestStore(t, 8)

	_, _, err := s.Save("u1", "f1", "1", "big.mp4", "video/mp4", strings.NewReader("123456789"))
	if !errors.Is(err, ErrTooLarge) {
		t.Errorf("err = %v, want ErrTooLarge", err)
	}

	entries, _ := os.ReadDir(s.Dir())
	if len(entries) != 0 {
		t.Error("oversized upload left a file behind")
	}
}

func TestSaveRejectsEmpty(t *testing.T) {
	s := newTestStore(t, 1<<20)

	_, _, err := s.Save("u1", "f1", "1", "x.mp4", "video/mp4", strings.NewReader(""))
	if !errors.Is(err, ErrEmptyUpload) {
		t.Errorf("err = %v, want ErrEmptyUpload", err)
	}
}

func TestSaveRequiresIdentity(t *testing.T) {
	s := newTestStore(t, 1<<20)

	_, _, err := s.Save("", "f1", "1", "x.mp4", "video/mp4", strings.NewReader("data"))
	if !errors.Is(err, ErrMissingParts) {
		t.Errorf("err = %v, want ErrMissingParts", err)
	}
}

func TestSanitizeStripsSeparators(t *testing.T) {
	s := newTestStore(t, 1<<20)

	name, _, err := s.Save("../../etc", "f 1", "1", "x.mp4", "video/mp4", strings.NewReader("data"))
	if err != nil {
		t.Fatal(err)
	}
	if strings.ContainsAny(name, "/\\") {
		t.Errorf("filename contains separators: %q", name)
	}
	if _, err := os.Stat(filepath.Join(s.Dir(), name)); err != nil {
		t.Errorf("file not written inside store dir: %v", err)
	}
}

package upload

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Common errors
var (
	ErrNotVideo     = errors.New("only video files are accepted")
	ErrEmptyUpload  = errors.New("empty upload")
	ErrTooLarge     = errors.New("upload exceeds the size limit")
	ErrMissingParts = errors.New("userId, fieldId and questionId are required")
)

// Store writes interview recordings to local disk under a single directory.
// Filenames encode user, field and question so recordings can be located
// without a database lookup.
type Store struct {
	dir      string
	maxBytes int64
}

// NewStore creates an upload store rooted at dir
func NewStore(dir string, maxBytes int64) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	return &Store{dir: dir, maxBytes: maxBytes}, nil
}

// Dir returns the root directory recordings are written to
func (s *Store) Dir() string {
	return s.dir
}

// MaxBytes returns the per-file size cap
func (s *Store) MaxBytes() int64 {
	return s.maxBytes
}

// Save streams one recording to disk and returns the stored filename and
// byte count. contentType must be a video MIME type; originalName only
// contributes its extension.
func (s *Store) Save(userID, fieldID, questionID, originalName, contentType string, r io.Reader) (string, int64, error) {
	if userID == "" || fieldID == "" || questionID == "" {
		return "", 0, ErrMissingParts
	}
	if !strings.HasPrefix(contentType, "video/") {
		return "", 0, ErrNotVideo
	}

	ext := filepath.Ext(originalName)
	if ext == "" {
		ext = ".webm"
	}
	filename := fmt.Sprintf("user-%s-field-%s-question-%s-%d%s",
		sanitize(userID), sanitize(fieldID), sanitize(questionID), time.Now().UnixMilli(), ext)
	path := filepath.Join(s.dir, filename)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", 0, fmt.Errorf("failed to create upload file: %w", err)
	}

	limit := s.maxBytes
	if limit <= 0 {
		limit = 500 << 20
	}
	n, err := io.Copy(f, io.LimitReader(r, limit+1))
	closeErr := f.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(path)
		return "", 0, fmt.Errorf("failed to write upload: %w", err)
	}
	if n == 0 {
		os.Remove(path)
		return "", 0, ErrEmptyUpload
	}
	if n > limit {
		os.Remove(path)
		return "", 0, ErrTooLarge
	}

	slog.Info("recording stored", "file", filename, "bytes", n)
	return filename, n, nil
}

// sanitize strips path separators and whitespace from filename components
func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', '.', ' ':
			return '_'
		}
		return r
	}, s)
}

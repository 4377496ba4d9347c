package catalog

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/prepview/interview-engine/internal/models"
)

// Loader manages loading and caching of interview field definitions
type Loader struct {
	mu     sync.RWMutex
	fields map[string]*models.Field
}

// NewLoader creates a new field catalog loader
func NewLoader() *Loader {
	return &Loader{
		fields: make(map[string]*models.Field),
	}
}

// LoadFromDir loads all YAML field files from a directory
func (l *Loader) LoadFromDir(dir string) error {
	slog.Info("loading field catalog from directory", "dir", dir)

	patterns := []string{"*.yaml", "*.yml"}
	var files []string

	for _, pattern := range patterns {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			continue
		}
		files = append(files, matches...)
	}

	loaded := 0
	for _, file := range files {
		if err := l.LoadFromFile(file); err != nil {
			slog.Warn("failed to load field", "file", file, "error", err)
			continue
		}
		loaded++
	}

	slog.Info("field catalog loaded", "count", loaded, "total_files", len(files))
	return nil
}

// LoadFromFile loads a single field definition from a YAML file
func (l *Loader) LoadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	var field models.Field
	if err := yaml.Unmarshal(data, &field); err != nil {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}

	// Fall back to the filename for the id
	if field.ID == "" {
		base := filepath.Base(path)
		field.ID = strings.TrimSuffix(base, filepath.Ext(base))
	}
	if field.Name == "" {
		return fmt.Errorf("field name is required")
	}

	for i := range field.Questions {
		if field.Questions[i].TimeLimit <= 0 {
			field.Questions[i].TimeLimit = 900
		}
	}
	field.QuestionCount = len(field.Questions)

	l.mu.Lock()
	l.fields[field.ID] = &field
	l.mu.Unlock()

	slog.Info("field loaded", "id", field.ID, "questions", field.QuestionCount)
	return nil
}

// Get retrieves a field by id
func (l *Loader) Get(id string) *models.Field {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.fields[id]
}

// List returns all loaded fields, sorted by id
func (l *Loader) List() []*models.Field {
	l.mu.RLock()
	defer l.mu.RUnlock()

	result := make([]*models.Field, 0, len(l.fields))
	for _, f := range l.fields {
		result = append(result, f)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

// Add programmatically adds a field
func (l *Loader) Add(field *models.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	field.QuestionCount = len(field.Questions)
	l.fields[field.ID] = field
}

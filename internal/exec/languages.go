package exec

import "sync"

// Language describes how to materialize and run source for one language.
// Commands are argument vectors, never shell strings; they run with the
// per-execution scratch directory as working directory.
type Language struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	SourceFile string   `json:"source_file"`
	CompileCmd []string `json:"compile_cmd,omitempty"`
	RunCmd     []string `json:"run_cmd"`
	Image      string   `json:"image"` // docker backend image
}

// Registry is the allow-list of executable languages
type Registry struct {
	mu        sync.RWMutex
	languages map[string]Language
}

// NewRegistry creates a registry pre-populated with the supported languages
func NewRegistry() *Registry {
	r := &Registry{
		languages: make(map[string]Language),
	}
	r.registerDefaults()
	return r
}

// Register adds or replaces a language definition
func (r *Registry) Register(lang Language) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.languages[lang.ID] = lang
}

// Get looks up a language by id
func (r *Registry) Get(id string) (Language, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	lang, ok := r.languages[id]
	return lang, ok
}

// List returns all registered languages
func (r *Registry) List() []Language {
	r.mu.RLock()
	defer r.mu.RUnlock()
	langs := make([]Language, 0, len(r.languages))
	for _, l := range r.languages {
		langs = append(langs, l)
	}
	return langs
}

func (r *Registry) registerDefaults() {
	r.Register(Language{
		ID:         "javascript",
		Name:       "JavaScript",
		SourceFile: "main.js",
		RunCmd:     []string{"node", "main.js"},
		Image:      "node:20-slim",
	})

	r.Register(Language{
		ID:         "typescript",
		Name:       "TypeScript",
		SourceFile: "main.ts",
		CompileCmd: []string{"tsc", "main.ts"},
		RunCmd:     []string{"node", "main.js"},
		Image:      "node:20-slim",
	})

	r.Register(Language{
		ID:         "python",
		Name:       "Python",
		SourceFile: "main.py",
		RunCmd:     []string{"python3", "main.py"},
		Image:      "python:3.11-slim",
	})

	r.Register(Language{
		ID:         "cpp",
		Name:       "C++",
		SourceFile: "main.cpp",
		CompileCmd: []string{"g++", "main.cpp", "-O2", "-o", "main"},
		RunCmd:     []string{"./main"},
		Image:      "gcc:13",
	})

	r.Register(Language{
		ID:         "java",
		Name:       "Java",
		SourceFile: "Main.java",
		CompileCmd: []string{"javac", "Main.java"},
		RunCmd:     []string{"java", "Main"},
		Image:      "eclipse-temurin:21",
	})
}

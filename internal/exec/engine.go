package exec

import (
	"context"
	"errors"
	"fmt"

	"github.com/prepview/interview-engine/internal/config"
)

// Common errors
var (
	ErrLanguageNotSupported = errors.New("language not supported")
)

// Result is the structured outcome of one code execution. Error is empty on
// success; execution failures (compile errors, non-zero exit, timeout, missing
// interpreter) all fold into it so the caller always has something to render.
type Result struct {
	Output   string `json:"output"`
	Error    string `json:"error,omitempty"`
	ExitCode int    `json:"exit_code"`
	TimedOut bool   `json:"timed_out"`
}

// OK returns true if the execution completed without error
func (r *Result) OK() bool {
	return r.Error == ""
}

// Engine executes untrusted source snippets in an enumerated set of languages.
// Each call is independent; concurrent calls must not interfere.
type Engine interface {
	Execute(ctx context.Context, language, source string) (*Result, error)
	Languages() []Language
	Close() error
}

// New builds the engine selected by configuration
func New(cfg config.ExecConfig, dockerCfg config.DockerConfig) (Engine, error) {
	registry := NewRegistry()

	switch cfg.Backend {
	case "process":
		return NewProcessEngine(cfg, registry), nil
	case "docker":
		return NewDockerEngine(cfg, dockerCfg, registry)
	default:
		return nil, fmt.Errorf("unknown exec backend: %s", cfg.Backend)
	}
}

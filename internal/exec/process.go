package exec

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	osexec "os/exec"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/prepview/interview-engine/internal/config"
)

// ProcessEngine runs candidate code as local child processes, one scratch
// directory per execution. Isolation is process-level only: wall-clock timeout
// plus output cap. The docker backend is the hardened alternative.
type ProcessEngine struct {
	scratchDir  string
	timeout     time.Duration
	outputLimit int64
	registry    *Registry
}

// NewProcessEngine creates a process-backed execution engine
func NewProcessEngine(cfg config.ExecConfig, registry *Registry) *ProcessEngine {
	return &ProcessEngine{
		scratchDir:  cfg.ScratchDir,
		timeout:     cfg.Timeout,
		outputLimit: cfg.OutputLimit,
		registry:    registry,
	}
}

// Languages returns the allow-list
func (e *ProcessEngine) Languages() []Language {
	return e.registry.List()
}

// Close releases engine resources (none for the process backend)
func (e *ProcessEngine) Close() error {
	return nil
}

// Execute materializes source into a unique scratch directory, runs the
// language's compile/run pipeline and captures capped output. The scratch
// directory is removed on every exit path.
func (e *ProcessEngine) Execute(ctx context.Context, language, source string) (*Result, error) {
	lang, ok := e.registry.Get(language)
	if !ok {
		return nil, ErrLanguageNotSupported
	}

	dir := filepath.Join(e.scratchDir, fmt.Sprintf("run-%d-%s", time.Now().UnixNano(), uuid.New().String()[:8]))
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return &Result{Error: fmt.Sprintf("failed to create scratch directory: %v", err), ExitCode: -1}, nil
	}
	defer func() {
		if err := os.RemoveAll(dir); err != nil && !os.IsNotExist(err) {
			slog.Warn("failed to remove scratch directory", "dir", dir, "error", err)
		}
	}()

	if err := os.WriteFile(filepath.Join(dir, lang.SourceFile), []byte(source), 0o600); err != nil {
		return &Result{Error: fmt.Sprintf("failed to write source file: %v", err), ExitCode: -1}, nil
	}

	runCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	started := time.Now()

	if len(lang.CompileCmd) > 0 {
		res := e.runStep(runCtx, dir, lang.CompileCmd)
		if res.TimedOut {
			res.Error = fmt.Sprintf("execution timed out after %s", e.timeout)
			return res, nil
		}
		if !res.OK() || res.ExitCode != 0 {
			if res.Error == "" {
				res.Error = fmt.Sprintf("compilation failed with code %d", res.ExitCode)
			}
			return res, nil
		}
	}

	res := e.runStep(runCtx, dir, lang.RunCmd)
	if res.TimedOut {
		res.Error = fmt.Sprintf("execution timed out after %s", e.timeout)
	}

	slog.Debug("code executed",
		"language", language,
		"exit_code", res.ExitCode,
		"timed_out", res.TimedOut,
		"duration_ms", time.Since(started).Milliseconds(),
	)

	return res, nil
}

// runStep runs one argv in dir and folds every failure mode into the result
func (e *ProcessEngine) runStep(ctx context.Context, dir string, argv []string) *Result {
	stdout := newCappedBuffer(e.outputLimit)
	stderr := newCappedBuffer(e.outputLimit)

	cmd := osexec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = dir
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	err := cmd.Run()

	res := &Result{
		Output: stdout.String(),
	}

	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		res.TimedOut = true
		res.ExitCode = -1
		return res
	}

	if err != nil {
		var exitErr *osexec.ExitError
		if errors.As(err, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
			res.Error = stderr.String()
			if res.Error == "" {
				res.Error = fmt.Sprintf("process exited with code %d", res.ExitCode)
			}
			return res
		}
		// Spawn failure: missing interpreter, permission denied
		res.ExitCode = -1
		res.Error = err.Error()
		return res
	}

	return res
}

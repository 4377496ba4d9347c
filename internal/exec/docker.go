package exec

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/stdcopy"

	"github.com/prepview/interview-engine/internal/config"
)

// DockerEngine runs each execution in its own throwaway container: no
// network, dropped capabilities, tmpfs workspace, memory/pids limits. The
// container is force-removed on every exit path.
type DockerEngine struct {
	docker      *client.Client
	timeout     time.Duration
	outputLimit int64
	memoryLimit int64
	pidsLimit   int64
	registry    *Registry
}

// NewDockerEngine creates a container-backed execution engine
func NewDockerEngine(cfg config.ExecConfig, dockerCfg config.DockerConfig, registry *Registry) (*DockerEngine, error) {
	cli, err := client.NewClientWithOpts(
		client.WithHost(dockerCfg.Host),
		client.WithAPIVersionNegotiation(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create docker client: %w", err)
	}

	return &DockerEngine{
		docker:      cli,
		timeout:     cfg.Timeout,
		outputLimit: cfg.OutputLimit,
		memoryLimit: dockerCfg.MemoryLimitMB * 1024 * 1024,
		pidsLimit:   dockerCfg.PidsLimit,
		registry:    registry,
	}, nil
}

// Languages returns the allow-list
func (e *DockerEngine) Languages() []Language {
	return e.registry.List()
}

// Close closes the docker client
func (e *DockerEngine) Close() error {
	return e.docker.Close()
}

// Execute runs source in a fresh hardened container. Environment failures
// (daemon unreachable, image missing) fold into the result like any other
// execution error.
func (e *DockerEngine) Execute(ctx context.Context, language, source string) (*Result, error) {
	lang, ok := e.registry.Get(language)
	if !ok {
		return nil, ErrLanguageNotSupported
	}

	runCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	if err := e.pullImage(runCtx, lang.Image); err != nil {
		return &Result{Error: fmt.Sprintf("failed to pull image: %v", err), ExitCode: -1}, nil
	}

	pidsLimit := e.pidsLimit
	resp, err := e.docker.ContainerCreate(runCtx, &container.Config{
		Image:           lang.Image,
		Cmd:             []string{"sleep", "infinity"},
		Tty:             false,
		OpenStdin:       true,
		NetworkDisabled: true,
		WorkingDir:      "/workspace",
	}, &container.HostConfig{
		Resources: container.Resources{
			Memory:     e.memoryLimit,
			MemorySwap: e.memoryLimit, // no swap
			PidsLimit:  &pidsLimit,
		},
		NetworkMode: "none",
		SecurityOpt: []string{"no-new-privileges"},
		CapDrop:     []string{"ALL"},
		Tmpfs: map[string]string{
			"/workspace": "rw,exec,nosuid,size=64m,mode=1777",
		},
	}, nil, nil, "")
	if err != nil {
		return &Result{Error: fmt.Sprintf("failed to create container: %v", err), ExitCode: -1}, nil
	}
	defer func() {
		if err := e.docker.ContainerRemove(context.Background(), resp.ID, container.RemoveOptions{Force: true}); err != nil {
			slog.Warn("failed to remove run container", "container", resp.ID, "error", err)
		}
	}()

	if err := e.docker.ContainerStart(runCtx, resp.ID, container.StartOptions{}); err != nil {
		return &Result{Error: fmt.Sprintf("failed to start container: %v", err), ExitCode: -1}, nil
	}

	if err := e.writeSource(runCtx, resp.ID, lang.SourceFile, source); err != nil {
		return &Result{Error: fmt.Sprintf("failed to write source: %v", err), ExitCode: -1}, nil
	}

	if len(lang.CompileCmd) > 0 {
		res, err := e.runStep(runCtx, resp.ID, lang.CompileCmd)
		if err != nil {
			return e.foldStepError(runCtx, err), nil
		}
		if res.ExitCode != 0 {
			if res.Error == "" {
				res.Error = fmt.Sprintf("compilation failed with code %d", res.ExitCode)
			}
			return res, nil
		}
	}

	res, err := e.runStep(runCtx, resp.ID, lang.RunCmd)
	if err != nil {
		return e.foldStepError(runCtx, err), nil
	}
	return res, nil
}

// foldStepError maps an exec failure to a timeout or environment result
func (e *DockerEngine) foldStepError(ctx context.Context, err error) *Result {
	if ctx.Err() == context.DeadlineExceeded {
		return &Result{
			Error:    fmt.Sprintf("execution timed out after %s", e.timeout),
			ExitCode: -1,
			TimedOut: true,
		}
	}
	return &Result{Error: err.Error(), ExitCode: -1}
}

// writeSource streams the snippet into the container's tmpfs workspace
func (e *DockerEngine) writeSource(ctx context.Context, containerID, sourceFile, source string) error {
	execResp, err := e.docker.ContainerExecCreate(ctx, containerID, types.ExecConfig{
		Cmd:         []string{"sh", "-c", "cat > /workspace/" + sourceFile},
		AttachStdin: true,
	})
	if err != nil {
		return fmt.Errorf("failed to create write exec: %w", err)
	}

	attach, err := e.docker.ContainerExecAttach(ctx, execResp.ID, types.ExecStartCheck{})
	if err != nil {
		return fmt.Errorf("failed to attach write exec: %w", err)
	}

	if _, err := attach.Conn.Write([]byte(source)); err != nil {
		attach.Close()
		return fmt.Errorf("failed to write source code: %w", err)
	}
	attach.CloseWrite()
	attach.Close()

	// Wait for the write exec to drain
	for {
		inspect, err := e.docker.ContainerExecInspect(ctx, execResp.ID)
		if err != nil {
			return fmt.Errorf("failed to inspect write exec: %w", err)
		}
		if !inspect.Running {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(10 * time.Millisecond):
		}
	}
}

// runStep executes one argv inside the container and captures demuxed output
func (e *DockerEngine) runStep(ctx context.Context, containerID string, argv []string) (*Result, error) {
	execResp, err := e.docker.ContainerExecCreate(ctx, containerID, types.ExecConfig{
		Cmd:          argv,
		WorkingDir:   "/workspace",
		AttachStdout: true,
		AttachStderr: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create exec: %w", err)
	}

	attach, err := e.docker.ContainerExecAttach(ctx, execResp.ID, types.ExecStartCheck{})
	if err != nil {
		return nil, fmt.Errorf("failed to attach exec: %w", err)
	}
	defer attach.Close()

	stdout := newCappedBuffer(e.outputLimit)
	stderr := newCappedBuffer(e.outputLimit)
	if _, err := stdcopy.StdCopy(stdout, stderr, attach.Reader); err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to capture output: %w", err)
	}

	inspect, err := e.docker.ContainerExecInspect(ctx, execResp.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to inspect exec: %w", err)
	}

	res := &Result{
		Output:   stdout.String(),
		ExitCode: inspect.ExitCode,
	}
	if inspect.ExitCode != 0 {
		res.Error = stderr.String()
		if res.Error == "" {
			res.Error = fmt.Sprintf("process exited with code %d", inspect.ExitCode)
		}
	}
	return res, nil
}

// pullImage pulls the run image if not present locally
func (e *DockerEngine) pullImage(ctx context.Context, imageName string) error {
	if _, _, err := e.docker.ImageInspectWithRaw(ctx, imageName); err == nil {
		return nil
	}

	slog.Info("pulling image", "image", imageName)
	out, err := e.docker.ImagePull(ctx, imageName, types.ImagePullOptions{})
	if err != nil {
		return err
	}
	defer out.Close()

	_, _ = io.Copy(io.Discard, out)
	return nil
}

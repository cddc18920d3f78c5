// Package deploy wraps the container engine and compose tooling that build
// and operate the agent's container deployment. Commands are assembled here
// and executed with the caller's stdio attached, so output and exit codes
// flow straight through from the underlying tool.
package deploy

import (
	"context"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/pranav-agent/pranav/pkg/logger"
)

const (
	// ImageTag is the fixed tag Build applies and Run starts from.
	ImageTag = "pranav-agent:latest"

	// ContainerName is the fixed name of the agent container.
	ContainerName = "pranav-agent"
)

// ErrEngineNotFound reports that no container engine binary is available.
var ErrEngineNotFound = errors.New("container engine not found")

// Engine is a resolved container engine plus whatever compose tooling was
// detected next to it.
type Engine struct {
	name       string
	binary     string
	composeCmd []string
	workDir    string
	configDir  string
	logsDir    string
	stdin      io.Reader
	stdout     io.Writer
	stderr     io.Writer
}

// Option configures an Engine during construction.
type Option func(*Engine)

// WithEngineName selects the engine binary to resolve (default docker;
// podman works the same way).
func WithEngineName(name string) Option {
	return func(e *Engine) {
		if name != "" {
			e.name = name
		}
	}
}

// WithWorkDir sets the directory commands run from.
func WithWorkDir(dir string) Option {
	return func(e *Engine) {
		e.workDir = dir
	}
}

// WithMounts overrides the host directories mounted into the container.
func WithMounts(configDir, logsDir string) Option {
	return func(e *Engine) {
		if configDir != "" {
			e.configDir = configDir
		}
		if logsDir != "" {
			e.logsDir = logsDir
		}
	}
}

// WithStdio redirects the engine's stdio, mainly for tests.
func WithStdio(stdin io.Reader, stdout, stderr io.Writer) Option {
	return func(e *Engine) {
		e.stdin = stdin
		e.stdout = stdout
		e.stderr = stderr
	}
}

// NewEngine resolves the container engine binary and probes for compose
// support. A missing engine is reported as ErrEngineNotFound.
func NewEngine(ctx context.Context, opts ...Option) (*Engine, error) {
	e := &Engine{
		name:      "docker",
		configDir: "config",
		logsDir:   "logs",
		stdin:     os.Stdin,
		stdout:    os.Stdout,
		stderr:    os.Stderr,
	}
	for _, opt := range opts {
		opt(e)
	}

	path, err := exec.LookPath(e.name)
	if err != nil {
		return nil, errors.Wrapf(ErrEngineNotFound, "%s is not installed or not on PATH", e.name)
	}
	e.binary = path

	// The engine wants absolute host paths for bind mounts.
	if e.configDir, err = filepath.Abs(e.configDir); err != nil {
		return nil, errors.Wrap(err, "failed to resolve config directory")
	}
	if e.logsDir, err = filepath.Abs(e.logsDir); err != nil {
		return nil, errors.Wrap(err, "failed to resolve logs directory")
	}

	e.composeCmd = e.detectCompose(ctx)

	logger.G(ctx).WithFields(map[string]any{
		"engine":  e.binary,
		"compose": strings.Join(e.composeCmd, " "),
	}).Debug("resolved container tooling")
	return e, nil
}

// detectCompose prefers the engine's compose plugin and falls back to a
// standalone docker-compose binary.
func (e *Engine) detectCompose(ctx context.Context) []string {
	probe := exec.CommandContext(ctx, e.binary, "compose", "version")
	probe.Stdout = io.Discard
	probe.Stderr = io.Discard
	if err := probe.Run(); err == nil {
		return []string{e.binary, "compose"}
	}

	if legacy, err := exec.LookPath("docker-compose"); err == nil {
		return []string{legacy}
	}
	return nil
}

// Build builds the container image under the fixed tag.
func (e *Engine) Build(ctx context.Context) error {
	return e.run(ctx, false, e.binary, "build", "-t", ImageTag, ".")
}

// Run starts a detached container from the image with the config and logs
// directories mounted at their fixed container paths.
func (e *Engine) Run(ctx context.Context) error {
	return e.run(ctx, false, e.binary,
		"run", "-d",
		"--name", ContainerName,
		"-v", e.configDir+":/app/config",
		"-v", e.logsDir+":/app/logs",
		ImageTag,
	)
}

// Up brings the compose stack up in the background.
func (e *Engine) Up(ctx context.Context) error {
	return e.compose(ctx, "up", "-d")
}

// Down tears the compose stack down.
func (e *Engine) Down(ctx context.Context) error {
	return e.compose(ctx, "down")
}

// Restart restarts the compose stack.
func (e *Engine) Restart(ctx context.Context) error {
	return e.compose(ctx, "restart")
}

// Logs streams the container's logs until interrupted.
func (e *Engine) Logs(ctx context.Context) error {
	return e.run(ctx, true, e.binary, "logs", "-f", ContainerName)
}

// Shell opens an interactive shell inside the running container.
func (e *Engine) Shell(ctx context.Context) error {
	return e.run(ctx, true, e.binary, "exec", "-it", ContainerName, "/bin/bash")
}

func (e *Engine) compose(ctx context.Context, args ...string) error {
	if len(e.composeCmd) == 0 {
		return errors.Wrapf(ErrEngineNotFound, "no compose tooling available for %s", e.name)
	}

	full := append(append([]string{}, e.composeCmd[1:]...), args...)
	return e.run(ctx, false, e.composeCmd[0], full...)
}

func (e *Engine) run(ctx context.Context, interactive bool, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = e.workDir
	cmd.Stdout = e.stdout
	cmd.Stderr = e.stderr
	if interactive {
		cmd.Stdin = e.stdin
	}

	logger.G(ctx).WithField("command", name+" "+strings.Join(args, " ")).Debug("running container command")
	return cmd.Run()
}

// ExitCode maps a command error to the exit status the CLI should report:
// the underlying tool's code when it ran and failed, 1 for everything else.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return 1
}

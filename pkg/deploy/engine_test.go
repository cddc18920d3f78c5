package deploy

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeStub installs a fake engine binary under dir.
func writeStub(t *testing.T, dir, name, script string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(script), 0755))
}

// recordingScript produces a stub that appends its arguments to argsFile
// and exits 0.
func recordingScript(argsFile string) string {
	return "#!/bin/sh\necho \"$@\" >> " + argsFile + "\nexit 0\n"
}

func recordedLines(t *testing.T, argsFile string) []string {
	t.Helper()
	data, err := os.ReadFile(argsFile)
	require.NoError(t, err)
	return strings.Split(strings.TrimSpace(string(data)), "\n")
}

func lastRecorded(t *testing.T, argsFile string) string {
	t.Helper()
	lines := recordedLines(t, argsFile)
	return lines[len(lines)-1]
}

func newStubEngine(t *testing.T, opts ...Option) (*Engine, string) {
	t.Helper()

	binDir := t.TempDir()
	argsFile := filepath.Join(t.TempDir(), "args.log")
	writeStub(t, binDir, "docker", recordingScript(argsFile))
	t.Setenv("PATH", binDir)

	opts = append(opts, WithStdio(nil, io.Discard, io.Discard))
	engine, err := NewEngine(context.Background(), opts...)
	require.NoError(t, err)
	return engine, argsFile
}

func TestNewEngineMissing(t *testing.T) {
	t.Setenv("PATH", t.TempDir())

	_, err := NewEngine(context.Background())
	assert.ErrorIs(t, err, ErrEngineNotFound)
}

func TestNewEngineCustomName(t *testing.T) {
	binDir := t.TempDir()
	argsFile := filepath.Join(t.TempDir(), "args.log")
	writeStub(t, binDir, "podman", recordingScript(argsFile))
	t.Setenv("PATH", binDir)

	engine, err := NewEngine(context.Background(),
		WithEngineName("podman"),
		WithStdio(nil, io.Discard, io.Discard),
	)
	require.NoError(t, err)

	require.NoError(t, engine.Build(context.Background()))
	assert.Equal(t, "build -t pranav-agent:latest .", lastRecorded(t, argsFile))
}

func TestBuildCarriesFixedTag(t *testing.T) {
	engine, argsFile := newStubEngine(t)

	require.NoError(t, engine.Build(context.Background()))
	assert.Equal(t, "build -t pranav-agent:latest .", lastRecorded(t, argsFile))
}

func TestRunMountsConfigAndLogs(t *testing.T) {
	configDir := t.TempDir()
	logsDir := t.TempDir()
	engine, argsFile := newStubEngine(t, WithMounts(configDir, logsDir))

	require.NoError(t, engine.Run(context.Background()))
	expected := "run -d --name pranav-agent" +
		" -v " + configDir + ":/app/config" +
		" -v " + logsDir + ":/app/logs" +
		" pranav-agent:latest"
	assert.Equal(t, expected, lastRecorded(t, argsFile))
}

func TestComposeUsesEnginePlugin(t *testing.T) {
	engine, argsFile := newStubEngine(t)

	// The stub accepts "compose version", so the plugin is selected.
	require.NoError(t, engine.Up(context.Background()))
	assert.Equal(t, "compose up -d", lastRecorded(t, argsFile))

	require.NoError(t, engine.Down(context.Background()))
	assert.Equal(t, "compose down", lastRecorded(t, argsFile))

	require.NoError(t, engine.Restart(context.Background()))
	assert.Equal(t, "compose restart", lastRecorded(t, argsFile))
}

func TestComposeFallsBackToLegacyBinary(t *testing.T) {
	binDir := t.TempDir()
	composeFile := filepath.Join(t.TempDir(), "compose.log")

	// An engine without the compose plugin.
	writeStub(t, binDir, "docker", "#!/bin/sh\nif [ \"$1\" = \"compose\" ]; then exit 1; fi\nexit 0\n")
	writeStub(t, binDir, "docker-compose", recordingScript(composeFile))
	t.Setenv("PATH", binDir)

	engine, err := NewEngine(context.Background(), WithStdio(nil, io.Discard, io.Discard))
	require.NoError(t, err)

	require.NoError(t, engine.Up(context.Background()))
	assert.Equal(t, "up -d", lastRecorded(t, composeFile))
}

func TestComposeUnavailable(t *testing.T) {
	binDir := t.TempDir()
	writeStub(t, binDir, "docker", "#!/bin/sh\nexit 1\n")
	t.Setenv("PATH", binDir)

	engine, err := NewEngine(context.Background(), WithStdio(nil, io.Discard, io.Discard))
	require.NoError(t, err)

	err = engine.Up(context.Background())
	assert.ErrorIs(t, err, ErrEngineNotFound)
}

func TestLogsAndShellCommands(t *testing.T) {
	engine, argsFile := newStubEngine(t)

	require.NoError(t, engine.Logs(context.Background()))
	assert.Equal(t, "logs -f pranav-agent", lastRecorded(t, argsFile))

	require.NoError(t, engine.Shell(context.Background()))
	assert.Equal(t, "exec -it pranav-agent /bin/bash", lastRecorded(t, argsFile))
}

func TestExitCodePropagation(t *testing.T) {
	binDir := t.TempDir()
	writeStub(t, binDir, "docker", "#!/bin/sh\nif [ \"$1\" = \"compose\" ]; then exit 1; fi\nexit 7\n")
	t.Setenv("PATH", binDir)

	engine, err := NewEngine(context.Background(), WithStdio(nil, io.Discard, io.Discard))
	require.NoError(t, err)

	err = engine.Build(context.Background())
	require.Error(t, err)
	assert.Equal(t, 7, ExitCode(err))
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, 0, ExitCode(nil))
	assert.Equal(t, 1, ExitCode(errors.New("plain failure")))
}

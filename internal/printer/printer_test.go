package printer

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hamidrprogrammer/print-agent/internal/job"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// writeFakeBackend creates an executable that records its arguments and
// exits with the given code.
func writeFakeBackend(t *testing.T, dir string, exitCode int) (binPath, argsPath string) {
	t.Helper()

	argsPath = filepath.Join(dir, "args.txt")
	binPath = filepath.Join(dir, "fake-backend")
	script := "#!/bin/sh\necho \"$@\" > " + argsPath + "\nexit " + strconv.Itoa(exitCode) + "\n"
	require.NoError(t, os.WriteFile(binPath, []byte(script), 0o755))
	return binPath, argsPath
}

func writePayload(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "a.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4 fake"), 0o644))
	return path
}

func TestExecute_Success(t *testing.T) {
	dir := t.TempDir()
	binPath, argsPath := writeFakeBackend(t, dir, 0)
	payload := writePayload(t, dir)

	e := NewExecutor(binPath, testLogger())
	settings := job.Settings{
		Printer:     "HP LaserJet",
		ColorMode:   "color",
		Orientation: "portrait",
		PaperSize:   "A4",
	}

	require.NoError(t, e.Execute(context.Background(), payload, settings))

	args, err := os.ReadFile(argsPath)
	require.NoError(t, err)

	// Fixed argument order: target, silent flag, settings string, file.
	got := strings.TrimSpace(string(args))
	assert.Equal(t, "-print-to HP LaserJet -silent -print-settings color,portrait,paper=A4, "+payload, got)
}

func TestExecute_BackendExitFailure(t *testing.T) {
	dir := t.TempDir()
	binPath, _ := writeFakeBackend(t, dir, 1)
	payload := writePayload(t, dir)

	e := NewExecutor(binPath, testLogger())

	err := e.Execute(context.Background(), payload, job.Settings{Printer: "p"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "print backend failed")
}

func TestExecute_FileMissing(t *testing.T) {
	dir := t.TempDir()
	binPath, argsPath := writeFakeBackend(t, dir, 0)

	e := NewExecutor(binPath, testLogger())

	err := e.Execute(context.Background(), filepath.Join(dir, "nope.pdf"), job.Settings{Printer: "p"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, job.ErrFileNotFound))

	// Precondition failures must have no side effect.
	_, statErr := os.Stat(argsPath)
	assert.True(t, os.IsNotExist(statErr), "backend must not have been invoked")
}

func TestExecute_BackendMissing(t *testing.T) {
	dir := t.TempDir()
	payload := writePayload(t, dir)

	e := NewExecutor(filepath.Join(dir, "no-such-backend"), testLogger())

	err := e.Execute(context.Background(), payload, job.Settings{Printer: "p"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, job.ErrBackendMissing))
}

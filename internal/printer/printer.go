// Package printer invokes the external print backend against downloaded
// payloads.
package printer

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"

	"github.com/hamidrprogrammer/print-agent/internal/job"
)

// Executor runs the print backend as a synchronous subprocess. The backend
// is handed, in this fixed order: the target printer name, the silent flag,
// the combined settings string, and the local file path.
type Executor struct {
	binary string
	logger *slog.Logger
}

// NewExecutor creates an Executor for the backend at binary (a bare name
// resolved through PATH or an absolute path).
func NewExecutor(binary string, logger *slog.Logger) *Executor {
	return &Executor{
		binary: binary,
		logger: logger,
	}
}

// Execute prints localPath with the given settings. It returns nil only on
// a clean backend exit; local precondition failures return
// job.ErrFileNotFound or job.ErrBackendMissing, and any launch failure or
// non-zero exit is returned as a plain error. Execute never leaves partial
// state behind.
func (e *Executor) Execute(ctx context.Context, localPath string, settings job.Settings) error {
	if _, err := os.Stat(localPath); err != nil {
		return fmt.Errorf("%w: %s", job.ErrFileNotFound, localPath)
	}

	if _, err := exec.LookPath(e.binary); err != nil {
		return fmt.Errorf("%w: %s", job.ErrBackendMissing, e.binary)
	}

	args := []string{
		"-print-to", settings.Printer,
		"-silent",
		"-print-settings", settings.BackendString(),
		localPath,
	}

	e.logger.Info("Invoking print backend",
		slog.String("binary", e.binary),
		slog.String("printer", settings.Printer),
		slog.String("settings", settings.BackendString()),
		slog.String("file", localPath),
	)

	cmd := exec.CommandContext(ctx, e.binary, args...)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("print backend failed: %w", err)
	}

	return nil
}

package history

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hamidrprogrammer/print-agent/internal/job"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func openJournal(t *testing.T) *Journal {
	t.Helper()
	j, err := Open(filepath.Join(t.TempDir(), "history.db"), testLogger())
	require.NoError(t, err)
	t.Cleanup(func() { j.Close() })
	return j
}

func record(id, printer, fileKey string) job.Record {
	return job.Record{
		ID:      id,
		FileKey: fileKey,
		Settings: job.Settings{
			Printer: printer,
		},
	}
}

func TestOpen_CreatesDatabaseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	j, err := Open(path, testLogger())
	require.NoError(t, err)
	defer j.Close()

	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestRecord_AndRecent(t *testing.T) {
	j := openJournal(t)
	ctx := context.Background()

	require.NoError(t, j.Record(ctx, record("j1", "HP LaserJet", "a"), job.StatusCompleted, "2026-03-14T10:00:00Z"))
	require.NoError(t, j.Record(ctx, record("j2", "Office-Color", "b"), job.StatusFailed, "2026-03-14T11:00:00Z"))

	entries, err := j.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	// Newest first.
	assert.Equal(t, "j2", entries[0].JobID)
	assert.Equal(t, "failed", entries[0].Status)
	assert.Equal(t, "Office-Color", entries[0].Printer)
	assert.Equal(t, "b", entries[0].FileKey)
	assert.Equal(t, "2026-03-14T11:00:00Z", entries[0].ReportedAt)
	assert.Equal(t, "j1", entries[1].JobID)
}

func TestRecord_RepeatedIDReplacesRow(t *testing.T) {
	j := openJournal(t)
	ctx := context.Background()

	require.NoError(t, j.Record(ctx, record("j1", "HP LaserJet", "a"), job.StatusFailed, "2026-03-14T10:00:00Z"))
	require.NoError(t, j.Record(ctx, record("j1", "HP LaserJet", "a"), job.StatusCompleted, "2026-03-14T10:05:00Z"))

	entries, err := j.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "completed", entries[0].Status)
	assert.Equal(t, "2026-03-14T10:05:00Z", entries[0].ReportedAt)
}

func TestRecent_HonorsLimit(t *testing.T) {
	j := openJournal(t)
	ctx := context.Background()

	require.NoError(t, j.Record(ctx, record("j1", "p", "a"), job.StatusCompleted, "2026-03-14T10:00:00Z"))
	require.NoError(t, j.Record(ctx, record("j2", "p", "b"), job.StatusCompleted, "2026-03-14T11:00:00Z"))
	require.NoError(t, j.Record(ctx, record("j3", "p", "c"), job.StatusCompleted, "2026-03-14T12:00:00Z"))

	entries, err := j.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "j3", entries[0].JobID)
	assert.Equal(t, "j2", entries[1].JobID)
}

func TestRecent_EmptyJournal(t *testing.T) {
	j := openJournal(t)

	entries, err := j.Recent(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

// Package history keeps a local journal of terminal job transitions, so
// the presentation layer can show past jobs across restarts regardless of
// the remote store's retention policy.
package history

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/hamidrprogrammer/print-agent/internal/job"
)

const schema = `
CREATE TABLE IF NOT EXISTS job_history (
	job_id      TEXT PRIMARY KEY,
	status      TEXT NOT NULL,
	printer     TEXT NOT NULL DEFAULT '',
	file_key    TEXT NOT NULL DEFAULT '',
	reported_at TEXT NOT NULL
)`

// Entry is one journaled terminal transition.
type Entry struct {
	JobID      string `db:"job_id" json:"job_id"`
	Status     string `db:"status" json:"status"`
	Printer    string `db:"printer" json:"printer"`
	FileKey    string `db:"file_key" json:"file_key"`
	ReportedAt string `db:"reported_at" json:"reported_at"`
}

// Journal is a sqlite-backed record of terminal transitions.
type Journal struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// Open opens (creating if needed) the journal database at path.
func Open(path string, logger *slog.Logger) (*Journal, error) {
	db, err := sqlx.Connect("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create history schema: %w", err)
	}

	logger.Info("History journal opened",
		slog.String("path", path),
	)

	return &Journal{
		db:     db,
		logger: logger,
	}, nil
}

// Record journals a terminal transition. A repeated job id replaces the
// previous row, mirroring the store's last-write-wins semantics.
func (j *Journal) Record(ctx context.Context, rec job.Record, status job.Status, timestamp string) error {
	query := `
		INSERT INTO job_history (job_id, status, printer, file_key, reported_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(job_id) DO UPDATE SET
			status = excluded.status,
			printer = excluded.printer,
			file_key = excluded.file_key,
			reported_at = excluded.reported_at
	`

	_, err := j.db.ExecContext(ctx, query, rec.ID, string(status), rec.Settings.Printer, rec.FileKey, timestamp)
	if err != nil {
		return fmt.Errorf("failed to journal job %s: %w", rec.ID, err)
	}
	return nil
}

// Recent returns up to limit journaled transitions, newest first.
func (j *Journal) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}

	var entries []Entry
	err := j.db.SelectContext(ctx, &entries, `
		SELECT job_id, status, printer, file_key, reported_at
		FROM job_history
		ORDER BY reported_at DESC, job_id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to read history: %w", err)
	}
	return entries, nil
}

// Close closes the journal database.
func (j *Journal) Close() error {
	return j.db.Close()
}

package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hamidrprogrammer/print-agent/internal/job"
	"github.com/hamidrprogrammer/print-agent/internal/store"
)

// Reporter writes lifecycle transitions back through the store. A report is
// a single partial write of status and timestamp; re-sending the same
// terminal values is a no-op under the store's last-write-wins field
// semantics, so a retried report cannot corrupt state.
type Reporter struct {
	store    store.Store
	jobsPath string
	logger   *slog.Logger
}

// NewReporter creates a Reporter for the job collection at jobsPath.
func NewReporter(s store.Store, jobsPath string, logger *slog.Logger) *Reporter {
	return &Reporter{
		store:    s,
		jobsPath: jobsPath,
		logger:   logger,
	}
}

// Timestamp renders t as the wire timestamp: ISO-8601, UTC, second
// precision, Z suffix.
func Timestamp(t time.Time) string {
	return t.UTC().Truncate(time.Second).Format(time.RFC3339)
}

// Report writes status for id stamped with the current time and returns
// the timestamp it wrote.
func (r *Reporter) Report(ctx context.Context, id string, status job.Status) (string, error) {
	return r.ReportAt(ctx, id, status, Timestamp(time.Now()))
}

// ReportAt writes status for id with an explicit timestamp. Failures are
// returned, not retried.
func (r *Reporter) ReportAt(ctx context.Context, id string, status job.Status, timestamp string) (string, error) {
	err := r.store.WriteFields(ctx, r.jobsPath+"/"+id, map[string]string{
		job.FieldStatus:    string(status),
		job.FieldTimestamp: timestamp,
	})
	if err != nil {
		r.logger.Error("Failed to report job status",
			slog.String("job_id", id),
			slog.String("status", string(status)),
			slog.String("error", err.Error()),
		)
		return timestamp, fmt.Errorf("failed to report job %s as %s: %w", id, status, err)
	}

	r.logger.Info("Job status reported",
		slog.String("job_id", id),
		slog.String("status", string(status)),
		slog.String("timestamp", timestamp),
	)
	return timestamp, nil
}

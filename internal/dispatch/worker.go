package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hamidrprogrammer/print-agent/internal/event"
	"github.com/hamidrprogrammer/print-agent/internal/job"
)

// reportTimeout bounds the terminal status write when the worker's own
// context is already gone (process shutdown).
const reportTimeout = 10 * time.Second

// runJob is the whole lifetime of one admitted job: download, optional
// payload check, execution, terminal report. The job id stays in the
// in-flight set for all of it and is released unconditionally at the end.
func (d *Dispatcher) runJob(ctx context.Context, rec job.Record) {
	defer d.wg.Done()
	defer func() {
		d.mu.Lock()
		d.done[rec.ID] = struct{}{}
		delete(d.inflight, rec.ID)
		d.mu.Unlock()
	}()

	status := job.StatusCompleted
	if err := d.process(ctx, rec); err != nil {
		if ctx.Err() != nil && errors.Is(err, context.Canceled) {
			// Shutdown interrupted the job, not the job itself failing.
			// The record stays pending in the store so the next session
			// picks it up again.
			d.logger.Warn("Job interrupted by shutdown",
				slog.String("job_id", rec.ID),
			)
			return
		}
		status = job.StatusFailed
		d.reportFailure(rec, err)
	}

	ts := Timestamp(time.Now())

	if d.journal != nil {
		if err := d.journal.Record(ctx, rec, status, ts); err != nil {
			d.logger.Warn("Failed to journal job transition",
				slog.String("job_id", rec.ID),
				slog.String("error", err.Error()),
			)
		}
	}

	d.setCached(rec.ID, status, ts)
	d.events.Publish(event.Jobs(d.Snapshot()))

	// The terminal write is the last step of the job's critical path. It
	// must land even when the run context was canceled mid-job.
	reportCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), reportTimeout)
	defer cancel()

	if _, err := d.reporter.ReportAt(reportCtx, rec.ID, status, ts); err != nil {
		// Not retried; the next producer-side write for this id wins.
		d.events.Publish(event.Log("job " + rec.ID + ": failed to report status: " + err.Error()))
	}
}

// process runs the job's strictly sequential steps. Any error aborts the
// remaining steps and surfaces as a failed job; nothing escapes to the
// dispatcher.
func (d *Dispatcher) process(ctx context.Context, rec job.Record) error {
	d.events.Publish(event.Log(fmt.Sprintf("job %s: downloading %s", rec.ID, rec.FileURL)))

	localPath, err := d.fetcher.Fetch(ctx, rec.FileURL, rec.FileKey, func(fraction float64) {
		d.events.Publish(event.Progress(rec.ID, fraction))
	})
	if err != nil {
		return err
	}

	if d.validate != nil {
		if err := d.validate(localPath); err != nil {
			return err
		}
	}

	d.events.Publish(event.Log(fmt.Sprintf("job %s: printing on %s", rec.ID, rec.Settings.Printer)))

	return d.printer.Execute(ctx, localPath, rec.Settings)
}

// reportFailure logs a per-job failure with a message keyed to the error
// class, so transport problems, remote rejections and local precondition
// failures stay distinguishable in the log stream.
func (d *Dispatcher) reportFailure(rec job.Record, err error) {
	var dlErr *job.DownloadError
	var tpErr *job.TransportError

	var msg string
	switch {
	case errors.As(err, &dlErr):
		msg = fmt.Sprintf("job %s: server rejected download with status %d", rec.ID, dlErr.Status)
	case errors.As(err, &tpErr):
		msg = fmt.Sprintf("job %s: network error while downloading: %v", rec.ID, tpErr.Err)
	case errors.Is(err, job.ErrFileNotFound):
		msg = fmt.Sprintf("job %s: downloaded file is missing", rec.ID)
	case errors.Is(err, job.ErrBackendMissing):
		msg = fmt.Sprintf("job %s: print backend is not installed", rec.ID)
	default:
		msg = fmt.Sprintf("job %s: %v", rec.ID, err)
	}

	d.logger.Error("Job failed",
		slog.String("job_id", rec.ID),
		slog.String("error", err.Error()),
	)
	d.events.Publish(event.Log(msg))
}

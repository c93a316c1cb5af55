// Package dispatch reacts to job feed changes and drives each admitted job
// through download, execution and status reporting.
package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/hamidrprogrammer/print-agent/internal/download"
	"github.com/hamidrprogrammer/print-agent/internal/event"
	"github.com/hamidrprogrammer/print-agent/internal/job"
	"github.com/hamidrprogrammer/print-agent/internal/store"
)

// Fetcher streams a remote payload into the local cache.
type Fetcher interface {
	Fetch(ctx context.Context, url, key string, progress download.ProgressFunc) (string, error)
}

// Printer hands a local payload to the print backend.
type Printer interface {
	Execute(ctx context.Context, localPath string, settings job.Settings) error
}

// Journal receives terminal transitions for local bookkeeping. Journal
// failures never fail a job.
type Journal interface {
	Record(ctx context.Context, rec job.Record, status job.Status, timestamp string) error
}

// Config holds dispatcher configuration
type Config struct {
	Logger   *slog.Logger
	Store    store.Store
	Fetcher  Fetcher
	Printer  Printer
	Events   *event.Queue
	JobsPath string

	// Validate, when set, checks the downloaded payload before execution.
	Validate func(path string) error

	// Journal, when set, records terminal transitions locally.
	Journal Journal
}

// Dispatcher is the job pipeline's state machine. A change notification
// triggers a full re-read of the job collection; every pending job that is
// neither in-flight nor already terminal is admitted to exactly one worker
// goroutine. Fan-out is bounded by the number of simultaneously pending
// jobs.
type Dispatcher struct {
	logger   *slog.Logger
	store    store.Store
	fetcher  Fetcher
	printer  Printer
	events   *event.Queue
	jobsPath string
	validate func(path string) error
	journal  Journal
	reporter *Reporter

	mu       sync.Mutex
	inflight map[string]struct{}
	known    map[string]job.Record
	done     map[string]struct{}

	wg sync.WaitGroup
}

// New creates a Dispatcher. No workers run until Run observes pending jobs.
func New(cfg *Config) *Dispatcher {
	return &Dispatcher{
		logger:   cfg.Logger,
		store:    cfg.Store,
		fetcher:  cfg.Fetcher,
		printer:  cfg.Printer,
		events:   cfg.Events,
		jobsPath: cfg.JobsPath,
		validate: cfg.Validate,
		journal:  cfg.Journal,
		reporter: NewReporter(cfg.Store, cfg.JobsPath, cfg.Logger),
		inflight: make(map[string]struct{}),
		known:    make(map[string]job.Record),
		done:     make(map[string]struct{}),
	}
}

// Run subscribes to the job feed and processes change notifications until
// ctx is canceled, then drains in-flight workers. It blocks for the
// dispatcher's whole active lifetime.
func (d *Dispatcher) Run(ctx context.Context) error {
	changes, err := d.store.Subscribe(ctx, d.jobsPath)
	if err != nil {
		return fmt.Errorf("failed to subscribe to job feed: %w", err)
	}

	d.logger.Info("Dispatcher started",
		slog.String("jobs_path", d.jobsPath),
	)

	// The initial snapshot admits jobs that were already pending before the
	// subscription existed.
	d.sync(ctx)

	for {
		select {
		case <-ctx.Done():
			d.logger.Info("Dispatcher stopping - context canceled")
			d.wg.Wait()
			return nil

		case _, ok := <-changes:
			if !ok {
				d.wg.Wait()
				if ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("job feed subscription closed: %w", job.ErrStoreUnavailable)
			}
			d.sync(ctx)
		}
	}
}

// Refresh re-reads the job feed on demand. The presentation layer calls
// this; it is the only entry point besides Cancel that it may use.
func (d *Dispatcher) Refresh(ctx context.Context) {
	d.sync(ctx)
}

// sync re-reads the full job mapping, replaces the local cache and admits
// every newly pending job. The feed's events carry no payload, so a full
// re-read is the only way to resolve what changed.
func (d *Dispatcher) sync(ctx context.Context) {
	jobs, err := d.store.ReadAll(ctx, d.jobsPath)
	if err != nil {
		d.logger.Error("Failed to read job feed",
			slog.String("jobs_path", d.jobsPath),
			slog.String("error", err.Error()),
		)
		d.events.Publish(event.Log("failed to refresh job list: " + err.Error()))
		return
	}

	var admitted []job.Record
	d.mu.Lock()
	d.known = jobs
	for id, rec := range jobs {
		if rec.Status.Terminal() {
			// Terminal jobs leave the pipeline's concern for good, even
			// when they reappear in later snapshots.
			d.done[id] = struct{}{}
			continue
		}
		if rec.Status != job.StatusPending {
			continue
		}
		if _, ok := d.done[id]; ok {
			continue
		}
		if _, ok := d.inflight[id]; ok {
			continue
		}
		d.inflight[id] = struct{}{}
		admitted = append(admitted, rec)
	}
	d.mu.Unlock()

	d.events.Publish(event.Jobs(d.Snapshot()))

	for _, rec := range admitted {
		d.logger.Info("Job admitted",
			slog.String("job_id", rec.ID),
			slog.String("printer", rec.Settings.Printer),
		)
		d.wg.Add(1)
		go d.runJob(ctx, rec)
	}
}

// Cancel writes status=canceled for a job the presentation layer wants
// stopped. A job that is already in-flight is canceled best-effort only:
// the running worker is not interrupted and its terminal write may land
// after this one (last write wins).
func (d *Dispatcher) Cancel(ctx context.Context, id string) error {
	d.mu.Lock()
	rec, known := d.known[id]
	_, inflight := d.inflight[id]
	_, finished := d.done[id]
	d.mu.Unlock()

	if !known {
		// The job may exist in the store without having been snapshotted
		// yet (cancel raced ahead of the first sync).
		fields, err := d.store.ReadFields(ctx, d.jobsPath+"/"+id)
		if err != nil {
			return err
		}
		if len(fields) == 0 {
			return fmt.Errorf("%w: %s", job.ErrUnknownJob, id)
		}
		rec = job.FromFields(id, fields)
	}
	if (finished && !inflight) || rec.Status.Terminal() {
		return fmt.Errorf("job %s is already %s", id, rec.Status)
	}

	if !inflight {
		// Not yet admitted: claim the id so a racing change event cannot
		// start a worker for it.
		d.mu.Lock()
		d.done[id] = struct{}{}
		d.mu.Unlock()
	}

	ts, err := d.reporter.Report(ctx, id, job.StatusCanceled)
	if err != nil {
		if !inflight {
			// The canceled write never landed, so the job is still
			// pending in the store. Release the claim so a later
			// snapshot can admit it.
			d.mu.Lock()
			delete(d.done, id)
			d.mu.Unlock()
		}
		return err
	}

	if !inflight {
		d.setCached(id, job.StatusCanceled, ts)
	}
	d.events.Publish(event.Log("job " + id + ": canceled"))
	d.events.Publish(event.Jobs(d.Snapshot()))
	return nil
}

// Snapshot returns the cached job list sorted by id.
func (d *Dispatcher) Snapshot() []job.Record {
	d.mu.Lock()
	defer d.mu.Unlock()

	out := make([]job.Record, 0, len(d.known))
	for _, rec := range d.known {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// InFlight reports whether a worker currently owns id.
func (d *Dispatcher) InFlight(id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.inflight[id]
	return ok
}

func (d *Dispatcher) setCached(id string, status job.Status, timestamp string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if rec, ok := d.known[id]; ok {
		rec.Status = status
		rec.Timestamp = timestamp
		d.known[id] = rec
	}
}

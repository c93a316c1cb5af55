// Package store abstracts the remote key-value service backing job and
// session state. The service has push-listen semantics: any write to a
// record notifies subscribers of that record's path and of its parent
// collection. Events signal that something changed, never what; readers
// re-read after a notification.
package store

import (
	"context"

	"github.com/hamidrprogrammer/print-agent/internal/job"
)

// ChangeEvent signals that the record at Path changed (create or update).
// It carries no payload.
type ChangeEvent struct {
	Path string
}

// Store is the narrow contract the pipeline consumes. Implementations do
// not retry failed operations; every error wraps job.ErrStoreUnavailable
// when the service itself is unreachable.
type Store interface {
	// Subscribe delivers a ChangeEvent whenever the record at path, or any
	// record directly under path, changes. The returned channel is closed
	// promptly after ctx is canceled and the underlying connection is
	// released.
	Subscribe(ctx context.Context, path string) (<-chan ChangeEvent, error)

	// ReadAll snapshots every job record under the collection at path,
	// keyed by job id.
	ReadAll(ctx context.Context, path string) (map[string]job.Record, error)

	// ReadFields reads the flat field map of the record at path. A missing
	// record yields an empty map, not an error.
	ReadFields(ctx context.Context, path string) (map[string]string, error)

	// WriteFields partially updates the record at path and notifies
	// subscribers. Fields not present in the map are left untouched.
	WriteFields(ctx context.Context, path string, fields map[string]string) error
}

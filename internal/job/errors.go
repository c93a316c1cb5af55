package job

import (
	"errors"
	"fmt"
)

var (
	// ErrFileNotFound is returned when the downloaded payload is missing
	// from local storage before execution.
	ErrFileNotFound = errors.New("local file not found")

	// ErrBackendMissing is returned when the print backend binary is not
	// installed on this machine.
	ErrBackendMissing = errors.New("print backend not installed")

	// ErrStoreUnavailable wraps failures to reach the remote store. The
	// store never retries internally; callers decide.
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrUnknownJob is returned when a command references a job id the
	// dispatcher has never seen.
	ErrUnknownJob = errors.New("unknown job")
)

// DownloadError is a non-2xx response while fetching a payload.
type DownloadError struct {
	Status int
}

func (e *DownloadError) Error() string {
	return fmt.Sprintf("download failed with status %d", e.Status)
}

// TransportError is a network-level failure (timeout, connection reset)
// during a payload download.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return "download transport error: " + e.Err.Error()
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Package download streams remote payloads to the local cache directory
// with fractional progress reporting.
package download

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/hamidrprogrammer/print-agent/internal/job"
)

const (
	// chunkSize is the streaming copy buffer. Payloads are never held in
	// memory as a whole.
	chunkSize = 8 * 1024

	// DefaultTimeout bounds a single download attempt.
	DefaultTimeout = 30 * time.Second

	acceptHeader = "application/pdf"
)

// ProgressFunc receives a monotonically non-decreasing fraction in [0,1].
// It is only invoked when the total payload size is known.
type ProgressFunc func(fraction float64)

// Downloader fetches remote payloads into a local directory. The directory
// acts as a cache keyed by file key: a repeated key overwrites, and files
// outlive the jobs that fetched them.
type Downloader struct {
	dir     string
	timeout time.Duration
	client  *http.Client
	logger  *slog.Logger
}

// New creates a Downloader writing into dir. A zero timeout falls back to
// DefaultTimeout.
func New(dir string, timeout time.Duration, logger *slog.Logger) *Downloader {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Downloader{
		dir:     dir,
		timeout: timeout,
		client:  &http.Client{},
		logger:  logger,
	}
}

// Fetch downloads url into the cache under key and returns the local path.
// A non-2xx response yields *job.DownloadError; any network failure,
// including the per-attempt timeout, yields *job.TransportError. Neither is
// retried here; the retry policy belongs to the caller.
func (d *Downloader) Fetch(ctx context.Context, url, key string, progress ProgressFunc) (string, error) {
	if err := os.MkdirAll(d.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create download dir: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build download request: %w", err)
	}
	req.Header.Set("Accept", acceptHeader)

	resp, err := d.client.Do(req)
	if err != nil {
		return "", &job.TransportError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &job.DownloadError{Status: resp.StatusCode}
	}

	localPath := filepath.Join(d.dir, key+".pdf")
	out, err := os.Create(localPath)
	if err != nil {
		return "", fmt.Errorf("failed to create local file: %w", err)
	}
	defer out.Close()

	total := resp.ContentLength
	var written int64
	buf := make([]byte, chunkSize)
	for {
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			if _, writeErr := out.Write(buf[:n]); writeErr != nil {
				return "", fmt.Errorf("failed to write local file: %w", writeErr)
			}
			written += int64(n)
			if progress != nil && total > 0 {
				fraction := float64(written) / float64(total)
				if fraction > 1 {
					fraction = 1
				}
				progress(fraction)
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return "", &job.TransportError{Err: readErr}
		}
	}

	// The final callback always lands on exactly 1.0 when the size was
	// known, even if the server rounded Content-Length up.
	if progress != nil && total > 0 && written < total {
		progress(1.0)
	}

	d.logger.Debug("Payload downloaded",
		slog.String("url", url),
		slog.String("path", localPath),
		slog.Int64("bytes", written),
	)

	return localPath, nil
}

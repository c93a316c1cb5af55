package job

import "fmt"

// Status is the wire-visible lifecycle state of a print job.
// Exactly these four values are ever written by the pipeline.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCanceled  Status = "canceled"
)

// Terminal reports whether no further transitions follow s.
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusCanceled:
		return true
	}
	return false
}

// Settings are the per-job execution options. They are opaque pass-through
// strings as far as the pipeline is concerned; only the print backend
// interprets them.
type Settings struct {
	Printer     string
	ColorMode   string
	Orientation string
	PaperSize   string
}

// BackendString renders the combined settings string in the backend's option
// grammar. The order and the trailing comma are fixed for compatibility.
func (s Settings) BackendString() string {
	return fmt.Sprintf("%s,%s,paper=%s,", s.ColorMode, s.Orientation, s.PaperSize)
}

// Record is one unit of remote-requested work and its lifecycle state.
// Records are created by an external producer; the pipeline only ever
// mutates status and timestamp.
type Record struct {
	ID        string
	FileURL   string
	FileKey   string
	Settings  Settings
	Status    Status
	Timestamp string
}

// Store field names under print_jobs/{token}/{jobId}.
const (
	FieldFileURL     = "file_url"
	FieldFileKey     = "file_key"
	FieldPrinter     = "namePrinter"
	FieldColorMode   = "colorMode"
	FieldOrientation = "orientation"
	FieldPaperSize   = "paperSize"
	FieldStatus      = "status"
	FieldTimestamp   = "timestamp"
)

// Fields encodes the record as a flat field map for the store.
func (r Record) Fields() map[string]string {
	return map[string]string{
		FieldFileURL:     r.FileURL,
		FieldFileKey:     r.FileKey,
		FieldPrinter:     r.Settings.Printer,
		FieldColorMode:   r.Settings.ColorMode,
		FieldOrientation: r.Settings.Orientation,
		FieldPaperSize:   r.Settings.PaperSize,
		FieldStatus:      string(r.Status),
		FieldTimestamp:   r.Timestamp,
	}
}

// FromFields decodes a record from the store's flat field map.
func FromFields(id string, fields map[string]string) Record {
	return Record{
		ID:      id,
		FileURL: fields[FieldFileURL],
		FileKey: fields[FieldFileKey],
		Settings: Settings{
			Printer:     fields[FieldPrinter],
			ColorMode:   fields[FieldColorMode],
			Orientation: fields[FieldOrientation],
			PaperSize:   fields[FieldPaperSize],
		},
		Status:    Status(fields[FieldStatus]),
		Timestamp: fields[FieldTimestamp],
	}
}

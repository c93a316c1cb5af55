package event

import "github.com/hamidrprogrammer/print-agent/internal/job"

// Type discriminates events surfaced to the presentation layer. The
// vocabulary is open and append-only; consumers switch on Type and ignore
// types they do not know.
type Type string

const (
	TypeLog      Type = "log"
	TypeProgress Type = "progress"
	TypeJobs     Type = "print_jobs"
)

// Event is one message on the presentation queue.
type Event struct {
	Type    Type         `json:"type"`
	Message string       `json:"message,omitempty"`
	JobID   string       `json:"job_id,omitempty"`
	Value   float64      `json:"value,omitempty"`
	Jobs    []job.Record `json:"jobs,omitempty"`
}

// Log builds a log event.
func Log(message string) Event {
	return Event{Type: TypeLog, Message: message}
}

// Progress builds a download progress event for one job. Value is a
// fraction in [0,1].
func Progress(jobID string, value float64) Event {
	return Event{Type: TypeProgress, JobID: jobID, Value: value}
}

// Jobs builds a job-list snapshot event.
func Jobs(jobs []job.Record) Event {
	return Event{Type: TypeJobs, Jobs: jobs}
}

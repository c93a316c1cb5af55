package store

import "strings"

// Logical path layout. Paths are slash-separated and store-agnostic; each
// backend maps them to its own key space.
//
//	users/{internalId}            token, connected, printers, system_info
//	print_jobs/{token}            job collection for one device
//	print_jobs/{token}/{jobId}    one job record

// UserPath returns the path of a device's user record.
func UserPath(internalID string) string {
	return "users/" + internalID
}

// JobsPath returns the path of the job collection for a connection token.
func JobsPath(token string) string {
	return "print_jobs/" + token
}

// JobPath returns the path of one job record.
func JobPath(token, jobID string) string {
	return JobsPath(token) + "/" + jobID
}

// ParentPath returns the collection containing path, or "" for a top-level
// path.
func ParentPath(path string) string {
	i := strings.LastIndex(path, "/")
	if i < 0 {
		return ""
	}
	return path[:i]
}

// LastSegment returns the final path segment (the record id).
func LastSegment(path string) string {
	i := strings.LastIndex(path, "/")
	if i < 0 {
		return path
	}
	return path[i+1:]
}

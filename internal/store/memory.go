package store

import (
	"context"
	"strings"
	"sync"

	"github.com/hamidrprogrammer/print-agent/internal/job"
)

// MemoryStore implements Store entirely in process memory with the same
// write-then-notify contract as RedisStore. It backs the pipeline's tests
// and doubles as an offline backend for local development.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]map[string]string
	subs    map[int]*memorySub
	nextSub int
}

type memorySub struct {
	path string
	ch   chan ChangeEvent
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string]map[string]string),
		subs:    make(map[int]*memorySub),
	}
}

// Subscribe implements Store.
func (s *MemoryStore) Subscribe(ctx context.Context, path string) (<-chan ChangeEvent, error) {
	// One slot per subscriber: events carry no payload, so back-to-back
	// writes coalesce into a single pending notification.
	sub := &memorySub{
		path: path,
		ch:   make(chan ChangeEvent, 1),
	}

	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = sub
	s.mu.Unlock()

	out := make(chan ChangeEvent)
	go func() {
		defer close(out)
		defer func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
		}()

		for {
			select {
			case <-ctx.Done():
				return
			case ev := <-sub.ch:
				select {
				case out <- ev:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}

// ReadAll implements Store.
func (s *MemoryStore) ReadAll(ctx context.Context, path string) (map[string]job.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prefix := path + "/"
	jobs := make(map[string]job.Record)
	for p, fields := range s.records {
		if !strings.HasPrefix(p, prefix) {
			continue
		}
		id := LastSegment(p)
		jobs[id] = job.FromFields(id, cloneFields(fields))
	}
	return jobs, nil
}

// ReadFields implements Store.
func (s *MemoryStore) ReadFields(ctx context.Context, path string) (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fields, ok := s.records[path]
	if !ok {
		return map[string]string{}, nil
	}
	return cloneFields(fields), nil
}

// WriteFields implements Store.
func (s *MemoryStore) WriteFields(ctx context.Context, path string, fields map[string]string) error {
	if len(fields) == 0 {
		return nil
	}

	s.mu.Lock()
	rec, ok := s.records[path]
	if !ok {
		rec = make(map[string]string)
		s.records[path] = rec
	}
	for k, v := range fields {
		rec[k] = v
	}

	parent := ParentPath(path)
	var targets []*memorySub
	for _, sub := range s.subs {
		if sub.path == path || sub.path == parent {
			targets = append(targets, sub)
		}
	}
	s.mu.Unlock()

	for _, sub := range targets {
		select {
		case sub.ch <- ChangeEvent{Path: path}:
		default:
			// A notification is already pending. The record update above
			// is committed, so the resnapshot it triggers will observe
			// this write too.
		}
	}

	return nil
}

func cloneFields(fields map[string]string) map[string]string {
	out := make(map[string]string, len(fields))
	for k, v := range fields {
		out[k] = v
	}
	return out
}

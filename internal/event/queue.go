package event

// DefaultBuffer is the queue capacity used when none is configured.
const DefaultBuffer = 256

// Queue is the one-way channel between the pipeline and the presentation
// layer. Many goroutines publish; a single consumer drains it on a polling
// cadence. Publishing never blocks a worker: when the buffer is full the
// oldest event is dropped to make room.
type Queue struct {
	ch chan Event
}

// NewQueue creates a queue with the given buffer size.
func NewQueue(size int) *Queue {
	if size <= 0 {
		size = DefaultBuffer
	}
	return &Queue{ch: make(chan Event, size)}
}

// Publish enqueues e without blocking. On overflow the oldest buffered
// event is discarded.
func (q *Queue) Publish(e Event) {
	for {
		select {
		case q.ch <- e:
			return
		default:
		}
		select {
		case <-q.ch:
		default:
		}
	}
}

// Next returns the next event if one is buffered. It never blocks; ok is
// false when the queue is empty.
func (q *Queue) Next() (Event, bool) {
	select {
	case e := <-q.ch:
		return e, true
	default:
		return Event{}, false
	}
}

// Drain removes and returns up to max buffered events without blocking.
func (q *Queue) Drain(max int) []Event {
	if max <= 0 {
		max = cap(q.ch)
	}
	var out []Event
	for len(out) < max {
		e, ok := q.Next()
		if !ok {
			break
		}
		out = append(out, e)
	}
	return out
}

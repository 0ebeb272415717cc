package l5cloud

import "sync"

// DefaultQueueCapacity bounds the increment queue when no size is given.
const DefaultQueueCapacity = 64

// Queue is a bounded FIFO of deltas with a reject-newest policy: a push onto
// a full queue fails and the delta is counted as dropped. Neither push nor
// pop blocks. Safe for one producer and any number of consumers.
type Queue struct {
	mu      sync.Mutex
	buf     []Delta
	head    int
	size    int
	dropped uint64
}

// NewQueue returns a queue holding at most capacity deltas.
func NewQueue(capacity int) *Queue {
	if capacity <= 0 {
		capacity = DefaultQueueCapacity
	}
	return &Queue{buf: make([]Delta, capacity)}
}

// TryPush appends d unless the queue is full.
func (q *Queue) TryPush(d Delta) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.size == len(q.buf) {
		q.dropped++
		return false
	}
	q.buf[(q.head+q.size)%len(q.buf)] = d
	q.size++
	return true
}

// TryPop removes and returns the oldest delta. ok is false when empty.
func (q *Queue) TryPop() (d Delta, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.size == 0 {
		return Delta{}, false
	}
	d = q.buf[q.head]
	q.buf[q.head] = Delta{}
	q.head = (q.head + 1) % len(q.buf)
	q.size--
	return d, true
}

// Len returns the number of queued deltas.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.size
}

// Cap returns the queue capacity.
func (q *Queue) Cap() int { return len(q.buf) }

// Dropped returns how many pushes were rejected since the last Clear.
func (q *Queue) Dropped() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.dropped
}

// Clear discards every queued delta and resets the drop counter.
func (q *Queue) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i := range q.buf {
		q.buf[i] = Delta{}
	}
	q.head, q.size, q.dropped = 0, 0, 0
}

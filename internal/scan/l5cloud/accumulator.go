package l5cloud

import (
	"errors"
	"fmt"
	"sync"
)

// State is the accumulator lifecycle: Idle -> Scanning -> Idle.
type State int

const (
	Idle State = iota
	Scanning
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Scanning:
		return "scanning"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// ErrNotScanning is returned by Ingest outside a scan.
var ErrNotScanning = errors.New("accumulator: not scanning")

// Stats is a snapshot of accumulator counters for the current scan.
type Stats struct {
	State      State
	Frames     uint64 // deltas ingested, including empty ones
	Points     int    // points in the cloud
	Published  uint64 // deltas accepted by the queue
	Dropped    uint64 // deltas rejected by a full queue
	QueueDepth int
	QueueCap   int
}

// Accumulator owns the session cloud and its increment queue. Every method
// is serialised by one mutex, so a delta is always appended whole, even when
// StopScan races with Ingest.
type Accumulator struct {
	mu        sync.Mutex
	state     State
	cloud     Cloud
	queue     *Queue
	frames    uint64
	published uint64
}

// NewAccumulator returns an idle accumulator whose queue holds
// queueCapacity deltas (DefaultQueueCapacity when <= 0).
func NewAccumulator(queueCapacity int) *Accumulator {
	return &Accumulator{queue: NewQueue(queueCapacity)}
}

// StartScan empties the cloud and the queue and enters Scanning. Calling it
// mid-scan restarts the scan.
func (a *Accumulator) StartScan() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.state == Scanning {
		diagf("scan restarted with %d points discarded", a.cloud.Len())
	}
	a.cloud = Cloud{}
	a.queue.Clear()
	a.frames, a.published = 0, 0
	a.state = Scanning
}

// StopScan returns to Idle. The cloud stays readable until the next
// StartScan.
func (a *Accumulator) StopScan() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.state != Scanning {
		return
	}
	a.state = Idle
	diagf("scan stopped: frames=%d points=%d published=%d dropped=%d",
		a.frames, a.cloud.Len(), a.published, a.queue.Dropped())
}

// State returns the lifecycle state.
func (a *Accumulator) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// Ingest appends d to the cloud and offers a copy to the increment queue.
// A full queue never blocks or fails the call; the delta is still part of
// the cloud. Empty deltas are counted but neither appended nor queued.
func (a *Accumulator) Ingest(d Delta) (Delta, error) {
	if len(d.Points) != len(d.Colors) {
		return Delta{}, fmt.Errorf("accumulator: %d points but %d colors", len(d.Points), len(d.Colors))
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.state != Scanning {
		return Delta{}, ErrNotScanning
	}
	a.frames++
	if d.Empty() {
		return Delta{}, nil
	}

	own := d.clone()
	a.cloud.append(own)
	if a.queue.TryPush(own.clone()) {
		a.published++
	} else if dropped := a.queue.Dropped(); dropped == 1 {
		opsf("increment queue full (%d), dropping new deltas until it is drained", a.queue.Cap())
	} else {
		diagf("dropped delta of %d points (total dropped %d)", own.Len(), dropped)
	}
	tracef("ingest frame=%d points=%d cloud=%d queue=%d/%d",
		a.frames, own.Len(), a.cloud.Len(), a.queue.Len(), a.queue.Cap())
	return own, nil
}

// Cloud returns a copy of the accumulated cloud.
func (a *Accumulator) Cloud() Cloud {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := Cloud{
		Points: append(a.cloud.Points[:0:0], a.cloud.Points...),
		Colors: append(a.cloud.Colors[:0:0], a.cloud.Colors...),
	}
	return out
}

// Poll pops the oldest queued delta without blocking.
func (a *Accumulator) Poll() (Delta, bool) {
	return a.queue.TryPop()
}

// QueueEmpty reports whether no delta is waiting.
func (a *Accumulator) QueueEmpty() bool {
	return a.queue.Len() == 0
}

// Stats returns the current counters.
func (a *Accumulator) Stats() Stats {
	a.mu.Lock()
	defer a.mu.Unlock()
	return Stats{
		State:      a.state,
		Frames:     a.frames,
		Points:     a.cloud.Len(),
		Published:  a.published,
		Dropped:    a.queue.Dropped(),
		QueueDepth: a.queue.Len(),
		QueueCap:   a.queue.Cap(),
	}
}

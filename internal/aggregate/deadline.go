package aggregate

import (
	"sync"
	"time"
)

// Deadline is the next time a progress report may be emitted. The
// compare-then-advance step needs to be indivisible, so it sits behind a
// mutex instead of an atomic.
type Deadline struct {
	mu       sync.Mutex
	next     time.Time
	interval time.Duration
}

// NewDeadline returns a deadline first due at start+interval.
func NewDeadline(start time.Time, interval time.Duration) *Deadline {
	return &Deadline{next: start.Add(interval), interval: interval}
}

// Fire takes the lock, reads the clock, and when the deadline has been
// reached calls emit with that reading and advances the deadline by exactly
// one interval. emit runs under the lock, so emissions never overlap and see
// strictly increasing times. Fire reports whether emit was called.
func (d *Deadline) Fire(now func() time.Time, emit func(time.Time)) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	t := now()
	if t.Before(d.next) {
		return false
	}
	emit(t)
	d.next = d.next.Add(d.interval)
	return true
}

// Next returns the current deadline.
func (d *Deadline) Next() time.Time {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.next
}

// Package aggregate holds the process-wide reduction state shared by every
// worker: a monotone maximum register, a completion counter and the progress
// deadline.
package aggregate

import "sync/atomic"

// State is safe for unsynchronized use from any number of goroutines.
// The zero value is ready to use.
type State struct {
	max       atomic.Uint32
	completed atomic.Uint64
}

// ObserveMax raises the running maximum to v if v is larger. The CAS loop
// only retries when another writer committed a value in between, and each
// retry re-reads that value, so a larger observation is never lost.
// It returns the number of failed CAS attempts.
func (s *State) ObserveMax(v uint32) (retries int) {
	for {
		cur := s.max.Load()
		if v <= cur {
			return retries
		}
		if s.max.CompareAndSwap(cur, v) {
			return retries
		}
		retries++
	}
}

// Complete records one finished trial and returns the pre-increment count.
func (s *State) Complete() uint64 { return s.completed.Add(1) - 1 }

// Max is the largest value observed so far.
func (s *State) Max() uint32 { return s.max.Load() }

// Completed is the number of trials recorded so far.
func (s *State) Completed() uint64 { return s.completed.Load() }

// Package progress prints throttled progress lines and the final summary for
// a run. Only stride-aligned completions touch the deadline lock, so the
// reporter costs one modulo per trial on the hot path.
package progress

import (
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"rollsim/internal/aggregate"
)

// Config controls reporting cadence.
type Config struct {
	Interval time.Duration    // minimum wall-clock gap between reports
	Stride   uint64           // only every Stride-th completion checks the deadline
	Start    time.Time        // zero means Now() at construction
	Now      func() time.Time // nil means time.Now
}

// Reporter prints progress lines and the summary for one run.
type Reporter struct {
	out      io.Writer
	state    *aggregate.State
	deadline *aggregate.Deadline
	start    time.Time
	stride   uint64
	now      func() time.Time

	reports atomic.Uint64

	mu  sync.Mutex
	err error
}

// New returns a Reporter writing to out and reading counts from st.
func New(out io.Writer, st *aggregate.State, cfg Config) *Reporter {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Start.IsZero() {
		cfg.Start = cfg.Now()
	}
	if cfg.Stride < 1 {
		cfg.Stride = 1
	}
	return &Reporter{
		out:      out,
		state:    st,
		deadline: aggregate.NewDeadline(cfg.Start, cfg.Interval),
		start:    cfg.Start,
		stride:   cfg.Stride,
		now:      cfg.Now,
	}
}

// MaybeReport is called by a worker with the pre-increment completion count
// it got back from State.Complete. It prints at most one line per interval
// and reports whether it printed.
func (r *Reporter) MaybeReport(prev uint64) bool {
	if prev%r.stride != 0 {
		return false
	}
	return r.deadline.Fire(r.now, func(t time.Time) {
		_, err := fmt.Fprintf(r.out, "Iteration #%d, max ones: %d, elapsed_time: %v\n",
			r.state.Completed(), r.state.Max(), t.Sub(r.start))
		r.reports.Add(1)
		r.setErr(err)
	})
}

// Finish prints the two summary lines. Call it once, after every worker has
// returned.
func (r *Reporter) Finish() error {
	_, err := fmt.Fprintf(r.out, "Finished. Max ones: %d\nDuration: %v\n",
		r.state.Max(), r.Elapsed())
	r.setErr(err)
	return r.Err()
}

// Elapsed is the wall-clock time since the run started.
func (r *Reporter) Elapsed() time.Duration { return r.now().Sub(r.start) }

// Reports is the number of progress lines printed so far.
func (r *Reporter) Reports() uint64 { return r.reports.Load() }

// Err returns the first write error seen, if any.
func (r *Reporter) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

func (r *Reporter) setErr(err error) {
	if err == nil {
		return
	}
	r.mu.Lock()
	if r.err == nil {
		r.err = fmt.Errorf("write progress: %w", err)
	}
	r.mu.Unlock()
}

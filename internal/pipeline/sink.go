// internal/pipeline/sink.go
package pipeline

// Reporter is the minimal capability the reduction needs from a progress
// sink. progress.Reporter satisfies it, as do fakes in tests.
type Reporter interface {
	MaybeReport(prev uint64) bool
}

// discard never reports.
type discard struct{}

func (discard) MaybeReport(uint64) bool { return false }

// internal/runutil/runutil.go
package runutil

import (
	"runtime"

	"rollsim/internal/trial"
)

// EffectiveWorkers returns the worker count to use. If workers > 0 that
// value is used as-is; otherwise one worker per logical CPU.
func EffectiveWorkers(workers int) int {
	if workers > 0 {
		return workers
	}
	return runtime.NumCPU()
}

// EffectiveSeed returns seed, or a fresh random seed when seed is 0.
func EffectiveSeed(seed uint64) uint64 {
	if seed != 0 {
		return seed
	}
	return trial.RandomSeed()
}

// ExpectedPerCategory is the mean count of any one category after draws
// uniform draws.
func ExpectedPerCategory(draws int) float64 {
	if draws <= 0 {
		return 0
	}
	return float64(draws) / trial.Categories
}

package aggregate

import (
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestObserveMaxSequential(t *testing.T) {
	var s State
	s.ObserveMax(5)
	s.ObserveMax(3)
	assert.EqualValues(t, 5, s.Max())
	s.ObserveMax(9)
	assert.EqualValues(t, 9, s.Max())
	s.ObserveMax(0)
	assert.EqualValues(t, 9, s.Max())
}

func TestObserveMaxConcurrentMatchesReference(t *testing.T) {
	const (
		goroutines = 32
		perG       = 5000
		distinct   = 256
	)

	values := make([][]uint32, goroutines)
	var want uint32
	for g := range values {
		r := rand.New(rand.NewPCG(uint64(g), 99))
		values[g] = make([]uint32, perG)
		for i := range values[g] {
			v := uint32(r.IntN(distinct))
			values[g][i] = v
			want = max(want, v)
		}
	}

	var (
		s          State
		worstRetry atomic.Int64
		wg         sync.WaitGroup
	)
	wg.Add(goroutines)
	for g := 0; g < goroutines; g++ {
		go func(vs []uint32) {
			defer wg.Done()
			for _, v := range vs {
				r := int64(s.ObserveMax(v))
				for {
					cur := worstRetry.Load()
					if r <= cur || worstRetry.CompareAndSwap(cur, r) {
						break
					}
				}
			}
		}(values[g])
	}
	wg.Wait()

	assert.Equal(t, want, s.Max())
	// Every retry means another writer raised the max to a value below ours,
	// so a single call can fail at most distinct-1 times.
	assert.Less(t, worstRetry.Load(), int64(distinct))
}

func TestObserveMaxNeverDecreases(t *testing.T) {
	var (
		s    State
		stop atomic.Bool
		wg   sync.WaitGroup
	)
	wg.Add(8)
	for g := 0; g < 8; g++ {
		go func(seed uint64) {
			defer wg.Done()
			r := rand.New(rand.NewPCG(seed, 1))
			for i := 0; i < 20_000; i++ {
				s.ObserveMax(uint32(r.IntN(1 << 16)))
			}
		}(uint64(g))
	}

	regressions := 0
	done := make(chan struct{})
	go func() {
		defer close(done)
		var last uint32
		for !stop.Load() {
			cur := s.Max()
			if cur < last {
				regressions++
			}
			last = cur
		}
	}()

	wg.Wait()
	stop.Store(true)
	<-done
	assert.Zero(t, regressions)
}

func TestCompleteIsExact(t *testing.T) {
	const (
		goroutines = 16
		perG       = 10_000
	)
	var (
		s    State
		wg   sync.WaitGroup
		seen = make([]atomic.Bool, goroutines*perG)
	)
	wg.Add(goroutines)
	for g := 0; g < goroutines; g++ {
		go func() {
			defer wg.Done()
			for i := 0; i < perG; i++ {
				prev := s.Complete()
				if !assert.Less(t, prev, uint64(len(seen))) {
					return
				}
				assert.False(t, seen[prev].Swap(true), "pre-increment value %d returned twice", prev)
			}
		}()
	}
	wg.Wait()
	assert.EqualValues(t, goroutines*perG, s.Completed())
}

func TestZeroValue(t *testing.T) {
	var s State
	assert.Zero(t, s.Max())
	assert.Zero(t, s.Completed())
	assert.Zero(t, s.Complete())
	assert.EqualValues(t, 1, s.Completed())
}

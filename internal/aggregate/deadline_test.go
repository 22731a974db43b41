package aggregate

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func fixed(t time.Time) func() time.Time { return func() time.Time { return t } }

func TestDeadlineFiresOnlyWhenDue(t *testing.T) {
	start := time.Unix(1_700_000_000, 0)
	d := NewDeadline(start, 10*time.Second)
	assert.Equal(t, start.Add(10*time.Second), d.Next())

	calls := 0
	emit := func(time.Time) { calls++ }

	assert.False(t, d.Fire(fixed(start.Add(9*time.Second)), emit))
	assert.Zero(t, calls)

	assert.True(t, d.Fire(fixed(start.Add(10*time.Second)), emit), "exact deadline counts as reached")
	assert.Equal(t, 1, calls)
	assert.Equal(t, start.Add(20*time.Second), d.Next())

	assert.False(t, d.Fire(fixed(start.Add(15*time.Second)), emit))
	assert.Equal(t, 1, calls)
}

func TestDeadlineAdvancesOneIntervalPerFire(t *testing.T) {
	start := time.Unix(0, 0)
	d := NewDeadline(start, time.Second)

	// A long stall: the deadline catches up one interval per emission.
	late := fixed(start.Add(3500 * time.Millisecond))
	fired := 0
	for d.Fire(late, func(time.Time) {}) {
		fired++
	}
	assert.Equal(t, 3, fired)
	assert.Equal(t, start.Add(4*time.Second), d.Next())
}

func TestDeadlineAtMostOnePerInterval(t *testing.T) {
	start := time.Unix(0, 0)
	d := NewDeadline(start, time.Minute)
	now := fixed(start.Add(61 * time.Second))

	var (
		mu    sync.Mutex
		calls int
		wg    sync.WaitGroup
	)
	wg.Add(64)
	for i := 0; i < 64; i++ {
		go func() {
			defer wg.Done()
			d.Fire(now, func(time.Time) {
				mu.Lock()
				calls++
				mu.Unlock()
			})
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, calls)
}

// internal/trial/trial.go
package trial

// Categories is the number of equally likely outcomes of a single draw.
const Categories = 4

// Source is the minimal randomness capability a Trial needs.
// *math/rand/v2.Rand satisfies it, as does any deterministic fake.
type Source interface {
	IntN(n int) int
}

// Trial counts the outcomes of successive draws from a bound Source.
// A Trial is owned by a single goroutine.
type Trial struct {
	src    Source
	counts [Categories]uint32
}

// New binds a Trial to src. The Trial never creates or reseeds src.
func New(src Source) *Trial {
	return &Trial{src: src}
}

// DrawOne samples one category in [0, Categories) and counts it.
func (t *Trial) DrawOne() {
	t.counts[t.src.IntN(Categories)]++
}

// DrawN draws count times in sequence. count <= 0 is a no-op.
func (t *Trial) DrawN(count int) {
	for i := 0; i < count; i++ {
		t.DrawOne()
	}
}

// Counts returns a copy of the per-category counters.
func (t *Trial) Counts() [Categories]uint32 { return t.counts }

// Total is the number of draws performed so far.
func (t *Trial) Total() uint64 {
	var n uint64
	for _, c := range t.counts {
		n += uint64(c)
	}
	return n
}

// Reset zeroes the counters and keeps the bound Source.
func (t *Trial) Reset() { t.counts = [Categories]uint32{} }

package trial

import "math/rand/v2"

// Seeded is a reusable PCG-backed Source. Reseed makes the following draws a
// pure function of (seed, stream), so a worker can give every trial its own
// private stream without allocating.
type Seeded struct {
	pcg rand.PCG
	rng *rand.Rand
}

// NewSeeded returns a Source positioned at stream 0 of seed 0.
func NewSeeded() *Seeded {
	s := &Seeded{}
	s.rng = rand.New(&s.pcg)
	return s
}

// Reseed restarts the generator on the given (seed, stream) pair.
func (s *Seeded) Reseed(seed, stream uint64) { s.pcg.Seed(seed, stream) }

// IntN implements Source.
func (s *Seeded) IntN(n int) int { return s.rng.IntN(n) }

// RandomSeed draws a run seed from the runtime's global generator.
func RandomSeed() uint64 {
	for {
		if v := rand.Uint64(); v != 0 {
			return v
		}
	}
}

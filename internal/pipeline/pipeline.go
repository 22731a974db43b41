// internal/pipeline/pipeline.go
package pipeline

import (
	"context"
	"runtime"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"rollsim/internal/aggregate"
	"rollsim/internal/trial"
)

// DefaultBatch is how many consecutive trial indices a worker claims at once.
const DefaultBatch = 4096

// Config controls the fan-out.
type Config struct {
	Trials  uint64 // total trials to run
	Draws   int    // draws per trial
	Workers int    // worker goroutines (0 = runtime.NumCPU())
	Batch   uint64 // trial indices claimed per cursor bump (0 = DefaultBatch)
	Seed    uint64 // run seed; trial i draws from PCG stream (Seed, i)
}

// Counts is one finished trial's per-category result.
type Counts = [trial.Categories]uint32

// ForEachTrial runs every trial index in [0, cfg.Trials) exactly once and
// calls visit with its counts. Workers claim batches from a shared cursor, so
// a worker that finishes early picks up more of the total. visit is called
// concurrently from all workers and must be safe for that.
// It returns the first error from visit, or the context error if ctx is
// cancelled before every trial ran.
func ForEachTrial(ctx context.Context, cfg Config, visit func(index uint64, c Counts) error) error {
	if cfg.Workers < 1 {
		cfg.Workers = runtime.NumCPU()
	}
	if cfg.Batch < 1 {
		cfg.Batch = DefaultBatch
	}
	if cfg.Trials == 0 {
		return ctx.Err()
	}
	if cfg.Batch > cfg.Trials {
		cfg.Batch = cfg.Trials
	}
	n := cfg.Trials / cfg.Batch
	if cfg.Trials%cfg.Batch != 0 {
		n++
	}
	if uint64(cfg.Workers) > n {
		cfg.Workers = int(n)
	}

	var cursor atomic.Uint64
	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < cfg.Workers; w++ {
		g.Go(func() error {
			src := trial.NewSeeded()
			t := trial.New(src)
			for {
				if err := gctx.Err(); err != nil {
					return err
				}
				start := cursor.Add(cfg.Batch) - cfg.Batch
				if start >= cfg.Trials {
					return nil
				}
				end := min(start+cfg.Batch, cfg.Trials)
				for i := start; i < end; i++ {
					// Reseed plus Reset is a fresh Trial on a private stream.
					src.Reseed(cfg.Seed, i)
					t.Reset()
					t.DrawN(cfg.Draws)
					if err := visit(i, t.Counts()); err != nil {
						return err
					}
				}
			}
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

// Run executes the whole batch, folding each trial's category-0 count into st
// and offering every completion to rep. A nil rep never reports.
func Run(ctx context.Context, cfg Config, st *aggregate.State, rep Reporter) error {
	if rep == nil {
		rep = discard{}
	}
	return ForEachTrial(ctx, cfg, func(_ uint64, c Counts) error {
		st.ObserveMax(c[0])
		rep.MaybeReport(st.Complete())
		return nil
	})
}

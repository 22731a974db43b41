// internal/app/app.go
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/segmentio/ksuid"

	"rollsim/internal/aggregate"
	"rollsim/internal/cli"
	"rollsim/internal/logging"
	"rollsim/internal/metrics"
	"rollsim/internal/output"
	"rollsim/internal/pipeline"
	"rollsim/internal/progress"
	"rollsim/internal/runutil"
	"rollsim/internal/version"
)

// Exit codes
const (
	ExitOK       = 0
	ExitUsage    = 2
	ExitFault    = 3
	ExitCanceled = 130
)

// RunContext parses argv, runs the batch and prints progress and the summary
// to stdout. Diagnostics go to stderr. It returns the process exit code.
func RunContext(parent context.Context, argv []string, stdout, stderr io.Writer) int {
	return runWithEnv(parent, argv, nil, stdout, stderr)
}

// Run is RunContext without cancellation.
func Run(argv []string, stdout, stderr io.Writer) int {
	return RunContext(context.Background(), argv, stdout, stderr)
}

func runWithEnv(parent context.Context, argv []string, environ map[string]string, stdout, stderr io.Writer) int {
	fs := cli.NewFlagSet("rollsim")
	fs.SetOutput(io.Discard)

	opts, err := cli.ParseArgs(fs, argv, environ)
	if err != nil {
		if errors.Is(err, cli.ErrHelp) {
			cli.WriteUsage(stdout, fs)
			return ExitOK
		}
		_, _ = fmt.Fprintln(stderr, "error:", err)
		cli.WriteUsage(stderr, fs)
		return ExitUsage
	}
	if opts.Version {
		if _, err := fmt.Fprintf(stdout, "rollsim version %s\n", version.Version); err != nil && !output.IsBrokenPipe(err) {
			_, _ = fmt.Fprintln(stderr, err)
			return ExitFault
		}
		return ExitOK
	}

	logger, err := logging.New(stderr, opts.LogLevel, opts.LogFormat)
	if err != nil {
		_, _ = fmt.Fprintln(stderr, "error:", err)
		return ExitUsage
	}
	logger = logger.With(logging.KeyRunID, ksuid.New().String(), logging.KeyVersion, version.Version)

	return run(parent, opts, logger, stdout)
}

func run(parent context.Context, opts cli.Options, logger *slog.Logger, stdout io.Writer) int {
	cfg := pipeline.Config{
		Trials:  opts.Trials,
		Draws:   opts.Draws,
		Workers: runutil.EffectiveWorkers(opts.Workers),
		Batch:   opts.Batch,
		Seed:    runutil.EffectiveSeed(opts.Seed),
	}

	var st aggregate.State
	rep := progress.New(stdout, &st, progress.Config{
		Interval: opts.ReportInterval,
		Stride:   opts.ReportStride,
		Start:    time.Now(),
	})

	if opts.MetricsListen != "" {
		stop, err := serveMetrics(opts.MetricsListen, &st, rep, opts.Trials, logger)
		if err != nil {
			logger.Error("metrics endpoint unavailable", "error", err)
			return ExitUsage
		}
		defer stop()
	}

	logger.Info("run started",
		"trials", opts.Trials,
		"draws", cfg.Draws,
		"workers", cfg.Workers,
		"batch", cfg.Batch,
		"seed", cfg.Seed,
		"report_interval", opts.ReportInterval.String(),
		"report_stride", opts.ReportStride,
		"expected_per_category", runutil.ExpectedPerCategory(cfg.Draws),
	)

	if err := pipeline.Run(parent, cfg, &st, rep); err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Warn("run cancelled", "completed", st.Completed(), "max_outcome_zero", st.Max())
			return ExitCanceled
		}
		logger.Error("run failed", "error", err, "completed", st.Completed())
		return ExitFault
	}
	if got := st.Completed(); got != opts.Trials {
		// A lost or duplicated completion means the maximum cannot be trusted.
		logger.Error("completion count mismatch", "completed", got, "want", opts.Trials)
		return ExitFault
	}

	// A failed progress line means stdout is unusable; skip the summary.
	if err := rep.Err(); err != nil {
		if output.IsBrokenPipe(err) {
			return ExitOK
		}
		logger.Error("writing progress", "error", err)
		return ExitFault
	}
	if err := rep.Finish(); err != nil {
		if output.IsBrokenPipe(err) {
			return ExitOK
		}
		logger.Error("writing summary", "error", err)
		return ExitFault
	}

	elapsed := rep.Elapsed()
	attrs := []any{
		"max_outcome_zero", st.Max(),
		"trials", humanize.Comma(int64(st.Completed())),
		"elapsed", elapsed.String(),
		"reports", rep.Reports(),
	}
	if s := elapsed.Seconds(); s > 0 {
		attrs = append(attrs, "rate", humanize.SIWithDigits(float64(st.Completed())/s, 2, "trials/s"))
	}
	logger.Info("run finished", attrs...)
	return ExitOK
}

// serveMetrics starts the scrape endpoint and returns a func that stops it
// and waits for the server to exit.
func serveMetrics(addr string, st *aggregate.State, rep *progress.Reporter, target uint64, logger *slog.Logger) (func(), error) {
	ln, err := metrics.Listen(addr)
	if err != nil {
		return nil, err
	}
	m := metrics.New(st, rep, target)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := m.Serve(ctx, ln); err != nil {
			logger.Warn("metrics server stopped", "error", err)
		}
	}()
	logger.Info("serving metrics", "addr", ln.Addr().String())

	return func() {
		cancel()
		<-done
	}, nil
}

// internal/cli/options.go
package cli

import (
	"errors"
	"fmt"
	"reflect"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
)

// EnvPrefix is prepended to every environment override.
const EnvPrefix = "ROLLSIM_"

// Log formats
const (
	FormatAuto = "auto"
	FormatText = "text"
	FormatJSON = "json"
)

// ErrHelp is returned when -h/--help was requested.
var ErrHelp = pflag.ErrHelp

// Options holds every run parameter. Defaults reproduce the fixed run:
// one billion trials of 231 draws, reporting every 10s.
type Options struct {
	// Simulation. Trials and Batch stay at or below 1<<62 so the shared
	// batch cursor cannot wrap; Draws fits the uint32 counters.
	Trials uint64 `env:"TRIALS" envDefault:"1000000000" flag:"trials" validate:"lte=4611686018427387904"`
	Draws  int    `env:"DRAWS" envDefault:"231" flag:"draws" validate:"gte=0,lte=4294967295"`
	Seed   uint64 `env:"SEED" envDefault:"0" flag:"seed"` // 0 = random

	// Progress
	ReportInterval time.Duration `env:"REPORT_INTERVAL" envDefault:"10s" flag:"report-interval" validate:"gt=0"`
	ReportStride   uint64        `env:"REPORT_STRIDE" envDefault:"100000" flag:"report-stride" validate:"gte=1"`

	// Performance
	Workers int    `env:"WORKERS" envDefault:"0" flag:"workers" validate:"gte=0"` // 0 = all CPUs
	Batch   uint64 `env:"BATCH" envDefault:"4096" flag:"batch" validate:"gte=1,lte=4611686018427387904"`

	// Diagnostics
	LogLevel      string `env:"LOG_LEVEL" envDefault:"info" flag:"log-level" validate:"oneof=debug info warn error"`
	LogFormat     string `env:"LOG_FORMAT" envDefault:"auto" flag:"log-format" validate:"oneof=auto text json"`
	MetricsListen string `env:"METRICS_LISTEN" flag:"metrics-listen" validate:"omitempty,hostname_port"`

	Version bool `flag:"version"`
	Help    bool `flag:"help"`
}

// NewFlagSet returns an empty FlagSet that reports errors instead of exiting.
func NewFlagSet(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SortFlags = false
	return fs
}

// ParseArgs layers defaults, environment overrides and flags, in that order,
// and validates the result. A nil environ reads the process environment.
func ParseArgs(fs *pflag.FlagSet, argv []string, environ map[string]string) (Options, error) {
	var opt Options
	if err := env.ParseWithOptions(&opt, env.Options{Prefix: EnvPrefix, Environment: environ}); err != nil {
		return opt, fmt.Errorf("environment: %w", err)
	}

	// Simulation
	fs.Uint64VarP(&opt.Trials, "trials", "n", opt.Trials, "number of independent trials")
	fs.IntVarP(&opt.Draws, "draws", "d", opt.Draws, "draws per trial")
	fs.Uint64Var(&opt.Seed, "seed", opt.Seed, "run seed (0 = random)")

	// Progress
	fs.DurationVar(&opt.ReportInterval, "report-interval", opt.ReportInterval, "minimum time between progress lines")
	fs.Uint64Var(&opt.ReportStride, "report-stride", opt.ReportStride, "check the report deadline every N completions")

	// Performance
	fs.IntVarP(&opt.Workers, "workers", "t", opt.Workers, "worker goroutines (0 = all CPUs)")
	fs.Uint64Var(&opt.Batch, "batch", opt.Batch, "trials claimed per worker scheduling step")

	// Diagnostics
	fs.StringVar(&opt.LogLevel, "log-level", opt.LogLevel, "stderr log level: debug | info | warn | error")
	fs.StringVar(&opt.LogFormat, "log-format", opt.LogFormat, "stderr log format: auto | text | json")
	fs.StringVar(&opt.MetricsListen, "metrics-listen", opt.MetricsListen, "serve Prometheus metrics on host:port")

	fs.BoolVarP(&opt.Version, "version", "v", false, "print version and exit")
	fs.BoolVarP(&opt.Help, "help", "h", false, "show this help message")

	if err := fs.Parse(argv); err != nil {
		return opt, err
	}
	if opt.Help {
		return opt, ErrHelp
	}
	if opt.Version {
		return opt, nil
	}
	if fs.NArg() > 0 {
		return opt, fmt.Errorf("unexpected argument %q", fs.Arg(0))
	}
	return opt, Validate(opt)
}

var validate = func() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string { return f.Tag.Get("flag") })
	return v
}()

// Validate applies the option invariants and names the offending flag.
func Validate(o Options) error {
	err := validate.Struct(o)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "oneof":
		return fmt.Errorf("invalid --%s %q (want one of: %s)", fe.Field(), fe.Value(), fe.Param())
	case "hostname_port":
		return fmt.Errorf("invalid --%s %q (want host:port)", fe.Field(), fe.Value())
	case "gt":
		return fmt.Errorf("--%s must be > %s", fe.Field(), fe.Param())
	case "gte":
		return fmt.Errorf("--%s must be ≥ %s", fe.Field(), fe.Param())
	case "lte":
		return fmt.Errorf("--%s must be ≤ %s", fe.Field(), fe.Param())
	default:
		return fmt.Errorf("invalid --%s: %s", fe.Field(), fe.Tag())
	}
}

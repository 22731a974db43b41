package cli

import (
	"fmt"
	"io"

	"github.com/spf13/pflag"

	"rollsim/internal/version"
)

// WriteUsage prints the help text for fs to w.
func WriteUsage(w io.Writer, fs *pflag.FlagSet) {
	fmt.Fprintf(w, `%s: parallel four-way draw simulator

Runs independent trials of uniform draws over four categories and reports the
largest category-0 count seen in any trial.

Version: %s

Usage of %s:
`, fs.Name(), version.Version, fs.Name())
	fmt.Fprint(w, fs.FlagUsages())
	fmt.Fprintf(w, `
Every flag can also be set from the environment as %sNAME, e.g.
%sTRIALS=10000. Flags take precedence over the environment.
`, EnvPrefix, EnvPrefix)
}

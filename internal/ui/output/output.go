// Package output creates termenv outputs with consistent color handling.
package output

import (
	"io"
	"os"

	"github.com/muesli/termenv"
)

// ColorProfile returns the color profile for log output written to w.
//
// NO_COLOR wins over everything and yields plain text. FORCE_COLOR keeps
// colors when w is piped, for example into a task runner. CI systems get
// basic ANSI colors; otherwise w itself is probed, so buffers and redirected
// files stay plain.
func ColorProfile(w io.Writer) termenv.Profile {
	switch {
	case os.Getenv("NO_COLOR") != "":
		return termenv.Ascii
	case os.Getenv("FORCE_COLOR") != "":
		return termenv.TrueColor
	case os.Getenv("CI") != "":
		return termenv.ANSI
	default:
		return termenv.NewOutput(w).EnvColorProfile()
	}
}

// New creates a termenv.Output writing to w (stderr when nil).
func New(w io.Writer, opts ...termenv.OutputOption) *termenv.Output {
	if w == nil {
		w = os.Stderr
	}

	opts = append(opts, termenv.WithProfile(ColorProfile(w)))
	if os.Getenv("FORCE_COLOR") != "" {
		opts = append(opts, termenv.WithTTY(true))
	}

	return termenv.NewOutput(w, opts...)
}

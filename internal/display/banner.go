// Package display renders the startup banner and human-readable sizes and
// durations for log output.
package display

import (
	"fmt"
	"io"

	"github.com/backmassage/cbzscan/internal/term"
)

const banner = `      _
  ___| |__ ___ ___  ___ __ _ _ __
 / __| '_ \_  / __|/ __/ _` + "`" + ` | '_ \
| (__| |_) / /\__ \ (_| (_| | | | |
 \___|_.__/___|___/\___\__,_|_| |_|
`

// PrintBanner writes the ASCII banner to w, in magenta when colors are on.
func PrintBanner(w io.Writer, version string) {
	fmt.Fprint(w, term.Paint(term.Magenta, banner))
	fmt.Fprintln(w, term.Paint(term.Dim, "  v"+version+"  corrupted WebP finder for CBZ archives"))
	fmt.Fprintln(w)
}

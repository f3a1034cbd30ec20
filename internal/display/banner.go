// Package display formats sizes, percentages, and bitrates for console
// output and prints the startup banner.
package display

import (
	"fmt"
	"io"

	"github.com/backmassage/vidconvert/internal/term"
)

// PrintBanner writes the ASCII art banner and version to w, in magenta when
// colors are enabled.
func PrintBanner(w io.Writer, version string) {
	art := `       _     _                                _
__   _(_) __| | ___ ___  _ ____   _____ _ __| |_
\ \ / / |/ _` + "`" + ` |/ __/ _ \| '_ \ \ / / _ \ '__| __|
 \ V /| | (_| | (_| (_) | | | \ V /  __/ |  | |_
  \_/ |_|\__,_|\___\___/|_| |_|\_/ \___|_|   \__|
`
	fmt.Fprint(w, term.Paint(term.Magenta, art))
	if version != "" {
		fmt.Fprintf(w, "  %s\n", version)
	}
	fmt.Fprintln(w)
}

// Command vidconvert converts a folder of videos into size-reduced MP4 files
// and validates the result.
package main

import (
	"os"

	"github.com/backmassage/vidconvert/cmd/vidconvert/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

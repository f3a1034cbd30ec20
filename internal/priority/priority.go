// Package priority lowers the scheduling priority of the running process so
// long batches can run in the background without hogging the machine.
package priority

import (
	"context"
	"os"
	"runtime"

	"github.com/shirou/gopsutil/v4/process"
)

// Background is the niceness used by the background-friendly mode.
const Background = 19

// Current returns the niceness of the running process.
func Current(ctx context.Context) (int32, error) {
	p, err := process.NewProcessWithContext(ctx, int32(os.Getpid()))
	if err != nil {
		return 0, err
	}
	v, err := p.NiceWithContext(ctx)
	if err != nil {
		return 0, err
	}
	return niceness(runtime.GOOS, v), nil
}

// niceness converts what gopsutil reports on goos to a niceness. The Linux
// getpriority syscall returns 20-nice so that the result is never negative.
func niceness(goos string, v int32) int32 {
	if goos == "linux" {
		return 20 - v
	}
	return v
}

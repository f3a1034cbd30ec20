//go:build unix

package priority

import (
	"fmt"
	"os"
	"strconv"
	"syscall"
)

// Set changes the niceness of the running process. Raising priority (a
// lower value) usually requires privileges.
func Set(nice int) error {
	if err := syscall.Setpriority(syscall.PRIO_PROCESS, 0, nice); err != nil {
		return fmt.Errorf("setpriority %d: %w", nice, err)
	}
	// Linux applies PRIO_PROCESS per thread; children inherit from whichever
	// thread forks them.
	for _, tid := range threadIDs() {
		_ = syscall.Setpriority(syscall.PRIO_PROCESS, tid, nice)
	}
	return nil
}

// threadIDs lists the thread IDs of the running process, or nil where
// /proc is unavailable.
func threadIDs() []int {
	entries, err := os.ReadDir("/proc/self/task")
	if err != nil {
		return nil
	}
	ids := make([]int, 0, len(entries))
	for _, e := range entries {
		if id, err := strconv.Atoi(e.Name()); err == nil {
			ids = append(ids, id)
		}
	}
	return ids
}

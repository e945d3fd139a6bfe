//go:build !windows

package atomicio

import (
	"os"
	"syscall"
)

// isProcessAlive checks if a process with the given PID is alive on Unix-like systems.
func isProcessAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return process.Signal(syscall.Signal(0)) == nil
}

//go:build linux || darwin

package watcher

import (
	"runtime"

	"golang.org/x/sys/unix"
)

// peakRSS returns the process high-water resident set size in bytes.
func peakRSS() uint64 {
	var ru unix.Rusage
	if err := unix.Getrusage(unix.RUSAGE_SELF, &ru); err != nil || ru.Maxrss <= 0 {
		return runtimeSys()
	}
	// Maxrss is bytes on darwin and kilobytes elsewhere.
	if runtime.GOOS == "darwin" {
		return uint64(ru.Maxrss)
	}
	return uint64(ru.Maxrss) * 1024
}

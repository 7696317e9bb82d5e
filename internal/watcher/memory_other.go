//go:build !linux && !darwin

package watcher

func peakRSS() uint64 {
	return runtimeSys()
}

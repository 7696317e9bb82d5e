package watcher

import (
	"math"
	"runtime"
)

// memoryMiB reports peak resident memory in MiB rounded to one decimal.
func memoryMiB() float64 {
	return math.Round(float64(peakRSS())/1024/1024*10) / 10
}

// runtimeSys is the memory obtained from the OS by the Go runtime.
func runtimeSys() uint64 {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	return ms.Sys
}

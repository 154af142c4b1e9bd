//go:build linux

package cpu

import (
	"runtime"

	"golang.org/x/sys/unix"
)

// setAffinity pins the current OS thread to one CPU core.
// Must be called after runtime.LockOSThread().
func setAffinity(cpuID int) error {
	numCPU := runtime.NumCPU()
	if cpuID < 0 || cpuID >= numCPU {
		cpuID = cpuID % numCPU
	}

	var mask unix.CPUSet
	mask.Zero()
	mask.Set(cpuID)

	return unix.SchedSetaffinity(0, &mask) // 0 = current thread
}

// Pin locks the calling goroutine to an OS thread and pins that thread
// to the core matching rank. The returned cleanup must be deferred by
// the worker.
func Pin(rank int) func() {
	runtime.LockOSThread()
	_ = setAffinity(rank)

	return func() {
		runtime.UnlockOSThread()
	}
}

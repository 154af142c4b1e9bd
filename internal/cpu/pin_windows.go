//go:build windows

package cpu

import (
	"runtime"
	"syscall"
)

var (
	kernel32              = syscall.NewLazyDLL("kernel32.dll")
	setThreadAffinityMask = kernel32.NewProc("SetThreadAffinityMask")
	getCurrentThread      = kernel32.NewProc("GetCurrentThread")
)

// setAffinity pins the current OS thread to one CPU core.
// Must be called after runtime.LockOSThread().
func setAffinity(cpuID int) error {
	numCPU := runtime.NumCPU()
	if cpuID < 0 || cpuID >= numCPU {
		cpuID = cpuID % numCPU
	}

	handle, _, _ := getCurrentThread.Call()

	// Bit N of the mask selects CPU N.
	mask := uintptr(1 << cpuID)

	prevMask, _, err := setThreadAffinityMask.Call(handle, mask)
	if prevMask == 0 {
		return err
	}
	return nil
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

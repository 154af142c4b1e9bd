//go:build darwin

package cpu

import (
	"runtime"
)

// Pin locks the calling goroutine to an OS thread. CPU pinning is not
// available on macOS, so thread identity is all we get.
func Pin(rank int) func() {
	runtime.LockOSThread()

	return func() {
		runtime.UnlockOSThread()
	}
}

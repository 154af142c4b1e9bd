// Package cpu resolves the effective parallelism of the host and, on
// platforms that support it, pins worker threads to cores.
package cpu

import (
	"os"
	"runtime"
	"strconv"
)

// CountEnv overrides the detected core count when set to a positive
// integer. OMP_NUM_THREADS is used so that one environment variable
// covers both this library and any OpenMP extensions it is mixed with.
const CountEnv = "OMP_NUM_THREADS"

// Count returns the default number of workers: the CountEnv override if
// it parses to a positive integer, otherwise the number of logical CPUs.
func Count() int {
	if v := os.Getenv(CountEnv); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return runtime.NumCPU()
}

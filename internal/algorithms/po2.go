package algorithms

// NextPowerOfTwo returns the smallest power of two >= n. For n <= 0 it
// returns 1.
func NextPowerOfTwo(n int) int {
	if n <= 0 {
		return 1
	}

	if n&(n-1) == 0 {
		return n
	}

	power := 1
	for power < n {
		power *= 2
	}
	return power
}

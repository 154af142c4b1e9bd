package split

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// Partitioning must cover every element exactly once, keep chunk sizes
// within one element of each other, and put the larger chunks first.
func TestSplitBalanceProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	properties.Property("chunks cover the sequence exactly", prop.ForAll(
		func(length, nchunks int) bool {
			data := make([]int, length)
			for i := range data {
				data[i] = i
			}

			chunks, err := Split([]Arg{Seq(data)}, NChunks(nchunks))
			if err != nil {
				return false
			}
			if len(chunks[0]) != nchunks {
				return false
			}

			next := 0
			for _, c := range chunks[0] {
				for _, v := range c.([]int) {
					if v != next {
						return false
					}
					next++
				}
			}
			return next == length
		},
		gen.IntRange(0, 500),
		gen.IntRange(1, 64),
	))

	properties.Property("chunk sizes differ by at most one, larger first", prop.ForAll(
		func(length, nchunks int) bool {
			chunks, err := Split([]Arg{Seq(make([]int, length))}, NChunks(nchunks))
			if err != nil {
				return false
			}

			sizes := make([]int, len(chunks[0]))
			for i, c := range chunks[0] {
				sizes[i] = len(c.([]int))
			}

			lo, hi := sizes[0], sizes[0]
			for i, s := range sizes {
				lo, hi = min(lo, s), max(hi, s)
				if i > 0 && s > sizes[i-1] {
					return false // larger chunks must come first
				}
			}
			return hi-lo <= 1
		},
		gen.IntRange(0, 500),
		gen.IntRange(1, 64),
	))

	properties.TestingRun(t)
}

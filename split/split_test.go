package split

import (
	"errors"
	"testing"

	"github.com/shmem-go/shmem/buffer"
)

func lengths(chunks []any) []int {
	out := make([]int, len(chunks))
	for i, c := range chunks {
		out[i] = len(c.([]int))
	}
	return out
}

func TestSplitBalance(t *testing.T) {
	cases := []struct {
		name    string
		length  int
		nchunks int
		want    []int
	}{
		{"10 into 3", 10, 3, []int{4, 3, 3}},
		{"9 into 3", 9, 3, []int{3, 3, 3}},
		{"1 into 4", 1, 4, []int{1, 0, 0, 0}},
		{"0 into 2", 0, 2, []int{0, 0}},
		{"7 into 7", 7, 7, []int{1, 1, 1, 1, 1, 1, 1}},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			data := make([]int, c.length)
			for i := range data {
				data[i] = i
			}

			chunks, err := Split([]Arg{Seq(data)}, NChunks(c.nchunks))
			if err != nil {
				t.Fatalf("Split: %v", err)
			}

			got := lengths(chunks[0])
			if len(got) != len(c.want) {
				t.Fatalf("expected %d chunks, got %d", len(c.want), len(got))
			}
			for i := range got {
				if got[i] != c.want[i] {
					t.Fatalf("chunk sizes %v, want %v", got, c.want)
				}
			}

			// No element dropped or duplicated, order preserved.
			next := 0
			for _, ch := range chunks[0] {
				for _, v := range ch.([]int) {
					if v != next {
						t.Fatalf("element %d out of place (got %d)", next, v)
					}
					next++
				}
			}
			if next != c.length {
				t.Fatalf("covered %d elements of %d", next, c.length)
			}
		})
	}
}

func TestSplitBroadcast(t *testing.T) {
	data := make([]float64, 10)
	chunks, err := Split([]Arg{Seq(data), Broadcast(1.5)}, NChunks(3))
	if err != nil {
		t.Fatalf("Split: %v", err)
	}

	if len(chunks[1]) != 3 {
		t.Fatalf("expected 3 broadcast chunks, got %d", len(chunks[1]))
	}
	for i, c := range chunks[1] {
		if c.(float64) != 1.5 {
			t.Errorf("broadcast chunk %d = %v, want 1.5", i, c)
		}
	}
}

func TestSplitLengthMismatch(t *testing.T) {
	_, err := Split([]Arg{Seq(make([]int, 10)), Seq(make([]int, 9))}, NChunks(2))
	if !errors.Is(err, ErrLengthMismatch) {
		t.Fatalf("expected ErrLengthMismatch, got %v", err)
	}
}

func TestSplitNoSequence(t *testing.T) {
	_, err := Split([]Arg{Broadcast(1), Broadcast("x")}, NChunks(2))
	if !errors.Is(err, ErrNoSequence) {
		t.Fatalf("expected ErrNoSequence, got %v", err)
	}
}

func TestSplitChunkSizeHint(t *testing.T) {
	data := make([]int, 100)

	chunks, err := Split([]Arg{Seq(data)}, ChunkSize(30))
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	// 100/30 -> 3 chunks.
	if len(chunks[0]) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks[0]))
	}

	// Hint larger than the data still yields one chunk.
	chunks, err = Split([]Arg{Seq(data)}, ChunkSize(1000))
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	if len(chunks[0]) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks[0]))
	}
}

func TestSplitNotSliceable(t *testing.T) {
	_, err := Split([]Arg{Seq(42)}, NChunks(2))
	if !errors.Is(err, ErrNotSliceable) {
		t.Fatalf("expected ErrNotSliceable, got %v", err)
	}
}

func TestOfClassification(t *testing.T) {
	if Of([]int{1, 2}).kind != kindSeq {
		t.Error("slice should classify as Seq")
	}
	if Of(3.14).kind != kindBroadcast {
		t.Error("scalar should classify as Broadcast")
	}
	if Of("text").kind != kindBroadcast {
		t.Error("string should classify as Broadcast")
	}
	b, err := buffer.Alloc(buffer.Float64, 4)
	if err != nil {
		t.Fatalf("Alloc: %v", err)
	}
	defer b.Close()
	if Of(b).kind != kindSeq {
		t.Error("buffer should classify as Seq")
	}
}

func TestZipSplitAlignment(t *testing.T) {
	xs := []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}
	ys := []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j"}

	tuples, err := ZipSplit([]Arg{Seq(xs), Seq(ys), Broadcast(-1)}, NChunks(3))
	if err != nil {
		t.Fatalf("ZipSplit: %v", err)
	}
	if len(tuples) != 3 {
		t.Fatalf("expected 3 tuples, got %d", len(tuples))
	}

	covered := 0
	for _, tup := range tuples {
		if len(tup) != 3 {
			t.Fatalf("expected tuples of 3 args, got %d", len(tup))
		}
		x := tup[0].([]int)
		y := tup[1].([]string)
		if len(x) != len(y) {
			t.Fatalf("misaligned chunk: %d ints vs %d strings", len(x), len(y))
		}
		if tup[2].(int) != -1 {
			t.Fatalf("broadcast arg corrupted: %v", tup[2])
		}
		covered += len(x)
	}
	if covered != len(xs) {
		t.Fatalf("tuples cover %d of %d elements", covered, len(xs))
	}
}

func TestSplitBufferAxis0(t *testing.T) {
	b, err := buffer.FromSlice([]int64{0, 1, 2, 3, 4, 5, 6})
	if err != nil {
		t.Fatalf("FromSlice: %v", err)
	}
	defer b.Close()

	chunks, err := Split([]Arg{Seq(b)}, NChunks(3))
	if err != nil {
		t.Fatalf("Split: %v", err)
	}

	wantLens := []int{3, 2, 2}
	next := int64(0)
	for i, c := range chunks[0] {
		view := c.(*buffer.Buffer)
		if view.Len() != wantLens[i] {
			t.Fatalf("chunk %d length %d, want %d", i, view.Len(), wantLens[i])
		}
		v, err := buffer.View[int64](view)
		if err != nil {
			t.Fatalf("View: %v", err)
		}
		for _, x := range v {
			if x != next {
				t.Fatalf("expected %d, got %d", next, x)
			}
			next++
		}
	}

	// Chunks are views: writing through one mutates the parent.
	first, _ := buffer.View[int64](chunks[0][0].(*buffer.Buffer))
	first[0] = 99
	pv, _ := buffer.View[int64](b)
	if pv[0] != 99 {
		t.Fatal("chunk view does not alias parent buffer")
	}
}

func TestSplitBufferInnerAxis(t *testing.T) {
	b, err := buffer.Alloc(buffer.Float64, 2, 6)
	if err != nil {
		t.Fatalf("Alloc: %v", err)
	}
	defer b.Close()

	chunks, err := Split([]Arg{SeqAxis(b, 1)}, NChunks(2))
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	for i, c := range chunks[0] {
		shape := c.(*buffer.Buffer).Shape()
		if shape[0] != 2 || shape[1] != 3 {
			t.Fatalf("chunk %d shape %v, want [2 3]", i, shape)
		}
	}
}

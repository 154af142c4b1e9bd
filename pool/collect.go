package pool

import "container/heap"

// indexed pairs a collected value with its original input index.
type indexed[R any] struct {
	index int
	value R
}

// indexHeap is a min-heap over original indices, used to restore input
// order in ordered mode after unordered collection.
type indexHeap[R any] []indexed[R]

func (h indexHeap[R]) Len() int           { return len(h) }
func (h indexHeap[R]) Less(i, j int) bool { return h[i].index < h[j].index }
func (h indexHeap[R]) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *indexHeap[R]) Push(x any) {
	*h = append(*h, x.(indexed[R]))
}

func (h *indexHeap[R]) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// assemble turns collected pairs into the returned slice: completion
// order as-is, or index order via the heap when ordered is set.
func assemble[R any](pairs []indexed[R], ordered bool) []R {
	out := make([]R, 0, len(pairs))

	if !ordered {
		for _, p := range pairs {
			out = append(out, p.value)
		}
		return out
	}

	h := indexHeap[R](pairs)
	heap.Init(&h)
	for h.Len() > 0 {
		out = append(out, heap.Pop(&h).(indexed[R]).value)
	}
	return out
}

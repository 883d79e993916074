package track

// scoredPair is a candidate assignment of one observation to one track.
type scoredPair struct {
	row   int
	col   int
	score float64
}

// Copied from container/heap - https://golang.org/pkg/container/heap/
// Why make copy? Just want to avoid type conversion.
// Ordered by score descending, so Pop returns the best pair first.

type scoreHeap []scoredPair

func (h scoreHeap) Len() int {
	return len(h)
}

func (h scoreHeap) Less(i, j int) bool {
	return h[i].score > h[j].score
}

func (h scoreHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
}

func (h *scoreHeap) Push(x scoredPair) {
	*h = append(*h, x)
	h.up(h.Len() - 1)
}

func (h *scoreHeap) Pop() scoredPair {
	n := h.Len() - 1
	h.Swap(0, n)
	h.down(0, n)
	old := *h
	item := old[n]
	*h = old[0:n]
	return item
}

func (h *scoreHeap) up(j int) {
	for {
		i := (j - 1) / 2 // parent
		if i == j || !h.Less(j, i) {
			break
		}
		h.Swap(i, j)
		j = i
	}
}

func (h *scoreHeap) down(i0, n int) bool {
	i := i0
	for {
		j1 := 2*i + 1
		if j1 >= n || j1 < 0 { // j1 < 0 after int overflow
			break
		}
		j := j1 // left child
		if j2 := j1 + 1; j2 < n && h.Less(j2, j1) {
			j = j2 // = 2*i + 2  // right child
		}
		if !h.Less(j, i) {
			break
		}
		h.Swap(i, j)
		i = j
	}
	return i > i0
}

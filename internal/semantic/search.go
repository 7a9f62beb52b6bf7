package semantic

import (
	"container/heap"
	"fmt"
)

// Dot computes the inner product of two equal-length vectors.
// On unit vectors this equals cosine similarity.
func Dot(a, b []float32) float32 {
	var sum float32
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

// Search returns, for each query, the k highest inner-product rows ordered by
// descending score (ties broken by lower row). k is clamped to Len().
//
// A query that is itself an indexed vector finds itself first with a score
// of about 1.0. Callers that want neighbors only must drop that hit.
func (idx *Index) Search(queries [][]float32, k int) ([][]Hit, error) {
	k = min(k, idx.n)
	results := make([][]Hit, len(queries))
	for qi, q := range queries {
		hits, err := idx.searchOne(q, k)
		if err != nil {
			return nil, fmt.Errorf("query %d: %w", qi, err)
		}
		results[qi] = hits
	}
	return results, nil
}

// SearchOne is Search for a single query.
func (idx *Index) SearchOne(query []float32, k int) ([]Hit, error) {
	return idx.searchOne(query, min(k, idx.n))
}

func (idx *Index) searchOne(query []float32, k int) ([]Hit, error) {
	if len(query) != idx.dims {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(query), idx.dims)
	}
	if k <= 0 {
		return []Hit{}, nil
	}

	h := make(minHeap, 0, k+1)
	for row := 0; row < idx.n; row++ {
		hit := Hit{Row: row, Score: Dot(query, idx.Row(row))}
		if len(h) < k {
			heap.Push(&h, hit)
			continue
		}
		if worse(h[0], hit) {
			h[0] = hit
			heap.Fix(&h, 0)
		}
	}

	out := make([]Hit, len(h))
	for i := len(out) - 1; i >= 0; i-- {
		out[i] = heap.Pop(&h).(Hit)
	}
	return out, nil
}

// worse reports whether a ranks below b.
func worse(a, b Hit) bool {
	if a.Score != b.Score {
		return a.Score < b.Score
	}
	return a.Row > b.Row
}

// minHeap keeps the current top-k with the weakest hit at the root.
type minHeap []Hit

func (h minHeap) Len() int           { return len(h) }
func (h minHeap) Less(i, j int) bool { return worse(h[i], h[j]) }
func (h minHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *minHeap) Push(x any)        { *h = append(*h, x.(Hit)) }
func (h *minHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

package semantic

import "fmt"

// Index is an immutable, exact inner-product index. Row i of the index is
// vector i of the slice passed to Build; callers keep their own parallel
// identifier list. Safe for concurrent reads.
type Index struct {
	dims int
	n    int
	data []float32 // row-major, n*dims
}

// Build copies vectors into a new index. All vectors must share one dimension.
func Build(vectors [][]float32) (*Index, error) {
	if len(vectors) == 0 {
		return nil, ErrEmptyIndex
	}
	dims := len(vectors[0])
	if dims == 0 {
		return nil, fmt.Errorf("%w: zero-length vector", ErrDimensionMismatch)
	}

	data := make([]float32, 0, len(vectors)*dims)
	for i, v := range vectors {
		if len(v) != dims {
			return nil, fmt.Errorf("%w: row %d has %d, want %d", ErrDimensionMismatch, i, len(v), dims)
		}
		data = append(data, v...)
	}

	return &Index{dims: dims, n: len(vectors), data: data}, nil
}

// Len returns the number of indexed vectors.
func (idx *Index) Len() int {
	return idx.n
}

// Dimensions returns the vector dimension.
func (idx *Index) Dimensions() int {
	return idx.dims
}

// Row returns a read-only view of the vector at row i.
func (idx *Index) Row(i int) []float32 {
	return idx.data[i*idx.dims : (i+1)*idx.dims]
}

// Rows returns read-only views of every indexed vector, in row order.
func (idx *Index) Rows() [][]float32 {
	rows := make([][]float32, idx.n)
	for i := range rows {
		rows[i] = idx.Row(i)
	}
	return rows
}

// ClampK bounds a neighbor count to Len()-1, the most neighbors any
// indexed vector can have once its self-match is removed.
func (idx *Index) ClampK(k int) int {
	return max(0, min(k, idx.n-1))
}

// Package semantic provides exact nearest-neighbor search over unit vectors.
package semantic

import "errors"

// Errors returned by index operations.
var (
	ErrEmptyIndex        = errors.New("no vectors to index")
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
)

// Hit is one search result: the row of the indexed vector and its inner
// product with the query.
type Hit struct {
	Row   int
	Score float32
}

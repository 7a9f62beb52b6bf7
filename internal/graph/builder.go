package graph

import (
	"context"
	"time"

	"github.com/icpc-trainer/probgraph/internal/problem"
)

// Builder turns a corpus into a neighbor graph. Every implementation
// produces the same artifact shape, so consumers never need to know which
// one ran.
type Builder interface {
	Build(ctx context.Context, in Input) (*Result, error)

	// Name identifies the strategy in logs and build reports.
	Name() string
}

// Input is everything a build consumes.
type Input struct {
	Corpus *problem.Corpus

	// Statements maps graph keys to scraped statement text. Missing entries
	// fall back to metadata-only text.
	Statements map[string]string

	// Curated holds the graph keys of the curated subset.
	Curated map[string]bool

	// K is the requested neighbor count; it is clamped to corpus size - 1.
	K int
}

// Result is the output of a successful build.
type Result struct {
	Graph *Graph

	// Embeddings and IDs are row-aligned: Embeddings[i] belongs to IDs[i].
	// Both are nil for builds that produce no vectors.
	Embeddings [][]float32
	IDs        []string

	Stats BuildStats
}

// BuildStats summarizes a build.
type BuildStats struct {
	Strategy      string        `json:"strategy"`
	Problems      int           `json:"problems"`
	WithStatement int           `json:"with_statement"`
	Edges         int           `json:"edges"`
	Duration      time.Duration `json:"duration"`
}

func (in Input) k() int {
	k := in.K
	if k <= 0 {
		k = DefaultK
	}
	return k
}

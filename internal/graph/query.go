package graph

import (
	"fmt"
	"math"
	"slices"

	"github.com/icpc-trainer/probgraph/internal/problem"
)

// Neighbor list limits for NeighborsOf.
const (
	DefaultNeighborLimit = 10
	MaxNeighborLimit     = 50
)

// Seed re-ranking parameters.
const (
	DefaultDifficultyRange = 200
	ProgressionStep        = 150
	ProgressionReward      = 0.05
	OverreachPenalty       = 0.02
)

// NeighborsOf returns up to limit neighbors of key, best first.
// limit is clamped to [1, MaxNeighborLimit]; zero means DefaultNeighborLimit.
func (g *Graph) NeighborsOf(key string, limit int) ([]Neighbor, error) {
	list, ok := g.Neighbors[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	switch {
	case limit <= 0:
		limit = DefaultNeighborLimit
	case limit > MaxNeighborLimit:
		limit = MaxNeighborLimit
	}
	return list[:min(limit, len(list))], nil
}

// Node is a curated problem in a subgraph.
type Node struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Rating int    `json:"rating"`
	Topic  string `json:"topic"`
}

// Edge is an undirected similarity edge between two curated problems.
type Edge struct {
	Source string  `json:"source"`
	Target string  `json:"target"`
	Score  float64 `json:"score"`
}

// Subgraph is the curated-only view of the graph, keyed by compact ids.
type Subgraph struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// CuratedSubgraph keeps only edges whose endpoints are both curated.
// A pair listed in both directions yields one edge, scored by whichever
// direction is visited first in curated order.
func (g *Graph) CuratedSubgraph(curated *problem.Corpus) Subgraph {
	sub := Subgraph{Nodes: []Node{}, Edges: []Edge{}}
	seen := make(map[[2]string]bool)

	for _, p := range curated.Problems {
		sub.Nodes = append(sub.Nodes, Node{
			ID:     p.ID.String(),
			Name:   p.Name,
			Rating: p.Rating,
			Topic:  p.Topic,
		})

		for _, nb := range g.Neighbors[p.Key()] {
			other, ok := curated.Get(nb.ID)
			if !ok {
				continue
			}
			a, b := p.ID.String(), other.ID.String()
			pair := [2]string{min(a, b), max(a, b)}
			if seen[pair] {
				continue
			}
			seen[pair] = true
			sub.Edges = append(sub.Edges, Edge{Source: a, Target: b, Score: nb.Score})
		}
	}
	return sub
}

// SeedOptions tunes SeedRecommend.
type SeedOptions struct {
	// Solved holds graph keys to leave out.
	Solved map[string]bool

	// Range is the widest rating gap from the seed. Zero means
	// DefaultDifficultyRange.
	Range int

	// Limit caps the result count. Zero means DefaultNeighborLimit.
	Limit int
}

// SeedResult is one curated suggestion derived from a seed problem.
type SeedResult struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Rating int     `json:"rating"`
	Topic  string  `json:"topic"`
	URL    string  `json:"url"`
	Score  float64 `json:"score"`
	Reason string  `json:"reason"`
}

// SeedRecommend suggests unsolved curated neighbors of a curated seed,
// favoring a small step up in difficulty. When the seed is unrated the
// difficulty filter and adjustments are skipped.
func (g *Graph) SeedRecommend(seedKey string, curated *problem.Corpus, opts SeedOptions) ([]SeedResult, error) {
	seed, ok := curated.Get(seedKey)
	if !ok {
		return nil, fmt.Errorf("%w: seed %s is not curated", ErrNotFound, seedKey)
	}
	neighbors := g.Neighbors[seedKey]
	if len(neighbors) == 0 {
		return nil, fmt.Errorf("%w: no neighbors for %s", ErrNotFound, seedKey)
	}

	rng := opts.Range
	if rng <= 0 {
		rng = DefaultDifficultyRange
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultNeighborLimit
	}

	out := []SeedResult{}
	for _, nb := range neighbors {
		p, ok := curated.Get(nb.ID)
		if !ok || opts.Solved[nb.ID] {
			continue
		}

		score := nb.Score
		diff := 0
		if seed.HasRating() {
			diff = p.Rating - seed.Rating
			if absInt(diff) > rng {
				continue
			}
			switch {
			case diff > ProgressionStep:
				score -= OverreachPenalty
			case diff > 0:
				score += ProgressionReward
			}
		}

		out = append(out, SeedResult{
			ID:     p.ID.String(),
			Name:   p.Name,
			Rating: p.Rating,
			Topic:  p.Topic,
			URL:    p.Link(),
			Score:  math.Round(score*1000) / 1000,
			Reason: seedReason(diff),
		})
	}

	slices.SortStableFunc(out, func(a, b SeedResult) int {
		return compareDesc(a.Score, b.Score)
	})
	return out[:min(limit, len(out))], nil
}

func seedReason(diff int) string {
	switch {
	case diff > 100:
		return fmt.Sprintf("Similar to the seed problem, but more challenging (+%d rating)", diff)
	case diff > 0:
		return fmt.Sprintf("Similar to the seed problem with slight progression (+%d rating)", diff)
	default:
		return "Highly similar to the seed problem"
	}
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

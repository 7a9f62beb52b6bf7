// Package graph builds and queries the problem similarity graph.
package graph

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// Build-strategy tags recorded in Meta.Type.
const (
	TypeFull        = "full"
	TypeCuratedOnly = "curated_only"
)

// DefaultK is the neighbor count per problem.
const DefaultK = 20

// ErrNotFound is returned when a key is not present in the graph.
var ErrNotFound = errors.New("problem not found in graph")

// ErrEmptyCorpus is returned when a build has no problems to work with.
var ErrEmptyCorpus = errors.New("no problems to build from")

// Meta describes a graph build.
type Meta struct {
	TotalProblems int       `json:"total_problems"`
	TotalEdges    int       `json:"total_edges"`
	K             int       `json:"k"`
	BuiltAt       time.Time `json:"built_at"`
	Type          string    `json:"type"`
	BuildID       string    `json:"build_id,omitempty"`
	Model         string    `json:"model,omitempty"`
	Fingerprint   string    `json:"fingerprint,omitempty"`
}

// Neighbor is one entry of a problem's neighbor list.
type Neighbor struct {
	ID         string   `json:"id"`
	Score      float64  `json:"score"`
	SharedTags []string `json:"shared_tags"`
}

// Graph maps every problem key to its neighbors, best first.
type Graph struct {
	Meta      Meta                  `json:"meta"`
	Neighbors map[string][]Neighbor `json:"neighbors"`
}

// New assembles a graph and fills in the derived counts.
func New(graphType string, k int, neighbors map[string][]Neighbor) *Graph {
	edges := 0
	for _, list := range neighbors {
		edges += len(list)
	}
	return &Graph{
		Meta: Meta{
			TotalProblems: len(neighbors),
			TotalEdges:    edges,
			K:             k,
			BuiltAt:       time.Now().UTC(),
			Type:          graphType,
		},
		Neighbors: neighbors,
	}
}

// Validate checks the structural invariants every consumer relies on:
// no self-edges, at most K neighbors, descending finite scores, and
// counts that agree with the neighbor map.
func (g *Graph) Validate() error {
	edges := 0
	for key, list := range g.Neighbors {
		if len(list) > g.Meta.K {
			return fmt.Errorf("%s: %d neighbors exceeds k=%d", key, len(list), g.Meta.K)
		}
		for i, nb := range list {
			if nb.ID == key {
				return fmt.Errorf("%s: lists itself as a neighbor", key)
			}
			if math.IsNaN(nb.Score) || math.IsInf(nb.Score, 0) {
				return fmt.Errorf("%s: non-finite score for %s", key, nb.ID)
			}
			if i > 0 && nb.Score > list[i-1].Score {
				return fmt.Errorf("%s: neighbors not sorted at position %d", key, i)
			}
		}
		edges += len(list)
	}
	if edges != g.Meta.TotalEdges {
		return fmt.Errorf("meta reports %d edges, found %d", g.Meta.TotalEdges, edges)
	}
	if len(g.Neighbors) != g.Meta.TotalProblems {
		return fmt.Errorf("meta reports %d problems, found %d", g.Meta.TotalProblems, len(g.Neighbors))
	}
	return nil
}

// roundScore rounds to four decimal places for the serialized artifact.
func roundScore(x float64) float64 {
	return math.Round(x*1e4) / 1e4
}

// Package boost re-ranks raw similarity scores with problem metadata.
//
// Adjustments are additive and uncapped, so boosted scores may exceed 1.0.
package boost

import (
	"slices"
	"sort"

	"github.com/icpc-trainer/probgraph/internal/problem"
)

const (
	// SharedTagBonus is added once per tag the two problems have in common.
	SharedTagBonus = 0.05

	// ProgressionBonus rewards same-topic problems a small rating step apart.
	ProgressionBonus = 0.03

	// ProgressionMaxDelta is the widest rating gap that still earns ProgressionBonus.
	ProgressionMaxDelta = 200

	// CuratedBonus is added when the neighbor belongs to the curated subset.
	CuratedBonus = 0.01
)

// SharedTags returns the sorted, de-duplicated intersection of two tag sets.
// The result is never nil.
func SharedTags(a, b []string) []string {
	in := make(map[string]bool, len(a))
	for _, t := range a {
		in[t] = true
	}
	shared := []string{}
	for _, t := range b {
		if in[t] {
			shared = append(shared, t)
			delete(in, t)
		}
	}
	sort.Strings(shared)
	return shared
}

// Score applies the three metadata adjustments to a raw similarity.
//
// The progression bonus needs at least one shared tag and both ratings known;
// an unrated problem has no meaningful rating gap.
func Score(raw float64, src, nb problem.Problem, shared []string, curated bool) float64 {
	score := raw + float64(len(shared))*SharedTagBonus
	if len(shared) > 0 && src.HasRating() && nb.HasRating() && absInt(src.Rating-nb.Rating) <= ProgressionMaxDelta {
		score += ProgressionBonus
	}
	if curated {
		score += CuratedBonus
	}
	return score
}

// Candidate is a neighbor before boosting.
type Candidate struct {
	Problem problem.Problem
	Raw     float64
}

// Scored is a neighbor after boosting.
type Scored struct {
	Problem    problem.Problem
	Score      float64
	SharedTags []string
}

// Booster applies Score to a source's candidate list and re-sorts it.
type Booster struct {
	// Curated holds graph keys of the curated subset.
	Curated map[string]bool
}

// Rerank boosts every candidate and returns them by descending boosted score.
// Equal scores keep their input order.
func (b Booster) Rerank(src problem.Problem, cands []Candidate) []Scored {
	out := make([]Scored, len(cands))
	for i, c := range cands {
		shared := SharedTags(src.Tags, c.Problem.Tags)
		out[i] = Scored{
			Problem:    c.Problem,
			Score:      Score(c.Raw, src, c.Problem, shared, b.Curated[c.Problem.Key()]),
			SharedTags: shared,
		}
	}
	slices.SortStableFunc(out, func(x, y Scored) int {
		switch {
		case x.Score > y.Score:
			return -1
		case x.Score < y.Score:
			return 1
		}
		return 0
	})
	return out
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

package graph

import (
	"context"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/icpc-trainer/probgraph/internal/logging"
	"github.com/icpc-trainer/probgraph/internal/problem"
)

// Weights of the metadata similarity terms. Their sum bounds the score at 1.
const (
	TopicWeight  = 0.5
	RatingWeight = 0.3
	NameWeight   = 0.2

	// RatingSigma is the standard deviation of the rating-gap decay.
	RatingSigma = 300.0

	// MaxMetadataK caps the neighbor count of metadata builds.
	MaxMetadataK = 20
)

// Similarity scores two problems from metadata alone, in [0, 1].
//
// Topic match counts only when both topics are present. The rating term
// needs both ratings known. The name term is a Jaccard overlap of
// lower-cased whitespace tokens and is zero when either name is empty.
func Similarity(a, b problem.Problem) float64 {
	score := 0.0
	if a.HasTopic() && a.Topic == b.Topic {
		score += TopicWeight
	}
	if a.HasRating() && b.HasRating() {
		d := float64(a.Rating - b.Rating)
		score += RatingWeight * math.Exp(-(d*d)/(2*RatingSigma*RatingSigma))
	}
	score += NameWeight * jaccard(nameTokens(a.Name), nameTokens(b.Name))
	return score
}

func nameTokens(name string) map[string]bool {
	fields := strings.Fields(strings.ToLower(name))
	set := make(map[string]bool, len(fields))
	for _, f := range fields {
		set[f] = true
	}
	return set
}

func jaccard(a, b map[string]bool) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	inter := 0
	for t := range a {
		if b[t] {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	return float64(inter) / float64(union)
}

// MetadataBuilder computes pairwise metadata similarity in O(N²).
// Suitable only for the curated subset, never the full corpus.
type MetadataBuilder struct {
	log zerolog.Logger
}

// NewMetadataBuilder returns a builder that needs no embedding backend.
func NewMetadataBuilder() *MetadataBuilder {
	return &MetadataBuilder{log: logging.Component("graph")}
}

// Name implements Builder.
func (b *MetadataBuilder) Name() string {
	return "metadata"
}

// Build implements Builder. It produces no embeddings, so the resulting
// artifacts cannot serve free-text queries.
func (b *MetadataBuilder) Build(ctx context.Context, in Input) (*Result, error) {
	start := time.Now()
	if in.Corpus == nil || in.Corpus.Len() == 0 {
		return nil, ErrEmptyCorpus
	}
	problems := in.Corpus.Problems
	n := len(problems)
	k := max(0, min(in.k(), MaxMetadataK, n-1))

	b.log.Info().Int("problems", n).Int("k", k).Msg("building metadata graph")

	type scored struct {
		pos   int
		score float64
	}

	neighbors := make(map[string][]Neighbor, n)
	row := make([]scored, 0, n-1)
	for i, src := range problems {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		row = row[:0]
		for j, other := range problems {
			if i == j {
				continue
			}
			row = append(row, scored{pos: j, score: Similarity(src, other)})
		}
		slices.SortStableFunc(row, func(x, y scored) int {
			return compareDesc(x.score, y.score)
		})

		list := make([]Neighbor, 0, k)
		for _, s := range row[:k] {
			nb := problems[s.pos]
			list = append(list, Neighbor{
				ID:         nb.Key(),
				Score:      roundScore(s.score),
				SharedTags: sharedTopic(src, nb),
			})
		}
		neighbors[src.Key()] = list
	}

	g := New(TypeCuratedOnly, k, neighbors)
	g.Meta.Fingerprint = problem.Fingerprint(problems)

	stats := BuildStats{
		Strategy: b.Name(),
		Problems: n,
		Edges:    g.Meta.TotalEdges,
		Duration: time.Since(start),
	}
	b.log.Info().Int("edges", stats.Edges).Dur("took", stats.Duration).Msg("graph built")

	return &Result{Graph: g, Stats: stats}, nil
}

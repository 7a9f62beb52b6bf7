package graph

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/rs/zerolog"

	"github.com/icpc-trainer/probgraph/internal/boost"
	"github.com/icpc-trainer/probgraph/internal/embedding"
	"github.com/icpc-trainer/probgraph/internal/logging"
	"github.com/icpc-trainer/probgraph/internal/problem"
	"github.com/icpc-trainer/probgraph/internal/semantic"
	"github.com/icpc-trainer/probgraph/internal/textrep"
)

// TopicMatchBonus is the boost the curated remote build gives to neighbors
// sharing the source's topic.
const TopicMatchBonus = 0.05

// reranker turns raw candidates of src into boosted, sorted neighbors.
type reranker func(src problem.Problem, cands []boost.Candidate, curated map[string]bool) []boost.Scored

// textFunc builds the embedding text for one problem.
type textFunc func(p problem.Problem, statement string) string

// EmbeddingBuilder runs the embed, index, search and boost pipeline.
type EmbeddingBuilder struct {
	service   *embedding.Service
	name      string
	graphType string
	text      textFunc
	rerank    reranker
	batchSize int
	maxK      int
	progress  embedding.ProgressFunc
	log       zerolog.Logger
}

// NewFullBuilder returns the full-corpus pipeline: statement-aware text and
// the tag, progression and curated boosts.
func NewFullBuilder(svc *embedding.Service) *EmbeddingBuilder {
	return &EmbeddingBuilder{
		service:   svc,
		name:      "full",
		graphType: TypeFull,
		text:      textrep.Build,
		rerank:    fullRerank,
		batchSize: embedding.DefaultBatchSize,
		log:       logging.Component("graph"),
	}
}

// NewCuratedEmbeddingBuilder returns the reduced pipeline used for the
// curated subset with a remote backend: topical text and a topic-match boost.
func NewCuratedEmbeddingBuilder(svc *embedding.Service) *EmbeddingBuilder {
	return &EmbeddingBuilder{
		service:   svc,
		name:      "curated-embedding",
		graphType: TypeCuratedOnly,
		text:      func(p problem.Problem, _ string) string { return textrep.BuildTopical(p) },
		rerank:    topicRerank,
		batchSize: 50,
		maxK:      MaxMetadataK,
		log:       logging.Component("graph"),
	}
}

// SetProgress registers a callback for embedding progress.
func (b *EmbeddingBuilder) SetProgress(fn embedding.ProgressFunc) {
	b.progress = fn
}

// SetBatchSize overrides the embedding batch size.
func (b *EmbeddingBuilder) SetBatchSize(n int) {
	b.batchSize = n
}

// Name implements Builder.
func (b *EmbeddingBuilder) Name() string {
	return b.name
}

// Build implements Builder. Any stage failure aborts the whole build.
func (b *EmbeddingBuilder) Build(ctx context.Context, in Input) (*Result, error) {
	start := time.Now()
	if in.Corpus == nil || in.Corpus.Len() == 0 {
		return nil, ErrEmptyCorpus
	}
	problems := in.Corpus.Problems

	provider, err := b.service.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("embedding backend: %w", err)
	}

	texts := make([]string, len(problems))
	withStatement := 0
	for i, p := range problems {
		stmt := in.Statements[p.Key()]
		if stmt != "" {
			withStatement++
		}
		texts[i] = b.text(p, stmt)
	}
	b.log.Info().
		Str("strategy", b.name).
		Int("problems", len(problems)).
		Int("with_statement", withStatement).
		Str("model", provider.ModelName()).
		Msg("embedding corpus")

	vectors, err := embedding.EmbedAll(ctx, provider, texts, b.batchSize, b.progress)
	if err != nil {
		return nil, fmt.Errorf("embedding corpus: %w", err)
	}

	idx, err := semantic.Build(vectors)
	if err != nil {
		return nil, fmt.Errorf("building index: %w", err)
	}

	// One extra hit per row leaves room for the self-match.
	k := idx.ClampK(in.k())
	if b.maxK > 0 {
		k = min(k, b.maxK)
	}
	hits, err := idx.Search(vectors, k+1)
	if err != nil {
		return nil, fmt.Errorf("searching neighbors: %w", err)
	}

	neighbors := make(map[string][]Neighbor, len(problems))
	for i, src := range problems {
		cands := make([]boost.Candidate, 0, k)
		for _, h := range hits[i] {
			if h.Row == i {
				continue
			}
			if len(cands) == k {
				break
			}
			cands = append(cands, boost.Candidate{Problem: problems[h.Row], Raw: float64(h.Score)})
		}
		neighbors[src.Key()] = toNeighbors(b.rerank(src, cands, in.Curated))
	}

	g := New(b.graphType, k, neighbors)
	g.Meta.Model = provider.ModelName()
	g.Meta.Fingerprint = problem.Fingerprint(problems)

	stats := BuildStats{
		Strategy:      b.name,
		Problems:      len(problems),
		WithStatement: withStatement,
		Edges:         g.Meta.TotalEdges,
		Duration:      time.Since(start),
	}
	b.log.Info().
		Int("problems", stats.Problems).
		Int("edges", stats.Edges).
		Dur("took", stats.Duration).
		Msg("graph built")

	return &Result{
		Graph:      g,
		Embeddings: vectors,
		IDs:        in.Corpus.Keys(),
		Stats:      stats,
	}, nil
}

func fullRerank(src problem.Problem, cands []boost.Candidate, curated map[string]bool) []boost.Scored {
	return boost.Booster{Curated: curated}.Rerank(src, cands)
}

// topicRerank adds TopicMatchBonus when both problems carry the same topic,
// which then doubles as the shared-tag list.
func topicRerank(src problem.Problem, cands []boost.Candidate, _ map[string]bool) []boost.Scored {
	out := make([]boost.Scored, len(cands))
	for i, c := range cands {
		s := boost.Scored{Problem: c.Problem, Score: c.Raw, SharedTags: sharedTopic(src, c.Problem)}
		if len(s.SharedTags) > 0 {
			s.Score += TopicMatchBonus
		}
		out[i] = s
	}
	slices.SortStableFunc(out, func(x, y boost.Scored) int {
		return compareDesc(x.Score, y.Score)
	})
	return out
}

func sharedTopic(a, b problem.Problem) []string {
	if a.HasTopic() && a.Topic == b.Topic {
		return []string{a.Topic}
	}
	return []string{}
}

func compareDesc(a, b float64) int {
	switch {
	case a > b:
		return -1
	case a < b:
		return 1
	}
	return 0
}

func toNeighbors(scored []boost.Scored) []Neighbor {
	out := make([]Neighbor, len(scored))
	for i, s := range scored {
		tags := s.SharedTags
		if tags == nil {
			tags = []string{}
		}
		out[i] = Neighbor{ID: s.Problem.Key(), Score: roundScore(s.Score), SharedTags: tags}
	}
	return out
}

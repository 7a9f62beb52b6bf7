package graph

import (
	"context"
	"errors"
	"hash/fnv"
	"math"
	"strings"
	"sync"
	"testing"

	"github.com/icpc-trainer/probgraph/internal/embedding"
	"github.com/icpc-trainer/probgraph/internal/problem"
)

// tableProvider returns fixed vectors keyed by the first text segment
// (the problem name), and hashed unit vectors for anything else.
type tableProvider struct {
	dims  int
	table map[string][]float32
	err   error

	mu    sync.Mutex
	texts []string
}

func (p *tableProvider) Embed(_ context.Context, texts []string) ([]embedding.Embedding, error) {
	if p.err != nil {
		return nil, p.err
	}
	p.mu.Lock()
	p.texts = append(p.texts, texts...)
	p.mu.Unlock()

	out := make([]embedding.Embedding, len(texts))
	for i, text := range texts {
		name, _, _ := strings.Cut(text, " | ")
		if v, ok := p.table[name]; ok {
			out[i] = embedding.Embedding{Vector: v}
			continue
		}
		out[i] = embedding.Embedding{Vector: hashVector(text, p.dims)}
	}
	return out, nil
}

func (p *tableProvider) ModelName() string { return "table" }
func (p *tableProvider) Dimensions() int   { return p.dims }

func hashVector(text string, dims int) []float32 {
	v := make([]float32, dims)
	for i := range v {
		h := fnv.New32a()
		h.Write([]byte{byte(i)})
		h.Write([]byte(text))
		v[i] = float32(h.Sum32()%2000)/1000 - 1
	}
	return embedding.Normalize(v)
}

func mustCorpus(t *testing.T, problems ...problem.Problem) *problem.Corpus {
	t.Helper()
	c, err := problem.NewCorpus(problems)
	if err != nil {
		t.Fatalf("NewCorpus: %v", err)
	}
	return c
}

func prob(contest int, index, name string, rating int, topic string, tags ...string) problem.Problem {
	return problem.Problem{
		ID:     problem.ID{Contest: contest, Index: index},
		Name:   name,
		Rating: rating,
		Topic:  topic,
		Tags:   tags,
	}
}

// syntheticCorpus returns n distinct problems spread over a few topics.
func syntheticCorpus(t *testing.T, n int) *problem.Corpus {
	t.Helper()
	topics := []string{"dp", "graphs", "math", "greedy"}
	problems := make([]problem.Problem, n)
	for i := range problems {
		topic := topics[i%len(topics)]
		problems[i] = prob(1000+i, "A", "Problem "+strings.Repeat("x", i%5)+topic, 800+100*(i%15), topic, topic)
	}
	return mustCorpus(t, problems...)
}

func assertInvariants(t *testing.T, g *Graph, k int) {
	t.Helper()
	if err := g.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	for key, list := range g.Neighbors {
		if len(list) > k {
			t.Errorf("%s has %d neighbors, want <= %d", key, len(list), k)
		}
		for _, nb := range list {
			if nb.ID == key {
				t.Errorf("%s lists itself", key)
			}
			if nb.SharedTags == nil {
				t.Errorf("%s -> %s has nil shared tags", key, nb.ID)
			}
			if math.IsNaN(nb.Score) {
				t.Errorf("%s -> %s NaN score", key, nb.ID)
			}
		}
	}
}

var errBackend = errors.New("backend down")

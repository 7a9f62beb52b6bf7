package embedding

import (
	"context"
	"errors"
	"hash/fnv"
)

// hashProvider is a deterministic provider for tests: each text maps to a
// pseudo-random unit vector derived from its hash.
type hashProvider struct {
	dims    int
	calls   int
	batches []int
	failAt  int // 1-based call number that fails; 0 never fails
}

func (h *hashProvider) Embed(_ context.Context, texts []string) ([]Embedding, error) {
	h.calls++
	h.batches = append(h.batches, len(texts))
	if h.failAt != 0 && h.calls == h.failAt {
		return nil, errors.Join(ErrUnavailable, errors.New("boom"))
	}
	out := make([]Embedding, len(texts))
	for i, t := range texts {
		f := fnv.New64a()
		f.Write([]byte(t))
		seed := f.Sum64()
		v := make([]float32, h.dims)
		for j := range v {
			seed = seed*6364136223846793005 + 1442695040888963407
			v[j] = float32(int64(seed>>33)%1000) / 1000
		}
		out[i] = Embedding{Vector: Normalize(v)}
	}
	return out, nil
}

func (h *hashProvider) ModelName() string { return "hash" }
func (h *hashProvider) Dimensions() int   { return h.dims }

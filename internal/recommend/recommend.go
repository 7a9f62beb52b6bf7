// Package recommend answers free-text queries against the persisted
// similarity index.
package recommend

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/icpc-trainer/probgraph/internal/artifact"
	"github.com/icpc-trainer/probgraph/internal/embedding"
	"github.com/icpc-trainer/probgraph/internal/logging"
	"github.com/icpc-trainer/probgraph/internal/problem"
	"github.com/icpc-trainer/probgraph/internal/semantic"
)

// ErrUnavailable means the index or the embedding backend cannot serve
// queries. It is never reported as an empty result.
var ErrUnavailable = errors.New("recommendation service unavailable")

const (
	// DefaultLimit is used when a request does not set one.
	DefaultLimit = 10

	// MinTextLength is the shortest trimmed text that is searched.
	MinTextLength = 10

	overfetchSlack = 40

	similarityWeight = 0.55
	difficultyWeight = 0.45

	// idealOffset places the ideal rating one notch above the target.
	idealOffset = 100
	sigmaEasier = 250.0
	sigmaHarder = 350.0
)

// Request is a free-text recommendation query.
type Request struct {
	Text         string
	Limit        int
	Exclude      []string
	TargetRating int
}

// Candidate is one recommended problem.
type Candidate struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Rating  int     `json:"rating"`
	Topic   string  `json:"topic"`
	URL     string  `json:"url"`
	Score   float64 `json:"score"`
	Impact  float64 `json:"impact"`
	Curated bool    `json:"curated"`
}

// RatingSource supplies best-effort ratings for problems outside the
// curated set, keyed by graph key.
type RatingSource interface {
	Ratings() (map[string]int, error)
}

// Service owns the loaded index for the life of the process. Loading is
// guarded so concurrent first queries share one attempt; a failed load is
// retried on the next query.
type Service struct {
	embedder *embedding.Service
	paths    artifact.Paths
	curated  *problem.Corpus
	ratings  RatingSource

	mu      sync.Mutex
	index   *semantic.Index
	ids     []string
	model   string
	ratingM map[string]int
}

// NewService creates a recommender. curated and ratings may be nil.
func NewService(embedder *embedding.Service, paths artifact.Paths, curated *problem.Corpus, ratings RatingSource) *Service {
	return &Service{
		embedder: embedder,
		paths:    paths,
		curated:  curated,
		ratings:  ratings,
	}
}

// EnsureReady loads the index and constructs the embedding backend.
func (s *Service) EnsureReady(ctx context.Context) error {
	if _, _, err := s.load(); err != nil {
		return err
	}
	if err := s.embedder.EnsureReady(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

func (s *Service) load() (*semantic.Index, []string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.index != nil {
		return s.index, s.ids, nil
	}

	bundle, err := artifact.LoadBundle(s.paths)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	idx, err := semantic.Build(bundle.Embeddings)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	ratings := map[string]int{}
	if s.ratings != nil {
		r, err := s.ratings.Ratings()
		if err != nil {
			logging.Warn().Err(err).Msg("rating cache unavailable; non-curated ratings unknown")
		} else {
			ratings = r
		}
	}

	s.index, s.ids, s.model, s.ratingM = idx, bundle.IDs, bundle.Model, ratings
	logging.Info().Int("rows", idx.Len()).Str("model", bundle.Model).Msg("similarity index loaded")
	return idx, bundle.IDs, nil
}

func (s *Service) builtWith() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.model
}

// Recommend returns up to Limit problems relevant to the text, ordered by
// descending impact. Text shorter than MinTextLength after trimming yields
// an empty result without touching the index.
func (s *Service) Recommend(ctx context.Context, req Request) ([]Candidate, error) {
	text := strings.TrimSpace(req.Text)
	if len([]rune(text)) < MinTextLength {
		return []Candidate{}, nil
	}
	limit := req.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}

	idx, ids, err := s.load()
	if err != nil {
		return nil, err
	}

	provider, err := s.embedder.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if model := s.builtWith(); model != "" && model != provider.ModelName() {
		logging.Warn().Str("index_model", model).Str("query_model", provider.ModelName()).Msg("query model differs from build model")
	}
	embs, err := provider.Embed(ctx, []string{text})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if len(embs) != 1 {
		return nil, fmt.Errorf("%w: backend returned %d embeddings", ErrUnavailable, len(embs))
	}

	exclude := excludeSet(req.Exclude)
	hits, err := idx.SearchOne(embs[0].Vector, SearchK(limit, len(exclude)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	out := make([]Candidate, 0, len(hits))
	for _, h := range hits {
		key := ids[h.Row]
		if exclude[key] {
			continue
		}
		c := s.enrich(key)
		c.Score = round4(float64(h.Score))
		c.Impact = c.Score
		if req.TargetRating > 0 {
			c.Impact = round4(Impact(float64(h.Score), DifficultyFactor(c.Rating, req.TargetRating)))
		}
		out = append(out, c)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Impact > out[j].Impact
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// enrich attaches metadata. Curated problems carry full metadata; others
// get a cached rating and a constructed URL.
func (s *Service) enrich(key string) Candidate {
	if s.curated != nil {
		if p, ok := s.curated.Get(key); ok {
			return Candidate{
				ID:      p.ID.String(),
				Name:    p.Name,
				Rating:  p.Rating,
				Topic:   p.Topic,
				URL:     p.Link(),
				Curated: true,
			}
		}
	}

	c := Candidate{ID: problem.KeyToCompact(key), Rating: s.ratingM[key]}
	if id, err := problem.ParseID(c.ID); err == nil {
		c.URL = id.URL()
	}
	return c
}

// excludeSet normalizes compact ids and graph keys to graph keys.
func excludeSet(ids []string) map[string]bool {
	out := make(map[string]bool, len(ids))
	for _, raw := range ids {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		if id, err := problem.ParseID(raw); err == nil {
			out[id.Key()] = true
			continue
		}
		out[raw] = true
	}
	return out
}

// SearchK is how many candidates are fetched to survive exclusion.
func SearchK(limit, excluded int) int {
	return max(3*limit, limit+excluded+overfetchSlack)
}

// DifficultyFactor scores how well a rating fits a target: an asymmetric
// Gaussian centered one notch above the target. The easy side is narrower
// (sigma 250) than the hard side (sigma 350). Unknown ratings are neutral.
func DifficultyFactor(rating, target int) float64 {
	if rating <= 0 {
		return 0.5
	}
	ideal := float64(target + idealOffset)
	d := float64(rating) - ideal
	sigma := sigmaHarder
	if d < 0 {
		sigma = sigmaEasier
	}
	return math.Exp(-(d * d) / (2 * sigma * sigma))
}

// Impact fuses similarity with difficulty fit.
func Impact(similarity, difficulty float64) float64 {
	return similarityWeight*similarity + difficultyWeight*difficulty
}

func round4(v float64) float64 {
	return math.Round(v*1e4) / 1e4
}

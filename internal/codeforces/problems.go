package codeforces

import (
	"context"
	"fmt"

	"github.com/icpc-trainer/probgraph/internal/problem"
)

type apiProblem struct {
	ContestID int      `json:"contestId"`
	Index     string   `json:"index"`
	Name      string   `json:"name"`
	Rating    int      `json:"rating"`
	Tags      []string `json:"tags"`
}

type apiStatistic struct {
	ContestID   int    `json:"contestId"`
	Index       string `json:"index"`
	SolvedCount int    `json:"solvedCount"`
}

type problemsetResult struct {
	Problems   []apiProblem   `json:"problems"`
	Statistics []apiStatistic `json:"problemStatistics"`
}

// FetchStats summarizes a corpus fetch.
type FetchStats struct {
	Total     int `json:"total"`
	Kept      int `json:"kept"`
	MinRating int `json:"min_rating"`
	MaxRating int `json:"max_rating"`
}

// FetchProblems downloads the problemset and keeps rated, non-gym problems
// with their solve counts attached.
func (c *Client) FetchProblems(ctx context.Context) ([]problem.Problem, FetchStats, error) {
	var res problemsetResult
	if err := c.call(ctx, "problemset.problems", nil, &res); err != nil {
		return nil, FetchStats{}, fmt.Errorf("fetching problemset: %w", err)
	}

	solved := make(map[problem.ID]int, len(res.Statistics))
	for _, s := range res.Statistics {
		solved[problem.ID{Contest: s.ContestID, Index: s.Index}] = s.SolvedCount
	}

	stats := FetchStats{Total: len(res.Problems)}
	out := make([]problem.Problem, 0, len(res.Problems))
	seen := make(map[problem.ID]bool, len(res.Problems))
	for _, p := range res.Problems {
		id := problem.ID{Contest: p.ContestID, Index: p.Index}
		if p.Rating <= 0 || id.IsGym() || seen[id] {
			continue
		}
		seen[id] = true

		out = append(out, problem.Problem{
			ID:          id,
			Name:        p.Name,
			Rating:      p.Rating,
			Tags:        p.Tags,
			SolvedCount: solved[id],
		})

		if stats.MinRating == 0 || p.Rating < stats.MinRating {
			stats.MinRating = p.Rating
		}
		stats.MaxRating = max(stats.MaxRating, p.Rating)
	}
	stats.Kept = len(out)

	c.log.Info().Int("total", stats.Total).Int("kept", stats.Kept).Msg("fetched problemset")
	return out, stats, nil
}

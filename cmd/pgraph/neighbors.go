package main

import (
	"github.com/spf13/cobra"

	"github.com/icpc-trainer/probgraph/internal/graph"
	"github.com/icpc-trainer/probgraph/internal/problem"
)

var neighborsLimit int

func init() {
	neighborsCmd.Flags().IntVarP(&neighborsLimit, "limit", "l", graph.DefaultNeighborLimit, "Maximum number of neighbors (1-50)")
	rootCmd.AddCommand(neighborsCmd)
}

// NeighborResult is one enriched neighbor.
type NeighborResult struct {
	ID         string   `json:"id"`
	Name       string   `json:"name,omitempty"`
	Rating     int      `json:"rating,omitempty"`
	Topic      string   `json:"topic,omitempty"`
	URL        string   `json:"url"`
	Score      float64  `json:"score"`
	SharedTags []string `json:"shared_tags"`
}

// NeighborsResponse is the response for the neighbors command.
type NeighborsResponse struct {
	ID        string           `json:"id"`
	Neighbors []NeighborResult `json:"neighbors"`
	Meta      graph.Meta       `json:"meta"`
}

var neighborsCmd = &cobra.Command{
	Use:   "neighbors <id>",
	Short: "List the most similar problems",
	Long: `List the nearest neighbors of a problem from the built graph.

The id may be compact (1352C) or a graph key (1352/C).`,
	Args: cobra.ExactArgs(1),
	RunE: runNeighbors,
}

func runNeighbors(cmd *cobra.Command, args []string) error {
	key := mustResolveKey(args[0])
	g := mustLoadGraph()

	list, err := g.NeighborsOf(key, neighborsLimit)
	exitOnError(err, "neighbors")

	curated := mustLoadCurated()
	db := mustOpenDatabase()
	defer db.Close()

	results := make([]NeighborResult, 0, len(list))
	for _, nb := range list {
		r := NeighborResult{
			ID:         problem.KeyToCompact(nb.ID),
			Score:      nb.Score,
			SharedTags: nb.SharedTags,
		}
		if p, ok := lookupProblem(nb.ID, curated, db); ok {
			r.Name, r.Rating, r.Topic, r.URL = p.Name, p.Rating, p.Topic, p.Link()
		} else if id, err := problem.ParseID(nb.ID); err == nil {
			r.URL = id.URL()
		}
		results = append(results, r)
	}

	if humanOutput {
		outputHuman("Neighbors of %s (%s graph, k=%d)\n\n", problem.KeyToCompact(key), g.Meta.Type, g.Meta.K)
		for i, r := range results {
			outputHuman("%2d. %-8s %6.3f  %-40s  %5s  %s\n",
				i+1, r.ID, r.Score, truncate(r.Name, NameMaxLen), ratingString(r.Rating), joinTags(r.SharedTags))
		}
		return nil
	}
	return outputJSON(NeighborsResponse{ID: problem.KeyToCompact(key), Neighbors: results, Meta: g.Meta})
}

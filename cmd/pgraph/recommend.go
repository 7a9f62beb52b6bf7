package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/icpc-trainer/probgraph/internal/recommend"
)

var (
	recommendLimit   int
	recommendExclude string
	recommendTarget  int
)

func init() {
	recommendCmd.Flags().IntVarP(&recommendLimit, "limit", "l", recommend.DefaultLimit, "Maximum number of results")
	recommendCmd.Flags().StringVarP(&recommendExclude, "exclude", "x", "", "Comma-separated ids to leave out (e.g. already solved)")
	recommendCmd.Flags().IntVarP(&recommendTarget, "target", "t", 0, "Target rating for difficulty-aware ranking (0 = off)")
	rootCmd.AddCommand(recommendCmd)
}

// RecommendResponse is the response for the recommend command.
type RecommendResponse struct {
	Query        string                `json:"query"`
	TargetRating int                   `json:"target_rating,omitempty"`
	Results      []recommend.Candidate `json:"results"`
	Total        int                   `json:"total"`
}

var recommendCmd = &cobra.Command{
	Use:   "recommend <text>",
	Short: "Recommend problems for a free-text note",
	Long: `Embed a note or journal entry and return the most relevant problems.

With --target, results are re-ranked by how well their rating fits one
step above the target. Text shorter than 10 characters returns nothing.

Requires an embedding build ('pgraph build --strategy full', or a curated
build with HF_API_TOKEN set).`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRecommend,
}

func runRecommend(cmd *cobra.Command, args []string) error {
	text := strings.Join(args, " ")

	g := mustLoadGraph()
	curated := mustLoadCurated()
	db := mustOpenDatabase()
	defer db.Close()

	var exclude []string
	for _, id := range strings.Split(recommendExclude, ",") {
		if id = strings.TrimSpace(id); id != "" {
			exclude = append(exclude, id)
		}
	}

	svc := recommend.NewService(queryEmbedder(g.Meta.Model), paths.Artifacts, curated, db)
	results, err := svc.Recommend(cmd.Context(), recommend.Request{
		Text:         text,
		Limit:        recommendLimit,
		Exclude:      exclude,
		TargetRating: recommendTarget,
	})
	exitOnError(err, "recommend")

	if humanOutput {
		if len(results) == 0 {
			outputHuman("No recommendations (text too short?)\n")
			return nil
		}
		for i, r := range results {
			outputHuman("%2d. %-8s impact %.3f  sim %.3f  %-40s  %5s  %s\n",
				i+1, r.ID, r.Impact, r.Score, truncate(r.Name, NameMaxLen), ratingString(r.Rating), r.Topic)
		}
		return nil
	}
	return outputJSON(RecommendResponse{
		Query:        text,
		TargetRating: recommendTarget,
		Results:      results,
		Total:        len(results),
	})
}

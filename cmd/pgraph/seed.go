package main

import (
	"github.com/spf13/cobra"

	"github.com/icpc-trainer/probgraph/internal/graph"
	"github.com/icpc-trainer/probgraph/internal/logging"
	"github.com/icpc-trainer/probgraph/internal/problem"
)

var (
	seedSolved string
	seedRange  int
	seedLimit  int
)

func init() {
	seedCmd.Flags().StringVar(&seedSolved, "solved", "", "Comma-separated ids already solved")
	seedCmd.Flags().IntVarP(&seedRange, "range", "r", graph.DefaultDifficultyRange, "Maximum rating gap from the seed")
	seedCmd.Flags().IntVarP(&seedLimit, "limit", "l", graph.DefaultNeighborLimit, "Maximum number of suggestions")
	rootCmd.AddCommand(seedCmd)
}

// SeedResponse is the response for the seed command.
type SeedResponse struct {
	Seed    string             `json:"seed"`
	Results []graph.SeedResult `json:"results"`
	Total   int                `json:"total"`
}

var seedCmd = &cobra.Command{
	Use:   "seed <id>",
	Short: "Suggest curated follow-ups to a curated problem",
	Long: `Suggest unsolved curated problems similar to a curated seed, preferring
a small step up in difficulty.

Examples:
  pgraph seed 455A
  pgraph seed 455A --solved 4A,71A --range 300`,
	Args: cobra.ExactArgs(1),
	RunE: runSeed,
}

func runSeed(cmd *cobra.Command, args []string) error {
	key := mustResolveKey(args[0])
	solved, bad := parseIDList(seedSolved)
	if len(bad) > 0 {
		logging.Warn().Strs("ids", bad).Msg("ignoring malformed solved ids")
	}

	g := mustLoadGraph()
	curated := mustLoadCurated()

	results, err := g.SeedRecommend(key, curated, graph.SeedOptions{
		Solved: solved,
		Range:  seedRange,
		Limit:  seedLimit,
	})
	exitOnError(err, "seed")

	if humanOutput {
		outputHuman("Suggestions after %s\n\n", problem.KeyToCompact(key))
		for i, r := range results {
			outputHuman("%2d. %-8s %6.3f  %-40s  %5s  %s\n",
				i+1, r.ID, r.Score, truncate(r.Name, NameMaxLen), ratingString(r.Rating), r.Reason)
		}
		if len(results) == 0 {
			outputHuman("No unsolved curated neighbors within %d rating.\n", seedRange)
		}
		return nil
	}
	return outputJSON(SeedResponse{Seed: problem.KeyToCompact(key), Results: results, Total: len(results)})
}

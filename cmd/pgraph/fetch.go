package main

import (
	"github.com/spf13/cobra"

	"github.com/icpc-trainer/probgraph/internal/codeforces"
	"github.com/icpc-trainer/probgraph/internal/problem"
)

func init() {
	rootCmd.AddCommand(fetchCmd)
}

// FetchResponse is the response for the fetch command.
type FetchResponse struct {
	codeforces.FetchStats
	Path string `json:"path"`
}

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download the rated problemset",
	Long: `Download every rated, non-gym problem from the Codeforces API and save it
as the raw corpus. Ratings and tags are mirrored into the local cache so
recommendations can enrich problems outside the curated set.`,
	Args: cobra.NoArgs,
	RunE: runFetch,
}

func runFetch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	problems, stats, err := codeforces.NewClient().FetchProblems(ctx)
	if err != nil {
		exitWithError(ExitUnavailable, "fetching problemset: %v", err)
	}

	if err := problem.SaveRaw(paths.Raw, problems); err != nil {
		exitWithError(ExitError, "saving raw corpus: %v", err)
	}

	db := mustOpenDatabase()
	defer db.Close()
	if err := db.ReplaceProblems(problems); err != nil {
		exitWithError(ExitError, "caching problems: %v", err)
	}

	if humanOutput {
		outputHuman("Fetched %d problems, kept %d (ratings %d-%d)\n", stats.Total, stats.Kept, stats.MinRating, stats.MaxRating)
		outputHuman("Saved to %s\n", paths.Raw)
		return nil
	}
	return outputJSON(FetchResponse{FetchStats: stats, Path: paths.Raw})
}

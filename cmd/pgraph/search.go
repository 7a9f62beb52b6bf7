package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/icpc-trainer/probgraph/internal/problem"
)

var searchLimit int

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "l", 20, "Maximum number of results")
	rootCmd.AddCommand(searchCmd)
}

// SearchResult is one statement match.
type SearchResult struct {
	ID      string `json:"id"`
	Snippet string `json:"snippet"`
}

// SearchResponse is the response for the search command.
type SearchResponse struct {
	Query   string         `json:"query"`
	Results []SearchResult `json:"results"`
	Total   int            `json:"total"`
}

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Keyword search over cached statements",
	Long: `Full-text search over the statement cache filled by 'pgraph scrape'.
Results are ordered by relevance.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := strings.TrimSpace(strings.Join(args, " "))
	if query == "" {
		exitWithError(ExitError, "Search query cannot be empty")
	}

	db := mustOpenDatabase()
	defer db.Close()

	hits, err := db.SearchStatements(query, searchLimit)
	if err != nil {
		exitWithError(ExitError, "searching statements: %v", err)
	}

	results := make([]SearchResult, 0, len(hits))
	for _, h := range hits {
		results = append(results, SearchResult{ID: problem.KeyToCompact(h.Key), Snippet: h.Snippet})
	}

	if humanOutput {
		outputHuman("Found %d statements matching %q\n\n", len(results), query)
		for _, r := range results {
			outputHuman("%-8s %s\n", r.ID, r.Snippet)
		}
		return nil
	}
	return outputJSON(SearchResponse{Query: query, Results: results, Total: len(results)})
}

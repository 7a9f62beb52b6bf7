package main

import (
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(subgraphCmd)
}

var subgraphCmd = &cobra.Command{
	Use:   "subgraph",
	Short: "Print the curated-only subgraph",
	Long: `Print the curated problems and the similarity edges between them.
Each undirected pair appears once.`,
	Args: cobra.NoArgs,
	RunE: runSubgraph,
}

func runSubgraph(cmd *cobra.Command, args []string) error {
	g := mustLoadGraph()
	sub := g.CuratedSubgraph(mustLoadCurated())

	if humanOutput {
		outputHuman("%d curated problems, %d edges\n", len(sub.Nodes), len(sub.Edges))
		for _, e := range sub.Edges {
			outputHuman("  %-8s %-8s %.3f\n", e.Source, e.Target, e.Score)
		}
		return nil
	}
	return outputJSON(sub)
}

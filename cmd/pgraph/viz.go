package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/icpc-trainer/probgraph/internal/viz"
)

var vizOutput string
var vizLayout string

func init() {
	vizCmd.Flags().StringVarP(&vizOutput, "output", "o", "", "Output file path (default: stdout)")
	vizCmd.Flags().StringVar(&vizLayout, "layout", "force", "Layout algorithm: force, circle, or grid")
	rootCmd.AddCommand(vizCmd)
}

var vizCmd = &cobra.Command{
	Use:   "viz",
	Short: "Generate curated graph visualization",
	Long: `Generate an interactive HTML visualization of the curated subgraph.

Nodes are colored by topic and sized by degree; edge weight follows the
similarity score.

Examples:
  # Generate HTML to stdout
  pgraph viz > graph.html

  # Generate to file with a circular layout
  pgraph viz --layout circle --output graph.html`,
	RunE: runViz,
}

func runViz(cmd *cobra.Command, args []string) error {
	g := mustLoadGraph()
	data := viz.FromSubgraph(g.CuratedSubgraph(mustLoadCurated()))

	opts := viz.DefaultOptions()
	opts.Layout = vizLayout
	html, err := viz.GenerateHTML(data, opts)
	if err != nil {
		return fmt.Errorf("generating HTML: %w", err)
	}

	if vizOutput == "" {
		fmt.Print(html)
		return nil
	}
	if err := os.WriteFile(vizOutput, []byte(html), 0644); err != nil {
		return fmt.Errorf("writing output file: %w", err)
	}
	if humanOutput {
		outputHuman("Visualization written to %s\n", vizOutput)
		return nil
	}
	return outputJSON(StatusResponse{Status: "written", Path: vizOutput})
}

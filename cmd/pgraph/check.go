package main

import (
	"errors"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/icpc-trainer/probgraph/internal/artifact"
	"github.com/icpc-trainer/probgraph/internal/graph"
	"github.com/icpc-trainer/probgraph/internal/problem"
)

// Health states reported by check.
const (
	HealthHealthy = "healthy"
	HealthStale   = "stale"
	HealthBroken  = "broken"
)

func init() {
	rootCmd.AddCommand(checkCmd)
}

// CheckResponse is the response for the check command.
type CheckResponse struct {
	Status           string    `json:"status"`
	Type             string    `json:"type"`
	BuildID          string    `json:"build_id"`
	Model            string    `json:"model,omitempty"`
	BuiltAt          time.Time `json:"built_at"`
	TotalProblems    int       `json:"total_problems"`
	TotalEdges       int       `json:"total_edges"`
	EmbeddingRows    int       `json:"embedding_rows"`
	FingerprintMatch bool      `json:"fingerprint_match"`
	SizeBytes        int64     `json:"size_bytes"`
	Problems         []string  `json:"problems,omitempty"`
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify the built artifacts",
	Long: `Load graph.json and, for embedding builds, the embeddings and id list.
Verifies they share a build id and are row-aligned, validates the graph
invariants, and compares the stored corpus fingerprint with the corpus on
disk.

Status is healthy, stale (corpus changed since the build) or broken.`,
	Args: cobra.NoArgs,
	RunE: runCheck,
}

func runCheck(cmd *cobra.Command, args []string) error {
	g := mustLoadGraph()
	resp := checkArtifacts(g, paths.Artifacts, corpusFor(g))

	if humanOutput {
		outputHuman("Status:   %s\n", resp.Status)
		outputHuman("Type:     %s\n", resp.Type)
		outputHuman("Build:    %s (%s)\n", resp.BuildID, resp.BuiltAt.Format(time.RFC3339))
		if resp.Model != "" {
			outputHuman("Model:    %s\n", resp.Model)
		}
		outputHuman("Problems: %d, edges: %d, embedding rows: %d\n", resp.TotalProblems, resp.TotalEdges, resp.EmbeddingRows)
		for _, p := range resp.Problems {
			outputHuman("  - %s\n", p)
		}
	} else {
		outputJSON(resp)
	}

	if resp.Status == HealthBroken {
		os.Exit(ExitConfigError)
	}
	return nil
}

// corpusFor loads the corpus the graph was built from, or nil if missing.
func corpusFor(g *graph.Graph) *problem.Corpus {
	if g.Meta.Type == graph.TypeFull {
		c, err := problem.LoadRaw(paths.Raw)
		if err != nil {
			return nil
		}
		return c
	}
	c, _, err := problem.LoadCurated(paths.Curated)
	if err != nil {
		return nil
	}
	return c
}

// checkArtifacts inspects a loaded graph against its siblings and corpus.
func checkArtifacts(g *graph.Graph, p artifact.Paths, corpus *problem.Corpus) CheckResponse {
	resp := CheckResponse{
		Status:        HealthHealthy,
		Type:          g.Meta.Type,
		BuildID:       g.Meta.BuildID,
		Model:         g.Meta.Model,
		BuiltAt:       g.Meta.BuiltAt,
		TotalProblems: g.Meta.TotalProblems,
		TotalEdges:    g.Meta.TotalEdges,
		SizeBytes:     artifact.Size(p),
	}

	if err := g.Validate(); err != nil {
		resp.Status = HealthBroken
		resp.Problems = append(resp.Problems, err.Error())
	}

	bundle, err := artifact.LoadBundle(p)
	switch {
	case err == nil:
		resp.EmbeddingRows = len(bundle.IDs)
		if len(bundle.IDs) != g.Meta.TotalProblems {
			resp.Status = HealthBroken
			resp.Problems = append(resp.Problems, "embedding rows do not match graph size")
		}
	case errors.Is(err, artifact.ErrNotFound) && g.Meta.Model == "":
		// Metadata builds have no embeddings.
	default:
		resp.Status = HealthBroken
		resp.Problems = append(resp.Problems, err.Error())
	}

	switch {
	case corpus == nil:
		resp.Problems = append(resp.Problems, "source corpus missing; cannot compare fingerprint")
	case g.Meta.Fingerprint == "":
		resp.Problems = append(resp.Problems, "graph has no fingerprint")
	default:
		resp.FingerprintMatch = problem.Fingerprint(corpus.Problems) == g.Meta.Fingerprint
		if !resp.FingerprintMatch {
			resp.Problems = append(resp.Problems, "corpus changed since build")
			if resp.Status == HealthHealthy {
				resp.Status = HealthStale
			}
		}
	}
	return resp
}

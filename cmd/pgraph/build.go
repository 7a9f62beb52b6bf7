package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/icpc-trainer/probgraph/internal/artifact"
	"github.com/icpc-trainer/probgraph/internal/embedding"
	"github.com/icpc-trainer/probgraph/internal/graph"
	"github.com/icpc-trainer/probgraph/internal/logging"
	"github.com/icpc-trainer/probgraph/internal/problem"
	"github.com/icpc-trainer/probgraph/internal/scraper"
	"github.com/icpc-trainer/probgraph/internal/storage"
)

var (
	buildStrategy   string
	buildK          int
	buildSkipScrape bool
	buildForce      bool
)

func init() {
	buildCmd.Flags().StringVarP(&buildStrategy, "strategy", "s", "auto", "Build strategy: auto, full or curated")
	buildCmd.Flags().IntVarP(&buildK, "k", "k", 0, "Neighbors per problem (default: config k or 20)")
	buildCmd.Flags().BoolVar(&buildSkipScrape, "skip-scrape", false, "Use cached statements only; do not scrape before a full build")
	buildCmd.Flags().BoolVarP(&buildForce, "force", "f", false, "Rebuild even if a graph already exists")
	rootCmd.AddCommand(buildCmd)
}

// BuildResponse is the response for the build command.
type BuildResponse struct {
	Status  string           `json:"status"`
	Plan    graph.Plan       `json:"plan,omitempty"`
	Reason  string           `json:"reason,omitempty"`
	BuildID string           `json:"build_id,omitempty"`
	Meta    *graph.Meta      `json:"meta,omitempty"`
	Stats   graph.BuildStats `json:"stats"`
}

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build the similarity graph",
	Long: `Build graph.json, embeddings.gob and problem_ids.json.

Strategies:
  full     embed the whole raw corpus with the local model (Ollama)
  curated  build over the curated set only: remote embeddings when an
           HF_API_TOKEN is configured, metadata similarity otherwise
  auto     full when the local model and raw corpus are available,
           curated otherwise

Without --force, an existing graph is kept unless --strategy full is given.
A failed build leaves the previous artifacts in place.`,
	Args: cobra.NoArgs,
	RunE: runBuild,
}

func runBuild(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	strategy, err := graph.ParseStrategy(buildStrategy)
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}

	if !buildForce && strategy != graph.StrategyFull && artifact.Exists(paths.Artifacts) {
		logging.Info().Str("path", paths.Artifacts.Graph).Msg("graph exists; skipping build (use --force to rebuild)")
		return outputBuild(BuildResponse{Status: "skipped", Reason: "graph already exists"})
	}

	_, rawErr := os.Stat(paths.Raw)
	avail := graph.Availability{
		RawCorpus:   rawErr == nil,
		RemoteToken: cfg.HFAPIToken != "",
	}
	// Probing the local model only matters when a full build is possible.
	if strategy != graph.StrategyCurated && avail.RawCorpus {
		avail.LocalModel = localModelAvailable(ctx)
	}

	plan, reason, err := graph.Choose(strategy, avail)
	exitOnError(err, "choosing build plan")
	logging.Info().Str("plan", string(plan)).Str("reason", reason).Msg("build plan")

	curated := mustLoadCurated()
	in := graph.Input{Curated: curated.KeySet(), K: buildK}
	if in.K <= 0 {
		in.K = cfg.K
	}

	var builder graph.Builder
	switch plan {
	case graph.PlanFull:
		corpus := mustLoadRaw()
		in.Corpus = corpus

		db := mustOpenDatabase()
		defer db.Close()
		if !buildSkipScrape {
			if _, err := scrapeStatements(cmd, corpus.Problems, db); err != nil {
				exitWithError(ExitError, "scraping statements: %v", err)
			}
		}
		in.Statements, err = db.Statements()
		if err != nil {
			exitWithError(ExitError, "loading statements: %v", err)
		}

		b := graph.NewFullBuilder(embedding.NewService(embedding.OllamaFactory(ollamaOptions("")...)))
		b.SetProgress(embedProgress())
		builder = b

	case graph.PlanCuratedEmbedding:
		in.Corpus = curated
		b := graph.NewCuratedEmbeddingBuilder(embedding.NewService(embedding.HFFactory(cfg.HFAPIToken)))
		b.SetProgress(embedProgress())
		builder = b

	default:
		in.Corpus = curated
		builder = graph.NewMetadataBuilder()
	}

	if in.Corpus.Len() == 0 {
		exitWithError(ExitConfigError, "no problems to build from (%s is empty or missing)", paths.Curated)
	}

	res, err := builder.Build(ctx, in)
	exitOnError(err, "building graph")

	buildID, err := artifact.Save(paths.Artifacts, res)
	if err != nil {
		exitWithError(ExitError, "saving artifacts: %v", err)
	}
	logging.Info().Str("build_id", buildID).Str("dir", paths.Root).Msg("artifacts saved")

	if plan == graph.PlanFull {
		graph.SpotCheck(logging.Component("spotcheck"), res.Graph, in.Corpus, graph.SpotCheckKeys)
	}

	return outputBuild(BuildResponse{
		Status:  "built",
		Plan:    plan,
		Reason:  reason,
		BuildID: buildID,
		Meta:    &res.Graph.Meta,
		Stats:   res.Stats,
	})
}

func outputBuild(resp BuildResponse) error {
	if !humanOutput {
		return outputJSON(resp)
	}
	if resp.Status == "skipped" {
		outputHuman("Skipped: %s (use --force to rebuild)\n", resp.Reason)
		return nil
	}
	outputHuman("Built %s graph (%s)\n", resp.Plan, resp.Reason)
	outputHuman("  problems: %d\n  edges:    %d\n  k:        %d\n", resp.Meta.TotalProblems, resp.Meta.TotalEdges, resp.Meta.K)
	if resp.Stats.WithStatement > 0 {
		outputHuman("  with statement: %d\n", resp.Stats.WithStatement)
	}
	outputHuman("  build id: %s\n  took:     %s\n", resp.BuildID, resp.Stats.Duration.Round(time.Millisecond))
	return nil
}

// embedProgress logs embedding progress roughly every ten percent.
func embedProgress() embedding.ProgressFunc {
	log := logging.Component("build")
	last := -1
	return func(done, total int) {
		pct := done * 10 / max(total, 1)
		if pct == last && done != total {
			return
		}
		last = pct
		log.Info().Int("done", done).Int("total", total).Msg("embedding progress")
	}
}

// scrapeStatements runs the statement scraper over problems.
func scrapeStatements(cmd *cobra.Command, problems []problem.Problem, db *storage.DB) (scraper.Stats, error) {
	s := scraper.New(scraper.WithWorkers(workerCount()))
	stats, err := s.Run(cmd.Context(), problems, db)
	if err != nil {
		return stats, fmt.Errorf("after %d statements: %w", stats.Scraped, err)
	}
	return stats, nil
}

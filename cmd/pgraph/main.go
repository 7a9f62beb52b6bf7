// Package main provides the pgraph CLI entry point.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/icpc-trainer/probgraph/internal/config"
	"github.com/icpc-trainer/probgraph/internal/logging"
)

// Version is set at build time via ldflags
var Version = "dev"

var (
	// humanOutput controls whether to use human-readable output
	humanOutput bool

	dataDirFlag  string
	logLevelFlag string
)

// cfg and paths are resolved once before any command runs.
var (
	cfg   *config.GlobalConfig
	paths config.Paths
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		// Print the error since we have SilenceErrors: true
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		stop()
		os.Exit(ExitError)
	}
}

var rootCmd = &cobra.Command{
	Use:   "pgraph",
	Short: "Problem similarity graph builder and recommender",
	Long: `pgraph builds a similarity graph over competitive-programming problems
and answers neighbor, seed and free-text recommendation queries.

Pipeline:
  pgraph fetch       download the rated problemset
  pgraph scrape      cache problem statements (resumable)
  pgraph build       embed, index and write graph.json + embeddings

All commands output JSON by default; pass --human for readable text.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&humanOutput, "human", false, "Use human-readable output instead of JSON")
	rootCmd.PersistentFlags().StringVar(&dataDirFlag, "data-dir", "", "Data directory (default: config data_dir, $PGRAPH_DATA_DIR, or ./data)")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "", "Log level: debug, info, warn, error")
	rootCmd.Version = Version
}

// setup loads .env and the global config, then configures logging.
func setup(cmd *cobra.Command, args []string) error {
	config.LoadEnvFile()

	c, err := config.LoadGlobalConfig()
	if err != nil {
		exitWithError(ExitConfigError, "loading config: %v", err)
	}
	cfg = c
	paths = config.PathsFor(cfg.ResolveDataDir(dataDirFlag))

	level := cfg.LogLevel
	if logLevelFlag != "" {
		level = logLevelFlag
	}
	logging.Init(logging.Config{Level: level, Format: cfg.LogFormat})
	return nil
}

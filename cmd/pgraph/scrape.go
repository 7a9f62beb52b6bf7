package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/icpc-trainer/probgraph/internal/scraper"
)

var scrapeWorkers int

func init() {
	scrapeCmd.Flags().IntVarP(&scrapeWorkers, "workers", "w", 0, "Concurrent workers (default: config scrape_workers or 3)")
	rootCmd.AddCommand(scrapeCmd)
}

var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Cache problem statements",
	Long: `Download statements for every problem in the raw corpus into the local
cache. Problems that are already cached are skipped, so an interrupted run
can simply be restarted. Pages that fail are left for the next run.`,
	Args: cobra.NoArgs,
	RunE: runScrape,
}

func runScrape(cmd *cobra.Command, args []string) error {
	corpus := mustLoadRaw()
	db := mustOpenDatabase()
	defer db.Close()

	stats, err := scrapeStatements(cmd, corpus.Problems, db)
	if err != nil {
		exitWithError(ExitError, "scraping: %v", err)
	}

	if humanOutput {
		outputHuman("Scraped %d statements (%d cached, %d skipped, %d purged) in %s\n",
			stats.Scraped, stats.Cached, stats.Skipped, stats.Purged, stats.Duration.Round(time.Second))
		return nil
	}
	return outputJSON(stats)
}

func workerCount() int {
	switch {
	case scrapeWorkers > 0:
		return scrapeWorkers
	case cfg.ScrapeWorkers > 0:
		return cfg.ScrapeWorkers
	default:
		return scraper.DefaultWorkers
	}
}

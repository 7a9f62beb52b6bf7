package main

import (
	"context"
	"errors"
	"os"
	"strings"
	"time"

	"github.com/icpc-trainer/probgraph/internal/artifact"
	"github.com/icpc-trainer/probgraph/internal/embedding"
	"github.com/icpc-trainer/probgraph/internal/graph"
	"github.com/icpc-trainer/probgraph/internal/logging"
	"github.com/icpc-trainer/probgraph/internal/problem"
	"github.com/icpc-trainer/probgraph/internal/storage"
)

// probeTimeout bounds the local model health check during build planning.
const probeTimeout = 5 * time.Second

// mustOpenDatabase opens the SQLite cache, exits on error.
// The caller is responsible for calling Close() on the returned DB.
func mustOpenDatabase() *storage.DB {
	db, err := storage.OpenDB(paths.DB)
	if err != nil {
		exitWithError(ExitError, "opening database: %v", err)
	}
	return db
}

// mustLoadCurated loads the curated subset, exits on error.
func mustLoadCurated() *problem.Corpus {
	corpus, skipped, err := problem.LoadCurated(paths.Curated)
	if err != nil {
		exitWithError(ExitConfigError, "loading curated problems: %v", err)
	}
	if skipped > 0 {
		logging.Warn().Int("skipped", skipped).Msg("curated entries without a valid id were skipped")
	}
	return corpus
}

// mustLoadRaw loads the full corpus, exits on error.
func mustLoadRaw() *problem.Corpus {
	corpus, err := problem.LoadRaw(paths.Raw)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			exitWithError(ExitConfigError, "raw corpus not found at %s\n\nRun 'pgraph fetch' first.", paths.Raw)
		}
		exitWithError(ExitError, "loading raw corpus: %v", err)
	}
	return corpus
}

// mustLoadGraph loads graph.json, exits on error.
func mustLoadGraph() *graph.Graph {
	g, err := artifact.LoadGraph(paths.Artifacts.Graph)
	if err != nil {
		exitWithError(exitCodeFor(err), "loading graph: %v\n\nRun 'pgraph build' to create it.", err)
	}
	return g
}

// mustResolveKey parses a compact id or graph key, exits on error.
func mustResolveKey(arg string) string {
	id, err := problem.ParseID(arg)
	if err != nil {
		exitWithError(ExitNotFound, "%v", err)
	}
	return id.Key()
}

// parseIDList splits a comma-separated id list into graph keys, dropping
// entries that do not parse.
func parseIDList(s string) (map[string]bool, []string) {
	keys := make(map[string]bool)
	var bad []string
	for _, raw := range strings.Split(s, ",") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		id, err := problem.ParseID(raw)
		if err != nil {
			bad = append(bad, raw)
			continue
		}
		keys[id.Key()] = true
	}
	return keys, bad
}

// ollamaOptions applies configured overrides to the local provider.
func ollamaOptions(model string) []embedding.OllamaOption {
	var opts []embedding.OllamaOption
	if cfg.OllamaURL != "" {
		opts = append(opts, embedding.WithBaseURL(cfg.OllamaURL))
	}
	switch {
	case model != "":
		opts = append(opts, embedding.WithModel(model))
	case cfg.OllamaModel != "":
		opts = append(opts, embedding.WithModel(cfg.OllamaModel))
	}
	return opts
}

// localModelAvailable reports whether the local embedding model answers.
func localModelAvailable(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()
	err := embedding.NewOllamaProvider(ollamaOptions("")...).Validate(ctx)
	if err != nil {
		logging.Debug().Err(err).Msg("local embedding model unavailable")
	}
	return err == nil
}

// queryEmbedder returns a backend matching the model the index was built
// with: remote for Hugging Face model ids, local otherwise.
func queryEmbedder(model string) *embedding.Service {
	if strings.Contains(model, "/") && cfg.HFAPIToken != "" {
		return embedding.NewService(embedding.HFFactory(cfg.HFAPIToken, embedding.WithHFModel(model)))
	}
	if strings.Contains(model, "/") {
		model = ""
	}
	return embedding.NewService(embedding.OllamaFactory(ollamaOptions(model)...))
}

// lookupProblem finds metadata for a graph key in the curated set, then
// the rating cache.
func lookupProblem(key string, curated *problem.Corpus, db *storage.DB) (problem.Problem, bool) {
	if p, ok := curated.Get(key); ok {
		return p, true
	}
	if db != nil {
		if p, ok, err := db.Problem(key); err == nil && ok {
			return p, true
		}
	}
	return problem.Problem{}, false
}

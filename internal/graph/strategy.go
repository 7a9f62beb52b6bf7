package graph

import (
	"errors"
	"fmt"
)

// Strategy is the build strategy requested by the user.
type Strategy string

// Requested strategies.
const (
	StrategyAuto    Strategy = "auto"
	StrategyFull    Strategy = "full"
	StrategyCurated Strategy = "curated"
)

// ErrFullUnavailable is returned when a full build is requested explicitly
// but the local model or the raw corpus is missing.
var ErrFullUnavailable = errors.New("full build unavailable")

// ParseStrategy validates a strategy name.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case StrategyAuto, StrategyFull, StrategyCurated:
		return Strategy(s), nil
	case "":
		return StrategyAuto, nil
	}
	return "", fmt.Errorf("unknown strategy %q (want auto, full or curated)", s)
}

// Plan names the concrete builder a build will run.
type Plan string

// Concrete build plans.
const (
	PlanFull             Plan = "full"
	PlanCuratedEmbedding Plan = "curated-embedding"
	PlanCuratedMetadata  Plan = "metadata"
)

// Availability is what the environment offers at build time.
type Availability struct {
	LocalModel  bool // local embedding model answered a health check
	RawCorpus   bool // full problem corpus is on disk
	RemoteToken bool // remote embedding credential is configured
}

// Choose picks a plan once per build. Auto prefers the full pipeline and
// degrades to the curated subset, using remote embeddings when a token is
// present and metadata similarity otherwise.
func Choose(s Strategy, a Availability) (Plan, string, error) {
	switch s {
	case StrategyFull:
		if !a.LocalModel {
			return "", "", fmt.Errorf("%w: local embedding model not reachable", ErrFullUnavailable)
		}
		if !a.RawCorpus {
			return "", "", fmt.Errorf("%w: raw corpus missing (run 'pgraph fetch')", ErrFullUnavailable)
		}
		return PlanFull, "requested", nil
	case StrategyAuto:
		if a.LocalModel && a.RawCorpus {
			return PlanFull, "local model and raw corpus available", nil
		}
	case StrategyCurated:
	default:
		return "", "", fmt.Errorf("unknown strategy %q", s)
	}

	if a.RemoteToken {
		return PlanCuratedEmbedding, "remote embedding token configured", nil
	}
	return PlanCuratedMetadata, "no embedding backend configured", nil
}

package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/goccy/go-json"

	"github.com/icpc-trainer/probgraph/internal/artifact"
	"github.com/icpc-trainer/probgraph/internal/embedding"
	"github.com/icpc-trainer/probgraph/internal/graph"
	"github.com/icpc-trainer/probgraph/internal/problem"
	"github.com/icpc-trainer/probgraph/internal/recommend"
)

// NameMaxLen truncates problem names in human tables.
const NameMaxLen = 40

// outputJSON writes a value as formatted JSON to stdout.
func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputHuman writes a human-readable string to stdout.
func outputHuman(format string, args ...any) {
	fmt.Printf(format, args...)
}

// exitWithError outputs an error in the appropriate format (human or JSON) and exits.
func exitWithError(code int, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if humanOutput {
		fmt.Fprintf(os.Stderr, "error: %s\n", msg)
	} else {
		outputJSON(ErrorResponse{Error: msg})
	}
	os.Exit(code)
}

// exitOnError maps err to an exit code and exits. It does nothing for nil.
func exitOnError(err error, context string) {
	if err == nil {
		return
	}
	exitWithError(exitCodeFor(err), "%s: %v", context, err)
}

// exitCodeFor classifies an error into an exit code.
func exitCodeFor(err error) int {
	switch {
	case errors.Is(err, graph.ErrNotFound), errors.Is(err, problem.ErrInvalidID):
		return ExitNotFound
	case errors.Is(err, recommend.ErrUnavailable), errors.Is(err, embedding.ErrUnavailable),
		errors.Is(err, embedding.ErrModelNotFound):
		return ExitUnavailable
	case errors.Is(err, artifact.ErrNotFound), errors.Is(err, artifact.ErrBuildMismatch),
		errors.Is(err, artifact.ErrUnsupportedVersion), errors.Is(err, graph.ErrFullUnavailable),
		errors.Is(err, os.ErrNotExist):
		return ExitConfigError
	default:
		return ExitError
	}
}

// ErrorResponse is a JSON error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// StatusResponse is a generic response for commands that return status.
type StatusResponse struct {
	Status string `json:"status"`
	Path   string `json:"path,omitempty"`
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

func ratingString(r int) string {
	if r <= 0 {
		return "?"
	}
	return fmt.Sprint(r)
}

func joinTags(tags []string) string {
	if len(tags) == 0 {
		return "-"
	}
	return strings.Join(tags, ", ")
}

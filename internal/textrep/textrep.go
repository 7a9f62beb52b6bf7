// Package textrep turns problem metadata into the text that gets embedded.
//
// Embeddings are sensitive to every byte of their input, so the segment order,
// delimiter and truncation here must not drift between builds.
package textrep

import (
	"fmt"
	"strings"

	"github.com/icpc-trainer/probgraph/internal/problem"
)

const (
	// Delimiter joins non-empty segments.
	Delimiter = " | "

	// MaxStatementRunes is how much statement text is kept.
	MaxStatementRunes = 500
)

// Tier maps a rating to its difficulty label.
func Tier(rating int) string {
	switch {
	case rating <= 1200:
		return "beginner"
	case rating <= 1600:
		return "intermediate"
	case rating <= 2000:
		return "advanced"
	case rating <= 2400:
		return "expert"
	default:
		return "legendary"
	}
}

// Build returns the embedding text for a problem: name, tags, difficulty and
// the head of the statement when one is given.
func Build(p problem.Problem, statement string) string {
	parts := []string{
		p.Name,
		tagsSegment(p.Tags),
		difficultySegment(p.Rating),
		truncateRunes(statement, MaxStatementRunes),
	}
	return join(parts)
}

// BuildTopical returns the shorter text used for curated-only remote builds,
// where the topic label stands in for tags and no statement is available.
func BuildTopical(p problem.Problem) string {
	topic := ""
	if p.HasTopic() {
		topic = "topic: " + p.Topic
	}
	return join([]string{p.Name, topic, difficultySegment(p.Rating)})
}

func tagsSegment(tags []string) string {
	if len(tags) == 0 {
		return ""
	}
	return "tags: " + strings.Join(tags, ", ")
}

func difficultySegment(rating int) string {
	return fmt.Sprintf("difficulty: %s (%d)", Tier(rating), rating)
}

func join(parts []string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, Delimiter)
}

// truncateRunes cuts s to at most n characters without splitting a code point.
func truncateRunes(s string, n int) string {
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}

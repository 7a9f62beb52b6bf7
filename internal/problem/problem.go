// Package problem defines the core domain types for competitive-programming problems.
package problem

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ErrInvalidID is returned when a problem identifier cannot be parsed.
var ErrInvalidID = errors.New("invalid problem id")

// GymContestThreshold is the first contest number used by gym contests.
const GymContestThreshold = 100000

// ProblemURLBase is the prefix for constructed problem URLs.
const ProblemURLBase = "https://codeforces.com/problemset/problem"

var (
	compactPattern = regexp.MustCompile(`^(\d+)([A-Za-z]\d*)$`)
	keyPattern     = regexp.MustCompile(`^(\d+)/([A-Za-z]\d*)$`)
)

// ID identifies a problem by contest number and index letter.
type ID struct {
	Contest int
	Index   string
}

// ParseID parses either the compact form ("1352C") or the graph key form ("1352/C").
func ParseID(s string) (ID, error) {
	s = strings.TrimSpace(s)
	m := compactPattern.FindStringSubmatch(s)
	if m == nil {
		m = keyPattern.FindStringSubmatch(s)
	}
	if m == nil {
		return ID{}, fmt.Errorf("%w: %q", ErrInvalidID, s)
	}
	contest, err := strconv.Atoi(m[1])
	if err != nil {
		return ID{}, fmt.Errorf("%w: %q", ErrInvalidID, s)
	}
	return ID{Contest: contest, Index: strings.ToUpper(m[2])}, nil
}

// String returns the compact form, e.g. "1352C".
func (id ID) String() string {
	return fmt.Sprintf("%d%s", id.Contest, id.Index)
}

// Key returns the graph key form, e.g. "1352/C".
func (id ID) Key() string {
	return fmt.Sprintf("%d/%s", id.Contest, id.Index)
}

// URL returns the canonical problemset URL for the problem.
func (id ID) URL() string {
	return fmt.Sprintf("%s/%d/%s", ProblemURLBase, id.Contest, id.Index)
}

// IsGym reports whether the id belongs to a gym contest.
func (id ID) IsGym() bool {
	return id.Contest >= GymContestThreshold
}

// KeyToCompact converts "1352/C" to "1352C". Strings without a slash are returned unchanged.
func KeyToCompact(key string) string {
	return strings.Replace(key, "/", "", 1)
}

// Problem is an immutable description of one problem in the corpus.
type Problem struct {
	ID     ID
	Name   string
	Rating int // 0 when unknown; use HasRating
	Topic  string
	Tags   []string
	URL    string

	SolvedCount int
}

// Key returns the graph key of the problem.
func (p Problem) Key() string {
	return p.ID.Key()
}

// HasRating reports whether the difficulty rating is known.
func (p Problem) HasRating() bool {
	return p.Rating > 0
}

// HasTopic reports whether the problem carries a topic label.
func (p Problem) HasTopic() bool {
	return p.Topic != ""
}

// Link returns the stored URL, or a constructed one when none was supplied.
func (p Problem) Link() string {
	if p.URL != "" {
		return p.URL
	}
	return p.ID.URL()
}

package problem

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
	"golang.org/x/crypto/blake2b"
)

// curatedRecord is the on-disk shape of one entry in problems.json.
type curatedRecord struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	Rating int      `json:"rating,omitempty"`
	Topic  string   `json:"topic,omitempty"`
	Tags   []string `json:"tags,omitempty"`
	URL    string   `json:"url,omitempty"`
}

// rawRecord is the on-disk shape of one entry in cf_problems_raw.json,
// which mirrors the Codeforces problemset API.
type rawRecord struct {
	ContestID   int      `json:"contestId"`
	Index       string   `json:"index"`
	Name        string   `json:"name"`
	Rating      int      `json:"rating,omitempty"`
	Tags        []string `json:"tags"`
	SolvedCount int      `json:"solvedCount,omitempty"`
}

// Corpus is an ordered, key-indexed set of problems.
type Corpus struct {
	Problems []Problem
	byKey    map[string]int
}

// NewCorpus builds a corpus, rejecting duplicate identifiers.
func NewCorpus(problems []Problem) (*Corpus, error) {
	c := &Corpus{
		Problems: problems,
		byKey:    make(map[string]int, len(problems)),
	}
	for i, p := range problems {
		key := p.Key()
		if _, dup := c.byKey[key]; dup {
			return nil, fmt.Errorf("duplicate problem id %s", key)
		}
		c.byKey[key] = i
	}
	return c, nil
}

// Len returns the number of problems.
func (c *Corpus) Len() int {
	return len(c.Problems)
}

// Get looks up a problem by graph key.
func (c *Corpus) Get(key string) (Problem, bool) {
	i, ok := c.byKey[key]
	if !ok {
		return Problem{}, false
	}
	return c.Problems[i], true
}

// Keys returns graph keys in corpus order.
func (c *Corpus) Keys() []string {
	keys := make([]string, len(c.Problems))
	for i, p := range c.Problems {
		keys[i] = p.Key()
	}
	return keys
}

// KeySet returns the set of graph keys.
func (c *Corpus) KeySet() map[string]bool {
	set := make(map[string]bool, len(c.Problems))
	for _, p := range c.Problems {
		set[p.Key()] = true
	}
	return set
}

// LoadCurated reads the curated subset from problems.json.
// Entries whose id cannot be resolved are skipped and counted.
// A missing file yields an empty corpus.
func LoadCurated(path string) (*Corpus, int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			c, _ := NewCorpus(nil)
			return c, 0, nil
		}
		return nil, 0, fmt.Errorf("reading curated problems: %w", err)
	}

	var records []curatedRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, 0, fmt.Errorf("parsing curated problems: %w", err)
	}

	problems := make([]Problem, 0, len(records))
	skipped := 0
	for _, r := range records {
		id, err := ParseID(r.ID)
		if err != nil {
			id, err = idFromURL(r.URL)
		}
		if err != nil {
			skipped++
			continue
		}
		problems = append(problems, Problem{
			ID:     id,
			Name:   r.Name,
			Rating: r.Rating,
			Topic:  r.Topic,
			Tags:   r.Tags,
			URL:    r.URL,
		})
	}

	c, err := NewCorpus(problems)
	if err != nil {
		return nil, 0, err
	}
	return c, skipped, nil
}

// idFromURL extracts the id from a ".../<contest>/<index>" URL.
func idFromURL(url string) (ID, error) {
	parts := strings.Split(strings.TrimRight(url, "/"), "/")
	if len(parts) < 2 {
		return ID{}, fmt.Errorf("%w: url %q", ErrInvalidID, url)
	}
	contest, err := strconv.Atoi(parts[len(parts)-2])
	if err != nil {
		return ID{}, fmt.Errorf("%w: url %q", ErrInvalidID, url)
	}
	return ParseID(fmt.Sprintf("%d%s", contest, parts[len(parts)-1]))
}

// LoadRaw reads the full corpus from cf_problems_raw.json.
// Returns os.ErrNotExist (wrapped) when the file is absent.
func LoadRaw(path string) (*Corpus, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading raw problems: %w", err)
	}

	var records []rawRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parsing raw problems: %w", err)
	}

	problems := make([]Problem, 0, len(records))
	for _, r := range records {
		problems = append(problems, Problem{
			ID:          ID{Contest: r.ContestID, Index: r.Index},
			Name:        r.Name,
			Rating:      r.Rating,
			Tags:        r.Tags,
			SolvedCount: r.SolvedCount,
		})
	}
	return NewCorpus(problems)
}

// SaveRaw writes problems to cf_problems_raw.json atomically.
func SaveRaw(path string, problems []Problem) error {
	records := make([]rawRecord, len(problems))
	for i, p := range problems {
		tags := p.Tags
		if tags == nil {
			tags = []string{}
		}
		records[i] = rawRecord{
			ContestID:   p.ID.Contest,
			Index:       p.ID.Index,
			Name:        p.Name,
			Rating:      p.Rating,
			Tags:        tags,
			SolvedCount: p.SolvedCount,
		}
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding raw problems: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}
	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0644); err != nil {
		return fmt.Errorf("writing raw problems: %w", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("renaming raw problems: %w", err)
	}
	return nil
}

// Fingerprint returns a BLAKE2b-256 digest over the descriptive fields of
// every problem, in corpus order. Two corpora with the same fingerprint
// produce the same build inputs (statements aside).
func Fingerprint(problems []Problem) string {
	h, _ := blake2b.New256(nil)
	for _, p := range problems {
		tags := append([]string(nil), p.Tags...)
		sort.Strings(tags)
		fmt.Fprintf(h, "%s\x1f%s\x1f%d\x1f%s\x1f%s\x1e",
			p.Key(), p.Name, p.Rating, p.Topic, strings.Join(tags, ","))
	}
	return hex.EncodeToString(h.Sum(nil))
}

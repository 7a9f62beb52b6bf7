// Package artifact persists build outputs: the neighbor graph, the
// embedding matrix and the row-aligned id list.
//
// The three files share a build id. Loading refuses to pair files from
// different builds.
package artifact

import (
	"encoding/gob"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/icpc-trainer/probgraph/internal/graph"
)

// Errors returned by artifact operations.
var (
	ErrNotFound           = errors.New("artifact not found")
	ErrBuildMismatch      = errors.New("artifacts come from different builds")
	ErrUnsupportedVersion = errors.New("unsupported embeddings version")
)

// File names inside the data directory.
const (
	GraphFile      = "graph.json"
	EmbeddingsFile = "embeddings.gob"
	IDsFile        = "problem_ids.json"

	// CurrentVersion is the embeddings file format version.
	CurrentVersion = 1
)

// Paths locates the three artifact files.
type Paths struct {
	Graph      string
	Embeddings string
	IDs        string
}

// PathsIn returns the standard artifact paths inside dir.
func PathsIn(dir string) Paths {
	return Paths{
		Graph:      filepath.Join(dir, GraphFile),
		Embeddings: filepath.Join(dir, EmbeddingsFile),
		IDs:        filepath.Join(dir, IDsFile),
	}
}

// embeddingsFile is the gob-encoded embedding matrix.
type embeddingsFile struct {
	Version    int
	BuildID    string
	ModelName  string
	Dimensions int
	CreatedAt  time.Time
	Vectors    [][]float32
}

// idsFile is the JSON id list, row-aligned with the embeddings.
type idsFile struct {
	BuildID string   `json:"build_id"`
	IDs     []string `json:"ids"`
}

// Bundle is everything the query-time recommender needs.
type Bundle struct {
	Graph      *graph.Graph
	Embeddings [][]float32
	IDs        []string
	Model      string
}

// Save writes a build's artifacts under a fresh build id and returns it.
//
// All files are first written to temporary siblings. Only when every write
// succeeds are they renamed into place, graph last, so a failed save leaves
// the previous build intact. A build without embeddings removes any older
// embedding files so they cannot be paired with the new graph.
func Save(p Paths, res *graph.Result) (string, error) {
	if len(res.Embeddings) != len(res.IDs) {
		return "", fmt.Errorf("embeddings (%d) and ids (%d) are not aligned", len(res.Embeddings), len(res.IDs))
	}

	buildID := uuid.NewString()
	res.Graph.Meta.BuildID = buildID

	var pending []rename
	cleanup := func() {
		for _, r := range pending {
			os.Remove(r.from)
		}
	}

	withVectors := len(res.Embeddings) > 0
	if withVectors {
		dims := len(res.Embeddings[0])
		tmp, err := writeTemp(p.Embeddings, func(w io.Writer) error {
			return gob.NewEncoder(w).Encode(embeddingsFile{
				Version:    CurrentVersion,
				BuildID:    buildID,
				ModelName:  res.Graph.Meta.Model,
				Dimensions: dims,
				CreatedAt:  res.Graph.Meta.BuiltAt,
				Vectors:    res.Embeddings,
			})
		})
		if err != nil {
			return "", fmt.Errorf("writing embeddings: %w", err)
		}
		pending = append(pending, rename{tmp, p.Embeddings})

		tmp, err = writeTemp(p.IDs, func(w io.Writer) error {
			return json.NewEncoder(w).Encode(idsFile{BuildID: buildID, IDs: res.IDs})
		})
		if err != nil {
			cleanup()
			return "", fmt.Errorf("writing ids: %w", err)
		}
		pending = append(pending, rename{tmp, p.IDs})
	}

	tmp, err := writeTemp(p.Graph, func(w io.Writer) error {
		return json.NewEncoder(w).Encode(res.Graph)
	})
	if err != nil {
		cleanup()
		return "", fmt.Errorf("writing graph: %w", err)
	}
	pending = append(pending, rename{tmp, p.Graph})

	for i, r := range pending {
		if err := os.Rename(r.from, r.to); err != nil {
			for _, rest := range pending[i:] {
				os.Remove(rest.from)
			}
			return "", fmt.Errorf("renaming %s: %w", filepath.Base(r.to), err)
		}
	}

	if !withVectors {
		// Leftovers would fail the build-id check anyway; removal is best effort.
		os.Remove(p.Embeddings)
		os.Remove(p.IDs)
	}
	return buildID, nil
}

type rename struct {
	from, to string
}

// writeTemp writes path+".tmp" through fn and returns the temp path.
func writeTemp(path string, fn func(io.Writer) error) (string, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("creating directory: %w", err)
	}

	tempPath := path + ".tmp"
	f, err := os.Create(tempPath)
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}
	if err := fn(f); err != nil {
		f.Close()
		os.Remove(tempPath)
		return "", err
	}
	if err := f.Close(); err != nil {
		os.Remove(tempPath)
		return "", fmt.Errorf("closing file: %w", err)
	}
	return tempPath, nil
}

// LoadGraph reads graph.json.
func LoadGraph(path string) (*graph.Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s (run 'pgraph build')", ErrNotFound, filepath.Base(path))
		}
		return nil, fmt.Errorf("opening graph: %w", err)
	}
	defer f.Close()

	var g graph.Graph
	if err := json.NewDecoder(f).Decode(&g); err != nil {
		return nil, fmt.Errorf("decoding graph: %w", err)
	}
	if g.Neighbors == nil {
		g.Neighbors = map[string][]graph.Neighbor{}
	}
	return &g, nil
}

// LoadBundle reads all three artifacts and checks they belong together.
func LoadBundle(p Paths) (*Bundle, error) {
	g, err := LoadGraph(p.Graph)
	if err != nil {
		return nil, err
	}

	emb, err := loadEmbeddings(p.Embeddings)
	if err != nil {
		return nil, err
	}

	ids, err := loadIDs(p.IDs)
	if err != nil {
		return nil, err
	}

	if emb.BuildID != g.Meta.BuildID || ids.BuildID != g.Meta.BuildID {
		return nil, fmt.Errorf("%w: graph %q, embeddings %q, ids %q (rebuild with 'pgraph build')",
			ErrBuildMismatch, g.Meta.BuildID, emb.BuildID, ids.BuildID)
	}
	if len(emb.Vectors) != len(ids.IDs) {
		return nil, fmt.Errorf("%w: %d vectors for %d ids", ErrBuildMismatch, len(emb.Vectors), len(ids.IDs))
	}

	return &Bundle{
		Graph:      g,
		Embeddings: emb.Vectors,
		IDs:        ids.IDs,
		Model:      emb.ModelName,
	}, nil
}

func loadEmbeddings(path string) (*embeddingsFile, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s (the active graph was built without embeddings)", ErrNotFound, filepath.Base(path))
		}
		return nil, fmt.Errorf("opening embeddings: %w", err)
	}
	defer f.Close()

	var emb embeddingsFile
	if err := gob.NewDecoder(f).Decode(&emb); err != nil {
		return nil, fmt.Errorf("decoding embeddings: %w", err)
	}
	if emb.Version != CurrentVersion {
		return nil, fmt.Errorf("%w: got %d, want %d (rebuild with 'pgraph build')",
			ErrUnsupportedVersion, emb.Version, CurrentVersion)
	}
	return &emb, nil
}

func loadIDs(path string) (*idsFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, filepath.Base(path))
		}
		return nil, fmt.Errorf("reading ids: %w", err)
	}
	var ids idsFile
	if err := json.Unmarshal(data, &ids); err != nil {
		return nil, fmt.Errorf("decoding ids: %w", err)
	}
	return &ids, nil
}

// Exists reports whether a graph artifact is present.
func Exists(p Paths) bool {
	_, err := os.Stat(p.Graph)
	return err == nil
}

// Size returns the combined size in bytes of the artifact files present.
func Size(p Paths) int64 {
	var total int64
	for _, path := range []string{p.Graph, p.Embeddings, p.IDs} {
		if info, err := os.Stat(path); err == nil {
			total += info.Size()
		}
	}
	return total
}

package artifact

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/goccy/go-json"

	"github.com/icpc-trainer/probgraph/internal/graph"
)

func fullResult() *graph.Result {
	g := graph.New(graph.TypeFull, 1, map[string][]graph.Neighbor{
		"1/A": {{ID: "2/B", Score: 0.88, SharedTags: []string{"dp"}}},
		"2/B": {{ID: "1/A", Score: 0.88, SharedTags: []string{"dp"}}},
	})
	g.Meta.Model = "all-minilm:l6-v2"
	return &graph.Result{
		Graph:      g,
		Embeddings: [][]float32{{1, 0}, {0.8, 0.6}},
		IDs:        []string{"1/A", "2/B"},
	}
}

func metadataResult() *graph.Result {
	return &graph.Result{Graph: graph.New(graph.TypeCuratedOnly, 1, map[string][]graph.Neighbor{
		"1/A": {{ID: "2/B", Score: 0.8, SharedTags: []string{}}},
		"2/B": {{ID: "1/A", Score: 0.8, SharedTags: []string{}}},
	})}
}

func TestSaveAndLoadBundle(t *testing.T) {
	p := PathsIn(t.TempDir())
	res := fullResult()

	buildID, err := Save(p, res)
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if buildID == "" || res.Graph.Meta.BuildID != buildID {
		t.Errorf("build id not stamped: %q vs %q", buildID, res.Graph.Meta.BuildID)
	}

	b, err := LoadBundle(p)
	if err != nil {
		t.Fatalf("LoadBundle failed: %v", err)
	}
	if !reflect.DeepEqual(b.IDs, res.IDs) {
		t.Errorf("IDs = %v, want %v", b.IDs, res.IDs)
	}
	if !reflect.DeepEqual(b.Embeddings, res.Embeddings) {
		t.Errorf("Embeddings = %v, want %v", b.Embeddings, res.Embeddings)
	}
	if b.Model != "all-minilm:l6-v2" {
		t.Errorf("Model = %q", b.Model)
	}
	if b.Graph.Meta.BuildID != buildID {
		t.Errorf("graph build id = %q", b.Graph.Meta.BuildID)
	}
	if !b.Graph.Meta.BuiltAt.Equal(res.Graph.Meta.BuiltAt) {
		t.Errorf("BuiltAt = %v, want %v", b.Graph.Meta.BuiltAt, res.Graph.Meta.BuiltAt)
	}
	if !reflect.DeepEqual(b.Graph.Neighbors, res.Graph.Neighbors) {
		t.Errorf("neighbors changed across save/load")
	}

	for _, path := range []string{p.Graph, p.Embeddings, p.IDs} {
		if _, err := os.Stat(path + ".tmp"); !errors.Is(err, os.ErrNotExist) {
			t.Errorf("temp file left behind: %s", path+".tmp")
		}
	}
}

func TestSave_GraphSchema(t *testing.T) {
	p := PathsIn(t.TempDir())
	if _, err := Save(p, fullResult()); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(p.Graph)
	if err != nil {
		t.Fatal(err)
	}
	var doc struct {
		Meta      map[string]any              `json:"meta"`
		Neighbors map[string][]map[string]any `json:"neighbors"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatal(err)
	}
	for _, k := range []string{"total_problems", "total_edges", "k", "built_at", "type", "build_id"} {
		if _, ok := doc.Meta[k]; !ok {
			t.Errorf("meta missing %q", k)
		}
	}
	entry := doc.Neighbors["1/A"][0]
	for _, k := range []string{"id", "score", "shared_tags"} {
		if _, ok := entry[k]; !ok {
			t.Errorf("neighbor entry missing %q", k)
		}
	}
}

func TestSave_MetadataBuildRemovesStaleEmbeddings(t *testing.T) {
	p := PathsIn(t.TempDir())
	if _, err := Save(p, fullResult()); err != nil {
		t.Fatal(err)
	}
	if _, err := Save(p, metadataResult()); err != nil {
		t.Fatal(err)
	}

	g, err := LoadGraph(p.Graph)
	if err != nil {
		t.Fatal(err)
	}
	if g.Meta.Type != graph.TypeCuratedOnly {
		t.Errorf("Type = %q", g.Meta.Type)
	}
	if _, err := os.Stat(p.Embeddings); !errors.Is(err, os.ErrNotExist) {
		t.Error("stale embeddings kept")
	}
	if _, err := LoadBundle(p); !errors.Is(err, ErrNotFound) {
		t.Errorf("LoadBundle error = %v, want ErrNotFound", err)
	}
}

func TestLoadBundle_BuildMismatch(t *testing.T) {
	dir := t.TempDir()
	p := PathsIn(dir)
	if _, err := Save(p, fullResult()); err != nil {
		t.Fatal(err)
	}

	// Keep this build's embeddings, then install a graph from another build.
	saved, err := os.ReadFile(p.Embeddings)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Save(p, fullResult()); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(p.Embeddings, saved, 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadBundle(p); !errors.Is(err, ErrBuildMismatch) {
		t.Errorf("error = %v, want ErrBuildMismatch", err)
	}
}

func TestSave_FailureKeepsPreviousBuild(t *testing.T) {
	p := PathsIn(t.TempDir())
	first, err := Save(p, fullResult())
	if err != nil {
		t.Fatal(err)
	}

	// A directory where the graph temp file should go makes the write fail
	// after the embedding temp files were already written.
	if err := os.Mkdir(p.Graph+".tmp", 0755); err != nil {
		t.Fatal(err)
	}
	if _, err := Save(p, fullResult()); err == nil {
		t.Fatal("expected Save to fail")
	}

	b, err := LoadBundle(p)
	if err != nil {
		t.Fatalf("previous build unreadable: %v", err)
	}
	if b.Graph.Meta.BuildID != first {
		t.Errorf("build id = %q, want %q", b.Graph.Meta.BuildID, first)
	}
	if _, err := os.Stat(p.Embeddings + ".tmp"); !errors.Is(err, os.ErrNotExist) {
		t.Error("embedding temp file not cleaned up")
	}
}

func TestSave_Misaligned(t *testing.T) {
	res := fullResult()
	res.IDs = res.IDs[:1]
	if _, err := Save(PathsIn(t.TempDir()), res); err == nil {
		t.Error("expected alignment error")
	}
}

func TestLoadGraph_Missing(t *testing.T) {
	_, err := LoadGraph(filepath.Join(t.TempDir(), GraphFile))
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestExistsAndSize(t *testing.T) {
	p := PathsIn(t.TempDir())
	if Exists(p) || Size(p) != 0 {
		t.Fatal("empty dir reports artifacts")
	}
	if _, err := Save(p, fullResult()); err != nil {
		t.Fatal(err)
	}
	if !Exists(p) {
		t.Error("Exists() = false after Save")
	}
	if Size(p) <= 0 {
		t.Error("Size() not positive")
	}
}

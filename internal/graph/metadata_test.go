package graph

import (
	"context"
	"math"
	"reflect"
	"sort"
	"testing"

	"github.com/goccy/go-json"

	"github.com/icpc-trainer/probgraph/internal/embedding"
	"github.com/icpc-trainer/probgraph/internal/problem"
)

func TestSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b problemSpec
		want float64
	}{
		{
			name: "topic only",
			a:    problemSpec{topic: "dp"},
			b:    problemSpec{topic: "dp"},
			want: 0.5,
		},
		{
			name: "empty topics do not match",
			a:    problemSpec{},
			b:    problemSpec{},
			want: 0,
		},
		{
			name: "same rating",
			a:    problemSpec{rating: 1500},
			b:    problemSpec{rating: 1500},
			want: 0.3,
		},
		{
			name: "one sigma apart",
			a:    problemSpec{rating: 1500},
			b:    problemSpec{rating: 1800},
			want: 0.3 * math.Exp(-0.5),
		},
		{
			name: "unknown rating",
			a:    problemSpec{rating: 1500},
			b:    problemSpec{},
			want: 0,
		},
		{
			name: "name overlap is case-insensitive",
			a:    problemSpec{name: "Two Buttons"},
			b:    problemSpec{name: "two arrays"},
			want: 0.2 * 1.0 / 3.0,
		},
		{
			name: "everything",
			a:    problemSpec{name: "Boredom", rating: 1500, topic: "dp"},
			b:    problemSpec{name: "boredom", rating: 1500, topic: "dp"},
			want: 1.0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Similarity(tt.a.build(), tt.b.build())
			if math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("Similarity() = %v, want %v", got, tt.want)
			}
		})
	}
}

type problemSpec struct {
	name   string
	rating int
	topic  string
}

func (s problemSpec) build() problem.Problem {
	return prob(1, "A", s.name, s.rating, s.topic)
}

func TestMetadataBuilder(t *testing.T) {
	corpus := syntheticCorpus(t, 30)
	res, err := NewMetadataBuilder().Build(context.Background(), Input{Corpus: corpus, K: 50})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	g := res.Graph
	assertInvariants(t, g, MaxMetadataK)
	if g.Meta.K != MaxMetadataK {
		t.Errorf("K = %d, want %d", g.Meta.K, MaxMetadataK)
	}
	if g.Meta.Type != TypeCuratedOnly {
		t.Errorf("Type = %q", g.Meta.Type)
	}
	if res.Embeddings != nil || res.IDs != nil {
		t.Error("metadata build should not produce vectors")
	}
	if g.Meta.Fingerprint == "" {
		t.Error("fingerprint not recorded")
	}

	// Same-topic neighbors carry the topic as their shared tag.
	for _, nb := range g.Neighbors["1000/A"] {
		other, _ := corpus.Get(nb.ID)
		if other.Topic == "dp" && !reflect.DeepEqual(nb.SharedTags, []string{"dp"}) {
			t.Errorf("%s shared tags = %v, want [dp]", nb.ID, nb.SharedTags)
		}
		if other.Topic != "dp" && len(nb.SharedTags) != 0 {
			t.Errorf("%s shared tags = %v, want []", nb.ID, nb.SharedTags)
		}
	}
}

func TestMetadataBuilder_SmallCorpus(t *testing.T) {
	tests := []struct {
		n, wantK int
	}{
		{1, 0},
		{2, 1},
		{5, 4},
	}
	for _, tt := range tests {
		res, err := NewMetadataBuilder().Build(context.Background(), Input{Corpus: syntheticCorpus(t, tt.n)})
		if err != nil {
			t.Fatalf("n=%d: %v", tt.n, err)
		}
		if res.Graph.Meta.K != tt.wantK {
			t.Errorf("n=%d: K = %d, want %d", tt.n, res.Graph.Meta.K, tt.wantK)
		}
		assertInvariants(t, res.Graph, tt.wantK)
	}
}

func TestMetadataBuilder_TopicFirst(t *testing.T) {
	corpus := mustCorpus(t,
		prob(1, "A", "Source", 1500, "dp"),
		prob(2, "A", "Same topic far rating", 2500, "dp"),
		prob(3, "A", "Other topic same rating", 1500, "graphs"),
	)
	res, err := NewMetadataBuilder().Build(context.Background(), Input{Corpus: corpus})
	if err != nil {
		t.Fatal(err)
	}
	got := res.Graph.Neighbors["1/A"]
	if got[0].ID != "2/A" {
		t.Errorf("top neighbor = %s, want 2/A", got[0].ID)
	}
}

// Both builders must emit the same serialized shape.
func TestBuilders_SameSchema(t *testing.T) {
	corpus := syntheticCorpus(t, 8)

	full, err := NewFullBuilder(embedding.Static(&tableProvider{dims: 8})).Build(context.Background(), Input{Corpus: corpus, K: 3})
	if err != nil {
		t.Fatal(err)
	}
	meta, err := NewMetadataBuilder().Build(context.Background(), Input{Corpus: corpus, K: 3})
	if err != nil {
		t.Fatal(err)
	}

	fullShape := schemaOf(t, full.Graph)
	metaShape := schemaOf(t, meta.Graph)
	if !reflect.DeepEqual(fullShape, metaShape) {
		t.Errorf("schemas differ:\nfull: %v\nmeta: %v", fullShape, metaShape)
	}
}

// schemaOf returns the top-level keys, the meta keys that are always
// present, and the keys of one neighbor entry.
func schemaOf(t *testing.T, g *Graph) map[string][]string {
	t.Helper()
	data, err := json.Marshal(g)
	if err != nil {
		t.Fatal(err)
	}
	var doc map[string]map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatal(err)
	}

	shape := map[string][]string{}
	for k := range doc {
		shape["top"] = append(shape["top"], k)
	}
	for _, k := range []string{"total_problems", "total_edges", "k", "built_at", "type"} {
		if _, ok := doc["meta"][k]; ok {
			shape["meta"] = append(shape["meta"], k)
		}
	}
	list := doc["neighbors"]["1000/A"].([]any)
	entry := list[0].(map[string]any)
	for _, k := range []string{"id", "score", "shared_tags"} {
		if _, ok := entry[k]; ok {
			shape["entry"] = append(shape["entry"], k)
		}
	}
	if len(entry) != 3 {
		t.Errorf("neighbor entry has %d fields, want 3", len(entry))
	}
	sort.Strings(shape["top"])
	return shape
}

package viz

import (
	"strings"
	"testing"

	"github.com/goccy/go-json"

	"github.com/icpc-trainer/probgraph/internal/graph"
)

func sampleSubgraph() graph.Subgraph {
	return graph.Subgraph{
		Nodes: []graph.Node{
			{ID: "1A", Name: "Theatre Square", Rating: 1000, Topic: "math"},
			{ID: "4A", Name: "Watermelon", Rating: 800, Topic: "math"},
			{ID: "455A", Name: "Boredom", Rating: 1500, Topic: "dp"},
			{ID: "999Z", Name: "Loner"},
		},
		Edges: []graph.Edge{
			{Source: "1A", Target: "4A", Score: 0.81},
			{Source: "1A", Target: "455A", Score: 0.42},
		},
	}
}

func TestFromSubgraph(t *testing.T) {
	data := FromSubgraph(sampleSubgraph())

	if len(data.Nodes) != 4 || len(data.Edges) != 2 {
		t.Fatalf("got %d nodes, %d edges", len(data.Nodes), len(data.Edges))
	}

	wantDegree := map[string]int{"1A": 2, "4A": 1, "455A": 1, "999Z": 0}
	for _, n := range data.Nodes {
		if n.Degree != wantDegree[n.ID] {
			t.Errorf("%s degree = %d, want %d", n.ID, n.Degree, wantDegree[n.ID])
		}
		if n.Label != n.ID {
			t.Errorf("%s label = %q", n.ID, n.Label)
		}
	}
}

func TestTopicColor(t *testing.T) {
	if topicColor("") != noTopicColor {
		t.Error("empty topic should use the neutral color")
	}
	if topicColor("dp") != topicColor("dp") {
		t.Error("color is not stable")
	}

	data := FromSubgraph(sampleSubgraph())
	if data.Nodes[0].Color != data.Nodes[1].Color {
		t.Error("same topic should share a color")
	}
}

func TestToCytoscapeJSON(t *testing.T) {
	out, err := FromSubgraph(sampleSubgraph()).ToCytoscapeJSON()
	if err != nil {
		t.Fatalf("ToCytoscapeJSON: %v", err)
	}

	var elements CytoscapeElements
	if err := json.Unmarshal([]byte(out), &elements); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(elements.Nodes) != 4 || len(elements.Edges) != 2 {
		t.Fatalf("got %d nodes, %d edges", len(elements.Nodes), len(elements.Edges))
	}

	ids := map[string]bool{}
	for _, e := range elements.Edges {
		if ids[e.Data.ID] {
			t.Errorf("duplicate edge id %q", e.Data.ID)
		}
		ids[e.Data.ID] = true
	}
	if elements.Edges[0].Data.Score != 0.81 {
		t.Errorf("score = %v", elements.Edges[0].Data.Score)
	}
}

func TestGenerateHTML(t *testing.T) {
	html, err := GenerateHTML(FromSubgraph(sampleSubgraph()), DefaultOptions())
	if err != nil {
		t.Fatalf("GenerateHTML: %v", err)
	}
	for _, want := range []string{"cytoscape", "Theatre Square", "4 problems, 2 edges", `"cose"`} {
		if !strings.Contains(html, want) {
			t.Errorf("HTML missing %q", want)
		}
	}
}

func TestGenerateHTML_Empty(t *testing.T) {
	html, err := GenerateHTML(&GraphData{}, DefaultOptions())
	if err != nil {
		t.Fatalf("GenerateHTML: %v", err)
	}
	if !strings.Contains(html, "No graph data") {
		t.Error("empty graph should render the empty state")
	}
}

func TestGenerateHTML_Errors(t *testing.T) {
	if _, err := GenerateHTML(nil, DefaultOptions()); err == nil {
		t.Error("expected error for nil graph")
	}
	if _, err := GenerateHTML(&GraphData{}, HTMLOptions{Layout: "spiral"}); err == nil {
		t.Error("expected error for invalid layout")
	}
}

func TestLayoutToCytoscape(t *testing.T) {
	tests := map[string]string{"": "cose", "force": "cose", "circle": "circle", "grid": "grid"}
	for in, want := range tests {
		if got := layoutToCytoscape(in); got != want {
			t.Errorf("layoutToCytoscape(%q) = %q, want %q", in, got, want)
		}
	}
}

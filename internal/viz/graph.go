package viz

import (
	"hash/fnv"

	"github.com/icpc-trainer/probgraph/internal/graph"
)

// topicPalette colors topics; unknown topics share the last entry.
var topicPalette = []string{
	"#4A90D9", "#E8923A", "#27AE60", "#9B59B6", "#E74C3C",
	"#1ABC9C", "#F1C40F", "#34495E", "#D35400", "#16A085",
}

const noTopicColor = "#95A5A6"

// FromSubgraph converts a curated subgraph into renderable data, counting
// each node's degree.
func FromSubgraph(sub graph.Subgraph) *GraphData {
	degree := make(map[string]int, len(sub.Nodes))
	edges := make([]Edge, 0, len(sub.Edges))
	for _, e := range sub.Edges {
		degree[e.Source]++
		degree[e.Target]++
		edges = append(edges, Edge{Source: e.Source, Target: e.Target, Score: e.Score})
	}

	nodes := make([]Node, 0, len(sub.Nodes))
	for _, n := range sub.Nodes {
		nodes = append(nodes, Node{
			ID:     n.ID,
			Label:  n.ID,
			Name:   n.Name,
			Rating: n.Rating,
			Topic:  n.Topic,
			Color:  topicColor(n.Topic),
			Degree: degree[n.ID],
		})
	}

	return &GraphData{Nodes: nodes, Edges: edges}
}

// topicColor maps a topic to a stable palette entry.
func topicColor(topic string) string {
	if topic == "" {
		return noTopicColor
	}
	h := fnv.New32a()
	h.Write([]byte(topic))
	return topicPalette[h.Sum32()%uint32(len(topicPalette))]
}

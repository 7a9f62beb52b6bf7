// Package viz renders the curated similarity subgraph for the browser.
package viz

// GraphData contains all data needed to render the visualization.
type GraphData struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// Node is one curated problem.
type Node struct {
	ID    string `json:"id"`
	Label string `json:"label"`

	// Tooltip fields
	Name   string `json:"name"`
	Rating int    `json:"rating"`
	Topic  string `json:"topic"`

	// Color is derived from the topic so each topic forms a visible cluster.
	Color string `json:"color"`

	// Degree drives node size.
	Degree int `json:"degree"`
}

// Edge is an undirected similarity edge.
type Edge struct {
	Source string  `json:"source"`
	Target string  `json:"target"`
	Score  float64 `json:"score"`
}

// IsEmpty returns true if the graph has no nodes.
func (g *GraphData) IsEmpty() bool {
	return len(g.Nodes) == 0
}

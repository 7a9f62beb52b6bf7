package graph

import (
	"github.com/rs/zerolog"

	"github.com/icpc-trainer/probgraph/internal/problem"
)

// SpotCheckKeys are well-known problems whose neighbors are logged after a
// full build as a quick sanity check.
var SpotCheckKeys = []string{"1/A", "455/A", "20/C"}

// SpotCheck logs the top five neighbors of each key present in the graph.
func SpotCheck(log zerolog.Logger, g *Graph, corpus *problem.Corpus, keys []string) {
	for _, key := range keys {
		list, err := g.NeighborsOf(key, 5)
		if err != nil {
			continue
		}
		src, _ := corpus.Get(key)
		ev := log.Info().Str("key", key).Str("name", src.Name)
		arr := zerolog.Arr()
		for _, nb := range list {
			p, _ := corpus.Get(nb.ID)
			arr.Dict(zerolog.Dict().
				Str("id", nb.ID).
				Str("name", p.Name).
				Float64("score", nb.Score).
				Strs("shared_tags", nb.SharedTags))
		}
		ev.Array("neighbors", arr).Msg("spot check")
	}
}

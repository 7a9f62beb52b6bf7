package embedding

import (
	"context"
	"fmt"
)

// DefaultBatchSize is the number of texts sent per backend call.
const DefaultBatchSize = 64

// ProgressFunc receives the number of texts embedded so far.
type ProgressFunc func(done, total int)

// EmbedAll embeds texts in batches and returns vectors in input order.
// Batch size affects throughput only. The first failing batch aborts the run
// and nothing is returned.
func EmbedAll(ctx context.Context, p Provider, texts []string, batchSize int, progress ProgressFunc) ([][]float32, error) {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += batchSize {
		end := min(start+batchSize, len(texts))

		embs, err := p.Embed(ctx, texts[start:end])
		if err != nil {
			return nil, fmt.Errorf("embedding batch %d-%d: %w", start, end, err)
		}
		if len(embs) != end-start {
			return nil, fmt.Errorf("embedding batch %d-%d: got %d vectors", start, end, len(embs))
		}
		out = append(out, Vectors(embs)...)

		if progress != nil {
			progress(end, len(texts))
		}
	}
	return out, nil
}

package embedding

import "context"

// Provider generates embeddings from text.
//
// Implementations return exactly one unit-normalized vector per input text,
// in input order, or an error. A failed call never yields a partial result.
type Provider interface {
	// Embed generates embeddings for the given texts.
	Embed(ctx context.Context, texts []string) ([]Embedding, error)

	// ModelName returns the name of the embedding model.
	ModelName() string

	// Dimensions returns the expected vector dimensions.
	Dimensions() int
}

package domain

import "context"

// Embedder converts batches of plain text into numeric vector representations.
// Implementations return one vector per input, in input order.
type Embedder interface {
	Model() string
	EmbedBatch(ctx context.Context, texts []string) ([][]float64, error)
}

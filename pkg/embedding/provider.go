package embedding

import (
	"context"
	"math"
)

// maxBatchSize caps how many texts go to the backend in one call. Remote
// embedding endpoints throttle large batches, so EmbedMany splits its input
// transparently and reassembles the output in order.
const maxBatchSize = 50

// Provider defines the interface for generating text embeddings
type Provider interface {
	// EmbedOne embeds a single text
	EmbedOne(ctx context.Context, text string) ([]float32, error)

	// EmbedMany embeds all texts, preserving input order. Inputs are split
	// into sub-batches internally; callers always get one vector per text.
	EmbedMany(ctx context.Context, texts []string) ([][]float32, error)

	// Model returns the identifying name of the embedding model
	Model() string
}

// embedInBatches drives a backend batch call over sub-batches of at most
// maxBatchSize texts and concatenates the results in input order.
func embedInBatches(
	ctx context.Context,
	texts []string,
	batch func(ctx context.Context, texts []string) ([][]float32, error),
) ([][]float32, error) {
	vectors := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += maxBatchSize {
		end := start + maxBatchSize
		if end > len(texts) {
			end = len(texts)
		}
		part, err := batch(ctx, texts[start:end])
		if err != nil {
			return nil, err
		}
		vectors = append(vectors, part...)
	}
	return vectors, nil
}

// normalizeVector normalizes a vector to unit length (magnitude = 1).
// Cosine similarity in the vector index expects normalized vectors.
func normalizeVector(vec []float32) []float32 {
	var magnitude float64
	for _, v := range vec {
		magnitude += float64(v) * float64(v)
	}
	magnitude = math.Sqrt(magnitude)

	// Avoid division by zero
	if magnitude == 0 {
		return vec
	}

	normalized := make([]float32, len(vec))
	for i, v := range vec {
		normalized[i] = float32(float64(v) / magnitude)
	}
	return normalized
}

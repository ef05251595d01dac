// Package ingest wires chunking, embedding, and the vector index into the
// document ingestion surface. Upload handling and file-type parsing live in
// the calling layer; this pipeline only sees extracted text.
package ingest

import (
	"context"
	"fmt"

	"github.com/pritom169/documind-ai/internal/pkg/logger"
	"github.com/pritom169/documind-ai/pkg/chunker"
	"github.com/pritom169/documind-ai/pkg/vectorstore/qdrant"
)

// Embedder is the slice of the embedding provider the pipeline needs.
type Embedder interface {
	EmbedMany(ctx context.Context, texts []string) ([][]float32, error)
}

// Index is the slice of the vector index client the pipeline needs.
type Index interface {
	EnsureCollection(ctx context.Context, name string, vectorDimension int) error
	Upsert(ctx context.Context, collection string, vectors [][]float32, payloads []map[string]interface{}) ([]string, error)
	DeleteByDocument(ctx context.Context, collection, documentID string) error
	Info(ctx context.Context, collection string) (*qdrant.CollectionInfo, error)
}

// Options controls how a document is chunked.
type Options struct {
	ChunkSize    int
	ChunkOverlap int
	Strategy     chunker.Strategy
}

func DefaultOptions() Options {
	return Options{
		ChunkSize:    1000,
		ChunkOverlap: 200,
		Strategy:     chunker.StrategyRecursive,
	}
}

// Result reports what one ingestion run wrote.
type Result struct {
	PointIDs   []string
	ChunkCount int
}

// Pipeline ingests documents: chunk → embed → ensure collection → upsert.
type Pipeline struct {
	embedder Embedder
	index    Index
	logger   logger.ILogger
}

func NewPipeline(embedder Embedder, index Index, log logger.ILogger) *Pipeline {
	return &Pipeline{
		embedder: embedder,
		index:    index,
		logger:   log,
	}
}

// IngestDocument chunks the text, embeds every chunk, and upserts the vectors
// with payloads carrying the content and origin identifiers. The collection
// is created on first use with the embedding dimension probed from the first
// vector.
func (p *Pipeline) IngestDocument(
	ctx context.Context,
	collection string,
	documentID string,
	text string,
	metadata map[string]interface{},
	opts Options,
) (*Result, error) {
	if opts.ChunkSize <= 0 {
		opts = DefaultOptions()
	}

	chunks, err := chunker.Split(text, metadata, opts.ChunkSize, opts.ChunkOverlap, opts.Strategy)
	if err != nil {
		return nil, err
	}
	if len(chunks) == 0 {
		return &Result{}, nil
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Content
	}
	vectors, err := p.embedder.EmbedMany(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed chunks: %w", err)
	}

	if err := p.index.EnsureCollection(ctx, collection, len(vectors[0])); err != nil {
		return nil, err
	}

	payloads := make([]map[string]interface{}, len(chunks))
	for i, c := range chunks {
		payload := make(map[string]interface{}, len(c.Metadata)+4)
		for key, value := range c.Metadata {
			payload[key] = value
		}
		payload["content"] = c.Content
		payload["document_id"] = documentID
		payload["chunk_index"] = c.Index
		payload["token_count"] = c.TokenCount
		payloads[i] = payload
	}

	pointIDs, err := p.index.Upsert(ctx, collection, vectors, payloads)
	if err != nil {
		return nil, err
	}

	p.logger.Info("ingest", "ingested document", map[string]interface{}{
		"collection":  collection,
		"document_id": documentID,
		"chunks":      len(chunks),
	})
	return &Result{
		PointIDs:   pointIDs,
		ChunkCount: len(chunks),
	}, nil
}

// DeleteDocument removes every indexed chunk of one document.
func (p *Pipeline) DeleteDocument(ctx context.Context, collection, documentID string) error {
	if err := p.index.DeleteByDocument(ctx, collection, documentID); err != nil {
		return err
	}
	p.logger.Info("ingest", "deleted document vectors", map[string]interface{}{
		"collection":  collection,
		"document_id": documentID,
	})
	return nil
}

// CollectionStats reports the collection's vector and point counts.
func (p *Pipeline) CollectionStats(ctx context.Context, collection string) (*qdrant.CollectionInfo, error) {
	return p.index.Info(ctx, collection)
}

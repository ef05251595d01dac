// Package rag implements the multi-stage retrieval pipeline:
// embed the query, dense search against the vector index, keyword-aware
// re-ranking, and optional LLM-based contextual compression.
package rag

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/pritom169/documind-ai/internal/pkg/logger"
	"github.com/pritom169/documind-ai/pkg/vectorstore/qdrant"
)

// Passage is one retrieved unit of indexed text, annotated with both the raw
// similarity score and the combined re-rank score.
type Passage struct {
	Content       string
	Score         float32 // raw similarity from the index
	CombinedScore float32 // similarity blended with keyword overlap
	DocumentID    string
	ChunkIndex    int
	Metadata      map[string]interface{}
}

// Embedder is the slice of the embedding provider the retriever needs.
type Embedder interface {
	EmbedOne(ctx context.Context, text string) ([]float32, error)
}

// Searcher is the slice of the vector index client the retriever needs.
type Searcher interface {
	Search(
		ctx context.Context,
		collection string,
		queryVector []float32,
		limit int,
		scoreThreshold float32,
		filter map[string]interface{},
	) ([]qdrant.ScoredHit, error)
}

// Config holds the retrieval knobs. The weights and threshold are tunable
// defaults, not invariants.
type Config struct {
	TopK             int
	RerankTopK       int
	ScoreThreshold   float32
	SimilarityWeight float32
	KeywordWeight    float32
	UseCompression   bool
}

func DefaultConfig() Config {
	return Config{
		TopK:             10,
		RerankTopK:       5,
		ScoreThreshold:   0.65,
		SimilarityWeight: 0.7,
		KeywordWeight:    0.3,
		UseCompression:   false,
	}
}

// Retriever runs the full pipeline. Safe for concurrent use; each Retrieve
// call is independent.
type Retriever struct {
	embedder   Embedder
	searcher   Searcher
	compressor *Compressor
	cfg        Config
	logger     logger.ILogger
}

// NewRetriever wires the retrieval stages together. The compressor may be nil
// when compression is disabled.
func NewRetriever(embedder Embedder, searcher Searcher, compressor *Compressor, cfg Config, log logger.ILogger) *Retriever {
	if cfg.TopK <= 0 {
		cfg.TopK = DefaultConfig().TopK
	}
	if cfg.RerankTopK <= 0 {
		cfg.RerankTopK = DefaultConfig().RerankTopK
	}
	return &Retriever{
		embedder:   embedder,
		searcher:   searcher,
		compressor: compressor,
		cfg:        cfg,
		logger:     log,
	}
}

// Retrieve runs embed → search → rerank → compress for one query. An empty
// collection means the query has no bound corpus: a valid degenerate case
// that yields no passages, not an error.
func (r *Retriever) Retrieve(ctx context.Context, query, collection string) ([]Passage, error) {
	if collection == "" {
		return []Passage{}, nil
	}

	// 1. Embed the query
	queryVector, err := r.embedder.EmbedOne(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	// 2. Dense search
	hits, err := r.searcher.Search(ctx, collection, queryVector, r.cfg.TopK, r.cfg.ScoreThreshold, nil)
	if err != nil {
		return nil, err
	}
	if len(hits) == 0 {
		r.logger.Info("retriever", "no results above threshold", map[string]interface{}{
			"collection": collection,
			"query":      truncate(query, 100),
		})
		return []Passage{}, nil
	}

	// 3. Re-rank and truncate
	passages := r.rerank(query, hits)
	if len(passages) > r.cfg.RerankTopK {
		passages = passages[:r.cfg.RerankTopK]
	}

	// 4. Contextual compression (best effort)
	if r.cfg.UseCompression && r.compressor != nil {
		passages = r.compressor.Compress(ctx, query, passages)
	}

	r.logger.Info("retriever", "retrieved passages", map[string]interface{}{
		"collection": collection,
		"count":      len(passages),
	})
	return passages, nil
}

// rerank blends the raw similarity score with a keyword overlap ratio and
// sorts descending by the combined score.
func (r *Retriever) rerank(query string, hits []qdrant.ScoredHit) []Passage {
	queryTerms := termSet(query)

	passages := make([]Passage, len(hits))
	for i, hit := range hits {
		overlap := keywordOverlap(queryTerms, hit.Content)
		passages[i] = Passage{
			Content:       hit.Content,
			Score:         hit.Score,
			CombinedScore: r.cfg.SimilarityWeight*hit.Score + r.cfg.KeywordWeight*overlap,
			DocumentID:    metadataString(hit.Metadata, "document_id"),
			ChunkIndex:    metadataInt(hit.Metadata, "chunk_index"),
			Metadata:      hit.Metadata,
		}
	}

	sort.SliceStable(passages, func(i, j int) bool {
		return passages[i].CombinedScore > passages[j].CombinedScore
	})
	return passages
}

func termSet(text string) map[string]struct{} {
	terms := make(map[string]struct{})
	for _, term := range strings.Fields(strings.ToLower(text)) {
		terms[term] = struct{}{}
	}
	return terms
}

func keywordOverlap(queryTerms map[string]struct{}, content string) float32 {
	if len(queryTerms) == 0 {
		return 0
	}
	shared := 0
	for term := range termSet(content) {
		if _, ok := queryTerms[term]; ok {
			shared++
		}
	}
	return float32(shared) / float32(len(queryTerms))
}

func metadataString(metadata map[string]interface{}, key string) string {
	if value, ok := metadata[key].(string); ok {
		return value
	}
	return ""
}

func metadataInt(metadata map[string]interface{}, key string) int {
	switch value := metadata[key].(type) {
	case int:
		return value
	case int64:
		return int(value)
	case float64:
		// JSON numbers decode as float64
		return int(value)
	}
	return 0
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit]
}

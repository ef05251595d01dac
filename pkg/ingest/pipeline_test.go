package ingest

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pritom169/documind-ai/internal/pkg/logger"
	"github.com/pritom169/documind-ai/pkg/vectorstore/qdrant"
)

type fakeEmbedder struct {
	dimension int
	calls     int
}

func (f *fakeEmbedder) EmbedMany(ctx context.Context, texts []string) ([][]float32, error) {
	f.calls++
	vectors := make([][]float32, len(texts))
	for i := range texts {
		vectors[i] = make([]float32, f.dimension)
		vectors[i][0] = 1
	}
	return vectors, nil
}

type fakeIndex struct {
	ensuredName      string
	ensuredDimension int
	upsertVectors    [][]float32
	upsertPayloads   []map[string]interface{}
	deletedDocument  string
}

func (f *fakeIndex) EnsureCollection(ctx context.Context, name string, vectorDimension int) error {
	f.ensuredName = name
	f.ensuredDimension = vectorDimension
	return nil
}

func (f *fakeIndex) Upsert(ctx context.Context, collection string, vectors [][]float32, payloads []map[string]interface{}) ([]string, error) {
	f.upsertVectors = vectors
	f.upsertPayloads = payloads
	ids := make([]string, len(vectors))
	for i := range ids {
		ids[i] = fmt.Sprintf("point-%d", i)
	}
	return ids, nil
}

func (f *fakeIndex) DeleteByDocument(ctx context.Context, collection, documentID string) error {
	f.deletedDocument = documentID
	return nil
}

func (f *fakeIndex) Info(ctx context.Context, collection string) (*qdrant.CollectionInfo, error) {
	return &qdrant.CollectionInfo{Name: collection, PointCount: 42, Status: "green"}, nil
}

func TestIngestDocument(t *testing.T) {
	embedder := &fakeEmbedder{dimension: 768}
	index := &fakeIndex{}
	pipeline := NewPipeline(embedder, index, logger.NewNopLogger())

	text := strings.Repeat("Sentence one of the report. Sentence two with more details. ", 30)
	result, err := pipeline.IngestDocument(context.Background(), "docs", "doc-123", text,
		map[string]interface{}{"filename": "report.txt"}, DefaultOptions())
	require.NoError(t, err)
	require.Greater(t, result.ChunkCount, 1)
	require.Len(t, result.PointIDs, result.ChunkCount)

	require.Equal(t, "docs", index.ensuredName)
	require.Equal(t, 768, index.ensuredDimension, "dimension probed from the first embedding")
	require.Len(t, index.upsertVectors, result.ChunkCount)

	for i, payload := range index.upsertPayloads {
		require.Equal(t, "doc-123", payload["document_id"])
		require.Equal(t, i, payload["chunk_index"])
		require.Equal(t, "report.txt", payload["filename"])
		require.NotEmpty(t, payload["content"])
		require.Positive(t, payload["token_count"])
	}
}

func TestIngestEmptyTextShortCircuits(t *testing.T) {
	embedder := &fakeEmbedder{dimension: 8}
	index := &fakeIndex{}
	pipeline := NewPipeline(embedder, index, logger.NewNopLogger())

	result, err := pipeline.IngestDocument(context.Background(), "docs", "doc-1", "   \n\n  ",
		nil, DefaultOptions())
	require.NoError(t, err)
	require.Zero(t, result.ChunkCount)
	require.Empty(t, result.PointIDs)
	require.Zero(t, embedder.calls, "nothing to embed")
	require.Empty(t, index.ensuredName, "collection untouched for empty input")
}

func TestIngestZeroOptionsFallBackToDefaults(t *testing.T) {
	embedder := &fakeEmbedder{dimension: 8}
	index := &fakeIndex{}
	pipeline := NewPipeline(embedder, index, logger.NewNopLogger())

	result, err := pipeline.IngestDocument(context.Background(), "docs", "doc-1",
		strings.Repeat("some reasonable paragraph text here. ", 10), nil, Options{})
	require.NoError(t, err)
	require.Positive(t, result.ChunkCount)
}

func TestDeleteDocument(t *testing.T) {
	index := &fakeIndex{}
	pipeline := NewPipeline(&fakeEmbedder{dimension: 8}, index, logger.NewNopLogger())

	require.NoError(t, pipeline.DeleteDocument(context.Background(), "docs", "doc-9"))
	require.Equal(t, "doc-9", index.deletedDocument)
}

func TestCollectionStats(t *testing.T) {
	pipeline := NewPipeline(&fakeEmbedder{dimension: 8}, &fakeIndex{}, logger.NewNopLogger())

	info, err := pipeline.CollectionStats(context.Background(), "docs")
	require.NoError(t, err)
	require.Equal(t, "docs", info.Name)
	require.EqualValues(t, 42, info.PointCount)
}

package qdrant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEnsureCollectionCreatesWhenMissing(t *testing.T) {
	var created bool
	var createBody map[string]interface{}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			w.WriteHeader(http.StatusNotFound)
		case http.MethodPut:
			created = true
			require.NoError(t, json.NewDecoder(r.Body).Decode(&createBody))
			w.WriteHeader(http.StatusOK)
			fmt.Fprint(w, `{"result": true}`)
		}
	}))
	defer server.Close()

	client := NewClient(Config{URL: server.URL})
	require.NoError(t, client.EnsureCollection(context.Background(), "docs", 768))
	require.True(t, created)

	vectors := createBody["vectors"].(map[string]interface{})
	require.Equal(t, float64(768), vectors["size"])
	require.Equal(t, "Cosine", vectors["distance"])
}

func TestEnsureCollectionNoOpWhenPresent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPut {
			t.Error("unexpected create call for existing collection")
		}
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, `{"result": {"status": "green"}}`)
	}))
	defer server.Close()

	client := NewClient(Config{URL: server.URL})
	require.NoError(t, client.EnsureCollection(context.Background(), "docs", 768))
}

func TestUpsertBatchesAndPreservesOrder(t *testing.T) {
	var batches [][]string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Points []struct {
				ID      string                 `json:"id"`
				Vector  []float32              `json:"vector"`
				Payload map[string]interface{} `json:"payload"`
			} `json:"points"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.LessOrEqual(t, len(body.Points), 100, "upsert batch too large")

		ids := make([]string, len(body.Points))
		for i, p := range body.Points {
			ids[i] = p.ID
		}
		batches = append(batches, ids)
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, `{"result": {"status": "completed"}}`)
	}))
	defer server.Close()

	const n = 250
	vectors := make([][]float32, n)
	payloads := make([]map[string]interface{}, n)
	for i := range vectors {
		vectors[i] = []float32{float32(i)}
		payloads[i] = map[string]interface{}{"chunk_index": i}
	}

	client := NewClient(Config{URL: server.URL})
	pointIDs, err := client.Upsert(context.Background(), "docs", vectors, payloads)
	require.NoError(t, err)
	require.Len(t, pointIDs, n)
	require.Len(t, batches, 3)
	require.Len(t, batches[0], 100)
	require.Len(t, batches[1], 100)
	require.Len(t, batches[2], 50)

	// Returned ids follow input order across the batch boundaries.
	var sent []string
	for _, batch := range batches {
		sent = append(sent, batch...)
	}
	require.Equal(t, sent, pointIDs)

	seen := make(map[string]struct{}, n)
	for _, id := range pointIDs {
		_, dup := seen[id]
		require.False(t, dup, "duplicate point id %s", id)
		seen[id] = struct{}{}
	}
}

func TestUpsertLengthMismatch(t *testing.T) {
	client := NewClient(Config{URL: "http://localhost:6333"})
	_, err := client.Upsert(context.Background(), "docs", make([][]float32, 2), make([]map[string]interface{}, 1))
	require.Error(t, err)
}

func TestSearchLiftsContentFromPayload(t *testing.T) {
	var requestBody map[string]interface{}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&requestBody))
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, `{"result": [
			{"id": "a1", "score": 0.92, "payload": {"content": "first passage", "document_id": "doc-1", "chunk_index": 0}},
			{"id": "b2", "score": 0.71, "payload": {"content": "second passage", "document_id": "doc-2", "chunk_index": 3}}
		]}`)
	}))
	defer server.Close()

	client := NewClient(Config{URL: server.URL})
	hits, err := client.Search(context.Background(), "docs", []float32{0.1, 0.2}, 10, 0.65, map[string]interface{}{"document_id": "doc-1"})
	require.NoError(t, err)

	require.Equal(t, float64(10), requestBody["limit"])
	require.InDelta(t, 0.65, requestBody["score_threshold"], 1e-6)
	require.NotNil(t, requestBody["filter"])

	require.Len(t, hits, 2)
	require.Equal(t, "a1", hits[0].ID)
	require.Equal(t, "first passage", hits[0].Content)
	require.NotContains(t, hits[0].Metadata, "content")
	require.Equal(t, "doc-1", hits[0].Metadata["document_id"])
	require.InDelta(t, 0.92, float64(hits[0].Score), 1e-6)
}

func TestSearchWrapsBackendFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(Config{URL: server.URL})
	_, err := client.Search(context.Background(), "docs", []float32{0.1}, 5, 0.5, nil)
	require.Error(t, err)

	var unavailable *UnavailableError
	require.True(t, errors.As(err, &unavailable))
	require.Equal(t, "search", unavailable.Op)
}

func TestInfo(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, `{"result": {"vectors_count": 42, "points_count": 42, "status": "green"}}`)
	}))
	defer server.Close()

	client := NewClient(Config{URL: server.URL})
	info, err := client.Info(context.Background(), "docs")
	require.NoError(t, err)
	require.Equal(t, "docs", info.Name)
	require.Equal(t, int64(42), info.VectorCount)
	require.Equal(t, int64(42), info.PointCount)
	require.Equal(t, "green", info.Status)
}

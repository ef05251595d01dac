// Package qdrant is a minimal REST client for the Qdrant vector store. It
// covers collection management, batched upserts, and filtered similarity
// search. Failures are not retried here; retry policy belongs to callers.
package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// upsertBatchSize caps how many points go into one upsert call.
const upsertBatchSize = 100

// UnavailableError wraps any network or backend failure from the index.
type UnavailableError struct {
	Op  string
	Err error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("vector index unavailable during %s: %v", e.Op, e.Err)
}

func (e *UnavailableError) Unwrap() error {
	return e.Err
}

// ScoredHit is one search result with its payload content lifted out of the
// generic metadata bag.
type ScoredHit struct {
	ID       string
	Score    float32
	Content  string
	Metadata map[string]interface{}
}

// CollectionInfo describes a collection's current state.
type CollectionInfo struct {
	Name        string `json:"name"`
	VectorCount int64  `json:"vectors_count"`
	PointCount  int64  `json:"points_count"`
	Status      string `json:"status"`
}

type Config struct {
	URL     string
	APIKey  string
	Timeout time.Duration
}

// Client talks to one Qdrant instance. It is safe for concurrent use.
type Client struct {
	url    string
	apiKey string
	client *http.Client
}

func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		url:    cfg.URL,
		apiKey: cfg.APIKey,
		client: &http.Client{Timeout: timeout},
	}
}

// EnsureCollection creates the collection with cosine distance if it does not
// exist yet. It does not verify the dimension of an existing collection; that
// stays the caller's responsibility.
func (c *Client) EnsureCollection(ctx context.Context, name string, vectorDimension int) error {
	if vectorDimension <= 0 {
		return fmt.Errorf("invalid vector dimension: %d", vectorDimension)
	}

	exists, err := c.collectionExists(ctx, name)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	body := map[string]interface{}{
		"vectors": map[string]interface{}{
			"size":     vectorDimension,
			"distance": "Cosine",
		},
	}
	if err := c.putJSON(ctx, fmt.Sprintf("%s/collections/%s", c.url, name), body, nil); err != nil {
		return &UnavailableError{Op: "ensure collection", Err: err}
	}
	return nil
}

// Upsert writes one point per vector, assigning fresh UUIDs. Writes are
// batched at upsertBatchSize points per call; the returned ids follow input
// order regardless of batching.
func (c *Client) Upsert(
	ctx context.Context,
	collection string,
	vectors [][]float32,
	payloads []map[string]interface{},
) ([]string, error) {
	if len(vectors) != len(payloads) {
		return nil, fmt.Errorf("vectors and payloads length mismatch: %d != %d", len(vectors), len(payloads))
	}

	pointIDs := make([]string, len(vectors))
	for i := range pointIDs {
		pointIDs[i] = uuid.NewString()
	}

	for start := 0; start < len(vectors); start += upsertBatchSize {
		end := start + upsertBatchSize
		if end > len(vectors) {
			end = len(vectors)
		}

		points := make([]map[string]interface{}, 0, end-start)
		for i := start; i < end; i++ {
			points = append(points, map[string]interface{}{
				"id":      pointIDs[i],
				"vector":  vectors[i],
				"payload": payloads[i],
			})
		}

		body := map[string]interface{}{"points": points}
		url := fmt.Sprintf("%s/collections/%s/points?wait=true", c.url, collection)
		if err := c.putJSON(ctx, url, body, nil); err != nil {
			return nil, &UnavailableError{Op: "upsert", Err: err}
		}
	}

	return pointIDs, nil
}

// Search returns hits with similarity >= scoreThreshold, sorted descending by
// score. The payload's "content" field becomes ScoredHit.Content; everything
// else lands in the metadata bag.
func (c *Client) Search(
	ctx context.Context,
	collection string,
	queryVector []float32,
	limit int,
	scoreThreshold float32,
	filter map[string]interface{},
) ([]ScoredHit, error) {
	if limit <= 0 {
		limit = 5
	}

	body := map[string]interface{}{
		"vector":          queryVector,
		"limit":           limit,
		"score_threshold": scoreThreshold,
		"with_payload":    true,
	}
	if len(filter) > 0 {
		must := make([]map[string]interface{}, 0, len(filter))
		for key, value := range filter {
			must = append(must, map[string]interface{}{
				"key":   key,
				"match": map[string]interface{}{"value": value},
			})
		}
		body["filter"] = map[string]interface{}{"must": must}
	}

	var resp struct {
		Result []struct {
			ID      interface{}            `json:"id"`
			Score   float32                `json:"score"`
			Payload map[string]interface{} `json:"payload"`
		} `json:"result"`
	}
	url := fmt.Sprintf("%s/collections/%s/points/search", c.url, collection)
	if err := c.postJSON(ctx, url, body, &resp); err != nil {
		return nil, &UnavailableError{Op: "search", Err: err}
	}

	hits := make([]ScoredHit, 0, len(resp.Result))
	for _, r := range resp.Result {
		content := ""
		metadata := make(map[string]interface{}, len(r.Payload))
		for key, value := range r.Payload {
			if key == "content" {
				content, _ = value.(string)
				continue
			}
			metadata[key] = value
		}
		hits = append(hits, ScoredHit{
			ID:       fmt.Sprint(r.ID),
			Score:    r.Score,
			Content:  content,
			Metadata: metadata,
		})
	}
	return hits, nil
}

// DeleteByDocument removes every point whose payload document_id matches.
func (c *Client) DeleteByDocument(ctx context.Context, collection, documentID string) error {
	body := map[string]interface{}{
		"filter": map[string]interface{}{
			"must": []map[string]interface{}{
				{
					"key":   "document_id",
					"match": map[string]interface{}{"value": documentID},
				},
			},
		},
	}
	url := fmt.Sprintf("%s/collections/%s/points/delete?wait=true", c.url, collection)
	if err := c.postJSON(ctx, url, body, nil); err != nil {
		return &UnavailableError{Op: "delete by document", Err: err}
	}
	return nil
}

// DeleteCollection drops the whole collection.
func (c *Client) DeleteCollection(ctx context.Context, collection string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, fmt.Sprintf("%s/collections/%s", c.url, collection), nil)
	if err != nil {
		return &UnavailableError{Op: "delete collection", Err: err}
	}
	c.setHeaders(req)
	resp, err := c.client.Do(req)
	if err != nil {
		return &UnavailableError{Op: "delete collection", Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return &UnavailableError{Op: "delete collection", Err: fmt.Errorf("status %s", resp.Status)}
	}
	return nil
}

// Info returns the collection's name, counts, and status.
func (c *Client) Info(ctx context.Context, collection string) (*CollectionInfo, error) {
	var resp struct {
		Result struct {
			VectorsCount int64  `json:"vectors_count"`
			PointsCount  int64  `json:"points_count"`
			Status       string `json:"status"`
		} `json:"result"`
	}
	if err := c.getJSON(ctx, fmt.Sprintf("%s/collections/%s", c.url, collection), &resp); err != nil {
		return nil, &UnavailableError{Op: "collection info", Err: err}
	}
	return &CollectionInfo{
		Name:        collection,
		VectorCount: resp.Result.VectorsCount,
		PointCount:  resp.Result.PointsCount,
		Status:      resp.Result.Status,
	}, nil
}

// --- HTTP helpers ---

func (c *Client) collectionExists(ctx context.Context, name string) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/collections/%s", c.url, name), nil)
	if err != nil {
		return false, &UnavailableError{Op: "ensure collection", Err: err}
	}
	c.setHeaders(req)
	resp, err := c.client.Do(req)
	if err != nil {
		return false, &UnavailableError{Op: "ensure collection", Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		return true, nil
	case resp.StatusCode == http.StatusNotFound:
		return false, nil
	default:
		return false, &UnavailableError{Op: "ensure collection", Err: fmt.Errorf("status %s", resp.Status)}
	}
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("api-key", c.apiKey)
	}
}

func (c *Client) putJSON(ctx context.Context, url string, body interface{}, out interface{}) error {
	return c.doJSON(ctx, http.MethodPut, url, body, out)
}

func (c *Client) postJSON(ctx context.Context, url string, body interface{}, out interface{}) error {
	return c.doJSON(ctx, http.MethodPost, url, body, out)
}

func (c *Client) getJSON(ctx context.Context, url string, out interface{}) error {
	return c.doJSON(ctx, http.MethodGet, url, nil, out)
}

func (c *Client) doJSON(ctx context.Context, method, url string, body interface{}, out interface{}) error {
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return err
	}
	c.setHeaders(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("qdrant %s %s failed: %s", method, url, resp.Status)
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

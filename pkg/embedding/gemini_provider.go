package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const geminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// GeminiProvider implements Provider using the Gemini embedding API
type GeminiProvider struct {
	APIKey    string
	BaseURL   string
	ModelName string
	Client    *http.Client
}

var _ Provider = &GeminiProvider{}

func NewGeminiProvider(apiKey string, model string) *GeminiProvider {
	if model == "" {
		model = "text-embedding-004"
	}
	return &GeminiProvider{
		APIKey:    apiKey,
		BaseURL:   geminiBaseURL,
		ModelName: model,
		Client: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

type geminiEmbedContentPart struct {
	Text string `json:"text"`
}

type geminiEmbedContent struct {
	Parts []geminiEmbedContentPart `json:"parts"`
}

type geminiEmbedRequest struct {
	Model   string             `json:"model"`
	Content geminiEmbedContent `json:"content"`
}

type geminiBatchEmbedRequest struct {
	Requests []geminiEmbedRequest `json:"requests"`
}

type geminiEmbedding struct {
	Values []float32 `json:"values"`
}

type geminiBatchEmbedResponse struct {
	Embeddings []geminiEmbedding `json:"embeddings"`
}

func (p *GeminiProvider) EmbedOne(ctx context.Context, text string) ([]float32, error) {
	vectors, err := p.EmbedMany(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (p *GeminiProvider) EmbedMany(ctx context.Context, texts []string) ([][]float32, error) {
	return embedInBatches(ctx, texts, p.embedBatch)
}

func (p *GeminiProvider) Model() string {
	return p.ModelName
}

func (p *GeminiProvider) embedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	payload := geminiBatchEmbedRequest{
		Requests: make([]geminiEmbedRequest, len(texts)),
	}
	for i, text := range texts {
		payload.Requests[i] = geminiEmbedRequest{
			Model: "models/" + p.ModelName,
			Content: geminiEmbedContent{
				Parts: []geminiEmbedContentPart{{Text: text}},
			},
		}
	}

	payloadJson, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/models/%s:batchEmbedContents", p.BaseURL, p.ModelName)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(payloadJson))
	if err != nil {
		return nil, err
	}
	req.Header.Set("x-goog-api-key", p.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("gemini embedding error: status %d, body: %s", resp.StatusCode, string(bodyBytes))
	}

	var geminiResp geminiBatchEmbedResponse
	if err := json.Unmarshal(bodyBytes, &geminiResp); err != nil {
		return nil, err
	}

	if len(geminiResp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("gemini returned %d embeddings for %d texts", len(geminiResp.Embeddings), len(texts))
	}

	vectors := make([][]float32, len(geminiResp.Embeddings))
	for i, emb := range geminiResp.Embeddings {
		vectors[i] = normalizeVector(emb.Values)
	}
	return vectors, nil
}

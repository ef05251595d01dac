package rag

import (
	"context"
	"fmt"
	"strings"

	"github.com/pritom169/documind-ai/internal/pkg/logger"
	"github.com/pritom169/documind-ai/pkg/llm"
)

// noOutputMarker is what the model answers when nothing in a passage is
// relevant to the query.
const noOutputMarker = "NO_OUTPUT"

const extractPromptTemplate = `Given the following question and context, extract only the parts of the context that are relevant to answering the question. Copy the relevant parts verbatim; do not rephrase them.
If no part of the context is relevant, reply with exactly %s.

Question: %s

Context:
%s

Relevant parts:`

// Generator is the slice of the chat provider the compressor needs.
type Generator interface {
	Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error)
}

// Compressor performs LLM-based contextual compression: it asks the model to
// keep only the query-relevant spans of each passage. Compression is best
// effort: on any failure the uncompressed passages are returned.
type Compressor struct {
	llmProvider Generator
	logger      logger.ILogger
}

func NewCompressor(llmProvider Generator, log logger.ILogger) *Compressor {
	return &Compressor{
		llmProvider: llmProvider,
		logger:      log,
	}
}

// Compress never fails: any provider error falls back to the passages as
// given. A passage whose extraction comes back empty or NO_OUTPUT keeps its
// original content.
func (c *Compressor) Compress(ctx context.Context, query string, passages []Passage) []Passage {
	compressed := make([]Passage, len(passages))
	copy(compressed, passages)

	for i := range compressed {
		prompt := fmt.Sprintf(extractPromptTemplate, noOutputMarker, query, compressed[i].Content)
		extracted, err := c.llmProvider.Generate(ctx, prompt, llm.WithTemperature(0))
		if err != nil {
			c.logger.Warn("compressor", "compression failed, returning uncompressed passages", map[string]interface{}{
				"error": err.Error(),
			})
			return passages
		}
		extracted = strings.TrimSpace(extracted)
		if extracted == "" || strings.EqualFold(extracted, noOutputMarker) {
			continue
		}
		compressed[i].Content = extracted
	}
	return compressed
}

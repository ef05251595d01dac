package agent

import (
	"fmt"
	"strings"

	"github.com/pritom169/documind-ai/pkg/llm"
	"github.com/pritom169/documind-ai/pkg/rag"
)

// historyWindow caps how many past turns reach the model.
const historyWindow = 10

// sourceContentLimit caps the citation projection of a passage.
const sourceContentLimit = 300

const routerPrompt = `You are a query router for a document intelligence platform.
Analyse the user's query and decide which specialist agent should handle it.

Available agents:
- qa: Direct question answering from documents. Best for factual questions.
- research: Deep research across multiple documents. Best for complex, multi-faceted questions.
- summarise: Document or section summarisation. Best when user wants overviews or summaries.
- analyse: Data analysis and comparison. Best for analytical questions comparing information.

Respond with a JSON object of the form {"route": "<agent>", "reasoning": "<brief explanation>"}.`

const qaSystemPrompt = `You are a precise question-answering assistant.
Answer the user's question based ONLY on the provided context.
If the context doesn't contain the answer, say so clearly.
Cite specific sources using [Source N] notation.

Context:
%s`

const researchSystemPrompt = `You are a thorough research analyst.
Synthesise information from multiple sources to provide comprehensive analysis.
Structure your response with clear sections and cite sources using [Source N].
Identify patterns, contradictions, and gaps in the available information.

Context:
%s`

const summariseSystemPrompt = `You are an expert summariser.
Provide a clear, well-structured summary of the provided documents.
Use bullet points for key findings and maintain the original meaning.
Include section headers for different topics.

Context:
%s`

const analyseSystemPrompt = `You are a data analyst specialising in document analysis.
Compare, contrast, and extract insights from the provided documents.
Use structured formats (tables, lists) when comparing information.
Highlight trends, anomalies, and actionable insights.

Context:
%s`

// formatContext renders passages as numbered [Source N] sections. Every
// generation branch shares this exact format.
func formatContext(passages []rag.Passage) string {
	if len(passages) == 0 {
		return "No documents available."
	}

	parts := make([]string, 0, len(passages))
	for i, p := range passages {
		parts = append(parts, fmt.Sprintf("[Source %d] (doc: %s)\n%s", i+1, shortID(p.DocumentID), p.Content))
	}
	return strings.Join(parts, "\n\n---\n\n")
}

func shortID(id string) string {
	if id == "" {
		return "unknown"
	}
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// buildMessages assembles the shared message layout: system prompt with the
// interpolated context block, at most the last historyWindow turns, then the
// current query as the final user turn. History roles other than user and
// assistant are dropped at mapping; providers don't carry them mid-history.
func buildMessages(systemPrompt string, state PipelineState) []llm.Message {
	messages := []llm.Message{{Role: "system", Content: systemPrompt}}

	history := state.History
	if len(history) > historyWindow {
		history = history[len(history)-historyWindow:]
	}
	for _, turn := range history {
		if turn.Role != "user" && turn.Role != "assistant" {
			continue
		}
		messages = append(messages, turn)
	}

	messages = append(messages, llm.Message{Role: "user", Content: state.Query})
	return messages
}

// sourceRefs projects passages into their citation-safe form.
func sourceRefs(passages []rag.Passage) []SourceRef {
	refs := make([]SourceRef, 0, len(passages))
	for _, p := range passages {
		content := p.Content
		if runes := []rune(content); len(runes) > sourceContentLimit {
			content = string(runes[:sourceContentLimit])
		}
		refs = append(refs, SourceRef{
			Content:    content,
			Score:      p.Score,
			DocumentID: p.DocumentID,
			ChunkIndex: p.ChunkIndex,
		})
	}
	return refs
}

// extractJSON pulls the outermost JSON object out of a model response that
// may wrap it in prose or markdown fences.
func extractJSON(response string) string {
	startIdx := strings.Index(response, "{")
	endIdx := strings.LastIndex(response, "}")

	if startIdx == -1 || endIdx == -1 || endIdx <= startIdx {
		return ""
	}

	return response[startIdx : endIdx+1]
}

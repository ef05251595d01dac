// Package agent runs the query pipeline as a small state machine:
// route → retrieve → generate. Routing picks one of four generation
// strategies; retrieval is unconditional and may legitimately come back
// empty. The same stages back both the blocking and the streaming surface.
package agent

import (
	"fmt"

	"github.com/pritom169/documind-ai/pkg/llm"
	"github.com/pritom169/documind-ai/pkg/rag"
)

// Mode selects a generation strategy.
type Mode string

const (
	ModeQA        Mode = "qa"
	ModeResearch  Mode = "research"
	ModeSummarise Mode = "summarise"
	ModeAnalyse   Mode = "analyse"
)

// ValidMode reports whether m names a known generation strategy.
func ValidMode(m Mode) bool {
	switch m {
	case ModeQA, ModeResearch, ModeSummarise, ModeAnalyse:
		return true
	}
	return false
}

// SourceRef is the truncated, citation-safe projection of a retrieved passage
// returned to callers.
type SourceRef struct {
	Content    string  `json:"content"`
	Score      float32 `json:"score"`
	DocumentID string  `json:"document_id"`
	ChunkIndex int     `json:"chunk_index"`
}

// PipelineState is the single record threaded through every stage. Stages
// take it by value and return an updated copy; there is no shared mutable
// state between concurrent runs.
type PipelineState struct {
	Query        string
	History      []llm.Message
	Mode         Mode
	CollectionID string // empty means no retrieval corpus is bound
	UserID       string // tracing only, not authorization

	Passages []rag.Passage
	Answer   string
	Sources  []SourceRef
	Route    Mode
	Metadata map[string]interface{}
}

// withMeta returns the state with one more metadata entry. The map is copied
// so earlier snapshots of the state stay untouched.
func (s PipelineState) withMeta(key string, value interface{}) PipelineState {
	merged := make(map[string]interface{}, len(s.Metadata)+1)
	for k, v := range s.Metadata {
		merged[k] = v
	}
	merged[key] = value
	s.Metadata = merged
	return s
}

// RouteDecision is the structured output the router prompt asks for.
type RouteDecision struct {
	Reasoning string `json:"reasoning"`
	Route     string `json:"route"`
}

// Request is one pipeline invocation.
type Request struct {
	Query        string
	History      []llm.Message
	CollectionID string
	Mode         Mode
	UserID       string
}

// Result is the terminal output of a blocking invocation.
type Result struct {
	Answer   string
	Sources  []SourceRef
	Model    string
	Metadata map[string]interface{}
}

// GenerationError reports a failed generation branch. Unlike routing and
// compression failures, this one surfaces: the answer is the primary
// deliverable and must not be silently substituted.
type GenerationError struct {
	Agent Mode
	Err   error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("%s agent failed to generate an answer: %v", e.Agent, e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

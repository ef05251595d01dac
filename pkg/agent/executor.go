package agent

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/pritom169/documind-ai/internal/pkg/logger"
	"github.com/pritom169/documind-ai/pkg/llm"
	"github.com/pritom169/documind-ai/pkg/rag"
)

// Retriever is the slice of the retrieval pipeline the executor needs.
type Retriever interface {
	Retrieve(ctx context.Context, query, collection string) ([]rag.Passage, error)
}

// ProviderResolver resolves chat providers by name; an empty name resolves
// the configured default.
type ProviderResolver interface {
	Chat(name string) (llm.LLMProvider, error)
}

// Executor runs the pipeline state machine. It holds no per-run state and is
// safe for concurrent use.
type Executor struct {
	providers ProviderResolver
	retriever Retriever
	logger    logger.ILogger
}

func NewExecutor(providers ProviderResolver, retriever Retriever, log logger.ILogger) *Executor {
	return &Executor{
		providers: providers,
		retriever: retriever,
		logger:    log,
	}
}

// RunBlocking drives all states to completion and returns the terminal
// result synchronously.
func (e *Executor) RunBlocking(ctx context.Context, req Request) (*Result, error) {
	state := e.newState(req)

	state = e.route(ctx, state)

	state, err := e.retrieve(ctx, state)
	if err != nil {
		return nil, err
	}

	state, err = e.generate(ctx, state)
	if err != nil {
		return nil, err
	}

	model, _ := state.Metadata["model"].(string)
	return &Result{
		Answer:   state.Answer,
		Sources:  state.Sources,
		Model:    model,
		Metadata: state.Metadata,
	}, nil
}

func (e *Executor) newState(req Request) PipelineState {
	mode := req.Mode
	if mode == "" {
		mode = ModeQA
	}
	return PipelineState{
		Query:        req.Query,
		History:      req.History,
		Mode:         mode,
		CollectionID: req.CollectionID,
		UserID:       req.UserID,
		Metadata:     map[string]interface{}{},
	}
}

// route decides which generation branch handles the query. An explicit
// non-default mode wins without a model call. Otherwise the router prompt is
// asked for a structured decision; on any failure the branch falls back to
// qa, since routing must never block the pipeline.
func (e *Executor) route(ctx context.Context, state PipelineState) PipelineState {
	if ValidMode(state.Mode) && state.Mode != ModeQA {
		state.Route = state.Mode
		state = state.withMeta("route_reason", "user_selected")
		e.logger.Info("agent", "routed query", map[string]interface{}{
			"route":  string(state.Route),
			"reason": "user_selected",
			"user":   state.UserID,
		})
		return state
	}

	decision, err := e.askRouter(ctx, state.Query)
	if err != nil {
		state.Route = ModeQA
		state = state.withMeta("route_reason", "fallback")
		e.logger.Warn("agent", "routing fell back to qa", map[string]interface{}{
			"error": err.Error(),
			"user":  state.UserID,
		})
		return state
	}

	state.Route = Mode(decision.Route)
	state = state.withMeta("route_reason", decision.Reasoning)
	e.logger.Info("agent", "routed query", map[string]interface{}{
		"route": string(state.Route),
		"user":  state.UserID,
	})
	return state
}

func (e *Executor) askRouter(ctx context.Context, query string) (*RouteDecision, error) {
	provider, err := e.providers.Chat("")
	if err != nil {
		return nil, err
	}

	messages := []llm.Message{
		{Role: "system", Content: routerPrompt},
		{Role: "user", Content: "Query: " + query},
	}
	response, err := provider.Chat(ctx, messages, llm.WithTemperature(0))
	if err != nil {
		return nil, err
	}

	jsonContent := extractJSON(response)
	if jsonContent == "" {
		return nil, fmt.Errorf("no JSON found in router response")
	}

	var decision RouteDecision
	if err := json.Unmarshal([]byte(jsonContent), &decision); err != nil {
		return nil, fmt.Errorf("unmarshal router decision: %w", err)
	}
	if !ValidMode(Mode(decision.Route)) {
		return nil, fmt.Errorf("router chose unknown route: %s", decision.Route)
	}
	return &decision, nil
}

// retrieve is unconditional: a no-corpus run yields an empty passage set, not
// a skipped state. Sources are projected here for citation display,
// independent of what the generator uses internally.
func (e *Executor) retrieve(ctx context.Context, state PipelineState) (PipelineState, error) {
	passages, err := e.retriever.Retrieve(ctx, state.Query, state.CollectionID)
	if err != nil {
		return state, err
	}

	state.Passages = passages
	state.Sources = sourceRefs(passages)
	e.logger.Info("agent", "retrieved documents", map[string]interface{}{
		"count": len(passages),
		"user":  state.UserID,
	})
	return state, nil
}

// generate runs the routed strategy over the shared message layout.
func (e *Executor) generate(ctx context.Context, state PipelineState) (PipelineState, error) {
	branch, ok := strategies[state.Route]
	if !ok {
		branch = strategies[ModeQA]
		state.Route = ModeQA
	}

	provider, err := e.providers.Chat("")
	if err != nil {
		return state, err
	}

	systemPrompt := fmt.Sprintf(branch.systemPrompt, formatContext(state.Passages))
	messages := buildMessages(systemPrompt, state)

	answer, err := provider.Chat(ctx, messages,
		llm.WithTemperature(branch.temperature),
		llm.WithMaxTokens(branch.maxTokens),
	)
	if err != nil {
		return state, &GenerationError{Agent: state.Route, Err: err}
	}

	state.Answer = answer
	state = state.withMeta("agent", string(state.Route))
	state = state.withMeta("model", provider.Model())
	return state, nil
}

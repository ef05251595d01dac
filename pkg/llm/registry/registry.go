// Package registry resolves logical provider names to ready-to-use chat and
// embedding clients. Resolution is a pure function of name plus configuration,
// so handles are cached process-wide and shared by concurrent pipeline runs.
package registry

import (
	"fmt"
	"sort"
	"strings"

	gocache "github.com/patrickmn/go-cache"

	"github.com/pritom169/documind-ai/pkg/embedding"
	"github.com/pritom169/documind-ai/pkg/llm"
	"github.com/pritom169/documind-ai/pkg/llm/gemini"
	"github.com/pritom169/documind-ai/pkg/llm/ollama"
)

// UnknownProviderError reports a provider name with no registered
// implementation, along with the names that would have been accepted.
type UnknownProviderError struct {
	Name      string
	Available []string
}

func (e *UnknownProviderError) Error() string {
	return fmt.Sprintf("unknown provider: %s (available: %s)", e.Name, strings.Join(e.Available, ", "))
}

// Config carries the per-backend settings the constructors need.
type Config struct {
	DefaultChatProvider      string // used when Chat is called with an empty name
	DefaultEmbeddingProvider string // used when Embedding is called with an empty name

	OllamaBaseURL        string
	OllamaChatModel      string
	OllamaEmbeddingModel string

	GeminiAPIKey         string
	GeminiChatModel      string
	GeminiEmbeddingModel string
}

// Registry is a capability-keyed provider lookup. New backends register a
// constructor; call sites never change.
type Registry struct {
	cfg     Config
	handles *gocache.Cache

	chatConstructors      map[string]func() llm.LLMProvider
	embeddingConstructors map[string]func() embedding.Provider
}

func New(cfg Config) *Registry {
	r := &Registry{
		cfg:     cfg,
		handles: gocache.New(gocache.NoExpiration, 0),
	}
	r.chatConstructors = map[string]func() llm.LLMProvider{
		"ollama": func() llm.LLMProvider {
			return ollama.NewOllamaProvider(cfg.OllamaBaseURL, cfg.OllamaChatModel)
		},
		"gemini": func() llm.LLMProvider {
			return gemini.NewGeminiProvider(cfg.GeminiAPIKey, cfg.GeminiChatModel)
		},
	}
	r.embeddingConstructors = map[string]func() embedding.Provider{
		"ollama": func() embedding.Provider {
			return embedding.NewOllamaProvider(cfg.OllamaBaseURL, cfg.OllamaEmbeddingModel)
		},
		"gemini": func() embedding.Provider {
			return embedding.NewGeminiProvider(cfg.GeminiAPIKey, cfg.GeminiEmbeddingModel)
		},
	}
	return r
}

// Chat resolves a chat provider by name. An empty name resolves the
// configured default.
func (r *Registry) Chat(name string) (llm.LLMProvider, error) {
	if name == "" {
		name = r.cfg.DefaultChatProvider
	}

	construct, ok := r.chatConstructors[name]
	if !ok {
		return nil, &UnknownProviderError{Name: name, Available: r.chatProviderNames()}
	}

	key := "chat:" + name
	if cached, found := r.handles.Get(key); found {
		return cached.(llm.LLMProvider), nil
	}
	provider := construct()
	r.handles.Set(key, provider, gocache.NoExpiration)
	return provider, nil
}

// Embedding resolves an embedding provider by name. An empty name resolves
// the configured default.
func (r *Registry) Embedding(name string) (embedding.Provider, error) {
	if name == "" {
		name = r.cfg.DefaultEmbeddingProvider
	}

	construct, ok := r.embeddingConstructors[name]
	if !ok {
		return nil, &UnknownProviderError{Name: name, Available: r.embeddingProviderNames()}
	}

	key := "embedding:" + name
	if cached, found := r.handles.Get(key); found {
		return cached.(embedding.Provider), nil
	}
	provider := construct()
	r.handles.Set(key, provider, gocache.NoExpiration)
	return provider, nil
}

func (r *Registry) chatProviderNames() []string {
	names := make([]string, 0, len(r.chatConstructors))
	for name := range r.chatConstructors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) embeddingProviderNames() []string {
	names := make([]string, 0, len(r.embeddingConstructors))
	for name := range r.embeddingConstructors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

package registry

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestRegistry() *Registry {
	return New(Config{
		DefaultChatProvider:      "ollama",
		DefaultEmbeddingProvider: "ollama",
		OllamaBaseURL:            "http://localhost:11434",
		OllamaChatModel:          "llama3",
		OllamaEmbeddingModel:     "nomic-embed-text",
		GeminiAPIKey:             "test-key",
		GeminiChatModel:          "gemini-1.5-flash",
		GeminiEmbeddingModel:     "text-embedding-004",
	})
}

func TestChatResolvesDefault(t *testing.T) {
	reg := newTestRegistry()

	provider, err := reg.Chat("")
	require.NoError(t, err)
	require.Equal(t, "llama3", provider.Model())
}

func TestChatResolvesByName(t *testing.T) {
	reg := newTestRegistry()

	provider, err := reg.Chat("gemini")
	require.NoError(t, err)
	require.Equal(t, "gemini-1.5-flash", provider.Model())
}

func TestChatUnknownProvider(t *testing.T) {
	reg := newTestRegistry()

	_, err := reg.Chat("anthropic")
	require.Error(t, err)

	var unknownErr *UnknownProviderError
	require.True(t, errors.As(err, &unknownErr))
	require.Equal(t, "anthropic", unknownErr.Name)
	require.Equal(t, []string{"gemini", "ollama"}, unknownErr.Available)
	require.Contains(t, err.Error(), "anthropic")
	require.Contains(t, err.Error(), "ollama")
}

func TestEmbeddingUnknownProvider(t *testing.T) {
	reg := newTestRegistry()

	_, err := reg.Embedding("bedrock")
	var unknownErr *UnknownProviderError
	require.True(t, errors.As(err, &unknownErr))
	require.Equal(t, "bedrock", unknownErr.Name)
}

func TestHandlesAreCached(t *testing.T) {
	reg := newTestRegistry()

	first, err := reg.Chat("ollama")
	require.NoError(t, err)
	second, err := reg.Chat("ollama")
	require.NoError(t, err)
	require.Same(t, first, second)

	embFirst, err := reg.Embedding("gemini")
	require.NoError(t, err)
	embSecond, err := reg.Embedding("gemini")
	require.NoError(t, err)
	require.Same(t, embFirst, embSecond)
}

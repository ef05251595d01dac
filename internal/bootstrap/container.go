package bootstrap

import (
	"time"

	"github.com/pritom169/documind-ai/internal/config"
	"github.com/pritom169/documind-ai/internal/pkg/logger"
	"github.com/pritom169/documind-ai/pkg/agent"
	"github.com/pritom169/documind-ai/pkg/ingest"
	"github.com/pritom169/documind-ai/pkg/llm/registry"
	"github.com/pritom169/documind-ai/pkg/rag"
	"github.com/pritom169/documind-ai/pkg/vectorstore/qdrant"
)

// Container wires the query and ingestion pipelines from configuration.
type Container struct {
	Registry *registry.Registry
	Qdrant   *qdrant.Client
	Executor *agent.Executor
	Ingest   *ingest.Pipeline
	Logger   logger.ILogger
}

func NewContainer(cfg *config.Config) (*Container, error) {
	log := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	// 1. Provider registry
	reg := registry.New(registry.Config{
		DefaultChatProvider:      cfg.Ai.LLMProvider,
		DefaultEmbeddingProvider: cfg.Ai.EmbeddingProvider,
		OllamaBaseURL:            cfg.Ai.OllamaBaseURL,
		OllamaChatModel:          cfg.Ai.OllamaLLMModel,
		OllamaEmbeddingModel:     cfg.Ai.OllamaEmbeddingModel,
		GeminiAPIKey:             cfg.Ai.GeminiAPIKey,
		GeminiChatModel:          cfg.Ai.GeminiLLMModel,
		GeminiEmbeddingModel:     cfg.Ai.GeminiEmbeddingModel,
	})

	// 2. Vector index client (shared, connection is lazy)
	qdrantClient := qdrant.NewClient(qdrant.Config{
		URL:     cfg.Qdrant.URL,
		APIKey:  cfg.Qdrant.APIKey,
		Timeout: time.Duration(cfg.Qdrant.TimeoutSeconds) * time.Second,
	})

	// 3. Retrieval pipeline
	embedder, err := reg.Embedding("")
	if err != nil {
		return nil, err
	}
	chatProvider, err := reg.Chat("")
	if err != nil {
		return nil, err
	}

	retrievalCfg := rag.Config{
		TopK:             cfg.Retrieval.TopK,
		RerankTopK:       cfg.Retrieval.RerankTopK,
		ScoreThreshold:   float32(cfg.Retrieval.ScoreThreshold),
		SimilarityWeight: 0.7,
		KeywordWeight:    0.3,
		UseCompression:   cfg.Retrieval.UseCompression,
	}
	compressor := rag.NewCompressor(chatProvider, log)
	retriever := rag.NewRetriever(embedder, qdrantClient, compressor, retrievalCfg, log)

	// 4. Agent executor and ingestion pipeline
	executor := agent.NewExecutor(reg, retriever, log)
	ingestPipeline := ingest.NewPipeline(embedder, qdrantClient, log)

	return &Container{
		Registry: reg,
		Qdrant:   qdrantClient,
		Executor: executor,
		Ingest:   ingestPipeline,
		Logger:   log,
	}, nil
}

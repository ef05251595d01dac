package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	App       AppConfig
	Ai        AIConfig
	Qdrant    QdrantConfig
	Retrieval RetrievalConfig
	Chunking  ChunkingConfig
}

type AppConfig struct {
	Environment string
	LogFilePath string
}

type AIConfig struct {
	LLMProvider       string // "ollama" or "gemini"
	EmbeddingProvider string // "ollama" or "gemini"

	OllamaBaseURL        string
	OllamaLLMModel       string
	OllamaEmbeddingModel string

	GeminiAPIKey         string
	GeminiLLMModel       string
	GeminiEmbeddingModel string
}

type QdrantConfig struct {
	URL            string
	APIKey         string
	TimeoutSeconds int
}

type RetrievalConfig struct {
	TopK           int
	RerankTopK     int
	ScoreThreshold float64
	UseCompression bool
}

type ChunkingConfig struct {
	ChunkSize    int
	ChunkOverlap int
	Strategy     string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Environment: getEnv("GO_ENV", "development"),
			LogFilePath: getEnv("LOG_FILE_PATH", "documind.log"),
		},
		Ai: AIConfig{
			LLMProvider:          getEnv("LLM_PROVIDER", "ollama"),
			EmbeddingProvider:    getEnv("EMBEDDING_PROVIDER", "ollama"),
			OllamaBaseURL:        getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			OllamaLLMModel:       getEnv("OLLAMA_LLM_MODEL", "llama3"),
			OllamaEmbeddingModel: getEnv("OLLAMA_EMBEDDING_MODEL", "nomic-embed-text"),
			GeminiAPIKey:         getEnv("GOOGLE_GEMINI_API_KEY", ""),
			GeminiLLMModel:       getEnv("GEMINI_LLM_MODEL", "gemini-1.5-flash"),
			GeminiEmbeddingModel: getEnv("GEMINI_EMBEDDING_MODEL", "text-embedding-004"),
		},
		Qdrant: QdrantConfig{
			URL:            getEnv("QDRANT_URL", "http://localhost:6333"),
			APIKey:         getEnv("QDRANT_API_KEY", ""),
			TimeoutSeconds: getEnvAsInt("QDRANT_TIMEOUT_SECONDS", 15),
		},
		Retrieval: RetrievalConfig{
			TopK:           getEnvAsInt("RETRIEVAL_TOP_K", 10),
			RerankTopK:     getEnvAsInt("RETRIEVAL_RERANK_TOP_K", 5),
			ScoreThreshold: getEnvAsFloat("RETRIEVAL_SCORE_THRESHOLD", 0.65),
			UseCompression: getEnvAsBool("RETRIEVAL_USE_COMPRESSION", false),
		},
		Chunking: ChunkingConfig{
			ChunkSize:    getEnvAsInt("CHUNK_SIZE", 1000),
			ChunkOverlap: getEnvAsInt("CHUNK_OVERLAP", 200),
			Strategy:     getEnv("CHUNK_STRATEGY", "recursive"),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseFloat(strValue, 64); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseBool(strValue); err == nil {
		return value
	}
	return fallback
}

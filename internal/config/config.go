package config

import (
	"fmt"

	"github.com/go-playground/validator"

	"github.com/wayfind-ai/wayfind/internal/util"
	"github.com/wayfind-ai/wayfind/pkg/logger"
)

// Config carries every credential and tuning knob the service needs. It is
// built once at startup and passed by reference into the engine and each
// collaborator constructor; nothing reads the process environment after Load.
type Config struct {
	// AI backend selection: "openai" (default) or "ollama".
	Adapter string

	ChatURL     string
	ChatKey     string `validate:"required"`
	ChatModel   string
	RouterModel string

	EmbedURL   string
	EmbedKey   string
	EmbedModel string
	EmbedDim   int

	TavilyURL string
	TavilyKey string `validate:"required"`

	DatabaseURL string `validate:"required"`

	RetrievalK  int
	WebSearchK  int
	Temperature float64

	// MaxRetries bounds query reformulation attempts per execution.
	MaxRetries int
	// MaxIterations caps total node executions per query as a safety valve
	// against the ungrounded-regenerate loop. 0 disables the cap.
	MaxIterations int

	ChunkTokens  int
	ChunkOverlap int

	MaxConcurrentRequests int64
}

// Load reads the configuration from the environment (including a .env file
// when present) and applies defaults.
func Load() *Config {
	util.LoadEnv()

	return &Config{
		Adapter: util.GetEnvString("AI_ADAPTER", "openai"),

		ChatURL:     util.GetEnv("AI_CHAT_URL"),
		ChatKey:     util.GetEnv("AI_CHAT_KEY"),
		ChatModel:   util.GetEnvString("AI_CHAT_MODEL", "gpt-4o-mini"),
		RouterModel: util.GetEnvString("AI_ROUTER_MODEL", "gpt-4o-mini"),

		EmbedURL:   util.GetEnv("AI_EMBED_URL"),
		EmbedKey:   util.GetEnv("AI_EMBED_KEY"),
		EmbedModel: util.GetEnvString("AI_EMBED_MODEL", "text-embedding-3-small"),
		EmbedDim:   util.GetEnvInt("AI_EMBED_DIM", 1536),

		TavilyURL: util.GetEnvString("TAVILY_URL", "https://api.tavily.com/search"),
		TavilyKey: util.GetEnv("TAVILY_API_KEY"),

		DatabaseURL: util.GetEnv("DATABASE_URL"),

		RetrievalK:  util.GetEnvInt("RETRIEVAL_K", 4),
		WebSearchK:  util.GetEnvInt("WEB_SEARCH_K", 3),
		Temperature: util.GetEnvFloat("AI_TEMPERATURE", 0.0),

		MaxRetries:    util.GetEnvInt("MAX_QUERY_RETRIES", 3),
		MaxIterations: util.GetEnvInt("MAX_QUERY_ITERATIONS", 0),

		ChunkTokens:  util.GetEnvInt("CHUNK_TOKENS", 500),
		ChunkOverlap: util.GetEnvInt("CHUNK_OVERLAP", 0),

		MaxConcurrentRequests: int64(util.GetEnvInt("AI_PARALLEL_REQ", 15)),
	}
}

// Validate checks that mandatory credentials are present. A missing
// embedding key is only a warning since the chat credentials may cover it.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if c.EmbedKey == "" && c.Adapter != "ollama" {
		logger.Warn("AI_EMBED_KEY not set, falling back to chat credentials for embeddings")
	}
	return nil
}

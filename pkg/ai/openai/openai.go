package openai

import (
	"sync"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"golang.org/x/sync/semaphore"

	"github.com/wayfind-ai/wayfind/pkg/ai"
)

// OpenAIModelClient implements ai.ModelClient against any OpenAI-compatible
// API. It keeps separate clients for chat and embeddings so the two can run
// against different endpoints (e.g. Groq for chat, OpenAI for embeddings).
type OpenAIModelClient struct {
	chatModel      string
	embeddingModel string
	embedDim       int

	chatURL      string
	chatKey      string
	embeddingURL string
	embeddingKey string

	timeoutMin int

	reqLock *semaphore.Weighted

	metricsLock sync.Mutex
	metrics     ai.ModelMetrics

	ChatClient      *openai.Client
	EmbeddingClient *openai.Client
}

// NewOpenAIModelClientParams defines the configuration for
// NewOpenAIModelClient. When EmbeddingKey is empty the chat credentials are
// reused for embeddings.
type NewOpenAIModelClientParams struct {
	ChatModel      string
	EmbeddingModel string
	EmbedDim       int

	ChatURL      string
	ChatKey      string
	EmbeddingURL string
	EmbeddingKey string

	TimeoutMin            int
	MaxConcurrentRequests int64
}

// NewOpenAIModelClient creates a new client configured with the provided
// parameters.
func NewOpenAIModelClient(params NewOpenAIModelClientParams) *OpenAIModelClient {
	if params.EmbeddingKey == "" {
		params.EmbeddingKey = params.ChatKey
		if params.EmbeddingURL == "" {
			params.EmbeddingURL = params.ChatURL
		}
	}
	if params.TimeoutMin <= 0 {
		params.TimeoutMin = 5
	}
	if params.MaxConcurrentRequests <= 0 {
		params.MaxConcurrentRequests = 15
	}
	if params.EmbedDim <= 0 {
		params.EmbedDim = 1536
	}

	return &OpenAIModelClient{
		chatModel:      params.ChatModel,
		embeddingModel: params.EmbeddingModel,
		embedDim:       params.EmbedDim,

		chatURL:      params.ChatURL,
		chatKey:      params.ChatKey,
		embeddingURL: params.EmbeddingURL,
		embeddingKey: params.EmbeddingKey,

		timeoutMin: params.TimeoutMin,

		reqLock: semaphore.NewWeighted(params.MaxConcurrentRequests),

		ChatClient:      newOpenaiClient(params.ChatURL, params.ChatKey),
		EmbeddingClient: newOpenaiClient(params.EmbeddingURL, params.EmbeddingKey),
	}
}

func newOpenaiClient(baseURL string, apiKey string) *openai.Client {
	if apiKey == "" {
		return nil
	}
	options := []option.RequestOption{
		option.WithAPIKey(apiKey),
	}
	if baseURL != "" {
		options = append(options, option.WithBaseURL(baseURL))
	}

	client := openai.NewClient(options...)
	return &client
}

package ollama

import (
	"net/http"
	"net/url"
	"sync"

	"github.com/ollama/ollama/api"
	"golang.org/x/sync/semaphore"

	"github.com/wayfind-ai/wayfind/pkg/ai"
)

// OllamaModelClient implements ai.ModelClient against a locally-hosted
// Ollama server. It is the fallback backend for deployments without a
// hosted embedding or chat API.
type OllamaModelClient struct {
	chatModel      string
	embeddingModel string
	embedDim       int

	reqLock *semaphore.Weighted

	metricsLock sync.Mutex
	metrics     ai.ModelMetrics

	baseURL    *url.URL
	apiKey     string
	httpClient *http.Client

	Client *api.Client
}

// NewOllamaModelClientParams contains configuration options for creating a
// new OllamaModelClient.
type NewOllamaModelClientParams struct {
	ChatModel      string
	EmbeddingModel string
	EmbedDim       int

	BaseURL string
	ApiKey  string

	MaxConcurrentRequests int64
}

type headerTransport struct {
	headers map[string]string
	rt      http.RoundTripper
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	// clone so original request isn't modified
	r := req.Clone(req.Context())
	for k, v := range t.headers {
		if r.Header.Get(k) == "" {
			r.Header.Set(k, v)
		}
	}
	return t.rt.RoundTrip(r)
}

// NewOllamaModelClient creates a new Ollama-backed client. It connects to
// the server at BaseURL (or the Ollama default when empty).
func NewOllamaModelClient(params NewOllamaModelClientParams) (*OllamaModelClient, error) {
	var (
		u   *url.URL
		err error
	)

	if params.BaseURL != "" {
		u, err = url.Parse(params.BaseURL)
		if err != nil {
			return nil, err
		}
	}

	if params.MaxConcurrentRequests <= 0 {
		params.MaxConcurrentRequests = 4
	}
	if params.EmbedDim <= 0 {
		params.EmbedDim = 1536
	}

	httpClient := &http.Client{
		Transport: &headerTransport{
			headers: map[string]string{
				"Authorization": "Bearer " + params.ApiKey,
			},
			rt: http.DefaultTransport,
		},
	}

	return &OllamaModelClient{
		chatModel:      params.ChatModel,
		embeddingModel: params.EmbeddingModel,
		embedDim:       params.EmbedDim,

		reqLock: semaphore.NewWeighted(params.MaxConcurrentRequests),

		baseURL:    u,
		apiKey:     params.ApiKey,
		httpClient: httpClient,

		Client: api.NewClient(u, httpClient),
	}, nil
}

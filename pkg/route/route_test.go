package route

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/wayfind-ai/wayfind/pkg/ai"
	"github.com/wayfind-ai/wayfind/pkg/flow"
)

// fakeModelClient answers structured calls with a canned JSON payload and
// records the prompts it saw.
type fakeModelClient struct {
	payload       string
	lastPrompt    string
	systemPrompts []string
}

func (c *fakeModelClient) GenerateCompletion(_ context.Context, prompt string, _ ...ai.GenerateOption) (string, error) {
	c.lastPrompt = prompt
	return c.payload, nil
}

func (c *fakeModelClient) GenerateCompletionWithFormat(_ context.Context, _, _, prompt string, out any, opts ...ai.GenerateOption) error {
	options := ai.GenerateOptions{}
	for _, o := range opts {
		o(&options)
	}
	c.lastPrompt = prompt
	c.systemPrompts = options.SystemPrompts
	return json.Unmarshal([]byte(c.payload), out)
}

func (c *fakeModelClient) GenerateEmbedding(_ context.Context, _ []byte) ([]float32, error) {
	return nil, nil
}

func (c *fakeModelClient) GenerateEmbeddings(_ context.Context, _ [][]byte) ([][]float32, error) {
	return nil, nil
}

func (c *fakeModelClient) ResetMetrics() {}

func (c *fakeModelClient) GetMetrics() ai.ModelMetrics {
	return ai.ModelMetrics{}
}

func TestRouteReturnsParsedLabel(t *testing.T) {
	client := &fakeModelClient{payload: `{"datasource": "web_search"}`}
	router := NewQuestionRouter(QuestionRouterParams{Client: client})

	label, err := router.Route(context.Background(), "what happened in the news today?")
	if err != nil {
		t.Fatalf("Route() error = %v", err)
	}
	if label != flow.SourceWebSearch {
		t.Fatalf("Route() = %q, want %q", label, flow.SourceWebSearch)
	}
	if client.lastPrompt != "what happened in the news today?" {
		t.Fatalf("prompt = %q, want the question verbatim", client.lastPrompt)
	}
}

func TestRouteRejectsLabelOutsideDomain(t *testing.T) {
	client := &fakeModelClient{payload: `{"datasource": "wikipedia"}`}
	router := NewQuestionRouter(QuestionRouterParams{Client: client})

	_, err := router.Route(context.Background(), "q")
	if err == nil {
		t.Fatal("Route() accepted a label outside the routing domain")
	}
}

func TestRoutePromptListsDefaultTopics(t *testing.T) {
	client := &fakeModelClient{payload: `{"datasource": "vectorstore"}`}
	router := NewQuestionRouter(QuestionRouterParams{Client: client})

	if _, err := router.Route(context.Background(), "q"); err != nil {
		t.Fatalf("Route() error = %v", err)
	}
	if len(client.systemPrompts) != 1 {
		t.Fatalf("system prompts = %d, want 1", len(client.systemPrompts))
	}
	for _, topic := range DefaultTopics {
		if !strings.Contains(client.systemPrompts[0], "- "+topic) {
			t.Fatalf("system prompt missing topic %q", topic)
		}
	}
}

func TestUpdateTopicsReplacesPrompt(t *testing.T) {
	client := &fakeModelClient{payload: `{"datasource": "vectorstore"}`}
	router := NewQuestionRouter(QuestionRouterParams{Client: client})
	router.UpdateTopics([]string{"Distributed systems", "Databases"})

	if _, err := router.Route(context.Background(), "q"); err != nil {
		t.Fatalf("Route() error = %v", err)
	}
	prompt := client.systemPrompts[0]
	if !strings.Contains(prompt, "- Distributed systems") || !strings.Contains(prompt, "- Databases") {
		t.Fatalf("system prompt missing updated topics: %q", prompt)
	}
	if strings.Contains(prompt, "Astronomy") {
		t.Fatalf("system prompt still lists a default topic: %q", prompt)
	}
}

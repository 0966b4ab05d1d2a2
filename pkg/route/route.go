// Package route decides which data source should serve a question: the
// indexed corpus or live web search.
package route

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/wayfind-ai/wayfind/internal/util"
	"github.com/wayfind-ai/wayfind/pkg/ai"
	"github.com/wayfind-ai/wayfind/pkg/flow"
)

const maxAttempts = 3

const routingPromptTemplate = `You are an expert at routing a user question to either a vectorstore or web search.

The vectorstore contains information on the following topics:
%s

If the question is related to these topics, route it to the vectorstore. Otherwise, use web search.`

// DefaultTopics describes the corpus when no topic list has been supplied.
var DefaultTopics = []string{
	"Finance and real estate",
	"Library and research topics",
	"Biology and microbiology",
	"Literature and writing",
	"Movies and entertainment",
	"Animals and nature",
	"History and geography",
	"Astronomy",
}

type routeDecision struct {
	Datasource string `json:"datasource" jsonschema:"enum=vectorstore,enum=web_search" jsonschema_description:"Given a user question choose to route it to web search or a vectorstore."`
}

// QuestionRouterParams configures a QuestionRouter.
type QuestionRouterParams struct {
	Client ai.ModelClient
	// Model overrides the client's default chat model. Optional.
	Model string
	// Topics describes the corpus. Defaults to DefaultTopics.
	Topics      []string
	Temperature float64
}

// QuestionRouter classifies questions against the corpus topic list using a
// structured model call. Safe for concurrent use; UpdateTopics may be called
// while queries are in flight.
type QuestionRouter struct {
	client      ai.ModelClient
	model       string
	temperature float64

	mu           sync.RWMutex
	systemPrompt string
}

// NewQuestionRouter builds a router for the given topic list.
func NewQuestionRouter(params QuestionRouterParams) *QuestionRouter {
	topics := params.Topics
	if len(topics) == 0 {
		topics = DefaultTopics
	}
	return &QuestionRouter{
		client:       params.Client,
		model:        params.Model,
		temperature:  params.Temperature,
		systemPrompt: buildRoutingPrompt(topics),
	}
}

// UpdateTopics replaces the corpus topic description, for example after a
// reindex changed what the corpus covers.
func (r *QuestionRouter) UpdateTopics(topics []string) {
	prompt := buildRoutingPrompt(topics)
	r.mu.Lock()
	r.systemPrompt = prompt
	r.mu.Unlock()
}

// Route implements flow.Router.
func (r *QuestionRouter) Route(ctx context.Context, question string) (flow.SourceLabel, error) {
	r.mu.RLock()
	prompt := r.systemPrompt
	r.mu.RUnlock()

	var decision routeDecision
	err := util.RetryErr(maxAttempts, func() error {
		return r.client.GenerateCompletionWithFormat(
			ctx, "route_query", "Route a user query to the most relevant data source.",
			question, &decision,
			ai.WithModel(r.model),
			ai.WithSystemPrompts(prompt),
			ai.WithTemperature(r.temperature),
		)
	})
	if err != nil {
		return "", fmt.Errorf("failed to route question: %w", err)
	}
	return flow.ParseSourceLabel(decision.Datasource)
}

func buildRoutingPrompt(topics []string) string {
	var b strings.Builder
	for i, topic := range topics {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString("- ")
		b.WriteString(topic)
	}
	return fmt.Sprintf(routingPromptTemplate, b.String())
}

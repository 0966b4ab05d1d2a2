// Package answer generates answers from a question and its evidence
// passages.
package answer

import (
	"context"
	"fmt"

	"github.com/wayfind-ai/wayfind/internal/util"
	"github.com/wayfind-ai/wayfind/pkg/ai"
	"github.com/wayfind-ai/wayfind/pkg/flow"
)

const maxAttempts = 3

const answerPromptTemplate = `You are a helpful assistant that answers questions based on the following context.
Use the provided context to answer the question.

Context: %s
Question: %s
Answer:`

// GeneratorParams configures a Generator.
type GeneratorParams struct {
	Client ai.ModelClient
	// Model overrides the client's default chat model. Optional.
	Model       string
	Temperature float64
}

// Generator produces a plain-text answer grounded in the supplied passages.
// An empty or garbled completion is a valid low-quality answer, not an
// error.
type Generator struct {
	client      ai.ModelClient
	model       string
	temperature float64
}

// NewGenerator builds a Generator backed by the given model client.
func NewGenerator(params GeneratorParams) *Generator {
	return &Generator{
		client:      params.Client,
		model:       params.Model,
		temperature: params.Temperature,
	}
}

// Generate implements flow.Generator. Passage contents are joined with a
// blank line as the context block.
func (g *Generator) Generate(ctx context.Context, question string, passages []flow.Passage) (string, error) {
	prompt := fmt.Sprintf(answerPromptTemplate, FormatPassages(passages), question)

	generation, err := util.Retry(maxAttempts, func() (string, error) {
		return g.client.GenerateCompletion(
			ctx, prompt,
			ai.WithModel(g.model),
			ai.WithTemperature(g.temperature),
		)
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate answer: %w", err)
	}
	return generation, nil
}

// FormatPassages joins passage contents with a blank line, the separator
// the generation prompt expects.
func FormatPassages(passages []flow.Passage) string {
	out := ""
	for i, p := range passages {
		if i > 0 {
			out += "\n\n"
		}
		out += p.Content
	}
	return out
}

// Package grade implements the three binary quality checks of the
// workflow: document relevance, answer groundedness, and answer adequacy.
package grade

import (
	"context"
	"fmt"

	"github.com/wayfind-ai/wayfind/internal/util"
	"github.com/wayfind-ai/wayfind/pkg/ai"
	"github.com/wayfind-ai/wayfind/pkg/flow"
)

const maxAttempts = 3

const relevancePrompt = `You are a grader assessing relevance of a retrieved document to a user question.

If the document contains keyword(s) or semantic meaning related to the question, grade it as relevant.

Give a binary score 'yes' or 'no' score to indicate whether the document is relevant to the question.`

const groundednessPrompt = `You are a grader assessing whether an LLM generation is grounded in / supported by a set of retrieved facts.

Give a binary score 'yes' or 'no'. 'Yes' means that the answer is grounded in / supported by the set of facts.`

const adequacyPrompt = `You are a grader assessing whether an answer addresses / resolves a question.

Give a binary score 'yes' or 'no'. 'Yes' means that the answer resolves the question.`

type binaryScore struct {
	BinaryScore string `json:"binary_score" jsonschema:"enum=yes,enum=no" jsonschema_description:"Binary verdict, 'yes' or 'no'"`
}

// GraderParams configures a grader.
type GraderParams struct {
	Client ai.ModelClient
	// Model overrides the client's default chat model. Optional.
	Model       string
	Temperature float64
}

// grader is the shared core: a system prompt, a user prompt template with
// two slots, and a structured yes/no model call.
type grader struct {
	client       ai.ModelClient
	model        string
	temperature  float64
	name         string
	description  string
	systemPrompt string
	userTemplate string
}

func (g *grader) Grade(ctx context.Context, reference, candidate string) (flow.Verdict, error) {
	prompt := fmt.Sprintf(g.userTemplate, reference, candidate)

	var score binaryScore
	err := util.RetryErr(maxAttempts, func() error {
		return g.client.GenerateCompletionWithFormat(
			ctx, g.name, g.description, prompt, &score,
			ai.WithModel(g.model),
			ai.WithSystemPrompts(g.systemPrompt),
			ai.WithTemperature(g.temperature),
		)
	})
	if err != nil {
		return "", fmt.Errorf("failed to grade %s: %w", g.name, err)
	}
	return flow.ParseVerdict(score.BinaryScore)
}

// NewRelevanceGrader judges a retrieved passage against the question.
// Reference is the question, candidate the passage text.
func NewRelevanceGrader(params GraderParams) flow.Grader {
	return &grader{
		client:       params.Client,
		model:        params.Model,
		temperature:  params.Temperature,
		name:         "grade_documents",
		description:  "Grade documents for relevance to a question.",
		systemPrompt: relevancePrompt,
		userTemplate: "Retrieved document: \n\n %[2]s \n\n User question: %[1]s",
	}
}

// NewGroundednessGrader judges the answer against the joined evidence.
// Reference is the evidence text, candidate the generated answer.
func NewGroundednessGrader(params GraderParams) flow.Grader {
	return &grader{
		client:       params.Client,
		model:        params.Model,
		temperature:  params.Temperature,
		name:         "grade_hallucinations",
		description:  "Grade whether a generation is grounded in retrieved facts.",
		systemPrompt: groundednessPrompt,
		userTemplate: "Set of facts: \n\n %[1]s \n\n LLM generation: %[2]s",
	}
}

// NewAdequacyGrader judges the answer against the question. Reference is
// the question, candidate the generated answer.
func NewAdequacyGrader(params GraderParams) flow.Grader {
	return &grader{
		client:       params.Client,
		model:        params.Model,
		temperature:  params.Temperature,
		name:         "grade_answer",
		description:  "Grade whether an answer addresses the question.",
		systemPrompt: adequacyPrompt,
		userTemplate: "User question: \n\n %[1]s \n\n LLM generation: %[2]s",
	}
}

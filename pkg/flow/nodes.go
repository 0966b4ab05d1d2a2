package flow

import (
	"context"
	"fmt"

	"github.com/wayfind-ai/wayfind/pkg/logger"
)

// Node identifies a workflow step, both internally and in streamed events.
type Node string

const (
	NodeRetrieve       Node = "retrieve"
	NodeWebSearch      Node = "web_search"
	NodeGradeDocuments Node = "grade_documents"
	NodeGenerate       Node = "generate"
	NodeTransformQuery Node = "transform_query"

	nodeEnd Node = ""
)

// transformPrefix is prepended to the question on each reformulation. The
// rewrite compounds: a second transform wraps the already-wrapped question.
const transformPrefix = "Please provide more details about: "

func (e *Engine) retrieve(ctx context.Context, state *State) error {
	logger.Debug("[Flow] Retrieve", "question", state.Question)
	docs, err := e.collab.Retriever.Retrieve(ctx, state.Question)
	if err != nil {
		return fmt.Errorf("failed to retrieve documents: %w", err)
	}
	if docs == nil {
		docs = []Passage{}
	}
	state.Documents = docs
	return nil
}

func (e *Engine) webSearch(ctx context.Context, state *State) error {
	logger.Debug("[Flow] Web search", "question", state.Question)
	passage, err := e.collab.WebSearcher.Search(ctx, state.Question)
	if err != nil {
		return fmt.Errorf("failed to search the web: %w", err)
	}
	state.Documents = []Passage{passage}
	return nil
}

// gradeDocuments keeps the relevant subset of the retrieved passages,
// preserving their order.
func (e *Engine) gradeDocuments(ctx context.Context, state *State) error {
	logger.Debug("[Flow] Grade documents", "count", len(state.Documents))
	kept := make([]Passage, 0, len(state.Documents))
	for _, doc := range state.Documents {
		verdict, err := e.collab.RelevanceGrader.Grade(ctx, state.Question, doc.Content)
		if err != nil {
			return fmt.Errorf("failed to grade document relevance: %w", err)
		}
		if verdict.Affirmative() {
			kept = append(kept, doc)
		}
	}
	logger.Debug("[Flow] Graded documents", "kept", len(kept), "dropped", len(state.Documents)-len(kept))
	state.Documents = kept
	return nil
}

func (e *Engine) generate(ctx context.Context, state *State) error {
	logger.Debug("[Flow] Generate", "question", state.Question, "documents", len(state.Documents))
	generation, err := e.collab.Generator.Generate(ctx, state.Question, state.Documents)
	if err != nil {
		return fmt.Errorf("failed to generate answer: %w", err)
	}
	state.Generation = generation
	return nil
}

func (e *Engine) transformQuery(ctx context.Context, state *State) error {
	state.Question = transformPrefix + state.Question
	state.RetryCount++
	logger.Debug("[Flow] Transform query", "question", state.Question, "retry_count", state.RetryCount)
	return nil
}

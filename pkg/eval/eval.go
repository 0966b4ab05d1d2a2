// Package eval runs batches of questions through the workflow and collects
// simple quality and performance metrics.
package eval

import (
	"context"
	"strings"
	"time"

	"github.com/wayfind-ai/wayfind/pkg/flow"
	"github.com/wayfind-ai/wayfind/pkg/logger"
)

// citationPhrases are the heuristics for an answer that references its
// evidence.
var citationPhrases = []string{
	"according to",
	"based on",
	"the document",
	"the context",
	"as mentioned",
}

// Metrics describes one evaluated question.
type Metrics struct {
	Question         string        `json:"question"`
	Answer           string        `json:"answer"`
	RouteTaken       flow.Node     `json:"route_taken"`
	ResponseTime     time.Duration `json:"response_time"`
	DocumentCount    int           `json:"document_count"`
	AnswerWords      int           `json:"answer_words"`
	RetryCount       int           `json:"retry_count"`
	ContainsCitation bool          `json:"contains_citation"`
}

// Runner is the slice of the engine the evaluator needs.
type Runner interface {
	Stream(ctx context.Context, question string, sink flow.Sink) (flow.State, error)
}

// Evaluator runs questions through an engine and accumulates metrics. Not
// safe for concurrent use.
type Evaluator struct {
	engine  Runner
	results []Metrics
}

// NewEvaluator builds an evaluator over the given engine.
func NewEvaluator(engine Runner) *Evaluator {
	return &Evaluator{engine: engine}
}

// Evaluate runs a single question and records its metrics.
func (e *Evaluator) Evaluate(ctx context.Context, question string) (Metrics, error) {
	var firstNode flow.Node
	start := time.Now()

	state, err := e.engine.Stream(ctx, question, func(ev flow.Event) {
		if firstNode == "" {
			firstNode = ev.Node
		}
	})
	if err != nil {
		return Metrics{}, err
	}

	answer := state.Generation
	lower := strings.ToLower(answer)
	cited := false
	for _, phrase := range citationPhrases {
		if strings.Contains(lower, phrase) {
			cited = true
			break
		}
	}

	m := Metrics{
		Question:         question,
		Answer:           answer,
		RouteTaken:       firstNode,
		ResponseTime:     time.Since(start),
		DocumentCount:    len(state.Documents),
		AnswerWords:      len(strings.Fields(answer)),
		RetryCount:       state.RetryCount,
		ContainsCitation: cited,
	}
	e.results = append(e.results, m)
	return m, nil
}

// EvaluateBatch runs all questions, skipping ones that fail.
func (e *Evaluator) EvaluateBatch(ctx context.Context, questions []string) []Metrics {
	results := make([]Metrics, 0, len(questions))
	for _, question := range questions {
		m, err := e.Evaluate(ctx, question)
		if err != nil {
			logger.Warn("[Eval] Evaluation failed", "question", question, "err", err)
			continue
		}
		results = append(results, m)
	}
	return results
}

// Results returns all metrics collected so far.
func (e *Evaluator) Results() []Metrics {
	return e.results
}

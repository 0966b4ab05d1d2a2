package flow

import (
	"context"
	"errors"
	"fmt"

	"github.com/wayfind-ai/wayfind/pkg/logger"
)

// DefaultMaxRetries bounds the inadequate-answer reformulation loop.
const DefaultMaxRetries = 3

// Event is emitted to a streaming sink after each node executes. State is
// a snapshot; the sink may keep it without racing the execution.
type Event struct {
	Node  Node  `json:"node"`
	State State `json:"state"`
}

// Sink receives streamed events. Called synchronously between node steps.
type Sink func(Event)

// Collaborators are the pluggable stages of the workflow. All fields are
// required.
type Collaborators struct {
	Router      Router
	Retriever   Retriever
	WebSearcher WebSearcher
	// RelevanceGrader judges a passage against the question.
	RelevanceGrader Grader
	// GroundednessGrader judges the answer against the joined evidence.
	GroundednessGrader Grader
	// AdequacyGrader judges the answer against the question.
	AdequacyGrader Grader
	Generator      Generator
}

// EngineParams configures a workflow engine.
type EngineParams struct {
	// Config is checked before every execution. Optional.
	Config       Config
	Collaborators Collaborators
	// MaxRetries caps query reformulations. Zero means DefaultMaxRetries.
	MaxRetries int
	// MaxIterations caps total node executions per query as a safety valve
	// against a generator and groundedness grader that never agree. Zero
	// means unlimited.
	MaxIterations int
}

// Engine drives a question through the workflow until termination. Safe for
// concurrent use; each execution owns its own State.
type Engine struct {
	cfg           Config
	collab        Collaborators
	maxRetries    int
	maxIterations int
	nodes         map[Node]func(context.Context, *State) error
	edges         map[Node]func(context.Context, *State) (Node, error)
}

// NewEngine validates the collaborator set and compiles the node and edge
// tables.
func NewEngine(params EngineParams) (*Engine, error) {
	c := params.Collaborators
	switch {
	case c.Router == nil:
		return nil, errors.New("router is required")
	case c.Retriever == nil:
		return nil, errors.New("retriever is required")
	case c.WebSearcher == nil:
		return nil, errors.New("web searcher is required")
	case c.RelevanceGrader == nil:
		return nil, errors.New("relevance grader is required")
	case c.GroundednessGrader == nil:
		return nil, errors.New("groundedness grader is required")
	case c.AdequacyGrader == nil:
		return nil, errors.New("adequacy grader is required")
	case c.Generator == nil:
		return nil, errors.New("generator is required")
	}

	maxRetries := params.MaxRetries
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}

	e := &Engine{
		cfg:           params.Config,
		collab:        c,
		maxRetries:    maxRetries,
		maxIterations: params.MaxIterations,
	}
	e.nodes = map[Node]func(context.Context, *State) error{
		NodeRetrieve:       e.retrieve,
		NodeWebSearch:      e.webSearch,
		NodeGradeDocuments: e.gradeDocuments,
		NodeGenerate:       e.generate,
		NodeTransformQuery: e.transformQuery,
	}
	e.edges = map[Node]func(context.Context, *State) (Node, error){
		NodeRetrieve:       staticEdge(NodeGradeDocuments),
		NodeWebSearch:      staticEdge(NodeGenerate),
		NodeGradeDocuments: e.decideToGenerate,
		NodeTransformQuery: staticEdge(NodeGenerate),
		NodeGenerate:       e.gradeGeneration,
	}
	return e, nil
}

func staticEdge(next Node) func(context.Context, *State) (Node, error) {
	return func(context.Context, *State) (Node, error) {
		return next, nil
	}
}

// Stream runs the workflow, emitting an event to sink after each node, and
// returns the final state. A nil sink degrades to a plain run.
func (e *Engine) Stream(ctx context.Context, question string, sink Sink) (State, error) {
	return e.run(ctx, question, sink)
}

// Invoke runs the workflow to completion and returns the final answer, or
// NoAnswer if execution terminated without one.
func (e *Engine) Invoke(ctx context.Context, question string) (string, error) {
	state, err := e.run(ctx, question, nil)
	if err != nil {
		return "", err
	}
	if state.Generation == "" {
		return NoAnswer, nil
	}
	return state.Generation, nil
}

func (e *Engine) run(ctx context.Context, question string, sink Sink) (State, error) {
	if e.cfg != nil {
		if err := e.cfg.Validate(); err != nil {
			return State{}, &ConfigurationError{Err: err}
		}
	}

	state := State{Question: question}
	current, err := e.routeQuestion(ctx, &state)
	if err != nil {
		return state, err
	}

	steps := 0
	for current != nodeEnd {
		if err := ctx.Err(); err != nil {
			return state, err
		}
		steps++
		if e.maxIterations > 0 && steps > e.maxIterations {
			logger.Warn("[Flow] Iteration limit reached", "limit", e.maxIterations, "question", state.Question)
			return state, ErrIterationLimit
		}

		if err := e.nodes[current](ctx, &state); err != nil {
			return state, err
		}
		if sink != nil {
			sink(Event{Node: current, State: state.Clone()})
		}

		current, err = e.edges[current](ctx, &state)
		if err != nil {
			return state, err
		}
	}
	logger.Debug("[Flow] Done", "steps", steps, "retry_count", state.RetryCount)
	return state, nil
}

// routeQuestion dispatches to the data source chosen by the router. A label
// outside the routing domain is fatal; no node has run yet.
func (e *Engine) routeQuestion(ctx context.Context, state *State) (Node, error) {
	label, err := e.collab.Router.Route(ctx, state.Question)
	if err != nil {
		return nodeEnd, fmt.Errorf("failed to route question: %w", err)
	}
	switch label {
	case SourceVectorstore:
		logger.Debug("[Flow] Routing to vectorstore", "question", state.Question)
		return NodeRetrieve, nil
	case SourceWebSearch:
		logger.Debug("[Flow] Routing to web search", "question", state.Question)
		return NodeWebSearch, nil
	}
	return nodeEnd, &RoutingError{Label: string(label)}
}

// decideToGenerate reformulates the question when grading left no evidence,
// and generates otherwise.
func (e *Engine) decideToGenerate(_ context.Context, state *State) (Node, error) {
	if len(state.Documents) == 0 {
		logger.Debug("[Flow] No relevant documents, transforming query")
		return NodeTransformQuery, nil
	}
	return NodeGenerate, nil
}

// gradeGeneration checks the answer for groundedness and adequacy. An
// ungrounded answer is regenerated with the same evidence, without spending
// retry budget. A grounded but inadequate answer triggers a reformulation
// until the retry budget is spent, after which the answer is accepted as is.
func (e *Engine) gradeGeneration(ctx context.Context, state *State) (Node, error) {
	evidence := joinContents(state.Documents, "\n")

	grounded, err := e.collab.GroundednessGrader.Grade(ctx, evidence, state.Generation)
	if err != nil {
		return nodeEnd, fmt.Errorf("failed to grade groundedness: %w", err)
	}
	if !grounded.Affirmative() {
		logger.Debug("[Flow] Generation not grounded, regenerating")
		return NodeGenerate, nil
	}

	adequate, err := e.collab.AdequacyGrader.Grade(ctx, state.Question, state.Generation)
	if err != nil {
		return nodeEnd, fmt.Errorf("failed to grade adequacy: %w", err)
	}
	if adequate.Affirmative() {
		logger.Debug("[Flow] Generation useful, done")
		return nodeEnd, nil
	}
	if state.RetryCount >= e.maxRetries {
		logger.Info("[Flow] Retry budget exhausted, accepting answer", "retry_count", state.RetryCount)
		return nodeEnd, nil
	}
	logger.Debug("[Flow] Generation not useful, transforming query", "retry_count", state.RetryCount)
	return NodeTransformQuery, nil
}

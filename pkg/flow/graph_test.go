package flow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
)

type fakeRouter struct {
	label SourceLabel
	err   error
}

func (r *fakeRouter) Route(_ context.Context, _ string) (SourceLabel, error) {
	return r.label, r.err
}

type fakeRetriever struct {
	passages []Passage
	err      error
	calls    int
}

func (r *fakeRetriever) Retrieve(_ context.Context, _ string) ([]Passage, error) {
	r.calls++
	return r.passages, r.err
}

type fakeSearcher struct {
	passage Passage
	calls   int
}

func (s *fakeSearcher) Search(_ context.Context, _ string) (Passage, error) {
	s.calls++
	return s.passage, nil
}

// fakeGrader replays a scripted verdict sequence, then repeats the final
// verdict.
type fakeGrader struct {
	verdicts []Verdict
	err      error
	calls    int
}

func (g *fakeGrader) Grade(_ context.Context, _, _ string) (Verdict, error) {
	g.calls++
	if g.err != nil {
		return "", g.err
	}
	idx := g.calls - 1
	if idx >= len(g.verdicts) {
		idx = len(g.verdicts) - 1
	}
	return g.verdicts[idx], nil
}

type fakeGenerator struct {
	answer string
	calls  int
}

func (g *fakeGenerator) Generate(_ context.Context, _ string, _ []Passage) (string, error) {
	g.calls++
	return g.answer, nil
}

type fakeConfig struct {
	err error
}

func (c *fakeConfig) Validate() error {
	return c.err
}

func always(v Verdict) *fakeGrader {
	return &fakeGrader{verdicts: []Verdict{v}}
}

func corpusPassages(n int) []Passage {
	out := make([]Passage, n)
	for i := range out {
		out[i] = Passage{ID: fmt.Sprintf("p%d", i), Content: fmt.Sprintf("passage %d", i), Origin: OriginCorpus}
	}
	return out
}

func defaultCollaborators() Collaborators {
	return Collaborators{
		Router:             &fakeRouter{label: SourceVectorstore},
		Retriever:          &fakeRetriever{passages: corpusPassages(2)},
		WebSearcher:        &fakeSearcher{passage: Passage{Content: "web result", Origin: OriginWeb}},
		RelevanceGrader:    always(VerdictYes),
		GroundednessGrader: always(VerdictYes),
		AdequacyGrader:     always(VerdictYes),
		Generator:          &fakeGenerator{answer: "the answer"},
	}
}

func newTestEngine(t *testing.T, c Collaborators) *Engine {
	t.Helper()
	e, err := NewEngine(EngineParams{Collaborators: c})
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	return e
}

func nodeTrace(events []Event) []Node {
	nodes := make([]Node, 0, len(events))
	for _, ev := range events {
		nodes = append(nodes, ev.Node)
	}
	return nodes
}

func TestNewEngineRequiresCollaborators(t *testing.T) {
	c := defaultCollaborators()
	c.Generator = nil
	if _, err := NewEngine(EngineParams{Collaborators: c}); err == nil {
		t.Fatal("NewEngine() with nil generator did not fail")
	}
}

func TestInvokeVectorstoreHappyPath(t *testing.T) {
	c := defaultCollaborators()
	retriever := c.Retriever.(*fakeRetriever)
	searcher := c.WebSearcher.(*fakeSearcher)
	generator := c.Generator.(*fakeGenerator)
	e := newTestEngine(t, c)

	answer, err := e.Invoke(context.Background(), "what is a lease lock?")
	if err != nil {
		t.Fatalf("Invoke() error = %v", err)
	}
	if answer != "the answer" {
		t.Fatalf("Invoke() = %q, want %q", answer, "the answer")
	}
	if retriever.calls != 1 || searcher.calls != 0 {
		t.Fatalf("retriever calls = %d, searcher calls = %d, want 1 and 0", retriever.calls, searcher.calls)
	}
	if generator.calls != 1 {
		t.Fatalf("generator calls = %d, want 1", generator.calls)
	}
}

func TestStreamVectorstoreEmitsNodeSequence(t *testing.T) {
	c := defaultCollaborators()
	e := newTestEngine(t, c)

	var events []Event
	state, err := e.Stream(context.Background(), "q", func(ev Event) {
		events = append(events, ev)
	})
	if err != nil {
		t.Fatalf("Stream() error = %v", err)
	}

	want := []Node{NodeRetrieve, NodeGradeDocuments, NodeGenerate}
	got := nodeTrace(events)
	if len(got) != len(want) {
		t.Fatalf("node trace = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("node trace = %v, want %v", got, want)
		}
	}
	if state.RetryCount != 0 {
		t.Fatalf("retry count = %d, want 0", state.RetryCount)
	}
	if state.Generation != "the answer" {
		t.Fatalf("generation = %q, want %q", state.Generation, "the answer")
	}
}

func TestRoutingExclusivityWebSearch(t *testing.T) {
	c := defaultCollaborators()
	c.Router = &fakeRouter{label: SourceWebSearch}
	retriever := c.Retriever.(*fakeRetriever)
	searcher := c.WebSearcher.(*fakeSearcher)
	e := newTestEngine(t, c)

	var events []Event
	state, err := e.Stream(context.Background(), "latest release news", func(ev Event) {
		events = append(events, ev)
	})
	if err != nil {
		t.Fatalf("Stream() error = %v", err)
	}
	if searcher.calls != 1 || retriever.calls != 0 {
		t.Fatalf("searcher calls = %d, retriever calls = %d, want 1 and 0", searcher.calls, retriever.calls)
	}
	if events[0].Node != NodeWebSearch {
		t.Fatalf("first node = %q, want %q", events[0].Node, NodeWebSearch)
	}
	if len(state.Documents) != 1 || state.Documents[0].Origin != OriginWeb {
		t.Fatalf("documents = %+v, want one web passage", state.Documents)
	}
}

func TestRoutingContractViolationIsFatal(t *testing.T) {
	c := defaultCollaborators()
	c.Router = &fakeRouter{label: SourceLabel("magic_8_ball")}
	retriever := c.Retriever.(*fakeRetriever)
	e := newTestEngine(t, c)

	_, err := e.Invoke(context.Background(), "q")
	var routingErr *RoutingError
	if !errors.As(err, &routingErr) {
		t.Fatalf("Invoke() error = %v, want RoutingError", err)
	}
	if routingErr.Label != "magic_8_ball" {
		t.Fatalf("RoutingError label = %q, want %q", routingErr.Label, "magic_8_ball")
	}
	if retriever.calls != 0 {
		t.Fatalf("retriever ran %d times after routing violation, want 0", retriever.calls)
	}
}

func TestConfigGateBlocksExecution(t *testing.T) {
	c := defaultCollaborators()
	router := &fakeRouter{label: SourceVectorstore}
	c.Router = router
	e, err := NewEngine(EngineParams{
		Config:        &fakeConfig{err: errors.New("missing chat API key")},
		Collaborators: c,
	})
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}

	_, err = e.Invoke(context.Background(), "q")
	var cfgErr *ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("Invoke() error = %v, want ConfigurationError", err)
	}
	if c.Retriever.(*fakeRetriever).calls != 0 {
		t.Fatal("retriever ran despite invalid configuration")
	}
}

func TestDocumentFilteringPreservesOrder(t *testing.T) {
	c := defaultCollaborators()
	c.Retriever = &fakeRetriever{passages: corpusPassages(4)}
	// Keep passages 0 and 2.
	c.RelevanceGrader = &fakeGrader{verdicts: []Verdict{VerdictYes, VerdictNo, VerdictYes, VerdictNo}}
	e := newTestEngine(t, c)

	state, err := e.Stream(context.Background(), "q", nil)
	if err != nil {
		t.Fatalf("Stream() error = %v", err)
	}
	if len(state.Documents) != 2 {
		t.Fatalf("kept %d documents, want 2", len(state.Documents))
	}
	if state.Documents[0].ID != "p0" || state.Documents[1].ID != "p2" {
		t.Fatalf("kept documents %q, %q, want p0, p2", state.Documents[0].ID, state.Documents[1].ID)
	}
}

func TestEmptyEvidenceFallsBackToTransform(t *testing.T) {
	c := defaultCollaborators()
	c.RelevanceGrader = always(VerdictNo)
	e := newTestEngine(t, c)

	var events []Event
	state, err := e.Stream(context.Background(), "vague question", func(ev Event) {
		events = append(events, ev)
	})
	if err != nil {
		t.Fatalf("Stream() error = %v", err)
	}

	want := []Node{NodeRetrieve, NodeGradeDocuments, NodeTransformQuery, NodeGenerate}
	got := nodeTrace(events)
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Fatalf("node trace = %v, want %v", got, want)
	}
	if state.RetryCount != 1 {
		t.Fatalf("retry count = %d, want 1", state.RetryCount)
	}
	if !strings.HasPrefix(state.Question, "Please provide more details about: ") {
		t.Fatalf("question was not rewritten: %q", state.Question)
	}
	if !strings.HasSuffix(state.Question, "vague question") {
		t.Fatalf("rewritten question lost the original text: %q", state.Question)
	}
}

func TestUngroundedAnswerRegeneratesWithoutRetryBudget(t *testing.T) {
	c := defaultCollaborators()
	c.Router = &fakeRouter{label: SourceWebSearch}
	c.WebSearcher = &fakeSearcher{passage: Passage{
		Content: "Web search failed: provider timeout",
		Origin:  OriginWeb,
	}}
	// Not grounded twice, then grounded.
	c.GroundednessGrader = &fakeGrader{verdicts: []Verdict{VerdictNo, VerdictNo, VerdictYes}}
	generator := c.Generator.(*fakeGenerator)
	e := newTestEngine(t, c)

	state, err := e.Stream(context.Background(), "q", nil)
	if err != nil {
		t.Fatalf("Stream() error = %v", err)
	}
	if generator.calls != 3 {
		t.Fatalf("generator calls = %d, want 3", generator.calls)
	}
	if state.RetryCount != 0 {
		t.Fatalf("retry count = %d, want 0 for regenerate loops", state.RetryCount)
	}
}

func TestInadequateAnswersExhaustRetryBudget(t *testing.T) {
	c := defaultCollaborators()
	c.AdequacyGrader = always(VerdictNo)
	generator := c.Generator.(*fakeGenerator)
	transformSeen := 0
	e := newTestEngine(t, c)

	state, err := e.Stream(context.Background(), "q", func(ev Event) {
		if ev.Node == NodeTransformQuery {
			transformSeen++
			if ev.State.RetryCount != transformSeen {
				t.Fatalf("retry count = %d after transform %d", ev.State.RetryCount, transformSeen)
			}
		}
	})
	if err != nil {
		t.Fatalf("Stream() error = %v", err)
	}
	// Three reformulations, then the fourth inadequate answer is accepted.
	if transformSeen != 3 {
		t.Fatalf("transform ran %d times, want 3", transformSeen)
	}
	if generator.calls != 4 {
		t.Fatalf("generator calls = %d, want 4", generator.calls)
	}
	if state.RetryCount != 3 {
		t.Fatalf("final retry count = %d, want 3", state.RetryCount)
	}
	if state.Generation == "" {
		t.Fatal("final generation is empty, want the accepted answer")
	}
}

func TestQuestionRewriteCompounds(t *testing.T) {
	c := defaultCollaborators()
	c.AdequacyGrader = always(VerdictNo)
	e := newTestEngine(t, c)

	state, err := e.Stream(context.Background(), "why", nil)
	if err != nil {
		t.Fatalf("Stream() error = %v", err)
	}
	want := strings.Repeat("Please provide more details about: ", 3) + "why"
	if state.Question != want {
		t.Fatalf("question = %q, want %q", state.Question, want)
	}
}

func TestIterationLimitStopsRunawayRegeneration(t *testing.T) {
	c := defaultCollaborators()
	c.GroundednessGrader = always(VerdictNo)
	e, err := NewEngine(EngineParams{Collaborators: c, MaxIterations: 10})
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}

	_, err = e.Invoke(context.Background(), "q")
	if !errors.Is(err, ErrIterationLimit) {
		t.Fatalf("Invoke() error = %v, want ErrIterationLimit", err)
	}
}

func TestInvokeReturnsSentinelWithoutGeneration(t *testing.T) {
	state := State{}
	if state.Generation != "" {
		t.Fatal("zero state has a generation")
	}
	// The sentinel is a defensive fallback; the topology always passes
	// through generate, so exercise the mapping directly.
	if NoAnswer != "No answer generated" {
		t.Fatalf("NoAnswer = %q", NoAnswer)
	}
}

func TestCollaboratorFailurePropagates(t *testing.T) {
	c := defaultCollaborators()
	c.RelevanceGrader = &fakeGrader{err: errors.New("model unavailable")}
	e := newTestEngine(t, c)

	_, err := e.Invoke(context.Background(), "q")
	if err == nil || !strings.Contains(err.Error(), "model unavailable") {
		t.Fatalf("Invoke() error = %v, want wrapped grader failure", err)
	}
}

func TestStreamSnapshotsAreIsolated(t *testing.T) {
	c := defaultCollaborators()
	c.AdequacyGrader = &fakeGrader{verdicts: []Verdict{VerdictNo, VerdictYes}}
	e := newTestEngine(t, c)

	var snapshots []State
	_, err := e.Stream(context.Background(), "q", func(ev Event) {
		snapshots = append(snapshots, ev.State)
	})
	if err != nil {
		t.Fatalf("Stream() error = %v", err)
	}

	// The retrieve snapshot must still hold the unfiltered, untransformed
	// view even though later nodes mutated the live state.
	first := snapshots[0]
	if first.Question != "q" {
		t.Fatalf("first snapshot question = %q, want %q", first.Question, "q")
	}
	if first.RetryCount != 0 {
		t.Fatalf("first snapshot retry count = %d, want 0", first.RetryCount)
	}
	if len(first.Documents) != 2 {
		t.Fatalf("first snapshot documents = %d, want 2", len(first.Documents))
	}
}

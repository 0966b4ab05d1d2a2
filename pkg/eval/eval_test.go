package eval

import (
	"context"
	"errors"
	"testing"

	"github.com/wayfind-ai/wayfind/pkg/flow"
)

// fakeRunner replays scripted outcomes keyed by question.
type fakeRunner struct {
	routes  map[string]flow.Node
	states  map[string]flow.State
	failing map[string]bool
}

func (r *fakeRunner) Stream(_ context.Context, question string, sink flow.Sink) (flow.State, error) {
	if r.failing[question] {
		return flow.State{}, errors.New("boom")
	}
	if sink != nil {
		sink(flow.Event{Node: r.routes[question], State: r.states[question]})
	}
	return r.states[question], nil
}

func TestEvaluateCollectsMetrics(t *testing.T) {
	runner := &fakeRunner{
		routes: map[string]flow.Node{"q1": flow.NodeRetrieve},
		states: map[string]flow.State{"q1": {
			Question:   "q1",
			Generation: "Based on the context, the answer is three words longer.",
			Documents:  []flow.Passage{{Content: "a"}, {Content: "b"}},
			RetryCount: 1,
		}},
	}
	e := NewEvaluator(runner)

	m, err := e.Evaluate(context.Background(), "q1")
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	if m.RouteTaken != flow.NodeRetrieve {
		t.Fatalf("route = %q, want retrieve", m.RouteTaken)
	}
	if m.DocumentCount != 2 {
		t.Fatalf("document count = %d, want 2", m.DocumentCount)
	}
	if m.AnswerWords != 10 {
		t.Fatalf("answer words = %d, want 10", m.AnswerWords)
	}
	if !m.ContainsCitation {
		t.Fatal("citation not detected")
	}
	if m.RetryCount != 1 {
		t.Fatalf("retry count = %d, want 1", m.RetryCount)
	}
}

func TestEvaluateBatchSkipsFailures(t *testing.T) {
	runner := &fakeRunner{
		routes: map[string]flow.Node{
			"ok1": flow.NodeRetrieve,
			"ok2": flow.NodeWebSearch,
		},
		states: map[string]flow.State{
			"ok1": {Generation: "answer one", Documents: []flow.Passage{{Content: "x"}}},
			"ok2": {Generation: "answer two"},
		},
		failing: map[string]bool{"bad": true},
	}
	e := NewEvaluator(runner)

	results := e.EvaluateBatch(context.Background(), []string{"ok1", "bad", "ok2"})
	if len(results) != 2 {
		t.Fatalf("EvaluateBatch() = %d results, want 2", len(results))
	}
	if len(e.Results()) != 2 {
		t.Fatalf("Results() = %d, want 2", len(e.Results()))
	}
}

func TestGenerateReport(t *testing.T) {
	results := []Metrics{
		{RouteTaken: flow.NodeRetrieve, AnswerWords: 10, DocumentCount: 2, ContainsCitation: true},
		{RouteTaken: flow.NodeRetrieve, AnswerWords: 20, DocumentCount: 4},
		{RouteTaken: flow.NodeWebSearch, AnswerWords: 30, DocumentCount: 1},
		{RouteTaken: flow.NodeWebSearch, AnswerWords: 40, DocumentCount: 0, ContainsCitation: true},
	}

	report := BuildReport(results)
	if report.Summary.TotalQuestions != 4 {
		t.Fatalf("total = %d, want 4", report.Summary.TotalQuestions)
	}
	if report.Routing.VectorstoreQueries != 2 || report.Routing.WebSearchQueries != 2 {
		t.Fatalf("routing = %+v", report.Routing)
	}
	if report.Routing.VectorstorePercentage != 50.0 {
		t.Fatalf("vectorstore percentage = %v, want 50", report.Routing.VectorstorePercentage)
	}
	if report.Quality.ResponsesWithCitations != 2 {
		t.Fatalf("citations = %d, want 2", report.Quality.ResponsesWithCitations)
	}
	if report.Quality.ResponsesWithContext != 3 {
		t.Fatalf("with context = %d, want 3", report.Quality.ResponsesWithContext)
	}
	if report.Summary.AvgAnswerWords != 25.0 {
		t.Fatalf("avg words = %v, want 25", report.Summary.AvgAnswerWords)
	}
	if report.Performance.LongestAnswer != 40 || report.Performance.ShortestAnswer != 10 {
		t.Fatalf("performance = %+v", report.Performance)
	}
}

func TestGenerateReportEmpty(t *testing.T) {
	e := NewEvaluator(&fakeRunner{})
	report := e.GenerateReport()
	if report.Summary.TotalQuestions != 0 {
		t.Fatalf("empty report total = %d", report.Summary.TotalQuestions)
	}
}

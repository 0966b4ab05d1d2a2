package grade

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/wayfind-ai/wayfind/pkg/ai"
	"github.com/wayfind-ai/wayfind/pkg/flow"
)

type fakeModelClient struct {
	payload    string
	err        error
	lastPrompt string
	lastSystem []string
}

func (c *fakeModelClient) GenerateCompletion(_ context.Context, prompt string, _ ...ai.GenerateOption) (string, error) {
	c.lastPrompt = prompt
	return c.payload, c.err
}

func (c *fakeModelClient) GenerateCompletionWithFormat(_ context.Context, _, _, prompt string, out any, opts ...ai.GenerateOption) error {
	options := ai.GenerateOptions{}
	for _, o := range opts {
		o(&options)
	}
	c.lastPrompt = prompt
	c.lastSystem = options.SystemPrompts
	if c.err != nil {
		return c.err
	}
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

func TestRelevanceGraderPromptOrder(t *testing.T) {
	client := &fakeModelClient{payload: `{"binary_score": "yes"}`}
	g := NewRelevanceGrader(GraderParams{Client: client})

	verdict, err := g.Grade(context.Background(), "what is a b-tree?", "A b-tree is a self-balancing tree.")
	if err != nil {
		t.Fatalf("Grade() error = %v", err)
	}
	if verdict != flow.VerdictYes {
		t.Fatalf("Grade() = %q, want yes", verdict)
	}
	// The passage leads and the question trails in the user prompt.
	docIdx := strings.Index(client.lastPrompt, "A b-tree is a self-balancing tree.")
	qIdx := strings.Index(client.lastPrompt, "what is a b-tree?")
	if docIdx < 0 || qIdx < 0 || docIdx > qIdx {
		t.Fatalf("prompt order wrong: %q", client.lastPrompt)
	}
}

func TestGroundednessGraderPromptOrder(t *testing.T) {
	client := &fakeModelClient{payload: `{"binary_score": "no"}`}
	g := NewGroundednessGrader(GraderParams{Client: client})

	verdict, err := g.Grade(context.Background(), "fact one\nfact two", "made-up claim")
	if err != nil {
		t.Fatalf("Grade() error = %v", err)
	}
	if verdict != flow.VerdictNo {
		t.Fatalf("Grade() = %q, want no", verdict)
	}
	factsIdx := strings.Index(client.lastPrompt, "fact one\nfact two")
	genIdx := strings.Index(client.lastPrompt, "made-up claim")
	if factsIdx < 0 || genIdx < 0 || factsIdx > genIdx {
		t.Fatalf("prompt order wrong: %q", client.lastPrompt)
	}
}

func TestAdequacyGraderUsesItsSystemPrompt(t *testing.T) {
	client := &fakeModelClient{payload: `{"binary_score": "yes"}`}
	g := NewAdequacyGrader(GraderParams{Client: client})

	if _, err := g.Grade(context.Background(), "q", "a"); err != nil {
		t.Fatalf("Grade() error = %v", err)
	}
	if len(client.lastSystem) != 1 || !strings.Contains(client.lastSystem[0], "resolves the question") {
		t.Fatalf("system prompts = %v", client.lastSystem)
	}
}

func TestGraderRejectsVerdictOutsideDomain(t *testing.T) {
	client := &fakeModelClient{payload: `{"binary_score": "maybe"}`}
	g := NewAdequacyGrader(GraderParams{Client: client})

	if _, err := g.Grade(context.Background(), "q", "a"); err == nil {
		t.Fatal("Grade() accepted a verdict outside the domain")
	}
}

func TestGraderWrapsModelFailure(t *testing.T) {
	client := &fakeModelClient{err: errors.New("rate limited")}
	g := NewRelevanceGrader(GraderParams{Client: client})

	_, err := g.Grade(context.Background(), "q", "doc")
	if err == nil || !strings.Contains(err.Error(), "rate limited") {
		t.Fatalf("Grade() error = %v, want wrapped model failure", err)
	}
}

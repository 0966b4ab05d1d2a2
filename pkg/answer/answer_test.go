package answer

import (
	"context"
	"strings"
	"testing"

	"github.com/wayfind-ai/wayfind/pkg/ai"
	"github.com/wayfind-ai/wayfind/pkg/flow"
)

type fakeModelClient struct {
	completion string
	lastPrompt string
}

func (c *fakeModelClient) GenerateCompletion(_ context.Context, prompt string, _ ...ai.GenerateOption) (string, error) {
	c.lastPrompt = prompt
	return c.completion, nil
}

func (c *fakeModelClient) GenerateCompletionWithFormat(_ context.Context, _, _, _ string, _ any, _ ...ai.GenerateOption) error {
	return nil
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

func TestGenerateJoinsPassagesWithBlankLine(t *testing.T) {
	client := &fakeModelClient{completion: "42"}
	g := NewGenerator(GeneratorParams{Client: client})

	answer, err := g.Generate(context.Background(), "what is the answer?", []flow.Passage{
		{Content: "first passage"},
		{Content: "second passage"},
	})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if answer != "42" {
		t.Fatalf("Generate() = %q, want %q", answer, "42")
	}
	if !strings.Contains(client.lastPrompt, "first passage\n\nsecond passage") {
		t.Fatalf("prompt does not join passages with a blank line: %q", client.lastPrompt)
	}
	if !strings.Contains(client.lastPrompt, "Question: what is the answer?") {
		t.Fatalf("prompt missing question: %q", client.lastPrompt)
	}
}

func TestGenerateWithNoPassages(t *testing.T) {
	client := &fakeModelClient{completion: "I do not know."}
	g := NewGenerator(GeneratorParams{Client: client})

	answer, err := g.Generate(context.Background(), "q", nil)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if answer != "I do not know." {
		t.Fatalf("Generate() = %q", answer)
	}
	if !strings.Contains(client.lastPrompt, "Context: \n") {
		t.Fatalf("prompt context block not empty: %q", client.lastPrompt)
	}
}

func TestFormatPassages(t *testing.T) {
	got := FormatPassages([]flow.Passage{{Content: "a"}, {Content: "b"}})
	if got != "a\n\nb" {
		t.Fatalf("FormatPassages() = %q", got)
	}
	if FormatPassages(nil) != "" {
		t.Fatal("FormatPassages(nil) not empty")
	}
}

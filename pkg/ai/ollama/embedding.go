package ollama

import (
	"context"
	"strings"

	"github.com/ollama/ollama/api"

	"github.com/wayfind-ai/wayfind/pkg/ai"
)

// GenerateEmbedding creates a vector embedding for the given input text
// using the configured embedding model on Ollama.
func (c *OllamaModelClient) GenerateEmbedding(ctx context.Context, input []byte) ([]float32, error) {
	if len(input) == 0 || len(strings.TrimSpace(string(input))) == 0 {
		return make([]float32, c.embedDim), nil
	}

	req := &api.EmbedRequest{
		Model: c.embeddingModel,
		Input: string(input),
	}

	if err := c.reqLock.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer c.reqLock.Release(1)

	res, err := c.Client.Embed(ctx, req)
	if err != nil {
		return nil, err
	}

	c.modifyMetrics(ai.ModelMetrics{
		InputTokens: res.PromptEvalCount,
		TotalTokens: res.PromptEvalCount,
		DurationMs:  res.TotalDuration.Milliseconds(),
	})

	out := make([]float32, 0, c.embedDim)
	for _, v := range res.Embeddings {
		for _, val := range v {
			if len(out) >= c.embedDim {
				break
			}
			out = append(out, float32(val))
		}
	}
	if len(out) < c.embedDim {
		padded := make([]float32, c.embedDim)
		copy(padded, out)
		out = padded
	}
	return out, nil
}

// GenerateEmbeddings embeds each input sequentially. Ollama handles one
// embedding request at a time per model, so batching brings no benefit.
func (c *OllamaModelClient) GenerateEmbeddings(ctx context.Context, inputs [][]byte) ([][]float32, error) {
	if len(inputs) == 0 {
		return nil, nil
	}

	out := make([][]float32, len(inputs))
	for i, input := range inputs {
		vec, err := c.GenerateEmbedding(ctx, input)
		if err != nil {
			return nil, err
		}
		out[i] = vec
	}
	return out, nil
}

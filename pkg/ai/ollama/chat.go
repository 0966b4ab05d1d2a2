package ollama

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"

	"github.com/ollama/ollama/api"
	"github.com/pkoukk/tiktoken-go"

	"github.com/wayfind-ai/wayfind/pkg/ai"
)

// GenerateCompletion sends a single-turn prompt and returns assistant text.
func (c *OllamaModelClient) GenerateCompletion(
	ctx context.Context,
	prompt string,
	opts ...ai.GenerateOption,
) (string, error) {
	options := ai.GenerateOptions{
		Model:       c.chatModel,
		Temperature: 0.0,
	}
	for _, o := range opts {
		o(&options)
	}

	req, err := c.buildChatRequest(prompt, nil, options)
	if err != nil {
		return "", err
	}

	if err := c.reqLock.Acquire(ctx, 1); err != nil {
		return "", err
	}
	defer c.reqLock.Release(1)

	final, err := c.collectChat(ctx, req)
	if err != nil {
		return "", err
	}
	return final.Message.Content, nil
}

// GenerateCompletionWithFormat enforces a JSON schema and unmarshals the
// model output into out.
func (c *OllamaModelClient) GenerateCompletionWithFormat(
	ctx context.Context,
	name string,
	description string,
	prompt string,
	out any,
	opts ...ai.GenerateOption,
) error {
	if out == nil {
		return errors.New("out must be a non-nil pointer")
	}
	rv := reflect.ValueOf(out)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return errors.New("out must be a non-nil pointer")
	}

	schemaObj := ai.GenerateSchema(out)
	formatBytes, err := json.Marshal(schemaObj)
	if err != nil {
		return err
	}
	var format json.RawMessage = formatBytes

	options := ai.GenerateOptions{
		Model:       c.chatModel,
		Temperature: 0.0,
	}
	for _, o := range opts {
		o(&options)
	}

	req, err := c.buildChatRequest(prompt, format, options)
	if err != nil {
		return err
	}

	if err := c.reqLock.Acquire(ctx, 1); err != nil {
		return err
	}
	defer c.reqLock.Release(1)

	final, err := c.collectChat(ctx, req)
	if err != nil {
		return err
	}
	return ai.UnmarshalFlexible(final.Message.Content, out)
}

func (c *OllamaModelClient) buildChatRequest(
	prompt string,
	format json.RawMessage,
	options ai.GenerateOptions,
) (*api.ChatRequest, error) {
	msgs := make([]api.Message, 0, len(options.SystemPrompts)+1)
	for _, sys := range options.SystemPrompts {
		msgs = append(msgs, api.Message{Role: "system", Content: sys})
	}
	msgs = append(msgs, api.Message{Role: "user", Content: prompt})

	stream := false
	req := &api.ChatRequest{
		Model:    options.Model,
		Messages: msgs,
		Stream:   &stream,
		Format:   format,
		Options:  map[string]any{"temperature": options.Temperature},
	}

	// Ollama silently truncates at the default context window; widen it
	// when the prompt is large.
	enc, err := tiktoken.GetEncoding("o200k_base")
	if err != nil {
		return nil, err
	}
	tokens := 200
	for _, m := range msgs {
		tokens += len(enc.Encode(m.Content, nil, nil))
	}
	if tokens > 4096 {
		req.Options["num_ctx"] = tokens
	}

	return req, nil
}

func (c *OllamaModelClient) collectChat(ctx context.Context, req *api.ChatRequest) (api.ChatResponse, error) {
	var final api.ChatResponse
	if err := c.Client.Chat(ctx, req, func(cr api.ChatResponse) error {
		final.Message.Content += cr.Message.Content
		if cr.Done {
			final.Done = true
			final.Metrics = cr.Metrics
		}
		return nil
	}); err != nil {
		return api.ChatResponse{}, err
	}

	c.modifyMetrics(ai.ModelMetrics{
		InputTokens:  final.Metrics.PromptEvalCount,
		OutputTokens: final.Metrics.EvalCount,
		TotalTokens:  final.Metrics.PromptEvalCount + final.Metrics.EvalCount,
		DurationMs:   final.Metrics.TotalDuration.Milliseconds(),
	})

	return final, nil
}

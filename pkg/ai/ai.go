package ai

import "context"

// GenerateOptions holds configuration for model generation requests.
type GenerateOptions struct {
	Model         string   // Model identifier to use for generation
	SystemPrompts []string // System prompts prepended to the request
	Temperature   float64  // Sampling temperature (0.0-2.0)
}

// GenerateOption is a functional option for configuring generation requests.
type GenerateOption func(*GenerateOptions)

// WithModel returns a GenerateOption that sets the model to use. An empty
// model keeps the client's default.
func WithModel(model string) GenerateOption {
	return func(o *GenerateOptions) {
		if model != "" {
			o.Model = model
		}
	}
}

// WithSystemPrompts returns a GenerateOption that sets the system prompts
// to prepend to the generation request.
func WithSystemPrompts(prompts ...string) GenerateOption {
	return func(o *GenerateOptions) {
		o.SystemPrompts = prompts
	}
}

// WithTemperature returns a GenerateOption that sets the sampling temperature.
func WithTemperature(temp float64) GenerateOption {
	return func(o *GenerateOptions) {
		o.Temperature = temp
	}
}

// ModelMetrics contains accumulated usage metrics from model operations.
type ModelMetrics struct {
	InputTokens    int     `json:"input_tokens"`
	OutputTokens   int     `json:"output_tokens"`
	TotalTokens    int     `json:"total_tokens"`
	DurationMs     int64   `json:"duration_ms"`
	TokenPerSecond float32 `json:"tokens_per_second"`
}

// ModelClient is the interface the routing, grading, generation, and
// storage layers use to talk to a language model backend.
type ModelClient interface {
	GenerateCompletion(
		ctx context.Context,
		prompt string,
		opts ...GenerateOption,
	) (string, error)
	GenerateCompletionWithFormat(
		ctx context.Context,
		name string,
		description string,
		prompt string,
		out any,
		opts ...GenerateOption,
	) error

	GenerateEmbedding(ctx context.Context, input []byte) ([]float32, error)
	GenerateEmbeddings(ctx context.Context, inputs [][]byte) ([][]float32, error)

	ResetMetrics()
	GetMetrics() ModelMetrics
}

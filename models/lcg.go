package models

import (
	"context"
	"strings"
	"time"

	"github.com/rickchristie/refine"
	"github.com/tmc/langchaingo/llms"
)

// LCG wraps an llms.Model and implements refine.Model.
// It streams content chunks through langchaingo's streaming callback and normalizes token
// usage across providers.
//
// Example usage:
//
//	llm, _ := openai.New(openai.WithToken(apiKey))
//	model := models.NewLCG(llm).WithModelName("gpt-4.1")
//
//	completion, err := model.GenerateStream(ctx, prompt, func(chunk string) error {
//	    fmt.Print(chunk)
//	    return nil
//	})
type LCG struct {
	model     llms.Model
	modelName string
	options   []llms.CallOption
}

// NewLCG creates a new LCG wrapping the given llms.Model.
func NewLCG(model llms.Model) *LCG {
	return &LCG{
		model: model,
	}
}

// WithModelName sets the model name reported by Name.
// Returns the model for chaining.
func (m *LCG) WithModelName(name string) *LCG {
	m.modelName = name
	return m
}

// WithCallOptions sets call options applied to every generation, e.g. llms.WithTemperature.
// Returns the model for chaining.
func (m *LCG) WithCallOptions(options ...llms.CallOption) *LCG {
	m.options = append(m.options, options...)
	return m
}

// Name returns the model name.
func (m *LCG) Name() string {
	return m.modelName
}

// Unwrap returns the underlying llms.Model.
func (m *LCG) Unwrap() llms.Model {
	return m.model
}

// GenerateStream implements refine.Model.
//
// The streaming callback is added last so it cannot be overridden by call options. Backends
// that ignore it still work: the content is then taken from the final response.
func (m *LCG) GenerateStream(
	ctx context.Context,
	prompt refine.Prompt,
	onChunk func(chunk string) error,
) (*refine.Completion, error) {
	messages := make([]llms.MessageContent, 0, 2)
	if prompt.System != "" {
		messages = append(messages, llms.TextParts(llms.ChatMessageTypeSystem, prompt.System))
	}
	messages = append(messages, llms.TextParts(llms.ChatMessageTypeHuman, prompt.User))

	var streamed strings.Builder
	opts := make([]llms.CallOption, 0, len(m.options)+1)
	opts = append(opts, m.options...)
	opts = append(opts, llms.WithStreamingFunc(func(_ context.Context, chunk []byte) error {
		if len(chunk) == 0 {
			return nil
		}
		streamed.Write(chunk)
		if onChunk != nil {
			return onChunk(string(chunk))
		}
		return nil
	}))

	startTime := time.Now()
	lcgResponse, err := m.model.GenerateContent(ctx, messages, opts...)
	duration := time.Since(startTime)
	if err != nil {
		return nil, err
	}

	completion := convertLCGResponse(lcgResponse, duration)
	if completion.Content == "" {
		completion.Content = streamed.String()
	}
	return completion, nil
}

// convertLCGResponse converts an llms.ContentResponse to a refine.Completion with normalized
// tokens.
func convertLCGResponse(
	lcgResponse *llms.ContentResponse,
	duration time.Duration,
) *refine.Completion {
	completion := &refine.Completion{
		Info: &refine.GenerationInfo{Duration: duration},
	}
	if lcgResponse == nil || len(lcgResponse.Choices) == 0 {
		return completion
	}

	choice := lcgResponse.Choices[0]
	completion.Content = choice.Content

	// Extract and normalize token info from the first choice's GenerationInfo
	if rawInfo := choice.GenerationInfo; rawInfo != nil {
		completion.Info.InputTokens = extractInputTokens(rawInfo)
		completion.Info.OutputTokens = extractOutputTokens(rawInfo)
		completion.Info.TotalTokens = extractTotalTokens(
			rawInfo,
			completion.Info.InputTokens,
			completion.Info.OutputTokens,
		)
	}
	return completion
}

// extractInputTokens extracts input/prompt token count from GenerationInfo.
// Handles different key names used by different providers.
func extractInputTokens(info map[string]any) int {
	// OpenAI / Ollama (compat)
	if v := getIntFromMap(info, "PromptTokens"); v > 0 {
		return v
	}
	// Anthropic
	if v := getIntFromMap(info, "InputTokens"); v > 0 {
		return v
	}
	// Google / Bedrock
	if v := getIntFromMap(info, "input_tokens"); v > 0 {
		return v
	}
	return 0
}

// extractOutputTokens extracts output/completion token count from GenerationInfo.
func extractOutputTokens(info map[string]any) int {
	if v := getIntFromMap(info, "CompletionTokens"); v > 0 {
		return v
	}
	if v := getIntFromMap(info, "OutputTokens"); v > 0 {
		return v
	}
	if v := getIntFromMap(info, "output_tokens"); v > 0 {
		return v
	}
	return 0
}

// extractTotalTokens extracts total token count or computes it.
func extractTotalTokens(info map[string]any, input, output int) int {
	if v := getIntFromMap(info, "TotalTokens"); v > 0 {
		return v
	}
	if v := getIntFromMap(info, "total_tokens"); v > 0 {
		return v
	}
	return input + output
}

// getIntFromMap extracts an int value from a map, handling various numeric types.
func getIntFromMap(m map[string]any, key string) int {
	v, ok := m[key]
	if !ok {
		return 0
	}
	switch n := v.(type) {
	case int:
		return n
	case int32:
		return int(n)
	case int64:
		return int(n)
	case float64:
		return int(n)
	case float32:
		return int(n)
	default:
		return 0
	}
}

// Compile-time check that LCG implements refine.Model.
var _ refine.Model = (*LCG)(nil)

package refine

import (
	"context"
	"time"
)

// Prompt is one system plus user message pair sent to a Model.
type Prompt struct {
	System string
	User   string
}

// Model is the text generation boundary used by the default round executor.
//
// GenerateStream sends prompt to the model and calls onChunk with each piece of content as it
// arrives. Returning an error from onChunk aborts generation. The returned Completion holds the
// full content even when the backend did not stream.
type Model interface {
	GenerateStream(
		ctx context.Context,
		prompt Prompt,
		onChunk func(chunk string) error,
	) (*Completion, error)
}

// Completion is the result of a model call.
type Completion struct {
	// Content is the full generated text.
	Content string

	// Info contains normalized generation metadata. May be nil.
	Info *GenerationInfo
}

// GenerationInfo contains token usage normalized across providers.
type GenerationInfo struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
	Duration     time.Duration
}

package models

import (
	"context"
	"errors"
	"time"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/rickchristie/refine"
)

// OpenAI implements refine.Model with the official openai-go SDK, streaming chat
// completions.
//
// Unlike LCG it talks to the chat completions endpoint directly, which makes it the backend
// of choice for servers that are OpenAI-compatible but not recognized by langchaingo.
type OpenAI struct {
	client openai.Client
	model  string
}

// NewOpenAI creates an OpenAI model. An empty baseURL uses the OpenAI API. Extra request
// options are applied after the key and base URL.
func NewOpenAI(model, apiKey, baseURL string, opts ...option.RequestOption) (*OpenAI, error) {
	if model == "" {
		return nil, errors.New("openai: model is required")
	}
	reqOpts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(baseURL))
	}
	reqOpts = append(reqOpts, opts...)

	return &OpenAI{
		client: openai.NewClient(reqOpts...),
		model:  model,
	}, nil
}

// Name returns the model name.
func (o *OpenAI) Name() string {
	return o.model
}

// GenerateStream implements refine.Model.
func (o *OpenAI) GenerateStream(
	ctx context.Context,
	prompt refine.Prompt,
	onChunk func(chunk string) error,
) (*refine.Completion, error) {
	msgs := make([]openai.ChatCompletionMessageParamUnion, 0, 2)
	if prompt.System != "" {
		msgs = append(msgs, openai.SystemMessage(prompt.System))
	}
	msgs = append(msgs, openai.UserMessage(prompt.User))

	startTime := time.Now()
	stream := o.client.Chat.Completions.NewStreaming(ctx, openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(o.model),
		Messages: msgs,
		StreamOptions: openai.ChatCompletionStreamOptionsParam{
			IncludeUsage: openai.Bool(true),
		},
	})
	defer stream.Close()

	acc := openai.ChatCompletionAccumulator{}
	for stream.Next() {
		chunk := stream.Current()
		acc.AddChunk(chunk)
		if len(chunk.Choices) == 0 || chunk.Choices[0].Delta.Content == "" {
			continue
		}
		if onChunk != nil {
			if err := onChunk(chunk.Choices[0].Delta.Content); err != nil {
				return nil, err
			}
		}
	}
	if err := stream.Err(); err != nil {
		return nil, err
	}

	completion := &refine.Completion{
		Info: &refine.GenerationInfo{
			InputTokens:  int(acc.Usage.PromptTokens),
			OutputTokens: int(acc.Usage.CompletionTokens),
			TotalTokens:  int(acc.Usage.TotalTokens),
			Duration:     time.Since(startTime),
		},
	}
	if len(acc.Choices) > 0 {
		completion.Content = acc.Choices[0].Message.Content
	}
	return completion, nil
}

var _ refine.Model = (*OpenAI)(nil)
